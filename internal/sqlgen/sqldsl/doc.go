// Package sqldsl provides typed building blocks for MariaDB statements.
//
// # Overview
//
// Rather than concatenating SQL by hand, the projection compiler assembles
// statements from small values that each render themselves. Every generated
// statement is multi-line and indented two spaces per level so the output is
// readable in logs, dry runs and tests.
//
// # Core Interfaces
//
//   - Expr: SQL expressions (columns, literals, parameters, operators, calls)
//   - TableExpr: sources usable in FROM and JOIN clauses
//   - SQLer: complete statements
//
// # Expression Types
//
//	Ident("order")                        // `order`
//	Col{Table: "T", Column: "__row_id"}   // `T`.`__row_id`
//	Lit("$.name")                         // '$.name'
//	Param("NAME")                         // %(NAME)s
//	Int(42)                               // 42
//	Func{Name: "JSON_VALUE", Args: ...}   // JSON_VALUE(`__json`, '$.name')
//	Match{Columns: ..., Query: Param(..)} // MATCH (`a`,`b`) AGAINST (%(Q)s IN BOOLEAN MODE)
//
// Parameters use the named %(NAME)s placeholder style. The execution backend
// rewrites them into positional placeholders before a statement is sent.
//
// # Statement Types
//
//	CreateTable{Name: "model_T", Definitions: defs, Suffix: engine}
//	CreateView{Name: "model_P", Query: sel}
//	InsertSelect{Table: "model_P_pbase", Columns: cols, Query: sel}
//	DeleteStmt{Table: "model_P_pbase", Where: []Expr{...}}
//	SelectStmt{Columns: ..., From: TableRef{...}, Joins: ..., Where: ...}
//
// JSON_TABLE sources with nested paths and ordinality columns are modelled by
// JSONTable, NestedPath, PathColumn and OrdinalityColumn.
package sqldsl
