package sqldsl

import (
	"fmt"
	"strings"
)

// Expr is the interface that all SQL expression types implement.
type Expr interface {
	SQL() string
}

// SQLer is implemented by complete statements.
type SQLer interface {
	SQL() string
}

// Ident quotes an identifier with backticks.
func Ident(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// Idents quotes each name and joins them with commas.
func Idents(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = Ident(n)
	}
	return strings.Join(quoted, ",")
}

// Param is a named statement parameter, rendered as %(NAME)s.
type Param string

// SQL renders the placeholder.
func (p Param) SQL() string {
	return "%(" + string(p) + ")s"
}

// Col represents a column reference, optionally qualified by a table or alias.
type Col struct {
	Table  string
	Column string
}

// SQL renders the column reference.
func (c Col) SQL() string {
	if c.Table == "" {
		return Ident(c.Column)
	}
	return Ident(c.Table) + "." + Ident(c.Column)
}

// Lit represents a literal string value (auto-quoted with single quotes).
type Lit string

// SQL renders the literal with single quotes.
func (l Lit) SQL() string {
	escaped := strings.ReplaceAll(string(l), `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, "'", "''")
	return "'" + escaped + "'"
}

// Raw is an escape hatch for arbitrary SQL expressions.
type Raw string

// SQL renders the raw SQL as-is.
func (r Raw) SQL() string {
	return string(r)
}

// Int represents an integer literal.
type Int int64

// SQL renders the integer.
func (i Int) SQL() string {
	return fmt.Sprintf("%d", i)
}

// Uint represents an unsigned integer literal.
type Uint uint64

// SQL renders the integer.
func (u Uint) SQL() string {
	return fmt.Sprintf("%d", u)
}

// Func represents a SQL function call.
type Func struct {
	Name string
	Args []Expr
}

// SQL renders the function call.
func (f Func) SQL() string {
	args := make([]string, len(f.Args))
	for i, arg := range f.Args {
		args[i] = arg.SQL()
	}
	return f.Name + "(" + strings.Join(args, ", ") + ")"
}

// Alias wraps an expression with an alias (expr AS `alias`).
type Alias struct {
	Expr Expr
	Name string
}

// SQL renders the aliased expression.
func (a Alias) SQL() string {
	return a.Expr.SQL() + " AS " + Ident(a.Name)
}

// SelectAs creates an aliased column expression.
func SelectAs(expr Expr, alias string) Alias {
	return Alias{Expr: expr, Name: alias}
}

// Star selects every column, optionally of one table.
type Star struct {
	Table string
}

// SQL renders the wildcard.
func (s Star) SQL() string {
	if s.Table == "" {
		return "*"
	}
	return Ident(s.Table) + ".*"
}

// Concat renders CONCAT(a, b, ...).
type Concat struct {
	Parts []Expr
}

// SQL renders the concatenation.
func (c Concat) SQL() string {
	if len(c.Parts) == 0 {
		return "''"
	}
	return Func{Name: "CONCAT", Args: c.Parts}.SQL()
}

// =============================================================================
// JSON Functions
// =============================================================================

// JSONValue extracts a scalar: JSON_VALUE(doc, 'path').
func JSONValue(doc Expr, path string) Func {
	return Func{Name: "JSON_VALUE", Args: []Expr{doc, Lit(path)}}
}

// JSONExtract extracts a JSON fragment: JSON_EXTRACT(doc, path).
func JSONExtract(doc, path Expr) Func {
	return Func{Name: "JSON_EXTRACT", Args: []Expr{doc, path}}
}

// ArrayAgg aggregates values into a JSON array, optionally ordered.
type ArrayAgg struct {
	Expr    Expr
	OrderBy []Expr
}

// SQL renders JSON_ARRAYAGG(expr [ORDER BY ...]).
func (a ArrayAgg) SQL() string {
	if len(a.OrderBy) == 0 {
		return "JSON_ARRAYAGG(" + a.Expr.SQL() + ")"
	}
	order := make([]string, len(a.OrderBy))
	for i, o := range a.OrderBy {
		order[i] = o.SQL()
	}
	return "JSON_ARRAYAGG(" + a.Expr.SQL() + " ORDER BY " + strings.Join(order, ", ") + ")"
}

// JSONArrayAgg aggregates values into a JSON array in the given order.
func JSONArrayAgg(expr Expr, orderBy ...Expr) ArrayAgg {
	return ArrayAgg{Expr: expr, OrderBy: orderBy}
}

// Coalesce renders COALESCE(a, b, ...).
func Coalesce(exprs ...Expr) Func {
	return Func{Name: "COALESCE", Args: exprs}
}

// =============================================================================
// Full-text Search
// =============================================================================

// Match renders a boolean-mode full-text match over one or more columns.
type Match struct {
	Columns []Expr
	Query   Expr
}

// SQL renders MATCH (...) AGAINST (... IN BOOLEAN MODE).
func (m Match) SQL() string {
	cols := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		cols[i] = c.SQL()
	}
	return "MATCH (" + strings.Join(cols, ",") + ") AGAINST (" + m.Query.SQL() + " IN BOOLEAN MODE)"
}

// Sum adds expressions together, parenthesizing when there is more than one.
func Sum(exprs ...Expr) Expr {
	exprs = filterNilExprs(exprs)
	switch len(exprs) {
	case 0:
		return Int(0)
	case 1:
		return exprs[0]
	default:
		parts := make([]string, len(exprs))
		for i, e := range exprs {
			parts[i] = e.SQL()
		}
		return Raw("(" + strings.Join(parts, " + ") + ")")
	}
}
