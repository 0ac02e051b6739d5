package sqldsl

import "strings"

// JSONColumn is a column definition inside a JSON_TABLE COLUMNS clause.
type JSONColumn interface {
	columnSQL() string
}

// OrdinalityColumn numbers the rows produced at its nesting level, from 1.
type OrdinalityColumn struct {
	Name string
}

func (o OrdinalityColumn) columnSQL() string {
	return Ident(o.Name) + " FOR ORDINALITY"
}

// PathColumn extracts a typed value at a path relative to its level.
type PathColumn struct {
	Name string
	Type string
	Path string
}

func (p PathColumn) columnSQL() string {
	return Ident(p.Name) + " " + p.Type + " PATH " + Lit(p.Path).SQL()
}

// NestedPath unnests the array or object at Path into further columns.
type NestedPath struct {
	Path    string
	Columns []JSONColumn
}

func (n NestedPath) columnSQL() string {
	return "NESTED PATH " + columnsBlock(n.Path, n.Columns)
}

// JSONTable unnests a JSON document into rows.
//
//	JSON_TABLE(
//	  doc,
//	  '$' COLUMNS (
//	    ...
//	  )
//	) AS `alias`
type JSONTable struct {
	Doc     Expr
	Path    string
	Columns []JSONColumn
	Alias   string
}

// TableSQL implements TableExpr.
func (j JSONTable) TableSQL() string {
	body := j.Doc.SQL() + ",\n" + columnsBlock(j.Path, j.Columns)
	return "JSON_TABLE(\n" + IndentLines(body, "  ") + "\n) AS " + Ident(j.Alias)
}

// TableAlias implements TableExpr.
func (j JSONTable) TableAlias() string {
	return j.Alias
}

func columnsBlock(path string, columns []JSONColumn) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = c.columnSQL()
	}
	return Lit(path).SQL() + " COLUMNS (\n" + IndentLines(strings.Join(parts, ",\n"), "  ") + "\n)"
}
