package sqldsl

import (
	"fmt"
	"strings"
)

// Sqlf formats SQL with automatic dedenting and blank line removal.
// The SQL shape is visible in the format string.
func Sqlf(format string, args ...any) string {
	s := fmt.Sprintf(format, args...)
	lines := strings.Split(s, "\n")

	// Find minimum indentation (ignoring empty lines)
	minIndent := 1000
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		indent := len(line) - len(trimmed)
		if indent < minIndent {
			minIndent = indent
		}
	}

	// Remove common indent and empty lines
	var result []string
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len(line) >= minIndent {
			result = append(result, line[minIndent:])
		} else {
			result = append(result, strings.TrimLeft(line, " \t"))
		}
	}

	return strings.Join(result, "\n")
}

// Optf returns formatted string if condition is true, empty string otherwise.
// Useful for optional SQL clauses.
func Optf(cond bool, format string, args ...any) string {
	if !cond {
		return ""
	}
	return fmt.Sprintf(format, args...)
}

// IndentLines prefixes every line of input with indent.
func IndentLines(input, indent string) string {
	if input == "" {
		return ""
	}
	lines := strings.Split(strings.TrimSpace(input), "\n")
	for i, line := range lines {
		lines[i] = indent + line
	}
	return strings.Join(lines, "\n")
}

// JoinLines joins the non-empty lines with newlines.
func JoinLines(lines ...string) string {
	kept := lines[:0:0]
	for _, l := range lines {
		if l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}

// renderList renders expressions one per line, separated by sep.
func renderList(exprs []Expr, sep string) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.SQL()
	}
	return strings.Join(parts, sep+"\n")
}

// clause renders a keyword followed by an indented list.
func clause(keyword string, exprs []Expr, sep string) string {
	if len(exprs) == 0 {
		return ""
	}
	return keyword + "\n" + IndentLines(renderList(exprs, sep), "  ")
}

// JoinClause represents a SQL JOIN clause.
type JoinClause struct {
	Type  string // "", "INNER", "LEFT", "CROSS"
	Table TableExpr
	On    Expr
}

// SQL renders the JOIN clause.
func (j JoinClause) SQL() string {
	keyword := "JOIN"
	if j.Type != "" {
		keyword = j.Type + " JOIN"
	}
	if j.On == nil {
		return keyword + " " + j.Table.TableSQL()
	}
	return keyword + " " + j.Table.TableSQL() + " ON " + j.On.SQL()
}

// OrderBy is one ORDER BY item. Dir is passed through verbatim.
type OrderBy struct {
	Expr Expr
	Dir  string
}

// SQL renders the item.
func (o OrderBy) SQL() string {
	if o.Dir == "" {
		return o.Expr.SQL()
	}
	return o.Expr.SQL() + " " + o.Dir
}

// SelectStmt represents a SELECT query.
type SelectStmt struct {
	Distinct bool
	Columns  []Expr
	From     TableExpr
	Joins    []JoinClause
	Where    []Expr // combined with AND
	GroupBy  []Expr
	OrderBy  []Expr
	Limit    Expr
	Offset   Expr
}

// SQL renders the SELECT statement.
func (s SelectStmt) SQL() string {
	return JoinLines(
		"SELECT"+Optf(s.Distinct, " DISTINCT"),
		IndentLines(s.columnsSQL(), "  "),
		s.fromSQL(),
		s.joinsSQL(),
		clause("WHERE", s.Where, " AND"),
		clause("GROUP BY", s.GroupBy, ","),
		clause("ORDER BY", s.OrderBy, ","),
		s.limitSQL(),
	)
}

func (s SelectStmt) columnsSQL() string {
	if len(s.Columns) == 0 {
		return "1"
	}
	return renderList(s.Columns, ",")
}

func (s SelectStmt) fromSQL() string {
	switch from := s.From.(type) {
	case nil:
		return ""
	case TableList:
		return "FROM\n" + IndentLines(from.TableSQL(), "  ")
	default:
		return "FROM " + from.TableSQL()
	}
}

func (s SelectStmt) joinsSQL() string {
	if len(s.Joins) == 0 {
		return ""
	}
	parts := make([]string, len(s.Joins))
	for i, j := range s.Joins {
		parts[i] = IndentLines(j.SQL(), "  ")
	}
	return strings.Join(parts, "\n")
}

func (s SelectStmt) limitSQL() string {
	if s.Limit == nil {
		return ""
	}
	if s.Offset == nil {
		return "LIMIT " + s.Limit.SQL()
	}
	return "LIMIT " + s.Limit.SQL() + " OFFSET " + s.Offset.SQL()
}

// =============================================================================
// Data Definition
// =============================================================================

// CreateTable renders CREATE TABLE IF NOT EXISTS with one definition per line.
type CreateTable struct {
	Name        string
	Definitions []string
	Suffix      string // appended verbatim after the closing parenthesis
}

// SQL renders the statement.
func (c CreateTable) SQL() string {
	return JoinLines(
		"CREATE TABLE IF NOT EXISTS "+Ident(c.Name)+" (",
		IndentLines(strings.Join(c.Definitions, ",\n"), "  "),
		")"+c.Suffix,
	)
}

// CreateView renders CREATE VIEW IF NOT EXISTS over a query.
type CreateView struct {
	Name  string
	Query SQLer
}

// SQL renders the statement.
func (c CreateView) SQL() string {
	return JoinLines(
		"CREATE VIEW IF NOT EXISTS "+Ident(c.Name)+" AS (",
		IndentLines(c.Query.SQL(), "  "),
		")",
	)
}

// =============================================================================
// Data Manipulation
// =============================================================================

// Assign is one SET item of an ON DUPLICATE KEY UPDATE clause.
type Assign struct {
	Column string
	Value  Expr
}

// SQL renders `column` = value.
func (a Assign) SQL() string {
	return Ident(a.Column) + " = " + a.Value.SQL()
}

// InsertValues renders a single-row INSERT, optionally with an
// ON DUPLICATE KEY UPDATE clause.
type InsertValues struct {
	Table    string
	Columns  []string
	Values   []Expr
	OnUpdate []Assign
}

// SQL renders the statement.
func (i InsertValues) SQL() string {
	updates := make([]Expr, len(i.OnUpdate))
	for n, a := range i.OnUpdate {
		updates[n] = a
	}
	return JoinLines(
		"INSERT INTO "+Ident(i.Table)+" (",
		IndentLines(identList(i.Columns), "  "),
		")",
		"VALUES (",
		IndentLines(renderList(i.Values, ","), "  "),
		")",
		clause("ON DUPLICATE KEY UPDATE", updates, ","),
	)
}

// InsertSelect renders INSERT INTO ... SELECT.
type InsertSelect struct {
	Table   string
	Columns []string
	Query   SQLer
}

// SQL renders the statement.
func (i InsertSelect) SQL() string {
	return JoinLines(
		"INSERT INTO "+Ident(i.Table)+" (",
		IndentLines(identList(i.Columns), "  "),
		")",
		i.Query.SQL(),
	)
}

// DeleteStmt renders DELETE FROM with an optional WHERE clause.
type DeleteStmt struct {
	Table string
	Where []Expr // combined with AND
}

// SQL renders the statement.
func (d DeleteStmt) SQL() string {
	return JoinLines(
		"DELETE FROM "+Ident(d.Table),
		clause("WHERE", d.Where, " AND"),
	)
}

func identList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = Ident(n)
	}
	return strings.Join(quoted, ",\n")
}
