package sqlgen

import (
	"fmt"
	"strings"

	"github.com/pthm/docstore/internal/sqlgen/sqldsl"
	"github.com/pthm/docstore/schema"
)

const rootAlias = "ROOT"

// Delete compiles a filtered DELETE on the primary table of a root type.
// Part and side rows are left in place; see Orphans.
func (c *Compiler) Delete(typeName string, where []Condition) (Statement, error) {
	t, err := c.reg.Lookup(typeName)
	if err != nil {
		return Statement{}, err
	}
	if t.IsPart() {
		return Statement{}, fmt.Errorf("%w: %s is a part of %s and is deleted through it",
			ErrInvalidQuery, t.Name, t.Container)
	}

	names := newParamNamer(JSONParam, RootRowIDParam)
	stmt := Statement{Params: make([]string, len(where))}
	exprs := make([]sqldsl.Expr, 0, len(where))
	for i, w := range where {
		if strings.ContainsAny(w.Field, ".,") {
			return Statement{}, fmt.Errorf("%w: delete filters on %q must name a field of %s",
				ErrInvalidQuery, w.Field, t.Name)
		}
		if !hasColumn(t, w.Field) {
			return Statement{}, fmt.Errorf("%w: %s has no column %q", ErrInvalidQuery, t.Name, w.Field)
		}
		if f, ok := t.Field(w.Field); ok && f.IsArray() {
			return Statement{}, fmt.Errorf("%w: delete cannot filter on array field %q", ErrInvalidQuery, w.Field)
		}
		param := names.next(w.Field)
		expr, ok := sqldsl.Compare(w.Op, sqldsl.Col{Column: w.Field}, sqldsl.Param(param))
		if !ok {
			return Statement{}, fmt.Errorf("%w: unknown operator %q", ErrInvalidQuery, w.Op)
		}
		stmt.Params[i] = param
		exprs = append(exprs, expr)
	}

	stmt.SQL = sqldsl.DeleteStmt{Table: c.TableName(t.Name, ""), Where: exprs}.SQL()
	return stmt, nil
}

// OrphanCheck finds and removes rows of one table whose root row is gone.
type OrphanCheck struct {
	Table Table
	Root  string
	// Count returns a single row with the number of orphaned rows.
	Count string
	// Purge deletes the orphaned rows.
	Purge string
}

// Orphans returns a check for every part base and side table in the closure
// of the given types.
func (c *Compiler) Orphans(typeNames ...string) ([]OrphanCheck, error) {
	layouts, err := c.PlanAll(typeNames...)
	if err != nil {
		return nil, err
	}
	var out []OrphanCheck
	for _, l := range layouts {
		for _, table := range l.Tables() {
			if table.Kind != PartBaseTable && table.Kind != SideTable {
				continue
			}
			out = append(out, orphanCheck(table, l.Root))
		}
	}
	return out, nil
}

func orphanCheck(table Table, root string) OrphanCheck {
	orphaned := sqldsl.NotExists{Query: sqldsl.SelectStmt{
		From: sqldsl.TableAs(root, rootAlias),
		Where: []sqldsl.Expr{sqldsl.Eq{
			Left:  sqldsl.Col{Table: rootAlias, Column: schema.RowIDField},
			Right: sqldsl.Col{Table: table.Name, Column: schema.RootRowIDField},
		}},
	}}
	return OrphanCheck{
		Table: table,
		Root:  root,
		Count: sqldsl.SelectStmt{
			Columns: []sqldsl.Expr{sqldsl.Raw("COUNT(*)")},
			From:    sqldsl.TableRef{Name: table.Name},
			Where:   []sqldsl.Expr{orphaned},
		}.SQL(),
		Purge: sqldsl.DeleteStmt{Table: table.Name, Where: []sqldsl.Expr{orphaned}}.SQL(),
	}
}
