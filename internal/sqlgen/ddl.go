package sqlgen

import (
	"fmt"

	"github.com/pthm/docstore/internal/sqlgen/sqldsl"
	"github.com/pthm/docstore/schema"
)

// DDLStatement is a CREATE statement for one relation.
type DDLStatement struct {
	Table Table
	SQL   string
}

// DDL returns the CREATE statements for the closure of the given types, in
// creation order.
func (c *Compiler) DDL(typeNames ...string) ([]DDLStatement, error) {
	layouts, err := c.PlanAll(typeNames...)
	if err != nil {
		return nil, err
	}
	var out []DDLStatement
	for _, l := range layouts {
		stmts, err := c.CreateStatements(l)
		if err != nil {
			return nil, err
		}
		out = append(out, stmts...)
	}
	return out, nil
}

// CreateStatements returns the CREATE statements of one layout, in the
// order of Layout.Tables.
func (c *Compiler) CreateStatements(l Layout) ([]DDLStatement, error) {
	t, err := c.reg.Lookup(l.Type)
	if err != nil {
		return nil, err
	}
	var out []DDLStatement
	for _, table := range l.Tables() {
		var sql string
		switch table.Kind {
		case PrimaryTable:
			sql, err = c.createPrimaryTable(t, table.Name)
		case PartBaseTable:
			sql, err = c.createPartBaseTable(t, table.Name)
		case PartView:
			sql = c.createPartView(t, l)
		case SideTable:
			f, _ := t.Field(table.Field)
			sql, err = c.createSideTable(f, table.Name)
		}
		if err != nil {
			return nil, fmt.Errorf("creating %s: %w", table.Name, err)
		}
		out = append(out, DDLStatement{Table: table, SQL: sql})
	}
	return out, nil
}

func (c *Compiler) createPrimaryTable(t *schema.Type, name string) (string, error) {
	defs := []string{
		sqldsl.Ident(schema.RowIDField) + " " + rowIDType + " AUTO_INCREMENT PRIMARY KEY",
		sqldsl.Ident(schema.JSONField) + " " + jsonColumnType +
			" CHECK (JSON_VALID(" + sqldsl.Ident(schema.JSONField) + "))",
	}
	fields := columnFields(t)
	for _, f := range fields {
		def, err := generatedColumn(f)
		if err != nil {
			return "", err
		}
		defs = append(defs, def)
	}
	defs = append(defs, c.fieldKeys(fields)...)
	return sqldsl.CreateTable{Name: name, Definitions: defs, Suffix: c.engineSuffix()}.SQL(), nil
}

func (c *Compiler) createPartBaseTable(t *schema.Type, name string) (string, error) {
	defs := []string{
		sqldsl.Ident(schema.RowIDField) + " " + rowIDType + " AUTO_INCREMENT PRIMARY KEY",
		sqldsl.Ident(schema.RootRowIDField) + " " + refRowIDType,
		sqldsl.Ident(schema.ContainerRowIDField) + " " + refRowIDType,
		fmt.Sprintf("%s VARCHAR(%d)", sqldsl.Ident(schema.JSONPathField), jsonPathLength),
	}
	fields := columnFields(t)
	for _, f := range fields {
		typ, err := ColumnType(f.Type)
		if err != nil {
			return "", fmt.Errorf("field %s: %w", f.Name, err)
		}
		defs = append(defs, sqldsl.Ident(f.Name)+" "+typ)
	}
	defs = append(defs, keyDef("KEY", schema.RootRowIDField, false))
	defs = append(defs, c.fieldKeys(fields)...)
	return sqldsl.CreateTable{Name: name, Definitions: defs, Suffix: c.engineSuffix()}.SQL(), nil
}

func (c *Compiler) createPartView(t *schema.Type, l Layout) string {
	cols := []sqldsl.Expr{
		sqldsl.SelectAs(sqldsl.JSONExtract(
			sqldsl.Col{Table: l.Container, Column: schema.JSONField},
			sqldsl.Col{Table: l.Base, Column: schema.JSONPathField},
		), schema.JSONField),
	}
	for _, name := range []string{
		schema.RowIDField, schema.RootRowIDField, schema.ContainerRowIDField, schema.JSONPathField,
	} {
		cols = append(cols, sqldsl.Col{Table: l.Base, Column: name})
	}
	for _, f := range columnFields(t) {
		cols = append(cols, sqldsl.Col{Table: l.Base, Column: f.Name})
	}

	query := sqldsl.SelectStmt{
		Columns: cols,
		From:    sqldsl.TableRef{Name: l.Base},
		Joins: []sqldsl.JoinClause{{
			Table: sqldsl.TableRef{Name: l.Container},
			On: sqldsl.Eq{
				Left:  sqldsl.Col{Table: l.Container, Column: schema.RowIDField},
				Right: sqldsl.Col{Table: l.Base, Column: schema.ContainerRowIDField},
			},
		}},
	}
	return sqldsl.CreateView{Name: l.Primary, Query: query}.SQL()
}

func (c *Compiler) createSideTable(f schema.Field, name string) (string, error) {
	elem := f.Type.Elem()
	typ, err := ColumnType(elem)
	if err != nil {
		return "", fmt.Errorf("field %s: %w", f.Name, err)
	}
	defs := []string{
		sqldsl.Ident(schema.RowIDField) + " " + rowIDType,
		sqldsl.Ident(schema.RootRowIDField) + " " + refRowIDType,
		sqldsl.Ident(f.Name) + " " + typ,
		keyDef("KEY", schema.RowIDField, false),
		keyDef("KEY", schema.RootRowIDField, false),
		keyDef("KEY", f.Name, needsKeyPrefix(elem)),
	}
	return sqldsl.CreateTable{Name: name, Definitions: defs, Suffix: c.engineSuffix()}.SQL(), nil
}

// generatedColumn declares a column computed from the payload. Identifying
// columns are plain: their value is bound at write time.
func generatedColumn(f schema.Field) (string, error) {
	typ, err := ColumnType(f.Type)
	if err != nil {
		return "", fmt.Errorf("field %s: %w", f.Name, err)
	}
	if f.Has(schema.Identifying) {
		return sqldsl.Ident(f.Name) + " " + typ, nil
	}

	doc := sqldsl.Col{Column: schema.JSONField}
	var expr sqldsl.Expr = sqldsl.JSONValue(doc, f.JSONPath())
	if f.IsArray() {
		expr = sqldsl.JSONExtract(doc, sqldsl.Lit(f.JSONPath()))
	}
	return fmt.Sprintf("%s %s AS (%s) STORED", sqldsl.Ident(f.Name), typ, expr.SQL()), nil
}

// fieldKeys returns KEY and UNIQUE KEY clauses in field order followed by the
// FULLTEXT index. JSON array columns are indexed through side tables instead.
func (c *Compiler) fieldKeys(fields []schema.Field) []string {
	var keys []string
	var fullText []string
	for _, f := range fields {
		if f.Has(schema.FullTextSearched) {
			fullText = append(fullText, f.Name)
		}
		if f.IsArray() {
			continue
		}
		switch {
		case f.Has(schema.Unique):
			keys = append(keys, keyDef("UNIQUE KEY", f.Name, needsKeyPrefix(f.Type)))
		case f.Has(schema.Indexed):
			keys = append(keys, keyDef("KEY", f.Name, needsKeyPrefix(f.Type)))
		}
	}
	if len(fullText) > 0 {
		keys = append(keys, fmt.Sprintf("FULLTEXT INDEX `ft_index` (%s) COMMENT 'parser \"%s\"'",
			sqldsl.Idents(fullText), c.cfg.FullTextParser))
	}
	return keys
}

func keyDef(kind, column string, prefix bool) string {
	col := sqldsl.Ident(column)
	if prefix {
		col = fmt.Sprintf("%s(%d)", col, keyPrefixLength)
	}
	return fmt.Sprintf("%s %s (%s)", kind, sqldsl.Ident(column+"_index"), col)
}

func (c *Compiler) engineSuffix() string {
	if c.cfg.Engine == "" {
		return ""
	}
	return " " + c.cfg.Engine
}
