package sqlgen

import (
	"fmt"

	"github.com/pthm/docstore/internal/sqlgen/sqldsl"
	"github.com/pthm/docstore/schema"
)

// Aliases used inside upsert statements.
const (
	containerAlias     = "CONTAINER"
	sourceAlias        = "SOURCE"
	partJSONTableAlias = "__PART_JSON_TABLE"
	extJSONTableAlias  = "__EXTERNAL_JSON_TABLE"
	partOrderField     = "__part_order"
	partRowsAlias      = "T1"
)

// IdentifierParam binds an identifying field to its placeholder.
type IdentifierParam struct {
	Field string
	Param string
}

// UpsertPlan holds the statements that write one root document.
type UpsertPlan struct {
	Type string
	// Primary inserts or replaces the payload. Its ON DUPLICATE KEY clause
	// makes LAST_INSERT_ID() return the row id in both cases.
	Primary     string
	Identifiers []IdentifierParam
	// LastInsertID reads the row id written by Primary.
	LastInsertID string
	// Cascade rebuilds part and side rows. Every statement takes only the
	// RootRowIDParam parameter and must run after Primary, in order.
	Cascade []string
}

// PrimaryParams binds the payload and identifying values of a document.
func (p UpsertPlan) PrimaryParams(payload string, identifiers map[string]any) map[string]any {
	params := map[string]any{JSONParam: payload}
	for _, id := range p.Identifiers {
		params[id.Param] = identifiers[id.Field]
	}
	return params
}

// CascadeParams binds the row id returned for the primary insert.
func CascadeParams(rootRowID int64) map[string]any {
	return map[string]any{RootRowIDParam: rootRowID}
}

// Upsert compiles the write statements of a root type.
func (c *Compiler) Upsert(typeName string) (UpsertPlan, error) {
	t, err := c.reg.Lookup(typeName)
	if err != nil {
		return UpsertPlan{}, err
	}
	if t.IsPart() {
		return UpsertPlan{}, fmt.Errorf("%w: %s is a part of %s and is written through it",
			ErrInvalidQuery, t.Name, t.Container)
	}

	plan := UpsertPlan{
		Type:         t.Name,
		LastInsertID: sqldsl.SelectStmt{Columns: []sqldsl.Expr{sqldsl.Raw("LAST_INSERT_ID()")}}.SQL(),
	}

	names := newParamNamer(JSONParam, RootRowIDParam)
	columns := []string{schema.JSONField}
	values := []sqldsl.Expr{sqldsl.Param(JSONParam)}
	for _, f := range t.FieldsWith(schema.Identifying) {
		param := names.next(f.Name)
		plan.Identifiers = append(plan.Identifiers, IdentifierParam{Field: f.Name, Param: param})
		columns = append(columns, f.Name)
		values = append(values, sqldsl.Param(param))
	}
	plan.Primary = sqldsl.InsertValues{
		Table:   c.TableName(t.Name, ""),
		Columns: columns,
		Values:  values,
		OnUpdate: []sqldsl.Assign{
			{Column: schema.JSONField, Value: sqldsl.Param(JSONParam)},
			{Column: schema.RowIDField, Value: sqldsl.Func{
				Name: "LAST_INSERT_ID",
				Args: []sqldsl.Expr{sqldsl.Col{Column: schema.RowIDField}},
			}},
		},
	}.SQL()

	if plan.Cascade, err = c.cascade(t); err != nil {
		return UpsertPlan{}, err
	}
	c.logger.Debug("compiled upsert", "type", t.Name, "statements", 2+len(plan.Cascade))
	return plan, nil
}

// cascade returns the side table statements of t followed by, for each part
// type, the part rows and then the part's own cascade.
func (c *Compiler) cascade(t *schema.Type) ([]string, error) {
	stmts, err := c.externals(t)
	if err != nil {
		return nil, err
	}
	for _, name := range t.PartTypes() {
		pt, err := c.reg.Lookup(name)
		if err != nil {
			return nil, err
		}
		base := c.TableName(pt.Name, PartBaseSuffix)
		stmts = append(stmts, deleteByRoot(base))
		for _, pf := range t.PartFieldsOf(pt.Name) {
			insert, err := c.insertParts(t, pt, pf)
			if err != nil {
				return nil, fmt.Errorf("part field %s.%s: %w", t.Name, pf.Name, err)
			}
			stmts = append(stmts, insert)
		}
		nested, err := c.cascade(pt)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, nested...)
	}
	return stmts, nil
}

func deleteByRoot(table string) string {
	return sqldsl.DeleteStmt{
		Table: table,
		Where: []sqldsl.Expr{sqldsl.Eq{
			Left:  sqldsl.Col{Column: schema.RootRowIDField},
			Right: sqldsl.Param(RootRowIDParam),
		}},
	}.SQL()
}

// rootRowID is the column holding the root row id of rows in alias: the row
// id itself for root types.
func rootRowID(t *schema.Type, alias string) sqldsl.Col {
	if t.IsPart() {
		return sqldsl.Col{Table: alias, Column: schema.RootRowIDField}
	}
	return sqldsl.Col{Table: alias, Column: schema.RowIDField}
}

// insertParts unnests one part field of the container payload into the part
// base table. Scalar fields come from one row per part. Each array field is
// unnested in its own derived table and aggregated over its present elements
// only, so sibling arrays and empty arrays cannot leak NULL entries.
func (c *Compiler) insertParts(container, part *schema.Type, pf schema.PartField) (string, error) {
	top, partNode := partTree(pf)

	var arrays []schema.Field
	for _, f := range columnFields(part) {
		if f.IsArray() {
			arrays = append(arrays, f)
			continue
		}
		col, err := jsonColumn(f)
		if err != nil {
			return "", err
		}
		if f.Ascends() {
			top.add(f.Path[1:], col)
		} else {
			partNode.add(f.Path, col)
		}
	}

	root := rootRowID(container, containerAlias)
	var jsonPath sqldsl.Expr = sqldsl.Lit("$." + pf.Name)
	if pf.Collection {
		jsonPath = sqldsl.Concat{Parts: []sqldsl.Expr{
			sqldsl.Lit("$." + pf.Name + "["),
			sqldsl.Sub{Left: sqldsl.Col{Column: partOrderField}, Right: sqldsl.Int(1)},
			sqldsl.Lit("]"),
		}}
	}

	innerCols := []sqldsl.Expr{
		sqldsl.Col{Table: partJSONTableAlias, Column: partOrderField},
		sqldsl.SelectAs(root, schema.RootRowIDField),
		sqldsl.SelectAs(sqldsl.Col{Table: containerAlias, Column: schema.RowIDField}, schema.ContainerRowIDField),
		sqldsl.SelectAs(jsonPath, schema.JSONPathField),
	}
	targets := []string{schema.RootRowIDField, schema.ContainerRowIDField, schema.JSONPathField}
	outerCols := []sqldsl.Expr{
		sqldsl.Col{Table: partRowsAlias, Column: schema.RootRowIDField},
		sqldsl.Col{Table: partRowsAlias, Column: schema.ContainerRowIDField},
		sqldsl.Col{Table: partRowsAlias, Column: schema.JSONPathField},
	}
	var joins []sqldsl.JoinClause
	for _, f := range columnFields(part) {
		targets = append(targets, f.Name)
		if !f.IsArray() {
			innerCols = append(innerCols, sqldsl.Col{Table: partJSONTableAlias, Column: f.Name})
			outerCols = append(outerCols, sqldsl.Col{Table: partRowsAlias, Column: f.Name})
			continue
		}
		alias := fmt.Sprintf("A%d", len(joins)+1)
		agg, err := c.aggregateArray(container, pf, f)
		if err != nil {
			return "", err
		}
		joins = append(joins, sqldsl.JoinClause{
			Type:  "LEFT",
			Table: sqldsl.Subquery{Query: agg, Alias: alias},
			On: sqldsl.And(
				sqldsl.Eq{
					Left:  sqldsl.Col{Table: alias, Column: schema.ContainerRowIDField},
					Right: sqldsl.Col{Table: partRowsAlias, Column: schema.ContainerRowIDField},
				},
				sqldsl.Eq{
					Left:  sqldsl.Col{Table: alias, Column: partOrderField},
					Right: sqldsl.Col{Table: partRowsAlias, Column: partOrderField},
				},
			),
		})
		outerCols = append(outerCols, sqldsl.SelectAs(
			sqldsl.Coalesce(sqldsl.Col{Table: alias, Column: f.Name}, sqldsl.Func{Name: "JSON_ARRAY"}),
			f.Name,
		))
	}

	inner := sqldsl.SelectStmt{
		Columns: innerCols,
		From:    c.partSource(container, top),
		Where: []sqldsl.Expr{
			sqldsl.Eq{Left: root, Right: sqldsl.Param(RootRowIDParam)},
			sqldsl.IsNotNull{Expr: sqldsl.Col{Table: partJSONTableAlias, Column: partOrderField}},
		},
	}
	outer := sqldsl.SelectStmt{
		Columns: outerCols,
		From:    sqldsl.Subquery{Query: inner, Alias: partRowsAlias},
		Joins:   joins,
	}
	return sqldsl.InsertSelect{
		Table:   c.TableName(part.Name, PartBaseSuffix),
		Columns: targets,
		Query:   outer,
	}.SQL(), nil
}

// aggregateArray rebuilds one array field of every part of the root
// document: one row per part that has at least one element.
func (c *Compiler) aggregateArray(container *schema.Type, pf schema.PartField, f schema.Field) (sqldsl.SelectStmt, error) {
	col, err := jsonColumn(f)
	if err != nil {
		return sqldsl.SelectStmt{}, err
	}
	if len(f.Path) < 2 {
		return sqldsl.SelectStmt{}, fmt.Errorf("%w: array field %s has no element segment", schema.ErrInvalidPath, f.Name)
	}

	top, node := partTree(pf)
	var order []sqldsl.Expr
	for i, seg := range f.Path[:len(f.Path)-1] {
		node = node.child(seg)
		node.order = elementOrderField(f.Name, i)
		order = append(order, sqldsl.Col{Table: partJSONTableAlias, Column: node.order})
	}
	col.Path = f.Path[len(f.Path)-1]
	node.cols = append(node.cols, col)

	containerRowID := sqldsl.Col{Table: containerAlias, Column: schema.RowIDField}
	partOrder := sqldsl.Col{Table: partJSONTableAlias, Column: partOrderField}
	return sqldsl.SelectStmt{
		Columns: []sqldsl.Expr{
			sqldsl.SelectAs(containerRowID, schema.ContainerRowIDField),
			partOrder,
			sqldsl.SelectAs(sqldsl.JSONArrayAgg(sqldsl.Col{Table: partJSONTableAlias, Column: f.Name}, order...), f.Name),
		},
		From: c.partSource(container, top),
		Where: []sqldsl.Expr{
			sqldsl.Eq{Left: rootRowID(container, containerAlias), Right: sqldsl.Param(RootRowIDParam)},
			sqldsl.IsNotNull{Expr: order[len(order)-1]},
		},
		GroupBy: []sqldsl.Expr{containerRowID, partOrder},
	}, nil
}

// partTree returns the JSON_TABLE root over the container payload and the
// numbered node of the part field beneath it.
func partTree(pf schema.PartField) (top, part *jsonNode) {
	path := "$." + pf.Name
	if pf.Collection {
		path += "[*]"
	}
	top = &jsonNode{path: "$"}
	part = top.child(path)
	part.order = partOrderField
	return top, part
}

// partSource is the container relation joined with the unnested tree.
func (c *Compiler) partSource(container *schema.Type, top *jsonNode) sqldsl.TableList {
	return sqldsl.TableList{
		sqldsl.TableAs(c.TableName(container.Name, ""), containerAlias),
		sqldsl.JSONTable{
			Doc:     sqldsl.Col{Table: containerAlias, Column: schema.JSONField},
			Path:    top.path,
			Columns: top.columns(),
			Alias:   partJSONTableAlias,
		},
	}
}

// elementOrderField names the ordinality column of the depth-th array level
// of an array field.
func elementOrderField(field string, depth int) string {
	if depth == 0 {
		return "__" + field + "_order"
	}
	return fmt.Sprintf("__%s_order%d", field, depth+1)
}

// externals rebuilds the side tables of t, one element per row.
func (c *Compiler) externals(t *schema.Type) ([]string, error) {
	var stmts []string
	for _, f := range sideFields(t) {
		side := c.TableName(t.Name, f.Name)
		typ, err := ColumnType(f.Type.Elem())
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", t.Name, f.Name, err)
		}

		root := rootRowID(t, sourceAlias)
		from := sqldsl.TableList{sqldsl.TableAs(c.TableName(t.Name, ""), sourceAlias)}
		where := []sqldsl.Expr{sqldsl.Eq{Left: root, Right: sqldsl.Param(RootRowIDParam)}}
		doc := sqldsl.Col{Table: sourceAlias, Column: schema.JSONField}
		if f.Ascends() {
			from = append(from, sqldsl.TableAs(c.TableName(t.Container, ""), containerAlias))
			where = append([]sqldsl.Expr{sqldsl.Eq{
				Left:  sqldsl.Col{Table: containerAlias, Column: schema.RowIDField},
				Right: sqldsl.Col{Table: sourceAlias, Column: schema.ContainerRowIDField},
			}}, where...)
			doc = sqldsl.Col{Table: containerAlias, Column: schema.JSONField}
		}
		from = append(from, sqldsl.JSONTable{
			Doc:     doc,
			Path:    f.JSONPath(),
			Columns: []sqldsl.JSONColumn{sqldsl.PathColumn{Name: f.Name, Type: typ, Path: schema.Element}},
			Alias:   extJSONTableAlias,
		})

		insert := sqldsl.InsertSelect{
			Table:   side,
			Columns: []string{schema.RowIDField, schema.RootRowIDField, f.Name},
			Query: sqldsl.SelectStmt{
				Columns: []sqldsl.Expr{
					sqldsl.Col{Table: sourceAlias, Column: schema.RowIDField},
					root,
					sqldsl.Col{Table: extJSONTableAlias, Column: f.Name},
				},
				From:  from,
				Where: where,
			},
		}
		stmts = append(stmts, deleteByRoot(side), insert.SQL())
	}
	return stmts, nil
}

// jsonNode is one COLUMNS level of a JSON_TABLE.
type jsonNode struct {
	path   string
	order  string // FOR ORDINALITY column, if any
	cols   []sqldsl.JSONColumn
	nested []*jsonNode
}

func (n *jsonNode) child(path string) *jsonNode {
	for _, c := range n.nested {
		if c.path == path {
			return c
		}
	}
	c := &jsonNode{path: path}
	n.nested = append(n.nested, c)
	return c
}

// add places col under the nested paths of all but the last segment; the
// last segment is the column path.
func (n *jsonNode) add(path []string, col sqldsl.PathColumn) {
	for _, seg := range path[:len(path)-1] {
		n = n.child(seg)
	}
	col.Path = path[len(path)-1]
	n.cols = append(n.cols, col)
}

func (n *jsonNode) columns() []sqldsl.JSONColumn {
	var out []sqldsl.JSONColumn
	if n.order != "" {
		out = append(out, sqldsl.OrdinalityColumn{Name: n.order})
	}
	out = append(out, n.cols...)
	for _, c := range n.nested {
		out = append(out, sqldsl.NestedPath{Path: c.path, Columns: c.columns()})
	}
	return out
}

// jsonColumn types the JSON_TABLE column of a field; arrays are typed by
// their element.
func jsonColumn(f schema.Field) (sqldsl.PathColumn, error) {
	typ, err := ColumnType(f.Type.Elem())
	if err != nil {
		return sqldsl.PathColumn{}, fmt.Errorf("field %s: %w", f.Name, err)
	}
	return sqldsl.PathColumn{Name: f.Name, Type: typ}, nil
}
