package sqlgen

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/pthm/docstore/internal/sqlgen/sqldsl"
	"github.com/pthm/docstore/schema"
)

// MatchOp is the full-text operator.
const MatchOp = "match"

// Aliases used inside read queries.
const (
	mainAlias       = "MAIN"
	baseAlias       = "BASE"
	baseOrderField  = "__base_order"
	corePrefix      = "CORE"
	projectedPrefix = "T"
	unwindPrefix    = "UNWIND"
)

// noLimit stands in for an absent LIMIT so that OFFSET can be applied.
const noLimit = uint64(math.MaxUint64)

// Condition is one filter of a query. Field is a field name, a dotted
// namespace path ("code.name") or, for MatchOp, a comma separated list of
// fields in one namespace. An empty Field with MatchOp searches every
// full-text field of the queried type.
type Condition struct {
	Field string `json:"field"`
	Op    string `json:"op"`
	Value any    `json:"value"`
}

// Where builds equality conditions from field/value pairs.
func Where(pairs map[string]any) []Condition {
	keys := slices.Sorted(maps.Keys(pairs))
	out := make([]Condition, len(keys))
	for i, k := range keys {
		out[i] = Condition{Field: k, Op: "=", Value: pairs[k]}
	}
	return out
}

// Query is a structured read over one document type.
type Query struct {
	Type string
	// Fields are the output columns, keyed by the reference as written.
	// Empty selects the payload and the row id.
	Fields []string
	Where  []Condition
	// OrderBy items are "<field> [asc|desc]".
	OrderBy []string
	// Limit of zero means no limit.
	Limit  int
	Offset int
	// Joins lists namespaces to join even when no field refers to them.
	Joins []string
}

// Shape identifies the compiled SQL of the query; queries with equal shapes
// differ only in bound values.
func (q Query) Shape() string {
	var b strings.Builder
	b.WriteString(q.Type)
	b.WriteString("|" + strings.Join(q.Fields, ","))
	for _, w := range q.Where {
		b.WriteString("|" + w.Field + " " + strings.ToLower(w.Op))
	}
	b.WriteString("|" + strings.Join(q.OrderBy, ","))
	b.WriteString("|" + strconv.Itoa(q.Limit) + "," + strconv.Itoa(q.Offset))
	b.WriteString("|" + strings.Join(q.Joins, ","))
	return b.String()
}

// DefaultFields are selected when a query names no fields.
var DefaultFields = []string{schema.JSONField, schema.RowIDField}

// Statement is compiled SQL whose placeholders are bound from conditions.
type Statement struct {
	SQL string
	// Params names the placeholder of each condition, by position.
	Params []string
}

// Bind maps condition values onto the statement's placeholders.
func (s Statement) Bind(where []Condition) map[string]any {
	params := make(map[string]any, len(s.Params))
	for i, name := range s.Params {
		if i < len(where) {
			params[name] = where[i].Value
		}
	}
	return params
}

// core collects what one namespace contributes to the restriction stage.
type core struct {
	ns      *namespace
	alias   string
	table   string
	columns []string
	where   []sqldsl.Expr
	unwinds []sqldsl.JoinClause
	matches []sqldsl.Expr
}

func (c *core) need(column string) {
	for _, col := range c.columns {
		if col == column {
			return
		}
	}
	c.columns = append(c.columns, column)
}

// readCompiler holds the state of one Read compilation.
type readCompiler struct {
	c       *Compiler
	tree    *namespaceTree
	cores   map[*namespace]*core
	names   *paramNamer
	unwinds int
}

// Read compiles a query into a restrict-then-project statement.
func (c *Compiler) Read(q Query) (Statement, error) {
	root, err := c.reg.Lookup(q.Type)
	if err != nil {
		return Statement{}, err
	}
	if q.Limit < 0 || q.Offset < 0 {
		return Statement{}, fmt.Errorf("%w: negative limit %d or offset %d", ErrInvalidQuery, q.Limit, q.Offset)
	}
	rc := &readCompiler{
		c:     c,
		tree:  newNamespaceTree(c.reg, root),
		cores: make(map[*namespace]*core),
		names: newParamNamer(JSONParam, RootRowIDParam),
	}

	stmt := Statement{Params: make([]string, len(q.Where))}
	for i, w := range q.Where {
		if stmt.Params[i], err = rc.condition(w); err != nil {
			return Statement{}, err
		}
	}

	var orders []sqldsl.Expr
	for _, item := range q.OrderBy {
		o, err := rc.order(item)
		if err != nil {
			return Statement{}, err
		}
		orders = append(orders, o)
	}

	for _, name := range q.Joins {
		if _, err := rc.tree.resolve(name); err != nil {
			return Statement{}, err
		}
	}

	fields := q.Fields
	if len(fields) == 0 {
		fields = DefaultFields
	}
	projected, err := rc.projection(fields)
	if err != nil {
		return Statement{}, err
	}

	base := rc.base(orders, q.Limit, q.Offset, projected)
	stmt.SQL = rc.outer(base, projected).SQL()
	c.logger.Debug("compiled read", "type", q.Type, "namespaces", len(rc.tree.order))
	return stmt, nil
}

func (rc *readCompiler) core(ns *namespace) *core {
	if co, ok := rc.cores[ns]; ok {
		return co
	}
	co := &core{
		ns:    ns,
		alias: corePrefix + strconv.Itoa(ns.index),
		table: rc.c.TableName(ns.typ.Name, ""),
	}
	rc.cores[ns] = co
	return co
}

// condition adds one filter to the core of its namespace and returns the
// placeholder name bound to its value.
func (rc *readCompiler) condition(w Condition) (string, error) {
	op := strings.ToLower(strings.TrimSpace(w.Op))
	if op == MatchOp {
		return rc.match(w.Field)
	}

	if strings.Contains(w.Field, ",") {
		return "", fmt.Errorf("%w: field list %q is only allowed with %s", ErrInvalidQuery, w.Field, MatchOp)
	}
	ns, leaf, err := rc.tree.field(w.Field)
	if err != nil {
		return "", err
	}
	co := rc.core(ns)
	param := rc.names.next(w.Field)

	var left sqldsl.Expr
	switch {
	case isSideRef(ns.typ, leaf):
		alias := unwindPrefix + strconv.Itoa(rc.unwinds)
		rc.unwinds++
		co.unwinds = append(co.unwinds, sqldsl.JoinClause{
			Type:  "LEFT",
			Table: sqldsl.TableAs(rc.c.TableName(ns.typ.Name, leaf), alias),
			On: sqldsl.Eq{
				Left:  sqldsl.Col{Table: alias, Column: schema.RowIDField},
				Right: sqldsl.Col{Table: mainAlias, Column: schema.RowIDField},
			},
		})
		left = sqldsl.Col{Table: alias, Column: leaf}
	case hasColumn(ns.typ, leaf):
		left = sqldsl.Col{Table: mainAlias, Column: leaf}
	default:
		return "", fmt.Errorf("%w: %s has no field %q", ErrInvalidQuery, ns.typ.Name, leaf)
	}

	expr, ok := sqldsl.Compare(op, left, sqldsl.Param(param))
	if !ok {
		return "", fmt.Errorf("%w: unknown operator %q", ErrInvalidQuery, w.Op)
	}
	co.where = append(co.where, expr)
	return param, nil
}

// match adds a MATCH ... AGAINST filter. The match also contributes to the
// namespace's relevance.
func (rc *readCompiler) match(field string) (string, error) {
	if strings.TrimSpace(field) == "" {
		root := rc.tree.root()
		var names []string
		for _, f := range root.typ.FieldsWith(schema.FullTextSearched) {
			if hasColumn(root.typ, f.Name) {
				names = append(names, f.Name)
			}
		}
		if len(names) == 0 {
			return "", fmt.Errorf("%w: %s has no full-text fields", ErrInvalidQuery, root.typ.Name)
		}
		field = strings.Join(names, ",")
	}

	var ns *namespace
	var cols []sqldsl.Expr
	for _, ref := range strings.Split(field, ",") {
		fns, leaf, err := rc.tree.field(ref)
		if err != nil {
			return "", err
		}
		if ns != nil && fns != ns {
			return "", fmt.Errorf("%w: match fields %q span namespaces", ErrInvalidQuery, field)
		}
		ns = fns
		if !hasColumn(ns.typ, leaf) {
			return "", fmt.Errorf("%w: %s has no field %q", ErrInvalidQuery, ns.typ.Name, leaf)
		}
		cols = append(cols, sqldsl.Col{Table: mainAlias, Column: leaf})
	}

	co := rc.core(ns)
	param := rc.names.next(field)
	m := sqldsl.Match{Columns: cols, Query: sqldsl.Param(param)}
	co.where = append(co.where, m)
	co.matches = append(co.matches, m)
	return param, nil
}

// order resolves one ORDER BY item to a base-stage expression.
func (rc *readCompiler) order(item string) (sqldsl.Expr, error) {
	parts := strings.Fields(item)
	if len(parts) == 0 || len(parts) > 2 {
		return nil, fmt.Errorf("%w: order %q", ErrInvalidQuery, item)
	}
	dir := ""
	if len(parts) == 2 {
		dir = strings.ToUpper(parts[1])
		if dir != "ASC" && dir != "DESC" {
			return nil, fmt.Errorf("%w: order direction %q", ErrInvalidQuery, parts[1])
		}
	}

	if parts[0] == schema.RelevanceField {
		return sqldsl.OrderBy{Expr: rc.relevance(), Dir: dir}, nil
	}
	ns, leaf, err := rc.tree.field(parts[0])
	if err != nil {
		return nil, err
	}
	if !hasColumn(ns.typ, leaf) {
		return nil, fmt.Errorf("%w: cannot order by %q", ErrInvalidQuery, parts[0])
	}
	co := rc.core(ns)
	co.need(leaf)
	return sqldsl.OrderBy{Expr: sqldsl.Col{Table: co.alias, Column: leaf}, Dir: dir}, nil
}

// relevance sums the relevance columns of every namespace with a match.
func (rc *readCompiler) relevance() sqldsl.Expr {
	var parts []sqldsl.Expr
	for _, ns := range rc.tree.order {
		if co, ok := rc.cores[ns]; ok && len(co.matches) > 0 {
			parts = append(parts, sqldsl.Col{Table: co.alias, Column: schema.RelevanceField})
		}
	}
	return sqldsl.Sum(parts...)
}

func (rc *readCompiler) hasMatches() bool {
	for _, co := range rc.cores {
		if len(co.matches) > 0 {
			return true
		}
	}
	return false
}

// projectedColumn is one output column of the outer stage.
type projectedColumn struct {
	ns     *namespace
	column string // empty for the relevance
	alias  string
	star   bool
}

func (rc *readCompiler) projection(fields []string) ([]projectedColumn, error) {
	var out []projectedColumn
	for _, ref := range fields {
		ref = strings.TrimSpace(ref)
		switch ref {
		case "*":
			out = append(out, projectedColumn{ns: rc.tree.root(), star: true})
			continue
		case schema.RelevanceField:
			if !rc.hasMatches() {
				return nil, fmt.Errorf("%w: %s requires a %s condition", ErrInvalidQuery, ref, MatchOp)
			}
			out = append(out, projectedColumn{alias: ref})
			continue
		}
		ns, leaf, err := rc.tree.field(ref)
		if err != nil {
			return nil, err
		}
		if !hasColumn(ns.typ, leaf) {
			return nil, fmt.Errorf("%w: %s has no column %q", ErrInvalidQuery, ns.typ.Name, leaf)
		}
		out = append(out, projectedColumn{ns: ns, column: leaf, alias: ref})
	}
	return out, nil
}

// base builds the restriction stage: one core per namespace, inner-joined
// along the reference keys, filtered, ordered and paged.
func (rc *readCompiler) base(orders []sqldsl.Expr, limit, offset int, projected []projectedColumn) sqldsl.SelectStmt {
	for _, ns := range rc.tree.order {
		co := rc.core(ns)
		if ns.parent != nil {
			rc.core(ns.parent).need(ns.fromField)
			co.need(ns.toField)
		}
	}

	root := rc.core(rc.tree.root())
	cols := []sqldsl.Expr{sqldsl.SelectAs(sqldsl.Col{Table: root.alias, Column: schema.RowIDField}, schema.RowIDField)}
	for _, ns := range projectedNamespaces(projected) {
		if ns.parent == nil {
			continue
		}
		cols = append(cols, sqldsl.SelectAs(
			sqldsl.Col{Table: rc.core(ns).alias, Column: schema.RowIDField}, rowIDAlias(ns)))
	}
	if rc.hasMatches() {
		cols = append(cols, sqldsl.SelectAs(rc.relevance(), schema.RelevanceField))
		orders = append(orders, sqldsl.OrderBy{Expr: rc.relevance(), Dir: "DESC"})
	}
	orders = append(orders, sqldsl.Col{Table: root.alias, Column: schema.RowIDField})

	rendered := make([]string, len(orders))
	for i, o := range orders {
		rendered[i] = o.SQL()
	}
	cols = append(cols, sqldsl.SelectAs(
		sqldsl.Raw("ROW_NUMBER() OVER (ORDER BY "+strings.Join(rendered, ", ")+")"), baseOrderField))

	stmt := sqldsl.SelectStmt{
		Columns: cols,
		From:    sqldsl.Subquery{Query: root.query(), Alias: root.alias},
		OrderBy: orders,
		Limit:   sqldsl.Uint(noLimit),
		Offset:  sqldsl.Int(offset),
	}
	if limit > 0 {
		stmt.Limit = sqldsl.Uint(limit)
	}
	for _, ns := range rc.tree.order[1:] {
		co := rc.core(ns)
		parent := rc.core(ns.parent)
		stmt.Joins = append(stmt.Joins, sqldsl.JoinClause{
			Table: sqldsl.Subquery{Query: co.query(), Alias: co.alias},
			On: sqldsl.Eq{
				Left:  sqldsl.Col{Table: co.alias, Column: ns.toField},
				Right: sqldsl.Col{Table: parent.alias, Column: ns.fromField},
			},
		})
	}
	return stmt
}

// query renders the core subquery of a namespace.
func (co *core) query() sqldsl.SelectStmt {
	cols := []sqldsl.Expr{sqldsl.Col{Table: mainAlias, Column: schema.RowIDField}}
	for _, name := range co.columns {
		if name == schema.RowIDField {
			continue
		}
		cols = append(cols, sqldsl.Col{Table: mainAlias, Column: name})
	}
	if len(co.matches) > 0 {
		cols = append(cols, sqldsl.SelectAs(sqldsl.Sum(co.matches...), schema.RelevanceField))
	}
	return sqldsl.SelectStmt{
		Distinct: len(co.unwinds) > 0,
		Columns:  cols,
		From:     sqldsl.TableAs(co.table, mainAlias),
		Joins:    co.unwinds,
		Where:    co.where,
	}
}

// outer joins the restricted base back to the relations of every projected
// namespace.
func (rc *readCompiler) outer(base sqldsl.SelectStmt, projected []projectedColumn) sqldsl.SelectStmt {
	stmt := sqldsl.SelectStmt{
		From:    sqldsl.Subquery{Query: base, Alias: baseAlias},
		OrderBy: []sqldsl.Expr{sqldsl.Col{Table: baseAlias, Column: baseOrderField}},
	}
	for _, p := range projected {
		switch {
		case p.star:
			stmt.Columns = append(stmt.Columns, sqldsl.Star{Table: projectedAlias(p.ns)})
		case p.ns == nil:
			stmt.Columns = append(stmt.Columns, sqldsl.SelectAs(
				sqldsl.Col{Table: baseAlias, Column: schema.RelevanceField}, p.alias))
		default:
			stmt.Columns = append(stmt.Columns, sqldsl.SelectAs(
				sqldsl.Col{Table: projectedAlias(p.ns), Column: p.column}, p.alias))
		}
	}
	for _, ns := range projectedNamespaces(projected) {
		alias := projectedAlias(ns)
		stmt.Joins = append(stmt.Joins, sqldsl.JoinClause{
			Table: sqldsl.TableAs(rc.c.TableName(ns.typ.Name, ""), alias),
			On: sqldsl.Eq{
				Left:  sqldsl.Col{Table: alias, Column: schema.RowIDField},
				Right: sqldsl.Col{Table: baseAlias, Column: rowIDAlias(ns)},
			},
		})
	}
	return stmt
}

// projectedNamespaces returns the distinct namespaces with projected
// columns, ordered by resolution.
func projectedNamespaces(projected []projectedColumn) []*namespace {
	var out []*namespace
	seen := make(map[*namespace]bool)
	for _, p := range projected {
		if p.ns != nil && !seen[p.ns] {
			seen[p.ns] = true
			out = append(out, p.ns)
		}
	}
	slices.SortFunc(out, func(a, b *namespace) int { return a.index - b.index })
	return out
}

func projectedAlias(ns *namespace) string {
	return projectedPrefix + strconv.Itoa(ns.index)
}

func rowIDAlias(ns *namespace) string {
	if ns.parent == nil {
		return schema.RowIDField
	}
	return ns.name + "." + schema.RowIDField
}

// isSideRef reports whether a field is filtered through its side table.
func isSideRef(t *schema.Type, name string) bool {
	f, ok := t.Field(name)
	return ok && isSideField(f)
}
