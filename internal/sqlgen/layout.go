package sqlgen

import (
	"fmt"

	"github.com/pthm/docstore/schema"
)

// PartBaseSuffix names the physical table behind a part view.
const PartBaseSuffix = "pbase"

// TableKind classifies the relations of a layout.
type TableKind int

const (
	// PrimaryTable holds the payload of a root type.
	PrimaryTable TableKind = iota
	// PartBaseTable holds the projected rows of a part type.
	PartBaseTable
	// PartView recomputes part payloads from the container.
	PartView
	// SideTable holds one row per element of an array field.
	SideTable
)

func (k TableKind) String() string {
	switch k {
	case PrimaryTable:
		return "table"
	case PartBaseTable:
		return "part base"
	case PartView:
		return "view"
	case SideTable:
		return "side table"
	default:
		return "unknown"
	}
}

// Table is one relation of a layout.
type Table struct {
	Name  string
	Kind  TableKind
	Type  string
	Field string // element field of a side table
}

// Layout is the physical layout of one document type.
type Layout struct {
	Type string
	// Primary is the relation reads go through: the primary table of a root
	// type, the view of a part type.
	Primary string
	// Base is the physical table of a part type, empty for root types.
	Base string
	// Container is the primary relation of the container, empty for root types.
	Container string
	// Root is the primary table of the outermost container.
	Root string
	// Sides lists the side tables in field order.
	Sides []Table
}

// Tables lists the relations of the layout in creation order.
func (l Layout) Tables() []Table {
	var out []Table
	if l.Base != "" {
		out = append(out,
			Table{Name: l.Base, Kind: PartBaseTable, Type: l.Type},
			Table{Name: l.Primary, Kind: PartView, Type: l.Type})
	} else {
		out = append(out, Table{Name: l.Primary, Kind: PrimaryTable, Type: l.Type})
	}
	return append(out, l.Sides...)
}

// Side returns the side table of a field.
func (l Layout) Side(field string) (Table, bool) {
	for _, s := range l.Sides {
		if s.Field == field {
			return s, true
		}
	}
	return Table{}, false
}

// TableName returns prefix + type [+ "_" + suffix].
func (c *Compiler) TableName(typeName, suffix string) string {
	if suffix == "" {
		return c.cfg.TablePrefix + typeName
	}
	return c.cfg.TablePrefix + typeName + "_" + suffix
}

// Plan returns the layout of a type.
func (c *Compiler) Plan(typeName string) (Layout, error) {
	t, err := c.reg.Lookup(typeName)
	if err != nil {
		return Layout{}, err
	}
	root, err := c.reg.RootOf(typeName)
	if err != nil {
		return Layout{}, err
	}

	l := Layout{
		Type:    t.Name,
		Primary: c.TableName(t.Name, ""),
		Root:    c.TableName(root.Name, ""),
	}
	if t.IsPart() {
		l.Base = c.TableName(t.Name, PartBaseSuffix)
		l.Container = c.TableName(t.Container, "")
	}
	for _, f := range sideFields(t) {
		l.Sides = append(l.Sides, Table{
			Name:  c.TableName(t.Name, f.Name),
			Kind:  SideTable,
			Type:  t.Name,
			Field: f.Name,
		})
	}
	if err := c.checkCollisions(l); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// relationNames lists the relation names of a type without planning it.
func (c *Compiler) relationNames(t *schema.Type) []string {
	names := []string{c.TableName(t.Name, "")}
	if t.IsPart() {
		names = append(names, c.TableName(t.Name, PartBaseSuffix))
	}
	for _, f := range sideFields(t) {
		names = append(names, c.TableName(t.Name, f.Name))
	}
	return names
}

// checkCollisions rejects a layout whose relation names are also derived
// for another registered type, e.g. the side table "A_b" of A.b and the
// primary table of a type named "A_b".
func (c *Compiler) checkCollisions(l Layout) error {
	own := make(map[string]bool)
	for _, table := range l.Tables() {
		own[table.Name] = true
	}
	for _, other := range c.reg.Types() {
		if other.Name == l.Type {
			continue
		}
		for _, name := range c.relationNames(other) {
			if own[name] {
				return fmt.Errorf("%w: table %s of %s is also a table of %s",
					schema.ErrInvalidSchema, name, l.Type, other.Name)
			}
		}
	}
	return nil
}

// CreationOrder expands the given types to their container/part closure and
// orders it so every type follows its container and every part tree follows
// its container immediately, depth-first. Each type appears once.
func (c *Compiler) CreationOrder(typeNames ...string) ([]string, error) {
	var order []string
	scheduled := make(map[string]bool)

	var visit func(t *schema.Type) error
	visit = func(t *schema.Type) error {
		if scheduled[t.Name] {
			return nil
		}
		scheduled[t.Name] = true
		order = append(order, t.Name)
		for _, name := range t.PartTypes() {
			pt, err := c.reg.Lookup(name)
			if err != nil {
				return err
			}
			if err := visit(pt); err != nil {
				return err
			}
		}
		return nil
	}

	for _, name := range typeNames {
		root, err := c.reg.RootOf(name)
		if err != nil {
			return nil, err
		}
		if err := visit(root); err != nil {
			return nil, fmt.Errorf("ordering %s: %w", name, err)
		}
	}
	return order, nil
}

// PlanAll returns the layouts of the given types' closure in creation order.
func (c *Compiler) PlanAll(typeNames ...string) ([]Layout, error) {
	order, err := c.CreationOrder(typeNames...)
	if err != nil {
		return nil, err
	}
	layouts := make([]Layout, 0, len(order))
	for _, name := range order {
		l, err := c.Plan(name)
		if err != nil {
			return nil, err
		}
		layouts = append(layouts, l)
	}
	return layouts, nil
}

// sideFields returns the fields externalized into side tables: array-indexed
// fields, and array fields read from the container.
func sideFields(t *schema.Type) []schema.Field {
	var out []schema.Field
	for _, f := range t.Fields {
		if isSideField(f) {
			out = append(out, f)
		}
	}
	return out
}

func isSideField(f schema.Field) bool {
	return f.Has(schema.ArrayIndexed) || (f.IsArray() && f.Ascends())
}

// columnFields returns the fields with a column on the type's own table.
func columnFields(t *schema.Type) []schema.Field {
	var out []schema.Field
	for _, f := range t.Fields {
		if f.IsArray() && f.Ascends() {
			continue
		}
		out = append(out, f)
	}
	return out
}

// hasColumn reports whether name is a column of the type's primary relation.
func hasColumn(t *schema.Type, name string) bool {
	switch name {
	case schema.RowIDField, schema.JSONField:
		return true
	case schema.RootRowIDField, schema.ContainerRowIDField, schema.JSONPathField:
		return t.IsPart()
	}
	f, ok := t.Field(name)
	return ok && !(f.IsArray() && f.Ascends())
}
