package sqlgen

import (
	"fmt"
	"strings"

	"github.com/pthm/docstore/schema"
)

// namespace is a node of the reference join tree. The root namespace has an
// empty name; every other namespace is reached from its parent through a
// reference field.
type namespace struct {
	name  string
	typ   *schema.Type
	index int

	parent    *namespace
	fromField string // reference field on the parent type
	toField   string // key field on this type
}

// namespaceTree resolves dotted field references against a root type. Each
// namespace is resolved once.
type namespaceTree struct {
	reg    *schema.Registry
	order  []*namespace
	byName map[string]*namespace
}

func newNamespaceTree(reg *schema.Registry, root *schema.Type) *namespaceTree {
	ns := &namespace{typ: root}
	return &namespaceTree{
		reg:    reg,
		order:  []*namespace{ns},
		byName: map[string]*namespace{"": ns},
	}
}

func (t *namespaceTree) root() *namespace {
	return t.order[0]
}

// resolve returns the namespace for a dotted path, resolving its ancestors
// first so namespaces are always joined along the path from the root.
func (t *namespaceTree) resolve(name string) (*namespace, error) {
	if ns, ok := t.byName[name]; ok {
		return ns, nil
	}

	parentName, leaf := splitRef(name)
	parent, err := t.resolve(parentName)
	if err != nil {
		return nil, err
	}
	f, ok := parent.typ.Field(leaf)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no field %q to join %q through",
			ErrJoinResolution, parent.typ.Name, leaf, name)
	}
	if f.Ref == nil {
		return nil, fmt.Errorf("%w: %s.%s is not a reference, cannot resolve %q",
			ErrJoinResolution, parent.typ.Name, leaf, name)
	}
	target, err := t.reg.Lookup(f.Ref.Target)
	if err != nil {
		return nil, fmt.Errorf("%w: %s.%s: %v", ErrJoinResolution, parent.typ.Name, leaf, err)
	}

	ns := &namespace{
		name:      name,
		typ:       target,
		index:     len(t.order),
		parent:    parent,
		fromField: f.Name,
		toField:   f.Ref.Key,
	}
	t.order = append(t.order, ns)
	t.byName[name] = ns
	return ns, nil
}

// field splits a field reference into its namespace and leaf field name.
func (t *namespaceTree) field(ref string) (*namespace, string, error) {
	nsName, leaf := splitRef(strings.TrimSpace(ref))
	if leaf == "" {
		return nil, "", fmt.Errorf("%w: empty field in %q", ErrInvalidQuery, ref)
	}
	ns, err := t.resolve(nsName)
	if err != nil {
		return nil, "", err
	}
	return ns, leaf, nil
}

// splitRef splits "a.b.c" into ("a.b", "c").
func splitRef(ref string) (string, string) {
	i := strings.LastIndex(ref, ".")
	if i < 0 {
		return "", ref
	}
	return ref[:i], ref[i+1:]
}
