package schema

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
)

// defaultIdentifierLength is the column width of identifying fields.
const defaultIdentifierLength = 36

var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Registry holds resolved document types. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*Type
	order []string
	byGo  map[reflect.Type]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		types: make(map[string]*Type),
		byGo:  make(map[reflect.Type]string),
	}
}

// Register resolves and adds a batch of type definitions. Types in the batch
// may refer to each other and to previously registered types. Either every
// definition is registered or none is.
func (r *Registry) Register(defs ...TypeDef) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pending := make(map[string]*Type, len(r.types)+len(defs))
	for name, t := range r.types {
		pending[name] = t
	}

	var added []*Type
	for _, def := range defs {
		if !namePattern.MatchString(def.Name) {
			return fmt.Errorf("%w: invalid type name %q", ErrInvalidSchema, def.Name)
		}
		if _, dup := pending[def.Name]; dup {
			return fmt.Errorf("%w: type %q registered twice", ErrInvalidSchema, def.Name)
		}
		t, err := resolveType(def)
		if err != nil {
			return err
		}
		pending[def.Name] = t
		added = append(added, t)
	}

	for _, t := range added {
		if err := checkLinks(t, pending); err != nil {
			return err
		}
	}
	if err := detectContainerCycles(pending); err != nil {
		return err
	}

	for _, t := range added {
		r.types[t.Name] = t
		r.order = append(r.order, t.Name)
		if t.goType != nil {
			r.byGo[t.goType] = t.Name
		}
	}
	return nil
}

// Lookup returns the named type.
func (r *Registry) Lookup(name string) (*Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
	return t, nil
}

// TypeOf returns the type registered for a Go type. Pointer types are
// dereferenced.
func (r *Registry) TypeOf(gt reflect.Type) (*Type, error) {
	for gt != nil && gt.Kind() == reflect.Pointer {
		gt = gt.Elem()
	}
	r.mu.RLock()
	name, ok := r.byGo[gt]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: Go type %v", ErrUnknownType, gt)
	}
	return r.Lookup(name)
}

// Types returns every registered type in registration order.
func (r *Registry) Types() []*Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Type, len(r.order))
	for i, name := range r.order {
		out[i] = r.types[name]
	}
	return out
}

// ContainerOf returns the container of a part type.
func (r *Registry) ContainerOf(name string) (*Type, bool) {
	t, err := r.Lookup(name)
	if err != nil || t.Container == "" {
		return nil, false
	}
	c, err := r.Lookup(t.Container)
	if err != nil {
		return nil, false
	}
	return c, true
}

// RootOf returns the outermost container of a type, or the type itself when
// it is not a part.
func (r *Registry) RootOf(name string) (*Type, error) {
	t, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	for t.Container != "" {
		if t, err = r.Lookup(t.Container); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// resolveType merges the override layers of a definition and validates each
// field in isolation.
func resolveType(def TypeDef) (*Type, error) {
	fields, err := mergeLayers(def)
	if err != nil {
		return nil, err
	}

	t := &Type{
		Name:      def.Name,
		Container: def.Container,
		Parts:     append([]PartField(nil), def.Parts...),
		goType:    def.goType,
		index:     make(map[string]int, len(fields)),
	}
	for i := range fields {
		f, err := resolveField(def, fields[i])
		if err != nil {
			return nil, fmt.Errorf("type %s: %w", def.Name, err)
		}
		t.index[f.Name] = len(t.Fields)
		t.Fields = append(t.Fields, f)
	}

	seen := make(map[string]bool, len(t.Parts))
	for _, p := range t.Parts {
		if !namePattern.MatchString(p.Name) {
			return nil, fmt.Errorf("%w: type %s: invalid part field name %q",
				ErrInvalidSchema, def.Name, p.Name)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("%w: type %s: part field %q declared twice",
				ErrInvalidSchema, def.Name, p.Name)
		}
		seen[p.Name] = true
	}
	return t, nil
}

// mergeLayers applies the override layers most-specific-last. A redefinition
// keeps the position of the first definition. A field defined twice within
// one layer is ambiguous.
func mergeLayers(def TypeDef) ([]Field, error) {
	layers := append([]Layer{def.Fields}, def.Layers...)

	var merged []Field
	pos := make(map[string]int)
	for li, layer := range layers {
		inLayer := make(map[string]bool, len(layer))
		for _, f := range layer {
			if inLayer[f.Name] {
				return nil, fmt.Errorf("%w: type %s: field %q defined twice in layer %d",
					ErrInvalidSchema, def.Name, f.Name, li)
			}
			inLayer[f.Name] = true
			if i, ok := pos[f.Name]; ok {
				merged[i] = f
				continue
			}
			pos[f.Name] = len(merged)
			merged = append(merged, f)
		}
	}
	return merged, nil
}

func resolveField(def TypeDef, f Field) (Field, error) {
	if !namePattern.MatchString(f.Name) || strings.HasPrefix(f.Name, "__") {
		return f, fmt.Errorf("%w: invalid field name %q", ErrInvalidSchema, f.Name)
	}

	f.Caps = (f.Caps | Stored).Normalize()
	if f.Has(ArrayIndexed) {
		f.Type.Array = true
		if f.Name == "pbase" {
			return f, fmt.Errorf("%w: array field %q collides with the part base table",
				ErrInvalidSchema, f.Name)
		}
	}
	if f.Type.Kind == KindUnknown {
		return f, fmt.Errorf("%w: stored field %q has no column type", ErrUnsupportedType, f.Name)
	}

	if len(f.Path) == 0 {
		f.Path = DefaultPath(f.Name, f.Type.Array)
	} else {
		f.Path = append([]string(nil), f.Path...)
	}
	if err := ValidatePath(f.Path, f.Type.Array); err != nil {
		return f, fmt.Errorf("field %q: %w", f.Name, err)
	}
	if f.Ascends() && def.Container == "" {
		return f, fmt.Errorf("%w: field %q ascends but %s has no container",
			ErrInvalidPath, f.Name, def.Name)
	}

	if f.Has(Identifying) {
		if f.Type.Kind != KindString || f.Type.Array {
			return f, fmt.Errorf("%w: identifying field %q must be a scalar string",
				ErrInvalidSchema, f.Name)
		}
		if len(f.Path) != 1 || f.Ascends() || strings.Contains(f.Path[0], "[*]") ||
			strings.Contains(strings.TrimPrefix(f.Path[0], "$."), ".") {
			return f, fmt.Errorf("%w: identifying field %q must be a top-level member",
				ErrInvalidPath, f.Name)
		}
		if f.Type.MaxLength == 0 {
			f.Type.MaxLength = defaultIdentifierLength
		}
	}

	if f.Ref != nil {
		ref := *f.Ref
		f.Ref = &ref
		if f.Type.Array {
			return f, fmt.Errorf("%w: reference field %q must be a scalar", ErrInvalidSchema, f.Name)
		}
	}
	return f, nil
}

// checkLinks validates cross-type links of a newly resolved type.
func checkLinks(t *Type, types map[string]*Type) error {
	if t.Container != "" {
		c, ok := types[t.Container]
		if !ok {
			return fmt.Errorf("%w: container %q of %s is not registered",
				ErrInvalidSchema, t.Container, t.Name)
		}
		if len(c.PartFieldsOf(t.Name)) == 0 {
			return fmt.Errorf("%w: container %s declares no part field of type %s",
				ErrInvalidSchema, c.Name, t.Name)
		}
	}

	for _, p := range t.Parts {
		pt, ok := types[p.Type]
		if !ok {
			return fmt.Errorf("%w: part field %s.%s has unknown type %q",
				ErrInvalidSchema, t.Name, p.Name, p.Type)
		}
		if pt.Container != t.Name {
			return fmt.Errorf("%w: part field %s.%s holds %s which is not a part of %s",
				ErrInvalidSchema, t.Name, p.Name, pt.Name, t.Name)
		}
	}

	for _, f := range t.Fields {
		if f.Ref == nil {
			continue
		}
		target, ok := types[f.Ref.Target]
		if !ok {
			return fmt.Errorf("%w: field %s.%s references unknown type %q",
				ErrInvalidSchema, t.Name, f.Name, f.Ref.Target)
		}
		key, ok := target.Field(f.Ref.Key)
		if !ok {
			return fmt.Errorf("%w: field %s.%s references unknown key %s.%s",
				ErrInvalidSchema, t.Name, f.Name, target.Name, f.Ref.Key)
		}
		if key.Type.Array {
			return fmt.Errorf("%w: reference key %s.%s must be a scalar",
				ErrInvalidSchema, target.Name, key.Name)
		}
	}
	return nil
}
