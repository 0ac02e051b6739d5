package schema

import (
	"strings"

	"github.com/invopop/jsonschema"
)

// JSONSchema returns a JSON Schema for the payload of a document type.
// Types reflected from Go structs are described from the struct itself; other
// types are described from their projected fields and parts.
func (r *Registry) JSONSchema(name string) (*jsonschema.Schema, error) {
	t, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	if t.goType != nil {
		reflector := jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true}
		s := reflector.ReflectFromType(t.goType)
		s.Title = t.Name
		return s, nil
	}
	s, err := r.objectSchema(t)
	if err != nil {
		return nil, err
	}
	s.Version = jsonschema.Version
	return s, nil
}

func (r *Registry) objectSchema(t *Type) (*jsonschema.Schema, error) {
	s := &jsonschema.Schema{
		Title:      t.Name,
		Type:       "object",
		Properties: jsonschema.NewProperties(),
	}
	for _, f := range t.Fields {
		segs := Segments(f.Path)
		if f.Ascends() || len(segs) != 1 {
			continue
		}
		member := strings.TrimSuffix(memberName(segs[0]), "[*]")
		if strings.Contains(member, ".") {
			continue
		}
		s.Properties.Set(member, fieldSchema(f.Type))
	}
	for _, p := range t.Parts {
		pt, err := r.Lookup(p.Type)
		if err != nil {
			return nil, err
		}
		ps, err := r.objectSchema(pt)
		if err != nil {
			return nil, err
		}
		if p.Collection {
			ps = &jsonschema.Schema{Type: "array", Items: ps}
		}
		s.Properties.Set(p.Name, ps)
	}
	return s, nil
}

func fieldSchema(ft FieldType) *jsonschema.Schema {
	if ft.Array {
		return &jsonschema.Schema{Type: "array", Items: fieldSchema(ft.Elem())}
	}
	switch ft.Kind {
	case KindInt:
		return &jsonschema.Schema{Type: "integer"}
	case KindDecimal:
		return &jsonschema.Schema{Type: "number"}
	case KindBool:
		return &jsonschema.Schema{Type: "boolean"}
	case KindDate:
		return &jsonschema.Schema{Type: "string", Format: "date"}
	case KindDateTime:
		return &jsonschema.Schema{Type: "string", Format: "date-time"}
	default:
		return &jsonschema.Schema{Type: "string"}
	}
}
