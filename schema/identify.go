package schema

import (
	"strings"

	"github.com/google/uuid"
)

// IDGenerator returns a fresh identifier for an empty identifying field.
type IDGenerator func() string

// NewID returns a random identifier: a version 4 UUID without dashes.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// AssignIdentifiers fills the empty identifying fields of a decoded JSON
// document and, recursively, of its parts. Objects are copied on write: the
// returned tree shares every sub-tree that needed no assignment, and changed
// reports whether anything was assigned at all.
func (r *Registry) AssignIdentifiers(typeName string, doc any, gen IDGenerator) (any, bool, error) {
	t, err := r.Lookup(typeName)
	if err != nil {
		return doc, false, err
	}
	if gen == nil {
		gen = NewID
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return doc, false, nil
	}
	out, changed, err := r.assignObject(t, obj, gen)
	return out, changed, err
}

func (r *Registry) assignObject(t *Type, obj map[string]any, gen IDGenerator) (map[string]any, bool, error) {
	var out map[string]any
	write := func(key string, v any) {
		if out == nil {
			out = make(map[string]any, len(obj))
			for k, old := range obj {
				out[k] = old
			}
		}
		out[key] = v
	}

	for _, f := range t.Fields {
		if !f.Has(Identifying) {
			continue
		}
		key := memberName(f.Path[0])
		if isEmptyIdentifier(obj[key]) {
			write(key, gen())
		}
	}

	for _, p := range t.Parts {
		pt, err := r.Lookup(p.Type)
		if err != nil {
			return obj, false, err
		}
		v, ok := obj[p.Name]
		if !ok || v == nil {
			continue
		}
		nv, changed, err := r.assignValue(pt, v, gen)
		if err != nil {
			return obj, false, err
		}
		if changed {
			write(p.Name, nv)
		}
	}

	if out == nil {
		return obj, false, nil
	}
	return out, true, nil
}

func (r *Registry) assignValue(t *Type, v any, gen IDGenerator) (any, bool, error) {
	switch v := v.(type) {
	case map[string]any:
		return r.assignObject(t, v, gen)
	case []any:
		var out []any
		for i, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			nobj, changed, err := r.assignObject(t, obj, gen)
			if err != nil {
				return v, false, err
			}
			if !changed {
				continue
			}
			if out == nil {
				out = append([]any(nil), v...)
			}
			out[i] = nobj
		}
		if out == nil {
			return v, false, nil
		}
		return out, true, nil
	default:
		return v, false, nil
	}
}

// Identifiers returns the values of the identifying fields of a decoded
// document, keyed by field name.
func Identifiers(t *Type, doc any) map[string]any {
	obj, _ := doc.(map[string]any)
	out := make(map[string]any)
	for _, f := range t.Fields {
		if f.Has(Identifying) {
			out[f.Name] = obj[memberName(f.Path[0])]
		}
	}
	return out
}

func memberName(segment string) string {
	return strings.TrimPrefix(segment, "$.")
}

func isEmptyIdentifier(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return v == ""
	default:
		return false
	}
}
