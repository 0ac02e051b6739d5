package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"

	"github.com/pthm/docstore/schema"
)

// Document is an untyped document: decoded JSON tagged with its type name.
// It is what stores without Go types, such as the CLI, read and write.
type Document struct {
	Type  string         `json:"type"`
	RowID int64          `json:"row_id,omitempty"`
	Data  map[string]any `json:"data"`
}

// Lifecycle hooks. A document implementing BeforeSaver is called before it
// is upserted. After decoding, FindObject and FindObjects call SetRowID and
// then AfterLoad on documents implementing them.
type (
	BeforeSaver interface {
		BeforeSave() error
	}
	AfterLoader interface {
		AfterLoad() error
	}
	RowIDSetter interface {
		SetRowID(id int64)
	}
)

// typeOf resolves the registered type of a document value.
func (s *Store) typeOf(doc any) (*schema.Type, error) {
	switch d := doc.(type) {
	case Document:
		return s.reg.Lookup(d.Type)
	case *Document:
		return s.reg.Lookup(d.Type)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", schema.ErrUnknownType)
	}
	return s.reg.TypeOf(reflect.TypeOf(doc))
}

// toTree converts a document to its decoded JSON form. Numbers are kept as
// json.Number so they round-trip exactly.
func toTree(doc any) (any, error) {
	switch d := doc.(type) {
	case Document:
		return d.Data, nil
	case *Document:
		return d.Data, nil
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	return decodeJSON(data)
}

func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return v, nil
}

// ascendedFields returns the scalar fields of t computed from its container.
// Their values are not part of the stored payload and are merged in on read.
func ascendedFields(t *schema.Type) []schema.Field {
	var out []schema.Field
	for _, f := range t.Fields {
		if f.Ascends() && !f.IsArray() {
			out = append(out, f)
		}
	}
	return out
}

// columnValue converts a column read back from the database to the JSON
// value of the field.
func columnValue(f schema.Field, v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return v, nil
	}
	switch f.Type.Kind {
	case schema.KindInt, schema.KindDecimal:
		return json.Number(s), nil
	case schema.KindBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		return b, nil
	default:
		return s, nil
	}
}

// rowID converts a row id column value.
func rowID(v any) (int64, error) {
	switch v := v.(type) {
	case int64:
		return v, nil
	case uint64:
		return int64(v), nil
	case int:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected row id %v (%T)", v, v)
	}
}
