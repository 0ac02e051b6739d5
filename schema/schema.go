// Package schema describes document types for docstore.
//
// A document type is a named JSON record. Some of its fields are projected
// into relational columns so they can be indexed, referenced or searched.
// The projection is driven entirely by the metadata held here: which fields
// are stored, where their values live inside the JSON payload, and how types
// nest inside each other.
//
// # Capabilities
//
// Every projected field carries a Capability set:
//
//	Stored            the value gets its own column
//	Indexed           a KEY is created for the column
//	Unique            a UNIQUE KEY is created for the column
//	ArrayIndexed      the field is multi-valued; each element gets a row in a side table
//	FullTextSearched  the column joins the table's FULLTEXT index
//	Identifying       the value is assigned by the store when empty and bound at write time
//
// # Parts and containers
//
// A part type is owned by a container type and is never written on its own.
// The container declares the part fields that hold part values (a single
// object or an array of objects). Parts may nest: a part can itself be the
// container of further parts.
//
//	Container ──parts[*]──▶ Part ──members[*]──▶ Member
//
// # Extraction paths
//
// A field's Path lists the JSON path segments used to pull its value out of a
// payload. Segments are "$.name", "$.name[*]" or the ascend marker "..",
// which resolves the rest of the path against the owning container instead of
// the part itself. Array-valued paths end with the element marker "$".
//
//	["$.name"]                  scalar on self
//	["$.codes[*]", "$"]         array elements on self
//	["..", "$.name"]            scalar on the container
//
// # Registration
//
// A Registry resolves a batch of TypeDefs at once: forward references between
// types in the batch are allowed, override layers are merged, paths are
// validated and the container graph is checked for cycles. Resolved Types are
// immutable afterwards.
package schema

import (
	"reflect"
	"strings"
)

// Path markers.
const (
	// Ascend resolves the remainder of a path against the owning container.
	Ascend = ".."
	// Element is the trailing segment of an array path, selecting each element.
	Element = "$"
)

// Reserved column names used by the storage layout.
const (
	RowIDField          = "__row_id"
	JSONField           = "__json"
	RootRowIDField      = "__root_row_id"
	ContainerRowIDField = "__container_row_id"
	JSONPathField       = "__json_path"
	RelevanceField      = "__relevance"
)

// Reference points a field at a key field of another document type.
type Reference struct {
	Target string `json:"target"`
	Key    string `json:"key"`
}

// Field is a projected field of a document type.
type Field struct {
	Name string     `json:"name"`
	Path []string   `json:"path,omitempty"`
	Type FieldType  `json:"type"`
	Caps Capability `json:"capabilities"`
	Ref  *Reference `json:"reference,omitempty"`
}

// Ascends reports whether the field is resolved against the container.
func (f Field) Ascends() bool {
	return len(f.Path) > 0 && f.Path[0] == Ascend
}

// IsArray reports whether the field holds a JSON array of scalars.
func (f Field) IsArray() bool {
	return f.Type.Array
}

// Has reports whether the field carries every capability in c.
func (f Field) Has(c Capability) bool {
	return f.Caps.Has(c)
}

// JSONPath joins the self-relative segments into a single JSON path,
// dropping the ascend and element markers.
//
//	["$.a", "$.b[*]", "$"] → "$.a.b[*]"
func (f Field) JSONPath() string {
	parts := make([]string, 0, len(f.Path))
	for _, p := range f.Path {
		if p == Ascend || p == Element {
			continue
		}
		parts = append(parts, strings.TrimPrefix(p, "$."))
	}
	return "$." + strings.Join(parts, ".")
}

// PartField is a container field holding one part or an array of parts.
type PartField struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Collection bool   `json:"collection,omitempty"`
}

// Layer is a set of field definitions that override earlier definitions
// with the same name.
type Layer []Field

// TypeDef is the unresolved definition of a document type, as written by
// hand, parsed from a schema file or derived from a Go struct.
type TypeDef struct {
	Name      string      `json:"name"`
	Container string      `json:"container,omitempty"`
	Fields    []Field     `json:"fields,omitempty"`
	Parts     []PartField `json:"parts,omitempty"`
	// Layers are applied in order over Fields; later layers win.
	Layers []Layer `json:"layers,omitempty"`

	goType reflect.Type
}

// Type is a resolved document type.
type Type struct {
	Name      string
	Container string
	Fields    []Field
	Parts     []PartField

	goType reflect.Type
	index  map[string]int
}

// IsPart reports whether the type is owned by a container.
func (t *Type) IsPart() bool {
	return t.Container != ""
}

// Field returns the named field.
func (t *Type) Field(name string) (Field, bool) {
	i, ok := t.index[name]
	if !ok {
		return Field{}, false
	}
	return t.Fields[i], true
}

// FieldsWith returns the fields carrying every capability in c, in
// declaration order.
func (t *Type) FieldsWith(c Capability) []Field {
	var out []Field
	for _, f := range t.Fields {
		if f.Has(c) {
			out = append(out, f)
		}
	}
	return out
}

// PartTypes returns the distinct part type names in declaration order.
func (t *Type) PartTypes() []string {
	var out []string
	seen := make(map[string]bool)
	for _, p := range t.Parts {
		if !seen[p.Type] {
			seen[p.Type] = true
			out = append(out, p.Type)
		}
	}
	return out
}

// PartFieldsOf returns the part fields holding values of the given part type.
func (t *Type) PartFieldsOf(part string) []PartField {
	var out []PartField
	for _, p := range t.Parts {
		if p.Type == part {
			out = append(out, p)
		}
	}
	return out
}

// GoType returns the Go type the document was reflected from, if any.
func (t *Type) GoType() reflect.Type {
	return t.goType
}
