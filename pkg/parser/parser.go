// Package parser reads document type definitions from YAML schema files.
//
// Schemas describe the same types Go structs declare with docstore tags,
// for stores without Go types such as the CLI:
//
//	types:
//	  - name: Container
//	    fields:
//	      - {name: id, type: string, capabilities: [id]}
//	      - {name: name, type: string(100), capabilities: [index, fulltext]}
//	    parts:
//	      - {name: parts, type: Part, collection: true}
//	  - name: Part
//	    container: Container
//	    fields:
//	      - {name: container_name, path: ["..", "$.name"], type: string, capabilities: [fulltext]}
//	      - {name: codes, type: "string[]", capabilities: [array]}
//	      - {name: owner, type: string, ref: User.id}
//
// Field types are string(N), text, int, decimal(P,S), date, datetime and
// bool; a trailing [] declares an array. JSON is accepted as well, since
// it is valid YAML.
//
// # Basic Usage
//
//	defs, err := parser.ParseSchema("docstore.schema.yaml")
//	err = registry.Register(defs...)
package parser

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/pthm/docstore/schema"
)

// File is the top level of a schema file.
type File struct {
	Types []TypeSpec `json:"types"`
}

// TypeSpec declares one document type.
type TypeSpec struct {
	Name      string      `json:"name"`
	Container string      `json:"container,omitempty"`
	Fields    []FieldSpec `json:"fields,omitempty"`
	Parts     []PartSpec  `json:"parts,omitempty"`
	// Layers override Fields in order; later layers win.
	Layers [][]FieldSpec `json:"layers,omitempty"`
}

// FieldSpec declares one projected field.
type FieldSpec struct {
	Name         string   `json:"name"`
	Path         []string `json:"path,omitempty"`
	Type         string   `json:"type"`
	Capabilities []string `json:"capabilities,omitempty"`
	// Ref is "Type.key".
	Ref string `json:"ref,omitempty"`
}

// PartSpec declares a field holding parts.
type PartSpec struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Collection bool   `json:"collection,omitempty"`
}

// ParseSchema reads a YAML schema file and returns type definitions.
func ParseSchema(path string) ([]schema.TypeDef, error) {
	content, err := os.ReadFile(path) //nolint:gosec // path is from trusted source
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	return ParseSchemaString(string(content))
}

// ParseSchemaString parses YAML schema content and returns type definitions.
// The definitions are not yet resolved; register them to validate links
// between types.
func ParseSchemaString(content string) ([]schema.TypeDef, error) {
	var f File
	if err := yaml.UnmarshalStrict([]byte(content), &f); err != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrInvalidSchema, err)
	}
	return convertFile(f)
}

// LoadSchema parses a schema file and registers its types.
func LoadSchema(reg *schema.Registry, path string) error {
	defs, err := ParseSchema(path)
	if err != nil {
		return err
	}
	return reg.Register(defs...)
}

// Marshal renders type definitions as a schema file.
func Marshal(defs []schema.TypeDef) ([]byte, error) {
	f := File{Types: make([]TypeSpec, len(defs))}
	for i, def := range defs {
		f.Types[i] = typeSpec(def)
	}
	return yaml.Marshal(f)
}

func convertFile(f File) ([]schema.TypeDef, error) {
	defs := make([]schema.TypeDef, 0, len(f.Types))
	for _, ts := range f.Types {
		def, err := convertType(ts)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func convertType(ts TypeSpec) (schema.TypeDef, error) {
	def := schema.TypeDef{Name: ts.Name, Container: ts.Container}
	var err error
	if def.Fields, err = convertFields(ts.Name, ts.Fields); err != nil {
		return def, err
	}
	for _, layer := range ts.Layers {
		fields, err := convertFields(ts.Name, layer)
		if err != nil {
			return def, err
		}
		def.Layers = append(def.Layers, fields)
	}
	for _, p := range ts.Parts {
		def.Parts = append(def.Parts, schema.PartField{Name: p.Name, Type: p.Type, Collection: p.Collection})
	}
	return def, nil
}

func convertFields(typeName string, specs []FieldSpec) ([]schema.Field, error) {
	out := make([]schema.Field, 0, len(specs))
	for _, fs := range specs {
		f, err := convertField(fs)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", typeName, fs.Name, err)
		}
		out = append(out, f)
	}
	return out, nil
}

func convertField(fs FieldSpec) (schema.Field, error) {
	ft, err := ParseFieldType(fs.Type)
	if err != nil {
		return schema.Field{}, err
	}
	caps, err := schema.ParseCapabilities(fs.Capabilities)
	if err != nil {
		return schema.Field{}, err
	}
	f := schema.Field{Name: fs.Name, Path: fs.Path, Type: ft, Caps: (caps | schema.Stored).Normalize()}
	if fs.Ref != "" {
		target, key, ok := strings.Cut(fs.Ref, ".")
		if !ok || target == "" || key == "" {
			return f, fmt.Errorf("%w: reference %q must be Type.key", schema.ErrInvalidSchema, fs.Ref)
		}
		f.Ref = &schema.Reference{Target: target, Key: key}
	}
	if f.Has(schema.ArrayIndexed) {
		f.Type.Array = true
	}
	return f, nil
}

var fieldTypePattern = regexp.MustCompile(`^\s*([A-Za-z]+)\s*(?:\(\s*(\d+)\s*(?:,\s*(\d+)\s*)?\))?\s*(\[\])?\s*$`)

// ParseFieldType parses a field type such as "string(100)", "decimal(10,2)"
// or "int[]". The size of string is a maximum length, the sizes of decimal
// are precision and scale.
func ParseFieldType(s string) (schema.FieldType, error) {
	m := fieldTypePattern.FindStringSubmatch(s)
	if m == nil {
		return schema.FieldType{}, fmt.Errorf("%w: field type %q", schema.ErrInvalidSchema, s)
	}
	ft := schema.FieldType{Kind: schema.ParseKind(m[1]), Array: m[4] != ""}
	if ft.Kind == schema.KindUnknown {
		return ft, fmt.Errorf("%w: field type %q", schema.ErrUnsupportedType, s)
	}
	a, _ := strconv.Atoi(m[2])
	b, _ := strconv.Atoi(m[3])
	switch ft.Kind {
	case schema.KindString:
		if m[3] != "" {
			return ft, fmt.Errorf("%w: field type %q takes one size", schema.ErrInvalidSchema, s)
		}
		ft.MaxLength = a
	case schema.KindDecimal:
		ft.Precision, ft.Scale = a, b
	default:
		if m[2] != "" {
			return ft, fmt.Errorf("%w: field type %q takes no size", schema.ErrInvalidSchema, s)
		}
	}
	return ft, nil
}

// FormatFieldType is the inverse of ParseFieldType.
func FormatFieldType(ft schema.FieldType) string {
	s := ft.Kind.String()
	switch {
	case ft.Kind == schema.KindString && ft.MaxLength > 0:
		s += "(" + strconv.Itoa(ft.MaxLength) + ")"
	case ft.Kind == schema.KindDecimal && ft.Scale > 0:
		s += "(" + strconv.Itoa(ft.Precision) + "," + strconv.Itoa(ft.Scale) + ")"
	case ft.Kind == schema.KindDecimal && ft.Precision > 0:
		s += "(" + strconv.Itoa(ft.Precision) + ")"
	}
	if ft.Array {
		s += "[]"
	}
	return s
}

func typeSpec(def schema.TypeDef) TypeSpec {
	ts := TypeSpec{Name: def.Name, Container: def.Container, Fields: fieldSpecs(def.Fields)}
	for _, layer := range def.Layers {
		ts.Layers = append(ts.Layers, fieldSpecs(layer))
	}
	for _, p := range def.Parts {
		ts.Parts = append(ts.Parts, PartSpec{Name: p.Name, Type: p.Type, Collection: p.Collection})
	}
	return ts
}

func fieldSpecs(fields []schema.Field) []FieldSpec {
	out := make([]FieldSpec, len(fields))
	for i, f := range fields {
		fs := FieldSpec{Name: f.Name, Path: f.Path, Type: FormatFieldType(f.Type), Capabilities: f.Caps.Names()}
		if f.Ref != nil {
			fs.Ref = f.Ref.Target + "." + f.Ref.Key
		}
		out[i] = fs
	}
	return out
}
