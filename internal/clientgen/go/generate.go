// Package gogen generates Go model structs from document types.
//
// The generated structs carry json and docstore tags, so registering them
// with schema.Registry.RegisterStructs yields the types they were generated
// from:
//
//	const (
//		TypeContainer = "Container"
//	)
//
//	type Container struct {
//		ID    string `json:"id,omitempty" docstore:"id,maxlen=36"`
//		Name  string `json:"name,omitempty" docstore:"index,fulltext"`
//		Parts []Part `json:"parts,omitempty"`
//	}
package gogen

import (
	"bytes"
	"fmt"
	"go/format"
	"slices"
	"strconv"
	"strings"

	"github.com/pthm/docstore/internal/clientgen"
	"github.com/pthm/docstore/schema"
)

// FileName is the single file the generator produces.
const FileName = "models_gen.go"

func init() {
	clientgen.Register(&Generator{})
}

// Generator implements clientgen.Generator for Go.
type Generator struct{}

// Name returns "go" as the runtime identifier.
func (g *Generator) Name() string { return "go" }

// DefaultConfig returns default configuration for Go code generation.
func (g *Generator) DefaultConfig() *clientgen.Config {
	return &clientgen.Config{
		Package: "models",
		Options: make(map[string]any),
	}
}

// Generate returns a single models_gen.go file.
func (g *Generator) Generate(types []*schema.Type, cfg *clientgen.Config) (map[string][]byte, error) {
	if cfg == nil {
		cfg = g.DefaultConfig()
	}
	pkg := cfg.Package
	if pkg == "" {
		pkg = g.DefaultConfig().Package
	}
	selected, err := cfg.Select(types)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	imports := make(map[string]bool)

	body.WriteString("// Type names of the generated documents.\nconst (\n")
	for _, t := range selected {
		fmt.Fprintf(&body, "\tType%s = %q\n", exportName(t.Name), t.Name)
	}
	body.WriteString(")\n\n")

	for _, t := range selected {
		if err := writeStruct(&body, t, imports); err != nil {
			return nil, fmt.Errorf("generating %s: %w", t.Name, err)
		}
	}

	body.WriteString("// Documents returns a zero value of every root type, for\n")
	body.WriteString("// schema.Registry.RegisterStructs.\n")
	body.WriteString("func Documents() []any {\n\treturn []any{\n")
	for _, t := range selected {
		if !t.IsPart() {
			fmt.Fprintf(&body, "\t\t&%s{},\n", exportName(t.Name))
		}
	}
	body.WriteString("\t}\n}\n")

	var out bytes.Buffer
	out.WriteString("// Code generated by docstore generate. DO NOT EDIT.\n\n")
	fmt.Fprintf(&out, "package %s\n\n", pkg)
	if len(imports) > 0 {
		paths := make([]string, 0, len(imports))
		for p := range imports {
			paths = append(paths, p)
		}
		slices.Sort(paths)
		out.WriteString("import (\n")
		for _, p := range paths {
			fmt.Fprintf(&out, "\t%q\n", p)
		}
		out.WriteString(")\n\n")
	}
	out.Write(body.Bytes())

	src, err := format.Source(out.Bytes())
	if err != nil {
		return nil, fmt.Errorf("formatting generated code: %w", err)
	}
	return map[string][]byte{FileName: src}, nil
}

func writeStruct(w *bytes.Buffer, t *schema.Type, imports map[string]bool) error {
	name := exportName(t.Name)
	fmt.Fprintf(w, "// %s is the %s document type.\n", name, t.Name)
	fmt.Fprintf(w, "type %s struct {\n", name)
	if t.IsPart() {
		fmt.Fprintf(w, "\t_ struct{} `%s:\"partof=%s\"`\n", schema.TagKey, t.Container)
	}
	for _, f := range t.Fields {
		goType, err := fieldGoType(f.Type, imports)
		if err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
		fmt.Fprintf(w, "\t%s %s `json:\"%s,omitempty\" %s:\"%s\"`\n",
			exportName(f.Name), goType, f.Name, schema.TagKey, strings.Join(tagOptions(f), ","))
	}
	for _, p := range t.Parts {
		goType := exportName(p.Type)
		if p.Collection {
			goType = "[]" + goType
		} else {
			goType = "*" + goType
		}
		fmt.Fprintf(w, "\t%s %s `json:\"%s,omitempty\"`\n", exportName(p.Name), goType, p.Name)
	}
	w.WriteString("}\n\n")
	return nil
}

// fieldGoType maps a field type to the Go type RegisterStructs maps back.
func fieldGoType(ft schema.FieldType, imports map[string]bool) (string, error) {
	var elem string
	switch ft.Kind {
	case schema.KindString, schema.KindText, schema.KindDate:
		elem = "string"
	case schema.KindInt:
		elem = "int64"
	case schema.KindDecimal:
		imports["encoding/json"] = true
		elem = "json.Number"
	case schema.KindDateTime:
		imports["time"] = true
		elem = "time.Time"
	case schema.KindBool:
		elem = "bool"
	default:
		return "", fmt.Errorf("%w: %s", schema.ErrUnsupportedType, ft.Kind)
	}
	if ft.Array {
		return "[]" + elem, nil
	}
	return elem, nil
}

// tagOptions renders the docstore tag of a field. Implied capabilities and
// default paths are left out.
func tagOptions(f schema.Field) []string {
	var opts []string
	caps := f.Caps
	switch {
	case caps.Has(schema.Identifying):
		opts = append(opts, "id")
	case caps.Has(schema.Unique):
		opts = append(opts, "unique")
	}
	switch {
	case caps.Has(schema.ArrayIndexed):
		opts = append(opts, "array")
	case caps.Has(schema.Indexed):
		opts = append(opts, "index")
	}
	if caps.Has(schema.FullTextSearched) {
		opts = append(opts, "fulltext")
	}

	ft := f.Type
	switch ft.Kind {
	case schema.KindText:
		opts = append(opts, "text")
	case schema.KindDate:
		opts = append(opts, "date")
	}
	if ft.MaxLength > 0 {
		opts = append(opts, "maxlen="+strconv.Itoa(ft.MaxLength))
	}
	if ft.Precision > 0 {
		opts = append(opts, "digits="+strconv.Itoa(ft.Precision))
	}
	if ft.Scale > 0 {
		opts = append(opts, "scale="+strconv.Itoa(ft.Scale))
	}
	if f.Ref != nil {
		opts = append(opts, "ref="+f.Ref.Target+"."+f.Ref.Key)
	}
	if !slices.Equal(f.Path, schema.DefaultPath(f.Name, ft.Array)) {
		opts = append(opts, "path="+strings.Join(f.Path, "|"))
	}
	if len(opts) == 0 {
		opts = append(opts, "stored")
	}
	return opts
}

// initialisms are rendered in upper case by exportName.
var initialisms = map[string]bool{
	"id": true, "url": true, "uri": true, "json": true, "sql": true,
	"api": true, "http": true, "uuid": true, "ip": true,
}

// exportName converts a snake_case or camelCase name to an exported Go
// identifier.
func exportName(name string) string {
	var b strings.Builder
	for _, word := range strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || r == '.' || r == ' '
	}) {
		if initialisms[strings.ToLower(word)] {
			b.WriteString(strings.ToUpper(word))
			continue
		}
		b.WriteString(strings.ToUpper(word[:1]) + word[1:])
	}
	if b.Len() == 0 || (b.String()[0] >= '0' && b.String()[0] <= '9') {
		return "X" + b.String()
	}
	return b.String()
}
