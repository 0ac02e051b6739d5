// Package typescript generates TypeScript interfaces describing the JSON of
// document types.
//
// Output is split into types.ts (one interface per type plus a union of
// type names) and index.ts re-exporting it.
package typescript

import (
	"fmt"
	"strings"

	"github.com/pthm/docstore/internal/clientgen"
	"github.com/pthm/docstore/schema"
)

func init() {
	clientgen.Register(&Generator{})
}

// Generator implements clientgen.Generator for TypeScript.
type Generator struct{}

// Name returns "typescript" as the runtime identifier.
func (g *Generator) Name() string { return "typescript" }

// DefaultConfig returns default configuration for TypeScript code generation.
//
// Supported options:
//   - "readonly" (bool): mark interface members readonly
func (g *Generator) DefaultConfig() *clientgen.Config {
	return &clientgen.Config{
		Options: map[string]any{"readonly": false},
	}
}

// Generate returns types.ts and index.ts.
func (g *Generator) Generate(types []*schema.Type, cfg *clientgen.Config) (map[string][]byte, error) {
	if cfg == nil {
		cfg = g.DefaultConfig()
	}
	selected, err := cfg.Select(types)
	if err != nil {
		return nil, err
	}
	readonly, _ := cfg.Options["readonly"].(bool)

	var b strings.Builder
	b.WriteString("// Code generated by docstore generate. DO NOT EDIT.\n\n")

	names := make([]string, len(selected))
	for i, t := range selected {
		names[i] = fmt.Sprintf("%q", t.Name)
	}
	if len(names) > 0 {
		fmt.Fprintf(&b, "export type TypeName = %s;\n\n", strings.Join(names, " | "))
	}

	prefix := ""
	if readonly {
		prefix = "readonly "
	}
	for _, t := range selected {
		fmt.Fprintf(&b, "export interface %s {\n", t.Name)
		for _, f := range t.Fields {
			if f.Ascends() {
				// Resolved from the container on read.
				fmt.Fprintf(&b, "  /** Copied from the containing %s. */\n", t.Container)
			}
			tsType, err := fieldType(f.Type)
			if err != nil {
				return nil, fmt.Errorf("generating %s.%s: %w", t.Name, f.Name, err)
			}
			optional := "?"
			if f.Has(schema.Identifying) {
				optional = ""
			}
			fmt.Fprintf(&b, "  %s%s%s: %s;\n", prefix, member(f.Name), optional, tsType)
		}
		for _, p := range t.Parts {
			tsType := p.Type
			if p.Collection {
				tsType += "[]"
			}
			fmt.Fprintf(&b, "  %s%s?: %s;\n", prefix, member(p.Name), tsType)
		}
		b.WriteString("}\n\n")
	}

	return map[string][]byte{
		"types.ts": []byte(strings.TrimRight(b.String(), "\n") + "\n"),
		"index.ts": []byte("// Code generated by docstore generate. DO NOT EDIT.\n\nexport * from \"./types\";\n"),
	}, nil
}

func fieldType(ft schema.FieldType) (string, error) {
	var elem string
	switch ft.Kind {
	case schema.KindString, schema.KindText, schema.KindDate, schema.KindDateTime:
		elem = "string"
	case schema.KindInt, schema.KindDecimal:
		elem = "number"
	case schema.KindBool:
		elem = "boolean"
	default:
		return "", fmt.Errorf("%w: %s", schema.ErrUnsupportedType, ft.Kind)
	}
	if ft.Array {
		return elem + "[]", nil
	}
	return elem, nil
}

// member quotes names that are not valid identifiers.
func member(name string) string {
	for i, r := range name {
		ok := r == '_' || r == '$' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (i > 0 && r >= '0' && r <= '9')
		if !ok {
			return fmt.Sprintf("%q", name)
		}
	}
	return name
}
