package sqlgen

import (
	"strings"
	"testing"

	"github.com/pthm/docstore/schema"
)

func str(n int) schema.FieldType { return schema.FieldType{Kind: schema.KindString, MaxLength: n} }

// testCompiler registers a container tree and a reference chain:
//
//	Container ──parts[*]──▶ Part ──parts[*]──▶ SubPart
//	StartModel.code ──▶ ReferencedByCode.code, ReferencedByCode.name ──▶ ReferencedByName.name
func testCompiler(t *testing.T, cfg Config) *Compiler {
	t.Helper()
	reg := schema.NewRegistry()
	err := reg.Register(
		schema.TypeDef{
			Name: "Container",
			Fields: []schema.Field{
				{Name: "id", Type: str(0), Caps: schema.Identifying},
				{Name: "name", Type: str(0), Caps: schema.Indexed | schema.FullTextSearched},
			},
			Parts: []schema.PartField{{Name: "parts", Type: "Part", Collection: true}},
		},
		schema.TypeDef{
			Name:      "Part",
			Container: "Container",
			Fields: []schema.Field{
				{Name: "container_name", Path: []string{"..", "$.name"}, Type: str(0), Caps: schema.FullTextSearched},
				{Name: "name", Type: str(0), Caps: schema.FullTextSearched},
				{Name: "codes", Type: str(0), Caps: schema.ArrayIndexed},
			},
			Parts: []schema.PartField{{Name: "parts", Type: "SubPart", Collection: true}},
		},
		schema.TypeDef{
			Name:      "SubPart",
			Container: "Part",
			Fields:    []schema.Field{{Name: "name", Type: str(0), Caps: schema.Indexed | schema.FullTextSearched}},
		},
		schema.TypeDef{
			Name: "StartModel",
			Fields: []schema.Field{
				{Name: "id", Type: str(0), Caps: schema.Identifying},
				{Name: "code", Type: str(20), Caps: schema.Indexed, Ref: &schema.Reference{Target: "ReferencedByCode", Key: "code"}},
				{Name: "order", Type: schema.FieldType{Kind: schema.KindInt}, Caps: schema.Indexed},
				{Name: "title", Type: schema.FieldType{Kind: schema.KindText}, Caps: schema.FullTextSearched},
			},
		},
		schema.TypeDef{
			Name: "ReferencedByCode",
			Fields: []schema.Field{
				{Name: "code", Type: str(20), Caps: schema.Unique},
				{Name: "name", Type: str(0), Caps: schema.Indexed, Ref: &schema.Reference{Target: "ReferencedByName", Key: "name"}},
				{Name: "tags", Type: str(0), Caps: schema.ArrayIndexed},
			},
		},
		schema.TypeDef{
			Name: "ReferencedByName",
			Fields: []schema.Field{
				{Name: "name", Type: str(0), Caps: schema.Unique},
				{Name: "score", Type: schema.FieldType{Kind: schema.KindDecimal, Precision: 10, Scale: 2}},
			},
		},
	)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return New(reg, cfg)
}

func lines(l ...string) string {
	return strings.Join(l, "\n")
}

// indent prefixes each line with n spaces.
func indent(n int, s string) string {
	pad := strings.Repeat(" ", n)
	return pad + strings.ReplaceAll(s, "\n", "\n"+pad)
}
