package sqlgen

import (
	"errors"
	"slices"
	"testing"

	"github.com/pthm/docstore/schema"
)

func TestTableName(t *testing.T) {
	c := testCompiler(t, Config{})
	tests := []struct {
		typ, suffix, want string
	}{
		{"Container", "", "model_Container"},
		{"Part", PartBaseSuffix, "model_Part_pbase"},
		{"Part", "codes", "model_Part_codes"},
	}
	for _, tt := range tests {
		if got := c.TableName(tt.typ, tt.suffix); got != tt.want {
			t.Errorf("TableName(%q, %q) = %q, want %q", tt.typ, tt.suffix, got, tt.want)
		}
	}

	prefixed := testCompiler(t, Config{TablePrefix: "doc_"})
	if got := prefixed.TableName("Part", ""); got != "doc_Part" {
		t.Errorf("TableName with prefix = %q", got)
	}
}

func TestPlan(t *testing.T) {
	c := testCompiler(t, Config{})

	l, err := c.Plan("Part")
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if l.Primary != "model_Part" || l.Base != "model_Part_pbase" {
		t.Errorf("Plan(Part) primary/base = %q/%q", l.Primary, l.Base)
	}
	if l.Container != "model_Container" || l.Root != "model_Container" {
		t.Errorf("Plan(Part) container/root = %q/%q", l.Container, l.Root)
	}

	var names []string
	for _, table := range l.Tables() {
		names = append(names, table.Name+":"+table.Kind.String())
	}
	want := []string{"model_Part_pbase:part base", "model_Part:view", "model_Part_codes:side table"}
	if !slices.Equal(names, want) {
		t.Errorf("Tables() = %v, want %v", names, want)
	}

	sub, err := c.Plan("SubPart")
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if sub.Container != "model_Part" || sub.Root != "model_Container" {
		t.Errorf("Plan(SubPart) container/root = %q/%q", sub.Container, sub.Root)
	}

	if _, err := c.Plan("Missing"); err == nil {
		t.Error("Plan(Missing) expected error")
	}
}

func TestCreationOrder(t *testing.T) {
	c := testCompiler(t, Config{})
	tests := []struct {
		name  string
		types []string
		want  []string
	}{
		{"root pulls parts", []string{"Container"}, []string{"Container", "Part", "SubPart"}},
		{"part pulls root first", []string{"SubPart"}, []string{"Container", "Part", "SubPart"}},
		{"no duplicates", []string{"Part", "Container", "SubPart"}, []string{"Container", "Part", "SubPart"}},
		{"independent roots keep request order", []string{"ReferencedByName", "StartModel"}, []string{"ReferencedByName", "StartModel"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.CreationOrder(tt.types...)
			if err != nil {
				t.Fatalf("CreationOrder() error = %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("CreationOrder() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlan_TableNameCollision(t *testing.T) {
	tests := []struct {
		name string
		defs []schema.TypeDef
	}{
		{
			"side table and type",
			[]schema.TypeDef{
				{Name: "Doc", Fields: []schema.Field{{Name: "tags", Type: str(0), Caps: schema.ArrayIndexed}}},
				{Name: "Doc_tags", Fields: []schema.Field{{Name: "name", Type: str(0)}}},
			},
		},
		{
			"part base table and type",
			[]schema.TypeDef{
				{Name: "Doc", Parts: []schema.PartField{{Name: "items", Type: "Item", Collection: true}}},
				{Name: "Item", Container: "Doc", Fields: []schema.Field{{Name: "name", Type: str(0)}}},
				{Name: "Item_pbase", Fields: []schema.Field{{Name: "name", Type: str(0)}}},
			},
		},
		{
			"two side tables",
			[]schema.TypeDef{
				{Name: "A", Fields: []schema.Field{{Name: "b_c", Type: str(0), Caps: schema.ArrayIndexed}}},
				{Name: "A_b", Fields: []schema.Field{{Name: "c", Type: str(0), Caps: schema.ArrayIndexed}}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := schema.NewRegistry()
			if err := reg.Register(tt.defs...); err != nil {
				t.Fatalf("Register() error = %v", err)
			}
			c := New(reg, Config{})
			_, err := c.PlanAll(tt.defs[0].Name)
			if !errors.Is(err, schema.ErrInvalidSchema) {
				t.Errorf("PlanAll() error = %v, want ErrInvalidSchema", err)
			}
			if _, err := c.DDL(tt.defs[len(tt.defs)-1].Name); !errors.Is(err, schema.ErrInvalidSchema) {
				t.Errorf("DDL() error = %v, want ErrInvalidSchema", err)
			}
		})
	}

	c := testCompiler(t, Config{})
	if _, err := c.PlanAll("Container", "StartModel", "ReferencedByCode", "ReferencedByName"); err != nil {
		t.Errorf("PlanAll() of distinct names error = %v", err)
	}
}
