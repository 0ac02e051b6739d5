package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func str(n int) FieldType { return FieldType{Kind: KindString, MaxLength: n} }

func containerDefs() []TypeDef {
	return []TypeDef{
		{
			Name: "Container",
			Fields: []Field{
				{Name: "id", Type: str(0), Caps: Identifying},
				{Name: "name", Type: str(0), Caps: Indexed | FullTextSearched},
			},
			Parts: []PartField{{Name: "parts", Type: "Part", Collection: true}},
		},
		{
			Name:      "Part",
			Container: "Container",
			Fields: []Field{
				{Name: "container_name", Path: []string{"..", "$.name"}, Type: str(0), Caps: FullTextSearched},
				{Name: "name", Type: str(0), Caps: FullTextSearched},
				{Name: "codes", Type: str(0), Caps: ArrayIndexed},
			},
			Parts: []PartField{{Name: "parts", Type: "SubPart", Collection: true}},
		},
		{
			Name:      "SubPart",
			Container: "Part",
			Fields:    []Field{{Name: "name", Type: str(0), Caps: Indexed}},
		},
	}
}

func TestRegister_ResolvesBatch(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(containerDefs()...))

	c, err := r.Lookup("Container")
	require.NoError(t, err)
	assert.False(t, c.IsPart())
	assert.Equal(t, []string{"Part"}, c.PartTypes())

	id, ok := c.Field("id")
	require.True(t, ok)
	assert.True(t, id.Has(Identifying|Unique|Stored))
	assert.Equal(t, 36, id.Type.MaxLength)
	assert.Equal(t, []string{"$.id"}, id.Path)

	p, err := r.Lookup("Part")
	require.NoError(t, err)
	codes, ok := p.Field("codes")
	require.True(t, ok)
	assert.True(t, codes.Type.Array)
	assert.True(t, codes.Has(Indexed))
	assert.Equal(t, []string{"$.codes[*]", "$"}, codes.Path)

	root, err := r.RootOf("SubPart")
	require.NoError(t, err)
	assert.Equal(t, "Container", root.Name)

	container, ok := r.ContainerOf("SubPart")
	require.True(t, ok)
	assert.Equal(t, "Part", container.Name)

	names := make([]string, 0)
	for _, ty := range r.Types() {
		names = append(names, ty.Name)
	}
	assert.Equal(t, []string{"Container", "Part", "SubPart"}, names)
}

func TestRegister_LayersOverrideMostSpecificLast(t *testing.T) {
	r := NewRegistry()
	err := r.Register(TypeDef{
		Name: "Derived",
		Fields: []Field{
			{Name: "order", Path: []string{"$.order_name"}, Type: str(0), Caps: Indexed},
		},
		Layers: []Layer{
			{
				{Name: "name", Type: str(0), Caps: Indexed},
				{Name: "order", Path: []string{"$.order"}, Type: str(0), Caps: Indexed},
			},
			{
				{Name: "hello", Type: str(0), Caps: Indexed},
			},
		},
	})
	require.NoError(t, err)

	d, err := r.Lookup("Derived")
	require.NoError(t, err)
	require.Len(t, d.Fields, 3)
	assert.Equal(t, "order", d.Fields[0].Name)
	assert.Equal(t, []string{"$.order"}, d.Fields[0].Path)
	assert.Equal(t, "name", d.Fields[1].Name)
	assert.Equal(t, "hello", d.Fields[2].Name)
}

func TestRegister_Errors(t *testing.T) {
	tests := []struct {
		name  string
		defs  []TypeDef
		check func(error) bool
	}{
		{
			name: "duplicate in layer",
			defs: []TypeDef{{Name: "T", Fields: []Field{
				{Name: "a", Type: str(0)}, {Name: "a", Type: str(0)},
			}}},
			check: IsInvalidSchemaErr,
		},
		{
			name:  "unknown kind",
			defs:  []TypeDef{{Name: "T", Fields: []Field{{Name: "a", Caps: Indexed}}}},
			check: IsUnsupportedTypeErr,
		},
		{
			name: "bad path",
			defs: []TypeDef{{Name: "T", Fields: []Field{
				{Name: "a", Path: []string{"order_name"}, Type: str(0)},
			}}},
			check: IsInvalidPathErr,
		},
		{
			name: "ascend on root",
			defs: []TypeDef{{Name: "T", Fields: []Field{
				{Name: "a", Path: []string{"..", "$.a"}, Type: str(0)},
			}}},
			check: IsInvalidPathErr,
		},
		{
			name:  "missing container",
			defs:  []TypeDef{{Name: "P", Container: "Nope"}},
			check: IsInvalidSchemaErr,
		},
		{
			name: "container without part field",
			defs: []TypeDef{
				{Name: "C"},
				{Name: "P", Container: "C"},
			},
			check: IsInvalidSchemaErr,
		},
		{
			name: "dangling reference",
			defs: []TypeDef{{Name: "T", Fields: []Field{
				{Name: "a", Type: str(0), Ref: &Reference{Target: "U", Key: "id"}},
			}}},
			check: IsInvalidSchemaErr,
		},
		{
			name: "identifying must be top level",
			defs: []TypeDef{{Name: "T", Fields: []Field{
				{Name: "a", Path: []string{"$.x.a"}, Type: str(0), Caps: Identifying},
			}}},
			check: IsInvalidPathErr,
		},
		{
			name: "cycle",
			defs: []TypeDef{
				{Name: "A", Container: "B", Parts: []PartField{{Name: "b", Type: "B"}}},
				{Name: "B", Container: "A", Parts: []PartField{{Name: "a", Type: "A"}}},
			},
			check: IsCyclicSchemaErr,
		},
		{
			name:  "reserved field name",
			defs:  []TypeDef{{Name: "T", Fields: []Field{{Name: "__json", Type: str(0)}}}},
			check: IsInvalidSchemaErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			err := r.Register(tt.defs...)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error kind: %v", err)
			assert.Empty(t, r.Types(), "failed batch must not register anything")
		})
	}
}

func TestRegister_ReferenceAcrossBatches(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(TypeDef{
		Name:   "ReferencedByName",
		Fields: []Field{{Name: "name", Type: str(0), Caps: Unique}},
	}))
	require.NoError(t, r.Register(TypeDef{
		Name: "ReferencedByCode",
		Fields: []Field{
			{Name: "code", Type: str(0), Caps: Unique},
			{Name: "name", Type: str(0), Ref: &Reference{Target: "ReferencedByName", Key: "name"}},
		},
	}))

	err := r.Register(TypeDef{Name: "ReferencedByCode"})
	assert.True(t, IsInvalidSchemaErr(err))

	_, err = r.Lookup("Missing")
	assert.True(t, IsUnknownTypeErr(err))
}

func TestCapability(t *testing.T) {
	c, err := ParseCapabilities([]string{"id", "fulltext"})
	require.NoError(t, err)
	assert.Equal(t, "stored,unique,fulltext,identifying", c.String())

	_, err = ParseCapability("sparkly")
	assert.True(t, IsInvalidSchemaErr(err))

	assert.Equal(t, Stored|ArrayIndexed|Indexed, ArrayIndexed.Normalize())
	assert.Equal(t, Capability(0), Capability(0).Normalize())
}
