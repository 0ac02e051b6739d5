package schema

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identifiedDefs() []TypeDef {
	return []TypeDef{
		{
			Name:   "Box",
			Fields: []Field{{Name: "id", Type: str(0), Caps: Identifying}},
			Parts: []PartField{
				{Name: "items", Type: "Item", Collection: true},
				{Name: "lid", Type: "Item"},
			},
		},
		{
			Name:      "Item",
			Container: "Box",
			Fields:    []Field{{Name: "id", Type: str(0), Caps: Identifying}},
		},
	}
}

func sequence() IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id%d", n)
	}
}

func TestAssignIdentifiers(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(identifiedDefs()...))

	kept := map[string]any{"id": "keep"}
	doc := map[string]any{
		"id":    "",
		"items": []any{kept, map[string]any{"name": "x"}},
	}

	out, changed, err := r.AssignIdentifiers("Box", doc, sequence())
	require.NoError(t, err)
	require.True(t, changed)

	obj := out.(map[string]any)
	assert.Equal(t, "id1", obj["id"])
	items := obj["items"].([]any)
	assert.Equal(t, fmt.Sprintf("%p", kept), fmt.Sprintf("%p", items[0]), "unchanged parts are shared")
	assert.Equal(t, "keep", items[0].(map[string]any)["id"])
	assert.Equal(t, "id2", items[1].(map[string]any)["id"])

	// the input is untouched
	assert.Equal(t, "", doc["id"])
	assert.NotContains(t, doc["items"].([]any)[1].(map[string]any), "id")
}

func TestAssignIdentifiers_Unchanged(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(identifiedDefs()...))

	doc := map[string]any{
		"id":  "box",
		"lid": map[string]any{"id": "lid"},
	}
	out, changed, err := r.AssignIdentifiers("Box", doc, sequence())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, fmt.Sprintf("%p", doc), fmt.Sprintf("%p", out))
}

func TestIdentifiers(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(identifiedDefs()...))
	box, _ := r.Lookup("Box")
	assert.Equal(t, map[string]any{"id": "b1"}, Identifiers(box, map[string]any{"id": "b1", "x": 1}))
}

func TestNewID(t *testing.T) {
	id := NewID()
	assert.Len(t, id, 32)
	assert.NotEqual(t, id, NewID())
}
