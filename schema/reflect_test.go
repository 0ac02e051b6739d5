package schema

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Audit struct {
	Created time.Time `json:"created" docstore:"index"`
	Label   string    `json:"label" docstore:"index"`
}

type Shelf struct {
	Audit
	ID    string   `json:"id,omitempty" docstore:"id"`
	Name  string   `json:"name" docstore:"index,fulltext,maxlen=100"`
	Label string   `json:"label" docstore:"unique"`
	Tags  []string `json:"tags" docstore:"array"`
	Price float64  `json:"price" docstore:"digits=12,scale=2"`
	Notes string   `json:"notes"`
	Books []Book   `json:"books"`
	Front *Book    `json:"front,omitempty"`
}

type Book struct {
	_         struct{} `docstore:"partof=Shelf"`
	ShelfName string   `json:"-" docstore:"fulltext,name=shelf_name,path=..|$.name"`
	Title     string   `json:"title" docstore:"fulltext,text"`
	Published string   `json:"published" docstore:"date"`
}

func TestRegisterStructs(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterStructs(&Shelf{}))

	shelf, err := r.TypeOf(reflect.TypeFor[*Shelf]())
	require.NoError(t, err)
	assert.Equal(t, "Shelf", shelf.Name)

	var names []string
	for _, f := range shelf.Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"created", "label", "id", "name", "tags", "price"}, names)

	label, _ := shelf.Field("label")
	assert.True(t, label.Has(Unique), "embedding struct overrides embedded field")
	assert.False(t, label.Has(Indexed))

	name, _ := shelf.Field("name")
	assert.Equal(t, FieldType{Kind: KindString, MaxLength: 100}, name.Type)
	assert.True(t, name.Has(FullTextSearched|Indexed))

	tags, _ := shelf.Field("tags")
	assert.True(t, tags.Type.Array)
	assert.True(t, tags.Has(ArrayIndexed))

	price, _ := shelf.Field("price")
	assert.Equal(t, FieldType{Kind: KindDecimal, Precision: 12, Scale: 2}, price.Type)

	created, _ := shelf.Field("created")
	assert.Equal(t, KindDateTime, created.Type.Kind)

	assert.Equal(t, []PartField{
		{Name: "books", Type: "Book", Collection: true},
		{Name: "front", Type: "Book"},
	}, shelf.Parts)

	book, err := r.Lookup("Book")
	require.NoError(t, err)
	assert.Equal(t, "Shelf", book.Container)
	sn, ok := book.Field("shelf_name")
	require.True(t, ok)
	assert.True(t, sn.Ascends())
	title, _ := book.Field("title")
	assert.Equal(t, KindText, title.Type.Kind)
	published, _ := book.Field("published")
	assert.Equal(t, KindDate, published.Type.Kind)
}

type Unmappable struct {
	Meta map[string]string `json:"meta" docstore:"index"`
}

func TestRegisterStructs_UnsupportedType(t *testing.T) {
	err := NewRegistry().RegisterStructs(Unmappable{})
	require.Error(t, err)
	assert.True(t, IsUnsupportedTypeErr(err))
}

func TestJSONSchema(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterStructs(Shelf{}))
	s, err := r.JSONSchema("Shelf")
	require.NoError(t, err)
	assert.Equal(t, "Shelf", s.Title)

	require.NoError(t, r.Register(containerDefs()...))
	s, err = r.JSONSchema("Container")
	require.NoError(t, err)
	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"parts":{"items":`)
	assert.Contains(t, string(data), `"codes":{"items":{"type":"string"},"type":"array"}`)
}
