package testutil

import "fmt"

// Container owns a collection of parts. Each part owns sub-parts.
type Container struct {
	ID    string `json:"id,omitempty" docstore:"id"`
	Name  string `json:"name" docstore:"index,fulltext"`
	Parts []Part `json:"parts,omitempty"`
}

// Part is owned by a Container and carries the container's name.
type Part struct {
	_             struct{}  `docstore:"partof=Container"`
	ContainerName string    `json:"container_name,omitempty" docstore:"fulltext,path=..|$.name"`
	Name          string    `json:"name" docstore:"fulltext"`
	Codes         []string  `json:"codes,omitempty" docstore:"array"`
	Parts         []SubPart `json:"parts,omitempty"`
}

// SubPart is owned by a Part.
type SubPart struct {
	_    struct{} `docstore:"partof=Part"`
	Name string   `json:"name" docstore:"index,fulltext"`
}

// StartModel references ReferencedByCode by code.
type StartModel struct {
	ID    string `json:"id,omitempty" docstore:"id"`
	Code  string `json:"code" docstore:"index,maxlen=20,ref=ReferencedByCode.code"`
	Order int    `json:"order" docstore:"index"`
	Title string `json:"title" docstore:"fulltext,text"`

	rowID int64
}

// SetRowID records the row id the document was loaded from.
func (m *StartModel) SetRowID(id int64) { m.rowID = id }

// RowID returns the row id set by SetRowID.
func (m *StartModel) RowID() int64 { return m.rowID }

// ReferencedByCode references ReferencedByName by name.
type ReferencedByCode struct {
	Code string   `json:"code" docstore:"unique,maxlen=20"`
	Name string   `json:"name" docstore:"index,ref=ReferencedByName.name"`
	Tags []string `json:"tags,omitempty" docstore:"array"`
}

// ReferencedByName is the end of the reference chain.
type ReferencedByName struct {
	Name  string  `json:"name" docstore:"unique"`
	Score float64 `json:"score" docstore:"digits=10,scale=2"`
}

// Documents returns one value of every fixture document type, for
// schema.Registry.RegisterStructs.
func Documents() []any {
	return []any{
		&Container{},
		&StartModel{},
		&ReferencedByCode{},
		&ReferencedByName{},
	}
}

// NewContainer builds a container named name with the given number of parts,
// each holding subParts sub-parts. Part i is named "<name>-part<i>" and its
// sub-part j "part<i>-sub<j>", both counted from 1.
func NewContainer(name string, parts, subParts int) *Container {
	c := &Container{Name: name}
	for i := 1; i <= parts; i++ {
		p := Part{
			Name:  fmt.Sprintf("%s-part%d", name, i),
			Codes: []string{fmt.Sprintf("code%d", i), "shared"},
		}
		for j := 1; j <= subParts; j++ {
			p.Parts = append(p.Parts, SubPart{Name: fmt.Sprintf("part%d-sub%d", i, j)})
		}
		c.Parts = append(c.Parts, p)
	}
	return c
}
