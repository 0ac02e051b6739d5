package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Capability is a set of projection capabilities of a field.
type Capability uint16

const (
	Stored Capability = 1 << iota
	Indexed
	Unique
	ArrayIndexed
	FullTextSearched
	Identifying
)

var capabilityNames = []struct {
	cap  Capability
	name string
}{
	{Stored, "stored"},
	{Indexed, "indexed"},
	{Unique, "unique"},
	{ArrayIndexed, "array"},
	{FullTextSearched, "fulltext"},
	{Identifying, "identifying"},
}

// capabilityAliases maps accepted spellings to capabilities.
var capabilityAliases = map[string]Capability{
	"stored":      Stored,
	"index":       Indexed,
	"indexed":     Indexed,
	"unique":      Unique,
	"array":       ArrayIndexed,
	"fulltext":    FullTextSearched,
	"fts":         FullTextSearched,
	"id":          Identifying,
	"identifying": Identifying,
}

// Has reports whether c contains every capability in o.
func (c Capability) Has(o Capability) bool {
	return c&o == o
}

// Normalize adds implied capabilities: every capability implies Stored,
// Identifying implies Unique and ArrayIndexed implies Indexed.
func (c Capability) Normalize() Capability {
	if c == 0 {
		return 0
	}
	c |= Stored
	if c.Has(Identifying) {
		c |= Unique
	}
	if c.Has(ArrayIndexed) {
		c |= Indexed
	}
	return c
}

// String renders the set as a comma separated list.
func (c Capability) String() string {
	return strings.Join(c.Names(), ",")
}

// Names lists the capability names in canonical order.
func (c Capability) Names() []string {
	var out []string
	for _, n := range capabilityNames {
		if c.Has(n.cap) {
			out = append(out, n.name)
		}
	}
	return out
}

// ParseCapability parses a single capability name.
func ParseCapability(s string) (Capability, error) {
	c, ok := capabilityAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("%w: unknown capability %q", ErrInvalidSchema, s)
	}
	return c, nil
}

// ParseCapabilities parses a list of capability names into a normalized set.
func ParseCapabilities(names []string) (Capability, error) {
	var c Capability
	for _, n := range names {
		p, err := ParseCapability(n)
		if err != nil {
			return 0, err
		}
		c |= p
	}
	return c.Normalize(), nil
}

// MarshalJSON renders the set as a list of names.
func (c Capability) MarshalJSON() ([]byte, error) {
	names := c.Names()
	if names == nil {
		names = []string{}
	}
	return json.Marshal(names)
}

// UnmarshalJSON accepts a list of names.
func (c *Capability) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	parsed, err := ParseCapabilities(names)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Kind is the declared scalar type of a field.
type Kind int

const (
	KindUnknown Kind = iota
	KindString
	KindText
	KindDecimal
	KindInt
	KindDate
	KindDateTime
	KindBool
)

var kindNames = map[Kind]string{
	KindUnknown:  "unknown",
	KindString:   "string",
	KindText:     "text",
	KindDecimal:  "decimal",
	KindInt:      "int",
	KindDate:     "date",
	KindDateTime: "datetime",
	KindBool:     "bool",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind parses a kind name. Unrecognised names yield KindUnknown.
func ParseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string", "str", "varchar":
		return KindString
	case "text":
		return KindText
	case "decimal", "number":
		return KindDecimal
	case "int", "integer", "bigint":
		return KindInt
	case "date":
		return KindDate
	case "datetime", "timestamp":
		return KindDateTime
	case "bool", "boolean":
		return KindBool
	default:
		return KindUnknown
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	*k = ParseKind(string(text))
	return nil
}

// FieldType is the declared type of a field's value. For arrays it describes
// the element type.
type FieldType struct {
	Kind      Kind `json:"kind"`
	MaxLength int  `json:"maxLength,omitempty"`
	Precision int  `json:"precision,omitempty"`
	Scale     int  `json:"scale,omitempty"`
	Array     bool `json:"array,omitempty"`
}

// Elem returns the element type of an array type.
func (t FieldType) Elem() FieldType {
	t.Array = false
	return t
}
