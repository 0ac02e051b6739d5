package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/structtag"
)

// TagKey is the struct tag key read by RegisterStructs.
const TagKey = "docstore"

var (
	timeType   = reflect.TypeFor[time.Time]()
	numberType = reflect.TypeFor[json.Number]()
)

// RegisterStructs derives type definitions from Go struct values and
// registers them. Part types reachable through part fields are registered
// along with their containers.
//
// Field names follow the json tag. Projection is declared with the docstore
// tag:
//
//	type Container struct {
//		ID    string `json:"id" docstore:"id"`
//		Name  string `json:"name" docstore:"index,fulltext,maxlen=100"`
//		Codes []string `json:"codes" docstore:"array"`
//		Owner string `json:"owner" docstore:"ref=User.id"`
//		Parts []Part `json:"parts"`
//	}
//
//	type Part struct {
//		_             struct{} `docstore:"partof=Container"`
//		ContainerName string   `json:"-" docstore:"fulltext,path=..|$.name"`
//		Name          string   `json:"name" docstore:"fulltext"`
//	}
//
// A struct field whose type (or slice element type) declares partof is a part
// field. Embedded structs contribute their fields as an earlier override layer
// so the embedding struct can redefine them.
func (r *Registry) RegisterStructs(values ...any) error {
	b := &structBuilder{seen: make(map[reflect.Type]bool)}
	for _, v := range values {
		gt := reflect.TypeOf(v)
		for gt != nil && gt.Kind() == reflect.Pointer {
			gt = gt.Elem()
		}
		if err := b.add(gt); err != nil {
			return err
		}
	}
	return r.Register(b.defs...)
}

type structBuilder struct {
	seen map[reflect.Type]bool
	defs []TypeDef
}

func (b *structBuilder) add(gt reflect.Type) error {
	if gt == nil || gt.Kind() != reflect.Struct || gt.Name() == "" {
		return fmt.Errorf("%w: %v is not a named struct type", ErrInvalidSchema, gt)
	}
	if b.seen[gt] {
		return nil
	}
	b.seen[gt] = true

	def := TypeDef{Name: gt.Name(), goType: gt}
	layers, err := b.collect(gt, &def)
	if err != nil {
		return fmt.Errorf("type %s: %w", gt.Name(), err)
	}
	if len(layers) > 0 {
		def.Fields = layers[0]
		def.Layers = layers[1:]
	}
	b.defs = append(b.defs, def)
	return nil
}

// collect returns the override layers of a struct: one per embedded struct,
// followed by the struct's own fields.
func (b *structBuilder) collect(gt reflect.Type, def *TypeDef) ([]Layer, error) {
	var layers []Layer
	var own Layer

	for i := range gt.NumField() {
		sf := gt.Field(i)
		tags, err := parseTags(sf)
		if err != nil {
			return nil, err
		}

		if sf.Name == "_" {
			container, err := partOf(tags)
			if err != nil {
				return nil, err
			}
			if container != "" {
				def.Container = container
			}
			continue
		}

		name, skip := jsonName(sf, tags)
		if sf.Anonymous && sf.Type.Kind() == reflect.Struct && !hasJSONName(tags) {
			embedded, err := b.collect(sf.Type, def)
			if err != nil {
				return nil, err
			}
			layers = append(layers, embedded...)
			continue
		}
		if !sf.IsExported() {
			continue
		}

		if elem, collection, ok := partElem(sf.Type); ok && !skip {
			if err := b.add(elem); err != nil {
				return nil, err
			}
			def.Parts = append(def.Parts, PartField{Name: name, Type: elem.Name(), Collection: collection})
			continue
		}

		tag, err := tags.Get(TagKey)
		if err != nil || tag.Name == "-" {
			continue
		}
		f, err := fieldFromTag(name, sf.Type, append([]string{tag.Name}, tag.Options...))
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", sf.Name, err)
		}
		own = append(own, f)
	}

	return append(layers, own), nil
}

func fieldFromTag(name string, gt reflect.Type, opts []string) (Field, error) {
	f := Field{Name: name, Type: goFieldType(gt)}
	for _, opt := range opts {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			continue
		}
		key, value, hasValue := strings.Cut(opt, "=")
		switch {
		case key == "text" && !hasValue:
			f.Type.Kind = KindText
		case key == "date" && !hasValue:
			f.Type.Kind = KindDate
		case key == "maxlen" || key == "digits" || key == "scale":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return f, fmt.Errorf("%w: bad %s value %q", ErrInvalidSchema, key, value)
			}
			switch key {
			case "maxlen":
				f.Type.MaxLength = n
			case "digits":
				f.Type.Precision = n
			default:
				f.Type.Scale = n
			}
		case key == "ref":
			target, field, ok := strings.Cut(value, ".")
			if !ok || target == "" || field == "" {
				return f, fmt.Errorf("%w: reference %q must be Type.field", ErrInvalidSchema, value)
			}
			f.Ref = &Reference{Target: target, Key: field}
		case key == "path":
			f.Path = strings.Split(value, "|")
		case key == "name":
			f.Name = value
		default:
			c, err := ParseCapability(key)
			if err != nil {
				return f, err
			}
			f.Caps |= c
		}
	}
	f.Caps = (f.Caps | Stored).Normalize()
	if f.Has(ArrayIndexed) {
		f.Type.Array = true
	}
	return f, nil
}

// goFieldType maps a Go type to a field type. Unmapped types yield
// KindUnknown and are rejected on registration if stored.
func goFieldType(gt reflect.Type) FieldType {
	for gt.Kind() == reflect.Pointer {
		gt = gt.Elem()
	}
	if (gt.Kind() == reflect.Slice || gt.Kind() == reflect.Array) && gt.Elem().Kind() != reflect.Uint8 {
		ft := goFieldType(gt.Elem())
		if ft.Array {
			return FieldType{}
		}
		ft.Array = true
		return ft
	}

	switch {
	case gt == timeType:
		return FieldType{Kind: KindDateTime}
	case gt == numberType:
		return FieldType{Kind: KindDecimal}
	}

	switch gt.Kind() {
	case reflect.String:
		return FieldType{Kind: KindString}
	case reflect.Bool:
		return FieldType{Kind: KindBool}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return FieldType{Kind: KindInt}
	case reflect.Float32, reflect.Float64:
		return FieldType{Kind: KindDecimal}
	default:
		return FieldType{}
	}
}

// partElem reports whether gt holds parts: a struct, pointer to struct or
// slice of those whose struct type declares partof.
func partElem(gt reflect.Type) (reflect.Type, bool, bool) {
	collection := false
	if gt.Kind() == reflect.Slice || gt.Kind() == reflect.Array {
		collection = true
		gt = gt.Elem()
	}
	for gt.Kind() == reflect.Pointer {
		gt = gt.Elem()
	}
	if gt.Kind() != reflect.Struct || !declaresPartOf(gt) {
		return nil, false, false
	}
	return gt, collection, true
}

func declaresPartOf(gt reflect.Type) bool {
	for i := range gt.NumField() {
		sf := gt.Field(i)
		if sf.Name != "_" {
			continue
		}
		tags, err := parseTags(sf)
		if err != nil {
			return false
		}
		if container, err := partOf(tags); err == nil && container != "" {
			return true
		}
	}
	return false
}

func parseTags(sf reflect.StructField) (*structtag.Tags, error) {
	tags, err := structtag.Parse(string(sf.Tag))
	if err != nil {
		return nil, fmt.Errorf("%w: field %s: %v", ErrInvalidSchema, sf.Name, err)
	}
	if tags == nil {
		tags = &structtag.Tags{}
	}
	return tags, nil
}

func partOf(tags *structtag.Tags) (string, error) {
	tag, err := tags.Get(TagKey)
	if err != nil {
		return "", nil
	}
	for _, opt := range append([]string{tag.Name}, tag.Options...) {
		if v, ok := strings.CutPrefix(opt, "partof="); ok {
			if v == "" {
				return "", fmt.Errorf("%w: empty partof", ErrInvalidSchema)
			}
			return v, nil
		}
	}
	return "", nil
}

// jsonName returns the JSON member name of a struct field, and whether the
// field is excluded from the JSON encoding.
func jsonName(sf reflect.StructField, tags *structtag.Tags) (string, bool) {
	tag, err := tags.Get("json")
	if err != nil || tag.Name == "" {
		return sf.Name, false
	}
	if tag.Name == "-" && len(tag.Options) == 0 {
		return sf.Name, true
	}
	return tag.Name, false
}

func hasJSONName(tags *structtag.Tags) bool {
	tag, err := tags.Get("json")
	return err == nil && tag.Name != ""
}
