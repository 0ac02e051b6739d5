package sqlgen

import (
	"fmt"
	"strings"
)

// Reserved parameter names.
const (
	JSONParam      = "__JSON"
	RootRowIDParam = "__ROOT_ROW_ID"
)

// ParamName derives the placeholder name of a field reference: uppercased,
// with dots and commas turned into underscores and spaces dropped.
//
//	"code.name"  → CODE_NAME
//	"name,title" → NAME_TITLE
func ParamName(field string) string {
	name := strings.NewReplacer(".", "_", ",", "_", " ", "").Replace(field)
	return strings.ToUpper(name)
}

// paramNamer hands out unique placeholder names.
type paramNamer struct {
	used map[string]bool
}

func newParamNamer(reserved ...string) *paramNamer {
	p := &paramNamer{used: make(map[string]bool)}
	for _, r := range reserved {
		p.used[r] = true
	}
	return p
}

// next returns the name for field, suffixed with _2, _3, ... on collision.
func (p *paramNamer) next(field string) string {
	base := ParamName(field)
	name := base
	for i := 2; p.used[name]; i++ {
		name = fmt.Sprintf("%s_%d", base, i)
	}
	p.used[name] = true
	return name
}
