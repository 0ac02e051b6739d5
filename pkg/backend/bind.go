package backend

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMissingParam is returned when a statement names a parameter that was
// not supplied.
var ErrMissingParam = errors.New("docstore/backend: missing parameter")

var placeholder = regexp.MustCompile(`%\(([A-Za-z0-9_]+)\)s`)

// Bind rewrites %(NAME)s placeholders to driver placeholders and returns the
// arguments in placeholder order. A name may appear more than once.
func Bind(query string, params map[string]any) (string, []any, error) {
	matches := placeholder.FindAllStringSubmatchIndex(query, -1)
	if len(matches) == 0 {
		return query, nil, nil
	}
	var b strings.Builder
	args := make([]any, 0, len(matches))
	last := 0
	for _, m := range matches {
		name := query[m[2]:m[3]]
		v, ok := params[name]
		if !ok {
			return "", nil, fmt.Errorf("%w: %s", ErrMissingParam, name)
		}
		b.WriteString(query[last:m[0]])
		b.WriteByte('?')
		args = append(args, v)
		last = m[1]
	}
	b.WriteString(query[last:])
	return b.String(), args, nil
}

// IsMissingParamErr returns true if err is or wraps ErrMissingParam.
func IsMissingParamErr(err error) bool {
	return errors.Is(err, ErrMissingParam)
}
