package sqlgen

import "errors"

// Sentinel errors for query compilation.
var (
	// ErrJoinResolution is returned when a dotted field path crosses a field
	// that is not a reference.
	ErrJoinResolution = errors.New("docstore/sqlgen: join resolution failed")

	// ErrInvalidQuery is returned for unknown fields, operators or ordering
	// directions.
	ErrInvalidQuery = errors.New("docstore/sqlgen: invalid query")
)

// IsJoinResolutionErr returns true if err is or wraps ErrJoinResolution.
func IsJoinResolutionErr(err error) bool {
	return errors.Is(err, ErrJoinResolution)
}

// IsInvalidQueryErr returns true if err is or wraps ErrInvalidQuery.
func IsInvalidQueryErr(err error) bool {
	return errors.Is(err, ErrInvalidQuery)
}
