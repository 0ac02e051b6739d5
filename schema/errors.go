package schema

import "errors"

// Schema errors are raised while a batch of type definitions is resolved.
// They indicate programming mistakes in the document model and are never
// worth retrying.
var (
	// ErrInvalidSchema is returned for structural problems: missing
	// containers, dangling references, ambiguous field redefinitions.
	ErrInvalidSchema = errors.New("docstore/schema: invalid schema")

	// ErrInvalidPath is returned when an extraction path is malformed.
	ErrInvalidPath = errors.New("docstore/schema: invalid extraction path")

	// ErrUnsupportedType is returned when a stored field has a type with no
	// column mapping.
	ErrUnsupportedType = errors.New("docstore/schema: unsupported field type")

	// ErrCyclicSchema is returned when a type is transitively its own container.
	ErrCyclicSchema = errors.New("docstore/schema: cyclic schema")

	// ErrUnknownType is returned when a type name or Go type is not registered.
	ErrUnknownType = errors.New("docstore/schema: unknown type")
)

// IsInvalidSchemaErr returns true if err is or wraps ErrInvalidSchema.
func IsInvalidSchemaErr(err error) bool {
	return errors.Is(err, ErrInvalidSchema)
}

// IsInvalidPathErr returns true if err is or wraps ErrInvalidPath.
func IsInvalidPathErr(err error) bool {
	return errors.Is(err, ErrInvalidPath)
}

// IsUnsupportedTypeErr returns true if err is or wraps ErrUnsupportedType.
func IsUnsupportedTypeErr(err error) bool {
	return errors.Is(err, ErrUnsupportedType)
}

// IsCyclicSchemaErr returns true if err is or wraps ErrCyclicSchema.
func IsCyclicSchemaErr(err error) bool {
	return errors.Is(err, ErrCyclicSchema)
}

// IsUnknownTypeErr returns true if err is or wraps ErrUnknownType.
func IsUnknownTypeErr(err error) bool {
	return errors.Is(err, ErrUnknownType)
}
