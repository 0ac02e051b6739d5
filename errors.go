package docstore

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pthm/docstore/pkg/backend"
)

// Sentinel errors for the failure modes of the store. All of them indicate
// programming or setup errors and are never retried.
//
// Use the Is*Err helper functions to check for specific errors.
var (
	// ErrPartWrite is returned when a part type is written or deleted
	// directly. Parts are written through their container.
	ErrPartWrite = errors.New("docstore: part types are written through their container")

	// ErrMultipleObjects is returned by FindObject when more than one row
	// matches. The error is a *MultipleObjectsError carrying the row ids.
	ErrMultipleObjects = errors.New("docstore: multiple objects match")

	// ErrMissingTable is returned when a statement refers to a table that
	// does not exist. Run `docstore migrate` or Store.CreateTables.
	ErrMissingTable = errors.New("docstore: table not found")

	// ErrNoIdentifiers is returned when a document has no identifying or
	// unique field value to build a filter from.
	ErrNoIdentifiers = errors.New("docstore: document has no identifiers")
)

// MultipleObjectsError reports an ambiguous FindObject.
type MultipleObjectsError struct {
	Type   string
	RowIDs []int64
}

func (e *MultipleObjectsError) Error() string {
	ids := make([]string, len(e.RowIDs))
	for i, id := range e.RowIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}
	return fmt.Sprintf("%v: %s rows %s", ErrMultipleObjects, e.Type, strings.Join(ids, ", "))
}

func (e *MultipleObjectsError) Unwrap() error {
	return ErrMultipleObjects
}

// IsPartWriteErr returns true if err is or wraps ErrPartWrite.
func IsPartWriteErr(err error) bool {
	return errors.Is(err, ErrPartWrite)
}

// IsMultipleObjectsErr returns true if err is or wraps ErrMultipleObjects.
func IsMultipleObjectsErr(err error) bool {
	return errors.Is(err, ErrMultipleObjects)
}

// IsMissingTableErr returns true if err is or wraps ErrMissingTable.
func IsMissingTableErr(err error) bool {
	return errors.Is(err, ErrMissingTable)
}

// IsNoIdentifiersErr returns true if err is or wraps ErrNoIdentifiers.
func IsNoIdentifiersErr(err error) bool {
	return errors.Is(err, ErrNoIdentifiers)
}

// mapError adds operation context and marks missing tables. The backend
// error stays in the chain unchanged.
func mapError(operation string, err error) error {
	if backend.IsMissingTableErr(err) {
		return fmt.Errorf("%s: %w: %w", operation, ErrMissingTable, err)
	}
	return fmt.Errorf("%s: %w", operation, err)
}
