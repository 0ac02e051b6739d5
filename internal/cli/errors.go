// Package cli provides shared configuration and utilities for the docstore CLI.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pthm/docstore/pkg/backend"
	"github.com/pthm/docstore/schema"
)

// Exit codes.
const (
	ExitSuccess     = 0
	ExitGeneral     = 1
	ExitConfig      = 2
	ExitSchemaParse = 3
	ExitDBConnect   = 4
)

// ExitError wraps an error with an exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode returns the process exit code for err.
// Errors without an explicit code are classified by their sentinel.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	switch {
	case schema.IsInvalidSchemaErr(err), schema.IsCyclicSchemaErr(err),
		schema.IsUnsupportedTypeErr(err), schema.IsInvalidPathErr(err):
		return ExitSchemaParse
	case backend.IsUnknownDatabaseErr(err):
		return ExitDBConnect
	}
	return ExitGeneral
}

// PrintError writes err the way ExitWithError reports it.
func PrintError(w io.Writer, err error) {
	_, _ = fmt.Fprintln(w, "Error:", err)
}

// ExitWithError prints the error and exits with the appropriate code.
func ExitWithError(err error) {
	PrintError(os.Stderr, err)
	os.Exit(ExitCode(err))
}

// ConfigError creates an ExitError with ExitConfig code.
func ConfigError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitConfig, Message: msg, Err: err}
}

// SchemaParseError creates an ExitError with ExitSchemaParse code.
func SchemaParseError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitSchemaParse, Message: msg, Err: err}
}

// DBConnectError creates an ExitError with ExitDBConnect code.
func DBConnectError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitDBConnect, Message: msg, Err: err}
}

// GeneralError creates an ExitError with ExitGeneral code.
func GeneralError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitGeneral, Message: msg, Err: err}
}
