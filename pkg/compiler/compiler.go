// Package compiler provides public APIs for compiling document types to SQL.
//
// This is a thin wrapper around internal/sqlgen that exposes only the public
// types and functions needed by external consumers. For table creation use
// pkg/migrator, for reading and writing documents use the docstore package.
package compiler

import (
	"github.com/pthm/docstore/internal/sqlgen"
)

// Compiler generates SQL for the types of one registry.
type Compiler = sqlgen.Compiler

// Config controls naming and table options of the generated SQL.
type Config = sqlgen.Config

// Layout is the physical layout of one document type.
type Layout = sqlgen.Layout

// Table is one relation of a layout.
type Table = sqlgen.Table

// TableKind classifies the relations of a layout.
type TableKind = sqlgen.TableKind

// DDLStatement is a CREATE statement for one relation.
type DDLStatement = sqlgen.DDLStatement

// UpsertPlan holds the statements that write one root document.
type UpsertPlan = sqlgen.UpsertPlan

// Query is a structured read over one document type.
type Query = sqlgen.Query

// Condition is one filter of a query.
type Condition = sqlgen.Condition

// Statement is compiled SQL whose placeholders are bound from conditions.
type Statement = sqlgen.Statement

// OrphanCheck finds and removes rows whose root row is gone.
type OrphanCheck = sqlgen.OrphanCheck

// Table kinds.
const (
	PrimaryTable  = sqlgen.PrimaryTable
	PartBaseTable = sqlgen.PartBaseTable
	PartView      = sqlgen.PartView
	SideTable     = sqlgen.SideTable
)

// Defaults applied to empty Config fields.
const (
	DefaultTablePrefix    = sqlgen.DefaultTablePrefix
	DefaultFullTextParser = sqlgen.DefaultFullTextParser
)

// MatchOp is the full-text operator of a Condition.
const MatchOp = sqlgen.MatchOp

// New creates a Compiler.
var New = sqlgen.New

// ColumnType maps a field type to its column type.
var ColumnType = sqlgen.ColumnType

// Where builds equality conditions from field/value pairs.
var Where = sqlgen.Where

// ParamName derives the placeholder name of a field reference.
var ParamName = sqlgen.ParamName

// CascadeParams binds the root row id of cascade statements.
var CascadeParams = sqlgen.CascadeParams

// Query compilation errors.
var (
	ErrJoinResolution = sqlgen.ErrJoinResolution
	ErrInvalidQuery   = sqlgen.ErrInvalidQuery
)

// IsJoinResolutionErr returns true if err is or wraps ErrJoinResolution.
var IsJoinResolutionErr = sqlgen.IsJoinResolutionErr

// IsInvalidQueryErr returns true if err is or wraps ErrInvalidQuery.
var IsInvalidQueryErr = sqlgen.IsInvalidQueryErr
