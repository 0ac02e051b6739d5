// Package doctor provides health checks for a docstore database.
//
// The doctor command validates that the schema file parses and registers,
// that every planned relation exists, that the applied DDL matches the
// schema, and that no part or side rows outlived their root documents.
//
// Example usage:
//
//	d := doctor.New(db, "docstore.schema.yaml")
//	report, err := d.Run(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	report.Print(os.Stdout, true) // verbose=true
package doctor

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pthm/docstore"
	"github.com/pthm/docstore/pkg/migrator"
	"github.com/pthm/docstore/pkg/parser"
	"github.com/pthm/docstore/schema"
)

// Status represents the result of a health check.
type Status int

const (
	// StatusPass indicates the check passed.
	StatusPass Status = iota
	// StatusWarn indicates a non-critical issue.
	StatusWarn
	// StatusFail indicates a critical issue that will cause failures.
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Symbol returns a status indicator symbol for terminal output.
func (s Status) Symbol() string {
	switch s {
	case StatusPass:
		return "✓"
	case StatusWarn:
		return "⚠"
	case StatusFail:
		return "✗"
	default:
		return "?"
	}
}

// CheckResult represents the outcome of a single health check.
type CheckResult struct {
	// Category groups related checks (e.g., "Schema File", "Tables").
	Category string

	// Name is a short identifier for the check.
	Name string

	Status  Status
	Message string

	// Details provides additional information for verbose output.
	Details string

	// FixHint suggests how to resolve issues.
	FixHint string
}

// Report contains all health check results.
type Report struct {
	Checks []CheckResult

	Passed   int
	Warnings int
	Errors   int
}

// AddCheck adds a check result and updates summary counts.
func (r *Report) AddCheck(check CheckResult) {
	r.Checks = append(r.Checks, check)
	switch check.Status {
	case StatusPass:
		r.Passed++
	case StatusWarn:
		r.Warnings++
	case StatusFail:
		r.Errors++
	}
}

// Print writes the report to the given writer.
func (r *Report) Print(w io.Writer, verbose bool) {
	categories := make(map[string][]CheckResult)
	var categoryOrder []string
	for _, check := range r.Checks {
		if _, exists := categories[check.Category]; !exists {
			categoryOrder = append(categoryOrder, check.Category)
		}
		categories[check.Category] = append(categories[check.Category], check)
	}

	for _, cat := range categoryOrder {
		_, _ = fmt.Fprintf(w, "\n%s\n", cat)
		for _, check := range categories[cat] {
			_, _ = fmt.Fprintf(w, "  %s %s\n", check.Status.Symbol(), check.Message)
			if verbose && check.Details != "" {
				for _, line := range strings.Split(check.Details, "\n") {
					_, _ = fmt.Fprintf(w, "      %s\n", line)
				}
			}
			if check.Status != StatusPass && check.FixHint != "" {
				_, _ = fmt.Fprintf(w, "      Fix: %s\n", check.FixHint)
			}
		}
	}

	_, _ = fmt.Fprintf(w, "\nSummary: %d passed, %d warnings, %d errors\n",
		r.Passed, r.Warnings, r.Errors)
}

// HasErrors returns true if any check failed.
func (r *Report) HasErrors() bool {
	return r.Errors > 0
}

// Doctor performs health checks on a docstore database.
type Doctor struct {
	db         *sql.DB
	schemaPath string
	opts       []docstore.Option

	// Populated during Run
	store  *docstore.Store
	status *migrator.Status
}

// New creates a new Doctor instance. The options configure the store the
// checks run through and must match the ones the application uses.
func New(db *sql.DB, schemaPath string, opts ...docstore.Option) *Doctor {
	return &Doctor{
		db:         db,
		schemaPath: schemaPath,
		opts:       opts,
	}
}

// Run executes all health checks and returns a report.
func (d *Doctor) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	d.checkSchemaFile(report)
	if d.store == nil {
		return report, nil
	}
	if err := d.checkTables(ctx, report); err != nil {
		return nil, fmt.Errorf("checking tables: %w", err)
	}
	d.checkMigrationState(report)
	if err := d.checkOrphans(ctx, report); err != nil {
		return nil, fmt.Errorf("checking orphans: %w", err)
	}

	return report, nil
}

// checkSchemaFile validates the schema file exists, parses and registers.
func (d *Doctor) checkSchemaFile(report *Report) {
	const category = "Schema File"

	if _, err := os.Stat(d.schemaPath); err != nil {
		report.AddCheck(CheckResult{
			Category: category,
			Name:     "exists",
			Status:   StatusFail,
			Message:  fmt.Sprintf("Schema file not found at %s", d.schemaPath),
			FixHint:  "Set 'schema' in docstore.yaml or pass --schema",
		})
		return
	}

	report.AddCheck(CheckResult{
		Category: category,
		Name:     "exists",
		Status:   StatusPass,
		Message:  fmt.Sprintf("Schema file exists at %s", d.schemaPath),
	})

	defs, err := parser.ParseSchema(d.schemaPath)
	if err != nil {
		report.AddCheck(CheckResult{
			Category: category,
			Name:     "valid",
			Status:   StatusFail,
			Message:  "Schema file is invalid",
			Details:  err.Error(),
			FixHint:  "Run 'docstore validate' to see detailed errors",
		})
		return
	}

	fieldCount, partCount := 0, 0
	for _, def := range defs {
		fieldCount += len(def.Fields)
		if def.Container != "" {
			partCount++
		}
	}
	report.AddCheck(CheckResult{
		Category: category,
		Name:     "valid",
		Status:   StatusPass,
		Message:  fmt.Sprintf("Schema is valid (%d types, %d parts, %d fields)", len(defs), partCount, fieldCount),
	})

	reg := schema.NewRegistry()
	if err := reg.Register(defs...); err != nil {
		check := CheckResult{
			Category: category,
			Name:     "registered",
			Status:   StatusFail,
			Message:  "Schema types cannot be registered",
			Details:  err.Error(),
			FixHint:  "Check container links and field references",
		}
		if schema.IsCyclicSchemaErr(err) {
			check.Message = "Schema contains cyclic container links"
		}
		report.AddCheck(check)
		return
	}

	report.AddCheck(CheckResult{
		Category: category,
		Name:     "registered",
		Status:   StatusPass,
		Message:  "Types registered, no cyclic container links",
	})

	d.store = docstore.New(d.db, reg, d.opts...)
}

// checkTables validates that every planned relation exists.
func (d *Doctor) checkTables(ctx context.Context, report *Report) error {
	const category = "Tables"

	status, err := d.store.Status(ctx)
	if err != nil {
		return err
	}
	d.status = status

	missing := status.Missing()
	if len(missing) > 0 {
		names := make([]string, len(missing))
		for i, t := range missing {
			names[i] = fmt.Sprintf("%s (%s of %s)", t.Table.Name, t.Table.Kind, t.Type)
		}
		report.AddCheck(CheckResult{
			Category: category,
			Name:     "exist",
			Status:   StatusFail,
			Message:  fmt.Sprintf("%d of %d relations missing", len(missing), len(status.Tables)),
			Details:  strings.Join(names, "\n"),
			FixHint:  "Run 'docstore migrate' to create them",
		})
		return nil
	}

	names := make([]string, len(status.Tables))
	for i, t := range status.Tables {
		names[i] = t.Table.Name
	}
	report.AddCheck(CheckResult{
		Category: category,
		Name:     "exist",
		Status:   StatusPass,
		Message:  fmt.Sprintf("All %d relations exist", len(status.Tables)),
		Details:  strings.Join(names, "\n"),
	})
	return nil
}

// checkMigrationState compares the recorded run with the current DDL.
func (d *Doctor) checkMigrationState(report *Report) {
	const category = "Migration State"

	last := d.status.Last
	if last == nil {
		report.AddCheck(CheckResult{
			Category: category,
			Name:     "migrated",
			Status:   StatusWarn,
			Message:  "No migration records found",
			Details:  fmt.Sprintf("%s is missing or empty", migrator.MigrationsTable),
			FixHint:  "Run 'docstore migrate' to record the applied schema",
		})
		return
	}

	report.AddCheck(CheckResult{
		Category: category,
		Name:     "migrated",
		Status:   StatusPass,
		Message:  fmt.Sprintf("Schema migrated (%d relations tracked)", len(last.Tables)),
	})

	stmts, err := d.store.DDL()
	if err != nil {
		report.AddCheck(CheckResult{
			Category: category,
			Name:     "schema_sync",
			Status:   StatusFail,
			Message:  "DDL cannot be generated",
			Details:  err.Error(),
		})
		return
	}
	current := migrator.ComputeChecksum(stmts)

	switch {
	case current != last.DDLChecksum:
		report.AddCheck(CheckResult{
			Category: category,
			Name:     "schema_sync",
			Status:   StatusWarn,
			Message:  "Schema has changed since last migration",
			Details:  fmt.Sprintf("Schema checksum: %s...\nDB checksum:     %s...", short(current), short(last.DDLChecksum)),
			FixHint:  "Run 'docstore migrate' to apply changes",
		})
	case last.CodegenVersion != migrator.CodegenVersion:
		report.AddCheck(CheckResult{
			Category: category,
			Name:     "schema_sync",
			Status:   StatusWarn,
			Message:  "Codegen version has changed",
			Details:  fmt.Sprintf("Current: %s, DB: %s", migrator.CodegenVersion, last.CodegenVersion),
			FixHint:  "Run 'docstore migrate --force' to regenerate relations",
		})
	default:
		report.AddCheck(CheckResult{
			Category: category,
			Name:     "schema_sync",
			Status:   StatusPass,
			Message:  "Schema is in sync with database",
		})
	}
}

// checkOrphans counts part and side rows whose root row is gone.
func (d *Doctor) checkOrphans(ctx context.Context, report *Report) error {
	const category = "Data Health"

	if len(d.status.Missing()) > 0 {
		report.AddCheck(CheckResult{
			Category: category,
			Name:     "orphans",
			Status:   StatusWarn,
			Message:  "Orphan check skipped, relations are missing",
		})
		return nil
	}

	counts, err := d.store.CountOrphans(ctx)
	if err != nil {
		return err
	}

	var total int64
	var lines []string
	for _, c := range counts {
		if c.Rows > 0 {
			total += c.Rows
			lines = append(lines, fmt.Sprintf("%s: %d rows without %s", c.Table.Name, c.Rows, c.Root))
		}
	}

	if total > 0 {
		report.AddCheck(CheckResult{
			Category: category,
			Name:     "orphans",
			Status:   StatusWarn,
			Message:  fmt.Sprintf("%d orphaned rows in %d tables", total, len(lines)),
			Details:  strings.Join(lines, "\n"),
			FixHint:  "Run 'docstore purge' to delete them",
		})
		return nil
	}

	report.AddCheck(CheckResult{
		Category: category,
		Name:     "orphans",
		Status:   StatusPass,
		Message:  fmt.Sprintf("No orphaned rows (%d tables checked)", len(counts)),
	})
	return nil
}

func short(checksum string) string {
	if len(checksum) > 16 {
		return checksum[:16]
	}
	return checksum
}
