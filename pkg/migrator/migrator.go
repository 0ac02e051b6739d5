// Package migrator creates the tables, views and side tables of document
// types.
//
// Table creation is idempotent: every statement is CREATE ... IF NOT EXISTS,
// so it is safe to run on every application startup. Each run is recorded in
// the docstore_migrations table with a checksum of the statements it applied;
// a later run with the same checksum is skipped unless forced.
//
//	m := migrator.New(db, compiler)
//	skipped, err := m.CreateTables(ctx, migrator.Options{}, "Container", "StartModel")
package migrator

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pthm/docstore/internal/sqlgen"
	"github.com/pthm/docstore/internal/sqlgen/sqldsl"
)

// CodegenVersion is incremented when the generated DDL changes shape, so
// tables are re-created even if the statement checksum matches an old run.
const CodegenVersion = "1"

// MigrationsTable records applied runs.
const MigrationsTable = "docstore_migrations"

var migrationsDDL = sqldsl.Sqlf(`
	CREATE TABLE IF NOT EXISTS %s (
	  %s BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
	  %s CHAR(64) NOT NULL,
	  %s VARCHAR(16) NOT NULL,
	  %s TEXT NOT NULL,
	  %s DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6)
	)`,
	sqldsl.Ident(MigrationsTable),
	sqldsl.Ident("id"),
	sqldsl.Ident("ddl_checksum"),
	sqldsl.Ident("codegen_version"),
	sqldsl.Ident("tables"),
	sqldsl.Ident("applied_at"),
)

// Options controls table creation.
type Options struct {
	// DryRun writes the statements to the writer instead of executing them.
	DryRun io.Writer

	// Force runs the statements even when the last recorded run applied the
	// same checksum.
	Force bool
}

// MigrationRecord is a row of the migrations table.
type MigrationRecord struct {
	DDLChecksum    string
	CodegenVersion string
	Tables         []string
}

// Migrator applies generated DDL.
type Migrator struct {
	db       Execer
	compiler *sqlgen.Compiler
	logger   *slog.Logger
}

// Option configures a Migrator.
type Option func(*Migrator)

// WithLogger sets the logger for applied statements.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Migrator) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a migrator. The Execer is typically *sql.DB.
func New(db Execer, compiler *sqlgen.Compiler, opts ...Option) *Migrator {
	m := &Migrator{db: db, compiler: compiler, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Statements returns the CREATE statements for the given types and their
// container and part closure, in creation order.
func (m *Migrator) Statements(typeNames ...string) ([]sqlgen.DDLStatement, error) {
	return m.compiler.DDL(typeNames...)
}

// ComputeChecksum returns a SHA256 hash of the statements.
func ComputeChecksum(stmts []sqlgen.DDLStatement) string {
	h := sha256.New()
	for _, s := range stmts {
		_, _ = io.WriteString(h, s.SQL)
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// CreateTables creates every relation of the given types. It reports
// skipped=true when the same statements were already applied.
//
// MariaDB commits DDL implicitly, so statements are applied one by one. A
// failed run leaves the relations created so far, and re-running completes
// it.
func (m *Migrator) CreateTables(ctx context.Context, opts Options, typeNames ...string) (skipped bool, err error) {
	stmts, err := m.Statements(typeNames...)
	if err != nil {
		return false, err
	}
	checksum := ComputeChecksum(stmts)

	if opts.DryRun != nil {
		m.outputDryRun(opts.DryRun, checksum, stmts)
		return false, nil
	}

	if !opts.Force {
		last, err := m.GetLastMigration(ctx)
		if err != nil {
			return false, fmt.Errorf("checking last migration: %w", err)
		}
		if shouldSkip(last, checksum) {
			m.logger.Debug("tables unchanged", slog.String("checksum", checksum))
			return true, nil
		}
	}

	if _, err := m.db.ExecContext(ctx, migrationsDDL); err != nil {
		return false, fmt.Errorf("applying migrations DDL: %w", err)
	}
	for _, s := range stmts {
		m.logger.Debug("create", slog.String("table", s.Table.Name), slog.String("sql", s.SQL))
		if _, err := m.db.ExecContext(ctx, s.SQL); err != nil {
			return false, fmt.Errorf("creating %s: %w", s.Table.Name, err)
		}
	}
	if err := m.insertMigrationRecord(ctx, checksum, tableNames(stmts)); err != nil {
		return false, err
	}
	m.logger.Info("tables created", slog.Int("statements", len(stmts)))
	return false, nil
}

// GetLastMigration returns the most recent migration record, or nil if none
// exists.
func (m *Migrator) GetLastMigration(ctx context.Context) (*MigrationRecord, error) {
	exists, err := m.tableExists(ctx, MigrationsTable)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	var rec MigrationRecord
	var tables string
	err = m.db.QueryRowContext(ctx,
		"SELECT `ddl_checksum`, `codegen_version`, `tables` FROM `"+MigrationsTable+"` ORDER BY `id` DESC LIMIT 1",
	).Scan(&rec.DDLChecksum, &rec.CodegenVersion, &tables)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying last migration: %w", err)
	}
	if tables != "" {
		rec.Tables = strings.Split(tables, ",")
	}
	return &rec, nil
}

// shouldSkip returns true if the checksum and codegen version are unchanged.
func shouldSkip(last *MigrationRecord, checksum string) bool {
	if last == nil {
		return false
	}
	return last.DDLChecksum == checksum && last.CodegenVersion == CodegenVersion
}

func (m *Migrator) insertMigrationRecord(ctx context.Context, checksum string, tables []string) error {
	_, err := m.db.ExecContext(ctx,
		"INSERT INTO `"+MigrationsTable+"` (`ddl_checksum`, `codegen_version`, `tables`) VALUES (?, ?, ?)",
		checksum, CodegenVersion, strings.Join(tables, ","))
	if err != nil {
		return fmt.Errorf("inserting migration record: %w", err)
	}
	return nil
}

func (m *Migrator) tableExists(ctx context.Context, name string) (bool, error) {
	var n int
	err := m.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?",
		name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", name, err)
	}
	return n > 0, nil
}

func tableNames(stmts []sqlgen.DDLStatement) []string {
	out := make([]string, len(stmts))
	for i, s := range stmts {
		out[i] = s.Table.Name
	}
	return out
}

// outputDryRun writes the migration SQL to the provided writer.
func (m *Migrator) outputDryRun(w io.Writer, checksum string, stmts []sqlgen.DDLStatement) {
	_, _ = fmt.Fprintf(w, "-- docstore tables (dry-run)\n")
	_, _ = fmt.Fprintf(w, "-- DDL checksum: %s\n", checksum)
	_, _ = fmt.Fprintf(w, "-- Codegen version: %s\n\n", CodegenVersion)

	_, _ = fmt.Fprintf(w, "%s;\n\n", migrationsDDL)
	for _, s := range stmts {
		_, _ = fmt.Fprintf(w, "-- %s\n%s;\n\n", s.Table.Name, s.SQL)
	}

	_, _ = fmt.Fprintf(w, "INSERT INTO `%s` (`ddl_checksum`, `codegen_version`, `tables`)\n", MigrationsTable)
	_, _ = fmt.Fprintf(w, "VALUES ('%s', '%s', '%s');\n", checksum, CodegenVersion, strings.Join(tableNames(stmts), ","))
}
