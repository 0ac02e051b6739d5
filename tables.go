package docstore

import (
	"context"

	"github.com/pthm/docstore/internal/sqlgen"
	"github.com/pthm/docstore/pkg/migrator"
)

// CreateTables creates the relations of the given types and of their
// container and part closure. With no names it covers every registered
// type. It is idempotent.
func (s *Store) CreateTables(ctx context.Context, typeNames ...string) error {
	_, err := s.Migrator().CreateTables(ctx, migrator.Options{Force: true}, s.typeNames(typeNames)...)
	if err != nil {
		return mapError("creating tables", err)
	}
	return nil
}

// Migrator returns a migrator over the store's database and compiler.
func (s *Store) Migrator() *migrator.Migrator {
	return migrator.New(s.pool.DB(), s.compiler, migrator.WithLogger(s.logger))
}

// DDL returns the CREATE statements of the given types, or of every
// registered type, in creation order.
func (s *Store) DDL(typeNames ...string) ([]sqlgen.DDLStatement, error) {
	stmts, err := s.compiler.DDL(s.typeNames(typeNames)...)
	if err != nil {
		return nil, s.fail(err)
	}
	return stmts, nil
}

// Migrate creates tables like CreateTables, but skips the run when the
// migrations table records the same statements, unless opts.Force is set.
func (s *Store) Migrate(ctx context.Context, opts migrator.Options, typeNames ...string) (skipped bool, err error) {
	skipped, err = s.Migrator().CreateTables(ctx, opts, s.typeNames(typeNames)...)
	if err != nil {
		return false, mapError("migrating", err)
	}
	return skipped, nil
}

// Status reports which relations of the given types, or of every registered
// type, exist.
func (s *Store) Status(ctx context.Context, typeNames ...string) (*migrator.Status, error) {
	st, err := s.Migrator().GetStatus(ctx, s.typeNames(typeNames)...)
	if err != nil {
		return nil, mapError("checking status", err)
	}
	return st, nil
}
