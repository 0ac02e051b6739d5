package migrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/pthm/docstore/internal/sqlgen"
)

// TableStatus reports whether one planned relation exists.
type TableStatus struct {
	Type   string
	Table  sqlgen.Table
	Exists bool
}

// Status represents the current migration state.
type Status struct {
	Tables []TableStatus
	// Last is the most recent recorded run, or nil.
	Last *MigrationRecord
}

// Missing returns the planned relations that do not exist.
func (s *Status) Missing() []TableStatus {
	var out []TableStatus
	for _, t := range s.Tables {
		if !t.Exists {
			out = append(out, t)
		}
	}
	return out
}

// GetStatus checks which relations of the given types exist in the current
// database.
func (m *Migrator) GetStatus(ctx context.Context, typeNames ...string) (*Status, error) {
	layouts, err := m.compiler.PlanAll(typeNames...)
	if err != nil {
		return nil, err
	}

	var planned []TableStatus
	for _, l := range layouts {
		for _, t := range l.Tables() {
			planned = append(planned, TableStatus{Type: l.Type, Table: t})
		}
	}

	existing, err := m.existingTables(ctx, planned)
	if err != nil {
		return nil, err
	}
	for i := range planned {
		planned[i].Exists = existing[planned[i].Table.Name]
	}

	last, err := m.GetLastMigration(ctx)
	if err != nil {
		return nil, err
	}
	return &Status{Tables: planned, Last: last}, nil
}

func (m *Migrator) existingTables(ctx context.Context, planned []TableStatus) (map[string]bool, error) {
	existing := make(map[string]bool, len(planned))
	if len(planned) == 0 {
		return existing, nil
	}
	marks := make([]string, len(planned))
	args := make([]any, len(planned))
	for i, t := range planned {
		marks[i] = "?"
		args[i] = t.Table.Name
	}
	rows, err := m.db.QueryContext(ctx,
		"SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name IN ("+strings.Join(marks, ", ")+")",
		args...)
	if err != nil {
		return nil, fmt.Errorf("querying information_schema: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		existing[name] = true
	}
	return existing, rows.Err()
}
