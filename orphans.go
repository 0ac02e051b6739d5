package docstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pthm/docstore/internal/sqlgen"
	"github.com/pthm/docstore/pkg/backend"
)

// OrphanCount is the number of part or side rows of one table whose root
// row no longer exists.
type OrphanCount struct {
	Table sqlgen.Table
	Root  string
	Rows  int64
}

// CountOrphans counts orphaned rows in every part and side table of the
// given types, or of every registered type.
func (s *Store) CountOrphans(ctx context.Context, typeNames ...string) ([]OrphanCount, error) {
	checks, err := s.compiler.Orphans(s.typeNames(typeNames)...)
	if err != nil {
		return nil, s.fail(err)
	}
	out := make([]OrphanCount, 0, len(checks))
	err = s.pool.WithCursor(ctx, false, func(cur *backend.Cursor) error {
		for _, c := range checks {
			recs, err := cur.FetchAll(ctx, c.Count, nil)
			if err != nil {
				return err
			}
			if len(recs) != 1 {
				return fmt.Errorf("counting %s: %d rows", c.Table.Name, len(recs))
			}
			oc := OrphanCount{Table: c.Table, Root: c.Root}
			for _, v := range recs[0] {
				if oc.Rows, err = rowID(v); err != nil {
					return err
				}
			}
			out = append(out, oc)
		}
		return nil
	})
	if err != nil {
		return nil, mapError("counting orphans", err)
	}
	return out, nil
}

// PurgeOrphans deletes part and side rows whose root row no longer exists,
// in one transaction, and returns the number of rows deleted per table.
func (s *Store) PurgeOrphans(ctx context.Context, typeNames ...string) (map[string]int64, error) {
	checks, err := s.compiler.Orphans(s.typeNames(typeNames)...)
	if err != nil {
		return nil, s.fail(err)
	}
	purged := make(map[string]int64, len(checks))
	err = s.pool.WithCursor(ctx, true, func(cur *backend.Cursor) error {
		for _, c := range checks {
			res, err := cur.Execute(ctx, c.Purge, nil)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			purged[c.Table.Name] = n
		}
		return nil
	})
	if err != nil {
		return nil, mapError("purging orphans", err)
	}
	for table, n := range purged {
		if n > 0 {
			s.logger.Info("purged orphans", slog.String("table", table), slog.Int64("rows", n))
		}
	}
	return purged, nil
}
