package docstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pthm/docstore/internal/sqlgen"
	"github.com/pthm/docstore/pkg/backend"
	"github.com/pthm/docstore/schema"
)

// Delete removes the root rows of the named type matching every condition
// and returns the number removed. Conditions name plain fields of the type.
//
// Part and side rows of deleted roots are not removed; PurgeOrphans does
// that.
func (s *Store) Delete(ctx context.Context, typeName string, where ...sqlgen.Condition) (int64, error) {
	t, err := s.reg.Lookup(typeName)
	if err != nil {
		return 0, s.fail(err)
	}
	if t.IsPart() {
		return 0, s.fail(fmt.Errorf("%w: delete %s through %s", ErrPartWrite, t.Name, t.Container))
	}

	shape := make([]string, len(where))
	for i, w := range where {
		shape[i] = w.Field + " " + strings.ToLower(w.Op)
	}
	stmt, err := cached(s.cache, "delete|"+t.Name+"|"+strings.Join(shape, "|"), func() (sqlgen.Statement, error) {
		return s.compiler.Delete(t.Name, where)
	})
	if err != nil {
		return 0, s.fail(err)
	}

	var n int64
	err = s.pool.WithCursor(ctx, true, func(cur *backend.Cursor) error {
		res, err := cur.Execute(ctx, stmt.SQL, stmt.Bind(where))
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, mapError("deleting "+t.Name, err)
	}
	s.logger.Debug("deleted", slog.String("type", t.Name), slog.Int64("rows", n))
	return n, nil
}

// DeleteObjects removes the root rows of the named type matching the
// options' filters. Ordering, paging and joins are not supported by deletes
// and are ignored.
func (s *Store) DeleteObjects(ctx context.Context, typeName string, opts ...FindOption) (int64, error) {
	return s.Delete(ctx, typeName, NewQuery(typeName, opts...).Where...)
}

// DeleteObject removes the row of a document, identified by IdentifierWhere.
func (s *Store) DeleteObject(ctx context.Context, doc any) (int64, error) {
	t, err := s.typeOf(doc)
	if err != nil {
		return 0, s.fail(err)
	}
	where, err := s.IdentifierWhere(doc)
	if err != nil {
		return 0, err
	}
	return s.Delete(ctx, t.Name, where...)
}

// IdentifierWhere builds equality conditions that select a document: all of
// its identifying fields, which must be set. Types without identifying
// fields fall back to their set unique fields, each of which selects at most
// one row on its own.
func (s *Store) IdentifierWhere(doc any) ([]sqlgen.Condition, error) {
	t, err := s.typeOf(doc)
	if err != nil {
		return nil, s.fail(err)
	}
	tree, err := toTree(doc)
	if err != nil {
		return nil, err
	}
	obj, _ := tree.(map[string]any)

	value := func(f schema.Field) (any, bool) {
		v, ok := obj[strings.TrimPrefix(f.Path[0], "$.")]
		return v, ok && v != nil && v != ""
	}

	var where []sqlgen.Condition
	if ids := t.FieldsWith(schema.Identifying); len(ids) > 0 {
		for _, f := range ids {
			v, ok := value(f)
			if !ok {
				return nil, fmt.Errorf("%w: %s.%s is empty", ErrNoIdentifiers, t.Name, f.Name)
			}
			where = append(where, sqlgen.Condition{Field: f.Name, Op: "=", Value: v})
		}
		return where, nil
	}

	for _, f := range t.FieldsWith(schema.Unique) {
		if f.Ascends() || f.IsArray() {
			continue
		}
		if v, ok := value(f); ok {
			where = append(where, sqlgen.Condition{Field: f.Name, Op: "=", Value: v})
		}
	}
	if len(where) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoIdentifiers, t.Name)
	}
	return where, nil
}
