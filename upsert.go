package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pthm/docstore/internal/sqlgen"
	"github.com/pthm/docstore/pkg/backend"
	"github.com/pthm/docstore/schema"
)

// UpsertObject writes a root document and rebuilds its part and side rows,
// all in one transaction. The document is a registered Go struct (or a
// pointer to one) or a Document.
//
// Empty identifying fields are assigned first, recursively through parts.
// When doc is a pointer the assigned values are written back to it. The row
// id of the root row is returned.
func (s *Store) UpsertObject(ctx context.Context, doc any) (int64, error) {
	t, err := s.typeOf(doc)
	if err != nil {
		return 0, s.fail(err)
	}
	if t.IsPart() {
		return 0, s.fail(fmt.Errorf("%w: %s belongs to %s", ErrPartWrite, t.Name, t.Container))
	}
	if h, ok := doc.(BeforeSaver); ok {
		if err := h.BeforeSave(); err != nil {
			return 0, fmt.Errorf("before save: %w", err)
		}
	}

	tree, err := toTree(doc)
	if err != nil {
		return 0, err
	}
	res, err := s.write(ctx, t, tree)
	if err != nil {
		return 0, err
	}

	if res.assigned {
		if err := writeBack(doc, res); err != nil {
			return 0, err
		}
	}
	if h, ok := doc.(RowIDSetter); ok {
		h.SetRowID(res.rowID)
	}
	return res.rowID, nil
}

// UpsertObjects upserts each document in its own transaction and returns
// their row ids. It stops at the first failure; documents before it stay
// written.
func (s *Store) UpsertObjects(ctx context.Context, docs ...any) ([]int64, error) {
	ids := make([]int64, 0, len(docs))
	for i, doc := range docs {
		id, err := s.UpsertObject(ctx, doc)
		if err != nil {
			return ids, fmt.Errorf("document %d: %w", i, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// UpsertJSON upserts a JSON document of the named type and returns it with
// its assigned identifiers and row id.
func (s *Store) UpsertJSON(ctx context.Context, typeName string, data []byte) (Document, error) {
	tree, err := decodeJSON(data)
	if err != nil {
		return Document{}, err
	}
	obj, ok := tree.(map[string]any)
	if !ok {
		return Document{}, fmt.Errorf("%s document must be a JSON object", typeName)
	}
	doc := &Document{Type: typeName, Data: obj}
	id, err := s.UpsertObject(ctx, doc)
	if err != nil {
		return Document{}, err
	}
	doc.RowID = id
	return *doc, nil
}

type writeResult struct {
	rowID    int64
	tree     any
	payload  []byte
	assigned bool
}

func (s *Store) write(ctx context.Context, t *schema.Type, tree any) (writeResult, error) {
	tree, assigned, err := s.reg.AssignIdentifiers(t.Name, tree, s.idgen)
	if err != nil {
		return writeResult{}, err
	}
	payload, err := json.Marshal(tree)
	if err != nil {
		return writeResult{}, fmt.Errorf("encoding document: %w", err)
	}
	plan, err := cached(s.cache, "upsert|"+t.Name, func() (sqlgen.UpsertPlan, error) {
		return s.compiler.Upsert(t.Name)
	})
	if err != nil {
		return writeResult{}, s.fail(err)
	}

	res := writeResult{tree: tree, payload: payload, assigned: assigned}
	params := plan.PrimaryParams(string(payload), schema.Identifiers(t, tree))
	err = s.pool.WithCursor(ctx, true, func(cur *backend.Cursor) error {
		if _, err := cur.Execute(ctx, plan.Primary, params); err != nil {
			return err
		}
		recs, err := cur.FetchAll(ctx, plan.LastInsertID, nil)
		if err != nil {
			return err
		}
		if len(recs) != 1 {
			return fmt.Errorf("reading row id: %d rows", len(recs))
		}
		for _, v := range recs[0] {
			if res.rowID, err = rowID(v); err != nil {
				return err
			}
		}
		cascade := sqlgen.CascadeParams(res.rowID)
		for _, stmt := range plan.Cascade {
			if _, err := cur.Execute(ctx, stmt, cascade); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return writeResult{}, mapError("upserting "+t.Name, err)
	}
	s.logger.Debug("upserted", slog.String("type", t.Name), slog.Int64("row_id", res.rowID))
	return res, nil
}

// writeBack stores assigned identifiers in the caller's document.
func writeBack(doc any, res writeResult) error {
	switch d := doc.(type) {
	case *Document:
		obj, _ := res.tree.(map[string]any)
		d.Data = obj
		return nil
	case Document:
		return nil
	}
	if err := json.Unmarshal(res.payload, doc); err != nil {
		if _, ok := err.(*json.InvalidUnmarshalError); ok {
			return nil
		}
		return fmt.Errorf("writing back identifiers: %w", err)
	}
	return nil
}
