package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"reflect"
	"slices"

	"github.com/pthm/docstore/internal/sqlgen"
	"github.com/pthm/docstore/pkg/backend"
	"github.com/pthm/docstore/schema"
)

// FindOption refines a read.
type FindOption func(*sqlgen.Query)

// Where filters on field = value. The field may be a dotted reference path
// such as "code.name".
func Where(field string, value any) FindOption {
	return WhereOp(field, "=", value)
}

// WhereOp filters with a comparison operator: =, !=, <>, <, <=, >, >= or
// LIKE.
func WhereOp(field, op string, value any) FindOption {
	return func(q *sqlgen.Query) {
		q.Where = append(q.Where, sqlgen.Condition{Field: field, Op: op, Value: value})
	}
}

// Match is a boolean-mode full-text filter over a comma separated list of
// full-text fields of one namespace. An empty field list searches every
// full-text field of the queried type.
func Match(fields, query string) FindOption {
	return WhereOp(fields, sqlgen.MatchOp, query)
}

// Conditions appends prebuilt conditions.
func Conditions(where ...sqlgen.Condition) FindOption {
	return func(q *sqlgen.Query) {
		q.Where = append(q.Where, where...)
	}
}

// OrderBy appends "<field> [asc|desc]" items. "__relevance desc" orders by
// full-text relevance.
func OrderBy(items ...string) FindOption {
	return func(q *sqlgen.Query) {
		q.OrderBy = append(q.OrderBy, items...)
	}
}

// Limit caps the number of rows. Zero means no limit.
func Limit(n int) FindOption {
	return func(q *sqlgen.Query) {
		q.Limit = n
	}
}

// Offset skips rows after ordering.
func Offset(n int) FindOption {
	return func(q *sqlgen.Query) {
		q.Offset = n
	}
}

// Join joins namespaces that no field or filter refers to.
func Join(namespaces ...string) FindOption {
	return func(q *sqlgen.Query) {
		q.Joins = append(q.Joins, namespaces...)
	}
}

// Fields selects output columns for QueryRecords.
func Fields(fields ...string) FindOption {
	return func(q *sqlgen.Query) {
		q.Fields = append(q.Fields, fields...)
	}
}

// NewQuery builds a query over the named type.
func NewQuery(typeName string, opts ...FindOption) sqlgen.Query {
	q := sqlgen.Query{Type: typeName}
	for _, opt := range opts {
		opt(&q)
	}
	return q
}

// QueryRecords runs a query and streams its rows. The sequence holds one
// connection until it ends or the caller stops ranging over it.
func (s *Store) QueryRecords(ctx context.Context, q sqlgen.Query) iter.Seq2[backend.Record, error] {
	return func(yield func(backend.Record, error) bool) {
		stmt, err := cached(s.cache, "read|"+q.Shape(), func() (sqlgen.Statement, error) {
			return s.compiler.Read(q)
		})
		if err != nil {
			yield(nil, s.fail(err))
			return
		}

		cur, err := s.pool.OpenCursor(ctx, false)
		if err != nil {
			yield(nil, err)
			return
		}
		defer func() { _ = cur.Close() }()

		if err := cur.Query(ctx, stmt.SQL, stmt.Bind(q.Where)); err != nil {
			yield(nil, mapError("querying "+q.Type, err))
			return
		}
		for {
			batch, err := cur.FetchMany(s.fetchSize)
			if err != nil {
				yield(nil, mapError("fetching "+q.Type, err))
				return
			}
			if len(batch) == 0 {
				return
			}
			for _, rec := range batch {
				if !yield(rec, nil) {
					return
				}
			}
		}
	}
}

// Records runs a query built from options and streams its rows.
func (s *Store) Records(ctx context.Context, typeName string, opts ...FindOption) iter.Seq2[backend.Record, error] {
	return s.QueryRecords(ctx, NewQuery(typeName, opts...))
}

// documentQuery selects the payload, the row id and every field computed
// from the container.
func documentQuery(t *schema.Type, opts []FindOption) sqlgen.Query {
	q := NewQuery(t.Name, opts...)
	q.Fields = []string{schema.JSONField, schema.RowIDField}
	for _, f := range ascendedFields(t) {
		q.Fields = append(q.Fields, f.Name)
	}
	return q
}

// FindDocuments streams the documents of the named type matching the
// options.
func (s *Store) FindDocuments(ctx context.Context, typeName string, opts ...FindOption) iter.Seq2[Document, error] {
	return func(yield func(Document, error) bool) {
		t, err := s.reg.Lookup(typeName)
		if err != nil {
			yield(Document{}, s.fail(err))
			return
		}
		for rec, err := range s.QueryRecords(ctx, documentQuery(t, opts)) {
			if err != nil {
				yield(Document{}, err)
				return
			}
			doc, err := decodeDocument(t, rec)
			if !yield(doc, err) || err != nil {
				return
			}
		}
	}
}

// FindDocument returns the single document matching the options. found is
// false when nothing matches; two or more matches are an error.
func (s *Store) FindDocument(ctx context.Context, typeName string, opts ...FindOption) (doc Document, found bool, err error) {
	var docs []Document
	for d, err := range s.FindDocuments(ctx, typeName, append(slices.Clip(opts), Limit(2))...) {
		if err != nil {
			return Document{}, false, err
		}
		docs = append(docs, d)
	}
	switch len(docs) {
	case 0:
		return Document{}, false, nil
	case 1:
		return docs[0], true, nil
	default:
		return Document{}, false, s.fail(&MultipleObjectsError{Type: typeName, RowIDs: []int64{docs[0].RowID, docs[1].RowID}})
	}
}

// FindObjects streams the documents of the registered Go type T matching
// the options. Loaded values get their row id and AfterLoad hooks called.
func FindObjects[T any](ctx context.Context, s *Store, opts ...FindOption) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		t, err := s.reg.TypeOf(reflect.TypeFor[T]())
		if err != nil {
			yield(zero, s.fail(err))
			return
		}
		for rec, err := range s.QueryRecords(ctx, documentQuery(t, opts)) {
			if err != nil {
				yield(zero, err)
				return
			}
			v, err := decodeObject[T](t, rec)
			if !yield(v, err) || err != nil {
				return
			}
		}
	}
}

// FindObject returns the single document of type T matching the options.
// found is false when nothing matches. Two or more matches return a
// *MultipleObjectsError naming the row ids.
func FindObject[T any](ctx context.Context, s *Store, opts ...FindOption) (obj T, found bool, err error) {
	t, err := s.reg.TypeOf(reflect.TypeFor[T]())
	if err != nil {
		return obj, false, s.fail(err)
	}
	var objs []T
	var ids []int64
	for rec, err := range s.QueryRecords(ctx, documentQuery(t, append(slices.Clip(opts), Limit(2)))) {
		if err != nil {
			return obj, false, err
		}
		v, err := decodeObject[T](t, rec)
		if err != nil {
			return obj, false, err
		}
		id, _ := rowID(rec[schema.RowIDField])
		objs = append(objs, v)
		ids = append(ids, id)
	}
	switch len(objs) {
	case 0:
		return obj, false, nil
	case 1:
		return objs[0], true, nil
	default:
		return obj, false, s.fail(&MultipleObjectsError{Type: t.Name, RowIDs: ids})
	}
}

func decodeDocument(t *schema.Type, rec backend.Record) (Document, error) {
	id, err := rowID(rec[schema.RowIDField])
	if err != nil {
		return Document{}, err
	}
	doc := Document{Type: t.Name, RowID: id, Data: map[string]any{}}
	if payload, ok := rec[schema.JSONField].(string); ok {
		tree, err := decodeJSON([]byte(payload))
		if err != nil {
			return Document{}, err
		}
		if obj, ok := tree.(map[string]any); ok {
			doc.Data = obj
		}
	}
	extra, err := ascendedValues(t, rec)
	if err != nil {
		return Document{}, err
	}
	for k, v := range extra {
		doc.Data[k] = v
	}
	return doc, nil
}

func decodeObject[T any](t *schema.Type, rec backend.Record) (T, error) {
	var v T
	payload, _ := rec[schema.JSONField].(string)
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return v, fmt.Errorf("decoding %s: %w", t.Name, err)
	}
	extra, err := ascendedValues(t, rec)
	if err != nil {
		return v, err
	}
	if len(extra) > 0 {
		data, err := json.Marshal(extra)
		if err != nil {
			return v, err
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return v, fmt.Errorf("decoding %s: %w", t.Name, err)
		}
	}

	id, err := rowID(rec[schema.RowIDField])
	if err != nil {
		return v, err
	}
	if h, ok := any(&v).(RowIDSetter); ok {
		h.SetRowID(id)
	}
	if h, ok := any(&v).(AfterLoader); ok {
		if err := h.AfterLoad(); err != nil {
			return v, fmt.Errorf("after load: %w", err)
		}
	}
	return v, nil
}

// ascendedValues collects the container-derived field values of a record,
// keyed by JSON member name.
func ascendedValues(t *schema.Type, rec backend.Record) (map[string]any, error) {
	out := make(map[string]any)
	for _, f := range ascendedFields(t) {
		raw, ok := rec[f.Name]
		if !ok || raw == nil {
			continue
		}
		v, err := columnValue(f, raw)
		if err != nil {
			return nil, err
		}
		out[f.Name] = v
	}
	return out, nil
}
