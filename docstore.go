// Package docstore stores typed JSON documents in MariaDB and reads them
// back through generated relational projections.
//
// # Documents
//
// A document type declares which JSON fields are projected into columns
// and how they are indexed. Types are registered in a schema.Registry, either
// by hand or from Go structs:
//
//	type Shelf struct {
//	    ID    string `json:"id,omitempty" docstore:"id"`
//	    Name  string `json:"name" docstore:"index,fulltext"`
//	    Books []Book `json:"books"`
//	}
//
//	type Book struct {
//	    _     struct{} `docstore:"partof=Shelf"`
//	    Title string   `json:"title" docstore:"fulltext"`
//	}
//
//	reg := schema.NewRegistry()
//	err := reg.RegisterStructs(&Shelf{})
//
// Every root document is a row of its primary table holding the full JSON
// payload plus generated columns. Parts (Book above) are rows of a part
// table rebuilt on every upsert of their root, and are read through a view.
// Array fields marked "array" get a side table with one row per element.
//
// # Usage
//
//	store := docstore.New(db, reg)
//	err := store.CreateTables(ctx)
//	id, err := store.UpsertObject(ctx, &Shelf{Name: "fiction"})
//
//	shelf, found, err := docstore.FindObject[Shelf](ctx, store, docstore.Where("name", "fiction"))
//	for book, err := range docstore.FindObjects[Book](ctx, store, docstore.Match("title", "+dune")) {
//	    ...
//	}
//
// Each upsert runs in its own transaction covering the root row and every
// part and side row derived from it. Reads stream rows in batches of the
// configured fetch size and hold one connection until the sequence ends.
package docstore

import (
	"database/sql"
	"io"
	"log/slog"

	"github.com/pthm/docstore/internal/sqlgen"
	"github.com/pthm/docstore/pkg/backend"
	"github.com/pthm/docstore/schema"
)

// DefaultFetchSize is the number of rows fetched per round trip by
// FindObjects and QueryRecords.
const DefaultFetchSize = 100

// Store reads and writes documents of the types of one registry.
// It is safe for concurrent use.
type Store struct {
	pool      *backend.Pool
	reg       *schema.Registry
	compiler  *sqlgen.Compiler
	cfg       sqlgen.Config
	cache     Cache
	fetchSize int
	idgen     schema.IDGenerator
	logger    *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithTablePrefix sets the prefix of every generated relation name.
// The default is "model_".
func WithTablePrefix(prefix string) Option {
	return func(s *Store) {
		s.cfg.TablePrefix = prefix
	}
}

// WithEngine appends a table option such as "ENGINE=Mroonga" to every
// CREATE TABLE.
func WithEngine(engine string) Option {
	return func(s *Store) {
		s.cfg.Engine = engine
	}
}

// WithFullTextParser sets the parser named in the comment of full-text
// indexes.
func WithFullTextParser(parser string) Option {
	return func(s *Store) {
		s.cfg.FullTextParser = parser
	}
}

// WithFetchSize sets the batch size of streaming reads.
func WithFetchSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.fetchSize = n
		}
	}
}

// WithLogger sets the logger. Statements are logged at Debug level and
// schema, write-policy and cardinality errors at Error level.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCache replaces the in-memory statement cache. A nil cache disables
// caching.
func WithCache(c Cache) Option {
	return func(s *Store) {
		s.cache = c
	}
}

// WithIDGenerator sets the generator for empty identifying fields.
func WithIDGenerator(gen schema.IDGenerator) Option {
	return func(s *Store) {
		if gen != nil {
			s.idgen = gen
		}
	}
}

// New creates a store over an open database handle.
func New(db *sql.DB, reg *schema.Registry, opts ...Option) *Store {
	s := &Store{
		reg:       reg,
		cache:     NewCache(),
		fetchSize: DefaultFetchSize,
		idgen:     schema.NewID,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cfg.Logger = s.logger
	s.compiler = sqlgen.New(reg, s.cfg)
	s.cfg = s.compiler.Config()
	s.pool = backend.New(db, backend.WithLogger(s.logger))
	return s
}

// Registry returns the registry the store was created with.
func (s *Store) Registry() *schema.Registry {
	return s.reg
}

// Compiler returns the SQL compiler.
func (s *Store) Compiler() *sqlgen.Compiler {
	return s.compiler
}

// Pool returns the execution backend.
func (s *Store) Pool() *backend.Pool {
	return s.pool
}

// fail logs a non-retryable error and returns it.
func (s *Store) fail(err error) error {
	s.logger.Error("docstore", slog.Any("error", err))
	return err
}

// typeNames returns the given names, or every registered type when none
// are given.
func (s *Store) typeNames(names []string) []string {
	if len(names) > 0 {
		return names
	}
	types := s.reg.Types()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.Name
	}
	return out
}
