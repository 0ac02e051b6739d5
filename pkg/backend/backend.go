// Package backend executes generated SQL against MariaDB.
//
// Statements use named placeholders of the form %(NAME)s. A Cursor binds them
// to positional driver arguments, runs the statement on one connection and
// returns result rows in caller-sized batches. A cursor opened for writing
// runs inside a transaction that commits only when the unit of work
// succeeds.
//
//	pool := backend.New(db)
//	err := pool.WithCursor(ctx, true, func(cur *backend.Cursor) error {
//	    _, err := cur.Execute(ctx, stmt, params)
//	    return err
//	})
package backend

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-sql-driver/mysql"
)

// DriverName is the database/sql driver used by Open.
const DriverName = "mysql"

// Execer is the subset of *sql.Conn and *sql.Tx a cursor needs.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Pool hands out cursors over a shared connection pool.
type Pool struct {
	db     *sql.DB
	logger *slog.Logger
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger logs every executed statement at Debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New wraps an open database handle.
func New(db *sql.DB, opts ...Option) *Pool {
	p := &Pool{
		db:     db,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Open connects to the database described by cfg and verifies the
// connection.
func Open(ctx context.Context, cfg *mysql.Config, opts ...Option) (*Pool, error) {
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connector: %w", err)
	}
	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to %s/%s: %w", cfg.Addr, cfg.DBName, err)
	}
	return New(db, opts...), nil
}

// Config returns a driver configuration for a TCP connection.
func Config(host string, port int, name, user, password string, params map[string]string) *mysql.Config {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", host, port)
	cfg.DBName = name
	cfg.User = user
	cfg.Passwd = password
	if len(params) > 0 {
		cfg.Params = make(map[string]string, len(params))
		for k, v := range params {
			cfg.Params[k] = v
		}
	}
	return cfg
}

// ParseDSN parses a driver DSN such as "user:pass@tcp(host:3306)/db".
func ParseDSN(dsn string) (*mysql.Config, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing dsn: %w", err)
	}
	return cfg, nil
}

// DB returns the underlying handle.
func (p *Pool) DB() *sql.DB {
	return p.db
}

// Logger returns the statement logger.
func (p *Pool) Logger() *slog.Logger {
	return p.logger
}

// Close closes the underlying handle.
func (p *Pool) Close() error {
	return p.db.Close()
}

// OpenCursor acquires a connection. A write cursor also begins a
// transaction. The caller must Close the cursor.
func (p *Pool) OpenCursor(ctx context.Context, write bool) (*Cursor, error) {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection: %w", err)
	}
	cur := &Cursor{conn: conn, exec: conn, logger: p.logger}
	if write {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("starting transaction: %w", err)
		}
		cur.tx = tx
		cur.exec = tx
	}
	return cur, nil
}

// WithCursor runs fn with a fresh cursor. A write cursor commits when fn
// returns nil and rolls back otherwise. The cursor is closed on every path.
func (p *Pool) WithCursor(ctx context.Context, write bool, fn func(*Cursor) error) (err error) {
	cur, err := p.OpenCursor(ctx, write)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := cur.Close(); err == nil {
			err = cerr
		}
	}()
	if err := fn(cur); err != nil {
		return err
	}
	return cur.Commit()
}
