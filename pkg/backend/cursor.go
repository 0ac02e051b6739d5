package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

// Record is one result row keyed by column name.
type Record map[string]any

// ErrCursorClosed is returned by operations on a closed cursor.
var ErrCursorClosed = errors.New("docstore/backend: cursor closed")

// Cursor runs statements on a single connection. It is not safe for
// concurrent use.
type Cursor struct {
	conn   *sql.Conn
	tx     *sql.Tx
	exec   Execer
	rows   *sql.Rows
	cols   []string
	logger *slog.Logger
	closed bool
}

// Writable reports whether the cursor runs inside a transaction.
func (c *Cursor) Writable() bool {
	return c.tx != nil
}

// Execute runs a statement that returns no rows. Any open result set is
// closed first.
func (c *Cursor) Execute(ctx context.Context, query string, params map[string]any) (sql.Result, error) {
	if c.closed {
		return nil, ErrCursorClosed
	}
	if err := c.closeRows(); err != nil {
		return nil, err
	}
	stmt, args, err := Bind(query, params)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("execute", slog.String("sql", query), slog.Any("params", params))
	res, err := c.exec.ExecContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("executing statement: %w", err)
	}
	return res, nil
}

// Query runs a statement and keeps its result set open for FetchMany.
func (c *Cursor) Query(ctx context.Context, query string, params map[string]any) error {
	if c.closed {
		return ErrCursorClosed
	}
	if err := c.closeRows(); err != nil {
		return err
	}
	stmt, args, err := Bind(query, params)
	if err != nil {
		return err
	}
	c.logger.Debug("query", slog.String("sql", query), slog.Any("params", params))
	rows, err := c.exec.QueryContext(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("querying: %w", err)
	}
	cols, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return fmt.Errorf("reading columns: %w", err)
	}
	c.rows = rows
	c.cols = cols
	return nil
}

// FetchMany returns up to n rows of the open result set. An empty batch
// means the result set is exhausted. A non-positive n fetches every
// remaining row.
func (c *Cursor) FetchMany(n int) ([]Record, error) {
	if c.closed {
		return nil, ErrCursorClosed
	}
	if c.rows == nil {
		return nil, nil
	}
	var out []Record
	for n <= 0 || len(out) < n {
		if !c.rows.Next() {
			err := c.rows.Err()
			if cerr := c.closeRows(); err == nil {
				err = cerr
			}
			if err != nil {
				return out, fmt.Errorf("fetching rows: %w", err)
			}
			break
		}
		rec, err := c.scan()
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// FetchAll runs a query and returns every row.
func (c *Cursor) FetchAll(ctx context.Context, query string, params map[string]any) ([]Record, error) {
	if err := c.Query(ctx, query, params); err != nil {
		return nil, err
	}
	return c.FetchMany(0)
}

// Commit commits a write cursor. It is a no-op for read cursors and after
// the first call.
func (c *Cursor) Commit() error {
	if c.closed {
		return ErrCursorClosed
	}
	if err := c.closeRows(); err != nil {
		return err
	}
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	c.exec = c.conn
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

// Close rolls back an uncommitted transaction and releases the connection.
func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	err := c.closeRows()
	if c.tx != nil {
		if rerr := c.tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) && err == nil {
			err = fmt.Errorf("rolling back: %w", rerr)
		}
		c.tx = nil
	}
	if cerr := c.conn.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func (c *Cursor) scan() (Record, error) {
	values := make([]any, len(c.cols))
	ptrs := make([]any, len(c.cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := c.rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scanning row: %w", err)
	}
	rec := make(Record, len(c.cols))
	for i, col := range c.cols {
		if b, ok := values[i].([]byte); ok {
			rec[col] = string(b)
			continue
		}
		rec[col] = values[i]
	}
	return rec, nil
}

func (c *Cursor) closeRows() error {
	if c.rows == nil {
		return nil
	}
	err := c.rows.Close()
	c.rows = nil
	c.cols = nil
	return err
}
