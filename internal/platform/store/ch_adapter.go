package store

import (
	"context"
	"errors"

	"colasignal/internal/platform/store/ch"
)

// newCHAdapter wraps *ch.CH behind the store.Clickhouse seam
func newCHAdapter(c *ch.CH) Clickhouse {
	return &clickhouseAdapter{ch: c}
}

type clickhouseAdapter struct {
	ch *ch.CH
}

var _ Clickhouse = (*clickhouseAdapter)(nil)

// Insert accepts batched rows as [][]any, one inner slice per row
func (a *clickhouseAdapter) Insert(ctx context.Context, table string, data any) error {
	batch, ok := data.([][]any)
	if !ok {
		return errors.New("store: unsupported CH insert shape (want [][]any)")
	}
	return a.ch.Insert(ctx, table, batch)
}

func (a *clickhouseAdapter) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	rs, err := a.ch.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return &rowsAdapter{rs: rs}, nil
}

func (a *clickhouseAdapter) Close() error { return a.ch.Close() }

// Ping verifies connectivity by round-tripping a constant
func (a *clickhouseAdapter) Ping(ctx context.Context) (err error) {
	if a == nil || a.ch == nil {
		return errors.New("store: nil clickhouse adapter")
	}

	// bare SELECT 1 comes back as UInt8, cast so the scan target is fixed
	rs, err := a.ch.Query(ctx, "SELECT toInt32(1)")
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rs.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	if !rs.Next() {
		return errors.New("store: ch ping returned no rows")
	}
	var one int32
	if scanErr := rs.Scan(&one); scanErr != nil {
		return scanErr
	}
	return rs.Err()
}

// rowsAdapter exposes ch.Rows as store.Rows; the only mismatch is that
// ch.Rows.Close returns an error and the store seam swallows it
type rowsAdapter struct {
	rs ch.Rows
}

func (r *rowsAdapter) Next() bool             { return r.rs.Next() }
func (r *rowsAdapter) Scan(dest ...any) error { return r.rs.Scan(dest...) }
func (r *rowsAdapter) Err() error             { return r.rs.Err() }
func (r *rowsAdapter) Close()                 { _ = r.rs.Close() }
func (r *rowsAdapter) Columns() []string      { return r.rs.Columns() }
