package store

import (
	"context"
	"errors"
	"time"

	"colasignal/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgAdapter wraps pg.PG behind the RowQuerier and TxRunner seams and emits
// query trace events when the pool carries a tracer
type pgAdapter struct {
	db *pg.PG
}

func newPGAdapter(p *pg.PG) *pgAdapter { return &pgAdapter{db: p} }

func (a *pgAdapter) Ping(ctx context.Context) error {
	if a == nil {
		return errors.New("pg: nil adapter")
	}
	var one int
	return a.QueryRow(ctx, "SELECT 1").Scan(&one)
}

func (a *pgAdapter) Close() error { a.db.Close(); return nil }

func (a *pgAdapter) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	began := time.Now()
	ct, err := a.db.Pool.Exec(ctx, sql, args...)
	a.trace(ctx, sql, args, began, err)
	return tag{ct: ct}, err
}

func (a *pgAdapter) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	began := time.Now()
	// traced on open; scan time is not included
	rs, err := a.db.Pool.Query(ctx, sql, args...)
	a.trace(ctx, sql, args, began, err)
	if err != nil {
		return nil, err
	}
	return rows{rs: rs}, nil
}

func (a *pgAdapter) QueryRow(ctx context.Context, sql string, args ...any) Row {
	began := time.Now()
	// the trace fires after Scan so it can carry the scan error
	return row{
		one: a.db.Pool.QueryRow(ctx, sql, args...),
		after: func(scanErr error) {
			a.trace(ctx, sql, args, began, scanErr)
		},
	}
}

func (a *pgAdapter) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	tx, err := a.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	q := txQuerier{
		tx:     tx,
		tracer: a.db.Tracer,
		slowUS: int64(a.db.SlowMs) * 1000,
	}
	if err := fn(q); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (a *pgAdapter) trace(ctx context.Context, sql string, args []any, began time.Time, err error) {
	if a == nil || a.db == nil || a.db.Tracer == nil {
		return
	}
	elapsedUS := time.Since(began).Microseconds()
	a.db.Tracer.OnQuery(ctx, pg.QueryEvent{
		SQL:       sql,
		Args:      args,
		ElapsedUS: elapsedUS,
		Err:       err,
		Slow:      a.db.SlowMs >= 0 && elapsedUS >= int64(a.db.SlowMs)*1000,
	})
}

// thin wrappers from pgx types to the store seams

type row struct {
	one   pgx.Row
	after func(error)
}

func (x row) Scan(dst ...any) error {
	err := x.one.Scan(dst...)
	if x.after != nil {
		x.after(err)
	}
	return err
}

type rows struct{ rs pgx.Rows }

func (x rows) Next() bool            { return x.rs.Next() }
func (x rows) Scan(dst ...any) error { return x.rs.Scan(dst...) }
func (x rows) Err() error            { return x.rs.Err() }
func (x rows) Close()                { x.rs.Close() }
func (x rows) Columns() []string {
	fields := x.rs.FieldDescriptions()
	names := make([]string, len(fields))
	for i := range fields {
		names[i] = string(fields[i].Name)
	}
	return names
}

type tag struct{ ct pgconn.CommandTag }

func (t tag) String() string      { return t.ct.String() }
func (t tag) RowsAffected() int64 { return t.ct.RowsAffected() }

// txQuerier satisfies RowQuerier over pgx.Tx, with the same tracing the
// pool-level adapter does so statements inside transactions stay visible
type txQuerier struct {
	tx     pgx.Tx
	tracer pg.QueryTracer
	slowUS int64
}

func (t txQuerier) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	began := time.Now()
	ct, err := t.tx.Exec(ctx, sql, args...)
	t.trace(ctx, sql, args, began, err)
	return tag{ct: ct}, err
}

func (t txQuerier) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	began := time.Now()
	rs, err := t.tx.Query(ctx, sql, args...)
	t.trace(ctx, sql, args, began, err)
	if err != nil {
		return nil, err
	}
	return rows{rs: rs}, nil
}

func (t txQuerier) QueryRow(ctx context.Context, sql string, args ...any) Row {
	began := time.Now()
	return row{
		one: t.tx.QueryRow(ctx, sql, args...),
		after: func(scanErr error) {
			t.trace(ctx, sql, args, began, scanErr)
		},
	}
}

func (t txQuerier) trace(ctx context.Context, sql string, args []any, began time.Time, err error) {
	if t.tracer == nil {
		return
	}
	elapsedUS := time.Since(began).Microseconds()
	t.tracer.OnQuery(ctx, pg.QueryEvent{
		SQL:       sql,
		Args:      args,
		ElapsedUS: elapsedUS,
		Err:       err,
		Slow:      t.slowUS >= 0 && elapsedUS >= t.slowUS,
	})
}
