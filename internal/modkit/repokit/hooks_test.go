package repokit

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"colasignal/internal/platform/store"
)

// loggingQ records every statement it sees
type loggingQ struct {
	sqls []string
	args [][]any
}

func (q *loggingQ) record(sql string, args []any) {
	q.sqls = append(q.sqls, sql)
	q.args = append(q.args, append([]any(nil), args...))
}

func (q *loggingQ) Exec(_ context.Context, sql string, args ...any) (store.CommandTag, error) {
	q.record(sql, args)
	var z store.CommandTag
	return z, nil
}

func (q *loggingQ) Query(_ context.Context, sql string, args ...any) (store.Rows, error) {
	q.record(sql, args)
	var z store.Rows
	return z, nil
}

func (q *loggingQ) QueryRow(_ context.Context, sql string, args ...any) store.Row {
	q.record(sql, args)
	var z store.Row
	return z
}

// passTx hands its Queryer straight to fn
type passTx struct {
	q       *loggingQ
	txCalls int
}

func (p *passTx) Tx(_ context.Context, fn func(q Queryer) error) error {
	p.txCalls++
	return fn(p.q)
}

func (p *passTx) Exec(ctx context.Context, sql string, args ...any) (store.CommandTag, error) {
	return p.q.Exec(ctx, sql, args...)
}

func (p *passTx) Query(ctx context.Context, sql string, args ...any) (store.Rows, error) {
	return p.q.Query(ctx, sql, args...)
}

func (p *passTx) QueryRow(ctx context.Context, sql string, args ...any) store.Row {
	return p.q.QueryRow(ctx, sql, args...)
}

func TestWithBeginHooks_HooksRunBeforeFnInsideTx(t *testing.T) {
	t.Parallel()

	q := &loggingQ{}
	inner := &passTx{q: q}

	sessionHook := func(ctx context.Context, hq Queryer) error {
		_, err := hq.Exec(ctx, `SET LOCAL synchronous_commit TO off`)
		return err
	}

	runner := WithBeginHooks(inner, sessionHook)
	err := runner.Tx(context.Background(), func(fq Queryer) error {
		_, err := fq.Exec(context.Background(), `INSERT INTO stage_signals (run_id, ttb_id) VALUES ($1, $2)`, "r1", "24001001000101")
		return err
	})
	if err != nil {
		t.Fatalf("Tx: %v", err)
	}
	if inner.txCalls != 1 {
		t.Fatalf("inner Tx calls = %d, want 1", inner.txCalls)
	}

	want := []string{
		`SET LOCAL synchronous_commit TO off`,
		`INSERT INTO stage_signals (run_id, ttb_id) VALUES ($1, $2)`,
	}
	if !reflect.DeepEqual(q.sqls, want) {
		t.Fatalf("statement order wrong: %v", q.sqls)
	}
}

func TestWithBeginHooks_HookErrorAbortsBeforeFn(t *testing.T) {
	t.Parallel()

	q := &loggingQ{}
	inner := &passTx{q: q}
	boom := errors.New("boom")

	runner := WithBeginHooks(inner,
		func(context.Context, Queryer) error { return boom },
		func(context.Context, Queryer) error {
			t.Fatal("second hook should not run after the first fails")
			return nil
		},
	)

	fnRan := false
	err := runner.Tx(context.Background(), func(Queryer) error { fnRan = true; return nil })
	if !errors.Is(err, boom) {
		t.Fatalf("hook error should propagate, got %v", err)
	}
	if fnRan {
		t.Fatal("fn should not run when a hook fails")
	}
}

func TestWithBeginHooks_NonTxCallsDelegate(t *testing.T) {
	t.Parallel()

	q := &loggingQ{}
	runner := WithBeginHooks(&passTx{q: q})
	ctx := context.Background()

	if _, err := runner.Exec(ctx, `DELETE FROM stage_signals WHERE run_id = $1`, "r1"); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if _, err := runner.Query(ctx, `SELECT ttb_id FROM stage_signals`); err != nil {
		t.Fatalf("Query: %v", err)
	}
	_ = runner.QueryRow(ctx, `SELECT count(*) FROM stage_signals`)

	if len(q.sqls) != 3 {
		t.Fatalf("want 3 delegated statements, got %v", q.sqls)
	}
	if !reflect.DeepEqual(q.args[0], []any{"r1"}) {
		t.Fatalf("Exec args not forwarded: %v", q.args[0])
	}
}
