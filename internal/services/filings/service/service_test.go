package service

import (
	"context"
	"testing"
	"time"

	"colasignal/internal/modkit/repokit"
	"colasignal/internal/services/filings/domain"
	"colasignal/internal/services/filings/repo"
)

// fakeTx satisfies repokit.TxRunner without a database
type fakeTx struct{ calls int }

func (f *fakeTx) Tx(ctx context.Context, fn func(q repokit.Queryer) error) error {
	f.calls++
	return fn(f)
}

func (f *fakeTx) Exec(ctx context.Context, sql string, args ...any) (repokit.CommandTag, error) {
	var z repokit.CommandTag
	return z, nil
}

func (f *fakeTx) Query(ctx context.Context, sql string, args ...any) (repokit.Rows, error) {
	return nil, nil
}

func (f *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) repokit.Row {
	return nil
}

// fakeStorage records the limits it was asked for
type fakeStorage struct {
	gotLimit int
	rows     []domain.Filing
	written  []domain.Classified
}

func (f *fakeStorage) ListUnclassified(ctx context.Context, limit int) ([]domain.Filing, error) {
	f.gotLimit = limit
	return f.rows, nil
}

func (f *fakeStorage) ListByEntity(
	ctx context.Context, entityID int64, after domain.AfterKey, limit int,
) ([]domain.Filing, domain.AfterKey, error) {
	f.gotLimit = limit
	var next domain.AfterKey
	if n := len(f.rows); n > 0 {
		last := f.rows[n-1]
		next = domain.AfterKey{ApprovalDate: *last.ApprovalDate, TTBID: last.TTBID}
	}
	return f.rows, next, nil
}

func (f *fakeStorage) ListEntityIDs(ctx context.Context) ([]int64, error) { return []int64{1, 2}, nil }
func (f *fakeStorage) SetEntity(ctx context.Context, ttbID string, entityID int64) error {
	return nil
}

func (f *fakeStorage) SetDeferred(ctx context.Context, ttbID string, d domain.Deferral) error {
	return nil
}

func (f *fakeStorage) WriteSignals(ctx context.Context, rows []domain.Classified) error {
	f.written = append(f.written, rows...)
	return nil
}
func (f *fakeStorage) ClearDeferred(ctx context.Context, entityID int64) error { return nil }

type fakeBinder struct{ st *fakeStorage }

func (b fakeBinder) Bind(_ repokit.Queryer) repo.Storage { return b.st }

func TestService_CapsLimits(t *testing.T) {
	t.Parallel()

	st := &fakeStorage{}
	svc := New(&fakeTx{}, fakeBinder{st: st}, Config{HardLimit: 100})

	if _, err := svc.ListUnclassified(context.Background(), 0); err != nil {
		t.Fatalf("ListUnclassified: %v", err)
	}
	if st.gotLimit != 100 {
		t.Fatalf("zero limit should use hard cap, got %d", st.gotLimit)
	}

	if _, err := svc.ListUnclassified(context.Background(), 9999); err != nil {
		t.Fatalf("ListUnclassified: %v", err)
	}
	if st.gotLimit != 100 {
		t.Fatalf("oversized limit should be capped, got %d", st.gotLimit)
	}

	if _, err := svc.ListUnclassified(context.Background(), 7); err != nil {
		t.Fatalf("ListUnclassified: %v", err)
	}
	if st.gotLimit != 7 {
		t.Fatalf("in-range limit should pass through, got %d", st.gotLimit)
	}
}

func TestService_ListByEntity_NextKey(t *testing.T) {
	t.Parallel()

	d1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	st := &fakeStorage{rows: []domain.Filing{
		{TTBID: "24001000000101", ApprovalDate: &d1},
		{TTBID: "24064000000204", ApprovalDate: &d2},
	}}
	svc := New(&fakeTx{}, fakeBinder{st: st}, Config{})

	rows, next, err := svc.ListByEntity(context.Background(), 1, domain.AfterKey{}, 10)
	if err != nil {
		t.Fatalf("ListByEntity: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if next.TTBID != "24064000000204" || !next.ApprovalDate.Equal(d2) {
		t.Fatalf("next key = %+v", next)
	}
}

func TestService_WriteSignals_EmptySkipsTx(t *testing.T) {
	t.Parallel()

	tx := &fakeTx{}
	svc := New(tx, fakeBinder{st: &fakeStorage{}}, Config{})

	if err := svc.WriteSignals(context.Background(), nil); err != nil {
		t.Fatalf("WriteSignals: %v", err)
	}
	if tx.calls != 0 {
		t.Fatalf("empty write should not open a transaction, got %d", tx.calls)
	}
}
