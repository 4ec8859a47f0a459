package service

// The batch replay is the oracle: draining filings incrementally in arrival
// order must assign exactly the signals a full from-scratch replay assigns.

import (
	"context"
	"testing"

	"colasignal/internal/core/classify"
	"colasignal/internal/modkit/repokit"
	fdom "colasignal/internal/services/filings/domain"
	recdom "colasignal/internal/services/reclassify/domain"
	stagerepo "colasignal/internal/services/reclassify/repo"
	batchsvc "colasignal/internal/services/reclassify/service"
)

// stageSink collects staged rows; diffing and swapping are covered by the
// reclassify service tests
type stageSink struct {
	staged  map[string]fdom.Classified
	applied bool
}

func newStageSink() *stageSink { return &stageSink{staged: map[string]fdom.Classified{}} }

func (s *stageSink) StageBatch(ctx context.Context, runID string, xs []fdom.Classified) error {
	for _, x := range xs {
		if _, ok := s.staged[x.TTBID]; !ok {
			s.staged[x.TTBID] = x
		}
	}
	return nil
}

func (s *stageSink) Diff(
	ctx context.Context, runID string, sampleLimit int,
) (changed, unchanged, firstTime int64, sample []recdom.Diff, err error) {
	return 0, 0, 0, nil, nil
}

func (s *stageSink) Apply(ctx context.Context, runID string, entityIDs []int64) error {
	s.applied = true
	return nil
}

func (s *stageSink) DirtyEntities(ctx context.Context) ([]int64, error) { return nil, nil }

func (s *stageSink) DropStage(ctx context.Context, runID string) error { return nil }

type stageSinkBinder struct{ s *stageSink }

func (b stageSinkBinder) Bind(_ repokit.Queryer) stagerepo.Storage { return b.s }

func newBatchRunner(f *memFilings, st *stageSink) *batchsvc.Service {
	return batchsvc.New(
		fakeTx{}, stageSinkBinder{s: st}, memFilingsBinder{m: f}, f, &fakeLedger{},
		batchsvc.Config{},
	)
}

func TestIncrementalPrefixMatchesBatchReplay(t *testing.T) {
	t.Parallel()

	all := acmeFilings()
	all = append(all, fdom.Filing{TTBID: "24110000000008", CompanyNameRaw: "Miller Brewing Co",
		BrandName: "High Life", ClassTypeCode: "901", ApprovalDate: date(2024, 5, 1)})

	f := newMemFilings()
	st := newMemState()
	svc, _ := newUpdater(f, st, &fakeLedger{}, Config{})

	// two incremental passes over an in-order arrival split
	for _, x := range all[:2] {
		f.add(x)
	}
	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	for _, x := range all[2:] {
		f.add(x)
	}
	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if len(f.signals) != len(all) {
		t.Fatalf("incremental passes classified %d of %d rows", len(f.signals), len(all))
	}

	// one batch replay over the same rows
	sink := newStageSink()
	batch := newBatchRunner(f, sink)
	if _, err := batch.Run(context.Background(), recdom.Input{DryRun: true}); err != nil {
		t.Fatalf("batch replay: %v", err)
	}

	if len(sink.staged) != len(f.signals) {
		t.Fatalf("replay staged %d rows, incremental classified %d", len(sink.staged), len(f.signals))
	}
	for ttb, inc := range f.signals {
		rep, ok := sink.staged[ttb]
		if !ok {
			t.Fatalf("filing %s classified incrementally but never staged", ttb)
		}
		if rep.Signal != inc.Signal || rep.RefileCount != inc.RefileCount {
			t.Fatalf("filing %s diverged: incremental %s/%d, replay %s/%d",
				ttb, inc.Signal, inc.RefileCount, rep.Signal, rep.RefileCount)
		}
	}
}

func TestBatchReplayPicksUpParkedFiling(t *testing.T) {
	t.Parallel()

	f := newMemFilings()
	for _, x := range acmeFilings() {
		f.add(x)
	}
	st := newMemState()
	svc, _ := newUpdater(f, st, &fakeLedger{}, Config{})

	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("first pass: %v", err)
	}

	// arrives behind the watermark: the updater parks it for the next replay
	f.add(fdom.Filing{TTBID: "24046000000005", CompanyNameRaw: "Acme Distillery LLC",
		BrandName: "Old Tom", ClassTypeCode: "901", ApprovalDate: date(2024, 2, 15)})
	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if f.rows["24046000000005"].Deferred != fdom.DeferralBackdated {
		t.Fatalf("filing not parked: %v", f.rows["24046000000005"].Deferred)
	}

	sink := newStageSink()
	batch := newBatchRunner(f, sink)
	if _, err := batch.Run(context.Background(), recdom.Input{Apply: true}); err != nil {
		t.Fatalf("batch replay: %v", err)
	}

	// the parked row folds in at its true position: third repeat of the
	// first SKU
	got, ok := sink.staged["24046000000005"]
	if !ok {
		t.Fatalf("parked filing invisible to the replay")
	}
	if got.Signal != classify.SignalRefile || got.RefileCount != 2 {
		t.Fatalf("parked filing = %s count %d, want refile count 2", got.Signal, got.RefileCount)
	}
	if !sink.applied {
		t.Fatalf("apply run did not swap the stage")
	}
	if f.rows["24046000000005"].Deferred != fdom.DeferralNone {
		t.Fatalf("deferral not cleared after apply: %v", f.rows["24046000000005"].Deferred)
	}
}
