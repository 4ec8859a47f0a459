// Package service implements the batch reclassifier
package service

import (
	"context"
	"sort"
	"sync"

	"colasignal/internal/core/classify"
	"colasignal/internal/core/fingerprint"
	"colasignal/internal/core/normalize"
	"colasignal/internal/core/version"
	"colasignal/internal/modkit/repokit"
	"colasignal/internal/platform/logger"
	"colasignal/internal/platform/store"
	auditdom "colasignal/internal/services/audit/domain"
	fdom "colasignal/internal/services/filings/domain"
	frepo "colasignal/internal/services/filings/repo"
	"colasignal/internal/services/reclassify/domain"
	stagerepo "colasignal/internal/services/reclassify/repo"

	"github.com/google/uuid"
)

// Config for the batch reclassifier
type Config struct {
	// PageSize for the per-entity ordered scan; defaults to 2000 if <=0
	PageSize int

	// Workers default when the caller passes none
	Workers int

	// DiffSample caps the diff rows carried in the report; defaults to 50
	DiffSample int
}

// Service implements domain.RunnerPort
type Service struct {
	DB      repokit.TxRunner
	Stage   repokit.Binder[stagerepo.Storage]
	Filings repokit.Binder[frepo.Storage]
	Reader  fdom.ReaderPort
	Ledger  auditdom.LedgerPort
	Norm    *normalize.Normalizer
	Cfg     Config
}

// New constructs a new reclassifier service
func New(
	db repokit.TxRunner,
	stage repokit.Binder[stagerepo.Storage],
	filings repokit.Binder[frepo.Storage],
	reader fdom.ReaderPort,
	ledger auditdom.LedgerPort,
	cfg Config,
) *Service {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 2000
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.DiffSample <= 0 {
		cfg.DiffSample = 50
	}
	return &Service{
		DB: db, Stage: stage, Filings: filings, Reader: reader, Ledger: ledger,
		Norm: normalize.New(), Cfg: cfg,
	}
}

var _ domain.RunnerPort = (*Service)(nil)

// Run replays classification from empty state into staging, then diffs or
// applies. The replay is the oracle: whatever it stages is what the live
// table should say
func (s *Service) Run(ctx context.Context, in domain.Input) (domain.Report, error) {
	runID := uuid.NewString()
	ctx = store.WithRunID(ctx, runID)
	ctx = logger.WithRun(ctx, runID)
	log := logger.C(ctx)

	rep := domain.Report{RunID: runID, DryRun: in.DryRun}

	if err := s.Ledger.Begin(ctx, runID, auditdom.RunBatch, in.DryRun); err != nil {
		return rep, err
	}
	runErr := s.run(ctx, in, &rep)
	if err := s.Ledger.Finish(ctx, runID, auditdom.Counters{
		NewCompany: rep.NewCompany,
		NewBrand:   rep.NewBrand,
		NewSKU:     rep.NewSKU,
		Refile:     rep.Refile,
	}, runErr); err != nil {
		log.Error().Err(err).Msg("run ledger finish failed")
	}
	if runErr != nil {
		return rep, runErr
	}

	log.Info().
		Int("entities", rep.Entities).
		Int("staged", rep.Staged).
		Int64("changed", rep.Changed).
		Int64("unchanged", rep.Unchanged).
		Bool("applied", rep.Applied).
		Msg("batch run complete")
	return rep, nil
}

func (s *Service) run(ctx context.Context, in domain.Input, rep *domain.Report) error {
	ids, err := s.targetEntities(ctx, in)
	if err != nil {
		return err
	}
	rep.Entities = len(ids)
	if len(ids) == 0 {
		return nil
	}

	workers := in.Workers
	if workers <= 0 {
		workers = s.Cfg.Workers
	}
	if workers > len(ids) {
		workers = len(ids)
	}

	// shard by entity_id % workers: per-entity order is preserved because
	// one entity never spans two shards
	shards := make([][]int64, workers)
	for _, id := range ids {
		w := int(id % int64(workers))
		shards[w] = append(shards[w], id)
	}

	type result struct {
		staged     int
		newCompany int64
		newBrand   int64
		newSKU     int64
		refile     int64
		err        error
	}
	out := make([]result, workers)

	wg := sync.WaitGroup{}
	for w := range shards {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			r := &out[w]
			for _, id := range shards[w] {
				staged, c, err := s.replayEntity(ctx, rep.RunID, id)
				if err != nil {
					r.err = err
					return
				}
				r.staged += staged
				r.newCompany += c.NewCompany
				r.newBrand += c.NewBrand
				r.newSKU += c.NewSKU
				r.refile += c.Refile
			}
		}(w)
	}
	wg.Wait()

	for _, r := range out {
		if r.err != nil {
			return r.err
		}
		rep.Staged += r.staged
		rep.NewCompany += r.newCompany
		rep.NewBrand += r.newBrand
		rep.NewSKU += r.newSKU
		rep.Refile += r.refile
	}

	if err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		rep.Changed, rep.Unchanged, rep.FirstTime, rep.DiffSample, err =
			s.Stage.Bind(q).Diff(ctx, rep.RunID, s.Cfg.DiffSample)
		return err
	}); err != nil {
		return err
	}

	if in.Apply && !in.DryRun {
		if err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
			st := s.Stage.Bind(q)
			if err := st.Apply(ctx, rep.RunID, ids); err != nil {
				return err
			}
			// parked backdated rows are now folded into the replayed
			// history, so their deferral markers come off
			fr := s.Filings.Bind(q)
			for _, id := range ids {
				if err := fr.ClearDeferred(ctx, id); err != nil {
					return err
				}
			}
			return st.DropStage(ctx, rep.RunID)
		}); err != nil {
			return err
		}
		rep.Applied = true
		return nil
	}

	// diff-only runs discard their staging rows too, or abandoned run ids
	// would pile up in stage_signals forever
	return s.DB.Tx(ctx, func(q repokit.Queryer) error {
		return s.Stage.Bind(q).DropStage(ctx, rep.RunID)
	})
}

// targetEntities picks the replay set: explicit ids win, otherwise every
// resolved entity plus anything marked dirty
func (s *Service) targetEntities(ctx context.Context, in domain.Input) ([]int64, error) {
	if len(in.Entities) > 0 {
		ids := append([]int64(nil), in.Entities...)
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		return ids, nil
	}

	ids, err := s.Reader.ListEntityIDs(ctx)
	if err != nil {
		return nil, err
	}

	var dirty []int64
	if err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		dirty, err = s.Stage.Bind(q).DirtyEntities(ctx)
		return err
	}); err != nil {
		return nil, err
	}

	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	for _, id := range dirty {
		if _, ok := seen[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// replayEntity folds one entity's full dated history from empty state and
// stages the outcome page by page
func (s *Service) replayEntity(ctx context.Context, runID string, entityID int64) (int, auditdom.Counters, error) {
	ctx = logger.WithEntity(ctx, entityID)

	mem := classify.NewMemoryState()
	cls := classify.New(mem)
	var counters auditdom.Counters
	staged := 0

	after := fdom.AfterKey{}
	for {
		rows, next, err := s.Reader.ListByEntity(ctx, entityID, after, s.Cfg.PageSize)
		if err != nil {
			return staged, counters, err
		}
		if len(rows) == 0 {
			return staged, counters, nil
		}

		out := make([]fdom.Classified, 0, len(rows))
		for _, f := range rows {
			brand := s.Norm.Brand(f.BrandName)
			key := classify.Key{
				FilingID:     f.TTBID,
				EntityID:     entityID,
				ApprovalDate: *f.ApprovalDate,
				BrandKey:     fingerprint.Brand(entityID, brand),
				SKUKey: fingerprint.SKU(entityID, brand,
					s.Norm.ClassCode(f.ClassTypeCode), s.Norm.Product(f.FancifulName)),
			}

			oc, err := cls.Apply(key)
			if err != nil {
				return staged, counters, err
			}
			switch oc.Signal {
			case classify.SignalNewCompany:
				counters.NewCompany++
			case classify.SignalNewBrand:
				counters.NewBrand++
			case classify.SignalNewSKU:
				counters.NewSKU++
			case classify.SignalRefile:
				counters.Refile++
			}
			out = append(out, fdom.Classified{
				TTBID:             f.TTBID,
				EntityID:          entityID,
				BrandKey:          key.BrandKey.Bytes(),
				SKUKey:            key.SKUKey.Bytes(),
				Signal:            oc.Signal,
				RefileCount:       oc.RefileCount,
				ClassifierVersion: version.Classifier,
			})
		}

		if err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
			return s.Stage.Bind(q).StageBatch(ctx, runID, out)
		}); err != nil {
			return staged, counters, err
		}
		staged += len(out)
		after = next
	}
}
