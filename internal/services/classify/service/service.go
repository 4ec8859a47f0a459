// Package service implements the incremental updater
package service

import (
	"context"
	"sort"
	"time"

	"colasignal/internal/core/classify"
	"colasignal/internal/core/fingerprint"
	"colasignal/internal/core/normalize"
	"colasignal/internal/core/version"
	"colasignal/internal/modkit/repokit"
	"colasignal/internal/platform/logger"
	"colasignal/internal/platform/store"
	"colasignal/internal/platform/validate"
	auditdom "colasignal/internal/services/audit/domain"
	"colasignal/internal/services/classify/domain"
	staterepo "colasignal/internal/services/classify/repo"
	entdom "colasignal/internal/services/entities/domain"
	fdom "colasignal/internal/services/filings/domain"
	frepo "colasignal/internal/services/filings/repo"

	"github.com/google/uuid"
)

// Config for the incremental updater
type Config struct {
	// Limit caps the rows drained per run; defaults to 10000 if <=0
	Limit int

	// DryRun reports what would happen without writing anything
	DryRun bool
}

// Service implements domain.RunnerPort
type Service struct {
	DB       repokit.TxRunner
	State    repokit.Binder[staterepo.Storage]
	Filings  repokit.Binder[frepo.Storage]
	Reader   fdom.ReaderPort
	Resolver entdom.ResolverPort
	Ledger   auditdom.LedgerPort
	Norm     *normalize.Normalizer
	Cfg      Config
}

// New constructs a new updater service
func New(
	db repokit.TxRunner,
	state repokit.Binder[staterepo.Storage],
	filings repokit.Binder[frepo.Storage],
	reader fdom.ReaderPort,
	resolver entdom.ResolverPort,
	ledger auditdom.LedgerPort,
	cfg Config,
) *Service {
	if cfg.Limit <= 0 {
		cfg.Limit = 10000
	}
	return &Service{
		DB: db, State: state, Filings: filings,
		Reader: reader, Resolver: resolver, Ledger: ledger,
		Norm: normalize.New(), Cfg: cfg,
	}
}

var _ domain.RunnerPort = (*Service)(nil)

// filingInput guards against scraper garbage before any row is classified
type filingInput struct {
	TTBID          string `json:"ttb_id" validate:"required,max=64"`
	CompanyNameRaw string `json:"company_name_raw" validate:"required"`
}

// Run drains unclassified filings once: resolve, order, fold, persist.
// Dateless rows are parked pending a date; rows behind the entity watermark
// are parked for the next batch replay and never silently reclassified
func (s *Service) Run(ctx context.Context) (domain.Report, error) {
	runID := uuid.NewString()
	ctx = store.WithRunID(ctx, runID)
	ctx = logger.WithRun(ctx, runID)
	log := logger.C(ctx)

	rep := domain.Report{RunID: runID, DryRun: s.Cfg.DryRun}

	if err := s.Ledger.Begin(ctx, runID, auditdom.RunIncremental, s.Cfg.DryRun); err != nil {
		return rep, err
	}

	runErr := s.run(ctx, &rep)

	if err := s.Ledger.Finish(ctx, runID, auditdom.Counters{
		NewCompany: int64(rep.NewCompany),
		NewBrand:   int64(rep.NewBrand),
		NewSKU:     int64(rep.NewSKU),
		Refile:     int64(rep.Refile),
		Deferred:   int64(rep.Pending + rep.Backdated),
	}, runErr); err != nil {
		log.Error().Err(err).Msg("run ledger finish failed")
	}
	if runErr != nil {
		return rep, runErr
	}

	log.Info().
		Int("scanned", rep.Scanned).
		Int("classified", rep.Classified()).
		Int("pending", rep.Pending).
		Int("backdated", rep.Backdated).
		Int("invalid", rep.Invalid).
		Bool("dry_run", rep.DryRun).
		Msg("incremental run complete")
	return rep, nil
}

func (s *Service) run(ctx context.Context, rep *domain.Report) error {
	rows, err := s.Reader.ListUnclassified(ctx, s.Cfg.Limit)
	if err != nil {
		return err
	}
	rep.Scanned = len(rows)

	byEntity := make(map[int64][]fdom.Filing)
	// dry runs resolve read-only; names that would allocate an entity get a
	// synthetic negative id so grouping and counters still work
	pseudo := make(map[string]int64)
	for _, f := range rows {
		if err := validate.Struct(filingInput{
			TTBID: f.TTBID, CompanyNameRaw: f.CompanyNameRaw,
		}); err != nil {
			logger.C(ctx).Warn().Str("ttb_id", f.TTBID).Err(err).Msg("invalid filing skipped")
			rep.Invalid++
			continue
		}

		if !f.Dated() {
			rep.Pending++
			if !s.Cfg.DryRun && f.Deferred != fdom.DeferralPendingDate {
				if err := s.park(ctx, f.TTBID, fdom.DeferralPendingDate); err != nil {
					return err
				}
			}
			continue
		}

		var res entdom.Resolution
		var err error
		if s.Cfg.DryRun {
			res, err = s.Resolver.Peek(ctx, f.CompanyNameRaw)
		} else {
			res, err = s.Resolver.Resolve(ctx, f.CompanyNameRaw)
		}
		if err != nil {
			return err
		}

		id := res.EntityID
		if s.Cfg.DryRun && res.Created {
			key := s.Norm.Company(f.CompanyNameRaw)
			pid, ok := pseudo[key]
			if !ok {
				pid = -int64(len(pseudo) + 1)
				pseudo[key] = pid
			}
			id = pid
		}
		f.EntityID = &id
		byEntity[id] = append(byEntity[id], f)
	}

	// deterministic entity order
	ids := make([]int64, 0, len(byEntity))
	for id := range byEntity {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if err := s.classifyEntity(ctx, id, byEntity[id], rep); err != nil {
			return err
		}
	}
	return nil
}

// park moves one filing into a deferral bucket in its own transaction
func (s *Service) park(ctx context.Context, ttbID string, d fdom.Deferral) error {
	return s.DB.Tx(ctx, func(q repokit.Queryer) error {
		return s.Filings.Bind(q).SetDeferred(ctx, ttbID, d)
	})
}

// classifyEntity folds one entity's new filings inside one transaction:
// watermark check, state seeding, pure fold, then signal and mark persistence
func (s *Service) classifyEntity(ctx context.Context, entityID int64, filings []fdom.Filing, rep *domain.Report) error {
	sort.Slice(filings, func(i, j int) bool {
		di, dj := *filings[i].ApprovalDate, *filings[j].ApprovalDate
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return filings[i].TTBID < filings[j].TTBID
	})

	return store.RunForEntity(ctx, s.DB, entityID, func(ctx context.Context, q store.RowQuerier) error {
		st := s.State.Bind(q)
		fr := s.Filings.Bind(q)

		wm, hasWM, err := st.Watermark(ctx, entityID)
		if err != nil {
			return err
		}

		// split off backdated arrivals before seeding anything
		live := filings[:0]
		for _, f := range filings {
			if hasWM && wm.Behind(*f.ApprovalDate, f.TTBID) {
				rep.Backdated++
				if !s.Cfg.DryRun {
					// the resolved entity must land on the row: the batch
					// replay selects work by entity_id, so a parked row
					// without one would never be picked up again
					if err := fr.SetEntity(ctx, f.TTBID, entityID); err != nil {
						return err
					}
					if err := fr.SetDeferred(ctx, f.TTBID, fdom.DeferralBackdated); err != nil {
						return err
					}
				}
				continue
			}
			live = append(live, f)
		}
		if len(live) == 0 {
			return nil
		}

		mem := classify.NewMemoryState()
		if hasWM {
			mem.SeedEntity(entityID)
			brands, err := st.SeenBrands(ctx, entityID)
			if err != nil {
				return err
			}
			for _, b := range brands {
				if k, ok := fingerprint.FromBytes(b); ok {
					mem.SeedBrand(entityID, k)
				}
			}
			skus, err := st.SeenSKUs(ctx, entityID)
			if err != nil {
				return err
			}
			for _, sk := range skus {
				if k, ok := fingerprint.FromBytes(sk.Key); ok {
					mem.SeedSKU(entityID, k, sk.RefileCount)
				}
			}
		}

		cls := classify.New(mem)
		out := make([]fdom.Classified, 0, len(live))
		for _, f := range live {
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
				return err
			}

			switch oc.Signal {
			case classify.SignalNewCompany:
				rep.NewCompany++
			case classify.SignalNewBrand:
				rep.NewBrand++
			case classify.SignalNewSKU:
				rep.NewSKU++
			case classify.SignalRefile:
				rep.Refile++
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

			if s.Cfg.DryRun {
				continue
			}
			if err := s.persistMarks(ctx, st, entityID, key, oc, *f.ApprovalDate); err != nil {
				return err
			}
		}

		if s.Cfg.DryRun {
			return nil
		}
		if err := fr.WriteSignals(ctx, out); err != nil {
			return err
		}

		last := live[len(live)-1]
		return st.SetWatermark(ctx, entityID, domain.Watermark{
			ApprovalDate: *last.ApprovalDate,
			TTBID:        last.TTBID,
		})
	})
}

// persistMarks mirrors the in-memory fold into the monotonic seen tables
func (s *Service) persistMarks(
	ctx context.Context, st staterepo.Storage, entityID int64,
	key classify.Key, oc classify.Outcome, date time.Time,
) error {
	switch oc.Signal {
	case classify.SignalNewCompany, classify.SignalNewBrand:
		if err := st.MarkBrand(ctx, entityID, key.BrandKey.Bytes(), key.FilingID, date); err != nil {
			return err
		}
		return st.MarkSKU(ctx, entityID, key.SKUKey.Bytes(), key.FilingID, date)
	case classify.SignalNewSKU:
		return st.MarkSKU(ctx, entityID, key.SKUKey.Bytes(), key.FilingID, date)
	default:
		return st.SetSKURefile(ctx, entityID, key.SKUKey.Bytes(), oc.RefileCount)
	}
}
