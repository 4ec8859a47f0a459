// Package service implements the run ledger and consistency audits
package service

import (
	"context"
	"time"

	"colasignal/internal/modkit/repokit"
	"colasignal/internal/platform/logger"
	"colasignal/internal/platform/store"
	"colasignal/internal/services/audit/domain"
	"colasignal/internal/services/audit/repo"
)

// Config for the audit service
type Config struct {
	// CensusTable is the analytics table snapshots land in
	CensusTable string

	// RecentLimit caps Recent; defaults to 50 if <=0
	RecentLimit int
}

// Service implements domain.LedgerPort and domain.AuditorPort
type Service struct {
	DB   repokit.TxRunner
	Repo repokit.Binder[repo.Storage]
	CH   store.Clickhouse
	Cfg  Config
}

// New constructs a new audit service. ch may be nil; Snapshot then reports
// the sink as unconfigured without failing the audit
func New(db repokit.TxRunner, binder repokit.Binder[repo.Storage], ch store.Clickhouse, cfg Config) *Service {
	if cfg.CensusTable == "" {
		cfg.CensusTable = "signal_census"
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = 50
	}
	return &Service{DB: db, Repo: binder, CH: ch, Cfg: cfg}
}

var (
	_ domain.LedgerPort  = (*Service)(nil)
	_ domain.AuditorPort = (*Service)(nil)
)

// Begin implements domain.LedgerPort
func (s *Service) Begin(ctx context.Context, id string, kind domain.RunKind, dryRun bool) error {
	return s.DB.Tx(ctx, func(q repokit.Queryer) error {
		return s.Repo.Bind(q).InsertRun(ctx, id, kind, dryRun)
	})
}

// Finish implements domain.LedgerPort
func (s *Service) Finish(ctx context.Context, id string, c domain.Counters, runErr error) error {
	return s.DB.Tx(ctx, func(q repokit.Queryer) error {
		return s.Repo.Bind(q).FinishRun(ctx, id, c, runErr)
	})
}

// Recent implements domain.LedgerPort
func (s *Service) Recent(ctx context.Context, limit int) ([]domain.Run, error) {
	if limit <= 0 || limit > s.Cfg.RecentLimit {
		limit = s.Cfg.RecentLimit
	}

	var out []domain.Run
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		out, err = s.Repo.Bind(q).Recent(ctx, limit)
		return err
	})
	return out, err
}

// CheckConsistency implements domain.AuditorPort
func (s *Service) CheckConsistency(ctx context.Context) ([]domain.Violation, error) {
	log := logger.C(ctx)

	var out []domain.Violation
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		out, err = s.Repo.Bind(q).DuplicateFirsts(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	for _, v := range out {
		log.Error().
			Str("kind", v.Kind).
			Str("detail", v.Detail).
			Int64("count", v.Count).
			Msg("first-occurrence invariant violated")
	}
	return out, nil
}

// Census implements domain.AuditorPort
func (s *Service) Census(ctx context.Context) ([]domain.CensusRow, error) {
	var out []domain.CensusRow
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		out, err = s.Repo.Bind(q).Census(ctx)
		return err
	})
	return out, err
}

// Snapshot implements domain.AuditorPort
func (s *Service) Snapshot(ctx context.Context) error {
	log := logger.C(ctx)
	if s.CH == nil {
		log.Warn().Msg("analytics sink not configured, census snapshot skipped")
		return nil
	}

	census, err := s.Census(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(census))
	for _, c := range census {
		rows = append(rows, []any{now, c.Signal, c.Count})
	}

	if err := s.CH.Insert(ctx, s.Cfg.CensusTable, rows); err != nil {
		return err
	}
	log.Info().Int("buckets", len(rows)).Msg("census snapshot written")
	return nil
}
