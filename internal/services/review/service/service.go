// Package service implements the alias review workflow
package service

import (
	"context"
	"fmt"

	"colasignal/internal/modkit/repokit"
	"colasignal/internal/platform/logger"
	entdom "colasignal/internal/services/entities/domain"
	"colasignal/internal/services/review/domain"
	"colasignal/internal/services/review/repo"
)

// Config for the review service
type Config struct {
	// ListLimit caps ListPending; defaults to 100 if <=0
	ListLimit int
}

// Service implements domain.ReviewerPort
type Service struct {
	DB   repokit.TxRunner
	Repo repokit.Binder[repo.Storage]
	Cfg  Config
}

// New constructs a new review service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Storage], cfg Config) *Service {
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = 100
	}
	return &Service{DB: db, Repo: binder, Cfg: cfg}
}

var _ domain.ReviewerPort = (*Service)(nil)

// ListPending implements domain.ReviewerPort
func (s *Service) ListPending(ctx context.Context, limit int) ([]entdom.ReviewItem, error) {
	if limit <= 0 || limit > s.Cfg.ListLimit {
		limit = s.Cfg.ListLimit
	}

	var out []entdom.ReviewItem
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		out, err = s.Repo.Bind(q).ListPending(ctx, limit)
		return err
	})
	return out, err
}

// Apply implements domain.ReviewerPort. Each decision commits on its own so
// a bad id late in the file does not undo earlier verdicts
func (s *Service) Apply(ctx context.Context, decisions []domain.Decision) (domain.Report, error) {
	log := logger.C(ctx)
	var rep domain.Report

	for i, d := range decisions {
		applied, dirtied, err := s.applyOne(ctx, d)
		if err != nil {
			return rep, fmt.Errorf("decision %d (%s): %w", i, d.ID, err)
		}
		if !applied {
			rep.Missing++
			log.Warn().Str("review_id", d.ID).Msg("decision names no pending item")
			continue
		}
		switch d.Action {
		case domain.ActionMerge:
			rep.Merged++
			rep.Dirtied = append(rep.Dirtied, dirtied)
		case domain.ActionKeep:
			rep.Kept++
		}
	}

	log.Info().
		Int("merged", rep.Merged).
		Int("kept", rep.Kept).
		Int("missing", rep.Missing).
		Msg("review decisions applied")
	return rep, nil
}

// applyOne runs a single decision in one transaction. For merges the hold
// entity's aliases and filings move to the candidate, the hold's seen-state
// is dropped, and the candidate is flagged dirty so the next batch replay
// rebuilds its history with the merged filings folded in
func (s *Service) applyOne(ctx context.Context, d domain.Decision) (applied bool, dirtied int64, err error) {
	err = s.DB.Tx(ctx, func(q repokit.Queryer) error {
		st := repokit.MustBind(s.Repo, q)

		item, ok, err := st.GetPending(ctx, d.ID)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		applied = true

		switch d.Action {
		case domain.ActionKeep:
			return st.MarkDecided(ctx, item.ID, "kept", d.DecidedBy)

		case domain.ActionMerge:
			if err := st.RepointAliases(ctx, item.HoldID, item.CandidateID); err != nil {
				return err
			}
			moved, err := st.RepointFilings(ctx, item.HoldID, item.CandidateID)
			if err != nil {
				return err
			}
			if err := st.DropDerived(ctx, item.HoldID); err != nil {
				return err
			}
			if err := st.MarkDirty(ctx, item.CandidateID,
				fmt.Sprintf("merge of %d (%d filings)", item.HoldID, moved)); err != nil {
				return err
			}
			dirtied = item.CandidateID
			return st.MarkDecided(ctx, item.ID, "merged", d.DecidedBy)

		default:
			return fmt.Errorf("unknown action %q", d.Action)
		}
	})
	return applied, dirtied, err
}
