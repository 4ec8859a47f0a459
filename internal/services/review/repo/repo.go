// Package repo provides Postgres bindings for the alias review queue
package repo

import (
	"context"
	"errors"
	"fmt"

	"colasignal/internal/modkit/repokit"
	perr "colasignal/internal/platform/errors"
	"colasignal/internal/platform/store"
	entdom "colasignal/internal/services/entities/domain"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage defines the review repository
type Storage interface {
	ListPending(ctx context.Context, limit int) ([]entdom.ReviewItem, error)
	GetPending(ctx context.Context, id string) (entdom.ReviewItem, bool, error)
	MarkDecided(ctx context.Context, id, status, decidedBy string) error
	RepointAliases(ctx context.Context, holdID, candidateID int64) error
	RepointFilings(ctx context.Context, holdID, candidateID int64) (int64, error)
	DropDerived(ctx context.Context, entityID int64) error
	MarkDirty(ctx context.Context, entityID int64, reason string) error
}

const itemCols = `id::text, alias_raw, alias_norm, candidate_id, hold_id, score, resolver_version`

func scanItem(r repokit.Row) (entdom.ReviewItem, error) {
	var it entdom.ReviewItem
	err := r.Scan(&it.ID, &it.AliasRaw, &it.AliasNorm,
		&it.CandidateID, &it.HoldID, &it.Score, &it.ResolverVersion)
	return it, err
}

// ListPending implements Storage
func (s *pg) ListPending(ctx context.Context, limit int) ([]entdom.ReviewItem, error) {
	return store.Many(ctx, s.q, scanItem, `
		SELECT `+itemCols+`
		FROM alias_review_queue
		WHERE status = 'pending'
		ORDER BY created_at, id
		LIMIT $1
	`, limit)
}

// GetPending implements Storage
func (s *pg) GetPending(ctx context.Context, id string) (entdom.ReviewItem, bool, error) {
	it, err := store.One(ctx, s.q, scanItem, `
		SELECT `+itemCols+`
		FROM alias_review_queue
		WHERE id = $1::uuid AND status = 'pending'
	`, id)
	if errors.Is(err, perr.ErrNotFound) {
		return entdom.ReviewItem{}, false, nil
	}
	if err != nil {
		return entdom.ReviewItem{}, false, err
	}
	return it, true, nil
}

// MarkDecided implements Storage
func (s *pg) MarkDecided(ctx context.Context, id, status, decidedBy string) error {
	err := store.ExecOne(ctx, s.q, `
		UPDATE alias_review_queue
		SET status = $2::review_status, decided_at = now(), decided_by = $3
		WHERE id = $1::uuid
	`, id, status, decidedBy)
	if err != nil {
		return fmt.Errorf("mark review %s %s: %w", id, status, err)
	}
	return nil
}

// RepointAliases moves every alias of the hold entity to the candidate
func (s *pg) RepointAliases(ctx context.Context, holdID, candidateID int64) error {
	_, err := s.q.Exec(ctx, `
		UPDATE entity_aliases SET entity_id = $2 WHERE entity_id = $1
	`, holdID, candidateID)
	if err != nil {
		return fmt.Errorf("repoint aliases %d -> %d: %w", holdID, candidateID, err)
	}
	return nil
}

// RepointFilings moves every filing of the hold entity to the candidate and
// clears its stale signal columns; the next batch replay recomputes them
func (s *pg) RepointFilings(ctx context.Context, holdID, candidateID int64) (int64, error) {
	tag, err := s.q.Exec(ctx, `
		UPDATE filings SET
			entity_id = $2,
			signal = NULL,
			brand_key = NULL,
			sku_key = NULL,
			refile_count = 0,
			classified_at = NULL
		WHERE entity_id = $1
	`, holdID, candidateID)
	if err != nil {
		return 0, fmt.Errorf("repoint filings %d -> %d: %w", holdID, candidateID, err)
	}
	return tag.RowsAffected(), nil
}

// DropDerived discards the seen-state of a merged-away hold entity
func (s *pg) DropDerived(ctx context.Context, entityID int64) error {
	for _, table := range []string{"seen_brands", "seen_skus", "entity_watermarks"} {
		if _, err := s.q.Exec(ctx,
			`DELETE FROM `+table+` WHERE entity_id = $1`, entityID); err != nil {
			return fmt.Errorf("drop %s for %d: %w", table, entityID, err)
		}
	}
	return nil
}

// MarkDirty flags an entity for targeted batch replay
func (s *pg) MarkDirty(ctx context.Context, entityID int64, reason string) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO dirty_entities (entity_id, reason)
		VALUES ($1, $2)
		ON CONFLICT (entity_id) DO UPDATE SET marked_at = now(), reason = EXCLUDED.reason
	`, entityID, reason)
	return err
}
