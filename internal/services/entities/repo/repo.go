// Package repo provides Postgres bindings for the entities storage
package repo

import (
	"context"
	"errors"

	"colasignal/internal/modkit/repokit"
	perr "colasignal/internal/platform/errors"
	"colasignal/internal/platform/store"
	"colasignal/internal/services/entities/domain"
)

type binder struct{}

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage defines the entities repository
type Storage interface {
	LookupAlias(ctx context.Context, norm string) (int64, bool, error)
	Candidates(ctx context.Context, blockToken string, limit int) ([]domain.Alias, error)
	InsertEntity(ctx context.Context, displayName string, resolverVersion int) (int64, error)
	InsertAlias(ctx context.Context, a domain.Alias) error
	EnqueueReview(ctx context.Context, item domain.ReviewItem) error
	MarkDirty(ctx context.Context, entityID int64, reason string) error
}

type pg struct{ q repokit.Queryer }

func scanAlias(r repokit.Row) (domain.Alias, error) {
	var a domain.Alias
	err := r.Scan(&a.Norm, &a.EntityID, &a.Raw, &a.Score, &a.ResolverVersion)
	return a, err
}

// LookupAlias returns the entity id for an exact normalized alias
func (s *pg) LookupAlias(ctx context.Context, norm string) (int64, bool, error) {
	id, err := store.One(ctx, s.q, func(r repokit.Row) (int64, error) {
		var v int64
		err := r.Scan(&v)
		return v, err
	}, `
		SELECT entity_id FROM entity_aliases WHERE alias_norm = $1
	`, norm)
	if errors.Is(err, perr.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// Candidates returns aliases sharing a blocking token for the similarity pass
func (s *pg) Candidates(ctx context.Context, blockToken string, limit int) ([]domain.Alias, error) {
	return store.Many(ctx, s.q, scanAlias, `
		SELECT alias_norm, entity_id, alias_raw, COALESCE(score, 0), resolver_version
		FROM entity_aliases
		WHERE split_part(alias_norm, ' ', 1) = $1
		ORDER BY alias_norm
		LIMIT $2
	`, blockToken, limit)
}

// InsertEntity allocates a new entity and returns its id
func (s *pg) InsertEntity(ctx context.Context, displayName string, resolverVersion int) (int64, error) {
	row := s.q.QueryRow(ctx, `
		INSERT INTO entities (display_name, resolver_version)
		VALUES ($1, $2)
		RETURNING id
	`, displayName, resolverVersion)

	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, perr.FromPostgres(err, "insert entity")
	}
	return id, nil
}

// InsertAlias appends one alias mapping; replays are no-ops
func (s *pg) InsertAlias(ctx context.Context, a domain.Alias) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO entity_aliases (alias_norm, entity_id, alias_raw, score, resolver_version)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (alias_norm) DO NOTHING
	`, a.Norm, a.EntityID, a.Raw, a.Score, a.ResolverVersion)
	if err != nil {
		return perr.FromPostgresf(err, "insert alias %q", a.Norm)
	}
	return nil
}

// EnqueueReview records an ambiguous match for manual decision
func (s *pg) EnqueueReview(ctx context.Context, item domain.ReviewItem) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO alias_review_queue
			(id, alias_raw, alias_norm, candidate_id, hold_id, score, resolver_version)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7)
	`, item.ID, item.AliasRaw, item.AliasNorm,
		item.CandidateID, item.HoldID, item.Score, item.ResolverVersion)
	if err != nil {
		return perr.FromPostgresf(err, "enqueue review %q", item.AliasNorm)
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
