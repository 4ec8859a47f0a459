// Package service implements the alias resolver
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"colasignal/internal/core/normalize"
	"colasignal/internal/core/similarity"
	"colasignal/internal/core/version"
	"colasignal/internal/modkit/repokit"
	"colasignal/internal/services/entities/domain"
	"colasignal/internal/services/entities/repo"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// Config for the resolver service
type Config struct {
	// CandidateLimit bounds the blocked candidate scan; defaults to 200 if <=0
	CandidateLimit int

	// CacheTTL for the normalized-name hot cache; defaults to 10m if <=0
	CacheTTL time.Duration

	// Thresholds for the similarity scorer; zero value uses similarity.Default
	Thresholds similarity.Thresholds
}

// Service implements domain.ResolverPort
type Service struct {
	DB     repokit.TxRunner
	Binder repokit.Binder[repo.Storage]
	Norm   *normalize.Normalizer
	Scorer *similarity.Scorer
	Cfg    Config

	// cache maps alias_norm -> entity id for exact hits only
	cache *gocache.Cache
}

// New constructs a new resolver service
func New(db repokit.TxRunner, b repokit.Binder[repo.Storage], cfg Config) *Service {
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = 200
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	return &Service{
		DB:     db,
		Binder: b,
		Norm:   normalize.New(),
		Scorer: similarity.New(cfg.Thresholds),
		Cfg:    cfg,
		cache:  gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
	}
}

var _ domain.ResolverPort = (*Service)(nil)

// Resolve maps a raw company name to an entity id
// exact alias hits are cached; fuzzy matches append a new alias;
// names in the uncertain band get a hold entity plus a review item
func (s *Service) Resolve(ctx context.Context, rawName string) (domain.Resolution, error) {
	norm := s.Norm.Company(rawName)
	if norm == "" {
		return domain.Resolution{}, fmt.Errorf("resolve: empty normalized name from %q", rawName)
	}

	if v, ok := s.cache.Get(norm); ok {
		return domain.Resolution{EntityID: v.(int64)}, nil
	}

	var res domain.Resolution
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		st := repokit.MustBind(s.Binder, q)

		id, ok, err := st.LookupAlias(ctx, norm)
		if err != nil {
			return err
		}
		if ok {
			res = domain.Resolution{EntityID: id}
			return nil
		}

		best, bestScore, verdict, err := s.bestCandidate(ctx, st, norm)
		if err != nil {
			return err
		}

		switch verdict {
		case similarity.Match:
			if err := st.InsertAlias(ctx, domain.Alias{
				Norm: norm, EntityID: best.EntityID, Raw: rawName,
				Score: bestScore, ResolverVersion: version.Resolver,
			}); err != nil {
				return err
			}
			res = domain.Resolution{EntityID: best.EntityID, Score: bestScore}
			return nil

		case similarity.Ambiguous:
			holdID, err := st.InsertEntity(ctx, rawName, version.Resolver)
			if err != nil {
				return err
			}
			if err := st.InsertAlias(ctx, domain.Alias{
				Norm: norm, EntityID: holdID, Raw: rawName,
				Score: bestScore, ResolverVersion: version.Resolver,
			}); err != nil {
				return err
			}
			if err := st.EnqueueReview(ctx, domain.ReviewItem{
				ID:              uuid.NewString(),
				AliasRaw:        rawName,
				AliasNorm:       norm,
				CandidateID:     best.EntityID,
				HoldID:          holdID,
				Score:           bestScore,
				ResolverVersion: version.Resolver,
			}); err != nil {
				return err
			}
			res = domain.Resolution{EntityID: holdID, Created: true, Ambiguous: true, Score: bestScore}
			return nil

		default:
			id, err := st.InsertEntity(ctx, rawName, version.Resolver)
			if err != nil {
				return err
			}
			if err := st.InsertAlias(ctx, domain.Alias{
				Norm: norm, EntityID: id, Raw: rawName,
				Score: bestScore, ResolverVersion: version.Resolver,
			}); err != nil {
				return err
			}
			res = domain.Resolution{EntityID: id, Created: true, Score: bestScore}
			return nil
		}
	})
	if err != nil {
		return domain.Resolution{}, err
	}

	// Only unconditional mappings are cached; ambiguous holds may be merged
	// away by a reviewer
	if !res.Ambiguous {
		s.cache.Set(norm, res.EntityID, gocache.DefaultExpiration)
	}
	return res, nil
}

// Peek implements the read-only half of the port: exact and fuzzy hits
// report the mapped entity, anything else reports what Resolve would create.
// Nothing is inserted and nothing is cached, since a fuzzy hit here has not
// appended its alias yet
func (s *Service) Peek(ctx context.Context, rawName string) (domain.Resolution, error) {
	norm := s.Norm.Company(rawName)
	if norm == "" {
		return domain.Resolution{}, fmt.Errorf("resolve: empty normalized name from %q", rawName)
	}

	if v, ok := s.cache.Get(norm); ok {
		return domain.Resolution{EntityID: v.(int64)}, nil
	}

	var res domain.Resolution
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		st := repokit.MustBind(s.Binder, q)

		id, ok, err := st.LookupAlias(ctx, norm)
		if err != nil {
			return err
		}
		if ok {
			res = domain.Resolution{EntityID: id}
			return nil
		}

		best, bestScore, verdict, err := s.bestCandidate(ctx, st, norm)
		if err != nil {
			return err
		}

		switch verdict {
		case similarity.Match:
			res = domain.Resolution{EntityID: best.EntityID, Score: bestScore}
		case similarity.Ambiguous:
			res = domain.Resolution{Created: true, Ambiguous: true, Score: bestScore}
		default:
			res = domain.Resolution{Created: true, Score: bestScore}
		}
		return nil
	})
	if err != nil {
		return domain.Resolution{}, err
	}
	return res, nil
}

// bestCandidate scans aliases sharing the first token and scores them
func (s *Service) bestCandidate(
	ctx context.Context, st repo.Storage, norm string,
) (domain.Alias, float64, similarity.Verdict, error) {
	block, _, _ := strings.Cut(norm, " ")
	cands, err := st.Candidates(ctx, block, s.Cfg.CandidateLimit)
	if err != nil {
		return domain.Alias{}, 0, similarity.Distinct, err
	}

	var (
		best      domain.Alias
		bestScore float64
		verdict   = similarity.Distinct
	)
	for _, c := range cands {
		score, v := s.Scorer.Compare(norm, c.Norm)
		if score > bestScore || (score == bestScore && v > verdict) {
			best, bestScore, verdict = c, score, v
		}
	}
	return best, bestScore, verdict, nil
}
