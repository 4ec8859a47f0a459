package module

import (
	"time"

	"colasignal/internal/core/similarity"
	"colasignal/internal/platform/config"
)

// Options holds configuration settings for the entities module
type Options struct {
	CandidateLimit int
	CacheTTL       time.Duration

	// Thresholds override the similarity bands; defaults come from the
	// stamped similarity.Default so alias provenance stays reproducible
	Thresholds similarity.Thresholds
}

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	df := cfg.Prefix("CORE_RESOLVER_")
	return Options{
		CandidateLimit: df.MayInt("CANDIDATE_LIMIT", 200),
		CacheTTL:       df.MayDuration("CACHE_TTL", 10*time.Minute),
		Thresholds: similarity.Thresholds{
			MatchAt:         df.MayFloat64("MATCH_AT", similarity.Default.MatchAt),
			AmbiguousAt:     df.MayFloat64("AMBIGUOUS_AT", similarity.Default.AmbiguousAt),
			MaxEditDistance: df.MayInt("MAX_EDIT_DISTANCE", similarity.Default.MaxEditDistance),
		},
	}
}
