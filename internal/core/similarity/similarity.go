// Package similarity scores two normalized company names for the alias
// resolver. The score blends token-set overlap with a bounded edit distance
// over the joined forms, and the verdict exposes an explicit uncertain band:
// anything inside the band is Ambiguous and must go to manual review, never
// auto-merged. Thresholds are version-stamped so persisted alias rows record
// which tuning produced them.
package similarity

import "strings"

// Verdict is the tagged outcome of a comparison
type Verdict int

const (
	// Distinct means the names are confidently different filers
	Distinct Verdict = iota
	// Ambiguous means the score fell inside the uncertain band
	Ambiguous
	// Match means the names confidently refer to the same filer
	Match
)

// String implements fmt.Stringer
func (v Verdict) String() string {
	switch v {
	case Match:
		return "match"
	case Ambiguous:
		return "ambiguous"
	default:
		return "distinct"
	}
}

// Thresholds bound the verdict bands over the blended score in [0,1]
// MatchAt and AmbiguousAt are the primary precision/recall knobs; changing
// them re-resolves only names whose score crosses a band edge
type Thresholds struct {
	// MatchAt and above is a confident match
	MatchAt float64
	// AmbiguousAt up to MatchAt is the uncertain band
	AmbiguousAt float64
	// MaxEditDistance caps the edit-distance pass; pairs further apart
	// short-circuit to 0 on that component
	MaxEditDistance int
}

// Default thresholds, validated against a labeled sample of alias pairs
// from historical filings
var Default = Thresholds{
	MatchAt:         0.92,
	AmbiguousAt:     0.84,
	MaxEditDistance: 6,
}

// Scorer compares normalized names under fixed thresholds
type Scorer struct {
	t Thresholds
}

// New constructs a Scorer; zero thresholds fall back to Default
func New(t Thresholds) *Scorer {
	if t.MatchAt == 0 {
		t = Default
	}
	return &Scorer{t: t}
}

// Thresholds returns the active thresholds
func (s *Scorer) Thresholds() Thresholds { return s.t }

// Compare scores two already-normalized names and returns the blended score
// and its verdict. Identical inputs always return (1, Match)
func (s *Scorer) Compare(a, b string) (float64, Verdict) {
	if a == b {
		if a == "" {
			return 0, Distinct
		}
		return 1, Match
	}
	if a == "" || b == "" {
		return 0, Distinct
	}

	score := blend(tokenOverlap(a, b), editScore(a, b, s.t.MaxEditDistance))
	switch {
	case score >= s.t.MatchAt:
		return score, Match
	case score >= s.t.AmbiguousAt:
		return score, Ambiguous
	default:
		return score, Distinct
	}
}

// blend takes the stronger of the two signals: token overlap catches
// reordered or partially dropped words, edit distance catches in-word
// misspellings. Either alone is enough evidence for the corpus this was
// tuned on; averaging would dilute both
func blend(tok, edit float64) float64 {
	if tok > edit {
		return tok
	}
	return edit
}

// tokenOverlap is Jaccard similarity over the token sets
func tokenOverlap(a, b string) float64 {
	as := tokenSet(a)
	bs := tokenSet(b)
	if len(as) == 0 || len(bs) == 0 {
		return 0
	}
	inter := 0
	for t := range as {
		if _, ok := bs[t]; ok {
			inter++
		}
	}
	union := len(as) + len(bs) - inter
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, t := range strings.Fields(s) {
		out[t] = struct{}{}
	}
	return out
}

// editScore maps a bounded Levenshtein distance into [0,1]
// 1 means identical, 0 means the bound was exceeded
func editScore(a, b string, maxDist int) float64 {
	if maxDist <= 0 {
		maxDist = Default.MaxEditDistance
	}
	if diff := len(a) - len(b); diff > maxDist || -diff > maxDist {
		return 0
	}
	d := levenshtein(a, b, maxDist)
	if d < 0 {
		return 0
	}
	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}
	if longer == 0 {
		return 1
	}
	return 1 - float64(d)/float64(longer)
}

// levenshtein computes edit distance with early exit once every cell in a
// row exceeds maxDist; returns -1 when the bound is exceeded
func levenshtein(a, b string, maxDist int) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		rowMin := cur[0]
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			m := prev[j] + 1 // deletion
			if v := cur[j-1] + 1; v < m { // insertion
				m = v
			}
			if v := prev[j-1] + cost; v < m { // substitution
				m = v
			}
			cur[j] = m
			if m < rowMin {
				rowMin = m
			}
		}
		if rowMin > maxDist {
			return -1
		}
		prev, cur = cur, prev
	}
	if prev[len(rb)] > maxDist {
		return -1
	}
	return prev[len(rb)]
}
