// Package normalize provides the deterministic name normalizer used by the
// alias resolver and the fingerprint keys
// Pipeline order for company names
// 1 UTF-8 repair drop invalid bytes
// 2 Unicode NFKD normalization (decomposed so stage 4 strips accents)
// 3 Case folding
// 4 Remove zero-width and combining marks
// 5 Width fold fullwidth to ASCII
// 6 Fold ampersand to "and" drop remaining punctuation
// 7 Collapse whitespace to single spaces and trim
// 8 Canonicalize trailing legal suffix tokens (inc llc corp ...)
// Brand and product names run stages 1-7 only; legal suffixes are a
// company-name concern
package normalize

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Normalizer is concurrency safe when used with the pool below
type Normalizer struct{}

// pool of fresh transformer chains
var chainPool = sync.Pool{
	New: func() any {
		// order matters and mirrors the documented pipeline
		return transform.Chain(
			norm.NFKD,
			cases.Fold(),                       // unicode case folding
			runes.Remove(runes.In(unicode.Mn)), // strip combining marks
			runes.Remove(runes.In(unicode.Cf)), // strip format chars ZWJ ZWNJ FEFF etc
			width.Fold,                         // map fullwidth forms to ASCII
		)
	},
}

// New constructs a Normalizer
func New() *Normalizer { return &Normalizer{} }

// Company returns the canonical comparison form of a raw company name
func (n *Normalizer) Company(s string) string {
	return strings.Join(n.CompanyTokens(s), " ")
}

// CompanyTokens returns the canonical token sequence of a raw company name,
// with trailing legal suffix tokens folded to their canonical spelling
func (n *Normalizer) CompanyTokens(s string) []string {
	base := n.fold(s)
	if base == "" {
		return nil
	}
	return canonicalizeSuffix(strings.Split(base, " "))
}

// Brand returns the canonical form of a brand name
func (n *Normalizer) Brand(s string) string { return n.fold(s) }

// Product returns the canonical form of a fanciful/product name
func (n *Normalizer) Product(s string) string { return n.fold(s) }

// ClassCode returns the canonical form of a product class/type code
// Codes are machine assigned upstream; trim and case fold is enough
func (n *Normalizer) ClassCode(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// fold runs stages 1-7 shared by all name kinds
func (n *Normalizer) fold(s string) string {
	if s == "" {
		return ""
	}

	// 1 repair UTF-8 drop invalid bytes
	s = strings.ToValidUTF8(s, "")

	// 2-5 transform via pooled chain then reset and return it
	tr := chainPool.Get().(transform.Transformer)
	ns, _, _ := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)

	// 6 ampersand and punctuation folding
	ns = punctFold(ns)

	// 7 collapse whitespace and trim
	return collapseSpaces(ns)
}

// punctFold maps "&" to the word "and" and turns remaining punctuation
// into spaces so "Acme, Dist." and "Acme Dist" compare equal
func punctFold(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		switch {
		case r == '&':
			b.WriteString(" and ")
		case r == '\'' || r == '’':
			// apostrophes vanish entirely: "O'Brien" == "OBrien"
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// collapseSpaces converts whitespace runs to a single ASCII space and trims
func collapseSpaces(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	inWS := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inWS = true
			continue
		}
		if inWS && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inWS = false
		b.WriteRune(r)
	}
	return b.String()
}
