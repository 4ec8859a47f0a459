package normalize

// Legal suffix handling. The scraper delivers company names exactly as filed,
// so the same filer shows up as "Acme Distillery LLC", "ACME DISTILLERY,
// L.L.C." and "Acme Distillery". Trailing legal tokens are folded to one
// canonical spelling and then dropped for comparison, so all three forms
// normalize to "acme distillery".
//
// The variant list is maintained here on purpose: adding a spelling is a
// one-line change and a targeted re-resolution, never a code change elsewhere.

// legalSuffixes maps a folded suffix token to its canonical form.
// Input tokens are already lowercased and punctuation-free, so "L.L.C."
// arrives as "l" "l" "c" (handled by the multi-token pass) or "llc".
var legalSuffixes = map[string]string{
	"inc":          "inc",
	"incorporated": "inc",
	"llc":          "llc",
	"lc":           "llc",
	"ltd":          "ltd",
	"limited":      "ltd",
	"corp":         "corp",
	"corporation":  "corp",
	"co":           "co",
	"company":      "co",
	"lp":           "lp",
	"llp":          "llp",
	"lllp":         "llp",
	"plc":          "plc",
	"pllc":         "llc",
	"sa":           "sa",
	"srl":          "srl",
	"gmbh":         "gmbh",
	"ag":           "ag",
	"bv":           "bv",
	"nv":           "nv",
	"pty":          "pty",
	"sarl":         "sarl",
	"spa":          "spa",
}

// singleLetterRuns rejoins punctuation-split abbreviations at the tail:
// "l l c" -> "llc", "l p" -> "lp", "s a" -> "sa". Only runs that resolve to
// a known suffix are rejoined; anything else stays as-is.
const maxSuffixRun = 4

// canonicalizeSuffix folds trailing legal tokens and drops them from the
// comparison form. A name consisting only of legal tokens is kept verbatim
// (there are real filers named e.g. "Limited").
func canonicalizeSuffix(tokens []string) []string {
	if len(tokens) < 2 {
		return tokens
	}

	end := len(tokens)
	for end > 1 {
		// try a rejoined single-letter run first: "l l c" beats "c"
		joined, runLen := rejoinRun(tokens[:end])
		if runLen > 1 {
			if _, ok := legalSuffixes[joined]; ok {
				end -= runLen
				continue
			}
		}
		if _, ok := legalSuffixes[tokens[end-1]]; ok {
			end--
			continue
		}
		break
	}
	if end == 0 {
		return tokens
	}
	return tokens[:end]
}

// rejoinRun concatenates up to maxSuffixRun trailing single-letter tokens
func rejoinRun(tokens []string) (string, int) {
	n := 0
	for i := len(tokens) - 1; i >= 0 && n < maxSuffixRun; i-- {
		if len(tokens[i]) != 1 {
			break
		}
		n++
	}
	if n < 2 {
		return "", 0
	}
	var b []byte
	for _, t := range tokens[len(tokens)-n:] {
		b = append(b, t...)
	}
	return string(b), n
}
