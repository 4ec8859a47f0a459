// Package classify implements the chronological first-occurrence classifier.
// It is a pure fold: given filings for one entity in ascending
// (approval_date, filing_id) order and a seen-state, each filing maps to
// exactly one signal. All I/O lives in the services that feed it.
package classify

import "fmt"

// Signal is the classification of one filing. Values match the Postgres
// signal_enum and are stable on the wire
type Signal string

const (
	// SignalNewCompany marks the first filing ever seen for an entity
	SignalNewCompany Signal = "new_company"
	// SignalNewBrand marks the first filing of a brand under an entity
	SignalNewBrand Signal = "new_brand"
	// SignalNewSKU marks the first filing of a product variant
	SignalNewSKU Signal = "new_sku"
	// SignalRefile marks a repeat filing of a known product variant
	SignalRefile Signal = "refile"
)

// Valid reports whether s is one of the four defined signals
func (s Signal) Valid() bool {
	switch s {
	case SignalNewCompany, SignalNewBrand, SignalNewSKU, SignalRefile:
		return true
	}
	return false
}

// Parse converts a stored string into a Signal
func Parse(s string) (Signal, error) {
	v := Signal(s)
	if !v.Valid() {
		return "", fmt.Errorf("classify: unknown signal %q", s)
	}
	return v, nil
}
