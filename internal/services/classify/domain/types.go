// Package domain defines core types and interfaces for the incremental updater
package domain

import "time"

// Watermark is the newest (approval_date, ttb_id) already incorporated for
// one entity; filings arriving behind it are backdated
type Watermark struct {
	ApprovalDate time.Time
	TTBID        string
}

// Behind reports whether a filing at (date, ttbID) is behind the watermark
func (w Watermark) Behind(date time.Time, ttbID string) bool {
	if date.Before(w.ApprovalDate) {
		return true
	}
	return date.Equal(w.ApprovalDate) && ttbID <= w.TTBID
}

// SeenSKU is one persisted SKU fingerprint with its repeat counter
type SeenSKU struct {
	Key         []byte
	RefileCount int
}

// Report summarizes one incremental run
type Report struct {
	RunID      string
	Scanned    int
	NewCompany int
	NewBrand   int
	NewSKU     int
	Refile     int
	Pending    int // parked awaiting an approval date
	Backdated  int // parked for the next batch replay
	Invalid    int // rejected by row validation
	DryRun     bool
}

// Classified returns the total number of rows that received a signal
func (r Report) Classified() int {
	return r.NewCompany + r.NewBrand + r.NewSKU + r.Refile
}
