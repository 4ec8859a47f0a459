// Package domain defines core types and interfaces for audit
package domain

import "time"

// RunKind discriminates entries in the run ledger
type RunKind string

const (
	// RunIncremental is one updater pass over newly scraped filings
	RunIncremental RunKind = "incremental"

	// RunBatch is one full or targeted reclassification replay
	RunBatch RunKind = "batch"

	// RunAudit is one consistency check pass
	RunAudit RunKind = "audit"
)

// Counters accumulates per-signal totals for one run
type Counters struct {
	NewCompany int64
	NewBrand   int64
	NewSKU     int64
	Refile     int64
	Deferred   int64
}

// Run is one ledger entry
type Run struct {
	ID         string // uuid
	Kind       RunKind
	DryRun     bool
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     string
	Counters   Counters
	Error      string
}

// Violation is one consistency failure; any violation fails the audit
type Violation struct {
	Kind   string // duplicate_new_company | duplicate_new_brand | duplicate_new_sku
	Detail string
	Count  int64
}

// CensusRow is one bucket of the signal distribution
type CensusRow struct {
	Signal string // signal name, or "unclassified" / deferral buckets
	Count  int64
}
