// Package domain defines core types and interfaces for the batch reclassifier
package domain

// Input controls one batch replay
type Input struct {
	// DryRun stages and diffs without touching live rows
	DryRun bool

	// Apply swaps staged signals into the live table after staging
	Apply bool

	// Workers shards entities across goroutines; defaults to 4 if <=0
	Workers int

	// Entities restricts the replay to the given ids; empty means every
	// entity plus whatever is marked dirty
	Entities []int64
}

// Diff is one filing whose staged signal disagrees with the live one
type Diff struct {
	TTBID     string
	EntityID  int64
	OldSignal string // empty when the filing had no live signal
	NewSignal string
	OldRefile int
	NewRefile int
}

// Report summarizes one batch run
type Report struct {
	RunID      string
	Entities   int
	Staged     int
	Changed    int64
	Unchanged  int64
	FirstTime  int64 // staged rows that had no live signal at all
	DiffSample []Diff
	Applied    bool
	DryRun     bool

	NewCompany int64
	NewBrand   int64
	NewSKU     int64
	Refile     int64
}
