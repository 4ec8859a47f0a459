package domain

import "context"

// LedgerPort records classification runs
type LedgerPort interface {
	Begin(ctx context.Context, id string, kind RunKind, dryRun bool) error
	Finish(ctx context.Context, id string, c Counters, runErr error) error
	Recent(ctx context.Context, limit int) ([]Run, error)
}

// AuditorPort runs post-run consistency checks and census reporting
type AuditorPort interface {
	// CheckConsistency returns every first-occurrence violation; an empty
	// slice means the invariants hold
	CheckConsistency(ctx context.Context) ([]Violation, error)

	// Census returns the signal distribution including unclassified and
	// deferred buckets
	Census(ctx context.Context) ([]CensusRow, error)

	// Snapshot writes the current census to the analytics sink, if configured
	Snapshot(ctx context.Context) error
}
