package domain

import "context"

// RunnerPort drives one batch reclassification
type RunnerPort interface {
	// Run replays classification from empty state into staging, then diffs
	// or applies. Safe to abort and rerun; aborted runs leave staging only
	Run(ctx context.Context, in Input) (Report, error)
}
