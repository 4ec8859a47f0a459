// Package domain defines core types and interfaces for alias review
package domain

// Action is a reviewer's verdict on one queued ambiguous match
type Action string

const (
	// ActionMerge folds the hold entity into the candidate it was held
	// against; the candidate is flagged for batch replay
	ActionMerge Action = "merge"

	// ActionKeep confirms the hold entity as genuinely distinct
	ActionKeep Action = "keep"
)

// Decision is one reviewed queue item
type Decision struct {
	ID        string `json:"id"`
	Action    Action `json:"action"`
	DecidedBy string `json:"decided_by"`
	Note      string `json:"note,omitempty"`
}

// Report summarizes one applied decision file
type Report struct {
	Merged  int
	Kept    int
	Missing int // decisions naming ids no longer pending

	// Dirtied lists entities flagged for batch replay by merges
	Dirtied []int64
}
