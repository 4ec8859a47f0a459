// Package domain defines core types and interfaces for entities
package domain

import "time"

// Entity is one resolved filing company
type Entity struct {
	ID              int64
	DisplayName     string
	ResolverVersion int
	CreatedAt       time.Time
}

// Alias is one normalized name mapped to an entity; the mapping is append-only
type Alias struct {
	Norm            string
	EntityID        int64
	Raw             string
	Score           float64
	ResolverVersion int
}

// Resolution is the outcome of resolving a raw company name
type Resolution struct {
	EntityID int64

	// Created is true when a fresh entity was allocated for the name
	Created bool

	// Ambiguous is true when the name landed in the uncertain band and a
	// review item was queued; EntityID then refers to a hold entity that a
	// reviewer may later merge into the candidate
	Ambiguous bool

	// Score of the best candidate considered, 0 when none
	Score float64
}

// ReviewItem is one queued ambiguous match awaiting a manual decision
type ReviewItem struct {
	ID              string // uuid
	AliasRaw        string
	AliasNorm       string
	CandidateID     int64
	HoldID          int64
	Score           float64
	ResolverVersion int
}
