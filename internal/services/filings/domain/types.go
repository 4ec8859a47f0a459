// Package domain defines core types and interfaces for filings
package domain

import (
	"time"

	"colasignal/internal/core/classify"
)

// Deferral states a filing can be parked in when it cannot be classified yet
type Deferral string

const (
	// DeferralNone means the filing is eligible for classification
	DeferralNone Deferral = "none"

	// DeferralPendingDate means the filing has no approval date yet
	DeferralPendingDate Deferral = "pending_date"

	// DeferralBackdated means the filing arrived behind the entity watermark
	// and waits for the next batch replay
	DeferralBackdated Deferral = "backdated"
)

// AfterKey supports stable keyset pagination over (approval_date, ttb_id)
type AfterKey struct {
	ApprovalDate time.Time
	TTBID        string
}

// Filing is the classification view of one COLA filing row
type Filing struct {
	TTBID          string
	CompanyNameRaw string
	BrandName      string
	FancifulName   string
	ClassTypeCode  string
	ApprovalDate   *time.Time // nil until the regulator publishes it
	Status         string
	EntityID       *int64 // nil until resolved
	Deferred       Deferral
}

// Dated reports whether the filing carries an approval date
func (f Filing) Dated() bool { return f.ApprovalDate != nil }

// Classified carries the signal columns written back after classification
type Classified struct {
	TTBID             string
	EntityID          int64
	BrandKey          []byte
	SKUKey            []byte
	Signal            classify.Signal
	RefileCount       int
	ClassifierVersion int
}
