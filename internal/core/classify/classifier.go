package classify

import (
	"errors"
	"fmt"
	"time"

	"colasignal/internal/core/fingerprint"
)

// ErrOutOfOrder is returned when a filing arrives older than the last one
// applied for the same entity. The caller must defer it to a full
// reclassification; applying it here would corrupt first-occurrence state
var ErrOutOfOrder = errors.New("classify: filing older than entity cursor")

// Key is the classification view of one filing. ApprovalDate must be set;
// dateless filings are held upstream and never reach the classifier
type Key struct {
	FilingID     string
	EntityID     int64
	ApprovalDate time.Time
	BrandKey     fingerprint.Key32
	SKUKey       fingerprint.Key32
}

// Outcome is the classifier's verdict for one filing
type Outcome struct {
	Signal Signal
	// RefileCount is the running repeat count for the SKU, 0 for first sights
	RefileCount int
}

// State is the injectable seen-state the classifier consults and updates.
// Implementations must make Mark* visible to the immediately following
// Seen* call; the classifier is the only writer during a fold
type State interface {
	SeenEntity(entityID int64) bool
	SeenBrand(entityID int64, key fingerprint.Key32) bool
	SeenSKU(entityID int64, key fingerprint.Key32) bool

	MarkEntity(entityID int64)
	MarkBrand(entityID int64, key fingerprint.Key32)
	MarkSKU(entityID int64, key fingerprint.Key32)

	// NextRefile increments and returns the per-SKU repeat counter
	NextRefile(entityID int64, key fingerprint.Key32) int
}

// cursor is the per-entity ordering watermark
type cursor struct {
	date     time.Time
	filingID string
}

// Classifier applies the first-occurrence rules over a State.
// Not safe for concurrent use; shard by entity instead
type Classifier struct {
	state State
	last  map[int64]cursor
}

// New constructs a Classifier over the given seen-state
func New(state State) *Classifier {
	return &Classifier{state: state, last: make(map[int64]cursor)}
}

// Apply classifies one filing and updates the seen-state.
// Filings for one entity must arrive in ascending (approval_date, filing_id)
// order; violations return ErrOutOfOrder and leave state untouched
func (c *Classifier) Apply(k Key) (Outcome, error) {
	if k.ApprovalDate.IsZero() {
		return Outcome{}, fmt.Errorf("classify: filing %s has no approval date", k.FilingID)
	}

	if prev, ok := c.last[k.EntityID]; ok {
		if k.ApprovalDate.Before(prev.date) ||
			(k.ApprovalDate.Equal(prev.date) && k.FilingID < prev.filingID) {
			return Outcome{}, fmt.Errorf("%w: filing %s (%s) behind cursor %s (%s)",
				ErrOutOfOrder, k.FilingID, k.ApprovalDate.Format("2006-01-02"),
				prev.filingID, prev.date.Format("2006-01-02"))
		}
	}
	c.last[k.EntityID] = cursor{date: k.ApprovalDate, filingID: k.FilingID}

	switch {
	case !c.state.SeenEntity(k.EntityID):
		c.state.MarkEntity(k.EntityID)
		c.state.MarkBrand(k.EntityID, k.BrandKey)
		c.state.MarkSKU(k.EntityID, k.SKUKey)
		return Outcome{Signal: SignalNewCompany}, nil

	case !c.state.SeenBrand(k.EntityID, k.BrandKey):
		c.state.MarkBrand(k.EntityID, k.BrandKey)
		c.state.MarkSKU(k.EntityID, k.SKUKey)
		return Outcome{Signal: SignalNewBrand}, nil

	case !c.state.SeenSKU(k.EntityID, k.SKUKey):
		c.state.MarkSKU(k.EntityID, k.SKUKey)
		return Outcome{Signal: SignalNewSKU}, nil

	default:
		return Outcome{
			Signal:      SignalRefile,
			RefileCount: c.state.NextRefile(k.EntityID, k.SKUKey),
		}, nil
	}
}
