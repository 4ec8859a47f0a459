package domain

import "context"

// ReaderPort defines the read interface for filings
type ReaderPort interface {
	// ListUnclassified returns rows with no signal that are not parked as
	// backdated, oldest ingested first
	ListUnclassified(ctx context.Context, limit int) ([]Filing, error)

	// ListByEntity returns dated rows for one entity ordered by
	// (approval_date, ttb_id), keyset-paginated
	ListByEntity(ctx context.Context, entityID int64, after AfterKey, limit int) ([]Filing, AfterKey, error)

	// ListEntityIDs returns the distinct resolved entity ids having filings
	ListEntityIDs(ctx context.Context) ([]int64, error)
}

// WriterPort defines the write interface for filings
// signal columns are owned by this subsystem and written nowhere else
type WriterPort interface {
	SetEntity(ctx context.Context, ttbID string, entityID int64) error
	SetDeferred(ctx context.Context, ttbID string, d Deferral) error
	WriteSignals(ctx context.Context, rows []Classified) error
}

// Ports is a convenience interface combining reader and writer
type Ports interface {
	ReaderPort
	WriterPort
}
