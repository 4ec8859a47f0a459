package domain

import (
	"context"

	entdom "colasignal/internal/services/entities/domain"
)

// ReviewerPort drives the manual alias review workflow
type ReviewerPort interface {
	// ListPending returns queued ambiguous matches awaiting a decision,
	// oldest first
	ListPending(ctx context.Context, limit int) ([]entdom.ReviewItem, error)

	// Apply executes reviewed decisions. Merges repoint the hold entity's
	// aliases and filings to the candidate and flag it for batch replay;
	// keeps only close the queue item. Each decision runs in its own
	// transaction so one bad id does not roll back the rest
	Apply(ctx context.Context, decisions []Decision) (Report, error)
}
