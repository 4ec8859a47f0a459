package domain

import "context"

// ResolverPort maps raw company names to stable entity ids
// ambiguous names are queued for review and never auto-merged
type ResolverPort interface {
	Resolve(ctx context.Context, rawName string) (Resolution, error)

	// Peek reports what Resolve would return without writing anything:
	// no entity allocation, no alias append, no review item
	Peek(ctx context.Context, rawName string) (Resolution, error)
}
