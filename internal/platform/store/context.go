package store

import "context"

type (
	runIDKey    struct{}
	entityIDKey struct{}
)

// WithRunID attaches a classification run id to the context
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunID retrieves the classification run id from context if present
func RunID(ctx context.Context) (string, bool) {
	v := ctx.Value(runIDKey{})
	if v == nil {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// WithEntityID attaches the entity currently being classified to the context
// so query traces and logs can be correlated to one filer
func WithEntityID(ctx context.Context, entityID int64) context.Context {
	return context.WithValue(ctx, entityIDKey{}, entityID)
}

// EntityID retrieves the entity id from context if present
func EntityID(ctx context.Context) (int64, bool) {
	v := ctx.Value(entityIDKey{})
	if v == nil {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
