package store

import "context"

// RunInRun wraps ctx with the run id and calls fn inside the provided TxRunner
// so every statement in the transaction is attributable to one run
func RunInRun(ctx context.Context, tx TxRunner, runID string, fn func(ctx context.Context, q RowQuerier) error) error {
	ctx = WithRunID(ctx, runID)
	return tx.Tx(ctx, func(q RowQuerier) error {
		return fn(ctx, q)
	})
}

// RunForEntity wraps ctx with the entity id and calls fn inside the provided
// TxRunner; the classifier uses one transaction per entity partition
func RunForEntity(ctx context.Context, tx TxRunner, entityID int64, fn func(ctx context.Context, q RowQuerier) error) error {
	ctx = WithEntityID(ctx, entityID)
	return tx.Tx(ctx, func(q RowQuerier) error {
		return fn(ctx, q)
	})
}
