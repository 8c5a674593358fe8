package services

import (
	"context"

	"github.com/peopledesk/peopledesk/pkg/composables"
)

// inTx runs fn inside a transaction and returns its value. An ambient
// transaction in ctx is reused; otherwise one is opened from the pool.
// All validate-then-write sequences in this package run through here so the
// validating read and the write share one unit of work.
func inTx[T any](ctx context.Context, fn func(txCtx context.Context) (T, error)) (T, error) {
	var zero T
	var out T
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		var fnErr error
		out, fnErr = fn(txCtx)
		return fnErr
	})
	if err != nil {
		return zero, err
	}
	return out, nil
}
