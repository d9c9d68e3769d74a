package policy

import (
	"context"
	"fmt"

	"stock-advisor-agent/internal/types"
)

// runWithContext runs a blocking file operation and gives up when ctx ends.
// A write abandoned this way still completes atomically or not at all.
func runWithContext[T any](ctx context.Context, op string, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, fmt.Errorf("%w: policy %s: %w", types.ErrIOFailure, op, err)
	}

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		return zero, fmt.Errorf("%w: policy %s: %w", types.ErrIOFailure, op, ctx.Err())
	}
}
