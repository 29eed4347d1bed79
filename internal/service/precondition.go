package service

import (
	"context"
	"fmt"
)

// Require succeeds when lookup yields an entity. A nil result fails with
// failure. A lookup error is returned wrapped together with failure so callers
// can match either.
func Require[T any](ctx context.Context, failure error, lookup func(context.Context) (*T, error)) error {
	return RequireAll(ctx, failure, func(ctx context.Context) ([]*T, error) {
		found, err := lookup(ctx)
		if err != nil {
			return nil, err
		}
		return []*T{found}, nil
	})
}

// RequireAll succeeds when every looked-up entity is present. An empty result
// succeeds.
func RequireAll[T any](ctx context.Context, failure error, lookup func(context.Context) ([]*T, error)) error {
	found, err := lookup(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", failure, err)
	}
	for _, f := range found {
		if f == nil {
			return failure
		}
	}
	return nil
}
