package sources

import (
	"context"
	"errors"
	"fmt"
)

// Attempt is one way of getting a payload.
type Attempt func(ctx context.Context) (any, error)

// FirstOf tries primary, then fallback once. fallback may be nil. The
// returned error joins both failures.
func FirstOf(ctx context.Context, primary, fallback Attempt) (any, error) {
	v, err := primary(ctx)
	if err == nil {
		return v, nil
	}
	if fallback == nil || ctx.Err() != nil {
		return nil, err
	}
	fv, ferr := fallback(ctx)
	if ferr == nil {
		return fv, nil
	}
	return nil, errors.Join(err, fmt.Errorf("fallback: %w", ferr))
}
