// Package retry provides a bounded retry combinator with exponential backoff
// for calls to external, possibly-flaky dependencies.
package retry

import (
	"context"
	"time"
)

// Do runs fn up to attempts times, doubling delay after each failure, and
// returns the last result. The final failure is propagated unwrapped. A
// cancelled context cuts the backoff short and returns ctx.Err().
func Do[T any](ctx context.Context, attempts int, delay time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	var err error

	for i := 0; i < attempts; i++ {
		result, err = fn(ctx)
		if err == nil {
			return result, nil
		}
		if i == attempts-1 {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return result, ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}

	return result, err
}

// Run is Do for operations without a result value.
func Run(ctx context.Context, attempts int, delay time.Duration, fn func(ctx context.Context) error) error {
	_, err := Do(ctx, attempts, delay, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
