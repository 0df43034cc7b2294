// Package retry runs actions again on failure, waiting between attempts.
package retry

import (
	"context"
	"time"

	"github.com/code-payments/solray/pkg/retry/backoff"
)

// Action is one attempt of an operation.
type Action func() error

// Retrier runs an Action until it succeeds or a Strategy gives up.
type Retrier struct {
	delay      backoff.Strategy
	strategies []Strategy
}

// NewRetrier returns a Retrier waiting delay between attempts. A nil delay
// retries immediately. Without strategies every error is retried.
func NewRetrier(delay backoff.Strategy, strategies ...Strategy) *Retrier {
	return &Retrier{
		delay:      delay,
		strategies: strategies,
	}
}

// Do runs action until it succeeds, a strategy rejects the error, or ctx is
// done. It returns the number of attempts and the last action error. If ctx
// is done before the first attempt, ctx.Err() is returned.
func (r *Retrier) Do(ctx context.Context, action Action) (uint, error) {
	return Do(ctx, r.delay, action, r.strategies...)
}

// Do is Retrier.Do without a Retrier.
func Do(ctx context.Context, delay backoff.Strategy, action Action, strategies ...Strategy) (uint, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	for attempts := uint(1); ; attempts++ {
		err := action()
		if err == nil {
			return attempts, nil
		}

		for _, s := range strategies {
			if !s(attempts, err) {
				return attempts, err
			}
		}

		var wait time.Duration
		if delay != nil {
			wait = delay(attempts)
		}
		if !sleep(ctx, wait) {
			return attempts, err
		}
	}
}

// sleep waits d, reporting false if ctx ends first.
var sleep = func(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
