// Package rate throttles outbound calls on the client side.
package rate

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter gates operations to a sustained rate.
type Limiter interface {
	// Allow reports whether an operation may happen now, consuming a token
	// when it may.
	Allow() bool

	// Wait blocks until an operation may happen, or ctx is done.
	Wait(ctx context.Context) error
}

// NewLimiter allows perSecond operations per second with bursts of up to
// perSecond operations, at least one. A perSecond of zero or less disables
// limiting.
func NewLimiter(perSecond float64) Limiter {
	if perSecond <= 0 {
		return Unlimited{}
	}

	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return &tokenBucket{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

type tokenBucket struct {
	limiter *rate.Limiter
}

func (b *tokenBucket) Allow() bool {
	return b.limiter.Allow()
}

func (b *tokenBucket) Wait(ctx context.Context) error {
	return b.limiter.Wait(ctx)
}

// Unlimited never limits operations.
type Unlimited struct{}

func (Unlimited) Allow() bool {
	return true
}

// Wait returns immediately unless ctx is already done.
func (Unlimited) Wait(ctx context.Context) error {
	return ctx.Err()
}
