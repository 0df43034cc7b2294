// Package backoff computes the delay before a retry attempt.
package backoff

import (
	"math"
	"math/rand"
	"time"
)

// Strategy returns the delay to wait after the given failed attempt. Attempts
// start at 1.
type Strategy func(attempt uint) time.Duration

// Constant always waits interval.
func Constant(interval time.Duration) Strategy {
	return func(uint) time.Duration {
		return interval
	}
}

// Exponential waits base * factor^(attempt-1), saturating at the largest
// duration.
func Exponential(base time.Duration, factor float64) Strategy {
	return func(attempt uint) time.Duration {
		if attempt == 0 {
			attempt = 1
		}

		delay := float64(base) * math.Pow(factor, float64(attempt-1))
		if delay >= math.MaxInt64 || math.IsInf(delay, 0) || math.IsNaN(delay) {
			return math.MaxInt64
		}
		return time.Duration(delay)
	}
}

// BinaryExponential doubles the delay after every attempt.
func BinaryExponential(base time.Duration) Strategy {
	return Exponential(base, 2)
}

// Capped limits the delays of s to max.
func Capped(s Strategy, max time.Duration) Strategy {
	return func(attempt uint) time.Duration {
		if delay := s(attempt); delay < max {
			return delay
		}
		return max
	}
}

// Jittered spreads each delay of s uniformly over delay +/- fraction*delay.
func Jittered(s Strategy, fraction float64) Strategy {
	return func(attempt uint) time.Duration {
		delay := float64(s(attempt))
		return time.Duration(delay * (1 + fraction*(2*rand.Float64()-1)))
	}
}
