package retry

import (
	"errors"
)

// Strategy decides whether a failed attempt is followed by another one.
// Strategies only decide; the Retrier does the waiting.
type Strategy func(attempts uint, err error) bool

// Limit allows at most maxAttempts attempts in total.
func Limit(maxAttempts uint) Strategy {
	return func(attempts uint, _ error) bool {
		return attempts < maxAttempts
	}
}

// RetriableErrors retries only errors matching one of retriable.
func RetriableErrors(retriable ...error) Strategy {
	return func(_ uint, err error) bool {
		for _, e := range retriable {
			if errors.Is(err, e) {
				return true
			}
		}
		return false
	}
}

// NonRetriableErrors retries every error except those matching one of
// nonRetriable.
func NonRetriableErrors(nonRetriable ...error) Strategy {
	return func(_ uint, err error) bool {
		for _, e := range nonRetriable {
			if errors.Is(err, e) {
				return false
			}
		}
		return true
	}
}

// Retriable retries errors matching pred.
func Retriable(pred func(error) bool) Strategy {
	return func(_ uint, err error) bool {
		return pred(err)
	}
}
