package retry

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/code-payments/solray/pkg/retry/backoff"
)

type recordingSleeper struct {
	waits []time.Duration
}

func (r *recordingSleeper) install(t *testing.T) {
	original := sleep
	sleep = func(ctx context.Context, d time.Duration) bool {
		r.waits = append(r.waits, d)
		return ctx.Err() == nil
	}
	t.Cleanup(func() { sleep = original })
}

func TestDo(t *testing.T) {
	s := &recordingSleeper{}
	s.install(t)

	retriable := errors.New("retriable")
	r := NewRetrier(backoff.BinaryExponential(time.Second), Limit(4), RetriableErrors(retriable))

	attempts, err := r.Do(context.Background(), func() error { return nil })
	assert.NoError(t, err)
	assert.EqualValues(t, 1, attempts)
	assert.Empty(t, s.waits)

	attempts, err = r.Do(context.Background(), func() error { return errors.New("fatal") })
	assert.EqualError(t, err, "fatal")
	assert.EqualValues(t, 1, attempts)

	attempts, err = r.Do(context.Background(), func() error { return retriable })
	assert.Equal(t, retriable, err)
	assert.EqualValues(t, 4, attempts)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, s.waits)
}

func TestDo_EventualSuccess(t *testing.T) {
	s := &recordingSleeper{}
	s.install(t)

	var calls int
	attempts, err := Do(context.Background(), nil, func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.EqualValues(t, 3, attempts)
	assert.Equal(t, []time.Duration{0, 0}, s.waits)
}

func TestDo_Context(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int
	attempts, err := Do(ctx, nil, func() error {
		calls++
		return nil
	})
	assert.Equal(t, context.Canceled, err)
	assert.EqualValues(t, 0, attempts)
	assert.Zero(t, calls)

	ctx, cancel = context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	attempts, err = Do(ctx, backoff.Constant(time.Hour), func() error {
		return errors.New("unavailable")
	})
	assert.EqualError(t, err, "unavailable")
	assert.EqualValues(t, 1, attempts)
	assert.True(t, time.Since(start) < time.Second)
}

func TestDo_RealSleep(t *testing.T) {
	start := time.Now()
	attempts, err := Do(context.Background(), backoff.Constant(100*time.Millisecond), func() error {
		return errors.New("err")
	}, Limit(2))

	assert.Error(t, err)
	assert.EqualValues(t, 2, attempts)
	assert.True(t, time.Since(start) >= 100*time.Millisecond)
	assert.True(t, time.Since(start) < time.Second)
}
