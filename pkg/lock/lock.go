// Package lock provides named locks shared between processes, used to
// serialise writers of a deployment store.
package lock

import (
	"context"

	"github.com/pkg/errors"
)

// ErrLockLost is returned by WithLock when the lock was lost before the
// guarded function returned.
var ErrLockLost = errors.New("lock lost")

// Manager creates named locks. Whether two locks for the same name from one
// Manager exclude each other is up to the implementation: the etcd Manager's
// are re-entrant, so callers coordinate local concurrency themselves.
type Manager interface {
	// Create returns an unlocked DistributedLock for name.
	Create(ctx context.Context, name string) (DistributedLock, error)
}

// DistributedLock is a handle to a lock that spans processes.
type DistributedLock interface {
	// Acquire blocks until the lock is held. The returned channel is closed
	// when the lock is lost: on Unlock, when ctx is cancelled, or when the
	// implementation can no longer guarantee ownership.
	Acquire(ctx context.Context) (<-chan struct{}, error)

	// Unlock releases the lock if held. It is idempotent.
	Unlock(ctx context.Context) error

	// IsLocked reports whether the lock is held.
	IsLocked() bool
}

// WithLock runs fn while holding the lock for name. The context passed to fn
// is cancelled if the lock is lost, and ErrLockLost is returned in that case.
func WithLock(ctx context.Context, m Manager, name string, fn func(ctx context.Context) error) error {
	l, err := m.Create(ctx, name)
	if err != nil {
		return errors.Wrapf(err, "failed to create lock %s", name)
	}

	lost, err := l.Acquire(ctx)
	if err != nil {
		return errors.Wrapf(err, "failed to acquire lock %s", name)
	}
	defer l.Unlock(context.Background())

	guarded, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	watcherExited := make(chan struct{})

	var wasLost bool
	go func() {
		defer close(watcherExited)
		select {
		case <-lost:
			wasLost = true
			cancel()
		case <-done:
		}
	}()

	err = fn(guarded)

	close(done)
	<-watcherExited
	if wasLost && err == nil {
		return ErrLockLost
	}
	return err
}
