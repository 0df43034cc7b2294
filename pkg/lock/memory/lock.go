package memory

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/code-payments/solray/pkg/lock"
)

// Manager is an in-process lock.Manager. Locks for the same name exclude
// each other, including locks created by the same Manager.
type Manager struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewManager() *Manager {
	return &Manager{slots: make(map[string]chan struct{})}
}

// Create implements lock.Manager.
func (m *Manager) Create(_ context.Context, name string) (lock.DistributedLock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot, ok := m.slots[name]
	if !ok {
		slot = make(chan struct{}, 1)
		m.slots[name] = slot
	}
	return &Lock{slot: slot}, nil
}

type Lock struct {
	slot chan struct{}

	mu   sync.Mutex
	lost chan struct{}
}

// Acquire implements lock.DistributedLock.
func (l *Lock) Acquire(ctx context.Context) (<-chan struct{}, error) {
	l.mu.Lock()
	if l.lost != nil {
		l.mu.Unlock()
		return nil, errors.New("cannot call Acquire concurrently")
	}
	l.mu.Unlock()

	select {
	case l.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	lost := make(chan struct{})

	l.mu.Lock()
	l.lost = lost
	l.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			_ = l.Unlock(context.Background())
		case <-lost:
		}
	}()

	return lost, nil
}

// Unlock implements lock.DistributedLock.
func (l *Lock) Unlock(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.lost == nil {
		return nil
	}

	close(l.lost)
	l.lost = nil
	<-l.slot
	return nil
}

// IsLocked implements lock.DistributedLock.
func (l *Lock) IsLocked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.lost != nil
}
