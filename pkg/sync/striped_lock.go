package sync

import (
	"fmt"
	base "sync"
)

const pointsPerStripe = 200

// StripedLock consistently maps a key space onto a fixed set of mutexes, so
// unrelated keys rarely contend while memory stays bounded.
type StripedLock struct {
	locks []base.RWMutex
	ring  *ring[int]
}

// NewStripedLock returns a StripedLock with a static number of stripes.
func NewStripedLock(stripes uint) *StripedLock {
	if stripes == 0 {
		stripes = 1
	}

	entries := make(map[string]int, stripes)
	for i := 0; i < int(stripes); i++ {
		entries[fmt.Sprintf("lock%d", i)] = i
	}

	return &StripedLock{
		locks: make([]base.RWMutex, stripes),
		ring:  newRing(entries, pointsPerStripe),
	}
}

// Get returns the mutex guarding key.
func (l *StripedLock) Get(key []byte) *base.RWMutex {
	return &l.locks[l.ring.shard(key)]
}

// Lock acquires the write lock for key and returns its release.
func (l *StripedLock) Lock(key string) (unlock func()) {
	mu := l.Get([]byte(key))
	mu.Lock()
	return mu.Unlock
}
