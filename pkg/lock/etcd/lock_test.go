//go:build integration

package etcd

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	v3 "go.etcd.io/etcd/client/v3"

	"github.com/code-payments/solray/pkg/etcdtest"
	"github.com/code-payments/solray/pkg/lock"
)

func TestLock(t *testing.T) {
	pool, err := dockertest.NewPool("")
	require.NoError(t, err)

	client, teardown, err := etcdtest.StartEtcd(pool)
	require.NoError(t, err)
	defer teardown()

	for _, tc := range []struct {
		name string
		f    func(t *testing.T, client *v3.Client)
	}{
		{name: "Happy", f: testHappy},
		{name: "MultipleManagers", f: testMultipleManagers},
		{name: "Cancellation", f: testCancellation},
		{name: "Close", f: testClose},
		{name: "WithLock", f: testWithLock},
	} {
		t.Run(tc.name, func(t *testing.T) { tc.f(t, client) })
	}
}

func TestNewManager_InvalidTTL(t *testing.T) {
	_, err := NewManager(nil, "/locks", 100*time.Millisecond, "owner")
	assert.Equal(t, ErrInvalidTTL, err)

	_, err = NewManager(nil, "/locks", 2*time.Minute, "owner")
	assert.Equal(t, ErrInvalidTTL, err)
}

func testHappy(t *testing.T, client *v3.Client) {
	require := require.New(t)

	m, err := NewManager(client, "/solray/locks", 10*time.Second, "deployer")
	require.NoError(err)
	defer m.Close()

	l, err := m.Create(context.Background(), "store/mint")
	require.NoError(err)
	require.False(l.IsLocked())

	lost, err := l.Acquire(context.Background())
	require.NoError(err)
	require.True(l.IsLocked())

	kvs, err := client.Get(context.Background(), "/solray/locks/store/mint", v3.WithPrefix())
	require.NoError(err)
	require.Len(kvs.Kvs, 1)
	require.Equal("deployer", string(kvs.Kvs[0].Value))

	require.NoError(l.Unlock(context.Background()))
	<-lost
	require.False(l.IsLocked())
	require.NoError(l.Unlock(context.Background()))
}

func testMultipleManagers(t *testing.T, client *v3.Client) {
	require := require.New(t)

	managers := make([]*Manager, 2)
	for i := range managers {
		m, err := NewManager(client, "/solray/locks", 10*time.Second, fmt.Sprintf("deployer-%d", i))
		require.NoError(err)
		defer m.Close()
		managers[i] = m
	}

	locks := make([]lock.DistributedLock, 2)
	for i, m := range managers {
		l, err := m.Create(context.Background(), "store/shared")
		require.NoError(err)
		locks[i] = l
	}

	lost, err := locks[0].Acquire(context.Background())
	require.NoError(err)

	acquired := make(chan struct{})
	go func() {
		defer close(acquired)
		_, err := locks[1].Acquire(context.Background())
		assert.NoError(t, err)
	}()

	select {
	case <-acquired:
		require.FailNow("second manager acquired a held lock")
	case <-time.After(2 * time.Second):
	}

	require.NoError(locks[0].Unlock(context.Background()))
	<-lost

	select {
	case <-acquired:
	case <-time.After(10 * time.Second):
		require.FailNow("second manager never acquired the lock")
	}
	require.NoError(locks[1].Unlock(context.Background()))
}

func testCancellation(t *testing.T, client *v3.Client) {
	require := require.New(t)

	m, err := NewManager(client, "/solray/locks", 10*time.Second, "deployer")
	require.NoError(err)
	defer m.Close()

	l, err := m.Create(context.Background(), "store/cancel")
	require.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lost, err := l.Acquire(ctx)
	require.NoError(err)
	cancel()

	<-lost

	_, err = l.Acquire(ctx)
	require.ErrorIs(err, context.Canceled)
}

func testClose(t *testing.T, client *v3.Client) {
	require := require.New(t)

	m, err := NewManager(client, "/solray/locks", 10*time.Second, "deployer")
	require.NoError(err)

	l, err := m.Create(context.Background(), "store/close")
	require.NoError(err)

	lost, err := l.Acquire(context.Background())
	require.NoError(err)

	m.Close()
	<-lost

	_, err = l.Acquire(context.Background())
	require.Equal(ErrManagerClosed, err)

	_, err = m.Create(context.Background(), "store/close")
	require.Equal(ErrManagerClosed, err)
}

func testWithLock(t *testing.T, client *v3.Client) {
	require := require.New(t)

	managers := make([]*Manager, 3)
	for i := range managers {
		m, err := NewManager(client, "/solray/locks", 10*time.Second, fmt.Sprintf("deployer-%d", i))
		require.NoError(err)
		defer m.Close()
		managers[i] = m
	}

	var mu sync.Mutex
	var holders, maxHolders int

	var wg sync.WaitGroup
	for _, m := range managers {
		wg.Add(1)
		go func(m *Manager) {
			defer wg.Done()
			err := lock.WithLock(context.Background(), m, "store/serial", func(context.Context) error {
				mu.Lock()
				holders++
				if holders > maxHolders {
					maxHolders = holders
				}
				mu.Unlock()

				time.Sleep(200 * time.Millisecond)

				mu.Lock()
				holders--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}(m)
	}
	wg.Wait()

	require.Equal(1, maxHolders)
}
