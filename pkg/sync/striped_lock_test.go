package sync

import (
	"fmt"
	base "sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripedLock_Counters(t *testing.T) {
	workerCount := 64
	operationCount := 2000

	l := NewStripedLock(4)

	var wg base.WaitGroup
	start := make(chan struct{})
	data := make([]int, workerCount)

	for i := 0; i < workerCount; i++ {
		key := fmt.Sprintf("worker%d", i)
		for j := 0; j < operationCount; j++ {
			wg.Add(1)
			go func(workerID int) {
				defer wg.Done()
				<-start

				unlock := l.Lock(key)
				data[workerID]++
				unlock()
			}(i)
		}
	}

	close(start)
	wg.Wait()

	for _, val := range data {
		assert.EqualValues(t, operationCount, val)
	}
}

func TestStripedLock_SameKeySameMutex(t *testing.T) {
	l := NewStripedLock(16)
	for i := 0; i < 100; i++ {
		key := []byte(fmt.Sprintf("key%d", i))
		assert.Same(t, l.Get(key), l.Get(key))
	}

	single := NewStripedLock(0)
	assert.Same(t, single.Get([]byte("a")), single.Get([]byte("b")))
}
