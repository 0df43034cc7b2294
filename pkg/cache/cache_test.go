package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_InsertWithinBudget(t *testing.T) {
	c := NewCache[string, string](3)
	require.NoError(t, c.Insert("A", "valueA", 1))
	require.NoError(t, c.Insert("B", "valueB", 1))
	require.NoError(t, c.Insert("C", "valueC", 1))

	assert.Equal(t, 3, c.GetWeight())
	assert.Equal(t, 3, c.GetBudget())

	v, ok := c.Retrieve("B")
	assert.True(t, ok)
	assert.Equal(t, "valueB", v)
}

func TestCache_DuplicateRejected(t *testing.T) {
	c := NewCache[string, int](2)
	require.NoError(t, c.Insert("dupe", 1, 1))
	assert.Equal(t, ErrKeyExists, c.Insert("dupe", 2, 1))

	v, _ := c.Retrieve("dupe")
	assert.Equal(t, 1, v)
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache[string, string](2)
	c.SetVerbose(true)
	require.NoError(t, c.Insert("evicted", "valueEvicted", 1))
	require.NoError(t, c.Insert("A", "valueA", 1))
	require.NoError(t, c.Insert("B", "valueB", 1))

	assert.Equal(t, 2, c.GetWeight())

	_, found := c.Retrieve("evicted")
	assert.False(t, found)

	_, foundA := c.Retrieve("A")
	_, foundB := c.Retrieve("B")
	assert.True(t, foundA)
	assert.True(t, foundB)
}

func TestCache_EvictsLeastRecentlyRetrieved(t *testing.T) {
	c := NewCache[uint64, uint64](2)
	require.NoError(t, c.Insert(1, 10, 1))
	require.NoError(t, c.Insert(2, 20, 1))

	// Touching 1 leaves 2 as the eviction candidate.
	_, _ = c.Retrieve(1)
	require.NoError(t, c.Insert(3, 30, 1))

	_, found := c.Retrieve(2)
	assert.False(t, found)
	_, found = c.Retrieve(1)
	assert.True(t, found)
	_, found = c.Retrieve(3)
	assert.True(t, found)
}

func TestCache_HeavyEntryEvictsMany(t *testing.T) {
	c := NewCache[string, string](3)
	require.NoError(t, c.Insert("A", "a", 1))
	require.NoError(t, c.Insert("B", "b", 1))
	require.NoError(t, c.Insert("C", "c", 3))

	assert.Equal(t, 3, c.GetWeight())
	_, found := c.Retrieve("A")
	assert.False(t, found)
	_, found = c.Retrieve("B")
	assert.False(t, found)
}

func TestCache_Clear(t *testing.T) {
	c := NewCache[string, string](1)
	require.NoError(t, c.Insert("cleared", "valueCleared", 1))
	c.Clear()

	_, found := c.Retrieve("cleared")
	assert.False(t, found)
	assert.Equal(t, 0, c.GetWeight())
}

func TestCache_Concurrent(t *testing.T) {
	c := NewCache[string, int](64)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("%d-%d", i, j)
				_ = c.Insert(key, j, 1)
				_, _ = c.Retrieve(key)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.GetWeight(), 64)
}
