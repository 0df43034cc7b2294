package cache

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrKeyExists is returned when inserting a key that is already cached.
var ErrKeyExists = errors.New("key already exists in cache")

// Cache is a weight bounded LRU cache. Inserting past the budget evicts the
// least recently used entries.
type Cache[K comparable, V any] interface {
	SetVerbose(verbose bool)
	GetWeight() int
	GetBudget() int
	Insert(key K, value V, weight int) error
	Retrieve(key K) (V, bool)
	Clear()
}

type node[K comparable, V any] struct {
	next   *node[K, V]
	prev   *node[K, V]
	key    K
	value  V
	weight int
}

type cache[K comparable, V any] struct {
	log *logrus.Entry

	mu      sync.Mutex
	head    *node[K, V]
	tail    *node[K, V]
	lookup  map[K]*node[K, V]
	weight  int
	budget  int
	verbose bool
}

// NewCache returns an empty cache with the given weight budget.
func NewCache[K comparable, V any](budget int) Cache[K, V] {
	return &cache[K, V]{
		log:    logrus.StandardLogger().WithField("type", "cache"),
		lookup: make(map[K]*node[K, V]),
		budget: budget,
	}
}

func (c *cache[K, V]) SetVerbose(verbose bool) {
	c.mu.Lock()
	c.verbose = verbose
	c.mu.Unlock()
}

func (c *cache[K, V]) GetWeight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.weight
}

func (c *cache[K, V]) GetBudget() int {
	return c.budget
}

func (c *cache[K, V]) Insert(key K, value V, weight int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, found := c.lookup[key]; found {
		return ErrKeyExists
	}

	n := &node[K, V]{
		key:    key,
		value:  value,
		weight: weight,
	}
	c.pushFront(n)
	c.lookup[key] = n
	c.weight += weight

	for c.weight > c.budget && c.tail != nil {
		evicted := c.tail
		c.unlink(evicted)
		c.weight -= evicted.weight
		delete(c.lookup, evicted.key)

		if c.verbose {
			c.log.WithFields(logrus.Fields{
				"key":    evicted.key,
				"weight": evicted.weight,
				"spare":  c.budget - c.weight,
			}).Debug("evicted cache entry")
		}
	}

	return nil
}

func (c *cache[K, V]) Retrieve(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, found := c.lookup[key]
	if !found {
		var zero V
		return zero, false
	}

	if n != c.head {
		c.unlink(n)
		c.pushFront(n)
	}

	return n.value, true
}

func (c *cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.head = nil
	c.tail = nil
	c.lookup = make(map[K]*node[K, V])
	c.weight = 0
}

func (c *cache[K, V]) pushFront(n *node[K, V]) {
	n.prev = nil
	n.next = c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
}

func (c *cache[K, V]) unlink(n *node[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.next = nil
	n.prev = nil
}
