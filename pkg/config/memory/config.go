// Package memory provides a config.Config held in memory, for tests and for
// values set programmatically.
package memory

import (
	"context"
	"sync"

	"github.com/code-payments/solray/pkg/config"
)

// Config holds a single raw value. A nil value reads as config.ErrNoValue.
type Config struct {
	mu       sync.RWMutex
	value    interface{}
	failure  error
	reads    int
	shutdown bool
}

func NewConfig(value interface{}) *Config {
	return &Config{value: value}
}

// Get implements config.Config.Get.
func (c *Config) Get(_ context.Context) (interface{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reads++
	switch {
	case c.shutdown:
		return nil, config.ErrShutdown
	case c.failure != nil:
		return nil, c.failure
	case c.value == nil:
		return nil, config.ErrNoValue
	}
	return c.value, nil
}

// Shutdown implements config.Config.Shutdown.
func (c *Config) Shutdown() {
	c.mu.Lock()
	c.shutdown = true
	c.mu.Unlock()
}

func (c *Config) Set(value interface{}) {
	c.mu.Lock()
	c.value = value
	c.mu.Unlock()
}

// Clear unsets the value.
func (c *Config) Clear() {
	c.Set(nil)
}

// Fail makes every Get return err until Fail(nil) is called.
func (c *Config) Fail(err error) {
	c.mu.Lock()
	c.failure = err
	c.mu.Unlock()
}

// Reads counts Get calls, including failed ones.
func (c *Config) Reads() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reads
}
