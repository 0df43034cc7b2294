// Package env reads configuration from environment variables.
package env

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/code-payments/solray/pkg/config"
	"github.com/code-payments/solray/pkg/config/wrapper"
)

type variable struct {
	name string
}

// NewConfig returns a config over the upper-cased variable key. The
// environment is read on every Get, and an empty variable has no value.
func NewConfig(key string) config.Config {
	return &variable{name: strings.ToUpper(key)}
}

func (v *variable) Get(_ context.Context) (interface{}, error) {
	val, ok := os.LookupEnv(v.name)
	if !ok || len(val) == 0 {
		return nil, config.ErrNoValue
	}
	return []byte(val), nil
}

func (*variable) Shutdown() {}

func NewUint64Config(key string, defaultValue uint64) config.Uint64 {
	return wrapper.NewUint64Config(NewConfig(key), defaultValue)
}

func NewFloat64Config(key string, defaultValue float64) config.Float64 {
	return wrapper.NewFloat64Config(NewConfig(key), defaultValue)
}

func NewStringConfig(key string, defaultValue string) config.String {
	return wrapper.NewStringConfig(NewConfig(key), defaultValue)
}

func NewBoolConfig(key string, defaultValue bool) config.Bool {
	return wrapper.NewBoolConfig(NewConfig(key), defaultValue)
}

// NewDurationConfig parses values with time.ParseDuration.
func NewDurationConfig(key string, defaultValue time.Duration) config.Duration {
	return wrapper.NewDurationConfig(NewConfig(key), defaultValue)
}
