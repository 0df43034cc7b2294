package env

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/code-payments/solray/pkg/config"
)

func TestConfig(t *testing.T) {
	const key = "env_config_test_var"
	ctx := context.Background()

	c := NewConfig(key)
	_, err := c.Get(ctx)
	assert.Equal(t, config.ErrNoValue, err)

	// the same config observes later changes
	t.Setenv("ENV_CONFIG_TEST_VAR", "https://rpc.example")
	v, err := c.Get(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []byte("https://rpc.example"), v)

	t.Setenv("ENV_CONFIG_TEST_VAR", "")
	_, err = c.Get(ctx)
	assert.Equal(t, config.ErrNoValue, err)
}

func TestTypedConfigs(t *testing.T) {
	ctx := context.Background()
	t.Setenv("ENV_CONFIG_TEST_UINT", "7")
	t.Setenv("ENV_CONFIG_TEST_DURATION", "3s")
	t.Setenv("ENV_CONFIG_TEST_BOOL", "true")

	assert.EqualValues(t, 7, NewUint64Config("env_config_test_uint", 1).Get(ctx))
	assert.Equal(t, 3*time.Second, NewDurationConfig("env_config_test_duration", time.Second).Get(ctx))
	assert.True(t, NewBoolConfig("env_config_test_bool", false).Get(ctx))
	assert.Equal(t, "fallback", NewStringConfig("env_config_test_missing", "fallback").Get(ctx))
	assert.Equal(t, 1.5, NewFloat64Config("env_config_test_missing", 1.5).Get(ctx))
}
