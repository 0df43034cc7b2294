package backoff

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConstant(t *testing.T) {
	s := Constant(time.Second)
	for attempt := uint(1); attempt < 10; attempt++ {
		assert.Equal(t, time.Second, s(attempt))
	}
}

func TestExponential(t *testing.T) {
	s := Exponential(2*time.Second, 3)
	for attempt, expected := range []time.Duration{2 * time.Second, 6 * time.Second, 18 * time.Second, 54 * time.Second} {
		assert.Equal(t, expected, s(uint(attempt+1)))
	}

	assert.Equal(t, 2*time.Second, s(0))
	assert.EqualValues(t, math.MaxInt64, s(200))
}

func TestBinaryExponential(t *testing.T) {
	s := BinaryExponential(100 * time.Millisecond)
	assert.Equal(t, 100*time.Millisecond, s(1))
	assert.Equal(t, 200*time.Millisecond, s(2))
	assert.Equal(t, 800*time.Millisecond, s(4))
}

func TestCapped(t *testing.T) {
	s := Capped(BinaryExponential(time.Second), 5*time.Second)
	assert.Equal(t, time.Second, s(1))
	assert.Equal(t, 4*time.Second, s(3))
	assert.Equal(t, 5*time.Second, s(4))
	assert.Equal(t, 5*time.Second, s(100))
}

func TestJittered(t *testing.T) {
	s := Jittered(Constant(100*time.Millisecond), 0.1)
	for i := 0; i < 1000; i++ {
		delay := s(1)
		assert.True(t, delay >= 90*time.Millisecond, delay)
		assert.True(t, delay <= 110*time.Millisecond, delay)
	}

	assert.Equal(t, time.Second, Jittered(Constant(time.Second), 0)(1))
}
