package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := New("bank", WithFailureThreshold(3))

	for i := 0; i < 2; i++ {
		open, change := b.RecordFailure()
		assert.False(t, open)
		assert.False(t, change.Opened)
	}
	open, change := b.RecordFailure()
	assert.True(t, open)
	assert.True(t, change.Opened)
	assert.Equal(t, StateOpen, b.State())
	assert.Equal(t, "open", b.State().String())
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := New("bank", WithFailureThreshold(2))
	b.RecordFailure()
	b.RecordSuccess()
	open, _ := b.RecordFailure()
	assert.False(t, open)
	assert.False(t, b.IsOpen())
}

func TestBreakerCooldownAllowsProbe(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	b := New("kyc", WithFailureThreshold(1), WithCooldown(10*time.Second), WithClock(clock))

	require.True(t, b.Allow())
	b.RecordFailure()
	require.True(t, b.IsOpen())
	assert.False(t, b.Allow())

	now = now.Add(10 * time.Second)
	assert.True(t, b.Allow())

	closed, change := b.RecordSuccess()
	assert.True(t, closed)
	assert.True(t, change.Closed)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerFailedProbeRestartsCooldown(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b := New("kyc", WithFailureThreshold(1), WithCooldown(time.Second), WithClock(func() time.Time { return now }))

	b.RecordFailure()
	now = now.Add(time.Second)
	require.True(t, b.Allow())

	open, change := b.RecordFailure()
	assert.True(t, open)
	assert.False(t, change.Opened)
	assert.False(t, b.Allow())
}

func TestBreakerReset(t *testing.T) {
	b := New("kyc", WithFailureThreshold(1))
	b.RecordFailure()
	b.Reset()
	assert.False(t, b.IsOpen())
	assert.True(t, b.Allow())
	assert.Equal(t, "kyc", b.Name())
}
