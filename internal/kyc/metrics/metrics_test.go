package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveProviderCall(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.ObserveProviderCall("bank-provider", "success", 120*time.Millisecond)
	m.ObserveProviderCall("bank-provider", "success", 80*time.Millisecond)
	m.ObserveProviderCall("bank-provider", "timeout", 60*time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ProviderCallsTotal.WithLabelValues("bank-provider", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderCallsTotal.WithLabelValues("bank-provider", "timeout")))
}

func TestStepAndFlagCounters(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.RecordStepOutcome("pan", "verified")
	m.RecordReviewFlag("NAME_MISMATCH")
	m.RecordReviewFlag("NAME_MISMATCH")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StepOutcomesTotal.WithLabelValues("pan", "verified")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ReviewFlagsTotal.WithLabelValues("NAME_MISMATCH")))
}

func TestLockContention(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.ObserveLockWait(10*time.Millisecond, false)
	m.ObserveLockWait(5*time.Second, true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LockContendedTotal))
}
