// Package metrics provides Prometheus metrics for the verification engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the verification engine metrics.
type Metrics struct {
	// Provider call metrics
	ProviderCallsTotal          *prometheus.CounterVec   // Calls by provider and outcome
	ProviderCallDurationSeconds *prometheus.HistogramVec // Call latency by provider

	// Step outcome metrics
	StepOutcomesTotal *prometheus.CounterVec // Completed step attempts by step and outcome

	// Manual review
	ReviewFlagsTotal *prometheus.CounterVec // Flags raised by reason code

	// Per-application serialisation
	LockWaitSeconds    prometheus.Histogram
	LockContendedTotal prometheus.Counter
}

// New creates a Metrics instance registered against the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the metrics against reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction does not panic.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ProviderCallsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dsakyc_provider_calls_total",
			Help: "Total number of provider calls by provider and outcome",
		}, []string{"provider", "outcome"}),

		ProviderCallDurationSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dsakyc_provider_call_duration_seconds",
			Help:    "Duration of provider calls by provider",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"provider"}),

		StepOutcomesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dsakyc_step_outcomes_total",
			Help: "Verification step attempts by step and outcome",
		}, []string{"step", "outcome"}),

		ReviewFlagsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dsakyc_review_flags_total",
			Help: "Manual review flags raised by reason code",
		}, []string{"reason"}),

		LockWaitSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "dsakyc_application_lock_wait_seconds",
			Help:    "Time spent waiting for the per-application lock",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),

		LockContendedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "dsakyc_application_lock_contended_total",
			Help: "Operations rejected because another operation held the application lock",
		}),
	}
}

// ObserveProviderCall records one outbound provider call.
func (m *Metrics) ObserveProviderCall(providerID, outcome string, d time.Duration) {
	m.ProviderCallsTotal.WithLabelValues(providerID, outcome).Inc()
	m.ProviderCallDurationSeconds.WithLabelValues(providerID).Observe(d.Seconds())
}

// RecordStepOutcome records the result of a verification step.
func (m *Metrics) RecordStepOutcome(step, outcome string) {
	m.StepOutcomesTotal.WithLabelValues(step, outcome).Inc()
}

// RecordReviewFlag records a manual review flag.
func (m *Metrics) RecordReviewFlag(reason string) {
	m.ReviewFlagsTotal.WithLabelValues(reason).Inc()
}

// ObserveLockWait records how long an operation waited for its application lock.
func (m *Metrics) ObserveLockWait(d time.Duration, contended bool) {
	m.LockWaitSeconds.Observe(d.Seconds())
	if contended {
		m.LockContendedTotal.Inc()
	}
}
