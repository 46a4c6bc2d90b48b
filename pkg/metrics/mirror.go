package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeDropped = "dropped"
)

// MirrorMetrics records the outcome of best-effort remote mirror calls.
type MirrorMetrics struct {
	duration *prometheus.HistogramVec
	calls    *prometheus.CounterVec
	inFlight prometheus.Gauge
}

// NewMirrorMetrics registers the mirror metrics on the provided registerer.
func NewMirrorMetrics(reg prometheus.Registerer) *MirrorMetrics {
	if reg == nil {
		return &MirrorMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "filmex",
		Name:      "mirror_call_duration_seconds",
		Help:      "Duration of remote mirror calls in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "filmex",
		Name:      "mirror_calls_total",
		Help:      "Remote mirror calls by operation and outcome.",
	}, []string{"op", "outcome"})
	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "filmex",
		Name:      "mirror_calls_in_flight",
		Help:      "Remote mirror calls currently running.",
	})
	reg.MustRegister(duration, calls, inFlight)
	return &MirrorMetrics{
		duration: duration,
		calls:    calls,
		inFlight: inFlight,
	}
}

// ObserveDuration records the duration for the named operation.
func (m *MirrorMetrics) ObserveDuration(op string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(op)).Observe(duration.Seconds())
}

// IncOutcome counts one finished, failed or dropped call.
func (m *MirrorMetrics) IncOutcome(op, outcome string) {
	if m == nil || m.calls == nil {
		return
	}
	m.calls.WithLabelValues(normalizeLabel(op), normalizeLabel(outcome)).Inc()
}

// TrackInFlight adjusts the in-flight gauge by delta.
func (m *MirrorMetrics) TrackInFlight(delta float64) {
	if m == nil || m.inFlight == nil {
		return
	}
	m.inFlight.Add(delta)
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
