// Package metrics exposes Prometheus collectors for the chat service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "nova"
	subsystem = "chat"
)

// Metrics groups the collectors updated by the chat service.
type Metrics struct {
	requests      *prometheus.CounterVec
	replyDuration *prometheus.HistogramVec
	sessions      prometheus.Gauge
	turns         prometheus.Gauge
	clears        *prometheus.CounterVec
}

// MustNew registers the collectors on reg and panics on duplicate
// registration. Tests should pass a fresh prometheus.NewRegistry().
func MustNew(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "Chat requests handled, by outcome.",
		}, []string{"status"}),
		replyDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reply_duration_seconds",
			Help:      "Wall-clock time spent generating a reply.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"model"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sessions",
			Help:      "Sessions currently holding history.",
		}),
		turns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "turns",
			Help:      "Turns currently held across all sessions.",
		}),
		clears: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "history_clears_total",
			Help:      "History clear requests, by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.requests, m.replyDuration, m.sessions, m.turns, m.clears)
	return m
}

func (m *Metrics) ObserveReply(model string, d time.Duration) {
	m.requests.WithLabelValues("ok").Inc()
	m.replyDuration.WithLabelValues(model).Observe(d.Seconds())
}

func (m *Metrics) ObserveFailure() {
	m.requests.WithLabelValues("error").Inc()
}

func (m *Metrics) ObserveClear(found bool) {
	result := "cleared"
	if !found {
		result = "not_found"
	}
	m.clears.WithLabelValues(result).Inc()
}

// SetStoreSize records the current session and turn counts.
func (m *Metrics) SetStoreSize(sessions, turns int) {
	m.sessions.Set(float64(sessions))
	m.turns.Set(float64(turns))
}
