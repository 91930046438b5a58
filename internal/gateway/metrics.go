package gateway

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeRemote   = "remote"
	outcomeFallback = "fallback"
	outcomeLocal    = "local"
)

// Metrics counts how each gateway call was served. A nil *Metrics is valid and records nothing.
type Metrics struct {
	calls     *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fruitshop_gateway_calls_total",
				Help: "Gateway calls by operation and the branch that served them.",
			},
			[]string{"op", "outcome"},
		),
		fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fruitshop_gateway_fallbacks_total",
				Help: "Remote failures that fell back to the local store.",
			},
			[]string{"op", "reason"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fruitshop_gateway_remote_duration_seconds",
				Help:    "Duration of remote gateway requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.calls, m.fallbacks, m.duration)
	}
	return m
}

func (m *Metrics) served(op, outcome string) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) fellBack(op, reason string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(op, reason).Inc()
}

func (m *Metrics) observe(op string, started time.Time) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}
