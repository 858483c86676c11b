package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the daemon's operation counters. One instance per
// registry; tests pass a fresh registry to keep registrations isolated.
type Metrics struct {
	requests        *prometheus.CounterVec
	failures        *prometheus.CounterVec
	persists        prometheus.Counter
	consentDeclines prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "maskd_requests_total",
			Help: "Requests handled, by operation.",
		}, []string{"op"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "maskd_request_failures_total",
			Help: "Requests that failed, by operation.",
		}, []string{"op"}),
		persists: factory.NewCounter(prometheus.CounterOpts{
			Name: "maskd_state_persists_total",
			Help: "Full-state writes to the encrypted store.",
		}),
		consentDeclines: factory.NewCounter(prometheus.CounterOpts{
			Name: "maskd_consent_declines_total",
			Help: "Operations not performed because the user declined.",
		}),
	}
}

func (m *Metrics) recordRequest(op string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(op).Inc()
}

func (m *Metrics) recordFailure(op string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(op).Inc()
}

func (m *Metrics) recordPersist() {
	if m == nil {
		return
	}
	m.persists.Inc()
}

func (m *Metrics) recordConsentDecline() {
	if m == nil {
		return
	}
	m.consentDeclines.Inc()
}
