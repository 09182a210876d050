package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments shared across services.
type Metrics struct {
	Mutations         *prometheus.CounterVec
	PermissionDenials *prometheus.CounterVec
	PageDuration      *prometheus.HistogramVec
}

// New creates and registers all instruments on the default registry.
func New() *Metrics {
	return &Metrics{
		Mutations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "appaccounts_entity_mutations_total",
			Help: "Entity lifecycle mutations, by entity type and action",
		}, []string{"entity", "action"}),
		PermissionDenials: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "appaccounts_permission_denials_total",
			Help: "Mutations rejected by the permission gate, by entity type",
		}, []string{"entity"}),
		PageDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "appaccounts_page_query_duration_seconds",
			Help:    "Latency of keyset page queries, by entity type",
			Buckets: prometheus.DefBuckets,
		}, []string{"entity"}),
	}
}

// RecordMutation increments the mutation counter.
func (m *Metrics) RecordMutation(entity, action string) {
	if m == nil {
		return
	}
	m.Mutations.WithLabelValues(entity, action).Inc()
}

// RecordPermissionDenial increments the denial counter.
func (m *Metrics) RecordPermissionDenial(entity string) {
	if m == nil {
		return
	}
	m.PermissionDenials.WithLabelValues(entity).Inc()
}

// ObservePageDuration records one page query latency in seconds.
func (m *Metrics) ObservePageDuration(entity string, seconds float64) {
	if m == nil {
		return
	}
	m.PageDuration.WithLabelValues(entity).Observe(seconds)
}
