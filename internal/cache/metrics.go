package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts cache outcomes per resource. A nil *Metrics records nothing.
type Metrics struct {
	hits          *prometheus.CounterVec
	misses        *prometheus.CounterVec
	invalidations *prometheus.CounterVec
	evictions     prometheus.Counter
}

// NewMetrics registers the cache collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		hits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "console",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Queries answered from the cache.",
		}, []string{"resource"}),
		misses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "console",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Queries that went to the backend.",
		}, []string{"resource"}),
		invalidations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "console",
			Subsystem: "cache",
			Name:      "invalidations_total",
			Help:      "Tag invalidations after successful mutations.",
		}, []string{"resource"}),
		evictions: f.NewCounter(prometheus.CounterOpts{
			Namespace: "console",
			Subsystem: "cache",
			Name:      "evictions_total",
			Help:      "Entries dropped to stay under the size bound.",
		}),
	}
}

func (m *Metrics) hit(resource string) {
	if m != nil {
		m.hits.WithLabelValues(resource).Inc()
	}
}

func (m *Metrics) miss(resource string) {
	if m != nil {
		m.misses.WithLabelValues(resource).Inc()
	}
}

func (m *Metrics) invalidated(resource string) {
	if m != nil {
		m.invalidations.WithLabelValues(resource).Inc()
	}
}

func (m *Metrics) evicted() {
	if m != nil {
		m.evictions.Inc()
	}
}
