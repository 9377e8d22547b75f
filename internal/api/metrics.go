package api

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records backend request outcomes. A nil *Metrics records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the client's collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "console",
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Backend requests by endpoint and response status.",
		}, []string{"endpoint", "method", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "console",
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Backend request latency by endpoint.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint", "method"}),
	}
}

// observe records one request. status 0 means the request never got a response.
func (m *Metrics) observe(ep Endpoint, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(ep.Name, ep.Method, label).Inc()
	m.duration.WithLabelValues(ep.Name, ep.Method).Observe(elapsed.Seconds())
}
