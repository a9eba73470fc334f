// Package metrics exposes Prometheus instrumentation for the
// generation pipeline and HTTP surface.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the service registers. A nil *Metrics
// is valid and records nothing, which keeps tests free of registries.
type Metrics struct {
	registry *prometheus.Registry

	generationsStarted   prometheus.Counter
	generationsCompleted prometheus.Counter
	generationsFailed    prometheus.Counter
	stepDuration         *prometheus.HistogramVec
	httpRequests         *prometheus.CounterVec
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		generationsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "songsmith_generations_started_total",
			Help: "Generations whose pipeline run began.",
		}),
		generationsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "songsmith_generations_completed_total",
			Help: "Generations that reached the completed state.",
		}),
		generationsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "songsmith_generations_failed_total",
			Help: "Generations that reached the failed state.",
		}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "songsmith_step_duration_seconds",
			Help:    "Wall-clock duration of each pipeline step.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"step"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "songsmith_http_requests_total",
			Help: "HTTP requests by route and status class.",
		}, []string{"route", "status"}),
	}
	reg.MustRegister(
		m.generationsStarted,
		m.generationsCompleted,
		m.generationsFailed,
		m.stepDuration,
		m.httpRequests,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// GenerationStarted counts one pipeline run beginning.
func (m *Metrics) GenerationStarted() {
	if m != nil {
		m.generationsStarted.Inc()
	}
}

// GenerationCompleted counts one successful run.
func (m *Metrics) GenerationCompleted() {
	if m != nil {
		m.generationsCompleted.Inc()
	}
}

// GenerationFailed counts one failed run.
func (m *Metrics) GenerationFailed() {
	if m != nil {
		m.generationsFailed.Inc()
	}
}

// ObserveStep records the duration of one pipeline step.
func (m *Metrics) ObserveStep(step string, d time.Duration) {
	if m != nil {
		m.stepDuration.WithLabelValues(step).Observe(d.Seconds())
	}
}

// CountRequest records one HTTP request outcome.
func (m *Metrics) CountRequest(route, status string) {
	if m != nil {
		m.httpRequests.WithLabelValues(route, status).Inc()
	}
}
