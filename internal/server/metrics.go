package server

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics is registered on its own registry so several servers (and tests)
// can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	generations      *prometheus.CounterVec
	replacementsDone prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "glr_http_requests_total",
				Help: "HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "code"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "glr_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"route"},
		),
		generations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "glr_generations_total",
				Help: "Generation runs by template variant and outcome",
			},
			[]string{"variant", "outcome"},
		),
		replacementsDone: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "glr_placeholders_replaced_total",
				Help: "Placeholder tokens substituted in generated documents",
			},
		),
	}
	m.registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.generations,
		m.replacementsDone,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) observeRequest(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (m *Metrics) observeGeneration(variant, outcome string, replacements int) {
	if variant == "" {
		variant = "none"
	}
	m.generations.WithLabelValues(variant, outcome).Inc()
	if replacements > 0 {
		m.replacementsDone.Add(float64(replacements))
	}
}
