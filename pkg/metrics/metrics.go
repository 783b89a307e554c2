// Package metrics records tool call metrics with Prometheus and serves them,
// with a health check, on an ops HTTP endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "mapmcp"

// Metrics holds the collectors of one server. Each instance has its own
// registry so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	toolCalls      *prometheus.CounterVec
	toolDuration   *prometheus.HistogramVec
	cacheHits      *prometheus.CounterVec
	cacheMisses    *prometheus.CounterVec
	rateLimited    *prometheus.CounterVec
	datasetRecords *prometheus.GaugeVec
}

// New creates the collectors and registers them, together with the Go
// runtime and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tool",
			Name:      "calls_total",
			Help:      "Total tool calls by result status",
		}, []string{"tool", "status"}),

		toolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "tool",
			Name:      "call_duration_seconds",
			Help:      "Tool call latency in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"tool"}),

		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total result cache hits",
		}, []string{"tool"}),

		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total result cache misses",
		}, []string{"tool"}),

		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ratelimit",
			Name:      "rejected_total",
			Help:      "Total tool calls rejected by the rate limiter",
		}, []string{"tool"}),

		datasetRecords: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "records",
			Help:      "Records loaded per dataset",
		}, []string{"dataset"}),
	}

	m.registry.MustRegister(
		m.toolCalls,
		m.toolDuration,
		m.cacheHits,
		m.cacheMisses,
		m.rateLimited,
		m.datasetRecords,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveCall records one finished tool call.
func (m *Metrics) ObserveCall(tool, status string, d time.Duration) {
	m.toolCalls.WithLabelValues(tool, status).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(d.Seconds())
}

func (m *Metrics) CacheHit(tool string)  { m.cacheHits.WithLabelValues(tool).Inc() }
func (m *Metrics) CacheMiss(tool string) { m.cacheMisses.WithLabelValues(tool).Inc() }

func (m *Metrics) RateLimited(tool string) { m.rateLimited.WithLabelValues(tool).Inc() }

// SetDatasetCounts publishes the number of records per dataset.
func (m *Metrics) SetDatasetCounts(counts map[string]int) {
	for name, n := range counts {
		m.datasetRecords.WithLabelValues(name).Set(float64(n))
	}
}
