// Package telemetry defines the Prometheus collectors exposed on /metrics.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the pipeline's collectors. One instance is created per
// process and registered on its own registry so tests never collide on
// the global default.
type Metrics struct {
	Registry *prometheus.Registry

	RolloutSteps   *prometheus.CounterVec
	Divergences    prometheus.Counter
	RolloutSeconds prometheus.Histogram
	GraphBuilds    prometheus.Counter
	GraphEdges     *prometheus.GaugeVec
	CacheHits      *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RolloutSteps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rigno_rollout_steps_total",
				Help: "Total number of rollout steps taken, by final status",
			},
			[]string{"status"},
		),
		Divergences: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rigno_rollout_divergences_total",
				Help: "Total number of rollouts that produced non-finite values",
			},
		),
		RolloutSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rigno_rollout_duration_seconds",
				Help:    "Wall-clock duration of complete rollouts",
				Buckets: prometheus.DefBuckets,
			},
		),
		GraphBuilds: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rigno_graph_builds_total",
				Help: "Total number of graph sets built (cache misses)",
			},
		),
		GraphEdges: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rigno_graph_edges",
				Help: "Edge count of the most recently built graph, per stage",
			},
			[]string{"stage"},
		),
		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rigno_graph_cache_requests_total",
				Help: "Graph cache requests, by outcome",
			},
			[]string{"outcome"},
		),
	}

	m.Registry.MustRegister(
		m.RolloutSteps,
		m.Divergences,
		m.RolloutSeconds,
		m.GraphBuilds,
		m.GraphEdges,
		m.CacheHits,
	)
	return m
}
