// Package metrics holds the Prometheus collectors of the atlas service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts API requests by method, route template and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lumen_atlas_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration observes API latency. Queries are in-memory, so the
	// buckets stay small.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lumen_atlas_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"method", "route"},
	)

	// Nodes is the node count of the currently loaded atlas.
	Nodes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lumen_atlas_nodes",
			Help: "Number of LED nodes in the loaded atlas",
		},
	)

	// Edges is the directed adjacency entry count per edge set.
	Edges = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lumen_atlas_edges",
			Help: "Number of directed adjacency entries per edge set",
		},
		[]string{"edge_set"},
	)

	// SnapshotLoads counts snapshot loads and reloads by result.
	SnapshotLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lumen_atlas_snapshot_loads_total",
			Help: "Snapshot loads by result",
		},
		[]string{"result"},
	)
)

// EdgeCounter is the adjacency access ObserveGraph needs.
type EdgeCounter interface {
	Len() int
	EdgeSetNames() []string
	Edges(edgeSet string) [][2]int64
}

// ObserveGraph sets the size gauges from g.
func ObserveGraph(g EdgeCounter) {
	Nodes.Set(float64(g.Len()))
	Edges.Reset()
	for _, name := range g.EdgeSetNames() {
		Edges.WithLabelValues(name).Set(float64(len(g.Edges(name))))
	}
}
