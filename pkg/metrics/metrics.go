// Package metrics exposes Prometheus collectors for pipeline runs.
package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// Operation outcomes used as label values.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Registry holds the collectors of one process on a private Prometheus
// registry.
type Registry struct {
	registry *prometheus.Registry

	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	ChainLength       prometheus.Gauge
	CurvePoints       prometheus.Gauge
	MeshVertices      *prometheus.GaugeVec
	MeshTriangles     *prometheus.GaugeVec
	ProfileFailures   *prometheus.CounterVec
}

// NewRegistry creates a registry with every collector registered.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}

	r.OperationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "railsweep_operations_total",
			Help: "Pipeline operations by operation and outcome",
		},
		[]string{"operation", "outcome"}, // evaluate, connect, bake, sweep
	)

	r.OperationDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "railsweep_operation_duration_seconds",
			Help:    "Pipeline operation latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"operation"},
	)

	r.ChainLength = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "railsweep_chain_length_meters",
			Help: "Total baked length of the connected chain",
		},
	)

	r.CurvePoints = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "railsweep_curve_points",
			Help: "Evenly spaced curve points along the chain",
		},
	)

	r.MeshVertices = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "railsweep_mesh_vertices",
			Help: "Vertices in the last generated mesh per profile",
		},
		[]string{"profile"},
	)

	r.MeshTriangles = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "railsweep_mesh_triangles",
			Help: "Triangles in the last generated mesh per profile",
		},
		[]string{"profile"},
	)

	r.ProfileFailures = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "railsweep_profile_failures_total",
			Help: "Profiles that failed to generate",
		},
		[]string{"profile"},
	)

	return r
}

// RecordOperation records one operation and its duration.
func (r *Registry) RecordOperation(operation string, err error, duration time.Duration) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	r.OperationsTotal.WithLabelValues(operation, outcome).Inc()
	r.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordChain sets the chain gauges after a connect or bake.
func (r *Registry) RecordChain(length float64, points int) {
	r.ChainLength.Set(length)
	r.CurvePoints.Set(float64(points))
}

// RecordMesh sets the size gauges of a generated profile mesh.
func (r *Registry) RecordMesh(profile string, vertices, triangles int) {
	r.MeshVertices.WithLabelValues(profile).Set(float64(vertices))
	r.MeshTriangles.WithLabelValues(profile).Set(float64(triangles))
}

// RecordProfileFailure counts a profile that produced no mesh.
func (r *Registry) RecordProfileFailure(profile string) {
	r.ProfileFailures.WithLabelValues(profile).Inc()
}

// Gatherer returns the underlying registry for exposition.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteText writes every metric family in the Prometheus text format.
func (r *Registry) WriteText(w io.Writer) error {
	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
