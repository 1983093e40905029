// Package metrics provides Prometheus instrumentation for training,
// prediction and the model cache.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors of the engine
type Metrics struct {
	registry *prometheus.Registry

	FitsTotal       *prometheus.CounterVec   // fits by kind and outcome
	FitDuration     *prometheus.HistogramVec // fit wall time by kind
	PredictionsRows prometheus.Counter       // rows scored
	PredictionsUps  *prometheus.CounterVec   // upserted predictions by action
	CacheLookups    *prometheus.CounterVec   // model cache lookups by result
	ArtifactOps     *prometheus.CounterVec   // artifact store operations by op
	HeldOutAccuracy *prometheus.GaugeVec     // last held-out accuracy by model
}

// New creates metrics on a private registry
func New() *Metrics {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry creates metrics registered on reg
func NewWithRegistry(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		FitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "studentperf_fits_total",
			Help: "Model fits by kind and outcome",
		}, []string{"kind", "outcome"}),
		FitDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "studentperf_fit_duration_seconds",
			Help:    "Wall time of maximum-likelihood fits",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		PredictionsRows: factory.NewCounter(prometheus.CounterOpts{
			Name: "studentperf_predicted_rows_total",
			Help: "Student rows scored by a model",
		}),
		PredictionsUps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "studentperf_prediction_upserts_total",
			Help: "Prediction rows written, by inserted or updated",
		}, []string{"action"}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "studentperf_model_cache_lookups_total",
			Help: "Loaded-model cache lookups by hit or miss",
		}, []string{"result"}),
		ArtifactOps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "studentperf_artifact_operations_total",
			Help: "Artifact store operations",
		}, []string{"op"}),
		HeldOutAccuracy: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "studentperf_heldout_accuracy",
			Help: "Accuracy on the held-out split of the last training run",
		}, []string{"model"}),
	}
}

// Registry returns the registry the collectors live on
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveFit records one fit
func (m *Metrics) ObserveFit(kind string, converged bool, took time.Duration) {
	outcome := "converged"
	if !converged {
		outcome = "not_converged"
	}
	m.FitsTotal.WithLabelValues(kind, outcome).Inc()
	m.FitDuration.WithLabelValues(kind).Observe(took.Seconds())
}

// ObservePredictions records a prediction run
func (m *Metrics) ObservePredictions(rows, inserted, updated int) {
	m.PredictionsRows.Add(float64(rows))
	m.PredictionsUps.WithLabelValues("inserted").Add(float64(inserted))
	m.PredictionsUps.WithLabelValues("updated").Add(float64(updated))
}

// ObserveArtifact counts one artifact store operation
func (m *Metrics) ObserveArtifact(op string) { m.ArtifactOps.WithLabelValues(op).Inc() }

// CacheHit and CacheMiss count model cache lookups
func (m *Metrics) CacheHit()  { m.CacheLookups.WithLabelValues("hit").Inc() }
func (m *Metrics) CacheMiss() { m.CacheLookups.WithLabelValues("miss").Inc() }

// WriteTextfile writes the registry in the node-exporter textfile format
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
