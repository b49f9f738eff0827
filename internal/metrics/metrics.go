// Package metrics provides Prometheus metrics collection for the
// classification service. It defines counters, gauges, and histograms
// for dataset ingestion, one-vs-rest training, and prediction serving,
// exposed via the Prometheus metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the classification service.
type Metrics struct {
	// Training metrics
	TrainingsTotal   prometheus.Counter   // Total number of completed training runs
	TrainingFailures prometheus.Counter   // Total number of failed training runs
	TrainingDuration prometheus.Histogram // Wall-clock duration of training runs in seconds
	ModelAccuracy    prometheus.Gauge     // Training-set accuracy of the committed model
	ModelClasses     prometheus.Gauge     // Number of classes in the committed model

	// Prediction metrics
	PredictionsTotal  prometheus.Counter   // Total number of predictions served
	PredictionLatency prometheus.Histogram // Prediction latency in seconds
	FallbackScores    prometheus.Counter   // Scores taken from the ±1 decide fallback path

	// Ingestion metrics
	DatasetsLoaded   prometheus.Counter // Total number of datasets loaded
	ExtractionErrors prometheus.Counter // Total number of feature extraction failures
}

// New creates and registers all Prometheus metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for
// testing without touching the global Prometheus registry).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		TrainingsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "trainings_total",
			Help: "Total number of completed training runs",
		}),
		TrainingFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "training_failures_total",
			Help: "Total number of failed training runs",
		}),
		TrainingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "training_duration_seconds",
			Help:    "Wall-clock duration of one-vs-rest training runs in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		}),
		ModelAccuracy: factory.NewGauge(prometheus.GaugeOpts{
			Name: "model_accuracy",
			Help: "Training-set accuracy of the currently committed model",
		}),
		ModelClasses: factory.NewGauge(prometheus.GaugeOpts{
			Name: "model_classes",
			Help: "Number of classes in the currently committed model",
		}),
		PredictionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total number of predictions served",
		}),
		PredictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prediction_latency_seconds",
			Help:    "Prediction latency in seconds (end-to-end)",
			Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
		FallbackScores: factory.NewCounter(prometheus.CounterOpts{
			Name: "fallback_scores_total",
			Help: "Total number of scores taken from the hard-decision fallback path",
		}),
		DatasetsLoaded: factory.NewCounter(prometheus.CounterOpts{
			Name: "datasets_loaded_total",
			Help: "Total number of datasets loaded",
		}),
		ExtractionErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "extraction_errors_total",
			Help: "Total number of feature extraction failures",
		}),
	}
}
