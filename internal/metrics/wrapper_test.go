package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestWrapper_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)
	w := NewWrapper(m)

	w.TrainingsInc()
	w.TrainingsInc()
	w.TrainingFailuresInc()
	w.PredictionsInc()
	w.FallbackScoresInc()
	w.DatasetsLoadedInc()
	w.ExtractionErrorsInc()

	if got := testutil.ToFloat64(m.TrainingsTotal); got != 2 {
		t.Errorf("trainings_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.TrainingFailures); got != 1 {
		t.Errorf("training_failures_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.PredictionsTotal); got != 1 {
		t.Errorf("predictions_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.FallbackScores); got != 1 {
		t.Errorf("fallback_scores_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.DatasetsLoaded); got != 1 {
		t.Errorf("datasets_loaded_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ExtractionErrors); got != 1 {
		t.Errorf("extraction_errors_total = %v, want 1", got)
	}
}

func TestWrapper_Gauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)
	w := NewWrapper(m)

	w.ModelAccuracySet(0.875)
	w.ModelClassesSet(4)

	if got := testutil.ToFloat64(m.ModelAccuracy); got != 0.875 {
		t.Errorf("model_accuracy = %v, want 0.875", got)
	}
	if got := testutil.ToFloat64(m.ModelClasses); got != 4 {
		t.Errorf("model_classes = %v, want 4", got)
	}
}

func TestWrapper_NilMetricsIsNoOp(t *testing.T) {
	w := NewWrapper(nil)

	// None of these may panic.
	w.TrainingsInc()
	w.TrainingFailuresInc()
	w.TrainingDuration(time.Second)
	w.ModelAccuracySet(1)
	w.ModelClassesSet(2)
	w.PredictionsInc()
	w.PredictionLatency(time.Millisecond)
	w.FallbackScoresInc()
	w.DatasetsLoadedInc()
	w.ExtractionErrorsInc()
}
