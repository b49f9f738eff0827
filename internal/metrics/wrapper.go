package metrics

import "time"

// Wrapper adapts Metrics to the narrow sink interface the classifier
// session consumes, keeping the Prometheus dependency out of the core.
type Wrapper struct {
	m *Metrics
}

// NewWrapper wraps a Metrics instance. A nil Metrics yields a wrapper
// whose methods are all no-ops.
func NewWrapper(m *Metrics) *Wrapper {
	return &Wrapper{m: m}
}

func (w *Wrapper) TrainingsInc() {
	if w.m != nil {
		w.m.TrainingsTotal.Inc()
	}
}

func (w *Wrapper) TrainingFailuresInc() {
	if w.m != nil {
		w.m.TrainingFailures.Inc()
	}
}

func (w *Wrapper) TrainingDuration(d time.Duration) {
	if w.m != nil {
		w.m.TrainingDuration.Observe(d.Seconds())
	}
}

func (w *Wrapper) ModelAccuracySet(v float64) {
	if w.m != nil {
		w.m.ModelAccuracy.Set(v)
	}
}

func (w *Wrapper) ModelClassesSet(n int) {
	if w.m != nil {
		w.m.ModelClasses.Set(float64(n))
	}
}

func (w *Wrapper) PredictionsInc() {
	if w.m != nil {
		w.m.PredictionsTotal.Inc()
	}
}

func (w *Wrapper) PredictionLatency(d time.Duration) {
	if w.m != nil {
		w.m.PredictionLatency.Observe(d.Seconds())
	}
}

func (w *Wrapper) FallbackScoresInc() {
	if w.m != nil {
		w.m.FallbackScores.Inc()
	}
}

func (w *Wrapper) DatasetsLoadedInc() {
	if w.m != nil {
		w.m.DatasetsLoaded.Inc()
	}
}

func (w *Wrapper) ExtractionErrorsInc() {
	if w.m != nil {
		w.m.ExtractionErrors.Inc()
	}
}
