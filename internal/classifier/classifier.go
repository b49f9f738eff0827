// Package classifier composes independent binary classifiers into a
// multiclass model using the one-vs-rest strategy, and provides the
// margin-based decision rule that recombines their outputs into a
// single prediction.
//
// The binary solver itself is an external capability: this package
// defines the narrow interfaces it consumes (BinaryClassifier, Solver)
// and never looks inside a trained handle. internal/svm supplies the
// production implementations.
package classifier

import (
	"fmt"
	"time"

	"ovrsvm/internal/dataset"
	"ovrsvm/internal/kernel"
)

// BinaryClassifier is the trained handle produced by the solver. A
// handle is owned exclusively by one (label, handle) pair inside a
// Model and is never mutated after training.
type BinaryClassifier interface {
	// MarginScore returns the signed distance-like confidence for a
	// feature vector. The value may be non-finite; callers must be
	// prepared to fall back to Decide.
	MarginScore(x []float64) float64

	// Decide returns the hard class code, +1 or -1.
	Decide(x []float64) int
}

// Solver trains one binary classifier from a feature matrix and a
// +1/-1 label vector.
type Solver interface {
	Train(features dataset.Matrix, labels []float64, params SolverParams) (BinaryClassifier, error)
}

// SolverParams carries the hyperparameters handed to the solver for
// every one-vs-rest sub-problem.
type SolverParams struct {
	Kernel    kernel.Spec `json:"kernel"`
	C         float64     `json:"c"`
	Tol       float64     `json:"tol"`
	MaxPasses int         `json:"max_passes"`
	MaxIter   int         `json:"max_iter"`
}

// Internal training bounds. Fixed rather than user-configurable so
// training time stays bounded and predictable.
const (
	solverTol       = 1e-4
	solverMaxPasses = 10
	solverMaxIter   = 10000
)

// MetricsSink is the narrow metrics surface this package reports to.
// A nil sink is valid and disables reporting.
type MetricsSink interface {
	TrainingsInc()
	TrainingFailuresInc()
	TrainingDuration(time.Duration)
	ModelAccuracySet(float64)
	PredictionsInc()
	PredictionLatency(time.Duration)
	FallbackScoresInc()
}

// InsufficientLabelsError reports a training set with fewer than two
// distinct labels.
type InsufficientLabelsError struct {
	Count int
}

func (e *InsufficientLabelsError) Error() string {
	return fmt.Sprintf("need at least 2 distinct labels, got %d", e.Count)
}

// TrainingError wraps a failure from one per-label training step. The
// whole one-vs-rest run aborts on the first such failure; no partial
// model is published.
type TrainingError struct {
	Label string
	Err   error
}

func (e *TrainingError) Error() string {
	return fmt.Sprintf("training classifier for label %q: %v", e.Label, e.Err)
}

func (e *TrainingError) Unwrap() error { return e.Err }

// DimensionMismatchError reports a query vector whose width differs
// from the model's training dimension.
type DimensionMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("feature vector has dimension %d, model expects %d", e.Actual, e.Expected)
}

// entry is one (label, handle) pair. Entry order is the first-seen
// order of each label in the training label vector; that order drives
// the tie-break in Predict and must never change after training.
type entry struct {
	label string
	clf   BinaryClassifier
}

// Model is a trained multiclass model: an ordered sequence of
// (label, classifier) pairs plus the kernel spec all of them were
// trained with. Models are immutable; retraining produces a new one.
type Model struct {
	spec    kernel.Spec
	dim     int
	entries []entry
}

// Labels returns the model's class labels in first-seen order.
func (m *Model) Labels() []string {
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.label
	}
	return out
}

// Kernel returns the spec shared by all member classifiers.
func (m *Model) Kernel() kernel.Spec { return m.spec }

// Dim returns the feature dimension the model was trained on.
func (m *Model) Dim() int { return m.dim }

// Classes returns the number of member classifiers.
func (m *Model) Classes() int { return len(m.entries) }
