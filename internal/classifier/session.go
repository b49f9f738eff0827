package classifier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"ovrsvm/internal/dataset"
	"ovrsvm/internal/kernel"
)

// State enumerates the session lifecycle: a dataset is loaded, a model
// is trained over it, predictions are served from the trained model.
type State int

const (
	StateEmpty State = iota
	StateLoaded
	StateTrained
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoaded:
		return "loaded"
	case StateTrained:
		return "trained"
	case StateErrored:
		return "errored"
	default:
		return fmt.Sprintf("classifier.State(%d)", int(s))
	}
}

// ErrNoModel is returned by Predict before any model has been trained.
var ErrNoModel = errors.New("no trained model")

// ErrNoDataset is returned by Train before any dataset has been loaded.
var ErrNoDataset = errors.New("no dataset loaded")

// committed is everything a training run publishes. It is swapped in
// as one unit so readers never see a model whose accuracy has not been
// computed for it, or a stale accuracy paired with a new model.
type committed struct {
	model     *Model
	accuracy  float64
	cost      float64
	trainedAt time.Time
}

// Session is the explicit state machine behind the boundary
// operations: load -> train -> predict. All mutation is whole-object
// replacement under the lock; prediction is a pure read.
type Session struct {
	mu sync.RWMutex

	state       State
	features    dataset.Matrix
	labels      dataset.Labels
	featureCols []string
	labelCol    string
	current     *committed
	lastErr     error

	solver  Solver
	metrics MetricsSink
}

// NewSession creates an empty session backed by the given solver.
// metrics may be nil.
func NewSession(solver Solver, metrics MetricsSink) *Session {
	return &Session{state: StateEmpty, solver: solver, metrics: metrics}
}

// Load validates and extracts the dataset, replacing any previously
// loaded data and discarding any previously trained model as a whole.
func (s *Session) Load(ds dataset.Dataset, featureCols []string, labelCol string) error {
	features, labels, err := dataset.ExtractFeatures(ds, featureCols, labelCol)
	if err != nil {
		s.mu.Lock()
		s.state = StateErrored
		s.lastErr = err
		s.current = nil
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.state = StateLoaded
	s.features = features
	s.labels = labels
	s.featureCols = append([]string(nil), featureCols...)
	s.labelCol = labelCol
	s.current = nil
	s.lastErr = nil
	s.mu.Unlock()

	log.Info().
		Int("rows", len(features)).
		Int("dim", features.Dim()).
		Str("label_column", labelCol).
		Msg("session dataset loaded")

	return nil
}

// Train runs a full one-vs-rest training over the loaded dataset,
// evaluates training-set accuracy, and commits model, accuracy and
// state as one atomic unit. The call blocks for the duration of
// training; schedule it on its own goroutine to keep the caller
// responsive. On failure a previously committed model stays intact.
func (s *Session) Train(ctx context.Context, spec kernel.Spec, cost float64) error {
	s.mu.RLock()
	features, labels := s.features, s.labels
	s.mu.RUnlock()

	if len(features) == 0 {
		return ErrNoDataset
	}

	start := time.Now()
	model, err := Train(ctx, features, labels, spec, cost, s.solver)
	if err != nil {
		if s.metrics != nil {
			s.metrics.TrainingFailuresInc()
		}
		s.mu.Lock()
		s.lastErr = err
		if s.current == nil {
			s.state = StateErrored
		}
		s.mu.Unlock()
		return err
	}

	accuracy, err := Evaluate(features, labels, model)
	if err != nil {
		if s.metrics != nil {
			s.metrics.TrainingFailuresInc()
		}
		s.mu.Lock()
		s.lastErr = err
		if s.current == nil {
			s.state = StateErrored
		}
		s.mu.Unlock()
		return err
	}

	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.TrainingsInc()
		s.metrics.TrainingDuration(elapsed)
		s.metrics.ModelAccuracySet(accuracy)
	}

	s.mu.Lock()
	s.state = StateTrained
	s.current = &committed{model: model, accuracy: accuracy, cost: cost, trainedAt: time.Now()}
	s.lastErr = nil
	s.mu.Unlock()

	log.Info().
		Float64("accuracy", accuracy).
		Dur("elapsed", elapsed).
		Int("classes", model.Classes()).
		Msg("model committed")

	return nil
}

// Predict classifies one raw prediction input: a map from feature
// column name to raw string value that must cover exactly the feature
// columns the model was trained with. Prediction is synchronous and
// read-only; failures never touch the committed model.
func (s *Session) Predict(input map[string]string) (string, error) {
	scores, err := s.PredictScores(input)
	if err != nil {
		return "", err
	}
	return BestLabel(scores), nil
}

// PredictScores is Predict exposed at per-label granularity, for
// callers that want the full score breakdown.
func (s *Session) PredictScores(input map[string]string) ([]LabelScore, error) {
	start := time.Now()

	s.mu.RLock()
	current := s.current
	featureCols := s.featureCols
	s.mu.RUnlock()

	if current == nil {
		return nil, ErrNoModel
	}

	vec, err := vectorize(input, featureCols)
	if err != nil {
		return nil, err
	}

	scores, err := current.model.Scores(vec)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.PredictionsInc()
		s.metrics.PredictionLatency(time.Since(start))
		for _, sc := range scores {
			if sc.Fallback {
				s.metrics.FallbackScoresInc()
			}
		}
	}
	return scores, nil
}

// vectorize converts a raw input map into an ordered feature vector.
func vectorize(input map[string]string, featureCols []string) ([]float64, error) {
	if len(input) != len(featureCols) {
		return nil, &DimensionMismatchError{Expected: len(featureCols), Actual: len(input)}
	}
	vec := make([]float64, len(featureCols))
	for i, col := range featureCols {
		raw, ok := input[col]
		if !ok {
			return nil, &dataset.UnknownFeatureColumnError{Column: col}
		}
		v, parsed := dataset.ParseCell(raw)
		if !parsed {
			return nil, &dataset.NonNumericFeatureError{Column: col, Row: -1}
		}
		vec[i] = v
	}
	return vec, nil
}

// Status is a point-in-time snapshot of the session, taken atomically.
type Status struct {
	State          State     `json:"state"`
	Rows           int       `json:"rows"`
	FeatureColumns []string  `json:"feature_columns,omitempty"`
	LabelColumn    string    `json:"label_column,omitempty"`
	Labels         []string  `json:"labels,omitempty"`
	Kernel         string    `json:"kernel,omitempty"`
	Cost           float64   `json:"cost,omitempty"`
	Accuracy       float64   `json:"accuracy,omitempty"`
	TrainedAt      time.Time `json:"trained_at,omitempty"`
	LastError      string    `json:"last_error,omitempty"`
}

// Snapshot returns the session status. Model, accuracy and state are
// read under one lock acquisition, so the reported accuracy always
// belongs to the reported model.
func (s *Session) Snapshot() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		State:          s.state,
		Rows:           len(s.features),
		FeatureColumns: append([]string(nil), s.featureCols...),
		LabelColumn:    s.labelCol,
	}
	if s.current != nil {
		st.Labels = s.current.model.Labels()
		st.Kernel = s.current.model.Kernel().Kind.String()
		st.Cost = s.current.cost
		st.Accuracy = s.current.accuracy
		st.TrainedAt = s.current.trainedAt
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}
