// Package server exposes the classifier session over HTTP: training,
// prediction, model info and run history, plus a websocket stream for
// continuous prediction.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"ovrsvm/internal/classifier"
	"ovrsvm/internal/dataset"
	"ovrsvm/internal/kernel"
	"ovrsvm/internal/storage"
)

// RunStore is the slice of storage the server needs. A nil store
// disables run persistence without changing handler behavior.
type RunStore interface {
	StoreRun(record storage.RunRecord) error
	GetRuns(dataset string) ([]storage.RunRecord, error)
	GetAllRuns() ([]storage.RunRecord, error)
}

// Server provides the HTTP API around a classifier session.
type Server struct {
	session     *classifier.Session
	store       RunStore
	datasetName string
	server      *http.Server
}

// New creates the HTTP server on the given port. store may be nil.
func New(session *classifier.Session, store RunStore, datasetName string, port int) *Server {
	s := &Server{
		session:     session,
		store:       store,
		datasetName: datasetName,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/train", s.handleTrain)
	mux.HandleFunc("/predict", s.handlePredict)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/model/info", s.handleModelInfo)
	mux.HandleFunc("/runs", s.handleRuns)
	mux.HandleFunc("/ws/predict", s.handlePredictStream)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("starting API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler returns the root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// TrainRequest carries optional hyperparameter overrides. Omitted
// fields fall back to linear kernel, automatic gamma and cost 1.
type TrainRequest struct {
	Kernel string  `json:"kernel,omitempty"`
	Gamma  float64 `json:"gamma,omitempty"`
	Cost   float64 `json:"cost,omitempty"`
}

// TrainResponse reports the outcome of a completed training run.
type TrainResponse struct {
	Status   classifier.Status `json:"status"`
	Duration float64           `json:"duration_ms"`
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req := TrainRequest{Kernel: "linear", Cost: 1.0}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
			return
		}
	}
	if req.Kernel == "" {
		req.Kernel = "linear"
	}
	if req.Cost == 0 {
		req.Cost = 1.0
	}

	kind, err := kernel.ParseKind(req.Kernel)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	dim := len(s.session.Snapshot().FeatureColumns)
	if dim == 0 {
		http.Error(w, classifier.ErrNoDataset.Error(), http.StatusConflict)
		return
	}
	spec, err := kernel.Resolve(kind, req.Gamma, dim)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	start := time.Now()
	if err := s.session.Train(r.Context(), spec, req.Cost); err != nil {
		log.Error().Err(err).Msg("training failed")
		writeTrainError(w, err)
		return
	}
	elapsed := time.Since(start)

	status := s.session.Snapshot()
	s.recordRun(status, req.Gamma, elapsed)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(TrainResponse{
		Status:   status,
		Duration: float64(elapsed.Milliseconds()),
	})
}

func writeTrainError(w http.ResponseWriter, err error) {
	var insufficient *classifier.InsufficientLabelsError
	var invalid *kernel.InvalidHyperparameterError
	switch {
	case errors.Is(err, classifier.ErrNoDataset):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &insufficient), errors.As(err, &invalid):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, fmt.Sprintf("training failed: %v", err), http.StatusInternalServerError)
	}
}

func (s *Server) recordRun(status classifier.Status, gamma float64, elapsed time.Duration) {
	if s.store == nil {
		return
	}
	record := storage.RunRecord{
		Dataset:   s.datasetName,
		Kernel:    status.Kernel,
		Cost:      status.Cost,
		Gamma:     gamma,
		Classes:   status.Labels,
		Accuracy:  status.Accuracy,
		Rows:      status.Rows,
		Duration:  elapsed,
		Timestamp: status.TrainedAt,
	}
	if err := s.store.StoreRun(record); err != nil {
		log.Warn().Err(err).Msg("failed to persist training run")
	}
}

// PredictRequest carries one observation as column name to raw value.
type PredictRequest struct {
	Features  map[string]string `json:"features"`
	RequestID string            `json:"request_id,omitempty"`
}

// PredictResponse is the winning label plus the per-label scores that
// produced it.
type PredictResponse struct {
	Label     string                  `json:"label"`
	Scores    []classifier.LabelScore `json:"scores"`
	RequestID string                  `json:"request_id,omitempty"`
	Latency   float64                 `json:"latency_ms"`
	Timestamp time.Time               `json:"timestamp"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()

	var req PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}
	if len(req.Features) == 0 {
		http.Error(w, "features cannot be empty", http.StatusBadRequest)
		return
	}

	resp, status, err := s.predict(req)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}
	resp.Latency = float64(time.Since(start).Microseconds()) / 1000
	resp.Timestamp = time.Now()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// predict runs one observation through the session and maps errors to
// HTTP status codes, shared by the JSON and websocket endpoints.
func (s *Server) predict(req PredictRequest) (PredictResponse, int, error) {
	scores, err := s.session.PredictScores(req.Features)
	if err != nil {
		return PredictResponse{}, predictStatus(err), err
	}
	return PredictResponse{Label: classifier.BestLabel(scores), Scores: scores, RequestID: req.RequestID}, http.StatusOK, nil
}

func predictStatus(err error) int {
	var mismatch *classifier.DimensionMismatchError
	var unknown *dataset.UnknownFeatureColumnError
	var nonNumeric *dataset.NonNumericFeatureError
	switch {
	case errors.Is(err, classifier.ErrNoModel):
		return http.StatusConflict
	case errors.As(err, &mismatch), errors.As(err, &unknown), errors.As(err, &nonNumeric):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.session.Snapshot()

	code := http.StatusOK
	if status.State == classifier.StateErrored {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"state":   status.State.String(),
		"healthy": status.State != classifier.StateErrored,
	})
}

func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	status := s.session.Snapshot()
	if status.State != classifier.StateTrained {
		http.Error(w, classifier.ErrNoModel.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "run persistence disabled", http.StatusNotFound)
		return
	}

	var (
		runs []storage.RunRecord
		err  error
	)
	if name := r.URL.Query().Get("dataset"); name != "" {
		runs, err = s.store.GetRuns(name)
	} else {
		runs, err = s.store.GetAllRuns()
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read runs: %v", err), http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []storage.RunRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(runs)
}
