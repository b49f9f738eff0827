package svm

import (
	"fmt"
	"math"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"ovrsvm/internal/classifier"
	"ovrsvm/internal/dataset"
)

// RemoteSolver delegates binary training and scoring to an external
// solver service over HTTP. The composer cannot tell it apart from the
// in-process solver; trained handles stay on the remote side and are
// addressed by id.
type RemoteSolver struct {
	rest *resty.Client
	base string
}

// NewRemoteSolver creates a client for a solver service at base.
func NewRemoteSolver(base string, timeout time.Duration) *RemoteSolver {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(30 * time.Second)
	}
	return &RemoteSolver{rest: r, base: base}
}

type remoteTrainReq struct {
	Features [][]float64             `json:"features"`
	Labels   []float64               `json:"labels"`
	Params   classifier.SolverParams `json:"params"`
}

type remoteTrainResp struct {
	ModelID string `json:"model_id"`
	Error   string `json:"error,omitempty"`
}

type remoteScoreReq struct {
	Vector []float64 `json:"vector"`
}

type remoteScoreResp struct {
	Score float64 `json:"score"`
	Class int     `json:"class"`
	Error string  `json:"error,omitempty"`
}

func (s *RemoteSolver) Train(features dataset.Matrix, labels []float64, p classifier.SolverParams) (classifier.BinaryClassifier, error) {
	resp := &remoteTrainResp{}
	httpResp, err := s.rest.R().
		SetBody(remoteTrainReq{Features: features, Labels: labels, Params: p}).
		SetResult(resp).
		Post(s.base + "/v1/train")
	if err != nil {
		return nil, fmt.Errorf("remote solver train: %w", err)
	}
	if httpResp.StatusCode() != 200 {
		return nil, fmt.Errorf("remote solver train: status %d, body: %s", httpResp.StatusCode(), httpResp.String())
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("remote solver train: %s", resp.Error)
	}
	if resp.ModelID == "" {
		return nil, fmt.Errorf("remote solver train: empty model id")
	}
	return &remoteModel{rest: s.rest, base: s.base, id: resp.ModelID}, nil
}

// remoteModel is the handle for a classifier living on the solver
// service.
type remoteModel struct {
	rest *resty.Client
	base string
	id   string
}

// MarginScore fetches the margin from the remote side. Transport or
// service failures surface as NaN, which routes the decision engine to
// its Decide fallback.
func (m *remoteModel) MarginScore(x []float64) float64 {
	resp := &remoteScoreResp{}
	httpResp, err := m.rest.R().
		SetBody(remoteScoreReq{Vector: x}).
		SetResult(resp).
		Post(fmt.Sprintf("%s/v1/models/%s/margin", m.base, m.id))
	if err != nil || httpResp.StatusCode() != 200 || resp.Error != "" {
		log.Warn().
			Err(err).
			Str("model_id", m.id).
			Msg("remote margin score failed")
		return math.NaN()
	}
	return resp.Score
}

func (m *remoteModel) Decide(x []float64) int {
	resp := &remoteScoreResp{}
	httpResp, err := m.rest.R().
		SetBody(remoteScoreReq{Vector: x}).
		SetResult(resp).
		Post(fmt.Sprintf("%s/v1/models/%s/decide", m.base, m.id))
	if err != nil || httpResp.StatusCode() != 200 || resp.Error != "" {
		log.Error().
			Err(err).
			Str("model_id", m.id).
			Msg("remote decide failed, defaulting to -1")
		return -1
	}
	if resp.Class >= 0 {
		return 1
	}
	return -1
}
