package classifier

import "math"

// LabelScore is one classifier's contribution to a decision. Fallback
// marks scores that came from Decide's hard ±1 code because the margin
// was non-finite.
type LabelScore struct {
	Label    string  `json:"label"`
	Score    float64 `json:"score"`
	Fallback bool    `json:"fallback,omitempty"`
}

// Scores evaluates every member classifier against x, in model order.
// Each score is the classifier's margin when finite, otherwise its
// hard ±1 decision code used directly as a score.
//
// Note the two scoring paths live on different scales: a continuous
// margin can be anywhere on the real line while the fallback code is
// exactly ±1. When only some classifiers hit the fallback path the
// argmax in Predict compares across those scales; scores are not
// normalized.
func (m *Model) Scores(x []float64) ([]LabelScore, error) {
	if len(x) != m.dim {
		return nil, &DimensionMismatchError{Expected: m.dim, Actual: len(x)}
	}

	scores := make([]LabelScore, len(m.entries))
	for i, e := range m.entries {
		s := e.clf.MarginScore(x)
		if math.IsNaN(s) || math.IsInf(s, 0) {
			scores[i] = LabelScore{Label: e.label, Score: float64(e.clf.Decide(x)), Fallback: true}
			continue
		}
		scores[i] = LabelScore{Label: e.label, Score: s}
	}
	return scores, nil
}

// Predict returns the winning label for x: the strictly greatest score
// scanning in model order, so equal scores resolve to the label seen
// earliest in the training data.
func (m *Model) Predict(x []float64) (string, error) {
	scores, err := m.Scores(x)
	if err != nil {
		return "", err
	}
	return BestLabel(scores), nil
}

// BestLabel picks the winner out of a score slice: strictly greatest
// score, earliest entry on ties.
func BestLabel(scores []LabelScore) string {
	winner := 0
	for i := 1; i < len(scores); i++ {
		if scores[i].Score > scores[winner].Score {
			winner = i
		}
	}
	return scores[winner].Label
}
