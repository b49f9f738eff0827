package classifier

import "ovrsvm/internal/dataset"

// Evaluate re-applies the decision rule to every row of a labeled
// matrix and returns the fraction of rows whose predicted label equals
// the true label, a value in [0, 1]. It has no side effects.
func Evaluate(features dataset.Matrix, labels dataset.Labels, m *Model) (float64, error) {
	if len(features) == 0 {
		return 0, dataset.ErrEmptyDataset
	}
	if len(features) != len(labels) {
		return 0, &DimensionMismatchError{Expected: len(features), Actual: len(labels)}
	}

	matches := 0
	for i, row := range features {
		predicted, err := m.Predict(row)
		if err != nil {
			return 0, err
		}
		if predicted == labels[i] {
			matches++
		}
	}
	return float64(matches) / float64(len(features)), nil
}
