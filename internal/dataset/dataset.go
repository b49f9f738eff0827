// Package dataset holds the tabular data model consumed by the
// classifier core: raw string-valued rows keyed by column name, and the
// numeric feature matrix plus label vector derived from them. A Dataset
// is built once per load and read-only afterward.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Dataset is an ordered sequence of rows. Columns keeps the first-seen
// order from the source; every row carries a value (possibly empty) for
// every declared column.
type Dataset struct {
	Columns []string
	Rows    []map[string]string
}

// Matrix is a feature matrix: one ordered []float64 per row, every cell
// finite, every row the same width.
type Matrix [][]float64

// Labels is a label vector positionally aligned with a Matrix.
type Labels []string

// Dim returns the feature dimension, 0 for an empty matrix.
func (m Matrix) Dim() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

var (
	// ErrEmptyDataset is returned when extraction runs over zero rows.
	ErrEmptyDataset = errors.New("dataset has no rows")

	// ErrEmptyFeatureSet is returned when no feature columns are selected.
	ErrEmptyFeatureSet = errors.New("no feature columns selected")
)

// MissingLabelColumnError reports a label column absent from the dataset.
type MissingLabelColumnError struct {
	Column string
}

func (e *MissingLabelColumnError) Error() string {
	return fmt.Sprintf("label column %q not present in dataset", e.Column)
}

// UnknownFeatureColumnError reports a selected or supplied feature
// column the dataset (or trained model) does not know about.
type UnknownFeatureColumnError struct {
	Column string
}

func (e *UnknownFeatureColumnError) Error() string {
	return fmt.Sprintf("unknown feature column %q", e.Column)
}

// NonNumericFeatureError reports a feature cell that did not parse as a
// finite number. Row is the zero-based row index, or -1 when the value
// came from a single prediction input rather than a dataset row.
type NonNumericFeatureError struct {
	Column string
	Row    int
}

func (e *NonNumericFeatureError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("non-numeric value for feature column %q", e.Column)
	}
	return fmt.Sprintf("non-numeric value for feature column %q at row %d", e.Column, e.Row)
}

// ParseCell parses a raw feature cell into a finite float64. Values
// that parse but are NaN or infinite are rejected the same as garbage;
// the core never lets a non-finite cell through.
func ParseCell(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ExtractFeatures converts a Dataset into a feature matrix and label
// vector. Feature cells are parsed strictly: any row/column pair that
// fails to parse as a finite number aborts extraction with a
// NonNumericFeatureError naming the offending cell. Label values are
// taken verbatim as strings.
func ExtractFeatures(ds Dataset, featureCols []string, labelCol string) (Matrix, Labels, error) {
	if len(ds.Rows) == 0 {
		return nil, nil, ErrEmptyDataset
	}
	if len(featureCols) == 0 {
		return nil, nil, ErrEmptyFeatureSet
	}
	if !hasColumn(ds.Columns, labelCol) {
		return nil, nil, &MissingLabelColumnError{Column: labelCol}
	}
	for _, col := range featureCols {
		if col == labelCol {
			return nil, nil, fmt.Errorf("label column %q also selected as a feature", labelCol)
		}
		if !hasColumn(ds.Columns, col) {
			return nil, nil, &UnknownFeatureColumnError{Column: col}
		}
	}

	matrix := make(Matrix, len(ds.Rows))
	labels := make(Labels, len(ds.Rows))
	for i, row := range ds.Rows {
		vec := make([]float64, len(featureCols))
		for j, col := range featureCols {
			v, ok := ParseCell(row[col])
			if !ok {
				return nil, nil, &NonNumericFeatureError{Column: col, Row: i}
			}
			vec[j] = v
		}
		matrix[i] = vec
		labels[i] = row[labelCol]
	}

	return matrix, labels, nil
}

func hasColumn(cols []string, name string) bool {
	for _, c := range cols {
		if c == name {
			return true
		}
	}
	return false
}
