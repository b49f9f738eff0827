package dataset

import (
	"errors"
	"strings"
	"testing"
)

func sample() Dataset {
	return Dataset{
		Columns: []string{"x", "y", "class"},
		Rows: []map[string]string{
			{"x": "1.5", "y": "-2", "class": "A"},
			{"x": "0", "y": "3.25", "class": "B"},
			{"x": "-4", "y": "1e2", "class": "A"},
		},
	}
}

func TestExtractFeatures(t *testing.T) {
	t.Parallel()

	matrix, labels, err := ExtractFeatures(sample(), []string{"x", "y"}, "class")
	if err != nil {
		t.Fatalf("ExtractFeatures failed: %v", err)
	}
	if len(matrix) != 3 || len(labels) != 3 {
		t.Fatalf("Expected 3 rows and 3 labels, got %d and %d", len(matrix), len(labels))
	}
	if matrix.Dim() != 2 {
		t.Errorf("Expected dimension 2, got %d", matrix.Dim())
	}
	if matrix[2][1] != 100 {
		t.Errorf("Expected scientific notation cell parsed to 100, got %v", matrix[2][1])
	}
	if labels[0] != "A" || labels[1] != "B" || labels[2] != "A" {
		t.Errorf("Labels out of order: %v", labels)
	}
}

func TestExtractFeatures_PreservesColumnOrder(t *testing.T) {
	t.Parallel()

	// Selecting columns in reverse order must produce vectors in that order.
	matrix, _, err := ExtractFeatures(sample(), []string{"y", "x"}, "class")
	if err != nil {
		t.Fatalf("ExtractFeatures failed: %v", err)
	}
	if matrix[0][0] != -2 || matrix[0][1] != 1.5 {
		t.Errorf("Expected [-2 1.5], got %v", matrix[0])
	}
}

func TestExtractFeatures_EmptyDataset(t *testing.T) {
	t.Parallel()

	_, _, err := ExtractFeatures(Dataset{Columns: []string{"x", "class"}}, []string{"x"}, "class")
	if !errors.Is(err, ErrEmptyDataset) {
		t.Fatalf("Expected ErrEmptyDataset, got %v", err)
	}
}

func TestExtractFeatures_EmptyFeatureSet(t *testing.T) {
	t.Parallel()

	_, _, err := ExtractFeatures(sample(), nil, "class")
	if !errors.Is(err, ErrEmptyFeatureSet) {
		t.Fatalf("Expected ErrEmptyFeatureSet, got %v", err)
	}
}

func TestExtractFeatures_MissingLabelColumn(t *testing.T) {
	t.Parallel()

	_, _, err := ExtractFeatures(sample(), []string{"x"}, "target")
	var missing *MissingLabelColumnError
	if !errors.As(err, &missing) {
		t.Fatalf("Expected MissingLabelColumnError, got %v", err)
	}
	if missing.Column != "target" {
		t.Errorf("Expected column \"target\", got %q", missing.Column)
	}
}

func TestExtractFeatures_LabelSelectedAsFeature(t *testing.T) {
	t.Parallel()

	_, _, err := ExtractFeatures(sample(), []string{"x", "class"}, "class")
	if err == nil {
		t.Fatal("Expected error when label column is also a feature")
	}
}

func TestExtractFeatures_UnknownFeatureColumn(t *testing.T) {
	t.Parallel()

	_, _, err := ExtractFeatures(sample(), []string{"x", "z"}, "class")
	var unknown *UnknownFeatureColumnError
	if !errors.As(err, &unknown) {
		t.Fatalf("Expected UnknownFeatureColumnError, got %v", err)
	}
	if unknown.Column != "z" {
		t.Errorf("Expected column \"z\", got %q", unknown.Column)
	}
}

func TestExtractFeatures_NonNumericNamesCell(t *testing.T) {
	t.Parallel()

	ds := sample()
	ds.Rows[1]["y"] = "oops"

	_, _, err := ExtractFeatures(ds, []string{"x", "y"}, "class")
	var nn *NonNumericFeatureError
	if !errors.As(err, &nn) {
		t.Fatalf("Expected NonNumericFeatureError, got %v", err)
	}
	if nn.Column != "y" || nn.Row != 1 {
		t.Errorf("Expected column \"y\" row 1, got column %q row %d", nn.Column, nn.Row)
	}
}

func TestExtractFeatures_RejectsNonFiniteValues(t *testing.T) {
	t.Parallel()

	// strconv accepts these spellings but the core requires finite cells.
	for _, bad := range []string{"NaN", "Inf", "-Inf", "+Inf"} {
		ds := sample()
		ds.Rows[0]["x"] = bad

		_, _, err := ExtractFeatures(ds, []string{"x"}, "class")
		var nn *NonNumericFeatureError
		if !errors.As(err, &nn) {
			t.Errorf("value %q: expected NonNumericFeatureError, got %v", bad, err)
		}
	}
}

func TestExtractFeatures_LabelTakenVerbatim(t *testing.T) {
	t.Parallel()

	ds := Dataset{
		Columns: []string{"x", "class"},
		Rows: []map[string]string{
			{"x": "1", "class": "0042"},
			{"x": "2", "class": " spaced "},
		},
	}
	_, labels, err := ExtractFeatures(ds, []string{"x"}, "class")
	if err != nil {
		t.Fatalf("ExtractFeatures failed: %v", err)
	}
	if labels[0] != "0042" {
		t.Errorf("Numeric-looking label must not be coerced, got %q", labels[0])
	}
	if labels[1] != " spaced " {
		t.Errorf("Label whitespace must be preserved, got %q", labels[1])
	}
}

func TestReadCSV(t *testing.T) {
	t.Parallel()

	src := "x,y,class\n1,2,A\n,,\n3,4,B\n"
	ds, err := ReadCSV(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if len(ds.Columns) != 3 {
		t.Fatalf("Expected 3 columns, got %d", len(ds.Columns))
	}
	if len(ds.Rows) != 2 {
		t.Fatalf("Expected all-empty row dropped, got %d rows", len(ds.Rows))
	}
	if ds.Rows[1]["class"] != "B" {
		t.Errorf("Expected row order preserved, got %v", ds.Rows[1])
	}
}

func TestReadCSV_HeaderErrors(t *testing.T) {
	t.Parallel()

	if _, err := ReadCSV(strings.NewReader("")); err == nil {
		t.Error("Expected error for empty source")
	}
	if _, err := ReadCSV(strings.NewReader("x,x,class\n1,2,A\n")); err == nil {
		t.Error("Expected error for duplicate header columns")
	}
	if _, err := ReadCSV(strings.NewReader("x,,class\n1,2,A\n")); err == nil {
		t.Error("Expected error for empty header column name")
	}
}

func TestDefaultColumns(t *testing.T) {
	t.Parallel()

	ds := sample()
	if got := ds.DefaultLabelColumn(); got != "class" {
		t.Errorf("Expected last column as default label, got %q", got)
	}
	feats := ds.DefaultFeatureColumns("class")
	if len(feats) != 2 || feats[0] != "x" || feats[1] != "y" {
		t.Errorf("Expected [x y], got %v", feats)
	}
}
