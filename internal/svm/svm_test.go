package svm

import (
	"math"
	"testing"

	"ovrsvm/internal/kernel"
)

func linearParams() Params {
	return Params{Kernel: kernel.Spec{Kind: kernel.Linear}, C: 1, Tol: 1e-4, MaxPasses: 10, MaxIter: 10000}
}

func separable() ([][]float64, []float64) {
	features := [][]float64{
		{2, 0}, {3, 1}, {2.5, -1}, {4, 0.5},
		{-2, 0}, {-3, 1}, {-2.5, -1}, {-4, 0.5},
	}
	labels := []float64{1, 1, 1, 1, -1, -1, -1, -1}
	return features, labels
}

func TestTrain_LinearSeparable(t *testing.T) {
	t.Parallel()

	features, labels := separable()
	model, err := Train(features, labels, linearParams())
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	for i, x := range features {
		want := 1
		if labels[i] < 0 {
			want = -1
		}
		if got := model.Decide(x); got != want {
			t.Errorf("row %d: Decide = %d, want %d", i, got, want)
		}
	}

	if model.MarginScore([]float64{5, 0}) <= 0 {
		t.Error("Expected positive margin far on the positive side")
	}
	if model.MarginScore([]float64{-5, 0}) >= 0 {
		t.Error("Expected negative margin far on the negative side")
	}
	if model.SupportVectors() == 0 {
		t.Error("Expected at least one support vector")
	}
}

func TestTrain_Deterministic(t *testing.T) {
	t.Parallel()

	features, labels := separable()
	a, err := Train(features, labels, linearParams())
	if err != nil {
		t.Fatalf("first Train failed: %v", err)
	}
	b, err := Train(features, labels, linearParams())
	if err != nil {
		t.Fatalf("second Train failed: %v", err)
	}

	probes := [][]float64{{0.3, -0.7}, {1.2, 4}, {-0.1, 0.1}, {7, -7}}
	for _, x := range probes {
		if a.MarginScore(x) != b.MarginScore(x) {
			t.Errorf("margin for %v differs between identical training runs", x)
		}
	}
}

func TestTrain_RBFClusters(t *testing.T) {
	t.Parallel()

	// Inner cluster vs outer ring; not linearly separable around the
	// origin, but trivial for a Gaussian kernel.
	features := [][]float64{
		{0.1, 0}, {-0.1, 0.1}, {0, -0.1}, {0.05, 0.05},
		{3, 0}, {-3, 0}, {0, 3}, {0, -3},
	}
	labels := []float64{1, 1, 1, 1, -1, -1, -1, -1}

	spec, err := kernel.Resolve(kernel.RBF, 0, 2)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	p := linearParams()
	p.Kernel = spec

	model, err := Train(features, labels, p)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if model.Decide([]float64{0, 0}) != 1 {
		t.Error("Expected origin classified with the inner cluster")
	}
	if model.Decide([]float64{3, 3}) != -1 {
		t.Error("Expected far point classified with the outer ring")
	}
}

func TestTrain_Validation(t *testing.T) {
	t.Parallel()

	features, labels := separable()

	if _, err := Train(nil, nil, linearParams()); err == nil {
		t.Error("Expected error for empty training set")
	}
	if _, err := Train(features, labels[:3], linearParams()); err == nil {
		t.Error("Expected error for row/label count mismatch")
	}

	p := linearParams()
	p.C = 0
	if _, err := Train(features, labels, p); err == nil {
		t.Error("Expected error for non-positive cost")
	}

	bad := append([]float64(nil), labels...)
	bad[0] = 0.5
	if _, err := Train(features, bad, linearParams()); err == nil {
		t.Error("Expected error for label outside {+1,-1}")
	}

	ragged := [][]float64{{1, 2}, {3}}
	if _, err := Train(ragged, []float64{1, -1}, linearParams()); err == nil {
		t.Error("Expected error for inconsistent row dimensions")
	}
}

func TestEval_Kernels(t *testing.T) {
	t.Parallel()

	a := []float64{1, 2}
	b := []float64{3, -1}

	if got := Eval(kernel.Spec{Kind: kernel.Linear}, a, b); got != 1 {
		t.Errorf("linear: got %v, want 1", got)
	}

	poly := kernel.Spec{Kind: kernel.Polynomial, Degree: 3, Coef0: 1, Scale: 1}
	if got := Eval(poly, a, b); got != 8 { // (1*1 + 1)^3
		t.Errorf("polynomial: got %v, want 8", got)
	}

	rbf := kernel.Spec{Kind: kernel.RBF, Sigma: math.Sqrt2}
	// ||a-b||^2 = 4+9 = 13, exp(-13/(2*2))
	want := math.Exp(-13.0 / 4.0)
	if got := Eval(rbf, a, b); math.Abs(got-want) > 1e-12 {
		t.Errorf("rbf: got %v, want %v", got, want)
	}

	sig := kernel.Spec{Kind: kernel.Sigmoid, Coef0: 1, Scale: 1}
	if got := Eval(sig, a, b); math.Abs(got-math.Tanh(2)) > 1e-12 {
		t.Errorf("sigmoid: got %v, want %v", got, math.Tanh(2))
	}
}
