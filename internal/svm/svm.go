// Package svm implements the binary classifier capability consumed by
// the one-vs-rest composer: a support vector machine trained with a
// bounded, deterministic variant of sequential minimal optimization.
//
// There is no randomness anywhere in the solver. The working-set sweep
// is index-ordered and the second multiplier is chosen by the largest
// error gap with lowest-index tie-break, so training twice over the
// same inputs yields the same model.
package svm

import (
	"fmt"
	"math"

	"ovrsvm/internal/kernel"
)

// Params are the hyperparameters for one binary training run.
type Params struct {
	Kernel    kernel.Spec
	C         float64
	Tol       float64
	MaxPasses int
	MaxIter   int
}

// Model is a trained binary SVM: the retained support vectors, their
// signed coefficients (alpha_i * y_i) and the bias term. A model is
// immutable after training.
type Model struct {
	spec    kernel.Spec
	vectors [][]float64
	coeffs  []float64
	bias    float64
}

// Eval computes the kernel function for one pair of vectors.
func Eval(spec kernel.Spec, a, b []float64) float64 {
	switch spec.Kind {
	case kernel.Polynomial:
		return math.Pow(spec.Scale*dot(a, b)+spec.Coef0, float64(spec.Degree))
	case kernel.RBF:
		return math.Exp(-sqDist(a, b) / (2 * spec.Sigma * spec.Sigma))
	case kernel.Sigmoid:
		return math.Tanh(spec.Scale*dot(a, b) + spec.Coef0)
	default:
		return dot(a, b)
	}
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func sqDist(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

// Train fits a binary SVM over a feature matrix and a +1/-1 label
// vector. Optimization stops after MaxPasses consecutive sweeps with
// no multiplier change, or after MaxIter sweeps total, whichever comes
// first.
func Train(features [][]float64, labels []float64, p Params) (*Model, error) {
	m := len(features)
	if m == 0 {
		return nil, fmt.Errorf("svm: empty training set")
	}
	if len(labels) != m {
		return nil, fmt.Errorf("svm: %d rows but %d labels", m, len(labels))
	}
	if p.C <= 0 {
		return nil, fmt.Errorf("svm: cost must be positive, got %v", p.C)
	}
	dim := len(features[0])
	for i, row := range features {
		if len(row) != dim {
			return nil, fmt.Errorf("svm: row %d has dimension %d, expected %d", i, len(row), dim)
		}
	}
	for i, y := range labels {
		if y != 1 && y != -1 {
			return nil, fmt.Errorf("svm: label at %d is %v, expected +1 or -1", i, y)
		}
	}
	if p.Tol <= 0 {
		p.Tol = 1e-4
	}
	if p.MaxPasses <= 0 {
		p.MaxPasses = 10
	}
	if p.MaxIter <= 0 {
		p.MaxIter = 10000
	}

	// Gram matrix. The training sets this solver sees are small enough
	// that the O(m^2) precomputation beats re-evaluating kernels inside
	// the optimization loop.
	gram := make([][]float64, m)
	for i := range gram {
		gram[i] = make([]float64, m)
		for j := 0; j <= i; j++ {
			v := Eval(p.Kernel, features[i], features[j])
			gram[i][j] = v
			gram[j][i] = v
		}
	}

	alpha := make([]float64, m)
	bias := 0.0

	// margin of training row i under the current multipliers
	margin := func(i int) float64 {
		s := bias
		for j := 0; j < m; j++ {
			if alpha[j] > 0 {
				s += alpha[j] * labels[j] * gram[i][j]
			}
		}
		return s
	}

	errs := make([]float64, m)
	refreshErrs := func() {
		for i := 0; i < m; i++ {
			errs[i] = margin(i) - labels[i]
		}
	}
	refreshErrs()

	passes := 0
	for iter := 0; passes < p.MaxPasses && iter < p.MaxIter; iter++ {
		changed := 0
		for i := 0; i < m; i++ {
			ei := errs[i]
			r := labels[i] * ei
			if !((r < -p.Tol && alpha[i] < p.C) || (r > p.Tol && alpha[i] > 0)) {
				continue
			}

			j := secondChoice(i, errs)
			if j < 0 {
				continue
			}
			ej := errs[j]

			aiOld, ajOld := alpha[i], alpha[j]
			var lo, hi float64
			if labels[i] != labels[j] {
				lo = math.Max(0, ajOld-aiOld)
				hi = math.Min(p.C, p.C+ajOld-aiOld)
			} else {
				lo = math.Max(0, aiOld+ajOld-p.C)
				hi = math.Min(p.C, aiOld+ajOld)
			}
			if lo == hi {
				continue
			}

			eta := 2*gram[i][j] - gram[i][i] - gram[j][j]
			if eta >= 0 {
				continue
			}

			aj := ajOld - labels[j]*(ei-ej)/eta
			if aj > hi {
				aj = hi
			} else if aj < lo {
				aj = lo
			}
			if math.Abs(aj-ajOld) < 1e-7 {
				continue
			}
			ai := aiOld + labels[i]*labels[j]*(ajOld-aj)

			b1 := bias - ei - labels[i]*(ai-aiOld)*gram[i][i] - labels[j]*(aj-ajOld)*gram[i][j]
			b2 := bias - ej - labels[i]*(ai-aiOld)*gram[i][j] - labels[j]*(aj-ajOld)*gram[j][j]

			alpha[i], alpha[j] = ai, aj
			switch {
			case ai > 0 && ai < p.C:
				bias = b1
			case aj > 0 && aj < p.C:
				bias = b2
			default:
				bias = (b1 + b2) / 2
			}

			refreshErrs()
			changed++
		}
		if changed == 0 {
			passes++
		} else {
			passes = 0
		}
	}

	// Retain only the support vectors.
	model := &Model{spec: p.Kernel, bias: bias}
	for i := 0; i < m; i++ {
		if alpha[i] > 0 {
			vec := make([]float64, dim)
			copy(vec, features[i])
			model.vectors = append(model.vectors, vec)
			model.coeffs = append(model.coeffs, alpha[i]*labels[i])
		}
	}
	return model, nil
}

// secondChoice picks the second multiplier deterministically: the
// index with the largest error gap to i, lowest index on ties.
func secondChoice(i int, errs []float64) int {
	best := -1
	bestGap := -1.0
	for j := range errs {
		if j == i {
			continue
		}
		gap := math.Abs(errs[i] - errs[j])
		if gap > bestGap {
			bestGap = gap
			best = j
		}
	}
	return best
}

// MarginScore returns the signed distance of x from the decision
// boundary in kernel space.
func (m *Model) MarginScore(x []float64) float64 {
	s := m.bias
	for i, sv := range m.vectors {
		s += m.coeffs[i] * Eval(m.spec, sv, x)
	}
	return s
}

// Decide returns the hard class code for x: +1 on or above the
// boundary, -1 below.
func (m *Model) Decide(x []float64) int {
	if m.MarginScore(x) >= 0 {
		return 1
	}
	return -1
}

// SupportVectors returns the number of retained support vectors.
func (m *Model) SupportVectors() int { return len(m.vectors) }
