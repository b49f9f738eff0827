package svm

import (
	"ovrsvm/internal/classifier"
	"ovrsvm/internal/dataset"
)

// LocalSolver adapts the in-process SMO trainer to the capability
// interface the one-vs-rest composer consumes.
type LocalSolver struct{}

func (LocalSolver) Train(features dataset.Matrix, labels []float64, p classifier.SolverParams) (classifier.BinaryClassifier, error) {
	return Train(features, labels, Params{
		Kernel:    p.Kernel,
		C:         p.C,
		Tol:       p.Tol,
		MaxPasses: p.MaxPasses,
		MaxIter:   p.MaxIter,
	})
}
