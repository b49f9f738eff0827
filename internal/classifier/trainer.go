package classifier

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"ovrsvm/internal/dataset"
	"ovrsvm/internal/kernel"
)

// Train decomposes the multiclass problem into one binary problem per
// distinct label and trains them through the solver. Distinct labels
// are collected in first-seen order; that order is load-bearing, it
// determines the tie-break applied at prediction time.
//
// The per-label trainings are mutually independent and run in
// parallel. Each goroutine reads only the shared read-only matrix and
// writes only its own slot, so the recorded label order never depends
// on which training finishes first. Training is all-or-nothing: any
// per-label failure aborts the run and no model is returned. A
// canceled context likewise discards all in-progress work.
func Train(ctx context.Context, features dataset.Matrix, labels dataset.Labels, spec kernel.Spec, cost float64, solver Solver) (*Model, error) {
	if cost <= 0 {
		return nil, &kernel.InvalidHyperparameterError{Field: "cost"}
	}
	if len(features) == 0 {
		return nil, dataset.ErrEmptyDataset
	}
	if len(features) != len(labels) {
		return nil, &DimensionMismatchError{Expected: len(features), Actual: len(labels)}
	}

	distinct := distinctLabels(labels)
	if len(distinct) < 2 {
		return nil, &InsufficientLabelsError{Count: len(distinct)}
	}

	params := SolverParams{
		Kernel:    spec,
		C:         cost,
		Tol:       solverTol,
		MaxPasses: solverMaxPasses,
		MaxIter:   solverMaxIter,
	}

	start := time.Now()
	log.Info().
		Int("rows", len(features)).
		Int("dim", features.Dim()).
		Int("classes", len(distinct)).
		Str("kernel", spec.Kind.String()).
		Float64("cost", cost).
		Msg("starting one-vs-rest training")

	clfs := make([]BinaryClassifier, len(distinct))
	errs := make([]error, len(distinct))

	var wg sync.WaitGroup
	for i, label := range distinct {
		wg.Add(1)
		go func(i int, label string) {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return
			}
			binary := binaryLabels(labels, label)
			clf, err := solver.Train(features, binary, params)
			if err != nil {
				errs[i] = &TrainingError{Label: label, Err: err}
				return
			}
			clfs[i] = clf
		}(i, label)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	entries := make([]entry, len(distinct))
	for i, label := range distinct {
		entries[i] = entry{label: label, clf: clfs[i]}
	}

	log.Info().
		Int("classes", len(entries)).
		Dur("elapsed", time.Since(start)).
		Msg("one-vs-rest training complete")

	return &Model{spec: spec, dim: features.Dim(), entries: entries}, nil
}

// distinctLabels returns the distinct labels in first-seen order.
func distinctLabels(labels dataset.Labels) []string {
	seen := make(map[string]bool, len(labels))
	var out []string
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}

// binaryLabels maps the multiclass labels onto a one-vs-rest vector:
// +1 where the label matches target, -1 everywhere else.
func binaryLabels(labels dataset.Labels, target string) []float64 {
	out := make([]float64, len(labels))
	for i, l := range labels {
		if l == target {
			out[i] = 1
		} else {
			out[i] = -1
		}
	}
	return out
}
