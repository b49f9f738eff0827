// Package kernel resolves a kernel selection into the exact numeric
// configuration the binary solver consumes. The resolver is the single
// place where user-facing hyperparameters (kernel kind, optional gamma)
// are translated into solver parameters (degree, coef0, scale, sigma),
// so every classifier in a one-vs-rest model is trained against an
// identical, immutable Spec.
package kernel

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
)

// Kind enumerates the supported kernel functions. The set is closed:
// Resolve handles every member exhaustively and rejects anything else,
// so there is no lookup-miss failure mode at training time.
type Kind int

const (
	Linear Kind = iota
	Polynomial
	RBF
	Sigmoid
)

// String returns the config-file spelling of the kind.
func (k Kind) String() string {
	switch k {
	case Linear:
		return "linear"
	case Polynomial:
		return "polynomial"
	case RBF:
		return "rbf"
	case Sigmoid:
		return "sigmoid"
	default:
		return fmt.Sprintf("kernel.Kind(%d)", int(k))
	}
}

// ParseKind maps a config string to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "linear":
		return Linear, nil
	case "polynomial", "poly":
		return Polynomial, nil
	case "rbf", "gaussian":
		return RBF, nil
	case "sigmoid":
		return Sigmoid, nil
	default:
		return 0, fmt.Errorf("unknown kernel kind %q", s)
	}
}

// Spec is the fully resolved kernel configuration shared by all binary
// classifiers in one multiclass model. It is immutable once resolved;
// unused fields are zero for kinds that do not need them.
type Spec struct {
	Kind   Kind    `json:"kind"`
	Degree int     `json:"degree,omitempty"` // Polynomial
	Coef0  float64 `json:"coef0,omitempty"`  // Polynomial, Sigmoid
	Scale  float64 `json:"scale,omitempty"`  // Polynomial, Sigmoid
	Sigma  float64 `json:"sigma,omitempty"`  // RBF
}

// Fixed parameters for the polynomial and sigmoid kernels. These are
// deliberately not tunable; a future variant that needs tunability
// should evolve Resolve's signature, not these defaults.
const (
	polyDegree   = 3
	polyCoef0    = 1
	polyScale    = 1
	sigmoidCoef0 = 1
	sigmoidScale = 1
)

// InvalidHyperparameterError reports a hyperparameter value the
// resolver or trainer cannot accept.
type InvalidHyperparameterError struct {
	Field string
}

func (e *InvalidHyperparameterError) Error() string {
	return fmt.Sprintf("invalid hyperparameter %q", e.Field)
}

// Resolve maps a kernel kind plus an optional user gamma into a Spec.
// gamma only applies to the RBF kernel; pass a non-positive value
// (conventionally zero) to request the default. dim is the feature
// dimension of the training matrix and must be positive.
//
// For RBF the solver is parameterized by sigma, not gamma, so Resolve
// performs the exact conversion sigma = sqrt(1 / (2*gamma)) with
// gamma defaulting to 1/max(1, dim). A supplied gamma that is
// non-positive or non-finite falls back to that same default rather
// than failing; the rejection is logged.
func Resolve(kind Kind, gamma float64, dim int) (Spec, error) {
	if dim < 1 {
		return Spec{}, &InvalidHyperparameterError{Field: "dimension"}
	}

	switch kind {
	case Linear:
		return Spec{Kind: Linear}, nil
	case Polynomial:
		return Spec{Kind: Polynomial, Degree: polyDegree, Coef0: polyCoef0, Scale: polyScale}, nil
	case Sigmoid:
		return Spec{Kind: Sigmoid, Coef0: sigmoidCoef0, Scale: sigmoidScale}, nil
	case RBF:
		eff := gamma
		if !(eff > 0) || math.IsInf(eff, 0) {
			if gamma != 0 {
				log.Warn().
					Float64("gamma", gamma).
					Msg("rejecting non-positive or non-finite gamma, using default")
			}
			eff = 1 / math.Max(1, float64(dim))
		}
		return Spec{Kind: RBF, Sigma: math.Sqrt(1 / (2 * eff))}, nil
	default:
		return Spec{}, fmt.Errorf("unknown kernel kind %v", kind)
	}
}
