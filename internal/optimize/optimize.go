// Package optimize provides the numerical minimizer used for
// maximum-likelihood estimation, behind a small interface so the
// estimation layer never depends on a specific algorithm.
package optimize

import "errors"

// Optimizer errors
var (
	ErrEmptyStart      = errors.New("starting point has no dimensions")
	ErrInfeasibleStart = errors.New("objective is not finite at the starting point")
)

// Objective evaluates a parameter vector; lower is better. Infeasible
// vectors are rejected by returning +Inf, which every Optimizer
// implementation must tolerate.
type Objective func(x []float64) float64

// Result is the outcome of a minimization. Converged=false is a valid
// outcome: X still holds the best vector found within the budget.
type Result struct {
	X           []float64
	F           float64
	Iterations  int
	Evaluations int
	Converged   bool
}

// Optimizer minimizes an objective from a starting point. Runs are
// deterministic: the same objective and start yield the same Result.
type Optimizer interface {
	Minimize(obj Objective, x0 []float64) (*Result, error)
}
