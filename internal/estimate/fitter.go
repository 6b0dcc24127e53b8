// Package estimate fits conditional-variance models to return series by
// Gaussian maximum likelihood. It wires a volatility.Model recursion to
// an optimize.Optimizer; everything here is deterministic.
package estimate

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"crypto-volatility-lab/internal/domain"
	"crypto-volatility-lab/internal/optimize"
	"crypto-volatility-lab/internal/volatility"
)

// Fitter errors
var (
	ErrInsufficientObservations = errors.New("too few observations for model order")
	ErrDegenerateSeries         = errors.New("return series has zero variance")
	ErrNonFiniteReturn          = errors.New("return series contains NaN or Inf")
	ErrInfeasibleStart          = errors.New("likelihood is not finite at the starting parameters")
)

const ln2pi = 1.8378770664093454835606594728112352797227949472755668

// Fitter estimates model parameters on a return series.
type Fitter struct {
	optimizer optimize.Optimizer
}

// FitterOptions contains configuration for creating a Fitter.
type FitterOptions struct {
	// Optimizer minimizes the negative log-likelihood. Defaults to
	// optimize.NewNelderMead().
	Optimizer optimize.Optimizer
}

// NewFitter creates a Fitter.
func NewFitter(opts FitterOptions) *Fitter {
	opt := opts.Optimizer
	if opt == nil {
		opt = optimize.NewNelderMead()
	}
	return &Fitter{optimizer: opt}
}

// Fit estimates the model described by spec on the return series.
// Steps:
//  1. Build the family recursion via volatility.FromSpec
//  2. Gate the data: enough observations, finite values, non-zero variance
//  3. Demean returns with the plug-in sample mean
//  4. Seed parameters by variance targeting
//  5. Minimize the negative Gaussian log-likelihood; vectors violating
//     feasibility or stationarity evaluate to +Inf
//  6. Assemble the FittedModel from the best vector found
//
// A fit that exhausts the optimizer budget is not an error: the result
// carries Converged=false with the best parameters found.
func (f *Fitter) Fit(ctx context.Context, rs *domain.ReturnSeries, spec domain.ModelSpec) (*domain.FittedModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	model, err := volatility.FromSpec(spec)
	if err != nil {
		return nil, err
	}

	xs := rs.Values()
	n := len(xs)
	if min := minObservations(spec); n < min {
		return nil, fmt.Errorf("%s needs %d observations, have %d: %w", spec, min, n, ErrInsufficientObservations)
	}
	for i, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("observation %d: %w", i, ErrNonFiniteReturn)
		}
	}

	mean := stat.Mean(xs, nil)
	sampleVar := stat.Variance(xs, nil)
	if sampleVar <= 0 {
		return nil, fmt.Errorf("%s: %w", rs.Symbol, ErrDegenerateSeries)
	}

	eps := make([]float64, n)
	for i, x := range xs {
		eps[i] = x - mean
	}

	objective := negLogLikelihood(model, eps, sampleVar)

	result, err := f.optimizer.Minimize(objective, model.InitialParams(sampleVar))
	if err != nil {
		if errors.Is(err, optimize.ErrInfeasibleStart) {
			return nil, fmt.Errorf("%s: %w", spec, ErrInfeasibleStart)
		}
		return nil, fmt.Errorf("minimize %s: %w", spec, err)
	}

	names := model.ParamNames()
	params := make(map[string]float64, len(names))
	for i, name := range names {
		params[name] = result.X[i]
	}

	variance := model.VarianceSeries(result.X, eps, sampleVar)
	residuals := make([]float64, n)
	for t, v := range variance {
		residuals[t] = eps[t] / math.Sqrt(v)
	}

	k := float64(len(names))
	ll := -result.F

	return &domain.FittedModel{
		Symbol:        rs.Symbol,
		Spec:          model.Spec(),
		Params:        params,
		LogLikelihood: ll,
		AIC:           2*k - 2*ll,
		BIC:           k*math.Log(float64(n)) - 2*ll,
		Converged:     result.Converged,
		Iterations:    result.Iterations,
		FuncEvals:     result.Evaluations,
		Mean:          mean,
		NumObs:        n,
		Variance:      variance,
		Residuals:     residuals,
	}, nil
}

// negLogLikelihood builds the optimization objective for demeaned
// returns eps. Infeasible or non-stationary vectors, and any vector
// producing a non-positive or non-finite variance, evaluate to +Inf.
func negLogLikelihood(model volatility.Model, eps []float64, seedVar float64) optimize.Objective {
	n := float64(len(eps))
	return func(params []float64) float64 {
		if !model.Feasible(params) || !model.Stationary(params) {
			return math.Inf(1)
		}
		variance := model.VarianceSeries(params, eps, seedVar)
		sum := 0.0
		for t, v := range variance {
			if !(v > 0) || math.IsInf(v, 1) {
				return math.Inf(1)
			}
			sum += math.Log(v) + eps[t]*eps[t]/v
		}
		nll := 0.5 * (n*ln2pi + sum)
		if math.IsNaN(nll) {
			return math.Inf(1)
		}
		return nll
	}
}

// minObservations is the hard floor for estimation: one more than twice
// the model order. Recommended sample sizes are far larger and enforced
// as warnings by the pipeline's sufficiency checks, not here.
func minObservations(spec domain.ModelSpec) int {
	order := spec.P
	if spec.Q > order {
		order = spec.Q
	}
	return 2*order + 1
}
