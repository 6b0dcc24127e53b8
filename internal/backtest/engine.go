package backtest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"crypto-volatility-lab/internal/domain"
	"crypto-volatility-lab/internal/volatility"
)

// Walk-forward defaults.
const (
	DefaultMinTrainObs = 250
	DefaultRefitEvery  = 25
)

// Evaluation errors.
var (
	ErrInsufficientData = errors.New("not enough observations for walk-forward evaluation")
	ErrNoUsableFit      = errors.New("no refit produced usable parameters")
)

// ModelFitter estimates one spec on a return series.
type ModelFitter interface {
	// Fit estimates the model described by spec on the return series.
	Fit(ctx context.Context, rs *domain.ReturnSeries, spec domain.ModelSpec) (*domain.FittedModel, error)
}

// Forecast is one origin's one-step-ahead variance prediction paired
// with the proxy realized at the predicted observation.
type Forecast struct {
	Time      time.Time
	Predicted float64 // conditional variance projected for this observation
	Realized  float64 // squared demeaned return observed at it
}

// Losses aggregates forecast losses over an evaluation window. The
// squared-return proxy is noisy; QLIKE stays consistent under that
// noise, so rankings use it.
type Losses struct {
	MSE   float64
	MAE   float64
	QLIKE float64
}

// Evaluation is the walk-forward outcome for one spec. Exactly one of
// (Forecasts, Err) describes the outcome: a spec that never produced a
// forecast carries the error.
type Evaluation struct {
	Spec       domain.ModelSpec
	Forecasts  []Forecast
	Refits     int
	FailedFits int
	Losses     Losses
	Err        error
}

// Failed reports whether the evaluation produced no forecasts at all.
func (e *Evaluation) Failed() bool {
	return e.Err != nil
}

// Engine walks a single spec forward over a return series: refit on the
// expanding window every refitEvery origins, forecast one step ahead at
// every origin in between with parameters held fixed while the
// information set grows.
type Engine struct {
	fitter     ModelFitter
	spec       domain.ModelSpec
	minTrain   int
	refitEvery int
}

// NewEngine creates an engine for one spec. Non-positive minTrain or
// refitEvery fall back to the package defaults.
func NewEngine(fitter ModelFitter, spec domain.ModelSpec, minTrain, refitEvery int) *Engine {
	if minTrain <= 0 {
		minTrain = DefaultMinTrainObs
	}
	if refitEvery <= 0 {
		refitEvery = DefaultRefitEvery
	}
	return &Engine{
		fitter:     fitter,
		spec:       spec,
		minTrain:   minTrain,
		refitEvery: refitEvery,
	}
}

// Run evaluates the spec over rs. Origins run from minTrain to the last
// observation; each predicts the conditional variance of the next
// observation from data strictly before it. A refit that fails leaves
// the previous parameters in effect and is counted in FailedFits.
func (e *Engine) Run(ctx context.Context, rs *domain.ReturnSeries) (*Evaluation, error) {
	model, err := volatility.FromSpec(e.spec)
	if err != nil {
		return nil, err
	}

	xs := rs.Values()
	n := len(xs)
	if n <= e.minTrain {
		return nil, fmt.Errorf("%s: need more than %d observations, have %d: %w",
			rs.Symbol, e.minTrain, n, ErrInsufficientData)
	}

	eval := &Evaluation{Spec: e.spec}
	var (
		params  []float64
		mean    float64
		seedVar float64
		usable  bool
	)

	for t := e.minTrain; t < n; t++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if (t-e.minTrain)%e.refitEvery == 0 {
			train := &domain.ReturnSeries{Symbol: rs.Symbol, Points: rs.Points[:t]}
			fitted, err := e.fitter.Fit(ctx, train, e.spec)
			eval.Refits++
			switch {
			case err != nil:
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				eval.FailedFits++
			default:
				vec := paramVector(model, fitted)
				if !model.Feasible(vec) {
					eval.FailedFits++
					break
				}
				params = vec
				mean = fitted.Mean
				seedVar = stat.Variance(xs[:t], nil)
				usable = true
			}
		}
		if !usable {
			continue
		}

		eps := make([]float64, t)
		for i := 0; i < t; i++ {
			eps[i] = xs[i] - mean
		}
		variance := model.VarianceSeries(params, eps, seedVar)
		next := model.ForecastVariance(params, eps, variance, 1)[0]
		r := xs[t] - mean
		eval.Forecasts = append(eval.Forecasts, Forecast{
			Time:      rs.Points[t].Time,
			Predicted: next,
			Realized:  r * r,
		})
	}

	if len(eval.Forecasts) == 0 {
		return nil, fmt.Errorf("%s: %w", e.spec, ErrNoUsableFit)
	}
	eval.Losses = computeLosses(eval.Forecasts)
	return eval, nil
}

// paramVector flattens a fitted parameter map into the model's
// optimization order.
func paramVector(model volatility.Model, fitted *domain.FittedModel) []float64 {
	names := model.ParamNames()
	out := make([]float64, len(names))
	for i, name := range names {
		out[i] = fitted.Params[name]
	}
	return out
}

func computeLosses(fs []Forecast) Losses {
	var mse, mae, qlike float64
	for _, f := range fs {
		d := f.Predicted - f.Realized
		mse += d * d
		mae += math.Abs(d)
		qlike += math.Log(f.Predicted) + f.Realized/f.Predicted
	}
	n := float64(len(fs))
	return Losses{MSE: mse / n, MAE: mae / n, QLIKE: qlike / n}
}
