package optimize

import (
	"errors"
	"math"
	"testing"
)

func TestMinimize_Quadratic(t *testing.T) {
	obj := func(x []float64) float64 {
		return (x[0]-3)*(x[0]-3) + (x[1]+1)*(x[1]+1)
	}

	res, err := NewNelderMead().Minimize(obj, []float64{0, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !res.Converged {
		t.Error("expected convergence on a smooth quadratic")
	}
	if math.Abs(res.X[0]-3) > 1e-4 || math.Abs(res.X[1]+1) > 1e-4 {
		t.Errorf("expected minimum near (3,-1), got %v", res.X)
	}
	if res.F > 1e-6 {
		t.Errorf("expected objective near 0, got %v", res.F)
	}
	if res.Evaluations <= 0 || res.Iterations <= 0 {
		t.Errorf("expected positive counters, got evals=%d iters=%d", res.Evaluations, res.Iterations)
	}
}

func TestMinimize_Rosenbrock(t *testing.T) {
	obj := func(x []float64) float64 {
		a := 1 - x[0]
		b := x[1] - x[0]*x[0]
		return a*a + 100*b*b
	}

	res, err := NewNelderMead().Minimize(obj, []float64{-1.2, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(res.X[0]-1) > 1e-3 || math.Abs(res.X[1]-1) > 1e-3 {
		t.Errorf("expected minimum near (1,1), got %v", res.X)
	}
}

func TestMinimize_RespectsInfiniteRejection(t *testing.T) {
	// Feasible region x > 0.5; minimum of (x-2)^2 sits inside it
	obj := func(x []float64) float64 {
		if x[0] <= 0.5 {
			return math.Inf(1)
		}
		return (x[0] - 2) * (x[0] - 2)
	}

	res, err := NewNelderMead().Minimize(obj, []float64{1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.X[0] <= 0.5 {
		t.Errorf("expected solution inside feasible region, got %v", res.X[0])
	}
	if math.Abs(res.X[0]-2) > 1e-4 {
		t.Errorf("expected minimum near 2, got %v", res.X[0])
	}
}

func TestMinimize_NaNTreatedAsRejection(t *testing.T) {
	obj := func(x []float64) float64 {
		if x[0] < 0 {
			return math.NaN()
		}
		return (x[0] - 1) * (x[0] - 1)
	}

	res, err := NewNelderMead().Minimize(obj, []float64{0.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(res.X[0]-1) > 1e-4 {
		t.Errorf("expected minimum near 1, got %v", res.X[0])
	}
}

func TestMinimize_Deterministic(t *testing.T) {
	obj := func(x []float64) float64 {
		return math.Abs(x[0]-0.7) + (x[1]-0.2)*(x[1]-0.2)
	}

	a, err := NewNelderMead().Minimize(obj, []float64{5, -5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := NewNelderMead().Minimize(obj, []float64{5, -5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.F != b.F || a.Evaluations != b.Evaluations || a.Iterations != b.Iterations {
		t.Errorf("expected identical runs, got (%v,%d,%d) vs (%v,%d,%d)",
			a.F, a.Evaluations, a.Iterations, b.F, b.Evaluations, b.Iterations)
	}
	for i := range a.X {
		if a.X[i] != b.X[i] {
			t.Errorf("x[%d] differs: %v vs %v", i, a.X[i], b.X[i])
		}
	}
}

func TestMinimize_BudgetExhaustion(t *testing.T) {
	nm := NewNelderMead()
	nm.MaxIterations = 3

	res, err := nm.Minimize(func(x []float64) float64 {
		a := 1 - x[0]
		b := x[1] - x[0]*x[0]
		return a*a + 100*b*b
	}, []float64{-1.2, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Converged {
		t.Error("expected Converged=false after 3 iterations on Rosenbrock")
	}
	if res.Iterations != 3 {
		t.Errorf("expected 3 iterations, got %d", res.Iterations)
	}
	if len(res.X) != 2 {
		t.Errorf("expected best vector returned, got %v", res.X)
	}
}

func TestMinimize_ErrorCases(t *testing.T) {
	_, err := NewNelderMead().Minimize(func(x []float64) float64 { return 0 }, nil)
	if !errors.Is(err, ErrEmptyStart) {
		t.Errorf("expected ErrEmptyStart, got %v", err)
	}

	_, err = NewNelderMead().Minimize(func(x []float64) float64 { return math.Inf(1) }, []float64{1})
	if !errors.Is(err, ErrInfeasibleStart) {
		t.Errorf("expected ErrInfeasibleStart, got %v", err)
	}
}
