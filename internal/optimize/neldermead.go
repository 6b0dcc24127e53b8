package optimize

import (
	"math"
	"sort"
)

// Nelder-Mead coefficients (standard values)
const (
	reflectCoef  = 1.0
	expandCoef   = 2.0
	contractCoef = 0.5
	shrinkCoef   = 0.5
)

// Initial simplex displacement: each vertex perturbs one coordinate by
// 5%, or by an absolute step when the coordinate is zero.
const (
	simplexDelta     = 0.05
	simplexZeroDelta = 0.00025
)

// NelderMead is a derivative-free downhill-simplex minimizer. It uses
// no randomness: the initial simplex is built from fixed per-coordinate
// perturbations and ties are broken by insertion order, so repeated
// runs are bit-identical.
type NelderMead struct {
	MaxIterations int     // iteration budget
	TolF          float64 // function-value spread for convergence
	TolX          float64 // vertex-coordinate spread for convergence
}

// NewNelderMead creates a minimizer with defaults suited to likelihood
// surfaces of low-dimensional variance models.
func NewNelderMead() *NelderMead {
	return &NelderMead{
		MaxIterations: 2000,
		TolF:          1e-10,
		TolX:          1e-8,
	}
}

// Minimize runs the simplex algorithm from x0. Vertices where obj
// returns +Inf or NaN are treated as maximally bad and move away; the
// starting point itself must be finite.
func (nm *NelderMead) Minimize(obj Objective, x0 []float64) (*Result, error) {
	n := len(x0)
	if n == 0 {
		return nil, ErrEmptyStart
	}

	evals := 0
	eval := func(x []float64) float64 {
		evals++
		f := obj(x)
		if math.IsNaN(f) {
			return math.Inf(1)
		}
		return f
	}

	f0 := eval(x0)
	if math.IsInf(f0, 0) {
		return nil, ErrInfeasibleStart
	}

	// Build the initial simplex: x0 plus one perturbed vertex per
	// coordinate.
	verts := make([][]float64, n+1)
	fvals := make([]float64, n+1)
	verts[0] = append([]float64(nil), x0...)
	fvals[0] = f0
	for i := 0; i < n; i++ {
		v := append([]float64(nil), x0...)
		if v[i] != 0 {
			v[i] *= 1 + simplexDelta
		} else {
			v[i] = simplexZeroDelta
		}
		verts[i+1] = v
		fvals[i+1] = eval(v)
	}

	converged := false
	iters := 0
	for ; iters < nm.MaxIterations; iters++ {
		orderSimplex(verts, fvals)

		if nm.spreadF(fvals) <= nm.TolF && nm.spreadX(verts) <= nm.TolX {
			converged = true
			break
		}

		// Centroid of all but the worst vertex
		centroid := make([]float64, n)
		for _, v := range verts[:n] {
			for j, x := range v {
				centroid[j] += x
			}
		}
		for j := range centroid {
			centroid[j] /= float64(n)
		}

		worst := verts[n]
		reflected := blend(centroid, worst, -reflectCoef)
		fr := eval(reflected)

		switch {
		case fr < fvals[0]:
			// Best so far: try to expand further along the same line
			expanded := blend(centroid, worst, -expandCoef)
			fe := eval(expanded)
			if fe < fr {
				verts[n], fvals[n] = expanded, fe
			} else {
				verts[n], fvals[n] = reflected, fr
			}

		case fr < fvals[n-1]:
			verts[n], fvals[n] = reflected, fr

		case fr < fvals[n]:
			// Outside contraction
			contracted := blend(centroid, reflected, contractCoef)
			fc := eval(contracted)
			if fc <= fr {
				verts[n], fvals[n] = contracted, fc
			} else {
				nm.shrink(verts, fvals, eval)
			}

		default:
			// Inside contraction
			contracted := blend(centroid, worst, contractCoef)
			fc := eval(contracted)
			if fc < fvals[n] {
				verts[n], fvals[n] = contracted, fc
			} else {
				nm.shrink(verts, fvals, eval)
			}
		}
	}

	orderSimplex(verts, fvals)
	return &Result{
		X:           verts[0],
		F:           fvals[0],
		Iterations:  iters,
		Evaluations: evals,
		Converged:   converged,
	}, nil
}

// shrink pulls every vertex halfway toward the best one.
func (nm *NelderMead) shrink(verts [][]float64, fvals []float64, eval func([]float64) float64) {
	best := verts[0]
	for i := 1; i < len(verts); i++ {
		for j := range verts[i] {
			verts[i][j] = best[j] + shrinkCoef*(verts[i][j]-best[j])
		}
		fvals[i] = eval(verts[i])
	}
}

// spreadF is the largest function-value gap from the best vertex.
// Infinite vertices keep the spread infinite.
func (nm *NelderMead) spreadF(fvals []float64) float64 {
	spread := 0.0
	for _, f := range fvals[1:] {
		d := math.Abs(f - fvals[0])
		if d > spread {
			spread = d
		}
	}
	return spread
}

// spreadX is the largest coordinate gap between the best vertex and any
// other.
func (nm *NelderMead) spreadX(verts [][]float64) float64 {
	spread := 0.0
	best := verts[0]
	for _, v := range verts[1:] {
		for j, x := range v {
			d := math.Abs(x - best[j])
			if d > spread {
				spread = d
			}
		}
	}
	return spread
}

// orderSimplex sorts vertices by objective value ascending, preserving
// insertion order on ties.
func orderSimplex(verts [][]float64, fvals []float64) {
	idx := make([]int, len(fvals))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		fa, fb := fvals[idx[a]], fvals[idx[b]]
		if math.IsInf(fa, 1) && math.IsInf(fb, 1) {
			return false
		}
		return fa < fb
	})

	vs := make([][]float64, len(verts))
	fs := make([]float64, len(fvals))
	for i, k := range idx {
		vs[i] = verts[k]
		fs[i] = fvals[k]
	}
	copy(verts, vs)
	copy(fvals, fs)
}

// blend returns base + coef*(point-base).
func blend(base, point []float64, coef float64) []float64 {
	out := make([]float64, len(base))
	for j := range base {
		out[j] = base[j] + coef*(point[j]-base[j])
	}
	return out
}

// Ensure NelderMead implements Optimizer
var _ Optimizer = (*NelderMead)(nil)
