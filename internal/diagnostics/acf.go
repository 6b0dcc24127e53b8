package diagnostics

// ACF computes sample autocorrelations for lags 1..maxLag:
//
//	rho_k = sum_{t=k}^{n-1} (x_t - xbar)(x_{t-k} - xbar) / sum_t (x_t - xbar)^2
//
// The result has maxLag entries; lags at or beyond the sample length
// are zero, as is everything for a degenerate (zero-variance) series.
func ACF(xs []float64, maxLag int) []float64 {
	if maxLag <= 0 {
		return nil
	}
	out := make([]float64, maxLag)

	n := len(xs)
	if n == 0 {
		return out
	}

	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(n)

	denom := 0.0
	dev := make([]float64, n)
	for i, x := range xs {
		dev[i] = x - mean
		denom += dev[i] * dev[i]
	}
	if denom == 0 {
		return out
	}

	for k := 1; k <= maxLag && k < n; k++ {
		num := 0.0
		for t := k; t < n; t++ {
			num += dev[t] * dev[t-k]
		}
		out[k-1] = num / denom
	}
	return out
}
