package domain

// DiagnosticResult holds residual test statistics for one fitted model.
// Ljung-Box is applied twice: to the standardized residuals (remaining
// autocorrelation) and to their squares (remaining ARCH effects).
type DiagnosticResult struct {
	Lag int // Ljung-Box lag order

	LjungBoxStat   float64
	LjungBoxP      float64
	LjungBoxSqStat float64
	LjungBoxSqP    float64

	JarqueBeraStat float64
	JarqueBeraP    float64

	NumObs int
}

// DescriptiveStats summarizes a raw return series before modeling.
type DescriptiveStats struct {
	NumObs   int
	Mean     float64
	StdDev   float64
	Min      float64
	Max      float64
	Skewness float64
	Kurtosis float64 // excess kurtosis (normal = 0)

	// Jarque-Bera on the raw returns
	JarqueBeraStat float64
	JarqueBeraP    float64
}
