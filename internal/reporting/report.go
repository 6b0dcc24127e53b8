package reporting

import "time"

// Report represents the assembled model-comparison report for one symbol.
type Report struct {
	// Metadata
	GeneratedAt    time.Time
	Symbol         string
	ModelCount     int
	ConvergedCount int

	// Data Summary
	DataSummary DataSummary

	// Data Quality (sufficiency checks)
	DataQuality DataQualitySection

	// Descriptive statistics of the return series
	Descriptive DescriptiveRow

	// Comparison table sorted by (AIC, BIC) ascending
	Comparison []ComparisonRow

	// BestModel is the top-ranked converged model, empty when none converged.
	BestModel string

	// Per-model parameter tables, in the order the specs were supplied
	Parameters []ParameterTable

	// Residual diagnostics per fitted model
	Diagnostics []DiagnosticRow

	// Adequacy checklists per fitted model
	Adequacy []AdequacySection

	// Variance forecasts per fitted model
	Forecasts []ForecastRow

	// Failures lists specs that could not be fitted
	Failures []FailureRow
}

// DataQualitySection contains data sufficiency checks and integrity errors.
type DataQualitySection struct {
	SufficiencyChecks []SufficiencyCheckRow
	IntegrityErrors   []string
	AllChecksPassed   bool
}

// SufficiencyCheckRow represents one sufficiency criterion.
type SufficiencyCheckRow struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// DataSummary describes the input series.
type DataSummary struct {
	Symbol         string
	Observations   int // return observations
	DateRangeStart time.Time
	DateRangeEnd   time.Time
}

// DescriptiveRow holds sample moments of the return series.
type DescriptiveRow struct {
	NumObs      int
	Mean        float64
	StdDev      float64
	Min         float64
	Max         float64
	Skewness    float64
	Kurtosis    float64 // excess
	JarqueBera  float64
	JarqueBeraP float64
}

// ComparisonRow represents one row in the model comparison table.
type ComparisonRow struct {
	Rank          int
	Model         string
	NumParams     int
	LogLikelihood float64
	AIC           float64
	BIC           float64
	DeltaAIC      float64
	Persistence   float64
	AnnualizedVol float64
	Converged     bool
}

// ParameterTable lists estimated parameters for one model.
type ParameterTable struct {
	Model  string
	Params []ParameterRow
}

// ParameterRow is one (name, value) pair in canonical order.
type ParameterRow struct {
	Name  string
	Value float64
}

// DiagnosticRow represents residual diagnostics for one model.
type DiagnosticRow struct {
	Model          string
	Lag            int
	LjungBoxStat   float64
	LjungBoxP      float64
	LjungBoxSqStat float64
	LjungBoxSqP    float64
	JarqueBeraStat float64
	JarqueBeraP    float64
}

// AdequacySection mirrors the decision checklist for one model.
type AdequacySection struct {
	Model         string
	Verdict       string
	Criteria      []CriterionRow
	Informational []CriterionRow
}

// CriterionRow is one pass/fail row of an adequacy checklist.
type CriterionRow struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// ForecastRow is one h-step-ahead variance forecast for one model.
type ForecastRow struct {
	Model         string
	Horizon       int
	Variance      float64
	AnnualizedVol float64
}

// FailureRow records a spec that could not be fitted.
type FailureRow struct {
	Model  string
	Reason string
}
