package reporting

import (
	"errors"
	"math"
	"sort"
	"time"

	"crypto-volatility-lab/internal/decision"
	"crypto-volatility-lab/internal/domain"
	"crypto-volatility-lab/internal/pipeline"
	"crypto-volatility-lab/internal/volatility"
)

var (
	// ErrNilSeries is returned when Generate is called without a return series.
	ErrNilSeries = errors.New("nil return series")

	// ErrNilComparison is returned when Generate is called without comparison results.
	ErrNilComparison = errors.New("nil comparison report")
)

// DefaultHorizons are the forecast horizons in days.
var DefaultHorizons = []int{1, 7, 30}

// Generator assembles reports from comparison results.
type Generator struct {
	horizons []int
	now      func() time.Time // Injectable clock for deterministic output
}

// GeneratorOptions configures a Generator.
type GeneratorOptions struct {
	// Horizons overrides DefaultHorizons when non-empty.
	Horizons []int
}

// NewGenerator creates a new report generator.
func NewGenerator(opts GeneratorOptions) *Generator {
	horizons := opts.Horizons
	if len(horizons) == 0 {
		horizons = DefaultHorizons
	}
	return &Generator{
		horizons: horizons,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate assembles the complete report for one symbol. A nil sufficiency
// result leaves the data-quality section empty.
func (g *Generator) Generate(rs *domain.ReturnSeries, cmp *domain.ComparisonReport, sufficiency *pipeline.SufficiencyResult) (*Report, error) {
	if rs == nil {
		return nil, ErrNilSeries
	}
	if cmp == nil {
		return nil, ErrNilComparison
	}

	report := &Report{
		GeneratedAt: g.now(),
		Symbol:      cmp.Symbol,
		ModelCount:  len(cmp.Entries),
		DataSummary: generateDataSummary(rs),
		DataQuality: generateDataQuality(sufficiency),
		Descriptive: generateDescriptive(cmp.Stats),
		Failures:    generateFailures(cmp.Entries),
	}

	ranking, err := decision.Rank(cmp)
	if err != nil {
		if errors.Is(err, decision.ErrNoFittedModels) {
			return report, nil
		}
		return nil, err
	}

	report.Comparison = generateComparison(ranking)
	if best := ranking.Best(); best != nil {
		report.BestModel = best.Spec.String()
	}
	for _, row := range report.Comparison {
		if row.Converged {
			report.ConvergedCount++
		}
	}

	evaluator := decision.NewEvaluator()
	for _, entry := range cmp.Entries {
		if entry.Failed() {
			continue
		}
		report.Parameters = append(report.Parameters, generateParameters(entry.Model))
		if entry.Diagnostics != nil {
			report.Diagnostics = append(report.Diagnostics, generateDiagnostics(entry.Model, entry.Diagnostics))
			report.Adequacy = append(report.Adequacy, generateAdequacy(evaluator.Evaluate(entry.Model, entry.Diagnostics)))
		}
		report.Forecasts = append(report.Forecasts, g.generateForecasts(entry.Model)...)
	}

	return report, nil
}

func generateDataSummary(rs *domain.ReturnSeries) DataSummary {
	summary := DataSummary{
		Symbol:       rs.Symbol,
		Observations: rs.Len(),
	}
	if rs.Len() > 0 {
		summary.DateRangeStart = rs.Points[0].Time
		summary.DateRangeEnd = rs.Points[rs.Len()-1].Time
	}
	return summary
}

func generateDataQuality(sufficiency *pipeline.SufficiencyResult) DataQualitySection {
	if sufficiency == nil {
		return DataQualitySection{}
	}
	section := DataQualitySection{
		AllChecksPassed: sufficiency.AllPass,
	}
	for _, c := range sufficiency.Checks {
		section.SufficiencyChecks = append(section.SufficiencyChecks, SufficiencyCheckRow{
			Name:      c.Name,
			Threshold: c.Threshold,
			Actual:    c.Actual,
			Pass:      c.Pass,
		})
	}
	return section
}

func generateDescriptive(stats *domain.DescriptiveStats) DescriptiveRow {
	if stats == nil {
		return DescriptiveRow{}
	}
	return DescriptiveRow{
		NumObs:      stats.NumObs,
		Mean:        stats.Mean,
		StdDev:      stats.StdDev,
		Min:         stats.Min,
		Max:         stats.Max,
		Skewness:    stats.Skewness,
		Kurtosis:    stats.Kurtosis,
		JarqueBera:  stats.JarqueBeraStat,
		JarqueBeraP: stats.JarqueBeraP,
	}
}

func generateComparison(ranking *decision.Ranking) []ComparisonRow {
	rows := make([]ComparisonRow, len(ranking.Models))
	for i, r := range ranking.Models {
		rows[i] = ComparisonRow{
			Rank:          r.Rank,
			Model:         r.Spec.String(),
			NumParams:     r.Model.NumParams(),
			LogLikelihood: r.Model.LogLikelihood,
			AIC:           r.Model.AIC,
			BIC:           r.Model.BIC,
			DeltaAIC:      r.DeltaAIC,
			Persistence:   r.Model.Persistence(),
			AnnualizedVol: r.Model.AnnualizedVol(),
			Converged:     r.Model.Converged,
		}
	}
	return rows
}

// generateParameters orders parameters canonically via the model factory,
// falling back to sorted names for unknown families.
func generateParameters(m *domain.FittedModel) ParameterTable {
	table := ParameterTable{Model: m.Spec.String()}

	var names []string
	if model, err := volatility.FromSpec(m.Spec); err == nil {
		names = model.ParamNames()
	} else {
		for name := range m.Params {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	for _, name := range names {
		value, ok := m.Params[name]
		if !ok {
			continue
		}
		table.Params = append(table.Params, ParameterRow{Name: name, Value: value})
	}
	return table
}

func generateDiagnostics(m *domain.FittedModel, d *domain.DiagnosticResult) DiagnosticRow {
	return DiagnosticRow{
		Model:          m.Spec.String(),
		Lag:            d.Lag,
		LjungBoxStat:   d.LjungBoxStat,
		LjungBoxP:      d.LjungBoxP,
		LjungBoxSqStat: d.LjungBoxSqStat,
		LjungBoxSqP:    d.LjungBoxSqP,
		JarqueBeraStat: d.JarqueBeraStat,
		JarqueBeraP:    d.JarqueBeraP,
	}
}

func generateAdequacy(a *decision.Assessment) AdequacySection {
	section := AdequacySection{
		Model:   a.Spec.String(),
		Verdict: string(a.Adequacy),
	}
	for _, c := range a.Criteria {
		section.Criteria = append(section.Criteria, CriterionRow(c))
	}
	for _, c := range a.Informational {
		section.Informational = append(section.Informational, CriterionRow(c))
	}
	return section
}

// generateForecasts walks the variance recursion forward from the fitted
// state. Shocks are rebuilt from the standardized residuals.
func (g *Generator) generateForecasts(m *domain.FittedModel) []ForecastRow {
	if len(m.Variance) == 0 || len(m.Residuals) != len(m.Variance) {
		return nil
	}
	model, err := volatility.FromSpec(m.Spec)
	if err != nil {
		return nil
	}

	params := make([]float64, 0, len(model.ParamNames()))
	for _, name := range model.ParamNames() {
		value, ok := m.Params[name]
		if !ok {
			return nil
		}
		params = append(params, value)
	}

	eps := make([]float64, len(m.Residuals))
	for i, z := range m.Residuals {
		eps[i] = z * math.Sqrt(m.Variance[i])
	}

	maxHorizon := 0
	for _, h := range g.horizons {
		if h > maxHorizon {
			maxHorizon = h
		}
	}
	if maxHorizon == 0 {
		return nil
	}

	path := model.ForecastVariance(params, eps, m.Variance, maxHorizon)
	name := m.Spec.String()

	rows := make([]ForecastRow, 0, len(g.horizons))
	for _, h := range g.horizons {
		if h < 1 || h > len(path) {
			continue
		}
		v := path[h-1]
		row := ForecastRow{Model: name, Horizon: h, Variance: v}
		if v > 0 {
			row.AnnualizedVol = math.Sqrt(v * domain.TradingDaysPerYear)
		}
		rows = append(rows, row)
	}
	return rows
}

func generateFailures(entries []domain.ComparisonEntry) []FailureRow {
	var rows []FailureRow
	for _, entry := range entries {
		if !entry.Failed() {
			continue
		}
		rows = append(rows, FailureRow{
			Model:  entry.Spec.String(),
			Reason: entry.Err.Error(),
		})
	}
	return rows
}
