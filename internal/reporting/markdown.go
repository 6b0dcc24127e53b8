package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders the report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Volatility Model Comparison Report\n\n")
	sb.WriteString(fmt.Sprintf("Symbol: %s\n\n", r.Symbol))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Models: %d | Converged: %d\n\n", r.ModelCount, r.ConvergedCount))

	// Data Summary
	sb.WriteString("## Data Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Symbol | %s |\n", r.DataSummary.Symbol))
	sb.WriteString(fmt.Sprintf("| Observations | %d |\n", r.DataSummary.Observations))
	if !r.DataSummary.DateRangeStart.IsZero() {
		sb.WriteString(fmt.Sprintf("| Date Range Start | %s |\n", r.DataSummary.DateRangeStart.Format("2006-01-02")))
		sb.WriteString(fmt.Sprintf("| Date Range End | %s |\n", r.DataSummary.DateRangeEnd.Format("2006-01-02")))
	}
	sb.WriteString("\n")

	// Data Quality
	sb.WriteString("## Data Quality\n\n")
	if len(r.DataQuality.SufficiencyChecks) > 0 {
		sb.WriteString("| Check | Threshold | Actual | Status |\n")
		sb.WriteString("|-------|-----------|--------|--------|\n")
		for _, check := range r.DataQuality.SufficiencyChecks {
			status := "FAIL"
			if check.Pass {
				status = "PASS"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				check.Name, check.Threshold, check.Actual, status))
		}
		sb.WriteString("\n")
		if r.DataQuality.AllChecksPassed {
			sb.WriteString("**All checks passed.**\n\n")
		} else {
			sb.WriteString("**Some checks failed.** Estimates below may be unreliable.\n\n")
		}
	} else if len(r.DataQuality.IntegrityErrors) == 0 {
		sb.WriteString("No data quality checks performed.\n\n")
	}

	if len(r.DataQuality.IntegrityErrors) > 0 {
		sb.WriteString("### Integrity Errors\n\n")
		for _, err := range r.DataQuality.IntegrityErrors {
			sb.WriteString(fmt.Sprintf("- %s\n", err))
		}
		sb.WriteString("\n")
	}

	// Descriptive Statistics
	sb.WriteString("## Descriptive Statistics\n\n")
	if r.Descriptive.NumObs > 0 {
		sb.WriteString("| N | Mean | StdDev | Min | Max | Skewness | ExKurtosis | JB | JB p |\n")
		sb.WriteString("|---|------|--------|-----|-----|----------|------------|----|------|\n")
		d := r.Descriptive
		sb.WriteString(fmt.Sprintf("| %d | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f |\n",
			d.NumObs, d.Mean, d.StdDev, d.Min, d.Max, d.Skewness, d.Kurtosis, d.JarqueBera, d.JarqueBeraP))
	} else {
		sb.WriteString("No descriptive statistics available.\n")
	}
	sb.WriteString("\n")

	// Model Comparison
	sb.WriteString("## Model Comparison\n\n")
	if len(r.Comparison) > 0 {
		sb.WriteString("| Rank | Model | k | LogLik | AIC | BIC | dAIC | Persistence | AnnVol | Converged |\n")
		sb.WriteString("|------|-------|---|--------|-----|-----|------|-------------|--------|-----------|\n")
		for _, m := range r.Comparison {
			sb.WriteString(fmt.Sprintf("| %d | %s | %d | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f | %t |\n",
				m.Rank, m.Model, m.NumParams, m.LogLikelihood, m.AIC, m.BIC, m.DeltaAIC,
				m.Persistence, m.AnnualizedVol, m.Converged))
		}
		sb.WriteString("\n")
		if r.BestModel != "" {
			sb.WriteString(fmt.Sprintf("Best model by AIC: **%s**\n\n", r.BestModel))
		} else {
			sb.WriteString("No fit converged; ranking shown for reference only.\n\n")
		}
	} else {
		sb.WriteString("No models fitted.\n\n")
	}

	// Parameters
	sb.WriteString("## Estimated Parameters\n\n")
	if len(r.Parameters) > 0 {
		for _, table := range r.Parameters {
			sb.WriteString(fmt.Sprintf("### %s\n\n", table.Model))
			sb.WriteString("| Parameter | Value |\n")
			sb.WriteString("|-----------|-------|\n")
			for _, p := range table.Params {
				sb.WriteString(fmt.Sprintf("| %s | %.6f |\n", p.Name, p.Value))
			}
			sb.WriteString("\n")
		}
	} else {
		sb.WriteString("No parameters available.\n\n")
	}

	// Diagnostics
	sb.WriteString("## Residual Diagnostics\n\n")
	if len(r.Diagnostics) > 0 {
		sb.WriteString("| Model | Lag | LB | LB p | LB^2 | LB^2 p | JB | JB p |\n")
		sb.WriteString("|-------|-----|----|------|------|--------|----|------|\n")
		for _, d := range r.Diagnostics {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f |\n",
				d.Model, d.Lag, d.LjungBoxStat, d.LjungBoxP, d.LjungBoxSqStat, d.LjungBoxSqP,
				d.JarqueBeraStat, d.JarqueBeraP))
		}
	} else {
		sb.WriteString("No diagnostics available.\n")
	}
	sb.WriteString("\n")

	// Adequacy
	sb.WriteString("## Model Adequacy\n\n")
	if len(r.Adequacy) > 0 {
		for _, a := range r.Adequacy {
			sb.WriteString(fmt.Sprintf("### %s [%s]\n\n", a.Model, a.Verdict))
			sb.WriteString("| Criterion | Threshold | Actual | Status |\n")
			sb.WriteString("|-----------|-----------|--------|--------|\n")
			for _, c := range a.Criteria {
				status := "FAIL"
				if c.Pass {
					status = "PASS"
				}
				sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n", c.Name, c.Threshold, c.Actual, status))
			}
			for _, c := range a.Informational {
				status := "FAIL"
				if c.Pass {
					status = "PASS"
				}
				sb.WriteString(fmt.Sprintf("| %s (info) | %s | %s | %s |\n", c.Name, c.Threshold, c.Actual, status))
			}
			sb.WriteString("\n")
		}
	} else {
		sb.WriteString("No adequacy assessments available.\n\n")
	}

	// Forecasts
	sb.WriteString("## Variance Forecasts\n\n")
	if len(r.Forecasts) > 0 {
		sb.WriteString("| Model | Horizon (days) | Variance | AnnVol |\n")
		sb.WriteString("|-------|----------------|----------|--------|\n")
		for _, f := range r.Forecasts {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.6f | %.4f |\n",
				f.Model, f.Horizon, f.Variance, f.AnnualizedVol))
		}
	} else {
		sb.WriteString("No forecasts available.\n")
	}
	sb.WriteString("\n")

	// Failures
	if len(r.Failures) > 0 {
		sb.WriteString("## Failed Fits\n\n")
		for _, f := range r.Failures {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", f.Model, f.Reason))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
