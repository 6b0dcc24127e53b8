package reporting

import (
	"fmt"
	"strings"
)

// RenderText renders a compact fixed-width summary for console output.
func RenderText(r *Report) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s: %d observations", r.Symbol, r.DataSummary.Observations))
	if !r.DataSummary.DateRangeStart.IsZero() {
		sb.WriteString(fmt.Sprintf(" (%s to %s)",
			r.DataSummary.DateRangeStart.Format("2006-01-02"),
			r.DataSummary.DateRangeEnd.Format("2006-01-02")))
	}
	sb.WriteString("\n\n")

	if len(r.Comparison) == 0 {
		sb.WriteString("No models fitted.\n")
		for _, f := range r.Failures {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", f.Model, f.Reason))
		}
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("%-4s %-14s %12s %12s %12s %8s %12s %10s\n",
		"Rank", "Model", "LogLik", "AIC", "BIC", "dAIC", "Persistence", "Converged"))
	for _, m := range r.Comparison {
		sb.WriteString(fmt.Sprintf("%-4d %-14s %12.4f %12.4f %12.4f %8.2f %12.4f %10t\n",
			m.Rank, m.Model, m.LogLikelihood, m.AIC, m.BIC, m.DeltaAIC, m.Persistence, m.Converged))
	}
	sb.WriteString("\n")

	if r.BestModel != "" {
		sb.WriteString(fmt.Sprintf("Best model by AIC: %s\n", r.BestModel))
	} else {
		sb.WriteString("No fit converged.\n")
	}

	for _, f := range r.Failures {
		sb.WriteString(fmt.Sprintf("Failed: %s: %s\n", f.Model, f.Reason))
	}

	return sb.String()
}
