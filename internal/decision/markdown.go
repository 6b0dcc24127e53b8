package decision

import (
	"fmt"
	"strings"
)

// RenderMarkdown renders the ranking and per-model assessments as a
// Markdown string.
func RenderMarkdown(ranking *Ranking, assessments []*Assessment) string {
	var sb strings.Builder

	sb.WriteString("# Model Selection Report\n\n")

	// Ranking table
	sb.WriteString("## Ranking by Information Criteria\n\n")
	sb.WriteString("| Rank | Model | LogLik | AIC | BIC | dAIC | Converged |\n")
	sb.WriteString("|------|-------|--------|-----|-----|------|-----------|\n")
	for _, r := range ranking.Models {
		sb.WriteString(fmt.Sprintf("| %d | %s | %.4f | %.4f | %.4f | %.4f | %t |\n",
			r.Rank, r.Spec, r.Model.LogLikelihood, r.Model.AIC, r.Model.BIC, r.DeltaAIC, r.Model.Converged))
	}
	sb.WriteString("\n")

	if len(ranking.Excluded) > 0 {
		sb.WriteString("Excluded from ranking:\n\n")
		for _, ex := range ranking.Excluded {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", ex.Spec, ex.Reason))
		}
		sb.WriteString("\n")
	}

	// Best model
	if best := ranking.Best(); best != nil {
		sb.WriteString(fmt.Sprintf("## Best Model: %s\n\n", best.Spec))
	} else {
		sb.WriteString("## Best Model: none (no fit converged)\n\n")
	}

	// Per-model adequacy checklists
	for _, a := range assessments {
		sb.WriteString(fmt.Sprintf("## Adequacy: %s [%s]\n\n", a.Spec, a.Adequacy))

		sb.WriteString("| # | Criterion | Threshold | Actual | Pass |\n")
		sb.WriteString("|---|-----------|-----------|--------|------|\n")
		for i, c := range a.Criteria {
			passStr := "PASS"
			if !c.Pass {
				passStr = "FAIL"
			}
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n",
				i+1, c.Name, c.Threshold, c.Actual, passStr))
		}
		sb.WriteString("\n")

		passed := 0
		for _, c := range a.Criteria {
			if c.Pass {
				passed++
			}
		}
		sb.WriteString(fmt.Sprintf("Criteria: %d/%d passed\n\n", passed, len(a.Criteria)))

		if len(a.Informational) > 0 {
			sb.WriteString("Informational:\n\n")
			sb.WriteString("| Criterion | Threshold | Actual | Pass |\n")
			sb.WriteString("|-----------|-----------|--------|------|\n")
			for _, c := range a.Informational {
				passStr := "PASS"
				if !c.Pass {
					passStr = "FAIL"
				}
				sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
					c.Name, c.Threshold, c.Actual, passStr))
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}
