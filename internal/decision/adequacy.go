package decision

import (
	"fmt"

	"crypto-volatility-lab/internal/domain"
)

// SignificanceLevel is the p-value cutoff for the residual checks.
const SignificanceLevel = 0.05

// Evaluator evaluates the adequacy checklist for fitted models.
type Evaluator struct {
	Level float64
}

// NewEvaluator creates an evaluator at the default significance level.
func NewEvaluator() *Evaluator {
	return &Evaluator{Level: SignificanceLevel}
}

// Evaluate produces an Assessment from a fit and its residual diagnostics.
// ADEQUATE requires every gating criterion to pass. Normality of the
// standardized residuals is an informational row; it never gates the
// verdict.
func (e *Evaluator) Evaluate(m *domain.FittedModel, d *domain.DiagnosticResult) *Assessment {
	criteria := make([]CriterionResult, 4)

	// 1. The optimizer reported convergence.
	criteria[0] = CriterionResult{
		Name:      "Optimizer converged",
		Threshold: "true",
		Actual:    fmt.Sprintf("%t", m.Converged),
		Pass:      m.Converged,
	}

	// 2. Persistence below unity.
	persistence := m.Persistence()
	criteria[1] = CriterionResult{
		Name:      "Stationary persistence",
		Threshold: "< 1",
		Actual:    fmt.Sprintf("%.4f", persistence),
		Pass:      persistence < 1,
	}

	// 3. Ljung-Box on standardized residuals: no leftover autocorrelation.
	criteria[2] = CriterionResult{
		Name:      "No residual autocorrelation",
		Threshold: fmt.Sprintf("p >= %.2f", e.Level),
		Actual:    fmt.Sprintf("p=%.4f (lag %d)", d.LjungBoxP, d.Lag),
		Pass:      d.LjungBoxP >= e.Level,
	}

	// 4. Ljung-Box on squared standardized residuals: volatility captured.
	criteria[3] = CriterionResult{
		Name:      "No remaining ARCH effects",
		Threshold: fmt.Sprintf("p >= %.2f", e.Level),
		Actual:    fmt.Sprintf("p=%.4f (lag %d)", d.LjungBoxSqP, d.Lag),
		Pass:      d.LjungBoxSqP >= e.Level,
	}

	informational := []CriterionResult{
		{
			Name:      "Normal standardized residuals",
			Threshold: fmt.Sprintf("p >= %.2f", e.Level),
			Actual:    fmt.Sprintf("p=%.4f", d.JarqueBeraP),
			Pass:      d.JarqueBeraP >= e.Level,
		},
	}

	adequacy := AdequacyPass
	for _, c := range criteria {
		if !c.Pass {
			adequacy = AdequacyFail
			break
		}
	}

	return &Assessment{
		Spec:          m.Spec,
		Adequacy:      adequacy,
		Criteria:      criteria,
		Informational: informational,
	}
}
