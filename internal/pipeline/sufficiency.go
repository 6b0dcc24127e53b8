package pipeline

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"crypto-volatility-lab/internal/domain"
)

// RecommendedMinObs is the sample size below which daily GARCH
// estimates are flagged as unstable: about a year of observations.
const RecommendedMinObs = 250

// SufficiencyCheck represents one data sufficiency criterion.
type SufficiencyCheck struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// SufficiencyResult contains all checks for one return series.
type SufficiencyResult struct {
	Checks  []SufficiencyCheck
	AllPass bool
}

// CheckSufficiency evaluates a return series against the requirements
// of the spec set before any fitting happens. Failures here do not stop
// the pipeline; they feed the report's data-quality section.
func CheckSufficiency(rs *domain.ReturnSeries, specs []domain.ModelSpec) *SufficiencyResult {
	result := &SufficiencyResult{AllPass: true}
	add := func(check SufficiencyCheck) {
		result.Checks = append(result.Checks, check)
		if !check.Pass {
			result.AllPass = false
		}
	}

	xs := rs.Values()
	n := len(xs)

	// Check 1: hard estimation floor for the largest model order
	floor := estimationFloor(specs)
	add(SufficiencyCheck{
		Name:      "Observations above estimation floor",
		Threshold: fmt.Sprintf(">= %d", floor),
		Actual:    fmt.Sprintf("%d", n),
		Pass:      n >= floor,
	})

	// Check 2: recommended sample for stable daily estimates
	add(SufficiencyCheck{
		Name:      "Observations above recommended sample",
		Threshold: fmt.Sprintf(">= %d", RecommendedMinObs),
		Actual:    fmt.Sprintf("%d", n),
		Pass:      n >= RecommendedMinObs,
	})

	// Check 3: every observation finite
	nonFinite := 0
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			nonFinite++
		}
	}
	add(SufficiencyCheck{
		Name:      "Non-finite observations",
		Threshold: "= 0",
		Actual:    fmt.Sprintf("%d", nonFinite),
		Pass:      nonFinite == 0,
	})

	// Check 4: non-degenerate variance
	variance := 0.0
	if n >= 2 && nonFinite == 0 {
		variance = stat.Variance(xs, nil)
	}
	add(SufficiencyCheck{
		Name:      "Sample variance",
		Threshold: "> 0",
		Actual:    fmt.Sprintf("%.6g", variance),
		Pass:      variance > 0,
	})

	// Check 5: timestamps strictly increasing
	ordered := true
	for i := 1; i < len(rs.Points); i++ {
		if !rs.Points[i-1].Time.Before(rs.Points[i].Time) {
			ordered = false
			break
		}
	}
	add(SufficiencyCheck{
		Name:      "Timestamps strictly increasing",
		Threshold: "yes",
		Actual:    yesNo(ordered),
		Pass:      ordered,
	})

	return result
}

// estimationFloor is one more than twice the largest lag order in the
// spec set.
func estimationFloor(specs []domain.ModelSpec) int {
	order := 1
	for _, spec := range specs {
		if spec.P > order {
			order = spec.P
		}
		if spec.Q > order {
			order = spec.Q
		}
	}
	return 2*order + 1
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
