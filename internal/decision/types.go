package decision

import "crypto-volatility-lab/internal/domain"

// Adequacy is the overall verdict for one fitted model's checklist.
type Adequacy string

const (
	AdequacyPass Adequacy = "ADEQUATE"
	AdequacyFail Adequacy = "INADEQUATE"
)

// CriterionResult represents pass/fail for one criterion.
type CriterionResult struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// Assessment contains the adequacy checklist for one fitted model.
// Criteria gate the verdict; Informational rows are reported only.
type Assessment struct {
	Spec          domain.ModelSpec
	Adequacy      Adequacy
	Criteria      []CriterionResult
	Informational []CriterionResult
}

// RankedModel is one row of the information-criterion ranking.
type RankedModel struct {
	Rank     int
	Spec     domain.ModelSpec
	Model    *domain.FittedModel
	DeltaAIC float64 // AIC distance to the top-ranked model
}

// Exclusion records an entry that could not be ranked.
type Exclusion struct {
	Spec   domain.ModelSpec
	Reason string
}

// Ranking orders fitted models by information criteria, best first.
// Failed entries are listed in Excluded, never silently dropped.
type Ranking struct {
	Models   []RankedModel
	Excluded []Exclusion
}

// Best returns the top-ranked converged model, or nil if no fit converged.
func (r *Ranking) Best() *RankedModel {
	for i := range r.Models {
		if r.Models[i].Model.Converged {
			return &r.Models[i]
		}
	}
	return nil
}
