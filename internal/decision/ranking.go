package decision

import (
	"errors"
	"sort"

	"crypto-volatility-lab/internal/domain"
)

// ErrNoFittedModels is returned when every comparison entry failed.
var ErrNoFittedModels = errors.New("no fitted models to rank")

// Rank orders the report's fitted models by (AIC, BIC) ascending, lower
// being better, with the spec key as the final tiebreak for deterministic
// output order. Non-converged fits are ranked but skipped by Best; failed
// entries land in Excluded.
func Rank(report *domain.ComparisonReport) (*Ranking, error) {
	ranking := &Ranking{}

	for _, entry := range report.Entries {
		if entry.Failed() {
			ranking.Excluded = append(ranking.Excluded, Exclusion{
				Spec:   entry.Spec,
				Reason: entry.Err.Error(),
			})
			continue
		}
		ranking.Models = append(ranking.Models, RankedModel{
			Spec:  entry.Spec,
			Model: entry.Model,
		})
	}

	if len(ranking.Models) == 0 {
		return nil, ErrNoFittedModels
	}

	sort.SliceStable(ranking.Models, func(i, j int) bool {
		a, b := ranking.Models[i].Model, ranking.Models[j].Model
		if a.AIC != b.AIC {
			return a.AIC < b.AIC
		}
		if a.BIC != b.BIC {
			return a.BIC < b.BIC
		}
		return ranking.Models[i].Spec.Key() < ranking.Models[j].Spec.Key()
	})

	bestAIC := ranking.Models[0].Model.AIC
	for i := range ranking.Models {
		ranking.Models[i].Rank = i + 1
		ranking.Models[i].DeltaAIC = ranking.Models[i].Model.AIC - bestAIC
	}

	return ranking, nil
}
