package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders the model comparison table as a CSV string.
func RenderCSV(rows []ComparisonRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("rank,model,num_params,log_likelihood,aic,bic,delta_aic,persistence,annualized_vol,converged\n")

	// Rows
	for _, m := range rows {
		sb.WriteString(fmt.Sprintf("%d,%s,%d,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%t\n",
			m.Rank,
			m.Model,
			m.NumParams,
			m.LogLikelihood,
			m.AIC,
			m.BIC,
			m.DeltaAIC,
			m.Persistence,
			m.AnnualizedVol,
			m.Converged,
		))
	}

	return sb.String()
}
