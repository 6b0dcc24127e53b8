package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"crypto-volatility-lab/internal/domain"
	"crypto-volatility-lab/internal/storage"
)

// FitResultStore implements storage.FitResultStore using PostgreSQL.
type FitResultStore struct {
	pool *Pool
}

// NewFitResultStore creates a new FitResultStore.
func NewFitResultStore(pool *Pool) *FitResultStore {
	return &FitResultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.FitResultStore = (*FitResultStore)(nil)

const fitResultColumns = `
	fit_id, run_id, symbol,
	family, p, q, dist,
	omega, alpha, gamma, beta,
	log_likelihood, aic, bic,
	converged, iterations, func_evals,
	mean_return, num_obs, created_at
`

const insertFitResultQuery = `
	INSERT INTO fit_results (
		fit_id, run_id, symbol,
		family, p, q, dist,
		omega, alpha, gamma, beta,
		log_likelihood, aic, bic,
		converged, iterations, func_evals,
		mean_return, num_obs, created_at
	) VALUES (
		$1, $2, $3,
		$4, $5, $6, $7,
		$8, $9, $10, $11,
		$12, $13, $14,
		$15, $16, $17,
		$18, $19, $20
	)
`

// insertArgs flattens a record into the insert parameter order.
func insertArgs(r *domain.FitResult) []any {
	return []any{
		r.FitID, r.RunID, r.Symbol,
		r.Family, r.P, r.Q, r.Dist,
		r.Omega, r.Alpha, r.Gamma, r.Beta,
		r.LogLikelihood, r.AIC, r.BIC,
		r.Converged, r.Iterations, r.FuncEvals,
		r.Mean, r.NumObs, r.CreatedAtMs,
	}
}

// Insert adds a fit result. Returns ErrDuplicateKey if fit_id exists.
func (s *FitResultStore) Insert(ctx context.Context, r *domain.FitResult) error {
	if r == nil || r.FitID == "" || r.Symbol == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertFitResultQuery, insertArgs(r)...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert fit result: %w", err)
	}
	return nil
}

// InsertBulk adds multiple fit results atomically. Fails entire batch on any duplicate.
func (s *FitResultStore) InsertBulk(ctx context.Context, results []*domain.FitResult) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range results {
		if r == nil || r.FitID == "" || r.Symbol == "" {
			return storage.ErrInvalidInput
		}
		if _, err := tx.Exec(ctx, insertFitResultQuery, insertArgs(r)...); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert fit result in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByID retrieves a fit result by its ID. Returns ErrNotFound if not exists.
func (s *FitResultStore) GetByID(ctx context.Context, fitID string) (*domain.FitResult, error) {
	query := `
		SELECT ` + fitResultColumns + `
		FROM fit_results
		WHERE fit_id = $1
	`

	row := s.pool.QueryRow(ctx, query, fitID)
	r, err := scanFitResult(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get fit result by id: %w", err)
	}
	return r, nil
}

// GetBySymbol retrieves all fit results for a symbol, ordered by created_at
// ASC then fit_id ASC.
func (s *FitResultStore) GetBySymbol(ctx context.Context, symbol string) ([]*domain.FitResult, error) {
	query := `
		SELECT ` + fitResultColumns + `
		FROM fit_results
		WHERE symbol = $1
		ORDER BY created_at ASC, fit_id ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("get fit results by symbol: %w", err)
	}
	defer rows.Close()

	return scanFitResults(rows)
}

// GetByRunID retrieves all fit results for a run, ordered by created_at
// ASC then fit_id ASC.
func (s *FitResultStore) GetByRunID(ctx context.Context, runID string) ([]*domain.FitResult, error) {
	query := `
		SELECT ` + fitResultColumns + `
		FROM fit_results
		WHERE run_id = $1
		ORDER BY created_at ASC, fit_id ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get fit results by run id: %w", err)
	}
	defer rows.Close()

	return scanFitResults(rows)
}

// GetLatest retrieves the most recent fit result for a symbol and model
// specification. Returns ErrNotFound if none exists.
func (s *FitResultStore) GetLatest(ctx context.Context, symbol string, spec domain.ModelSpec) (*domain.FitResult, error) {
	query := `
		SELECT ` + fitResultColumns + `
		FROM fit_results
		WHERE symbol = $1 AND family = $2 AND p = $3 AND q = $4 AND dist = $5
		ORDER BY created_at DESC, fit_id DESC
		LIMIT 1
	`

	row := s.pool.QueryRow(ctx, query, symbol, string(spec.Family), spec.P, spec.Q, string(spec.Dist))
	r, err := scanFitResult(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest fit result: %w", err)
	}
	return r, nil
}

// scanFitResult scans a single row into a FitResult.
func scanFitResult(row pgx.Row) (*domain.FitResult, error) {
	var r domain.FitResult

	err := row.Scan(
		&r.FitID, &r.RunID, &r.Symbol,
		&r.Family, &r.P, &r.Q, &r.Dist,
		&r.Omega, &r.Alpha, &r.Gamma, &r.Beta,
		&r.LogLikelihood, &r.AIC, &r.BIC,
		&r.Converged, &r.Iterations, &r.FuncEvals,
		&r.Mean, &r.NumObs, &r.CreatedAtMs,
	)
	if err != nil {
		return nil, err
	}

	return &r, nil
}

// scanFitResults scans multiple rows into a slice of FitResult.
func scanFitResults(rows pgx.Rows) ([]*domain.FitResult, error) {
	var results []*domain.FitResult

	for rows.Next() {
		var r domain.FitResult

		err := rows.Scan(
			&r.FitID, &r.RunID, &r.Symbol,
			&r.Family, &r.P, &r.Q, &r.Dist,
			&r.Omega, &r.Alpha, &r.Gamma, &r.Beta,
			&r.LogLikelihood, &r.AIC, &r.BIC,
			&r.Converged, &r.Iterations, &r.FuncEvals,
			&r.Mean, &r.NumObs, &r.CreatedAtMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan fit result row: %w", err)
		}

		results = append(results, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fit result rows: %w", err)
	}

	return results, nil
}
