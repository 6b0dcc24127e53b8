package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto-volatility-lab/internal/domain"
	"crypto-volatility-lab/internal/storage"
)

func createTestFitResult(fitID, runID, symbol string, createdAtMs int64) *domain.FitResult {
	return &domain.FitResult{
		FitID:         fitID,
		RunID:         runID,
		Symbol:        symbol,
		Family:        string(domain.FamilyGARCH),
		P:             1,
		Q:             1,
		Dist:          string(domain.DistNormal),
		Omega:         0.1,
		Alpha:         0.08,
		Gamma:         0.0,
		Beta:          0.9,
		LogLikelihood: -1500.5,
		AIC:           3007.0,
		BIC:           3021.2,
		Converged:     true,
		Iterations:    240,
		FuncEvals:     460,
		Mean:          0.0004,
		NumObs:        500,
		CreatedAtMs:   createdAtMs,
	}
}

func TestFitResultStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewFitResultStore(pool)

	r := createTestFitResult("fit-001", "run-a", "BTC-USD", 1700000000000)

	err := store.Insert(ctx, r)
	require.NoError(t, err)

	retrieved, err := store.GetByID(ctx, "fit-001")
	require.NoError(t, err)

	assert.Equal(t, r.FitID, retrieved.FitID)
	assert.Equal(t, r.RunID, retrieved.RunID)
	assert.Equal(t, r.Symbol, retrieved.Symbol)
	assert.Equal(t, r.Family, retrieved.Family)
	assert.Equal(t, r.P, retrieved.P)
	assert.Equal(t, r.Q, retrieved.Q)
	assert.Equal(t, r.Dist, retrieved.Dist)
	assert.InDelta(t, r.Omega, retrieved.Omega, 1e-12)
	assert.InDelta(t, r.Alpha, retrieved.Alpha, 1e-12)
	assert.InDelta(t, r.Gamma, retrieved.Gamma, 1e-12)
	assert.InDelta(t, r.Beta, retrieved.Beta, 1e-12)
	assert.InDelta(t, r.LogLikelihood, retrieved.LogLikelihood, 1e-9)
	assert.InDelta(t, r.AIC, retrieved.AIC, 1e-9)
	assert.InDelta(t, r.BIC, retrieved.BIC, 1e-9)
	assert.Equal(t, r.Converged, retrieved.Converged)
	assert.Equal(t, r.Iterations, retrieved.Iterations)
	assert.Equal(t, r.FuncEvals, retrieved.FuncEvals)
	assert.InDelta(t, r.Mean, retrieved.Mean, 1e-12)
	assert.Equal(t, r.NumObs, retrieved.NumObs)
	assert.Equal(t, r.CreatedAtMs, retrieved.CreatedAtMs)
}

func TestFitResultStore_DuplicateKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewFitResultStore(pool)

	err := store.Insert(ctx, createTestFitResult("fit-001", "run-a", "BTC-USD", 1000))
	require.NoError(t, err)

	err = store.Insert(ctx, createTestFitResult("fit-001", "run-b", "ETH-USD", 2000))
	assert.True(t, errors.Is(err, storage.ErrDuplicateKey), "expected ErrDuplicateKey, got %v", err)
}

func TestFitResultStore_GetByIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewFitResultStore(pool)

	_, err := store.GetByID(ctx, "missing")
	assert.True(t, errors.Is(err, storage.ErrNotFound), "expected ErrNotFound, got %v", err)
}

func TestFitResultStore_InsertBulkRollback(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewFitResultStore(pool)

	results := []*domain.FitResult{
		createTestFitResult("fit-001", "run-a", "BTC-USD", 1000),
		createTestFitResult("fit-002", "run-a", "BTC-USD", 2000),
		createTestFitResult("fit-001", "run-a", "BTC-USD", 3000), // duplicate fit_id
	}

	err := store.InsertBulk(ctx, results)
	assert.True(t, errors.Is(err, storage.ErrDuplicateKey), "expected ErrDuplicateKey, got %v", err)

	// Transaction rolled back: nothing persisted
	got, err := store.GetBySymbol(ctx, "BTC-USD")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFitResultStore_GetBySymbolOrdered(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewFitResultStore(pool)

	results := []*domain.FitResult{
		createTestFitResult("fit-003", "run-b", "BTC-USD", 3000),
		createTestFitResult("fit-001", "run-a", "BTC-USD", 1000),
		createTestFitResult("fit-002", "run-a", "BTC-USD", 1000), // created_at tie
		createTestFitResult("fit-eth", "run-a", "ETH-USD", 500),
	}
	require.NoError(t, store.InsertBulk(ctx, results))

	got, err := store.GetBySymbol(ctx, "BTC-USD")
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, "fit-001", got[0].FitID)
	assert.Equal(t, "fit-002", got[1].FitID)
	assert.Equal(t, "fit-003", got[2].FitID)
}

func TestFitResultStore_GetByRunID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewFitResultStore(pool)

	results := []*domain.FitResult{
		createTestFitResult("fit-001", "run-a", "BTC-USD", 1000),
		createTestFitResult("fit-002", "run-b", "BTC-USD", 2000),
		createTestFitResult("fit-003", "run-a", "ETH-USD", 3000),
	}
	require.NoError(t, store.InsertBulk(ctx, results))

	got, err := store.GetByRunID(ctx, "run-a")
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "fit-001", got[0].FitID)
	assert.Equal(t, "fit-003", got[1].FitID)
}

func TestFitResultStore_GetLatest(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewFitResultStore(pool)

	old := createTestFitResult("fit-001", "run-a", "BTC-USD", 1000)
	newer := createTestFitResult("fit-002", "run-b", "BTC-USD", 5000)
	newer.AIC = 2999.0

	egarch := createTestFitResult("fit-003", "run-b", "BTC-USD", 9000)
	egarch.Family = string(domain.FamilyEGARCH)
	egarch.Gamma = -0.05

	require.NoError(t, store.InsertBulk(ctx, []*domain.FitResult{old, newer, egarch}))

	spec := domain.ModelSpec{Family: domain.FamilyGARCH, P: 1, Q: 1, Dist: domain.DistNormal}
	got, err := store.GetLatest(ctx, "BTC-USD", spec)
	require.NoError(t, err)

	assert.Equal(t, "fit-002", got.FitID)
	assert.InDelta(t, 2999.0, got.AIC, 1e-9)

	// Unseen spec
	gjr := domain.ModelSpec{Family: domain.FamilyGJRGARCH, P: 1, Q: 1, Dist: domain.DistNormal}
	_, err = store.GetLatest(ctx, "BTC-USD", gjr)
	assert.True(t, errors.Is(err, storage.ErrNotFound), "expected ErrNotFound, got %v", err)
}

func TestFitResultStore_InvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewFitResultStore(pool)

	err := store.Insert(ctx, nil)
	assert.True(t, errors.Is(err, storage.ErrInvalidInput), "expected ErrInvalidInput, got %v", err)

	err = store.Insert(ctx, createTestFitResult("", "run-a", "BTC-USD", 1000))
	assert.True(t, errors.Is(err, storage.ErrInvalidInput), "expected ErrInvalidInput, got %v", err)
}

func TestFitResultStore_EmptyBulk(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewFitResultStore(pool)

	require.NoError(t, store.InsertBulk(ctx, nil))
}
