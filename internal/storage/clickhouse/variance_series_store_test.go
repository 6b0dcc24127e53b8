package clickhouse

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto-volatility-lab/internal/domain"
	"crypto-volatility-lab/internal/storage"
)

const garchKey = "GARCH_1_1_normal"

func TestVarianceSeriesStore_InsertBulkAndGet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewVarianceSeriesStore(conn)

	points := []domain.VariancePoint{
		{Time: day(1), Variance: 0.0004},
		{Time: day(2), Variance: 0.0005},
	}

	err := store.InsertBulk(ctx, "BTC-USD", garchKey, points)
	require.NoError(t, err)

	result, err := store.GetByModel(ctx, "BTC-USD", garchKey)
	require.NoError(t, err)

	require.Len(t, result, 2)
	assert.True(t, result[0].Time.Equal(day(1)))
	assert.InDelta(t, 0.0004, result[0].Variance, 1e-12)
	assert.True(t, result[1].Time.Equal(day(2)))
	assert.InDelta(t, 0.0005, result[1].Variance, 1e-12)
}

func TestVarianceSeriesStore_DuplicateKey(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewVarianceSeriesStore(conn)

	points := []domain.VariancePoint{{Time: day(1), Variance: 0.0004}}

	require.NoError(t, store.InsertBulk(ctx, "BTC-USD", garchKey, points))

	err := store.InsertBulk(ctx, "BTC-USD", garchKey, points)
	assert.True(t, errors.Is(err, storage.ErrDuplicateKey), "expected ErrDuplicateKey, got %v", err)
}

func TestVarianceSeriesStore_ModelsIsolated(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewVarianceSeriesStore(conn)

	// Same (symbol, time) under another model key is not a duplicate
	require.NoError(t, store.InsertBulk(ctx, "BTC-USD", garchKey,
		[]domain.VariancePoint{{Time: day(1), Variance: 0.0004}}))
	require.NoError(t, store.InsertBulk(ctx, "BTC-USD", "EGARCH_1_1_normal",
		[]domain.VariancePoint{{Time: day(1), Variance: 0.0006}}))

	result, err := store.GetByModel(ctx, "BTC-USD", garchKey)
	require.NoError(t, err)

	require.Len(t, result, 1)
	assert.InDelta(t, 0.0004, result[0].Variance, 1e-12)
}

func TestVarianceSeriesStore_ModelKeys(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewVarianceSeriesStore(conn)

	require.NoError(t, store.InsertBulk(ctx, "BTC-USD", "EGARCH_1_1_normal",
		[]domain.VariancePoint{{Time: day(1), Variance: 0.0006}}))
	require.NoError(t, store.InsertBulk(ctx, "BTC-USD", garchKey,
		[]domain.VariancePoint{{Time: day(1), Variance: 0.0004}}))
	require.NoError(t, store.InsertBulk(ctx, "ETH-USD", "GJR-GARCH_1_1_normal",
		[]domain.VariancePoint{{Time: day(1), Variance: 0.0009}}))

	keys, err := store.ModelKeys(ctx, "BTC-USD")
	require.NoError(t, err)

	assert.Equal(t, []string{"EGARCH_1_1_normal", garchKey}, keys)
}

func TestVarianceSeriesStore_InvalidInput(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewVarianceSeriesStore(conn)

	err := store.InsertBulk(ctx, "", garchKey, []domain.VariancePoint{{Time: day(1), Variance: 0.0004}})
	assert.True(t, errors.Is(err, storage.ErrInvalidInput), "expected ErrInvalidInput, got %v", err)

	err = store.InsertBulk(ctx, "BTC-USD", "", []domain.VariancePoint{{Time: day(1), Variance: 0.0004}})
	assert.True(t, errors.Is(err, storage.ErrInvalidInput), "expected ErrInvalidInput, got %v", err)
}
