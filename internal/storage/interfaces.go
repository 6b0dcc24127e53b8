package storage

import (
	"context"
	"time"

	"crypto-volatility-lab/internal/domain"
)

// PriceSeriesStore provides access to daily closing-price storage.
type PriceSeriesStore interface {
	// InsertBulk adds price points for a symbol atomically. Fails the entire
	// batch with ErrDuplicateKey if any (symbol, time) key exists.
	InsertBulk(ctx context.Context, symbol string, points []domain.PricePoint) error

	// GetBySymbol retrieves all points for a symbol, ordered by time ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]domain.PricePoint, error)

	// GetByTimeRange retrieves points for a symbol within [start, end]
	// (inclusive), ordered by time ASC.
	GetByTimeRange(ctx context.Context, symbol string, start, end time.Time) ([]domain.PricePoint, error)

	// Symbols lists the distinct symbols present, sorted ASC.
	Symbols(ctx context.Context) ([]string, error)
}

// VarianceSeriesStore provides access to conditional-variance storage,
// keyed per symbol and model.
type VarianceSeriesStore interface {
	// InsertBulk adds variance points for a (symbol, model key) pair
	// atomically. Fails the entire batch with ErrDuplicateKey if any
	// (symbol, model key, time) key exists.
	InsertBulk(ctx context.Context, symbol, modelKey string, points []domain.VariancePoint) error

	// GetByModel retrieves all points for a (symbol, model key) pair,
	// ordered by time ASC.
	GetByModel(ctx context.Context, symbol, modelKey string) ([]domain.VariancePoint, error)

	// ModelKeys lists the distinct model keys stored for a symbol, sorted ASC.
	ModelKeys(ctx context.Context, symbol string) ([]string, error)
}

// FitResultStore provides access to estimation-result storage.
type FitResultStore interface {
	// Insert adds a fit result. Returns ErrDuplicateKey if fit_id exists.
	Insert(ctx context.Context, r *domain.FitResult) error

	// InsertBulk adds multiple fit results atomically. Fails the entire
	// batch on any duplicate.
	InsertBulk(ctx context.Context, results []*domain.FitResult) error

	// GetByID retrieves a fit result by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, fitID string) (*domain.FitResult, error)

	// GetBySymbol retrieves all fit results for a symbol, ordered by
	// created_at ASC then fit_id ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.FitResult, error)

	// GetByRunID retrieves all fit results for a run, ordered by
	// created_at ASC then fit_id ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.FitResult, error)

	// GetLatest retrieves the most recent fit result for a symbol and model
	// specification. Returns ErrNotFound if none exists.
	GetLatest(ctx context.Context, symbol string, spec domain.ModelSpec) (*domain.FitResult, error)
}
