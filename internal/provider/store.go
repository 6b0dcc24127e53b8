package provider

import (
	"context"
	"fmt"
	"time"

	"crypto-volatility-lab/internal/domain"
	"crypto-volatility-lab/internal/lookup"
	"crypto-volatility-lab/internal/storage"
)

// StoreProvider reads price series out of a PriceSeriesStore. When both
// bounds are set the range query is pushed down to the store; otherwise
// the full history is loaded and trimmed here.
type StoreProvider struct {
	store storage.PriceSeriesStore
	from  time.Time
	to    time.Time
}

// NewStoreProvider returns a provider over store, keeping only points
// within [from, to]. A zero bound disables filtering on that side.
func NewStoreProvider(store storage.PriceSeriesStore, from, to time.Time) *StoreProvider {
	return &StoreProvider{store: store, from: from, to: to}
}

// Prices loads and validates the series for a symbol from the store.
func (p *StoreProvider) Prices(ctx context.Context, symbol string) (*domain.PriceSeries, error) {
	var (
		points []domain.PricePoint
		err    error
	)
	if !p.from.IsZero() && !p.to.IsZero() {
		points, err = p.store.GetByTimeRange(ctx, symbol, p.from, p.to)
	} else {
		points, err = p.store.GetBySymbol(ctx, symbol)
		if err == nil {
			points = lookup.PriceWindow(points, p.from, p.to)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("load prices for %s: %w", symbol, err)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrSymbolNotFound)
	}

	series := &domain.PriceSeries{Symbol: symbol, Points: points}
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", symbol, err)
	}
	return series, nil
}

var _ PriceProvider = (*StoreProvider)(nil)
