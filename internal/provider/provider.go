package provider

import (
	"context"
	"errors"

	"crypto-volatility-lab/internal/domain"
)

// ErrSymbolNotFound signals that a provider has no price data for a symbol.
var ErrSymbolNotFound = errors.New("no price data for symbol")

// PriceProvider supplies the daily closing-price history for a symbol.
type PriceProvider interface {
	// Prices returns the ordered, validated price series for a symbol.
	// Returns ErrSymbolNotFound when the provider has no data for it.
	Prices(ctx context.Context, symbol string) (*domain.PriceSeries, error)
}
