package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"crypto-volatility-lab/internal/domain"
	"crypto-volatility-lab/internal/storage/memory"
)

func seedStore(t *testing.T, store *memory.PriceSeriesStore, symbol string, days int) {
	t.Helper()
	points := make([]domain.PricePoint, days)
	for i := range points {
		points[i] = domain.PricePoint{
			Time:  time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC),
			Price: 100.0 + float64(i),
		}
	}
	if err := store.InsertBulk(context.Background(), symbol, points); err != nil {
		t.Fatalf("seed store: %v", err)
	}
}

func TestStoreProviderPrices(t *testing.T) {
	store := memory.NewPriceSeriesStore()
	seedStore(t, store, "BTC-USD", 5)

	p := NewStoreProvider(store, time.Time{}, time.Time{})
	series, err := p.Prices(context.Background(), "BTC-USD")
	if err != nil {
		t.Fatalf("Prices: %v", err)
	}
	if series.Symbol != "BTC-USD" {
		t.Errorf("symbol = %q, want BTC-USD", series.Symbol)
	}
	if series.Len() != 5 {
		t.Fatalf("len = %d, want 5", series.Len())
	}
	if series.Points[0].Price != 100.0 || series.Points[4].Price != 104.0 {
		t.Errorf("prices = %v .. %v, want 100.0 .. 104.0", series.Points[0].Price, series.Points[4].Price)
	}
}

func TestStoreProviderDateRange(t *testing.T) {
	store := memory.NewPriceSeriesStore()
	seedStore(t, store, "BTC-USD", 5)

	from := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)
	p := NewStoreProvider(store, from, to)
	series, err := p.Prices(context.Background(), "BTC-USD")
	if err != nil {
		t.Fatalf("Prices: %v", err)
	}
	if series.Len() != 3 {
		t.Fatalf("len = %d, want 3", series.Len())
	}
	if series.Points[0].Price != 101.0 || series.Points[2].Price != 103.0 {
		t.Errorf("range prices = %v .. %v, want 101.0 .. 103.0", series.Points[0].Price, series.Points[2].Price)
	}
}

func TestStoreProviderOpenEndedRange(t *testing.T) {
	store := memory.NewPriceSeriesStore()
	seedStore(t, store, "BTC-USD", 5)

	to := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	p := NewStoreProvider(store, time.Time{}, to)
	series, err := p.Prices(context.Background(), "BTC-USD")
	if err != nil {
		t.Fatalf("Prices: %v", err)
	}
	if series.Len() != 2 {
		t.Fatalf("len = %d, want 2", series.Len())
	}
}

func TestStoreProviderUnknownSymbol(t *testing.T) {
	store := memory.NewPriceSeriesStore()
	seedStore(t, store, "BTC-USD", 3)

	p := NewStoreProvider(store, time.Time{}, time.Time{})
	_, err := p.Prices(context.Background(), "ETH-USD")
	if !errors.Is(err, ErrSymbolNotFound) {
		t.Fatalf("err = %v, want ErrSymbolNotFound", err)
	}
}

func TestStoreProviderRangeFilteredToEmpty(t *testing.T) {
	store := memory.NewPriceSeriesStore()
	seedStore(t, store, "BTC-USD", 3)

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	p := NewStoreProvider(store, from, to)
	_, err := p.Prices(context.Background(), "BTC-USD")
	if !errors.Is(err, ErrSymbolNotFound) {
		t.Fatalf("err = %v, want ErrSymbolNotFound", err)
	}
}

func TestStoreProviderRejectsBadStoredData(t *testing.T) {
	store := memory.NewPriceSeriesStore()
	points := []domain.PricePoint{
		{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Price: 100.0},
		{Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Price: -5.0},
	}
	if err := store.InsertBulk(context.Background(), "BAD", points); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	p := NewStoreProvider(store, time.Time{}, time.Time{})
	_, err := p.Prices(context.Background(), "BAD")
	if !errors.Is(err, domain.ErrNonPositivePrice) {
		t.Fatalf("err = %v, want ErrNonPositivePrice", err)
	}
}
