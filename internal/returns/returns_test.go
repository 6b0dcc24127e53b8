package returns

import (
	"errors"
	"math"
	"testing"
	"time"

	"crypto-volatility-lab/internal/domain"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func priceSeries(symbol string, prices ...float64) *domain.PriceSeries {
	points := make([]domain.PricePoint, len(prices))
	for i, p := range prices {
		points[i] = domain.PricePoint{Time: day(i), Price: p}
	}
	return &domain.PriceSeries{Symbol: symbol, Points: points}
}

func TestToLogReturns_LengthAndOrder(t *testing.T) {
	prices := priceSeries("BTC-USD", 100, 110, 105, 120)

	rs, err := ToLogReturns(prices)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rs.Len() != prices.Len()-1 {
		t.Errorf("expected %d returns, got %d", prices.Len()-1, rs.Len())
	}
	if rs.Symbol != "BTC-USD" {
		t.Errorf("expected symbol preserved, got %q", rs.Symbol)
	}
	// Each return is stamped with the later price's timestamp
	for i, p := range rs.Points {
		if !p.Time.Equal(day(i + 1)) {
			t.Errorf("return %d: expected time %v, got %v", i, day(i+1), p.Time)
		}
	}
}

func TestToLogReturns_Values(t *testing.T) {
	prices := priceSeries("BTC-USD", 100, 110, 105)

	rs, err := ToLogReturns(prices)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []float64{math.Log(110.0 / 100.0), math.Log(105.0 / 110.0)}
	for i, w := range want {
		if diff := math.Abs(rs.Points[i].Value - w); diff > 1e-15 {
			t.Errorf("return %d: expected %v, got %v", i, w, rs.Points[i].Value)
		}
	}
}

func TestToLogReturns_ConstantPricesGiveZeroReturns(t *testing.T) {
	prices := priceSeries("BTC-USD", 42, 42, 42, 42, 42)

	rs, err := ToLogReturns(prices)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, p := range rs.Points {
		if p.Value != 0 {
			t.Errorf("return %d: expected exactly 0, got %v", i, p.Value)
		}
	}
}

func TestToLogReturns_TooShort(t *testing.T) {
	prices := priceSeries("BTC-USD", 100)

	_, err := ToLogReturns(prices)
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestToLogReturns_NonPositivePrice(t *testing.T) {
	prices := priceSeries("BTC-USD", 100, -5, 110)

	_, err := ToLogReturns(prices)
	if !errors.Is(err, domain.ErrNonPositivePrice) {
		t.Errorf("expected ErrNonPositivePrice, got %v", err)
	}
}

func TestToLogReturns_ZeroPrice(t *testing.T) {
	prices := priceSeries("BTC-USD", 100, 0, 110)

	_, err := ToLogReturns(prices)
	if !errors.Is(err, domain.ErrNonPositivePrice) {
		t.Errorf("expected ErrNonPositivePrice, got %v", err)
	}
}

func TestToLogReturns_UnorderedTimestamps(t *testing.T) {
	prices := &domain.PriceSeries{
		Symbol: "BTC-USD",
		Points: []domain.PricePoint{
			{Time: day(0), Price: 100},
			{Time: day(2), Price: 110},
			{Time: day(1), Price: 105},
		},
	}

	_, err := ToLogReturns(prices)
	if !errors.Is(err, domain.ErrUnorderedTimestamps) {
		t.Errorf("expected ErrUnorderedTimestamps, got %v", err)
	}
}

func TestToLogReturns_DuplicateTimestamps(t *testing.T) {
	prices := &domain.PriceSeries{
		Symbol: "BTC-USD",
		Points: []domain.PricePoint{
			{Time: day(0), Price: 100},
			{Time: day(0), Price: 110},
		},
	}

	_, err := ToLogReturns(prices)
	if !errors.Is(err, domain.ErrUnorderedTimestamps) {
		t.Errorf("expected ErrUnorderedTimestamps, got %v", err)
	}
}

func TestPercentLogReturns_Scaling(t *testing.T) {
	prices := priceSeries("ETH-USD", 100, 110)

	plain, err := ToLogReturns(priceSeries("ETH-USD", 100, 110))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pct, err := PercentLogReturns(prices)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := math.Abs(pct.Points[0].Value - 100*plain.Points[0].Value); diff > 1e-12 {
		t.Errorf("expected percent return to be 100x plain return, diff %v", diff)
	}
}
