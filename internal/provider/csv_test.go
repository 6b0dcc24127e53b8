package provider

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"crypto-volatility-lab/internal/domain"
)

func writeCSV(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
}

func TestCSVProviderPrices(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "BTC-USD.csv", "timestamp,price\n2024-01-01,100.0\n2024-01-02,101.5\n2024-01-03,99.25\n")

	p := NewCSVProvider(dir, time.Time{}, time.Time{})
	series, err := p.Prices(context.Background(), "BTC-USD")
	if err != nil {
		t.Fatalf("Prices: %v", err)
	}
	if series.Symbol != "BTC-USD" {
		t.Errorf("symbol = %q, want BTC-USD", series.Symbol)
	}
	if series.Len() != 3 {
		t.Fatalf("len = %d, want 3", series.Len())
	}
	wantPrices := []float64{100.0, 101.5, 99.25}
	for i, want := range wantPrices {
		if got := series.Points[i].Price; got != want {
			t.Errorf("point %d price = %v, want %v", i, got, want)
		}
	}
	want := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	if !series.Points[1].Time.Equal(want) {
		t.Errorf("point 1 time = %v, want %v", series.Points[1].Time, want)
	}
}

func TestCSVProviderUnorderedRows(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "ETH-USD.csv", "timestamp,price\n2024-01-03,3.0\n2024-01-01,1.0\n2024-01-02,2.0\n")

	p := NewCSVProvider(dir, time.Time{}, time.Time{})
	series, err := p.Prices(context.Background(), "ETH-USD")
	if err != nil {
		t.Fatalf("Prices: %v", err)
	}
	for i, want := range []float64{1.0, 2.0, 3.0} {
		if got := series.Points[i].Price; got != want {
			t.Errorf("point %d price = %v, want %v", i, got, want)
		}
	}
}

func TestCSVProviderHeaderVariants(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "SOL-USD.csv", "Date,Close\n2024-01-01,95.5\n2024-01-02,97.0\n")

	p := NewCSVProvider(dir, time.Time{}, time.Time{})
	series, err := p.Prices(context.Background(), "SOL-USD")
	if err != nil {
		t.Fatalf("Prices: %v", err)
	}
	if series.Len() != 2 {
		t.Errorf("len = %d, want 2", series.Len())
	}
}

func TestCSVProviderTimestampFormats(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "MIXED.csv",
		"timestamp,price\n"+
			"2024-01-01T00:00:00Z,1.0\n"+
			"2024-01-02 00:00:00,2.0\n"+
			"1704240000000,3.0\n") // 2024-01-03T00:00:00Z in unix ms

	p := NewCSVProvider(dir, time.Time{}, time.Time{})
	series, err := p.Prices(context.Background(), "MIXED")
	if err != nil {
		t.Fatalf("Prices: %v", err)
	}
	if series.Len() != 3 {
		t.Fatalf("len = %d, want 3", series.Len())
	}
	want := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	if !series.Points[2].Time.Equal(want) {
		t.Errorf("unix-ms time = %v, want %v", series.Points[2].Time, want)
	}
}

func TestCSVProviderDateRange(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "BTC-USD.csv",
		"timestamp,price\n2024-01-01,1.0\n2024-01-02,2.0\n2024-01-03,3.0\n2024-01-04,4.0\n")

	from := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	p := NewCSVProvider(dir, from, to)
	series, err := p.Prices(context.Background(), "BTC-USD")
	if err != nil {
		t.Fatalf("Prices: %v", err)
	}
	if series.Len() != 2 {
		t.Fatalf("len = %d, want 2", series.Len())
	}
	if series.Points[0].Price != 2.0 || series.Points[1].Price != 3.0 {
		t.Errorf("filtered prices = %v, %v, want 2.0, 3.0", series.Points[0].Price, series.Points[1].Price)
	}
}

func TestCSVProviderOpenEndedRange(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "BTC-USD.csv", "timestamp,price\n2024-01-01,1.0\n2024-01-02,2.0\n2024-01-03,3.0\n")

	from := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	p := NewCSVProvider(dir, from, time.Time{})
	series, err := p.Prices(context.Background(), "BTC-USD")
	if err != nil {
		t.Fatalf("Prices: %v", err)
	}
	if series.Len() != 2 {
		t.Fatalf("len = %d, want 2", series.Len())
	}
	if series.Points[0].Price != 2.0 {
		t.Errorf("first price = %v, want 2.0", series.Points[0].Price)
	}
}

func TestCSVProviderMissingFile(t *testing.T) {
	p := NewCSVProvider(t.TempDir(), time.Time{}, time.Time{})
	_, err := p.Prices(context.Background(), "NOPE")
	if !errors.Is(err, ErrSymbolNotFound) {
		t.Fatalf("err = %v, want ErrSymbolNotFound", err)
	}
}

func TestCSVProviderMissingColumn(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "BAD.csv", "timestamp,volume\n2024-01-01,10\n")

	p := NewCSVProvider(dir, time.Time{}, time.Time{})
	if _, err := p.Prices(context.Background(), "BAD"); err == nil {
		t.Fatal("expected error for missing price column")
	}
}

func TestCSVProviderMalformedRow(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "BAD.csv", "timestamp,price\n2024-01-01,1.0\nnot-a-date,2.0\n")

	p := NewCSVProvider(dir, time.Time{}, time.Time{})
	_, err := p.Prices(context.Background(), "BAD")
	if err == nil {
		t.Fatal("expected error for malformed timestamp")
	}
}

func TestCSVProviderDuplicateTimestamp(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "DUP.csv", "timestamp,price\n2024-01-01,1.0\n2024-01-01,1.5\n")

	p := NewCSVProvider(dir, time.Time{}, time.Time{})
	_, err := p.Prices(context.Background(), "DUP")
	if !errors.Is(err, domain.ErrUnorderedTimestamps) {
		t.Fatalf("err = %v, want ErrUnorderedTimestamps", err)
	}
}

func TestCSVProviderNonPositivePrice(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "NEG.csv", "timestamp,price\n2024-01-01,1.0\n2024-01-02,-3.0\n")

	p := NewCSVProvider(dir, time.Time{}, time.Time{})
	_, err := p.Prices(context.Background(), "NEG")
	if !errors.Is(err, domain.ErrNonPositivePrice) {
		t.Fatalf("err = %v, want ErrNonPositivePrice", err)
	}
}

func TestCSVProviderRangeFilteredToEmpty(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "BTC-USD.csv", "timestamp,price\n2024-01-01,1.0\n")

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	p := NewCSVProvider(dir, from, to)
	_, err := p.Prices(context.Background(), "BTC-USD")
	if !errors.Is(err, domain.ErrEmptySeries) {
		t.Fatalf("err = %v, want ErrEmptySeries", err)
	}
}
