package provider

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"crypto-volatility-lab/internal/domain"
	"crypto-volatility-lab/internal/lookup"
)

// csvDateFormats are the timestamp layouts accepted in price files.
// Integer fields are treated as unix milliseconds.
var csvDateFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// CSVProvider loads price series from one <symbol>.csv file per symbol
// under a directory. Files carry a header row naming a timestamp and a
// price column; rows may be unordered on disk.
type CSVProvider struct {
	dir  string
	from time.Time
	to   time.Time
}

// NewCSVProvider returns a provider reading from dir, keeping only points
// within [from, to]. A zero bound disables filtering on that side.
func NewCSVProvider(dir string, from, to time.Time) *CSVProvider {
	return &CSVProvider{dir: dir, from: from, to: to}
}

// Prices loads, orders and validates the series for a symbol from
// <dir>/<symbol>.csv.
func (p *CSVProvider) Prices(ctx context.Context, symbol string) (*domain.PriceSeries, error) {
	path := filepath.Join(p.dir, symbol+".csv")
	points, err := p.loadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", symbol, ErrSymbolNotFound)
		}
		return nil, err
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].Time.Before(points[j].Time)
	})
	points = lookup.PriceWindow(points, p.from, p.to)

	series := &domain.PriceSeries{Symbol: symbol, Points: points}
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return series, nil
}

func (p *CSVProvider) loadFile(path string) ([]domain.PricePoint, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", path, err)
	}

	tsCol, priceCol, err := mapColumns(header)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var points []domain.PricePoint
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: read row: %w", path, err)
		}

		ts, err := parseTimestamp(record[tsCol])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(record[priceCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: parse price %q: %w", path, line, record[priceCol], err)
		}
		points = append(points, domain.PricePoint{Time: ts, Price: price})
	}
	return points, nil
}

// mapColumns locates the timestamp and price columns, accepting common
// header name variants.
func mapColumns(header []string) (tsCol, priceCol int, err error) {
	tsCol, priceCol = -1, -1
	for i, column := range header {
		switch strings.ToLower(strings.TrimSpace(column)) {
		case "timestamp", "ts", "time", "date", "datetime":
			tsCol = i
		case "price", "close", "closing_price":
			priceCol = i
		}
	}
	if tsCol < 0 {
		return 0, 0, fmt.Errorf("missing timestamp column in header %v", header)
	}
	if priceCol < 0 {
		return 0, 0, fmt.Errorf("missing price column in header %v", header)
	}
	return tsCol, priceCol, nil
}

func parseTimestamp(field string) (time.Time, error) {
	s := strings.TrimSpace(field)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	for _, layout := range csvDateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", field)
}

var _ PriceProvider = (*CSVProvider)(nil)
