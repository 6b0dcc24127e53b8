package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"crypto-volatility-lab/internal/domain"
	"crypto-volatility-lab/internal/storage"
)

// PriceSeriesStore is an in-memory implementation of storage.PriceSeriesStore.
// Points are keyed by (symbol, unix ms) to match the ClickHouse schema.
type PriceSeriesStore struct {
	mu   sync.RWMutex
	data map[string]map[int64]domain.PricePoint // symbol -> unix ms -> point
}

// NewPriceSeriesStore creates a new in-memory price series store.
func NewPriceSeriesStore() *PriceSeriesStore {
	return &PriceSeriesStore{
		data: make(map[string]map[int64]domain.PricePoint),
	}
}

// InsertBulk adds points for a symbol. Fails entire batch on duplicate.
func (s *PriceSeriesStore) InsertBulk(_ context.Context, symbol string, points []domain.PricePoint) error {
	if symbol == "" {
		return storage.ErrInvalidInput
	}
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[int64]struct{}, len(points))

	// First pass: check for duplicates (existing + intra-batch)
	for _, p := range points {
		ms := p.Time.UnixMilli()
		if _, exists := s.data[symbol][ms]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[ms]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[ms] = struct{}{}
	}

	// Second pass: insert all
	if s.data[symbol] == nil {
		s.data[symbol] = make(map[int64]domain.PricePoint, len(points))
	}
	for _, p := range points {
		s.data[symbol][p.Time.UnixMilli()] = p
	}

	return nil
}

// GetBySymbol retrieves all points for a symbol, ordered by time ASC.
func (s *PriceSeriesStore) GetBySymbol(_ context.Context, symbol string) ([]domain.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.PricePoint
	for _, p := range s.data[symbol] {
		result = append(result, p)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Time.Before(result[j].Time)
	})

	return result, nil
}

// GetByTimeRange retrieves points for a symbol within [start, end] (inclusive).
func (s *PriceSeriesStore) GetByTimeRange(_ context.Context, symbol string, start, end time.Time) ([]domain.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	startMs, endMs := start.UnixMilli(), end.UnixMilli()

	var result []domain.PricePoint
	for ms, p := range s.data[symbol] {
		if ms >= startMs && ms <= endMs {
			result = append(result, p)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Time.Before(result[j].Time)
	})

	return result, nil
}

// Symbols lists the distinct symbols present, sorted ASC.
func (s *PriceSeriesStore) Symbols(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var symbols []string
	for sym, points := range s.data {
		if len(points) > 0 {
			symbols = append(symbols, sym)
		}
	}
	sort.Strings(symbols)

	return symbols, nil
}

var _ storage.PriceSeriesStore = (*PriceSeriesStore)(nil)
