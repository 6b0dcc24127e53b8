package memory

import (
	"context"
	"sort"
	"sync"

	"crypto-volatility-lab/internal/domain"
	"crypto-volatility-lab/internal/storage"
)

// varianceKey identifies one stored variance observation.
type varianceKey struct {
	symbol   string
	modelKey string
	tsMs     int64
}

// VarianceSeriesStore is an in-memory implementation of storage.VarianceSeriesStore.
type VarianceSeriesStore struct {
	mu   sync.RWMutex
	data map[varianceKey]domain.VariancePoint
}

// NewVarianceSeriesStore creates a new in-memory variance series store.
func NewVarianceSeriesStore() *VarianceSeriesStore {
	return &VarianceSeriesStore{
		data: make(map[varianceKey]domain.VariancePoint),
	}
}

// InsertBulk adds points for a (symbol, model key) pair. Fails entire batch
// on duplicate.
func (s *VarianceSeriesStore) InsertBulk(_ context.Context, symbol, modelKey string, points []domain.VariancePoint) error {
	if symbol == "" || modelKey == "" {
		return storage.ErrInvalidInput
	}
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[varianceKey]struct{}, len(points))

	// First pass: check for duplicates (existing + intra-batch)
	for _, p := range points {
		k := varianceKey{symbol, modelKey, p.Time.UnixMilli()}
		if _, exists := s.data[k]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[k]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[k] = struct{}{}
	}

	// Second pass: insert all
	for _, p := range points {
		s.data[varianceKey{symbol, modelKey, p.Time.UnixMilli()}] = p
	}

	return nil
}

// GetByModel retrieves all points for a (symbol, model key) pair, ordered
// by time ASC.
func (s *VarianceSeriesStore) GetByModel(_ context.Context, symbol, modelKey string) ([]domain.VariancePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.VariancePoint
	for k, p := range s.data {
		if k.symbol == symbol && k.modelKey == modelKey {
			result = append(result, p)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Time.Before(result[j].Time)
	})

	return result, nil
}

// ModelKeys lists the distinct model keys stored for a symbol, sorted ASC.
func (s *VarianceSeriesStore) ModelKeys(_ context.Context, symbol string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for k := range s.data {
		if k.symbol == symbol {
			seen[k.modelKey] = struct{}{}
		}
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys, nil
}

var _ storage.VarianceSeriesStore = (*VarianceSeriesStore)(nil)
