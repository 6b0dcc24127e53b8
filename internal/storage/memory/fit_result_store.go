package memory

import (
	"context"
	"sort"
	"sync"

	"crypto-volatility-lab/internal/domain"
	"crypto-volatility-lab/internal/storage"
)

// FitResultStore is an in-memory implementation of storage.FitResultStore.
type FitResultStore struct {
	mu   sync.RWMutex
	data map[string]*domain.FitResult // keyed by fit_id
}

// NewFitResultStore creates a new in-memory fit result store.
func NewFitResultStore() *FitResultStore {
	return &FitResultStore{
		data: make(map[string]*domain.FitResult),
	}
}

// Insert adds a fit result. Returns ErrDuplicateKey if fit_id exists.
func (s *FitResultStore) Insert(_ context.Context, r *domain.FitResult) error {
	if r == nil || r.FitID == "" || r.Symbol == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.FitID]; exists {
		return storage.ErrDuplicateKey
	}

	resultCopy := *r
	s.data[r.FitID] = &resultCopy

	return nil
}

// InsertBulk adds multiple fit results. Fails entire batch on any duplicate.
func (s *FitResultStore) InsertBulk(_ context.Context, results []*domain.FitResult) error {
	if len(results) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(results))

	// First pass: validate and check for duplicates
	for _, r := range results {
		if r == nil || r.FitID == "" || r.Symbol == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[r.FitID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[r.FitID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[r.FitID] = struct{}{}
	}

	// Second pass: insert all
	for _, r := range results {
		resultCopy := *r
		s.data[r.FitID] = &resultCopy
	}

	return nil
}

// GetByID retrieves a fit result by its ID. Returns ErrNotFound if not exists.
func (s *FitResultStore) GetByID(_ context.Context, fitID string) (*domain.FitResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[fitID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	resultCopy := *r
	return &resultCopy, nil
}

// GetBySymbol retrieves all fit results for a symbol, ordered by created_at
// ASC then fit_id ASC.
func (s *FitResultStore) GetBySymbol(_ context.Context, symbol string) ([]*domain.FitResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.FitResult
	for _, r := range s.data {
		if r.Symbol == symbol {
			resultCopy := *r
			result = append(result, &resultCopy)
		}
	}
	sortFitResults(result)

	return result, nil
}

// GetByRunID retrieves all fit results for a run, ordered by created_at ASC
// then fit_id ASC.
func (s *FitResultStore) GetByRunID(_ context.Context, runID string) ([]*domain.FitResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.FitResult
	for _, r := range s.data {
		if r.RunID == runID {
			resultCopy := *r
			result = append(result, &resultCopy)
		}
	}
	sortFitResults(result)

	return result, nil
}

// GetLatest retrieves the most recent fit result for a symbol and model
// specification. Returns ErrNotFound if none exists.
func (s *FitResultStore) GetLatest(_ context.Context, symbol string, spec domain.ModelSpec) (*domain.FitResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.FitResult
	for _, r := range s.data {
		if r.Symbol != symbol || r.Spec() != spec {
			continue
		}
		if latest == nil || newerThan(r, latest) {
			latest = r
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}

	resultCopy := *latest
	return &resultCopy, nil
}

// sortFitResults orders by (created_at, fit_id) ASC for deterministic reads.
func sortFitResults(results []*domain.FitResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].CreatedAtMs != results[j].CreatedAtMs {
			return results[i].CreatedAtMs < results[j].CreatedAtMs
		}
		return results[i].FitID < results[j].FitID
	})
}

// newerThan reports whether a supersedes b, breaking created_at ties by fit_id.
func newerThan(a, b *domain.FitResult) bool {
	if a.CreatedAtMs != b.CreatedAtMs {
		return a.CreatedAtMs > b.CreatedAtMs
	}
	return a.FitID > b.FitID
}

var _ storage.FitResultStore = (*FitResultStore)(nil)
