package memory

import (
	"context"
	"errors"
	"testing"

	"crypto-volatility-lab/internal/domain"
	"crypto-volatility-lab/internal/storage"
)

func testFitResult(fitID, runID, symbol string, createdAtMs int64) *domain.FitResult {
	return &domain.FitResult{
		FitID:         fitID,
		RunID:         runID,
		Symbol:        symbol,
		Family:        string(domain.FamilyGARCH),
		P:             1,
		Q:             1,
		Dist:          string(domain.DistNormal),
		Omega:         0.1,
		Alpha:         0.08,
		Beta:          0.9,
		LogLikelihood: -1500.5,
		AIC:           3007.0,
		BIC:           3021.2,
		Converged:     true,
		Iterations:    240,
		FuncEvals:     460,
		Mean:          0.0004,
		NumObs:        500,
		CreatedAtMs:   createdAtMs,
	}
}

func TestFitResultStore_InsertAndGetByID(t *testing.T) {
	store := NewFitResultStore()
	ctx := context.Background()

	r := testFitResult("fit-001", "run-a", "BTC-USD", 1000)
	if err := store.Insert(ctx, r); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "fit-001")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Symbol != "BTC-USD" || got.AIC != 3007.0 || !got.Converged {
		t.Errorf("Retrieved record does not match inserted: %+v", got)
	}

	// Stored record is a copy, not an alias
	r.AIC = 0
	got2, _ := store.GetByID(ctx, "fit-001")
	if got2.AIC != 3007.0 {
		t.Errorf("Store aliased caller's record: AIC = %v", got2.AIC)
	}
}

func TestFitResultStore_DuplicateKey(t *testing.T) {
	store := NewFitResultStore()
	ctx := context.Background()

	if err := store.Insert(ctx, testFitResult("fit-001", "run-a", "BTC-USD", 1000)); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, testFitResult("fit-001", "run-b", "ETH-USD", 2000))
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestFitResultStore_GetByIDNotFound(t *testing.T) {
	store := NewFitResultStore()
	ctx := context.Background()

	_, err := store.GetByID(ctx, "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestFitResultStore_InsertBulkRollback(t *testing.T) {
	store := NewFitResultStore()
	ctx := context.Background()

	results := []*domain.FitResult{
		testFitResult("fit-001", "run-a", "BTC-USD", 1000),
		testFitResult("fit-001", "run-a", "BTC-USD", 2000), // duplicate fit_id
	}

	err := store.InsertBulk(ctx, results)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey for intra-batch duplicate, got %v", err)
	}

	got, _ := store.GetBySymbol(ctx, "BTC-USD")
	if len(got) != 0 {
		t.Errorf("Expected 0 records (rollback), got %d", len(got))
	}
}

func TestFitResultStore_GetBySymbolOrdered(t *testing.T) {
	store := NewFitResultStore()
	ctx := context.Background()

	results := []*domain.FitResult{
		testFitResult("fit-003", "run-b", "BTC-USD", 3000),
		testFitResult("fit-001", "run-a", "BTC-USD", 1000),
		testFitResult("fit-002", "run-a", "BTC-USD", 1000), // created_at tie
		testFitResult("fit-eth", "run-a", "ETH-USD", 500),
	}
	if err := store.InsertBulk(ctx, results); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetBySymbol(ctx, "BTC-USD")
	if err != nil {
		t.Fatalf("GetBySymbol failed: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(got))
	}
	wantOrder := []string{"fit-001", "fit-002", "fit-003"}
	for i, want := range wantOrder {
		if got[i].FitID != want {
			t.Errorf("Position %d: expected %s, got %s", i, want, got[i].FitID)
		}
	}
}

func TestFitResultStore_GetByRunID(t *testing.T) {
	store := NewFitResultStore()
	ctx := context.Background()

	results := []*domain.FitResult{
		testFitResult("fit-001", "run-a", "BTC-USD", 1000),
		testFitResult("fit-002", "run-b", "BTC-USD", 2000),
		testFitResult("fit-003", "run-a", "ETH-USD", 3000),
	}
	if err := store.InsertBulk(ctx, results); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByRunID(ctx, "run-a")
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("Expected 2 records for run-a, got %d", len(got))
	}
	if got[0].FitID != "fit-001" || got[1].FitID != "fit-003" {
		t.Errorf("Unexpected run-a records: %s, %s", got[0].FitID, got[1].FitID)
	}
}

func TestFitResultStore_GetLatest(t *testing.T) {
	store := NewFitResultStore()
	ctx := context.Background()

	old := testFitResult("fit-001", "run-a", "BTC-USD", 1000)
	newer := testFitResult("fit-002", "run-b", "BTC-USD", 5000)
	newer.AIC = 2999.0

	egarch := testFitResult("fit-003", "run-b", "BTC-USD", 9000)
	egarch.Family = string(domain.FamilyEGARCH)

	if err := store.InsertBulk(ctx, []*domain.FitResult{old, newer, egarch}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	spec := domain.ModelSpec{Family: domain.FamilyGARCH, P: 1, Q: 1, Dist: domain.DistNormal}
	got, err := store.GetLatest(ctx, "BTC-USD", spec)
	if err != nil {
		t.Fatalf("GetLatest failed: %v", err)
	}

	if got.FitID != "fit-002" {
		t.Errorf("Expected fit-002 (newest GARCH), got %s", got.FitID)
	}
	if got.AIC != 2999.0 {
		t.Errorf("Expected AIC 2999.0, got %v", got.AIC)
	}
}

func TestFitResultStore_GetLatestNotFound(t *testing.T) {
	store := NewFitResultStore()
	ctx := context.Background()

	if err := store.Insert(ctx, testFitResult("fit-001", "run-a", "BTC-USD", 1000)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	spec := domain.ModelSpec{Family: domain.FamilyEGARCH, P: 1, Q: 1, Dist: domain.DistNormal}
	_, err := store.GetLatest(ctx, "BTC-USD", spec)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unseen spec, got %v", err)
	}
}

func TestFitResultStore_InvalidInput(t *testing.T) {
	store := NewFitResultStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil record, got %v", err)
	}

	r := testFitResult("", "run-a", "BTC-USD", 1000)
	if err := store.Insert(ctx, r); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty fit_id, got %v", err)
	}
}

func TestFitResultStore_EmptyBulk(t *testing.T) {
	store := NewFitResultStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, nil); err != nil {
		t.Errorf("Empty bulk should succeed, got %v", err)
	}
}
