package clickhouse

import (
	"context"
	"fmt"
	"time"

	"crypto-volatility-lab/internal/domain"
	"crypto-volatility-lab/internal/storage"
)

// VarianceSeriesStore implements storage.VarianceSeriesStore using ClickHouse.
// Timestamps are stored as unix milliseconds and returned in UTC.
type VarianceSeriesStore struct {
	conn *Conn
}

// NewVarianceSeriesStore creates a new VarianceSeriesStore.
func NewVarianceSeriesStore(conn *Conn) *VarianceSeriesStore {
	return &VarianceSeriesStore{conn: conn}
}

// Compile-time interface check.
var _ storage.VarianceSeriesStore = (*VarianceSeriesStore)(nil)

// InsertBulk adds points for a (symbol, model key) pair. Duplicates of
// (symbol, model_key, ts_ms) are rejected before the batch is sent.
func (s *VarianceSeriesStore) InsertBulk(ctx context.Context, symbol, modelKey string, points []domain.VariancePoint) error {
	if symbol == "" || modelKey == "" {
		return storage.ErrInvalidInput
	}
	if len(points) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[int64]struct{}, len(points))
	for _, p := range points {
		ms := p.Time.UnixMilli()
		if _, exists := seen[ms]; exists {
			return storage.ErrDuplicateKey
		}
		seen[ms] = struct{}{}
	}

	// Check for duplicates against existing rows
	for _, p := range points {
		exists, err := s.exists(ctx, symbol, modelKey, p.Time.UnixMilli())
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO variance_series (symbol, model_key, ts_ms, variance)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		if err := batch.Append(symbol, modelKey, uint64(p.Time.UnixMilli()), p.Variance); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByModel retrieves all points for a (symbol, model key) pair, ordered
// by time ASC.
func (s *VarianceSeriesStore) GetByModel(ctx context.Context, symbol, modelKey string) ([]domain.VariancePoint, error) {
	query := `
		SELECT ts_ms, variance
		FROM variance_series
		WHERE symbol = ? AND model_key = ?
		ORDER BY ts_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol, modelKey)
	if err != nil {
		return nil, fmt.Errorf("query by model: %w", err)
	}
	defer rows.Close()

	return scanVariancePoints(rows)
}

// ModelKeys lists the distinct model keys stored for a symbol, sorted ASC.
func (s *VarianceSeriesStore) ModelKeys(ctx context.Context, symbol string) ([]string, error) {
	query := `
		SELECT DISTINCT model_key
		FROM variance_series
		WHERE symbol = ?
		ORDER BY model_key ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("query model keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan model key row: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate model key rows: %w", err)
	}

	return keys, nil
}

// exists checks if a point with the given key exists.
func (s *VarianceSeriesStore) exists(ctx context.Context, symbol, modelKey string, tsMs int64) (bool, error) {
	query := `
		SELECT count(*) FROM variance_series
		WHERE symbol = ? AND model_key = ? AND ts_ms = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, symbol, modelKey, uint64(tsMs)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanVariancePoints scans multiple rows.
func scanVariancePoints(rows chRows) ([]domain.VariancePoint, error) {
	var points []domain.VariancePoint

	for rows.Next() {
		var tsMs uint64
		var variance float64

		if err := rows.Scan(&tsMs, &variance); err != nil {
			return nil, fmt.Errorf("scan variance series row: %w", err)
		}

		points = append(points, domain.VariancePoint{
			Time:     time.UnixMilli(int64(tsMs)).UTC(),
			Variance: variance,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate variance series rows: %w", err)
	}

	return points, nil
}
