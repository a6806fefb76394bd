package postgres

import (
	"context"
	"fmt"

	"item-price-lab/internal/domain"
	"item-price-lab/internal/storage"
)

// ResultStore implements storage.ResultStore using PostgreSQL.
type ResultStore struct {
	pool *Pool
}

// NewResultStore creates a new ResultStore.
func NewResultStore(pool *Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ResultStore = (*ResultStore)(nil)

// Insert adds one item result. Returns ErrDuplicateKey if (run, item) exists.
func (s *ResultStore) Insert(ctx context.Context, runID string, r domain.ItemResult) error {
	if runID == "" || r.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO item_results (
			run_id, item_key,
			avg_24h, sample_count_24h, clean_count_24h, outliers_removed_24h, min_24h, max_24h,
			avg_7d, sample_count_7d, clean_count_7d, outliers_removed_7d, min_7d, max_7d,
			total_units_7d, error
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := s.pool.Exec(ctx, query,
		runID, r.ID,
		r.Avg24h, r.SampleCountLast24h, r.CleanSampleCount24h, r.OutliersRemoved24h, r.Min24h, r.Max24h,
		r.Avg7d, r.SampleCountLast7d, r.CleanSampleCount7d, r.OutliersRemoved7d, r.Min7d, r.Max7d,
		r.TotalUnits7d, r.Error,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert item result: %w", err)
	}
	return nil
}

// GetByRun retrieves all results of a run, ordered by item id.
func (s *ResultStore) GetByRun(ctx context.Context, runID string) ([]domain.ItemResult, error) {
	query := `
		SELECT item_key,
			avg_24h, sample_count_24h, clean_count_24h, outliers_removed_24h, min_24h, max_24h,
			avg_7d, sample_count_7d, clean_count_7d, outliers_removed_7d, min_7d, max_7d,
			total_units_7d, error
		FROM item_results
		WHERE run_id = $1
		ORDER BY item_key
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query item results: %w", err)
	}
	defer rows.Close()

	var results []domain.ItemResult
	for rows.Next() {
		var r domain.ItemResult
		if err := rows.Scan(&r.ID,
			&r.Avg24h, &r.SampleCountLast24h, &r.CleanSampleCount24h, &r.OutliersRemoved24h, &r.Min24h, &r.Max24h,
			&r.Avg7d, &r.SampleCountLast7d, &r.CleanSampleCount7d, &r.OutliersRemoved7d, &r.Min7d, &r.Max7d,
			&r.TotalUnits7d, &r.Error,
		); err != nil {
			return nil, fmt.Errorf("scan item result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate item results: %w", err)
	}
	return results, nil
}
