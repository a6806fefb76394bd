package postgres

import (
	"context"
	"fmt"

	"item-price-lab/internal/domain"
	"item-price-lab/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

// InsertBatch stores trades, silently skipping exact duplicates.
// ON CONFLICT DO NOTHING carries the idempotence contract.
func (s *TradeStore) InsertBatch(ctx context.Context, itemKey, region string, trades []domain.Trade) error {
	if itemKey == "" {
		return storage.ErrInvalidInput
	}
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO trades (item_key, region, timestamp_ms, price, amount)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (item_key, region, timestamp_ms, price, amount) DO NOTHING
	`

	for _, t := range trades {
		if _, err := tx.Exec(ctx, query, itemKey, region, t.TimestampMs, t.Price, t.Amount); err != nil {
			return fmt.Errorf("insert trade: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByTimeRange retrieves trades within [startMs, endMs], newest first.
func (s *TradeStore) GetByTimeRange(ctx context.Context, itemKey, region string, startMs, endMs int64) ([]domain.Trade, error) {
	query := `
		SELECT timestamp_ms, price, amount
		FROM trades
		WHERE item_key = $1 AND region = $2 AND timestamp_ms BETWEEN $3 AND $4
		ORDER BY timestamp_ms DESC
	`

	rows, err := s.pool.Query(ctx, query, itemKey, region, startMs, endMs)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		var t domain.Trade
		if err := rows.Scan(&t.TimestampMs, &t.Price, &t.Amount); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}
	return trades, nil
}
