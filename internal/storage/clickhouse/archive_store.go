package clickhouse

import (
	"context"
	"fmt"

	"item-price-lab/internal/domain"
	"item-price-lab/internal/storage"
)

// ArchiveStore implements storage.ArchiveStore using ClickHouse.
type ArchiveStore struct {
	conn *Conn
}

// NewArchiveStore creates a new ArchiveStore.
func NewArchiveStore(conn *Conn) *ArchiveStore {
	return &ArchiveStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ArchiveStore = (*ArchiveStore)(nil)

// InsertTrades appends trades to the archive. Duplicates are tolerated.
func (s *ArchiveStore) InsertTrades(ctx context.Context, itemKey, region string, trades []domain.Trade) error {
	if itemKey == "" {
		return storage.ErrInvalidInput
	}
	if len(trades) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO trade_archive (item_key, region, timestamp_ms, price, amount)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, t := range trades {
		if err := batch.Append(itemKey, region, uint64(t.TimestampMs), t.Price, t.Amount); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// CountByItem returns the number of archived trades for an item.
func (s *ArchiveStore) CountByItem(ctx context.Context, itemKey, region string) (uint64, error) {
	var count uint64
	row := s.conn.QueryRow(ctx, `
		SELECT count() FROM trade_archive WHERE item_key = ? AND region = ?
	`, itemKey, region)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count archive rows: %w", err)
	}
	return count, nil
}
