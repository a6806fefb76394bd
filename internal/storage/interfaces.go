// Package storage defines the persistence interfaces behind the pipeline.
// All stores are optional collaborators: the pipeline computes statistics
// without any of them; they exist for archival and cross-run inspection.
package storage

import (
	"context"

	"item-price-lab/internal/domain"
)

// TradeStore persists normalized trades per (item, region). Inserts are
// idempotent on (item, region, timestamp, price, amount): re-ingesting the
// same history is a no-op, not an error.
type TradeStore interface {
	// InsertBatch stores trades, silently skipping exact duplicates.
	InsertBatch(ctx context.Context, itemKey, region string, trades []domain.Trade) error

	// GetByTimeRange retrieves trades within [startMs, endMs] (inclusive),
	// ordered by timestamp DESC to match the acquisition order.
	GetByTimeRange(ctx context.Context, itemKey, region string, startMs, endMs int64) ([]domain.Trade, error)
}

// ResultStore persists per-run item results, append-only.
type ResultStore interface {
	// Insert adds one item result for a run. Returns ErrDuplicateKey when
	// (run_id, item id) already exists.
	Insert(ctx context.Context, runID string, result domain.ItemResult) error

	// GetByRun retrieves all results of one run, ordered by item id.
	GetByRun(ctx context.Context, runID string) ([]domain.ItemResult, error)
}

// ArchiveStore keeps the full trade history archive for offline analysis
// (ClickHouse in production). Duplicates are tolerated; the archive is a
// log, not a ledger.
type ArchiveStore interface {
	// InsertTrades appends trades to the archive.
	InsertTrades(ctx context.Context, itemKey, region string, trades []domain.Trade) error

	// CountByItem returns the number of archived trades for an item.
	CountByItem(ctx context.Context, itemKey, region string) (uint64, error)
}
