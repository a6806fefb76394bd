package memory

import (
	"context"
	"sync"

	"item-price-lab/internal/domain"
	"item-price-lab/internal/storage"
)

// ArchiveStore is an in-memory implementation of storage.ArchiveStore.
// Like the ClickHouse archive it tolerates duplicates.
type ArchiveStore struct {
	mu     sync.RWMutex
	trades map[string][]domain.Trade // keyed by item|region
}

// NewArchiveStore creates a new in-memory archive store.
func NewArchiveStore() *ArchiveStore {
	return &ArchiveStore{trades: make(map[string][]domain.Trade)}
}

// Compile-time interface check.
var _ storage.ArchiveStore = (*ArchiveStore)(nil)

// InsertTrades appends trades to the archive.
func (s *ArchiveStore) InsertTrades(_ context.Context, itemKey, region string, trades []domain.Trade) error {
	if itemKey == "" {
		return storage.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := itemRegionKey(itemKey, region)
	s.trades[key] = append(s.trades[key], trades...)
	return nil
}

// CountByItem returns the number of archived trades for an item.
func (s *ArchiveStore) CountByItem(_ context.Context, itemKey, region string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.trades[itemRegionKey(itemKey, region)])), nil
}
