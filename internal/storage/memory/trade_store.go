// Package memory provides in-memory store implementations used by tests and
// by pipeline runs that do not persist anything.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"item-price-lab/internal/domain"
	"item-price-lab/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu     sync.RWMutex
	trades map[string][]domain.Trade  // keyed by item|region
	seen   map[string]map[string]bool // dedup keys per item|region
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		trades: make(map[string][]domain.Trade),
		seen:   make(map[string]map[string]bool),
	}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

func itemRegionKey(itemKey, region string) string {
	return itemKey + "|" + region
}

func tradeKey(t domain.Trade) string {
	return fmt.Sprintf("%d|%g|%g", t.TimestampMs, t.Price, t.Amount)
}

// InsertBatch stores trades, silently skipping exact duplicates.
func (s *TradeStore) InsertBatch(_ context.Context, itemKey, region string, trades []domain.Trade) error {
	if itemKey == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := itemRegionKey(itemKey, region)
	if s.seen[key] == nil {
		s.seen[key] = make(map[string]bool)
	}
	for _, t := range trades {
		tk := tradeKey(t)
		if s.seen[key][tk] {
			continue
		}
		s.seen[key][tk] = true
		s.trades[key] = append(s.trades[key], t)
	}
	return nil
}

// GetByTimeRange retrieves trades within [startMs, endMs], newest first.
func (s *TradeStore) GetByTimeRange(_ context.Context, itemKey, region string, startMs, endMs int64) ([]domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Trade
	for _, t := range s.trades[itemRegionKey(itemKey, region)] {
		if t.TimestampMs >= startMs && t.TimestampMs <= endMs {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs > result[j].TimestampMs
	})
	return result, nil
}
