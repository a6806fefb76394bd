// Package stub provides an in-memory HistorySource for tests.
package stub

import (
	"context"
	"sync"

	"item-price-lab/internal/domain"
)

// Source serves canned pages keyed by item. Pages beyond the canned set are
// empty, signalling exhaustion. A non-nil Err fails every fetch.
type Source struct {
	Pages map[string][][]domain.RawTrade
	Err   error

	// ItemErr fails fetches for specific items only.
	ItemErr map[string]error

	// FetchCalls counts FetchPage invocations across all items.
	FetchCalls int

	mu sync.Mutex
}

// FetchPage implements source.HistorySource.
func (s *Source) FetchPage(_ context.Context, itemKey string, page int) ([]domain.RawTrade, error) {
	s.mu.Lock()
	s.FetchCalls++
	s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if err := s.ItemErr[itemKey]; err != nil {
		return nil, err
	}
	pages := s.Pages[itemKey]
	if page >= len(pages) {
		return nil, nil
	}
	return pages[page], nil
}
