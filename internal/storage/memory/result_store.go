package memory

import (
	"context"
	"sort"
	"sync"

	"item-price-lab/internal/domain"
	"item-price-lab/internal/storage"
)

// ResultStore is an in-memory implementation of storage.ResultStore.
type ResultStore struct {
	mu      sync.RWMutex
	results map[string]map[string]domain.ItemResult // run_id → item id → result
}

// NewResultStore creates a new in-memory result store.
func NewResultStore() *ResultStore {
	return &ResultStore{results: make(map[string]map[string]domain.ItemResult)}
}

// Compile-time interface check.
var _ storage.ResultStore = (*ResultStore)(nil)

// Insert adds one item result. Returns ErrDuplicateKey if (run, item) exists.
func (s *ResultStore) Insert(_ context.Context, runID string, result domain.ItemResult) error {
	if runID == "" || result.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	run := s.results[runID]
	if run == nil {
		run = make(map[string]domain.ItemResult)
		s.results[runID] = run
	}
	if _, exists := run[result.ID]; exists {
		return storage.ErrDuplicateKey
	}
	run[result.ID] = result
	return nil
}

// GetByRun retrieves all results of a run, ordered by item id.
func (s *ResultStore) GetByRun(_ context.Context, runID string) ([]domain.ItemResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run := s.results[runID]
	out := make([]domain.ItemResult, 0, len(run))
	for _, r := range run {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
