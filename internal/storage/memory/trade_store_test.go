package memory

import (
	"context"
	"testing"

	"item-price-lab/internal/domain"
	"item-price-lab/internal/storage"
)

func TestTradeStore_InsertBatchIdempotent(t *testing.T) {
	s := NewTradeStore()
	ctx := context.Background()

	trades := []domain.Trade{
		{TimestampMs: 1000, Price: 100, Amount: 1},
		{TimestampMs: 2000, Price: 200, Amount: 2},
	}

	if err := s.InsertBatch(ctx, "iron-ore", "eu", trades); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// re-ingesting the same history must be a no-op
	if err := s.InsertBatch(ctx, "iron-ore", "eu", trades); err != nil {
		t.Fatalf("unexpected error on repeat insert: %v", err)
	}

	got, err := s.GetByTimeRange(ctx, "iron-ore", "eu", 0, 10_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 trades after duplicate insert, got %d", len(got))
	}
}

func TestTradeStore_GetByTimeRangeOrdersNewestFirst(t *testing.T) {
	s := NewTradeStore()
	ctx := context.Background()

	s.InsertBatch(ctx, "iron-ore", "eu", []domain.Trade{
		{TimestampMs: 1000, Price: 1, Amount: 1},
		{TimestampMs: 3000, Price: 3, Amount: 1},
		{TimestampMs: 2000, Price: 2, Amount: 1},
	})

	got, _ := s.GetByTimeRange(ctx, "iron-ore", "eu", 0, 10_000)
	if len(got) != 3 {
		t.Fatalf("expected 3 trades, got %d", len(got))
	}
	if got[0].TimestampMs != 3000 || got[2].TimestampMs != 1000 {
		t.Errorf("expected newest-first ordering, got %+v", got)
	}
}

func TestTradeStore_RangeAndRegionIsolation(t *testing.T) {
	s := NewTradeStore()
	ctx := context.Background()

	s.InsertBatch(ctx, "iron-ore", "eu", []domain.Trade{{TimestampMs: 1000, Price: 1, Amount: 1}})
	s.InsertBatch(ctx, "iron-ore", "us", []domain.Trade{{TimestampMs: 1000, Price: 9, Amount: 1}})

	eu, _ := s.GetByTimeRange(ctx, "iron-ore", "eu", 0, 10_000)
	if len(eu) != 1 || eu[0].Price != 1 {
		t.Errorf("regions bleed into each other: %+v", eu)
	}

	none, _ := s.GetByTimeRange(ctx, "iron-ore", "eu", 5000, 10_000)
	if len(none) != 0 {
		t.Errorf("expected empty range result, got %+v", none)
	}
}

func TestTradeStore_EmptyItemKeyRejected(t *testing.T) {
	s := NewTradeStore()
	err := s.InsertBatch(context.Background(), "", "eu", nil)
	if err != storage.ErrInvalidInput {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestResultStore_AppendOnly(t *testing.T) {
	s := NewResultStore()
	ctx := context.Background()

	if err := s.Insert(ctx, "run-1", domain.ItemResult{ID: "iron-ore"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Insert(ctx, "run-1", domain.ItemResult{ID: "iron-ore"}); err != storage.ErrDuplicateKey {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
	// same item under another run is fine
	if err := s.Insert(ctx, "run-2", domain.ItemResult{ID: "iron-ore"}); err != nil {
		t.Errorf("unexpected error for second run: %v", err)
	}
}

func TestResultStore_GetByRunSorted(t *testing.T) {
	s := NewResultStore()
	ctx := context.Background()

	s.Insert(ctx, "run-1", domain.ItemResult{ID: "oak-log"})
	s.Insert(ctx, "run-1", domain.ItemResult{ID: "iron-ore"})

	got, err := s.GetByRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "iron-ore" || got[1].ID != "oak-log" {
		t.Errorf("expected results sorted by id, got %+v", got)
	}
}

func TestArchiveStore_ToleratesDuplicates(t *testing.T) {
	s := NewArchiveStore()
	ctx := context.Background()

	trades := []domain.Trade{{TimestampMs: 1000, Price: 1, Amount: 1}}
	s.InsertTrades(ctx, "iron-ore", "eu", trades)
	s.InsertTrades(ctx, "iron-ore", "eu", trades)

	n, err := s.CountByItem(ctx, "iron-ore", "eu")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("archive is a log, expected 2 rows, got %d", n)
	}
}
