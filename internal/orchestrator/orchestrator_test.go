package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"item-price-lab/internal/domain"
	"item-price-lab/internal/outlier"
	"item-price-lab/internal/source"
	"item-price-lab/internal/source/stub"
	"item-price-lab/internal/storage/memory"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

// rawTrade builds a RawTrade with an epoch-ms timestamp offset back from
// testNow by the given duration.
func rawTrade(age time.Duration, price, amount float64) domain.RawTrade {
	ts := testNow.Add(-age).UnixMilli()
	return domain.RawTrade{
		Time:   json.RawMessage(fmt.Sprintf("%d", ts)),
		Price:  &price,
		Amount: &amount,
	}
}

func newTestOrchestrator(t *testing.T, src *stub.Source, opts Options) *Orchestrator {
	t.Helper()
	opts.Acquirer = source.NewAcquirer(src, source.NopPacer{}, 0, nil)
	opts.Now = fixedNow
	if len(opts.Items) == 0 {
		opts.Items = []domain.Item{{Key: "iron-ore", Name: "Iron Ore"}}
	}
	orch, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return orch
}

func TestRunSingleItem(t *testing.T) {
	src := &stub.Source{Pages: map[string][][]domain.RawTrade{
		"iron-ore": {{
			rawTrade(1*time.Hour, 100, 2),
			rawTrade(2*time.Hour, 102, 1),
			rawTrade(3*time.Hour, 98, 3),
			rawTrade(48*time.Hour, 101, 1),
			rawTrade(72*time.Hour, 99, 2),
		}},
	}}

	orch := newTestOrchestrator(t, src, Options{WindowsDays: []int{1, 7}})
	result, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.ItemsProcessed != 1 || result.ItemsFailed != 0 {
		t.Fatalf("processed=%d failed=%d, want 1/0", result.ItemsProcessed, result.ItemsFailed)
	}
	if result.TradesFetched != 5 {
		t.Errorf("TradesFetched = %d, want 5", result.TradesFetched)
	}

	report := result.Reports[0]
	if report.Err != "" {
		t.Fatalf("unexpected report error: %s", report.Err)
	}
	// Windows come back widest first.
	if len(report.Windows) != 2 || report.Windows[0].WindowDays != 7 || report.Windows[1].WindowDays != 1 {
		t.Fatalf("windows = %+v", report.Windows)
	}
	day := report.Window(1)
	if day == nil || day.SampleCount != 3 {
		t.Errorf("24h SampleCount = %+v, want 3 samples", day)
	}
	week := report.Window(7)
	if week == nil || week.SampleCount != 5 {
		t.Errorf("7d SampleCount = %+v, want 5 samples", week)
	}
}

func TestRunIsolatesItemFailures(t *testing.T) {
	src := &stub.Source{
		Pages: map[string][][]domain.RawTrade{
			"good": {{rawTrade(time.Hour, 10, 1)}},
		},
		ItemErr: map[string]error{
			"bad": errors.New("upstream exploded"),
		},
	}

	orch := newTestOrchestrator(t, src, Options{
		Items: []domain.Item{{Key: "bad"}, {Key: "good"}},
	})
	result, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.ItemsFailed != 1 {
		t.Fatalf("ItemsFailed = %d, want 1", result.ItemsFailed)
	}
	// Report order tracks item order, not completion order.
	if result.Reports[0].Key != "bad" || result.Reports[0].Err == "" {
		t.Errorf("reports[0] = %+v, want failed 'bad'", result.Reports[0])
	}
	if result.Reports[1].Key != "good" || result.Reports[1].Err != "" {
		t.Errorf("reports[1] = %+v, want clean 'good'", result.Reports[1])
	}
}

func TestRunPersistsTrades(t *testing.T) {
	src := &stub.Source{Pages: map[string][][]domain.RawTrade{
		"iron-ore": {{
			rawTrade(1*time.Hour, 100, 2),
			rawTrade(2*time.Hour, 100, 2), // exact duplicate row
			rawTrade(2*time.Hour, 100, 2),
		}},
	}}
	trades := memory.NewTradeStore()
	archive := memory.NewArchiveStore()

	orch := newTestOrchestrator(t, src, Options{
		Region:       "eu",
		TradeStore:   trades,
		ArchiveStore: archive,
	})
	if _, err := orch.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	stored, err := trades.GetByTimeRange(context.Background(), "iron-ore", "eu", 0, testNow.UnixMilli())
	if err != nil {
		t.Fatalf("GetByTimeRange: %v", err)
	}
	if len(stored) != 2 {
		t.Errorf("trade store kept %d trades, want 2 after dedup", len(stored))
	}

	n, err := archive.CountByItem(context.Background(), "iron-ore", "eu")
	if err != nil {
		t.Fatalf("CountByItem: %v", err)
	}
	if n != 3 {
		t.Errorf("archive count = %d, want 3 (duplicates tolerated)", n)
	}
}

func TestRunConcurrentItemsKeepOrder(t *testing.T) {
	pages := map[string][][]domain.RawTrade{}
	items := make([]domain.Item, 8)
	for i := range items {
		key := fmt.Sprintf("item-%d", i)
		items[i] = domain.Item{Key: key}
		pages[key] = [][]domain.RawTrade{{rawTrade(time.Hour, float64(10+i), 1)}}
	}

	orch := newTestOrchestrator(t, &stub.Source{Pages: pages}, Options{
		Items:       items,
		Concurrency: 4,
	})
	result, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i, report := range result.Reports {
		if want := fmt.Sprintf("item-%d", i); report.Key != want {
			t.Fatalf("reports[%d] = %q, want %q", i, report.Key, want)
		}
	}
}

func TestPersistResults(t *testing.T) {
	src := &stub.Source{Pages: map[string][][]domain.RawTrade{"iron-ore": {}}}
	store := memory.NewResultStore()
	orch := newTestOrchestrator(t, src, Options{ResultStore: store})

	results := []domain.ItemResult{{ID: "iron-ore"}, {ID: "oak-log"}}
	if err := orch.PersistResults(context.Background(), "run-1", results); err != nil {
		t.Fatalf("PersistResults: %v", err)
	}
	got, err := store.GetByRun(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("GetByRun: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("stored %d results, want 2", len(got))
	}

	// Same run and item again violates append-only.
	if err := orch.PersistResults(context.Background(), "run-1", results[:1]); err == nil {
		t.Error("expected duplicate insert to fail")
	}
}

func TestPartialOutlierConfigKeepsMinSamplesGuard(t *testing.T) {
	// Three wildly spread trades with a hair-trigger threshold: with the
	// min-sample guard defaulted they must all stay clean.
	src := &stub.Source{Pages: map[string][][]domain.RawTrade{
		"iron-ore": {{
			rawTrade(1*time.Hour, 10, 1),
			rawTrade(2*time.Hour, 1000, 1),
			rawTrade(3*time.Hour, 100000, 1),
		}},
	}}

	orch := newTestOrchestrator(t, src, Options{
		OutlierConfig: outlier.Config{ZThreshold: 0.0001},
	})
	result, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	day := result.Reports[0].Window(1)
	if day == nil || day.SampleCount != 3 {
		t.Fatalf("window = %+v, want 3 samples", day)
	}
	if day.CleanCount != 3 || len(day.Outliers) != 0 {
		t.Errorf("clean=%d outliers=%d, want all clean below the sample minimum",
			day.CleanCount, len(day.Outliers))
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("expected error without acquirer")
	}
	acq := source.NewAcquirer(&stub.Source{}, source.NopPacer{}, 0, nil)
	if _, err := New(Options{Acquirer: acq}); err == nil {
		t.Error("expected error without items")
	}
}
