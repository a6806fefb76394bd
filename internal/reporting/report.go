package reporting

import (
	"time"

	"item-price-lab/internal/domain"
)

// Report is the rendered output of one pipeline run.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string
	Region      string

	// Per-item results, in configured item order.
	Results []domain.ItemResult

	// Names maps item key to display name for the markdown summary.
	Names map[string]string

	// Outlier ledger across all items and windows.
	Ledger []LedgerRow

	// Summary counters
	ItemCount    int
	FailedCount  int
	OutlierCount int
}

// LedgerRow records one rejected sample with the reason it was excluded.
type LedgerRow struct {
	ItemKey     string
	WindowDays  int
	TimestampMs int64
	Price       float64
	Amount      float64
	UnitPrice   float64
	Reason      string
}
