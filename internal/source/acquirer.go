package source

import (
	"context"

	"go.uber.org/zap"

	"item-price-lab/internal/domain"
	"item-price-lab/internal/normalize"
)

// DefaultPageCap bounds the number of pages fetched per item regardless of
// staleness, protecting against sources that never signal exhaustion.
const DefaultPageCap = 50

// HistorySource is the paged endpoint consumed by the Acquirer. Implemented
// by HistoryClient in production and by stub.Source in tests.
type HistorySource interface {
	FetchPage(ctx context.Context, itemKey string, page int) ([]domain.RawTrade, error)
}

// Acquirer walks one item's history pages newest-first and stops as early as
// the requested windows allow.
type Acquirer struct {
	source  HistorySource
	pacer   Pacer
	pageCap int
	logger  *zap.Logger
	onPage  func()
}

// NewAcquirer creates an Acquirer. A nil pacer disables the politeness
// delay; pageCap values below 1 fall back to DefaultPageCap.
func NewAcquirer(src HistorySource, pacer Pacer, pageCap int, logger *zap.Logger) *Acquirer {
	if pacer == nil {
		pacer = NopPacer{}
	}
	if pageCap < 1 {
		pageCap = DefaultPageCap
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Acquirer{source: src, pacer: pacer, pageCap: pageCap, logger: logger}
}

// ObservePages registers a callback invoked once per non-empty page, used
// for fetch accounting.
func (a *Acquirer) ObservePages(fn func()) {
	a.onPage = fn
}

// FetchHistory fetches pages until the source is exhausted, the oldest
// record on a page falls behind cutoffMs, or the page cap is reached. Any
// fetch failure discards partial results: the item gets no statistics
// rather than statistics computed from a truncated history.
func (a *Acquirer) FetchHistory(ctx context.Context, itemKey string, cutoffMs int64) ([]domain.RawTrade, error) {
	var all []domain.RawTrade

	for page := 0; page < a.pageCap; page++ {
		if page > 0 {
			if err := a.pacer.Pause(ctx); err != nil {
				return nil, err
			}
		}

		records, err := a.source.FetchPage(ctx, itemKey, page)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			a.logger.Debug("history exhausted",
				zap.String("item", itemKey), zap.Int("pages", page))
			break
		}

		all = append(all, records...)
		if a.onPage != nil {
			a.onPage()
		}

		if oldest, ok := oldestTimestamp(records); ok && oldest < cutoffMs {
			a.logger.Debug("history reached cutoff",
				zap.String("item", itemKey), zap.Int("pages", page+1))
			break
		}
	}

	return all, nil
}

// oldestTimestamp returns the timestamp of the oldest record on a
// newest-first page, scanning backwards past unparseable entries.
func oldestTimestamp(records []domain.RawTrade) (int64, bool) {
	for i := len(records) - 1; i >= 0; i-- {
		if ts, err := normalize.ParseTimestamp(records[i].Time); err == nil {
			return ts, true
		}
	}
	return 0, false
}
