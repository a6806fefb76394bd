// Package orchestrator coordinates the per-item pipeline.
// Flow: acquisition → normalization → unit resolution → windowed aggregation.
package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"item-price-lab/internal/domain"
	"item-price-lab/internal/normalize"
	"item-price-lab/internal/observability"
	"item-price-lab/internal/outlier"
	"item-price-lab/internal/resolve"
	"item-price-lab/internal/source"
	"item-price-lab/internal/storage"
	"item-price-lab/internal/window"
)

// Orchestrator runs the estimation pipeline across all configured items.
// One item's failure never aborts the run; the failure is recorded on its
// report and the remaining items proceed.
type Orchestrator struct {
	acquirer *source.Acquirer
	items    []domain.Item
	region   string

	// windowsDays is kept sorted descending; the widest window drives
	// the acquisition cutoff.
	windowsDays []int

	outlierCfg outlier.Config
	ceiling    float64

	// Optional collaborators. Nil disables the concern.
	tradeStore   storage.TradeStore
	resultStore  storage.ResultStore
	archiveStore storage.ArchiveStore
	metrics      *observability.Metrics

	concurrency     int
	failureCooldown time.Duration
	logger          *zap.Logger
	now             func() time.Time
}

// Options for creating an Orchestrator.
type Options struct {
	Acquirer    *source.Acquirer
	Items       []domain.Item
	Region      string
	WindowsDays []int

	OutlierConfig     outlier.Config
	LargePriceCeiling float64

	TradeStore   storage.TradeStore
	ResultStore  storage.ResultStore
	ArchiveStore storage.ArchiveStore
	Metrics      *observability.Metrics

	Concurrency     int
	FailureCooldown time.Duration
	Logger          *zap.Logger

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// New creates an Orchestrator from Options, applying defaults for
// anything unset.
func New(opts Options) (*Orchestrator, error) {
	if opts.Acquirer == nil {
		return nil, fmt.Errorf("acquirer is required")
	}
	if len(opts.Items) == 0 {
		return nil, fmt.Errorf("at least one item is required")
	}
	windows := make([]int, len(opts.WindowsDays))
	copy(windows, opts.WindowsDays)
	if len(windows) == 0 {
		windows = []int{1, 7}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(windows)))

	cfg := opts.OutlierConfig
	if cfg.ZThreshold == 0 {
		cfg.ZThreshold = outlier.DefaultZThreshold
	}
	if cfg.MinSamples == 0 {
		cfg.MinSamples = outlier.DefaultMinSamples
	}
	ceiling := opts.LargePriceCeiling
	if ceiling == 0 {
		ceiling = resolve.DefaultLargePriceCeiling
	}
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Orchestrator{
		acquirer:        opts.Acquirer,
		items:           opts.Items,
		region:          opts.Region,
		windowsDays:     windows,
		outlierCfg:      cfg,
		ceiling:         ceiling,
		tradeStore:      opts.TradeStore,
		resultStore:     opts.ResultStore,
		archiveStore:    opts.ArchiveStore,
		metrics:         opts.Metrics,
		concurrency:     concurrency,
		failureCooldown: opts.FailureCooldown,
		logger:          logger,
		now:             now,
	}, nil
}

// RunResult summarizes one orchestrator execution.
type RunResult struct {
	Reports        []domain.ItemReport
	ItemsProcessed int
	ItemsFailed    int
	TradesFetched  int
}

// Run processes every configured item and returns their reports in the
// original item order regardless of completion order.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	started := o.now()
	reports := make([]domain.ItemReport, len(o.items))
	fetched := make([]int, len(o.items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, item := range o.items {
		g.Go(func() error {
			report, n := o.processItem(gctx, item)
			reports[i] = report
			fetched[i] = n
			if report.Err != "" && o.failureCooldown > 0 {
				// Back off after a failure so a struggling upstream
				// is not immediately hit by the next item.
				select {
				case <-time.After(o.failureCooldown):
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &RunResult{Reports: reports, ItemsProcessed: len(reports)}
	for i := range reports {
		result.TradesFetched += fetched[i]
		if reports[i].Err != "" {
			result.ItemsFailed++
		}
	}
	o.logger.Info("run complete",
		zap.Int("items", result.ItemsProcessed),
		zap.Int("failed", result.ItemsFailed),
		zap.Int("tradesFetched", result.TradesFetched),
		zap.Duration("elapsed", o.now().Sub(started)))
	return result, nil
}

// processItem runs the full pipeline for one item. Errors are folded
// into the report rather than returned so that callers can treat every
// item uniformly.
func (o *Orchestrator) processItem(ctx context.Context, item domain.Item) (domain.ItemReport, int) {
	report := domain.ItemReport{Item: item}
	itemStart := o.now()
	log := o.logger.With(zap.String("item", item.Key))

	widest := o.windowsDays[0]
	cutoffMs := window.Cutoff(o.now(), widest)
	raw, err := o.acquirer.FetchHistory(ctx, item.Key, cutoffMs)
	if err != nil {
		log.Warn("history fetch failed", zap.Error(err))
		if o.metrics != nil {
			o.metrics.FetchErrors.Inc()
		}
		report.Err = fmt.Sprintf("fetch history: %v", err)
		o.observeItem(itemStart, "error")
		return report, 0
	}
	log.Debug("history fetched", zap.Int("records", len(raw)))

	trades, dropped := normalize.Normalize(raw)
	if o.metrics != nil {
		o.metrics.TradesNormalized.Add(float64(len(trades)))
		o.metrics.TradesDropped.Add(float64(dropped))
	}
	if dropped > 0 {
		log.Debug("records dropped during normalization", zap.Int("dropped", dropped))
	}

	resolved, decision := resolve.Resolve(trades, o.ceiling)
	log.Debug("unit interpretation chosen",
		zap.String("interpretation", string(decision.Interpretation)))

	for _, days := range o.windowsDays {
		stats := window.Aggregate(resolved, days, o.now(), o.outlierCfg)
		if o.metrics != nil {
			o.metrics.OutliersFlagged.WithLabelValues(fmt.Sprintf("%d", days)).
				Add(float64(len(stats.Outliers)))
		}
		report.Windows = append(report.Windows, stats)
	}

	o.persist(ctx, item, trades, log)
	o.observeItem(itemStart, "ok")
	return report, len(raw)
}

// persist writes fetched trades to the optional stores. Persistence
// failures are logged, not propagated; the in-memory report is already
// complete by this point.
func (o *Orchestrator) persist(ctx context.Context, item domain.Item, trades []domain.Trade, log *zap.Logger) {
	if o.tradeStore != nil {
		if err := o.tradeStore.InsertBatch(ctx, item.Key, o.region, trades); err != nil {
			log.Warn("trade store insert failed", zap.Error(err))
		}
	}
	if o.archiveStore != nil {
		if err := o.archiveStore.InsertTrades(ctx, item.Key, o.region, trades); err != nil {
			log.Warn("archive insert failed", zap.Error(err))
		}
	}
}

// PersistResults stores finished item results under runID, when a
// result store is configured.
func (o *Orchestrator) PersistResults(ctx context.Context, runID string, results []domain.ItemResult) error {
	if o.resultStore == nil {
		return nil
	}
	for _, res := range results {
		if err := o.resultStore.Insert(ctx, runID, res); err != nil {
			return fmt.Errorf("persist result %s: %w", res.ID, err)
		}
	}
	return nil
}

func (o *Orchestrator) observeItem(start time.Time, status string) {
	if o.metrics == nil {
		return
	}
	o.metrics.ItemsProcessed.WithLabelValues(status).Inc()
	o.metrics.ItemDuration.Observe(o.now().Sub(start).Seconds())
}
