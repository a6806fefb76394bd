// Package main runs the batch price estimation pipeline.
// Executes: acquisition → normalization → unit resolution → aggregation → reporting
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"item-price-lab/internal/config"
	"item-price-lab/internal/logging"
	"item-price-lab/internal/observability"
	"item-price-lab/internal/orchestrator"
	"item-price-lab/internal/outlier"
	"item-price-lab/internal/reporting"
	"item-price-lab/internal/source"
	"item-price-lab/internal/storage"
	"item-price-lab/internal/storage/clickhouse"
	"item-price-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config")
	outputDir := flag.String("output-dir", "", "Override output directory")
	verbose := flag.Bool("verbose", false, "Debug-level logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *verbose {
		cfg.Logging.Level = "debug"
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("signal received, cancelling run", zap.Stringer("signal", sig))
		cancel()
	}()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("run failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	metrics := observability.NewMetrics("")
	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, metrics, logger)
	}

	tradeStore, resultStore, archiveStore, closeStores, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStores()

	client := source.NewHistoryClient(cfg.Source.BaseURL, cfg.Region,
		source.WithPageSize(cfg.Source.PageSize),
		source.WithTimeout(time.Duration(cfg.Source.TimeoutMs)*time.Millisecond),
		source.WithRateLimit(cfg.Source.RequestsPerSecond, 1),
		source.WithUserAgent(cfg.Source.UserAgent),
	)
	pacer := source.NewJitterPacer(
		time.Duration(cfg.Source.DelayMinMs)*time.Millisecond,
		time.Duration(cfg.Source.DelayMaxMs)*time.Millisecond,
	)
	acquirer := source.NewAcquirer(client, pacer, cfg.Source.PageCap, logger)
	acquirer.ObservePages(metrics.PagesFetched.Inc)

	orch, err := orchestrator.New(orchestrator.Options{
		Acquirer:    acquirer,
		Items:       cfg.DomainItems(),
		Region:      cfg.Region,
		WindowsDays: cfg.WindowsDays,
		OutlierConfig: outlier.Config{
			ZThreshold: cfg.Outlier.ZThreshold,
			MinSamples: cfg.Outlier.MinSamples,
		},
		LargePriceCeiling: cfg.Resolver.LargePriceCeiling,
		TradeStore:        tradeStore,
		ResultStore:       resultStore,
		ArchiveStore:      archiveStore,
		Metrics:           metrics,
		Concurrency:       cfg.Concurrency,
		FailureCooldown:   time.Duration(cfg.FailureCooldownMs) * time.Millisecond,
		Logger:            logger,
	})
	if err != nil {
		return err
	}

	started := time.Now().UTC()
	result, err := orch.Run(ctx)
	if err != nil {
		return err
	}

	runID := started.Format("20060102T150405Z")
	report := reporting.NewGenerator(cfg.Outlier.ZThreshold).
		Generate(runID, cfg.Region, result.Reports)
	if err := reporting.WriteFiles(report, cfg.Output.Dir); err != nil {
		return err
	}
	if err := orch.PersistResults(ctx, runID, report.Results); err != nil {
		logger.Warn("result persistence failed", zap.Error(err))
	}

	logger.Info("report written",
		zap.String("dir", cfg.Output.Dir),
		zap.String("runID", runID),
		zap.Int("items", result.ItemsProcessed),
		zap.Int("failed", result.ItemsFailed))
	return nil
}

// openStores connects the optional Postgres and ClickHouse backends.
// Missing DSNs leave the corresponding store nil, which the orchestrator
// treats as "persistence off".
func openStores(ctx context.Context, cfg config.Config, logger *zap.Logger) (
	storage.TradeStore, storage.ResultStore, storage.ArchiveStore, func(), error,
) {
	var (
		tradeStore   storage.TradeStore
		resultStore  storage.ResultStore
		archiveStore storage.ArchiveStore
		closers      []func()
	)
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if dsn := cfg.Storage.PostgresDSN; dsn != "" {
		pool, err := postgres.NewPool(ctx, dsn)
		if err != nil {
			return nil, nil, nil, closeAll, fmt.Errorf("postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		tradeStore = postgres.NewTradeStore(pool)
		resultStore = postgres.NewResultStore(pool)
		logger.Info("postgres store enabled")
	}
	if dsn := cfg.Storage.ClickHouseDSN; dsn != "" {
		conn, err := clickhouse.NewConn(ctx, dsn)
		if err != nil {
			closeAll()
			return nil, nil, nil, func() {}, fmt.Errorf("clickhouse: %w", err)
		}
		closers = append(closers, func() { _ = conn.Close() })
		archiveStore = clickhouse.NewArchiveStore(conn)
		logger.Info("clickhouse archive enabled")
	}
	return tradeStore, resultStore, archiveStore, closeAll, nil
}

func serveMetrics(addr string, metrics *observability.Metrics, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	logger.Info("metrics listener started", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("metrics listener stopped", zap.Error(err))
	}
}
