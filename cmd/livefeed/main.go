// Package main tails the live trade feed and persists incoming trades.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"item-price-lab/internal/config"
	"item-price-lab/internal/domain"
	"item-price-lab/internal/logging"
	"item-price-lab/internal/normalize"
	"item-price-lab/internal/source"
	"item-price-lab/internal/storage"
	"item-price-lab/internal/storage/memory"
	"item-price-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Source.WSEndpoint == "" {
		fmt.Fprintln(os.Stderr, "source.wsEndpoint is required for the live feed")
		os.Exit(1)
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
		logger.Info("signal received, stopping feed", zap.Stringer("signal", sig))
		cancel()
	}()

	var tradeStore storage.TradeStore
	if dsn := cfg.Storage.PostgresDSN; dsn != "" {
		pool, err := postgres.NewPool(ctx, dsn)
		if err != nil {
			logger.Fatal("postgres", zap.Error(err))
		}
		defer pool.Close()
		tradeStore = postgres.NewTradeStore(pool)
	} else {
		logger.Warn("no postgres DSN configured, trades stay in memory")
		tradeStore = memory.NewTradeStore()
	}

	keys := make([]string, len(cfg.Items))
	for i, item := range cfg.Items {
		keys[i] = item.Key
	}

	handler := func(itemKey string, raw domain.RawTrade) {
		trades, dropped := normalize.Normalize([]domain.RawTrade{raw})
		if dropped > 0 {
			logger.Debug("live trade dropped", zap.String("item", itemKey))
			return
		}
		if err := tradeStore.InsertBatch(ctx, itemKey, cfg.Region, trades); err != nil {
			logger.Warn("live trade insert failed",
				zap.String("item", itemKey), zap.Error(err))
		}
	}

	feed := source.NewLiveFeed(cfg.Source.WSEndpoint, cfg.Region, keys, handler, nil, logger)
	if err := feed.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("live feed", zap.Error(err))
	}
	logger.Info("live feed stopped")
}
