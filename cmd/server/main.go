package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"market-analyzer/config"
	"market-analyzer/internal/aggregator"
	"market-analyzer/internal/api"
	"market-analyzer/internal/events"
	"market-analyzer/internal/logging"
	"market-analyzer/internal/provider"
	"market-analyzer/internal/scanner"
	"market-analyzer/internal/store"
)

func main() {
	configPath := flag.String("config", "config.json", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.LoggingConfig)
	logger.Info().Str("config", *configPath).Msg("configuration loaded")

	eventBus := events.NewEventBus()

	memProvider := provider.NewMemoryProvider()

	agg := aggregator.New(memProvider, cfg.AnalysisConfig, cfg.RegimeConfig,
		logging.Component(logger, "aggregator"))

	scorer := scanner.NewCoinScorer(cfg.ScorerConfig, cfg.AnalysisConfig.LTFTimeframe)
	scan := scanner.New(agg, memProvider, scorer, eventBus, cfg.ScannerConfig,
		cfg.ScanTimeout(), cfg.AnalysisConfig.LTFTimeframe,
		logging.Component(logger, "scanner"))

	reportCache := scanner.NewReportCache(cfg.CacheTTL())

	var redisCache *store.RedisCache
	if cfg.RedisConfig.Enabled {
		redisCache, err = store.NewRedisCache(cfg.RedisConfig, logging.Component(logger, "redis"))
		if err != nil {
			logger.Warn().Err(err).Msg("redis cache unavailable, continuing without it")
			redisCache = nil
		}
	}

	var scanHistory *store.ScanHistory
	if cfg.DatabaseConfig.Enabled {
		scanHistory, err = store.NewScanHistory(cfg.DatabaseConfig, logging.Component(logger, "database"))
		if err != nil {
			logger.Warn().Err(err).Msg("scan history unavailable, continuing without it")
			scanHistory = nil
		}
	}

	server := api.NewServer(cfg.ServerConfig, cfg.AuthConfig, api.Deps{
		Provider:    memProvider,
		Aggregator:  agg,
		Scanner:     scan,
		EventBus:    eventBus,
		ReportCache: reportCache,
		RedisCache:  redisCache,
		ScanHistory: scanHistory,
	}, logging.Component(logger, "api"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("api server failed")
	}

	if redisCache != nil {
		redisCache.Close()
	}
	if scanHistory != nil {
		scanHistory.Close()
	}
	logger.Info().Msg("shutdown complete")
}
