package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"covidcli/internal/config"
	"covidcli/internal/infrastructure"
	"covidcli/internal/sources"
)

func main() {
	configFile := flag.String("config", "", "path to YAML configuration file")
	outDir := flag.String("out", "", "override the raw data directory")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	rawDir := cfg.Paths.RawDir
	if *outDir != "" {
		rawDir = *outDir
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher := sources.NewFetcher(cfg.Sources, rawDir, logger)
	if err := fetcher.FetchAll(ctx, sources.Descriptors(cfg.Sources)); err != nil {
		logger.Error("source extraction failed", "error", err)
		os.Exit(1)
	}

	logger.Info("all sources fetched", "raw_dir", rawDir)
}
