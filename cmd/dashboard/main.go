// Command dashboard serves the generated analysis artifacts over HTTP.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"covidcli/internal/config"
	"covidcli/internal/infrastructure"
	"covidcli/internal/webserver"
)

func main() {
	configFile := flag.String("config", "", "path to YAML configuration file")
	port := flag.Int("port", 0, "override the listen port")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	handler := webserver.NewHandler(cfg.Paths.ReportsDir, cfg.Paths.WebDir, logger)
	server := webserver.NewServer(cfg.Server, webserver.NewRouter(handler, logger), logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("dashboard server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("dashboard server stopped")
}
