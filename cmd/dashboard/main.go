// Command dashboard serves the IRVE charging-station dashboard API: a cached
// slice of the data.gouv.fr dataset, normalized, department-derived, and
// filterable by department and power range.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/evmonitor/irve-dashboard/internal/adapter/datagouv"
	httpadapter "github.com/evmonitor/irve-dashboard/internal/adapter/http"
	"github.com/evmonitor/irve-dashboard/internal/config"
	"github.com/evmonitor/irve-dashboard/internal/observability"
	"github.com/evmonitor/irve-dashboard/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	client := datagouv.NewClient(cfg, metrics, logger)
	cache := datagouv.NewCachedFetcher(client, client.SourceKey(), metrics, logger)

	p := pipeline.New(cache, cache, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Warm the cache so the first request doesn't pay for the download.
	go p.Warm(ctx)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
