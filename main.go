package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/cfargo/tunnel-dns-sync/internal/config"
	"github.com/cfargo/tunnel-dns-sync/internal/logger"
	"github.com/cfargo/tunnel-dns-sync/internal/metrics"
	"github.com/cfargo/tunnel-dns-sync/internal/provider/cloudflare"
	"github.com/cfargo/tunnel-dns-sync/internal/reconcile"
	"github.com/cfargo/tunnel-dns-sync/internal/source/cloudflared"
)

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logger.Configure(cfg.Log.Level, cfg.Log.Env)

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid config", "error", err)
		os.Exit(1)
	}

	// Initialize metrics
	metrics := metrics.New()

	// Set up HTTP server for metrics
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	server := &http.Server{
		Addr:    ":9090",
		Handler: mux,
	}

	// Start http server in background
	go func() {
		slog.Info("Starting metrics server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Metrics server failed", "error", err)
		}
	}()

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	collector, err := cloudflared.New(cfg.Cloudflare.Token, metrics)
	if err != nil {
		slog.Error("Failed to initialize tunnel collector", "error", err)
		os.Exit(1)
	}

	cf, err := cloudflare.New(cfg.Cloudflare, metrics)
	if err != nil {
		slog.Error("Failed to initialize DNS provider", "error", err)
		os.Exit(1)
	}

	engine := reconcile.NewEngine(collector, cf, cfg, metrics)

	slog.Info("Starting tunnel-dns-sync service", "tunnels", len(cfg.Tunnels), "interval", cfg.SyncInterval)

	wg := &sync.WaitGroup{}
	wg.Add(1)
	go runSyncLoop(ctx, wg, engine, metrics, cfg.SyncInterval)

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("Shutdown signal received")
	cancel()

	serverShutdownCtx, cancelServer := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelServer()
	if err := server.Shutdown(serverShutdownCtx); err != nil {
		slog.Error("Metrics server shutdown error", "error", err)
	}

	// Wait for sync loop to finish
	wg.Wait()
	slog.Info("Service shutdown complete")
}

func runSyncLoop(ctx context.Context, wg *sync.WaitGroup, engine reconcile.Engine, metrics *metrics.Metrics, interval time.Duration) {
	defer wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := performSync(ctx, engine, metrics); err != nil {
			slog.Error("Sync cycle failed", "error", err)
		}

		select {
		case <-ticker.C:
			continue
		case <-ctx.Done():
			slog.Info("Stopping sync loop")
			return
		}
	}
}

func performSync(ctx context.Context, engine reconcile.Engine, metrics *metrics.Metrics) error {
	slog.Info("Starting sync cycle")
	start := time.Now()
	defer func() {
		metrics.SetSyncDuration(time.Since(start))
	}()

	results, err := engine.Sync(ctx)
	if err != nil {
		metrics.IncSyncRun(false)
		return err
	}

	clean := len(results.Failures) == 0 && len(results.FailedTunnels) == 0 && len(results.SkippedTargets) == 0
	slog.Info("Sync cycle completed",
		"created", len(results.Created),
		"deleted", len(results.Deleted),
		"skipped_targets", len(results.SkippedTargets),
		"failed_tunnels", len(results.FailedTunnels),
		"failures", len(results.Failures))
	metrics.IncSyncRun(clean)

	return nil
}
