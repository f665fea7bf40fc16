package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"Mansoor88-6/interaction-insights/internal/client"
	"Mansoor88-6/interaction-insights/internal/collector"
	"Mansoor88-6/interaction-insights/internal/config"
	"Mansoor88-6/interaction-insights/internal/identity"
	"Mansoor88-6/interaction-insights/internal/logger"
	"Mansoor88-6/interaction-insights/internal/tracker"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// track-agent reads newline-delimited interactions from stdin, batches them
// the way the page hook does and ships them to /api/track.
func main() {
	configPath := flag.String("config", "config/local.yaml", "Path to configuration file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	sessions := identity.NewGenerator(identity.NewFileStorage(cfg.SessionPath()), log.Logger)
	apiClient := client.NewAPIClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, log.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := apiClient.HealthCheck(ctx); err != nil {
		log.Warn("Backend health check failed; events may be lost", zap.Error(err))
	}

	eventCollector := collector.NewEventCollector(cfg.Tracking.BatchSize, cfg.Tracking.FlushInterval, log.Logger)
	trackingService := tracker.NewTrackingService(
		sessions,
		eventCollector,
		apiClient,
		cfg.Tracking.ScrollThreshold,
		cfg.Backend.Timeout,
		log.Logger,
	)
	trackingService.Start()

	log.Info("Tracking agent started",
		zap.String("session_id", sessions.GetOrCreate()),
		zap.String("backend_url", cfg.Backend.BaseURL),
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		fed, err := tracker.Replay(ctx, os.Stdin, trackingService, log.Logger)
		if err != nil {
			log.Error("Input error", zap.Error(err))
		}
		log.Info("Input finished", zap.Int("interactions", fed))
	}()

	select {
	case <-done:
	case <-ctx.Done():
		log.Info("Received shutdown signal")
	}

	trackingService.Stop()
	apiClient.Close(cfg.Tracking.UnloadTimeout)

	log.Info("Tracking agent stopped")
}
