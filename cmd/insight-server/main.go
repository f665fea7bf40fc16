package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Mansoor88-6/interaction-insights/internal/auth"
	"Mansoor88-6/interaction-insights/internal/config"
	"Mansoor88-6/interaction-insights/internal/database"
	"Mansoor88-6/interaction-insights/internal/groq"
	"Mansoor88-6/interaction-insights/internal/handler"
	"Mansoor88-6/interaction-insights/internal/ingest"
	"Mansoor88-6/interaction-insights/internal/insight"
	"Mansoor88-6/interaction-insights/internal/logger"
	"Mansoor88-6/interaction-insights/internal/mirror"
	"Mansoor88-6/interaction-insights/internal/repository"
	"Mansoor88-6/interaction-insights/internal/router"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/local.yaml", "Path to configuration file")
	flag.Parse()

	// .env is optional
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

	log.Info("Starting insight server",
		zap.String("env", cfg.Env),
		zap.String("config_path", *configPath),
		zap.String("data_dir", cfg.DataDir),
	)

	if cfg.Firebase.Configured() {
		log.Warn("Firebase credentials are set but unused; tracking data is stored in SQLite",
			zap.String("project_id", cfg.Firebase.ProjectID),
		)
	}
	if cfg.Groq.APIKey == "" {
		log.Warn("GROQ_API_KEY is not set; insight generation will fail")
	}

	db, err := database.New(cfg.DatabasePath(), log.Logger)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()

	integrations := repository.NewIntegrationRepository(db.DB)
	records := repository.NewTrackingRepository(db.DB)
	analytics := repository.NewAnalyticsRepository(db.DB)

	resolver := ingest.NewResolver(integrations, cfg.Ingest.IntegrationCacheTTL, log.Logger)
	defer resolver.Stop()
	processor := ingest.NewProcessor(resolver, records, cfg.Ingest.Concurrency, log.Logger)

	groqClient := groq.NewClient(groq.Config{
		APIKey:           cfg.Groq.APIKey,
		BaseURL:          cfg.Groq.BaseURL,
		Model:            cfg.Groq.Model,
		Temperature:      cfg.Groq.Temperature,
		Timeout:          cfg.Groq.Timeout,
		FailureThreshold: cfg.Groq.FailureThreshold,
		OpenTimeout:      cfg.Groq.OpenTimeout,
	}, log.Logger)
	analyzer := groq.NewAnalyzer(groqClient)
	insights := insight.NewService(records, analytics, analyzer, analyzer, log.Logger)

	var eventMirror *mirror.Mirror
	if cfg.Mirror.Enabled {
		store, err := mirror.OpenStore(cfg.Mirror.Backend, cfg.MirrorPath(), db.DB, log.Logger)
		if err != nil {
			log.Fatal("Failed to open event mirror", zap.Error(err))
		}
		eventMirror = mirror.New(store, cfg.Mirror.SaveEvery, log.Logger)
		if err := eventMirror.Load(context.Background()); err != nil {
			log.Fatal("Failed to load event mirror", zap.Error(err))
		}
		log.Info("Event mirror enabled",
			zap.String("backend", cfg.Mirror.Backend),
			zap.String("path", cfg.MirrorPath()),
		)
	}

	var mirrorSink handler.EventMirror
	if eventMirror != nil {
		mirrorSink = eventMirror
	}
	trackHandler := handler.NewTrackHandler(processor, mirrorSink, cfg.Ingest.MaxBodyBytes, cfg.Ingest.RequestTimeout, log.Logger)

	verifier := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	if verifier == nil {
		log.Warn("JWT_SECRET is not set; dashboard endpoints are unauthenticated")
	}

	h := router.New(router.Handlers{
		Track:        trackHandler,
		Insights:     handler.NewInsightHandler(insights, log.Logger),
		Integrations: handler.NewIntegrationHandler(integrations, resolver, log.Logger),
		Health:       handler.NewHealthHandler(db, log.Logger),
	}, verifier, router.Options{
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		TrackRateLimit:     cfg.Server.TrackRateLimit,
		RateLimitWindow:    cfg.Server.RateLimitWindow,
	}, log.Logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("Listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("Received shutdown signal", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("Server shutdown error", zap.Error(err))
	}

	if eventMirror != nil {
		if err := eventMirror.Close(ctx); err != nil {
			log.Error("Failed to save event mirror", zap.Error(err))
		} else {
			log.Info("Event mirror saved", zap.Int("events", eventMirror.Len()))
		}
	}

	log.Info("Insight server stopped")
}
