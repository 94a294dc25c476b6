package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codescope/internal/ai"
	"codescope/internal/api"
	"codescope/internal/cache"
	"codescope/internal/config"
	"codescope/internal/db"
	"codescope/internal/logging"
	"codescope/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load .env before anything reads the environment. Missing files are
	// fine; plain environment variables take over.
	if err := godotenv.Load(); err != nil {
		_ = godotenv.Load("../.env")
	}

	logging.Init()
	defer logging.Sync()
	logger := logging.L()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	database, err := db.NewDatabase(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	resultCache := cache.New(cfg.RedisURL, cfg.CacheTTL, logger)
	defer resultCache.Close()

	roster := make([]ai.Candidate, len(cfg.ModelRoster))
	for i, model := range cfg.ModelRoster {
		roster[i] = ai.Candidate(model)
	}

	generator := ai.NewGeminiClient(cfg.GeminiAPIKey, cfg.RequestTimeout)
	orchestratorOpts := []ai.Option{ai.WithLogger(logger)}
	if cfg.AIRateLimitPerMinute > 0 {
		orchestratorOpts = append(orchestratorOpts,
			ai.WithRateLimit(cfg.AIRateLimitPerMinute, cfg.AIRateLimitBurst))
		logger.Info("outbound rate limiting enabled",
			zap.Int("per_minute", cfg.AIRateLimitPerMinute),
			zap.Int("burst", cfg.AIRateLimitBurst))
	}
	orchestrator, err := ai.NewOrchestrator(generator, roster, orchestratorOpts...)
	if err != nil {
		logger.Fatal("failed to build orchestrator", zap.Error(err))
	}
	logger.Info("model fallback roster configured", zap.Strings("roster", cfg.ModelRoster))

	server := api.NewServer(store.New(database.DB), orchestrator, resultCache, database, logger)
	router := api.NewRouter(server, logger)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("port", cfg.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Fatal("server failed", zap.Error(err))
	case sig := <-shutdown:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(ctx); err != nil {
			logger.Warn("graceful shutdown failed, forcing close", zap.Error(err))
			_ = httpServer.Close()
		}
	}

	logger.Info("server stopped")
}
