package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/craftpixel/event-relay/internal/api"
	"github.com/craftpixel/event-relay/internal/config"
	"github.com/craftpixel/event-relay/internal/engine"
	"github.com/craftpixel/event-relay/internal/klaviyo"
	"github.com/craftpixel/event-relay/internal/pipeline"
	"github.com/craftpixel/event-relay/internal/store"
	"github.com/craftpixel/event-relay/internal/tenant"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize PostgreSQL
	ctx := context.Background()
	pgStore, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pgStore.Close()
	logger.Info("connected to PostgreSQL")

	if err := pgStore.RunMigrations(ctx, "migrations"); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("database migrations applied")

	// Redis backs the tenant cache and the provider guard
	redisStore, err := store.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisStore.Close()
	logger.Info("connected to Redis")

	cache := tenant.NewCache(redisStore.Client(), cfg.TenantCacheTTL, logger)
	resolver := tenant.NewResolver(pgStore, cache, logger)

	breaker := engine.NewCircuitBreaker(redisStore.Client(), logger, cfg.BreakerFailures, cfg.BreakerCooldown)
	limiter := engine.NewRateLimiter(redisStore.Client(), logger)

	sender := klaviyo.NewClient(klaviyo.Config{
		Endpoint: cfg.KlaviyoEndpoint,
		Revision: cfg.KlaviyoRevision,
		Timeout:  cfg.ForwardTimeout,
	}, logger)

	p := pipeline.New(resolver, pgStore, sender, breaker, limiter, logger)

	router := api.NewRouter(pgStore, p, breaker, logger)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
