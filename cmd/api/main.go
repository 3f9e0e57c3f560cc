package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"intent-gateway/config"
	httpHandler "intent-gateway/internal/adapter/http/handler"
	"intent-gateway/internal/adapter/storage"
	redisStorage "intent-gateway/internal/adapter/storage/redis"
	"intent-gateway/internal/core/ports"
	"intent-gateway/internal/service"
	"intent-gateway/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Intent Gateway")

	ctx := context.Background()

	// Open the storage gateway: PostgreSQL primary, embedded SQLite fallback
	gw, err := storage.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("No storage engine available")
	}
	defer gw.Close()
	log.Info().Str("engine", gw.Engine()).Msg("Storage gateway ready")

	healthCheckers := []ports.HealthChecker{storage.NewHealthCheck(gw)}

	// Redis is optional; the terminal-intent cache is disabled when it is
	// unreachable.
	var intentCache ports.IntentCache
	if rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log); err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, intent cache disabled")
	} else {
		defer rdb.Close()
		intentCache = redisStorage.NewIntentCache(rdb)
		healthCheckers = append(healthCheckers, redisStorage.NewHealthCheck(rdb))
	}

	// Initialize repositories
	merchantRepo := storage.NewMerchantRepo()
	intentRepo := storage.NewIntentRepo()
	auditRepo := storage.NewAuditRepo()

	// Initialize business services
	merchantSvc := service.NewMerchantService(gw, merchantRepo)
	ledgerSvc := service.NewLedgerService(gw, intentRepo, merchantRepo, auditRepo, intentCache, cfg.Payments, log)
	confirmSvc := service.NewConfirmationService(gw, intentRepo, auditRepo, log)
	settlementSvc := service.NewSettlementService(gw, intentRepo, merchantRepo, auditRepo, log)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		MerchantSvc:    merchantSvc,
		LedgerSvc:      ledgerSvc,
		ConfirmSvc:     confirmSvc,
		SettlementSvc:  settlementSvc,
		HealthCheckers: healthCheckers,
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
