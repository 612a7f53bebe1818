// Package main is the entry point for freightwatch, the marketplace listing
// auto-renewal and counter-offer watch service.
//
// Startup order:
// - configuration from the environment (.env supported)
// - dependency wiring via the DI container
// - city dictionary load (cache first, marketplace second)
// - HTTP command surface
// - scheduler with every operator's renewal and offer watch jobs
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/freightwatch/internal/config"
	"github.com/aristath/freightwatch/internal/di"
	"github.com/aristath/freightwatch/internal/server"
	"github.com/aristath/freightwatch/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Int("operators", len(cfg.Operators)).
		Dur("renewal_interval", cfg.RenewalInterval).
		Dur("responses_interval", cfg.ResponsesInterval).
		Msg("Starting freightwatch")

	container, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	// WAL checkpoint on exit
	defer container.Close()

	// Without a dictionary, routes fall back to raw city ids
	loadCtx, loadCancel := context.WithTimeout(context.Background(), 2*cfg.HTTPTimeout)
	if err := di.LoadCityDirectory(loadCtx, container, cfg); err != nil {
		log.Warn().Err(err).Msg("City directory unavailable, routes will show city ids")
	}
	loadCancel()

	srv := server.New(server.Config{
		Log:          log,
		Port:         cfg.Port,
		DevMode:      cfg.DevMode,
		Store:        container.Store,
		Orchestrator: container.Orchestrator,
		Marketplace:  container.Marketplace,
		Events:       container.Events,
		Cities:       container.Cities,
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Integrity check before any job touches the cache
	if err := container.Scheduler.RunNow(container.HealthJob); err != nil {
		log.Error().Err(err).Msg("Database health check failed at startup")
	}

	container.Scheduler.Start()
	for _, op := range container.Orchestrator.Operators() {
		next, _ := container.Orchestrator.NextRenewal(op.Key)
		log.Info().
			Str("operator", op.Key).
			Time("next_renewal", next).
			Msg("Operator jobs scheduled")
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	// Stop scheduling first so no cycle starts while the server drains
	container.Scheduler.Stop()
	log.Info().Msg("Scheduler stopped")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
