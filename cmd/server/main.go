// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/drillwise/internal/api"
	"github.com/tomtom215/drillwise/internal/app"
	"github.com/tomtom215/drillwise/internal/config"
	"github.com/tomtom215/drillwise/internal/eventprocessor"
	"github.com/tomtom215/drillwise/internal/logging"
	"github.com/tomtom215/drillwise/internal/supervisor"
	"github.com/tomtom215/drillwise/internal/supervisor/services"
)

func main() {
	// Load configuration first to get logging settings
	configPath := config.FindConfigFile()
	cfg, err := config.Load(configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Format = cfg.Logging.Format
	logCfg.Caller = cfg.Logging.Caller
	logging.Init(logCfg)

	logging.Info().
		Str("config", configPath).
		Str("source", cfg.Source.Kind).
		Bool("feed", cfg.Feed.Enabled).
		Bool("http", cfg.Server.Enabled).
		Msg("Starting Drillwise")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, configPath, logging.Logger()); err != nil {
		logging.Error().Err(err).Msg("Drillwise stopped with error")
		stop()
		os.Exit(1)
	}
	logging.Info().Msg("Drillwise stopped")
}

// run wires every component, serves until ctx is canceled and shuts down.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func run(ctx context.Context, cfg *config.Config, configPath string, logger zerolog.Logger) error {
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error().Err(err).Msg("Error closing application state")
		}
	}()

	if _, err := a.Restore(ctx); err != nil {
		return fmt.Errorf("restore state: %w", err)
	}

	if cfg.Recommend.WatchRules {
		if err := a.WatchRules(configPath); err != nil {
			logger.Warn().Err(err).Msg("Context rule hot reload disabled")
		} else {
			logger.Info().Str("path", configPath).Msg("Watching config file for context rule changes")
		}
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(logger), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	// Training layer
	tree.AddTrainingService(services.NewTrainerService(a.Engine, services.TrainerConfig{
		TrainOnStartup: cfg.Recommend.TrainOnStartup,
		Interval:       cfg.Recommend.Engine.Training.Interval,
	}, logger))
	if mc := a.MemoryCache(); mc != nil {
		tree.AddTrainingService(services.NewCacheJanitorService(mc, cfg.Recommend.CacheCleanupInterval, logger))
	}

	checks := map[string]api.HealthCheck{}
	if a.DuckDB != nil {
		checks["duckdb"] = func() bool {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return a.DuckDB.Ping(pingCtx) == nil
		}
	}

	// Feed layer
	if cfg.Feed.Enabled {
		transport, err := eventprocessor.NewTransport(ctx, app.TransportConfig(cfg.Feed), logger)
		if err != nil {
			return fmt.Errorf("create feed transport: %w", err)
		}
		defer func() {
			if err := transport.Close(); err != nil {
				logger.Error().Err(err).Msg("Error closing feed transport")
			}
		}()

		consumer, err := eventprocessor.NewConsumer(app.ConsumerConfig(cfg.Feed), transport.Subscriber, transport.Publisher, a.Engine, logger)
		if err != nil {
			return fmt.Errorf("create feed consumer: %w", err)
		}
		tree.AddFeedService(services.NewFeedService(consumer, cfg.Feed.CloseTimeout))
		checks["feed"] = consumer.IsRunning
		logger.Info().Str("transport", cfg.Feed.Transport).Msg("Feed consumer added to supervisor tree")
	}

	// API layer
	if cfg.Server.Enabled {
		router := api.NewRouter(a.Engine, api.RouterConfig{
			CORSOrigins:       cfg.Server.CORSOrigins,
			RateLimitRequests: cfg.Server.RateLimitRequests,
			RateLimitWindow:   cfg.Server.RateLimitWindow,
			Checks:            checks,
		}, logger)
		server := &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           router.Handler(),
			ReadTimeout:       cfg.Server.ReadTimeout,
			ReadHeaderTimeout: cfg.Server.ReadTimeout,
			WriteTimeout:      cfg.Server.WriteTimeout,
			IdleTimeout:       60 * time.Second,
		}
		tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
		logger.Info().Str("addr", server.Addr).Msg("HTTP server service added")
	}

	logger.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logger.Info().Msg("Context canceled, waiting for supervisor to finish...")
		err = <-errCh
	case err = <-errCh:
	}

	if report, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(report) > 0 {
		for _, svc := range report {
			logger.Warn().Str("service", svc.Name).Msg("Service did not stop in time")
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor tree: %w", err)
	}
	return nil
}
