// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/drillwise/internal/cache"
	"github.com/tomtom215/drillwise/internal/config"
	"github.com/tomtom215/drillwise/internal/database"
	"github.com/tomtom215/drillwise/internal/recommend"
	"github.com/tomtom215/drillwise/internal/recommend/algorithms"
	"github.com/tomtom215/drillwise/internal/recommend/storage"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Rating sources.
const (
	SourceStore  = "store"
	SourceDuckDB = "duckdb"
)

// App is a fully wired recommendation engine with its persistence and cache.
type App struct {
	Config        *config.Config
	Engine        *recommend.Engine
	Collaborative *algorithms.Collaborative
	Content       *algorithms.ContentBased
	Store         *storage.BadgerStore

	// DuckDB is set when ratings are trained from an analytics export.
	DuckDB *database.DB

	// Cache is nil when caching is disabled.
	Cache recommend.ResultCache

	memCache *cache.Memory
	logger   zerolog.Logger

	rulesMu     sync.Mutex
	ruleFactors map[string]struct{}

	closeOnce sync.Once
	closers   []namedCloser
}

type namedCloser struct {
	name   string
	closer io.Closer
}

// New opens the state store, builds both sub-engines and the hybrid engine,
// and selects the rating source and result cache. Restore must be called
// before serving to load persisted state.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (a *App, err error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	engineCfg := cfg.Recommend.Engine

	a = &App{
		Config: cfg,
		logger: logger.With().Str("component", "app").Logger(),
	}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	store, err := storage.Open(storage.Config{
		Path:       cfg.Store.Path,
		InMemory:   cfg.Store.InMemory,
		SyncWrites: cfg.Store.SyncWrites,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}
	a.Store = store
	a.addCloser("state store", store)

	a.Collaborative = algorithms.NewCollaborative(engineCfg.Collaborative, engineCfg.Seed, logger)
	a.Collaborative.SetCheckpointStore(store)
	a.Collaborative.SetModelStore(store)
	a.Content = algorithms.NewContentBased(engineCfg.Content, logger)

	engine, err := recommend.NewEngine(&engineCfg, a.Collaborative, a.Content, logger)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}
	a.Engine = engine
	engine.SetStateStore(store)

	if err := a.wireSource(ctx); err != nil {
		return nil, err
	}
	if err := a.wireCache(ctx); err != nil {
		return nil, err
	}

	if len(cfg.Recommend.ContextRules) > 0 {
		if err := a.ApplyRules(cfg.Recommend.ContextRules); err != nil {
			return nil, err
		}
	}

	a.logger.Info().
		Str("source", cfg.Source.Kind).
		Str("cache", cfg.Recommend.CacheBackend).
		Bool("in_memory_store", cfg.Store.InMemory).
		Msg("Application wired")
	return a, nil
}

func (a *App) wireSource(ctx context.Context) error {
	switch a.Config.Source.Kind {
	case "", SourceStore:
		a.Engine.SetRatingSource(a.Store)
	case SourceDuckDB:
		db, err := database.New(database.Config{
			Path:      a.Config.Source.DuckDBPath,
			Threads:   a.Config.Source.Threads,
			MaxMemory: a.Config.Source.MaxMemory,
		}, a.logger)
		if err != nil {
			return fmt.Errorf("open rating source: %w", err)
		}
		a.addCloser("duckdb", db)
		if err := db.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("prepare rating source: %w", err)
		}
		a.DuckDB = db
		a.Engine.SetRatingSource(mergedSource{db, a.Store})
	default:
		return fmt.Errorf("unknown rating source %q", a.Config.Source.Kind)
	}
	return nil
}

func (a *App) wireCache(ctx context.Context) error {
	if !a.Config.Recommend.Engine.Cache.Enabled {
		return nil
	}
	switch a.Config.Recommend.CacheBackend {
	case "", CacheMemory:
		c := a.Config.Recommend.Engine.Cache
		a.memCache = cache.NewMemory(c.MaxEntries, c.TTL)
		a.Cache = a.memCache
	case CacheRedis:
		rc := a.Config.Recommend.Redis
		r, err := cache.NewRedis(ctx, cache.RedisConfig{
			Addr:        rc.Addr,
			Password:    rc.Password,
			DB:          rc.DB,
			Namespace:   rc.Namespace,
			DialTimeout: rc.DialTimeout,
		}, a.logger)
		if err != nil {
			return fmt.Errorf("connect result cache: %w", err)
		}
		a.addCloser("redis", r)
		a.Cache = r
	case CacheNone:
		return nil
	default:
		return fmt.Errorf("unknown cache backend %q", a.Config.Recommend.CacheBackend)
	}
	a.Engine.SetCache(a.Cache)
	return nil
}

// MemoryCache returns the in-process cache, or nil when another backend is
// in use. Only the in-process cache needs periodic cleanup.
func (a *App) MemoryCache() *cache.Memory {
	return a.memCache
}

func (a *App) addCloser(name string, c io.Closer) {
	a.closers = append(a.closers, namedCloser{name: name, closer: c})
}

// Close releases everything New opened, last opened first.
func (a *App) Close() error {
	var errs []error
	a.closeOnce.Do(func() {
		for i := len(a.closers) - 1; i >= 0; i-- {
			nc := a.closers[i]
			if err := nc.closer.Close(); err != nil {
				a.logger.Error().Err(err).Str("resource", nc.name).Msg("Failed to close resource")
				errs = append(errs, fmt.Errorf("close %s: %w", nc.name, err))
			}
		}
	})
	return errors.Join(errs...)
}
