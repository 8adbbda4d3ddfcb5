// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package config

import (
	"net"
	"strconv"
	"time"

	"github.com/tomtom215/drillwise/internal/recommend"
	"github.com/tomtom215/drillwise/internal/recommend/rules"
)

// Config holds all application configuration.
type Config struct {
	Logging   LoggingConfig   `koanf:"logging"`
	Store     StoreConfig     `koanf:"store"`
	Recommend RecommendConfig `koanf:"recommend"`
	Feed      FeedConfig      `koanf:"feed"`
	Server    ServerConfig    `koanf:"server"`
	Source    SourceConfig    `koanf:"source"`
}

// LoggingConfig configures the global zerolog logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// StoreConfig configures the Badger state store.
type StoreConfig struct {
	// Path is the Badger directory. Required unless InMemory is set.
	Path       string `koanf:"path"`
	InMemory   bool   `koanf:"in_memory"`
	SyncWrites bool   `koanf:"sync_writes"`
}

// RecommendConfig configures the engine and the pieces wired around it.
type RecommendConfig struct {
	// Engine is loaded from the recommend.engine subtree using the engine's
	// own json field names.
	Engine recommend.Config `koanf:"-"`

	// ContextRules override built-in context factor impacts with CEL
	// expressions.
	ContextRules []rules.Rule `koanf:"context_rules"`

	// CacheBackend selects the result cache: memory, redis or none.
	CacheBackend string `koanf:"cache_backend" validate:"oneof=memory redis none"`

	// CacheCleanupInterval is how often expired memory cache entries are
	// dropped.
	CacheCleanupInterval time.Duration `koanf:"cache_cleanup_interval" validate:"gt=0"`

	Redis RedisConfig `koanf:"redis"`

	// TrainOnStartup runs a training pass before the periodic schedule.
	TrainOnStartup bool `koanf:"train_on_startup"`

	// WatchRules re-applies context rules when the config file changes.
	WatchRules bool `koanf:"watch_rules"`
}

// RedisConfig configures the shared result cache.
type RedisConfig struct {
	Addr        string        `koanf:"addr"`
	Password    string        `koanf:"password"`
	DB          int           `koanf:"db" validate:"gte=0"`
	Namespace   string        `koanf:"namespace"`
	DialTimeout time.Duration `koanf:"dial_timeout"`
}

// FeedConfig configures the event feed consumer.
type FeedConfig struct {
	Enabled bool `koanf:"enabled"`

	// Transport is gochannel (in-process) or nats (JetStream, requires the
	// nats build tag).
	Transport string `koanf:"transport" validate:"oneof=gochannel nats"`

	NATSURL        string `koanf:"nats_url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	StoreDir       string `koanf:"store_dir"`
	DurableName    string `koanf:"durable_name"`
	Subscribers    int    `koanf:"subscribers" validate:"gte=1"`

	// RateLimit is messages per second per handler; 0 disables limiting.
	RateLimit float64 `koanf:"rate_limit" validate:"gte=0"`
	Burst     int     `koanf:"burst" validate:"gte=0"`

	RetryCount           int           `koanf:"retry_count" validate:"gte=0"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`
	PoisonTopic          string        `koanf:"poison_topic" validate:"required"`
	CloseTimeout         time.Duration `koanf:"close_timeout"`
}

// ServerConfig configures the ops HTTP server.
type ServerConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// CORSOrigins lists allowed origins for the JSON endpoints. Empty
	// disables CORS headers.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitRequests per RateLimitWindow per client IP; 0 disables
	// limiting.
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
}

// SourceConfig selects where training ratings are read from.
type SourceConfig struct {
	// Kind is store (the Badger rating log) or duckdb (an analytics export).
	Kind       string `koanf:"kind" validate:"oneof=store duckdb"`
	DuckDBPath string `koanf:"duckdb_path"`
	Threads    int    `koanf:"threads" validate:"gte=0"`
	MaxMemory  string `koanf:"max_memory"`
}

// defaultConfig returns the defaults every other layer overrides. The engine
// section is loaded separately from recommend.DefaultConfig.
func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Store: StoreConfig{
			Path: "/data/drillwise",
		},
		Recommend: RecommendConfig{
			CacheBackend:         "memory",
			CacheCleanupInterval: 5 * time.Minute,
			Redis: RedisConfig{
				Addr:        "127.0.0.1:6379",
				Namespace:   "drillwise:",
				DialTimeout: 5 * time.Second,
			},
			TrainOnStartup: true,
			WatchRules:     false,
		},
		Feed: FeedConfig{
			Enabled:              true,
			Transport:            "gochannel",
			NATSURL:              "nats://127.0.0.1:4222",
			StoreDir:             "/data/nats",
			DurableName:          "drillwise",
			Subscribers:          1,
			RateLimit:            500,
			Burst:                100,
			RetryCount:           3,
			RetryInitialInterval: 200 * time.Millisecond,
			PoisonTopic:          "drillwise.poison",
			CloseTimeout:         30 * time.Second,
		},
		Server: ServerConfig{
			Enabled:           true,
			Host:              "0.0.0.0",
			Port:              8088,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			ShutdownTimeout:   15 * time.Second,
			RateLimitRequests: 120,
			RateLimitWindow:   time.Minute,
		},
		Source: SourceConfig{
			Kind:      "store",
			MaxMemory: "1GB",
		},
	}
}

// Addr returns host:port for the ops server.
func (s *ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
