// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/drillwise/internal/recommend"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"drillwise.yaml",
	"drillwise.yml",
	"/etc/drillwise/config.yaml",
	"/etc/drillwise/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "DRILLWISE_CONFIG"

// EnvPrefix prefixes every environment variable read by the loader.
const EnvPrefix = "DRILLWISE_"

// engineKey is the koanf path of the engine subtree.
const engineKey = "recommend.engine"

// Load loads configuration using koanf with layered sources:
//  1. Defaults: built-in defaults, including recommend.DefaultConfig for the engine
//  2. Config File: optional YAML file (explicit path, DRILLWISE_CONFIG or a default path)
//  3. Environment Variables: DRILLWISE_* overrides
//
// An explicit path that does not exist is an error; a missing default file is not.
func Load(path string) (*Config, error) {
	if path == "" {
		path = FindConfigFile()
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	k, err := newKoanf(path)
	if err != nil {
		return nil, err
	}
	return unmarshal(k)
}

// newKoanf builds the layered koanf instance.
func newKoanf(path string) (*koanf.Koanf, error) {
	k := koanf.New(".")

	// Layer 1: defaults. The engine section uses its own json field names.
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	engine := koanf.New(".")
	if err := engine.Load(structs.Provider(recommend.DefaultConfig(), "json"), nil); err != nil {
		return nil, fmt.Errorf("failed to load engine defaults: %w", err)
	}
	if err := k.MergeAt(engine, engineKey); err != nil {
		return nil, fmt.Errorf("failed to merge engine defaults: %w", err)
	}

	// Layer 2: config file (optional)
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}
	return k, nil
}

func unmarshal(k *koanf.Koanf) (*Config, error) {
	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := k.UnmarshalWithConf(engineKey, &cfg.Recommend.Engine, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal engine configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// FindConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func FindConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	engineKey + ".content.skills",
	engineKey + ".content.learning_styles",
	engineKey + ".content.categories",
	engineKey + ".content.formats",
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings; YAML lists are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps the short, commonly set variables (prefix stripped,
// lowercased) to config paths.
var envMappings = map[string]string{
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"store_path":      "store.path",
	"store_in_memory": "store.in_memory",

	"cache_backend":  "recommend.cache_backend",
	"redis_addr":     "recommend.redis.addr",
	"redis_password": "recommend.redis.password",
	"redis_db":       "recommend.redis.db",

	"train_on_startup": "recommend.train_on_startup",
	"train_interval":   engineKey + ".training.interval",
	"seed":             engineKey + ".seed",

	"feed_enabled":   "feed.enabled",
	"feed_transport": "feed.transport",
	"nats_url":       "feed.nats_url",
	"nats_embedded":  "feed.embedded_server",

	"http_host":    "server.host",
	"http_port":    "server.port",
	"http_enabled": "server.enabled",
	"cors_origins": "server.cors_origins",

	"source":      "source.kind",
	"duckdb_path": "source.duckdb_path",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - DRILLWISE_LOG_LEVEL -> logging.level
//   - DRILLWISE_HTTP_PORT -> server.port
//   - DRILLWISE_FEED__RATE_LIMIT -> feed.rate_limit
//   - DRILLWISE_RECOMMEND__ENGINE__HYBRID__ADAPTATION_RATE -> recommend.engine.hybrid.adaptation_rate
//
// Unmapped variables without a double underscore are skipped.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	if strings.Contains(key, "__") {
		return strings.ReplaceAll(key, "__", ".")
	}
	return ""
}

// WatchConfigFile calls callback whenever the file at path changes.
// The caller is responsible for synchronizing what the callback reloads.
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)

	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
