// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package config

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/drillwise/internal/recommend/rules"
	"github.com/tomtom215/drillwise/internal/validation"
)

// Validate checks every section. Struct tags are checked first, then the
// cross-field rules the tags cannot express.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}

	if !c.Store.InMemory && c.Store.Path == "" {
		return errors.New("store.path is required unless store.in_memory is set")
	}

	if err := c.Recommend.Engine.Validate(); err != nil {
		return fmt.Errorf("recommend.engine: %w", err)
	}
	if _, err := rules.Compile(c.Recommend.ContextRules, zerolog.Nop()); err != nil {
		return fmt.Errorf("recommend.context_rules: %w", err)
	}
	if c.Recommend.CacheBackend == "redis" && c.Recommend.Redis.Addr == "" {
		return errors.New("recommend.redis.addr is required when cache_backend is redis")
	}

	if c.Feed.Enabled && c.Feed.Transport == "nats" && !c.Feed.EmbeddedServer && c.Feed.NATSURL == "" {
		return errors.New("feed.nats_url is required for the nats transport without an embedded server")
	}
	if c.Feed.EmbeddedServer && c.Feed.StoreDir == "" {
		return errors.New("feed.store_dir is required for the embedded NATS server")
	}

	if c.Source.Kind == "duckdb" && c.Source.DuckDBPath == "" {
		return errors.New("source.duckdb_path is required when source.kind is duckdb")
	}

	return nil
}
