// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

/*
Package config loads Drillwise configuration with koanf.

# Sources

Layers are applied in order, later layers overriding earlier ones:

 1. Defaults: defaultConfig for the service sections, recommend.DefaultConfig
    for the engine (merged under recommend.engine)
 2. YAML file: the path given to Load, else DRILLWISE_CONFIG, else the first
    of DefaultConfigPaths that exists
 3. Environment: DRILLWISE_* variables

# Environment Variables

Common settings have short names:

  - DRILLWISE_LOG_LEVEL, DRILLWISE_LOG_FORMAT
  - DRILLWISE_STORE_PATH, DRILLWISE_STORE_IN_MEMORY
  - DRILLWISE_CACHE_BACKEND, DRILLWISE_REDIS_ADDR
  - DRILLWISE_FEED_TRANSPORT, DRILLWISE_NATS_URL
  - DRILLWISE_HTTP_HOST, DRILLWISE_HTTP_PORT
  - DRILLWISE_SOURCE, DRILLWISE_DUCKDB_PATH

Any other key is reachable with double underscores between path segments:

	DRILLWISE_RECOMMEND__ENGINE__HYBRID__ADAPTATION_RATE=0.2
	DRILLWISE_RECOMMEND__ENGINE__CONTENT__SKILLS=aim,movement,comms

Comma-separated values are split for the engine vocabulary lists.

# Example File

	logging:
	  level: debug
	store:
	  path: /var/lib/drillwise
	recommend:
	  cache_backend: redis
	  redis:
	    addr: redis:6379
	  engine:
	    training:
	      interval: 30m
	    reranking:
	      mode: mmr
	  context_rules:
	    - factor: mood
	      expression: "ctx.mood == 'tired' && item.difficulty > 3.0 ? 0.1 : 0.6"

# Validation

Load rejects a configuration that fails Config.Validate: struct tag checks,
the engine's own Validate, CEL compilation of the context rules and the
cross-section requirements (a store path unless in-memory, a DuckDB path for
the duckdb source and so on).
*/
package config
