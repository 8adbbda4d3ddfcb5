// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

/*
Package main is the entry point for the Drillwise server.

Drillwise recommends training scenarios, drills and courses by blending
collaborative filtering, content matching and session context, and adapts
each user's blend from the feedback they give.

# Application Architecture

The server runs under a Suture v4 supervisor tree:

	RootSupervisor ("drillwise")
	├── TrainingSupervisor ("training-layer")
	│   ├── Trainer (periodic model training)
	│   └── Cache janitor (memory cache only)
	├── FeedSupervisor ("feed-layer")
	│   └── Feed consumer (Watermill; gochannel or NATS JetStream)
	└── APISupervisor ("api-layer")
	    └── Ops HTTP server (/healthz, /metrics, /api/v1)

Startup order:

 1. Configuration: Koanf v2 (defaults, YAML file, DRILLWISE_* env vars)
 2. Logging: zerolog
 3. State: Badger store restored into both engines
 4. Context rules: CEL expressions, optionally hot reloaded
 5. Supervisor tree and services

# Configuration

	DRILLWISE_CONFIG=/etc/drillwise/config.yaml
	DRILLWISE_STORE_PATH=/data/drillwise
	DRILLWISE_CACHE_BACKEND=memory       # memory, redis or none
	DRILLWISE_REDIS_ADDR=127.0.0.1:6379
	DRILLWISE_FEED_TRANSPORT=gochannel   # or nats (requires -tags nats)
	DRILLWISE_SOURCE=store               # or duckdb
	DRILLWISE_HTTP_PORT=8088

# Build Tags

	go build ./cmd/server              # in-process feed only
	go build -tags nats ./cmd/server   # NATS JetStream feed

# Signal Handling

SIGINT and SIGTERM cancel the root context. The supervisor stops the HTTP
server, drains the feed consumer and stops the trainer; a training run in
progress is interrupted at its next checkpoint. The Badger store is closed
last.
*/
package main
