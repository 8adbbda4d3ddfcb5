// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

/*
Package supervisor runs the long-lived drillwise services under a suture v4
supervisor tree.

# Layout

	drillwise
	├── training-layer
	│   ├── TrainerService       initial and periodic model training
	│   └── CacheJanitorService  expired result cache entries (memory backend)
	├── feed-layer
	│   └── FeedService          watermill consumer (gochannel or NATS)
	└── api-layer
	    └── HTTPServerService    /healthz, /metrics, /api/v1/*

Each layer has its own failure counter, so a consumer stuck in a restart
loop backs off without stopping training or the ops endpoints.

# Logging

suture emits slog events. The tree installs a sutureslog hook on the root
supervisor; callers pass a *slog.Logger bridged onto zerolog:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(logger), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddTrainingService(services.NewTrainerService(engine, trainerCfg, logger))
	tree.AddFeedService(services.NewFeedService(consumer, 30*time.Second))
	tree.AddAPIService(services.NewHTTPServerService(server, 15*time.Second))

	errCh := tree.ServeBackground(ctx)

# Shutdown

Canceling the context passed to Serve stops every service. Services that
have not returned after ShutdownTimeout show up in UnstoppedServiceReport.
*/
package supervisor
