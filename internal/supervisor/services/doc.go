// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

/*
Package services adapts drillwise components to suture.Service.

Each wrapper turns a component's own lifecycle into a context-aware Serve
that blocks until its context is canceled:

  - TrainerService: periodic recommend.Engine training, with a shorter
    retry after an interrupted run so the checkpoint is picked up quickly
  - FeedService: eventprocessor.Consumer Start/Shutdown
  - HTTPServerService: *http.Server ListenAndServe/Shutdown
  - CacheJanitorService: expiry sweeps over the in-memory result cache

Returning an error from Serve asks the supervisor to restart the service
with backoff. Returning ctx.Err() after cancellation is a normal stop.
*/
package services
