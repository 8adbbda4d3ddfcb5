// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig tunes restart behaviour. The same values apply to the root
// and to each layer.
type TreeConfig struct {
	// FailureThreshold is the failure count that puts a supervisor into
	// backoff. Failures decay by FailureDecay seconds.
	FailureThreshold float64
	FailureDecay     float64
	FailureBackoff   time.Duration

	// ShutdownTimeout bounds how long each service gets to stop.
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig mirrors suture's own defaults with a 10s shutdown.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

func (c TreeConfig) withDefaults() TreeConfig {
	def := DefaultTreeConfig()
	if c.FailureThreshold == 0 {
		c.FailureThreshold = def.FailureThreshold
	}
	if c.FailureDecay == 0 {
		c.FailureDecay = def.FailureDecay
	}
	if c.FailureBackoff == 0 {
		c.FailureBackoff = def.FailureBackoff
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = def.ShutdownTimeout
	}
	return c
}

func (c TreeConfig) spec(hook suture.EventHook) suture.Spec {
	return suture.Spec{
		EventHook:        hook,
		FailureThreshold: c.FailureThreshold,
		FailureDecay:     c.FailureDecay,
		FailureBackoff:   c.FailureBackoff,
		Timeout:          c.ShutdownTimeout,
	}
}

// SupervisorTree supervises drillwise in three layers:
//
//	drillwise
//	├── training-layer   trainer, cache janitor
//	├── feed-layer       event consumer
//	└── api-layer        ops HTTP server
//
// Each layer backs off independently, so a feed that keeps failing leaves
// training and the ops endpoints running.
type SupervisorTree struct {
	root     *suture.Supervisor
	training *suture.Supervisor
	feed     *suture.Supervisor
	api      *suture.Supervisor
	config   TreeConfig
}

// NewSupervisorTree builds the tree, logging supervisor events through
// logger. Zero config values take the defaults.
func NewSupervisorTree(logger *slog.Logger, config TreeConfig) (*SupervisorTree, error) {
	config = config.withDefaults()

	events := &sutureslog.Handler{Logger: logger}
	root := suture.New("drillwise", config.spec(events.MustHook()))

	// Layers inherit the root's hook when added.
	t := &SupervisorTree{
		root:     root,
		training: suture.New("training-layer", config.spec(nil)),
		feed:     suture.New("feed-layer", config.spec(nil)),
		api:      suture.New("api-layer", config.spec(nil)),
		config:   config,
	}
	for _, layer := range []*suture.Supervisor{t.training, t.feed, t.api} {
		root.Add(layer)
	}
	return t, nil
}

// Root returns the root supervisor.
func (t *SupervisorTree) Root() *suture.Supervisor {
	return t.root
}

// Config returns the effective configuration.
func (t *SupervisorTree) Config() TreeConfig {
	return t.config
}

func (t *SupervisorTree) AddTrainingService(svc suture.Service) suture.ServiceToken {
	return t.training.Add(svc)
}

func (t *SupervisorTree) AddFeedService(svc suture.Service) suture.ServiceToken {
	return t.feed.Add(svc)
}

func (t *SupervisorTree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

// RemoveFeedService stops and removes a feed layer service.
func (t *SupervisorTree) RemoveFeedService(token suture.ServiceToken) error {
	return t.feed.Remove(token)
}

// Serve blocks until ctx is canceled or the root gives up.
func (t *SupervisorTree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground runs the tree in a goroutine; the channel receives the
// result when it stops.
func (t *SupervisorTree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that outlived the shutdown timeout.
func (t *SupervisorTree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
