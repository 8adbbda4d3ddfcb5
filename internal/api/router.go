// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/tomtom215/drillwise/internal/recommend"
)

// Engine is the read-only view of the recommendation engine the ops
// endpoints need. Satisfied by *recommend.Engine.
type Engine interface {
	Stats() recommend.Stats
	Trending(count int) []recommend.TrendingItem
	GetStatus() recommend.TrainingStatus
	BreakerStates() map[string]string
}

var _ Engine = (*recommend.Engine)(nil)

// HealthCheck reports whether a named component is working.
type HealthCheck func() bool

// RouterConfig configures the ops router.
type RouterConfig struct {
	// CORSOrigins allowed to read the API. Empty disables CORS.
	CORSOrigins []string

	// RateLimitRequests per RateLimitWindow per client IP on /api/v1.
	// Zero disables limiting.
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Checks are evaluated by /healthz. Any failing check turns the
	// response into a 503.
	Checks map[string]HealthCheck

	// MetricsHandler serves /metrics. Defaults to promhttp.Handler().
	MetricsHandler http.Handler
}

// Router serves the ops endpoints.
type Router struct {
	engine    Engine
	config    RouterConfig
	logger    zerolog.Logger
	startTime time.Time
}

// NewRouter creates the ops router.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRouter(engine Engine, cfg RouterConfig, logger zerolog.Logger) *Router {
	if cfg.MetricsHandler == nil {
		cfg.MetricsHandler = promhttp.Handler()
	}
	return &Router{
		engine:    engine,
		config:    cfg,
		logger:    logger.With().Str("component", "api").Logger(),
		startTime: time.Now(),
	}
}

// Handler builds the chi route tree:
//
//	GET /healthz
//	GET /metrics
//	GET /api/v1/stats
//	GET /api/v1/trending?count=N
//	GET /api/v1/training
//	GET /api/v1/breakers
func (router *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(Instrument(router.logger))
	if len(router.config.CORSOrigins) > 0 {
		r.Use(CORS(router.config.CORSOrigins))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusNotFound, ErrCodeNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
	})

	r.Get("/healthz", router.Healthz)
	r.Method(http.MethodGet, "/metrics", router.config.MetricsHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(RateLimitByIP(router.config.RateLimitRequests, router.config.RateLimitWindow))
		r.Use(APISecurityHeaders())

		r.Get("/stats", router.Stats)
		r.Get("/trending", router.Trending)
		r.Get("/training", router.Training)
		r.Get("/breakers", router.Breakers)
	})

	return r
}
