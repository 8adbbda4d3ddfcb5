// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package api

import (
	"net/http"
	"sort"
	"strconv"
	"time"
)

// HealthStatus is the /healthz payload.
type HealthStatus struct {
	Status       string            `json:"status"`
	ModelTrained bool              `json:"model_trained"`
	Components   map[string]bool   `json:"components,omitempty"`
	Breakers     map[string]string `json:"breakers"`
	Uptime       float64           `json:"uptime_seconds"`
}

// Healthz reports process health. It answers 503 with the same body when a
// configured component check fails.
func (router *Router) Healthz(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:       "healthy",
		ModelTrained: router.engine.Stats().ModelTrained,
		Breakers:     router.engine.BreakerStates(),
		Uptime:       time.Since(router.startTime).Seconds(),
	}

	code := http.StatusOK
	if len(router.config.Checks) > 0 {
		names := make([]string, 0, len(router.config.Checks))
		for name := range router.config.Checks {
			names = append(names, name)
		}
		sort.Strings(names)

		status.Components = make(map[string]bool, len(names))
		for _, name := range names {
			ok := router.config.Checks[name]()
			status.Components[name] = ok
			if !ok {
				status.Status = "degraded"
				code = http.StatusServiceUnavailable
			}
		}
	}

	NewResponseWriter(w, r).Status(code, status)
}

// Stats serves engine diagnostic counters.
func (router *Router) Stats(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(router.engine.Stats())
}

// Trending serves the most popular items. count is optional; the engine
// applies its own default and maximum.
func (router *Router) Trending(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	count := 0
	if s := r.URL.Query().Get("count"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			rw.BadRequest("count must be a positive integer")
			return
		}
		count = n
	}

	rw.Success(router.engine.Trending(count))
}

// Training serves the training status.
func (router *Router) Training(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(router.engine.GetStatus())
}

// Breakers serves the sub-engine circuit breaker states.
func (router *Router) Breakers(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(router.engine.BreakerStates())
}
