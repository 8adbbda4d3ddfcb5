// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package recommend

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/drillwise/internal/metrics"
)

// errEnginePanic marks a sub-engine call that panicked.
var errEnginePanic = errors.New("sub-engine panic")

// guard isolates calls into one sub-engine. A panic is converted into an
// error, and consecutive failures open a circuit breaker so a broken engine
// is skipped until the breaker timeout elapses.
type guard[T any] struct {
	name   string
	cb     *gobreaker.CircuitBreaker[T]
	logger zerolog.Logger
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func newGuard[T any](name string, cfg BreakerConfig, logger zerolog.Logger) *guard[T] {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	cbName := "engine-" + name
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)

	g := &guard[T]{
		name:   name,
		logger: logger,
	}
	g.cb = gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: cfg.MaxRequests,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Cancellation is the caller giving up, not the engine failing.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			g.logger.Warn().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("Circuit breaker state transition")
			metrics.RecordCircuitBreakerTransition(name, fromStr, toStr, stateToFloat(to))
		},
	})
	return g
}

// call runs fn behind the breaker. Failures are logged and counted; the
// caller treats any error as no contribution.
func (g *guard[T]) call(fn func() (T, error)) (T, error) {
	result, err := g.cb.Execute(func() (out T, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w in %s: %v", errEnginePanic, g.name, r)
			}
		}()
		return fn()
	})
	if err != nil {
		reason := "error"
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			reason = "open"
		case errors.Is(err, errEnginePanic):
			reason = "panic"
		}
		metrics.RecordSubEngineFailure(g.name, reason)
		g.logger.Warn().Err(err).Str("engine", g.name).Str("reason", reason).Msg("Sub-engine call failed")
	}
	return result, err
}

// state returns the current breaker state name.
func (g *guard[T]) state() string {
	return stateToString(g.cb.State())
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
