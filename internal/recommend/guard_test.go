// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package recommend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/tomtom215/drillwise/internal/metrics"
)

func testBreakerConfig() BreakerConfig {
	return BreakerConfig{FailureThreshold: 3, Timeout: time.Hour, MaxRequests: 1}
}

func TestGuard_Panic(t *testing.T) {
	g := newGuard[int]("guard-panic", testBreakerConfig(), zerolog.Nop())
	before := testutil.ToFloat64(metrics.SubEngineFailures.WithLabelValues("guard-panic", "panic"))

	_, err := g.call(func() (int, error) {
		var m map[string]int
		m["x"] = 1
		return 0, nil
	})
	if !errors.Is(err, errEnginePanic) {
		t.Fatalf("call() error = %v, want errEnginePanic", err)
	}
	after := testutil.ToFloat64(metrics.SubEngineFailures.WithLabelValues("guard-panic", "panic"))
	if after-before != 1 {
		t.Errorf("panic failures recorded = %v, want 1", after-before)
	}
}

func TestGuard_OpensAfterThreshold(t *testing.T) {
	g := newGuard[int]("guard-open", testBreakerConfig(), zerolog.Nop())
	calls := 0
	failing := func() (int, error) {
		calls++
		return 0, errors.New("down")
	}

	for i := 0; i < 5; i++ {
		_, _ = g.call(failing)
	}
	if calls != 3 {
		t.Errorf("function ran %d times, want 3", calls)
	}
	if g.state() != "open" {
		t.Errorf("state = %q, want open", g.state())
	}
	if got := testutil.ToFloat64(metrics.CircuitBreakerState.WithLabelValues("engine-guard-open")); got != 2 {
		t.Errorf("breaker gauge = %v, want 2", got)
	}
}

func TestGuard_CancellationDoesNotTrip(t *testing.T) {
	g := newGuard[int]("guard-cancel", testBreakerConfig(), zerolog.Nop())
	for i := 0; i < 10; i++ {
		_, err := g.call(func() (int, error) { return 0, context.Canceled })
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("call() error = %v, want context.Canceled", err)
		}
	}
	if g.state() != "closed" {
		t.Errorf("state = %q, want closed", g.state())
	}

	v, err := g.call(func() (int, error) { return 42, nil })
	if err != nil || v != 42 {
		t.Errorf("call() = %v, %v; want 42, nil", v, err)
	}
}
