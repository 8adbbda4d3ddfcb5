// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestGenerateCorrelationID(t *testing.T) {
	id1 := GenerateCorrelationID()
	id2 := GenerateCorrelationID()
	if len(id1) != 8 {
		t.Errorf("len(GenerateCorrelationID()) = %d, want 8", len(id1))
	}
	if id1 == id2 {
		t.Error("expected unique correlation IDs")
	}
}

func TestContextIDs(t *testing.T) {
	ctx := context.Background()
	if CorrelationIDFromContext(ctx) != "" || RequestIDFromContext(ctx) != "" || UserIDFromContext(ctx) != "" {
		t.Fatal("empty context returned IDs")
	}

	ctx = ContextWithCorrelationID(ctx, "corr1234")
	ctx = ContextWithRequestID(ctx, "req-1")
	ctx = ContextWithUserID(ctx, "u1")

	if got := CorrelationIDFromContext(ctx); got != "corr1234" {
		t.Errorf("CorrelationIDFromContext() = %q", got)
	}
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Errorf("RequestIDFromContext() = %q", got)
	}
	if got := UserIDFromContext(ctx); got != "u1" {
		t.Errorf("UserIDFromContext() = %q", got)
	}

	if got := CorrelationIDFromContext(ContextWithNewCorrelationID(context.Background())); len(got) != 8 {
		t.Errorf("ContextWithNewCorrelationID() id = %q", got)
	}
}

func TestCtx(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), zerolog.New(&buf))
	ctx = ContextWithCorrelationID(ctx, "corr1234")
	ctx = ContextWithUserID(ctx, "u1")

	Ctx(ctx).Info().Msg("Feedback applied")

	out := buf.String()
	for _, want := range []string{`"correlation_id":"corr1234"`, `"user_id":"u1"`, "Feedback applied"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
	if strings.Contains(out, "request_id") {
		t.Errorf("unexpected request_id in output: %s", out)
	}
}

func TestLoggerFromContext_FallsBackToGlobal(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Output: &buf})
	defer Init(DefaultConfig())

	l := LoggerFromContext(context.Background())
	l.Info().Msg("global")
	if !strings.Contains(buf.String(), "global") {
		t.Errorf("expected global logger output, got %s", buf.String())
	}
}
