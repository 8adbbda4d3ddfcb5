// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Level != "info" || cfg.Format != "json" {
		t.Errorf("DefaultConfig() = %+v", cfg)
	}
	if cfg.Caller || !cfg.Timestamp {
		t.Errorf("DefaultConfig() caller=%v timestamp=%v", cfg.Caller, cfg.Timestamp)
	}
}

func TestInit(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Timestamp: true, Output: &buf})
	defer Init(DefaultConfig())

	Info().Str("user_id", "u1").Msg("Recommendations served")

	out := buf.String()
	for _, want := range []string{"Recommendations served", `"level":"info"`, `"user_id":"u1"`, `"time":`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}

func TestNew_IndependentOfGlobal(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", Output: &buf})

	l.Info().Msg("dropped")
	l.Warn().Msg("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") || !strings.Contains(out, "kept") {
		t.Errorf("New() level filtering wrong: %s", out)
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "console", Output: &buf})
	defer Init(DefaultConfig())

	Info().Msg("console test")

	if out := buf.String(); strings.Contains(out, `"level"`) || !strings.Contains(out, "console test") {
		t.Errorf("expected console output, got: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"disabled", zerolog.Disabled},
		{"DEBUG", zerolog.DebugLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestGlobalEvents(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Output: &buf})
	defer Init(DefaultConfig())

	tests := []struct {
		name string
		emit func()
		want string
	}{
		{"info", func() { Info().Msg("m") }, `"level":"info"`},
		{"error", func() { Error().Err(errors.New("boom")).Msg("m") }, `"error":"boom"`},
		{"logger", func() { l := Logger(); l.Debug().Str("component", "trainer").Msg("m") }, `"component":"trainer"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.emit()
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output %q missing %s", buf.String(), tt.want)
			}
		})
	}
}

func TestInit_SetsGlobalLevel(t *testing.T) {
	defer Init(DefaultConfig())

	Init(Config{Level: "error", Output: &bytes.Buffer{}})
	if zerolog.GlobalLevel() != zerolog.ErrorLevel {
		t.Errorf("GlobalLevel() = %v, want error", zerolog.GlobalLevel())
	}
}
