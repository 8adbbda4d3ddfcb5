// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config selects level, encoding and destination for a logger.
type Config struct {
	// Level is one of trace, debug, info, warn, error, fatal, panic or
	// disabled. Unknown values fall back to info.
	Level string

	// Format is "json" (default) or "console".
	Format string

	Caller    bool
	Timestamp bool

	// Output defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig is JSON at info level with timestamps, written to stderr.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		Format:    "json",
		Timestamp: true,
		Output:    os.Stderr,
	}
}

var (
	global   zerolog.Logger
	globalMu sync.RWMutex
)

//nolint:gochecknoinits // the server logs before its configuration is loaded
func init() {
	configureGlobal(DefaultConfig())
}

// Init replaces the process-wide logger used by the server binary.
//
//nolint:gocritic // hugeParam: Config is read once at startup
func Init(cfg Config) {
	globalMu.Lock()
	defer globalMu.Unlock()
	configureGlobal(cfg)
}

// New builds a logger from cfg without touching the process-wide one.
// drillctl uses it so its stderr output stays readable regardless of the
// server's log settings.
//
//nolint:gocritic // hugeParam: Config is read once at startup
func New(cfg Config) zerolog.Logger {
	w := cfg.Output
	if w == nil {
		w = os.Stderr
	}
	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}

	ctx := zerolog.New(w).Level(parseLevel(cfg.Level)).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}

// configureGlobal must be called with globalMu held.
//
//nolint:gocritic // hugeParam: Config is read once at startup
func configureGlobal(cfg Config) {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339
	global = New(cfg)
}

// parseLevel accepts zerolog's level names plus "warning" and "off". Empty or
// unrecognised input yields info.
func parseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "info":
		return zerolog.InfoLevel
	case "warning":
		return zerolog.WarnLevel
	case "disabled", "off":
		return zerolog.Disabled
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Logger returns the process-wide logger.
func Logger() zerolog.Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return global
}

// Info starts an info event on the process-wide logger.
func Info() *zerolog.Event {
	l := Logger()
	return l.Info()
}

// Error starts an error event on the process-wide logger.
func Error() *zerolog.Event {
	l := Logger()
	return l.Error()
}

// Fatal starts a fatal event. The process exits after it is written.
func Fatal() *zerolog.Event {
	l := Logger()
	return l.Fatal()
}
