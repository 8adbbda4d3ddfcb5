// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

// Package logging provides centralized zerolog-based structured logging.
//
// JSON output is the default; console output is available for local runs.
// Every other package receives a zerolog.Logger by value and derives a
// component logger from it:
//
//	logger := logging.Logger().With().Str("component", "feed").Logger()
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("user_id", userID).Msg("Recommendations served")
//	logging.Ctx(ctx).Warn().Err(err).Msg("Feedback rejected")
//
// # Context
//
// Correlation, request and user IDs travel in the context and are added to
// every line written through Ctx or CtxWith.
//
// # Adapters
//
//   - SlogHandler routes slog output (sutureslog) into zerolog
//   - WatermillLogger implements watermill.LoggerAdapter for the event feed
//
// Always terminate a log chain with Msg or Send; an unterminated chain is
// never written.
package logging
