// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package logging

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// WatermillLogger adapts zerolog to watermill.LoggerAdapter so the feed
// router, subscribers and pub/sub backends log through the same stream.
type WatermillLogger struct {
	logger zerolog.Logger
}

// NewWatermillLogger wraps logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewWatermillLogger(logger zerolog.Logger) *WatermillLogger {
	return &WatermillLogger{logger: logger}
}

// Error logs msg with err at error level.
func (l *WatermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	withFields(l.logger.Error().Err(err), fields).Msg(msg)
}

// Info logs at info level.
func (l *WatermillLogger) Info(msg string, fields watermill.LogFields) {
	withFields(l.logger.Info(), fields).Msg(msg)
}

// Debug logs at debug level.
func (l *WatermillLogger) Debug(msg string, fields watermill.LogFields) {
	withFields(l.logger.Debug(), fields).Msg(msg)
}

// Trace logs at trace level.
func (l *WatermillLogger) Trace(msg string, fields watermill.LogFields) {
	withFields(l.logger.Trace(), fields).Msg(msg)
}

// With returns a child adapter carrying fields on every line.
func (l *WatermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	ctx := l.logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &WatermillLogger{logger: ctx.Logger()}
}

func withFields(event *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	return event
}

var _ watermill.LoggerAdapter = (*WatermillLogger)(nil)
