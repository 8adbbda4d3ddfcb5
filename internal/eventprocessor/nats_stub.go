// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

//go:build !nats

package eventprocessor

import (
	"context"

	"github.com/rs/zerolog"
)

//nolint:gocritic // logger passed by value is acceptable for zerolog
func newNATSTransport(_ context.Context, _ TransportConfig, _ zerolog.Logger) (*Transport, error) {
	return nil, ErrNATSNotEnabled
}
