// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"

	"github.com/tomtom215/drillwise/internal/logging"
)

// Transport kinds.
const (
	TransportGoChannel = "gochannel"
	TransportNATS      = "nats"
)

// TransportConfig selects and configures the message transport.
type TransportConfig struct {
	Kind string

	// NATS settings, used when Kind is nats.
	NATSURL          string
	EmbeddedServer   bool
	StoreDir         string
	StreamName       string
	DurableName      string
	SubscribersCount int
	AckWaitTimeout   time.Duration
	MaxDeliver       int
	CloseTimeout     time.Duration

	// OutputBuffer is the gochannel per-subscriber buffer.
	OutputBuffer int64
}

// DefaultTransportConfig returns defaults for an in-process transport.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		Kind:             TransportGoChannel,
		NATSURL:          "nats://127.0.0.1:4222",
		StreamName:       "DRILLWISE",
		DurableName:      "drillwise",
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		MaxDeliver:       10,
		CloseTimeout:     30 * time.Second,
		OutputBuffer:     256,
	}
}

// Transport is a connected publisher/subscriber pair.
type Transport struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber

	closers []func() error
}

// NewTransport connects the configured transport. The nats kind requires the
// nats build tag.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTransport(ctx context.Context, cfg TransportConfig, logger zerolog.Logger) (*Transport, error) {
	log := logger.With().Str("component", "feed_transport").Logger()

	switch cfg.Kind {
	case "", TransportGoChannel:
		return newGoChannelTransport(cfg, log), nil
	case TransportNATS:
		return newNATSTransport(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("%w: unknown transport %q", ErrInvalidConfig, cfg.Kind)
	}
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func newGoChannelTransport(cfg TransportConfig, logger zerolog.Logger) *Transport {
	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: cfg.OutputBuffer,
	}, logging.NewWatermillLogger(logger))
	logger.Info().Msg("Using in-process feed transport")

	return &Transport{
		Publisher:  pubSub,
		Subscriber: pubSub,
		closers:    []func() error{pubSub.Close},
	}
}

// Close releases the transport in reverse order of construction.
func (t *Transport) Close() error {
	var errs []error
	for i := len(t.closers) - 1; i >= 0; i-- {
		if err := t.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	t.closers = nil
	return errors.Join(errs...)
}
