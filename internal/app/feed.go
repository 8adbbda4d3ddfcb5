// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package app

import (
	"github.com/tomtom215/drillwise/internal/config"
	"github.com/tomtom215/drillwise/internal/eventprocessor"
)

// TransportConfig maps the feed section onto transport settings. Zero values
// keep the transport defaults.
//
//nolint:gocritic // hugeParam: FeedConfig is read once at startup
func TransportConfig(fc config.FeedConfig) eventprocessor.TransportConfig {
	tc := eventprocessor.DefaultTransportConfig()
	tc.Kind = fc.Transport
	tc.NATSURL = fc.NATSURL
	tc.EmbeddedServer = fc.EmbeddedServer
	tc.StoreDir = fc.StoreDir
	if fc.DurableName != "" {
		tc.DurableName = fc.DurableName
	}
	if fc.Subscribers > 0 {
		tc.SubscribersCount = fc.Subscribers
	}
	if fc.CloseTimeout > 0 {
		tc.CloseTimeout = fc.CloseTimeout
	}
	return tc
}

// ConsumerConfig maps the feed section onto consumer settings.
//
//nolint:gocritic // hugeParam: FeedConfig is read once at startup
func ConsumerConfig(fc config.FeedConfig) eventprocessor.ConsumerConfig {
	cc := eventprocessor.DefaultConsumerConfig()
	cc.RetryMaxRetries = fc.RetryCount
	if fc.RetryInitialInterval > 0 {
		cc.RetryInitialInterval = fc.RetryInitialInterval
	}
	cc.RateLimit = fc.RateLimit
	if fc.Burst > 0 {
		cc.Burst = fc.Burst
	}
	cc.PoisonTopic = fc.PoisonTopic
	if fc.CloseTimeout > 0 {
		cc.CloseTimeout = fc.CloseTimeout
	}
	return cc
}
