// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

//go:build nats

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
)

// Embedded broker limits. The listener stays on loopback so that drillctl
// publish can reach it at the default client URL.
const (
	embeddedHost       = "127.0.0.1"
	embeddedPort       = 4222
	embeddedMaxMemory  = 256 << 20
	embeddedMaxStore   = 4 << 30
	embeddedMaxPayload = 4 << 20
	embeddedReadyWait  = 30 * time.Second
)

// embeddedBroker is an in-process JetStream server for single-node
// deployments.
type embeddedBroker struct {
	ns *server.Server
}

// startEmbeddedBroker starts JetStream persisting under storeDir and waits
// until it accepts client connections.
func startEmbeddedBroker(storeDir string) (*embeddedBroker, error) {
	ns, err := server.NewServer(&server.Options{
		ServerName:         "drillwise-feed",
		Host:               embeddedHost,
		Port:               embeddedPort,
		JetStream:          true,
		StoreDir:           storeDir,
		JetStreamMaxMemory: embeddedMaxMemory,
		JetStreamMaxStore:  embeddedMaxStore,
		MaxPayload:         embeddedMaxPayload,
		NoLog:              true,
		NoSigs:             true,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedded NATS server: %w", err)
	}

	go ns.Start()
	if !ns.ReadyForConnections(embeddedReadyWait) {
		ns.Shutdown()
		return nil, errors.New("embedded NATS server not ready in time")
	}
	return &embeddedBroker{ns: ns}, nil
}

func (b *embeddedBroker) clientURL() string {
	return b.ns.ClientURL()
}

// stop shuts the server down, returning ctx.Err() if it has not exited by
// the time ctx ends.
func (b *embeddedBroker) stop(ctx context.Context) error {
	b.ns.Shutdown()

	done := make(chan struct{})
	go func() {
		b.ns.WaitForShutdown()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
