// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

//go:build nats

package eventprocessor

import (
	"context"
	"fmt"
	"strings"
	"time"

	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"

	"github.com/tomtom215/drillwise/internal/logging"
)

// streamSubjects is covered by the feed stream, poison topic included.
const streamSubjects = "drillwise.>"

// consumerName derives a per-topic durable and queue group name. NATS
// consumer names cannot contain dots.
func consumerName(prefix, topic string) string {
	return prefix + "-" + strings.ReplaceAll(topic, ".", "-")
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func newNATSTransport(ctx context.Context, cfg TransportConfig, logger zerolog.Logger) (*Transport, error) {
	t := &Transport{}
	url := cfg.NATSURL

	if cfg.EmbeddedServer {
		broker, err := startEmbeddedBroker(cfg.StoreDir)
		if err != nil {
			return nil, err
		}
		url = broker.clientURL()
		t.closers = append(t.closers, func() error {
			sctx, cancel := context.WithTimeout(context.Background(), cfg.CloseTimeout)
			defer cancel()
			return broker.stop(sctx)
		})
		logger.Info().Str("url", url).Msg("Embedded NATS server started")
	}

	if err := ensureStream(ctx, url, cfg.StreamName); err != nil {
		_ = t.Close() //nolint:errcheck // best-effort cleanup on the error path
		return nil, err
	}

	wlog := logging.NewWatermillLogger(logger)
	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: false,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, wlog)
	if err != nil {
		_ = t.Close() //nolint:errcheck // best-effort cleanup on the error path
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}
	t.Publisher = pub
	t.closers = append(t.closers, pub.Close)

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:                  url,
		QueueGroupPrefix:     cfg.DurableName,
		QueueGroupCalculator: consumerName,
		SubscribersCount:     cfg.SubscribersCount,
		AckWaitTimeout:       cfg.AckWaitTimeout,
		CloseTimeout:         cfg.CloseTimeout,
		NatsOptions:          natsOpts,
		Unmarshaler:          &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: false,
			AckAsync:      false,
			SubscribeOptions: []natsgo.SubOpt{
				natsgo.BindStream(cfg.StreamName),
				natsgo.MaxDeliver(cfg.MaxDeliver),
				natsgo.AckWait(cfg.AckWaitTimeout),
				natsgo.DeliverAll(),
			},
			DurablePrefix:     cfg.DurableName,
			DurableCalculator: consumerName,
		},
	}, wlog)
	if err != nil {
		_ = t.Close() //nolint:errcheck // best-effort cleanup on the error path
		return nil, fmt.Errorf("create watermill subscriber: %w", err)
	}
	t.Subscriber = sub
	t.closers = append(t.closers, sub.Close)

	logger.Info().Str("url", url).Str("stream", cfg.StreamName).Msg("Using NATS JetStream feed transport")
	return t, nil
}

// ensureStream creates the feed stream, or updates it when it exists.
func ensureStream(ctx context.Context, url, name string) error {
	nc, err := natsgo.Connect(url, natsgo.Timeout(10*time.Second))
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       name,
		Subjects:   []string{streamSubjects},
		Retention:  jetstream.LimitsPolicy,
		Storage:    jetstream.FileStorage,
		MaxAge:     7 * 24 * time.Hour,
		Duplicates: 2 * time.Minute,
		Discard:    jetstream.DiscardOld,
	})
	if err != nil {
		return fmt.Errorf("ensure stream %s: %w", name, err)
	}
	return nil
}
