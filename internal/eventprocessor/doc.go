// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

// Package eventprocessor feeds catalog, rating, interaction and feedback
// events into the recommendation engine through Watermill.
//
// # Topics
//
//	drillwise.ratings       one recommend.Rating per message
//	drillwise.interactions  InteractionEvent: a user's interactions
//	drillwise.feedback      FeedbackEvent: a feedback batch, applied all or nothing
//	drillwise.catalog       CatalogEvent: items to add or replace
//
// Payloads are JSON. Every topic is handled by the same Consumer, which
// applies events to a Sink (normally *recommend.Engine).
//
// # Delivery
//
// The Consumer's router acknowledges a message once it is applied. Failures
// fall into two classes:
//
//   - Permanent: malformed JSON or input the engine rejects. The message is
//     logged and acknowledged, and routed to the poison topic when one is
//     configured. Redelivery could never succeed.
//   - Transient: anything else, such as an open circuit breaker. The retry
//     middleware backs off and tries again; if every attempt fails the
//     message is nacked for redelivery.
//
// An optional token bucket (golang.org/x/time/rate) caps the combined rate
// across topics.
//
// # Transports
//
// The default transport is an in-process gochannel, for embedding and tests.
// Building with -tags nats adds a NATS JetStream transport, optionally backed
// by an embedded server:
//
//	go build -tags nats ./cmd/server
//
// Without the tag, selecting the nats transport returns ErrNATSNotEnabled.
//
// # Example
//
//	t, err := eventprocessor.NewTransport(ctx, eventprocessor.DefaultTransportConfig(), logger)
//	if err != nil {
//	    return err
//	}
//	defer t.Close()
//
//	c, err := eventprocessor.NewConsumer(eventprocessor.DefaultConsumerConfig(), t.Subscriber, t.Publisher, engine, logger)
//	if err != nil {
//	    return err
//	}
//	if err := c.Start(ctx); err != nil {
//	    return err
//	}
//	defer c.Shutdown(context.Background())
//
//	pub := eventprocessor.NewPublisher(t.Publisher)
//	err = pub.PublishRating(ctx, recommend.Rating{UserID: "u1", ItemID: "drill-42", Value: 4})
package eventprocessor
