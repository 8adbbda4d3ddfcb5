// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package eventprocessor

import (
	"context"
	"fmt"
	"slices"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/tomtom215/drillwise/internal/recommend"
)

// Publisher writes typed feed events to a Watermill publisher.
type Publisher struct {
	publisher message.Publisher
}

// NewPublisher wraps pub.
func NewPublisher(pub message.Publisher) *Publisher {
	return &Publisher{publisher: pub}
}

func (p *Publisher) publish(ctx context.Context, topic string, userID string, payload any) error {
	msg, err := NewMessage(topic, payload)
	if err != nil {
		return err
	}
	if userID != "" {
		msg.Metadata.Set(MetadataUserID, userID)
	}
	msg.SetContext(ctx)
	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// PublishRating publishes one rating.
//
//nolint:gocritic // hugeParam: Rating passed by value for immutability
func (p *Publisher) PublishRating(ctx context.Context, r recommend.Rating) error {
	return p.publish(ctx, TopicRatings, r.UserID, r)
}

// PublishInteractions publishes a user's interactions.
func (p *Publisher) PublishInteractions(ctx context.Context, userID string, interactions []recommend.Interaction) error {
	return p.publish(ctx, TopicInteractions, userID, InteractionEvent{UserID: userID, Interactions: interactions})
}

// PublishFeedback publishes a feedback batch.
func (p *Publisher) PublishFeedback(ctx context.Context, batch []recommend.Feedback) error {
	userID := ""
	if len(batch) > 0 {
		userID = batch[0].UserID
	}
	return p.publish(ctx, TopicFeedback, userID, FeedbackEvent{Feedback: batch})
}

// PublishCatalog publishes catalog items.
func (p *Publisher) PublishCatalog(ctx context.Context, items []recommend.ItemFeatures) error {
	return p.publish(ctx, TopicCatalog, "", CatalogEvent{Items: items})
}

// PublishRaw publishes an already encoded payload to one of the feed topics.
func (p *Publisher) PublishRaw(ctx context.Context, topic string, payload []byte) error {
	if !slices.Contains(Topics, topic) {
		return fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}
	msg := message.NewMessage(uuid.NewString(), payload)
	msg.Metadata.Set(MetadataEventType, topic)
	msg.SetContext(ctx)
	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}
