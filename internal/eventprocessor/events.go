// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package eventprocessor

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/drillwise/internal/recommend"
)

// Feed topics.
const (
	TopicRatings      = "drillwise.ratings"
	TopicInteractions = "drillwise.interactions"
	TopicFeedback     = "drillwise.feedback"
	TopicCatalog      = "drillwise.catalog"
)

// Topics lists every topic the consumer subscribes to.
var Topics = []string{TopicRatings, TopicInteractions, TopicFeedback, TopicCatalog}

// Metadata keys set on published messages.
const (
	MetadataEventType = "event_type"
	MetadataUserID    = "user_id"
)

// RatingEvent is one rating on the ratings topic.
type RatingEvent = recommend.Rating

// InteractionEvent carries a user's interactions that fold into the content
// profile without adapting blend weights.
type InteractionEvent struct {
	UserID       string                  `json:"user_id" validate:"required"`
	Interactions []recommend.Interaction `json:"interactions" validate:"required,min=1"`
}

// FeedbackEvent carries a batch of feedback on recommendations. The batch is
// applied as a whole or rejected as a whole.
type FeedbackEvent struct {
	Feedback []recommend.Feedback `json:"feedback" validate:"required,min=1"`
}

// CatalogEvent carries catalog items to add or replace.
type CatalogEvent struct {
	Items []recommend.ItemFeatures `json:"items" validate:"required,min=1"`
}

// NewMessage encodes payload as JSON into a message with a fresh UUID.
func NewMessage(eventType string, payload any) (*message.Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", eventType, err)
	}
	msg := message.NewMessage(uuid.NewString(), data)
	msg.Metadata.Set(MetadataEventType, eventType)
	return msg, nil
}

// decode unmarshals a message payload. Malformed payloads are permanent
// failures.
func decode(payload []byte, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return permanent(ReasonDecode, err)
	}
	return nil
}
