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
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/drillwise/internal/metrics"
	"github.com/tomtom215/drillwise/internal/recommend"
	"github.com/tomtom215/drillwise/internal/validation"
)

// Sink applies feed events. *recommend.Engine satisfies it.
type Sink interface {
	AddRating(ctx context.Context, r recommend.Rating) error
	RecordInteractions(ctx context.Context, userID string, interactions []recommend.Interaction) error
	ProcessFeedback(ctx context.Context, batch []recommend.Feedback) error
	RegisterItems(ctx context.Context, items []recommend.ItemFeatures) error
}

var _ Sink = (*recommend.Engine)(nil)

// applyFunc applies one decoded message.
type applyFunc func(ctx context.Context, payload []byte) error

// handlers binds each topic to the Sink.
type handlers struct {
	sink    Sink
	limiter *rate.Limiter
	logger  zerolog.Logger
}

func (h *handlers) byTopic() map[string]applyFunc {
	return map[string]applyFunc{
		TopicRatings:      h.applyRating,
		TopicInteractions: h.applyInteractions,
		TopicFeedback:     h.applyFeedback,
		TopicCatalog:      h.applyCatalog,
	}
}

func (h *handlers) applyRating(ctx context.Context, payload []byte) error {
	var ev RatingEvent
	if err := decode(payload, &ev); err != nil {
		return err
	}
	if verr := validation.ValidateStruct(ev); verr != nil {
		return permanent(ReasonInvalid, verr)
	}
	return classify(h.sink.AddRating(ctx, ev))
}

func (h *handlers) applyInteractions(ctx context.Context, payload []byte) error {
	var ev InteractionEvent
	if err := decode(payload, &ev); err != nil {
		return err
	}
	if verr := validation.ValidateStruct(ev); verr != nil {
		return permanent(ReasonInvalid, verr)
	}
	for i, in := range ev.Interactions {
		if in.UserID != "" && in.UserID != ev.UserID {
			return permanent(ReasonInvalid, fmt.Errorf("interaction %d belongs to user %q, not %q", i, in.UserID, ev.UserID))
		}
	}
	return classify(h.sink.RecordInteractions(ctx, ev.UserID, ev.Interactions))
}

func (h *handlers) applyFeedback(ctx context.Context, payload []byte) error {
	var ev FeedbackEvent
	if err := decode(payload, &ev); err != nil {
		return err
	}
	if verr := validation.ValidateStruct(ev); verr != nil {
		return permanent(ReasonInvalid, verr)
	}
	return classify(h.sink.ProcessFeedback(ctx, ev.Feedback))
}

func (h *handlers) applyCatalog(ctx context.Context, payload []byte) error {
	var ev CatalogEvent
	if err := decode(payload, &ev); err != nil {
		return err
	}
	if verr := validation.ValidateStruct(ev); verr != nil {
		return permanent(ReasonInvalid, verr)
	}
	return classify(h.sink.RegisterItems(ctx, ev.Items))
}

// classify marks input the engine rejected as permanent. Anything else, such
// as an open circuit breaker, is worth retrying.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var verr *validation.RequestValidationError
	if errors.As(err, &verr) ||
		errors.Is(err, recommend.ErrInvalidItem) ||
		errors.Is(err, recommend.ErrEmptyUserID) {
		return permanent(ReasonInvalid, err)
	}
	return err
}

// handle adapts an applyFunc to a watermill handler. Permanent failures are
// logged and returned for the poison queue middleware when one is configured,
// otherwise acknowledged. Transient failures are returned so the retry
// middleware and eventually a nack can redeliver the message.
func (h *handlers) handle(topic string, apply applyFunc, hasPoisonQueue bool) message.NoPublishHandlerFunc {
	logger := h.logger.With().Str("topic", topic).Logger()

	return func(msg *message.Message) error {
		ctx := msg.Context()
		if h.limiter != nil {
			if err := h.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limit wait: %w", err)
			}
		}

		start := time.Now()
		err := apply(ctx, msg.Payload)
		reason := ""
		if err != nil {
			reason = ReasonApply
			var pe *PermanentError
			if errors.As(err, &pe) {
				reason = pe.Reason
			}
		}
		metrics.RecordFeedMessage(topic, time.Since(start), reason)

		switch {
		case err == nil:
			return nil
		case IsPermanent(err):
			logger.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping message that cannot be applied")
			if hasPoisonQueue {
				return err
			}
			return nil
		default:
			logger.Debug().Err(err).Str("message_uuid", msg.UUID).Msg("Message failed, will retry")
			return err
		}
	}
}
