// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package recommend

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/drillwise/internal/metrics"
	"github.com/tomtom215/drillwise/internal/validation"
)

// itemRegistrar is implemented by content engines that accept catalog
// updates at runtime.
type itemRegistrar interface {
	RegisterItems(ctx context.Context, items []ItemFeatures) error
}

// AddRating records a rating that arrives outside the feedback loop, such as
// one replayed from an external feed. The value is clamped to the rating
// scale and a missing timestamp is set to now.
//
//nolint:gocritic // hugeParam: Rating passed by value to work on a copy
func (e *Engine) AddRating(ctx context.Context, r Rating) error {
	if r.UserID == "" {
		return ErrEmptyUserID
	}
	if verr := validation.ValidateStruct(r); verr != nil {
		return fmt.Errorf("invalid rating: %w", verr)
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = e.now()
	}
	r.Value = ClampRating(r.Value)

	if _, err := e.cfGuard.call(func() ([]Prediction, error) {
		return nil, e.cf.AddRating(ctx, r)
	}); err != nil {
		return fmt.Errorf("add rating: %w", err)
	}
	metrics.RatingsRecorded.Inc()
	e.persist(ctx, "save_rating", func(s StateStore) error { return s.SaveRating(ctx, r) })
	e.invalidate(ctx, r.UserID)
	return nil
}

// RecordInteractions folds a user's interactions into their content profile
// without adapting blend weights. The batch is rejected as a whole when any
// interaction is invalid.
func (e *Engine) RecordInteractions(ctx context.Context, userID string, interactions []Interaction) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	if len(interactions) == 0 {
		return nil
	}

	records := make([]Interaction, len(interactions))
	for i, in := range interactions {
		if in.UserID == "" {
			in.UserID = userID
		}
		if in.UserID != userID {
			return fmt.Errorf("interaction %d belongs to user %q, not %q", i, in.UserID, userID)
		}
		if in.Timestamp.IsZero() {
			in.Timestamp = e.now()
		}
		records[i] = in
	}
	if verr := validation.ValidateSlice("interactions", records); verr != nil {
		return fmt.Errorf("invalid interactions: %w", verr)
	}

	if _, err := e.cbGuard.call(func() ([]ContentMatch, error) {
		return nil, e.cb.UpdateProfile(ctx, userID, records)
	}); err != nil {
		return fmt.Errorf("record interactions: %w", err)
	}
	e.persistProfile(ctx, userID)
	e.invalidate(ctx, userID)
	return nil
}

// RegisterItems adds or replaces catalog items. Cached lists for every user
// are dropped since any of them may now rank differently.
func (e *Engine) RegisterItems(ctx context.Context, items []ItemFeatures) error {
	reg, ok := e.cb.(itemRegistrar)
	if !ok {
		return errors.New("content engine does not accept catalog updates")
	}
	if len(items) == 0 {
		return nil
	}
	if err := reg.RegisterItems(ctx, items); err != nil {
		return err
	}

	if is, ok := e.store.(ItemStore); ok {
		e.persist(ctx, "save_items", func(StateStore) error { return is.SaveItems(ctx, items) })
	}
	if e.cache != nil {
		e.cache.Clear(ctx)
	}
	e.logger.Info().Int("items", len(items)).Msg("Catalog updated")
	return nil
}
