// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/drillwise/internal/recommend"
	"github.com/tomtom215/drillwise/internal/recommend/algorithms"
)

// RestoreSummary reports what Restore loaded.
type RestoreSummary struct {
	Ratings       int
	Items         int
	Profiles      int
	HybridConfigs int
	ModelLoaded   bool
}

// Restore loads persisted state from the Badger store into the engines.
// Catalog items go straight to the content engine so nothing is written
// back while restoring.
func (a *App) Restore(ctx context.Context) (RestoreSummary, error) {
	var sum RestoreSummary

	ratings, err := a.Store.Ratings(ctx)
	if err != nil {
		return sum, fmt.Errorf("load ratings: %w", err)
	}
	model, err := a.Store.LoadModel(ctx)
	if err != nil && !errors.Is(err, recommend.ErrNotFound) {
		return sum, fmt.Errorf("load model: %w", err)
	}
	if err := a.Collaborative.Restore(ctx, algorithms.CollaborativeState{Ratings: ratings, Model: model}); err != nil {
		return sum, err
	}
	sum.Ratings = len(ratings)
	sum.ModelLoaded = model != nil

	items, err := a.Store.Items(ctx)
	if err != nil {
		return sum, fmt.Errorf("load items: %w", err)
	}
	if len(items) > 0 {
		if err := a.Content.RegisterItems(ctx, items); err != nil {
			return sum, fmt.Errorf("restore items: %w", err)
		}
	}
	sum.Items = len(items)

	profiles, err := a.Store.Profiles(ctx)
	if err != nil {
		return sum, fmt.Errorf("load profiles: %w", err)
	}
	a.Content.RestoreProfiles(profiles)
	sum.Profiles = len(profiles)

	configs, err := a.Store.HybridConfigs(ctx)
	if err != nil {
		return sum, fmt.Errorf("load hybrid configs: %w", err)
	}
	a.Engine.RestoreHybridConfigs(configs)
	sum.HybridConfigs = len(configs)

	a.logger.Info().
		Int("ratings", sum.Ratings).
		Int("items", sum.Items).
		Int("profiles", sum.Profiles).
		Int("hybrid_configs", sum.HybridConfigs).
		Bool("model", sum.ModelLoaded).
		Msg("State restored")
	return sum, nil
}
