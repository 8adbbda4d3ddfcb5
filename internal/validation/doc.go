// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

// Package validation provides struct validation using go-playground/validator v10.
//
// A thread-safe singleton validator is shared by the catalog intake, the event
// feed decoder and the recommendation engine. Field names in messages use the
// JSON tag so they match feed payloads.
//
// # Custom Tags
//
//   - rating: number on the 1-5 scale (item difficulty, ratings, satisfaction)
//   - unit: number in [0, 1] (skill importance, style suitability)
//
// # Usage
//
//	type ItemFeatures struct {
//	    ItemID     string             `json:"item_id" validate:"required"`
//	    Difficulty float64            `json:"difficulty" validate:"rating"`
//	    Skills     map[string]float64 `json:"skills" validate:"dive,keys,required,endkeys,unit"`
//	}
//
//	if verr := validation.ValidateSlice("items", batch); verr != nil {
//	    return fmt.Errorf("%w: %w", recommend.ErrInvalidItem, verr)
//	}
//
// ValidateSlice reports every failing element with an indexed field path such
// as "items[2].difficulty".
package validation
