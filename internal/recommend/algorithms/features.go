// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package algorithms

import (
	"github.com/tomtom215/drillwise/internal/recommend"
)

// Feature vector layout, in order:
//
//	[0]      normalized difficulty (d-1)/4
//	[1]      normalized time min(1, t/MaxTimeMinutes)
//	[2..]    skill importances in ContentConfig.Skills order
//	[...]    style suitabilities in ContentConfig.LearningStyles order
//	[...]    one-hot category over ContentConfig.Categories
//	[...]    one-hot format over ContentConfig.Formats
//
// Profile vectors use the same layout so the two can be compared with
// cosine similarity.

func vectorLen(cfg *recommend.ContentConfig) int {
	return 2 + len(cfg.Skills) + len(cfg.LearningStyles) + len(cfg.Categories) + len(cfg.Formats)
}

// itemVector derives the feature vector of an item.
func itemVector(item *recommend.ItemFeatures, cfg *recommend.ContentConfig) []float64 {
	v := make([]float64, 0, vectorLen(cfg))
	v = append(v,
		recommend.Clamp01((item.Difficulty-recommend.MinRating)/(recommend.MaxRating-recommend.MinRating)),
		normalizedTime(item.EstimatedTimeMinutes, cfg.MaxTimeMinutes),
	)
	for _, s := range cfg.Skills {
		v = append(v, item.SkillRequirements[s])
	}
	for _, s := range cfg.LearningStyles {
		v = append(v, item.LearningStyles[s])
	}
	v = appendOneHot(v, item.Category, cfg.Categories)
	return appendOneHot(v, item.Format, cfg.Formats)
}

// profileVector projects a profile onto the item feature layout.
func profileVector(p *recommend.UserProfile, cfg *recommend.ContentConfig) []float64 {
	v := make([]float64, 0, vectorLen(cfg))
	v = append(v,
		recommend.Clamp01((p.DifficultyPreference-recommend.MinRating)/(recommend.MaxRating-recommend.MinRating)),
		normalizedTime(p.TimePreferenceMinutes, cfg.MaxTimeMinutes),
	)
	for _, s := range cfg.Skills {
		v = append(v, recommend.Clamp01(p.SkillLevels[s]/cfg.MaxSkillPoints))
	}
	for _, s := range cfg.LearningStyles {
		v = append(v, p.LearningStyles[s])
	}
	for _, c := range cfg.Categories {
		v = append(v, p.TopicInterests[c])
	}
	for _, f := range cfg.Formats {
		v = append(v, p.FormatPreferences[f])
	}
	return v
}

func normalizedTime(minutes, maxMinutes float64) float64 {
	if maxMinutes <= 0 {
		return 0
	}
	return recommend.Clamp01(minutes / maxMinutes)
}

func appendOneHot(v []float64, value string, vocabulary []string) []float64 {
	for _, term := range vocabulary {
		if term == value {
			v = append(v, 1)
		} else {
			v = append(v, 0)
		}
	}
	return v
}
