// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package algorithms

import (
	"math"

	"github.com/tomtom215/drillwise/internal/recommend"
)

// readinessScore maps a readiness ratio onto coarse steps.
func readinessScore(ratio float64) float64 {
	switch {
	case ratio >= 0.8:
		return 0.9
	case ratio >= 0.6:
		return 0.7
	case ratio >= 0.4:
		return 0.5
	default:
		return 0.2
	}
}

// skillReadiness compares the user's skill levels with what the item
// demands. A skill of importance imp on an item of difficulty d requires
// imp * d/5 * MaxSkillPoints points; the ratio is the importance-weighted
// share of requirements met. Items without requirements are fully ready.
func skillReadiness(p *recommend.UserProfile, item *recommend.ItemFeatures, maxPoints float64) float64 {
	var num, den float64
	for skill, imp := range item.SkillRequirements {
		if imp <= 0 {
			continue
		}
		required := imp * (item.Difficulty / recommend.MaxRating) * maxPoints
		met := 1.0
		if required > 0 {
			met = math.Min(1, p.SkillLevels[skill]/required)
		}
		num += imp * met
		den += imp
	}
	if den == 0 {
		return readinessScore(1)
	}
	return readinessScore(num / den)
}

// styleMatch is the suitability-weighted mean of the user's style
// preferences. Items without style data score 0.
func styleMatch(p *recommend.UserProfile, item *recommend.ItemFeatures) float64 {
	var num, den float64
	for style, suit := range item.LearningStyles {
		num += p.LearningStyles[style] * suit
		den += suit
	}
	if den == 0 {
		return 0
	}
	return recommend.Clamp01(num / den)
}

func difficultyMatch(p *recommend.UserProfile, item *recommend.ItemFeatures) float64 {
	return recommend.Clamp01(1 - math.Abs(p.DifficultyPreference-item.Difficulty)/(recommend.MaxRating-recommend.MinRating))
}

// topicMatch averages the user's interest over the item's topics, weighting
// category, tags and concepts by tier. Items without topics score 0.
func topicMatch(p *recommend.UserProfile, item *recommend.ItemFeatures) float64 {
	var num, den float64
	add := func(topic string, tier float64) {
		if topic == "" {
			return
		}
		num += tier * p.TopicInterests[topic]
		den += tier
	}
	add(item.Category, tierCategory)
	for _, t := range item.Tags {
		add(t, tierTag)
	}
	for _, c := range item.Concepts {
		add(c, tierConcept)
	}
	if den == 0 {
		return 0
	}
	return recommend.Clamp01(num / den)
}

func formatMatch(p *recommend.UserProfile, item *recommend.ItemFeatures) float64 {
	if pref, ok := p.FormatPreferences[item.Format]; ok {
		return recommend.Clamp01(pref)
	}
	return neutralFormatPreference
}

func timeMatch(p *recommend.UserProfile, item *recommend.ItemFeatures) float64 {
	scale := math.Max(p.TimePreferenceMinutes, 60)
	return recommend.Clamp01(1 - math.Abs(p.TimePreferenceMinutes-item.EstimatedTimeMinutes)/scale)
}

// scoreItem computes the six factor scores and their weighted sum.
func scoreItem(p *recommend.UserProfile, item *recommend.ItemFeatures, cfg *recommend.ContentConfig) (recommend.FactorScores, float64) {
	f := recommend.FactorScores{
		Skill:      skillReadiness(p, item, cfg.MaxSkillPoints),
		Style:      styleMatch(p, item),
		Difficulty: difficultyMatch(p, item),
		Topic:      topicMatch(p, item),
		Format:     formatMatch(p, item),
		Time:       timeMatch(p, item),
	}
	w := cfg.Weights
	score := w.Skill*f.Skill + w.Style*f.Style + w.Difficulty*f.Difficulty +
		w.Topic*f.Topic + w.Format*f.Format + w.Time*f.Time
	return f, recommend.Clamp01(score)
}

// matchConfidence grows with interaction history, with how many of the
// item's required skills the profile has data for, and with the average
// factor match.
func matchConfidence(p *recommend.UserProfile, item *recommend.ItemFeatures, f recommend.FactorScores) float64 {
	history := math.Min(1, float64(len(p.History))/20)

	completeness := 1.0
	if len(item.SkillRequirements) > 0 {
		known := 0
		for skill := range item.SkillRequirements {
			if _, ok := p.SkillLevels[skill]; ok {
				known++
			}
		}
		completeness = float64(known) / float64(len(item.SkillRequirements))
	}

	return recommend.Clamp01(0.5*history + 0.25*completeness + 0.25*f.Mean())
}
