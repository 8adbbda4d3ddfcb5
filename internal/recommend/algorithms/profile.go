// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package algorithms

import (
	"math"
	"time"

	"github.com/tomtom215/drillwise/internal/recommend"
)

// Topic tiers weight how strongly each kind of topic counts.
const (
	tierCategory = 1.0
	tierTag      = 0.5
	tierConcept  = 0.3
)

// neutralFormatPreference is the preference assumed for unseen formats.
const neutralFormatPreference = 0.5

// newProfile returns the default profile every user starts from.
func newProfile(userID string, cfg *recommend.ContentConfig, now time.Time) *recommend.UserProfile {
	p := &recommend.UserProfile{
		UserID:                userID,
		SkillLevels:           make(map[string]float64, len(cfg.Skills)),
		LearningStyles:        make(map[string]float64, len(cfg.LearningStyles)),
		TopicInterests:        make(map[string]float64),
		DifficultyPreference:  cfg.DefaultDifficulty,
		TimePreferenceMinutes: cfg.DefaultTimeMinutes,
		CompletedItems:        make(map[string]time.Time),
		FormatPreferences:     make(map[string]float64),
		LearningPace:          recommend.PaceMedium,
		UpdatedAt:             now,
	}
	for _, s := range cfg.Skills {
		p.SkillLevels[s] = cfg.DefaultSkillPoints
	}
	resetStyles(p, cfg)
	return p
}

func resetStyles(p *recommend.UserProfile, cfg *recommend.ContentConfig) {
	if len(cfg.LearningStyles) == 0 {
		return
	}
	uniform := 1 / float64(len(cfg.LearningStyles))
	p.LearningStyles = make(map[string]float64, len(cfg.LearningStyles))
	for _, s := range cfg.LearningStyles {
		p.LearningStyles[s] = uniform
	}
}

// paceRate is the profile learning rate for a pace.
func paceRate(pace recommend.LearningPace) float64 {
	switch pace {
	case recommend.PaceSlow:
		return 0.05
	case recommend.PaceFast:
		return 0.2
	default:
		return 0.1
	}
}

// interactionRating is the explicit rating or the scale midpoint.
func interactionRating(in *recommend.Interaction) float64 {
	if in.Rating != nil {
		return recommend.ClampRating(*in.Rating)
	}
	return 3
}

// interactionWeight is the signed strength of an interaction:
//
//	complete  completion * rating/5
//	like      0.8
//	bookmark  0.7
//	view      min(0.5, timeSpent/10)
//	dislike   -0.5
//	skip      -0.3
func interactionWeight(in *recommend.Interaction) float64 {
	switch in.Kind {
	case recommend.InteractionComplete:
		return recommend.Clamp01(in.Completion) * interactionRating(in) / recommend.MaxRating
	case recommend.InteractionLike:
		return 0.8
	case recommend.InteractionBookmark:
		return 0.7
	case recommend.InteractionView:
		return math.Min(0.5, math.Max(0, in.TimeSpent)/10)
	case recommend.InteractionDislike:
		return -0.5
	case recommend.InteractionSkip:
		return -0.3
	default:
		return 0
	}
}

// applyInteraction folds one interaction into the profile. item may be nil
// when the item is not in the catalog; only history is updated then.
func applyInteraction(p *recommend.UserProfile, item *recommend.ItemFeatures, in *recommend.Interaction, cfg *recommend.ContentConfig) {
	p.History = append(p.History, *in)
	if cfg.HistoryLimit > 0 && len(p.History) > cfg.HistoryLimit {
		p.History = append([]recommend.Interaction(nil), p.History[len(p.History)-cfg.HistoryLimit:]...)
	}
	if in.Timestamp.After(p.UpdatedAt) {
		p.UpdatedAt = in.Timestamp
	}
	if item == nil {
		return
	}

	w := interactionWeight(in)
	rate := paceRate(p.LearningPace)

	updateTopics(p, item, rate*w)

	if w > 0 {
		p.DifficultyPreference = recommend.ClampRating(
			p.DifficultyPreference + 2*rate*w*(item.Difficulty-p.DifficultyPreference))
		if item.EstimatedTimeMinutes > 0 {
			p.TimePreferenceMinutes += 2 * rate * w * (item.EstimatedTimeMinutes - p.TimePreferenceMinutes)
		}
	}

	if in.Kind == recommend.InteractionComplete {
		gainSkills(p, item, in, cfg)
		if p.CompletedItems == nil {
			p.CompletedItems = make(map[string]time.Time)
		}
		p.CompletedItems[item.ItemID] = in.Timestamp
	}

	updateStyles(p, item, rate*w, cfg)

	if item.Format != "" {
		pref, ok := p.FormatPreferences[item.Format]
		if !ok {
			pref = neutralFormatPreference
		}
		p.FormatPreferences[item.Format] = recommend.Clamp01(pref + rate*w)
	}
}

func updateTopics(p *recommend.UserProfile, item *recommend.ItemFeatures, delta float64) {
	bump := func(topic string, tier float64) {
		if topic == "" {
			return
		}
		p.TopicInterests[topic] = recommend.Clamp01(p.TopicInterests[topic] + delta*tier)
	}
	bump(item.Category, tierCategory)
	for _, t := range item.Tags {
		bump(t, tierTag)
	}
	for _, c := range item.Concepts {
		bump(c, tierConcept)
	}
}

// gainSkills awards 10 * (difficulty/3) * completion * (rating/3) points,
// split across required skills by importance and capped at MaxSkillPoints.
func gainSkills(p *recommend.UserProfile, item *recommend.ItemFeatures, in *recommend.Interaction, cfg *recommend.ContentConfig) {
	var total float64
	for _, imp := range item.SkillRequirements {
		total += imp
	}
	if total == 0 {
		return
	}

	gain := 10 * (item.Difficulty / 3) * recommend.Clamp01(in.Completion) * (interactionRating(in) / 3)
	for skill, imp := range item.SkillRequirements {
		p.SkillLevels[skill] = math.Min(cfg.MaxSkillPoints, math.Max(0, p.SkillLevels[skill]+gain*imp/total))
	}
}

// updateStyles moves style preferences toward the item's suitabilities and
// renormalizes them to sum to 1.
func updateStyles(p *recommend.UserProfile, item *recommend.ItemFeatures, delta float64, cfg *recommend.ContentConfig) {
	if len(item.LearningStyles) == 0 || delta == 0 {
		return
	}
	for style, suit := range item.LearningStyles {
		p.LearningStyles[style] = math.Max(0, p.LearningStyles[style]+delta*suit)
	}

	var sum float64
	for _, v := range p.LearningStyles {
		sum += v
	}
	if sum == 0 {
		resetStyles(p, cfg)
		return
	}
	for style, v := range p.LearningStyles {
		p.LearningStyles[style] = v / sum
	}
}

// applyPreferences sets explicit user preferences.
//
//nolint:gocritic // hugeParam: Preferences passed by value for immutable semantics
func applyPreferences(p *recommend.UserProfile, prefs recommend.Preferences) {
	if prefs.PreferredDifficulty > 0 {
		p.DifficultyPreference = recommend.ClampRating(prefs.PreferredDifficulty)
	}
	if prefs.AvailableTimeMinutes > 0 {
		p.TimePreferenceMinutes = prefs.AvailableTimeMinutes
	}
	if prefs.LearningPace != "" {
		p.LearningPace = prefs.LearningPace
	}
	for _, area := range prefs.FocusAreas {
		if area != "" {
			p.TopicInterests[area] = 1
		}
	}
}
