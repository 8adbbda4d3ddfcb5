// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package algorithms

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/drillwise/internal/recommend"
	"github.com/tomtom215/drillwise/internal/validation"
)

func ptr(v float64) *float64 { return &v }

func newTestContent(t *testing.T, items ...recommend.ItemFeatures) *ContentBased {
	t.Helper()
	c := NewContentBased(recommend.DefaultContentConfig(), zerolog.Nop())
	c.SetClock(func() time.Time { return baseTime })
	if len(items) > 0 {
		if err := c.RegisterItems(context.Background(), items); err != nil {
			t.Fatalf("RegisterItems() error = %v", err)
		}
	}
	return c
}

// advancedPreflop demands a lot of preflop skill.
func advancedPreflop() recommend.ItemFeatures {
	return recommend.ItemFeatures{
		ItemID:               "preflop-advanced",
		Type:                 recommend.ItemScenario,
		Category:             "strategy",
		Difficulty:           5,
		SkillRequirements:    map[string]float64{"preflop": 1},
		LearningStyles:       map[string]float64{"kinesthetic": 1},
		EstimatedTimeMinutes: 90,
		Format:               "simulation",
	}
}

func TestContentBased_RegisterItems(t *testing.T) {
	c := newTestContent(t)
	ctx := context.Background()

	valid := advancedPreflop()
	invalid := recommend.ItemFeatures{ItemID: "bad", Difficulty: 7, SkillRequirements: map[string]float64{"preflop": 1.5}}

	err := c.RegisterItems(ctx, []recommend.ItemFeatures{valid, invalid})
	if !errors.Is(err, recommend.ErrInvalidItem) {
		t.Fatalf("RegisterItems() error = %v, want ErrInvalidItem", err)
	}
	var verr *validation.RequestValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error %v does not carry a RequestValidationError", err)
	}
	if len(verr.Errors()) != 2 {
		t.Errorf("got %d field errors, want 2: %v", len(verr.Errors()), verr)
	}
	if c.ItemCount() != 0 {
		t.Errorf("ItemCount() = %d, want 0 after a rejected batch", c.ItemCount())
	}

	if err := c.RegisterItems(ctx, []recommend.ItemFeatures{valid}); err != nil {
		t.Fatalf("RegisterItems() error = %v", err)
	}
	item, ok := c.Item(valid.ItemID)
	if !ok {
		t.Fatal("registered item not found")
	}

	cfg := recommend.DefaultContentConfig()
	want := 2 + len(cfg.Skills) + len(cfg.LearningStyles) + len(cfg.Categories) + len(cfg.Formats)
	if len(item.Vector) != want {
		t.Fatalf("vector length = %d, want %d", len(item.Vector), want)
	}
	if item.Vector[0] != 1 || item.Vector[1] != 0.75 {
		t.Errorf("difficulty/time features = %v/%v, want 1/0.75", item.Vector[0], item.Vector[1])
	}
	if item.Vector[2] != 1 {
		t.Errorf("preflop importance feature = %v, want 1", item.Vector[2])
	}
	// One-hot category "strategy" is the first category slot.
	catStart := 2 + len(cfg.Skills) + len(cfg.LearningStyles)
	if item.Vector[catStart] != 1 || item.Vector[catStart+1] != 0 {
		t.Errorf("category one-hot = %v", item.Vector[catStart:catStart+len(cfg.Categories)])
	}
}

func TestContentBased_SkillReadinessScenario(t *testing.T) {
	c := newTestContent(t, advancedPreflop())

	tests := []struct {
		name        string
		preflop     float64
		wantPresent bool
	}{
		{name: "novice is not ready", preflop: 200, wantPresent: false},
		{name: "expert is ready", preflop: 1800, wantPresent: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID := tt.name
			c.withProfile(userID, func(p *recommend.UserProfile) {
				p.SkillLevels["preflop"] = tt.preflop
			})

			matches, err := c.Recommend(context.Background(), userID, nil, 10)
			if err != nil {
				t.Fatalf("Recommend() error = %v", err)
			}
			present := len(matches) == 1 && matches[0].ItemID == "preflop-advanced"
			if present != tt.wantPresent {
				t.Errorf("item present = %v, want %v (matches %+v)", present, tt.wantPresent, matches)
			}
		})
	}

	novice, _ := c.Profile("novice is not ready")
	item, _ := c.Item("preflop-advanced")
	f, score := scoreItem(&novice, &item, &c.config)
	if f.Skill != 0.2 {
		t.Errorf("novice readiness = %v, want 0.2", f.Skill)
	}
	if math.Abs(score-0.245) > 1e-9 {
		t.Errorf("novice score = %v, want 0.245", score)
	}
}

func TestContentBased_PerfectDifficultyAndTime(t *testing.T) {
	item := recommend.ItemFeatures{
		ItemID:               "drill",
		Type:                 recommend.ItemDrill,
		Difficulty:           3,
		EstimatedTimeMinutes: 30,
	}
	c := newTestContent(t, item)

	matches, err := c.Recommend(context.Background(), "fresh", nil, 5)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	f := matches[0].Factors
	if f.Difficulty != 1 || f.Time != 1 {
		t.Errorf("difficulty/time factors = %v/%v, want 1/1", f.Difficulty, f.Time)
	}
	if f.Skill != 0.9 {
		t.Errorf("readiness without requirements = %v, want 0.9", f.Skill)
	}
	if c.ProfileCount() != 0 {
		t.Error("Recommend must not create profiles")
	}
}

func TestInteractionWeight(t *testing.T) {
	tests := []struct {
		name string
		in   recommend.Interaction
		want float64
	}{
		{name: "complete with rating", in: recommend.Interaction{Kind: recommend.InteractionComplete, Completion: 1, Rating: ptr(5)}, want: 1},
		{name: "half complete without rating", in: recommend.Interaction{Kind: recommend.InteractionComplete, Completion: 0.5}, want: 0.3},
		{name: "like", in: recommend.Interaction{Kind: recommend.InteractionLike}, want: 0.8},
		{name: "bookmark", in: recommend.Interaction{Kind: recommend.InteractionBookmark}, want: 0.7},
		{name: "short view", in: recommend.Interaction{Kind: recommend.InteractionView, TimeSpent: 2}, want: 0.2},
		{name: "long view saturates", in: recommend.Interaction{Kind: recommend.InteractionView, TimeSpent: 60}, want: 0.5},
		{name: "dislike", in: recommend.Interaction{Kind: recommend.InteractionDislike}, want: -0.5},
		{name: "skip", in: recommend.Interaction{Kind: recommend.InteractionSkip}, want: -0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := interactionWeight(&tt.in); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("interactionWeight() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContentBased_UpdateProfile(t *testing.T) {
	item := recommend.ItemFeatures{
		ItemID:               "math-1",
		Category:             "mathematics",
		Tags:                 []string{"odds"},
		Difficulty:           3,
		SkillRequirements:    map[string]float64{"mathematics": 0.6, "preflop": 0.2},
		LearningStyles:       map[string]float64{"visual": 1},
		EstimatedTimeMinutes: 20,
		Format:               "quiz",
	}
	c := newTestContent(t, item)
	ctx := context.Background()

	err := c.UpdateProfile(ctx, "u1", []recommend.Interaction{
		{ItemID: "math-1", Kind: recommend.InteractionComplete, Completion: 1, Rating: ptr(3)},
	})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}

	p, ok := c.Profile("u1")
	if !ok {
		t.Fatal("profile not created")
	}
	// Gain 10 * 1 * 1 * 1 split 3:1.
	if got := p.SkillLevels["mathematics"]; math.Abs(got-1007.5) > 1e-9 {
		t.Errorf("mathematics = %v, want 1007.5", got)
	}
	if got := p.SkillLevels["preflop"]; math.Abs(got-1002.5) > 1e-9 {
		t.Errorf("preflop = %v, want 1002.5", got)
	}
	if _, done := p.CompletedItems["math-1"]; !done {
		t.Error("completed item not recorded")
	}
	if p.TopicInterests["mathematics"] <= p.TopicInterests["odds"] || p.TopicInterests["odds"] <= 0 {
		t.Errorf("topic interests = %v, want category above tag above zero", p.TopicInterests)
	}
	if p.TimePreferenceMinutes >= 30 {
		t.Errorf("time preference = %v, want it to move toward 20", p.TimePreferenceMinutes)
	}
	if p.LearningStyles["visual"] <= 0.25 {
		t.Errorf("visual preference = %v, want above uniform", p.LearningStyles["visual"])
	}

	matches, err := c.Recommend(ctx, "u1", nil, 10)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("completed item recommended again: %+v", matches)
	}
}

func TestContentBased_ProfileInvariants(t *testing.T) {
	items := []recommend.ItemFeatures{
		{ItemID: "a", Category: "psychology", Tags: []string{"tilt"}, Difficulty: 2, LearningStyles: map[string]float64{"visual": 0.9, "reading": 0.3}, Format: "video"},
		{ItemID: "b", Category: "bankroll", Difficulty: 4, LearningStyles: map[string]float64{"auditory": 1}, Format: "article"},
	}
	c := newTestContent(t, items...)
	c.config.HistoryLimit = 25

	kinds := []recommend.InteractionKind{
		recommend.InteractionLike, recommend.InteractionDislike, recommend.InteractionSkip,
		recommend.InteractionBookmark, recommend.InteractionView,
	}
	var batch []recommend.Interaction
	for i := 0; i < 200; i++ {
		batch = append(batch, recommend.Interaction{
			ItemID:    items[i%2].ItemID,
			Kind:      kinds[i%len(kinds)],
			TimeSpent: float64(i % 12),
		})
	}
	if err := c.UpdateProfile(context.Background(), "u", batch); err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}

	p, _ := c.Profile("u")
	var sum float64
	for _, v := range p.LearningStyles {
		if v < 0 {
			t.Errorf("negative style preference %v", v)
		}
		sum += v
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("style preferences sum to %v, want 1", sum)
	}
	for topic, v := range p.TopicInterests {
		if v < 0 || v > 1 {
			t.Errorf("interest %s = %v out of [0, 1]", topic, v)
		}
	}
	for format, v := range p.FormatPreferences {
		if v < 0 || v > 1 {
			t.Errorf("format %s = %v out of [0, 1]", format, v)
		}
	}
	if p.DifficultyPreference < 1 || p.DifficultyPreference > 5 {
		t.Errorf("difficulty preference %v out of range", p.DifficultyPreference)
	}
	if len(p.History) != 25 {
		t.Errorf("history length = %d, want 25", len(p.History))
	}
}

func TestContentBased_SetPreferences(t *testing.T) {
	c := newTestContent(t)
	ctx := context.Background()

	err := c.SetPreferences(ctx, "u", recommend.Preferences{
		PreferredDifficulty:  4,
		AvailableTimeMinutes: 15,
		FocusAreas:           []string{"tournament"},
		LearningPace:         recommend.PaceFast,
	})
	if err != nil {
		t.Fatalf("SetPreferences() error = %v", err)
	}

	p, _ := c.Profile("u")
	if p.DifficultyPreference != 4 || p.TimePreferenceMinutes != 15 {
		t.Errorf("difficulty/time = %v/%v, want 4/15", p.DifficultyPreference, p.TimePreferenceMinutes)
	}
	if p.TopicInterests["tournament"] != 1 {
		t.Errorf("focus area interest = %v, want 1", p.TopicInterests["tournament"])
	}
	if p.LearningPace != recommend.PaceFast {
		t.Errorf("pace = %q, want fast", p.LearningPace)
	}

	if err := c.SetPreferences(ctx, "u", recommend.Preferences{PreferredDifficulty: 9}); err == nil {
		t.Error("SetPreferences() accepted difficulty 9")
	}
	if err := c.SetPreferences(ctx, "", recommend.Preferences{}); !errors.Is(err, recommend.ErrEmptyUserID) {
		t.Errorf("SetPreferences(\"\") error = %v, want ErrEmptyUserID", err)
	}
}

func TestContentBased_RestoreProfiles(t *testing.T) {
	c := newTestContent(t)
	c.RestoreProfiles([]recommend.UserProfile{{UserID: "r", SkillLevels: map[string]float64{"preflop": 10}}})

	p, ok := c.Profile("r")
	if !ok {
		t.Fatal("restored profile missing")
	}
	if p.SkillLevels["preflop"] != 10 {
		t.Errorf("preflop = %v, want 10", p.SkillLevels["preflop"])
	}
	if p.DifficultyPreference != 3 || len(p.LearningStyles) == 0 {
		t.Errorf("missing defaults not filled: %+v", p)
	}
}

func TestContentBased_Recommend_SkipsItemThatPanics(t *testing.T) {
	items := []recommend.ItemFeatures{
		{ItemID: "broken", Category: "strategy", Difficulty: 2},
		{ItemID: "ranges", Category: "strategy", Difficulty: 2},
		{ItemID: "pot-odds", Category: "math", Difficulty: 2},
	}
	c := newTestContent(t, items...)
	c.config.MinScore = 0
	c.score = func(p *recommend.UserProfile, item *recommend.ItemFeatures, cfg *recommend.ContentConfig) (recommend.FactorScores, float64) {
		if item.ItemID == "broken" {
			panic("corrupt feature vector")
		}
		return scoreItem(p, item, cfg)
	}

	matches, err := c.Recommend(context.Background(), "u1", nil, 10)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	got := make(map[string]bool, len(matches))
	for _, m := range matches {
		got[m.ItemID] = true
	}
	if got["broken"] {
		t.Errorf("panicking item returned in %+v", matches)
	}
	for _, id := range []string{"ranges", "pot-odds"} {
		if !got[id] {
			t.Errorf("item %q missing from %+v", id, matches)
		}
	}

	if _, err := c.match(&recommend.UserProfile{UserID: "u1"}, &items[0], nil); err == nil {
		t.Error("match() error = nil, want recovered panic")
	}
}
