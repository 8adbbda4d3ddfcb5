// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package recommend

import (
	"math"
	"testing"
	"time"
)

func TestClampRating(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 1}, {-3, 1}, {1, 1}, {3.5, 3.5}, {5, 5}, {7, 5},
	}
	for _, tt := range tests {
		if got := ClampRating(tt.in); got != tt.want {
			t.Errorf("ClampRating(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestClamp01(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-0.1, 0}, {0, 0}, {0.4, 0.4}, {1, 1}, {1.2, 1},
	}
	for _, tt := range tests {
		if got := Clamp01(tt.in); got != tt.want {
			t.Errorf("Clamp01(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInteractionKind_Valid(t *testing.T) {
	for _, k := range []InteractionKind{
		InteractionView, InteractionComplete, InteractionLike,
		InteractionDislike, InteractionBookmark, InteractionSkip,
	} {
		if !k.Valid() {
			t.Errorf("%q.Valid() = false", k)
		}
	}
	if InteractionKind("share").Valid() {
		t.Error(`"share".Valid() = true`)
	}
}

func TestHybridConfig_Normalize(t *testing.T) {
	tests := []struct {
		name            string
		cf, cb, ctx     float64
		wantCF, wantCtx float64
	}{
		{name: "already normalized", cf: 0.4, cb: 0.4, ctx: 0.2, wantCF: 0.4, wantCtx: 0.2},
		{name: "scaled", cf: 2, cb: 1, ctx: 1, wantCF: 0.5, wantCtx: 0.25},
		{name: "negative clamped", cf: -1, cb: 1, ctx: 1, wantCF: 0, wantCtx: 0.5},
		{name: "all zero resets", cf: 0, cb: 0, ctx: 0, wantCF: 0.4, wantCtx: 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := HybridConfig{CollaborativeWeight: tt.cf, ContentWeight: tt.cb, ContextWeight: tt.ctx}.Normalize()
			if math.Abs(h.CollaborativeWeight-tt.wantCF) > 1e-9 || math.Abs(h.ContextWeight-tt.wantCtx) > 1e-9 {
				t.Errorf("Normalize() = %+v", h)
			}
			if sum := h.CollaborativeWeight + h.ContentWeight + h.ContextWeight; math.Abs(sum-1) > 1e-9 {
				t.Errorf("weights sum = %v, want 1", sum)
			}
		})
	}
}

func TestHybridConfig_Weight(t *testing.T) {
	h := DefaultHybridConfig()
	if h.Weight(AlgorithmCollaborative) != 0.4 || h.Weight(AlgorithmContent) != 0.4 || h.Weight(AlgorithmContext) != 0.2 {
		t.Errorf("Weight() mismatch for %+v", h)
	}
	if h.Weight("unknown") != 0 {
		t.Error("Weight(unknown) != 0")
	}
}

func TestFactorModel_Predict(t *testing.T) {
	m := &FactorModel{
		Factors:     2,
		GlobalMean:  3,
		UserFactors: map[string][]float64{"u": {1, 1}},
		ItemFactors: map[string][]float64{"high": {2, 2}, "low": {-2, -2}, "mid": {0.25, 0.25}},
		UserBias:    map[string]float64{"u": 0.5},
		ItemBias:    map[string]float64{"mid": -0.5},
	}

	tests := []struct {
		item   string
		want   float64
		wantOK bool
	}{
		{item: "high", want: 5, wantOK: true},
		{item: "low", want: 1, wantOK: true},
		{item: "mid", want: 3.5, wantOK: true},
		{item: "missing", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.item, func(t *testing.T) {
			got, ok := m.Predict("u", tt.item)
			if ok != tt.wantOK {
				t.Fatalf("Predict() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Predict() = %v, want %v", got, tt.want)
			}
		})
	}

	if raw := m.RawPredict("u", "high"); math.Abs(raw-7.5) > 1e-9 {
		t.Errorf("RawPredict() = %v, want unclamped 7.5", raw)
	}

	var nilModel *FactorModel
	if _, ok := nilModel.Predict("u", "high"); ok {
		t.Error("nil model predicted")
	}
}

func TestFactorModel_Clone(t *testing.T) {
	m := &FactorModel{
		UserFactors: map[string][]float64{"u": {1}},
		ItemFactors: map[string][]float64{"i": {1}},
		UserBias:    map[string]float64{"u": 1},
		ItemBias:    map[string]float64{"i": 1},
	}
	c := m.Clone()
	c.UserFactors["u"][0] = 9
	c.UserBias["u"] = 9
	if m.UserFactors["u"][0] != 1 || m.UserBias["u"] != 1 {
		t.Error("Clone() shares state with the original")
	}
}

func TestUserProfile_Clone(t *testing.T) {
	p := &UserProfile{
		UserID:         "u",
		SkillLevels:    map[string]float64{"preflop": 100},
		CompletedItems: map[string]time.Time{"a": time.Unix(0, 0)},
		History:        []Interaction{{ItemID: "a"}},
	}
	c := p.Clone()
	c.SkillLevels["preflop"] = 1
	c.CompletedItems["b"] = time.Unix(1, 0)
	c.History[0].ItemID = "z"

	if p.SkillLevels["preflop"] != 100 || len(p.CompletedItems) != 1 || p.History[0].ItemID != "a" {
		t.Error("Clone() shares state with the original")
	}
	if c.TopicInterests == nil || c.FormatPreferences == nil {
		t.Error("Clone() left nil maps")
	}
}
