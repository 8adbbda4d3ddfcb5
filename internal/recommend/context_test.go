// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package recommend

import (
	"testing"
)

func TestEvaluateContext(t *testing.T) {
	weights := DefaultConfig().Context.ToMap()
	drill := &ItemFeatures{ItemID: "d", Type: ItemDrill, Difficulty: 5, EstimatedTimeMinutes: 40}

	tests := []struct {
		name     string
		sc       SessionContext
		item     *ItemFeatures
		wantScr  float64
		wantMult float64
	}{
		{name: "unknown item is neutral", sc: SessionContext{SessionType: "practice"}, item: nil, wantScr: 0.5, wantMult: 1},
		{name: "empty context is neutral", sc: SessionContext{}, item: drill, wantScr: 0.5, wantMult: 1},
		{name: "practice drill", sc: SessionContext{SessionType: "practice"}, item: drill, wantScr: 1, wantMult: 1.2},
		{name: "tired on hardest item", sc: SessionContext{Mood: "tired"}, item: drill, wantScr: 0.4, wantMult: 0.96},
		{name: "duration shortfall", sc: SessionContext{SessionDurationMinutes: 20}, item: drill, wantScr: 0.5, wantMult: 1},
		{name: "mobile long item", sc: SessionContext{DeviceType: "Mobile"}, item: drill, wantScr: 0.4, wantMult: 1},
		{
			name:     "weighted average",
			sc:       SessionContext{SessionType: "practice", DeviceType: "mobile"},
			item:     drill,
			wantScr:  (0.30*1 + 0.10*0.4) / 0.40,
			wantMult: 1.2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := evaluateContext(&tt.sc, tt.item, DefaultImpacts(), weights)
			if !approx(ev.score, tt.wantScr) {
				t.Errorf("score = %v, want %v", ev.score, tt.wantScr)
			}
			if !approx(ev.multiplier, tt.wantMult) {
				t.Errorf("multiplier = %v, want %v", ev.multiplier, tt.wantMult)
			}
		})
	}
}

func TestEvaluateContext_ImpactsClampedAndIsolated(t *testing.T) {
	weights := DefaultConfig().Context.ToMap()
	item := &ItemFeatures{ItemID: "x", Difficulty: 3}
	impacts := DefaultImpacts()
	impacts[FactorTimeOfDay] = func(*SessionContext, *ItemFeatures) (float64, bool) { return 7, true }
	impacts[FactorMood] = func(*SessionContext, *ItemFeatures) (float64, bool) { panic("bad rule") }

	ev := evaluateContext(&SessionContext{}, item, impacts, weights)
	if !approx(ev.score, 1) {
		t.Errorf("score = %v, want 1 from the clamped impact", ev.score)
	}
	if !approx(ev.multiplier, 1.2) {
		t.Errorf("multiplier = %v, want 1.2", ev.multiplier)
	}
}

func TestSessionTypeImpact(t *testing.T) {
	tests := []struct {
		session string
		item    ItemFeatures
		want    float64
		wantOK  bool
	}{
		{session: "practice", item: ItemFeatures{Type: ItemScenario}, want: 1, wantOK: true},
		{session: "practice", item: ItemFeatures{Type: ItemCourse}, want: 0.5, wantOK: true},
		{session: "study", item: ItemFeatures{Type: ItemCourse}, want: 1, wantOK: true},
		{session: "study", item: ItemFeatures{Type: ItemDrill}, want: 0.5, wantOK: true},
		{session: "review", item: ItemFeatures{Difficulty: 2}, want: 0.9, wantOK: true},
		{session: "review", item: ItemFeatures{Difficulty: 4}, want: 0.5, wantOK: true},
		{session: "challenge", item: ItemFeatures{Difficulty: 5}, want: 1, wantOK: true},
		{session: "challenge", item: ItemFeatures{Difficulty: 1}, want: 0.3, wantOK: true},
		{session: "", item: ItemFeatures{}, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.session+"/"+string(tt.item.Type), func(t *testing.T) {
			got, ok := sessionTypeImpact(&SessionContext{SessionType: tt.session}, &tt.item)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !approx(got, tt.want) {
				t.Errorf("impact = %v, want %v", got, tt.want)
			}
		})
	}
}
