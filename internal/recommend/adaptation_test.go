// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package recommend

import (
	"fmt"
	"sync"
	"testing"
)

func TestPerformanceValue(t *testing.T) {
	tests := []struct {
		name string
		fb   Feedback
		want float64
	}{
		{name: "perfect", fb: Feedback{Satisfaction: sat(5), Engagement: 1}, want: 1},
		{name: "engagement saturates", fb: Feedback{Satisfaction: sat(5), Engagement: 4}, want: 1},
		{name: "missing satisfaction is neutral", fb: Feedback{Engagement: 0}, want: 0.36},
		{name: "lowest", fb: Feedback{Satisfaction: sat(1)}, want: 0.12},
		{name: "negative engagement ignored", fb: Feedback{Satisfaction: sat(5), Engagement: -2}, want: 0.6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := performanceValue(&tt.fb); !approx(got, tt.want) {
				t.Errorf("performanceValue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUserState_Remember(t *testing.T) {
	s := newUserState(DefaultHybridConfig())
	for i := 0; i < 5; i++ {
		s.remember(fmt.Sprintf("item-%d", i), AlgorithmContent, 3)
	}
	s.remember("item-4", AlgorithmCollaborative, 3)

	if len(s.served) != 3 || len(s.servedOrder) != 3 {
		t.Fatalf("served = %d entries, order = %d, want 3", len(s.served), len(s.servedOrder))
	}
	if _, ok := s.served["item-1"]; ok {
		t.Error("oldest entries not forgotten")
	}
	if got, _ := s.attribute(&Feedback{ItemID: "item-4"}); got != AlgorithmCollaborative {
		t.Errorf("attribute(item-4) = %q, want latest bucket", got)
	}
	if got, _ := s.attribute(&Feedback{ItemID: "item-4", Algorithm: AlgorithmContext}); got != AlgorithmContext {
		t.Errorf("explicit algorithm not preferred: %q", got)
	}
	if _, ok := s.attribute(&Feedback{ItemID: "item-0"}); ok {
		t.Error("forgotten item attributed")
	}
}

func TestUserState_MarkFeedback(t *testing.T) {
	s := newUserState(DefaultHybridConfig())
	if s.markFeedback("fb-0") {
		t.Fatal("first sighting reported as duplicate")
	}
	if !s.markFeedback("fb-0") {
		t.Fatal("repeat not reported as duplicate")
	}
	for i := 1; i <= recentFeedbackIDs; i++ {
		s.markFeedback(fmt.Sprintf("fb-%d", i))
	}
	if len(s.feedbackIDs) != recentFeedbackIDs || len(s.feedbackOrder) != recentFeedbackIDs {
		t.Fatalf("ids = %d, order = %d, want %d", len(s.feedbackIDs), len(s.feedbackOrder), recentFeedbackIDs)
	}
	if s.markFeedback("fb-0") {
		t.Error("evicted id still reported as duplicate")
	}
}

func TestUserState_Adapt(t *testing.T) {
	t.Run("shares of total performance", func(t *testing.T) {
		s := newUserState(DefaultHybridConfig())
		s.adapt(AlgorithmCollaborative, 0.8, 20)
		s.adapt(AlgorithmContent, 0.2, 20)

		cfg := s.config
		if cfg.CollaborativeWeight <= cfg.ContentWeight {
			t.Errorf("better bucket not favored: %+v", cfg)
		}
		if sum := cfg.CollaborativeWeight + cfg.ContentWeight + cfg.ContextWeight; !approx(sum, 1) {
			t.Errorf("weights sum = %v", sum)
		}
	})

	t.Run("window bounds history", func(t *testing.T) {
		s := newUserState(DefaultHybridConfig())
		for i := 0; i < 10; i++ {
			s.adapt(AlgorithmContext, 0.5, 4)
		}
		if n := len(s.performance[AlgorithmContext]); n != 4 {
			t.Errorf("window holds %d values, want 4", n)
		}
	})

	t.Run("zero performance is a no-op", func(t *testing.T) {
		s := newUserState(DefaultHybridConfig())
		s.adapt(AlgorithmContent, 0, 20)
		if s.config != DefaultHybridConfig() {
			t.Errorf("config changed: %+v", s.config)
		}
	})

	t.Run("zero rate keeps weights", func(t *testing.T) {
		cfg := DefaultHybridConfig()
		cfg.AdaptationRate = 0
		s := newUserState(cfg)
		s.adapt(AlgorithmContent, 1, 20)
		if !approx(s.config.ContentWeight, 0.4) {
			t.Errorf("ContentWeight = %v, want 0.4", s.config.ContentWeight)
		}
	})
}

func TestUserStates_Concurrent(t *testing.T) {
	u := newUserStates(DefaultHybridConfig())

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				userID := fmt.Sprintf("user-%d", i%5)
				unlock := u.lock(userID)
				u.get(userID).adapt(buckets[w%len(buckets)], 0.7, 20)
				unlock()
				_ = u.config(userID)
			}
		}(w)
	}
	wg.Wait()

	n, avg := u.averages()
	if n != 5 {
		t.Errorf("configured users = %d, want 5", n)
	}
	var sum float64
	for _, w := range avg {
		sum += w
	}
	if !approx(sum, 1) {
		t.Errorf("average weights sum = %v, want 1", sum)
	}
}

func TestUserStates_Reset(t *testing.T) {
	u := newUserStates(DefaultHybridConfig())
	unlock := u.lock("u1")
	u.get("u1").adapt(AlgorithmContent, 1, 20)
	unlock()

	if got := u.reset("u1"); got != DefaultHybridConfig() {
		t.Errorf("reset() = %+v, want defaults", got)
	}
	if len(u.get("u1").performance) != 0 {
		t.Error("performance history survived reset")
	}
}
