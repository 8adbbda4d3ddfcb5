// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/drillwise/internal/recommend"
)

func TestMemory_ResultCache(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10, time.Minute)

	u1 := recommend.UserCacheKeyPrefix("u1")
	u2 := recommend.UserCacheKeyPrefix("u2")
	resp := &recommend.Response{Items: []recommend.Recommendation{{ItemID: "i1", Score: 0.9}}}

	m.Set(ctx, u1+"10", resp, 0)
	m.Set(ctx, u1+"5", resp, 0)
	m.Set(ctx, u2+"10", resp, 0)

	got, ok := m.Get(ctx, u1+"10")
	if !ok || got.Items[0].ItemID != "i1" {
		t.Fatalf("Get() = %+v, %v", got, ok)
	}

	m.InvalidateUser(ctx, "u1")
	if _, ok := m.Get(ctx, u1+"5"); ok {
		t.Error("InvalidateUser left an entry of u1")
	}
	if _, ok := m.Get(ctx, u2+"10"); !ok {
		t.Error("InvalidateUser removed an entry of u2")
	}

	m.Clear(ctx)
	if m.Len() != 0 {
		t.Errorf("Len() after Clear = %d", m.Len())
	}
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10, time.Minute)
	clock := &testClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	m.lru.SetClock(clock.Now)

	m.Set(ctx, "rec:u1:a", &recommend.Response{}, 5*time.Second)
	m.Set(ctx, "rec:u1:b", &recommend.Response{}, 0)
	clock.Advance(10 * time.Second)

	if n := m.CleanupExpired(); n != 1 {
		t.Errorf("CleanupExpired() = %d, want 1", n)
	}
	if _, ok := m.Get(ctx, "rec:u1:b"); !ok {
		t.Error("expected default-TTL entry to be live")
	}
}
