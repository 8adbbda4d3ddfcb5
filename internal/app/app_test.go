// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/drillwise/internal/config"
	"github.com/tomtom215/drillwise/internal/recommend"
	"github.com/tomtom215/drillwise/internal/recommend/rules"
)

// loadConfig writes yaml plus a store path under a temp dir and loads it.
func loadConfig(t *testing.T, dir, yaml string) *config.Config {
	t.Helper()
	body := "store:\n  path: " + filepath.Join(dir, "state") + "\n  sync_writes: false\n" + yaml
	path := filepath.Join(dir, "drillwise.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	return cfg
}

func newApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, err := New(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a
}

func TestNew_NilConfig(t *testing.T) {
	if _, err := New(context.Background(), nil, zerolog.Nop()); err == nil {
		t.Fatal("New(nil) should fail")
	}
}

func TestNew_CacheBackend(t *testing.T) {
	tests := []struct {
		name       string
		yaml       string
		wantCache  bool
		wantMemory bool
	}{
		{name: "memory", yaml: "recommend:\n  cache_backend: memory\n", wantCache: true, wantMemory: true},
		{name: "none", yaml: "recommend:\n  cache_backend: none\n"},
		{name: "engine cache disabled", yaml: "recommend:\n  cache_backend: memory\n  engine:\n    cache:\n      enabled: false\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newApp(t, loadConfig(t, t.TempDir(), tt.yaml))
			defer a.Close()

			if got := a.Cache != nil; got != tt.wantCache {
				t.Errorf("cache set = %v, want %v", got, tt.wantCache)
			}
			if got := a.MemoryCache() != nil; got != tt.wantMemory {
				t.Errorf("memory cache set = %v, want %v", got, tt.wantMemory)
			}
		})
	}
}

func TestNew_DuckDBSource(t *testing.T) {
	dir := t.TempDir()
	cfg := loadConfig(t, dir, "source:\n  kind: duckdb\n  duckdb_path: "+filepath.Join(dir, "ratings.duckdb")+"\n")

	a := newApp(t, cfg)
	defer a.Close()

	if a.DuckDB == nil {
		t.Fatal("DuckDB source not opened")
	}
	n, err := a.DuckDB.CountRatings(context.Background())
	if err != nil {
		t.Fatalf("CountRatings() error = %v", err)
	}
	if n != 0 {
		t.Errorf("CountRatings() = %d, want 0", n)
	}
}

func TestRestore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := loadConfig(t, dir, "")

	first := newApp(t, cfg)
	for _, r := range []recommend.Rating{
		{UserID: "u1", ItemID: "drill-1", Value: 4},
		{UserID: "u2", ItemID: "drill-1", Value: 5},
	} {
		if err := first.Engine.AddRating(ctx, r); err != nil {
			t.Fatalf("AddRating() error = %v", err)
		}
	}
	item := recommend.ItemFeatures{ItemID: "drill-1", Type: recommend.ItemDrill, Difficulty: 3, EstimatedTimeMinutes: 15}
	if err := first.Engine.RegisterItems(ctx, []recommend.ItemFeatures{item}); err != nil {
		t.Fatalf("RegisterItems() error = %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	second := newApp(t, cfg)
	defer second.Close()

	sum, err := second.Restore(ctx)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if sum.Ratings != 2 {
		t.Errorf("restored ratings = %d, want 2", sum.Ratings)
	}
	if sum.Items != 1 {
		t.Errorf("restored items = %d, want 1", sum.Items)
	}
	if sum.ModelLoaded {
		t.Error("no model was trained, none should be restored")
	}
	if got := second.Collaborative.Stats().Ratings; got != 2 {
		t.Errorf("collaborative ratings = %d, want 2", got)
	}
	if got := second.Content.ItemCount(); got != 1 {
		t.Errorf("content items = %d, want 1", got)
	}
}

func TestApplyRules(t *testing.T) {
	a := newApp(t, loadConfig(t, t.TempDir(), ""))
	defer a.Close()

	err := a.ApplyRules([]rules.Rule{
		{Factor: recommend.FactorMood, Expression: "0.5"},
		{Factor: recommend.FactorDeviceType, Expression: "1.0"},
	})
	if err != nil {
		t.Fatalf("ApplyRules() error = %v", err)
	}
	if len(a.ruleFactors) != 2 {
		t.Fatalf("rule factors = %v, want 2", a.ruleFactors)
	}

	if err := a.ApplyRules([]rules.Rule{{Factor: "weather", Expression: "1.0"}}); err == nil {
		t.Fatal("ApplyRules() with unknown factor should fail")
	}
	if len(a.ruleFactors) != 2 {
		t.Errorf("failed apply changed rule factors: %v", a.ruleFactors)
	}

	if err := a.ApplyRules([]rules.Rule{{Factor: recommend.FactorMood, Expression: "0.25"}}); err != nil {
		t.Fatalf("ApplyRules() error = %v", err)
	}
	if _, ok := a.ruleFactors[recommend.FactorDeviceType]; ok {
		t.Error("dropped rule still tracked")
	}
	if _, ok := a.ruleFactors[recommend.FactorMood]; !ok {
		t.Error("mood rule not tracked")
	}
}

func TestWatchRules_NoPath(t *testing.T) {
	a := newApp(t, loadConfig(t, t.TempDir(), ""))
	defer a.Close()

	if err := a.WatchRules(""); err == nil {
		t.Error("WatchRules(\"\") should fail")
	}
}

func TestClose_Idempotent(t *testing.T) {
	a := newApp(t, loadConfig(t, t.TempDir(), ""))
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestDuckDBSource_RetrainKeepsOnlineRatings(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := loadConfig(t, dir, "source:\n  kind: duckdb\n  duckdb_path: "+filepath.Join(dir, "ratings.duckdb")+"\n")

	a := newApp(t, cfg)
	defer a.Close()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var export []recommend.Rating
	for u := 0; u < 3; u++ {
		for i := 0; i < 4; i++ {
			export = append(export, recommend.Rating{
				UserID:    fmt.Sprintf("u%d", u),
				ItemID:    fmt.Sprintf("drill-%d", i),
				Value:     float64(1 + (u+i)%5),
				Timestamp: base,
			})
		}
	}
	if err := a.DuckDB.InsertRatings(ctx, export); err != nil {
		t.Fatalf("InsertRatings() error = %v", err)
	}
	if err := a.Engine.Train(ctx); err != nil {
		t.Fatalf("first Train() error = %v", err)
	}

	online := recommend.Rating{UserID: "online", ItemID: "open-ranges", Value: 5, Timestamp: base.Add(time.Hour)}
	rerated := recommend.Rating{UserID: "u0", ItemID: "drill-0", Value: 5, Timestamp: base.Add(time.Hour)}
	for _, r := range []recommend.Rating{online, rerated} {
		if err := a.Engine.AddRating(ctx, r); err != nil {
			t.Fatalf("AddRating() error = %v", err)
		}
	}
	if err := a.Engine.Train(ctx); err != nil {
		t.Fatalf("second Train() error = %v", err)
	}

	if got, want := a.Collaborative.Stats().Ratings, len(export)+1; got != want {
		t.Errorf("ratings after retrain = %d, want %d", got, want)
	}
	values := make(map[string]float64)
	for _, r := range a.Collaborative.Snapshot().Ratings {
		values[r.UserID+"/"+r.ItemID] = r.Value
	}
	if _, ok := values["online/open-ranges"]; !ok {
		t.Error("online rating dropped by retrain")
	}
	if got := values["u0/drill-0"]; got != 5 {
		t.Errorf("u0/drill-0 = %v, want the newer online value 5", got)
	}
}

type staticSource []recommend.Rating

func (s staticSource) Ratings(context.Context) ([]recommend.Rating, error) {
	return s, nil
}

func TestMergedSource(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	export := staticSource{
		{UserID: "u1", ItemID: "a", Value: 2, Timestamp: t0},
		{UserID: "u1", ItemID: "b", Value: 4, Timestamp: t0.Add(2 * time.Hour)},
	}
	store := staticSource{
		{UserID: "u1", ItemID: "a", Value: 5, Timestamp: t0.Add(time.Hour)},
		{UserID: "u1", ItemID: "b", Value: 1, Timestamp: t0},
		{UserID: "u2", ItemID: "a", Value: 3, Timestamp: t0},
	}

	got, err := mergedSource{export, store}.Ratings(context.Background())
	if err != nil {
		t.Fatalf("Ratings() error = %v", err)
	}
	want := map[string]float64{"u1/a": 5, "u1/b": 4, "u2/a": 3}
	if len(got) != len(want) {
		t.Fatalf("Ratings() returned %d, want %d: %+v", len(got), len(want), got)
	}
	for _, r := range got {
		if v := want[r.UserID+"/"+r.ItemID]; v != r.Value {
			t.Errorf("%s/%s = %v, want %v", r.UserID, r.ItemID, r.Value, v)
		}
	}
}
