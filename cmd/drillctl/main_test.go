// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/drillwise/internal/database"
	"github.com/tomtom215/drillwise/internal/recommend"
)

// setup writes a config with a fresh Badger directory and returns its path.
func setup(t *testing.T, extra string) (dir, configPath string) {
	t.Helper()
	dir = t.TempDir()
	configPath = filepath.Join(dir, "drillwise.yaml")
	body := "store:\n  path: " + filepath.Join(dir, "state") + "\n  sync_writes: false\n" + extra
	if err := os.WriteFile(configPath, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir, configPath
}

func execute(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--config", configPath, "--log-level", "disabled"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeJSON(t *testing.T, dir, name string, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal %s: %v", name, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

var testRatings = []recommend.Rating{
	{UserID: "u1", ItemID: "drill-1", Value: 5},
	{UserID: "u2", ItemID: "drill-1", Value: 4},
	{UserID: "u2", ItemID: "drill-2", Value: 3},
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "/nonexistent/drillwise.yaml", "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.Contains(out, "drillctl "+version) {
		t.Errorf("output = %q", out)
	}
}

func TestImportRatings_ThenTrending(t *testing.T) {
	dir, cfg := setup(t, "")
	file := writeJSON(t, dir, "ratings.json", testRatings)

	out, err := execute(t, cfg, "import", "ratings", "--file", file)
	if err != nil {
		t.Fatalf("import error = %v", err)
	}
	if !strings.Contains(out, "imported 3 ratings") {
		t.Errorf("import output = %q", out)
	}

	out, err = execute(t, cfg, "trending", "--count", "1")
	if err != nil {
		t.Fatalf("trending error = %v", err)
	}
	var items []recommend.TrendingItem
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		t.Fatalf("decode trending %q: %v", out, err)
	}
	if len(items) != 1 || items[0].ItemID != "drill-1" {
		t.Errorf("trending = %+v, want drill-1 first", items)
	}
}

func TestImportRatings_Invalid(t *testing.T) {
	dir, cfg := setup(t, "")
	file := writeJSON(t, dir, "ratings.json", []recommend.Rating{{ItemID: "drill-1", Value: 3}})

	if _, err := execute(t, cfg, "import", "ratings", "--file", file); err == nil {
		t.Fatal("rating without user should fail")
	}
}

func TestImportItems_ThenStats(t *testing.T) {
	dir, cfg := setup(t, "")
	file := writeJSON(t, dir, "items.json", []recommend.ItemFeatures{
		{ItemID: "drill-1", Type: recommend.ItemDrill, Difficulty: 2, EstimatedTimeMinutes: 10},
		{ItemID: "course-1", Type: recommend.ItemCourse, Difficulty: 4, EstimatedTimeMinutes: 90},
	})

	if _, err := execute(t, cfg, "import", "items", "--file", file); err != nil {
		t.Fatalf("import items error = %v", err)
	}

	out, err := execute(t, cfg, "stats")
	if err != nil {
		t.Fatalf("stats error = %v", err)
	}
	var stats struct {
		Items    int               `json:"items"`
		Breakers map[string]string `json:"breakers"`
	}
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("decode stats %q: %v", out, err)
	}
	if stats.Items != 2 {
		t.Errorf("items = %d, want 2", stats.Items)
	}
	if len(stats.Breakers) == 0 {
		t.Error("breaker states missing")
	}
}

func TestRecommend_RequiresUser(t *testing.T) {
	_, cfg := setup(t, "")
	if _, err := execute(t, cfg, "recommend"); err == nil || !strings.Contains(err.Error(), "--user") {
		t.Errorf("error = %v, want --user required", err)
	}
}

func TestTrain_InsufficientData(t *testing.T) {
	_, cfg := setup(t, "")
	_, err := execute(t, cfg, "train")
	if err == nil {
		t.Fatal("training an empty store should fail")
	}
	if !strings.Contains(err.Error(), "insufficient training data") {
		t.Errorf("error = %v", err)
	}
}

func TestExport(t *testing.T) {
	dir, cfg := setup(t, "")
	file := writeJSON(t, dir, "ratings.json", testRatings)
	if _, err := execute(t, cfg, "import", "ratings", "--file", file); err != nil {
		t.Fatalf("import error = %v", err)
	}

	dbPath := filepath.Join(dir, "ratings.duckdb")
	out, err := execute(t, cfg, "export", "--out", dbPath)
	if err != nil {
		t.Fatalf("export error = %v", err)
	}
	if !strings.Contains(out, "exported 3 ratings") {
		t.Errorf("export output = %q", out)
	}

	db, err := database.New(database.Config{Path: dbPath, ReadOnly: true}, zerolog.Nop())
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer db.Close()
	n, err := db.CountRatings(context.Background())
	if err != nil {
		t.Fatalf("CountRatings() error = %v", err)
	}
	if n != 3 {
		t.Errorf("exported rows = %d, want 3", n)
	}
}

func TestBackupRestore(t *testing.T) {
	dir, cfg := setup(t, "")
	file := writeJSON(t, dir, "ratings.json", testRatings)
	if _, err := execute(t, cfg, "import", "ratings", "--file", file); err != nil {
		t.Fatalf("import error = %v", err)
	}

	backupPath := filepath.Join(dir, "state.bak")
	if _, err := execute(t, cfg, "backup", "--out", backupPath); err != nil {
		t.Fatalf("backup error = %v", err)
	}

	// Restore into a second, empty store.
	otherDir, otherCfg := setup(t, "")
	if _, err := execute(t, otherCfg, "restore", "--in", backupPath); err != nil {
		t.Fatalf("restore error = %v", err)
	}

	out, err := execute(t, otherCfg, "trending", "--count", "5")
	if err != nil {
		t.Fatalf("trending error = %v", err)
	}
	var items []recommend.TrendingItem
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		t.Fatalf("decode trending %q: %v", out, err)
	}
	if len(items) != 2 {
		t.Errorf("restored store %s trending = %+v, want 2 items", otherDir, items)
	}
}

func TestPublish_RequiresNATS(t *testing.T) {
	_, cfg := setup(t, "")
	_, err := execute(t, cfg, "publish", "--file", "-")
	if err == nil || !strings.Contains(err.Error(), "nats") {
		t.Errorf("error = %v, want nats transport required", err)
	}
}

func TestGroupByUser(t *testing.T) {
	users, byUser := groupByUser([]recommend.Interaction{
		{UserID: "b", ItemID: "1"},
		{UserID: "a", ItemID: "2"},
		{UserID: "b", ItemID: "3"},
	})
	if strings.Join(users, ",") != "b,a" {
		t.Errorf("users = %v, want [b a]", users)
	}
	if len(byUser["b"]) != 2 || len(byUser["a"]) != 1 {
		t.Errorf("grouping = %v", byUser)
	}
}
