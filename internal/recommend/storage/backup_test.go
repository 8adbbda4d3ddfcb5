// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/tomtom215/drillwise/internal/recommend"
)

func TestBadgerStore_BackupRestore(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t)

	for _, r := range []recommend.Rating{
		{UserID: "u1", ItemID: "i1", Value: 4},
		{UserID: "u2", ItemID: "i1", Value: 2},
	} {
		if err := src.SaveRating(ctx, r); err != nil {
			t.Fatalf("SaveRating() error = %v", err)
		}
	}
	if err := src.SaveHybridConfig(ctx, "u1", recommend.DefaultHybridConfig()); err != nil {
		t.Fatalf("SaveHybridConfig() error = %v", err)
	}

	var buf bytes.Buffer
	info, err := src.Backup(ctx, &buf)
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}
	if info.Bytes != int64(buf.Len()) {
		t.Errorf("Bytes = %d, want %d", info.Bytes, buf.Len())
	}
	sum := sha256.Sum256(buf.Bytes())
	if info.Checksum != hex.EncodeToString(sum[:]) {
		t.Errorf("Checksum = %s, want sha256 of stream", info.Checksum)
	}

	dst := newTestStore(t)
	if err := dst.Restore(ctx, bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	ratings, err := dst.Ratings(ctx)
	if err != nil {
		t.Fatalf("Ratings() error = %v", err)
	}
	if len(ratings) != 2 {
		t.Errorf("restored ratings = %d, want 2", len(ratings))
	}
	configs, err := dst.HybridConfigs(ctx)
	if err != nil {
		t.Fatalf("HybridConfigs() error = %v", err)
	}
	if _, ok := configs["u1"]; !ok {
		t.Error("hybrid config not restored")
	}
}

func TestBadgerStore_RestoreRejectsGarbage(t *testing.T) {
	s := newTestStore(t)
	if err := s.Restore(context.Background(), strings.NewReader("not a backup")); err == nil {
		t.Error("Restore() expected error for non-gzip input")
	}
}

func TestBadgerStore_BackupCanceled(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	if _, err := s.Backup(ctx, &buf); err == nil {
		t.Error("Backup() expected error on canceled context")
	}
}
