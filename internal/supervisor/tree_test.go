// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/drillwise/internal/logging"
)

// stubService counts Serve calls and fails the first failures of them.
type stubService struct {
	name     string
	failures int32
	starts   atomic.Int32
}

var _ suture.Service = (*stubService)(nil)

func (s *stubService) Serve(ctx context.Context) error {
	n := s.starts.Add(1)
	if n <= s.failures {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *stubService) String() string { return s.name }

func testLogger() *slog.Logger {
	return logging.NewSlogLogger(zerolog.Nop())
}

func waitForStarts(t *testing.T, svc *stubService, want int32) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if svc.starts.Load() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("%s started %d times, want at least %d", svc.name, svc.starts.Load(), want)
}

func TestNewSupervisorTree(t *testing.T) {
	t.Run("applies defaults for zero config", func(t *testing.T) {
		tree, err := NewSupervisorTree(testLogger(), TreeConfig{})
		if err != nil {
			t.Fatalf("NewSupervisorTree() error = %v", err)
		}
		if got := tree.Config(); got != DefaultTreeConfig() {
			t.Errorf("Config() = %+v, want %+v", got, DefaultTreeConfig())
		}
		if tree.Root() == nil {
			t.Error("Root() = nil")
		}
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		cfg := TreeConfig{
			FailureThreshold: 2,
			FailureDecay:     1,
			FailureBackoff:   time.Second,
			ShutdownTimeout:  3 * time.Second,
		}
		tree, err := NewSupervisorTree(testLogger(), cfg)
		if err != nil {
			t.Fatalf("NewSupervisorTree() error = %v", err)
		}
		if got := tree.Config(); got != cfg {
			t.Errorf("Config() = %+v, want %+v", got, cfg)
		}
	})
}

func TestSupervisorTree_StartsEveryLayer(t *testing.T) {
	tree, err := NewSupervisorTree(testLogger(), TreeConfig{ShutdownTimeout: time.Second})
	if err != nil {
		t.Fatalf("NewSupervisorTree() error = %v", err)
	}

	trainer := &stubService{name: "trainer"}
	feed := &stubService{name: "feed"}
	api := &stubService{name: "api"}
	tree.AddTrainingService(trainer)
	tree.AddFeedService(feed)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	for _, svc := range []*stubService{trainer, feed, api} {
		waitForStarts(t, svc, 1)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not shut down")
	}
}

func TestSupervisorTree_RestartsFailingService(t *testing.T) {
	tree, err := NewSupervisorTree(testLogger(), TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("NewSupervisorTree() error = %v", err)
	}

	failing := &stubService{name: "feed", failures: 2}
	stable := &stubService{name: "api"}
	tree.AddFeedService(failing)
	tree.AddAPIService(stable)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	waitForStarts(t, failing, 3)
	if got := stable.starts.Load(); got != 1 {
		t.Errorf("stable service started %d times, want 1", got)
	}

	cancel()
	<-errCh
}

func TestSupervisorTree_RemoveFeedService(t *testing.T) {
	tree, err := NewSupervisorTree(testLogger(), TreeConfig{ShutdownTimeout: time.Second})
	if err != nil {
		t.Fatalf("NewSupervisorTree() error = %v", err)
	}

	feed := &stubService{name: "feed"}
	token := tree.AddFeedService(feed)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	waitForStarts(t, feed, 1)
	if err := tree.RemoveFeedService(token); err != nil {
		t.Errorf("RemoveFeedService() error = %v", err)
	}

	cancel()
	<-errCh
}
