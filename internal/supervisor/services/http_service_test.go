// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package services

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

// fakeOpsServer blocks in ListenAndServe until Shutdown is called, unless
// failWith is set.
type fakeOpsServer struct {
	failWith    error
	shutdownErr error

	started   chan struct{}
	stopped   chan struct{}
	serves    atomic.Int32
	shutdowns atomic.Int32
}

func newFakeOpsServer() *fakeOpsServer {
	return &fakeOpsServer{
		started: make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
}

func (f *fakeOpsServer) ListenAndServe() error {
	f.serves.Add(1)
	select {
	case f.started <- struct{}{}:
	default:
	}
	if f.failWith != nil {
		return f.failWith
	}
	<-f.stopped
	return http.ErrServerClosed
}

func (f *fakeOpsServer) Shutdown(context.Context) error {
	if f.shutdowns.Add(1) == 1 {
		close(f.stopped)
	}
	return f.shutdownErr
}

func (f *fakeOpsServer) waitStarted(t *testing.T) {
	t.Helper()
	select {
	case <-f.started:
	case <-time.After(time.Second):
		t.Fatal("ops server never started")
	}
}

var _ suture.Service = (*HTTPServerService)(nil)

func TestNewHTTPServerService(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		want    time.Duration
	}{
		{name: "explicit", timeout: 15 * time.Second, want: 15 * time.Second},
		{name: "zero", timeout: 0, want: 10 * time.Second},
		{name: "negative", timeout: -5 * time.Second, want: 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newFakeOpsServer()
			svc := NewHTTPServerService(srv, tt.timeout)
			if svc.server != srv {
				t.Error("server not assigned")
			}
			if svc.shutdownTimeout != tt.want {
				t.Errorf("shutdownTimeout = %v, want %v", svc.shutdownTimeout, tt.want)
			}
			if svc.String() != "ops-http" {
				t.Errorf("String() = %q, want ops-http", svc.String())
			}
		})
	}
}

func TestHTTPServerService_Serve(t *testing.T) {
	bindErr := errors.New("bind: address already in use")
	drainErr := errors.New("connections still draining")

	tests := []struct {
		name        string
		failWith    error
		shutdownErr error
		cancel      bool
		wantErr     error
	}{
		{name: "cancel shuts down", cancel: true, wantErr: context.Canceled},
		{name: "listen failure", failWith: bindErr, wantErr: bindErr},
		{name: "shutdown failure", cancel: true, shutdownErr: drainErr, wantErr: drainErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newFakeOpsServer()
			srv.failWith = tt.failWith
			srv.shutdownErr = tt.shutdownErr
			svc := NewHTTPServerService(srv, time.Second)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			errCh := make(chan error, 1)
			go func() { errCh <- svc.Serve(ctx) }()

			srv.waitStarted(t)
			if tt.cancel {
				cancel()
			}

			select {
			case err := <-errCh:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Serve() = %v, want %v", err, tt.wantErr)
				}
			case <-time.After(2 * time.Second):
				t.Fatal("Serve did not return")
			}

			if n := srv.serves.Load(); n != 1 {
				t.Errorf("ListenAndServe calls = %d, want 1", n)
			}
			wantShutdowns := int32(0)
			if tt.cancel {
				wantShutdowns = 1
			}
			if n := srv.shutdowns.Load(); n != wantShutdowns {
				t.Errorf("Shutdown calls = %d, want %d", n, wantShutdowns)
			}
		})
	}
}

func TestHTTPServerService_RealServer(t *testing.T) {
	srv := &http.Server{
		Addr:              "127.0.0.1:0",
		Handler:           http.NotFoundHandler(),
		ReadHeaderTimeout: time.Second,
	}
	svc := NewHTTPServerService(srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestHTTPServerService_UnderSupervisor(t *testing.T) {
	srv := newFakeOpsServer()
	sup := suture.New("ops-test", suture.Spec{
		FailureThreshold: 3,
		FailureBackoff:   10 * time.Millisecond,
		Timeout:          2 * time.Second,
	})
	sup.Add(NewHTTPServerService(srv, time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	done := sup.ServeBackground(ctx)

	srv.waitStarted(t)
	cancel()
	<-done

	if srv.shutdowns.Load() < 1 {
		t.Error("Shutdown was not called when the supervisor stopped")
	}
}
