// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package services

import (
	"context"
	"fmt"
	"time"
)

// FeedRunner matches the eventprocessor.Consumer lifecycle.
type FeedRunner interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context)
	IsRunning() bool
}

// FeedService adapts the feed consumer's Start/Shutdown lifecycle to
// suture's Serve:
//  1. Start(ctx) subscribes to every feed topic
//  2. Serve blocks until ctx is canceled
//  3. Shutdown drains in-flight messages with a fresh context
//
// A Start failure is returned so suture restarts the service with backoff.
type FeedService struct {
	consumer        FeedRunner
	shutdownTimeout time.Duration
	name            string
}

// NewFeedService wraps consumer. A non-positive shutdownTimeout defaults to
// 30 seconds.
func NewFeedService(consumer FeedRunner, shutdownTimeout time.Duration) *FeedService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	return &FeedService{
		consumer:        consumer,
		shutdownTimeout: shutdownTimeout,
		name:            "feed-consumer",
	}
}

// Serve implements suture.Service.
func (s *FeedService) Serve(ctx context.Context) error {
	if err := s.consumer.Start(ctx); err != nil {
		return fmt.Errorf("feed consumer start failed: %w", err)
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	s.consumer.Shutdown(shutdownCtx)

	return ctx.Err()
}

// String implements fmt.Stringer.
func (s *FeedService) String() string {
	return s.name
}
