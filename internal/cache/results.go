// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package cache

import (
	"context"
	"time"

	"github.com/tomtom215/drillwise/internal/metrics"
	"github.com/tomtom215/drillwise/internal/recommend"
)

// Memory is an in-process recommendation result cache backed by LRU.
type Memory struct {
	lru *LRU[*recommend.Response]
}

// NewMemory creates an in-process result cache.
func NewMemory(maxEntries int, ttl time.Duration) *Memory {
	lru := NewLRU[*recommend.Response](maxEntries, ttl)
	lru.onEvict = func() { metrics.CacheEvictions.WithLabelValues("memory").Inc() }
	return &Memory{lru: lru}
}

// Get returns the cached response for key.
func (m *Memory) Get(_ context.Context, key string) (*recommend.Response, bool) {
	return m.lru.Get(key)
}

// Set caches resp under key.
func (m *Memory) Set(_ context.Context, key string, resp *recommend.Response, ttl time.Duration) {
	m.lru.Set(key, resp, ttl)
	m.updateSize()
}

// InvalidateUser drops every cached response of userID.
func (m *Memory) InvalidateUser(_ context.Context, userID string) {
	m.lru.RemovePrefix(recommend.UserCacheKeyPrefix(userID))
	m.updateSize()
}

// Clear drops every cached response.
func (m *Memory) Clear(_ context.Context) {
	m.lru.Clear()
	m.updateSize()
}

// Len returns the number of cached responses.
func (m *Memory) Len() int {
	return m.lru.Len()
}

// CleanupExpired removes expired responses. The server runs it periodically.
func (m *Memory) CleanupExpired() int {
	n := m.lru.CleanupExpired()
	m.updateSize()
	return n
}

func (m *Memory) updateSize() {
	metrics.CacheSize.WithLabelValues("memory").Set(float64(m.lru.Len()))
}

var _ recommend.ResultCache = (*Memory)(nil)
