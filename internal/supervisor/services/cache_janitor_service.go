// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// ExpiringCache is satisfied by *cache.Memory.
type ExpiringCache interface {
	CleanupExpired() int
}

// CacheJanitorService periodically drops expired result cache entries so
// idle users do not pin memory until they are evicted by LRU pressure.
type CacheJanitorService struct {
	cache    ExpiringCache
	interval time.Duration
	logger   zerolog.Logger
}

// NewCacheJanitorService creates a janitor. A non-positive interval defaults
// to 5 minutes.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCacheJanitorService(c ExpiringCache, interval time.Duration, logger zerolog.Logger) *CacheJanitorService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &CacheJanitorService{
		cache:    c,
		interval: interval,
		logger:   logger.With().Str("service", "cache-janitor").Logger(),
	}
}

// Serve implements suture.Service.
func (s *CacheJanitorService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := s.cache.CleanupExpired(); n > 0 {
				s.logger.Debug().Int("removed", n).Msg("Expired cache entries removed")
			}
		}
	}
}

// String implements fmt.Stringer.
func (s *CacheJanitorService) String() string {
	return "cache-janitor"
}
