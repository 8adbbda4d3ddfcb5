// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

/*
Package cache provides the recommendation result caches.

Two implementations of recommend.ResultCache are available:

  - Memory: an in-process LRU with per-entry TTL, for single-replica
    deployments
  - Redis: a shared cache for several replicas, values encoded as JSON
    under a configurable key namespace

Both invalidate a user's entries by key prefix (recommend.UserCacheKeyPrefix),
which the engine calls whenever feedback changes that user's state.

# LRU

LRU[V] is the generic building block behind Memory:

	c := cache.NewLRU[*recommend.Response](10000, 10*time.Minute)
	c.Set(key, resp, 0) // 0 uses the default TTL
	if resp, ok := c.Get(key); ok {
	    // ...
	}

Get, Set and eviction are O(1). Expired entries are dropped lazily on Get
and in bulk by CleanupExpired.

# Redis

Redis errors never fail a request. A failed read is a miss and a failed
write is logged and dropped. Invalidation walks keys with SCAN and deletes
them in batches; user IDs are glob-escaped so they match literally.

# Metrics

Hits and misses are recorded by the engine. The caches report their size
and evictions through the drillwise_cache_* metrics, labelled "memory" or
"redis".
*/
package cache
