// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package cache

import (
	"strings"
	"sync"
	"time"
)

// lruEntry is a node of the recency list.
type lruEntry[V any] struct {
	key       string
	value     V
	prev      *lruEntry[V]
	next      *lruEntry[V]
	expiresAt time.Time
}

// LRU is a thread-safe least recently used cache with per-entry TTL.
//
// Get, Set and eviction are O(1): a doubly-linked list keeps recency order and
// a map indexes the nodes. Expired entries are removed lazily on access and
// in bulk by CleanupExpired.
type LRU[V any] struct {
	mu sync.Mutex

	capacity   int
	defaultTTL time.Duration

	items map[string]*lruEntry[V]

	// head.next is the most recently used, tail.prev the least.
	head *lruEntry[V]
	tail *lruEntry[V]

	hits      int64
	misses    int64
	evictions int64

	// onEvict is called (under the lock) for every capacity or TTL eviction.
	onEvict func()

	now func() time.Time
}

// NewLRU creates an LRU cache holding at most capacity entries.
// Entries set with a non-positive TTL use defaultTTL.
func NewLRU[V any](capacity int, defaultTTL time.Duration) *LRU[V] {
	if capacity <= 0 {
		capacity = 10000
	}
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}

	c := &LRU[V]{
		capacity:   capacity,
		defaultTTL: defaultTTL,
		items:      make(map[string]*lruEntry[V], capacity),
		head:       &lruEntry[V]{},
		tail:       &lruEntry[V]{},
		now:        time.Now,
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// SetClock replaces the time source. Used by tests.
func (c *LRU[V]) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// Get returns the value stored under key. Found entries become the most
// recently used.
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	entry, ok := c.items[key]
	if !ok {
		c.misses++
		return zero, false
	}
	if c.now().After(entry.expiresAt) {
		c.evict(entry)
		c.misses++
		return zero, false
	}

	c.moveToFront(entry)
	c.hits++
	return entry.value, true
}

// Set stores value under key for ttl, evicting the least recently used
// entry when the cache is full.
func (c *LRU[V]) Set(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(ttl)
	if entry, ok := c.items[key]; ok {
		entry.value = value
		entry.expiresAt = expiresAt
		c.moveToFront(entry)
		return
	}

	entry := &lruEntry[V]{key: key, value: value, expiresAt: expiresAt}
	c.addToFront(entry)
	c.items[key] = entry

	for len(c.items) > c.capacity {
		c.evict(c.tail.prev)
	}
}

// Remove deletes key. Returns true when the key was present.
func (c *LRU[V]) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.items[key]; ok {
		c.removeEntry(entry)
		return true
	}
	return false
}

// RemovePrefix deletes every key starting with prefix and returns the count.
func (c *LRU[V]) RemovePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.items {
		if strings.HasPrefix(key, prefix) {
			c.removeEntry(entry)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries, including expired ones not yet removed.
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Clear removes all entries.
func (c *LRU[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*lruEntry[V], c.capacity)
	c.head.next = c.tail
	c.tail.prev = c.head
}

// CleanupExpired removes all expired entries and returns the count.
func (c *LRU[V]) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for entry := c.tail.prev; entry != c.head; {
		prev := entry.prev
		if now.After(entry.expiresAt) {
			c.evict(entry)
			removed++
		}
		entry = prev
	}
	return removed
}

// Stats returns hit, miss and eviction counters and the current size.
func (c *LRU[V]) Stats() (hits, misses, evictions int64, size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses, c.evictions, len(c.items)
}

// Internal methods (must be called with lock held)

func (c *LRU[V]) addToFront(entry *lruEntry[V]) {
	entry.prev = c.head
	entry.next = c.head.next
	c.head.next.prev = entry
	c.head.next = entry
}

func (c *LRU[V]) moveToFront(entry *lruEntry[V]) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	c.addToFront(entry)
}

func (c *LRU[V]) removeEntry(entry *lruEntry[V]) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	delete(c.items, entry.key)
}

func (c *LRU[V]) evict(entry *lruEntry[V]) {
	if entry == c.head || entry == c.tail {
		return
	}
	c.removeEntry(entry)
	c.evictions++
	if c.onEvict != nil {
		c.onEvict()
	}
}
