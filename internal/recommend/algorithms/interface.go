// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package algorithms

import (
	"context"
	"hash/fnv"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/drillwise/internal/recommend"
)

// numShards is the number of lock shards for per-key state.
const numShards = 32

// BaseAlgorithm provides common status tracking for the engines.
type BaseAlgorithm struct {
	name          string
	trained       bool
	version       int
	lastTrainedAt time.Time
	mu            sync.RWMutex

	// trainMu serializes training runs. It is separate from mu so that
	// status reads never block behind a long run.
	trainMu sync.Mutex
}

// NewBaseAlgorithm creates a new base algorithm with the given name.
func NewBaseAlgorithm(name string) BaseAlgorithm {
	return BaseAlgorithm{
		name: name,
	}
}

// Name returns the algorithm identifier.
func (b *BaseAlgorithm) Name() string {
	return b.name
}

// IsTrained returns whether the model has been trained.
func (b *BaseAlgorithm) IsTrained() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.trained
}

// Version returns the model version.
func (b *BaseAlgorithm) Version() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}

// LastTrainedAt returns when the model was last trained.
func (b *BaseAlgorithm) LastTrainedAt() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastTrainedAt
}

// markTrained updates the trained state and returns the new version.
func (b *BaseAlgorithm) markTrained(at time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trained = true
	b.version++
	b.lastTrainedAt = at
	return b.version
}

// restoreTrained installs a previously published version.
func (b *BaseAlgorithm) restoreTrained(version int, at time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trained = true
	b.version = version
	b.lastTrainedAt = at
}

// tryAcquireTrainLock acquires the exclusive training lock without blocking.
func (b *BaseAlgorithm) tryAcquireTrainLock() bool {
	return b.trainMu.TryLock()
}

// releaseTrainLock releases the exclusive training lock.
func (b *BaseAlgorithm) releaseTrainLock() {
	b.trainMu.Unlock()
}

// shardFor returns the shard index of a key.
func shardFor(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key)) //nolint:errcheck // hash writes never fail
	return int(h.Sum32() % numShards)
}

// keyLocks is a striped mutex keyed by string.
type keyLocks struct {
	stripes [numShards]sync.Mutex
}

func (k *keyLocks) lock(key string) func() {
	m := &k.stripes[shardFor(key)]
	m.Lock()
	return m.Unlock
}

// cosineSimilarity computes cosine similarity between two vectors.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// excluded reports whether id is in the exclusion set.
func excluded(exclude map[string]struct{}, id string) bool {
	if exclude == nil {
		return false
	}
	_, ok := exclude[id]
	return ok
}

// sortPredictions orders predictions by score descending, ties by item ID.
func sortPredictions(preds []recommend.Prediction) {
	sort.Slice(preds, func(i, j int) bool {
		if preds[i].Score != preds[j].Score {
			return preds[i].Score > preds[j].Score
		}
		return preds[i].ItemID < preds[j].ItemID
	})
}

// Ensure the engines implement the hybrid interfaces.
var (
	_ recommend.CollaborativeEngine = (*Collaborative)(nil)
	_ recommend.ContentEngine       = (*ContentBased)(nil)
)

// ContextCancelled checks if the context has been canceled.
func ContextCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
