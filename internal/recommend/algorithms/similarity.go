// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package algorithms

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/drillwise/internal/recommend"
)

// cell is one stored rating.
type cell struct {
	value    float64
	at       time.Time
	implicit bool
}

type tableShard struct {
	mu   sync.RWMutex
	rows map[string]map[string]cell
}

// ratingTable is a sharded key -> {other key: rating} table. The
// collaborative engine keeps one keyed by user and its transpose keyed by item.
type ratingTable struct {
	shards [numShards]tableShard
}

func newRatingTable() *ratingTable {
	t := &ratingTable{}
	for i := range t.shards {
		t.shards[i].rows = make(map[string]map[string]cell)
	}
	return t
}

// set stores a rating and returns the previous one when it was replaced.
func (t *ratingTable) set(key, other string, c cell) (cell, bool) {
	s := &t.shards[shardFor(key)]
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.rows[key]
	if row == nil {
		row = make(map[string]cell)
		s.rows[key] = row
	}
	old, replaced := row[other]
	row[other] = c
	return old, replaced
}

func (t *ratingTable) get(key, other string) (cell, bool) {
	s := &t.shards[shardFor(key)]
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.rows[key][other]
	return c, ok
}

// row returns a copy of one row.
func (t *ratingTable) row(key string) map[string]cell {
	s := &t.shards[shardFor(key)]
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.rows[key]
	out := make(map[string]cell, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func (t *ratingTable) count(key string) int {
	s := &t.shards[shardFor(key)]
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows[key])
}

// otherKeys returns the sorted keys of one row.
func (t *ratingTable) otherKeys(key string) []string {
	s := &t.shards[shardFor(key)]
	s.mu.RLock()
	keys := make([]string, 0, len(s.rows[key]))
	for k := range s.rows[key] {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// keys returns every row key in sorted order.
func (t *ratingTable) keys() []string {
	var keys []string
	for i := range t.shards {
		s := &t.shards[i]
		s.mu.RLock()
		for k := range s.rows {
			keys = append(keys, k)
		}
		s.mu.RUnlock()
	}
	sort.Strings(keys)
	return keys
}

// vector returns the row as a sorted sparse vector.
func (t *ratingTable) vector(key string) sparseVec {
	return newSparseVec(t.row(key))
}

// sparseVec is a row sorted by key with its mean precomputed. Sorted keys
// make every similarity sum run in the same order regardless of argument
// order, so results are symmetric and reproducible bit for bit.
type sparseVec struct {
	keys []string
	vals []float64
	mean float64
}

func newSparseVec(row map[string]cell) sparseVec {
	v := sparseVec{
		keys: make([]string, 0, len(row)),
		vals: make([]float64, 0, len(row)),
	}
	for k := range row {
		v.keys = append(v.keys, k)
	}
	sort.Strings(v.keys)

	var sum float64
	for _, k := range v.keys {
		val := row[k].value
		v.vals = append(v.vals, val)
		sum += val
	}
	if len(v.vals) > 0 {
		v.mean = sum / float64(len(v.vals))
	}
	return v
}

// adjustedCosine computes the mean-centered cosine similarity over the
// entries both vectors share. Each side is centered on its own mean.
// Returns zero similarity when fewer than minCommon entries are shared or
// either centered norm is zero.
func adjustedCosine(a, b sparseVec, minCommon, saturation int) (sim, confidence float64, common int) {
	var dot, normA, normB float64
	i, j := 0, 0
	for i < len(a.keys) && j < len(b.keys) {
		switch {
		case a.keys[i] < b.keys[j]:
			i++
		case a.keys[i] > b.keys[j]:
			j++
		default:
			da := a.vals[i] - a.mean
			db := b.vals[j] - b.mean
			dot += da * db
			normA += da * da
			normB += db * db
			common++
			i++
			j++
		}
	}

	if common < minCommon {
		return 0, 0, common
	}
	if saturation <= 0 {
		saturation = 1
	}
	confidence = math.Min(1, float64(common)/float64(saturation))

	if normA == 0 || normB == 0 {
		return 0, confidence, common
	}
	sim = dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(-1, math.Min(1, sim)), confidence, common
}

// computeNeighbors returns the full sorted neighbor list of key. Candidates
// are every key sharing at least one entry with it, found through the
// transposed table. Callers truncate to MaxNeighbors.
func computeNeighbors(key string, transposed *ratingTable, lookup func(string) sparseVec, cfg *recommend.CollaborativeConfig) []recommend.Neighbor {
	own := lookup(key)
	if len(own.keys) == 0 {
		return nil
	}

	candidates := make(map[string]struct{})
	for _, other := range own.keys {
		for _, k := range transposed.otherKeys(other) {
			if k != key {
				candidates[k] = struct{}{}
			}
		}
	}

	neighbors := make([]recommend.Neighbor, 0, len(candidates))
	for k := range candidates {
		sim, conf, common := adjustedCosine(own, lookup(k), cfg.MinCommon, cfg.ConfidenceSaturation)
		if common < cfg.MinCommon {
			continue
		}
		neighbors = append(neighbors, recommend.Neighbor{ID: k, Similarity: sim, Confidence: conf})
	}

	sortNeighbors(neighbors)
	return neighbors
}

// sortNeighbors orders by similarity descending, ties by ID.
func sortNeighbors(neighbors []recommend.Neighbor) {
	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].Similarity != neighbors[j].Similarity {
			return neighbors[i].Similarity > neighbors[j].Similarity
		}
		return neighbors[i].ID < neighbors[j].ID
	})
}

type neighborShard struct {
	mu    sync.RWMutex
	lists map[string][]recommend.Neighbor
}

// neighborIndex stores per-key sorted neighbor lists.
type neighborIndex struct {
	shards [numShards]neighborShard
	max    int
}

func newNeighborIndex(maxNeighbors int) *neighborIndex {
	n := &neighborIndex{max: maxNeighbors}
	for i := range n.shards {
		n.shards[i].lists = make(map[string][]recommend.Neighbor)
	}
	return n
}

// get returns a copy of the neighbor list of key.
func (n *neighborIndex) get(key string) []recommend.Neighbor {
	s := &n.shards[shardFor(key)]
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]recommend.Neighbor(nil), s.lists[key]...)
}

func (n *neighborIndex) set(key string, list []recommend.Neighbor) {
	s := &n.shards[shardFor(key)]
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(list) == 0 {
		delete(s.lists, key)
		return
	}
	s.lists[key] = list
}

// upsert replaces the entry for nb.ID in key's list, keeping it sorted and
// truncated.
func (n *neighborIndex) upsert(key string, nb recommend.Neighbor) {
	s := &n.shards[shardFor(key)]
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.lists[key]
	out := make([]recommend.Neighbor, 0, len(list)+1)
	for _, existing := range list {
		if existing.ID != nb.ID {
			out = append(out, existing)
		}
	}
	out = append(out, nb)
	sortNeighbors(out)
	if len(out) > n.max {
		out = out[:n.max]
	}
	s.lists[key] = out
}

// similarity returns the stored similarity of other in key's list.
func (n *neighborIndex) similarity(key, other string) (recommend.Neighbor, bool) {
	s := &n.shards[shardFor(key)]
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, nb := range s.lists[key] {
		if nb.ID == other {
			return nb, true
		}
	}
	return recommend.Neighbor{}, false
}
