// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package recommend

import (
	"hash/fnv"
	"math"
	"sync"
)

const userShards = 32

// neutralSatisfaction stands in for a missing satisfaction score.
const neutralSatisfaction = 3.0

var buckets = []string{AlgorithmCollaborative, AlgorithmContent, AlgorithmContext}

func shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % userShards)
}

// userState is the adaptive state of one user.
type userState struct {
	config HybridConfig

	// performance holds the recent performance values per bucket.
	performance map[string][]float64

	// served maps recently served item IDs to their dominant bucket.
	served      map[string]string
	servedOrder []string

	// feedbackIDs holds the most recent feedback IDs applied for the user.
	feedbackIDs   map[string]struct{}
	feedbackOrder []string
}

// recentFeedbackIDs bounds the per-user set used to drop redelivered feedback.
const recentFeedbackIDs = 256

func newUserState(cfg HybridConfig) *userState {
	return &userState{
		config:      cfg,
		performance: make(map[string][]float64, len(buckets)),
		served:      make(map[string]string),
		feedbackIDs: make(map[string]struct{}),
	}
}

// markFeedback records id and reports whether it was already applied.
func (s *userState) markFeedback(id string) bool {
	if _, ok := s.feedbackIDs[id]; ok {
		return true
	}
	s.feedbackIDs[id] = struct{}{}
	s.feedbackOrder = append(s.feedbackOrder, id)
	if len(s.feedbackOrder) > recentFeedbackIDs {
		delete(s.feedbackIDs, s.feedbackOrder[0])
		s.feedbackOrder = s.feedbackOrder[1:]
	}
	return false
}

// remember records the dominant bucket of a served item, forgetting the
// oldest entries beyond limit.
func (s *userState) remember(itemID, bucket string, limit int) {
	if _, ok := s.served[itemID]; !ok {
		s.servedOrder = append(s.servedOrder, itemID)
	}
	s.served[itemID] = bucket
	for limit > 0 && len(s.servedOrder) > limit {
		delete(s.served, s.servedOrder[0])
		s.servedOrder = s.servedOrder[1:]
	}
}

// attribute returns the bucket feedback on an item is credited to.
func (s *userState) attribute(fb *Feedback) (string, bool) {
	if fb.Algorithm != "" {
		return fb.Algorithm, true
	}
	bucket, ok := s.served[fb.ItemID]
	return bucket, ok
}

// performanceValue is (satisfaction/5)*0.6 + min(1, engagement)*0.4.
func performanceValue(fb *Feedback) float64 {
	sat := neutralSatisfaction
	if fb.Satisfaction != nil {
		sat = ClampRating(*fb.Satisfaction)
	}
	return (sat/MaxRating)*0.6 + math.Min(1, math.Max(0, fb.Engagement))*0.4
}

// adapt folds one performance value into the bucket's window and moves
// every weight toward its share of total performance:
//
//	w = w*(1-rate) + (perf_bucket/perf_total)*rate
//
// followed by renormalization. Buckets without feedback have performance 0.
func (s *userState) adapt(bucket string, perf float64, window int) {
	values := append(s.performance[bucket], perf)
	if window > 0 && len(values) > window {
		values = values[len(values)-window:]
	}
	s.performance[bucket] = values

	means := make(map[string]float64, len(buckets))
	var total float64
	for _, b := range buckets {
		vs := s.performance[b]
		if len(vs) == 0 {
			continue
		}
		var sum float64
		for _, v := range vs {
			sum += v
		}
		means[b] = sum / float64(len(vs))
		total += means[b]
	}
	if total <= 0 {
		return
	}

	rate := Clamp01(s.config.AdaptationRate)
	cfg := s.config
	cfg.CollaborativeWeight = cfg.CollaborativeWeight*(1-rate) + means[AlgorithmCollaborative]/total*rate
	cfg.ContentWeight = cfg.ContentWeight*(1-rate) + means[AlgorithmContent]/total*rate
	cfg.ContextWeight = cfg.ContextWeight*(1-rate) + means[AlgorithmContext]/total*rate
	s.config = cfg.Normalize()
}

// userStates holds per-user adaptive state, sharded by user ID. Writers of
// one user's state hold that user's stripe lock for the whole
// read-modify-write so concurrent feedback for the same user serializes.
type userStates struct {
	defaults HybridConfig
	shards   [userShards]struct {
		mu    sync.RWMutex
		users map[string]*userState
	}
	locks [userShards]sync.Mutex
}

func newUserStates(defaults HybridConfig) *userStates {
	u := &userStates{defaults: defaults.Normalize()}
	for i := range u.shards {
		u.shards[i].users = make(map[string]*userState)
	}
	return u
}

// lock serializes adaptation for one user.
func (u *userStates) lock(userID string) func() {
	m := &u.locks[shardIndex(userID)]
	m.Lock()
	return m.Unlock
}

// get returns the user's state, creating it with defaults when absent.
func (u *userStates) get(userID string) *userState {
	sh := &u.shards[shardIndex(userID)]
	sh.mu.RLock()
	s := sh.users[userID]
	sh.mu.RUnlock()
	if s != nil {
		return s
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()
	if s = sh.users[userID]; s == nil {
		s = newUserState(u.defaults)
		sh.users[userID] = s
	}
	return s
}

// config returns a copy of the user's configuration.
func (u *userStates) config(userID string) HybridConfig {
	unlock := u.lock(userID)
	defer unlock()
	return u.get(userID).config
}

// reset reinitializes the user's configuration and performance history.
func (u *userStates) reset(userID string) HybridConfig {
	unlock := u.lock(userID)
	defer unlock()
	s := u.get(userID)
	s.config = u.defaults
	s.performance = make(map[string][]float64, len(buckets))
	return s.config
}

// restore installs a persisted configuration.
//
//nolint:gocritic // hugeParam: HybridConfig passed by value for immutable semantics
func (u *userStates) restore(userID string, cfg HybridConfig) {
	unlock := u.lock(userID)
	defer unlock()
	u.get(userID).config = cfg.Normalize()
}

// averages returns the number of configured users and their mean weights.
func (u *userStates) averages() (int, map[string]float64) {
	sums := make(map[string]float64, len(buckets))
	n := 0
	for i := range u.shards {
		sh := &u.shards[i]
		sh.mu.RLock()
		ids := make([]string, 0, len(sh.users))
		for id := range sh.users {
			ids = append(ids, id)
		}
		sh.mu.RUnlock()

		for _, id := range ids {
			cfg := u.config(id)
			for _, b := range buckets {
				sums[b] += cfg.Weight(b)
			}
			n++
		}
	}
	if n > 0 {
		for b := range sums {
			sums[b] /= float64(n)
		}
	}
	return n, sums
}
