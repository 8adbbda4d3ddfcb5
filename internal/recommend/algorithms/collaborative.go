// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package algorithms

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/drillwise/internal/recommend"
)

// Source names reported in Prediction.Sources.
const (
	SourceUser       = "user"
	SourceItem       = "item"
	SourceFactor     = "factor"
	SourcePopularity = "popularity"
)

// cfSnapshot is one consistent generation of collaborative state. Training
// builds a new snapshot off to the side and swaps it in atomically; between
// swaps it is updated in place by AddRating under shard locks.
type cfSnapshot struct {
	byUser        *ratingTable
	byItem        *ratingTable
	userNeighbors *neighborIndex
	itemNeighbors *neighborIndex

	// model is immutable once the snapshot is published. May be nil.
	model *recommend.FactorModel

	statsMu     sync.Mutex
	ratingSum   float64
	ratingCount int

	maxItemCount atomic.Int64
}

func newCFSnapshot(maxNeighbors int) *cfSnapshot {
	return &cfSnapshot{
		byUser:        newRatingTable(),
		byItem:        newRatingTable(),
		userNeighbors: newNeighborIndex(maxNeighbors),
		itemNeighbors: newNeighborIndex(maxNeighbors),
	}
}

// apply stores a clamped rating in both tables. A repeated (user, item)
// rating replaces the earlier value.
//
//nolint:gocritic // hugeParam: Rating passed by value for immutable semantics
func (s *cfSnapshot) apply(r recommend.Rating) {
	c := cell{value: recommend.ClampRating(r.Value), at: r.Timestamp, implicit: r.Implicit}
	old, replaced := s.byUser.set(r.UserID, r.ItemID, c)
	s.byItem.set(r.ItemID, r.UserID, c)

	s.statsMu.Lock()
	if replaced {
		s.ratingSum += c.value - old.value
	} else {
		s.ratingSum += c.value
		s.ratingCount++
	}
	s.statsMu.Unlock()

	n := int64(s.byItem.count(r.ItemID))
	for {
		cur := s.maxItemCount.Load()
		if n <= cur || s.maxItemCount.CompareAndSwap(cur, n) {
			break
		}
	}
}

// globalMean returns the mean rating, or the scale midpoint when empty.
func (s *cfSnapshot) globalMean() float64 {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	if s.ratingCount == 0 {
		return (recommend.MinRating + recommend.MaxRating) / 2
	}
	return s.ratingSum / float64(s.ratingCount)
}

func (s *cfSnapshot) count() int {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.ratingCount
}

// triples returns every stored rating in deterministic order.
func (s *cfSnapshot) triples() []triple {
	var out []triple
	for _, u := range s.byUser.keys() {
		for item, c := range s.byUser.row(u) {
			out = append(out, triple{user: u, item: item, value: c.value})
		}
	}
	sortTriples(out)
	return out
}

// Collaborative implements collaborative filtering over explicit and
// implicit ratings. Three estimators are blended per item:
//
//   - user-based: similarity-weighted average of positive neighbors' ratings
//   - item-based: similarity-weighted average of the user's ratings of
//     positive item neighbors
//   - latent factors: biased matrix factorization trained with SGD
//
// Similarities are adjusted cosine (mean-centered) over co-rated entries and
// are stored as per-key sorted neighbor lists. Users with fewer than
// ColdStartThreshold ratings receive popularity recommendations.
//
// All methods are safe for concurrent use. Readers always see one
// consistent snapshot; AddRating only locks the shards it touches.
type Collaborative struct {
	BaseAlgorithm
	config recommend.CollaborativeConfig
	logger zerolog.Logger

	snap atomic.Pointer[cfSnapshot]

	// swapMu is held shared by AddRating and exclusively while a trained
	// snapshot is swapped in.
	swapMu sync.RWMutex

	journalMu  sync.Mutex
	journaling bool
	journal    []recommend.Rating

	userLocks keyLocks
	itemLocks keyLocks

	rngMu sync.Mutex
	rng   *rand.Rand

	checkpoints recommend.CheckpointStore
	models      recommend.ModelStore
	now         func() time.Time
}

// NewCollaborative creates a collaborative filtering engine. The seed drives
// all randomness so that equal inputs train equal models.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCollaborative(cfg recommend.CollaborativeConfig, seed int64, logger zerolog.Logger) *Collaborative {
	def := recommend.DefaultCollaborativeConfig()
	if cfg.MaxNeighbors <= 0 {
		cfg.MaxNeighbors = def.MaxNeighbors
	}
	if cfg.MinCommon <= 0 {
		cfg.MinCommon = def.MinCommon
	}
	if cfg.ConfidenceSaturation <= 0 {
		cfg.ConfidenceSaturation = def.ConfidenceSaturation
	}
	if cfg.ColdStartThreshold <= 0 {
		cfg.ColdStartThreshold = def.ColdStartThreshold
	}
	if cfg.ColdStartConfidence <= 0 {
		cfg.ColdStartConfidence = def.ColdStartConfidence
	}
	if cfg.UserWeight+cfg.ItemWeight+cfg.FactorWeight <= 0 {
		cfg.UserWeight, cfg.ItemWeight, cfg.FactorWeight = def.UserWeight, def.ItemWeight, def.FactorWeight
	}
	if cfg.RMSECheckInterval <= 0 {
		cfg.RMSECheckInterval = def.RMSECheckInterval
	}
	if cfg.PopularityRecencyDays <= 0 {
		cfg.PopularityRecencyDays = def.PopularityRecencyDays
	}
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = def.NumWorkers
	}

	c := &Collaborative{
		BaseAlgorithm: NewBaseAlgorithm(recommend.AlgorithmCollaborative),
		config:        cfg,
		logger:        logger.With().Str("component", "collaborative").Logger(),
		rng:           rand.New(rand.NewSource(seed)), //nolint:gosec // deterministic training, not security sensitive
		checkpoints:   NewMemoryCheckpoints(),
		now:           time.Now,
	}
	c.snap.Store(newCFSnapshot(cfg.MaxNeighbors))
	return c
}

// SetCheckpointStore replaces the in-process checkpoint store.
func (c *Collaborative) SetCheckpointStore(cs recommend.CheckpointStore) {
	c.checkpoints = cs
}

// SetModelStore sets where published models are persisted.
func (c *Collaborative) SetModelStore(ms recommend.ModelStore) {
	c.models = ms
}

// SetClock overrides the clock used for popularity recency.
func (c *Collaborative) SetClock(now func() time.Time) {
	c.now = now
}

func (c *Collaborative) nextSeed() int64 {
	c.rngMu.Lock()
	defer c.rngMu.Unlock()
	return c.rng.Int63()
}

// Train rebuilds rating tables, neighbor lists and the factor model from
// ratings and atomically publishes them.
func (c *Collaborative) Train(ctx context.Context, ratings []recommend.Rating, params recommend.TrainParams) error {
	return c.TrainFrom(ctx, recommend.StaticRatings(ratings), params)
}

// TrainFrom is Train with the ratings read by load. Journaling starts before
// load runs, so a rating added while the source is read or while the model
// trains is replayed into the new snapshot before it is published.
//
// A canceled run returns ErrTrainingInterrupted; calling it again with the
// same ratings and params resumes from the last completed epoch.
func (c *Collaborative) TrainFrom(ctx context.Context, load recommend.RatingLoader, params recommend.TrainParams) error {
	if !c.tryAcquireTrainLock() {
		return recommend.ErrTrainingInProgress
	}
	defer c.releaseTrainLock()

	params = withTrainDefaults(params)
	start := c.now()

	c.setJournaling(true)
	defer c.setJournaling(false)

	ratings, err := load(ctx)
	if err != nil {
		return err
	}

	snap := newCFSnapshot(c.config.MaxNeighbors)
	for i := range ratings {
		if ratings[i].UserID == "" || ratings[i].ItemID == "" {
			continue
		}
		snap.apply(ratings[i])
	}

	if err := c.buildNeighbors(ctx, snap); err != nil {
		return fmt.Errorf("%w while building neighbors: %w", recommend.ErrTrainingInterrupted, err)
	}

	trainer := &sgdTrainer{
		params:        params,
		checkInterval: c.config.RMSECheckInterval,
		checkpoints:   c.checkpoints,
		logger:        c.logger,
		now:           c.now,
	}
	model, err := trainer.run(ctx, snap.triples(), c.nextSeed)
	if err != nil {
		return err
	}
	model.TrainedAt = c.now()
	model.Version = c.Version() + 1

	c.swapMu.Lock()
	replayed := c.replayJournal(snap)
	snap.model = model
	c.snap.Store(snap)
	c.markTrained(model.TrainedAt)
	c.swapMu.Unlock()

	if c.checkpoints != nil {
		if err := c.checkpoints.ClearCheckpoint(ctx); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to clear training checkpoint")
		}
	}
	if c.models != nil {
		if err := c.models.SaveModel(ctx, model); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to persist factor model")
		}
	}

	c.logger.Info().
		Int("ratings", snap.count()).
		Int("replayed", replayed).
		Int("epochs", model.Epochs).
		Float64("rmse", model.RMSE).
		Int("version", model.Version).
		Dur("duration", c.now().Sub(start)).
		Msg("Collaborative model trained")

	return nil
}

func withTrainDefaults(p recommend.TrainParams) recommend.TrainParams {
	def := recommend.DefaultTrainParams()
	if p.Factors <= 0 {
		p.Factors = def.Factors
	}
	if p.LearningRate <= 0 {
		p.LearningRate = def.LearningRate
	}
	if p.Regularization < 0 {
		p.Regularization = def.Regularization
	}
	if p.Iterations <= 0 {
		p.Iterations = def.Iterations
	}
	if p.MinImprovement < 0 {
		p.MinImprovement = def.MinImprovement
	}
	return p
}

// buildNeighbors computes every user and item neighbor list in parallel.
func (c *Collaborative) buildNeighbors(ctx context.Context, snap *cfSnapshot) error {
	if err := c.buildIndex(ctx, snap.byUser, snap.byItem, snap.userNeighbors); err != nil {
		return err
	}
	return c.buildIndex(ctx, snap.byItem, snap.byUser, snap.itemNeighbors)
}

func (c *Collaborative) buildIndex(ctx context.Context, primary, transposed *ratingTable, index *neighborIndex) error {
	keys := primary.keys()
	vectors := make(map[string]sparseVec, len(keys))
	for _, k := range keys {
		vectors[k] = primary.vector(k)
	}
	lookup := func(k string) sparseVec { return vectors[k] }

	var wg sync.WaitGroup
	chunkSize := (len(keys) + c.config.NumWorkers - 1) / c.config.NumWorkers

	for w := 0; w < c.config.NumWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > len(keys) {
			end = len(keys)
		}
		if start >= end {
			break
		}

		wg.Add(1)
		go func(chunk []string) {
			defer wg.Done()
			for _, k := range chunk {
				if ContextCancelled(ctx) {
					return
				}
				index.set(k, c.truncate(computeNeighbors(k, transposed, lookup, &c.config)))
			}
		}(keys[start:end])
	}
	wg.Wait()

	return ctx.Err()
}

func (c *Collaborative) truncate(list []recommend.Neighbor) []recommend.Neighbor {
	if len(list) > c.config.MaxNeighbors {
		return list[:c.config.MaxNeighbors]
	}
	return list
}

func (c *Collaborative) setJournaling(on bool) {
	c.journalMu.Lock()
	defer c.journalMu.Unlock()
	c.journaling = on
	c.journal = nil
}

// replayJournal applies ratings added during training to snap.
// Must be called with swapMu held exclusively.
func (c *Collaborative) replayJournal(snap *cfSnapshot) int {
	c.journalMu.Lock()
	pending := c.journal
	c.journal = nil
	c.journalMu.Unlock()

	for i := range pending {
		c.addTo(snap, pending[i])
	}
	return len(pending)
}

// AddRating records one rating and recomputes the neighbor lists of its user
// and item. Updates for the same user or item are serialized.
//
//nolint:gocritic // hugeParam: Rating passed by value for immutable semantics
func (c *Collaborative) AddRating(ctx context.Context, r recommend.Rating) error {
	if r.UserID == "" {
		return recommend.ErrEmptyUserID
	}
	if r.ItemID == "" {
		return fmt.Errorf("rating for user %s: empty item id", r.UserID)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.swapMu.RLock()
	defer c.swapMu.RUnlock()

	c.addTo(c.snap.Load(), r)

	c.journalMu.Lock()
	if c.journaling {
		c.journal = append(c.journal, r)
	}
	c.journalMu.Unlock()

	return nil
}

//nolint:gocritic // hugeParam: Rating passed by value for immutable semantics
func (c *Collaborative) addTo(snap *cfSnapshot, r recommend.Rating) {
	unlockUser := c.userLocks.lock(r.UserID)
	defer unlockUser()
	unlockItem := c.itemLocks.lock(r.ItemID)
	defer unlockItem()

	snap.apply(r)
	c.refresh(r.UserID, snap.byUser, snap.byItem, snap.userNeighbors)
	c.refresh(r.ItemID, snap.byItem, snap.byUser, snap.itemNeighbors)
}

// refresh recomputes key's neighbor list and mirrors each new similarity into
// the other side's list so that stored similarities stay symmetric.
func (c *Collaborative) refresh(key string, primary, transposed *ratingTable, index *neighborIndex) {
	full := computeNeighbors(key, transposed, primary.vector, &c.config)
	for _, nb := range full {
		index.upsert(nb.ID, recommend.Neighbor{ID: key, Similarity: nb.Similarity, Confidence: nb.Confidence})
	}
	index.set(key, c.truncate(full))
}

// Recommend returns up to count predictions for items the user has not
// rated and that are not excluded, ordered by blended score.
func (c *Collaborative) Recommend(ctx context.Context, userID string, exclude map[string]struct{}, count int) ([]recommend.Prediction, error) {
	if userID == "" {
		return nil, recommend.ErrEmptyUserID
	}
	if count <= 0 {
		return nil, nil
	}

	snap := c.snap.Load()
	rated := snap.byUser.row(userID)

	if len(rated) < c.config.ColdStartThreshold {
		return c.coldStart(snap, rated, exclude, count), nil
	}

	userNeighbors := snap.userNeighbors.get(userID)
	items := snap.byItem.keys()
	preds := make([]recommend.Prediction, 0, len(items))

	for n, itemID := range items {
		if n%256 == 0 && ContextCancelled(ctx) {
			return nil, ctx.Err()
		}
		if _, ok := rated[itemID]; ok || excluded(exclude, itemID) {
			continue
		}
		if p, ok := c.predict(snap, userID, itemID, rated, userNeighbors); ok {
			preds = append(preds, p)
		}
	}

	sortPredictions(preds)
	if len(preds) > count {
		preds = preds[:count]
	}
	return preds, nil
}

// coldStart ranks items by popularity. Scores are mapped onto the rating
// scale so they are comparable with regular predictions.
func (c *Collaborative) coldStart(snap *cfSnapshot, rated map[string]cell, exclude map[string]struct{}, count int) []recommend.Prediction {
	now := c.now()
	maxCount := int(snap.maxItemCount.Load())

	var preds []recommend.Prediction
	for _, itemID := range snap.byItem.keys() {
		if _, ok := rated[itemID]; ok || excluded(exclude, itemID) {
			continue
		}
		pop := popularityScore(statsFromRow(snap.byItem.row(itemID)), maxCount, now, c.config.PopularityRecencyDays)
		preds = append(preds, recommend.Prediction{
			ItemID:     itemID,
			Score:      recommend.ClampRating(recommend.MinRating + (recommend.MaxRating-recommend.MinRating)*pop),
			Confidence: c.config.ColdStartConfidence,
			Sources:    map[string]float64{SourcePopularity: pop},
			ColdStart:  true,
		})
	}

	sortPredictions(preds)
	if len(preds) > count {
		preds = preds[:count]
	}
	return preds
}

// estimate is one source's prediction with its confidence.
type estimate struct {
	value      float64
	confidence float64
	ok         bool
}

// userEstimate averages positive-similarity neighbors' ratings of itemID.
func userEstimate(snap *cfSnapshot, itemID string, neighbors []recommend.Neighbor) estimate {
	var num, den, conf float64
	var n int
	for _, nb := range neighbors {
		if nb.Similarity <= 0 {
			continue
		}
		r, ok := snap.byUser.get(nb.ID, itemID)
		if !ok {
			continue
		}
		num += nb.Similarity * r.value
		den += nb.Similarity
		conf += nb.Confidence
		n++
	}
	if den == 0 {
		return estimate{}
	}
	return estimate{value: recommend.ClampRating(num / den), confidence: conf / float64(n), ok: true}
}

// itemEstimate averages the user's ratings of positive-similarity neighbors
// of itemID.
func itemEstimate(snap *cfSnapshot, itemID string, rated map[string]cell) estimate {
	var num, den, conf float64
	var n int
	for _, nb := range snap.itemNeighbors.get(itemID) {
		if nb.Similarity <= 0 {
			continue
		}
		r, ok := rated[nb.ID]
		if !ok {
			continue
		}
		num += nb.Similarity * r.value
		den += nb.Similarity
		conf += nb.Confidence
		n++
	}
	if den == 0 {
		return estimate{}
	}
	return estimate{value: recommend.ClampRating(num / den), confidence: conf / float64(n), ok: true}
}

// factorEstimate uses the latent-factor model. Confidence grows with the
// combined rating volume of the user and item.
func factorEstimate(snap *cfSnapshot, userID, itemID string, userRatings int) estimate {
	v, ok := snap.model.Predict(userID, itemID)
	if !ok {
		return estimate{}
	}
	volume := float64(userRatings + snap.byItem.count(itemID))
	return estimate{value: v, confidence: math.Min(1, volume/20), ok: true}
}

// predict blends the available estimators. Each source is weighted by its
// configured weight times its confidence; missing sources contribute nothing.
func (c *Collaborative) predict(snap *cfSnapshot, userID, itemID string, rated map[string]cell, userNeighbors []recommend.Neighbor) (recommend.Prediction, bool) {
	sources := [...]struct {
		name   string
		weight float64
		est    estimate
	}{
		{SourceUser, c.config.UserWeight, userEstimate(snap, itemID, userNeighbors)},
		{SourceItem, c.config.ItemWeight, itemEstimate(snap, itemID, rated)},
		{SourceFactor, c.config.FactorWeight, factorEstimate(snap, userID, itemID, len(rated))},
	}

	var num, den float64
	contributions := make(map[string]float64, len(sources))
	for _, s := range sources {
		if !s.est.ok {
			continue
		}
		w := s.weight * s.est.confidence
		num += w * s.est.value
		den += w
		contributions[s.name] = s.est.value
	}
	if den == 0 {
		return recommend.Prediction{}, false
	}

	return recommend.Prediction{
		ItemID:     itemID,
		Score:      recommend.ClampRating(num / den),
		Confidence: recommend.Clamp01(den),
		Sources:    contributions,
	}, true
}

// PredictRating predicts a single rating. The factor model is used when both
// vectors exist, then the average of the neighbor estimates, then the global
// mean.
func (c *Collaborative) PredictRating(userID, itemID string) float64 {
	snap := c.snap.Load()
	if v, ok := snap.model.Predict(userID, itemID); ok {
		return v
	}

	rated := snap.byUser.row(userID)
	var sum float64
	var n int
	for _, est := range []estimate{
		userEstimate(snap, itemID, snap.userNeighbors.get(userID)),
		itemEstimate(snap, itemID, rated),
	} {
		if est.ok {
			sum += est.value
			n++
		}
	}
	if n > 0 {
		return recommend.ClampRating(sum / float64(n))
	}
	return recommend.ClampRating(snap.globalMean())
}

// Popularity returns the normalized popularity of an item (0-1).
func (c *Collaborative) Popularity(itemID string) float64 {
	snap := c.snap.Load()
	return popularityScore(
		statsFromRow(snap.byItem.row(itemID)),
		int(snap.maxItemCount.Load()),
		c.now(),
		c.config.PopularityRecencyDays,
	)
}

// Trending returns the count most popular items.
func (c *Collaborative) Trending(count int) []recommend.TrendingItem {
	if count <= 0 {
		return nil
	}
	snap := c.snap.Load()
	now := c.now()
	maxCount := int(snap.maxItemCount.Load())

	keys := snap.byItem.keys()
	out := make([]recommend.TrendingItem, 0, len(keys))
	for _, itemID := range keys {
		st := statsFromRow(snap.byItem.row(itemID))
		out = append(out, recommend.TrendingItem{
			ItemID:        itemID,
			Popularity:    popularityScore(st, maxCount, now, c.config.PopularityRecencyDays),
			Ratings:       st.count,
			AverageRating: st.avg,
			LastRatedAt:   st.latest,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Popularity != out[j].Popularity {
			return out[i].Popularity > out[j].Popularity
		}
		return out[i].ItemID < out[j].ItemID
	})
	if len(out) > count {
		out = out[:count]
	}
	return out
}

// UserSimilarity computes the adjusted-cosine similarity of two users.
func (c *Collaborative) UserSimilarity(a, b string) recommend.Neighbor {
	snap := c.snap.Load()
	sim, conf, _ := adjustedCosine(snap.byUser.vector(a), snap.byUser.vector(b), c.config.MinCommon, c.config.ConfidenceSaturation)
	return recommend.Neighbor{ID: b, Similarity: sim, Confidence: conf}
}

// ItemSimilarity computes the adjusted-cosine similarity of two items.
func (c *Collaborative) ItemSimilarity(a, b string) recommend.Neighbor {
	snap := c.snap.Load()
	sim, conf, _ := adjustedCosine(snap.byItem.vector(a), snap.byItem.vector(b), c.config.MinCommon, c.config.ConfidenceSaturation)
	return recommend.Neighbor{ID: b, Similarity: sim, Confidence: conf}
}

// UserNeighbors returns the stored neighbor list of a user.
func (c *Collaborative) UserNeighbors(userID string) []recommend.Neighbor {
	return c.snap.Load().userNeighbors.get(userID)
}

// ItemNeighbors returns the stored neighbor list of an item.
func (c *Collaborative) ItemNeighbors(itemID string) []recommend.Neighbor {
	return c.snap.Load().itemNeighbors.get(itemID)
}

// Model returns a copy of the published factor model, or nil.
func (c *Collaborative) Model() *recommend.FactorModel {
	m := c.snap.Load().model
	if m == nil {
		return nil
	}
	return m.Clone()
}

// CollaborativeState is the persistable state of the engine.
type CollaborativeState struct {
	Ratings []recommend.Rating
	Model   *recommend.FactorModel
}

// Snapshot returns every stored rating and a copy of the factor model.
func (c *Collaborative) Snapshot() CollaborativeState {
	snap := c.snap.Load()
	var state CollaborativeState
	for _, userID := range snap.byUser.keys() {
		row := snap.byUser.row(userID)
		items := make([]string, 0, len(row))
		for itemID := range row {
			items = append(items, itemID)
		}
		sort.Strings(items)
		for _, itemID := range items {
			cl := row[itemID]
			state.Ratings = append(state.Ratings, recommend.Rating{
				UserID:    userID,
				ItemID:    itemID,
				Value:     cl.value,
				Timestamp: cl.at,
				Implicit:  cl.implicit,
			})
		}
	}
	if snap.model != nil {
		state.Model = snap.model.Clone()
	}
	return state
}

// Restore rebuilds tables and neighbor lists from persisted ratings and
// installs a previously trained model without retraining.
//
//nolint:gocritic // hugeParam: state passed by value for immutable semantics
func (c *Collaborative) Restore(ctx context.Context, state CollaborativeState) error {
	if !c.tryAcquireTrainLock() {
		return recommend.ErrTrainingInProgress
	}
	defer c.releaseTrainLock()

	snap := newCFSnapshot(c.config.MaxNeighbors)
	for i := range state.Ratings {
		snap.apply(state.Ratings[i])
	}
	if err := c.buildNeighbors(ctx, snap); err != nil {
		return fmt.Errorf("restore collaborative state: %w", err)
	}
	if state.Model != nil {
		snap.model = state.Model.Clone()
	}

	c.swapMu.Lock()
	c.snap.Store(snap)
	if snap.model != nil {
		c.restoreTrained(snap.model.Version, snap.model.TrainedAt)
	}
	c.swapMu.Unlock()

	c.logger.Info().
		Int("ratings", len(state.Ratings)).
		Bool("model", state.Model != nil).
		Msg("Collaborative state restored")
	return nil
}

// Stats returns diagnostic counters of the current snapshot.
func (c *Collaborative) Stats() recommend.CollaborativeStats {
	snap := c.snap.Load()
	st := recommend.CollaborativeStats{
		Users:      len(snap.byUser.keys()),
		Items:      len(snap.byItem.keys()),
		Ratings:    snap.count(),
		GlobalMean: snap.globalMean(),
	}
	if snap.model != nil {
		st.ModelVersion = snap.model.Version
		st.RMSE = snap.model.RMSE
	}
	return st
}
