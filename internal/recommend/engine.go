// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/drillwise/internal/metrics"
	"github.com/tomtom215/drillwise/internal/recommend/reranking"
	"github.com/tomtom215/drillwise/internal/validation"
)

// Engine blends the collaborative and content engines into one ranked list
// per request, shaped by session context, diversity and novelty, and adapts
// each user's blend weights from feedback. It is safe for concurrent use.
type Engine struct {
	config *Config
	logger zerolog.Logger

	cf       CollaborativeEngine
	cb       ContentEngine
	cfGuard  *guard[[]Prediction]
	cbGuard  *guard[[]ContentMatch]
	reranker reranking.Reranker

	impactsMu  sync.RWMutex
	impacts    map[string]ImpactFunc
	ctxWeights map[string]float64

	users *userStates

	cache  ResultCache
	store  StateStore
	source RatingSource
	now    func() time.Time

	// Training state
	trainMu     sync.Mutex
	statusMu    sync.RWMutex
	trainStatus TrainingStatus

	// Counters
	requestCount  atomic.Int64
	cacheHits     atomic.Int64
	cacheMisses   atomic.Int64
	errorCount    atomic.Int64
	served        atomic.Int64
	feedbackCount atomic.Int64
	clicks        atomic.Int64
	completions   atomic.Int64
	satisfactionN atomic.Int64

	aggMu           sync.Mutex
	relevanceSum    float64
	satisfactionSum float64
}

// NewEngine creates a hybrid engine over the two sub-engines.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, cf CollaborativeEngine, cb ContentEngine, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cf == nil || cb == nil {
		return nil, errors.New("both collaborative and content engines are required")
	}

	rr, err := reranking.New(cfg.Reranking.Mode, cfg.Reranking.Lambda)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log := logger.With().Str("component", "recommend").Logger()
	return &Engine{
		config:     cfg.Clone(),
		logger:     log,
		cf:         cf,
		cb:         cb,
		cfGuard:    newGuard[[]Prediction](AlgorithmCollaborative, cfg.Breaker, log),
		cbGuard:    newGuard[[]ContentMatch](AlgorithmContent, cfg.Breaker, log),
		reranker:   rr,
		impacts:    DefaultImpacts(),
		ctxWeights: cfg.Context.ToMap(),
		users:      newUserStates(cfg.Hybrid),
		now:        time.Now,
	}, nil
}

// SetCache enables result caching.
func (e *Engine) SetCache(c ResultCache) {
	e.cache = c
}

// SetStateStore sets where ratings, profiles and hybrid configs are persisted.
func (e *Engine) SetStateStore(s StateStore) {
	e.store = s
}

// SetRatingSource sets the rating source used by Train.
func (e *Engine) SetRatingSource(src RatingSource) {
	e.source = src
}

// SetClock overrides the clock used for timestamps.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// SetImpact replaces the impact function of one context factor.
func (e *Engine) SetImpact(factor string, fn ImpactFunc) error {
	if _, ok := e.ctxWeights[factor]; !ok {
		return fmt.Errorf("unknown context factor %q", factor)
	}
	e.impactsMu.Lock()
	defer e.impactsMu.Unlock()
	e.impacts[factor] = fn
	e.logger.Info().Str("factor", factor).Msg("Context impact replaced")
	return nil
}

func (e *Engine) impactFuncs() map[string]ImpactFunc {
	e.impactsMu.RLock()
	defer e.impactsMu.RUnlock()
	out := make(map[string]ImpactFunc, len(e.impacts))
	for k, v := range e.impacts {
		out[k] = v
	}
	return out
}

// Recommend returns a ranked list for the request. Sub-engine failures
// reduce the list to what the healthy engines produced; the error return is
// reserved for a missing user ID and cancellation.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	e.requestCount.Add(1)

	if req.Context.UserID == "" {
		e.errorCount.Add(1)
		return nil, ErrEmptyUserID
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req = e.prepareRequest(req)
	logger := e.logger.With().Str("request_id", req.RequestID).Str("user_id", req.Context.UserID).Logger()

	key := cacheKey(req)
	if resp := e.cachedResponse(ctx, key, req, start); resp != nil {
		metrics.RecordRecommend("cached", len(resp.Items), time.Since(start))
		return resp, nil
	}

	hc := e.users.config(req.Context.UserID)
	exclude := make(map[string]struct{}, len(req.Context.ExcludeItems))
	for _, id := range req.Context.ExcludeItems {
		exclude[id] = struct{}{}
	}

	preds, matches := e.fetchCandidates(ctx, req.Context.UserID, exclude, hc.MaxRecommendations)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cands, algorithmsUsed := e.combine(&req.Context, hc, preds, matches)
	items := e.selectItems(ctx, cands, hc, req.Count)

	resp := &Response{
		Items: items,
		Metadata: ResponseMetadata{
			RequestID:      req.RequestID,
			UserID:         req.Context.UserID,
			AlgorithmsUsed: algorithmsUsed,
			Candidates:     len(cands),
			LatencyMS:      time.Since(start).Milliseconds(),
			ModelVersion:   e.cf.Version(),
			TrainedAt:      e.cf.LastTrainedAt(),
			Timestamp:      e.now(),
		},
	}

	e.recordServed(req.Context.UserID, items)
	if e.cache != nil && e.config.Cache.Enabled {
		e.cache.Set(ctx, key, copyResponse(resp), e.config.Cache.TTL)
	}

	result := "ok"
	if len(items) == 0 {
		result = "empty"
	}
	if isColdStart(preds) {
		metrics.ColdStartRequests.Inc()
	}
	metrics.RecordRecommend(result, len(items), time.Since(start))

	logger.Debug().
		Int("candidates", len(cands)).
		Int("returned", len(items)).
		Strs("algorithms", algorithmsUsed).
		Int64("latency_ms", resp.Metadata.LatencyMS).
		Msg("Recommendation complete")
	return resp, nil
}

// prepareRequest applies count limits and generates a request ID if needed.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) prepareRequest(req Request) Request {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if req.Count <= 0 {
		req.Count = e.config.Limits.DefaultCount
	}
	if req.Count > e.config.Limits.MaxCount {
		req.Count = e.config.Limits.MaxCount
	}
	return req
}

// UserCacheKeyPrefix is the prefix shared by every cache key of one user.
// Result caches use it to implement InvalidateUser.
func UserCacheKeyPrefix(userID string) string {
	return "rec:" + userID + ":"
}

// cacheKey identifies a request by user, count and every context field.
//
//nolint:gocritic // hugeParam: req passed by value for simplicity
func cacheKey(req Request) string {
	sc := req.Context
	exclude := append([]string(nil), sc.ExcludeItems...)
	sort.Strings(exclude)
	return UserCacheKeyPrefix(sc.UserID) + strings.Join([]string{
		strconv.Itoa(req.Count),
		sc.SessionType, sc.TimeOfDay, sc.DeviceType,
		strconv.FormatFloat(sc.SessionDurationMinutes, 'f', -1, 64),
		sc.Mood, strings.Join(exclude, ","),
	}, ":")
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) cachedResponse(ctx context.Context, key string, req Request, start time.Time) *Response {
	if e.cache == nil || !e.config.Cache.Enabled {
		return nil
	}
	cached, ok := e.cache.Get(ctx, key)
	if !ok {
		e.cacheMisses.Add(1)
		metrics.CacheMisses.WithLabelValues("recommend").Inc()
		return nil
	}
	e.cacheHits.Add(1)
	metrics.CacheHits.WithLabelValues("recommend").Inc()

	resp := copyResponse(cached)
	resp.Metadata.RequestID = req.RequestID
	resp.Metadata.CacheHit = true
	resp.Metadata.LatencyMS = time.Since(start).Milliseconds()
	return resp
}

func copyResponse(resp *Response) *Response {
	out := *resp
	out.Items = make([]Recommendation, len(resp.Items))
	for i, item := range resp.Items {
		item.Contributions = cloneFloatMap(item.Contributions)
		out.Items[i] = item
	}
	out.Metadata.AlgorithmsUsed = append([]string(nil), resp.Metadata.AlgorithmsUsed...)
	return &out
}

// fetchCandidates queries both engines in parallel. A failing engine
// contributes an empty list.
func (e *Engine) fetchCandidates(ctx context.Context, userID string, exclude map[string]struct{}, limit int) ([]Prediction, []ContentMatch) {
	var preds []Prediction
	var matches []ContentMatch

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		callCtx, cancel := context.WithTimeout(gctx, e.config.Limits.PredictionTimeout)
		defer cancel()
		out, err := e.cfGuard.call(func() ([]Prediction, error) {
			return e.cf.Recommend(callCtx, userID, exclude, limit)
		})
		if err == nil {
			preds = out
		}
		return nil
	})
	g.Go(func() error {
		callCtx, cancel := context.WithTimeout(gctx, e.config.Limits.PredictionTimeout)
		defer cancel()
		out, err := e.cbGuard.call(func() ([]ContentMatch, error) {
			return e.cb.Recommend(callCtx, userID, exclude, limit)
		})
		if err == nil {
			matches = out
		}
		return nil
	})
	_ = g.Wait()
	return preds, matches
}

// combined is one unioned candidate before selection.
type combined struct {
	rec        Recommendation
	vector     []float64
	popularity float64
	coldStart  bool
}

// combine unions both candidate lists and scores every item:
//
//	score = w_cf * cf * m + w_cb * cb * m + w_ctx * ctx
//
// where cf is the predicted rating mapped to [0, 1], cb the content score,
// ctx the weighted context score and m the context multiplier. Confidence is
// the weight-averaged confidence of the engines that produced the item.
//
//nolint:gocritic // hugeParam: HybridConfig passed by value for immutable semantics
func (e *Engine) combine(sc *SessionContext, hc HybridConfig, preds []Prediction, matches []ContentMatch) ([]combined, []string) {
	byCF := make(map[string]*Prediction, len(preds))
	byCB := make(map[string]*ContentMatch, len(matches))
	ids := make([]string, 0, len(preds)+len(matches))
	for i := range preds {
		if _, dup := byCF[preds[i].ItemID]; !dup {
			ids = append(ids, preds[i].ItemID)
		}
		byCF[preds[i].ItemID] = &preds[i]
	}
	for i := range matches {
		if _, inCF := byCF[matches[i].ItemID]; !inCF {
			if _, dup := byCB[matches[i].ItemID]; !dup {
				ids = append(ids, matches[i].ItemID)
			}
		}
		byCB[matches[i].ItemID] = &matches[i]
	}
	sort.Strings(ids)

	var algorithmsUsed []string
	if len(preds) > 0 {
		algorithmsUsed = append(algorithmsUsed, AlgorithmCollaborative)
	}
	if len(matches) > 0 {
		algorithmsUsed = append(algorithmsUsed, AlgorithmContent)
	}
	if len(ids) > 0 {
		algorithmsUsed = append(algorithmsUsed, AlgorithmContext)
	}

	impacts := e.impactFuncs()
	out := make([]combined, 0, len(ids))
	for _, id := range ids {
		var item *ItemFeatures
		if features, ok := e.cb.Item(id); ok {
			item = &features
		}
		ev := evaluateContext(sc, item, impacts, e.ctxWeights)

		contributions := map[string]float64{AlgorithmContext: ev.score}
		score := hc.ContextWeight * ev.score
		var confNum, confDen float64
		c := combined{}

		if p := byCF[id]; p != nil {
			norm := Clamp01((p.Score - MinRating) / (MaxRating - MinRating))
			contributions[AlgorithmCollaborative] = norm
			score += hc.CollaborativeWeight * norm * ev.multiplier
			confNum += hc.CollaborativeWeight * p.Confidence
			confDen += hc.CollaborativeWeight
			c.coldStart = p.ColdStart
		}
		if m := byCB[id]; m != nil {
			contributions[AlgorithmContent] = m.Score
			score += hc.ContentWeight * m.Score * ev.multiplier
			confNum += hc.ContentWeight * m.Confidence
			confDen += hc.ContentWeight
		}

		var conf float64
		if confDen > 0 {
			conf = Clamp01(confNum / confDen)
		}

		c.rec = Recommendation{
			ItemID:        id,
			Score:         score,
			Confidence:    conf,
			Contributions: contributions,
		}
		if item != nil {
			c.rec.Title = item.Title
			c.rec.Type = item.Type
			c.vector = item.Vector
		}
		c.popularity = e.cf.Popularity(id)
		c.rec.Reason = reason(&c, hc)
		out = append(out, c)
	}
	return out, algorithmsUsed
}

// dominantBucket is the bucket with the largest weighted contribution.
//
//nolint:gocritic // hugeParam: HybridConfig passed by value for immutable semantics
func dominantBucket(contributions map[string]float64, hc HybridConfig) string {
	best, bestVal := "", -1.0
	for _, b := range buckets {
		v, ok := contributions[b]
		if !ok {
			continue
		}
		if w := hc.Weight(b) * v; w > bestVal {
			best, bestVal = b, w
		}
	}
	return best
}

//nolint:gocritic // hugeParam: HybridConfig passed by value for immutable semantics
func reason(c *combined, hc HybridConfig) string {
	if c.coldStart {
		if _, ok := c.rec.Contributions[AlgorithmContent]; !ok {
			return "Popular with other learners"
		}
	}
	switch dominantBucket(c.rec.Contributions, hc) {
	case AlgorithmCollaborative:
		return "Learners with similar ratings rated this highly"
	case AlgorithmContent:
		return "Matches your skill level and learning style"
	default:
		return "Fits your current session"
	}
}

// selectItems runs diversity selection and the novelty bonus, then drops
// low-confidence items and returns the top count by final score.
//
//nolint:gocritic // hugeParam: HybridConfig passed by value for immutable semantics
func (e *Engine) selectItems(ctx context.Context, cands []combined, hc HybridConfig, count int) []Recommendation {
	if len(cands) == 0 {
		return []Recommendation{}
	}

	byID := make(map[string]*combined, len(cands))
	rc := make([]reranking.Candidate, len(cands))
	for i := range cands {
		byID[cands[i].rec.ItemID] = &cands[i]
		rc[i] = reranking.Candidate{
			ID:         cands[i].rec.ItemID,
			Score:      cands[i].rec.Score,
			Vector:     cands[i].vector,
			Popularity: cands[i].popularity,
		}
	}

	limit := hc.MaxRecommendations
	if count > limit {
		limit = count
	}
	selected := e.reranker.Rerank(ctx, rc, reranking.Options{
		DiversityFactor: hc.DiversityFactor,
		NoveltyFactor:   hc.NoveltyFactor,
		Limit:           limit,
	})

	out := make([]Recommendation, 0, len(selected))
	for _, s := range selected {
		rec := byID[s.ID].rec
		if rec.Confidence < hc.MinConfidenceThreshold {
			continue
		}
		rec.Score = s.Score
		rec.DiversityScore = s.Diversity
		rec.NoveltyScore = s.Novelty
		out = append(out, rec)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ItemID < out[j].ItemID
	})
	if len(out) > count {
		out = out[:count]
	}
	return out
}

func isColdStart(preds []Prediction) bool {
	return len(preds) > 0 && preds[0].ColdStart
}

// recordServed remembers the dominant bucket of each served item for
// feedback attribution and updates serving statistics.
func (e *Engine) recordServed(userID string, items []Recommendation) {
	if len(items) == 0 {
		return
	}
	unlock := e.users.lock(userID)
	s := e.users.get(userID)
	for i := range items {
		s.remember(items[i].ItemID, dominantBucket(items[i].Contributions, s.config), e.config.Feedback.ServedMemory)
	}
	unlock()

	var relevance float64
	for i := range items {
		relevance += items[i].Score
	}
	e.served.Add(int64(len(items)))
	e.aggMu.Lock()
	e.relevanceSum += relevance
	e.aggMu.Unlock()
}

// ProcessFeedback applies a batch of feedback in order. Each record is
// forwarded to the collaborative engine as a rating when it carries a
// satisfaction score, to the content engine as an interaction, and adapts
// the user's blend weights when it can be attributed to a bucket. Records
// whose ID was recently applied for the same user are skipped. The batch
// is rejected as a whole when any record is invalid.
func (e *Engine) ProcessFeedback(ctx context.Context, batch []Feedback) error {
	if len(batch) == 0 {
		return nil
	}

	records := make([]Feedback, len(batch))
	for i := range batch {
		records[i] = e.normalizeFeedback(batch[i])
	}
	if verr := validation.ValidateSlice("feedback", records); verr != nil {
		return fmt.Errorf("invalid feedback: %w", verr)
	}

	for i := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.applyFeedback(ctx, &records[i])
	}
	return nil
}

//nolint:gocritic // hugeParam: Feedback passed by value to work on a copy
func (e *Engine) normalizeFeedback(fb Feedback) Feedback {
	if fb.ID == "" {
		fb.ID = uuid.NewString()
	}
	if fb.Timestamp.IsZero() {
		fb.Timestamp = e.now()
	}
	in := &fb.Interaction
	if in.UserID == "" {
		in.UserID = fb.UserID
	}
	if in.ItemID == "" {
		in.ItemID = fb.ItemID
	}
	if in.Timestamp.IsZero() {
		in.Timestamp = fb.Timestamp
	}
	return fb
}

func (e *Engine) applyFeedback(ctx context.Context, fb *Feedback) {
	logger := e.logger.With().Str("feedback_id", fb.ID).Str("user_id", fb.UserID).Str("item_id", fb.ItemID).Logger()

	unlock := e.users.lock(fb.UserID)
	duplicate := e.users.get(fb.UserID).markFeedback(fb.ID)
	unlock()
	if duplicate {
		logger.Debug().Msg("Skipping feedback already applied")
		return
	}

	if fb.Satisfaction != nil {
		r := Rating{
			UserID:    fb.UserID,
			ItemID:    fb.ItemID,
			Value:     ClampRating(*fb.Satisfaction),
			Timestamp: fb.Timestamp,
		}
		if _, err := e.cfGuard.call(func() ([]Prediction, error) {
			return nil, e.cf.AddRating(ctx, r)
		}); err == nil {
			metrics.RatingsRecorded.Inc()
			e.persist(ctx, "save_rating", func(s StateStore) error { return s.SaveRating(ctx, r) })
		}
	}

	if _, err := e.cbGuard.call(func() ([]ContentMatch, error) {
		return nil, e.cb.UpdateProfile(ctx, fb.UserID, []Interaction{fb.Interaction})
	}); err == nil {
		e.persistProfile(ctx, fb.UserID)
	}

	unlock = e.users.lock(fb.UserID)
	s := e.users.get(fb.UserID)
	bucket, attributed := s.attribute(fb)
	if attributed {
		s.adapt(bucket, performanceValue(fb), e.config.Feedback.Window)
	}
	cfg := s.config
	unlock()

	if attributed {
		e.persist(ctx, "save_hybrid", func(st StateStore) error { return st.SaveHybridConfig(ctx, fb.UserID, cfg) })
	} else {
		logger.Debug().Msg("Feedback not attributable to an algorithm; weights unchanged")
	}
	metrics.RecordFeedback(bucket)

	e.feedbackCount.Add(1)
	switch fb.Interaction.Kind {
	case InteractionView, InteractionLike, InteractionBookmark, InteractionComplete:
		e.clicks.Add(1)
	}
	if fb.Interaction.Kind == InteractionComplete {
		e.completions.Add(1)
	}
	if fb.Satisfaction != nil {
		e.satisfactionN.Add(1)
		e.aggMu.Lock()
		e.satisfactionSum += ClampRating(*fb.Satisfaction)
		e.aggMu.Unlock()
	}

	e.invalidate(ctx, fb.UserID)
}

func (e *Engine) persist(ctx context.Context, op string, fn func(StateStore) error) {
	if e.store == nil {
		return
	}
	if err := fn(e.store); err != nil {
		e.logger.Warn().Err(err).Str("operation", op).Msg("Failed to persist state")
	}
}

func (e *Engine) persistProfile(ctx context.Context, userID string) {
	if e.store == nil {
		return
	}
	if p, ok := e.cb.Profile(userID); ok {
		e.persist(ctx, "save_profile", func(s StateStore) error { return s.SaveProfile(ctx, p) })
	}
}

func (e *Engine) invalidate(ctx context.Context, userID string) {
	if e.cache != nil {
		e.cache.InvalidateUser(ctx, userID)
	}
}

// UpdatePreferences applies explicit preferences to the user's profile.
//
//nolint:gocritic // hugeParam: Preferences passed by value for immutable semantics
func (e *Engine) UpdatePreferences(ctx context.Context, userID string, prefs Preferences) error {
	if err := e.cb.SetPreferences(ctx, userID, prefs); err != nil {
		return fmt.Errorf("update preferences: %w", err)
	}
	e.persistProfile(ctx, userID)
	e.invalidate(ctx, userID)
	return nil
}

// HybridConfig returns the user's current blend configuration.
func (e *Engine) HybridConfig(userID string) HybridConfig {
	return e.users.config(userID)
}

// ResetConfig reinitializes the user's blend configuration to defaults.
func (e *Engine) ResetConfig(ctx context.Context, userID string) (HybridConfig, error) {
	if userID == "" {
		return HybridConfig{}, ErrEmptyUserID
	}
	cfg := e.users.reset(userID)
	e.persist(ctx, "save_hybrid", func(s StateStore) error { return s.SaveHybridConfig(ctx, userID, cfg) })
	e.invalidate(ctx, userID)
	e.logger.Info().Str("user_id", userID).Msg("Hybrid configuration reset")
	return cfg, nil
}

// RestoreHybridConfigs installs persisted per-user configurations.
func (e *Engine) RestoreHybridConfigs(configs map[string]HybridConfig) {
	for userID, cfg := range configs {
		e.users.restore(userID, cfg)
	}
}

// Trending returns the most popular items.
func (e *Engine) Trending(count int) []TrendingItem {
	if count <= 0 {
		count = e.config.Limits.DefaultCount
	}
	if count > e.config.Limits.MaxCount {
		count = e.config.Limits.MaxCount
	}
	return e.cf.Trending(count)
}

// Train loads ratings from the rating source and retrains the collaborative
// engine. Returns ErrTrainingInProgress if a run is already active.
func (e *Engine) Train(ctx context.Context) error {
	if e.source == nil {
		return errors.New("rating source not set")
	}
	if !e.trainMu.TryLock() {
		metrics.TrainingRuns.WithLabelValues("skipped").Inc()
		return ErrTrainingInProgress
	}
	defer e.trainMu.Unlock()

	start := time.Now()
	e.setStatus(func(s *TrainingStatus) {
		s.IsTraining = true
		s.LastError = ""
	})
	e.logger.Info().Msg("Starting model training")

	err := e.train(ctx)

	duration := time.Since(start)
	st := e.cf.Stats()
	e.setStatus(func(s *TrainingStatus) {
		s.IsTraining = false
		s.LastTrainingDurationMS = duration.Milliseconds()
		s.RatingCount = st.Ratings
		s.UserCount = st.Users
		s.ItemCount = e.cb.ItemCount()
		s.ModelVersion = e.cf.Version()
		s.LastTrainedAt = e.cf.LastTrainedAt()
		if err != nil {
			s.LastError = err.Error()
		}
	})

	switch {
	case err == nil:
		metrics.RecordTraining("success", duration, st.RMSE, e.epochs(), st.ModelVersion)
		if e.cache != nil && e.config.Cache.InvalidateOnTrain {
			e.cache.Clear(ctx)
		}
		e.logger.Info().
			Int("version", st.ModelVersion).
			Float64("rmse", st.RMSE).
			Int64("duration_ms", duration.Milliseconds()).
			Msg("Model training complete")
	case errors.Is(err, ErrTrainingInterrupted):
		metrics.RecordTraining("interrupted", duration, 0, 0, 0)
		e.logger.Warn().Err(err).Msg("Model training interrupted; will resume from checkpoint")
	default:
		metrics.RecordTraining("failed", duration, 0, 0, 0)
		e.logger.Error().Err(err).Msg("Model training failed")
	}
	return err
}

func (e *Engine) train(ctx context.Context) error {
	trainCtx, cancel := context.WithTimeout(ctx, e.config.Training.Timeout)
	defer cancel()

	load := func(ctx context.Context) ([]Rating, error) {
		ratings, err := e.source.Ratings(ctx)
		if err != nil {
			return nil, fmt.Errorf("load ratings: %w", err)
		}
		if len(ratings) < e.config.Training.MinRatings {
			return nil, fmt.Errorf("%w: %d ratings, need %d", ErrInsufficientData, len(ratings), e.config.Training.MinRatings)
		}
		return ratings, nil
	}
	return e.cf.TrainFrom(trainCtx, load, e.config.Training.Params)
}

// epochs reports the epoch count of the published model when the
// collaborative engine exposes it.
func (e *Engine) epochs() int {
	if m, ok := e.cf.(interface{ Model() *FactorModel }); ok {
		if fm := m.Model(); fm != nil {
			return fm.Epochs
		}
	}
	return 0
}

func (e *Engine) setStatus(fn func(s *TrainingStatus)) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	fn(&e.trainStatus)
}

// GetStatus returns the current training status.
func (e *Engine) GetStatus() TrainingStatus {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	return e.trainStatus
}

// Stats returns diagnostic counters.
func (e *Engine) Stats() Stats {
	st := Stats{
		Served:        e.served.Load(),
		RequestCount:  e.requestCount.Load(),
		CacheHits:     e.cacheHits.Load(),
		CacheMisses:   e.cacheMisses.Load(),
		ErrorCount:    e.errorCount.Load(),
		FeedbackCount: e.feedbackCount.Load(),
		ModelTrained:  e.cf.IsTrained(),
		Training:      e.GetStatus(),
	}

	e.aggMu.Lock()
	relevanceSum, satisfactionSum := e.relevanceSum, e.satisfactionSum
	e.aggMu.Unlock()

	if st.Served > 0 {
		st.AverageRelevance = relevanceSum / float64(st.Served)
		st.ClickThroughRate = float64(e.clicks.Load()) / float64(st.Served)
	}
	if st.FeedbackCount > 0 {
		st.CompletionRate = float64(e.completions.Load()) / float64(st.FeedbackCount)
	}
	if n := e.satisfactionN.Load(); n > 0 {
		st.AverageSatisfaction = satisfactionSum / float64(n)
	}

	cf := e.cf.Stats()
	st.Training.RatingCount = cf.Ratings
	st.Training.UserCount = cf.Users
	st.Training.ItemCount = e.cb.ItemCount()
	st.Training.ModelVersion = e.cf.Version()

	st.ConfiguredUsers, st.AverageWeights = e.users.averages()
	metrics.UpdateHybridWeights(st.AverageWeights)
	return st
}

// BreakerStates returns the circuit breaker state of each sub-engine.
func (e *Engine) BreakerStates() map[string]string {
	return map[string]string{
		AlgorithmCollaborative: e.cfGuard.state(),
		AlgorithmContent:       e.cbGuard.state(),
	}
}

// GetConfig returns a copy of the current configuration.
func (e *Engine) GetConfig() *Config {
	return e.config.Clone()
}
