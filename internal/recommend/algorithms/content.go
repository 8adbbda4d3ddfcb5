// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package algorithms

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/drillwise/internal/recommend"
	"github.com/tomtom215/drillwise/internal/validation"
)

// ContentBased implements content-based filtering by matching item features
// against a learned per-user profile. Six factors are scored per item:
//
//	score = w_skill * readiness + w_style * style + w_difficulty * difficulty +
//	        w_topic * topic + w_format * format + w_time * time
//
// Readiness compares skill levels with the item's requirements, so an item
// the user is not yet ready for is held back even when it otherwise matches.
//
// Profiles are created lazily on the first update and never deleted.
type ContentBased struct {
	BaseAlgorithm
	config recommend.ContentConfig
	logger zerolog.Logger
	now    func() time.Time
	score  func(*recommend.UserProfile, *recommend.ItemFeatures, *recommend.ContentConfig) (recommend.FactorScores, float64)

	itemsMu sync.RWMutex
	items   map[string]*recommend.ItemFeatures
	itemIDs []string // sorted

	profiles [numShards]profileShard
}

type profileShard struct {
	mu       sync.RWMutex
	profiles map[string]*recommend.UserProfile
}

// NewContentBased creates a content-based engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewContentBased(cfg recommend.ContentConfig, logger zerolog.Logger) *ContentBased {
	def := recommend.DefaultContentConfig()
	if len(cfg.Skills) == 0 {
		cfg.Skills = def.Skills
	}
	if len(cfg.LearningStyles) == 0 {
		cfg.LearningStyles = def.LearningStyles
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = def.Categories
	}
	if len(cfg.Formats) == 0 {
		cfg.Formats = def.Formats
	}
	if cfg.MaxSkillPoints <= 0 {
		cfg.MaxSkillPoints = def.MaxSkillPoints
	}
	if cfg.DefaultSkillPoints <= 0 {
		cfg.DefaultSkillPoints = def.DefaultSkillPoints
	}
	if cfg.DefaultDifficulty <= 0 {
		cfg.DefaultDifficulty = def.DefaultDifficulty
	}
	if cfg.DefaultTimeMinutes <= 0 {
		cfg.DefaultTimeMinutes = def.DefaultTimeMinutes
	}
	if cfg.MaxTimeMinutes <= 0 {
		cfg.MaxTimeMinutes = def.MaxTimeMinutes
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = def.HistoryLimit
	}
	if w := cfg.Weights; w.Skill+w.Style+w.Difficulty+w.Topic+w.Format+w.Time <= 0 {
		cfg.Weights = def.Weights
	}

	c := &ContentBased{
		BaseAlgorithm: NewBaseAlgorithm(recommend.AlgorithmContent),
		config:        cfg,
		logger:        logger.With().Str("component", "content").Logger(),
		now:           time.Now,
		score:         scoreItem,
		items:         make(map[string]*recommend.ItemFeatures),
	}
	for i := range c.profiles {
		c.profiles[i].profiles = make(map[string]*recommend.UserProfile)
	}
	return c
}

// SetClock overrides the clock used for profile timestamps.
func (c *ContentBased) SetClock(now func() time.Time) {
	c.now = now
}

// RegisterItems validates and stores catalog items, deriving feature
// vectors when absent. The whole batch is rejected when any item is invalid.
// Registering an existing ID replaces it.
func (c *ContentBased) RegisterItems(ctx context.Context, items []recommend.ItemFeatures) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if verr := validation.ValidateSlice("items", items); verr != nil {
		return fmt.Errorf("%w: %w", recommend.ErrInvalidItem, verr)
	}

	prepared := make([]*recommend.ItemFeatures, len(items))
	for i := range items {
		item := cloneItem(&items[i])
		if len(item.Vector) == 0 {
			item.Vector = itemVector(item, &c.config)
		}
		prepared[i] = item
	}

	c.itemsMu.Lock()
	for _, item := range prepared {
		if _, exists := c.items[item.ItemID]; !exists {
			c.itemIDs = append(c.itemIDs, item.ItemID)
		}
		c.items[item.ItemID] = item
	}
	sort.Strings(c.itemIDs)
	total := len(c.itemIDs)
	c.itemsMu.Unlock()

	c.markTrained(c.now())
	c.logger.Debug().Int("registered", len(items)).Int("total", total).Msg("Catalog updated")
	return nil
}

func cloneItem(in *recommend.ItemFeatures) *recommend.ItemFeatures {
	out := *in
	out.SkillRequirements = copyFloatMap(in.SkillRequirements)
	out.LearningStyles = copyFloatMap(in.LearningStyles)
	out.Tags = append([]string(nil), in.Tags...)
	out.Concepts = append([]string(nil), in.Concepts...)
	out.Prerequisites = append([]string(nil), in.Prerequisites...)
	out.Vector = append([]float64(nil), in.Vector...)
	return &out
}

func copyFloatMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (c *ContentBased) item(itemID string) *recommend.ItemFeatures {
	c.itemsMu.RLock()
	defer c.itemsMu.RUnlock()
	return c.items[itemID]
}

// Item returns a copy of a registered item.
func (c *ContentBased) Item(itemID string) (recommend.ItemFeatures, bool) {
	item := c.item(itemID)
	if item == nil {
		return recommend.ItemFeatures{}, false
	}
	return *cloneItem(item), true
}

// Items returns copies of every registered item ordered by ID.
func (c *ContentBased) Items() []recommend.ItemFeatures {
	c.itemsMu.RLock()
	defer c.itemsMu.RUnlock()
	out := make([]recommend.ItemFeatures, 0, len(c.itemIDs))
	for _, id := range c.itemIDs {
		out = append(out, *cloneItem(c.items[id]))
	}
	return out
}

// ItemCount returns the number of registered items.
func (c *ContentBased) ItemCount() int {
	c.itemsMu.RLock()
	defer c.itemsMu.RUnlock()
	return len(c.itemIDs)
}

// snapshotItems returns the registered items in ID order. The returned
// pointers are never mutated after registration.
func (c *ContentBased) snapshotItems() []*recommend.ItemFeatures {
	c.itemsMu.RLock()
	defer c.itemsMu.RUnlock()
	out := make([]*recommend.ItemFeatures, 0, len(c.itemIDs))
	for _, id := range c.itemIDs {
		out = append(out, c.items[id])
	}
	return out
}

func (c *ContentBased) shard(userID string) *profileShard {
	return &c.profiles[shardFor(userID)]
}

// withProfile runs fn on the user's profile under the shard write lock,
// creating the profile first when needed.
func (c *ContentBased) withProfile(userID string, fn func(p *recommend.UserProfile)) {
	s := c.shard(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.profiles[userID]
	if p == nil {
		p = newProfile(userID, &c.config, c.now())
		s.profiles[userID] = p
	}
	fn(p)
}

// Profile returns a copy of the user's profile.
func (c *ContentBased) Profile(userID string) (recommend.UserProfile, bool) {
	s := c.shard(userID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := s.profiles[userID]
	if p == nil {
		return recommend.UserProfile{}, false
	}
	return p.Clone(), true
}

// ProfileCount returns the number of known profiles.
func (c *ContentBased) ProfileCount() int {
	n := 0
	for i := range c.profiles {
		s := &c.profiles[i]
		s.mu.RLock()
		n += len(s.profiles)
		s.mu.RUnlock()
	}
	return n
}

// UpdateProfile folds interactions into the user's profile in order.
// Interactions for items outside the catalog are kept in history only.
func (c *ContentBased) UpdateProfile(ctx context.Context, userID string, interactions []recommend.Interaction) error {
	if userID == "" {
		return recommend.ErrEmptyUserID
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(interactions) == 0 {
		return nil
	}

	unknown := 0
	c.withProfile(userID, func(p *recommend.UserProfile) {
		for i := range interactions {
			in := interactions[i]
			in.UserID = userID
			if !in.Kind.Valid() {
				continue
			}
			if in.Timestamp.IsZero() {
				in.Timestamp = c.now()
			}
			item := c.item(in.ItemID)
			if item == nil {
				unknown++
			}
			applyInteraction(p, item, &in, &c.config)
		}
	})

	if unknown > 0 {
		c.logger.Debug().Str("user_id", userID).Int("unknown_items", unknown).Msg("Interactions for unregistered items")
	}
	return nil
}

// SetPreferences applies explicit user preferences.
//
//nolint:gocritic // hugeParam: Preferences passed by value for immutable semantics
func (c *ContentBased) SetPreferences(ctx context.Context, userID string, prefs recommend.Preferences) error {
	if userID == "" {
		return recommend.ErrEmptyUserID
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if verr := validation.ValidateStruct(&prefs); verr != nil {
		return fmt.Errorf("invalid preferences: %w", verr)
	}

	c.withProfile(userID, func(p *recommend.UserProfile) {
		applyPreferences(p, prefs)
		p.UpdatedAt = c.now()
	})
	return nil
}

// RestoreProfiles installs persisted profiles, replacing any in memory.
func (c *ContentBased) RestoreProfiles(profiles []recommend.UserProfile) {
	for i := range profiles {
		p := profiles[i].Clone()
		c.fillDefaults(&p)
		s := c.shard(p.UserID)
		s.mu.Lock()
		s.profiles[p.UserID] = &p
		s.mu.Unlock()
	}
}

// fillDefaults repairs profiles decoded with missing fields.
func (c *ContentBased) fillDefaults(p *recommend.UserProfile) {
	def := newProfile(p.UserID, &c.config, p.UpdatedAt)
	if len(p.SkillLevels) == 0 {
		p.SkillLevels = def.SkillLevels
	}
	if len(p.LearningStyles) == 0 {
		p.LearningStyles = def.LearningStyles
	}
	if p.DifficultyPreference == 0 {
		p.DifficultyPreference = def.DifficultyPreference
	}
	if p.TimePreferenceMinutes == 0 {
		p.TimePreferenceMinutes = def.TimePreferenceMinutes
	}
	if p.LearningPace == "" {
		p.LearningPace = def.LearningPace
	}
}

// Recommend scores every registered item the user has not completed and that
// is not excluded, drops candidates below MinScore and returns the top count.
// A failure while scoring one item only removes that item.
func (c *ContentBased) Recommend(ctx context.Context, userID string, exclude map[string]struct{}, count int) ([]recommend.ContentMatch, error) {
	if userID == "" {
		return nil, recommend.ErrEmptyUserID
	}
	if count <= 0 {
		return nil, nil
	}

	profile, ok := c.Profile(userID)
	if !ok {
		profile = *newProfile(userID, &c.config, c.now())
	}
	userVec := profileVector(&profile, &c.config)

	items := c.snapshotItems()
	matches := make([]recommend.ContentMatch, 0, len(items))
	failed := 0

	for n, item := range items {
		if n%256 == 0 && ContextCancelled(ctx) {
			return nil, ctx.Err()
		}
		if excluded(exclude, item.ItemID) {
			continue
		}
		if _, done := profile.CompletedItems[item.ItemID]; done {
			continue
		}

		m, err := c.match(&profile, item, userVec)
		if err != nil {
			failed++
			c.logger.Warn().Err(err).Str("item_id", item.ItemID).Msg("Skipping item that failed to score")
			continue
		}
		if m.Score < c.config.MinScore {
			continue
		}
		matches = append(matches, m)
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ItemID < matches[j].ItemID
	})
	if len(matches) > count {
		matches = matches[:count]
	}

	if failed > 0 {
		c.logger.Debug().Str("user_id", userID).Int("failed", failed).Msg("Content scoring completed with failures")
	}
	return matches, nil
}

// match scores one item, converting a panic into an error.
func (c *ContentBased) match(p *recommend.UserProfile, item *recommend.ItemFeatures, userVec []float64) (m recommend.ContentMatch, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic scoring item %s: %v", item.ItemID, r)
		}
	}()

	factors, score := c.score(p, item, &c.config)
	return recommend.ContentMatch{
		ItemID:     item.ItemID,
		Score:      score,
		Confidence: matchConfidence(p, item, factors),
		Factors:    factors,
		Similarity: cosineSimilarity(userVec, item.Vector),
	}, nil
}

// ItemVector returns the feature vector of a registered item.
func (c *ContentBased) ItemVector(itemID string) []float64 {
	item := c.item(itemID)
	if item == nil {
		return nil
	}
	return append([]float64(nil), item.Vector...)
}
