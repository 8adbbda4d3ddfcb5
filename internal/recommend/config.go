// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package recommend

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Hybrid holds the defaults every new user's HybridConfig starts from.
	Hybrid HybridConfig `json:"hybrid"`

	// Context weights the per-factor context impacts.
	Context ContextWeights `json:"context"`

	// Collaborative contains parameters for the collaborative-filtering engine.
	Collaborative CollaborativeConfig `json:"collaborative"`

	// Content contains parameters for the content-based engine.
	Content ContentConfig `json:"content"`

	// Training contains training schedule and SGD parameters.
	Training TrainingConfig `json:"training"`

	// Feedback contains weight adaptation parameters.
	Feedback FeedbackConfig `json:"feedback"`

	// Breaker configures the circuit breaker around each sub-engine.
	Breaker BreakerConfig `json:"breaker"`

	// Limits contains operational limits.
	Limits LimitsConfig `json:"limits"`

	// Cache contains result caching parameters.
	Cache CacheConfig `json:"cache"`

	// Reranking selects the diversity reranker.
	Reranking RerankingConfig `json:"reranking"`

	// Seed is the random seed for deterministic training.
	// If zero, a fixed default seed is used.
	Seed int64 `json:"seed"`
}

// ContextWeights weights each context factor in the context score.
type ContextWeights struct {
	// SessionType default: 0.30.
	SessionType float64 `json:"session_type"`

	// TimeOfDay default: 0.15.
	TimeOfDay float64 `json:"time_of_day"`

	// DeviceType default: 0.10.
	DeviceType float64 `json:"device_type"`

	// SessionDuration default: 0.25.
	SessionDuration float64 `json:"session_duration"`

	// Mood default: 0.20.
	Mood float64 `json:"mood"`
}

// ToMap returns the weights keyed by context factor name.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (w ContextWeights) ToMap() map[string]float64 {
	return map[string]float64{
		FactorSessionType:     w.SessionType,
		FactorTimeOfDay:       w.TimeOfDay,
		FactorDeviceType:      w.DeviceType,
		FactorSessionDuration: w.SessionDuration,
		FactorMood:            w.Mood,
	}
}

// TrainParams are the SGD matrix factorization parameters.
type TrainParams struct {
	// Factors is the latent vector length.
	// Default: 20.
	Factors int `json:"factors"`

	// LearningRate is the SGD step size.
	// Default: 0.01.
	LearningRate float64 `json:"learning_rate"`

	// Regularization is the L2 penalty.
	// Default: 0.02.
	Regularization float64 `json:"regularization"`

	// Iterations is the maximum number of epochs.
	// Default: 100.
	Iterations int `json:"iterations"`

	// MinImprovement stops training once RMSE improves less than this
	// between two periodic checks.
	// Default: 0.0001.
	MinImprovement float64 `json:"min_improvement"`
}

// CollaborativeConfig contains parameters for collaborative filtering.
type CollaborativeConfig struct {
	// MaxNeighbors is the length of each neighbor list.
	// Default: 50.
	MaxNeighbors int `json:"max_neighbors"`

	// MinCommon is the minimum co-rated entries for a similarity.
	// Default: 2.
	MinCommon int `json:"min_common"`

	// ConfidenceSaturation is the co-rated count at which confidence reaches 1.
	// Default: 10.
	ConfidenceSaturation int `json:"confidence_saturation"`

	// ColdStartThreshold is the rating count below which a user is cold.
	// Default: 3.
	ColdStartThreshold int `json:"cold_start_threshold"`

	// ColdStartConfidence is the fixed confidence of popularity fallbacks.
	// Default: 0.3.
	ColdStartConfidence float64 `json:"cold_start_confidence"`

	// UserWeight, ItemWeight and FactorWeight blend the three CF estimates.
	// Defaults: 0.3, 0.3, 0.4.
	UserWeight   float64 `json:"user_weight"`
	ItemWeight   float64 `json:"item_weight"`
	FactorWeight float64 `json:"factor_weight"`

	// RMSECheckInterval is the number of epochs between RMSE checks.
	// Default: 10.
	RMSECheckInterval int `json:"rmse_check_interval"`

	// PopularityRecencyDays is the recency decay constant in days.
	// Default: 30.
	PopularityRecencyDays float64 `json:"popularity_recency_days"`

	// NumWorkers is the number of parallel similarity workers.
	// Default: 4.
	NumWorkers int `json:"num_workers"`
}

// ContentConfig contains parameters for content-based filtering.
type ContentConfig struct {
	// Skills is the ordered skill vocabulary used for feature vectors.
	Skills []string `json:"skills"`

	// LearningStyles is the ordered style vocabulary.
	LearningStyles []string `json:"learning_styles"`

	// Categories is the ordered category vocabulary for one-hot encoding.
	Categories []string `json:"categories"`

	// Formats is the ordered format vocabulary for one-hot encoding.
	Formats []string `json:"formats"`

	// MaxSkillPoints is the skill ceiling.
	// Default: 2000.
	MaxSkillPoints float64 `json:"max_skill_points"`

	// DefaultSkillPoints seeds every skill of a new profile.
	// Default: 1000.
	DefaultSkillPoints float64 `json:"default_skill_points"`

	// DefaultDifficulty seeds a new profile's difficulty preference.
	// Default: 3.
	DefaultDifficulty float64 `json:"default_difficulty"`

	// DefaultTimeMinutes seeds a new profile's time preference.
	// Default: 30.
	DefaultTimeMinutes float64 `json:"default_time_minutes"`

	// MaxTimeMinutes normalizes item time in feature vectors.
	// Default: 120.
	MaxTimeMinutes float64 `json:"max_time_minutes"`

	// MinScore drops candidates scoring below it.
	// Default: 0.3.
	MinScore float64 `json:"min_score"`

	// HistoryLimit bounds the stored interaction history per user.
	// Default: 500.
	HistoryLimit int `json:"history_limit"`

	// Weights are the six factor weights.
	Weights FactorWeights `json:"weights"`
}

// FactorWeights weights the six content factors.
type FactorWeights struct {
	Skill      float64 `json:"skill"`
	Style      float64 `json:"style"`
	Difficulty float64 `json:"difficulty"`
	Topic      float64 `json:"topic"`
	Format     float64 `json:"format"`
	Time       float64 `json:"time"`
}

// TrainingConfig contains training schedule parameters.
type TrainingConfig struct {
	// Params are the SGD parameters.
	Params TrainParams `json:"params"`

	// Interval is the time between scheduled training runs.
	// Default: 6h.
	Interval time.Duration `json:"interval"`

	// MinRatings is the minimum number of ratings required to train.
	// Default: 10.
	MinRatings int `json:"min_ratings"`

	// Timeout is the maximum time allowed for a training run.
	// Default: 10m.
	Timeout time.Duration `json:"timeout"`
}

// FeedbackConfig contains weight adaptation parameters.
type FeedbackConfig struct {
	// Window is the number of recent performance values kept per bucket.
	// Default: 20.
	Window int `json:"window"`

	// ServedMemory is the number of served items remembered per user for
	// feedback attribution.
	// Default: 200.
	ServedMemory int `json:"served_memory"`
}

// BreakerConfig configures the sub-engine circuit breakers.
type BreakerConfig struct {
	// FailureThreshold is the consecutive failures that open the breaker.
	// Default: 5.
	FailureThreshold uint32 `json:"failure_threshold"`

	// Timeout is how long the breaker stays open.
	// Default: 30s.
	Timeout time.Duration `json:"timeout"`

	// MaxRequests is the number of probes allowed while half-open.
	// Default: 1.
	MaxRequests uint32 `json:"max_requests"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// DefaultCount is the default number of recommendations to return.
	// Default: 10.
	DefaultCount int `json:"default_count"`

	// MaxCount is the maximum allowed Count.
	// Default: 100.
	MaxCount int `json:"max_count"`

	// PredictionTimeout is the maximum time for one sub-engine call.
	// Default: 5s.
	PredictionTimeout time.Duration `json:"prediction_timeout"`
}

// CacheConfig contains caching parameters.
type CacheConfig struct {
	// Enabled controls whether caching is active.
	// Default: true.
	Enabled bool `json:"enabled"`

	// TTL is the cache entry time-to-live.
	// Default: 10m.
	TTL time.Duration `json:"ttl"`

	// MaxEntries is the maximum number of cached responses.
	// Default: 10000.
	MaxEntries int `json:"max_entries"`

	// InvalidateOnTrain controls whether the cache is cleared after training.
	// Default: true.
	InvalidateOnTrain bool `json:"invalidate_on_train"`
}

// RerankingConfig selects the diversity reranker.
type RerankingConfig struct {
	// Mode is "static" (diversity fixed per item against the top item) or
	// "mmr" (diversity against the growing selection).
	// Default: "static".
	Mode string `json:"mode"`

	// Lambda is the MMR relevance/diversity balance.
	// Default: 0.7.
	Lambda float64 `json:"lambda"`
}

// DefaultHybridConfig returns the per-user defaults.
func DefaultHybridConfig() HybridConfig {
	return HybridConfig{
		CollaborativeWeight:    0.4,
		ContentWeight:          0.4,
		ContextWeight:          0.2,
		DiversityFactor:        0.3,
		NoveltyFactor:          0.2,
		AdaptationRate:         0.1,
		MinConfidenceThreshold: 0.3,
		MaxRecommendations:     20,
	}
}

// DefaultTrainParams returns default SGD parameters.
func DefaultTrainParams() TrainParams {
	return TrainParams{
		Factors:        20,
		LearningRate:   0.01,
		Regularization: 0.02,
		Iterations:     100,
		MinImprovement: 0.0001,
	}
}

// DefaultCollaborativeConfig returns default collaborative parameters.
func DefaultCollaborativeConfig() CollaborativeConfig {
	return CollaborativeConfig{
		MaxNeighbors:          50,
		MinCommon:             2,
		ConfidenceSaturation:  10,
		ColdStartThreshold:    3,
		ColdStartConfidence:   0.3,
		UserWeight:            0.3,
		ItemWeight:            0.3,
		FactorWeight:          0.4,
		RMSECheckInterval:     10,
		PopularityRecencyDays: 30,
		NumWorkers:            4,
	}
}

// DefaultContentConfig returns default content parameters.
func DefaultContentConfig() ContentConfig {
	return ContentConfig{
		Skills:             []string{"preflop", "postflop", "psychology", "mathematics", "bankroll", "tournament"},
		LearningStyles:     []string{"visual", "auditory", "reading", "kinesthetic"},
		Categories:         []string{"strategy", "mathematics", "psychology", "bankroll", "tournament", "cash_game"},
		Formats:            []string{"quiz", "simulation", "video", "article", "interactive"},
		MaxSkillPoints:     2000,
		DefaultSkillPoints: 1000,
		DefaultDifficulty:  3,
		DefaultTimeMinutes: 30,
		MaxTimeMinutes:     120,
		MinScore:           0.3,
		HistoryLimit:       500,
		Weights: FactorWeights{
			Skill:      0.35,
			Style:      0.20,
			Difficulty: 0.15,
			Topic:      0.15,
			Format:     0.10,
			Time:       0.05,
		},
	}
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() *Config {
	return &Config{
		Hybrid: DefaultHybridConfig(),
		Context: ContextWeights{
			SessionType:     0.30,
			TimeOfDay:       0.15,
			DeviceType:      0.10,
			SessionDuration: 0.25,
			Mood:            0.20,
		},
		Collaborative: DefaultCollaborativeConfig(),
		Content:       DefaultContentConfig(),
		Training: TrainingConfig{
			Params:     DefaultTrainParams(),
			Interval:   6 * time.Hour,
			MinRatings: 10,
			Timeout:    10 * time.Minute,
		},
		Feedback: FeedbackConfig{
			Window:       20,
			ServedMemory: 200,
		},
		Breaker: BreakerConfig{
			FailureThreshold: 5,
			Timeout:          30 * time.Second,
			MaxRequests:      1,
		},
		Limits: LimitsConfig{
			DefaultCount:      10,
			MaxCount:          100,
			PredictionTimeout: 5 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:           true,
			TTL:               10 * time.Minute,
			MaxEntries:        10000,
			InvalidateOnTrain: true,
		},
		Reranking: RerankingConfig{
			Mode:   "static",
			Lambda: 0.7,
		},
		Seed: 42,
	}
}

// Validate checks the configuration for errors.
//
//nolint:gocyclo // validation needs to check many fields
func (c *Config) Validate() error {
	h := c.Hybrid
	if h.CollaborativeWeight < 0 || h.ContentWeight < 0 || h.ContextWeight < 0 {
		return fmt.Errorf("hybrid weights must be non-negative")
	}
	if h.CollaborativeWeight+h.ContentWeight+h.ContextWeight == 0 {
		return fmt.Errorf("hybrid weights must not all be zero")
	}
	if h.AdaptationRate < 0 || h.AdaptationRate > 1 {
		return fmt.Errorf("hybrid.adaptation_rate must be in [0, 1], got %f", h.AdaptationRate)
	}
	if h.MinConfidenceThreshold < 0 || h.MinConfidenceThreshold > 1 {
		return fmt.Errorf("hybrid.min_confidence_threshold must be in [0, 1], got %f", h.MinConfidenceThreshold)
	}
	if h.MaxRecommendations < 1 {
		return fmt.Errorf("hybrid.max_recommendations must be positive, got %d", h.MaxRecommendations)
	}

	p := c.Training.Params
	if p.Factors < 1 {
		return fmt.Errorf("training.params.factors must be positive, got %d", p.Factors)
	}
	if p.LearningRate <= 0 {
		return fmt.Errorf("training.params.learning_rate must be positive, got %f", p.LearningRate)
	}
	if p.Regularization < 0 {
		return fmt.Errorf("training.params.regularization must be non-negative, got %f", p.Regularization)
	}
	if p.Iterations < 1 {
		return fmt.Errorf("training.params.iterations must be positive, got %d", p.Iterations)
	}
	if c.Training.Timeout <= 0 {
		return fmt.Errorf("training.timeout must be positive, got %v", c.Training.Timeout)
	}

	if c.Collaborative.MaxNeighbors < 1 {
		return fmt.Errorf("collaborative.max_neighbors must be positive, got %d", c.Collaborative.MaxNeighbors)
	}
	if c.Collaborative.MinCommon < 1 {
		return fmt.Errorf("collaborative.min_common must be positive, got %d", c.Collaborative.MinCommon)
	}

	if c.Content.MaxSkillPoints <= 0 {
		return fmt.Errorf("content.max_skill_points must be positive, got %f", c.Content.MaxSkillPoints)
	}
	w := c.Content.Weights
	if sum := w.Skill + w.Style + w.Difficulty + w.Topic + w.Format + w.Time; math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("content.weights must sum to 1, got %f", sum)
	}

	if c.Limits.DefaultCount < 1 {
		return fmt.Errorf("limits.default_count must be positive, got %d", c.Limits.DefaultCount)
	}
	if c.Limits.MaxCount < c.Limits.DefaultCount {
		return fmt.Errorf("limits.max_count must be >= limits.default_count, got %d < %d", c.Limits.MaxCount, c.Limits.DefaultCount)
	}
	if c.Feedback.Window < 1 {
		return fmt.Errorf("feedback.window must be positive, got %d", c.Feedback.Window)
	}
	if m := c.Reranking.Mode; m != "" && m != "static" && m != "mmr" {
		return fmt.Errorf("reranking.mode must be static or mmr, got %q", m)
	}
	if c.Reranking.Lambda < 0 || c.Reranking.Lambda > 1 {
		return fmt.Errorf("reranking.lambda must be in [0, 1], got %f", c.Reranking.Lambda)
	}

	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	out := *c
	out.Content.Skills = append([]string(nil), c.Content.Skills...)
	out.Content.LearningStyles = append([]string(nil), c.Content.LearningStyles...)
	out.Content.Categories = append([]string(nil), c.Content.Categories...)
	out.Content.Formats = append([]string(nil), c.Content.Formats...)
	return &out
}

// MarshalJSON implements custom JSON marshaling for duration fields.
func (c *Config) MarshalJSON() ([]byte, error) {
	type Alias Config
	type training struct {
		Params     TrainParams `json:"params"`
		Interval   string      `json:"interval"`
		MinRatings int         `json:"min_ratings"`
		Timeout    string      `json:"timeout"`
	}
	type cache struct {
		Enabled           bool   `json:"enabled"`
		TTL               string `json:"ttl"`
		MaxEntries        int    `json:"max_entries"`
		InvalidateOnTrain bool   `json:"invalidate_on_train"`
	}
	return json.Marshal(&struct {
		*Alias
		Training training `json:"training"`
		Cache    cache    `json:"cache"`
	}{
		Alias: (*Alias)(c),
		Training: training{
			Params:     c.Training.Params,
			Interval:   c.Training.Interval.String(),
			MinRatings: c.Training.MinRatings,
			Timeout:    c.Training.Timeout.String(),
		},
		Cache: cache{
			Enabled:           c.Cache.Enabled,
			TTL:               c.Cache.TTL.String(),
			MaxEntries:        c.Cache.MaxEntries,
			InvalidateOnTrain: c.Cache.InvalidateOnTrain,
		},
	})
}
