// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package recommend

import (
	"context"
	"time"
)

// Rating bounds. Every stored rating and every prediction is clamped to
// [MinRating, MaxRating].
const (
	MinRating = 1.0
	MaxRating = 5.0
)

// Algorithm bucket names used for contributions and weight adaptation.
const (
	AlgorithmCollaborative = "collaborative"
	AlgorithmContent       = "content"
	AlgorithmContext       = "context"
)

// InteractionKind classifies what a user did with an item.
type InteractionKind string

const (
	// InteractionView is a passive view; weight grows with time spent.
	InteractionView InteractionKind = "view"
	// InteractionComplete marks the item as finished.
	InteractionComplete InteractionKind = "complete"
	// InteractionLike is an explicit positive signal.
	InteractionLike InteractionKind = "like"
	// InteractionDislike is an explicit negative signal.
	InteractionDislike InteractionKind = "dislike"
	// InteractionBookmark saves the item for later.
	InteractionBookmark InteractionKind = "bookmark"
	// InteractionSkip means the item was shown and passed over.
	InteractionSkip InteractionKind = "skip"
)

// Valid reports whether k is one of the known interaction kinds.
func (k InteractionKind) Valid() bool {
	switch k {
	case InteractionView, InteractionComplete, InteractionLike,
		InteractionDislike, InteractionBookmark, InteractionSkip:
		return true
	default:
		return false
	}
}

// ItemType is the kind of training content.
type ItemType string

const (
	ItemScenario ItemType = "scenario"
	ItemDrill    ItemType = "drill"
	ItemCourse   ItemType = "course"
)

// LearningPace is how quickly a user wants profile preferences to move.
type LearningPace string

const (
	PaceSlow   LearningPace = "slow"
	PaceMedium LearningPace = "medium"
	PaceFast   LearningPace = "fast"
)

// Rating is an explicit or implicit user-item rating.
type Rating struct {
	// UserID identifies the rating user.
	UserID string `json:"user_id" validate:"required"`

	// ItemID identifies the rated item.
	ItemID string `json:"item_id" validate:"required"`

	// Value is the rating on the 1-5 scale. Out-of-range values are clamped.
	Value float64 `json:"value"`

	// Timestamp is when the rating was given.
	Timestamp time.Time `json:"timestamp"`

	// Implicit is true when the rating was derived from behavior.
	Implicit bool `json:"implicit,omitempty"`
}

// Interaction is a single user action on an item.
type Interaction struct {
	UserID string          `json:"user_id" validate:"required"`
	ItemID string          `json:"item_id" validate:"required"`
	Kind   InteractionKind `json:"kind" validate:"required,oneof=view complete like dislike bookmark skip"`

	// Rating is the optional 1-5 rating given with the interaction.
	Rating *float64 `json:"rating,omitempty" validate:"omitempty,rating"`

	// TimeSpent is the time spent on the item in minutes.
	TimeSpent float64 `json:"time_spent" validate:"gte=0"`

	// Completion is the completed fraction of the item (0-1).
	Completion float64 `json:"completion" validate:"unit"`

	Timestamp time.Time `json:"timestamp"`
}

// ItemFeatures describes a catalog item for content matching.
type ItemFeatures struct {
	// ItemID is the unique catalog identifier.
	ItemID string `json:"item_id" validate:"required"`

	// Title is the display title.
	Title string `json:"title,omitempty"`

	// Type is the content type (scenario, drill, course).
	Type ItemType `json:"type,omitempty" validate:"omitempty,oneof=scenario drill course"`

	// Category is the primary topic of the item.
	Category string `json:"category,omitempty"`

	// Difficulty is the item difficulty on the 1-5 scale.
	Difficulty float64 `json:"difficulty" validate:"rating"`

	// SkillRequirements maps skill name to importance (0-1).
	SkillRequirements map[string]float64 `json:"skill_requirements,omitempty" validate:"omitempty,dive,keys,required,endkeys,unit"`

	// LearningStyles maps learning style to suitability (0-1).
	LearningStyles map[string]float64 `json:"learning_styles,omitempty" validate:"omitempty,dive,keys,required,endkeys,unit"`

	Tags          []string `json:"tags,omitempty"`
	Concepts      []string `json:"concepts,omitempty"`
	Prerequisites []string `json:"prerequisites,omitempty"`

	// EstimatedTimeMinutes is the expected time to finish the item.
	EstimatedTimeMinutes float64 `json:"estimated_time_minutes" validate:"gte=0"`

	// Format is the interaction format (quiz, simulation, video, ...).
	Format string `json:"format,omitempty"`

	// Vector is the numeric feature vector. Derived at registration when empty.
	Vector []float64 `json:"vector,omitempty"`
}

// UserProfile is the learned content profile of a user.
type UserProfile struct {
	UserID string `json:"user_id"`

	// SkillLevels maps skill name to points (>= 0).
	SkillLevels map[string]float64 `json:"skill_levels"`

	// LearningStyles maps style to preference; values sum to 1.
	LearningStyles map[string]float64 `json:"learning_styles"`

	// TopicInterests maps category, tag or concept to interest in [0, 1].
	TopicInterests map[string]float64 `json:"topic_interests"`

	// DifficultyPreference is the preferred difficulty (1-5).
	DifficultyPreference float64 `json:"difficulty_preference"`

	// TimePreferenceMinutes is the preferred session length per item.
	TimePreferenceMinutes float64 `json:"time_preference_minutes"`

	// CompletedItems maps item ID to completion time.
	CompletedItems map[string]time.Time `json:"completed_items"`

	// History is the most recent interactions, oldest first.
	History []Interaction `json:"history"`

	// FormatPreferences maps interaction format to preference in [0, 1].
	FormatPreferences map[string]float64 `json:"format_preferences"`

	LearningPace LearningPace `json:"learning_pace,omitempty"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Clone returns a deep copy of the profile.
func (p *UserProfile) Clone() UserProfile {
	out := *p
	out.SkillLevels = cloneFloatMap(p.SkillLevels)
	out.LearningStyles = cloneFloatMap(p.LearningStyles)
	out.TopicInterests = cloneFloatMap(p.TopicInterests)
	out.FormatPreferences = cloneFloatMap(p.FormatPreferences)
	out.CompletedItems = make(map[string]time.Time, len(p.CompletedItems))
	for k, v := range p.CompletedItems {
		out.CompletedItems[k] = v
	}
	out.History = append([]Interaction(nil), p.History...)
	return out
}

// Preferences are explicit settings a user chose in their profile.
type Preferences struct {
	// PreferredDifficulty overrides the learned difficulty preference (1-5).
	PreferredDifficulty float64 `json:"preferred_difficulty" validate:"omitempty,rating"`

	// FocusAreas are topics the user wants to work on.
	FocusAreas []string `json:"focus_areas,omitempty"`

	// AvailableTimeMinutes overrides the learned time preference.
	AvailableTimeMinutes float64 `json:"available_time_minutes" validate:"gte=0"`

	LearningPace LearningPace `json:"learning_pace,omitempty" validate:"omitempty,oneof=slow medium fast"`
}

// Neighbor is one entry of a per-key similarity list.
type Neighbor struct {
	ID         string  `json:"id"`
	Similarity float64 `json:"similarity"`
	Confidence float64 `json:"confidence"`
}

// FactorModel is a trained latent-factor model.
type FactorModel struct {
	Factors     int                  `json:"factors"`
	GlobalMean  float64              `json:"global_mean"`
	UserFactors map[string][]float64 `json:"user_factors"`
	ItemFactors map[string][]float64 `json:"item_factors"`
	UserBias    map[string]float64   `json:"user_bias"`
	ItemBias    map[string]float64   `json:"item_bias"`
	RMSE        float64              `json:"rmse"`
	Epochs      int                  `json:"epochs"`
	Version     int                  `json:"version"`
	TrainedAt   time.Time            `json:"trained_at"`
}

// Predict returns the clamped factor prediction when both vectors exist.
func (m *FactorModel) Predict(userID, itemID string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	pu, okU := m.UserFactors[userID]
	qi, okI := m.ItemFactors[itemID]
	if !okU || !okI {
		return 0, false
	}
	return ClampRating(m.raw(userID, itemID, pu, qi)), true
}

// raw returns the unclamped prediction.
func (m *FactorModel) raw(userID, itemID string, pu, qi []float64) float64 {
	p := m.GlobalMean + m.UserBias[userID] + m.ItemBias[itemID]
	for f := range pu {
		p += pu[f] * qi[f]
	}
	return p
}

// RawPredict returns the unclamped prediction used during training.
// Missing vectors contribute nothing.
func (m *FactorModel) RawPredict(userID, itemID string) float64 {
	return m.raw(userID, itemID, m.UserFactors[userID], m.ItemFactors[itemID])
}

// Clone returns a deep copy of the model.
func (m *FactorModel) Clone() *FactorModel {
	out := *m
	out.UserFactors = cloneVectors(m.UserFactors)
	out.ItemFactors = cloneVectors(m.ItemFactors)
	out.UserBias = cloneFloatMap(m.UserBias)
	out.ItemBias = cloneFloatMap(m.ItemBias)
	return &out
}

// TrainingCheckpoint is the state after the last fully completed epoch.
type TrainingCheckpoint struct {
	// Fingerprint identifies the training data the checkpoint belongs to.
	Fingerprint string `json:"fingerprint"`

	// Seed drives per-epoch shuffling so a resumed run replays identically.
	Seed int64 `json:"seed"`

	// Epoch is the number of completed epochs.
	Epoch int `json:"epoch"`

	// Model is the working model after Epoch epochs.
	Model FactorModel `json:"model"`

	// Best is the lowest-RMSE model seen so far.
	Best     FactorModel `json:"best"`
	BestRMSE float64     `json:"best_rmse"`

	// LastCheckRMSE is the RMSE at the most recent periodic check.
	LastCheckRMSE float64 `json:"last_check_rmse"`

	SavedAt time.Time `json:"saved_at"`
}

// HybridConfig is the per-user blending configuration.
type HybridConfig struct {
	// CollaborativeWeight, ContentWeight and ContextWeight sum to 1.
	CollaborativeWeight float64 `json:"collaborative_weight"`
	ContentWeight       float64 `json:"content_weight"`
	ContextWeight       float64 `json:"context_weight"`

	// DiversityFactor scales the diversity bonus during greedy selection.
	DiversityFactor float64 `json:"diversity_factor"`

	// NoveltyFactor scales the novelty bonus added after selection.
	NoveltyFactor float64 `json:"novelty_factor"`

	// AdaptationRate is the moving-average rate for feedback adaptation.
	AdaptationRate float64 `json:"adaptation_rate"`

	// MinConfidenceThreshold drops items with lower confidence.
	MinConfidenceThreshold float64 `json:"min_confidence_threshold"`

	// MaxRecommendations caps candidate lists and selection size.
	MaxRecommendations int `json:"max_recommendations"`
}

// Weight returns the weight of the named algorithm bucket.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (h HybridConfig) Weight(bucket string) float64 {
	switch bucket {
	case AlgorithmCollaborative:
		return h.CollaborativeWeight
	case AlgorithmContent:
		return h.ContentWeight
	case AlgorithmContext:
		return h.ContextWeight
	default:
		return 0
	}
}

// Normalize returns a copy whose three weights sum to 1.
// All-zero or negative weights reset to the default split.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (h HybridConfig) Normalize() HybridConfig {
	if h.CollaborativeWeight < 0 {
		h.CollaborativeWeight = 0
	}
	if h.ContentWeight < 0 {
		h.ContentWeight = 0
	}
	if h.ContextWeight < 0 {
		h.ContextWeight = 0
	}
	sum := h.CollaborativeWeight + h.ContentWeight + h.ContextWeight
	if sum == 0 {
		d := DefaultHybridConfig()
		h.CollaborativeWeight, h.ContentWeight, h.ContextWeight = d.CollaborativeWeight, d.ContentWeight, d.ContextWeight
		return h
	}
	h.CollaborativeWeight /= sum
	h.ContentWeight /= sum
	h.ContextWeight /= sum
	return h
}

// SessionContext describes the session a recommendation is requested for.
type SessionContext struct {
	UserID string `json:"user_id" validate:"required"`

	// SessionType is practice, study, review or challenge.
	SessionType string `json:"session_type,omitempty"`

	// TimeOfDay is morning, afternoon, evening or night.
	TimeOfDay string `json:"time_of_day,omitempty"`

	// DeviceType is desktop, mobile or tablet.
	DeviceType string `json:"device_type,omitempty"`

	// SessionDurationMinutes is the time the user has available.
	SessionDurationMinutes float64 `json:"session_duration_minutes,omitempty"`

	// Mood is focused, relaxed, tired, motivated or frustrated.
	Mood string `json:"mood,omitempty"`

	// ExcludeItems are never returned.
	ExcludeItems []string `json:"exclude_items,omitempty"`
}

// Request is a hybrid recommendation request.
type Request struct {
	Context SessionContext `json:"context"`

	// Count is the number of recommendations to return.
	// Defaults to Config.Limits.DefaultCount if zero.
	Count int `json:"count,omitempty"`

	// RequestID is a unique identifier for tracing.
	RequestID string `json:"request_id,omitempty"`
}

// Recommendation is one ranked output item.
type Recommendation struct {
	ItemID string   `json:"item_id"`
	Title  string   `json:"title,omitempty"`
	Type   ItemType `json:"type,omitempty"`

	// Score is the final score after diversity selection and novelty bonus.
	Score float64 `json:"score"`

	// Confidence is the weight-averaged confidence of contributing engines.
	Confidence float64 `json:"confidence"`

	// Reason is a short human-readable explanation.
	Reason string `json:"reason,omitempty"`

	// Contributions maps algorithm bucket to its raw score for this item.
	Contributions map[string]float64 `json:"contributions"`

	DiversityScore float64 `json:"diversity_score"`
	NoveltyScore   float64 `json:"novelty_score"`
}

// Response is a ranked recommendation list plus diagnostics.
type Response struct {
	Items    []Recommendation `json:"items"`
	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata contains timing and diagnostic information.
type ResponseMetadata struct {
	RequestID      string    `json:"request_id"`
	UserID         string    `json:"user_id"`
	AlgorithmsUsed []string  `json:"algorithms_used"`
	Candidates     int       `json:"candidates"`
	LatencyMS      int64     `json:"latency_ms"`
	CacheHit       bool      `json:"cache_hit"`
	ModelVersion   int       `json:"model_version"`
	TrainedAt      time.Time `json:"trained_at"`
	Timestamp      time.Time `json:"timestamp"`
}

// Feedback is a user's reaction to a served recommendation.
type Feedback struct {
	ID          string         `json:"id,omitempty"`
	UserID      string         `json:"user_id" validate:"required"`
	ItemID      string         `json:"item_id" validate:"required"`
	Interaction Interaction    `json:"interaction"`
	Context     SessionContext `json:"context" validate:"-"`

	// Satisfaction is the optional 1-5 satisfaction score.
	Satisfaction *float64 `json:"satisfaction,omitempty" validate:"omitempty,rating"`

	// Engagement is the observed engagement (>= 0, saturates at 1).
	Engagement float64 `json:"engagement" validate:"gte=0"`

	// Algorithm optionally attributes the feedback to one bucket.
	Algorithm string `json:"algorithm,omitempty" validate:"omitempty,oneof=collaborative content context"`

	Timestamp time.Time `json:"timestamp"`
}

// Prediction is a collaborative-filtering candidate.
type Prediction struct {
	ItemID string `json:"item_id"`

	// Score is the predicted rating on the 1-5 scale.
	Score float64 `json:"score"`

	Confidence float64 `json:"confidence"`

	// Sources maps "user", "item", "factor" or "popularity" to its estimate.
	Sources map[string]float64 `json:"sources,omitempty"`

	// ColdStart is true when the popularity fallback produced the entry.
	ColdStart bool `json:"cold_start,omitempty"`
}

// FactorScores is the per-factor breakdown of a content match.
type FactorScores struct {
	Skill      float64 `json:"skill"`
	Style      float64 `json:"style"`
	Difficulty float64 `json:"difficulty"`
	Topic      float64 `json:"topic"`
	Format     float64 `json:"format"`
	Time       float64 `json:"time"`
}

// Mean returns the unweighted mean of the six factors.
func (f FactorScores) Mean() float64 {
	return (f.Skill + f.Style + f.Difficulty + f.Topic + f.Format + f.Time) / 6
}

// ContentMatch is a content-based candidate.
type ContentMatch struct {
	ItemID string `json:"item_id"`

	// Score is the weighted six-factor score (0-1).
	Score float64 `json:"score"`

	Confidence float64      `json:"confidence"`
	Factors    FactorScores `json:"factors"`

	// Similarity is the cosine similarity between profile and item vectors.
	Similarity float64 `json:"similarity"`
}

// CollaborativeEngine is the collaborative-filtering side of the hybrid.
type CollaborativeEngine interface {
	// TrainFrom rebuilds tables, neighbors and the factor model from the
	// ratings returned by load. Implementations call load only after they
	// have started capturing concurrent AddRating calls, so no rating
	// accepted during the run is lost.
	TrainFrom(ctx context.Context, load RatingLoader, params TrainParams) error

	// Recommend returns up to count predictions for unrated, non-excluded items.
	Recommend(ctx context.Context, userID string, exclude map[string]struct{}, count int) ([]Prediction, error)

	// AddRating records one rating and refreshes the affected neighbor lists.
	AddRating(ctx context.Context, r Rating) error

	// Popularity returns the normalized popularity of an item (0-1).
	Popularity(itemID string) float64

	// Trending returns the count most popular items.
	Trending(count int) []TrendingItem

	// Stats returns table and model counters.
	Stats() CollaborativeStats

	IsTrained() bool
	Version() int
	LastTrainedAt() time.Time
}

// ContentEngine is the content-based side of the hybrid.
type ContentEngine interface {
	// Recommend returns up to count scored candidates.
	Recommend(ctx context.Context, userID string, exclude map[string]struct{}, count int) ([]ContentMatch, error)

	// UpdateProfile folds interactions into the user's profile.
	UpdateProfile(ctx context.Context, userID string, interactions []Interaction) error

	// SetPreferences applies explicit user preferences.
	SetPreferences(ctx context.Context, userID string, prefs Preferences) error

	// Item returns the registered features of an item.
	Item(itemID string) (ItemFeatures, bool)

	// Profile returns a copy of the user's profile.
	Profile(userID string) (UserProfile, bool)

	// ItemCount returns the number of registered items.
	ItemCount() int
}

// TrendingItem is one entry of the popularity ranking.
type TrendingItem struct {
	ItemID        string    `json:"item_id"`
	Popularity    float64   `json:"popularity"`
	Ratings       int       `json:"ratings"`
	AverageRating float64   `json:"average_rating"`
	LastRatedAt   time.Time `json:"last_rated_at"`
}

// CollaborativeStats are diagnostic counters of the collaborative engine.
type CollaborativeStats struct {
	Users        int     `json:"users"`
	Items        int     `json:"items"`
	Ratings      int     `json:"ratings"`
	GlobalMean   float64 `json:"global_mean"`
	ModelVersion int     `json:"model_version"`
	RMSE         float64 `json:"rmse"`
}

// RatingLoader reads the ratings for one training run.
type RatingLoader func(ctx context.Context) ([]Rating, error)

// StaticRatings returns a loader that always yields ratings.
func StaticRatings(ratings []Rating) RatingLoader {
	return func(context.Context) ([]Rating, error) {
		return ratings, nil
	}
}

// RatingSource supplies training ratings.
type RatingSource interface {
	Ratings(ctx context.Context) ([]Rating, error)
}

// StateStore persists state changes made by the engine.
type StateStore interface {
	SaveRating(ctx context.Context, r Rating) error
	SaveProfile(ctx context.Context, p UserProfile) error
	SaveHybridConfig(ctx context.Context, userID string, cfg HybridConfig) error
}

// ItemStore persists catalog items. A StateStore that also implements it
// receives every registered catalog batch.
type ItemStore interface {
	SaveItems(ctx context.Context, items []ItemFeatures) error
}

// CheckpointStore persists training checkpoints.
type CheckpointStore interface {
	SaveCheckpoint(ctx context.Context, cp *TrainingCheckpoint) error
	LoadCheckpoint(ctx context.Context) (*TrainingCheckpoint, error)
	ClearCheckpoint(ctx context.Context) error
}

// ModelStore persists the published factor model.
type ModelStore interface {
	SaveModel(ctx context.Context, m *FactorModel) error
}

// ResultCache caches ranked responses per user.
type ResultCache interface {
	Get(ctx context.Context, key string) (*Response, bool)
	Set(ctx context.Context, key string, resp *Response, ttl time.Duration)
	InvalidateUser(ctx context.Context, userID string)
	Clear(ctx context.Context)
}

// TrainingStatus represents the current training state.
type TrainingStatus struct {
	IsTraining             bool      `json:"is_training"`
	LastTrainedAt          time.Time `json:"last_trained_at"`
	LastTrainingDurationMS int64     `json:"last_training_duration_ms"`
	LastError              string    `json:"last_error,omitempty"`
	RatingCount            int       `json:"rating_count"`
	UserCount              int       `json:"user_count"`
	ItemCount              int       `json:"item_count"`
	ModelVersion           int       `json:"model_version"`
}

// Stats are diagnostic counters for observability collaborators.
type Stats struct {
	Served              int64   `json:"served"`
	RequestCount        int64   `json:"request_count"`
	CacheHits           int64   `json:"cache_hits"`
	CacheMisses         int64   `json:"cache_misses"`
	ErrorCount          int64   `json:"error_count"`
	FeedbackCount       int64   `json:"feedback_count"`
	AverageRelevance    float64 `json:"average_relevance"`
	ClickThroughRate    float64 `json:"click_through_rate"`
	CompletionRate      float64 `json:"completion_rate"`
	AverageSatisfaction float64 `json:"average_satisfaction"`

	// ConfiguredUsers is the number of users with a hybrid configuration.
	ConfiguredUsers int `json:"configured_users"`

	// AverageWeights maps bucket to the mean weight across configured users.
	AverageWeights map[string]float64 `json:"average_weights"`

	ModelTrained bool           `json:"model_trained"`
	Training     TrainingStatus `json:"training"`
}

// ClampRating clamps v to the rating scale.
func ClampRating(v float64) float64 {
	switch {
	case v < MinRating:
		return MinRating
	case v > MaxRating:
		return MaxRating
	default:
		return v
	}
}

// Clamp01 clamps v to [0, 1].
func Clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func cloneFloatMap(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneVectors(m map[string][]float64) map[string][]float64 {
	out := make(map[string][]float64, len(m))
	for k, v := range m {
		out[k] = append([]float64(nil), v...)
	}
	return out
}
