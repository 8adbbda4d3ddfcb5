// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for:
// - Recommendation requests and latency
// - Result cache efficiency
// - Model training runs and quality
// - Feedback-driven weight adaptation
// - Sub-engine circuit breakers
// - Event feed consumption
// - State store operations

var (
	// Recommendation Metrics
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drillwise_recommend_requests_total",
			Help: "Total number of recommendation requests",
		},
		[]string{"result"}, // "ok", "empty", "error", "cached"
	)

	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "drillwise_recommend_duration_seconds",
			Help:    "Duration of recommendation requests in seconds",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	RecommendItemsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "drillwise_recommend_items_returned",
			Help:    "Number of items returned per recommendation request",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
		},
	)

	ColdStartRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "drillwise_cold_start_requests_total",
			Help: "Recommendation requests served from the popularity fallback",
		},
	)

	SubEngineFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drillwise_subengine_failures_total",
			Help: "Sub-engine calls that failed and contributed nothing",
		},
		[]string{"engine", "reason"}, // reason: "error", "panic", "open"
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drillwise_cache_hits_total",
			Help: "Total number of result cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drillwise_cache_misses_total",
			Help: "Total number of result cache misses",
		},
		[]string{"cache"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "drillwise_cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drillwise_cache_evictions_total",
			Help: "Total number of cache evictions",
		},
		[]string{"cache"},
	)

	// Training Metrics
	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drillwise_training_runs_total",
			Help: "Total number of model training runs",
		},
		[]string{"result"}, // "success", "interrupted", "failed", "skipped"
	)

	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "drillwise_training_duration_seconds",
			Help:    "Duration of model training runs in seconds",
			Buckets: []float64{.1, .5, 1, 5, 10, 30, 60, 300, 600},
		},
	)

	TrainingRMSE = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "drillwise_training_rmse",
			Help: "Training-set RMSE of the published factor model",
		},
	)

	TrainingEpochs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "drillwise_training_epochs",
			Help: "Epochs completed by the last training run",
		},
	)

	ModelVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "drillwise_model_version",
			Help: "Version of the published factor model",
		},
	)

	RatingsRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "drillwise_ratings_recorded_total",
			Help: "Ratings added incrementally outside of training",
		},
	)

	// Feedback Metrics
	FeedbackProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drillwise_feedback_processed_total",
			Help: "Feedback records processed",
		},
		[]string{"bucket"}, // attributed bucket or "unattributed"
	)

	HybridWeight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "drillwise_hybrid_weight_average",
			Help: "Average hybrid weight across configured users",
		},
		[]string{"bucket"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "drillwise_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drillwise_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Event Feed Metrics
	FeedMessagesConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drillwise_feed_messages_consumed_total",
			Help: "Feed messages consumed per topic",
		},
		[]string{"topic"},
	)

	FeedMessagesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drillwise_feed_messages_failed_total",
			Help: "Feed messages that failed processing",
		},
		[]string{"topic", "reason"}, // reason: "decode", "invalid", "apply"
	)

	FeedProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "drillwise_feed_processing_duration_seconds",
			Help:    "Time to apply one feed message",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"topic"},
	)

	// Store Metrics
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "drillwise_store_operation_duration_seconds",
			Help:    "Duration of state store operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drillwise_store_errors_total",
			Help: "State store operation errors",
		},
		[]string{"operation"},
	)

	// Ops API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drillwise_api_requests_total",
			Help: "Total number of ops API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "drillwise_api_request_duration_seconds",
			Help:    "Duration of ops API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "drillwise_app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordRecommend records one recommendation request.
func RecordRecommend(result string, items int, duration time.Duration) {
	RecommendRequests.WithLabelValues(result).Inc()
	RecommendDuration.Observe(duration.Seconds())
	RecommendItemsReturned.Observe(float64(items))
}

// RecordSubEngineFailure records a sub-engine call that contributed nothing.
func RecordSubEngineFailure(engine, reason string) {
	SubEngineFailures.WithLabelValues(engine, reason).Inc()
}

// RecordTraining records the outcome of a training run.
func RecordTraining(result string, duration time.Duration, rmse float64, epochs, version int) {
	TrainingRuns.WithLabelValues(result).Inc()
	TrainingDuration.Observe(duration.Seconds())
	if result == "success" {
		TrainingRMSE.Set(rmse)
		TrainingEpochs.Set(float64(epochs))
		ModelVersion.Set(float64(version))
	}
}

// RecordFeedback records one processed feedback record.
func RecordFeedback(bucket string) {
	if bucket == "" {
		bucket = "unattributed"
	}
	FeedbackProcessed.WithLabelValues(bucket).Inc()
}

// UpdateHybridWeights publishes the average hybrid weights.
func UpdateHybridWeights(weights map[string]float64) {
	for bucket, w := range weights {
		HybridWeight.WithLabelValues(bucket).Set(w)
	}
}

// RecordCircuitBreakerTransition records a breaker state change.
func RecordCircuitBreakerTransition(name, from, to string, state float64) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(state)
}

// RecordFeedMessage records a consumed feed message.
func RecordFeedMessage(topic string, duration time.Duration, failReason string) {
	FeedMessagesConsumed.WithLabelValues(topic).Inc()
	FeedProcessingDuration.WithLabelValues(topic).Observe(duration.Seconds())
	if failReason != "" {
		FeedMessagesFailed.WithLabelValues(topic, failReason).Inc()
	}
}

// RecordStoreOperation records a state store operation.
func RecordStoreOperation(operation string, duration time.Duration, err error) {
	StoreOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		StoreErrors.WithLabelValues(operation).Inc()
	}
}

// RecordAPIRequest records an ops API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
