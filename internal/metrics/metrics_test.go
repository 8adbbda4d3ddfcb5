// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	io_prometheus_client "github.com/prometheus/client_model/go"
)

// getHistogramCount extracts the sample count from a Prometheus histogram
func getHistogramCount(h prometheus.Histogram) uint64 {
	var m io_prometheus_client.Metric
	if err := h.Write(&m); err != nil {
		return 0
	}
	return m.GetHistogram().GetSampleCount()
}

func TestRecordRecommend(t *testing.T) {
	tests := []struct {
		name     string
		result   string
		items    int
		duration time.Duration
	}{
		{name: "successful request", result: "ok", items: 10, duration: 5 * time.Millisecond},
		{name: "empty list", result: "empty", items: 0, duration: time.Millisecond},
		{name: "served from cache", result: "cached", items: 20, duration: 100 * time.Microsecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(RecommendRequests.WithLabelValues(tt.result))
			RecordRecommend(tt.result, tt.items, tt.duration)
			after := testutil.ToFloat64(RecommendRequests.WithLabelValues(tt.result))
			if after-before != 1 {
				t.Errorf("RecommendRequests{%s} delta = %v, want 1", tt.result, after-before)
			}
		})
	}
}

func TestRecordRecommend_Histograms(t *testing.T) {
	beforeLatency := getHistogramCount(RecommendDuration)
	beforeItems := getHistogramCount(RecommendItemsReturned)

	RecordRecommend("ok", 5, 3*time.Millisecond)

	if got := getHistogramCount(RecommendDuration) - beforeLatency; got != 1 {
		t.Errorf("RecommendDuration samples delta = %d, want 1", got)
	}
	if got := getHistogramCount(RecommendItemsReturned) - beforeItems; got != 1 {
		t.Errorf("RecommendItemsReturned samples delta = %d, want 1", got)
	}
}

func TestRecordTraining(t *testing.T) {
	beforeDuration := getHistogramCount(TrainingDuration)
	RecordTraining("success", 2*time.Second, 0.42, 30, 7)
	if got := getHistogramCount(TrainingDuration) - beforeDuration; got != 1 {
		t.Errorf("TrainingDuration samples delta = %d, want 1", got)
	}

	if got := testutil.ToFloat64(TrainingRMSE); got != 0.42 {
		t.Errorf("TrainingRMSE = %v, want 0.42", got)
	}
	if got := testutil.ToFloat64(TrainingEpochs); got != 30 {
		t.Errorf("TrainingEpochs = %v, want 30", got)
	}
	if got := testutil.ToFloat64(ModelVersion); got != 7 {
		t.Errorf("ModelVersion = %v, want 7", got)
	}

	// Failed runs leave the published gauges untouched.
	RecordTraining("failed", time.Second, 9.9, 1, 99)
	if got := testutil.ToFloat64(TrainingRMSE); got != 0.42 {
		t.Errorf("TrainingRMSE after failure = %v, want 0.42", got)
	}
}

func TestRecordFeedback(t *testing.T) {
	before := testutil.ToFloat64(FeedbackProcessed.WithLabelValues("unattributed"))
	RecordFeedback("")
	after := testutil.ToFloat64(FeedbackProcessed.WithLabelValues("unattributed"))
	if after-before != 1 {
		t.Errorf("unattributed feedback delta = %v, want 1", after-before)
	}
}

func TestUpdateHybridWeights(t *testing.T) {
	UpdateHybridWeights(map[string]float64{"collaborative": 0.5, "content": 0.3, "context": 0.2})

	if got := testutil.ToFloat64(HybridWeight.WithLabelValues("content")); got != 0.3 {
		t.Errorf("HybridWeight{content} = %v, want 0.3", got)
	}
}

func TestRecordCircuitBreakerTransition(t *testing.T) {
	RecordCircuitBreakerTransition("content", "closed", "open", 2)

	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("content")); got != 2 {
		t.Errorf("CircuitBreakerState = %v, want 2", got)
	}
	if got := testutil.ToFloat64(CircuitBreakerTransitions.WithLabelValues("content", "closed", "open")); got < 1 {
		t.Errorf("CircuitBreakerTransitions = %v, want >= 1", got)
	}
}

func TestRecordFeedMessage(t *testing.T) {
	before := testutil.ToFloat64(FeedMessagesFailed.WithLabelValues("ratings", "decode"))
	RecordFeedMessage("ratings", time.Millisecond, "decode")
	RecordFeedMessage("ratings", time.Millisecond, "")
	after := testutil.ToFloat64(FeedMessagesFailed.WithLabelValues("ratings", "decode"))
	if after-before != 1 {
		t.Errorf("FeedMessagesFailed delta = %v, want 1", after-before)
	}
}

func TestRecordStoreOperation(t *testing.T) {
	before := testutil.ToFloat64(StoreErrors.WithLabelValues("save_rating"))
	RecordStoreOperation("save_rating", time.Millisecond, nil)
	RecordStoreOperation("save_rating", time.Millisecond, errors.New("disk full"))
	after := testutil.ToFloat64(StoreErrors.WithLabelValues("save_rating"))
	if after-before != 1 {
		t.Errorf("StoreErrors delta = %v, want 1", after-before)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		endpoint   string
		statusCode string
	}{
		{name: "stats", method: "GET", endpoint: "/api/v1/stats", statusCode: "200"},
		{name: "trending", method: "GET", endpoint: "/api/v1/trending", statusCode: "200"},
		{name: "not found", method: "GET", endpoint: "/api/v1/unknown", statusCode: "404"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RecordAPIRequest(tt.method, tt.endpoint, tt.statusCode, time.Millisecond)
			if got := testutil.ToFloat64(APIRequestsTotal.WithLabelValues(tt.method, tt.endpoint, tt.statusCode)); got < 1 {
				t.Errorf("APIRequestsTotal = %v, want >= 1", got)
			}
		})
	}
}

func TestConcurrentMetricRecording(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				RecordRecommend("ok", 5, time.Millisecond)
				RecordSubEngineFailure("collaborative", "error")
				RecordFeedback("content")
			}
		}()
	}
	wg.Wait()
}

func TestMetricsRegistration(t *testing.T) {
	metrics := []prometheus.Collector{
		RecommendRequests,
		RecommendDuration,
		RecommendItemsReturned,
		ColdStartRequests,
		SubEngineFailures,
		CacheHits,
		CacheMisses,
		CacheSize,
		CacheEvictions,
		TrainingRuns,
		TrainingDuration,
		TrainingRMSE,
		TrainingEpochs,
		ModelVersion,
		RatingsRecorded,
		FeedbackProcessed,
		HybridWeight,
		CircuitBreakerState,
		CircuitBreakerTransitions,
		FeedMessagesConsumed,
		FeedMessagesFailed,
		FeedProcessingDuration,
		StoreOperationDuration,
		StoreErrors,
		APIRequestsTotal,
		APIRequestDuration,
		AppInfo,
	}

	for _, m := range metrics {
		ch := make(chan *prometheus.Desc, 10)
		m.Describe(ch)
		close(ch)

		count := 0
		for range ch {
			count++
		}
		if count == 0 {
			t.Errorf("Metric has no descriptors")
		}
	}
}

func TestMetricGathering(t *testing.T) {
	RecordRecommend("ok", 3, time.Millisecond)
	RecordAPIRequest("GET", "/healthz", "200", time.Millisecond)

	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer)
	if err != nil {
		t.Logf("Lint errors (may be expected): %v", err)
	}
	for _, p := range problems {
		t.Logf("Metric lint problem: %s", p.Text)
	}
}

func BenchmarkRecordRecommend(b *testing.B) {
	for i := 0; i < b.N; i++ {
		RecordRecommend("ok", 10, 5*time.Millisecond)
	}
}
