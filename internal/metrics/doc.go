// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered with the default registry through promauto and
are exposed by the ops server at /metrics:

	curl http://localhost:9464/metrics

# Available Metrics

Recommendation:
  - drillwise_recommend_requests_total{result}
  - drillwise_recommend_duration_seconds
  - drillwise_subengine_failures_total{engine,reason}

Training and feedback:
  - drillwise_training_runs_total{result}
  - drillwise_training_rmse
  - drillwise_feedback_processed_total{bucket}
  - drillwise_hybrid_weight_average{bucket}

Feed and storage:
  - drillwise_feed_messages_consumed_total{topic}
  - drillwise_store_operation_duration_seconds{operation}

# Usage

Components call the Record* helpers rather than touching collectors directly:

	metrics.RecordRecommend("ok", len(items), time.Since(start))
*/
package metrics
