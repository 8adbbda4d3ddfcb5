// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

// Package algorithms implements the two scoring engines behind the hybrid
// recommender.
//
// # Collaborative Filtering
//
// Collaborative keeps user-item and item-user rating tables and blends three
// estimates of an unseen rating:
//
//   - User-based: ratings of the most similar users
//   - Item-based: the user's own ratings of the most similar items
//   - Factor: a biased matrix factorization model trained with SGD
//
// Similarities are mean-centered cosine over co-rated entries, with a
// confidence that saturates at ConfidenceSaturation co-ratings. Neighbor
// lists are kept symmetric: AddRating refreshes the lists of the rating
// user and item and mirrors each new similarity into the other side.
//
// Users with fewer than ColdStartThreshold ratings are served from item
// popularity (count, average rating and recency).
//
// Training runs in the background. Ratings added while a run is active are
// journaled and replayed into the new tables before they are published, so
// no rating is lost across the swap. The SGD loop saves a checkpoint after
// every completed epoch; a cancelled run resumes from it when the training
// data is unchanged.
//
// # Content-Based Filtering
//
// ContentBased scores catalog items against a per-user profile on six
// factors: skill readiness, learning style, difficulty, topic interest,
// format and time. Profiles learn from interactions at a rate set by the
// user's learning pace.
//
//	c := algorithms.NewContentBased(cfg.Content, logger)
//	if err := c.RegisterItems(ctx, catalog); err != nil {
//	    return err
//	}
//	matches, err := c.Recommend(ctx, "user-1", nil, 20)
//
// # Thread Safety
//
// Both engines are safe for concurrent use. Per-user and per-item state is
// guarded by striped locks so unrelated updates do not contend.
package algorithms
