// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

// Package recommend implements the hybrid recommendation engine for training
// content (scenarios, drills and courses).
//
// # Architecture
//
// The Engine blends two sub-engines and the request's session context:
//
//   - Collaborative filtering: user-based and item-based neighborhoods plus
//     a matrix factorization model, with a popularity fallback for new users
//   - Content-based filtering: six-factor matching of item features against
//     a learned user profile (skills, learning style, difficulty, topics,
//     format, time)
//   - Session context: session type, time of day, device, available time
//     and mood, each scoring how well an item fits right now
//
// Sub-engines live in the algorithms subpackage; final selection with
// diversity and novelty bonuses lives in the reranking subpackage.
//
// # Scoring
//
// For each candidate item:
//
//	score      = w_cf * cf * m + w_cb * cb * m + w_ctx * ctx
//	confidence = weighted mean of the contributing engines' confidence
//
// cf is the predicted rating mapped onto [0, 1], cb the content score, ctx the
// context score and m the context multiplier. The weights are per user and
// move toward the buckets whose recommendations earn better feedback.
//
// # Failure Isolation
//
// Each sub-engine runs behind its own circuit breaker. An engine that
// errors, panics or times out contributes nothing to that request; the other
// engine's candidates are still ranked and returned.
//
// # Usage
//
//	cfg := recommend.DefaultConfig()
//	cf := algorithms.NewCollaborative(cfg.Collaborative, cfg.Seed, logger)
//	cb := algorithms.NewContentBased(cfg.Content, logger)
//
//	engine, err := recommend.NewEngine(cfg, cf, cb, logger)
//	if err != nil {
//	    return err
//	}
//
//	resp, err := engine.Recommend(ctx, recommend.Request{
//	    Context: recommend.SessionContext{UserID: userID, SessionType: "practice"},
//	    Count:   10,
//	})
//
// # Thread Safety
//
// The engine is safe for concurrent use. Feedback for one user is applied
// under that user's lock, so concurrent adaptations never lose an update.
// Training runs are exclusive; a second run returns ErrTrainingInProgress.
package recommend
