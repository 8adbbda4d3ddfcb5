// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

// Package reranking selects the final recommendation list from combined
// candidates, trading relevance against diversity and novelty.
//
// # Available Rerankers
//
// Static (default):
//   - Diversity of each candidate is fixed: dissimilarity to the top item
//   - Greedy selection by score + diversityFactor * diversity
//
// MMR:
//   - Diversity is measured against everything selected so far
//   - Lambda controls the relevance/diversity tradeoff
//
// Both add noveltyFactor * (1 - popularity) to every selected score.
// Dissimilarity is 1 - cosine similarity of item feature vectors; items
// without a vector are treated as 0.5 dissimilar.
//
// # Usage Example
//
//	rr, err := reranking.New(reranking.ModeStatic, 0)
//	if err != nil {
//	    return err
//	}
//	selected := rr.Rerank(ctx, candidates, reranking.Options{
//	    DiversityFactor: 0.3,
//	    NoveltyFactor:   0.2,
//	    Limit:           20,
//	})
//
// # Thread Safety
//
// All rerankers are stateless and safe for concurrent use.
package reranking
