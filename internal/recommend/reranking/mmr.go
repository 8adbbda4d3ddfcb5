// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package reranking

import (
	"context"
)

// MMR implements Maximal Marginal Relevance reranking.
// It balances relevance and diversity by iteratively selecting items
// that are both relevant and dissimilar to already selected items.
//
// The MMR formula is:
//
//	MMR = argmax[lambda * score(i) - (1-lambda) * max(sim(i, s)) for s in selected]
//
// Where sim is the cosine similarity of feature vectors. Unlike Static, the
// diversity of a candidate is measured against the whole selection so far.
//
// Reference:
// Carbonell, J., & Goldstein, J. (1998). "The Use of MMR, Diversity-Based
// Reranking for Reordering Documents and Producing Summaries." SIGIR 1998.
type MMR struct {
	// lambda balances relevance vs. diversity (0.0 to 1.0)
	lambda float64
}

// NewMMR creates a new MMR reranker.
func NewMMR(lambda float64) *MMR {
	return &MMR{lambda: clamp01(lambda)}
}

// Name returns the reranker identifier.
func (m *MMR) Name() string {
	return ModeMMR
}

// Rerank selects up to opts.Limit candidates. The recorded diversity of each
// candidate is its dissimilarity to the closest item selected before it.
func (m *MMR) Rerank(ctx context.Context, cands []Candidate, opts Options) []Candidate {
	if len(cands) == 0 || opts.Limit <= 0 {
		return nil
	}
	limit := selectionLimit(len(cands), opts.Limit)
	ordered := byScore(cands)

	// Pairwise similarities are computed lazily and only against picks.
	maxSim := make([]float64, len(ordered))
	taken := make([]bool, len(ordered))

	selected := make([]Candidate, 0, limit)
	for len(selected) < limit {
		if ctx.Err() != nil {
			break
		}

		bestIdx := -1
		bestMMR := 0.0
		for i := range ordered {
			if taken[i] {
				continue
			}
			score := m.lambda*ordered[i].Score - (1-m.lambda)*maxSim[i]
			// ordered is sorted by score then ID, so the first maximum wins ties.
			if bestIdx < 0 || score > bestMMR {
				bestMMR = score
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}

		pick := ordered[bestIdx]
		if len(selected) > 0 {
			pick.Diversity = 1 - maxSim[bestIdx]
		}
		taken[bestIdx] = true
		selected = append(selected, pick)

		for i := range ordered {
			if taken[i] {
				continue
			}
			if sim := 1 - dissimilarity(ordered[i].Vector, pick.Vector); sim > maxSim[i] {
				maxSim[i] = sim
			}
		}
	}

	applyNovelty(selected, opts.NoveltyFactor)
	return selected
}

var _ Reranker = (*MMR)(nil)
