// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package reranking

import (
	"context"
	"sort"
)

// Static implements greedy diversity selection with per-item diversity
// scores that are computed once and never updated.
//
// Every candidate's diversity is its feature dissimilarity to the
// highest-scored candidate. Selection takes that candidate first and then
// repeatedly picks the remaining candidate maximizing
//
//	score + diversityFactor * diversity
//
// Because diversity does not change as the selection grows, the greedy loop
// reduces to a single sort of the remaining candidates. A novelty bonus of
// noveltyFactor * (1 - popularity) is then added to each selected score.
type Static struct{}

// NewStatic creates a static diversity reranker.
func NewStatic() *Static {
	return &Static{}
}

// Name returns the reranker identifier.
func (s *Static) Name() string {
	return ModeStatic
}

// Rerank selects up to opts.Limit candidates.
func (s *Static) Rerank(_ context.Context, cands []Candidate, opts Options) []Candidate {
	if len(cands) == 0 || opts.Limit <= 0 {
		return nil
	}
	limit := selectionLimit(len(cands), opts.Limit)

	ordered := byScore(cands)
	top := ordered[0]
	top.Diversity = 0

	rest := ordered[1:]
	for i := range rest {
		rest[i].Diversity = dissimilarity(rest[i].Vector, top.Vector)
	}
	sort.SliceStable(rest, func(i, j int) bool {
		a := rest[i].Score + opts.DiversityFactor*rest[i].Diversity
		b := rest[j].Score + opts.DiversityFactor*rest[j].Diversity
		if a != b {
			return a > b
		}
		return rest[i].ID < rest[j].ID
	})

	selected := make([]Candidate, 0, limit)
	selected = append(selected, top)
	selected = append(selected, rest[:limit-1]...)
	applyNovelty(selected, opts.NoveltyFactor)
	return selected
}

var _ Reranker = (*Static)(nil)
