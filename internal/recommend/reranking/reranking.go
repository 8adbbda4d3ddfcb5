// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package reranking

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// Reranker modes accepted by New.
const (
	ModeStatic = "static"
	ModeMMR    = "mmr"
)

// neutralDissimilarity is used when either item has no feature vector.
const neutralDissimilarity = 0.5

// maxRerankSize limits slice allocations to prevent excessive memory usage.
const maxRerankSize = 10000

// Candidate is one combined item awaiting selection.
type Candidate struct {
	ID string

	// Score is the combined relevance score.
	Score float64

	// Vector is the item feature vector; may be empty.
	Vector []float64

	// Popularity is the normalized item popularity (0-1).
	Popularity float64

	// Diversity and Novelty are filled in by the reranker.
	Diversity float64
	Novelty   float64
}

// Options controls one rerank call.
type Options struct {
	// DiversityFactor scales the diversity bonus during selection.
	DiversityFactor float64

	// NoveltyFactor scales the novelty bonus added to selected scores.
	NoveltyFactor float64

	// Limit is the maximum number of candidates to select.
	Limit int
}

// Reranker selects and reorders candidates.
type Reranker interface {
	Name() string
	Rerank(ctx context.Context, cands []Candidate, opts Options) []Candidate
}

// New returns the reranker for a mode. lambda is only used by MMR.
func New(mode string, lambda float64) (Reranker, error) {
	switch mode {
	case "", ModeStatic:
		return NewStatic(), nil
	case ModeMMR:
		return NewMMR(lambda), nil
	default:
		return nil, fmt.Errorf("unknown reranker mode %q", mode)
	}
}

// dissimilarity is 1 - cosine similarity of two feature vectors, in [0, 1].
func dissimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return neutralDissimilarity
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return neutralDissimilarity
	}
	return clamp01(1 - dot/(math.Sqrt(na)*math.Sqrt(nb)))
}

// novelty is the inverse of popularity.
func novelty(popularity float64) float64 {
	return clamp01(1 - popularity)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// byScore returns a copy of cands ordered by score, ties by ID.
func byScore(cands []Candidate) []Candidate {
	out := make([]Candidate, len(cands))
	copy(out, cands)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func selectionLimit(n, limit int) int {
	if limit > maxRerankSize {
		limit = maxRerankSize
	}
	if limit > n {
		limit = n
	}
	return limit
}

// applyNovelty adds the novelty bonus to every selected candidate.
func applyNovelty(selected []Candidate, factor float64) {
	for i := range selected {
		selected[i].Novelty = novelty(selected[i].Popularity)
		selected[i].Score += factor * selected[i].Novelty
	}
}
