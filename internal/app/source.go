// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package app

import (
	"context"

	"github.com/tomtom215/drillwise/internal/recommend"
)

// mergedSource reads every source in order and keeps one rating per user and
// item: the one with the latest timestamp, or the later source on a tie. The
// DuckDB export comes first and the store second, so ratings recorded online
// survive a retrain from the export.
type mergedSource []recommend.RatingSource

func (m mergedSource) Ratings(ctx context.Context) ([]recommend.Rating, error) {
	type pair struct{ user, item string }

	var out []recommend.Rating
	index := make(map[pair]int)
	for _, src := range m {
		ratings, err := src.Ratings(ctx)
		if err != nil {
			return nil, err
		}
		for i := range ratings {
			r := ratings[i]
			k := pair{r.UserID, r.ItemID}
			if at, seen := index[k]; seen {
				if !r.Timestamp.Before(out[at].Timestamp) {
					out[at] = r
				}
				continue
			}
			index[k] = len(out)
			out = append(out, r)
		}
	}
	return out, nil
}
