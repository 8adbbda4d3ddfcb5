// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package algorithms

import (
	"math"
	"time"

	"github.com/tomtom215/drillwise/internal/recommend"
)

// popularityStats are the per-item inputs of the popularity score.
type popularityStats struct {
	count  int
	avg    float64
	latest time.Time
}

func statsFromRow(row map[string]cell) popularityStats {
	var st popularityStats
	var sum float64
	for _, c := range row {
		st.count++
		sum += c.value
		if c.at.After(st.latest) {
			st.latest = c.at
		}
	}
	if st.count > 0 {
		st.avg = sum / float64(st.count)
	}
	return st
}

// popularityScore blends rating volume, rating quality and recency:
//
//	0.4 * count/maxCount + 0.4 * (avg-1)/4 + 0.2 * exp(-ageDays/recencyDays)
//
// Items without timestamps get no recency credit.
func popularityScore(st popularityStats, maxCount int, now time.Time, recencyDays float64) float64 {
	if st.count == 0 || maxCount == 0 {
		return 0
	}

	volume := float64(st.count) / float64(maxCount)
	quality := (st.avg - recommend.MinRating) / (recommend.MaxRating - recommend.MinRating)

	var recency float64
	if !st.latest.IsZero() && recencyDays > 0 {
		ageDays := now.Sub(st.latest).Hours() / 24
		if ageDays < 0 {
			ageDays = 0
		}
		recency = math.Exp(-ageDays / recencyDays)
	}

	return recommend.Clamp01(0.4*volume + 0.4*quality + 0.2*recency)
}
