// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/drillwise/internal/recommend"
)

const ratingsSchema = `
	CREATE TABLE IF NOT EXISTS ratings (
		user_id  VARCHAR NOT NULL,
		item_id  VARCHAR NOT NULL,
		rating   DOUBLE NOT NULL,
		ts       TIMESTAMP NOT NULL,
		implicit BOOLEAN NOT NULL DEFAULT false
	)`

// queryTimeout bounds a full table scan of the ratings export.
const queryTimeout = 5 * time.Minute

var _ recommend.RatingSource = (*DB)(nil)

// EnsureSchema creates the ratings table if it does not exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, ratingsSchema); err != nil {
		return fmt.Errorf("create ratings table: %w", err)
	}
	return nil
}

// LoadRatings reads every rating in the export, oldest first. Values are
// clamped to the rating scale and rows without a user or item are skipped.
func (db *DB) LoadRatings(ctx context.Context) ([]recommend.Rating, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT user_id, item_id, rating, ts, COALESCE(implicit, false)
		FROM ratings
		WHERE user_id IS NOT NULL AND user_id <> ''
		  AND item_id IS NOT NULL AND item_id <> ''
		  AND rating IS NOT NULL
		ORDER BY ts, user_id, item_id`)
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	defer closeWithLog(rows, db.logger, "rows")

	var ratings []recommend.Rating
	for rows.Next() {
		var (
			r  recommend.Rating
			ts sql.NullTime
		)
		if err := rows.Scan(&r.UserID, &r.ItemID, &r.Value, &ts, &r.Implicit); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		if ts.Valid {
			r.Timestamp = ts.Time.UTC()
		}
		r.Value = recommend.ClampRating(r.Value)
		ratings = append(ratings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ratings: %w", err)
	}

	db.logger.Debug().
		Int("ratings", len(ratings)).
		Dur("duration", time.Since(start)).
		Msg("Loaded ratings from DuckDB")
	return ratings, nil
}

// Ratings implements recommend.RatingSource.
func (db *DB) Ratings(ctx context.Context) ([]recommend.Rating, error) {
	return db.LoadRatings(ctx)
}

// InsertRatings appends ratings in one transaction.
func (db *DB) InsertRatings(ctx context.Context, ratings []recommend.Rating) error {
	if len(ratings) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO ratings (user_id, item_id, rating, ts, implicit) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer closeWithLog(stmt, db.logger, "prepared statement")

	for i := range ratings {
		r := &ratings[i]
		if _, err := stmt.ExecContext(ctx, r.UserID, r.ItemID, r.Value, r.Timestamp.UTC(), r.Implicit); err != nil {
			return fmt.Errorf("insert rating %s/%s: %w", r.UserID, r.ItemID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ratings: %w", err)
	}
	return nil
}

// CountRatings returns the number of rows in the ratings table.
func (db *DB) CountRatings(ctx context.Context) (int64, error) {
	var n int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM ratings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count ratings: %w", err)
	}
	return n, nil
}
