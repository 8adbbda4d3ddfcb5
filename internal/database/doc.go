// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

/*
Package database reads training ratings from a DuckDB analytics export.

The export holds a single table:

	ratings(user_id VARCHAR, item_id VARCHAR, rating DOUBLE, ts TIMESTAMP, implicit BOOLEAN)

*DB implements recommend.RatingSource, so it can replace the Badger rating
log as the input of scheduled training when source.kind is duckdb. The
drillctl export command writes the Badger rating log into this table.
*/
package database
