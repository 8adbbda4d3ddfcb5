// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

// Package storage persists recommendation state in BadgerDB.
//
// # Overview
//
// BadgerStore implements the engine's persistence interfaces:
//   - recommend.StateStore: ratings, profiles and hybrid configs as they change
//   - recommend.ModelStore: the published factor model
//   - recommend.CheckpointStore: the last completed training epoch
//   - recommend.RatingSource: every stored rating, for retraining
//
// It also stores the item catalog so a restarted process can restore the
// content engine without replaying the catalog feed.
//
// # Key Layout
//
//	rating/{user_id}/{item_id}   JSON Rating (latest rating per pair)
//	item/{item_id}               JSON ItemFeatures
//	profile/{user_id}            JSON UserProfile
//	hybrid/{user_id}             JSON HybridConfig
//	model/current                snapshot of the FactorModel
//	model/checkpoint             snapshot of the TrainingCheckpoint
//
// # Snapshot Format
//
// The factor model and checkpoints are large numeric structures. They are
// gob-encoded, gzip-compressed and stored with a SHA-256 checksum of the
// uncompressed data that is verified on load:
//
//	envelope:
//	  - Meta (SnapshotMeta: kind, version, checksum, size, saved_at)
//	  - Compressed (gzip-compressed gob-encoded value)
//
// # Thread Safety
//
// All operations run in Badger transactions and are safe for concurrent use.
package storage
