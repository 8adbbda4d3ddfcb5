// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package recommend

import "errors"

var (
	// ErrTrainingInProgress is returned when a training run is already active.
	ErrTrainingInProgress = errors.New("training already in progress")

	// ErrTrainingInterrupted is returned when training stopped mid-run.
	// The last completed epoch is kept as a checkpoint for the next run.
	ErrTrainingInterrupted = errors.New("training interrupted")

	// ErrInsufficientData is returned when there is too little data to train.
	ErrInsufficientData = errors.New("insufficient training data")

	// ErrInvalidItem is returned when catalog input fails validation.
	ErrInvalidItem = errors.New("invalid item")

	// ErrEmptyUserID is returned for requests without a user.
	ErrEmptyUserID = errors.New("user id is required")

	// ErrNotFound is returned by stores for missing keys.
	ErrNotFound = errors.New("not found")
)
