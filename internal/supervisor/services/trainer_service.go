// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/drillwise/internal/recommend"
)

// Trainer is satisfied by *recommend.Engine.
type Trainer interface {
	Train(ctx context.Context) error
}

// TrainerConfig controls the training schedule.
type TrainerConfig struct {
	// TrainOnStartup runs a training cycle as soon as the service starts.
	TrainOnStartup bool

	// Interval between scheduled runs. Default: 1h
	Interval time.Duration

	// RetryInterval is the delay before resuming an interrupted run from its
	// checkpoint. Default: 1m
	RetryInterval time.Duration
}

// TrainerService retrains the collaborative model on a schedule.
//
// Interrupted runs leave a checkpoint behind; the service retries them after
// RetryInterval instead of waiting a full Interval.
type TrainerService struct {
	trainer Trainer
	config  TrainerConfig
	logger  zerolog.Logger
	name    string
}

// NewTrainerService creates a trainer service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTrainerService(trainer Trainer, cfg TrainerConfig, logger zerolog.Logger) *TrainerService {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = time.Minute
	}
	return &TrainerService{
		trainer: trainer,
		config:  cfg,
		logger:  logger.With().Str("service", "trainer").Logger(),
		name:    "trainer",
	}
}

// Serve implements suture.Service.
func (s *TrainerService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("train_on_startup", s.config.TrainOnStartup).
		Dur("interval", s.config.Interval).
		Msg("Trainer starting")

	next := s.config.Interval
	if s.config.TrainOnStartup {
		next = s.run(ctx)
	}

	timer := time.NewTimer(next)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Trainer stopping")
			return ctx.Err()
		case <-timer.C:
			timer.Reset(s.run(ctx))
		}
	}
}

// run performs one training cycle and returns the delay until the next one.
func (s *TrainerService) run(ctx context.Context) time.Duration {
	err := s.trainer.Train(ctx)
	switch {
	case err == nil:
		return s.config.Interval
	case ctx.Err() != nil:
		return s.config.Interval
	case errors.Is(err, recommend.ErrTrainingInProgress):
		s.logger.Debug().Msg("Training already running, skipping cycle")
		return s.config.Interval
	case errors.Is(err, recommend.ErrInsufficientData):
		s.logger.Info().Err(err).Msg("Not enough ratings to train yet")
		return s.config.Interval
	case errors.Is(err, recommend.ErrTrainingInterrupted):
		s.logger.Warn().Dur("retry_in", s.config.RetryInterval).Msg("Training interrupted, resuming from checkpoint later")
		return s.config.RetryInterval
	default:
		s.logger.Warn().Err(err).Msg("Scheduled training failed")
		return s.config.Interval
	}
}

// String implements fmt.Stringer for suture's logs.
func (s *TrainerService) String() string {
	return s.name
}
