// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package eventprocessor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/drillwise/internal/logging"
)

// ConsumerConfig holds configuration for the feed consumer.
type ConsumerConfig struct {
	// CloseTimeout is how long to wait for handlers to finish when closing.
	CloseTimeout time.Duration

	// Retry configuration for transient failures.
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64

	// RateLimit is messages per second across all topics (0 = disabled).
	RateLimit float64
	Burst     int

	// PoisonTopic receives messages that can never be applied. Empty means
	// such messages are logged and acknowledged.
	PoisonTopic string
}

// DefaultConsumerConfig returns production defaults for the consumer.
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		CloseTimeout:         30 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 200 * time.Millisecond,
		RetryMaxInterval:     5 * time.Second,
		RetryMultiplier:      2.0,
		RateLimit:            0,
		Burst:                1,
		PoisonTopic:          "drillwise.poison",
	}
}

// Consumer applies feed messages to a Sink through a Watermill router.
//
// Middleware, outer to inner:
//  1. Recoverer - convert handler panics to errors
//  2. Retry - exponential backoff for transient failures
//  3. Poison queue - route permanent failures to PoisonTopic and ack them
//
// A message whose handler still fails after retries is nacked for
// redelivery.
type Consumer struct {
	cfg       ConsumerConfig
	sub       message.Subscriber
	poisonPub message.Publisher
	handlers  *handlers
	logger    zerolog.Logger

	mu      sync.Mutex
	router  *message.Router
	cancel  context.CancelFunc
	done    chan struct{}
	running atomic.Bool
}

// NewConsumer creates a consumer reading every feed topic from sub.
// poisonPub may be nil.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewConsumer(cfg ConsumerConfig, sub message.Subscriber, poisonPub message.Publisher, sink Sink, logger zerolog.Logger) (*Consumer, error) {
	if sub == nil {
		return nil, fmt.Errorf("%w: subscriber required", ErrInvalidConfig)
	}
	if sink == nil {
		return nil, fmt.Errorf("%w: sink required", ErrInvalidConfig)
	}
	if cfg.RateLimit < 0 {
		return nil, fmt.Errorf("%w: negative rate limit", ErrInvalidConfig)
	}

	log := logger.With().Str("component", "feed").Logger()
	h := &handlers{sink: sink, logger: log}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		h.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Consumer{
		cfg:       cfg,
		sub:       sub,
		poisonPub: poisonPub,
		handlers:  h,
		logger:    log,
	}, nil
}

func (c *Consumer) newRouter() (*message.Router, error) {
	wlog := logging.NewWatermillLogger(c.logger)

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: c.cfg.CloseTimeout}, wlog)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	router.AddMiddleware(middleware.Recoverer)

	if c.cfg.RetryMaxRetries > 0 {
		retry := middleware.Retry{
			MaxRetries:      c.cfg.RetryMaxRetries,
			InitialInterval: c.cfg.RetryInitialInterval,
			MaxInterval:     c.cfg.RetryMaxInterval,
			Multiplier:      c.cfg.RetryMultiplier,
			Logger:          wlog,
		}
		router.AddMiddleware(retry.Middleware)
	}

	hasPoisonQueue := c.poisonPub != nil && c.cfg.PoisonTopic != ""
	if hasPoisonQueue {
		poisonQueue, err := middleware.PoisonQueueWithFilter(c.poisonPub, c.cfg.PoisonTopic, IsPermanent)
		if err != nil {
			return nil, fmt.Errorf("create poison queue middleware: %w", err)
		}
		router.AddMiddleware(poisonQueue)
	}

	for topic, apply := range c.handlers.byTopic() {
		router.AddConsumerHandler("drillwise-"+topic, topic, c.sub, c.handlers.handle(topic, apply, hasPoisonQueue))
	}
	return router, nil
}

// Start runs the router in the background and returns once every handler
// is subscribed, or with the error that stopped it first.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.router != nil {
		return fmt.Errorf("consumer already started")
	}

	router, err := c.newRouter()
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.running.Store(true)
		defer c.running.Store(false)
		if err := router.Run(runCtx); err != nil {
			c.logger.Error().Err(err).Msg("Feed router stopped")
			errCh <- err
		}
	}()

	select {
	case <-router.Running():
	case err := <-errCh:
		cancel()
		return fmt.Errorf("run feed router: %w", err)
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	}

	c.router = router
	c.cancel = cancel
	c.done = done
	c.logger.Info().Strs("topics", Topics).Msg("Feed consumer started")
	return nil
}

// Shutdown stops the router, waiting for in-flight messages up to
// CloseTimeout or ctx, whichever ends first.
func (c *Consumer) Shutdown(ctx context.Context) {
	c.mu.Lock()
	router, cancel, done := c.router, c.cancel, c.done
	c.router, c.cancel, c.done = nil, nil, nil
	c.mu.Unlock()
	if router == nil {
		return
	}

	if err := router.Close(); err != nil {
		c.logger.Warn().Err(err).Msg("Feed router close failed")
	}
	cancel()

	select {
	case <-done:
		c.logger.Info().Msg("Feed consumer stopped")
	case <-ctx.Done():
		c.logger.Warn().Msg("Feed consumer shutdown timed out")
	}
}

// IsRunning reports whether the router is processing messages.
func (c *Consumer) IsRunning() bool {
	return c.running.Load()
}
