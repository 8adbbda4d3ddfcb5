// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tomtom215/drillwise/internal/metrics"
	"github.com/tomtom215/drillwise/internal/recommend"
)

// RedisConfig configures the shared result cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// Namespace prefixes every key so several deployments can share a server.
	// Default: "drillwise:".
	Namespace string

	// DialTimeout bounds connection setup.
	// Default: 5s.
	DialTimeout time.Duration
}

// scanBatch is the SCAN COUNT hint and the DEL batch size.
const scanBatch = 200

// Redis is a result cache shared across server replicas.
//
// Redis errors never fail a request: reads degrade to misses and writes
// are dropped with a warning.
type Redis struct {
	client    redis.UniversalClient
	namespace string
	logger    zerolog.Logger
}

// NewRedis connects to Redis and verifies the connection with PING.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRedis(ctx context.Context, cfg RedisConfig, logger zerolog.Logger) (*Redis, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return NewRedisWithClient(client, cfg.Namespace, logger), nil
}

// NewRedisWithClient wraps an existing client.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRedisWithClient(client redis.UniversalClient, namespace string, logger zerolog.Logger) *Redis {
	if namespace == "" {
		namespace = "drillwise:"
	}
	return &Redis{
		client:    client,
		namespace: namespace,
		logger:    logger.With().Str("component", "redis_cache").Logger(),
	}
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) key(k string) string {
	return r.namespace + k
}

// Get returns the cached response for key.
func (r *Redis) Get(ctx context.Context, key string) (*recommend.Response, bool) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("Redis cache read failed")
		return nil, false
	}
	resp, err := decodeResponse(data)
	if err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("Discarding undecodable cache entry")
		return nil, false
	}
	return resp, true
}

// Set caches resp under key for ttl.
func (r *Redis) Set(ctx context.Context, key string, resp *recommend.Response, ttl time.Duration) {
	data, err := encodeResponse(resp)
	if err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("Failed to encode cache entry")
		return
	}
	if err := r.client.Set(ctx, r.key(key), data, ttl).Err(); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("Redis cache write failed")
	}
}

// InvalidateUser drops every cached response of userID.
func (r *Redis) InvalidateUser(ctx context.Context, userID string) {
	pattern := escapePattern(r.key(recommend.UserCacheKeyPrefix(userID))) + "*"
	n, err := r.deleteMatching(ctx, pattern)
	if err != nil {
		r.logger.Warn().Err(err).Str("user_id", userID).Msg("Redis cache invalidation failed")
		return
	}
	metrics.CacheEvictions.WithLabelValues("redis").Add(float64(n))
}

// Clear drops every key in the namespace.
func (r *Redis) Clear(ctx context.Context) {
	n, err := r.deleteMatching(ctx, escapePattern(r.namespace)+"*")
	if err != nil {
		r.logger.Warn().Err(err).Msg("Redis cache clear failed")
		return
	}
	metrics.CacheEvictions.WithLabelValues("redis").Add(float64(n))
	r.logger.Debug().Int("keys", n).Msg("Redis cache cleared")
}

// deleteMatching removes keys matching pattern using SCAN, never KEYS.
func (r *Redis) deleteMatching(ctx context.Context, pattern string) (int, error) {
	iter := r.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)
	deleted := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := r.client.Del(ctx, batch...).Err(); err != nil {
			return err
		}
		deleted += len(batch)
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= scanBatch {
			if err := flush(); err != nil {
				return deleted, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, err
	}
	return deleted, flush()
}

func encodeResponse(resp *recommend.Response) ([]byte, error) {
	if resp == nil {
		return nil, errors.New("nil response")
	}
	return json.Marshal(resp)
}

func decodeResponse(data []byte) (*recommend.Response, error) {
	var resp recommend.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// escapePattern escapes Redis glob metacharacters so user IDs match literally.
func escapePattern(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

var _ recommend.ResultCache = (*Redis)(nil)
