// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/drillwise/internal/metrics"
	"github.com/tomtom215/drillwise/internal/recommend"
)

// Key prefixes for BadgerDB storage
const (
	ratingKeyPrefix  = "rating/"
	itemKeyPrefix    = "item/"
	profileKeyPrefix = "profile/"
	hybridKeyPrefix  = "hybrid/"

	modelKey      = "model/current"
	checkpointKey = "model/checkpoint"
)

// Config configures the Badger state store.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps all data in memory (tests and dry runs).
	InMemory bool

	// SyncWrites fsyncs every write.
	// Default: true.
	SyncWrites bool
}

// BadgerStore is the durable state store.
type BadgerStore struct {
	db     *badger.DB
	logger zerolog.Logger
	now    func() time.Time
}

// Open opens (or creates) the Badger database described by cfg.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(cfg Config, logger zerolog.Logger) (*BadgerStore, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("store path is required")
		}
		opts = badger.DefaultOptions(cfg.Path)
		opts.SyncWrites = cfg.SyncWrites
	}
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return NewBadgerStore(db, logger), nil
}

// NewBadgerStore wraps an open database.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBadgerStore(db *badger.DB, logger zerolog.Logger) *BadgerStore {
	return &BadgerStore{
		db:     db,
		logger: logger.With().Str("component", "store").Logger(),
		now:    time.Now,
	}
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func ratingKey(userID, itemID string) []byte {
	return []byte(ratingKeyPrefix + userID + "/" + itemID)
}

// observe records the duration and outcome of one operation.
func observe(op string, start time.Time, err *error) {
	metrics.RecordStoreOperation(op, time.Since(start), *err)
}

func (s *BadgerStore) putJSON(ctx context.Context, op string, key []byte, v any) (err error) {
	defer observe(op, time.Now(), &err)
	if err = ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%s: marshal: %w", op, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// scanJSON decodes every value under prefix, calling fn with the key suffix.
func (s *BadgerStore) scanJSON(ctx context.Context, prefix string, decode func(suffix string, val []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(opts.Prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			suffix := strings.TrimPrefix(string(item.Key()), prefix)
			if err := item.Value(func(val []byte) error {
				return decode(suffix, val)
			}); err != nil {
				return fmt.Errorf("key %s%s: %w", prefix, suffix, err)
			}
		}
		return nil
	})
}

// SaveRating stores the latest rating of a user-item pair.
//
//nolint:gocritic // hugeParam: Rating passed by value to satisfy recommend.StateStore
func (s *BadgerStore) SaveRating(ctx context.Context, r recommend.Rating) error {
	if r.UserID == "" || r.ItemID == "" {
		return fmt.Errorf("save rating: %w", recommend.ErrEmptyUserID)
	}
	return s.putJSON(ctx, "save_rating", ratingKey(r.UserID, r.ItemID), r)
}

// Ratings returns every stored rating ordered by user then item.
func (s *BadgerStore) Ratings(ctx context.Context) (out []recommend.Rating, err error) {
	defer observe("load_ratings", time.Now(), &err)
	err = s.scanJSON(ctx, ratingKeyPrefix, func(_ string, val []byte) error {
		var r recommend.Rating
		if err := json.Unmarshal(val, &r); err != nil {
			return err
		}
		out = append(out, r)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load ratings: %w", err)
	}
	return out, nil
}

// SaveItems stores catalog items in one transaction.
func (s *BadgerStore) SaveItems(ctx context.Context, items []recommend.ItemFeatures) (err error) {
	defer observe("save_items", time.Now(), &err)
	if err = ctx.Err(); err != nil {
		return err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for i := range items {
		data, mErr := json.Marshal(&items[i])
		if mErr != nil {
			return fmt.Errorf("save items: marshal %s: %w", items[i].ItemID, mErr)
		}
		if err = wb.Set([]byte(itemKeyPrefix+items[i].ItemID), data); err != nil {
			return fmt.Errorf("save items: %w", err)
		}
	}
	if err = wb.Flush(); err != nil {
		return fmt.Errorf("save items: %w", err)
	}
	return nil
}

// Items returns every stored catalog item ordered by ID.
func (s *BadgerStore) Items(ctx context.Context) (out []recommend.ItemFeatures, err error) {
	defer observe("load_items", time.Now(), &err)
	err = s.scanJSON(ctx, itemKeyPrefix, func(_ string, val []byte) error {
		var it recommend.ItemFeatures
		if err := json.Unmarshal(val, &it); err != nil {
			return err
		}
		out = append(out, it)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	return out, nil
}

// SaveProfile stores a user's content profile.
//
//nolint:gocritic // hugeParam: UserProfile passed by value to satisfy recommend.StateStore
func (s *BadgerStore) SaveProfile(ctx context.Context, p recommend.UserProfile) error {
	if p.UserID == "" {
		return fmt.Errorf("save profile: %w", recommend.ErrEmptyUserID)
	}
	return s.putJSON(ctx, "save_profile", []byte(profileKeyPrefix+p.UserID), &p)
}

// Profiles returns every stored profile.
func (s *BadgerStore) Profiles(ctx context.Context) (out []recommend.UserProfile, err error) {
	defer observe("load_profiles", time.Now(), &err)
	err = s.scanJSON(ctx, profileKeyPrefix, func(_ string, val []byte) error {
		var p recommend.UserProfile
		if err := json.Unmarshal(val, &p); err != nil {
			return err
		}
		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	return out, nil
}

// SaveHybridConfig stores a user's blend configuration.
//
//nolint:gocritic // hugeParam: HybridConfig passed by value to satisfy recommend.StateStore
func (s *BadgerStore) SaveHybridConfig(ctx context.Context, userID string, cfg recommend.HybridConfig) error {
	if userID == "" {
		return fmt.Errorf("save hybrid config: %w", recommend.ErrEmptyUserID)
	}
	return s.putJSON(ctx, "save_hybrid", []byte(hybridKeyPrefix+userID), cfg)
}

// HybridConfigs returns every stored blend configuration keyed by user.
func (s *BadgerStore) HybridConfigs(ctx context.Context) (out map[string]recommend.HybridConfig, err error) {
	defer observe("load_hybrid", time.Now(), &err)
	out = make(map[string]recommend.HybridConfig)
	err = s.scanJSON(ctx, hybridKeyPrefix, func(userID string, val []byte) error {
		var cfg recommend.HybridConfig
		if err := json.Unmarshal(val, &cfg); err != nil {
			return err
		}
		out[userID] = cfg
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load hybrid configs: %w", err)
	}
	return out, nil
}

func (s *BadgerStore) putSnapshot(ctx context.Context, op, key string, v any, meta SnapshotMeta) (err error) {
	defer observe(op, time.Now(), &err)
	if err = ctx.Err(); err != nil {
		return err
	}
	meta.SavedAt = s.now()
	data, err := encodeSnapshot(v, meta)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.logger.Debug().Str("key", key).Int("bytes", len(data)).Int("version", meta.Version).Msg("Snapshot saved")
	return nil
}

// getSnapshot loads and verifies a snapshot. Returns recommend.ErrNotFound
// when the key is absent.
func (s *BadgerStore) getSnapshot(ctx context.Context, op, key string, target any) (meta *SnapshotMeta, err error) {
	defer observe(op, time.Now(), &err)
	if err = ctx.Err(); err != nil {
		return nil, err
	}
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return recommend.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			m, err := decodeSnapshot(val, target)
			meta = m
			return err
		})
	})
	if err != nil {
		if errors.Is(err, recommend.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return meta, nil
}

// SaveModel stores the published factor model.
func (s *BadgerStore) SaveModel(ctx context.Context, m *recommend.FactorModel) error {
	if m == nil {
		return errors.New("save model: nil model")
	}
	return s.putSnapshot(ctx, "save_model", modelKey, m, SnapshotMeta{Kind: "model", Version: m.Version})
}

// LoadModel returns the stored factor model or recommend.ErrNotFound.
func (s *BadgerStore) LoadModel(ctx context.Context) (*recommend.FactorModel, error) {
	var m recommend.FactorModel
	if _, err := s.getSnapshot(ctx, "load_model", modelKey, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveCheckpoint stores the last completed training epoch.
func (s *BadgerStore) SaveCheckpoint(ctx context.Context, cp *recommend.TrainingCheckpoint) error {
	if cp == nil {
		return errors.New("save checkpoint: nil checkpoint")
	}
	return s.putSnapshot(ctx, "save_checkpoint", checkpointKey, cp, SnapshotMeta{Kind: "checkpoint", Version: cp.Epoch})
}

// LoadCheckpoint returns the stored checkpoint or recommend.ErrNotFound.
func (s *BadgerStore) LoadCheckpoint(ctx context.Context) (*recommend.TrainingCheckpoint, error) {
	var cp recommend.TrainingCheckpoint
	if _, err := s.getSnapshot(ctx, "load_checkpoint", checkpointKey, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

// ClearCheckpoint removes the stored checkpoint.
func (s *BadgerStore) ClearCheckpoint(ctx context.Context) (err error) {
	defer observe("clear_checkpoint", time.Now(), &err)
	if err = ctx.Err(); err != nil {
		return err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(checkpointKey)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("clear checkpoint: %w", err)
	}
	return nil
}

var (
	_ recommend.StateStore      = (*BadgerStore)(nil)
	_ recommend.ModelStore      = (*BadgerStore)(nil)
	_ recommend.CheckpointStore = (*BadgerStore)(nil)
	_ recommend.RatingSource    = (*BadgerStore)(nil)
)
