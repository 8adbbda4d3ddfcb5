// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package storage

import (
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"
)

// maxPendingRestoreWrites bounds the write batches Badger keeps in flight
// while loading a backup.
const maxPendingRestoreWrites = 256

// BackupInfo describes a written backup.
type BackupInfo struct {
	// Bytes is the size of the compressed stream.
	Bytes int64 `json:"bytes"`

	// Checksum is the hex SHA-256 of the compressed stream.
	Checksum string `json:"checksum"`

	// Version is the store version the backup is consistent at.
	Version   uint64    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// Backup writes a gzip-compressed dump of every key to w. The store stays
// writable while the backup runs.
func (s *BadgerStore) Backup(ctx context.Context, w io.Writer) (info BackupInfo, err error) {
	defer observe("backup", time.Now(), &err)
	if err = ctx.Err(); err != nil {
		return info, err
	}

	hasher := sha256.New()
	counter := &countingWriter{w: io.MultiWriter(w, hasher)}
	gz := gzip.NewWriter(counter)

	version, err := s.db.Backup(gz, 0)
	if err != nil {
		_ = gz.Close()
		return info, fmt.Errorf("backup store: %w", err)
	}
	if err = gz.Close(); err != nil {
		return info, fmt.Errorf("finish backup: %w", err)
	}

	info = BackupInfo{
		Bytes:     counter.n,
		Checksum:  hex.EncodeToString(hasher.Sum(nil)),
		Version:   version,
		CreatedAt: s.now(),
	}
	s.logger.Info().
		Int64("bytes", info.Bytes).
		Str("checksum", info.Checksum).
		Uint64("version", info.Version).
		Msg("Store backup written")
	return info, nil
}

// Restore loads a stream written by Backup. Keys present in the backup
// replace existing values; other keys are kept.
func (s *BadgerStore) Restore(ctx context.Context, r io.Reader) (err error) {
	defer observe("restore", time.Now(), &err)
	if err = ctx.Err(); err != nil {
		return err
	}

	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("open backup: %w", err)
	}
	defer gz.Close() //nolint:errcheck // read side

	if err = s.db.Load(gz, maxPendingRestoreWrites); err != nil {
		return fmt.Errorf("restore store: %w", err)
	}
	s.logger.Info().Msg("Store restored from backup")
	return nil
}
