// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package storage

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrChecksumMismatch is returned when a stored snapshot fails verification.
var ErrChecksumMismatch = errors.New("snapshot checksum mismatch")

// SnapshotMeta describes an encoded snapshot.
type SnapshotMeta struct {
	// Kind names what the snapshot holds ("model", "checkpoint").
	Kind string

	// Version is the model version at save time.
	Version int

	// Checksum is the SHA-256 of the uncompressed gob data.
	Checksum string

	// SizeBytes is the compressed size.
	SizeBytes int64

	SavedAt time.Time
}

// envelope is the stored form: metadata plus gzip-compressed gob data.
type envelope struct {
	Meta       SnapshotMeta
	Compressed []byte
}

// encodeSnapshot gob-encodes v, compresses it and wraps it with a checksum.
//
//nolint:gocritic // meta passed by value is acceptable for this write operation
func encodeSnapshot(v any, meta SnapshotMeta) ([]byte, error) {
	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(v); err != nil {
		return nil, fmt.Errorf("encode %s: %w", meta.Kind, err)
	}

	hash := sha256.Sum256(raw.Bytes())
	meta.Checksum = hex.EncodeToString(hash[:])

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw.Bytes()); err != nil {
		return nil, fmt.Errorf("compress %s: %w", meta.Kind, err)
	}
	if err := gzw.Close(); err != nil {
		return nil, fmt.Errorf("finalize compression: %w", err)
	}
	meta.SizeBytes = int64(compressed.Len())

	var out bytes.Buffer
	if err := gob.NewEncoder(&out).Encode(envelope{Meta: meta, Compressed: compressed.Bytes()}); err != nil {
		return nil, fmt.Errorf("write %s envelope: %w", meta.Kind, err)
	}
	return out.Bytes(), nil
}

// decodeSnapshot verifies and decodes data produced by encodeSnapshot.
func decodeSnapshot(data []byte, target any) (*SnapshotMeta, error) {
	var env envelope
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&env); err != nil {
		return nil, fmt.Errorf("read envelope: %w", err)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(env.Compressed))
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", env.Meta.Kind, err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // error on gzip close after read is not actionable

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, fmt.Errorf("read decompressed data: %w", err)
	}

	hash := sha256.Sum256(raw)
	if got := hex.EncodeToString(hash[:]); got != env.Meta.Checksum {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, env.Meta.Checksum, got)
	}

	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(target); err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Meta.Kind, err)
	}
	return &env.Meta, nil
}
