// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog"
)

// Config configures the DuckDB connection.
type Config struct {
	// Path is the database file. Empty opens an in-memory database.
	Path string

	// Threads is DuckDB's worker thread count. Zero uses NumCPU.
	Threads int

	// MaxMemory is DuckDB's memory limit, e.g. "1GB".
	MaxMemory string

	// ReadOnly opens the file with access_mode=read_only so training can
	// read an export another process is writing.
	ReadOnly bool
}

// DB is a DuckDB handle holding rating exports.
type DB struct {
	conn   *sql.DB
	cfg    Config
	logger zerolog.Logger
}

// New opens the database and verifies the connection.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg Config, logger zerolog.Logger) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}
	if cfg.MaxMemory == "" {
		cfg.MaxMemory = "1GB"
	}

	if cfg.Path != "" && !cfg.ReadOnly {
		if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	accessMode := "read_write"
	if cfg.ReadOnly {
		accessMode = "read_only"
	}
	// Extension autoload is disabled; nothing here needs one and it hangs
	// on hosts without network access.
	connStr := fmt.Sprintf("%s?access_mode=%s&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		displayPath(cfg.Path), accessMode, numThreads, cfg.MaxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn:   conn,
		cfg:    cfg,
		logger: logger.With().Str("component", "duckdb").Logger(),
	}
	db.configureConnectionPool()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.logger.Info().
		Str("path", displayPath(cfg.Path)).
		Bool("read_only", cfg.ReadOnly).
		Int("threads", numThreads).
		Msg("DuckDB opened")
	return db, nil
}

func (db *DB) configureConnectionPool() {
	db.conn.SetMaxOpenConns(runtime.NumCPU())
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// Ping verifies the connection.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the database.
func (db *DB) Close() error {
	return db.conn.Close()
}

func displayPath(path string) string {
	if path == "" {
		return ":memory:"
	}
	return path
}
