// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/drillwise/internal/app"
	"github.com/tomtom215/drillwise/internal/database"
	"github.com/tomtom215/drillwise/internal/eventprocessor"
)

// exportCmd copies the Badger rating log into a DuckDB file that can then be
// used as source.kind=duckdb or queried directly.
func (c *cli) exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored ratings to a DuckDB database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if out == "" {
				return errors.New("--out is required")
			}
			ctx := cmd.Context()

			store, err := c.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			ratings, err := store.Ratings(ctx)
			if err != nil {
				return fmt.Errorf("reading ratings: %w", err)
			}

			db, err := database.New(database.Config{
				Path:      out,
				Threads:   c.cfg.Source.Threads,
				MaxMemory: c.cfg.Source.MaxMemory,
			}, c.logger)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.EnsureSchema(ctx); err != nil {
				return err
			}
			if err := db.InsertRatings(ctx, ratings); err != nil {
				return err
			}
			total, err := db.CountRatings(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "exported %d ratings to %s (%d total)\n", len(ratings), out, total)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "DuckDB file to write")
	return cmd
}

// publishCmd sends a raw payload to a running server's feed.
func (c *cli) publishCmd() *cobra.Command {
	var (
		topic string
		file  string
	)
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish a JSON event to the server's NATS feed",
		Long:  "publish sends one already encoded event to a feed topic.\nIt needs the nats transport; the in-process transport has no subscribers outside the server.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.cfg.Feed.Transport != eventprocessor.TransportNATS {
				return fmt.Errorf("publish needs feed.transport=%s, got %q", eventprocessor.TransportNATS, c.cfg.Feed.Transport)
			}
			payload, err := readInput(file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			tc := app.TransportConfig(c.cfg.Feed)
			// Never start a second embedded server next to the running one.
			tc.EmbeddedServer = false

			transport, err := eventprocessor.NewTransport(cmd.Context(), tc, c.logger)
			if err != nil {
				return err
			}
			defer transport.Close()

			if err := eventprocessor.NewPublisher(transport.Publisher).PublishRaw(cmd.Context(), topic, payload); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "published %d bytes to %s\n", len(payload), topic)
			return nil
		},
	}
	cmd.Flags().StringVarP(&topic, "topic", "t", eventprocessor.TopicRatings, "Feed topic")
	cmd.Flags().StringVarP(&file, "file", "f", "-", "Payload file, - for stdin")
	return cmd
}
