// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomtom215/drillwise/internal/recommend/storage"
)

func (c *cli) openStore() (*storage.BadgerStore, error) {
	store, err := storage.Open(storage.Config{
		Path:       c.cfg.Store.Path,
		InMemory:   c.cfg.Store.InMemory,
		SyncWrites: c.cfg.Store.SyncWrites,
	}, c.logger)
	if err != nil {
		return nil, fmt.Errorf("opening state store: %w", err)
	}
	return store, nil
}

func (c *cli) backupCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a compressed backup of the state store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if out == "" {
				return errors.New("--out is required")
			}
			store, err := c.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			f, err := os.Create(out) //nolint:gosec // G304: path is an operator supplied flag
			if err != nil {
				return fmt.Errorf("creating %s: %w", out, err)
			}
			info, err := store.Backup(cmd.Context(), f)
			if cerr := f.Close(); err == nil && cerr != nil {
				err = fmt.Errorf("closing %s: %w", out, cerr)
			}
			if err != nil {
				_ = os.Remove(out)
				return err
			}
			return c.printJSON(info)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Backup file to write")
	return cmd
}

func (c *cli) restoreCmd() *cobra.Command {
	var in string
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Load a backup into the state store",
		Long:  "restore loads a file written by backup. Keys in the backup replace existing values.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in == "" {
				return errors.New("--in is required")
			}
			store, err := c.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			f, err := os.Open(in) //nolint:gosec // G304: path is an operator supplied flag
			if err != nil {
				return fmt.Errorf("opening %s: %w", in, err)
			}
			defer f.Close()

			if err := store.Restore(cmd.Context(), f); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "restored %s into %s\n", in, c.cfg.Store.Path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "", "Backup file to load")
	return cmd
}
