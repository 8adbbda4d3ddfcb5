// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tomtom215/drillwise/internal/app"
	"github.com/tomtom215/drillwise/internal/config"
	"github.com/tomtom215/drillwise/internal/logging"
)

var version = "dev"

// cli holds state shared by every subcommand.
type cli struct {
	configPath string
	logLevel   string

	out    io.Writer
	cfg    *config.Config
	logger zerolog.Logger
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out, logger: zerolog.Nop()}

	root := &cobra.Command{
		Use:          "drillctl",
		Short:        "Operate a Drillwise recommendation store",
		Long:         "drillctl trains, queries and feeds the Drillwise engine directly from its state store.\nStop the server first: the Badger store allows a single writer.",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			c.logger = logging.New(logging.Config{
				Level:     c.logLevel,
				Format:    "console",
				Timestamp: true,
				Output:    cmd.ErrOrStderr(),
			})

			if cmd.Name() == "version" {
				return nil
			}
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			c.cfg = cfg
			return nil
		},
	}
	root.SetOut(out)

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Path to config file (default: search "+config.ConfigPathEnvVar+" and standard paths)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "Log level: debug, info, warn, error or disabled")

	root.AddCommand(
		c.versionCmd(),
		c.trainCmd(),
		c.recommendCmd(),
		c.trendingCmd(),
		c.statsCmd(),
		c.preferencesCmd(),
		c.resetWeightsCmd(),
		c.importCmd(),
		c.exportCmd(),
		c.backupCmd(),
		c.restoreCmd(),
		c.publishCmd(),
	)
	return root
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintln(c.out, "drillctl", version)
		},
	}
}

// openApp wires the engine and restores persisted state.
func (c *cli) openApp(ctx context.Context) (*app.App, error) {
	a, err := app.New(ctx, c.cfg, c.logger)
	if err != nil {
		return nil, err
	}
	if _, err := a.Restore(ctx); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("restoring state: %w", err)
	}
	return a, nil
}

// withApp runs fn against a restored app and closes it afterwards.
func (c *cli) withApp(ctx context.Context, fn func(a *app.App) error) error {
	a, err := c.openApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			c.logger.Error().Err(err).Msg("Failed to close state store")
		}
	}()
	return fn(a)
}

func (c *cli) printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	_, err = fmt.Fprintln(c.out, string(data))
	return err
}
