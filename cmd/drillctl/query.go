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
	"github.com/tomtom215/drillwise/internal/recommend"
)

func (c *cli) trainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Train the collaborative model from the configured rating source",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(a *app.App) error {
				if err := a.Engine.Train(cmd.Context()); err != nil {
					return fmt.Errorf("training: %w", err)
				}
				return c.printJSON(a.Engine.GetStatus())
			})
		},
	}
}

func (c *cli) recommendCmd() *cobra.Command {
	var (
		req     recommend.Request
		exclude []string
	)
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend items for a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if req.Context.UserID == "" {
				return errors.New("--user is required")
			}
			req.Context.ExcludeItems = exclude
			return c.withApp(cmd.Context(), func(a *app.App) error {
				resp, err := a.Engine.Recommend(cmd.Context(), req)
				if err != nil {
					return err
				}
				return c.printJSON(resp)
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&req.Context.UserID, "user", "u", "", "User ID")
	f.IntVarP(&req.Count, "count", "n", 0, "Number of items (default from engine config)")
	f.StringVar(&req.Context.SessionType, "session", "", "Session type: practice, study, review or challenge")
	f.StringVar(&req.Context.TimeOfDay, "time", "", "Time of day: morning, afternoon, evening or night")
	f.StringVar(&req.Context.DeviceType, "device", "", "Device: desktop, mobile or tablet")
	f.StringVar(&req.Context.Mood, "mood", "", "Mood: focused, relaxed, tired, motivated or frustrated")
	f.Float64Var(&req.Context.SessionDurationMinutes, "minutes", 0, "Available session time in minutes")
	f.StringSliceVar(&exclude, "exclude", nil, "Item IDs never to return")
	return cmd
}

func (c *cli) trendingCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "trending",
		Short: "List the most popular items",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(a *app.App) error {
				return c.printJSON(a.Engine.Trending(count))
			})
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 10, "Number of items")
	return cmd
}

func (c *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show engine statistics and store contents",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(a *app.App) error {
				return c.printJSON(struct {
					Engine        recommend.Stats              `json:"engine"`
					Collaborative recommend.CollaborativeStats `json:"collaborative"`
					Items         int                          `json:"items"`
					Profiles      int                          `json:"profiles"`
					Breakers      map[string]string            `json:"breakers"`
				}{
					Engine:        a.Engine.Stats(),
					Collaborative: a.Collaborative.Stats(),
					Items:         a.Content.ItemCount(),
					Profiles:      a.Content.ProfileCount(),
					Breakers:      a.Engine.BreakerStates(),
				})
			})
		},
	}
}

func (c *cli) preferencesCmd() *cobra.Command {
	var (
		userID string
		prefs  recommend.Preferences
		pace   string
	)
	cmd := &cobra.Command{
		Use:   "preferences",
		Short: "Set a user's explicit preferences",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID == "" {
				return errors.New("--user is required")
			}
			prefs.LearningPace = recommend.LearningPace(pace)
			return c.withApp(cmd.Context(), func(a *app.App) error {
				if err := a.Engine.UpdatePreferences(cmd.Context(), userID, prefs); err != nil {
					return err
				}
				p, _ := a.Content.Profile(userID)
				return c.printJSON(p)
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&userID, "user", "u", "", "User ID")
	f.Float64Var(&prefs.PreferredDifficulty, "difficulty", 0, "Preferred difficulty (1-5)")
	f.StringSliceVar(&prefs.FocusAreas, "focus", nil, "Topics to focus on")
	f.Float64Var(&prefs.AvailableTimeMinutes, "minutes", 0, "Usual available time in minutes")
	f.StringVar(&pace, "pace", "", "Learning pace: slow, medium or fast")
	return cmd
}

func (c *cli) resetWeightsCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "reset-weights",
		Short: "Reset a user's adapted blend weights to the defaults",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID == "" {
				return errors.New("--user is required")
			}
			return c.withApp(cmd.Context(), func(a *app.App) error {
				hc, err := a.Engine.ResetConfig(cmd.Context(), userID)
				if err != nil {
					return err
				}
				return c.printJSON(hc)
			})
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "User ID")
	return cmd
}
