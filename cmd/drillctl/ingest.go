// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/drillwise/internal/app"
	"github.com/tomtom215/drillwise/internal/recommend"
)

func (c *cli) importCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a JSON array of ratings, items, interactions or feedback into the store",
	}
	cmd.PersistentFlags().StringVarP(&file, "file", "f", "-", "JSON file to read, - for stdin")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "ratings",
			Short: "Import ratings",
			RunE: func(cmd *cobra.Command, _ []string) error {
				ratings, err := readJSONArray[recommend.Rating](file, cmd.InOrStdin())
				if err != nil {
					return err
				}
				return c.withApp(cmd.Context(), func(a *app.App) error {
					for i := range ratings {
						if err := a.Engine.AddRating(cmd.Context(), ratings[i]); err != nil {
							return fmt.Errorf("rating %d: %w", i, err)
						}
					}
					fmt.Fprintf(c.out, "imported %d ratings\n", len(ratings))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "items",
			Short: "Import catalog items",
			RunE: func(cmd *cobra.Command, _ []string) error {
				items, err := readJSONArray[recommend.ItemFeatures](file, cmd.InOrStdin())
				if err != nil {
					return err
				}
				return c.withApp(cmd.Context(), func(a *app.App) error {
					if err := a.Engine.RegisterItems(cmd.Context(), items); err != nil {
						return err
					}
					fmt.Fprintf(c.out, "imported %d items\n", len(items))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "interactions",
			Short: "Import interactions into content profiles",
			RunE: func(cmd *cobra.Command, _ []string) error {
				interactions, err := readJSONArray[recommend.Interaction](file, cmd.InOrStdin())
				if err != nil {
					return err
				}
				users, byUser := groupByUser(interactions)
				return c.withApp(cmd.Context(), func(a *app.App) error {
					for _, userID := range users {
						if err := a.Engine.RecordInteractions(cmd.Context(), userID, byUser[userID]); err != nil {
							return fmt.Errorf("user %s: %w", userID, err)
						}
					}
					fmt.Fprintf(c.out, "imported %d interactions for %d users\n", len(interactions), len(users))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "feedback",
			Short: "Apply a feedback batch",
			RunE: func(cmd *cobra.Command, _ []string) error {
				batch, err := readJSONArray[recommend.Feedback](file, cmd.InOrStdin())
				if err != nil {
					return err
				}
				return c.withApp(cmd.Context(), func(a *app.App) error {
					if err := a.Engine.ProcessFeedback(cmd.Context(), batch); err != nil {
						return err
					}
					fmt.Fprintf(c.out, "applied %d feedback records\n", len(batch))
					return nil
				})
			},
		},
	)
	return cmd
}

// groupByUser keeps first-seen user order.
func groupByUser(interactions []recommend.Interaction) ([]string, map[string][]recommend.Interaction) {
	var users []string
	byUser := make(map[string][]recommend.Interaction)
	for _, in := range interactions {
		if _, seen := byUser[in.UserID]; !seen {
			users = append(users, in.UserID)
		}
		byUser[in.UserID] = append(byUser[in.UserID], in)
	}
	return users, byUser
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

func readJSONArray[T any](path string, stdin io.Reader) ([]T, error) {
	data, err := readInput(path, stdin)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return out, nil
}
