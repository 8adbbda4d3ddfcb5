// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package app

import (
	"errors"
	"fmt"

	"github.com/tomtom215/drillwise/internal/config"
	"github.com/tomtom215/drillwise/internal/recommend"
	"github.com/tomtom215/drillwise/internal/recommend/rules"
)

// ApplyRules compiles the context rules and installs them on the engine.
// Factors that had a rule before but have none now go back to the built-in
// impact. A rule set that fails to compile leaves the engine untouched.
func (a *App) ApplyRules(rs []rules.Rule) error {
	set, err := rules.Compile(rs, a.logger)
	if err != nil {
		return fmt.Errorf("compile context rules: %w", err)
	}

	a.rulesMu.Lock()
	defer a.rulesMu.Unlock()

	current := make(map[string]struct{}, len(rs))
	for _, factor := range set.Factors() {
		current[factor] = struct{}{}
	}
	defaults := recommend.DefaultImpacts()
	for factor := range a.ruleFactors {
		if _, ok := current[factor]; ok {
			continue
		}
		if err := a.Engine.SetImpact(factor, defaults[factor]); err != nil {
			return err
		}
	}
	if err := set.Apply(a.Engine); err != nil {
		return err
	}
	a.ruleFactors = current

	a.logger.Info().Strs("factors", set.Factors()).Msg("Context rules applied")
	return nil
}

// WatchRules reloads path whenever it changes and re-applies its context
// rules. Reload failures are logged and the previous rules stay active.
func (a *App) WatchRules(path string) error {
	if path == "" {
		return errors.New("watch rules: no config file")
	}
	return config.WatchConfigFile(path, func() {
		cfg, err := config.Load(path)
		if err != nil {
			a.logger.Warn().Err(err).Str("path", path).Msg("Config reload failed, keeping current rules")
			return
		}
		if err := a.ApplyRules(cfg.Recommend.ContextRules); err != nil {
			a.logger.Warn().Err(err).Str("path", path).Msg("Context rule reload failed, keeping current rules")
		}
	})
}
