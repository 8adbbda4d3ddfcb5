// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package rules

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/cel-go/cel"
	"github.com/rs/zerolog"

	"github.com/tomtom215/drillwise/internal/recommend"
)

// ErrInvalidRule is returned when a rule fails to compile.
var ErrInvalidRule = errors.New("invalid context rule")

// Rule replaces the impact function of one context factor.
type Rule struct {
	// Factor is the context factor the rule scores (session_type,
	// time_of_day, device_type, session_duration or mood).
	Factor string `koanf:"factor" json:"factor"`

	// Expression must evaluate to a number; it is clamped to [0, 1].
	Expression string `koanf:"expression" json:"expression"`

	// When optionally gates the rule. The factor does not apply to an item
	// when it evaluates to false. Empty means always applicable.
	When string `koanf:"when" json:"when,omitempty"`
}

// compiled is one rule ready for evaluation.
type compiled struct {
	rule Rule
	expr cel.Program
	when cel.Program
}

// Set is a compiled, immutable rule set. It is safe for concurrent use.
type Set struct {
	rules  map[string]*compiled
	logger zerolog.Logger
}

var knownFactors = map[string]struct{}{
	recommend.FactorSessionType:     {},
	recommend.FactorTimeOfDay:       {},
	recommend.FactorDeviceType:      {},
	recommend.FactorSessionDuration: {},
	recommend.FactorMood:            {},
}

func newEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("ctx", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("item", cel.MapType(cel.StringType, cel.DynType)),
	)
}

// Compile parses and checks every rule. One rule per factor; a later rule
// for the same factor is an error.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Compile(rules []Rule, logger zerolog.Logger) (*Set, error) {
	env, err := newEnv()
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	s := &Set{
		rules:  make(map[string]*compiled, len(rules)),
		logger: logger.With().Str("component", "context_rules").Logger(),
	}
	for i, r := range rules {
		if _, ok := knownFactors[r.Factor]; !ok {
			return nil, fmt.Errorf("%w: rule %d: unknown factor %q", ErrInvalidRule, i, r.Factor)
		}
		if _, dup := s.rules[r.Factor]; dup {
			return nil, fmt.Errorf("%w: rule %d: duplicate factor %q", ErrInvalidRule, i, r.Factor)
		}
		if r.Expression == "" {
			return nil, fmt.Errorf("%w: rule %d (%s): empty expression", ErrInvalidRule, i, r.Factor)
		}

		c := &compiled{rule: r}
		if c.expr, err = program(env, r.Expression); err != nil {
			return nil, fmt.Errorf("%w: rule %d (%s): %w", ErrInvalidRule, i, r.Factor, err)
		}
		if r.When != "" {
			if c.when, err = program(env, r.When); err != nil {
				return nil, fmt.Errorf("%w: rule %d (%s) when: %w", ErrInvalidRule, i, r.Factor, err)
			}
		}
		s.rules[r.Factor] = c
	}
	return s, nil
}

func program(env *cel.Env, expr string) (cel.Program, error) {
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	return env.Program(ast, cel.EvalOptions(cel.OptOptimize))
}

// Factors returns the factors the set overrides, sorted.
func (s *Set) Factors() []string {
	out := make([]string, 0, len(s.rules))
	for f := range s.rules {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Impact returns the impact function of a factor's rule.
func (s *Set) Impact(factor string) (recommend.ImpactFunc, bool) {
	c, ok := s.rules[factor]
	if !ok {
		return nil, false
	}
	return func(sc *recommend.SessionContext, item *recommend.ItemFeatures) (float64, bool) {
		return s.evaluate(c, sc, item)
	}, true
}

// ImpactSetter installs impact functions; recommend.Engine implements it.
type ImpactSetter interface {
	SetImpact(factor string, fn recommend.ImpactFunc) error
}

// Apply installs every rule of the set on the target.
func (s *Set) Apply(target ImpactSetter) error {
	for _, factor := range s.Factors() {
		fn, _ := s.Impact(factor)
		if err := target.SetImpact(factor, fn); err != nil {
			return fmt.Errorf("apply rule %s: %w", factor, err)
		}
	}
	return nil
}

// evaluate runs one rule. Evaluation errors and non-numeric results make
// the factor not applicable for the item.
func (s *Set) evaluate(c *compiled, sc *recommend.SessionContext, item *recommend.ItemFeatures) (float64, bool) {
	vars := map[string]any{
		"ctx":  contextVars(sc),
		"item": itemVars(item),
	}

	if c.when != nil {
		out, _, err := c.when.Eval(vars)
		if err != nil {
			s.logger.Debug().Err(err).Str("factor", c.rule.Factor).Msg("Rule condition failed to evaluate")
			return 0, false
		}
		if ok, isBool := out.Value().(bool); !isBool || !ok {
			return 0, false
		}
	}

	out, _, err := c.expr.Eval(vars)
	if err != nil {
		s.logger.Debug().Err(err).Str("factor", c.rule.Factor).Msg("Rule failed to evaluate")
		return 0, false
	}
	switch v := out.Value().(type) {
	case float64:
		return recommend.Clamp01(v), true
	case int64:
		return recommend.Clamp01(float64(v)), true
	case uint64:
		return recommend.Clamp01(float64(v)), true
	default:
		s.logger.Debug().Str("factor", c.rule.Factor).Str("type", fmt.Sprintf("%T", v)).Msg("Rule returned a non-numeric value")
		return 0, false
	}
}

func contextVars(sc *recommend.SessionContext) map[string]any {
	return map[string]any{
		"user_id":                  sc.UserID,
		"session_type":             sc.SessionType,
		"time_of_day":              sc.TimeOfDay,
		"device_type":              sc.DeviceType,
		"session_duration_minutes": sc.SessionDurationMinutes,
		"mood":                     sc.Mood,
	}
}

func itemVars(item *recommend.ItemFeatures) map[string]any {
	skills := make(map[string]float64, len(item.SkillRequirements))
	for k, v := range item.SkillRequirements {
		skills[k] = v
	}
	tags := item.Tags
	if tags == nil {
		tags = []string{}
	}
	return map[string]any{
		"id":                     item.ItemID,
		"title":                  item.Title,
		"type":                   string(item.Type),
		"category":               item.Category,
		"difficulty":             item.Difficulty,
		"estimated_time_minutes": item.EstimatedTimeMinutes,
		"format":                 item.Format,
		"tags":                   tags,
		"skills":                 skills,
	}
}
