// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package recommend

import "strings"

// Context factor names.
const (
	FactorSessionType     = "session_type"
	FactorTimeOfDay       = "time_of_day"
	FactorDeviceType      = "device_type"
	FactorSessionDuration = "session_duration"
	FactorMood            = "mood"
)

// multiplierFactors are the factors that also scale engine scores.
var multiplierFactors = []string{FactorSessionType, FactorTimeOfDay, FactorMood}

// contextFactors is the fixed evaluation order of all factors.
var contextFactors = []string{FactorSessionType, FactorTimeOfDay, FactorDeviceType, FactorSessionDuration, FactorMood}

// ImpactFunc returns the impact of one context factor on an item in [0, 1].
// ok is false when the factor does not apply (for example the field is unset).
type ImpactFunc func(sc *SessionContext, item *ItemFeatures) (impact float64, ok bool)

// DefaultImpacts returns the built-in impact function for every factor.
func DefaultImpacts() map[string]ImpactFunc {
	return map[string]ImpactFunc{
		FactorSessionType:     sessionTypeImpact,
		FactorTimeOfDay:       timeOfDayImpact,
		FactorDeviceType:      deviceTypeImpact,
		FactorSessionDuration: sessionDurationImpact,
		FactorMood:            moodImpact,
	}
}

// hardness maps difficulty 1-5 onto [0, 1].
func hardness(item *ItemFeatures) float64 {
	return Clamp01((item.Difficulty - 1) / 4)
}

func sessionTypeImpact(sc *SessionContext, item *ItemFeatures) (float64, bool) {
	switch strings.ToLower(sc.SessionType) {
	case "practice":
		switch item.Type {
		case ItemDrill, ItemScenario:
			return 1.0, true
		case ItemCourse:
			return 0.5, true
		}
		return 0.6, true
	case "study":
		switch item.Type {
		case ItemCourse:
			return 1.0, true
		case ItemScenario:
			return 0.7, true
		case ItemDrill:
			return 0.5, true
		}
		return 0.6, true
	case "review":
		if item.Difficulty <= 3 {
			return 0.9, true
		}
		return 0.5, true
	case "challenge":
		return 0.3 + 0.7*hardness(item), true
	default:
		return 0, false
	}
}

func timeOfDayImpact(sc *SessionContext, item *ItemFeatures) (float64, bool) {
	h := hardness(item)
	switch strings.ToLower(sc.TimeOfDay) {
	case "morning":
		return 0.6 + 0.4*h, true
	case "afternoon":
		return 0.8, true
	case "evening":
		return 1 - 0.3*h, true
	case "night":
		return 1 - 0.6*h, true
	default:
		return 0, false
	}
}

func deviceTypeImpact(sc *SessionContext, item *ItemFeatures) (float64, bool) {
	t := item.EstimatedTimeMinutes
	switch strings.ToLower(sc.DeviceType) {
	case "mobile":
		switch {
		case t <= 15:
			return 1.0, true
		case t <= 30:
			return 0.7, true
		default:
			return 0.4, true
		}
	case "tablet":
		if t <= 30 {
			return 1.0, true
		}
		return 0.7, true
	case "desktop":
		return 1.0, true
	default:
		return 0, false
	}
}

func sessionDurationImpact(sc *SessionContext, item *ItemFeatures) (float64, bool) {
	if sc.SessionDurationMinutes <= 0 {
		return 0, false
	}
	if item.EstimatedTimeMinutes <= sc.SessionDurationMinutes {
		return 1.0, true
	}
	return sc.SessionDurationMinutes / item.EstimatedTimeMinutes, true
}

func moodImpact(sc *SessionContext, item *ItemFeatures) (float64, bool) {
	h := hardness(item)
	switch strings.ToLower(sc.Mood) {
	case "tired":
		return 1 - 0.6*h, true
	case "frustrated":
		return 1 - 0.5*h, true
	case "relaxed":
		return 0.8, true
	case "focused":
		return 0.6 + 0.4*h, true
	case "motivated":
		return 0.5 + 0.5*h, true
	default:
		return 0, false
	}
}

// contextEvaluation is the outcome of scoring one item against a session.
type contextEvaluation struct {
	// score is the weighted average of applicable impacts (0.5 when none apply).
	score float64

	// multiplier scales engine scores; product of (0.8 + 0.4*impact) over
	// the session type, time of day and mood factors.
	multiplier float64
}

// evaluateContext scores an item against the session context. A panicking
// impact function is treated as not applicable.
func evaluateContext(sc *SessionContext, item *ItemFeatures, impacts map[string]ImpactFunc, weights map[string]float64) contextEvaluation {
	ev := contextEvaluation{score: 0.5, multiplier: 1}
	if item == nil {
		return ev
	}

	values := make(map[string]float64, len(contextFactors))
	var num, den float64
	for _, factor := range contextFactors {
		fn := impacts[factor]
		if fn == nil {
			continue
		}
		v, ok := safeImpact(fn, sc, item)
		if !ok {
			continue
		}
		v = Clamp01(v)
		values[factor] = v
		num += weights[factor] * v
		den += weights[factor]
	}
	if den > 0 {
		ev.score = num / den
	}

	for _, factor := range multiplierFactors {
		if v, ok := values[factor]; ok {
			ev.multiplier *= 0.8 + 0.4*v
		}
	}
	return ev
}

func safeImpact(fn ImpactFunc, sc *SessionContext, item *ItemFeatures) (v float64, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			v, ok = 0, false
		}
	}()
	return fn(sc, item)
}
