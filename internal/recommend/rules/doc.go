// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

// Package rules lets operators replace the built-in context impact functions
// with CEL expressions from configuration.
//
// Each rule scores one context factor. Expressions see two map variables:
//
//	ctx:  user_id, session_type, time_of_day, device_type,
//	      session_duration_minutes, mood
//	item: id, title, type, category, difficulty, estimated_time_minutes,
//	      format, tags, skills
//
// Example configuration:
//
//	recommend:
//	  context_rules:
//	    - factor: mood
//	      when: 'ctx.mood != ""'
//	      expression: 'ctx.mood == "tired" ? 1.0 - item.difficulty / 5.0 : 0.8'
//
// Rules are compiled once at startup; a rule that fails to compile stops the
// service from starting. At evaluation time an error or a non-numeric result
// makes the factor not applicable for that item.
package rules
