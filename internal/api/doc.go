// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

// Package api serves the drillwise ops HTTP surface with chi: health,
// Prometheus metrics, and read-only engine diagnostics. It is not a
// recommendation serving protocol; callers embed recommend.Engine for that.
//
// Every JSON body is an APIResponse envelope. /api/v1 routes are rate
// limited per client IP with httprate and carry security headers; all
// routes get a request ID, panic recovery and request metrics.
package api
