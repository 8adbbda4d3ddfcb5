// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

// Package app assembles the recommendation engine from configuration.
//
// It is shared by the server and the drillctl CLI so both see the same
// state: the Badger store, the collaborative and content engines, the
// rating source used for training (the store or a DuckDB export), the
// result cache and any CEL context rules.
//
//	a, err := app.New(ctx, cfg, logger)
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//
//	if _, err := a.Restore(ctx); err != nil {
//	    return err
//	}
//	resp, err := a.Engine.Recommend(ctx, recommend.Request{Context: recommend.SessionContext{UserID: "u1"}})
package app
