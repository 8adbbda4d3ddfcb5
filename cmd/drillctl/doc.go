// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

/*
Drillctl operates a Drillwise state store from the command line.

It loads the same configuration as the server and opens the Badger store
directly, so the server must be stopped first.

	drillctl import items --file catalog.json
	drillctl import ratings --file ratings.json
	drillctl train
	drillctl recommend --user u1 --session practice --mood focused -n 5
	drillctl trending -n 10
	drillctl stats
	drillctl export --out ratings.duckdb
	drillctl backup --out drillwise.bak

publish is the exception: it talks to a running server over NATS and needs
feed.transport=nats.

	drillctl publish --topic drillwise.ratings --file rating.json
*/
package main
