// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

/*
Package supervisor runs the long-lived parts of the server under suture v4.

	cinematch
	├── jobs-layer
	│   ├── similarity-refresh
	│   ├── profile-refresh
	│   └── cache-gc (badger backend only)
	├── messaging-layer
	│   └── event-router
	└── api-layer
	    └── http-server

Crashed services restart with backoff. Supervisor events are logged through
sutureslog into the slog bridge of the logging package, so they share the
zerolog output of the rest of the process.

# Usage

	tree, err := supervisor.NewSupervisorTree(slogger, supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 15*time.Second, logger))
	return tree.Serve(ctx)
*/
package supervisor
