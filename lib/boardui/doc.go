// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

// Package boardui implements the terminal board for browsing docket
// jobs. Built on bubbletea (Elm architecture), it provides a
// split-pane view with a status-grouped job list and a rich detail
// pane, connected to job data via the [Source] interface.
//
// The Source abstraction decouples the board from how manifests are
// loaded: [DirSource] wraps an in-memory snapshot of a state
// directory, and [WatchStateDir] feeds it incremental updates from
// inotify so the board stays live while the daemon (or anything else)
// rewrites manifests. The board never writes to the state directory.
//
// Data flow:
//
//	[state directory jobs/*.json]
//	        | (Source interface)
//	    [Model] <- bubbletea event loop
//	        |
//	  [terminal output]
package boardui
