// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the docket CLI.
//
// The central type is [Command], which represents a named subcommand
// with optional nested [Command.Subcommands], a [pflag.FlagSet]
// factory, and a Run function. Commands are assembled into a tree in
// cmd/docket/commands and dispatched via [Command.Execute], which
// handles signal-driven cancellation, flag parsing, subcommand
// routing, and structured help output with examples.
//
// When a user types an unknown subcommand or flag, the framework
// computes Levenshtein edit distance against all known names and
// suggests the closest match (threshold: distance <= 3).
//
// [Connection] carries the daemon socket location for commands that
// talk to docket-service, resolving --socket, then $DOCKET_SOCKET,
// then the config file named by $DOCKET_CONFIG. Params structs embed
// it alongside [JSONOutput] and bind the rest of their flags through
// [FlagsFromParams] struct tags.
package cli
