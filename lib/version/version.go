// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build identity for Docket binaries.
//
// Release builds stamp the exported variables through -ldflags:
//
//	go build -ldflags "-X github.com/docket-works/docket/lib/version.Release=v0.2.0"
//
// Unstamped builds fall back to the VCS metadata the Go toolchain
// embeds, so a bare "go build" still reports a usable commit.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Stamped through -ldflags at release time. Empty values mean the
// build was not stamped and the embedded VCS metadata applies.
var (
	// Release is the semantic version of a tagged release.
	Release = "0.1.0-dev"

	// Commit is the short git SHA the binary was built from.
	Commit = ""

	// BuildTime is the UTC build timestamp.
	BuildTime = ""
)

// Info returns the one-line form used by --version output, for
// example "0.1.0-dev (8c14f20e449a, 2026-02-01T00:00:00Z)".
func Info() string {
	commit, timestamp, modified := buildFacts()
	if commit == "" {
		commit = "unknown"
	}
	if modified {
		commit += "-dirty"
	}
	if timestamp == "" {
		timestamp = "unknown"
	}
	return fmt.Sprintf("%s (%s, %s)", Release, commit, timestamp)
}

// Full returns Info plus toolchain and platform lines.
func Full() string {
	return fmt.Sprintf("%s\n  go: %s\n  platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// buildFacts resolves commit, build time, and dirtiness. The ldflags
// stamps win; missing pieces come from the build info the toolchain
// embeds when building inside a git checkout.
func buildFacts() (commit, timestamp string, modified bool) {
	commit = Commit
	timestamp = BuildTime

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return commit, timestamp, false
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if commit == "" && len(setting.Value) >= 12 {
				commit = setting.Value[:12]
			}
		case "vcs.time":
			if timestamp == "" {
				timestamp = setting.Value
			}
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	return commit, timestamp, modified
}
