// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete docket CLI command tree.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	boardcmd "github.com/docket-works/docket/cmd/docket/board"
	"github.com/docket-works/docket/cmd/docket/cli"
	jobcmd "github.com/docket-works/docket/cmd/docket/job"
	queuecmd "github.com/docket-works/docket/cmd/docket/queue"
	"github.com/docket-works/docket/lib/version"
)

// Root builds and returns the complete docket CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "docket",
		Description: `Docket: lifecycle orchestration for agent-automation jobs.

Jobs move through a fixed lifecycle driven by docket-service: drafted
from task definitions, queued, advanced step by step as a coding
agent works, and settled by human review. The CLI talks to the
daemon over its Unix socket.`,
		Subcommands: []*cli.Command{
			jobcmd.Command(),
			queuecmd.Command(),
			boardcmd.Command(),
			statusCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					fmt.Printf("docket %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Create a draft job and queue it",
				Command:     "docket job create tasks/fix-flaky-watcher.jsonc --activate",
			},
			{
				Description: "Drive the frontmost job to its next human gate",
				Command:     "docket job run $(docket queue next)",
			},
			{
				Description: "Review and approve finished work",
				Command:     "docket job approve job-a3f9c02e81d4",
			},
			{
				Description: "Watch every job on the live board",
				Command:     "docket board",
			},
			{
				Description: "Check the daemon",
				Command:     "docket status",
			},
		},
	}
}
