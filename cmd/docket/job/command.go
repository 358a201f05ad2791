// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package job

import "github.com/docket-works/docket/cmd/docket/cli"

// Command returns the "job" subcommand group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "job",
		Summary: "Create, steer, and inspect jobs",
		Description: `Create and manage docket jobs.

A job is one unit of agent automation: a task description, an ordered
phase list, and metric ceilings, moved through a fixed lifecycle by
the docket-service driver. Jobs are created as drafts from JSONC task
definitions, activated into the queue, advanced step by step (or run
to the next human gate), and settled by approval.`,
		Subcommands: []*cli.Command{
			createCommand(),
			showCommand(),
			listCommand(),
			historyCommand(),
			activateCommand(),
			advanceCommand(),
			runCommand(),
			approveCommand(),
			rejectCommand(),
			resubmitCommand(),
			terminateCommand(),
			cancelCommand(),
			suspendCommand(),
			resumeCommand(),
		},
	}
}
