// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

// Package queue implements the "docket queue" command group: a view
// of the processing order and the next-job query schedulers use.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/docket-works/docket/cmd/docket/cli"
	schemajob "github.com/docket-works/docket/lib/schema/job"
)

// Command returns the "queue" subcommand group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "queue",
		Summary: "Inspect the job queue",
		Description: `Inspect the processing queue.

The queue orders activated jobs, front first. Suspended and gated
jobs keep their place but are skipped when the next runnable job is
picked.`,
		Subcommands: []*cli.Command{
			listCommand(),
			nextCommand(),
		},
	}
}

type listParams struct {
	cli.Connection
	cli.JSONOutput
}

// queueEntry mirrors one row of the daemon's queue.list response.
type queueEntry struct {
	Rank   int              `cbor:"rank" json:"rank"`
	JobID  string           `cbor:"job_id" json:"job_id"`
	Status schemajob.Status `cbor:"status" json:"status"`
	Title  string           `cbor:"title" json:"title"`
}

type listResult struct {
	Entries []queueEntry `cbor:"entries"`
}

func listCommand() *cli.Command {
	var params listParams

	return &cli.Command{
		Name:    "list",
		Summary: "List queued jobs in processing order",
		Usage:   "docket queue list",
		Examples: []cli.Example{
			{
				Description: "See what runs next",
				Command:     "docket queue list",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("list", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 0 {
				return fmt.Errorf("list takes no arguments")
			}
			client, err := params.Connect()
			if err != nil {
				return err
			}

			callCtx, cancel := cli.CallContext(ctx)
			defer cancel()

			var result listResult
			if err := client.Call(callCtx, "queue.list", nil, &result); err != nil {
				return err
			}

			if done, err := params.EmitJSON(result.Entries); done {
				return err
			}

			if len(result.Entries) == 0 {
				logger.Info("queue is empty")
				return nil
			}

			writer := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintf(writer, "RANK\tID\tSTATUS\tTITLE\n")
			for _, entry := range result.Entries {
				fmt.Fprintf(writer, "%d\t%s\t%s\t%s\n",
					entry.Rank,
					entry.JobID,
					entry.Status,
					entry.Title,
				)
			}
			return writer.Flush()
		},
	}
}

type nextParams struct {
	cli.Connection
	cli.JSONOutput
}

// nextResult mirrors the daemon's queue.next response.
type nextResult struct {
	JobID string `cbor:"job_id" json:"job_id,omitempty"`
	Found bool   `cbor:"found" json:"found"`
}

func nextCommand() *cli.Command {
	var params nextParams

	return &cli.Command{
		Name:    "next",
		Summary: "Print the next runnable job's ID",
		Description: `Print the ID of the frontmost pending job and exit 0.

Exits 1 without output when no queued job is runnable, so shell
loops can use it as a condition:

  while id=$(docket queue next); do docket job run "$id"; done`,
		Usage: "docket queue next",
		Examples: []cli.Example{
			{
				Description: "Drive the frontmost job",
				Command:     "docket job run $(docket queue next)",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("next", &params)
		},
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) != 0 {
				return fmt.Errorf("next takes no arguments")
			}
			client, err := params.Connect()
			if err != nil {
				return err
			}

			callCtx, cancel := cli.CallContext(ctx)
			defer cancel()

			var result nextResult
			if err := client.Call(callCtx, "queue.next", nil, &result); err != nil {
				return err
			}

			if done, err := params.EmitJSON(result); done {
				return err
			}
			if !result.Found {
				return &cli.ExitError{Code: 1}
			}
			fmt.Println(result.JobID)
			return nil
		},
	}
}
