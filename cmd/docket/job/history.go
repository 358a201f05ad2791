// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package job

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/docket-works/docket/cmd/docket/cli"
	"github.com/docket-works/docket/lib/history"
)

type historyParams struct {
	cli.Connection
	cli.JSONOutput
}

// historyResult mirrors the daemon's job.history response.
type historyResult struct {
	Records []history.Record `cbor:"records"`
	Summary history.Summary  `cbor:"summary"`
}

func historyCommand() *cli.Command {
	var params historyParams

	return &cli.Command{
		Name:    "history",
		Summary: "Show a job's transition history",
		Description: `Print the audit stream of a job: every committed transition with
its trigger and summary, plus cumulative totals. A draft that has
never transitioned has an empty history.`,
		Usage: "docket job history <job-id>",
		Examples: []cli.Example{
			{
				Description: "Review what happened to a job",
				Command:     "docket job history job-a3f9c02e81d4",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("history", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one job ID")
			}
			client, err := params.Connect()
			if err != nil {
				return err
			}

			callCtx, cancel := cli.CallContext(ctx)
			defer cancel()

			var result historyResult
			if err := client.Call(callCtx, "job.history", map[string]any{"job_id": args[0]}, &result); err != nil {
				return err
			}

			if done, err := params.EmitJSON(result); done {
				return err
			}

			if len(result.Records) == 0 {
				logger.Info("no transitions yet", "job_id", args[0])
				return nil
			}

			writer := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintf(writer, "TIME\tTRANSITION\tTRIGGER\tSUMMARY\n")
			for _, record := range result.Records {
				fmt.Fprintf(writer, "%s\t%s -> %s\t%s\t%s\n",
					record.Timestamp.Local().Format("2006-01-02 15:04:05"),
					record.From,
					record.To,
					record.Trigger,
					truncate(record.Summary, 60),
				)
			}
			if err := writer.Flush(); err != nil {
				return err
			}

			fmt.Printf("\n%d transitions over %s, cost %.2f, %d actions\n",
				result.Summary.RecordCount,
				result.Summary.Span.Round(time.Second),
				result.Summary.Cost,
				result.Summary.ActionCount,
			)
			return nil
		},
	}
}
