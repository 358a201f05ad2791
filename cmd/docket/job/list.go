// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package job

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

type listParams struct {
	cli.Connection
	cli.JSONOutput
	Status string `flag:"status,s" desc:"filter by status (draft, pending, running, ...)"`
}

// listResult mirrors the daemon's job.list response.
type listResult struct {
	Jobs []*schemajob.Manifest `cbor:"jobs"`
}

func listCommand() *cli.Command {
	var params listParams

	return &cli.Command{
		Name:    "list",
		Summary: "List jobs",
		Description: `List all jobs the daemon knows, oldest first. --status narrows
the listing to one lifecycle status.`,
		Usage: "docket job list [--status STATUS]",
		Examples: []cli.Example{
			{
				Description: "Everything",
				Command:     "docket job list",
			},
			{
				Description: "Jobs parked at the approval gate",
				Command:     "docket job list --status approval_required",
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

			fields := map[string]any{}
			if params.Status != "" {
				fields["status"] = params.Status
			}
			var result listResult
			if err := client.Call(callCtx, "job.list", fields, &result); err != nil {
				return err
			}

			if done, err := params.EmitJSON(result.Jobs); done {
				return err
			}

			if len(result.Jobs) == 0 {
				logger.Info("no jobs")
				return nil
			}

			writer := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintf(writer, "ID\tSTATUS\tPHASE\tCOST\tTITLE\n")
			for _, manifest := range result.Jobs {
				fmt.Fprintf(writer, "%s\t%s\t%s\t%.2f\t%s\n",
					manifest.ID,
					manifest.Status,
					phaseLabel(manifest.Phase),
					manifest.Metrics.Cost,
					truncate(manifest.Title, 60),
				)
			}
			return writer.Flush()
		},
	}
}

func truncate(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return s[:maxLength]
	}
	return s[:maxLength-3] + "..."
}
