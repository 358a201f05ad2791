// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/pflag"

	"github.com/docket-works/docket/cmd/docket/cli"
	schemajob "github.com/docket-works/docket/lib/schema/job"
)

type showParams struct {
	cli.Connection
	cli.JSONOutput
}

func showCommand() *cli.Command {
	var params showParams

	return &cli.Command{
		Name:    "show",
		Summary: "Show a job's manifest",
		Description: `Print a job's current state: status, phase position, cumulative
metrics, and queue place. --json emits the full manifest including
the transition history.`,
		Usage: "docket job show <job-id>",
		Examples: []cli.Example{
			{
				Description: "Inspect a job",
				Command:     "docket job show job-a3f9c02e81d4",
			},
			{
				Description: "Full manifest as JSON",
				Command:     "docket job show job-a3f9c02e81d4 --json",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("show", &params)
		},
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one job ID")
			}
			client, err := params.Connect()
			if err != nil {
				return err
			}

			callCtx, cancel := cli.CallContext(ctx)
			defer cancel()

			var manifest schemajob.Manifest
			if err := client.Call(callCtx, "job.show", map[string]any{"job_id": args[0]}, &manifest); err != nil {
				return err
			}
			if done, err := params.EmitJSON(&manifest); done {
				return err
			}
			printManifest(&manifest)
			return nil
		},
	}
}

func printManifest(manifest *schemajob.Manifest) {
	fmt.Printf("ID:          %s\n", manifest.ID)
	fmt.Printf("Title:       %s\n", manifest.Title)
	fmt.Printf("Status:      %s\n", manifest.Status)
	fmt.Printf("Phase:       %s\n", phaseLabel(manifest.Phase))
	fmt.Printf("Cost:        %.2f\n", manifest.Metrics.Cost)
	fmt.Printf("Elapsed:     %s\n", (time.Duration(manifest.Metrics.ElapsedSeconds * float64(time.Second))).Round(time.Second))
	fmt.Printf("Actions:     %d\n", manifest.Metrics.ActionCount)
	fmt.Printf("Retries:     %d\n", manifest.RetryCount)
	fmt.Printf("Queue rank:  %s\n", rankLabel(manifest.QueueRank))
	fmt.Printf("Created:     %s\n", manifest.CreatedAt.Local().Format(time.RFC3339))
	fmt.Printf("Last change: %s\n", manifest.LastTransitionAt.Local().Format(time.RFC3339))
}

// phaseLabel renders "implement (2/3)" for a job mid-phase, "done"
// once the pointer passes the last phase, and "-" for phaseless jobs.
func phaseLabel(phase *schemajob.Phase) string {
	if phase == nil || len(phase.Names) == 0 {
		return "-"
	}
	current := phase.Current()
	if current == "" {
		return fmt.Sprintf("done (%d/%d)", len(phase.Names), len(phase.Names))
	}
	return fmt.Sprintf("%s (%d/%d)", current, phase.Index+1, len(phase.Names))
}

func rankLabel(rank *int) string {
	if rank == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *rank)
}
