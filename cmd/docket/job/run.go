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
	"github.com/docket-works/docket/lib/driver"
)

type runParams struct {
	cli.Connection
	cli.JSONOutput
	Interval time.Duration `flag:"interval" desc:"delay between advances while the invocation runs" default:"2s"`
}

func runCommand() *cli.Command {
	var params runParams

	return &cli.Command{
		Name:    "run",
		Summary: "Advance a job until it needs a human",
		Description: `Advance a job repeatedly until it rests.

Each round trip asks the daemon for one advance. Transitions chain
immediately; while an invocation is still running the command sleeps
for --interval between polls. The loop ends when the job settles or
parks at a human gate.

With --json only the final outcome is emitted, so the output stays a
single document.`,
		Usage: "docket job run <job-id> [--interval DURATION]",
		Examples: []cli.Example{
			{
				Description: "Drive a job to its next human gate",
				Command:     "docket job run job-a3f9c02e81d4",
			},
			{
				Description: "Poll more aggressively",
				Command:     "docket job run job-a3f9c02e81d4 --interval 500ms",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("run", &params)
		},
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one job ID")
			}
			client, err := params.Connect()
			if err != nil {
				return err
			}
			return runToRest(ctx, client, args[0], &params)
		},
	}
}

// caller abstracts the daemon client so the loop can be tested
// without a socket.
type caller interface {
	Call(ctx context.Context, action string, fields map[string]any, result any) error
}

func runToRest(ctx context.Context, client caller, jobID string, params *runParams) error {
	// Consecutive identical lines are collapsed so a long-running
	// invocation prints one "still running" line, not one per poll.
	lastLine := ""
	emit := func(outcome driver.Outcome) {
		if params.OutputJSON {
			return
		}
		line := formatOutcome(outcome)
		if line == lastLine {
			return
		}
		fmt.Println(line)
		lastLine = line
	}

	for {
		callCtx, cancel := cli.CallContext(ctx)
		var outcome driver.Outcome
		err := client.Call(callCtx, "job.advance", map[string]any{"job_id": jobID}, &outcome)
		cancel()
		if err != nil {
			return err
		}

		switch outcome.Kind {
		case driver.OutcomeTransitioned:
			emit(outcome)
			continue

		case driver.OutcomeSettled, driver.OutcomeAwaitingHuman:
			if done, err := params.EmitJSON(outcome); done {
				return err
			}
			emit(outcome)
			return nil

		default:
			// in_progress, waiting, retrying: give the invocation
			// (or the queue) time before asking again.
			emit(outcome)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(params.Interval):
			}
		}
	}
}
