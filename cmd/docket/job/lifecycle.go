// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package job

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/docket-works/docket/cmd/docket/cli"
	"github.com/docket-works/docket/lib/driver"
)

// actionParams are shared by the lifecycle verbs that need only a
// job ID.
type actionParams struct {
	cli.Connection
	cli.JSONOutput
}

// verbCommand builds a command for a daemon action that takes a single
// job ID and returns a driver outcome.
func verbCommand(verb, action, summary, description string, examples []cli.Example) *cli.Command {
	var params actionParams

	return &cli.Command{
		Name:        verb,
		Summary:     summary,
		Description: description,
		Usage:       fmt.Sprintf("docket job %s <job-id>", verb),
		Examples:    examples,
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams(verb, &params)
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

			var outcome driver.Outcome
			if err := client.Call(callCtx, action, map[string]any{"job_id": args[0]}, &outcome); err != nil {
				return err
			}
			if done, err := params.EmitJSON(outcome); done {
				return err
			}
			fmt.Println(formatOutcome(outcome))
			return nil
		},
	}
}

// reasonParams extend actionParams with the human-supplied reason
// recorded in the transition history.
type reasonParams struct {
	cli.Connection
	cli.JSONOutput
	Reason string `flag:"reason,r" desc:"reason recorded in the job history"`
}

// reasonCommand builds a command for a daemon action that takes a job
// ID plus a free-text reason.
func reasonCommand(verb, action, summary, description string, examples []cli.Example) *cli.Command {
	var params reasonParams

	return &cli.Command{
		Name:        verb,
		Summary:     summary,
		Description: description,
		Usage:       fmt.Sprintf("docket job %s <job-id> [--reason TEXT]", verb),
		Examples:    examples,
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams(verb, &params)
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

			fields := map[string]any{"job_id": args[0]}
			if params.Reason != "" {
				fields["reason"] = params.Reason
			}
			var outcome driver.Outcome
			if err := client.Call(callCtx, action, fields, &outcome); err != nil {
				return err
			}
			if done, err := params.EmitJSON(outcome); done {
				return err
			}
			fmt.Println(formatOutcome(outcome))
			return nil
		},
	}
}

type activateParams struct {
	cli.Connection
	cli.JSONOutput
	Rank int `flag:"rank" desc:"queue position (0 = front; default appends)" default:"-1"`
}

func activateCommand() *cli.Command {
	var params activateParams

	return &cli.Command{
		Name:    "activate",
		Summary: "Activate a draft into the queue",
		Description: `Move a draft job to pending and give it a queue place.

Activation requires a task description. By default the job joins the
end of the queue; --rank inserts at a specific position, with 0
cutting to the front.`,
		Usage: "docket job activate <job-id> [--rank N]",
		Examples: []cli.Example{
			{
				Description: "Queue a job at the end",
				Command:     "docket job activate job-a3f9c02e81d4",
			},
			{
				Description: "Make it the next job to run",
				Command:     "docket job activate job-a3f9c02e81d4 --rank 0",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("activate", &params)
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

			fields := map[string]any{"job_id": args[0]}
			if params.Rank >= 0 {
				fields["rank"] = params.Rank
			}
			var outcome driver.Outcome
			if err := client.Call(callCtx, "job.activate", fields, &outcome); err != nil {
				return err
			}
			if done, err := params.EmitJSON(outcome); done {
				return err
			}
			fmt.Println(formatOutcome(outcome))
			return nil
		},
	}
}

func advanceCommand() *cli.Command {
	return verbCommand("advance", "job.advance",
		"Advance a job by one step",
		`Advance a job by exactly one orchestration step.

One advance does one thing: starts the next work step, polls the
in-flight invocation, or reports that the job is parked at a human
gate. Use "docket job run" to chain advances until the job needs a
human.`,
		[]cli.Example{
			{
				Description: "Nudge a pending job into execution",
				Command:     "docket job advance job-a3f9c02e81d4",
			},
		})
}

func approveCommand() *cli.Command {
	return verbCommand("approve", "job.approve",
		"Approve a job at the approval gate",
		`Accept reviewed work and settle the job as a success.

Only valid while the job is parked at approval_required. The queue
place is released and the audit stream is archived.`,
		[]cli.Example{
			{
				Description: "Sign off on reviewed work",
				Command:     "docket job approve job-a3f9c02e81d4",
			},
		})
}

func rejectCommand() *cli.Command {
	return reasonCommand("reject", "job.reject",
		"Reject reviewed work back into the queue",
		`Send a job at the approval gate back to pending for another pass.

The job keeps its phase position and metrics; the reason is recorded
in the transition history for the next attempt to read.`,
		[]cli.Example{
			{
				Description: "Request another pass",
				Command:     "docket job reject job-a3f9c02e81d4 --reason 'error handling is missing'",
			},
		})
}

func resubmitCommand() *cli.Command {
	return reasonCommand("resubmit", "job.resubmit",
		"Return an intervention-required job to the queue",
		`Send a blocked job back to pending after clearing the blocker.

The retry budget resets: human intervention starts a fresh attempt.`,
		[]cli.Example{
			{
				Description: "Retry after fixing the environment",
				Command:     "docket job resubmit job-a3f9c02e81d4 --reason 'credentials rotated'",
			},
		})
}

func terminateCommand() *cli.Command {
	return verbCommand("terminate", "job.terminate",
		"Abandon an intervention-required job",
		`Settle a blocked job as canceled instead of retrying it.

Only valid while the job is parked at intervention_required.`,
		[]cli.Example{
			{
				Description: "Give up on a blocked job",
				Command:     "docket job terminate job-a3f9c02e81d4",
			},
		})
}

func cancelCommand() *cli.Command {
	return verbCommand("cancel", "job.cancel",
		"Cancel a job",
		`Cancel a job from any non-terminal state except
intervention_required (terminate or resubmit those explicitly).

An in-flight invocation is interrupted best-effort; partial work is
discarded.`,
		[]cli.Example{
			{
				Description: "Stop a job that is no longer needed",
				Command:     "docket job cancel job-a3f9c02e81d4",
			},
		})
}

func suspendCommand() *cli.Command {
	return verbCommand("suspend", "job.suspend",
		"Park a job without losing its queue place",
		`Suspend a job. The queue place is kept (the scheduler skips it)
so resuming restores the old position. An in-flight invocation is
interrupted; the current step's partial work is discarded.`,
		[]cli.Example{
			{
				Description: "Pause a job during an incident",
				Command:     "docket job suspend job-a3f9c02e81d4",
			},
		})
}

func resumeCommand() *cli.Command {
	return verbCommand("resume", "job.resume",
		"Resume a suspended job",
		`Return a suspended job to pending. A job suspended after
activation keeps the queue place it already had; one suspended from
draft is appended to the queue now.`,
		[]cli.Example{
			{
				Description: "Resume after the incident",
				Command:     "docket job resume job-a3f9c02e81d4",
			},
		})
}
