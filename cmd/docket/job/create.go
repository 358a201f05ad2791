// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package job

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/docket-works/docket/cmd/docket/cli"
	"github.com/docket-works/docket/lib/config"
	"github.com/docket-works/docket/lib/driver"
	schemajob "github.com/docket-works/docket/lib/schema/job"
	"github.com/docket-works/docket/lib/taskdef"
)

type createParams struct {
	cli.Connection
	cli.JSONOutput
	Task     string `flag:"task,t" desc:"task name resolved against the config's tasks directory"`
	Activate bool   `flag:"activate" desc:"activate the job into the queue after creating it"`
	Rank     int    `flag:"rank" desc:"queue position when activating (0 = front; default appends)" default:"-1"`
}

func createCommand() *cli.Command {
	var params createParams

	return &cli.Command{
		Name:    "create",
		Summary: "Create a draft job from a task definition",
		Description: `Create a draft job from a JSONC task definition.

The definition is parsed and validated locally, then shipped inline to
docket-service; the daemon never reads files outside its state
directory. The new job starts as a draft. Pass --activate to give it a
queue place immediately.`,
		Usage: "docket job create <file> [flags]  |  docket job create --task NAME [flags]",
		Examples: []cli.Example{
			{
				Description: "Create a draft from a file",
				Command:     "docket job create tasks/fix-flaky-watcher.jsonc",
			},
			{
				Description: "Create from the configured tasks directory and activate",
				Command:     "docket job create --task fix-flaky-watcher --activate",
			},
			{
				Description: "Create and cut to the front of the queue",
				Command:     "docket job create tasks/hotfix.jsonc --activate --rank 0",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("create", &params)
		},
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			path, err := resolveDefinitionPath(args, params.Task)
			if err != nil {
				return err
			}

			definition, err := taskdef.ReadFile(path)
			if err != nil {
				return err
			}
			if issues := taskdef.Validate(definition); len(issues) > 0 {
				return fmt.Errorf("%s:\n  %s", path, strings.Join(issues, "\n  "))
			}

			client, err := params.Connect()
			if err != nil {
				return err
			}

			fields := map[string]any{
				"title": definition.Title,
			}
			if definition.Description != "" {
				fields["description"] = definition.Description
			}
			if len(definition.Phases) > 0 {
				fields["phases"] = definition.Phases
			}
			if definition.Thresholds != nil {
				fields["thresholds"] = definition.Thresholds
			}
			if definition.Workspace != nil {
				fields["workspace"] = definition.Workspace
			}

			callCtx, cancel := cli.CallContext(ctx)
			defer cancel()

			var manifest schemajob.Manifest
			if err := client.Call(callCtx, "job.create", fields, &manifest); err != nil {
				return err
			}

			if !params.Activate {
				if done, err := params.EmitJSON(manifest); done {
					return err
				}
				fmt.Println(manifest.ID)
				return nil
			}

			activateFields := map[string]any{"job_id": manifest.ID}
			if params.Rank >= 0 {
				activateFields["rank"] = params.Rank
			}
			var outcome driver.Outcome
			if err := client.Call(callCtx, "job.activate", activateFields, &outcome); err != nil {
				return fmt.Errorf("created %s but activation failed: %w", manifest.ID, err)
			}

			if done, err := params.EmitJSON(outcome); done {
				return err
			}
			fmt.Println(manifest.ID)
			fmt.Println(formatOutcome(outcome))
			return nil
		},
	}
}

// resolveDefinitionPath picks the task file from either the single
// positional argument or the --task name, which resolves against the
// config file's tasks directory.
func resolveDefinitionPath(args []string, taskName string) (string, error) {
	if taskName != "" {
		if len(args) > 0 {
			return "", fmt.Errorf("give either a file path or --task, not both")
		}
		cfg, err := config.Load()
		if err != nil {
			return "", fmt.Errorf("--task needs the config file to locate the tasks directory: %w", err)
		}
		return filepath.Join(cfg.Paths.Tasks, taskName+".jsonc"), nil
	}
	if len(args) != 1 {
		return "", fmt.Errorf("expected exactly one task definition file (or --task NAME)")
	}
	return args[0], nil
}
