// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/pflag"

	"github.com/docket-works/docket/cmd/docket/cli"
)

type statusParams struct {
	cli.Connection
	cli.JSONOutput
}

// statusResult mirrors the daemon's status response.
type statusResult struct {
	UptimeSeconds float64 `cbor:"uptime_seconds" json:"uptime_seconds"`
	Version       string  `cbor:"version" json:"version"`
	Jobs          int     `cbor:"jobs" json:"jobs"`
	QueueLength   int     `cbor:"queue_length" json:"queue_length"`
}

func statusCommand() *cli.Command {
	var params statusParams

	return &cli.Command{
		Name:    "status",
		Summary: "Show docket-service health",
		Usage:   "docket status",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("status", &params)
		},
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) != 0 {
				return fmt.Errorf("status takes no arguments")
			}
			client, err := params.Connect()
			if err != nil {
				return err
			}

			callCtx, cancel := cli.CallContext(ctx)
			defer cancel()

			var result statusResult
			if err := client.Call(callCtx, "status", nil, &result); err != nil {
				return err
			}

			if done, err := params.EmitJSON(result); done {
				return err
			}

			uptime := time.Duration(result.UptimeSeconds * float64(time.Second)).Round(time.Second)
			fmt.Printf("Version: %s\n", result.Version)
			fmt.Printf("Uptime:  %s\n", uptime)
			fmt.Printf("Jobs:    %d\n", result.Jobs)
			fmt.Printf("Queue:   %d\n", result.QueueLength)
			return nil
		},
	}
}
