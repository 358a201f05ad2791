// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

// Package board implements the "docket board" command: a full-screen
// terminal board showing every job in the state directory, live.
package board

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/docket-works/docket/cmd/docket/cli"
	"github.com/docket-works/docket/lib/boardui"
	"github.com/docket-works/docket/lib/config"
)

// Command returns the "board" subcommand that launches the interactive
// job board TUI.
func Command() *cli.Command {
	var configPath string
	var stateDir string
	var watch bool

	return &cli.Command{
		Name:    "board",
		Summary: "Interactive job board",
		Description: `Launch a full-screen terminal board over the job store.

The board reads manifests directly from the state directory, so it
works with or without a running daemon. With --watch (the default)
it follows the directory with inotify and updates as the driver
commits transitions; recently changed rows flash briefly.

Tabs: 1 active jobs grouped by status, 2 jobs needing a human,
3 settled jobs, 4 everything. Press / to filter, q to quit.

The state directory comes from --state, or from the docket config
(DOCKET_CONFIG or --config) when the flag is omitted.`,
		Usage: "docket board [flags]",
		Examples: []cli.Example{
			{
				Description: "Watch every job on the live board",
				Command:     "docket board",
			},
			{
				Description: "One-shot view of a specific state directory",
				Command:     "docket board --state /srv/docket/state --watch=false",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("board", pflag.ContinueOnError)
			flagSet.StringVar(&stateDir, "state", "", "state directory (default: paths.state from config)")
			flagSet.StringVar(&configPath, "config", "", "path to docket.yaml (default: $DOCKET_CONFIG)")
			flagSet.BoolVar(&watch, "watch", true, "follow the state directory for live updates")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 0 {
				return fmt.Errorf("board takes no arguments")
			}

			root, err := resolveStateDir(stateDir, configPath)
			if err != nil {
				return err
			}

			var source *boardui.DirSource
			if watch {
				watched, cleanup, err := boardui.WatchStateDir(root)
				if err != nil {
					return fmt.Errorf("watching state dir %s: %w", root, err)
				}
				defer cleanup()
				source = watched
			} else {
				loaded, err := boardui.LoadStateDir(root)
				if err != nil {
					return fmt.Errorf("loading state dir %s: %w", root, err)
				}
				source = loaded
			}

			model := boardui.NewModel(source)
			program := tea.NewProgram(model, tea.WithAltScreen())
			_, err = program.Run()
			return err
		},
	}
}

// resolveStateDir returns the state directory to read: the --state
// flag when given, otherwise paths.state from the docket config.
func resolveStateDir(stateFlag, configPath string) (string, error) {
	if stateFlag != "" {
		return stateFlag, nil
	}

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return "", fmt.Errorf("resolving state directory (pass --state to skip config): %w", err)
	}
	if cfg.Paths.State == "" {
		return "", fmt.Errorf("config has no paths.state; pass --state")
	}
	return cfg.Paths.State, nil
}
