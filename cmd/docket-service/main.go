// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

// The docket-service daemon owns the docket state directory and
// exposes job, queue, and history operations over a Unix socket. It
// also runs the recovery sweep that returns abandoned transient jobs
// to a resting state.
//
// Exactly one daemon per state directory. The docket CLI talks to the
// socket; nothing else touches the state directory while the daemon
// runs.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/docket-works/docket/lib/agent"
	"github.com/docket-works/docket/lib/clock"
	"github.com/docket-works/docket/lib/config"
	"github.com/docket-works/docket/lib/driver"
	"github.com/docket-works/docket/lib/history"
	"github.com/docket-works/docket/lib/jobstore"
	"github.com/docket-works/docket/lib/queue"
	"github.com/docket-works/docket/lib/service"
	"github.com/docket-works/docket/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "path to docket.yaml (default: $DOCKET_CONFIG)")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("docket-service %s\n", version.Info())
		return nil
	}

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.EnsurePaths(); err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clk := clock.Real()

	store, err := jobstore.Open(cfg.Paths.State, jobstore.Options{
		BackupRetention: cfg.Store.BackupRetention,
		Clock:           clk,
	})
	if err != nil {
		return fmt.Errorf("opening job store: %w", err)
	}

	jobQueue := queue.Open(cfg.QueuePath())

	historyDir, err := history.OpenDir(cfg.HistoryDir())
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}

	agentCommand, err := cfg.ResolveAgentCommand()
	if err != nil {
		return err
	}
	executor, err := agent.NewCLI(agent.CLIOptions{
		Command:     agentCommand,
		Args:        cfg.Agent.Args,
		ReviewArgs:  cfg.Agent.ReviewArgs,
		RunDir:      filepath.Join(cfg.Paths.State, "runs"),
		GracePeriod: cfg.AgentGracePeriod(),
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("building agent executor: %w", err)
	}

	jobDriver, err := driver.New(driver.Options{
		Store:             store,
		Queue:             jobQueue,
		History:           historyDir,
		Executor:          executor,
		Clock:             clk,
		Logger:            logger,
		RetryLimit:        cfg.Driver.RetryLimit,
		MaxRunning:        cfg.Driver.MaxRunning,
		StepCostEstimate:  cfg.Driver.StepCostEstimate,
		PollTimeout:       cfg.PollTimeout(),
		PollInterval:      cfg.PollInterval(),
		InactivityTimeout: cfg.InactivityTimeout(),
	})
	if err != nil {
		return fmt.Errorf("building driver: %w", err)
	}

	docketService := &DocketService{
		driver:    jobDriver,
		store:     store,
		queue:     jobQueue,
		history:   historyDir,
		clock:     clk,
		startedAt: clk.Now(),
		logger:    logger,
	}

	socketServer := service.NewServer(cfg.Service.SocketPath, logger)
	docketService.registerActions(socketServer)

	socketDone := make(chan error, 1)
	go func() {
		socketDone <- socketServer.Serve(ctx)
	}()

	go docketService.recoveryLoop(ctx, cfg.RecoveryInterval())

	logger.Info("docket service running",
		"state_dir", cfg.Paths.State,
		"socket", cfg.Service.SocketPath,
		"agent", agentCommand,
	)

	<-ctx.Done()
	logger.Info("shutting down")

	if err := <-socketDone; err != nil {
		logger.Error("socket server error", "error", err)
	}

	return nil
}
