// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"
)

// maxResultFileSize caps the agent's result file. A result is a small
// JSON object; anything bigger is a malfunctioning agent.
const maxResultFileSize = 1 << 20

// CLIOptions configures a CLI executor.
type CLIOptions struct {
	// Command is the resolved agent binary path.
	Command string

	// Args are passed for work steps.
	Args []string

	// ReviewArgs are passed for review steps. Empty means Args.
	ReviewArgs []string

	// RunDir is where per-invocation directories are created.
	RunDir string

	// GracePeriod is how long a SIGTERM'd process group gets before
	// SIGKILL. Zero kills immediately.
	GracePeriod time.Duration

	// Logger receives invocation lifecycle events. Nil discards.
	Logger *slog.Logger
}

// CLI runs agent steps as subprocesses of this process.
//
// Each invocation gets a directory under RunDir named by its handle:
//
//	<run-dir>/<handle>/task.md       the task text given to the agent
//	<run-dir>/<handle>/result.json   written by the agent before exit
//	<run-dir>/<handle>/agent.log     combined stdout+stderr
//
// The contract with the agent binary is environment-variable based:
// DOCKET_TASK_FILE and DOCKET_RESULT_FILE carry the two paths,
// DOCKET_STEP carries "work" or "review", and the job identity and
// workspace arrive as DOCKET_JOB_ID, DOCKET_JOB_TITLE, DOCKET_PHASE,
// DOCKET_RETRY_COUNT, DOCKET_WORKSPACE_{REPO,BRANCH,DIR}. The agent
// writes its Result as JSON to DOCKET_RESULT_FILE and exits 0.
//
// Handles do not survive a process restart: polling a handle issued
// by a previous process reports StatusFailed, which the driver treats
// as a retryable failure. A restart therefore costs at most one retry
// per in-flight job; jobs that never get polled again are caught by
// the recovery monitor's inactivity check.
type CLI struct {
	command     string
	args        []string
	reviewArgs  []string
	runDir      string
	gracePeriod time.Duration
	logger      *slog.Logger

	mutex sync.Mutex
	runs  map[Handle]*cliRun
}

// cliRun tracks one live subprocess.
type cliRun struct {
	cmd        *exec.Cmd
	cancel     context.CancelFunc
	done       chan struct{}
	resultPath string
	logFile    *os.File

	// Written before done is closed, read only after.
	waitErr error
}

// NewCLI validates options and returns a CLI executor.
func NewCLI(options CLIOptions) (*CLI, error) {
	if options.Command == "" {
		return nil, errors.New("agent command is required")
	}
	if options.RunDir == "" {
		return nil, errors.New("run directory is required")
	}
	if err := os.MkdirAll(options.RunDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating run directory %s: %w", options.RunDir, err)
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CLI{
		command:     options.Command,
		args:        options.Args,
		reviewArgs:  options.ReviewArgs,
		runDir:      options.RunDir,
		gracePeriod: options.GracePeriod,
		logger:      logger,
		runs:        make(map[Handle]*cliRun),
	}, nil
}

// newHandle returns a fresh invocation handle.
func newHandle() (Handle, error) {
	var raw [8]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("generating invocation handle: %w", err)
	}
	return Handle("run-" + hex.EncodeToString(raw[:])), nil
}

// Invoke starts the agent subprocess for one step and returns its
// handle. The ctx bounds setup only; the subprocess outlives it.
func (c *CLI) Invoke(ctx context.Context, jobContext JobContext) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	handle, err := newHandle()
	if err != nil {
		return "", &ExecutorFailure{JobID: jobContext.JobID, Op: "invoke", Err: err}
	}

	runPath := filepath.Join(c.runDir, string(handle))
	if err := os.MkdirAll(runPath, 0o700); err != nil {
		return "", &ExecutorFailure{JobID: jobContext.JobID, Op: "invoke",
			Err: fmt.Errorf("creating %s: %w", runPath, err)}
	}

	taskPath := filepath.Join(runPath, "task.md")
	taskText := jobContext.Description
	if taskText == "" {
		taskText = jobContext.Title
	}
	if err := os.WriteFile(taskPath, []byte(taskText), 0o600); err != nil {
		return "", &ExecutorFailure{JobID: jobContext.JobID, Op: "invoke",
			Err: fmt.Errorf("writing task file: %w", err)}
	}

	logFile, err := os.OpenFile(filepath.Join(runPath, "agent.log"),
		os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return "", &ExecutorFailure{JobID: jobContext.JobID, Op: "invoke",
			Err: fmt.Errorf("opening agent log: %w", err)}
	}

	resultPath := filepath.Join(runPath, "result.json")

	args := c.args
	if jobContext.Step == StepReview && len(c.reviewArgs) > 0 {
		args = c.reviewArgs
	}

	// The run's lifetime belongs to the run, not to the Invoke call:
	// cancellation comes from Interrupt, never from the caller's ctx.
	runCtx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(runCtx, c.command, args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Env = append(os.Environ(), invocationEnv(jobContext, taskPath, resultPath)...)

	// The agent gets its own process group so that signals reach it
	// and all its children (negative PID = the whole group).
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = c.cancelFunc(cmd)

	if err := cmd.Start(); err != nil {
		cancel()
		logFile.Close()
		return "", &ExecutorFailure{JobID: jobContext.JobID, Op: "invoke",
			Err: fmt.Errorf("starting %s: %w", c.command, err)}
	}

	run := &cliRun{
		cmd:        cmd,
		cancel:     cancel,
		done:       make(chan struct{}),
		resultPath: resultPath,
		logFile:    logFile,
	}
	c.mutex.Lock()
	c.runs[handle] = run
	c.mutex.Unlock()

	c.logger.Info("agent step started",
		"job_id", jobContext.JobID,
		"handle", string(handle),
		"step", string(jobContext.Step),
		"pid", cmd.Process.Pid)

	go func() {
		run.waitErr = cmd.Wait()
		run.logFile.Close()
		close(run.done)
	}()

	return handle, nil
}

// cancelFunc builds the teardown applied when a run's context is
// canceled: SIGTERM the process group, escalate to SIGKILL after the
// grace period.
func (c *CLI) cancelFunc(cmd *exec.Cmd) func() error {
	if c.gracePeriod <= 0 {
		return func() error {
			return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		}
	}
	return func() error {
		processGroupID := -cmd.Process.Pid
		if err := syscall.Kill(processGroupID, syscall.SIGTERM); err != nil {
			// SIGTERM failed (process group already gone), escalate.
			return syscall.Kill(processGroupID, syscall.SIGKILL)
		}
		go func() {
			time.Sleep(c.gracePeriod) //nolint:realclock process teardown deadline
			// Best-effort: the process group may have already exited.
			// ESRCH from a dead process group is harmless.
			_ = syscall.Kill(processGroupID, syscall.SIGKILL)
		}()
		return nil
	}
}

// invocationEnv builds the agent contract environment.
func invocationEnv(jobContext JobContext, taskPath, resultPath string) []string {
	env := []string{
		"DOCKET_JOB_ID=" + jobContext.JobID,
		"DOCKET_JOB_TITLE=" + jobContext.Title,
		"DOCKET_STEP=" + string(jobContext.Step),
		"DOCKET_TASK_FILE=" + taskPath,
		"DOCKET_RESULT_FILE=" + resultPath,
		fmt.Sprintf("DOCKET_RETRY_COUNT=%d", jobContext.RetryCount),
	}
	if jobContext.Phase != "" {
		env = append(env, "DOCKET_PHASE="+jobContext.Phase)
	}
	if workspace := jobContext.Workspace; workspace != nil {
		if workspace.Repo != "" {
			env = append(env, "DOCKET_WORKSPACE_REPO="+workspace.Repo)
		}
		if workspace.Branch != "" {
			env = append(env, "DOCKET_WORKSPACE_BRANCH="+workspace.Branch)
		}
		if workspace.Dir != "" {
			env = append(env, "DOCKET_WORKSPACE_DIR="+workspace.Dir)
		}
	}
	return env
}

// Poll blocks until the invocation settles or ctx expires. Expiry is
// StatusInProgress: the invocation keeps running and the caller polls
// again later.
func (c *CLI) Poll(ctx context.Context, handle Handle) (PollStatus, *Result, error) {
	c.mutex.Lock()
	run, ok := c.runs[handle]
	c.mutex.Unlock()
	if !ok {
		return StatusFailed, nil, &ExecutorFailure{Handle: handle, Op: "poll",
			Err: errors.New("unknown invocation handle (process restart?)")}
	}

	select {
	case <-run.done:
	case <-ctx.Done():
		return StatusInProgress, nil, nil
	}

	result, err := c.settle(handle, run)
	if err != nil {
		return StatusFailed, nil, err
	}
	return StatusDone, result, nil
}

// settle reads a finished run's result and retires the handle.
func (c *CLI) settle(handle Handle, run *cliRun) (*Result, error) {
	c.mutex.Lock()
	delete(c.runs, handle)
	c.mutex.Unlock()
	run.cancel()

	if run.waitErr != nil {
		var exitError *exec.ExitError
		if errors.As(run.waitErr, &exitError) {
			return nil, &ExecutorFailure{Handle: handle, Op: "result",
				Err: fmt.Errorf("agent exited with code %d", exitError.ExitCode())}
		}
		return nil, &ExecutorFailure{Handle: handle, Op: "result",
			Err: fmt.Errorf("agent did not run: %w", run.waitErr)}
	}

	result, err := readResultFile(run.resultPath)
	if err != nil {
		return nil, &ExecutorFailure{Handle: handle, Op: "result", Err: err}
	}
	return result, nil
}

// readResultFile parses and validates the agent's result JSON.
func readResultFile(path string) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("agent exited 0 without writing a result: %w", err)
	}
	if info.Size() > maxResultFileSize {
		return nil, fmt.Errorf("result file is %d bytes, max %d", info.Size(), maxResultFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading result file: %w", err)
	}
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parsing result file: %w", err)
	}
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("result file: %w", err)
	}
	result.Normalize()
	return &result, nil
}

// Interrupt tears down an in-flight invocation: SIGTERM to the
// process group, SIGKILL after the grace period. Unknown handles are
// a no-op; the invocation already settled or belonged to a previous
// process.
func (c *CLI) Interrupt(handle Handle) error {
	c.mutex.Lock()
	run, ok := c.runs[handle]
	c.mutex.Unlock()
	if !ok {
		return nil
	}
	c.logger.Info("interrupting agent step", "handle", string(handle))
	run.cancel()
	return nil
}

// Running returns the number of live invocations.
func (c *CLI) Running() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.runs)
}
