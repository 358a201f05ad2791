// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/docket-works/docket/lib/schema/job"
)

// newShellCLI builds a CLI whose agent is /bin/sh running script.
func newShellCLI(t *testing.T, script string, options CLIOptions) *CLI {
	t.Helper()
	options.Command = "/bin/sh"
	options.Args = []string{"-c", script}
	if options.RunDir == "" {
		options.RunDir = t.TempDir()
	}
	cli, err := NewCLI(options)
	if err != nil {
		t.Fatalf("NewCLI: %v", err)
	}
	return cli
}

// pollSettled polls until the invocation settles, failing the test if
// it is still running after deadline.
func pollSettled(t *testing.T, cli *CLI, handle Handle) (PollStatus, *Result, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	status, result, err := cli.Poll(ctx, handle)
	if status == StatusInProgress {
		t.Fatal("invocation still in progress after 10s")
	}
	return status, result, err
}

func TestCLIRunsAgentAndParsesResult(t *testing.T) {
	script := `echo "{\"action\":\"COMPLETED\",\"summary\":\"$DOCKET_JOB_ID $DOCKET_STEP retry=$DOCKET_RETRY_COUNT\",\"cost_delta\":1.5,\"actions\":12}" > "$DOCKET_RESULT_FILE"`
	cli := newShellCLI(t, script, CLIOptions{})

	handle, err := cli.Invoke(context.Background(), JobContext{
		JobID:       "job-a1b2c3d4e5f6",
		Title:       "fix watcher",
		Description: "Fix the flaky watcher test",
		Step:        StepWork,
		RetryCount:  2,
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if cli.Running() != 1 {
		t.Errorf("Running = %d, want 1", cli.Running())
	}

	status, result, err := pollSettled(t, cli, handle)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if status != StatusDone {
		t.Fatalf("status = %v, want done", status)
	}
	if result.Action != ActionCompleted {
		t.Errorf("action = %q, want COMPLETED", result.Action)
	}
	want := "job-a1b2c3d4e5f6 work retry=2"
	if result.Summary != want {
		t.Errorf("summary = %q, want %q", result.Summary, want)
	}
	if result.CostDelta != 1.5 || result.Actions != 12 {
		t.Errorf("metrics = %v/%d, want 1.5/12", result.CostDelta, result.Actions)
	}
	if cli.Running() != 0 {
		t.Errorf("Running after settle = %d, want 0", cli.Running())
	}
}

func TestCLIWritesTaskFile(t *testing.T) {
	script := `echo "{\"action\":\"COMPLETED\",\"summary\":\"$(cat "$DOCKET_TASK_FILE")\"}" > "$DOCKET_RESULT_FILE"`
	cli := newShellCLI(t, script, CLIOptions{})

	handle, err := cli.Invoke(context.Background(), JobContext{
		JobID:       "job-a1b2c3d4e5f6",
		Title:       "fix watcher",
		Description: "Full task body here",
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	_, result, err := pollSettled(t, cli, handle)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if result.Summary != "Full task body here" {
		t.Errorf("task file content = %q, want description", result.Summary)
	}
}

func TestCLIReviewStepUsesReviewArgs(t *testing.T) {
	reviewScript := `echo "{\"action\":\"COMPLETED\",\"summary\":\"reviewed\"}" > "$DOCKET_RESULT_FILE"`
	cli, err := NewCLI(CLIOptions{
		Command:    "/bin/sh",
		Args:       []string{"-c", `echo "{\"action\":\"STUCK\"}" > "$DOCKET_RESULT_FILE"`},
		ReviewArgs: []string{"-c", reviewScript},
		RunDir:     t.TempDir(),
	})
	if err != nil {
		t.Fatalf("NewCLI: %v", err)
	}

	handle, err := cli.Invoke(context.Background(), JobContext{
		JobID: "job-a1b2c3d4e5f6",
		Title: "fix watcher",
		Step:  StepReview,
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	_, result, err := pollSettled(t, cli, handle)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if result.Summary != "reviewed" {
		t.Errorf("summary = %q, want the review script's output", result.Summary)
	}
}

func TestCLINonzeroExitFails(t *testing.T) {
	cli := newShellCLI(t, "exit 3", CLIOptions{})

	handle, err := cli.Invoke(context.Background(), JobContext{JobID: "job-a1b2c3d4e5f6"})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	status, _, err := pollSettled(t, cli, handle)
	if status != StatusFailed {
		t.Fatalf("status = %v, want failed", status)
	}
	var failure *ExecutorFailure
	if !errors.As(err, &failure) {
		t.Fatalf("error = %T, want *ExecutorFailure", err)
	}
	if !strings.Contains(err.Error(), "code 3") {
		t.Errorf("error = %v, want exit code 3", err)
	}
}

func TestCLIMissingResultFileFails(t *testing.T) {
	cli := newShellCLI(t, "true", CLIOptions{})

	handle, err := cli.Invoke(context.Background(), JobContext{JobID: "job-a1b2c3d4e5f6"})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	status, _, err := pollSettled(t, cli, handle)
	if status != StatusFailed {
		t.Fatalf("status = %v, want failed", status)
	}
	if !strings.Contains(err.Error(), "without writing a result") {
		t.Errorf("error = %v, want missing-result message", err)
	}
}

func TestCLIMalformedResultFails(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   string
	}{
		{
			name:   "not json",
			script: `echo "all done boss" > "$DOCKET_RESULT_FILE"`,
			want:   "parsing result file",
		},
		{
			name:   "unknown action",
			script: `echo "{\"action\":\"FINISHED\"}" > "$DOCKET_RESULT_FILE"`,
			want:   "unknown result action",
		},
		{
			name:   "negative cost delta",
			script: `echo "{\"action\":\"COMPLETED\",\"cost_delta\":-2}" > "$DOCKET_RESULT_FILE"`,
			want:   "negative cost_delta",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cli := newShellCLI(t, test.script, CLIOptions{})
			handle, err := cli.Invoke(context.Background(), JobContext{JobID: "job-a1b2c3d4e5f6"})
			if err != nil {
				t.Fatalf("Invoke: %v", err)
			}
			status, _, err := pollSettled(t, cli, handle)
			if status != StatusFailed {
				t.Fatalf("status = %v, want failed", status)
			}
			if !strings.Contains(err.Error(), test.want) {
				t.Errorf("error = %v, want substring %q", err, test.want)
			}
		})
	}
}

func TestCLIPollTimeoutReportsInProgress(t *testing.T) {
	cli := newShellCLI(t, "sleep 60", CLIOptions{})

	handle, err := cli.Invoke(context.Background(), JobContext{JobID: "job-a1b2c3d4e5f6"})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	status, result, err := cli.Poll(ctx, handle)
	if status != StatusInProgress || result != nil || err != nil {
		t.Fatalf("Poll = %v, %v, %v; want in_progress", status, result, err)
	}
	if cli.Running() != 1 {
		t.Errorf("Running = %d, want 1 (timeout must not settle)", cli.Running())
	}

	// Clean up the sleeper.
	if err := cli.Interrupt(handle); err != nil {
		t.Fatalf("Interrupt: %v", err)
	}
	pollSettled(t, cli, handle)
}

func TestCLIInterruptKillsProcessGroup(t *testing.T) {
	cli := newShellCLI(t, "sleep 60", CLIOptions{})

	handle, err := cli.Invoke(context.Background(), JobContext{JobID: "job-a1b2c3d4e5f6"})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if err := cli.Interrupt(handle); err != nil {
		t.Fatalf("Interrupt: %v", err)
	}

	status, _, err := pollSettled(t, cli, handle)
	if status != StatusFailed {
		t.Fatalf("status = %v, want failed (killed)", status)
	}
	if err == nil {
		t.Fatal("expected an error for a killed invocation")
	}
	if cli.Running() != 0 {
		t.Errorf("Running = %d, want 0", cli.Running())
	}
}

func TestCLIInterruptUnknownHandleIsNoop(t *testing.T) {
	cli := newShellCLI(t, "true", CLIOptions{})
	if err := cli.Interrupt("run-ffffffffffffffff"); err != nil {
		t.Fatalf("Interrupt: %v", err)
	}
}

func TestCLIUnknownHandleFailsPoll(t *testing.T) {
	cli := newShellCLI(t, "true", CLIOptions{})

	status, _, err := cli.Poll(context.Background(), "run-ffffffffffffffff")
	if status != StatusFailed {
		t.Fatalf("status = %v, want failed", status)
	}
	var failure *ExecutorFailure
	if !errors.As(err, &failure) {
		t.Fatalf("error = %T, want *ExecutorFailure", err)
	}
	if !strings.Contains(err.Error(), "unknown invocation handle") {
		t.Errorf("error = %v, want unknown-handle message", err)
	}
}

func TestCLIRequiresCommandAndRunDir(t *testing.T) {
	if _, err := NewCLI(CLIOptions{RunDir: t.TempDir()}); err == nil {
		t.Error("NewCLI without a command should fail")
	}
	if _, err := NewCLI(CLIOptions{Command: "/bin/sh"}); err == nil {
		t.Error("NewCLI without a run directory should fail")
	}
}

func TestCLIWorkspaceEnvironment(t *testing.T) {
	script := `echo "{\"action\":\"COMPLETED\",\"summary\":\"$DOCKET_WORKSPACE_REPO@$DOCKET_WORKSPACE_BRANCH\"}" > "$DOCKET_RESULT_FILE"`
	cli := newShellCLI(t, script, CLIOptions{})

	handle, err := cli.Invoke(context.Background(), JobContext{
		JobID: "job-a1b2c3d4e5f6",
		Title: "fix watcher",
		Workspace: &job.Workspace{
			Repo:   "git@example.com:team/repo.git",
			Branch: "docket/fix-watcher",
		},
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	_, result, err := pollSettled(t, cli, handle)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	want := "git@example.com:team/repo.git@docket/fix-watcher"
	if result.Summary != want {
		t.Errorf("workspace env = %q, want %q", result.Summary, want)
	}
}
