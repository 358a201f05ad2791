// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"fmt"

	"github.com/docket-works/docket/lib/schema/job"
)

// Action is the agent's self-reported outcome of a finished step.
// Wire constants: they appear verbatim in result files.
type Action string

const (
	// ActionCompleted means the step finished its work.
	ActionCompleted Action = "COMPLETED"

	// ActionStuck means the agent cannot make progress and a human
	// must intervene.
	ActionStuck Action = "STUCK"

	// ActionRetry means the step should be attempted again (the
	// agent hit a transient obstacle it believes a fresh run clears).
	ActionRetry Action = "RETRY"
)

// Valid reports whether a is a recognized action.
func (a Action) Valid() bool {
	return a == ActionCompleted || a == ActionStuck || a == ActionRetry
}

// StepKind distinguishes the two invocation flavors.
type StepKind string

const (
	// StepWork is a work step: the agent advances the task.
	StepWork StepKind = "work"

	// StepReview is a review step: the agent inspects the work the
	// previous step produced.
	StepReview StepKind = "review"
)

// Handle is the opaque reference to an in-flight invocation. It is
// persisted in the manifest's pending_action_ref, so it must survive
// serialization; beyond that its content is the executor's business.
type Handle string

// PollStatus describes an invocation's progress.
type PollStatus string

const (
	// StatusInProgress means the invocation has not finished.
	StatusInProgress PollStatus = "in_progress"

	// StatusDone means the invocation finished and produced a Result.
	StatusDone PollStatus = "done"

	// StatusFailed means the invocation errored without a usable
	// result (crashed, was killed, wrote garbage). The driver treats
	// this like an agent RETRY, bounded by the retry budget.
	StatusFailed PollStatus = "failed"
)

// Result is the structured outcome of a finished invocation, parsed
// from the agent's result file.
type Result struct {
	// Action is what the agent says should happen next.
	Action Action `json:"action"`

	// Summary is the agent's account of the step, recorded in the
	// transition history (truncated there to the manifest limit).
	Summary string `json:"summary,omitempty"`

	// EvidenceRefs point at artifacts backing the summary: commit
	// SHAs, file paths, CI run URLs. Opaque to the state machine.
	EvidenceRefs []string `json:"evidence_refs,omitempty"`

	// CostDelta is the monetary cost this step consumed.
	CostDelta float64 `json:"cost_delta,omitempty"`

	// Actions is the number of discrete agent actions (tool calls,
	// edits) taken during the step.
	Actions int `json:"actions,omitempty"`
}

// Validate rejects malformed results. A negative delta would violate
// metric monotonicity downstream, so it is refused here, at the
// boundary where it is unambiguously the agent's fault.
func (r *Result) Validate() error {
	if !r.Action.Valid() {
		return fmt.Errorf("unknown result action %q", r.Action)
	}
	if r.CostDelta < 0 {
		return fmt.Errorf("negative cost_delta %v", r.CostDelta)
	}
	if r.Actions < 0 {
		return fmt.Errorf("negative actions %d", r.Actions)
	}
	return nil
}

// Normalize trims the result to manifest limits: the summary is
// truncated the same way the transition record will store it.
func (r *Result) Normalize() {
	r.Summary = job.TruncateSummary(r.Summary)
}

// JobContext is everything an executor needs to run one step.
type JobContext struct {
	// JobID identifies the job; it reaches the agent environment so
	// evidence can name its job.
	JobID string

	// Title and Description are the task text. Description is the
	// full prompt-bearing body.
	Title       string
	Description string

	// Step selects work or review behavior.
	Step StepKind

	// Phase is the current phase name for multi-phase jobs, "".
	Phase string

	// RetryCount is how many retries preceded this invocation.
	RetryCount int

	// Workspace locates the checkout the agent operates in. May be
	// nil for jobs without a provisioned workspace.
	Workspace *job.Workspace
}

// Executor runs agent steps. Implementations: CLI (subprocess) and
// Fake (scripted, for tests).
//
// Invoke starts a step and returns promptly with a handle; the ctx
// bounds only the act of starting. Poll reports progress; it blocks
// until the invocation settles or ctx expires, and expiry is reported
// as StatusInProgress: a poll timeout is never a verdict on the
// invocation itself.
type Executor interface {
	Invoke(ctx context.Context, jobContext JobContext) (Handle, error)
	Poll(ctx context.Context, handle Handle) (PollStatus, *Result, error)
}

// Interrupter is the optional ability to interrupt an in-flight
// invocation. The driver uses it, when available, to tear down
// abandoned invocations after a best-effort suspend or cancel.
type Interrupter interface {
	Interrupt(handle Handle) error
}

// ExecutorFailure is the typed error for an invocation that could not
// run or could not produce a usable result. The driver maps it onto
// the retry path: each failure consumes retry budget, and exhaustion
// escalates to intervention.
type ExecutorFailure struct {
	// JobID is the job whose step failed.
	JobID string

	// Handle is the invocation, when one was issued.
	Handle Handle

	// Op is the executor operation that failed ("invoke", "poll",
	// "result").
	Op string

	// Err is the underlying cause.
	Err error
}

func (e *ExecutorFailure) Error() string {
	if e.Handle != "" {
		return fmt.Sprintf("executor %s failed for job %s (handle %s): %v", e.Op, e.JobID, e.Handle, e.Err)
	}
	return fmt.Sprintf("executor %s failed for job %s: %v", e.Op, e.JobID, e.Err)
}

func (e *ExecutorFailure) Unwrap() error { return e.Err }
