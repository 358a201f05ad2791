// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"context"
	"fmt"

	"github.com/docket-works/docket/lib/agent"
	"github.com/docket-works/docket/lib/schema/job"
)

// OutcomeKind classifies what one Advance call did.
type OutcomeKind string

const (
	// OutcomeTransitioned: a status transition was committed.
	OutcomeTransitioned OutcomeKind = "transitioned"

	// OutcomeInProgress: the job is transient and its invocation is
	// still running. Nothing changed; poll again later.
	OutcomeInProgress OutcomeKind = "in_progress"

	// OutcomeWaiting: the job is pending but every worker slot is
	// busy. Nothing changed; it keeps its queue place.
	OutcomeWaiting OutcomeKind = "waiting"

	// OutcomeRetrying: a step failed to start; the retry count was
	// consumed but the status did not change. The next advance tries
	// again.
	OutcomeRetrying OutcomeKind = "retrying"

	// OutcomeAwaitingHuman: the job rests in a status only a human
	// command can leave (draft, suspended, approval_required,
	// intervention_required).
	OutcomeAwaitingHuman OutcomeKind = "awaiting_human"

	// OutcomeSettled: the job is terminal. Advance is a no-op.
	OutcomeSettled OutcomeKind = "settled"
)

// Outcome describes the effect of one Advance call.
type Outcome struct {
	JobID string      `json:"job_id"`
	Kind  OutcomeKind `json:"kind"`

	// From is the status when the advance began, Status the status
	// after it. Equal unless Kind is OutcomeTransitioned.
	From   job.Status `json:"from"`
	Status job.Status `json:"status"`

	// Note explains the outcome in one human-readable line.
	Note string `json:"note,omitempty"`
}

// Advance moves a job one step along its lifecycle. Terminal statuses
// are a no-op. Transient statuses are polled, bounded by the poll
// timeout, with the inactivity check applied first. Pending jobs are
// checked against thresholds and the running cap, then their next
// work step is invoked. Human-gate statuses are left untouched.
//
// Every transition commits status, metrics, and the appended history
// record atomically; the audit stream append follows the commit.
func (d *Driver) Advance(ctx context.Context, jobID string) (Outcome, error) {
	manifest, err := d.store.Load(jobID)
	if err != nil {
		return Outcome{JobID: jobID}, err
	}

	switch {
	case manifest.Status.Terminal():
		return Outcome{
			JobID:  jobID,
			Kind:   OutcomeSettled,
			From:   manifest.Status,
			Status: manifest.Status,
			Note:   "job is settled",
		}, nil

	case manifest.Status.Transient():
		return d.advanceTransient(ctx, manifest)

	case manifest.Status == job.StatusPending:
		return d.advancePending(ctx, manifest)

	default:
		return Outcome{
			JobID:  jobID,
			Kind:   OutcomeAwaitingHuman,
			From:   manifest.Status,
			Status: manifest.Status,
			Note:   fmt.Sprintf("status %s awaits a human command", manifest.Status),
		}, nil
	}
}

// advanceTransient polls the in-flight invocation, after checking
// that the job has not gone stale under our feet.
func (d *Driver) advanceTransient(ctx context.Context, manifest *job.Manifest) (Outcome, error) {
	from := manifest.Status

	if d.recovery.Stale(manifest) {
		settled, err := d.recovery.ForceSettle(manifest.ID)
		if err != nil {
			return Outcome{JobID: manifest.ID}, err
		}
		recovered, err := d.store.Load(manifest.ID)
		if err != nil {
			return Outcome{JobID: manifest.ID}, err
		}
		outcome := Outcome{
			JobID:  manifest.ID,
			From:   from,
			Status: recovered.Status,
		}
		if settled {
			outcome.Kind = OutcomeTransitioned
			outcome.Note = "invocation presumed lost; forced back to rest"
		} else {
			outcome.Kind = OutcomeInProgress
			outcome.Note = "job changed concurrently during recovery"
		}
		return outcome, nil
	}

	pollCtx, cancel := context.WithTimeout(ctx, d.pollTimeout)
	defer cancel()

	handle := agent.Handle(manifest.PendingActionRef)
	status, result, pollErr := d.executor.Poll(pollCtx, handle)
	switch status {
	case agent.StatusInProgress:
		return Outcome{
			JobID:  manifest.ID,
			Kind:   OutcomeInProgress,
			From:   from,
			Status: from,
			Note:   "invocation still running",
		}, nil

	case agent.StatusDone:
		if result == nil {
			return Outcome{JobID: manifest.ID}, fmt.Errorf("executor reported done without a result for %s", manifest.ID)
		}
		return d.interpretResult(ctx, manifest, result)

	case agent.StatusFailed:
		d.logger.Warn("step failed",
			"job_id", manifest.ID,
			"handle", manifest.PendingActionRef,
			"error", pollErr)
		summary := "step failed"
		if pollErr != nil {
			summary = "step failed: " + pollErr.Error()
		}
		return d.applyRetry(ctx, manifest, summary, nil)

	default:
		return Outcome{JobID: manifest.ID}, fmt.Errorf("executor returned unknown poll status %q", status)
	}
}

// interpretResult turns a settled invocation's result into the next
// transition.
func (d *Driver) interpretResult(ctx context.Context, manifest *job.Manifest, result *agent.Result) (Outcome, error) {
	step, err := stepKindFor(manifest.Status)
	if err != nil {
		return Outcome{JobID: manifest.ID}, err
	}
	delta := d.resultDelta(manifest, result)
	summary := resultSummary(result)
	from := manifest.Status

	switch result.Action {
	case agent.ActionCompleted:
		if step == agent.StepWork {
			return d.completeWork(ctx, manifest, summary, delta)
		}
		if err := manifest.Transition(job.StatusApprovalRequired, job.TriggerReviewApproved,
			d.clock.Now(), summary, delta); err != nil {
			return Outcome{JobID: manifest.ID}, err
		}
		d.refreshQueueRank(manifest)
		return d.commit(manifest, from, "review approved; awaiting human approval")

	case agent.ActionStuck:
		trigger := job.TriggerAgentStuck
		note := "agent is stuck; intervention required"
		if step == agent.StepReview {
			trigger = job.TriggerReviewFlagged
			note = "review flagged the work; intervention required"
		}
		if err := manifest.Transition(job.StatusInterventionRequired, trigger,
			d.clock.Now(), summary, delta); err != nil {
			return Outcome{JobID: manifest.ID}, err
		}
		d.refreshQueueRank(manifest)
		return d.commit(manifest, from, note)

	case agent.ActionRetry:
		return d.applyRetry(ctx, manifest, summary, delta)

	default:
		return Outcome{JobID: manifest.ID}, fmt.Errorf("result carries unknown action %q", result.Action)
	}
}

// completeWork handles COMPLETED on a work step: advance the phase
// pointer, start the review invocation, and move to REVIEWING in one
// commit. If the review cannot start, the settled work handle is kept
// as the ref; the next advance's poll failure routes through the
// retry path and starts a fresh review.
func (d *Driver) completeWork(ctx context.Context, manifest *job.Manifest, summary string, delta *job.MetricsDelta) (Outcome, error) {
	from := manifest.Status

	if manifest.Phase != nil && manifest.Phase.Index < len(manifest.Phase.Names) {
		manifest.Phase.Index++
	}

	reviewHandle, invokeErr := d.executor.Invoke(ctx, d.jobContext(manifest, agent.StepReview))

	if err := manifest.Transition(job.StatusReviewing, job.TriggerStepCompleted,
		d.clock.Now(), summary, delta); err != nil {
		return Outcome{JobID: manifest.ID}, err
	}

	note := "work completed; review started"
	if invokeErr != nil {
		d.logger.Warn("review start failed; will retry on next advance",
			"job_id", manifest.ID, "error", invokeErr)
		note = "work completed; review could not start and will be retried"
	} else {
		manifest.PendingActionRef = string(reviewHandle)
	}

	d.refreshQueueRank(manifest)
	return d.commit(manifest, from, note)
}

// applyRetry consumes one unit of retry budget for a step that asked
// to retry or failed outright. Exhaustion escalates to
// intervention_required; otherwise a work step falls back to pending
// and a review step gets a fresh review invocation.
func (d *Driver) applyRetry(ctx context.Context, manifest *job.Manifest, summary string, delta *job.MetricsDelta) (Outcome, error) {
	from := manifest.Status
	manifest.RetryCount++

	if manifest.RetryCount > d.retryLimit {
		exhausted := fmt.Sprintf("retry budget (%d) exhausted", d.retryLimit)
		if summary != "" {
			exhausted += ": " + summary
		}
		if err := manifest.Transition(job.StatusInterventionRequired, job.TriggerRetriesExhausted,
			d.clock.Now(), exhausted, delta); err != nil {
			return Outcome{JobID: manifest.ID}, err
		}
		d.refreshQueueRank(manifest)
		return d.commit(manifest, from, "retry budget exhausted; intervention required")
	}

	step, err := stepKindFor(manifest.Status)
	if err != nil {
		return Outcome{JobID: manifest.ID}, err
	}

	if step == agent.StepWork {
		if err := manifest.Transition(job.StatusPending, job.TriggerStepRetry,
			d.clock.Now(), summary, delta); err != nil {
			return Outcome{JobID: manifest.ID}, err
		}
		d.refreshQueueRank(manifest)
		return d.commit(manifest, from,
			fmt.Sprintf("work step will retry (%d of %d)", manifest.RetryCount, d.retryLimit))
	}

	// Review retry stays REVIEWING with a fresh invocation. If the
	// fresh invocation cannot start, the old settled handle stays in
	// place and the next advance's poll failure consumes the next
	// retry.
	reviewHandle, invokeErr := d.executor.Invoke(ctx, d.jobContext(manifest, agent.StepReview))
	if err := manifest.Transition(job.StatusReviewing, job.TriggerReviewRetry,
		d.clock.Now(), summary, delta); err != nil {
		return Outcome{JobID: manifest.ID}, err
	}
	note := fmt.Sprintf("review retrying (%d of %d)", manifest.RetryCount, d.retryLimit)
	if invokeErr != nil {
		d.logger.Warn("review restart failed; will retry on next advance",
			"job_id", manifest.ID, "error", invokeErr)
		note = "review could not restart and will be retried"
	} else {
		manifest.PendingActionRef = string(reviewHandle)
	}
	d.refreshQueueRank(manifest)
	return d.commit(manifest, from, note)
}

// advancePending runs the pre-start checks and invokes the next work
// step.
func (d *Driver) advancePending(ctx context.Context, manifest *job.Manifest) (Outcome, error) {
	from := manifest.Status

	if exceeded, reason := manifest.Thresholds.WouldExceed(manifest.Metrics, d.stepCostEstimate); exceeded {
		if err := manifest.Transition(job.StatusInterventionRequired, job.TriggerThresholdExceeded,
			d.clock.Now(), reason, nil); err != nil {
			return Outcome{JobID: manifest.ID}, err
		}
		d.refreshQueueRank(manifest)
		return d.commit(manifest, from, "threshold reached: "+reason)
	}

	if d.maxRunning > 0 {
		running, err := d.transientCount()
		if err != nil {
			return Outcome{JobID: manifest.ID}, err
		}
		if running >= d.maxRunning {
			return Outcome{
				JobID:  manifest.ID,
				Kind:   OutcomeWaiting,
				From:   from,
				Status: from,
				Note:   fmt.Sprintf("all %d worker slots busy", d.maxRunning),
			}, nil
		}
	}

	handle, err := d.executor.Invoke(ctx, d.jobContext(manifest, agent.StepWork))
	if err != nil {
		return d.startFailed(manifest, err)
	}

	if err := manifest.Transition(job.StatusRunning, job.TriggerStepStarted,
		d.clock.Now(), "", nil); err != nil {
		return Outcome{JobID: manifest.ID}, err
	}
	manifest.PendingActionRef = string(handle)
	d.refreshQueueRank(manifest)
	return d.commit(manifest, from, "work step started")
}

// startFailed handles an invocation that could not start from
// pending: consume retry budget without a transition, or escalate
// when the budget is gone.
func (d *Driver) startFailed(manifest *job.Manifest, cause error) (Outcome, error) {
	from := manifest.Status
	d.logger.Warn("step start failed", "job_id", manifest.ID, "error", cause)

	manifest.RetryCount++
	if manifest.RetryCount > d.retryLimit {
		summary := job.TruncateSummary(fmt.Sprintf("retry budget (%d) exhausted: step could not start: %v",
			d.retryLimit, cause))
		if err := manifest.Transition(job.StatusInterventionRequired, job.TriggerRetriesExhausted,
			d.clock.Now(), summary, nil); err != nil {
			return Outcome{JobID: manifest.ID}, err
		}
		d.refreshQueueRank(manifest)
		return d.commit(manifest, from, "retry budget exhausted; intervention required")
	}

	// No transition: pending stays pending, only the consumed budget
	// is persisted.
	d.refreshQueueRank(manifest)
	if err := d.store.Commit(manifest); err != nil {
		return Outcome{}, err
	}
	return Outcome{
		JobID:  manifest.ID,
		Kind:   OutcomeRetrying,
		From:   from,
		Status: from,
		Note:   fmt.Sprintf("step start failed (retry %d of %d): %v", manifest.RetryCount, d.retryLimit, cause),
	}, nil
}
