// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/docket-works/docket/lib/agent"
	"github.com/docket-works/docket/lib/jobstore"
	"github.com/docket-works/docket/lib/queue"
	"github.com/docket-works/docket/lib/schema/job"
)

// Activate moves a draft to pending and gives it a queue place. The
// rank follows queue.Insert semantics: 0 is the front, a negative
// rank appends, out-of-range clamps to the end. Activation requires a
// task description: an empty draft has nothing to hand the agent.
func (d *Driver) Activate(jobID string, rank int) (Outcome, error) {
	manifest, err := d.loadForCommand(jobID, job.CommandActivate)
	if err != nil {
		return Outcome{JobID: jobID}, err
	}
	target, trigger, err := job.CommandTransition(job.CommandActivate, manifest.Status)
	if err != nil {
		return Outcome{JobID: jobID}, withJobID(err, jobID)
	}
	if strings.TrimSpace(manifest.Description) == "" {
		return Outcome{JobID: jobID}, &job.StateError{
			JobID:   jobID,
			Command: job.CommandActivate,
			Status:  manifest.Status,
			Reason:  "task description is required",
		}
	}

	finalRank, err := d.queue.Insert(jobID, rank)
	if err != nil {
		if !errors.Is(err, queue.ErrQueued) {
			return Outcome{JobID: jobID}, err
		}
		// Already queued (a previous activate lost its commit race);
		// keep the existing place.
		existing, ok, rankErr := d.queue.Rank(jobID)
		if rankErr != nil || !ok {
			return Outcome{JobID: jobID}, fmt.Errorf("job %s queued but rank unavailable: %v", jobID, rankErr)
		}
		finalRank = existing
	}

	from := manifest.Status
	if err := manifest.Transition(target, trigger, d.clock.Now(), "", nil); err != nil {
		return Outcome{JobID: jobID}, err
	}
	d.refreshQueueRank(manifest)

	outcome, err := d.commit(manifest, from, fmt.Sprintf("activated at queue rank %d", finalRank))
	if err != nil {
		// The draft never left draft; it must not hold a queue place.
		if _, removeErr := d.queue.Remove(jobID); removeErr != nil {
			d.logger.Error("rolling back queue insert", "job_id", jobID, "error", removeErr)
		}
		return Outcome{JobID: jobID}, err
	}
	return outcome, nil
}

// Approve accepts reviewed work: approval_required → success. The job
// leaves the queue and its audit stream is archived.
func (d *Driver) Approve(jobID string) (Outcome, error) {
	return d.settleCommand(jobID, job.CommandApprove, "approved")
}

// Terminate abandons a job stuck in intervention_required:
// → canceled. The job leaves the queue and its audit stream is
// archived.
func (d *Driver) Terminate(jobID string) (Outcome, error) {
	return d.settleCommand(jobID, job.CommandTerminate, "terminated")
}

// Cancel abandons a job from any non-terminal status except
// intervention_required (which uses Terminate). A transient job's
// invocation is interrupted best-effort after the commit.
func (d *Driver) Cancel(jobID string) (Outcome, error) {
	return d.settleCommand(jobID, job.CommandCancel, "canceled")
}

// settleCommand applies a command whose target status is terminal.
func (d *Driver) settleCommand(jobID string, command job.Command, noteVerb string) (Outcome, error) {
	manifest, err := d.loadForCommand(jobID, command)
	if err != nil {
		return Outcome{JobID: jobID}, err
	}
	target, trigger, err := job.CommandTransition(command, manifest.Status)
	if err != nil {
		return Outcome{JobID: jobID}, withJobID(err, jobID)
	}

	abandonedRef := manifest.PendingActionRef

	if _, err := d.queue.Remove(jobID); err != nil {
		return Outcome{JobID: jobID}, err
	}

	from := manifest.Status
	if err := manifest.Transition(target, trigger, d.clock.Now(), "", nil); err != nil {
		return Outcome{JobID: jobID}, err
	}
	outcome, err := d.commit(manifest, from, "job "+noteVerb)
	if err != nil {
		return Outcome{JobID: jobID}, err
	}

	d.interruptAbandoned(jobID, abandonedRef)
	d.archiveHistory(jobID)
	return outcome, nil
}

// Reject sends reviewed work back for another attempt:
// approval_required → pending, re-appended to the end of the queue.
func (d *Driver) Reject(jobID string, reason string) (Outcome, error) {
	return d.requeueCommand(jobID, job.CommandReject, reason, false)
}

// Resubmit returns a job from intervention_required to pending after
// a human cleared the blocker. The retry budget resets: the human
// intervention starts a fresh attempt. Re-appended to the end of the
// queue.
func (d *Driver) Resubmit(jobID string, reason string) (Outcome, error) {
	return d.requeueCommand(jobID, job.CommandResubmit, reason, true)
}

// requeueCommand applies a command that sends a job back to pending
// at the end of the queue.
func (d *Driver) requeueCommand(jobID string, command job.Command, reason string, resetRetries bool) (Outcome, error) {
	manifest, err := d.loadForCommand(jobID, command)
	if err != nil {
		return Outcome{JobID: jobID}, err
	}
	target, trigger, err := job.CommandTransition(command, manifest.Status)
	if err != nil {
		return Outcome{JobID: jobID}, withJobID(err, jobID)
	}

	rank, err := d.queue.Requeue(jobID)
	if err != nil {
		return Outcome{JobID: jobID}, err
	}

	from := manifest.Status
	if err := manifest.Transition(target, trigger, d.clock.Now(), reason, nil); err != nil {
		return Outcome{JobID: jobID}, err
	}
	if resetRetries {
		manifest.RetryCount = 0
	}
	d.refreshQueueRank(manifest)
	return d.commit(manifest, from, fmt.Sprintf("back in queue at rank %d", rank))
}

// Suspend parks a job. The queue place is kept so resuming restores
// the old position. A transient job's invocation is interrupted
// best-effort after the commit; the step's partial work is discarded.
func (d *Driver) Suspend(jobID string) (Outcome, error) {
	manifest, err := d.loadForCommand(jobID, job.CommandSuspend)
	if err != nil {
		return Outcome{JobID: jobID}, err
	}
	target, trigger, err := job.CommandTransition(job.CommandSuspend, manifest.Status)
	if err != nil {
		return Outcome{JobID: jobID}, withJobID(err, jobID)
	}

	abandonedRef := manifest.PendingActionRef

	from := manifest.Status
	if err := manifest.Transition(target, trigger, d.clock.Now(), "", nil); err != nil {
		return Outcome{JobID: jobID}, err
	}
	d.refreshQueueRank(manifest)
	outcome, err := d.commit(manifest, from, "job suspended")
	if err != nil {
		return Outcome{JobID: jobID}, err
	}

	d.interruptAbandoned(jobID, abandonedRef)
	return outcome, nil
}

// Resume returns a suspended job to pending. Jobs suspended before
// activation get a queue place now, appended at the end.
func (d *Driver) Resume(jobID string) (Outcome, error) {
	manifest, err := d.loadForCommand(jobID, job.CommandResume)
	if err != nil {
		return Outcome{JobID: jobID}, err
	}
	target, trigger, err := job.CommandTransition(job.CommandResume, manifest.Status)
	if err != nil {
		return Outcome{JobID: jobID}, withJobID(err, jobID)
	}

	if _, ok, err := d.queue.Rank(jobID); err != nil {
		return Outcome{JobID: jobID}, err
	} else if !ok {
		if _, err := d.queue.Insert(jobID, -1); err != nil {
			return Outcome{JobID: jobID}, err
		}
	}

	from := manifest.Status
	if err := manifest.Transition(target, trigger, d.clock.Now(), "", nil); err != nil {
		return Outcome{JobID: jobID}, err
	}
	d.refreshQueueRank(manifest)
	return d.commit(manifest, from, "job resumed")
}

// Next returns the id of the frontmost pending job, consulting the
// queue and pruning entries whose jobs are gone or settled.
func (d *Driver) Next() (string, bool, error) {
	return d.queue.Next(func(jobID string) (job.Status, error) {
		manifest, err := d.store.Load(jobID)
		if err != nil {
			if errors.Is(err, jobstore.ErrNotFound) {
				return "", queue.ErrUnknownJob
			}
			return "", err
		}
		return manifest.Status, nil
	})
}

// loadForCommand loads a manifest for a command, tagging not-found
// errors with the command for better messages.
func (d *Driver) loadForCommand(jobID string, command job.Command) (*job.Manifest, error) {
	manifest, err := d.store.Load(jobID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", command, err)
	}
	return manifest, nil
}

// withJobID stamps the job id onto a StateError produced by the
// transition table, which does not know it.
func withJobID(err error, jobID string) error {
	var stateErr *job.StateError
	if errors.As(err, &stateErr) && stateErr.JobID == "" {
		stateErr.JobID = jobID
	}
	return err
}

// interruptAbandoned tears down an invocation whose job was suspended
// or canceled out from under it. Best-effort: the executor may not
// support interruption, and the handle may already be settled.
func (d *Driver) interruptAbandoned(jobID, ref string) {
	if ref == "" {
		return
	}
	interrupter, ok := d.executor.(agent.Interrupter)
	if !ok {
		return
	}
	if err := interrupter.Interrupt(agent.Handle(ref)); err != nil {
		d.logger.Warn("interrupting abandoned invocation",
			"job_id", jobID, "handle", ref, "error", err)
	}
}
