// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package job

import "fmt"

// Status is the lifecycle state of a job. The zero value is invalid;
// jobs are created in StatusDraft.
type Status string

const (
	// StatusDraft is the initial state. The job exists but has not
	// been queued for processing. Required fields (notably the task
	// description) may still be missing.
	StatusDraft Status = "draft"

	// StatusPending means the job is activated and waiting in the
	// processing queue for a worker slot.
	StatusPending Status = "pending"

	// StatusSuspended means a human paused the job. It keeps its
	// place in the record but is skipped by the scheduler until
	// resumed.
	StatusSuspended Status = "suspended"

	// StatusRunning means an agent work step is in flight.
	// PendingActionRef holds the invocation handle.
	StatusRunning Status = "running"

	// StatusReviewing means the work step finished and an agent
	// review invocation is in flight. PendingActionRef holds the
	// review handle.
	StatusReviewing Status = "reviewing"

	// StatusApprovalRequired means the review passed and a human must
	// give final approval (or reject the work back to the queue).
	StatusApprovalRequired Status = "approval_required"

	// StatusInterventionRequired means the job halted on a problem an
	// agent cannot resolve: the agent flagged itself stuck, automatic
	// retries were exhausted, or a metrics threshold was hit. A human
	// must resubmit or terminate.
	StatusInterventionRequired Status = "intervention_required"

	// StatusSuccess is terminal: the work was approved.
	StatusSuccess Status = "success"

	// StatusCanceled is terminal: the job was canceled or terminated.
	StatusCanceled Status = "canceled"
)

// validStatuses is the set of all recognized status values.
var validStatuses = map[Status]bool{
	StatusDraft:                true,
	StatusPending:              true,
	StatusSuspended:            true,
	StatusRunning:              true,
	StatusReviewing:            true,
	StatusApprovalRequired:     true,
	StatusInterventionRequired: true,
	StatusSuccess:              true,
	StatusCanceled:             true,
}

// Valid reports whether s is a recognized status value.
func (s Status) Valid() bool { return validStatuses[s] }

// Transient reports whether s represents in-flight execution. A
// transient job must resolve via an agent result, a human command, or
// the recovery monitor; it is never left unattended.
func (s Status) Transient() bool {
	return s == StatusRunning || s == StatusReviewing
}

// Resting reports whether s is safe to persist indefinitely awaiting
// the next trigger.
func (s Status) Resting() bool {
	return s.Valid() && !s.Transient()
}

// Terminal reports whether s has no outgoing transitions. Terminal
// jobs are retained as the permanent record, never deleted.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusCanceled
}

// ParseStatus converts a wire string into a Status, rejecting unknown
// values.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown job status %q", raw)
	}
	return s, nil
}

// String returns the wire form of the status.
func (s Status) String() string { return string(s) }
