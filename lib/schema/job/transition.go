// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package job

import "fmt"

// Trigger identifies what caused a status transition. Triggers are
// recorded verbatim in transition history, so these values are wire
// constants; changing them breaks history consumers.
type Trigger string

// Command triggers, issued by a human or external caller.
const (
	TriggerActivate  Trigger = "activate"
	TriggerSuspend   Trigger = "suspend"
	TriggerCancel    Trigger = "cancel"
	TriggerResume    Trigger = "resume"
	TriggerApprove   Trigger = "approve"
	TriggerReject    Trigger = "reject"
	TriggerResubmit  Trigger = "resubmit"
	TriggerTerminate Trigger = "terminate"
)

// Driver triggers, produced by the execution driver and the recovery
// monitor.
const (
	// TriggerStepStarted marks pending → running: the scheduler
	// picked the job and invoked the agent executor.
	TriggerStepStarted Trigger = "step-started"

	// TriggerStepCompleted marks running → reviewing: the work step
	// finished and the review invocation started.
	TriggerStepCompleted Trigger = "step-completed"

	// TriggerStepRetry marks running → pending: the agent asked for a
	// retry (or the invocation failed) and the retry budget allows
	// another attempt.
	TriggerStepRetry Trigger = "step-retry"

	// TriggerReviewApproved marks reviewing → approval_required: the
	// review invocation completed cleanly.
	TriggerReviewApproved Trigger = "review-approved"

	// TriggerReviewRetry marks reviewing → reviewing: the reviewer
	// asked for a retry and a fresh review invocation was started.
	TriggerReviewRetry Trigger = "review-retry"

	// TriggerReviewFlagged marks reviewing → intervention_required:
	// the reviewer flagged a problem.
	TriggerReviewFlagged Trigger = "review-flagged"

	// TriggerAgentStuck marks a transition to intervention_required
	// because the agent reported itself stuck.
	TriggerAgentStuck Trigger = "agent-stuck"

	// TriggerRetriesExhausted marks a transition to
	// intervention_required after the automatic retry budget ran out.
	TriggerRetriesExhausted Trigger = "retries-exhausted"

	// TriggerThresholdExceeded marks pending → intervention_required:
	// starting another step would cross a metrics ceiling. A
	// deliberate halt, not an error.
	TriggerThresholdExceeded Trigger = "threshold-exceeded"

	// TriggerAutoRecovery marks the recovery monitor forcing a
	// transient job back to a resting state after the inactivity
	// timeout. The only way a transient status resolves without an
	// agent result or a human command.
	TriggerAutoRecovery Trigger = "auto-recovery"
)

// ValidateTransition checks that from → to is a legal edge in the
// lifecycle state machine, regardless of trigger. Returns nil if legal.
func ValidateTransition(from, to Status) error {
	if !from.Valid() {
		return fmt.Errorf("unknown job status %q", from)
	}
	if !to.Valid() {
		return fmt.Errorf("unknown job status %q", to)
	}

	allowed := false
	switch from {
	case StatusDraft:
		allowed = to == StatusPending || to == StatusSuspended || to == StatusCanceled
	case StatusPending:
		allowed = to == StatusRunning || to == StatusSuspended ||
			to == StatusCanceled || to == StatusInterventionRequired
	case StatusSuspended:
		allowed = to == StatusPending || to == StatusCanceled
	case StatusRunning:
		allowed = to == StatusReviewing || to == StatusPending ||
			to == StatusInterventionRequired || to == StatusSuspended ||
			to == StatusCanceled
	case StatusReviewing:
		allowed = to == StatusApprovalRequired || to == StatusReviewing ||
			to == StatusInterventionRequired || to == StatusSuspended ||
			to == StatusCanceled
	case StatusApprovalRequired:
		allowed = to == StatusSuccess || to == StatusPending ||
			to == StatusSuspended || to == StatusCanceled
	case StatusInterventionRequired:
		allowed = to == StatusPending || to == StatusCanceled ||
			to == StatusSuspended
	case StatusSuccess, StatusCanceled:
		// Terminal: no outgoing transitions.
	}

	if !allowed {
		return fmt.Errorf("invalid status transition: %s → %s", from, to)
	}
	return nil
}

// Command is a caller-issued lifecycle operation. Each command is
// valid from a specific set of statuses and maps to exactly one target
// status; anything else is a StateError.
type Command string

const (
	CommandActivate  Command = "activate"
	CommandSuspend   Command = "suspend"
	CommandCancel    Command = "cancel"
	CommandResume    Command = "resume"
	CommandApprove   Command = "approve"
	CommandReject    Command = "reject"
	CommandResubmit  Command = "resubmit"
	CommandTerminate Command = "terminate"
)

// CommandTransition resolves a command against the current status,
// returning the target status and history trigger. Returns a
// *StateError if the command is not valid from the current status.
//
// Suspend and cancel on a transient status are best-effort: the
// transition commits immediately and the in-flight agent invocation is
// abandoned (interrupted where possible), never preempted mid-call.
func CommandTransition(command Command, from Status) (Status, Trigger, error) {
	switch command {
	case CommandActivate:
		if from == StatusDraft {
			return StatusPending, TriggerActivate, nil
		}
	case CommandSuspend:
		switch from {
		case StatusDraft, StatusPending, StatusRunning, StatusReviewing,
			StatusApprovalRequired, StatusInterventionRequired:
			return StatusSuspended, TriggerSuspend, nil
		}
	case CommandCancel:
		switch from {
		case StatusDraft, StatusPending, StatusSuspended, StatusRunning,
			StatusReviewing, StatusApprovalRequired:
			return StatusCanceled, TriggerCancel, nil
		}
	case CommandResume:
		if from == StatusSuspended {
			return StatusPending, TriggerResume, nil
		}
	case CommandApprove:
		if from == StatusApprovalRequired {
			return StatusSuccess, TriggerApprove, nil
		}
	case CommandReject:
		if from == StatusApprovalRequired {
			return StatusPending, TriggerReject, nil
		}
	case CommandResubmit:
		if from == StatusInterventionRequired {
			return StatusPending, TriggerResubmit, nil
		}
	case CommandTerminate:
		if from == StatusInterventionRequired {
			return StatusCanceled, TriggerTerminate, nil
		}
	default:
		return "", "", fmt.Errorf("unknown command %q", command)
	}
	return "", "", &StateError{Command: command, Status: from}
}
