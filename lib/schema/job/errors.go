// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package job

import "fmt"

// StateError reports a command that is not valid from the job's
// current status. The job is never mutated: the command is rejected
// before any write. Callers can correct the command and retry.
type StateError struct {
	// JobID identifies the job, when known at the rejection site.
	JobID string

	// Command is the rejected operation.
	Command Command

	// Status is the job's status at the time of rejection.
	Status Status

	// Reason optionally explains a precondition failure beyond the
	// transition table, such as a missing task description on
	// activate.
	Reason string
}

func (e *StateError) Error() string {
	target := "job"
	if e.JobID != "" {
		target = e.JobID
	}
	if e.Reason != "" {
		return fmt.Sprintf("cannot %s %s in status %q: %s", e.Command, target, e.Status, e.Reason)
	}
	return fmt.Sprintf("cannot %s %s in status %q", e.Command, target, e.Status)
}
