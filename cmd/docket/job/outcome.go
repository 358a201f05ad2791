// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package job

import (
	"fmt"

	"github.com/docket-works/docket/lib/driver"
)

// formatOutcome renders a driver outcome as a one-line account:
//
//	job-a3f9c02e81d4: pending -> running
//	job-a3f9c02e81d4: running (in_progress): invocation still running
func formatOutcome(outcome driver.Outcome) string {
	var line string
	if outcome.Kind == driver.OutcomeTransitioned {
		line = fmt.Sprintf("%s: %s -> %s", outcome.JobID, outcome.From, outcome.Status)
	} else {
		line = fmt.Sprintf("%s: %s (%s)", outcome.JobID, outcome.Status, outcome.Kind)
	}
	if outcome.Note != "" {
		line += ": " + outcome.Note
	}
	return line
}
