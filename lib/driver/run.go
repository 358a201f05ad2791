// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"context"
)

// RunToCompletion advances a job repeatedly until it settles or needs
// a human. Transitions chain immediately; when the job is merely
// waiting (invocation running, slots busy, start being retried) the
// loop sleeps one poll interval before trying again.
//
// Cancellation is cooperative: the context is checked between
// advances and bounds each poll, but an in-flight agent step is never
// preempted. On cancellation the last outcome is returned with the
// context's error.
func (d *Driver) RunToCompletion(ctx context.Context, jobID string) (Outcome, error) {
	var last Outcome
	for {
		if err := ctx.Err(); err != nil {
			return last, err
		}

		outcome, err := d.Advance(ctx, jobID)
		if err != nil {
			return outcome, err
		}
		last = outcome

		switch outcome.Kind {
		case OutcomeSettled, OutcomeAwaitingHuman:
			return outcome, nil
		case OutcomeTransitioned:
			// Progress was made; keep driving without a pause.
			continue
		default:
			select {
			case <-ctx.Done():
				return last, ctx.Err()
			case <-d.clock.After(d.pollInterval):
			}
		}
	}
}
