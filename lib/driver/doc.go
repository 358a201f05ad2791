// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

// Package driver advances jobs through their lifecycle.
//
// The Driver owns every mutation of a job manifest: human commands
// (Activate, Approve, Reject, Resubmit, Terminate, Suspend, Resume,
// Cancel) and the automatic Advance step that starts agent
// invocations, interprets their results, and enforces thresholds and
// retry budgets. Each mutation is one atomic commit of status, metric
// deltas, and an appended history record, guarded by the manifest
// revision; the audit stream is appended after the commit and never
// rolls it back.
//
// Advance never blocks past its caller's patience: polling a live
// invocation is bounded by the configured poll timeout, and expiry
// reports the job as still in progress rather than forcing a verdict.
// The only force applied to a transient job is the inactivity check,
// shared with the recovery monitor, for invocations nothing will ever
// poll again.
//
// RunToCompletion drives a single job until it settles into a
// terminal status or a status that needs a human, checking its
// context between advances. It never preempts an in-flight agent
// step.
package driver
