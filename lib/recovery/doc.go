// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

// Package recovery settles jobs that were abandoned mid-flight.
//
// A transient status (running, reviewing) is a claim that some driver
// process is actively polling an agent invocation. The claim goes
// stale when that process dies: the manifest says "in progress"
// forever while nothing is in progress. The Monitor detects this by
// age (last_transition_at older than the inactivity timeout) and
// forces the job back to a resting state under the auto-recovery
// trigger, bumping recovery_count so repeat offenders are visible.
//
// Recovery is deliberately conservative. It runs through the same
// optimistic-concurrency commit as every other writer, so a live
// driver that transitions the job first wins the race and the monitor
// backs off. It never invents agent results: a lost RUNNING step goes
// back to PENDING to be re-invoked, and a lost REVIEWING step goes to
// APPROVAL_REQUIRED because the underlying work did finish and a
// human gate is the safe substitute for the lost review.
package recovery
