// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

// Package agent runs the agent steps of a job and turns their output
// into structured results.
//
// The driver sees agents through the Executor interface: Invoke
// starts a step and returns a handle, Poll blocks until the step
// settles or the poll's context expires. Two implementations exist.
// CLI runs the configured agent binary as a subprocess with the
// DOCKET_* environment contract and reads its result file. Fake plays
// back a script for tests.
//
// A Result carries the agent's verdict (COMPLETED, STUCK, RETRY), a
// human-readable summary, evidence references, and the step's metric
// deltas. Results are validated at this boundary: a malformed result,
// like a negative cost delta, fails the step rather than corrupting
// job metrics downstream.
package agent
