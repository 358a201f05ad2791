// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

// Package job implements the "docket job" command group: creating
// jobs from task definitions, steering them through the lifecycle
// (activate, approve, reject, resubmit, terminate, cancel, suspend,
// resume), driving execution (advance, run), and inspecting state
// (show, list, history).
//
// Every command talks to docket-service over its Unix socket; the
// CLI holds no state and touches no files except task definitions,
// which it parses locally and ships inline.
package job
