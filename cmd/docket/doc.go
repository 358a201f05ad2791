// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

// Docket is the CLI for a docket-service deployment. It creates jobs
// from task definitions (job create), steers them through the
// lifecycle (job activate, advance, run, approve, reject), inspects
// state (job show, list, history, queue list, status), and opens a
// live terminal board over every job (board).
package main
