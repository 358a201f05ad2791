// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

// Package job defines the job manifest schema: the durable record of a
// single unit of orchestrated work, its lifecycle status, cumulative
// metrics, and append-only transition history.
//
// The manifest is the single source of truth for "what happens next":
// the execution driver reads Status and nothing else to decide its next
// action. All code that mutates a manifest goes through the store's
// load/commit cycle; this package owns the shape of the document, its
// validation, and the legality of status transitions.
//
// Status values split into two groups. Resting states (draft, pending,
// suspended, success, canceled, approval_required,
// intervention_required) are safe to persist indefinitely awaiting the
// next trigger. Transient states (running, reviewing) represent
// in-flight execution and must resolve: either the agent invocation
// settles them, or the recovery monitor forces them back to a resting
// state after an inactivity timeout.
package job
