// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec centralizes Docket's CBOR configuration.
//
// Docket draws a hard line between its two serialization formats.
// JSON is the external format: job manifests and backups on disk,
// task definitions, history exports, and the CLI's --json output.
// CBOR is the internal format, used only on the daemon socket between
// the docket CLI and docket-service.
//
// All CBOR in the tree goes through the modes defined here, so the
// same value encodes to the same bytes everywhere. Encoding follows
// RFC 8949 section 4.2 Core Deterministic Encoding: map keys sorted,
// integers in their smallest form, no indefinite-length items.
//
// Marshal and Unmarshal operate on byte slices. NewEncoder and
// NewDecoder wrap streams; the socket layer relies on CBOR being
// self-delimiting to run them directly on the connection.
//
// # Struct Tag Rules
//
// A type's struct tag declares which formats it participates in:
//
//   - `cbor` tags mark socket-only types, such as the request and
//     response envelopes. These never touch JSON.
//   - `json` tags mark types that cross both formats. fxamacker/cbor
//     falls back to `json` tags when no `cbor` tag is present, so one
//     tag drives field naming and omitempty on both sides. Job
//     manifests and everything surfaced by --json fall in this
//     bucket.
//
// Never put both tags on one field. The tag choice documents the
// contract; doubling up obscures whether a type participates in JSON
// serialization.
package codec
