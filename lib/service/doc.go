// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

// Package service provides the Unix socket protocol shared by the
// docket daemon and its clients.
//
// The protocol is CBOR request-response with one request per
// connection: the client connects, writes a single CBOR map carrying
// an "action" field plus action-specific parameters, and reads a
// single Response envelope. CBOR values are self-delimiting, so there
// is no framing layer. Requests and responses are size-capped, reads
// and writes carry deadlines, and shutdown drains in-flight handlers
// before the listener goes away.
//
// There is no socket-level authentication: the socket file's
// permissions are the access control. The daemon creates it inside
// the state directory, which is owner-only.
package service
