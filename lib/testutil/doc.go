// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil carries the helpers Docket's tests share.
//
// [SocketDir] hands out short-path temp directories for Unix domain
// sockets. Socket paths are capped at 108 bytes (sun_path in
// sockaddr_un), and t.TempDir() under some runners nests deeply enough
// to blow that cap, so socket tests take their paths from /tmp.
//
// [RequireReceive] and [RequireClosed] are bounded channel waits. They
// are the one place the test suite deliberately touches wall-clock
// time; everything else drives time through lib/clock fakes. The bound
// is a hang safety valve, not a tuning knob: a test that trips it is
// broken, not slow.
//
// All helpers fail the test directly instead of returning errors,
// since nothing in test setup is recoverable.
//
// This package depends on no other Docket packages.
package testutil
