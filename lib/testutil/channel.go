// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import "time"

// waitLimit bounds every channel helper. A test that trips it is
// stuck, not slow: nothing in this module legitimately blocks for
// seconds, and an unbounded receive would hang the whole run.
const waitLimit = 5 * time.Second

// TB is the slice of testing.TB the channel helpers need. Declared
// here so the helpers stay generic over *testing.T without importing
// the testing package into callers' production builds.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
}

// RequireReceive returns the next value from channel, failing the test
// if nothing arrives before the safety valve fires or the channel
// closes empty. The what string names the awaited event in failure
// output.
func RequireReceive[T any](t TB, channel <-chan T, what string) T {
	t.Helper()
	timer := time.NewTimer(waitLimit) //nolint:realclock test hang prevention
	defer timer.Stop()
	select {
	case value, open := <-channel:
		if !open {
			t.Fatalf("%s: channel closed before delivering a value", what)
		}
		return value
	case <-timer.C:
		t.Fatalf("%s: nothing received within %v", what, waitLimit)
	}
	panic("unreachable")
}

// RequireClosed waits for a close-signaling channel, failing the test
// if it is still open when the safety valve fires. Use this for done
// channels that goroutines close on exit.
func RequireClosed(t TB, channel <-chan struct{}, what string) {
	t.Helper()
	timer := time.NewTimer(waitLimit) //nolint:realclock test hang prevention
	defer timer.Stop()
	select {
	case <-channel:
	case <-timer.C:
		t.Fatalf("%s: channel still open after %v", what, waitLimit)
	}
}
