// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts time operations for testability. Production code
// injects Real(); tests inject Fake() with deterministic time control.
//
// Anything that reads the current time, sleeps, or ticks (stuck-job
// detection, executor polling, the recovery loop) should take a Clock
// instead of calling the time package directly.
type Clock interface {
	// Now reports the current time.
	Now() time.Time

	// After mirrors time.After: the returned channel receives once d
	// has elapsed. A non-positive d delivers immediately.
	After(d time.Duration) <-chan time.Time

	// NewTicker mirrors time.NewTicker, delivering on the Ticker's C
	// channel every d. Panics if d <= 0.
	NewTicker(d time.Duration) *Ticker

	// Sleep mirrors time.Sleep, blocking the calling goroutine for
	// at least d.
	Sleep(d time.Duration)
}

// Ticker delivers periodic ticks on C until stopped.
//
// C has capacity 1, matching time.Ticker: a consumer that falls
// behind loses ticks instead of queueing them.
type Ticker struct {
	C <-chan time.Time

	stopFunc func()
}

// Stop ends the tick stream. C is left open but receives nothing
// further.
func (t *Ticker) Stop() { t.stopFunc() }
