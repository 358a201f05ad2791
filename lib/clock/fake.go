// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"slices"
	"sort"
	"sync"
	"time"
)

// Fake returns a FakeClock pinned to the given time. Time stands still
// until Advance is called. After, NewTicker, and Sleep register alarms
// that fire when the clock moves past their deadline.
//
// FakeClock is safe for concurrent use by multiple goroutines.
func Fake(initial time.Time) *FakeClock {
	clock := &FakeClock{current: initial}
	clock.changed = sync.NewCond(&clock.mu)
	return clock
}

// FakeClock is a deterministic Clock for tests. The alarm list is kept
// sorted by deadline, so Advance fires alarms in order with a single
// scan from the front.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
	alarms  []*alarm

	// changed signals WaitForTimers whenever an alarm is registered.
	changed *sync.Cond
}

// alarm is one scheduled wake-up. One-shot alarms (After, Sleep) have
// every == 0 and are discarded when fired; ticker alarms are put back
// at their next interval.
type alarm struct {
	at    time.Time
	ch    chan time.Time
	every time.Duration
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// After returns a channel that receives once the clock advances d past
// the current time. A non-positive d delivers immediately without
// registering an alarm.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.current
		return ch
	}
	c.schedule(&alarm{at: c.current.Add(d), ch: ch})
	return ch
}

// NewTicker returns a Ticker that delivers on C every d of fake time.
// Panics if d <= 0.
func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: NewTicker interval must be positive")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ticking := &alarm{
		at:    c.current.Add(d),
		ch:    make(chan time.Time, 1),
		every: d,
	}
	c.schedule(ticking)

	return &Ticker{
		C: ticking.ch,
		stopFunc: func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.unschedule(ticking)
		},
	}
}

// Sleep blocks the calling goroutine until the clock advances past the
// deadline. A non-positive d returns immediately.
func (c *FakeClock) Sleep(d time.Duration) {
	<-c.After(d)
}

// Advance moves the clock forward by d and fires every alarm whose
// deadline falls within the new time, in deadline order. The lock is
// held for the whole advance; that is safe because every alarm channel
// is buffered and sends never block. Deliveries that find the buffer
// full are dropped, matching time.Ticker.
//
// A ticker whose interval is spanned several times over fires once per
// interval, though on a capacity-1 channel only the first undrained
// tick survives.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = c.current.Add(d)
	for len(c.alarms) > 0 && !c.alarms[0].at.After(c.current) {
		due := c.alarms[0]
		c.alarms = slices.Delete(c.alarms, 0, 1)

		select {
		case due.ch <- c.current:
		default:
		}

		if due.every > 0 {
			due.at = due.at.Add(due.every)
			c.schedule(due)
		}
	}
}

// schedule inserts an alarm keeping the list sorted by deadline.
// Alarms with equal deadlines keep registration order. Callers must
// hold c.mu.
func (c *FakeClock) schedule(a *alarm) {
	i := sort.Search(len(c.alarms), func(i int) bool {
		return c.alarms[i].at.After(a.at)
	})
	c.alarms = slices.Insert(c.alarms, i, a)
	c.changed.Broadcast()
}

// unschedule removes an alarm by identity. A second removal of the
// same alarm is a no-op, so Ticker.Stop is idempotent. Callers must
// hold c.mu.
func (c *FakeClock) unschedule(a *alarm) {
	if i := slices.Index(c.alarms, a); i >= 0 {
		c.alarms = slices.Delete(c.alarms, i, i+1)
	}
}

// WaitForTimers blocks until at least n alarms are registered and not
// yet fired. This closes the race between a goroutine registering a
// timer and the test advancing the clock:
//
//	go func() { fakeClock.Sleep(5 * time.Second) }()
//	fakeClock.WaitForTimers(1)         // blocks until Sleep registers
//	fakeClock.Advance(5 * time.Second) // deterministically fires
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.alarms) < n {
		c.changed.Wait()
	}
}

// PendingCount reports how many alarms are currently registered.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.alarms)
}
