// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import (
	"time"
)

// heatDecayDuration is how long a job row glows after a change event.
// Heat starts at 1.0 and decays linearly to 0.0 over this duration.
const heatDecayDuration = 5 * time.Second

// heatTickInterval is the re-render interval while any jobs are hot.
// 100ms gives ~10fps animation for smooth color decay.
const heatTickInterval = 100 * time.Millisecond

// HeatKind distinguishes different types of changes for color selection.
type HeatKind int

const (
	// HeatPut indicates a job was created or updated (amber glow).
	HeatPut HeatKind = iota
	// HeatRemove indicates a job left the state directory (red glow).
	HeatRemove
)

// heatEntry records when and how a job was last changed.
type heatEntry struct {
	ignition time.Time
	kind     HeatKind
}

// HeatTracker maps job IDs to ignition timestamps for animated change
// highlighting. Each change "ignites" a job, which then decays from
// full intensity to zero over [heatDecayDuration].
type HeatTracker struct {
	entries map[string]heatEntry
}

// NewHeatTracker creates an empty heat tracker.
func NewHeatTracker() *HeatTracker {
	return &HeatTracker{
		entries: make(map[string]heatEntry),
	}
}

// Ignite records a change event for a job. Resets the decay timer if
// the job was already hot.
func (tracker *HeatTracker) Ignite(jobID string, kind HeatKind, now time.Time) {
	tracker.entries[jobID] = heatEntry{ignition: now, kind: kind}
}

// Heat returns the current intensity for a job: 1.0 at ignition,
// linearly decaying to 0.0 over [heatDecayDuration]. Returns 0.0 for
// jobs that were never ignited or have fully decayed.
func (tracker *HeatTracker) Heat(jobID string, now time.Time) float64 {
	entry, exists := tracker.entries[jobID]
	if !exists {
		return 0.0
	}
	elapsed := now.Sub(entry.ignition)
	if elapsed >= heatDecayDuration {
		return 0.0
	}
	return 1.0 - float64(elapsed)/float64(heatDecayDuration)
}

// Kind returns the heat kind for a job (put or remove). Only
// meaningful when Heat() returns > 0.
func (tracker *HeatTracker) Kind(jobID string) HeatKind {
	entry, exists := tracker.entries[jobID]
	if !exists {
		return HeatPut
	}
	return entry.kind
}

// HasHot returns true if any tracked job still has heat > 0, meaning
// the tick timer should keep running for animation.
func (tracker *HeatTracker) HasHot(now time.Time) bool {
	for jobID, entry := range tracker.entries {
		if now.Sub(entry.ignition) < heatDecayDuration {
			return true
		}
		// Garbage-collect fully decayed entries.
		delete(tracker.entries, jobID)
	}
	return false
}
