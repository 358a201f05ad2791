// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package job

import "fmt"

// Metrics are cumulative counters for a job. Cost and ElapsedSeconds
// are monotonic: no operation may decrease them. The store rejects
// commits that would move either backwards.
type Metrics struct {
	// Cost is the cumulative monetary spend (USD) across all agent
	// invocations for this job.
	Cost float64 `json:"cost"`

	// ElapsedSeconds is the cumulative wall-clock time spent in
	// agent invocations, measured by the driver between invoke and
	// settle.
	ElapsedSeconds float64 `json:"elapsed_seconds"`

	// ActionCount is the cumulative number of discrete agent actions
	// (tool calls, edits) reported by step results.
	ActionCount int `json:"action_count"`
}

// Validate checks that the counters are non-negative.
func (m *Metrics) Validate() error {
	if m.Cost < 0 {
		return fmt.Errorf("metrics: cost must be >= 0, got %v", m.Cost)
	}
	if m.ElapsedSeconds < 0 {
		return fmt.Errorf("metrics: elapsed_seconds must be >= 0, got %v", m.ElapsedSeconds)
	}
	if m.ActionCount < 0 {
		return fmt.Errorf("metrics: action_count must be >= 0, got %d", m.ActionCount)
	}
	return nil
}

// MetricsDelta is the per-transition increment recorded in history.
// All fields must be non-negative; the driver rejects agent results
// carrying negative deltas as malformed.
type MetricsDelta struct {
	Cost           float64 `json:"cost,omitempty"`
	ElapsedSeconds float64 `json:"elapsed_seconds,omitempty"`
	ActionCount    int     `json:"action_count,omitempty"`
}

// Validate checks that the delta does not move any counter backwards.
func (d *MetricsDelta) Validate() error {
	if d.Cost < 0 {
		return fmt.Errorf("metrics delta: cost must be >= 0, got %v", d.Cost)
	}
	if d.ElapsedSeconds < 0 {
		return fmt.Errorf("metrics delta: elapsed_seconds must be >= 0, got %v", d.ElapsedSeconds)
	}
	if d.ActionCount < 0 {
		return fmt.Errorf("metrics delta: action_count must be >= 0, got %d", d.ActionCount)
	}
	return nil
}

// IsZero reports whether the delta carries no increments. Zero deltas
// are omitted from history records.
func (d *MetricsDelta) IsZero() bool {
	return d.Cost == 0 && d.ElapsedSeconds == 0 && d.ActionCount == 0
}

// Apply adds the delta to the metrics in place.
func (m *Metrics) Apply(delta MetricsDelta) {
	m.Cost += delta.Cost
	m.ElapsedSeconds += delta.ElapsedSeconds
	m.ActionCount += delta.ActionCount
}

// Thresholds are optional ceilings on cumulative metrics. A zero value
// means no ceiling for that counter. Crossing a ceiling forces the
// job to intervention_required with trigger "threshold-exceeded"
// instead of starting another step.
type Thresholds struct {
	// CostMax is the maximum cumulative cost (USD). 0 = unlimited.
	CostMax float64 `json:"cost_max,omitempty"`

	// ElapsedSecondsMax is the maximum cumulative elapsed time.
	// 0 = unlimited.
	ElapsedSecondsMax float64 `json:"elapsed_seconds_max,omitempty"`
}

// Validate checks that configured ceilings are positive.
func (t *Thresholds) Validate() error {
	if t.CostMax < 0 {
		return fmt.Errorf("thresholds: cost_max must be >= 0, got %v", t.CostMax)
	}
	if t.ElapsedSecondsMax < 0 {
		return fmt.Errorf("thresholds: elapsed_seconds_max must be >= 0, got %v", t.ElapsedSecondsMax)
	}
	return nil
}

// WouldExceed reports whether starting a step with the given estimated
// cost would cross a ceiling, and which ceiling. The elapsed check has
// no estimate: once elapsed time reaches its ceiling, no further step
// starts.
func (t *Thresholds) WouldExceed(current Metrics, estimatedStepCost float64) (bool, string) {
	if t.CostMax > 0 && current.Cost+estimatedStepCost > t.CostMax {
		return true, fmt.Sprintf("cost %.2f + estimated step cost %.2f exceeds ceiling %.2f",
			current.Cost, estimatedStepCost, t.CostMax)
	}
	if t.ElapsedSecondsMax > 0 && current.ElapsedSeconds >= t.ElapsedSecondsMax {
		return true, fmt.Sprintf("elapsed %.0fs has reached ceiling %.0fs",
			current.ElapsedSeconds, t.ElapsedSecondsMax)
	}
	return false, ""
}
