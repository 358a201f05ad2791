// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

// Package history maintains the per-job audit stream: one JSONL file
// per job, one record per state transition, appended after the
// manifest commit that the record describes. The stream is
// append-only for the life of the job; when the job settles in a
// terminal state the stream is compressed in place and a content
// digest is recorded beside it.
//
// The manifest remains the source of truth. A missing or truncated
// audit record is an observability gap, not a state error, so append
// failures surface to the caller but never roll back a commit.
package history

import (
	"fmt"
	"time"

	"github.com/docket-works/docket/lib/schema/job"
)

// Record is one audit line: a state transition plus the job identity
// and the manifest revision the transition committed as.
type Record struct {
	JobID    string `json:"job_id"`
	Revision int64  `json:"revision"`

	job.TransitionRecord
}

// Validate checks a record before it is appended. The embedded
// transition carries its own validation; the envelope adds identity
// and revision checks.
func (r *Record) Validate() error {
	if err := job.ValidateID(r.JobID); err != nil {
		return err
	}
	if r.Revision < 1 {
		return fmt.Errorf("revision %d: audit records describe committed revisions", r.Revision)
	}
	return r.TransitionRecord.Validate()
}

// NewRecord builds the audit record for a manifest's most recent
// transition. The manifest must have at least one history entry and
// must already be committed (the record captures its revision).
func NewRecord(manifest *job.Manifest) (Record, error) {
	if len(manifest.History) == 0 {
		return Record{}, fmt.Errorf("job %s: no transitions to record", manifest.ID)
	}
	record := Record{
		JobID:            manifest.ID,
		Revision:         manifest.Revision,
		TransitionRecord: manifest.History[len(manifest.History)-1],
	}
	if record.MetricsDelta != nil {
		delta := *record.MetricsDelta
		record.MetricsDelta = &delta
	}
	if err := record.Validate(); err != nil {
		return Record{}, err
	}
	return record, nil
}

// Summary aggregates a stream of records: useful as a one-line
// account of what a run cost and how it moved.
type Summary struct {
	RecordCount    int64         `json:"record_count"`
	Cost           float64       `json:"cost"`
	ElapsedSeconds float64       `json:"elapsed_seconds"`
	ActionCount    int64         `json:"action_count"`
	FirstTimestamp time.Time     `json:"first_timestamp"`
	LastTimestamp  time.Time     `json:"last_timestamp"`
	Span           time.Duration `json:"span"`
}

// Summarize folds records into a Summary. Records are assumed to be
// in append order, as Read returns them.
func Summarize(records []Record) Summary {
	var summary Summary
	for _, record := range records {
		summary.RecordCount++
		if record.MetricsDelta != nil {
			summary.Cost += record.MetricsDelta.Cost
			summary.ElapsedSeconds += record.MetricsDelta.ElapsedSeconds
			summary.ActionCount += int64(record.MetricsDelta.ActionCount)
		}
		if summary.FirstTimestamp.IsZero() {
			summary.FirstTimestamp = record.Timestamp
		}
		summary.LastTimestamp = record.Timestamp
	}
	if !summary.FirstTimestamp.IsZero() {
		summary.Span = summary.LastTimestamp.Sub(summary.FirstTimestamp)
	}
	return summary
}
