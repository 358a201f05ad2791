// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package job

import (
	"errors"
	"fmt"
	"time"
)

// ManifestVersion is the current schema version for job manifests.
// Increment when adding fields that existing code must not silently
// drop during read-modify-write.
const ManifestVersion = 1

// MaxSummaryLength caps the agent response summary stored in a
// transition record. Longer summaries are truncated by
// TruncateSummary before they reach the manifest.
const MaxSummaryLength = 500

// Manifest is the durable per-job record. The store serializes it as
// indented JSON with an atomic replace; everything else holds it in
// memory and mutates it only through the driver's transition cycle.
//
// Ownership during a transition is exclusive to the driver invocation
// that loaded it: at most one advance per job id at a time, enforced
// by the caller. The Revision field is the optimistic-concurrency
// safety net for callers that break that contract.
type Manifest struct {
	// Version is the manifest schema version (see ManifestVersion).
	// Code that modifies the manifest must call CanModify() first.
	Version int `json:"version"`

	// ID is the opaque unique job identifier (e.g., "job-a3f9c02e81d4").
	ID string `json:"id"`

	// Title is a short summary of the work.
	Title string `json:"title"`

	// Description is the full task text given to the agent,
	// supporting markdown. Required before the job can be activated.
	Description string `json:"description,omitempty"`

	// Status is the lifecycle state, the single source of truth for
	// what happens next. Transitions must follow ValidateTransition.
	Status Status `json:"status"`

	// Phase optionally points into an ordered list of logical
	// sub-steps for resumable multi-phase work. Independent of
	// Status: a rejected job resumes at its stored phase.
	Phase *Phase `json:"phase,omitempty"`

	// Metrics are cumulative monotonic counters.
	Metrics Metrics `json:"metrics"`

	// Thresholds are optional metric ceilings. Zero values mean
	// unlimited.
	Thresholds Thresholds `json:"thresholds,omitempty"`

	// RetryCount is the number of automatic retries consumed by
	// agent RETRY results and executor failures. Reset on resubmit.
	RetryCount int `json:"retry_count,omitempty"`

	// RecoveryCount is the number of times the recovery monitor
	// force-settled this job. Informational; does not consume the
	// retry budget.
	RecoveryCount int `json:"recovery_count,omitempty"`

	// QueueRank is the job's position in the processing queue at the
	// time of the last commit. Nil while in draft and after reaching
	// a terminal state. The queue file's order is authoritative;
	// this copy is refreshed whenever the job itself commits.
	QueueRank *int `json:"queue_rank,omitempty"`

	// PendingActionRef is the opaque handle of the in-flight agent
	// invocation. Set if and only if Status is transient; cleared on
	// settle.
	PendingActionRef string `json:"pending_action_ref,omitempty"`

	// Workspace carries the isolated-workspace references for the
	// external provisioning collaborator. Opaque to the state
	// machine; passed through to the agent invocation context.
	Workspace *Workspace `json:"workspace,omitempty"`

	// History is the ordered, append-only sequence of transition
	// records. Never mutated in place, never truncated; every status
	// change appends exactly one record.
	History []TransitionRecord `json:"history"`

	// Revision increments by exactly one on every successful commit.
	// The store refuses a commit whose in-memory revision does not
	// match the persisted one (ConflictError).
	Revision int64 `json:"revision"`

	// CreatedAt is when the job was created, UTC.
	CreatedAt time.Time `json:"created_at"`

	// LastTransitionAt is when Status last changed. The recovery
	// monitor's stuck detection compares this against the inactivity
	// timeout.
	LastTransitionAt time.Time `json:"last_transition_at"`
}

// Phase points into an ordered list of logical sub-steps.
type Phase struct {
	// Index is the current sub-step, 0-based. Index == len(Names)
	// means all phases are complete.
	Index int `json:"index"`

	// Names lists the sub-steps in execution order.
	Names []string `json:"names"`
}

// Validate checks the phase pointer is within bounds.
func (p *Phase) Validate() error {
	if len(p.Names) == 0 {
		return errors.New("phase: names must not be empty")
	}
	for i, name := range p.Names {
		if name == "" {
			return fmt.Errorf("phase: names[%d] is empty", i)
		}
	}
	if p.Index < 0 || p.Index > len(p.Names) {
		return fmt.Errorf("phase: index %d out of range for %d phases", p.Index, len(p.Names))
	}
	return nil
}

// Current returns the name of the current phase, or "" when all phases
// are complete.
func (p *Phase) Current() string {
	if p.Index >= len(p.Names) {
		return ""
	}
	return p.Names[p.Index]
}

// Workspace references the isolated working area a job's agent
// operates in. Provisioning (clone, worktree, branch creation) is an
// external collaborator; the state machine only carries these values
// into the invocation context.
type Workspace struct {
	// Repo is the repository URL or path.
	Repo string `json:"repo,omitempty"`

	// Branch is the job's working branch.
	Branch string `json:"branch,omitempty"`

	// Dir is the checkout directory the agent runs in.
	Dir string `json:"dir,omitempty"`
}

// TransitionRecord is an immutable history entry describing one status
// change. Created by the driver at the moment of commit; never edited.
type TransitionRecord struct {
	// From and To are the statuses on either side of the change.
	From Status `json:"from"`
	To   Status `json:"to"`

	// Trigger identifies what caused the change: a command verb, a
	// driver trigger, "threshold-exceeded", or "auto-recovery".
	Trigger Trigger `json:"trigger"`

	// Timestamp is when the transition was committed, UTC.
	Timestamp time.Time `json:"timestamp"`

	// Summary is the agent response summary for transitions settled
	// by an agent result. At most MaxSummaryLength characters.
	Summary string `json:"summary,omitempty"`

	// MetricsDelta is the metric increment applied with this
	// transition, when any.
	MetricsDelta *MetricsDelta `json:"metrics_delta,omitempty"`
}

// Validate checks a single history record.
func (r *TransitionRecord) Validate() error {
	if !r.From.Valid() {
		return fmt.Errorf("unknown from status %q", r.From)
	}
	if !r.To.Valid() {
		return fmt.Errorf("unknown to status %q", r.To)
	}
	if r.Trigger == "" {
		return errors.New("trigger is required")
	}
	if r.Timestamp.IsZero() {
		return errors.New("timestamp is required")
	}
	if len(r.Summary) > MaxSummaryLength {
		return fmt.Errorf("summary is %d characters, max %d", len(r.Summary), MaxSummaryLength)
	}
	if r.MetricsDelta != nil {
		if err := r.MetricsDelta.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks that all required fields are present and well-formed
// and that cross-field invariants hold. Returns an error describing
// the first invalid field found, or nil. The store treats a Validate
// failure on load as corrupt state.
func (m *Manifest) Validate() error {
	if m.Version < 1 {
		return fmt.Errorf("job manifest: version must be >= 1, got %d", m.Version)
	}
	if m.ID == "" {
		return errors.New("job manifest: id is required")
	}
	if m.Title == "" {
		return errors.New("job manifest: title is required")
	}
	if m.Status == "" {
		return errors.New("job manifest: status is required")
	}
	if !m.Status.Valid() {
		return fmt.Errorf("job manifest: unknown status %q", m.Status)
	}
	if m.Status.Transient() && m.PendingActionRef == "" {
		return fmt.Errorf("job manifest: pending_action_ref is required in status %q", m.Status)
	}
	if !m.Status.Transient() && m.PendingActionRef != "" {
		return fmt.Errorf("job manifest: pending_action_ref must be empty in status %q", m.Status)
	}
	if m.QueueRank != nil {
		if m.Status == StatusDraft {
			return errors.New("job manifest: queue_rank must be absent in draft")
		}
		if m.Status.Terminal() {
			return fmt.Errorf("job manifest: queue_rank must be absent in terminal status %q", m.Status)
		}
		if *m.QueueRank < 0 {
			return fmt.Errorf("job manifest: queue_rank must be >= 0, got %d", *m.QueueRank)
		}
	}
	if err := m.Metrics.Validate(); err != nil {
		return fmt.Errorf("job manifest: %w", err)
	}
	if err := m.Thresholds.Validate(); err != nil {
		return fmt.Errorf("job manifest: %w", err)
	}
	if m.RetryCount < 0 {
		return fmt.Errorf("job manifest: retry_count must be >= 0, got %d", m.RetryCount)
	}
	if m.RecoveryCount < 0 {
		return fmt.Errorf("job manifest: recovery_count must be >= 0, got %d", m.RecoveryCount)
	}
	if m.Phase != nil {
		if err := m.Phase.Validate(); err != nil {
			return fmt.Errorf("job manifest: %w", err)
		}
	}
	if m.Revision < 0 {
		return fmt.Errorf("job manifest: revision must be >= 0, got %d", m.Revision)
	}
	if m.CreatedAt.IsZero() {
		return errors.New("job manifest: created_at is required")
	}
	if m.LastTransitionAt.IsZero() {
		return errors.New("job manifest: last_transition_at is required")
	}
	for i := range m.History {
		if err := m.History[i].Validate(); err != nil {
			return fmt.Errorf("job manifest: history[%d]: %w", i, err)
		}
	}
	return nil
}

// CanModify checks whether this code version can safely perform a
// read-modify-write cycle on the manifest. If the manifest's Version
// exceeds ManifestVersion, this code does not understand all its
// fields and marshaling the modified struct back would silently drop
// them. Read-only access never requires CanModify.
func (m *Manifest) CanModify() error {
	if m.Version > ManifestVersion {
		return fmt.Errorf(
			"job manifest version %d exceeds supported version %d: "+
				"modification would lose fields added in newer versions",
			m.Version, ManifestVersion,
		)
	}
	return nil
}

// Transition mutates the manifest to the target status, appending
// exactly one history record and stamping LastTransitionAt. The
// metrics delta, if non-nil, is applied to the cumulative counters and
// embedded in the record. The summary is truncated to
// MaxSummaryLength.
//
// Transition validates the edge against the state machine table and
// returns an error without mutating anything if the edge is illegal.
// It does not persist: the caller commits the manifest afterwards,
// making the status change, metric update, and history append one
// atomic write.
func (m *Manifest) Transition(to Status, trigger Trigger, at time.Time, summary string, delta *MetricsDelta) error {
	if err := ValidateTransition(m.Status, to); err != nil {
		return err
	}
	if delta != nil {
		if err := delta.Validate(); err != nil {
			return err
		}
	}

	record := TransitionRecord{
		From:      m.Status,
		To:        to,
		Trigger:   trigger,
		Timestamp: at.UTC(),
		Summary:   TruncateSummary(summary),
	}
	if delta != nil && !delta.IsZero() {
		recorded := *delta
		record.MetricsDelta = &recorded
		m.Metrics.Apply(*delta)
	}

	m.Status = to
	m.History = append(m.History, record)
	m.LastTransitionAt = at.UTC()

	if !to.Transient() {
		m.PendingActionRef = ""
	}
	if to.Terminal() {
		m.QueueRank = nil
	}
	return nil
}

// TruncateSummary enforces MaxSummaryLength, appending an ellipsis
// marker when the input was cut.
func TruncateSummary(summary string) string {
	if len(summary) <= MaxSummaryLength {
		return summary
	}
	return summary[:MaxSummaryLength-3] + "..."
}

// Clone returns a deep copy of the manifest. The store hands out
// clones so concurrent loads never alias history slices.
func (m *Manifest) Clone() *Manifest {
	clone := *m
	if m.Phase != nil {
		phase := *m.Phase
		phase.Names = append([]string(nil), m.Phase.Names...)
		clone.Phase = &phase
	}
	if m.QueueRank != nil {
		rank := *m.QueueRank
		clone.QueueRank = &rank
	}
	if m.Workspace != nil {
		workspace := *m.Workspace
		clone.Workspace = &workspace
	}
	if m.History != nil {
		clone.History = make([]TransitionRecord, len(m.History))
		copy(clone.History, m.History)
		for i := range clone.History {
			if clone.History[i].MetricsDelta != nil {
				delta := *clone.History[i].MetricsDelta
				clone.History[i].MetricsDelta = &delta
			}
		}
	}
	return &clone
}
