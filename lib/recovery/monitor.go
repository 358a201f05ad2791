// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package recovery

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/docket-works/docket/lib/clock"
	"github.com/docket-works/docket/lib/history"
	"github.com/docket-works/docket/lib/jobstore"
	"github.com/docket-works/docket/lib/schema/job"
)

// Options configures a Monitor.
type Options struct {
	// Store holds the job manifests to sweep.
	Store *jobstore.Store

	// History receives the forced transition records. Nil disables
	// audit appends.
	History *history.Dir

	// InactivityTimeout is how long a transient job may sit without a
	// transition before it is presumed abandoned.
	InactivityTimeout time.Duration

	// Clock defaults to the real clock.
	Clock clock.Clock

	// Logger receives recovery events. Nil discards.
	Logger *slog.Logger
}

// Monitor detects abandoned transient jobs and forces them back to a
// resting state. A job in RUNNING or REVIEWING whose last transition
// is older than the inactivity timeout has lost its driver (crash,
// kill, power loss): nothing will ever poll its invocation again, so
// the monitor settles it by fiat. RUNNING falls back to PENDING
// (the step is presumed lost and will be re-invoked), REVIEWING falls
// forward to APPROVAL_REQUIRED (the work itself finished; only the
// review is lost, and a human gate is the safe substitute).
type Monitor struct {
	store   *jobstore.Store
	history *history.Dir
	timeout time.Duration
	clock   clock.Clock
	logger  *slog.Logger
}

// NewMonitor validates options and returns a Monitor.
func NewMonitor(options Options) (*Monitor, error) {
	if options.Store == nil {
		return nil, errors.New("recovery monitor needs a store")
	}
	if options.InactivityTimeout <= 0 {
		return nil, fmt.Errorf("inactivity timeout must be positive, got %v", options.InactivityTimeout)
	}
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.DiscardHandler)
	}
	return &Monitor{
		store:   options.Store,
		history: options.History,
		timeout: options.InactivityTimeout,
		clock:   options.Clock,
		logger:  options.Logger,
	}, nil
}

// recoveryTarget maps a transient status to its forced resting state.
func recoveryTarget(status job.Status) (job.Status, job.Trigger, bool) {
	switch status {
	case job.StatusRunning:
		return job.StatusPending, job.TriggerAutoRecovery, true
	case job.StatusReviewing:
		return job.StatusApprovalRequired, job.TriggerAutoRecovery, true
	default:
		return "", "", false
	}
}

// Stale reports whether the manifest is transient and has been
// inactive past the timeout.
func (m *Monitor) Stale(manifest *job.Manifest) bool {
	if !manifest.Status.Transient() {
		return false
	}
	return m.clock.Now().Sub(manifest.LastTransitionAt) >= m.timeout
}

// Scan returns the IDs of all stale transient jobs. Manifests that
// fail to load are skipped with a warning; a corrupt job must not
// stall recovery of the others.
func (m *Monitor) Scan() ([]string, error) {
	ids, err := m.store.IDs()
	if err != nil {
		return nil, fmt.Errorf("scanning jobs: %w", err)
	}

	var stale []string
	for _, id := range ids {
		manifest, err := m.store.Load(id)
		if err != nil {
			m.logger.Warn("recovery scan skipping unreadable job", "job_id", id, "error", err)
			continue
		}
		if m.Stale(manifest) {
			stale = append(stale, id)
		}
	}
	return stale, nil
}

// ForceSettle forces one job out of its transient state. It reports
// whether a transition was committed: false means the job was already
// settled (not transient, or active again), which makes ForceSettle
// idempotent and safe to race against a live driver. A lost revision
// race reports false the same way, since losing means someone else
// transitioned the job first.
func (m *Monitor) ForceSettle(jobID string) (bool, error) {
	manifest, err := m.store.Load(jobID)
	if err != nil {
		return false, err
	}
	if !m.Stale(manifest) {
		return false, nil
	}
	target, trigger, ok := recoveryTarget(manifest.Status)
	if !ok {
		return false, nil
	}

	now := m.clock.Now()
	elapsed := now.Sub(manifest.LastTransitionAt).Round(time.Second)
	summary := fmt.Sprintf("no activity for %s; invocation %s presumed lost",
		elapsed, manifest.PendingActionRef)
	from := manifest.Status

	if err := manifest.Transition(target, trigger, now, summary, nil); err != nil {
		return false, fmt.Errorf("forcing %s out of %s: %w", jobID, from, err)
	}
	manifest.RecoveryCount++

	if err := m.store.Commit(manifest); err != nil {
		var conflict *jobstore.ConflictError
		if errors.As(err, &conflict) {
			// Someone else moved the job while we were deciding. Their
			// transition supersedes the forced one.
			m.logger.Info("recovery lost the race", "job_id", jobID)
			return false, nil
		}
		return false, err
	}

	m.logger.Warn("forced stale job to rest",
		"job_id", jobID,
		"from", string(from),
		"to", string(target),
		"inactive", elapsed.String(),
		"recovery_count", manifest.RecoveryCount)

	m.appendHistory(manifest)
	return true, nil
}

// Sweep scans and settles every stale job, returning how many were
// recovered. Individual settle failures are logged and skipped so one
// bad job cannot shield the rest from recovery.
func (m *Monitor) Sweep() (int, error) {
	stale, err := m.Scan()
	if err != nil {
		return 0, err
	}

	recovered := 0
	for _, id := range stale {
		settled, err := m.ForceSettle(id)
		if err != nil {
			m.logger.Error("recovery failed", "job_id", id, "error", err)
			continue
		}
		if settled {
			recovered++
		}
	}
	return recovered, nil
}

// appendHistory mirrors the committed transition into the audit
// stream. The commit already happened; a failed append costs
// observability, not correctness, so it only logs.
func (m *Monitor) appendHistory(manifest *job.Manifest) {
	if m.history == nil {
		return
	}
	record, err := history.NewRecord(manifest)
	if err != nil {
		m.logger.Error("recovery history record", "job_id", manifest.ID, "error", err)
		return
	}
	log, err := m.history.Log(manifest.ID)
	if err != nil {
		m.logger.Error("recovery history append", "job_id", manifest.ID, "error", err)
		return
	}
	defer log.Close()
	if err := log.Append(record); err != nil {
		m.logger.Error("recovery history append", "job_id", manifest.ID, "error", err)
	}
}
