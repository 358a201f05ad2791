// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/docket-works/docket/lib/agent"
	"github.com/docket-works/docket/lib/clock"
	"github.com/docket-works/docket/lib/history"
	"github.com/docket-works/docket/lib/jobstore"
	"github.com/docket-works/docket/lib/queue"
	"github.com/docket-works/docket/lib/recovery"
	"github.com/docket-works/docket/lib/schema/job"
)

// Defaults applied by New when an option is zero.
const (
	DefaultRetryLimit        = 3
	DefaultStepCostEstimate  = 1.0
	DefaultPollTimeout       = 30 * time.Second
	DefaultPollInterval      = 2 * time.Second
	DefaultInactivityTimeout = 30 * time.Minute
)

// Options configures a Driver.
type Options struct {
	// Store persists job manifests.
	Store *jobstore.Store

	// Queue orders activated jobs.
	Queue *queue.Queue

	// History receives audit records and archives settled streams.
	// Nil disables the audit stream.
	History *history.Dir

	// Executor runs agent steps.
	Executor agent.Executor

	// Clock defaults to the real clock.
	Clock clock.Clock

	// Logger receives lifecycle events. Nil discards.
	Logger *slog.Logger

	// RetryLimit is the automatic retry budget per job. A job whose
	// retry count would exceed it escalates to intervention_required.
	// Zero means DefaultRetryLimit; negative means no retries.
	RetryLimit int

	// MaxRunning caps concurrent transient jobs. Zero = unlimited.
	MaxRunning int

	// StepCostEstimate is the projected cost of one step, used by the
	// threshold check before starting a step. Zero means
	// DefaultStepCostEstimate.
	StepCostEstimate float64

	// PollTimeout bounds a single executor poll inside Advance.
	PollTimeout time.Duration

	// PollInterval paces RunToCompletion between advances.
	PollInterval time.Duration

	// InactivityTimeout is how long a transient job may sit without a
	// transition before Advance forces it back to rest.
	InactivityTimeout time.Duration
}

// Driver advances jobs through the lifecycle state machine. Safe for
// concurrent use across distinct jobs; the caller serializes advances
// of a single job, with the revision guard as the safety net.
type Driver struct {
	store    *jobstore.Store
	queue    *queue.Queue
	history  *history.Dir
	executor agent.Executor
	clock    clock.Clock
	logger   *slog.Logger
	recovery *recovery.Monitor

	retryLimit        int
	maxRunning        int
	stepCostEstimate  float64
	pollTimeout       time.Duration
	pollInterval      time.Duration
	inactivityTimeout time.Duration
}

// New validates options, fills defaults, and returns a Driver.
func New(options Options) (*Driver, error) {
	if options.Store == nil {
		return nil, errors.New("driver needs a store")
	}
	if options.Queue == nil {
		return nil, errors.New("driver needs a queue")
	}
	if options.Executor == nil {
		return nil, errors.New("driver needs an executor")
	}
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.DiscardHandler)
	}
	if options.RetryLimit == 0 {
		options.RetryLimit = DefaultRetryLimit
	}
	if options.StepCostEstimate == 0 {
		options.StepCostEstimate = DefaultStepCostEstimate
	}
	if options.PollTimeout <= 0 {
		options.PollTimeout = DefaultPollTimeout
	}
	if options.PollInterval <= 0 {
		options.PollInterval = DefaultPollInterval
	}
	if options.InactivityTimeout <= 0 {
		options.InactivityTimeout = DefaultInactivityTimeout
	}

	monitor, err := recovery.NewMonitor(recovery.Options{
		Store:             options.Store,
		History:           options.History,
		InactivityTimeout: options.InactivityTimeout,
		Clock:             options.Clock,
		Logger:            options.Logger,
	})
	if err != nil {
		return nil, err
	}

	return &Driver{
		store:             options.Store,
		queue:             options.Queue,
		history:           options.History,
		executor:          options.Executor,
		clock:             options.Clock,
		logger:            options.Logger,
		recovery:          monitor,
		retryLimit:        max(options.RetryLimit, 0),
		maxRunning:        options.MaxRunning,
		stepCostEstimate:  options.StepCostEstimate,
		pollTimeout:       options.PollTimeout,
		pollInterval:      options.PollInterval,
		inactivityTimeout: options.InactivityTimeout,
	}, nil
}

// Recovery exposes the driver's recovery monitor for periodic sweeps.
func (d *Driver) Recovery() *recovery.Monitor {
	return d.recovery
}

// refreshQueueRank updates the manifest's denormalized rank from the
// authoritative queue order. Called before each commit of a
// non-terminal manifest.
func (d *Driver) refreshQueueRank(manifest *job.Manifest) {
	if manifest.Status == job.StatusDraft || manifest.Status.Terminal() {
		manifest.QueueRank = nil
		return
	}
	rank, ok, err := d.queue.Rank(manifest.ID)
	if err != nil || !ok {
		manifest.QueueRank = nil
		return
	}
	manifest.QueueRank = &rank
}

// commit persists the manifest, mirrors its latest record into the
// audit stream, and builds the transition outcome. The audit append
// happens after the commit and only logs on failure.
func (d *Driver) commit(manifest *job.Manifest, from job.Status, note string) (Outcome, error) {
	if err := d.store.Commit(manifest); err != nil {
		return Outcome{}, err
	}
	d.appendHistory(manifest)

	last := manifest.History[len(manifest.History)-1]
	d.logger.Info("job transitioned",
		"job_id", manifest.ID,
		"from", string(from),
		"to", string(manifest.Status),
		"trigger", string(last.Trigger),
		"revision", manifest.Revision)

	return Outcome{
		JobID:  manifest.ID,
		Kind:   OutcomeTransitioned,
		From:   from,
		Status: manifest.Status,
		Note:   note,
	}, nil
}

// appendHistory mirrors the manifest's latest transition into the
// audit stream. Best-effort: the commit already happened.
func (d *Driver) appendHistory(manifest *job.Manifest) {
	if d.history == nil {
		return
	}
	record, err := history.NewRecord(manifest)
	if err != nil {
		d.logger.Error("history record", "job_id", manifest.ID, "error", err)
		return
	}
	log, err := d.history.Log(manifest.ID)
	if err != nil {
		d.logger.Error("history append", "job_id", manifest.ID, "error", err)
		return
	}
	defer log.Close()
	if err := log.Append(record); err != nil {
		d.logger.Error("history append", "job_id", manifest.ID, "error", err)
	}
}

// archiveHistory seals a settled job's audit stream. Best-effort.
func (d *Driver) archiveHistory(jobID string) {
	if d.history == nil {
		return
	}
	if _, err := d.history.Archive(jobID, d.clock.Now()); err != nil {
		if errors.Is(err, history.ErrNoStream) {
			return
		}
		d.logger.Error("history archive", "job_id", jobID, "error", err)
	}
}

// transientCount counts jobs currently in a transient status.
// Unreadable manifests are skipped: a corrupt job must not block
// scheduling of the others.
func (d *Driver) transientCount() (int, error) {
	ids, err := d.store.IDs()
	if err != nil {
		return 0, err
	}
	count := 0
	for _, id := range ids {
		manifest, err := d.store.Load(id)
		if err != nil {
			d.logger.Warn("slot count skipping unreadable job", "job_id", id, "error", err)
			continue
		}
		if manifest.Status.Transient() {
			count++
		}
	}
	return count, nil
}

// jobContext assembles the executor's view of a job for one step.
func (d *Driver) jobContext(manifest *job.Manifest, step agent.StepKind) agent.JobContext {
	jobContext := agent.JobContext{
		JobID:       manifest.ID,
		Title:       manifest.Title,
		Description: manifest.Description,
		Step:        step,
		RetryCount:  manifest.RetryCount,
		Workspace:   manifest.Workspace,
	}
	if manifest.Phase != nil {
		jobContext.Phase = manifest.Phase.Current()
	}
	return jobContext
}

// resultDelta builds the metrics increment for a settled step: cost
// and action counters from the agent's result, elapsed wall-clock
// measured from the transition that started the invocation.
func (d *Driver) resultDelta(manifest *job.Manifest, result *agent.Result) *job.MetricsDelta {
	elapsed := d.clock.Now().Sub(manifest.LastTransitionAt).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	return &job.MetricsDelta{
		Cost:           result.CostDelta,
		ElapsedSeconds: elapsed,
		ActionCount:    result.Actions,
	}
}

// resultSummary folds a result's evidence references into its summary
// so they survive in the transition record.
func resultSummary(result *agent.Result) string {
	if len(result.EvidenceRefs) == 0 {
		return result.Summary
	}
	evidence := "evidence: " + strings.Join(result.EvidenceRefs, ", ")
	if result.Summary == "" {
		return evidence
	}
	return result.Summary + " (" + evidence + ")"
}

// Load returns the current manifest for a job.
func (d *Driver) Load(jobID string) (*job.Manifest, error) {
	return d.store.Load(jobID)
}

// List returns all manifests sorted by creation time.
func (d *Driver) List() ([]*job.Manifest, error) {
	return d.store.List()
}

// stepKindFor maps a transient status to the step it is running.
func stepKindFor(status job.Status) (agent.StepKind, error) {
	switch status {
	case job.StatusRunning:
		return agent.StepWork, nil
	case job.StatusReviewing:
		return agent.StepReview, nil
	default:
		return "", fmt.Errorf("status %q has no step kind", status)
	}
}
