// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package recovery

import (
	"strings"
	"testing"
	"time"

	"github.com/docket-works/docket/lib/clock"
	"github.com/docket-works/docket/lib/history"
	"github.com/docket-works/docket/lib/jobstore"
	"github.com/docket-works/docket/lib/schema/job"
)

var testStart = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

const testTimeout = 30 * time.Minute

type testBench struct {
	monitor *Monitor
	store   *jobstore.Store
	history *history.Dir
	clock   *clock.FakeClock
}

func newTestBench(t *testing.T) *testBench {
	t.Helper()
	fake := clock.Fake(testStart)
	store, err := jobstore.Open(t.TempDir(), jobstore.Options{Clock: fake})
	if err != nil {
		t.Fatalf("Open store: %v", err)
	}
	dir, err := history.OpenDir(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDir: %v", err)
	}
	monitor, err := NewMonitor(Options{
		Store:             store,
		History:           dir,
		InactivityTimeout: testTimeout,
		Clock:             fake,
	})
	if err != nil {
		t.Fatalf("NewMonitor: %v", err)
	}
	return &testBench{monitor: monitor, store: store, history: dir, clock: fake}
}

// createJob creates a job and walks it to the given status at the
// bench clock's current time.
func (b *testBench) createJob(t *testing.T, title string, status job.Status) *job.Manifest {
	t.Helper()
	now := b.clock.Now()
	manifest := &job.Manifest{
		Version:          job.ManifestVersion,
		ID:               job.NewID(title, now),
		Title:            title,
		Description:      "recovery test job",
		Status:           job.StatusDraft,
		Thresholds:       job.Thresholds{CostMax: 100, ElapsedSecondsMax: 86400},
		CreatedAt:        now,
		LastTransitionAt: now,
	}
	if err := b.store.Create(manifest); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if status == job.StatusDraft {
		return manifest
	}

	steps := []struct {
		to      job.Status
		trigger job.Trigger
	}{
		{job.StatusPending, job.TriggerActivate},
		{job.StatusRunning, job.TriggerStepStarted},
		{job.StatusReviewing, job.TriggerStepCompleted},
	}
	for _, step := range steps {
		if err := manifest.Transition(step.to, step.trigger, now, "", nil); err != nil {
			t.Fatalf("Transition to %s: %v", step.to, err)
		}
		if step.to.Transient() {
			manifest.PendingActionRef = "run-00aa11bb22cc33dd"
		}
		if err := b.store.Commit(manifest); err != nil {
			t.Fatalf("Commit at %s: %v", step.to, err)
		}
		if manifest.Status == status {
			return manifest
		}
	}
	t.Fatalf("createJob cannot reach status %s", status)
	return nil
}

func TestStale(t *testing.T) {
	bench := newTestBench(t)
	manifest := bench.createJob(t, "stale detection", job.StatusRunning)

	if bench.monitor.Stale(manifest) {
		t.Error("fresh running job reported stale")
	}

	bench.clock.Advance(testTimeout - time.Second)
	if bench.monitor.Stale(manifest) {
		t.Error("job inside the timeout reported stale")
	}

	bench.clock.Advance(2 * time.Second)
	if !bench.monitor.Stale(manifest) {
		t.Error("job past the timeout not reported stale")
	}
}

func TestStaleIgnoresRestingJobs(t *testing.T) {
	bench := newTestBench(t)
	pending := bench.createJob(t, "resting job", job.StatusPending)

	bench.clock.Advance(100 * testTimeout)
	if bench.monitor.Stale(pending) {
		t.Error("resting job reported stale; age alone must not trigger recovery")
	}
}

func TestScanFindsOnlyStaleTransientJobs(t *testing.T) {
	bench := newTestBench(t)
	staleRunning := bench.createJob(t, "abandoned work step", job.StatusRunning)
	staleReviewing := bench.createJob(t, "abandoned review step", job.StatusReviewing)
	bench.createJob(t, "old but resting", job.StatusPending)

	bench.clock.Advance(testTimeout + time.Minute)
	fresh := bench.createJob(t, "freshly started", job.StatusRunning)

	stale, err := bench.monitor.Scan()
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(stale) != 2 {
		t.Fatalf("Scan found %d jobs, want 2: %v", len(stale), stale)
	}
	found := map[string]bool{}
	for _, id := range stale {
		found[id] = true
	}
	if !found[staleRunning.ID] || !found[staleReviewing.ID] {
		t.Errorf("Scan = %v, want %s and %s", stale, staleRunning.ID, staleReviewing.ID)
	}
	if found[fresh.ID] {
		t.Error("Scan included the fresh job")
	}
}

func TestForceSettleRunning(t *testing.T) {
	bench := newTestBench(t)
	manifest := bench.createJob(t, "lost work step", job.StatusRunning)
	bench.clock.Advance(testTimeout + time.Minute)

	settled, err := bench.monitor.ForceSettle(manifest.ID)
	if err != nil {
		t.Fatalf("ForceSettle: %v", err)
	}
	if !settled {
		t.Fatal("ForceSettle = false, want true")
	}

	recovered, err := bench.store.Load(manifest.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if recovered.Status != job.StatusPending {
		t.Errorf("status = %s, want pending", recovered.Status)
	}
	if recovered.RecoveryCount != 1 {
		t.Errorf("recovery_count = %d, want 1", recovered.RecoveryCount)
	}
	if recovered.RetryCount != 0 {
		t.Errorf("retry_count = %d, want 0 (recovery is not a retry)", recovered.RetryCount)
	}
	if recovered.PendingActionRef != "" {
		t.Errorf("pending_action_ref = %q, want cleared", recovered.PendingActionRef)
	}

	last := recovered.History[len(recovered.History)-1]
	if last.Trigger != job.TriggerAutoRecovery {
		t.Errorf("trigger = %s, want auto-recovery", last.Trigger)
	}
	if last.From != job.StatusRunning || last.To != job.StatusPending {
		t.Errorf("edge = %s → %s, want running → pending", last.From, last.To)
	}
	if !strings.Contains(last.Summary, "run-00aa11bb22cc33dd") {
		t.Errorf("summary = %q, want the lost invocation named", last.Summary)
	}
}

func TestForceSettleReviewing(t *testing.T) {
	bench := newTestBench(t)
	manifest := bench.createJob(t, "lost review step", job.StatusReviewing)
	bench.clock.Advance(testTimeout + time.Minute)

	settled, err := bench.monitor.ForceSettle(manifest.ID)
	if err != nil {
		t.Fatalf("ForceSettle: %v", err)
	}
	if !settled {
		t.Fatal("ForceSettle = false, want true")
	}

	recovered, err := bench.store.Load(manifest.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if recovered.Status != job.StatusApprovalRequired {
		t.Errorf("status = %s, want approval_required (work survived, review lost)", recovered.Status)
	}
}

func TestForceSettleAppendsHistory(t *testing.T) {
	bench := newTestBench(t)
	manifest := bench.createJob(t, "audited recovery", job.StatusRunning)
	bench.clock.Advance(testTimeout + time.Minute)

	if _, err := bench.monitor.ForceSettle(manifest.ID); err != nil {
		t.Fatalf("ForceSettle: %v", err)
	}

	records, err := bench.history.Read(manifest.ID)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("history records = %d, want 1", len(records))
	}
	if records[0].Trigger != job.TriggerAutoRecovery {
		t.Errorf("trigger = %s, want auto-recovery", records[0].Trigger)
	}
}

func TestForceSettleIdempotent(t *testing.T) {
	bench := newTestBench(t)
	manifest := bench.createJob(t, "double recovery", job.StatusRunning)
	bench.clock.Advance(testTimeout + time.Minute)

	if _, err := bench.monitor.ForceSettle(manifest.ID); err != nil {
		t.Fatalf("first ForceSettle: %v", err)
	}
	settled, err := bench.monitor.ForceSettle(manifest.ID)
	if err != nil {
		t.Fatalf("second ForceSettle: %v", err)
	}
	if settled {
		t.Error("second ForceSettle = true, want false")
	}

	recovered, err := bench.store.Load(manifest.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if recovered.RecoveryCount != 1 {
		t.Errorf("recovery_count = %d, want 1", recovered.RecoveryCount)
	}
	records, err := bench.history.Read(manifest.ID)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("history records = %d, want 1", len(records))
	}
}

func TestForceSettleLeavesFreshJobAlone(t *testing.T) {
	bench := newTestBench(t)
	manifest := bench.createJob(t, "still alive", job.StatusRunning)

	settled, err := bench.monitor.ForceSettle(manifest.ID)
	if err != nil {
		t.Fatalf("ForceSettle: %v", err)
	}
	if settled {
		t.Error("ForceSettle moved a fresh job")
	}

	loaded, err := bench.store.Load(manifest.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Status != job.StatusRunning {
		t.Errorf("status = %s, want running untouched", loaded.Status)
	}
}

func TestSweepConverges(t *testing.T) {
	bench := newTestBench(t)
	bench.createJob(t, "sweep victim one", job.StatusRunning)
	bench.createJob(t, "sweep victim two", job.StatusReviewing)
	bench.createJob(t, "sweep bystander", job.StatusPending)
	bench.clock.Advance(testTimeout + time.Minute)

	recovered, err := bench.monitor.Sweep()
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if recovered != 2 {
		t.Errorf("first sweep recovered %d, want 2", recovered)
	}

	recovered, err = bench.monitor.Sweep()
	if err != nil {
		t.Fatalf("second Sweep: %v", err)
	}
	if recovered != 0 {
		t.Errorf("second sweep recovered %d, want 0", recovered)
	}
}

func TestNewMonitorValidation(t *testing.T) {
	store, err := jobstore.Open(t.TempDir(), jobstore.Options{})
	if err != nil {
		t.Fatalf("Open store: %v", err)
	}

	if _, err := NewMonitor(Options{InactivityTimeout: time.Minute}); err == nil {
		t.Error("NewMonitor without a store should fail")
	}
	if _, err := NewMonitor(Options{Store: store}); err == nil {
		t.Error("NewMonitor without a timeout should fail")
	}
	if _, err := NewMonitor(Options{Store: store, InactivityTimeout: -time.Minute}); err == nil {
		t.Error("NewMonitor with a negative timeout should fail")
	}
}
