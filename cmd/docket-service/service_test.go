// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/docket-works/docket/lib/agent"
	"github.com/docket-works/docket/lib/clock"
	"github.com/docket-works/docket/lib/driver"
	"github.com/docket-works/docket/lib/history"
	"github.com/docket-works/docket/lib/jobstore"
	"github.com/docket-works/docket/lib/queue"
	"github.com/docket-works/docket/lib/schema/job"
	"github.com/docket-works/docket/lib/service"
	"github.com/docket-works/docket/lib/testutil"
)

var serviceTestStart = time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)

// testEnv is a full daemon wired to a fake agent and a fake clock,
// serving on a real Unix socket.
type testEnv struct {
	service *DocketService
	client  *service.Client
	clock   *clock.FakeClock
	agent   *agent.Fake
}

func newTestService(t *testing.T, script ...agent.ScriptedStep) *testEnv {
	t.Helper()

	fakeClock := clock.Fake(serviceTestStart)
	store, err := jobstore.Open(t.TempDir(), jobstore.Options{Clock: fakeClock})
	if err != nil {
		t.Fatalf("Open store: %v", err)
	}
	jobQueue := queue.Open(filepath.Join(t.TempDir(), "queue.json"))
	historyDir, err := history.OpenDir(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDir: %v", err)
	}
	fakeAgent := agent.NewFake(script...)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jobDriver, err := driver.New(driver.Options{
		Store:             store,
		Queue:             jobQueue,
		History:           historyDir,
		Executor:          fakeAgent,
		Clock:             fakeClock,
		Logger:            logger,
		PollTimeout:       5 * time.Second,
		PollInterval:      time.Millisecond,
		InactivityTimeout: time.Hour,
	})
	if err != nil {
		t.Fatalf("New driver: %v", err)
	}

	docketService := &DocketService{
		driver:    jobDriver,
		store:     store,
		queue:     jobQueue,
		history:   historyDir,
		clock:     fakeClock,
		startedAt: fakeClock.Now(),
		logger:    logger,
	}

	socketPath := filepath.Join(testutil.SocketDir(t), "docket.sock")
	server := service.NewServer(socketPath, logger)
	docketService.registerActions(server)

	ctx, cancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- server.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		if err := testutil.RequireReceive(t, serveDone, "server shutdown"); err != nil {
			t.Errorf("Serve: %v", err)
		}
	})
	waitForSocketFile(t, socketPath)

	return &testEnv{
		service: docketService,
		client:  service.NewClient(socketPath),
		clock:   fakeClock,
		agent:   fakeAgent,
	}
}

// waitForSocketFile polls until the socket file exists.
func waitForSocketFile(t *testing.T, path string) {
	t.Helper()
	for range 500 {
		if _, err := os.Stat(path); err == nil {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("socket %s did not appear within timeout", path)
}

// createJob creates a draft job over the socket and returns its
// manifest.
func (env *testEnv) createJob(t *testing.T, title string) *job.Manifest {
	t.Helper()
	var manifest job.Manifest
	err := env.client.Call(context.Background(), "job.create", map[string]any{
		"title":       title,
		"description": "Do the thing described by: " + title,
		"phases":      []string{"work"},
	}, &manifest)
	if err != nil {
		t.Fatalf("job.create: %v", err)
	}
	return &manifest
}

// command invokes a job action and returns the outcome.
func (env *testEnv) command(t *testing.T, action, jobID string) driver.Outcome {
	t.Helper()
	var outcome driver.Outcome
	err := env.client.Call(context.Background(), action, map[string]any{"job_id": jobID}, &outcome)
	if err != nil {
		t.Fatalf("%s: %v", action, err)
	}
	return outcome
}

// advanceUntilRest calls job.advance until the job stops moving on
// its own.
func (env *testEnv) advanceUntilRest(t *testing.T, jobID string) driver.Outcome {
	t.Helper()
	for range 20 {
		outcome := env.command(t, "job.advance", jobID)
		switch outcome.Kind {
		case driver.OutcomeAwaitingHuman, driver.OutcomeSettled, driver.OutcomeWaiting:
			return outcome
		}
	}
	t.Fatal("job did not come to rest within 20 advances")
	return driver.Outcome{}
}

func TestServiceLifecycleOverSocket(t *testing.T) {
	env := newTestService(t,
		agent.ScriptedStep{Result: &agent.Result{
			Action: agent.ActionCompleted, Summary: "built the feature", CostDelta: 1.5, Actions: 12,
		}},
		agent.ScriptedStep{Result: &agent.Result{
			Action: agent.ActionCompleted, Summary: "review passed", CostDelta: 0.5, Actions: 3,
		}},
	)

	manifest := env.createJob(t, "Ship the widget")
	if manifest.Status != job.StatusDraft {
		t.Fatalf("created status: got %s, want %s", manifest.Status, job.StatusDraft)
	}
	if manifest.Title != "Ship the widget" {
		t.Fatalf("created title: got %q", manifest.Title)
	}

	outcome := env.command(t, "job.activate", manifest.ID)
	if outcome.Kind != driver.OutcomeTransitioned || outcome.Status != job.StatusPending {
		t.Fatalf("activate outcome: got %s/%s", outcome.Kind, outcome.Status)
	}

	var queued queueListResponse
	if err := env.client.Call(context.Background(), "queue.list", nil, &queued); err != nil {
		t.Fatalf("queue.list: %v", err)
	}
	if len(queued.Entries) != 1 || queued.Entries[0].JobID != manifest.ID {
		t.Fatalf("queue entries: got %+v", queued.Entries)
	}
	if queued.Entries[0].Title != "Ship the widget" {
		t.Fatalf("queue entry title: got %q", queued.Entries[0].Title)
	}

	resting := env.advanceUntilRest(t, manifest.ID)
	if resting.Kind != driver.OutcomeAwaitingHuman || resting.Status != job.StatusApprovalRequired {
		t.Fatalf("rest outcome: got %s/%s", resting.Kind, resting.Status)
	}

	final := env.command(t, "job.approve", manifest.ID)
	if final.Status != job.StatusSuccess {
		t.Fatalf("approve outcome status: got %s", final.Status)
	}

	var shown job.Manifest
	if err := env.client.Call(context.Background(), "job.show", map[string]any{"job_id": manifest.ID}, &shown); err != nil {
		t.Fatalf("job.show: %v", err)
	}
	if shown.Status != job.StatusSuccess {
		t.Fatalf("shown status: got %s", shown.Status)
	}
	if shown.Metrics.Cost != 2.0 {
		t.Fatalf("shown cost: got %v, want 2.0", shown.Metrics.Cost)
	}

	var stream jobHistoryResponse
	if err := env.client.Call(context.Background(), "job.history", map[string]any{"job_id": manifest.ID}, &stream); err != nil {
		t.Fatalf("job.history: %v", err)
	}
	wantTriggers := []job.Trigger{
		job.TriggerActivate,
		job.TriggerStepStarted,
		job.TriggerStepCompleted,
		job.TriggerReviewApproved,
		job.TriggerApprove,
	}
	if len(stream.Records) != len(wantTriggers) {
		t.Fatalf("history records: got %d, want %d", len(stream.Records), len(wantTriggers))
	}
	for i, want := range wantTriggers {
		if stream.Records[i].Trigger != want {
			t.Fatalf("record %d trigger: got %s, want %s", i, stream.Records[i].Trigger, want)
		}
	}
	if stream.Summary.RecordCount != int64(len(wantTriggers)) {
		t.Fatalf("summary record count: got %d", stream.Summary.RecordCount)
	}
	if stream.Summary.Cost != 2.0 {
		t.Fatalf("summary cost: got %v, want 2.0", stream.Summary.Cost)
	}

	if err := env.client.Call(context.Background(), "queue.list", nil, &queued); err != nil {
		t.Fatalf("queue.list after settle: %v", err)
	}
	if len(queued.Entries) != 0 {
		t.Fatalf("queue after settle: got %d entries, want 0", len(queued.Entries))
	}
}

func TestServiceStatusAction(t *testing.T) {
	env := newTestService(t)
	env.createJob(t, "First")
	env.createJob(t, "Second")
	env.clock.Advance(90 * time.Second)

	var status statusResponse
	if err := env.client.Call(context.Background(), "status", nil, &status); err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Jobs != 2 {
		t.Fatalf("jobs: got %d, want 2", status.Jobs)
	}
	if status.QueueLength != 0 {
		t.Fatalf("queue length: got %d, want 0", status.QueueLength)
	}
	if status.UptimeSeconds != 90 {
		t.Fatalf("uptime: got %v, want 90", status.UptimeSeconds)
	}
	if status.Version == "" {
		t.Fatal("version: got empty string")
	}
}

func TestServiceCreateRejectsInvalidDefinition(t *testing.T) {
	env := newTestService(t)

	err := env.client.Call(context.Background(), "job.create", map[string]any{
		"description": "a task with no title",
		"phases":      []string{"work"},
	}, nil)
	var serviceErr *service.Error
	if !errors.As(err, &serviceErr) {
		t.Fatalf("expected service error, got %v", err)
	}
	if !strings.Contains(serviceErr.Message, "title") {
		t.Fatalf("error message: got %q, want mention of title", serviceErr.Message)
	}
}

func TestServiceShowUnknownJob(t *testing.T) {
	env := newTestService(t)

	err := env.client.Call(context.Background(), "job.show", map[string]any{
		"job_id": "job-000000000000",
	}, nil)
	var serviceErr *service.Error
	if !errors.As(err, &serviceErr) {
		t.Fatalf("expected service error, got %v", err)
	}
}

func TestServiceCommandErrorCrossesSocket(t *testing.T) {
	env := newTestService(t)
	manifest := env.createJob(t, "Not yet activated")

	err := env.client.Call(context.Background(), "job.approve", map[string]any{
		"job_id": manifest.ID,
	}, nil)
	var serviceErr *service.Error
	if !errors.As(err, &serviceErr) {
		t.Fatalf("expected service error, got %v", err)
	}
	if !strings.Contains(serviceErr.Message, "approve") {
		t.Fatalf("error message: got %q, want mention of the command", serviceErr.Message)
	}

	// The rejected command must not have moved the job.
	var shown job.Manifest
	if err := env.client.Call(context.Background(), "job.show", map[string]any{"job_id": manifest.ID}, &shown); err != nil {
		t.Fatalf("job.show: %v", err)
	}
	if shown.Status != job.StatusDraft {
		t.Fatalf("status after rejected command: got %s", shown.Status)
	}
}

func TestServiceRejectCarriesReason(t *testing.T) {
	env := newTestService(t,
		agent.ScriptedStep{Result: &agent.Result{Action: agent.ActionCompleted, Summary: "work done"}},
		agent.ScriptedStep{Result: &agent.Result{Action: agent.ActionCompleted, Summary: "review ok"}},
	)
	manifest := env.createJob(t, "Needs another pass")
	env.command(t, "job.activate", manifest.ID)
	env.advanceUntilRest(t, manifest.ID)

	var outcome driver.Outcome
	err := env.client.Call(context.Background(), "job.reject", map[string]any{
		"job_id": manifest.ID,
		"reason": "error handling is missing",
	}, &outcome)
	if err != nil {
		t.Fatalf("job.reject: %v", err)
	}
	if outcome.Status != job.StatusPending {
		t.Fatalf("reject outcome status: got %s", outcome.Status)
	}

	var shown job.Manifest
	if err := env.client.Call(context.Background(), "job.show", map[string]any{"job_id": manifest.ID}, &shown); err != nil {
		t.Fatalf("job.show: %v", err)
	}
	last := shown.History[len(shown.History)-1]
	if !strings.Contains(last.Summary, "error handling is missing") {
		t.Fatalf("rejection summary: got %q", last.Summary)
	}
}

func TestServiceActivateAtFront(t *testing.T) {
	env := newTestService(t)
	first := env.createJob(t, "First in line")
	second := env.createJob(t, "Jumps the line")
	env.command(t, "job.activate", first.ID)

	var outcome driver.Outcome
	err := env.client.Call(context.Background(), "job.activate", map[string]any{
		"job_id": second.ID,
		"rank":   0,
	}, &outcome)
	if err != nil {
		t.Fatalf("job.activate: %v", err)
	}

	var queued queueListResponse
	if err := env.client.Call(context.Background(), "queue.list", nil, &queued); err != nil {
		t.Fatalf("queue.list: %v", err)
	}
	if len(queued.Entries) != 2 {
		t.Fatalf("queue entries: got %d, want 2", len(queued.Entries))
	}
	if queued.Entries[0].JobID != second.ID {
		t.Fatalf("front of queue: got %s, want %s", queued.Entries[0].JobID, second.ID)
	}

	var next queueNextResponse
	if err := env.client.Call(context.Background(), "queue.next", nil, &next); err != nil {
		t.Fatalf("queue.next: %v", err)
	}
	if !next.Found || next.JobID != second.ID {
		t.Fatalf("queue.next: got %+v", next)
	}
}

func TestServiceListFiltersByStatus(t *testing.T) {
	env := newTestService(t)
	env.createJob(t, "Stays a draft")
	active := env.createJob(t, "Becomes pending")
	env.command(t, "job.activate", active.ID)

	var listed jobListResponse
	err := env.client.Call(context.Background(), "job.list", map[string]any{
		"status": "pending",
	}, &listed)
	if err != nil {
		t.Fatalf("job.list: %v", err)
	}
	if len(listed.Jobs) != 1 || listed.Jobs[0].ID != active.ID {
		t.Fatalf("filtered jobs: got %+v", listed.Jobs)
	}

	err = env.client.Call(context.Background(), "job.list", map[string]any{
		"status": "sideways",
	}, nil)
	var serviceErr *service.Error
	if !errors.As(err, &serviceErr) {
		t.Fatalf("expected service error for unknown status, got %v", err)
	}
}

func TestServiceHistoryForDraftIsEmpty(t *testing.T) {
	env := newTestService(t)
	manifest := env.createJob(t, "No transitions yet")

	var stream jobHistoryResponse
	err := env.client.Call(context.Background(), "job.history", map[string]any{
		"job_id": manifest.ID,
	}, &stream)
	if err != nil {
		t.Fatalf("job.history: %v", err)
	}
	if len(stream.Records) != 0 {
		t.Fatalf("records for draft: got %d, want 0", len(stream.Records))
	}
	if stream.Summary.RecordCount != 0 {
		t.Fatalf("summary count for draft: got %d", stream.Summary.RecordCount)
	}
}

func TestRecoveryLoopSettlesStaleJob(t *testing.T) {
	env := newTestService(t, agent.ScriptedStep{PollsUntilDone: 1000})
	manifest := env.createJob(t, "Agent goes dark")
	env.command(t, "job.activate", manifest.ID)

	outcome := env.command(t, "job.advance", manifest.ID)
	if outcome.Status != job.StatusRunning {
		t.Fatalf("advance status: got %s", outcome.Status)
	}

	loopCtx, stopLoop := context.WithCancel(context.Background())
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		env.service.recoveryLoop(loopCtx, time.Minute)
	}()
	defer func() {
		stopLoop()
		testutil.RequireClosed(t, loopDone, "recovery loop exit")
	}()

	// The loop's ticker registers on construction. Advancing past the
	// inactivity timeout both fires the ticker and makes the running
	// job stale.
	env.clock.WaitForTimers(1)
	env.clock.Advance(2 * time.Hour)

	deadline := time.Now().Add(5 * time.Second)
	for {
		var shown job.Manifest
		if err := env.client.Call(context.Background(), "job.show", map[string]any{"job_id": manifest.ID}, &shown); err != nil {
			t.Fatalf("job.show: %v", err)
		}
		if shown.RecoveryCount == 1 {
			if shown.Status != job.StatusPending {
				t.Fatalf("recovered status: got %s, want %s", shown.Status, job.StatusPending)
			}
			if shown.PendingActionRef != "" {
				t.Fatalf("recovered job still holds action ref %q", shown.PendingActionRef)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("recovery sweep did not settle the job; status %s", shown.Status)
		}
		time.Sleep(time.Millisecond)
	}
}
