// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/docket-works/docket/lib/schema/job"
)

// detailTestManifest builds a running job exercising every detail
// section: workspace, phases, execution signals, markdown description,
// and history with metric deltas.
func detailTestManifest() *job.Manifest {
	return &job.Manifest{
		Version:     1,
		ID:          "job-001",
		Title:       "Fix flaky integration test in connection pooling",
		Description: "Investigate the **connection pool** leak under load.",
		Status:      job.StatusRunning,
		Phase: &job.Phase{
			Index: 1,
			Names: []string{"plan", "implement", "verify"},
		},
		Metrics: job.Metrics{
			Cost:           1.25,
			ElapsedSeconds: 340,
			ActionCount:    52,
		},
		Thresholds: job.Thresholds{
			CostMax: 5.0,
		},
		RetryCount:       2,
		PendingActionRef: "action-7f3a",
		Workspace: &job.Workspace{
			Repo:   "github.com/acme/infra",
			Branch: "docket/job-001",
		},
		History: []job.TransitionRecord{
			{
				From:      job.StatusPending,
				To:        job.StatusRunning,
				Trigger:   job.TriggerActivate,
				Timestamp: testTime(0),
			},
			{
				From:      job.StatusRunning,
				To:        job.StatusReviewing,
				Trigger:   job.TriggerStepCompleted,
				Timestamp: testTime(2),
				Summary:   "Reproduced the leak with a stress harness.",
				MetricsDelta: &job.MetricsDelta{
					Cost:           0.40,
					ElapsedSeconds: 221,
					ActionCount:    12,
				},
			},
		},
		Revision:         7,
		CreatedAt:        testTime(0),
		LastTransitionAt: testTime(2),
	}
}

func TestRenderHeaderLineCount(t *testing.T) {
	renderer := NewDetailRenderer(DefaultTheme, 60)

	short := detailTestManifest()
	short.Title = "Short title"
	shortHeader := renderer.RenderHeader(short)
	if lines := strings.Count(shortHeader, "\n") + 1; lines != detailHeaderLines {
		t.Errorf("short title header has %d lines, want %d", lines, detailHeaderLines)
	}

	long := detailTestManifest()
	long.Title = strings.Repeat("a very long title that wraps across many lines ", 6)
	longHeader := renderer.RenderHeader(long)
	if lines := strings.Count(longHeader, "\n") + 1; lines != detailHeaderLines {
		t.Errorf("long title header has %d lines, want %d", lines, detailHeaderLines)
	}
}

func TestRenderHeaderMetaLine(t *testing.T) {
	renderer := NewDetailRenderer(DefaultTheme, 80)
	result := ansi.Strip(renderer.RenderHeader(detailTestManifest()))

	if !strings.Contains(result, "RUNNING") {
		t.Error("missing uppercased status")
	}
	if !strings.Contains(result, "[implement 2/3]") {
		t.Errorf("missing phase indicator, got:\n%s", result)
	}
	if !strings.Contains(result, "job-001") {
		t.Error("missing job ID")
	}
}

func TestRenderHeaderSignalIndicators(t *testing.T) {
	renderer := NewDetailRenderer(DefaultTheme, 80)
	result := ansi.Strip(renderer.RenderHeader(detailTestManifest()))

	if !strings.Contains(result, "$1.25") {
		t.Errorf("missing cost indicator, got:\n%s", result)
	}
	if !strings.Contains(result, "5m40s") {
		t.Error("missing elapsed indicator")
	}
	if !strings.Contains(result, "↻2") {
		t.Error("missing retry indicator")
	}
}

func TestRenderHeaderTimestampLine(t *testing.T) {
	renderer := NewDetailRenderer(DefaultTheme, 80)
	result := ansi.Strip(renderer.RenderHeader(detailTestManifest()))

	if !strings.Contains(result, "created 2026-02-01") {
		t.Errorf("missing creation date, got:\n%s", result)
	}
	if !strings.Contains(result, "upd 2026-02-01 02:00") {
		t.Error("missing last transition time")
	}
	if !strings.Contains(result, "rev 7") {
		t.Error("missing revision")
	}
}

func TestRenderHeaderTitle(t *testing.T) {
	renderer := NewDetailRenderer(DefaultTheme, 80)
	result := ansi.Strip(renderer.RenderHeader(detailTestManifest()))

	if !strings.Contains(result, "Fix flaky integration test in connection pooling") {
		t.Errorf("missing title, got:\n%s", result)
	}
}

func TestRenderHeaderDonePhase(t *testing.T) {
	manifest := detailTestManifest()
	manifest.Status = job.StatusSuccess
	manifest.Phase = &job.Phase{Index: 3, Names: []string{"plan", "implement", "verify"}}
	manifest.PendingActionRef = ""

	renderer := NewDetailRenderer(DefaultTheme, 80)
	result := ansi.Strip(renderer.RenderHeader(manifest))

	if !strings.Contains(result, "[done 3/3]") {
		t.Errorf("missing done phase indicator, got:\n%s", result)
	}
	if !strings.Contains(result, "SUCCESS") {
		t.Error("missing uppercased terminal status")
	}
}

func TestRenderBodySections(t *testing.T) {
	renderer := NewDetailRenderer(DefaultTheme, 80)
	result := ansi.Strip(renderer.RenderBody(detailTestManifest()))

	if !strings.Contains(result, "Workspace") {
		t.Error("missing Workspace section")
	}
	if !strings.Contains(result, "repo: github.com/acme/infra") {
		t.Errorf("missing workspace repo, got:\n%s", result)
	}
	if !strings.Contains(result, "branch: docket/job-001") {
		t.Error("missing workspace branch")
	}

	if !strings.Contains(result, "Phases (1/3)") {
		t.Error("missing phase progress header")
	}
	if !strings.Contains(result, "✓ plan") {
		t.Error("missing completed phase marker")
	}
	if !strings.Contains(result, "● implement") {
		t.Error("missing current phase marker")
	}
	if !strings.Contains(result, "○ verify") {
		t.Error("missing future phase marker")
	}

	if !strings.Contains(result, "Execution") {
		t.Error("missing Execution section")
	}
	if !strings.Contains(result, "cost: $1.25 of $5.00 max") {
		t.Errorf("missing cost line with ceiling, got:\n%s", result)
	}
	if !strings.Contains(result, "elapsed: 5m40s") {
		t.Error("missing elapsed line")
	}
	if !strings.Contains(result, "actions: 52") {
		t.Error("missing action count line")
	}
	if !strings.Contains(result, "in flight: action-7f3a") {
		t.Error("missing pending action line")
	}

	if !strings.Contains(result, "Description") {
		t.Error("missing Description section")
	}
	if !strings.Contains(result, "connection pool") {
		t.Error("missing rendered description content")
	}

	if !strings.Contains(result, "History (2)") {
		t.Error("missing History section header")
	}
	if !strings.Contains(result, "pending → running") {
		t.Errorf("missing transition edge, got:\n%s", result)
	}
	if !strings.Contains(result, "activate") {
		t.Error("missing transition trigger")
	}
	if !strings.Contains(result, "+$0.40 +3m41s +12a") {
		t.Error("missing metrics delta on history line")
	}
	if !strings.Contains(result, "Reproduced the leak") {
		t.Error("missing transition summary")
	}
}

func TestRenderBodyPhaseBar(t *testing.T) {
	renderer := NewDetailRenderer(DefaultTheme, 80)
	result := ansi.Strip(renderer.RenderBody(detailTestManifest()))

	// One of three phases complete: a third of the bar filled.
	if !strings.Contains(result, "██████░░░░░░░░░░░░░░") {
		t.Errorf("missing phase progress bar, got:\n%s", result)
	}
}

func TestRenderBodyOmitsEmptySections(t *testing.T) {
	manifest := &job.Manifest{
		Version:   1,
		ID:        "job-bare",
		Title:     "Bare job",
		Status:    job.StatusDraft,
		CreatedAt: testTime(0),
	}

	renderer := NewDetailRenderer(DefaultTheme, 80)
	result := ansi.Strip(renderer.RenderBody(manifest))

	if strings.Contains(result, "Workspace") {
		t.Error("unexpected Workspace section for job without workspace")
	}
	if strings.Contains(result, "Phases") {
		t.Error("unexpected Phases section for job without phases")
	}
	if strings.Contains(result, "Description") {
		t.Error("unexpected Description section for empty description")
	}
	if strings.Contains(result, "History") {
		t.Error("unexpected History section for empty history")
	}
	// Execution always renders.
	if !strings.Contains(result, "Execution") {
		t.Error("missing Execution section")
	}
	if !strings.Contains(result, "cost: $0.00") {
		t.Errorf("missing zero cost line, got:\n%s", result)
	}
}

func TestRenderBodyQueuePosition(t *testing.T) {
	manifest := detailTestManifest()
	manifest.Status = job.StatusPending
	manifest.PendingActionRef = ""
	manifest.QueueRank = intPointer(2)

	renderer := NewDetailRenderer(DefaultTheme, 80)
	result := ansi.Strip(renderer.RenderBody(manifest))

	if !strings.Contains(result, "queue position: 2") {
		t.Errorf("missing queue position line, got:\n%s", result)
	}
}

func TestRenderBodyRetriesAndRecoveries(t *testing.T) {
	manifest := detailTestManifest()
	manifest.RetryCount = 2
	manifest.RecoveryCount = 1

	renderer := NewDetailRenderer(DefaultTheme, 80)
	result := ansi.Strip(renderer.RenderBody(manifest))

	if !strings.Contains(result, "retries: 2") {
		t.Errorf("missing retries line, got:\n%s", result)
	}
	if !strings.Contains(result, "recoveries: 1") {
		t.Error("missing recoveries count")
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		seconds  float64
		expected string
	}{
		{0, "0s"},
		{42, "42s"},
		{221, "3m41s"},
		{4320, "1h12m0s"},
		{59.6, "1m0s"},
	}
	for _, test := range tests {
		result := formatElapsed(test.seconds)
		if result != test.expected {
			t.Errorf("formatElapsed(%v) = %q, want %q", test.seconds, result, test.expected)
		}
	}
}

func TestFormatMetricsDelta(t *testing.T) {
	if result := formatMetricsDelta(nil); result != "" {
		t.Errorf("nil delta should format empty, got %q", result)
	}
	if result := formatMetricsDelta(&job.MetricsDelta{}); result != "" {
		t.Errorf("zero delta should format empty, got %q", result)
	}

	delta := &job.MetricsDelta{Cost: 1.2, ElapsedSeconds: 221, ActionCount: 41}
	if result := formatMetricsDelta(delta); result != "+$1.20 +3m41s +41a" {
		t.Errorf("full delta = %q, want %q", result, "+$1.20 +3m41s +41a")
	}

	costOnly := &job.MetricsDelta{Cost: 0.05}
	if result := formatMetricsDelta(costOnly); result != "+$0.05" {
		t.Errorf("cost-only delta = %q, want %q", result, "+$0.05")
	}
}

func TestDetailPaneEmptyView(t *testing.T) {
	pane := NewDetailPane(DefaultTheme)
	pane.SetSize(40, 20)

	view := ansi.Strip(pane.View(false))
	if !strings.Contains(view, "Select a job to view details") {
		t.Errorf("empty pane should show placeholder, got:\n%s", view)
	}
}

// scrollTestManifest builds a job whose body is guaranteed to exceed a
// small viewport, so scroll behavior is observable.
func scrollTestManifest(id string) *job.Manifest {
	manifest := detailTestManifest()
	manifest.ID = id
	history := make([]job.TransitionRecord, 0, 40)
	for index := range 40 {
		history = append(history, job.TransitionRecord{
			From:      job.StatusRunning,
			To:        job.StatusReviewing,
			Trigger:   job.TriggerStepCompleted,
			Timestamp: testTime(index),
		})
	}
	manifest.History = history
	return manifest
}

func TestDetailPaneNewJobResetsScroll(t *testing.T) {
	pane := NewDetailPane(DefaultTheme)
	pane.SetSize(40, 12)

	pane.SetManifest(scrollTestManifest("job-100"))
	pane.GotoBottom()
	if pane.AtTop() {
		t.Fatal("expected pane scrolled away from top after GotoBottom")
	}

	pane.SetManifest(scrollTestManifest("job-200"))
	if !pane.AtTop() {
		t.Error("switching to a different job should reset scroll to top")
	}
}

func TestDetailPaneSameJobPreservesScroll(t *testing.T) {
	pane := NewDetailPane(DefaultTheme)
	pane.SetSize(40, 12)

	pane.SetManifest(scrollTestManifest("job-100"))
	pane.GotoBottom()
	if pane.AtTop() {
		t.Fatal("expected pane scrolled away from top after GotoBottom")
	}

	// A live refresh of the same job keeps the reader's place.
	updated := scrollTestManifest("job-100")
	updated.Metrics.Cost = 2.50
	pane.SetManifest(updated)
	if pane.AtTop() {
		t.Error("refreshing the same job should preserve scroll position")
	}
}

func TestDetailPaneClear(t *testing.T) {
	pane := NewDetailPane(DefaultTheme)
	pane.SetSize(40, 20)
	pane.SetManifest(detailTestManifest())

	pane.Clear()

	view := ansi.Strip(pane.View(false))
	if !strings.Contains(view, "Select a job to view details") {
		t.Error("cleared pane should show placeholder")
	}
	if strings.Contains(view, "job-001") {
		t.Error("cleared pane should not show previous job content")
	}
}

func TestDetailPaneViewShowsContent(t *testing.T) {
	pane := NewDetailPane(DefaultTheme)
	pane.SetSize(60, 30)
	pane.SetManifest(detailTestManifest())

	view := ansi.Strip(pane.View(true))
	if !strings.Contains(view, "RUNNING") {
		t.Errorf("missing status in pane view, got:\n%s", view)
	}
	if !strings.Contains(view, "job-001") {
		t.Error("missing job ID in pane view")
	}
	if !strings.Contains(view, "Workspace") {
		t.Error("missing body section in pane view")
	}
}
