// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/docket-works/docket/lib/schema/job"
)

func intPointer(value int) *int {
	return &value
}

// testTime returns a fixed UTC timestamp offset by the given number of
// hours, so fixtures can express relative ordering without real clocks.
func testTime(hourOffset int) time.Time {
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	return base.Add(time.Duration(hourOffset) * time.Hour)
}

// testSource creates a source with 4 jobs spanning all four tabs: one
// running, one queued, one settled, one waiting on approval.
func testSource() *DirSource {
	return NewDirSource(map[string]*job.Manifest{
		"job-001": {
			Version:     1,
			ID:          "job-001",
			Title:       "Fix connection pooling leak",
			Description: "The connection pool is leaking under high load.",
			Status:      job.StatusRunning,
			Phase:       &job.Phase{Index: 1, Names: []string{"plan", "implement", "verify"}},
			Metrics:     job.Metrics{Cost: 1.25, ElapsedSeconds: 340, ActionCount: 52},
			Thresholds:  job.Thresholds{CostMax: 5},
			Workspace: &job.Workspace{
				Repo:   "github.com/acme/infra",
				Branch: "docket/job-001",
			},
			CreatedAt:        testTime(0),
			LastTransitionAt: testTime(96),
		},
		"job-002": {
			Version:          1,
			ID:               "job-002",
			Title:            "Implement retry backoff",
			Status:           job.StatusPending,
			QueueRank:        intPointer(0),
			CreatedAt:        testTime(24),
			LastTransitionAt: testTime(24),
		},
		"job-003": {
			Version:          1,
			ID:               "job-003",
			Title:            "Update CI pipeline config",
			Status:           job.StatusSuccess,
			CreatedAt:        testTime(48),
			LastTransitionAt: testTime(72),
		},
		"job-004": {
			Version:          1,
			ID:               "job-004",
			Title:            "Layout crash on resize",
			Status:           job.StatusApprovalRequired,
			CreatedAt:        testTime(12),
			LastTransitionAt: testTime(36),
		},
	})
}

// testGroupedSource creates a source with jobs in every Active status
// so the grouped view has multiple groups to arrange and collapse.
func testGroupedSource() *DirSource {
	return NewDirSource(map[string]*job.Manifest{
		"job-101": {
			Version:          1,
			ID:               "job-101",
			Title:            "Refactor session storage",
			Status:           job.StatusRunning,
			CreatedAt:        testTime(0),
			LastTransitionAt: testTime(10),
		},
		"job-102": {
			Version:          1,
			ID:               "job-102",
			Title:            "Add health check endpoint",
			Status:           job.StatusRunning,
			CreatedAt:        testTime(1),
			LastTransitionAt: testTime(8),
		},
		"job-201": {
			Version:          1,
			ID:               "job-201",
			Title:            "Migrate config loader",
			Status:           job.StatusReviewing,
			CreatedAt:        testTime(2),
			LastTransitionAt: testTime(9),
		},
		"job-301": {
			Version:          1,
			ID:               "job-301",
			Title:            "Bump linter version",
			Status:           job.StatusPending,
			QueueRank:        intPointer(1),
			CreatedAt:        testTime(3),
			LastTransitionAt: testTime(3),
		},
		"job-302": {
			Version:          1,
			ID:               "job-302",
			Title:            "Harden webhook validation",
			Status:           job.StatusPending,
			QueueRank:        intPointer(0),
			CreatedAt:        testTime(4),
			LastTransitionAt: testTime(4),
		},
		"job-401": {
			Version:          1,
			ID:               "job-401",
			Title:            "Prototype queue metrics",
			Status:           job.StatusSuspended,
			CreatedAt:        testTime(5),
			LastTransitionAt: testTime(6),
		},
	})
}

func TestNewModel(t *testing.T) {
	source := testSource()
	model := NewModel(source)

	// NewModel loads the Active view: running and pending jobs.
	// job-003 (success) and job-004 (approval_required) are excluded.
	if len(model.jobs) != 2 {
		t.Fatalf("expected 2 active jobs, got %d", len(model.jobs))
	}

	// Running sorts before pending.
	if model.jobs[0].ID != "job-001" {
		t.Errorf("first job should be job-001 (running), got %s", model.jobs[0].ID)
	}
	if model.jobs[1].ID != "job-002" {
		t.Errorf("second job should be job-002 (pending), got %s", model.jobs[1].ID)
	}

	// Stats reflect all jobs, not just the active ones.
	if model.stats.Total != 4 {
		t.Errorf("total stats should be 4, got %d", model.stats.Total)
	}

	// Items: one header per non-empty status group plus the job rows.
	if len(model.items) != 4 {
		t.Fatalf("expected 4 items (2 headers + 2 jobs), got %d", len(model.items))
	}
	if !model.items[0].IsHeader {
		t.Error("first item should be a group header")
	}
	if model.items[0].GroupStatus != job.StatusRunning {
		t.Errorf("first header should be running, got %s", model.items[0].GroupStatus)
	}
	if model.items[2].GroupStatus != job.StatusPending {
		t.Errorf("second header should be pending, got %s", model.items[2].GroupStatus)
	}

	// Cursor starts on the first item (a header), so nothing is
	// selected yet.
	if model.cursor != 0 {
		t.Errorf("cursor should start at 0, got %d", model.cursor)
	}
	if model.selectedID != "" {
		t.Errorf("selectedID should be empty with cursor on a header, got %q", model.selectedID)
	}
}

func TestModelNavigation(t *testing.T) {
	source := testSource()
	model := NewModel(source)

	// Simulate terminal dimensions.
	updated, _ := model.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	model = updated.(Model)

	// Items: [0]=header(running), [1]=job-001, [2]=header(pending), [3]=job-002
	if model.cursor != 0 {
		t.Errorf("initial cursor should be 0 (header), got %d", model.cursor)
	}

	// Move down to the first job row.
	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	model = updated.(Model)
	if model.cursor != 1 {
		t.Errorf("cursor after first j should be 1, got %d", model.cursor)
	}
	if model.selectedID != "job-001" {
		t.Errorf("selectedID should be job-001, got %q", model.selectedID)
	}
	if !model.detailPane.hasManifest {
		t.Error("detail pane should show a manifest with cursor on a job row")
	}

	// Down to the pending header, then the second job.
	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	model = updated.(Model)
	if model.cursor != 2 {
		t.Errorf("cursor after second j should be 2, got %d", model.cursor)
	}
	if model.detailPane.hasManifest {
		t.Error("detail pane should clear with cursor on a header")
	}

	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	model = updated.(Model)
	if model.cursor != 3 {
		t.Errorf("cursor after third j should be 3, got %d", model.cursor)
	}
	if model.selectedID != "job-002" {
		t.Errorf("selectedID should be job-002, got %q", model.selectedID)
	}

	// Down again: stays on the last item.
	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	model = updated.(Model)
	if model.cursor != 3 {
		t.Errorf("cursor should stay at 3 on the last item, got %d", model.cursor)
	}

	// Walk back up to the top.
	for range 3 {
		updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
		model = updated.(Model)
	}
	if model.cursor != 0 {
		t.Errorf("cursor should be back at 0, got %d", model.cursor)
	}

	// Up again: stays on the first item.
	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	model = updated.(Model)
	if model.cursor != 0 {
		t.Errorf("cursor should stay at 0 on the first item, got %d", model.cursor)
	}
}

func TestModelView(t *testing.T) {
	source := testSource()
	model := NewModel(source)

	// Before receiving WindowSizeMsg, View returns loading text.
	view := model.View()
	if view != "Loading..." {
		t.Errorf("expected 'Loading...' before WindowSizeMsg, got %q", view)
	}

	// Use a wide terminal so titles aren't truncated by the two-pane layout.
	updated, _ := model.Update(tea.WindowSizeMsg{Width: 160, Height: 20})
	model = updated.(Model)

	view = model.View()

	if !strings.Contains(view, "1:Active") {
		t.Error("view should contain tab labels")
	}
	if !strings.Contains(view, "running (1)") {
		t.Error("view should contain the running group header")
	}
	if !strings.Contains(view, "pending (1)") {
		t.Error("view should contain the pending group header")
	}
	if !strings.Contains(view, "Fix connection pooling leak") {
		t.Error("view should contain the running job title")
	}
	if !strings.Contains(view, "[implement 2/3]") {
		t.Error("view should contain the phase annotation")
	}
	if !strings.Contains(view, "job-001") {
		t.Error("view should contain the job ID column")
	}
	if !strings.Contains(view, "2 shown") {
		t.Error("view should contain the shown count")
	}
	if !strings.Contains(view, "1 attention") {
		t.Error("view should contain the attention count")
	}
	if !strings.Contains(view, "q quit") {
		t.Error("view should contain help text")
	}
	if !strings.Contains(view, "Select a job to view details") {
		t.Error("view should show the detail placeholder while a header is selected")
	}
}

func TestModelEmptyState(t *testing.T) {
	source := NewDirSource(nil)
	model := NewModel(source)

	updated, _ := model.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	model = updated.(Model)

	view := model.View()
	if !strings.Contains(view, "No jobs found") {
		t.Error("empty view should contain 'No jobs found'")
	}
}

func TestModelQuit(t *testing.T) {
	source := testSource()
	model := NewModel(source)

	_, command := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if command == nil {
		t.Fatal("q key should return a command")
	}

	// Execute the command and check it produces a QuitMsg.
	message := command()
	if _, isQuit := message.(tea.QuitMsg); !isQuit {
		t.Errorf("expected QuitMsg, got %T", message)
	}
}

func TestModelTabSwitching(t *testing.T) {
	source := testSource()
	model := NewModel(source)
	updated, _ := model.Update(tea.WindowSizeMsg{Width: 160, Height: 30})
	model = updated.(Model)

	if model.activeTab != TabActive {
		t.Errorf("expected TabActive, got %d", model.activeTab)
	}

	// Switch to the All tab.
	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'4'}})
	model = updated.(Model)
	if model.activeTab != TabAll {
		t.Errorf("expected TabAll after pressing 4, got %d", model.activeTab)
	}

	// All tab is flat (no group headers) and shows every job in
	// creation order.
	if len(model.items) != 4 {
		t.Fatalf("All tab should show 4 items, got %d", len(model.items))
	}
	for _, item := range model.items {
		if item.IsHeader {
			t.Fatal("All tab should not contain group headers")
		}
	}
	if model.items[0].Job.ID != "job-001" {
		t.Errorf("first All item should be job-001 (earliest creation), got %s", model.items[0].Job.ID)
	}
	if model.items[1].Job.ID != "job-004" {
		t.Errorf("second All item should be job-004, got %s", model.items[1].Job.ID)
	}

	// Attention tab shows the approval_required job.
	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}})
	model = updated.(Model)
	if model.activeTab != TabAttention {
		t.Errorf("expected TabAttention after pressing 2, got %d", model.activeTab)
	}
	if len(model.items) != 1 || model.items[0].Job.ID != "job-004" {
		t.Errorf("Attention tab should show only job-004, got %d items", len(model.items))
	}

	// Settled tab shows the success job.
	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'3'}})
	model = updated.(Model)
	if model.activeTab != TabSettled {
		t.Errorf("expected TabSettled after pressing 3, got %d", model.activeTab)
	}
	if len(model.items) != 1 || model.items[0].Job.ID != "job-003" {
		t.Errorf("Settled tab should show only job-003, got %d items", len(model.items))
	}

	// Back to Active.
	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'1'}})
	model = updated.(Model)
	if model.activeTab != TabActive {
		t.Errorf("expected TabActive after pressing 1, got %d", model.activeTab)
	}
}

func TestModelGroupedActiveView(t *testing.T) {
	source := testGroupedSource()
	model := NewModel(source)
	updated, _ := model.Update(tea.WindowSizeMsg{Width: 160, Height: 40})
	model = updated.(Model)

	// Groups in fixed order: running, reviewing, pending, suspended.
	var headers []job.Status
	for _, item := range model.items {
		if item.IsHeader {
			headers = append(headers, item.GroupStatus)
		}
	}
	want := []job.Status{job.StatusRunning, job.StatusReviewing, job.StatusPending, job.StatusSuspended}
	if len(headers) != len(want) {
		t.Fatalf("expected %d group headers, got %d: %v", len(want), len(headers), headers)
	}
	for index, status := range want {
		if headers[index] != status {
			t.Errorf("header %d should be %s, got %s", index, status, headers[index])
		}
	}

	// Within running: most recent transition first.
	if model.items[1].Job.ID != "job-101" || model.items[2].Job.ID != "job-102" {
		t.Errorf("running group order wrong: got %s, %s", model.items[1].Job.ID, model.items[2].Job.ID)
	}

	// Within pending: queue rank order.
	if model.items[6].Job.ID != "job-302" || model.items[7].Job.ID != "job-301" {
		t.Errorf("pending group should be ordered by queue rank: got %s, %s",
			model.items[6].Job.ID, model.items[7].Job.ID)
	}

	if model.cursor != 0 {
		t.Errorf("cursor should start at 0, got %d", model.cursor)
	}
}

func TestModelGroupCollapse(t *testing.T) {
	source := testGroupedSource()
	model := NewModel(source)
	updated, _ := model.Update(tea.WindowSizeMsg{Width: 160, Height: 40})
	model = updated.(Model)

	initialCount := len(model.items)
	if initialCount != 10 {
		t.Fatalf("expected 10 items (4 headers + 6 jobs), got %d", initialCount)
	}

	// Cursor starts on the running header. Enter collapses the group.
	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	model = updated.(Model)

	if !model.collapsedGroups[job.StatusRunning] {
		t.Error("running group should be collapsed after Enter")
	}
	if len(model.items) != initialCount-2 {
		t.Errorf("expected %d items after collapsing 2 running jobs, got %d",
			initialCount-2, len(model.items))
	}
	if !model.items[0].IsHeader || !model.items[0].Collapsed {
		t.Error("first item should be the collapsed running header")
	}

	// Enter again expands.
	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	model = updated.(Model)

	if model.collapsedGroups[job.StatusRunning] {
		t.Error("running group should be expanded after second Enter")
	}
	if len(model.items) != initialCount {
		t.Errorf("expected %d items after re-expand, got %d", initialCount, len(model.items))
	}
}

func TestModelLeftRightCollapseExpand(t *testing.T) {
	source := testGroupedSource()
	model := NewModel(source)
	updated, _ := model.Update(tea.WindowSizeMsg{Width: 160, Height: 40})
	model = updated.(Model)

	initialCount := len(model.items)

	// Cursor starts on the running header.
	if !model.items[model.cursor].IsHeader {
		t.Fatal("cursor should start on a header")
	}

	// Right on an expanded header moves to the first row in the group.
	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyRight})
	model = updated.(Model)
	if model.items[model.cursor].IsHeader {
		t.Error("right on expanded header should move cursor to first row")
	}
	if model.selectedID != "job-101" {
		t.Errorf("selectedID should be job-101, got %q", model.selectedID)
	}

	// Left on a row collapses the containing group.
	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyLeft})
	model = updated.(Model)
	if !model.collapsedGroups[job.StatusRunning] {
		t.Error("left on a row should collapse its group")
	}
	if !model.items[model.cursor].IsHeader {
		t.Error("after collapse, cursor should be on the header")
	}
	if len(model.items) >= initialCount {
		t.Error("items should be fewer after collapsing")
	}

	// Right on a collapsed header expands it and enters the group.
	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyRight})
	model = updated.(Model)
	if model.collapsedGroups[job.StatusRunning] {
		t.Error("right on collapsed header should expand it")
	}
	if model.items[model.cursor].IsHeader {
		t.Error("right on collapsed header should move cursor to first row")
	}
	if len(model.items) != initialCount {
		t.Errorf("items should be restored after expand, expected %d got %d",
			initialCount, len(model.items))
	}
}

func TestModelFilter(t *testing.T) {
	source := testSource()
	model := NewModel(source)
	updated, _ := model.Update(tea.WindowSizeMsg{Width: 160, Height: 30})
	model = updated.(Model)

	// Switch to the All tab so all 4 jobs are visible.
	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'4'}})
	model = updated.(Model)

	// Activate the filter.
	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	model = updated.(Model)
	if model.focusRegion != FocusFilter {
		t.Errorf("after pressing /, focus should be FocusFilter, got %d", model.focusRegion)
	}

	// Type "pooling".
	for _, character := range "pooling" {
		updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{character}})
		model = updated.(Model)
	}

	if len(model.items) != 1 {
		t.Fatalf("filter 'pooling' should match 1 job, got %d", len(model.items))
	}
	if model.items[0].Job.ID != "job-001" {
		t.Errorf("filter 'pooling' should match job-001, got %s", model.items[0].Job.ID)
	}

	// The matched title characters should be recorded for highlighting.
	if len(model.filterHighlights["job-001"]) == 0 {
		t.Error("title match should record highlight positions")
	}

	// Esc clears the filter and restores the full list.
	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyEscape})
	model = updated.(Model)
	if len(model.items) != 4 {
		t.Errorf("after clearing filter, should see 4 jobs, got %d", len(model.items))
	}
}

func TestModelFilterMatchesWorkspaceField(t *testing.T) {
	source := testSource()
	model := NewModel(source)
	updated, _ := model.Update(tea.WindowSizeMsg{Width: 160, Height: 30})
	model = updated.(Model)

	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'4'}})
	model = updated.(Model)

	// "acme" appears only in job-001's workspace repo, not in any title.
	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	model = updated.(Model)
	for _, character := range "acme" {
		updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{character}})
		model = updated.(Model)
	}

	if len(model.items) != 1 {
		t.Fatalf("filter 'acme' should match 1 job, got %d", len(model.items))
	}
	if model.items[0].Job.ID != "job-001" {
		t.Errorf("filter 'acme' should match job-001 via workspace repo, got %s", model.items[0].Job.ID)
	}

	// A non-title match records no highlight positions.
	if len(model.filterHighlights["job-001"]) != 0 {
		t.Error("workspace field match should not record title highlight positions")
	}
}

func TestModelFocusToggle(t *testing.T) {
	source := testSource()
	model := NewModel(source)
	updated, _ := model.Update(tea.WindowSizeMsg{Width: 160, Height: 30})
	model = updated.(Model)

	if model.focusRegion != FocusList {
		t.Fatalf("should start with list focus, got %d", model.focusRegion)
	}

	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyTab})
	model = updated.(Model)
	if model.focusRegion != FocusDetail {
		t.Errorf("Tab should switch focus to detail, got %d", model.focusRegion)
	}

	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyTab})
	model = updated.(Model)
	if model.focusRegion != FocusList {
		t.Errorf("Tab should switch focus back to list, got %d", model.focusRegion)
	}
}

func TestModelSplitResize(t *testing.T) {
	source := testSource()
	model := NewModel(source)
	updated, _ := model.Update(tea.WindowSizeMsg{Width: 160, Height: 30})
	model = updated.(Model)

	initialWidth := model.listWidth()

	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{']'}})
	model = updated.(Model)
	if model.listWidth() <= initialWidth {
		t.Errorf("] should grow the list pane, was %d now %d", initialWidth, model.listWidth())
	}

	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'['}})
	model = updated.(Model)
	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'['}})
	model = updated.(Model)
	if model.listWidth() >= initialWidth {
		t.Errorf("[ should shrink the list pane, was %d now %d", initialWidth, model.listWidth())
	}

	// The ratio clamps: many more shrinks never push below the minimum.
	for range 20 {
		updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'['}})
		model = updated.(Model)
	}
	if model.splitRatio < splitRatioMin {
		t.Errorf("splitRatio should clamp at %v, got %v", splitRatioMin, model.splitRatio)
	}
}

func TestModelSourceEventRefreshesList(t *testing.T) {
	source := testSource()
	model := NewModel(source)
	updated, _ := model.Update(tea.WindowSizeMsg{Width: 160, Height: 30})
	model = updated.(Model)

	// A new running job lands in the store.
	source.Put("job-005", &job.Manifest{
		Version:          1,
		ID:               "job-005",
		Title:            "Rotate signing keys",
		Status:           job.StatusRunning,
		CreatedAt:        testTime(100),
		LastTransitionAt: testTime(100),
	})

	updated, command := model.Update(sourceEventMsg{event: Event{JobID: "job-005", Kind: "put"}})
	model = updated.(Model)

	found := false
	for _, item := range model.items {
		if !item.IsHeader && item.Job.ID == "job-005" {
			found = true
		}
	}
	if !found {
		t.Error("source event should refresh the list with the new job")
	}

	if model.heatTracker.Heat("job-005", time.Now()) <= 0 {
		t.Error("source event should ignite heat for the changed job")
	}

	if command == nil {
		t.Error("source event should produce follow-up commands (re-listen and tick)")
	}
	if !model.tickRunning {
		t.Error("heat tick should be scheduled after a source event")
	}
}
