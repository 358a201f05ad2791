// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/docket-works/docket/lib/schema/job"
)

// Tab identifies which data view is active.
type Tab int

const (
	// TabActive shows jobs the driver will act on, grouped by status.
	TabActive Tab = iota
	// TabAttention shows jobs waiting on an operator decision.
	TabAttention
	// TabSettled shows jobs that reached a terminal status.
	TabSettled
	// TabAll shows every job regardless of status.
	TabAll
)

// FocusRegion identifies which pane has keyboard focus.
type FocusRegion int

const (
	// FocusList means navigation keys move the job list cursor.
	FocusList FocusRegion = iota
	// FocusDetail means navigation keys scroll the detail viewport.
	FocusDetail
	// FocusFilter means keystrokes go to the filter input.
	FocusFilter
)

// Split ratio bounds and step size.
const (
	splitRatioMin  = 0.20
	splitRatioMax  = 0.80
	splitRatioStep = 0.05
)

// groupOrder is the display order of status groups on the Active tab:
// most actionable first. Matches the sort order the source applies, so
// grouping a sorted snapshot never reorders rows within a group.
var groupOrder = []job.Status{
	job.StatusRunning,
	job.StatusReviewing,
	job.StatusPending,
	job.StatusSuspended,
}

// sourceEventMsg wraps a Source Event for delivery through the
// bubbletea message loop.
type sourceEventMsg struct {
	event Event
}

// heatTickMsg is sent periodically to drive the heat decay animation.
// While any jobs are hot, a new tick is scheduled after each one.
type heatTickMsg struct{}

// ListItem is a single row in the rendered list. It is either a status
// group header (for the Active tab's grouping) or a job entry.
type ListItem struct {
	// IsHeader is true for status group headers, false for job rows.
	IsHeader bool

	// For headers: the status this group collects and its row count.
	GroupStatus job.Status
	GroupCount  int
	Collapsed   bool

	// For job rows: the manifest.
	Job *job.Manifest
}

// Model is the top-level bubbletea model for the job board TUI.
type Model struct {
	source Source
	theme  Theme
	keys   KeyMap

	// Terminal dimensions (set by WindowSizeMsg).
	width  int
	height int
	ready  bool

	// Active tab and filter.
	activeTab Tab
	filter    FilterModel

	// List state. items is the displayed list (may include group
	// headers on the Active tab). jobs is the underlying manifest data
	// before grouping. stats comes from the source snapshot.
	jobs         []*job.Manifest
	items        []ListItem
	stats        Stats
	cursor       int
	scrollOffset int
	selectedID   string // Stable focus: track selection by job ID.

	// Two-pane layout.
	focusRegion     FocusRegion
	priorFocus      FocusRegion // Saved focus when entering filter mode.
	splitRatio      float64     // Fraction of width for the list pane.
	detailPane      DetailPane  // Right pane: scrollable job detail.
	collapsedGroups map[job.Status]bool

	// Filter match highlighting: maps job ID to matched rune positions
	// in the title. Populated by applyFilter when the filter uses
	// fuzzy matching; nil when no filter is active.
	filterHighlights map[string][]int

	// Live update animation.
	heatTracker  *HeatTracker // Tracks recently-changed jobs for glow animation.
	eventChannel <-chan Event // Source event subscription; nil if no live updates.
	tickRunning  bool         // True when the heat animation tick timer is active.
}

// NewModel creates a Model connected to the given job data source.
// Loads the Active view by default (the primary use case).
func NewModel(source Source) Model {
	snapshot := source.Active()

	model := Model{
		source:          source,
		theme:           DefaultTheme,
		keys:            DefaultKeyMap,
		activeTab:       TabActive,
		jobs:            snapshot.Jobs,
		stats:           snapshot.Stats,
		splitRatio:      0.50,
		detailPane:      NewDetailPane(DefaultTheme),
		collapsedGroups: make(map[job.Status]bool),
		heatTracker:     NewHeatTracker(),
		eventChannel:    source.Subscribe(),
	}

	model.rebuildItems()

	// Initialize stable focus on the first selectable item.
	if len(model.items) > 0 {
		model.cursor = 0
		if model.cursor < len(model.items) && !model.items[model.cursor].IsHeader {
			model.selectedID = model.items[model.cursor].Job.ID
		}
	}

	return model
}

// Init implements tea.Model. Starts listening for source events if the
// event channel is available (set up in NewModel).
func (model Model) Init() tea.Cmd {
	if model.eventChannel == nil {
		return nil
	}
	return listenForSourceEvent(model.eventChannel)
}

// listenForSourceEvent returns a tea.Cmd that blocks until an event
// arrives on the source channel, then delivers it as a sourceEventMsg.
func listenForSourceEvent(channel <-chan Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-channel
		if !ok {
			return nil
		}
		return sourceEventMsg{event: event}
	}
}

// Update implements tea.Model. Routes keyboard events based on the
// current focus region and handles layout changes.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		// When filter is active, route all input to the filter first,
		// except for Esc (clear) and Enter (confirm and return to list).
		if model.focusRegion == FocusFilter {
			return model.handleFilterKeys(message)
		}

		switch {
		case key.Matches(message, model.keys.Quit):
			return model, tea.Quit

		case key.Matches(message, model.keys.FocusToggle):
			if model.focusRegion == FocusList {
				model.focusRegion = FocusDetail
			} else {
				model.focusRegion = FocusList
			}

		case key.Matches(message, model.keys.SplitGrow):
			model.splitRatio += splitRatioStep
			if model.splitRatio > splitRatioMax {
				model.splitRatio = splitRatioMax
			}
			model.updatePaneSizes()

		case key.Matches(message, model.keys.SplitShrink):
			model.splitRatio -= splitRatioStep
			if model.splitRatio < splitRatioMin {
				model.splitRatio = splitRatioMin
			}
			model.updatePaneSizes()

		case key.Matches(message, model.keys.TabActive):
			model.switchTab(TabActive)

		case key.Matches(message, model.keys.TabAttention):
			model.switchTab(TabAttention)

		case key.Matches(message, model.keys.TabSettled):
			model.switchTab(TabSettled)

		case key.Matches(message, model.keys.TabAll):
			model.switchTab(TabAll)

		case key.Matches(message, model.keys.FilterActivate):
			model.priorFocus = model.focusRegion
			model.focusRegion = FocusFilter
			model.filter.Active = true
			// Reset list position to the top so the user sees
			// results from the beginning as they type.
			model.cursor = 0
			model.scrollOffset = 0

		case key.Matches(message, model.keys.FilterClear):
			if model.filter.Input != "" {
				model.filter.Clear()
				model.refreshFromSource()
			}

		default:
			if model.focusRegion == FocusList {
				model.handleListKeys(message)
			} else {
				model.handleDetailKeys(message)
			}
		}

	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.ready = true
		model.updatePaneSizes()
		model.syncDetailPane()

	case sourceEventMsg:
		return model.handleSourceEvent(message)

	case heatTickMsg:
		return model.handleHeatTick()
	}
	return model, nil
}

// contentStartY returns the Y coordinate where the content area
// begins. The top chrome line is always exactly 1 row: either the
// tab bar (normal) or the filter bar (when filter is active). The
// filter bar replaces the tab bar rather than pushing content down.
func (model Model) contentStartY() int {
	return 1
}

// handleFilterKeys processes keystrokes when the filter input has focus.
func (model Model) handleFilterKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Quit):
		// ctrl+c always quits, even in filter mode.
		if message.Type == tea.KeyCtrlC {
			return model, tea.Quit
		}
		// 'q' is a regular character in filter mode.
		model.filter.HandleRune('q')
		model.applyFilter()
		return model, nil

	case key.Matches(message, model.keys.FilterClear):
		// Esc: if there's filter text, clear it; if already empty,
		// exit filter mode.
		if model.filter.Input != "" {
			model.filter.Clear()
			model.refreshFromSource()
		} else {
			model.filter.Active = false
			model.focusRegion = model.priorFocus
		}
		return model, nil

	case message.Type == tea.KeyEnter:
		// Confirm filter and return focus to the list.
		model.filter.Active = false
		model.focusRegion = FocusList
		return model, nil

	case message.Type == tea.KeyBackspace:
		if model.filter.HandleBackspace() {
			model.applyFilter()
		}
		return model, nil

	case message.Type == tea.KeyRunes || message.Type == tea.KeySpace:
		for _, character := range message.Runes {
			model.filter.HandleRune(character)
		}
		model.applyFilter()
		return model, nil
	}

	return model, nil
}

// switchTab changes the active tab and reloads data from the source.
func (model *Model) switchTab(tab Tab) {
	if model.activeTab == tab {
		return
	}
	model.activeTab = tab
	model.filter.Clear()
	model.refreshFromSource()
}

// snapshotForTab returns the source snapshot for the active tab.
func (model *Model) snapshotForTab() Snapshot {
	switch model.activeTab {
	case TabAttention:
		return model.source.Attention()
	case TabSettled:
		return model.source.Settled()
	case TabAll:
		return model.source.All()
	default:
		return model.source.Active()
	}
}

// applySnapshot stores the snapshot data, running the fuzzy filter
// over it when filter text is active.
func (model *Model) applySnapshot(snapshot Snapshot) {
	model.stats = snapshot.Stats

	if model.filter.Input != "" {
		results := model.filter.ApplyFuzzy(snapshot.Jobs)
		model.jobs = make([]*job.Manifest, len(results))
		model.filterHighlights = make(map[string][]int, len(results))
		for index, result := range results {
			model.jobs[index] = result.Job
			if len(result.TitlePositions) > 0 {
				model.filterHighlights[result.Job.ID] = result.TitlePositions
			}
		}
	} else {
		model.jobs = snapshot.Jobs
		model.filterHighlights = nil
	}
}

// refreshFromSource reloads jobs from the source for the active tab
// and rebuilds the item list.
func (model *Model) refreshFromSource() {
	model.applySnapshot(model.snapshotForTab())
	model.rebuildItems()
	model.restoreSelection()
	model.ensureCursorVisible()
	model.syncDetailPane()
}

// applyFilter re-filters the current source data without moving the
// selection rules of a full refresh: while the user is typing, the
// list snaps to the top so the highest-scored matches are visible.
func (model *Model) applyFilter() {
	model.applySnapshot(model.snapshotForTab())
	model.rebuildItems()

	if model.filter.Input != "" {
		model.cursor = 0
		model.scrollOffset = 0
		if len(model.items) > 0 && !model.items[0].IsHeader {
			model.selectedID = model.items[0].Job.ID
		}
	} else {
		model.restoreSelection()
	}
	model.ensureCursorVisible()
	model.syncDetailPane()
}

// rebuildItems constructs the items list from jobs. For the Active
// tab, jobs are grouped by status. For other tabs, items are a flat
// list of job rows.
func (model *Model) rebuildItems() {
	if model.activeTab != TabActive {
		model.items = make([]ListItem, len(model.jobs))
		for index, manifest := range model.jobs {
			model.items[index] = ListItem{Job: manifest}
		}
		return
	}

	model.items = model.buildGroupedItems()
}

// buildGroupedItems constructs the Active view with status grouping.
// Groups appear in a fixed order (running, reviewing, pending,
// suspended); empty groups are omitted. Within a group, jobs keep the
// order the source snapshot produced.
func (model *Model) buildGroupedItems() []ListItem {
	grouped := make(map[job.Status][]*job.Manifest)
	for _, manifest := range model.jobs {
		grouped[manifest.Status] = append(grouped[manifest.Status], manifest)
	}

	var items []ListItem
	for _, status := range groupOrder {
		group := grouped[status]
		if len(group) == 0 {
			continue
		}

		collapsed := model.collapsedGroups[status]
		items = append(items, ListItem{
			IsHeader:    true,
			GroupStatus: status,
			GroupCount:  len(group),
			Collapsed:   collapsed,
		})

		if !collapsed {
			for _, manifest := range group {
				items = append(items, ListItem{Job: manifest})
			}
		}
	}

	return items
}

// restoreSelection attempts to find the previously selected job ID in
// the rebuilt items list and move the cursor there. If not found,
// clamps the cursor to a valid position.
func (model *Model) restoreSelection() {
	if model.selectedID == "" {
		model.cursor = 0
		return
	}

	for index, item := range model.items {
		if !item.IsHeader && item.Job.ID == model.selectedID {
			model.cursor = index
			return
		}
	}

	// Selected job is no longer in the list. Clamp cursor.
	model.cursor = model.clampedIndex(model.cursor)
}

// clampedIndex returns position clamped to valid item bounds.
func (model *Model) clampedIndex(position int) int {
	if len(model.items) == 0 {
		return 0
	}
	if position < 0 {
		return 0
	}
	if position >= len(model.items) {
		return len(model.items) - 1
	}
	return position
}

// handleListKeys processes navigation keys when the list has focus.
func (model *Model) handleListKeys(message tea.KeyMsg) {
	prevCursor := model.cursor

	switch {
	case key.Matches(message, model.keys.Up):
		model.moveCursorUp()

	case key.Matches(message, model.keys.Down):
		model.moveCursorDown()

	case key.Matches(message, model.keys.PageUp):
		target := model.cursor - model.visibleHeight()
		if target < 0 {
			target = 0
		}
		model.cursor = model.clampedIndex(target)

	case key.Matches(message, model.keys.PageDown):
		target := model.cursor + model.visibleHeight()
		if len(model.items) > 0 && target >= len(model.items) {
			target = len(model.items) - 1
		}
		model.cursor = model.clampedIndex(target)

	case key.Matches(message, model.keys.Home):
		model.cursor = 0

	case key.Matches(message, model.keys.End):
		if len(model.items) > 0 {
			model.cursor = len(model.items) - 1
		}

	case key.Matches(message, model.keys.Left):
		model.collapseOrGoToParent()

	case key.Matches(message, model.keys.Right):
		model.expandOrEnterFirstChild()

	case message.Type == tea.KeyEnter:
		// Toggle group collapse on header items.
		if model.cursor < len(model.items) && model.items[model.cursor].IsHeader {
			status := model.items[model.cursor].GroupStatus
			if status != "" {
				model.collapsedGroups[status] = !model.collapsedGroups[status]
				model.rebuildItems()
				model.restoreSelection()
			}
		}
	}

	model.ensureCursorVisible()

	// Update detail pane if selection changed.
	if model.cursor != prevCursor {
		model.syncDetailPane()
	}
}

// moveCursorUp moves the cursor to the previous item (headers and job
// rows are both selectable).
func (model *Model) moveCursorUp() {
	if model.cursor > 0 {
		model.cursor--
	}
}

// moveCursorDown moves the cursor to the next item (headers and job
// rows are both selectable).
func (model *Model) moveCursorDown() {
	if model.cursor < len(model.items)-1 {
		model.cursor++
	}
}

// collapseOrGoToParent handles the Left key in the list:
//   - On an expanded header: collapse it
//   - On a job row: collapse the containing group (cursor moves to the header)
//   - On a collapsed header: no-op
func (model *Model) collapseOrGoToParent() {
	if model.cursor < 0 || model.cursor >= len(model.items) {
		return
	}

	item := model.items[model.cursor]

	// Find the group to collapse: either this header or the nearest
	// header above the current position.
	var groupStatus job.Status
	if item.IsHeader {
		groupStatus = item.GroupStatus
	} else {
		for index := model.cursor - 1; index >= 0; index-- {
			if model.items[index].IsHeader {
				groupStatus = model.items[index].GroupStatus
				break
			}
		}
	}

	if groupStatus == "" || model.collapsedGroups[groupStatus] {
		return
	}

	model.collapsedGroups[groupStatus] = true
	model.rebuildItems()
	// Place cursor on the collapsed header.
	for index, rebuilt := range model.items {
		if rebuilt.IsHeader && rebuilt.GroupStatus == groupStatus {
			model.cursor = index
			break
		}
	}
}

// expandOrEnterFirstChild handles the Right key in the list:
//   - On a collapsed header: expand it
//   - On an expanded header: move cursor to first row in the group
//   - On a job row: no-op
func (model *Model) expandOrEnterFirstChild() {
	if model.cursor < 0 || model.cursor >= len(model.items) {
		return
	}

	item := model.items[model.cursor]
	if !item.IsHeader {
		return
	}

	if item.GroupStatus != "" && model.collapsedGroups[item.GroupStatus] {
		// Expand.
		model.collapsedGroups[item.GroupStatus] = false
		model.rebuildItems()
		model.restoreSelection()
		// Move cursor to the first row after this header.
		for index := 0; index < len(model.items); index++ {
			if model.items[index].IsHeader && model.items[index].GroupStatus == item.GroupStatus {
				if index+1 < len(model.items) && !model.items[index+1].IsHeader {
					model.cursor = index + 1
				}
				return
			}
		}
		return
	}

	// Already expanded: move to first row.
	if model.cursor+1 < len(model.items) && !model.items[model.cursor+1].IsHeader {
		model.cursor = model.cursor + 1
	}
}

// handleDetailKeys processes navigation keys when the detail pane has focus.
func (model *Model) handleDetailKeys(message tea.KeyMsg) {
	switch {
	case key.Matches(message, model.keys.Up):
		model.detailPane.LineUp()
	case key.Matches(message, model.keys.Down):
		model.detailPane.LineDown()
	case key.Matches(message, model.keys.PageUp):
		model.detailPane.ScrollUp()
	case key.Matches(message, model.keys.PageDown):
		model.detailPane.ScrollDown()
	case key.Matches(message, model.keys.Home):
		model.detailPane.GotoTop()
	case key.Matches(message, model.keys.End):
		model.detailPane.GotoBottom()
	}
}

// syncDetailPane updates the detail pane content to reflect the
// currently selected job. Status group headers have no manifest to
// show, so the pane clears while one is selected.
func (model *Model) syncDetailPane() {
	if model.cursor < 0 || model.cursor >= len(model.items) {
		model.detailPane.Clear()
		return
	}

	item := model.items[model.cursor]
	if item.IsHeader {
		model.detailPane.Clear()
		return
	}

	model.selectedID = item.Job.ID
	model.detailPane.SetManifest(item.Job)
}

// handleSourceEvent processes a live event from the source (job
// written or removed). Refreshes the snapshot, ignites the heat
// tracker, and schedules the animation tick if not already running.
func (model Model) handleSourceEvent(message sourceEventMsg) (tea.Model, tea.Cmd) {
	event := message.event
	now := time.Now()

	// Ignite heat for the changed job.
	kind := HeatPut
	if event.Kind == "remove" {
		kind = HeatRemove
	}
	model.heatTracker.Ignite(event.JobID, kind, now)

	// Refresh the view from the source, which already has the update
	// applied: Put/Remove on DirSource update the map before
	// dispatching the event.
	model.refreshFromSource()

	// If the detail pane is showing the changed job, re-render it.
	if model.selectedID == event.JobID {
		model.syncDetailPane()
	}

	// Build the set of commands: always re-listen for the next event,
	// and start the heat tick if it isn't already running.
	commands := []tea.Cmd{listenForSourceEvent(model.eventChannel)}
	if !model.tickRunning {
		model.tickRunning = true
		commands = append(commands, scheduleHeatTick())
	}

	return model, tea.Batch(commands...)
}

// handleHeatTick processes a heat animation tick. If any jobs are
// still hot, schedules another tick; otherwise stops the timer.
func (model Model) handleHeatTick() (tea.Model, tea.Cmd) {
	now := time.Now()
	if model.heatTracker.HasHot(now) {
		return model, scheduleHeatTick()
	}
	model.tickRunning = false
	return model, nil
}

// scheduleHeatTick returns a tea.Cmd that sends a heatTickMsg after
// the animation tick interval.
func scheduleHeatTick() tea.Cmd {
	return tea.Tick(heatTickInterval, func(time.Time) tea.Msg {
		return heatTickMsg{}
	})
}

// updatePaneSizes recalculates pane dimensions after a resize or
// split ratio change.
func (model *Model) updatePaneSizes() {
	contentHeight := model.visibleHeight()
	// 1 column for the vertical divider between panes.
	detailWidth := model.width - model.listWidth() - 1
	if detailWidth < 10 {
		detailWidth = 10
	}
	model.detailPane.SetSize(detailWidth, contentHeight)
}

// listWidth returns the width of the list pane in columns.
func (model Model) listWidth() int {
	return int(float64(model.width) * model.splitRatio)
}

// View implements tea.Model. Renders the full TUI frame with two panes.
func (model Model) View() string {
	if !model.ready {
		return "Loading..."
	}

	if len(model.items) == 0 && model.filter.Input == "" {
		return model.renderEmpty()
	}

	var sections []string

	// Top chrome line: either the tab bar or the filter bar. The
	// filter bar replaces the tab bar so the layout doesn't shift.
	filterView := model.filter.View(model.theme, model.width)
	if filterView != "" {
		sections = append(sections, filterView)
	} else {
		sections = append(sections, model.renderHeader())
	}

	// Two-pane content area with vertical divider.
	listView := model.renderListPane()
	divider := model.renderDivider()
	detailFocused := model.focusRegion == FocusDetail
	detailView := model.detailPane.View(detailFocused)
	contentArea := lipgloss.JoinHorizontal(lipgloss.Top, listView, divider, detailView)
	sections = append(sections, contentArea)

	// Bottom separator.
	separator := lipgloss.NewStyle().
		Foreground(model.theme.BorderColor).
		Render(strings.Repeat("─", model.width))
	sections = append(sections, separator)

	// Help bar.
	sections = append(sections, model.renderHelp())

	return strings.Join(sections, "\n")
}

// renderListPane renders the job list with proper column layout.
func (model Model) renderListPane() string {
	listWidth := model.listWidth()

	// Always reserve 1 column for the scrollbar so content stays at a
	// fixed position regardless of scroll state.
	focused := model.focusRegion == FocusList
	rowWidth := listWidth - 1

	renderer := NewListRenderer(model.theme, rowWidth)

	visible := model.visibleHeight()
	if visible < 0 {
		visible = 0
	}

	now := time.Now()
	var rows []string
	for index := model.scrollOffset; index < model.scrollOffset+visible && index < len(model.items); index++ {
		item := model.items[index]
		selected := index == model.cursor
		var row string
		if item.IsHeader {
			row = renderer.RenderGroupHeader(item, rowWidth, selected)
		} else {
			row = renderer.RenderRow(item.Job, selected, model.filterHighlights[item.Job.ID])
			// Apply heat tint for recently-changed jobs (selection
			// highlight takes priority so we skip hot styling there).
			if !selected {
				jobID := item.Job.ID
				if heat := model.heatTracker.Heat(jobID, now); heat > 0 {
					accentColor := model.theme.HotAccentPut
					if model.heatTracker.Kind(jobID) == HeatRemove {
						accentColor = model.theme.HotAccentRemove
					}
					row = lipgloss.NewStyle().
						Background(accentColor).
						Width(rowWidth).
						MaxWidth(rowWidth).
						Render(row)
				}
			}
		}
		rows = append(rows, row)
	}

	// Pad empty rows.
	rendered := len(rows)
	if rendered < visible {
		emptyStyle := lipgloss.NewStyle().Width(rowWidth)
		for padding := rendered; padding < visible; padding++ {
			rows = append(rows, emptyStyle.Render(""))
		}
	}

	// Right scrollbar: shows scroll position and focus state.
	scrollbar := renderScrollbar(
		model.theme, visible,
		len(model.items), visible, model.scrollOffset,
		focused,
	)

	contentStyle := lipgloss.NewStyle().
		Width(rowWidth).
		Height(visible)

	return lipgloss.JoinHorizontal(lipgloss.Top,
		contentStyle.Render(strings.Join(rows, "\n")),
		scrollbar,
	)
}

// renderDivider renders the single-column vertical divider between the
// list and detail panes.
func (model Model) renderDivider() string {
	visible := model.visibleHeight()
	if visible < 0 {
		visible = 0
	}

	dividerStyle := lipgloss.NewStyle().
		Foreground(model.theme.BorderColor)

	lines := make([]string, visible)
	for index := range lines {
		lines[index] = "│"
	}

	return dividerStyle.Width(1).Height(visible).Render(strings.Join(lines, "\n"))
}

// visibleHeight returns the number of list rows that fit between the
// chrome elements. Derived from contentStartY (chrome above) plus the
// bottom separator (1) and help bar (1).
func (model Model) visibleHeight() int {
	return model.height - model.contentStartY() - 2
}

// ensureCursorVisible adjusts scrollOffset so the cursor is within
// the visible window.
func (model *Model) ensureCursorVisible() {
	visible := model.visibleHeight()
	if visible <= 0 {
		return
	}

	// Clamp scrollOffset so we never scroll past the end of the list.
	// This handles tab switches where the new list is shorter than the
	// old scrollOffset.
	maxOffset := len(model.items) - visible
	if maxOffset < 0 {
		maxOffset = 0
	}
	if model.scrollOffset > maxOffset {
		model.scrollOffset = maxOffset
	}

	// Ensure the cursor is within the visible window.
	if model.cursor < model.scrollOffset {
		model.scrollOffset = model.cursor
	}
	if model.cursor >= model.scrollOffset+visible {
		model.scrollOffset = model.cursor - visible + 1
	}
}

// renderEmpty renders the empty state when no jobs match.
func (model Model) renderEmpty() string {
	messageStyle := lipgloss.NewStyle().
		Foreground(model.theme.FaintText)

	return lipgloss.Place(
		model.width, model.height,
		lipgloss.Center, lipgloss.Center,
		messageStyle.Render("No jobs found."),
	)
}

// tabDefs is the fixed list of tab definitions used by the header
// renderer.
var tabDefs = []struct {
	label string
	tab   Tab
}{
	{"1:Active", TabActive},
	{"2:Attention", TabAttention},
	{"3:Settled", TabSettled},
	{"4:All", TabAll},
}

// renderHeader renders the combined tab bar + separator as a single
// line in the btop style: tab labels embedded in a horizontal rule
// with stats on the right.
//
// Example: ─── 1:Active ─── 2:Attention ─── 3:Settled ─── 4:All ─ 12 shown  3 active ─
func (model Model) renderHeader() string {
	separatorStyle := lipgloss.NewStyle().
		Foreground(model.theme.BorderColor)
	activeStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(model.theme.HeaderForeground)
	inactiveStyle := lipgloss.NewStyle().
		Foreground(model.theme.FaintText)
	statsStyle := lipgloss.NewStyle().
		Foreground(model.theme.FaintText)

	sep := separatorStyle.Render("─")

	// Build the left portion: ─── Label ─── Label ─── Label ─
	leftParts := sep + sep + sep // Leading "───"
	cursor := 3

	for index, tabDef := range tabDefs {
		leftParts += " "
		cursor++

		if model.activeTab == tabDef.tab {
			leftParts += activeStyle.Render(tabDef.label)
		} else {
			leftParts += inactiveStyle.Render(tabDef.label)
		}
		cursor += lipgloss.Width(tabDef.label)

		leftParts += " "
		cursor++

		sepCount := 3
		if index == len(tabDefs)-1 {
			sepCount = 1
		}
		for range sepCount {
			leftParts += sep
			cursor++
		}
	}

	// Stats on the right.
	viewCount := len(model.jobs)
	active := model.stats.ByStatus[job.StatusPending] +
		model.stats.ByStatus[job.StatusSuspended] +
		model.stats.ByStatus[job.StatusRunning] +
		model.stats.ByStatus[job.StatusReviewing]
	attention := model.stats.ByStatus[job.StatusApprovalRequired] +
		model.stats.ByStatus[job.StatusInterventionRequired]
	settled := model.stats.ByStatus[job.StatusSuccess] +
		model.stats.ByStatus[job.StatusCanceled]
	statsText := fmt.Sprintf(
		"%d shown  %d active  %d attention  %d settled",
		viewCount, active, attention, settled)
	statsRendered := statsStyle.Render(statsText)
	statsWidth := lipgloss.Width(statsText)

	// Fill the gap between tabs and stats with separator chars,
	// leaving 1 space on each side of the stats.
	rightPortion := " " + statsRendered + " " + sep
	rightWidth := 1 + statsWidth + 1 + 1

	fillCount := model.width - cursor - rightWidth
	if fillCount < 1 {
		fillCount = 1
	}
	fill := ""
	for range fillCount {
		fill += sep
	}

	return leftParts + fill + rightPortion
}

// renderHelp renders the bottom help bar with key hints and position.
func (model Model) renderHelp() string {
	style := lipgloss.NewStyle().Foreground(model.theme.HelpText)

	focusIndicator := "LIST"
	switch model.focusRegion {
	case FocusDetail:
		focusIndicator = "DETAIL"
	case FocusFilter:
		focusIndicator = "FILTER"
	}

	help := fmt.Sprintf(" [%s] q quit  ↑↓ navigate  ←→ collapse/expand  Tab focus  ]/[ resize  1-4 tabs  / filter",
		focusIndicator)

	totalItems := 0
	for _, item := range model.items {
		if !item.IsHeader {
			totalItems++
		}
	}

	if len(model.items) > model.visibleHeight() {
		position := ""
		if model.scrollOffset == 0 {
			position = "top"
		} else if model.scrollOffset+model.visibleHeight() >= len(model.items) {
			position = "bottom"
		} else {
			percent := float64(model.scrollOffset) / float64(len(model.items)-model.visibleHeight()) * 100
			position = fmt.Sprintf("%d%%", int(percent))
		}
		help += fmt.Sprintf("  [%s] %d/%d", position, model.cursor+1, totalItems)
	} else if totalItems > 0 {
		// Find the 1-based position among selectable items.
		selectablePosition := 0
		for index := 0; index <= model.cursor && index < len(model.items); index++ {
			if !model.items[index].IsHeader {
				selectablePosition++
			}
		}
		help += fmt.Sprintf("  %d/%d", selectablePosition, totalItems)
	}

	return style.Render(help)
}
