// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/docket-works/docket/lib/schema/job"
)

// detailHeaderLines is the fixed number of lines consumed by the
// detail pane header (metadata + title). This is constant so the
// scrollable body never shifts vertically when switching jobs.
//
// Layout:
//
//	Line 1: STATUS  [phase 2/4]  job-id          $4.20  42m  ↻1
//	Line 2: timestamps / revision (condensed)
//	Line 3: title line 1
//	Line 4: title line 2 (or blank)
//	Line 5: separator
//
// Line 1 includes right-aligned signal indicators (cost, elapsed
// time, retries) when there is enough horizontal space after the
// metadata.
const detailHeaderLines = 5

// phaseBarWidth is the character width of the phase progress bar.
const phaseBarWidth = 20

// DetailRenderer builds the content for the detail pane. Produces a
// fixed header (rendered outside the viewport) and scrollable body
// (set into the viewport).
type DetailRenderer struct {
	theme Theme
	width int
}

// NewDetailRenderer creates a DetailRenderer for the given width.
func NewDetailRenderer(theme Theme, width int) DetailRenderer {
	return DetailRenderer{theme: theme, width: width}
}

// RenderHeader produces the fixed header lines for a job. Always
// exactly [detailHeaderLines] lines tall regardless of content.
func (renderer DetailRenderer) RenderHeader(manifest *job.Manifest) string {
	line1 := renderer.renderMetaLine(manifest)
	line2 := renderer.renderTimestampLine(manifest)
	titleLine1, titleLine2 := renderer.renderTitleLines(manifest.Title)

	separatorStyle := lipgloss.NewStyle().
		Foreground(renderer.theme.BorderColor).
		Width(renderer.width)
	separator := separatorStyle.Render(strings.Repeat("─", renderer.width))

	return strings.Join([]string{line1, line2, titleLine1, titleLine2, separator}, "\n")
}

// RenderBody produces the scrollable body content for a job. Layout
// order: workspace, phases, execution, description, history.
func (renderer DetailRenderer) RenderBody(manifest *job.Manifest) string {
	var sections []string

	if section := renderer.renderWorkspace(manifest.Workspace); section != "" {
		sections = append(sections, section)
	}
	if section := renderer.renderPhases(manifest.Phase); section != "" {
		sections = append(sections, section)
	}
	sections = append(sections, renderer.renderExecution(manifest))
	if manifest.Description != "" {
		sections = append(sections, renderer.renderMarkdownSection("Description", manifest.Description))
	}
	if len(manifest.History) > 0 {
		sections = append(sections, renderer.renderHistory(manifest.History))
	}

	return strings.Join(sections, "\n\n")
}

// renderMetaLine builds the first header line: status, phase, ID, and
// right-aligned signal indicators.
func (renderer DetailRenderer) renderMetaLine(manifest *job.Manifest) string {
	statusStyle := lipgloss.NewStyle().
		Foreground(renderer.theme.StatusColor(manifest.Status)).
		Bold(true)

	idStyle := lipgloss.NewStyle().
		Foreground(renderer.theme.FaintText)

	leftPortion := statusStyle.Render(strings.ToUpper(string(manifest.Status)))

	if manifest.Phase != nil && len(manifest.Phase.Names) > 0 {
		phaseStyle := lipgloss.NewStyle().Foreground(renderer.theme.FaintText)
		current := manifest.Phase.Current()
		var phaseText string
		if current == "" {
			phaseText = fmt.Sprintf("[done %d/%d]", len(manifest.Phase.Names), len(manifest.Phase.Names))
		} else {
			phaseText = fmt.Sprintf("[%s %d/%d]", current, manifest.Phase.Index+1, len(manifest.Phase.Names))
		}
		leftPortion += "  " + phaseStyle.Render(phaseText)
	}

	leftPortion += "  " + idStyle.Render(manifest.ID)

	// Right-align signal indicators if there is enough space.
	signals := renderer.renderSignalIndicators(manifest)
	if signals != "" {
		leftWidth := lipgloss.Width(leftPortion)
		signalsWidth := lipgloss.Width(signals)
		gap := renderer.width - leftWidth - signalsWidth
		if gap >= 2 {
			leftPortion += strings.Repeat(" ", gap) + signals
		}
	}

	return lipgloss.NewStyle().Width(renderer.width).MaxWidth(renderer.width).Render(leftPortion)
}

// renderSignalIndicators builds compact right-aligned indicators for
// the header meta line. Format: "$4.20  42m10s  ↻1". Returns empty
// string when no signals are worth showing.
//
// Cost coloring matches the list view for visual consistency: faint
// below half the ceiling, CostWarn at half, CostHot near the ceiling.
func (renderer DetailRenderer) renderSignalIndicators(manifest *job.Manifest) string {
	var indicators []string

	if manifest.Metrics.Cost > 0 {
		color := renderer.theme.FaintText
		if ceiling := manifest.Thresholds.CostMax; ceiling > 0 {
			switch {
			case manifest.Metrics.Cost >= ceiling*0.8:
				color = renderer.theme.CostHot
			case manifest.Metrics.Cost >= ceiling*0.5:
				color = renderer.theme.CostWarn
			}
		}
		style := lipgloss.NewStyle().Foreground(color)
		indicators = append(indicators, style.Render(fmt.Sprintf("$%.2f", manifest.Metrics.Cost)))
	}

	if manifest.Metrics.ElapsedSeconds > 0 {
		style := lipgloss.NewStyle().Foreground(renderer.theme.FaintText)
		indicators = append(indicators, style.Render(formatElapsed(manifest.Metrics.ElapsedSeconds)))
	}

	if manifest.RetryCount > 0 {
		style := lipgloss.NewStyle().Foreground(renderer.theme.FaintText)
		indicators = append(indicators, style.Render(fmt.Sprintf("↻%d", manifest.RetryCount)))
	}

	if len(indicators) == 0 {
		return ""
	}
	return strings.Join(indicators, "  ")
}

// renderTimestampLine builds the second header line: creation date,
// last transition time, and revision condensed onto a single line.
func (renderer DetailRenderer) renderTimestampLine(manifest *job.Manifest) string {
	metaStyle := lipgloss.NewStyle().Foreground(renderer.theme.FaintText)

	var parts []string
	if !manifest.CreatedAt.IsZero() {
		parts = append(parts, "created "+manifest.CreatedAt.Format("2006-01-02"))
	}
	if !manifest.LastTransitionAt.IsZero() && !manifest.LastTransitionAt.Equal(manifest.CreatedAt) {
		parts = append(parts, "upd "+manifest.LastTransitionAt.Format("2006-01-02 15:04"))
	}
	parts = append(parts, fmt.Sprintf("rev %d", manifest.Revision))

	line := strings.Join(parts, "  ")
	return metaStyle.Render(lipgloss.NewStyle().Width(renderer.width).MaxWidth(renderer.width).Render(line))
}

// renderTitleLines renders the job title into exactly 2 lines. Long
// titles are truncated with an ellipsis at the end of line 2. Short
// titles leave line 2 blank.
func (renderer DetailRenderer) renderTitleLines(title string) (string, string) {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(renderer.theme.HeaderForeground)

	blankLine := lipgloss.NewStyle().Width(renderer.width).Render("")

	if title == "" {
		return blankLine, blankLine
	}

	runes := []rune(title)

	// Find where the first line breaks.
	firstLineEnd := findLineBreak(runes, renderer.width)

	if firstLineEnd >= len(runes) {
		// Title fits on one line.
		return titleStyle.Width(renderer.width).Render(title), blankLine
	}

	// First line: up to the break point.
	line1 := titleStyle.Width(renderer.width).Render(string(runes[:firstLineEnd]))

	// Second line: remainder, truncated if needed.
	remainder := runes[firstLineEnd:]
	// Skip a leading space from the word-break.
	if len(remainder) > 0 && remainder[0] == ' ' {
		remainder = remainder[1:]
	}

	remainderString := string(remainder)
	if lipgloss.Width(remainderString) > renderer.width {
		remainderString = truncateString(remainderString, renderer.width-1) + "…"
	}

	line2 := titleStyle.Width(renderer.width).Render(remainderString)
	return line1, line2
}

// findLineBreak returns the rune index where the first line should
// end, preferring to break at a word boundary.
func findLineBreak(runes []rune, maxWidth int) int {
	lastSpace := -1
	for index := range runes {
		if lipgloss.Width(string(runes[:index+1])) > maxWidth {
			if lastSpace > 0 {
				return lastSpace
			}
			return index
		}
		if runes[index] == ' ' {
			lastSpace = index
		}
	}
	return len(runes)
}

// renderWorkspace renders the workspace references section. Returns
// empty string when the job carries no workspace.
func (renderer DetailRenderer) renderWorkspace(workspace *job.Workspace) string {
	if workspace == nil {
		return ""
	}

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(renderer.theme.NormalText)
	labelStyle := lipgloss.NewStyle().
		Foreground(renderer.theme.FaintText)
	contentStyle := lipgloss.NewStyle().
		Foreground(renderer.theme.NormalText)

	var lines []string
	if workspace.Repo != "" {
		lines = append(lines, labelStyle.Render("repo: ")+contentStyle.Render(workspace.Repo))
	}
	if workspace.Branch != "" {
		lines = append(lines, labelStyle.Render("branch: ")+contentStyle.Render(workspace.Branch))
	}
	if workspace.Dir != "" {
		lines = append(lines, labelStyle.Render("dir: ")+contentStyle.Render(workspace.Dir))
	}
	if len(lines) == 0 {
		return ""
	}

	for index, line := range lines {
		if lipgloss.Width(line) > renderer.width {
			lines[index] = truncateString(line, renderer.width-1) + "…"
		}
	}

	return headerStyle.Render("Workspace") + "\n" + strings.Join(lines, "\n")
}

// renderPhases renders the phase list with a progress bar in the
// header and one line per phase: completed phases get a check mark,
// the current phase is highlighted, future phases are faint.
func (renderer DetailRenderer) renderPhases(phase *job.Phase) string {
	if phase == nil || len(phase.Names) == 0 {
		return ""
	}

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(renderer.theme.NormalText)

	total := len(phase.Names)
	completed := phase.Index
	if completed > total {
		completed = total
	}

	filled := phaseBarWidth * completed / total
	bar := strings.Repeat("█", filled) + strings.Repeat("░", phaseBarWidth-filled)
	header := fmt.Sprintf("Phases (%d/%d) %s", completed, total, bar)

	doneStyle := lipgloss.NewStyle().Foreground(renderer.theme.StatusSuccess)
	currentStyle := lipgloss.NewStyle().Foreground(renderer.theme.FocusAccent).Bold(true)
	futureStyle := lipgloss.NewStyle().Foreground(renderer.theme.FaintText)

	var lines []string
	for index, name := range phase.Names {
		var line string
		switch {
		case index < phase.Index:
			line = doneStyle.Render("✓ " + name)
		case index == phase.Index:
			line = currentStyle.Render("● " + name)
		default:
			line = futureStyle.Render("○ " + name)
		}
		lines = append(lines, line)
	}

	return headerStyle.Render(header) + "\n" + strings.Join(lines, "\n")
}

// renderExecution renders the cumulative metrics, thresholds, retry
// counts, queue position, and in-flight action reference.
func (renderer DetailRenderer) renderExecution(manifest *job.Manifest) string {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(renderer.theme.NormalText)
	labelStyle := lipgloss.NewStyle().
		Foreground(renderer.theme.FaintText)
	contentStyle := lipgloss.NewStyle().
		Foreground(renderer.theme.NormalText)

	var lines []string

	costText := fmt.Sprintf("$%.2f", manifest.Metrics.Cost)
	costColor := renderer.theme.NormalText
	if ceiling := manifest.Thresholds.CostMax; ceiling > 0 {
		costText += fmt.Sprintf(" of $%.2f max", ceiling)
		switch {
		case manifest.Metrics.Cost >= ceiling*0.8:
			costColor = renderer.theme.CostHot
		case manifest.Metrics.Cost >= ceiling*0.5:
			costColor = renderer.theme.CostWarn
		}
	}
	lines = append(lines, labelStyle.Render("cost: ")+
		lipgloss.NewStyle().Foreground(costColor).Render(costText))

	elapsedText := formatElapsed(manifest.Metrics.ElapsedSeconds)
	if ceiling := manifest.Thresholds.ElapsedSecondsMax; ceiling > 0 {
		elapsedText += " of " + formatElapsed(ceiling) + " max"
	}
	lines = append(lines, labelStyle.Render("elapsed: ")+contentStyle.Render(elapsedText))

	lines = append(lines, labelStyle.Render("actions: ")+
		contentStyle.Render(fmt.Sprintf("%d", manifest.Metrics.ActionCount)))

	if manifest.RetryCount > 0 || manifest.RecoveryCount > 0 {
		lines = append(lines, labelStyle.Render("retries: ")+
			contentStyle.Render(fmt.Sprintf("%d", manifest.RetryCount))+
			labelStyle.Render("  recoveries: ")+
			contentStyle.Render(fmt.Sprintf("%d", manifest.RecoveryCount)))
	}

	if manifest.QueueRank != nil {
		lines = append(lines, labelStyle.Render("queue position: ")+
			contentStyle.Render(fmt.Sprintf("%d", *manifest.QueueRank)))
	}

	if manifest.PendingActionRef != "" {
		actionLine := labelStyle.Render("in flight: ") + contentStyle.Render(manifest.PendingActionRef)
		if lipgloss.Width(actionLine) > renderer.width {
			actionLine = truncateString(actionLine, renderer.width-1) + "…"
		}
		lines = append(lines, actionLine)
	}

	return headerStyle.Render("Execution") + "\n" + strings.Join(lines, "\n")
}

// renderSection renders a titled section with plain body text.
func (renderer DetailRenderer) renderSection(title, body string) string {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(renderer.theme.NormalText)

	bodyStyle := lipgloss.NewStyle().
		Foreground(renderer.theme.NormalText).
		Width(renderer.width)

	return headerStyle.Render(title) + "\n" + bodyStyle.Render(body)
}

// renderMarkdownSection renders a titled section with markdown body.
func (renderer DetailRenderer) renderMarkdownSection(title, body string) string {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(renderer.theme.NormalText)

	rendered := renderTerminalMarkdown(body, renderer.theme, renderer.width)
	if rendered == "" {
		return renderer.renderSection(title, body)
	}

	// Trim trailing newlines so section spacing is controlled by the caller.
	rendered = strings.TrimRight(rendered, "\n")

	return headerStyle.Render(title) + "\n" + rendered
}

// renderHistory renders the transition records in chronological
// order: timestamp, status edge, trigger, and metrics delta on one
// line, with the agent summary wrapped and indented below.
func (renderer DetailRenderer) renderHistory(history []job.TransitionRecord) string {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(renderer.theme.NormalText)
	timestampStyle := lipgloss.NewStyle().
		Foreground(renderer.theme.FaintText)
	arrowStyle := lipgloss.NewStyle().
		Foreground(renderer.theme.FaintText)
	triggerStyle := lipgloss.NewStyle().
		Foreground(renderer.theme.NormalText)
	deltaStyle := lipgloss.NewStyle().
		Foreground(renderer.theme.FaintText)
	summaryStyle := lipgloss.NewStyle().
		Foreground(renderer.theme.FaintText)

	var lines []string
	for index := range history {
		record := &history[index]

		fromStyle := lipgloss.NewStyle().Foreground(renderer.theme.StatusColor(record.From))
		toStyle := lipgloss.NewStyle().Foreground(renderer.theme.StatusColor(record.To))

		line := timestampStyle.Render(record.Timestamp.Format("2006-01-02 15:04")) + "  " +
			fromStyle.Render(string(record.From)) +
			arrowStyle.Render(" → ") +
			toStyle.Render(string(record.To)) + "  " +
			triggerStyle.Render(string(record.Trigger))

		if delta := formatMetricsDelta(record.MetricsDelta); delta != "" {
			line += "  " + deltaStyle.Render(delta)
		}
		lines = append(lines, line)

		if record.Summary != "" {
			wrapWidth := renderer.width - 2
			if wrapWidth < 10 {
				wrapWidth = 10
			}
			wrapped := ansi.Wrap(record.Summary, wrapWidth, " ,.;-+|")
			for _, summaryLine := range strings.Split(wrapped, "\n") {
				lines = append(lines, "  "+summaryStyle.Render(summaryLine))
			}
		}
	}

	header := fmt.Sprintf("History (%d)", len(history))
	return headerStyle.Render(header) + "\n" + strings.Join(lines, "\n")
}

// formatMetricsDelta renders a metrics delta as a compact increment
// string like "+$1.20 +3m41s +41a". Returns empty string for nil or
// zero deltas.
func formatMetricsDelta(delta *job.MetricsDelta) string {
	if delta == nil {
		return ""
	}
	var parts []string
	if delta.Cost > 0 {
		parts = append(parts, fmt.Sprintf("+$%.2f", delta.Cost))
	}
	if delta.ElapsedSeconds > 0 {
		parts = append(parts, "+"+formatElapsed(delta.ElapsedSeconds))
	}
	if delta.ActionCount > 0 {
		parts = append(parts, fmt.Sprintf("+%da", delta.ActionCount))
	}
	return strings.Join(parts, " ")
}

// formatElapsed renders a duration in seconds as a compact string
// ("42s", "3m41s", "1h12m0s").
func formatElapsed(seconds float64) string {
	duration := time.Duration(seconds * float64(time.Second))
	return duration.Round(time.Second).String()
}

// DetailPane wraps a bubbles viewport for scrollable detail content.
// The pane has a fixed header (metadata + title, [detailHeaderLines]
// tall) rendered above the viewport, and a scrollable body below.
type DetailPane struct {
	viewport viewport.Model
	theme    Theme
	width    int
	height   int

	// Retained for re-rendering on resize. Set by SetManifest and
	// cleared by Clear. When hasManifest is true, SetSize re-renders
	// the content at the new width so markdown word wrap adapts to
	// splitter changes.
	hasManifest bool
	manifest    *job.Manifest

	// Pre-rendered header string, set by SetManifest and rerender.
	header string
}

// NewDetailPane creates an empty detail pane.
func NewDetailPane(theme Theme) DetailPane {
	return DetailPane{
		theme: theme,
	}
}

// bodyHeight returns the number of lines available for the scrollable
// viewport body (total height minus the fixed header).
func (pane DetailPane) bodyHeight() int {
	result := pane.height - detailHeaderLines
	if result < 1 {
		result = 1
	}
	return result
}

// contentWidth returns the usable width for text content (total width
// minus the left padding column and right scrollbar column).
func (pane DetailPane) contentWidth() int {
	return pane.width - 2
}

// SetSize updates the detail pane dimensions. If the width changed and
// there is content displayed, the content is re-rendered at the new
// width so markdown wrapping stays correct.
func (pane *DetailPane) SetSize(width, height int) {
	previousWidth := pane.width
	pane.width = width
	pane.height = height
	pane.viewport.Width = pane.contentWidth()
	pane.viewport.Height = pane.bodyHeight()

	if pane.hasManifest && width != previousWidth {
		pane.rerender()
	}
}

// SetManifest updates the detail pane with rendered content for a job.
// When the displayed job changes the viewport scrolls to the top; a
// refresh of the same job (live update from the watcher) preserves the
// scroll position so metric ticks don't yank the reader around.
func (pane *DetailPane) SetManifest(manifest *job.Manifest) {
	sameJob := pane.hasManifest && pane.manifest.ID == manifest.ID

	pane.hasManifest = true
	pane.manifest = manifest
	pane.render()

	if sameJob {
		pane.clampScroll()
	} else {
		pane.viewport.GotoTop()
	}
}

// Clear removes the detail pane content.
func (pane *DetailPane) Clear() {
	pane.hasManifest = false
	pane.manifest = nil
	pane.header = ""
	pane.viewport.SetContent("")
}

// render regenerates the header and viewport content at the current
// width. Does not touch the scroll position.
func (pane *DetailPane) render() {
	contentWidth := pane.contentWidth()
	renderer := NewDetailRenderer(pane.theme, contentWidth)
	pane.header = renderer.RenderHeader(pane.manifest)
	body := renderer.RenderBody(pane.manifest)

	// Wrap body to contentWidth so no line exceeds the viewport
	// width. Section lines are already truncated by the renderer, but
	// markdown content could have long unbreakable runs.
	body = lipgloss.NewStyle().Width(contentWidth).Render(body)
	pane.viewport.SetContent(body)
}

// rerender regenerates the content at the current width, preserving
// the scroll position as closely as possible.
func (pane *DetailPane) rerender() {
	previousOffset := pane.viewport.YOffset
	pane.render()
	pane.viewport.SetYOffset(previousOffset)
	pane.clampScroll()
}

// clampScroll clamps the scroll offset to the current content height.
func (pane *DetailPane) clampScroll() {
	maxOffset := pane.viewport.TotalLineCount() - pane.viewport.Height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if pane.viewport.YOffset > maxOffset {
		pane.viewport.SetYOffset(maxOffset)
	}
}

// View renders the detail pane as a docked panel with a fixed header,
// scrollable body, left padding, and a right scrollbar.
func (pane DetailPane) View(focused bool) string {
	contentWidth := pane.contentWidth()

	if !pane.hasManifest {
		emptyStyle := lipgloss.NewStyle().
			Foreground(pane.theme.FaintText)

		contentStyle := lipgloss.NewStyle().
			PaddingLeft(1).
			Width(pane.width - 1).
			Height(pane.height)

		content := contentStyle.Render(
			lipgloss.Place(
				contentWidth, pane.height,
				lipgloss.Center, lipgloss.Center,
				emptyStyle.Render("Select a job to view details"),
			),
		)

		scrollbar := renderScrollbar(
			pane.theme, pane.height,
			0, pane.height, 0,
			focused,
		)
		return lipgloss.JoinHorizontal(lipgloss.Top, content, scrollbar)
	}

	// Build the content column as exactly pane.height lines.
	// Fixed header (detailHeaderLines) + scrollable body (remainder).
	paddingStyle := lipgloss.NewStyle().
		PaddingLeft(1).
		Width(pane.width - 1)

	headerView := paddingStyle.Height(detailHeaderLines).Render(pane.header)
	bodyView := paddingStyle.Height(pane.bodyHeight()).Render(pane.viewport.View())
	content := headerView + "\n" + bodyView

	// Scrollbar: blank column for the header rows, actual scrollbar
	// for the body rows. This way the scrollbar only covers the
	// region it actually scrolls.
	headerColumn := lipgloss.NewStyle().
		Width(1).
		Height(detailHeaderLines).
		Render("")
	bodyScrollbar := renderScrollbar(
		pane.theme, pane.bodyHeight(),
		pane.viewport.TotalLineCount(), pane.viewport.Height, pane.viewport.YOffset,
		focused,
	)
	scrollColumn := headerColumn + "\n" + bodyScrollbar

	return lipgloss.JoinHorizontal(lipgloss.Top, content, scrollColumn)
}

// LineUp scrolls the detail pane up by one line.
func (pane *DetailPane) LineUp() {
	pane.viewport.LineUp(1)
}

// LineDown scrolls the detail pane down by one line.
func (pane *DetailPane) LineDown() {
	pane.viewport.LineDown(1)
}

// ScrollUp scrolls the detail pane up by half a page.
func (pane *DetailPane) ScrollUp() {
	pane.viewport.HalfViewUp()
}

// ScrollDown scrolls the detail pane down by half a page.
func (pane *DetailPane) ScrollDown() {
	pane.viewport.HalfViewDown()
}

// GotoTop scrolls the detail pane to the top.
func (pane *DetailPane) GotoTop() {
	pane.viewport.GotoTop()
}

// GotoBottom scrolls the detail pane to the bottom.
func (pane *DetailPane) GotoBottom() {
	pane.viewport.GotoBottom()
}

// AtTop reports whether the viewport is scrolled to the top.
func (pane DetailPane) AtTop() bool {
	return pane.viewport.AtTop()
}

// AtBottom reports whether the viewport is scrolled to the bottom.
func (pane DetailPane) AtBottom() bool {
	return pane.viewport.AtBottom()
}

// ScrollPercent returns the scroll position as a fraction in [0, 1].
func (pane DetailPane) ScrollPercent() float64 {
	return pane.viewport.ScrollPercent()
}
