// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/docket-works/docket/lib/schema/job"
)

// Column widths for the list table. The title column fills remaining
// space; all others are fixed.
const (
	// columnWidthID holds a job ID plus trailing gap
	// (e.g. "job-a3f9c02e81d4  ").
	columnWidthID = 18

	// leftWidth is the width of the portion before the ID column:
	// 1 (indent) + 1 (status icon) + 1 (gap).
	leftWidth = 3
)

// statusIcon returns the single-character indicator for a job status.
func statusIcon(status job.Status) string {
	switch status {
	case job.StatusDraft:
		return "◌"
	case job.StatusPending:
		return "○"
	case job.StatusSuspended:
		return "¦"
	case job.StatusRunning:
		return "●"
	case job.StatusReviewing:
		return "◉"
	case job.StatusApprovalRequired:
		return "◆"
	case job.StatusInterventionRequired:
		return "▲"
	case job.StatusSuccess:
		return "✓"
	case job.StatusCanceled:
		return "✗"
	default:
		return "·"
	}
}

// phaseSuffix returns the bracketed phase annotation appended to a
// row's title, or empty when the job has no phase sequence.
func phaseSuffix(manifest *job.Manifest) string {
	phase := manifest.Phase
	if phase == nil || len(phase.Names) == 0 {
		return ""
	}
	total := len(phase.Names)
	current := phase.Current()
	if current == "" {
		return fmt.Sprintf(" [done %d/%d]", total, total)
	}
	return fmt.Sprintf(" [%s %d/%d]", current, phase.Index+1, total)
}

// ListRenderer handles the table-style rendering of job entries within
// a given width. Includes both flat job rows and the status group
// headers used on the Active tab.
type ListRenderer struct {
	theme Theme
	width int
}

// NewListRenderer creates a ListRenderer for the given width.
func NewListRenderer(theme Theme, width int) ListRenderer {
	return ListRenderer{theme: theme, width: width}
}

// costBadge returns the styled cost suffix for a row and its visible
// width, or empty strings when the job has not accrued cost. The color
// escalates as spend approaches the job's cost ceiling.
func (renderer ListRenderer) costBadge(manifest *job.Manifest, selected bool) (styled string, plain string) {
	cost := manifest.Metrics.Cost
	if cost <= 0 {
		return "", ""
	}
	plain = fmt.Sprintf(" $%.2f", cost)
	if selected {
		// Selected rows use the uniform selection foreground.
		return plain, plain
	}

	color := renderer.theme.FaintText
	if ceiling := manifest.Thresholds.CostMax; ceiling > 0 {
		switch {
		case cost >= 0.8*ceiling:
			color = renderer.theme.CostHot
		case cost >= 0.5*ceiling:
			color = renderer.theme.CostWarn
		}
	}
	return " " + lipgloss.NewStyle().Foreground(color).Render(plain[1:]), plain
}

// RenderRow renders a single job as a formatted table row. The
// selected flag controls highlight styling. The matchPositions
// parameter contains rune indices in the title that matched the
// current fuzzy filter query; when non-nil, those characters are
// highlighted.
//
// Row layout: indent + status icon + gap + ID + title [+ " [phase]"] [+ " $cost"]
//
//	● job-a3f9c02e81d4  Fix flaky watcher tests [implement 2/3] $1.42
//	○ job-02e81d4a3f9c  Migrate config loader to YAML
func (renderer ListRenderer) RenderRow(manifest *job.Manifest, selected bool, matchPositions []int) string {
	titleWidth := renderer.width - leftWidth - columnWidthID
	if titleWidth < 10 {
		titleWidth = 10
	}

	costStyled, costPlain := renderer.costBadge(manifest, selected)
	if costPlain != "" {
		titleWidth -= lipgloss.Width(costPlain)
	}

	titleText := manifest.Title
	suffix := phaseSuffix(manifest)

	// Truncate title+phase to fit, preferring the title over the
	// phase annotation.
	combined := titleText + suffix
	if lipgloss.Width(combined) > titleWidth {
		if lipgloss.Width(titleText) >= titleWidth-1 {
			combined = truncateString(titleText, titleWidth-1) + "…"
		} else {
			combined = titleText + truncateString(suffix, titleWidth-lipgloss.Width(titleText)-1) + "…"
		}
	}

	if selected {
		return renderer.renderSelectedRow(manifest, combined, costStyled, matchPositions)
	}
	return renderer.renderNormalRow(manifest, combined, costStyled, matchPositions)
}

// renderNormalRow renders a row with per-component foreground colors.
// No background color (default terminal background).
func (renderer ListRenderer) renderNormalRow(manifest *job.Manifest, titlePhase, costBadge string, matchPositions []int) string {
	statusColor := renderer.theme.StatusColor(manifest.Status)

	iconStyle := lipgloss.NewStyle().
		Foreground(statusColor)

	idStyle := lipgloss.NewStyle().
		Width(columnWidthID).
		Foreground(statusColor)

	titleStyle := lipgloss.NewStyle().
		Foreground(renderer.theme.NormalText)

	var titleRendered string
	if len(matchPositions) > 0 {
		highlightStyle := lipgloss.NewStyle().
			Foreground(renderer.theme.NormalText).
			Background(renderer.theme.FilterHighlightBackground)
		titleRendered = highlightTitle(titlePhase, manifest.Title, matchPositions, titleStyle, highlightStyle)
	} else {
		titleRendered = titleStyle.Render(titlePhase)
	}

	row := " " +
		iconStyle.Render(statusIcon(manifest.Status)) +
		" " +
		idStyle.Render(manifest.ID) +
		titleRendered +
		costBadge

	return lipgloss.NewStyle().Width(renderer.width).MaxWidth(renderer.width).Render(row)
}

// renderSelectedRow renders the selected row with a highlight
// background. All text uses the selected foreground color.
func (renderer ListRenderer) renderSelectedRow(manifest *job.Manifest, titlePhase, costBadge string, matchPositions []int) string {
	baseStyle := lipgloss.NewStyle().
		Background(renderer.theme.SelectedBackground).
		Foreground(renderer.theme.SelectedForeground)

	var titleRendered string
	if len(matchPositions) > 0 {
		// On a selected row the background is already the selection
		// color, so a different background tint would be subtle. Use
		// bold+underline to make matches pop.
		highlightStyle := baseStyle.Bold(true).Underline(true)
		titleRendered = highlightTitle(titlePhase, manifest.Title, matchPositions, baseStyle, highlightStyle)
	} else {
		titleRendered = baseStyle.Render(titlePhase)
	}

	row := " " +
		baseStyle.Render(statusIcon(manifest.Status)) +
		" " +
		baseStyle.Width(columnWidthID).Render(manifest.ID) +
		titleRendered +
		baseStyle.Render(costBadge)

	return baseStyle.Width(renderer.width).MaxWidth(renderer.width).Render(row)
}

// RenderGroupHeader renders a status group header row for the Active
// tab. The header shows a collapse/expand indicator (▼/▶), the status
// name in its color, and the member count.
func (renderer ListRenderer) RenderGroupHeader(item ListItem, width int, selected bool) string {
	color := renderer.theme.StatusColor(item.GroupStatus)
	indicator := "▼"
	if item.Collapsed {
		color = renderer.theme.FaintText
		indicator = "▶"
	}

	headerStyle := lipgloss.NewStyle().
		Foreground(color).
		Bold(true).
		Width(width).
		MaxWidth(width)

	if selected {
		headerStyle = headerStyle.
			Background(renderer.theme.SelectedBackground).
			Foreground(renderer.theme.SelectedForeground)
	}

	label := fmt.Sprintf(" %s %s (%d)", indicator, item.GroupStatus, item.GroupCount)
	return headerStyle.Render(label)
}

// highlightTitle renders a title+suffix string with character-level
// highlighting at the given rune positions. Positions index into the
// original title text (before the phase suffix was appended).
// Characters at matched positions use highlightStyle; all others use
// baseStyle. Consecutive runs of same-style characters are batched
// into a single Render call to keep ANSI output compact.
func highlightTitle(titlePhase string, originalTitle string, positions []int, baseStyle, highlightStyle lipgloss.Style) string {
	if len(positions) == 0 {
		return baseStyle.Render(titlePhase)
	}

	// Build a set of matched rune indices for O(1) lookup.
	positionSet := make(map[int]bool, len(positions))
	for _, position := range positions {
		positionSet[position] = true
	}

	titleRunes := []rune(originalTitle)
	combinedRunes := []rune(titlePhase)
	titleLength := len(titleRunes)

	var result strings.Builder
	runStart := 0
	isHighlighted := runStart < titleLength && positionSet[0]

	for index := 1; index <= len(combinedRunes); index++ {
		// Characters past the title length (the phase suffix) are
		// never highlighted.
		currentHighlighted := index < titleLength && positionSet[index]
		if currentHighlighted != isHighlighted || index == len(combinedRunes) {
			chunk := string(combinedRunes[runStart:index])
			if isHighlighted {
				result.WriteString(highlightStyle.Render(chunk))
			} else {
				result.WriteString(baseStyle.Render(chunk))
			}
			runStart = index
			isHighlighted = currentHighlighted
		}
	}

	return result.String()
}

// truncateString truncates a string to maxWidth visual characters.
// Handles multi-byte characters correctly via lipgloss width
// measurement.
func truncateString(text string, maxWidth int) string {
	if lipgloss.Width(text) <= maxWidth {
		return text
	}
	runes := []rune(text)
	for length := len(runes) - 1; length >= 0; length-- {
		candidate := string(runes[:length])
		if lipgloss.Width(candidate) <= maxWidth {
			return candidate
		}
	}
	return ""
}
