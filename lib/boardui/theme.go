// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/docket-works/docket/lib/schema/job"
)

// Theme defines the color palette and visual properties for the board.
// All colors use lipgloss ANSI 256-color codes for broad terminal
// compatibility.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Selected row.
	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// Job status colors, one per lifecycle state.
	StatusDraft                lipgloss.Color
	StatusPending              lipgloss.Color
	StatusSuspended            lipgloss.Color
	StatusRunning              lipgloss.Color
	StatusReviewing            lipgloss.Color
	StatusApprovalRequired     lipgloss.Color
	StatusInterventionRequired lipgloss.Color
	StatusSuccess              lipgloss.Color
	StatusCanceled             lipgloss.Color

	// UI chrome.
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	// FocusAccent colors the scrollbar thumb and divider of the
	// focused pane.
	FocusAccent lipgloss.Color

	// Animation accents: background tint for recently-changed rows.
	// HotAccentPut is used for created/updated jobs; HotAccentRemove
	// for jobs that left the state directory.
	HotAccentPut    lipgloss.Color
	HotAccentRemove lipgloss.Color

	// Background tint for characters matched by the fuzzy filter.
	FilterHighlightBackground lipgloss.Color

	// Cost warning colors for the per-row cost badge, keyed off how
	// close the job is to its cost ceiling.
	CostWarn lipgloss.Color
	CostHot  lipgloss.Color
}

// StatusColor returns the color for a job status. Unknown values
// return FaintText.
func (theme Theme) StatusColor(status job.Status) lipgloss.Color {
	switch status {
	case job.StatusDraft:
		return theme.StatusDraft
	case job.StatusPending:
		return theme.StatusPending
	case job.StatusSuspended:
		return theme.StatusSuspended
	case job.StatusRunning:
		return theme.StatusRunning
	case job.StatusReviewing:
		return theme.StatusReviewing
	case job.StatusApprovalRequired:
		return theme.StatusApprovalRequired
	case job.StatusInterventionRequired:
		return theme.StatusInterventionRequired
	case job.StatusSuccess:
		return theme.StatusSuccess
	case job.StatusCanceled:
		return theme.StatusCanceled
	default:
		return theme.FaintText
	}
}

// DefaultTheme is the built-in dark-terminal color scheme. Designed for
// 256-color terminals with a dark background (the common case for
// development environments and tmux sessions).
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	StatusDraft:                lipgloss.Color("245"), // gray
	StatusPending:              lipgloss.Color("75"),  // blue
	StatusSuspended:            lipgloss.Color("103"), // muted violet
	StatusRunning:              lipgloss.Color("220"), // yellow/amber
	StatusReviewing:            lipgloss.Color("141"), // light purple
	StatusApprovalRequired:     lipgloss.Color("114"), // green
	StatusInterventionRequired: lipgloss.Color("196"), // red
	StatusSuccess:              lipgloss.Color("84"),  // bright green
	StatusCanceled:             lipgloss.Color("240"), // dim gray

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),

	FocusAccent: lipgloss.Color("220"), // amber, matches StatusRunning

	HotAccentPut:    lipgloss.Color("58"), // dark amber background tint
	HotAccentRemove: lipgloss.Color("52"), // dark red background tint

	FilterHighlightBackground: lipgloss.Color("58"), // dark amber (matches HotAccentPut)

	CostWarn: lipgloss.Color("208"), // orange
	CostHot:  lipgloss.Color("196"), // red
}
