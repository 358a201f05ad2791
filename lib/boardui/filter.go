// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import (
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/junegunn/fzf/src/util"

	"github.com/docket-works/docket/lib/schema/job"
)

// Scratch allocation sizes for the fzf matcher, shared across one
// ApplyFuzzy pass.
const (
	slabSize16 = 100 * 1024
	slabSize32 = 2048
)

// FilterModel implements fzf-style matching across job fields: ID,
// title, status, current phase, and workspace repo/branch. The filter
// composes with tabs: the tab chooses the base set, and the filter
// narrows it client-side without touching the source.
type FilterModel struct {
	// Input is the current filter query text.
	Input string

	// Active is true when the filter input has keyboard focus
	// (the user pressed / to start typing).
	Active bool
}

// FilterResult pairs a job with its match score. TitlePositions holds
// the rune indices in the title that matched, for highlight rendering;
// empty when the match came from a non-title field.
type FilterResult struct {
	Job            *job.Manifest
	Score          int
	TitlePositions []int
}

// matchFields returns the non-title fields a query is matched against.
func matchFields(manifest *job.Manifest) []string {
	fields := []string{manifest.ID, string(manifest.Status)}
	if manifest.Phase != nil {
		if current := manifest.Phase.Current(); current != "" {
			fields = append(fields, current)
		}
	}
	if manifest.Workspace != nil {
		if manifest.Workspace.Repo != "" {
			fields = append(fields, manifest.Workspace.Repo)
		}
		if manifest.Workspace.Branch != "" {
			fields = append(fields, manifest.Workspace.Branch)
		}
	}
	return fields
}

// MatchesJob returns true if the job matches the current filter text.
// An empty filter matches everything. Matching is case-insensitive
// substring against the title and each searchable field.
func (filter *FilterModel) MatchesJob(manifest *job.Manifest) bool {
	if filter.Input == "" {
		return true
	}

	query := strings.ToLower(filter.Input)
	if strings.Contains(strings.ToLower(manifest.Title), query) {
		return true
	}
	for _, field := range matchFields(manifest) {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// Apply filters jobs by substring match, preserving input order.
func (filter *FilterModel) Apply(jobs []*job.Manifest) []*job.Manifest {
	if filter.Input == "" {
		return jobs
	}

	var result []*job.Manifest
	for _, manifest := range jobs {
		if filter.MatchesJob(manifest) {
			result = append(result, manifest)
		}
	}
	return result
}

// ApplyFuzzy filters jobs by fuzzy match, best score first. Titles are
// matched fuzzily with match positions recorded for highlighting; jobs
// whose title does not match are still included when another field
// (ID, status, phase, workspace) matches. An empty filter returns all
// jobs in input order with zero scores.
func (filter *FilterModel) ApplyFuzzy(jobs []*job.Manifest) []FilterResult {
	if filter.Input == "" {
		results := make([]FilterResult, len(jobs))
		for index, manifest := range jobs {
			results[index] = FilterResult{Job: manifest}
		}
		return results
	}

	pattern := []rune(filter.Input)
	slab := util.MakeSlab(slabSize16, slabSize32)

	var results []FilterResult
	for _, manifest := range jobs {
		title := fuzzyMatch(manifest.Title, pattern, slab)
		if title.Score > 0 {
			results = append(results, FilterResult{
				Job:            manifest,
				Score:          title.Score,
				TitlePositions: title.Positions,
			})
			continue
		}

		best := 0
		for _, field := range matchFields(manifest) {
			if match := fuzzyMatch(field, pattern, slab); match.Score > best {
				best = match.Score
			}
		}
		if best > 0 {
			results = append(results, FilterResult{Job: manifest, Score: best})
		}
	}

	slices.SortStableFunc(results, func(a, b FilterResult) int {
		return b.Score - a.Score
	})
	return results
}

// HandleRune processes a character typed while the filter is active.
// Returns true if the input changed.
func (filter *FilterModel) HandleRune(character rune) bool {
	filter.Input += string(character)
	return true
}

// HandleBackspace removes the last character from the filter input.
// Returns true if the input changed.
func (filter *FilterModel) HandleBackspace() bool {
	if len(filter.Input) == 0 {
		return false
	}
	runes := []rune(filter.Input)
	filter.Input = string(runes[:len(runes)-1])
	return true
}

// Clear resets the filter input and deactivates it.
func (filter *FilterModel) Clear() {
	filter.Input = ""
	filter.Active = false
}

// View renders the filter bar. When active, shows the input with a
// cursor. When inactive with text, shows the filter text. When
// inactive with no text, returns empty string (hidden).
func (filter *FilterModel) View(theme Theme, width int) string {
	if !filter.Active && filter.Input == "" {
		return ""
	}

	style := lipgloss.NewStyle().
		Foreground(theme.NormalText).
		Width(width)

	if filter.Active {
		cursor := lipgloss.NewStyle().
			Foreground(theme.HeaderForeground).
			Bold(true).
			Render("▎")
		return style.Render(" / " + filter.Input + cursor)
	}

	// Inactive but has text: show the filter as a subtle indicator.
	dimStyle := lipgloss.NewStyle().
		Foreground(theme.FaintText).
		Width(width)
	return dimStyle.Render(" filter: " + filter.Input)
}
