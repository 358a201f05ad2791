// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import (
	"testing"

	"github.com/docket-works/docket/lib/schema/job"
)

func TestFilterMatchesTitle(t *testing.T) {
	filter := FilterModel{Input: "pooling"}

	manifest := &job.Manifest{
		ID:     "job-001",
		Title:  "Fix connection pooling leak",
		Status: job.StatusRunning,
	}

	if !filter.MatchesJob(manifest) {
		t.Error("filter 'pooling' should match title 'Fix connection pooling leak'")
	}
}

func TestFilterMatchesID(t *testing.T) {
	filter := FilterModel{Input: "job-003"}

	manifest := &job.Manifest{
		ID:     "job-003",
		Title:  "Update CI pipeline config",
		Status: job.StatusSuccess,
	}

	if !filter.MatchesJob(manifest) {
		t.Error("filter 'job-003' should match the job ID")
	}
}

func TestFilterMatchesStatus(t *testing.T) {
	filter := FilterModel{Input: "reviewing"}

	manifest := &job.Manifest{
		ID:     "job-201",
		Title:  "Migrate config loader",
		Status: job.StatusReviewing,
	}

	if !filter.MatchesJob(manifest) {
		t.Error("filter 'reviewing' should match the status")
	}
}

func TestFilterMatchesPhase(t *testing.T) {
	filter := FilterModel{Input: "implement"}

	manifest := &job.Manifest{
		ID:     "job-001",
		Title:  "Fix connection pooling leak",
		Status: job.StatusRunning,
		Phase:  &job.Phase{Index: 1, Names: []string{"plan", "implement", "verify"}},
	}

	if !filter.MatchesJob(manifest) {
		t.Error("filter 'implement' should match the current phase name")
	}
}

func TestFilterMatchesWorkspace(t *testing.T) {
	filter := FilterModel{Input: "acme"}

	manifest := &job.Manifest{
		ID:     "job-001",
		Title:  "Fix connection pooling leak",
		Status: job.StatusRunning,
		Workspace: &job.Workspace{
			Repo:   "github.com/acme/infra",
			Branch: "docket/job-001",
		},
	}

	if !filter.MatchesJob(manifest) {
		t.Error("filter 'acme' should match the workspace repo")
	}
}

func TestFilterCaseInsensitive(t *testing.T) {
	filter := FilterModel{Input: "POOLING"}

	manifest := &job.Manifest{
		ID:     "job-001",
		Title:  "Fix connection pooling leak",
		Status: job.StatusRunning,
	}

	if !filter.MatchesJob(manifest) {
		t.Error("filter should be case-insensitive")
	}
}

func TestFilterNoMatch(t *testing.T) {
	filter := FilterModel{Input: "xyz-nonexistent"}

	manifest := &job.Manifest{
		ID:     "job-001",
		Title:  "Fix connection pooling leak",
		Status: job.StatusRunning,
	}

	if filter.MatchesJob(manifest) {
		t.Error("filter 'xyz-nonexistent' should not match anything")
	}
}

func TestFilterEmptyMatchesAll(t *testing.T) {
	filter := FilterModel{Input: ""}

	manifest := &job.Manifest{
		ID:     "job-001",
		Title:  "Anything",
		Status: job.StatusDraft,
	}

	if !filter.MatchesJob(manifest) {
		t.Error("empty filter should match everything")
	}
}

func TestFilterApply(t *testing.T) {
	source := testSource()
	jobs := source.All().Jobs

	filter := FilterModel{Input: "pending"}
	result := filter.Apply(jobs)

	// testSource has one pending job: job-002.
	if len(result) != 1 {
		t.Fatalf("filter 'pending' should match 1 job, got %d", len(result))
	}
	if result[0].ID != "job-002" {
		t.Errorf("filtered job should be job-002, got %s", result[0].ID)
	}
}

func TestFilterHandleRune(t *testing.T) {
	filter := FilterModel{}
	filter.HandleRune('a')
	filter.HandleRune('b')
	if filter.Input != "ab" {
		t.Errorf("expected 'ab', got %q", filter.Input)
	}
}

func TestFilterHandleBackspace(t *testing.T) {
	filter := FilterModel{Input: "abc"}
	changed := filter.HandleBackspace()
	if !changed {
		t.Error("backspace should return true when there's text")
	}
	if filter.Input != "ab" {
		t.Errorf("expected 'ab' after backspace, got %q", filter.Input)
	}

	// Backspace on empty.
	filter.Input = ""
	changed = filter.HandleBackspace()
	if changed {
		t.Error("backspace on empty should return false")
	}
}

func TestFilterClear(t *testing.T) {
	filter := FilterModel{Input: "test", Active: true}
	filter.Clear()
	if filter.Input != "" {
		t.Errorf("expected empty input after clear, got %q", filter.Input)
	}
	if filter.Active {
		t.Error("filter should be inactive after clear")
	}
}
