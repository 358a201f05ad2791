// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

// Package taskdef provides parsing and validation for docket task
// definitions. A task definition is the authoring format for a job:
// a JSONC file (JSON extended with comments and trailing commas)
// carrying the title, task description, optional phase list, metric
// ceilings, and workspace references.
//
// The typical flow:
//
//  1. ReadFile or Parse: JSONC bytes → Definition
//  2. Validate: structural checks (required title, phase names, ...)
//  3. Manifest: build the draft job manifest the store persists
package taskdef

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/docket-works/docket/lib/schema/job"
)

// Definition is an authored task file. Field semantics match the job
// manifest fields they populate; see lib/schema/job.
type Definition struct {
	// Title is the short summary of the work. Required.
	Title string `json:"title"`

	// Description is the full task text handed to the agent,
	// markdown supported. Optional at creation; required before the
	// job can be activated.
	Description string `json:"description,omitempty"`

	// Phases optionally names ordered logical sub-steps. The job
	// starts at the first phase.
	Phases []string `json:"phases,omitempty"`

	// Thresholds are optional metric ceilings. Zero values mean
	// unlimited.
	Thresholds *job.Thresholds `json:"thresholds,omitempty"`

	// Workspace carries repository/branch/directory references for
	// the agent's working area.
	Workspace *job.Workspace `json:"workspace,omitempty"`
}

// Parse strips JSONC comments and trailing commas from data, then
// unmarshals the result into a Definition.
func Parse(data []byte) (*Definition, error) {
	stripped := jsonc.ToJSON(data)

	var definition Definition
	if err := json.Unmarshal(stripped, &definition); err != nil {
		return nil, fmt.Errorf("parsing task definition: %w", err)
	}

	return &definition, nil
}

// ReadFile reads a JSONC task file from disk and parses it into a
// Definition. Returns a descriptive error if the file cannot be read
// or the JSON is malformed.
func ReadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	definition, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return definition, nil
}

// NameFromPath extracts a task name from a file path by stripping the
// directory prefix and the file extension. For example,
// "tasks/fix-flaky-watcher.jsonc" returns "fix-flaky-watcher".
func NameFromPath(path string) string {
	base := filepath.Base(path)
	extension := filepath.Ext(base)
	return strings.TrimSuffix(base, extension)
}
