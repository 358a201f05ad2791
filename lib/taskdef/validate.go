// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package taskdef

import (
	"fmt"
	"strings"
)

// Validate checks a Definition for structural issues. Returns a list
// of human-readable issue descriptions. An empty list means the
// definition is valid.
//
// Structural checks include:
//   - Title is required and must not be whitespace
//   - Phase names must be non-empty and unique
//   - Thresholds (when present) must be non-negative
//   - Workspace (when present) must reference something
func Validate(definition *Definition) []string {
	var issues []string

	if strings.TrimSpace(definition.Title) == "" {
		issues = append(issues, "title is required")
	}

	phaseNames := make(map[string]int, len(definition.Phases))
	for index, name := range definition.Phases {
		if strings.TrimSpace(name) == "" {
			issues = append(issues, fmt.Sprintf("phases[%d]: name must not be empty", index))
			continue
		}
		if firstIndex, exists := phaseNames[name]; exists {
			issues = append(issues, fmt.Sprintf(
				"phases[%d] %q: duplicate phase name (first used at phases[%d])",
				index, name, firstIndex,
			))
		} else {
			phaseNames[name] = index
		}
	}

	if definition.Thresholds != nil {
		if err := definition.Thresholds.Validate(); err != nil {
			issues = append(issues, err.Error())
		}
	}

	if workspace := definition.Workspace; workspace != nil {
		if workspace.Repo == "" && workspace.Branch == "" && workspace.Dir == "" {
			issues = append(issues, "workspace is configured but references nothing")
		}
	}

	return issues
}
