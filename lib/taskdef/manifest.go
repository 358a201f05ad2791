// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package taskdef

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/docket-works/docket/lib/schema/job"
)

// Manifest builds the draft job manifest for the definition, stamped
// with the given creation time. The definition is validated first;
// the returned manifest is ready for the job store's Create.
func (d *Definition) Manifest(at time.Time) (*job.Manifest, error) {
	if issues := Validate(d); len(issues) > 0 {
		return nil, fmt.Errorf("invalid task definition: %s", strings.Join(issues, "; "))
	}

	manifest := &job.Manifest{
		Version:          job.ManifestVersion,
		ID:               job.NewID(d.Title, at),
		Title:            d.Title,
		Description:      d.Description,
		Status:           job.StatusDraft,
		CreatedAt:        at.UTC(),
		LastTransitionAt: at.UTC(),
	}
	if len(d.Phases) > 0 {
		manifest.Phase = &job.Phase{Names: slices.Clone(d.Phases)}
	}
	if d.Thresholds != nil {
		manifest.Thresholds = *d.Thresholds
	}
	if d.Workspace != nil {
		workspace := *d.Workspace
		manifest.Workspace = &workspace
	}
	return manifest, nil
}
