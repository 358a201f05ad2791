// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package jobstore

import (
	"errors"
	"fmt"
)

// ErrNotFound is wrapped by Load and Commit when no manifest exists
// for the requested job id. Test with errors.Is.
var ErrNotFound = errors.New("job manifest not found")

// ErrExists is wrapped by Create when a manifest already exists for
// the job id.
var ErrExists = errors.New("job manifest already exists")

// ConflictError reports an optimistic-concurrency failure: the
// persisted manifest's revision no longer matches the revision this
// in-memory copy was loaded at. Nothing was written; the caller must
// reload and retry.
type ConflictError struct {
	JobID string

	// LoadedRevision is the revision the in-memory manifest carries.
	LoadedRevision int64

	// PersistedRevision is the revision currently on disk.
	PersistedRevision int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("job %s: commit conflict: loaded at revision %d but revision %d is persisted; reload and retry",
		e.JobID, e.LoadedRevision, e.PersistedRevision)
}

// CorruptStateError reports a persisted manifest that cannot be parsed
// or fails schema validation. Operations on this job id halt until the
// file is manually repaired; the error is never silently absorbed and
// the manifest is never auto-repaired. Other jobs are unaffected.
type CorruptStateError struct {
	JobID string
	Path  string
	Err   error
}

func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("job %s: corrupt manifest at %s: %v", e.JobID, e.Path, e.Err)
}

func (e *CorruptStateError) Unwrap() error { return e.Err }
