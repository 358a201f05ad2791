// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package history

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/docket-works/docket/lib/schema/job"
)

// streamFileSuffix is the filename suffix of audit streams. Archived
// streams carry a codec extension after it.
const streamFileSuffix = ".jsonl"

// Dir locates the per-job audit streams under one directory:
//
//	<root>/<job-id>.jsonl              live stream
//	<root>/<job-id>.jsonl.zst          archived stream (codec varies)
//	<root>/<job-id>.jsonl.archive      archive sidecar (digest, codec)
type Dir struct {
	root string
}

// OpenDir creates the stream directory if needed and returns a Dir.
func OpenDir(root string) (*Dir, error) {
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("creating history directory %s: %w", root, err)
	}
	return &Dir{root: root}, nil
}

// StreamPath returns the live (uncompressed) stream path for a job.
func (d *Dir) StreamPath(jobID string) string {
	return filepath.Join(d.root, jobID+streamFileSuffix)
}

// infoPath returns the archive sidecar path for a job.
func (d *Dir) infoPath(jobID string) string {
	return d.StreamPath(jobID) + ".archive"
}

// Log opens the append-side of a job's stream. The job id is
// validated so a bad id cannot create stray files.
func (d *Dir) Log(jobID string) (*Log, error) {
	if err := job.ValidateID(jobID); err != nil {
		return nil, err
	}
	if archived, err := d.Archived(jobID); err != nil {
		return nil, err
	} else if archived {
		return nil, fmt.Errorf("job %s: audit stream is archived and sealed", jobID)
	}
	return OpenLog(d.StreamPath(jobID))
}
