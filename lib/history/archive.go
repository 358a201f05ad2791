// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/docket-works/docket/lib/archive"
	"github.com/docket-works/docket/lib/fsatomic"
	"github.com/docket-works/docket/lib/schema/job"
)

// ArchiveInfo is the sidecar written when a stream is archived. The
// digest covers the uncompressed stream bytes, so it stays valid if
// the archive is ever recompressed with a different codec.
type ArchiveInfo struct {
	JobID       string    `json:"job_id"`
	Codec       string    `json:"codec"`
	Digest      string    `json:"digest"`
	RecordCount int64     `json:"record_count"`
	ArchivedAt  time.Time `json:"archived_at"`
}

// Archived reports whether a job's stream has been archived.
func (d *Dir) Archived(jobID string) (bool, error) {
	_, err := os.Stat(d.infoPath(jobID))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("checking archive sidecar for %s: %w", jobID, err)
}

// Archive seals a settled job's stream: the content is verified,
// compressed with the probed best codec, and a digest sidecar is
// written beside it. The live file is removed once the archive is
// durable. Idempotent; re-archiving returns the existing sidecar.
//
// The caller supplies the timestamp so archival follows the same
// clock as the transitions it seals.
func (d *Dir) Archive(jobID string, at time.Time) (ArchiveInfo, error) {
	if err := job.ValidateID(jobID); err != nil {
		return ArchiveInfo{}, err
	}

	if archived, err := d.Archived(jobID); err != nil {
		return ArchiveInfo{}, err
	} else if archived {
		return d.ReadInfo(jobID)
	}

	plainPath := d.StreamPath(jobID)
	data, err := os.ReadFile(plainPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ArchiveInfo{}, fmt.Errorf("job %s: %w", jobID, ErrNoStream)
		}
		return ArchiveInfo{}, fmt.Errorf("reading audit stream %s: %w", plainPath, err)
	}

	// A stream that does not parse must not be sealed; archiving
	// would freeze the corruption behind a valid-looking digest.
	records, err := decodeRecords(data)
	if err != nil {
		return ArchiveInfo{}, fmt.Errorf("audit stream for %s: %w", jobID, err)
	}

	finalPath, codec, err := archive.WriteFile(plainPath, data)
	if err != nil {
		return ArchiveInfo{}, fmt.Errorf("archiving audit stream for %s: %w", jobID, err)
	}

	info := ArchiveInfo{
		JobID:       jobID,
		Codec:       codec.String(),
		Digest:      archive.DigestOf(data).String(),
		RecordCount: int64(len(records)),
		ArchivedAt:  at.UTC(),
	}
	if err := fsatomic.WriteJSON(d.infoPath(jobID), info); err != nil {
		return ArchiveInfo{}, fmt.Errorf("writing archive sidecar for %s: %w", jobID, err)
	}

	if finalPath != plainPath {
		if err := os.Remove(plainPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return ArchiveInfo{}, fmt.Errorf("removing live stream for %s: %w", jobID, err)
		}
	}
	return info, nil
}

// ReadInfo loads the archive sidecar for a job.
func (d *Dir) ReadInfo(jobID string) (ArchiveInfo, error) {
	data, err := os.ReadFile(d.infoPath(jobID))
	if err != nil {
		return ArchiveInfo{}, fmt.Errorf("reading archive sidecar for %s: %w", jobID, err)
	}
	var info ArchiveInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return ArchiveInfo{}, fmt.Errorf("parsing archive sidecar for %s: %w", jobID, err)
	}
	return info, nil
}

// Verify recomputes the digest of an archived stream and compares it
// against the sidecar. Returns nil when they match.
func (d *Dir) Verify(jobID string) error {
	info, err := d.ReadInfo(jobID)
	if err != nil {
		return err
	}

	data, err := d.readStreamBytes(jobID)
	if err != nil {
		return err
	}

	want, err := archive.ParseDigest(info.Digest)
	if err != nil {
		return fmt.Errorf("archive sidecar for %s: %w", jobID, err)
	}
	got := archive.DigestOf(data)
	if !bytes.Equal(got[:], want[:]) {
		return fmt.Errorf("job %s: archived stream digest %s does not match recorded %s",
			jobID, got, want)
	}
	return nil
}
