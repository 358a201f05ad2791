// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package jobstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/docket-works/docket/lib/archive"
	"github.com/docket-works/docket/lib/schema/job"
)

// backupStampFormat is the timestamp layout in backup filenames.
// Fixed-width and UTC, so lexicographic order is chronological.
const backupStampFormat = "20060102T150405"

// backupDir returns the per-job backup directory.
func (s *Store) backupDir(jobID string) string {
	return filepath.Join(s.backupsDir, jobID)
}

// writeBackup snapshots the persisted manifest bytes before a commit
// replaces them. The filename carries the wall-clock stamp and the
// revision being superseded; the revision keeps names unique when
// commits land within the same second. Compressed when worthwhile.
func (s *Store) writeBackup(jobID string, revision int64, persistedData []byte) error {
	dir := s.backupDir(jobID)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating backup directory %s: %w", dir, err)
	}

	stamp := s.clock.Now().UTC().Format(backupStampFormat)
	base := filepath.Join(dir, fmt.Sprintf("%s-r%06d.json", stamp, revision))
	if _, _, err := archive.WriteFile(base, persistedData); err != nil {
		return fmt.Errorf("writing backup for %s: %w", jobID, err)
	}
	return nil
}

// pruneBackups deletes the oldest backups beyond the retention count.
func (s *Store) pruneBackups(jobID string) error {
	names, err := s.Backups(jobID)
	if err != nil {
		return err
	}
	if len(names) <= s.retention {
		return nil
	}

	for _, name := range names[:len(names)-s.retention] {
		if err := os.Remove(filepath.Join(s.backupDir(jobID), name)); err != nil {
			return fmt.Errorf("removing old backup %s: %w", name, err)
		}
	}
	return nil
}

// Backups returns the backup filenames for a job, oldest first. A job
// with no backup directory has no backups.
func (s *Store) Backups(jobID string) ([]string, error) {
	if err := job.ValidateID(jobID); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.backupDir(jobID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading backup directory for %s: %w", jobID, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), ".tmp") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// ReadBackup loads one backup snapshot by filename, as returned by
// Backups. The snapshot is validated the same way a primary manifest
// is.
func (s *Store) ReadBackup(jobID, name string) (*job.Manifest, error) {
	if err := job.ValidateID(jobID); err != nil {
		return nil, err
	}
	if name != filepath.Base(name) {
		return nil, fmt.Errorf("invalid backup name %q", name)
	}

	path := filepath.Join(s.backupDir(jobID), name)
	data, err := archive.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("backup %s for job %s: %w", name, jobID, ErrNotFound)
		}
		return nil, err
	}
	return parseManifest(jobID, path, data)
}
