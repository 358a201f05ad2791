// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

// Package jobstore persists job manifests as one JSON file per job
// with atomic replacement, backup-before-mutate, and an optimistic
// revision guard.
//
// Layout under the store root:
//
//	jobs/<job-id>.json              the primary manifest
//	backups/<job-id>/<stamp>.json[.zst|.lz4]
//	                                pre-commit snapshots, newest last
//
// Every commit snapshots the currently persisted manifest to a
// timestamped backup (compressed when worthwhile), atomically replaces
// the primary (write to temp, fsync, rename, fsync parent), then
// prunes backups beyond the retention count. A commit whose in-memory
// revision does not match the persisted revision fails with
// ConflictError before anything is written.
//
// The store never caches: every Load parses the file fresh and returns
// an isolated manifest. Distinct jobs are fully independent; for a
// single job the revision guard is the safety net behind the caller's
// single-writer contract.
package jobstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/docket-works/docket/lib/clock"
	"github.com/docket-works/docket/lib/fsatomic"
	"github.com/docket-works/docket/lib/schema/job"
)

// DefaultBackupRetention is the number of per-job backup snapshots
// kept when Options.BackupRetention is zero.
const DefaultBackupRetention = 10

// manifestFileSuffix is the filename suffix of primary manifests.
const manifestFileSuffix = ".json"

// Store is a manifest store rooted at a state directory. Safe for
// concurrent use across distinct job ids.
type Store struct {
	jobsDir    string
	backupsDir string
	retention  int
	clock      clock.Clock
}

// Options configures a Store.
type Options struct {
	// BackupRetention is the number of backup snapshots kept per
	// job. 0 means DefaultBackupRetention.
	BackupRetention int

	// Clock stamps backup filenames. Nil means the real clock.
	Clock clock.Clock
}

// Open creates the store's directories under root if needed and
// returns a Store.
func Open(root string, options Options) (*Store, error) {
	store := &Store{
		jobsDir:    filepath.Join(root, "jobs"),
		backupsDir: filepath.Join(root, "backups"),
		retention:  options.BackupRetention,
		clock:      options.Clock,
	}
	if store.retention <= 0 {
		store.retention = DefaultBackupRetention
	}
	if store.clock == nil {
		store.clock = clock.Real()
	}

	for _, dir := range []string{store.jobsDir, store.backupsDir} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("creating store directory %s: %w", dir, err)
		}
	}
	return store, nil
}

// Path returns the primary manifest path for a job id.
func (s *Store) Path(jobID string) string {
	return filepath.Join(s.jobsDir, jobID+manifestFileSuffix)
}

// Create persists a brand-new manifest. Fails with ErrExists (wrapped)
// if a manifest for the id is already present. The manifest must
// validate; its revision is forced to 1.
func (s *Store) Create(manifest *job.Manifest) error {
	if err := job.ValidateID(manifest.ID); err != nil {
		return err
	}
	manifest.Revision = 1
	if err := manifest.Validate(); err != nil {
		return err
	}

	path := s.Path(manifest.ID)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("job %s: %w", manifest.ID, ErrExists)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking for existing manifest: %w", err)
	}

	return writeManifestAtomic(path, manifest)
}

// Load reads and validates the manifest for a job id. Returns a
// wrapped ErrNotFound when absent and a *CorruptStateError when the
// persisted form cannot be parsed or fails schema validation.
func (s *Store) Load(jobID string) (*job.Manifest, error) {
	if err := job.ValidateID(jobID); err != nil {
		return nil, err
	}
	path := s.Path(jobID)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("job %s: %w", jobID, ErrNotFound)
		}
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	manifest, err := parseManifest(jobID, path, data)
	if err != nil {
		return nil, err
	}
	if manifest.ID != jobID {
		return nil, &CorruptStateError{
			JobID: jobID,
			Path:  path,
			Err:   fmt.Errorf("manifest id %q does not match filename", manifest.ID),
		}
	}
	return manifest, nil
}

// Commit persists a manifest that was previously loaded (or created).
// The sequence is: verify the in-memory copy, check the persisted
// revision against the loaded revision, snapshot the persisted bytes
// to a backup, atomically replace the primary, then prune old backups.
//
// On success the manifest's Revision is incremented by exactly one.
// On any failure nothing of the primary is changed and the in-memory
// manifest keeps its loaded revision; the caller discards it and
// reloads.
func (s *Store) Commit(manifest *job.Manifest) error {
	if err := job.ValidateID(manifest.ID); err != nil {
		return err
	}
	if err := manifest.CanModify(); err != nil {
		return err
	}
	if err := manifest.Validate(); err != nil {
		return err
	}

	path := s.Path(manifest.ID)
	persistedData, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("job %s: %w", manifest.ID, ErrNotFound)
		}
		return fmt.Errorf("reading manifest %s: %w", path, err)
	}

	persisted, err := parseManifest(manifest.ID, path, persistedData)
	if err != nil {
		return err
	}

	if persisted.Revision != manifest.Revision {
		return &ConflictError{
			JobID:             manifest.ID,
			LoadedRevision:    manifest.Revision,
			PersistedRevision: persisted.Revision,
		}
	}

	// The boundary invariants: history never shrinks, metrics never
	// move backwards. A violation here is a caller bug, caught before
	// it reaches disk.
	if len(manifest.History) < len(persisted.History) {
		return fmt.Errorf("job %s: refusing commit: history would shrink from %d to %d records",
			manifest.ID, len(persisted.History), len(manifest.History))
	}
	if manifest.Metrics.Cost < persisted.Metrics.Cost {
		return fmt.Errorf("job %s: refusing commit: cost would decrease from %v to %v",
			manifest.ID, persisted.Metrics.Cost, manifest.Metrics.Cost)
	}
	if manifest.Metrics.ElapsedSeconds < persisted.Metrics.ElapsedSeconds {
		return fmt.Errorf("job %s: refusing commit: elapsed_seconds would decrease from %v to %v",
			manifest.ID, persisted.Metrics.ElapsedSeconds, manifest.Metrics.ElapsedSeconds)
	}

	if err := s.writeBackup(manifest.ID, persisted.Revision, persistedData); err != nil {
		return err
	}

	next := manifest.Clone()
	next.Revision = manifest.Revision + 1
	if err := writeManifestAtomic(path, next); err != nil {
		return err
	}
	manifest.Revision = next.Revision

	// Backup pruning happens after the commit is durable. A prune
	// failure leaves extra snapshots behind, which is harmless.
	if err := s.pruneBackups(manifest.ID); err != nil {
		return fmt.Errorf("pruning backups for %s: %w", manifest.ID, err)
	}
	return nil
}

// List loads every manifest in the store, sorted by creation time then
// id. Corrupt manifests fail the listing with a *CorruptStateError
// naming the offending job; callers that want to skip corrupt entries
// use IDs and Load individually.
func (s *Store) List() ([]*job.Manifest, error) {
	ids, err := s.IDs()
	if err != nil {
		return nil, err
	}

	manifests := make([]*job.Manifest, 0, len(ids))
	for _, id := range ids {
		manifest, err := s.Load(id)
		if err != nil {
			return nil, err
		}
		manifests = append(manifests, manifest)
	}

	sort.Slice(manifests, func(i, j int) bool {
		if !manifests[i].CreatedAt.Equal(manifests[j].CreatedAt) {
			return manifests[i].CreatedAt.Before(manifests[j].CreatedAt)
		}
		return manifests[i].ID < manifests[j].ID
	})
	return manifests, nil
}

// IDs returns the job ids present in the store, unsorted.
func (s *Store) IDs() ([]string, error) {
	entries, err := os.ReadDir(s.jobsDir)
	if err != nil {
		return nil, fmt.Errorf("reading jobs directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, manifestFileSuffix) {
			continue
		}
		id := strings.TrimSuffix(name, manifestFileSuffix)
		if job.ValidateID(id) != nil {
			// Stray files (editor leftovers, temp files that
			// escaped cleanup) are not manifests.
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseManifest unmarshals and validates manifest bytes, mapping both
// failure modes to CorruptStateError.
func parseManifest(jobID, path string, data []byte) (*job.Manifest, error) {
	var manifest job.Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, &CorruptStateError{JobID: jobID, Path: path, Err: err}
	}
	if err := manifest.Validate(); err != nil {
		return nil, &CorruptStateError{JobID: jobID, Path: path, Err: err}
	}
	return &manifest, nil
}

// writeManifestAtomic writes a manifest to path with atomic
// replacement, so readers never observe a partial manifest.
func writeManifestAtomic(path string, manifest *job.Manifest) error {
	if err := fsatomic.WriteJSON(path, manifest); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}
