// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package jobstore

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/docket-works/docket/lib/clock"
	"github.com/docket-works/docket/lib/schema/job"
)

func newTestStore(t *testing.T, options Options) *Store {
	t.Helper()
	if options.Clock == nil {
		options.Clock = clock.Fake(time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC))
	}
	store, err := Open(t.TempDir(), options)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return store
}

func testManifest(t *testing.T, title string) *job.Manifest {
	t.Helper()
	now := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	return &job.Manifest{
		Version:          job.ManifestVersion,
		ID:               job.NewID(title, now),
		Title:            title,
		Status:           job.StatusDraft,
		Thresholds:       job.Thresholds{CostMax: 25, ElapsedSecondsMax: 3600},
		CreatedAt:        now,
		LastTransitionAt: now,
	}
}

func TestCreateLoadRoundTrip(t *testing.T) {
	store := newTestStore(t, Options{})
	manifest := testManifest(t, "fix flaky watcher test")

	if err := store.Create(manifest); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if manifest.Revision != 1 {
		t.Errorf("Revision after Create = %d, want 1", manifest.Revision)
	}

	loaded, err := store.Load(manifest.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Title != manifest.Title {
		t.Errorf("Title = %q, want %q", loaded.Title, manifest.Title)
	}
	if loaded.Status != job.StatusDraft {
		t.Errorf("Status = %s, want draft", loaded.Status)
	}
	if loaded.Revision != 1 {
		t.Errorf("Revision = %d, want 1", loaded.Revision)
	}
}

func TestCreateRejectsDuplicate(t *testing.T) {
	store := newTestStore(t, Options{})
	manifest := testManifest(t, "duplicate")

	if err := store.Create(manifest); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Create(manifest); !errors.Is(err, ErrExists) {
		t.Errorf("second Create = %v, want ErrExists", err)
	}
}

func TestCreateRejectsBadID(t *testing.T) {
	store := newTestStore(t, Options{})
	manifest := testManifest(t, "bad id")
	manifest.ID = "../../etc/passwd"

	if err := store.Create(manifest); err == nil {
		t.Error("Create accepted a path-shaped id")
	}
}

func TestLoadNotFound(t *testing.T) {
	store := newTestStore(t, Options{})
	if _, err := store.Load("job-000000000000"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load = %v, want ErrNotFound", err)
	}
}

func TestLoadCorruptJSON(t *testing.T) {
	store := newTestStore(t, Options{})
	manifest := testManifest(t, "corrupt")
	if err := store.Create(manifest); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := os.WriteFile(store.Path(manifest.ID), []byte("{truncated"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := store.Load(manifest.ID)
	var corrupt *CorruptStateError
	if !errors.As(err, &corrupt) {
		t.Fatalf("Load = %v, want CorruptStateError", err)
	}
	if corrupt.JobID != manifest.ID {
		t.Errorf("CorruptStateError.JobID = %q, want %q", corrupt.JobID, manifest.ID)
	}
}

func TestLoadInvalidManifest(t *testing.T) {
	store := newTestStore(t, Options{})
	manifest := testManifest(t, "invalid on disk")
	if err := store.Create(manifest); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Valid JSON, invalid manifest: a status outside the state set.
	data, err := os.ReadFile(store.Path(manifest.ID))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	mangled := strings.Replace(string(data), `"draft"`, `"exploded"`, 1)
	if err := os.WriteFile(store.Path(manifest.ID), []byte(mangled), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var corrupt *CorruptStateError
	if _, err := store.Load(manifest.ID); !errors.As(err, &corrupt) {
		t.Fatalf("Load = %v, want CorruptStateError", err)
	}
}

func TestLoadIDMismatch(t *testing.T) {
	store := newTestStore(t, Options{})
	manifest := testManifest(t, "mismatch")
	if err := store.Create(manifest); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Copy the manifest file under another job's name.
	data, err := os.ReadFile(store.Path(manifest.ID))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	otherID := "job-0123456789ab"
	if err := os.WriteFile(store.Path(otherID), data, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var corrupt *CorruptStateError
	if _, err := store.Load(otherID); !errors.As(err, &corrupt) {
		t.Fatalf("Load = %v, want CorruptStateError", err)
	}
}

func TestCommitIncrementsRevision(t *testing.T) {
	store := newTestStore(t, Options{})
	manifest := testManifest(t, "increments")
	if err := store.Create(manifest); err != nil {
		t.Fatalf("Create: %v", err)
	}

	loaded, err := store.Load(manifest.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	loaded.Description = "now with a description"
	if err := store.Commit(loaded); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if loaded.Revision != 2 {
		t.Errorf("Revision after Commit = %d, want 2", loaded.Revision)
	}

	reloaded, err := store.Load(manifest.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if reloaded.Revision != 2 {
		t.Errorf("persisted Revision = %d, want 2", reloaded.Revision)
	}
	if reloaded.Description != "now with a description" {
		t.Errorf("Description = %q, lost on commit", reloaded.Description)
	}
}

func TestCommitConflict(t *testing.T) {
	store := newTestStore(t, Options{})
	manifest := testManifest(t, "conflict")
	if err := store.Create(manifest); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Two writers load the same revision.
	first, err := store.Load(manifest.ID)
	if err != nil {
		t.Fatalf("Load first: %v", err)
	}
	second, err := store.Load(manifest.ID)
	if err != nil {
		t.Fatalf("Load second: %v", err)
	}

	first.Description = "first writer"
	if err := store.Commit(first); err != nil {
		t.Fatalf("Commit first: %v", err)
	}

	second.Description = "second writer"
	err = store.Commit(second)
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("Commit second = %v, want ConflictError", err)
	}
	if conflict.LoadedRevision != 1 || conflict.PersistedRevision != 2 {
		t.Errorf("conflict revisions = %d/%d, want 1/2",
			conflict.LoadedRevision, conflict.PersistedRevision)
	}

	// The failed commit wrote nothing.
	persisted, err := store.Load(manifest.ID)
	if err != nil {
		t.Fatalf("Load after conflict: %v", err)
	}
	if persisted.Description != "first writer" {
		t.Errorf("Description = %q, conflict loser overwrote the winner", persisted.Description)
	}

	// Reload and retry is the documented recovery. It succeeds.
	retry, err := store.Load(manifest.ID)
	if err != nil {
		t.Fatalf("Load retry: %v", err)
	}
	retry.Description = "second writer, retried"
	if err := store.Commit(retry); err != nil {
		t.Fatalf("Commit retry: %v", err)
	}
	if retry.Revision != 3 {
		t.Errorf("Revision after retry = %d, want 3", retry.Revision)
	}
}

func TestCommitNotFound(t *testing.T) {
	store := newTestStore(t, Options{})
	manifest := testManifest(t, "never created")
	manifest.Revision = 1
	if err := store.Commit(manifest); !errors.Is(err, ErrNotFound) {
		t.Errorf("Commit = %v, want ErrNotFound", err)
	}
}

func TestCommitWritesBackup(t *testing.T) {
	store := newTestStore(t, Options{})
	manifest := testManifest(t, "backed up")
	if err := store.Create(manifest); err != nil {
		t.Fatalf("Create: %v", err)
	}

	loaded, err := store.Load(manifest.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	loaded.Description = "changed"
	if err := store.Commit(loaded); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	names, err := store.Backups(manifest.ID)
	if err != nil {
		t.Fatalf("Backups: %v", err)
	}
	if len(names) != 1 {
		t.Fatalf("backup count = %d, want 1", len(names))
	}

	snapshot, err := store.ReadBackup(manifest.ID, names[0])
	if err != nil {
		t.Fatalf("ReadBackup: %v", err)
	}
	if snapshot.Revision != 1 {
		t.Errorf("backup Revision = %d, want the pre-commit 1", snapshot.Revision)
	}
	if snapshot.Description != "" {
		t.Errorf("backup Description = %q, want the pre-commit empty string", snapshot.Description)
	}
}

func TestBackupRetention(t *testing.T) {
	fake := clock.Fake(time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC))
	store := newTestStore(t, Options{BackupRetention: 3, Clock: fake})
	manifest := testManifest(t, "retention")
	if err := store.Create(manifest); err != nil {
		t.Fatalf("Create: %v", err)
	}

	loaded, err := store.Load(manifest.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for i := 0; i < 5; i++ {
		fake.Advance(time.Second)
		loaded.Metrics.ActionCount++
		if err := store.Commit(loaded); err != nil {
			t.Fatalf("Commit %d: %v", i, err)
		}
	}

	names, err := store.Backups(manifest.ID)
	if err != nil {
		t.Fatalf("Backups: %v", err)
	}
	if len(names) != 3 {
		t.Fatalf("backup count = %d, want 3", len(names))
	}
	// Oldest pruned, newest kept: the last snapshot holds revision 5.
	if !strings.Contains(names[len(names)-1], "r000005") {
		t.Errorf("newest backup = %q, want revision 5 snapshot", names[len(names)-1])
	}
	if strings.Contains(names[0], "r000001") || strings.Contains(names[0], "r000002") {
		t.Errorf("oldest backup = %q, pruning kept a stale snapshot", names[0])
	}
}

func TestCommitRefusesHistoryShrink(t *testing.T) {
	store := newTestStore(t, Options{})
	manifest := testManifest(t, "history guard")
	now := time.Date(2026, 2, 10, 9, 1, 0, 0, time.UTC)
	if err := manifest.Transition(job.StatusPending, job.TriggerActivate, now, "queued", nil); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	manifest.QueueRank = intPointer(0)
	if err := store.Create(manifest); err != nil {
		t.Fatalf("Create: %v", err)
	}

	loaded, err := store.Load(manifest.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	loaded.History = nil
	if err := store.Commit(loaded); err == nil {
		t.Error("Commit accepted a shrinking history")
	}
}

func TestCommitRefusesMetricDecrease(t *testing.T) {
	store := newTestStore(t, Options{})
	manifest := testManifest(t, "metric guard")
	manifest.Metrics = job.Metrics{Cost: 5, ElapsedSeconds: 60, ActionCount: 3}
	if err := store.Create(manifest); err != nil {
		t.Fatalf("Create: %v", err)
	}

	loaded, err := store.Load(manifest.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	loaded.Metrics.Cost = 4
	if err := store.Commit(loaded); err == nil {
		t.Error("Commit accepted a cost decrease")
	}

	loaded, err = store.Load(manifest.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	loaded.Metrics.ElapsedSeconds = 30
	if err := store.Commit(loaded); err == nil {
		t.Error("Commit accepted an elapsed_seconds decrease")
	}
}

func TestListSortedByCreation(t *testing.T) {
	store := newTestStore(t, Options{})

	base := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	titles := []string{"third", "first", "second"}
	offsets := []time.Duration{2 * time.Hour, 0, time.Hour}
	for i, title := range titles {
		manifest := testManifest(t, title)
		manifest.CreatedAt = base.Add(offsets[i])
		manifest.LastTransitionAt = manifest.CreatedAt
		if err := store.Create(manifest); err != nil {
			t.Fatalf("Create %s: %v", title, err)
		}
	}

	manifests, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(manifests) != 3 {
		t.Fatalf("List count = %d, want 3", len(manifests))
	}
	for i, want := range []string{"first", "second", "third"} {
		if manifests[i].Title != want {
			t.Errorf("List[%d] = %q, want %q", i, manifests[i].Title, want)
		}
	}
}

func TestListFailsLoudOnCorruptManifest(t *testing.T) {
	store := newTestStore(t, Options{})
	manifest := testManifest(t, "will corrupt")
	if err := store.Create(manifest); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := os.WriteFile(store.Path(manifest.ID), []byte("garbage"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var corrupt *CorruptStateError
	if _, err := store.List(); !errors.As(err, &corrupt) {
		t.Fatalf("List = %v, want CorruptStateError", err)
	}
}

func TestIDsSkipsStrayFiles(t *testing.T) {
	store := newTestStore(t, Options{})
	manifest := testManifest(t, "only real one")
	if err := store.Create(manifest); err != nil {
		t.Fatalf("Create: %v", err)
	}

	for _, stray := range []string{"README.json", "job-short.json", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(store.jobsDir, stray), []byte("{}"), 0o600); err != nil {
			t.Fatalf("WriteFile %s: %v", stray, err)
		}
	}

	ids, err := store.IDs()
	if err != nil {
		t.Fatalf("IDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != manifest.ID {
		t.Errorf("IDs = %v, want just %s", ids, manifest.ID)
	}
}

func TestManifestFileHygiene(t *testing.T) {
	store := newTestStore(t, Options{})
	manifest := testManifest(t, "hygiene")
	if err := store.Create(manifest); err != nil {
		t.Fatalf("Create: %v", err)
	}

	info, err := os.Stat(store.Path(manifest.ID))
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0o600 {
		t.Errorf("manifest mode = %o, want 0600", mode)
	}

	data, err := os.ReadFile(store.Path(manifest.ID))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) == 0 || data[len(data)-1] != '\n' {
		t.Error("manifest file is not newline-terminated")
	}

	entries, err := os.ReadDir(store.jobsDir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", entry.Name())
		}
	}
}

func intPointer(value int) *int {
	return &value
}
