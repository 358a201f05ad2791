// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/docket-works/docket/lib/schema/job"
)

// manifestSnapshotEntry pairs a parsed manifest with the raw bytes it
// was parsed from, so the watch loop can diff by bytes without
// re-comparing structs.
type manifestSnapshotEntry struct {
	raw      []byte
	manifest *job.Manifest
}

// LoadStateDir reads every job manifest under root/jobs once and
// returns a DirSource over them. The source never updates; use
// [WatchStateDir] for a live view.
func LoadStateDir(root string) (*DirSource, error) {
	jobsDir := filepath.Join(root, "jobs")
	snapshot, err := readManifestSnapshot(jobsDir, nil)
	if err != nil {
		return nil, err
	}

	manifests := make(map[string]*job.Manifest, len(snapshot))
	for id, entry := range snapshot {
		manifests[id] = entry.manifest
	}
	return NewDirSource(manifests), nil
}

// WatchStateDir loads the initial snapshot of root/jobs and starts an
// inotify watcher that feeds incremental updates into the returned
// DirSource. The cleanup function stops the watcher and closes the
// inotify fd.
//
// The watcher monitors the jobs directory for IN_CLOSE_WRITE,
// IN_MOVED_TO, IN_MOVED_FROM, and IN_DELETE events on *.json names
// (manifests are written via temp-file-and-rename, which lands as
// IN_MOVED_TO). On each change, the directory is re-read in full and
// diffed against the previous snapshot; only actual changes produce
// Put/Remove calls on the DirSource.
func WatchStateDir(root string) (*DirSource, func(), error) {
	jobsDir := filepath.Join(root, "jobs")

	snapshot, err := readManifestSnapshot(jobsDir, nil)
	if err != nil {
		return nil, nil, err
	}

	manifests := make(map[string]*job.Manifest, len(snapshot))
	for id, entry := range snapshot {
		manifests[id] = entry.manifest
	}
	source := NewDirSource(manifests)

	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return nil, nil, err
	}

	mask := uint32(unix.IN_CLOSE_WRITE | unix.IN_MOVED_TO | unix.IN_MOVED_FROM | unix.IN_DELETE)
	_, err = unix.InotifyAddWatch(fd, jobsDir, mask)
	if err != nil {
		unix.Close(fd)
		return nil, nil, err
	}

	stopChannel := make(chan struct{})
	go stateWatchLoop(fd, jobsDir, source, snapshot, stopChannel)

	cleanedUp := false
	cleanup := func() {
		if cleanedUp {
			return
		}
		cleanedUp = true
		close(stopChannel)
	}

	return source, cleanup, nil
}

// readManifestSnapshot reads every *.json file in the jobs directory
// into a snapshot map keyed by job ID (the filename without its
// extension). A file that cannot be read or parsed (typically one
// caught mid-write) keeps its entry from the previous snapshot when
// one exists, so transient write states never surface as removals.
func readManifestSnapshot(jobsDir string, previous map[string]manifestSnapshotEntry) (map[string]manifestSnapshotEntry, error) {
	entries, err := os.ReadDir(jobsDir)
	if err != nil {
		return nil, fmt.Errorf("reading jobs directory: %w", err)
	}

	snapshot := make(map[string]manifestSnapshotEntry, len(entries))
	for _, dirEntry := range entries {
		name := dirEntry.Name()
		if dirEntry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		jobID := strings.TrimSuffix(name, ".json")

		raw, err := os.ReadFile(filepath.Join(jobsDir, name))
		if err == nil {
			var manifest job.Manifest
			if parseErr := json.Unmarshal(raw, &manifest); parseErr == nil {
				snapshot[jobID] = manifestSnapshotEntry{raw: raw, manifest: &manifest}
				continue
			}
		}

		if old, exists := previous[jobID]; exists {
			snapshot[jobID] = old
		}
	}
	return snapshot, nil
}

// stateWatchLoop polls the inotify fd for changes to the jobs
// directory, re-reads the snapshot, and diffs it against the previous
// state. Changes are pushed into the DirSource via Put/Remove, which
// dispatches events to subscribers (driving the board's heat
// animation).
//
// Uses poll(2) with 100ms timeout for responsive stop-channel
// checking. After detecting a change, waits 50ms and drains any queued
// events to coalesce rapid writes (a driver advancing several jobs in
// one pass rewrites several manifests in quick succession).
func stateWatchLoop(
	fd int,
	jobsDir string,
	source *DirSource,
	previous map[string]manifestSnapshotEntry,
	stopChannel <-chan struct{},
) {
	defer unix.Close(fd)

	buffer := make([]byte, 4096)

	for {
		select {
		case <-stopChannel:
			return
		default:
		}

		pollDescriptors := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		count, err := unix.Poll(pollDescriptors, 100)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			// Fatal poll error: watcher exits. The board degrades to
			// a static view of the last snapshot.
			return
		}
		if count == 0 {
			continue
		}

		bytesRead, err := unix.Read(fd, buffer)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				continue
			}
			return
		}

		if !inotifyTouchesManifest(buffer[:bytesRead]) {
			continue
		}

		// Debounce: wait 50ms and drain any additional events that
		// arrived during that window.
		time.Sleep(50 * time.Millisecond)
		drainInotifyEvents(fd, buffer)

		current, err := readManifestSnapshot(jobsDir, previous)
		if err != nil {
			// Directory briefly unreadable. Skip this update; the
			// next inotify event will retry.
			continue
		}

		diffManifestSnapshots(source, previous, current)
		previous = current
	}
}

// diffManifestSnapshots compares two snapshots and pushes changes into
// the DirSource. Only entries whose raw JSON bytes differ (or are
// new/removed) produce Put/Remove calls, avoiding false heat animation.
func diffManifestSnapshots(source *DirSource, previous, current map[string]manifestSnapshotEntry) {
	// New or changed entries.
	for id, entry := range current {
		old, exists := previous[id]
		if !exists || !bytes.Equal(old.raw, entry.raw) {
			source.Put(id, entry.manifest)
		}
	}

	// Removed entries.
	for id := range previous {
		if _, exists := current[id]; !exists {
			source.Remove(id)
		}
	}
}

// inotifyTouchesManifest checks whether any inotify event in the
// buffer names a manifest file. Temp files from atomic writes
// (*.json.tmp) are ignored; the rename that follows them is not.
// Layout from inotify(7):
//
//	struct inotify_event {
//	    int32_t  wd;     // offset 0
//	    uint32_t mask;   // offset 4
//	    uint32_t cookie; // offset 8
//	    uint32_t len;    // offset 12
//	    char     name[]; // offset 16, null-padded to alignment
//	};
func inotifyTouchesManifest(buffer []byte) bool {
	offset := 0
	for offset+unix.SizeofInotifyEvent <= len(buffer) {
		nameLength := int(binary.NativeEndian.Uint32(buffer[offset+12 : offset+16]))
		eventSize := unix.SizeofInotifyEvent + nameLength
		if offset+eventSize > len(buffer) {
			break
		}

		if nameLength > 0 {
			nameBytes := buffer[offset+unix.SizeofInotifyEvent : offset+eventSize]
			name := nullTerminatedString(nameBytes)
			if strings.HasSuffix(name, ".json") {
				return true
			}
		}

		offset += eventSize
	}
	return false
}

// nullTerminatedString extracts a string from a null-padded byte
// slice, stopping at the first null byte.
func nullTerminatedString(data []byte) string {
	for i, b := range data {
		if b == 0 {
			return string(data[:i])
		}
	}
	return string(data)
}

// drainInotifyEvents reads and discards any pending inotify events.
// Called after the debounce sleep to coalesce rapid writes into a
// single re-read.
func drainInotifyEvents(fd int, buffer []byte) {
	for {
		_, err := unix.Read(fd, buffer)
		if err != nil {
			// EAGAIN means no more events; any other error, stop.
			return
		}
	}
}
