// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

// Package queue maintains the global job processing order,
// independent of per-job state.
//
// The order lives in a single JSON file replaced atomically on every
// change. The file's order is authoritative: the queue_rank field in
// each manifest is a denormalized copy refreshed when that job
// commits. Every activated, non-terminal job holds a place; the
// scheduler's next() walks the order and starts the first job that is
// actually in pending, skipping suspended and in-flight entries
// without disturbing their position.
//
// Entries whose job has disappeared or reached a terminal state out
// of band are stale; next() removes them as it walks (self-healing),
// so one missed remove() never wedges the queue.
package queue

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/docket-works/docket/lib/fsatomic"
	"github.com/docket-works/docket/lib/schema/job"
)

// fileVersion is the schema version of the queue file.
const fileVersion = 1

// ErrQueued is returned by Insert when the job already holds a place.
var ErrQueued = errors.New("job is already queued")

// ErrUnknownJob is returned by a Next status callback to report that
// the entry's job no longer exists. Next treats it as stale and
// removes the entry; any other callback error leaves the entry in
// place and skips it.
var ErrUnknownJob = errors.New("unknown job")

// queueFile is the on-disk representation.
type queueFile struct {
	Version int      `json:"version"`
	Order   []string `json:"order"`
}

// Queue is the persisted processing order. Safe for concurrent use
// within a process; every operation reads the file fresh under the
// lock, so the in-memory struct carries no state between calls.
type Queue struct {
	path  string
	mutex sync.Mutex
}

// Open returns a Queue backed by the file at path. The file is
// created on first mutation; opening never writes.
func Open(path string) *Queue {
	return &Queue{path: path}
}

// load reads the queue file. A missing file is an empty queue.
func (q *Queue) load() (*queueFile, error) {
	var file queueFile
	if err := fsatomic.ReadJSON(q.path, &file); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &queueFile{Version: fileVersion}, nil
		}
		return nil, fmt.Errorf("reading queue %s: %w", q.path, err)
	}
	if file.Version > fileVersion {
		return nil, fmt.Errorf("queue file version %d exceeds supported version %d", file.Version, fileVersion)
	}
	for i, id := range file.Order {
		if err := job.ValidateID(id); err != nil {
			return nil, fmt.Errorf("queue entry %d: %w", i, err)
		}
	}
	return &file, nil
}

// save atomically replaces the queue file.
func (q *Queue) save(file *queueFile) error {
	file.Version = fileVersion
	if err := fsatomic.WriteJSON(q.path, file); err != nil {
		return fmt.Errorf("writing queue %s: %w", q.path, err)
	}
	return nil
}

// Insert places a job at the given rank, shifting later entries back.
// Rank 0 is the front; a negative rank appends; a rank past the end
// clamps to append. Returns the final rank. Fails with ErrQueued
// (wrapped) when the job already holds a place. A job has one
// position, never two.
func (q *Queue) Insert(jobID string, rank int) (int, error) {
	if err := job.ValidateID(jobID); err != nil {
		return 0, err
	}

	q.mutex.Lock()
	defer q.mutex.Unlock()

	file, err := q.load()
	if err != nil {
		return 0, err
	}
	if slices.Contains(file.Order, jobID) {
		return 0, fmt.Errorf("job %s: %w", jobID, ErrQueued)
	}

	if rank < 0 || rank > len(file.Order) {
		rank = len(file.Order)
	}
	file.Order = slices.Insert(file.Order, rank, jobID)

	if err := q.save(file); err != nil {
		return 0, err
	}
	return rank, nil
}

// Remove deletes a job's entry. Reports whether an entry was present;
// removing an absent job is not an error, so terminal cleanup is
// idempotent.
func (q *Queue) Remove(jobID string) (bool, error) {
	if err := job.ValidateID(jobID); err != nil {
		return false, err
	}

	q.mutex.Lock()
	defer q.mutex.Unlock()

	file, err := q.load()
	if err != nil {
		return false, err
	}
	index := slices.Index(file.Order, jobID)
	if index < 0 {
		return false, nil
	}
	file.Order = slices.Delete(file.Order, index, index+1)
	if err := q.save(file); err != nil {
		return false, err
	}
	return true, nil
}

// Requeue moves a job to the end of the order, inserting it if
// absent. Used when a job rejoins pending through reject or resubmit:
// rejoining work goes to the back, behind jobs that have waited.
// Returns the new rank.
func (q *Queue) Requeue(jobID string) (int, error) {
	if err := job.ValidateID(jobID); err != nil {
		return 0, err
	}

	q.mutex.Lock()
	defer q.mutex.Unlock()

	file, err := q.load()
	if err != nil {
		return 0, err
	}
	if index := slices.Index(file.Order, jobID); index >= 0 {
		file.Order = slices.Delete(file.Order, index, index+1)
	}
	file.Order = append(file.Order, jobID)

	if err := q.save(file); err != nil {
		return 0, err
	}
	return len(file.Order) - 1, nil
}

// Rank returns a job's current position, and whether it holds one.
func (q *Queue) Rank(jobID string) (int, bool, error) {
	if err := job.ValidateID(jobID); err != nil {
		return 0, false, err
	}

	q.mutex.Lock()
	defer q.mutex.Unlock()

	file, err := q.load()
	if err != nil {
		return 0, false, err
	}
	index := slices.Index(file.Order, jobID)
	if index < 0 {
		return 0, false, nil
	}
	return index, true, nil
}

// List returns the queued job ids, front first.
func (q *Queue) List() ([]string, error) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	file, err := q.load()
	if err != nil {
		return nil, err
	}
	return slices.Clone(file.Order), nil
}

// Next returns the id of the front-most job currently in pending,
// consulting statusOf for each entry in order.
//
// Entries are handled by what statusOf reports:
//   - pending: returned (rank order decides; ok=true)
//   - terminal, or ErrUnknownJob: stale; removed and the walk continues
//   - anything else (suspended, running, gates): skipped, kept
//   - other errors (a corrupt manifest): skipped, kept so one bad
//     job does not block the rest of the queue
//
// Returns ok=false when no entry is in pending. Stale entries found
// during the walk are persisted out even then.
func (q *Queue) Next(statusOf func(jobID string) (job.Status, error)) (string, bool, error) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	file, err := q.load()
	if err != nil {
		return "", false, err
	}

	var (
		kept    = file.Order[:0:0]
		nextID  string
		found   bool
		changed bool
	)
	for i, id := range file.Order {
		if found {
			kept = append(kept, file.Order[i:]...)
			break
		}

		status, err := statusOf(id)
		switch {
		case errors.Is(err, ErrUnknownJob):
			changed = true
			continue
		case err != nil:
			kept = append(kept, id)
			continue
		case status.Terminal():
			changed = true
			continue
		case status == job.StatusPending:
			nextID = id
			found = true
			kept = append(kept, id)
		default:
			kept = append(kept, id)
		}
	}

	if changed {
		file.Order = kept
		if err := q.save(file); err != nil {
			return "", false, err
		}
	}
	return nextID, found, nil
}
