// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import (
	"slices"
	"strings"
	"sync"

	"github.com/docket-works/docket/lib/schema/job"
)

// Snapshot is a point-in-time view of jobs with aggregate statistics.
type Snapshot struct {
	Jobs  []*job.Manifest
	Stats Stats
}

// Stats summarizes the whole state directory regardless of which tab
// filtered the snapshot.
type Stats struct {
	ByStatus map[job.Status]int
	Total    int
}

// Event describes a single change to the job set, delivered via the
// [Source.Subscribe] channel for live-updating UIs.
type Event struct {
	JobID string
	Kind  string // "put" or "remove"
}

// Source abstracts job data access for the board. The implementations
// differ only in how manifests arrive: a one-shot directory load or a
// live inotify watch. The board code is identical regardless.
type Source interface {
	// Active returns jobs moving through the pipeline or paused:
	// pending, running, reviewing, and suspended. Sorted by execution
	// order: running first, then reviewing, then the queue (by rank),
	// then suspended.
	Active() Snapshot

	// Attention returns jobs waiting on a human command:
	// approval_required and intervention_required. Sorted oldest
	// wait first.
	Attention() Snapshot

	// Settled returns terminal jobs (success, canceled), most
	// recently settled first.
	Settled() Snapshot

	// All returns every job in creation order.
	All() Snapshot

	// Get returns a single job by ID.
	Get(jobID string) (*job.Manifest, bool)

	// Subscribe returns a channel that receives Events when the
	// underlying data changes. Returns nil if live updates are not
	// supported (one-shot load without --watch).
	Subscribe() <-chan Event
}

// activeStatusRank orders the Active tab's status groups: executing
// jobs first, then the queue, then paused jobs.
func activeStatusRank(status job.Status) int {
	switch status {
	case job.StatusRunning:
		return 0
	case job.StatusReviewing:
		return 1
	case job.StatusPending:
		return 2
	case job.StatusSuspended:
		return 3
	default:
		return 4
	}
}

func isActiveStatus(status job.Status) bool {
	switch status {
	case job.StatusPending, job.StatusSuspended, job.StatusRunning, job.StatusReviewing:
		return true
	default:
		return false
	}
}

func isAttentionStatus(status job.Status) bool {
	return status == job.StatusApprovalRequired || status == job.StatusInterventionRequired
}

// comparePending orders queued jobs by queue rank (unranked last),
// then creation time, then ID.
func comparePending(a, b *job.Manifest) int {
	switch {
	case a.QueueRank != nil && b.QueueRank != nil:
		if *a.QueueRank != *b.QueueRank {
			return *a.QueueRank - *b.QueueRank
		}
	case a.QueueRank != nil:
		return -1
	case b.QueueRank != nil:
		return 1
	}
	if result := a.CreatedAt.Compare(b.CreatedAt); result != 0 {
		return result
	}
	return strings.Compare(a.ID, b.ID)
}

// compareActive orders the Active tab: by status group, then queue
// order for pending jobs, then most recent transition first for the
// rest.
func compareActive(a, b *job.Manifest) int {
	if rankA, rankB := activeStatusRank(a.Status), activeStatusRank(b.Status); rankA != rankB {
		return rankA - rankB
	}
	if a.Status == job.StatusPending {
		return comparePending(a, b)
	}
	if result := b.LastTransitionAt.Compare(a.LastTransitionAt); result != 0 {
		return result
	}
	return strings.Compare(a.ID, b.ID)
}

// DirSource holds an in-memory snapshot of a state directory's job
// manifests, guarded by a mutex for concurrent access and event
// dispatch. [WatchStateDir] feeds it incremental updates; without a
// watcher it serves the load-time snapshot unchanged.
type DirSource struct {
	mutex       sync.RWMutex
	jobs        map[string]*job.Manifest
	subscribers []chan Event
}

// NewDirSource creates a DirSource over the given manifests, keyed by
// job ID. The map is retained; pass nil for an empty source.
func NewDirSource(manifests map[string]*job.Manifest) *DirSource {
	if manifests == nil {
		manifests = make(map[string]*job.Manifest)
	}
	return &DirSource{
		jobs: manifests,
	}
}

// stats computes aggregate counts. Caller must hold at least a read lock.
func (source *DirSource) stats() Stats {
	stats := Stats{
		ByStatus: make(map[job.Status]int, len(source.jobs)),
		Total:    len(source.jobs),
	}
	for _, manifest := range source.jobs {
		stats.ByStatus[manifest.Status]++
	}
	return stats
}

// collect returns jobs matching the predicate, sorted by the
// comparator. Caller must hold at least a read lock.
func (source *DirSource) collect(match func(*job.Manifest) bool, compare func(a, b *job.Manifest) int) []*job.Manifest {
	var jobs []*job.Manifest
	for _, manifest := range source.jobs {
		if match(manifest) {
			jobs = append(jobs, manifest)
		}
	}
	slices.SortFunc(jobs, compare)
	return jobs
}

// Active returns pending, running, reviewing, and suspended jobs in
// execution order.
func (source *DirSource) Active() Snapshot {
	source.mutex.RLock()
	defer source.mutex.RUnlock()
	return Snapshot{
		Jobs:  source.collect(func(m *job.Manifest) bool { return isActiveStatus(m.Status) }, compareActive),
		Stats: source.stats(),
	}
}

// Attention returns jobs gated on a human command, longest wait first.
func (source *DirSource) Attention() Snapshot {
	source.mutex.RLock()
	defer source.mutex.RUnlock()
	return Snapshot{
		Jobs: source.collect(
			func(m *job.Manifest) bool { return isAttentionStatus(m.Status) },
			func(a, b *job.Manifest) int {
				if result := a.LastTransitionAt.Compare(b.LastTransitionAt); result != 0 {
					return result
				}
				return strings.Compare(a.ID, b.ID)
			},
		),
		Stats: source.stats(),
	}
}

// Settled returns terminal jobs, most recently settled first.
func (source *DirSource) Settled() Snapshot {
	source.mutex.RLock()
	defer source.mutex.RUnlock()
	return Snapshot{
		Jobs: source.collect(
			func(m *job.Manifest) bool { return m.Status.Terminal() },
			func(a, b *job.Manifest) int {
				if result := b.LastTransitionAt.Compare(a.LastTransitionAt); result != 0 {
					return result
				}
				return strings.Compare(a.ID, b.ID)
			},
		),
		Stats: source.stats(),
	}
}

// All returns every job in creation order.
func (source *DirSource) All() Snapshot {
	source.mutex.RLock()
	defer source.mutex.RUnlock()
	return Snapshot{
		Jobs: source.collect(
			func(m *job.Manifest) bool { return true },
			func(a, b *job.Manifest) int {
				if result := a.CreatedAt.Compare(b.CreatedAt); result != 0 {
					return result
				}
				return strings.Compare(a.ID, b.ID)
			},
		),
		Stats: source.stats(),
	}
}

// Get returns a single job by ID.
func (source *DirSource) Get(jobID string) (*job.Manifest, bool) {
	source.mutex.RLock()
	defer source.mutex.RUnlock()
	manifest, exists := source.jobs[jobID]
	return manifest, exists
}

// Subscribe returns a channel that receives Events when the job set
// changes via [DirSource.Put] or [DirSource.Remove].
func (source *DirSource) Subscribe() <-chan Event {
	source.mutex.Lock()
	defer source.mutex.Unlock()
	channel := make(chan Event, 64)
	source.subscribers = append(source.subscribers, channel)
	return channel
}

// Put adds or updates a job and dispatches an event to all
// subscribers. The manifest must not be mutated after the call. Safe
// for concurrent use.
func (source *DirSource) Put(jobID string, manifest *job.Manifest) {
	source.mutex.Lock()
	source.jobs[jobID] = manifest
	// Snapshot subscriber list under lock; dispatch after release.
	// The subscriber list is append-only, so this is safe.
	subscribers := source.subscribers
	source.mutex.Unlock()

	event := Event{JobID: jobID, Kind: "put"}
	for _, subscriber := range subscribers {
		select {
		case subscriber <- event:
		default:
			// Subscriber buffer full, drop the event. The board
			// picks up current state on the next snapshot refresh.
		}
	}
}

// Remove deletes a job and dispatches an event. Safe for concurrent use.
func (source *DirSource) Remove(jobID string) {
	source.mutex.Lock()
	if _, exists := source.jobs[jobID]; !exists {
		source.mutex.Unlock()
		return
	}
	delete(source.jobs, jobID)
	subscribers := source.subscribers
	source.mutex.Unlock()

	event := Event{JobID: jobID, Kind: "remove"}
	for _, subscriber := range subscribers {
		select {
		case subscriber <- event:
		default:
		}
	}
}
