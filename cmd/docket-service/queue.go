// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/docket-works/docket/lib/schema/job"
)

// queueEntry is one row of the queue listing, front first.
type queueEntry struct {
	Rank   int        `cbor:"rank"`
	JobID  string     `cbor:"job_id"`
	Status job.Status `cbor:"status"`
	Title  string     `cbor:"title"`
}

type queueListResponse struct {
	Entries []queueEntry `cbor:"entries"`
}

func (ds *DocketService) handleQueueList(ctx context.Context, raw []byte) (any, error) {
	ids, err := ds.queue.List()
	if err != nil {
		return nil, err
	}

	entries := make([]queueEntry, 0, len(ids))
	for rank, id := range ids {
		manifest, err := ds.store.Load(id)
		if err != nil {
			return nil, fmt.Errorf("queued job %s: %w", id, err)
		}
		entries = append(entries, queueEntry{
			Rank:   rank,
			JobID:  id,
			Status: manifest.Status,
			Title:  manifest.Title,
		})
	}
	return queueListResponse{Entries: entries}, nil
}

// queueNextResponse names the frontmost pending job, if any. Jobs
// holding a place in a non-runnable status are skipped, not removed.
type queueNextResponse struct {
	JobID string `cbor:"job_id,omitempty"`
	Found bool   `cbor:"found"`
}

func (ds *DocketService) handleQueueNext(ctx context.Context, raw []byte) (any, error) {
	jobID, found, err := ds.driver.Next()
	if err != nil {
		return nil, err
	}
	return queueNextResponse{JobID: jobID, Found: found}, nil
}
