// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/docket-works/docket/lib/codec"
	"github.com/docket-works/docket/lib/service"
	"github.com/docket-works/docket/lib/version"
)

// registerActions registers the socket API on the server. Job actions
// address a single job by job_id; queue actions operate on the queue
// as a whole. Every mutation returns the driver outcome so the caller
// can report what happened without a second round trip.
func (ds *DocketService) registerActions(server *service.Server) {
	server.Handle("status", ds.handleStatus)

	server.Handle("job.create", ds.handleJobCreate)
	server.Handle("job.show", ds.handleJobShow)
	server.Handle("job.list", ds.handleJobList)
	server.Handle("job.history", ds.handleJobHistory)

	server.Handle("job.activate", ds.handleJobActivate)
	server.Handle("job.advance", ds.handleJobAdvance)
	server.Handle("job.approve", ds.handleCommand(ds.driver.Approve))
	server.Handle("job.reject", ds.handleReasonCommand(ds.driver.Reject))
	server.Handle("job.resubmit", ds.handleReasonCommand(ds.driver.Resubmit))
	server.Handle("job.terminate", ds.handleCommand(ds.driver.Terminate))
	server.Handle("job.cancel", ds.handleCommand(ds.driver.Cancel))
	server.Handle("job.suspend", ds.handleCommand(ds.driver.Suspend))
	server.Handle("job.resume", ds.handleCommand(ds.driver.Resume))

	server.Handle("queue.list", ds.handleQueueList)
	server.Handle("queue.next", ds.handleQueueNext)
}

// decodeRequest unmarshals the raw request payload into a typed
// request struct.
func decodeRequest(raw []byte, into any) error {
	if err := codec.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("decoding request: %w", err)
	}
	return nil
}

// statusResponse is the response to the "status" action.
type statusResponse struct {
	// UptimeSeconds is how long the daemon has been running.
	UptimeSeconds float64 `cbor:"uptime_seconds"`

	// Version identifies the daemon build.
	Version string `cbor:"version"`

	// Jobs is the number of jobs in the state directory, any status.
	Jobs int `cbor:"jobs"`

	// QueueLength is the number of jobs holding a queue place.
	QueueLength int `cbor:"queue_length"`
}

func (ds *DocketService) handleStatus(ctx context.Context, raw []byte) (any, error) {
	ids, err := ds.store.IDs()
	if err != nil {
		return nil, err
	}
	queued, err := ds.queue.List()
	if err != nil {
		return nil, err
	}
	return statusResponse{
		UptimeSeconds: ds.clock.Now().Sub(ds.startedAt).Seconds(),
		Version:       version.Info(),
		Jobs:          len(ids),
		QueueLength:   len(queued),
	}, nil
}
