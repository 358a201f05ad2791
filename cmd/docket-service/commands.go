// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"

	"github.com/docket-works/docket/lib/driver"
	"github.com/docket-works/docket/lib/service"
)

// jobActivateRequest gives a draft a queue place. A nil rank appends;
// rank 0 cuts to the front.
type jobActivateRequest struct {
	JobID string `cbor:"job_id"`
	Rank  *int   `cbor:"rank,omitempty"`
}

func (ds *DocketService) handleJobActivate(ctx context.Context, raw []byte) (any, error) {
	var req jobActivateRequest
	if err := decodeRequest(raw, &req); err != nil {
		return nil, err
	}

	rank := -1
	if req.Rank != nil {
		rank = *req.Rank
	}
	outcome, err := ds.driver.Activate(req.JobID, rank)
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

func (ds *DocketService) handleJobAdvance(ctx context.Context, raw []byte) (any, error) {
	var req jobRequest
	if err := decodeRequest(raw, &req); err != nil {
		return nil, err
	}

	outcome, err := ds.driver.Advance(ctx, req.JobID)
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// handleCommand adapts a driver command that takes only a job ID.
// The driver logs and records the transition itself; the adapter only
// moves bytes.
func (ds *DocketService) handleCommand(command func(string) (driver.Outcome, error)) service.ActionFunc {
	return func(ctx context.Context, raw []byte) (any, error) {
		var req jobRequest
		if err := decodeRequest(raw, &req); err != nil {
			return nil, err
		}
		outcome, err := command(req.JobID)
		if err != nil {
			return nil, err
		}
		return outcome, nil
	}
}

// jobReasonRequest carries the human-supplied reason for a reject or
// resubmit. The reason lands in the transition record's summary.
type jobReasonRequest struct {
	JobID  string `cbor:"job_id"`
	Reason string `cbor:"reason,omitempty"`
}

// handleReasonCommand adapts a driver command that takes a job ID and
// a free-text reason.
func (ds *DocketService) handleReasonCommand(command func(string, string) (driver.Outcome, error)) service.ActionFunc {
	return func(ctx context.Context, raw []byte) (any, error) {
		var req jobReasonRequest
		if err := decodeRequest(raw, &req); err != nil {
			return nil, err
		}
		outcome, err := command(req.JobID, req.Reason)
		if err != nil {
			return nil, err
		}
		return outcome, nil
	}
}
