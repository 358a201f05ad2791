// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/docket-works/docket/lib/history"
	"github.com/docket-works/docket/lib/schema/job"
	"github.com/docket-works/docket/lib/taskdef"
)

// jobRequest addresses a single job. Most job actions need nothing
// more than the ID.
type jobRequest struct {
	JobID string `cbor:"job_id"`
}

// jobCreateRequest carries a task definition inline. The CLI parses
// the JSONC task file locally and ships the parsed fields, so the
// daemon never needs filesystem access outside its state directory.
type jobCreateRequest struct {
	Title       string          `cbor:"title"`
	Description string          `cbor:"description,omitempty"`
	Phases      []string        `cbor:"phases,omitempty"`
	Thresholds  *job.Thresholds `cbor:"thresholds,omitempty"`
	Workspace   *job.Workspace  `cbor:"workspace,omitempty"`
}

func (ds *DocketService) handleJobCreate(ctx context.Context, raw []byte) (any, error) {
	var req jobCreateRequest
	if err := decodeRequest(raw, &req); err != nil {
		return nil, err
	}

	definition := &taskdef.Definition{
		Title:       req.Title,
		Description: req.Description,
		Phases:      req.Phases,
		Thresholds:  req.Thresholds,
		Workspace:   req.Workspace,
	}
	manifest, err := definition.Manifest(ds.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := ds.store.Create(manifest); err != nil {
		return nil, err
	}

	ds.logger.Info("job created", "job_id", manifest.ID, "title", manifest.Title)
	return manifest, nil
}

func (ds *DocketService) handleJobShow(ctx context.Context, raw []byte) (any, error) {
	var req jobRequest
	if err := decodeRequest(raw, &req); err != nil {
		return nil, err
	}
	manifest, err := ds.store.Load(req.JobID)
	if err != nil {
		return nil, err
	}
	return manifest, nil
}

// jobListRequest optionally narrows the listing to one status.
type jobListRequest struct {
	Status string `cbor:"status,omitempty"`
}

// jobListResponse lists manifests in creation order.
type jobListResponse struct {
	Jobs []*job.Manifest `cbor:"jobs"`
}

func (ds *DocketService) handleJobList(ctx context.Context, raw []byte) (any, error) {
	var req jobListRequest
	if err := decodeRequest(raw, &req); err != nil {
		return nil, err
	}

	manifests, err := ds.store.List()
	if err != nil {
		return nil, err
	}
	if req.Status != "" {
		status := job.Status(req.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("unknown status %q", req.Status)
		}
		filtered := make([]*job.Manifest, 0, len(manifests))
		for _, manifest := range manifests {
			if manifest.Status == status {
				filtered = append(filtered, manifest)
			}
		}
		manifests = filtered
	}
	return jobListResponse{Jobs: manifests}, nil
}

// jobHistoryResponse carries a job's full audit stream plus the
// folded summary.
type jobHistoryResponse struct {
	Records []history.Record `cbor:"records"`
	Summary history.Summary  `cbor:"summary"`
}

func (ds *DocketService) handleJobHistory(ctx context.Context, raw []byte) (any, error) {
	var req jobRequest
	if err := decodeRequest(raw, &req); err != nil {
		return nil, err
	}

	records, err := ds.history.Read(req.JobID)
	if errors.Is(err, history.ErrNoStream) {
		// A job with no transitions yet has no stream. Distinguish
		// that from an unknown job ID.
		if _, loadErr := ds.store.Load(req.JobID); loadErr != nil {
			return nil, loadErr
		}
		records = nil
	} else if err != nil {
		return nil, err
	}
	return jobHistoryResponse{
		Records: records,
		Summary: history.Summarize(records),
	}, nil
}
