// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/docket-works/docket/lib/clock"
	"github.com/docket-works/docket/lib/driver"
	"github.com/docket-works/docket/lib/history"
	"github.com/docket-works/docket/lib/jobstore"
	"github.com/docket-works/docket/lib/queue"
)

// DocketService is the daemon's action surface. One instance owns the
// driver and the state directory behind it for the life of the
// process; every socket action is a method on it.
type DocketService struct {
	driver  *driver.Driver
	store   *jobstore.Store
	queue   *queue.Queue
	history *history.Dir

	clock     clock.Clock
	startedAt time.Time
	logger    *slog.Logger
}

// recoveryLoop periodically settles transient jobs whose agent has
// stopped reporting. The sweep is the daemon's safety net for crashed
// runs; a sweep failure is logged and retried on the next tick rather
// than taking the daemon down.
func (ds *DocketService) recoveryLoop(ctx context.Context, interval time.Duration) {
	ticker := ds.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			recovered, err := ds.driver.Recovery().Sweep()
			if err != nil {
				ds.logger.Error("recovery sweep failed", "error", err)
				continue
			}
			if recovered > 0 {
				ds.logger.Info("recovery sweep settled stale jobs", "count", recovered)
			}
		}
	}
}
