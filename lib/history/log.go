// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package history

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Log appends records to one job's audit stream. It holds the file
// open, so a driver running a job to completion pays one open for the
// whole run. Safe for concurrent use.
//
// The file is opened in append mode and every record is synced as it
// is written: an audit line is either fully on disk or absent, and a
// crash loses at most the record being written. Concurrent appenders
// in separate processes are safe for records under the kernel's
// atomic append size, which audit lines are well within.
type Log struct {
	path    string
	file    *os.File
	encoder *json.Encoder

	mutex  sync.Mutex
	closed bool
	count  int64
}

// OpenLog opens (creating if needed) the audit stream at path for
// appending.
func OpenLog(path string) (*Log, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening audit stream %q: %w", path, err)
	}
	encoder := json.NewEncoder(file)
	// One compact JSON object per line.
	encoder.SetEscapeHTML(false)
	return &Log{path: path, file: file, encoder: encoder}, nil
}

// Append validates and writes one record as a single JSON line, then
// syncs so the record survives a crash.
func (l *Log) Append(record Record) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("audit record for %s: %w", record.JobID, err)
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.closed {
		return fmt.Errorf("audit stream %q is closed", l.path)
	}

	if err := l.encoder.Encode(record); err != nil {
		return fmt.Errorf("encoding audit record: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("syncing audit stream: %w", err)
	}
	l.count++
	return nil
}

// Count returns the number of records appended through this Log.
func (l *Log) Count() int64 {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.count
}

// Close closes the underlying file. Idempotent.
func (l *Log) Close() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.file.Close()
}
