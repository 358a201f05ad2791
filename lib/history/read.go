// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/docket-works/docket/lib/archive"
	"github.com/docket-works/docket/lib/schema/job"
)

// ErrNoStream is returned when a job has no audit stream: the job
// never transitioned, or its stream was removed out of band.
var ErrNoStream = errors.New("no audit stream")

// Read returns every record in a job's stream, in append order. Live
// and archived streams read the same way; the codec is recovered from
// the filename.
func (d *Dir) Read(jobID string) ([]Record, error) {
	if err := job.ValidateID(jobID); err != nil {
		return nil, err
	}

	data, err := d.readStreamBytes(jobID)
	if err != nil {
		return nil, err
	}
	records, err := decodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("audit stream for %s: %w", jobID, err)
	}
	return records, nil
}

// readStreamBytes returns the decompressed stream content, probing
// the live path first and then each codec extension.
func (d *Dir) readStreamBytes(jobID string) ([]byte, error) {
	basePath := d.StreamPath(jobID)

	paths := []string{
		basePath,
		basePath + archive.CodecZstd.Extension(),
		basePath + archive.CodecLZ4.Extension(),
	}
	for _, path := range paths {
		data, err := archive.ReadFile(path)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading audit stream %s: %w", path, err)
		}
	}
	return nil, fmt.Errorf("job %s: %w", jobID, ErrNoStream)
}

// decodeRecords parses JSONL content into records. A record that
// fails validation poisons the whole read: a stream with a bad line
// is evidence of out-of-band editing, and is reported rather than
// silently skipped.
func decodeRecords(data []byte) ([]Record, error) {
	var records []Record
	decoder := json.NewDecoder(bytes.NewReader(data))
	for {
		var record Record
		if err := decoder.Decode(&record); err != nil {
			if errors.Is(err, io.EOF) {
				return records, nil
			}
			return nil, fmt.Errorf("record %d: %w", len(records)+1, err)
		}
		if err := record.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", len(records)+1, err)
		}
		records = append(records, record)
	}
}
