// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

// Package fsatomic writes files atomically: data goes to a temporary
// file in the target directory, is fsynced, and is renamed over the
// destination. A crash mid-write leaves either the old file or the
// new one, never a truncated mix. State files that other components
// read concurrently (job manifests, the queue, backups) all go
// through this package.
package fsatomic

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteBytes atomically replaces the file at path with data. The
// temporary file is created in the same directory so the final rename
// stays within one filesystem. The parent directory is synced after
// the rename so the entry itself is durable.
func WriteBytes(path string, data []byte, mode os.FileMode) error {
	temporary := path + ".tmp"

	file, err := os.OpenFile(temporary, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("creating %s: %w", temporary, err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporary)
		return fmt.Errorf("writing %s: %w", temporary, err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporary)
		return fmt.Errorf("syncing %s: %w", temporary, err)
	}

	if err := file.Close(); err != nil {
		os.Remove(temporary)
		return fmt.Errorf("closing %s: %w", temporary, err)
	}

	if err := os.Rename(temporary, path); err != nil {
		os.Remove(temporary)
		return fmt.Errorf("renaming %s into place: %w", temporary, err)
	}

	return syncDir(filepath.Dir(path))
}

// WriteJSON atomically replaces the file at path with the indented
// JSON encoding of value, newline-terminated, mode 0600.
func WriteJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	data = append(data, '\n')
	return WriteBytes(path, data, 0o600)
}

// ReadJSON reads the file at path and decodes it into value.
func ReadJSON(path string, value any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, value); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

// syncDir fsyncs a directory so a just-renamed entry survives a
// crash.
func syncDir(dir string) error {
	handle, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("opening directory %s: %w", dir, err)
	}
	defer handle.Close()

	if err := handle.Sync(); err != nil {
		return fmt.Errorf("syncing directory %s: %w", dir, err)
	}
	return nil
}
