// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"os"
	"testing"
)

// SocketDir returns a fresh directory created directly under /tmp,
// removed when the test finishes. Unix socket paths are capped at 108
// bytes (sun_path), and t.TempDir() under some runners nests deeply
// enough to blow that cap, so socket tests take their paths from here
// instead.
func SocketDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("/tmp", "docket-test-*")
	if err != nil {
		t.Fatalf("creating socket directory: %v", err)
	}
	t.Cleanup(func() {
		_ = os.RemoveAll(dir)
	})
	return dir
}
