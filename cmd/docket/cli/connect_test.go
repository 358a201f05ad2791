// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveSocketPathFlagWins(t *testing.T) {
	t.Setenv(SocketEnvVar, "/env.sock")

	connection := Connection{SocketPath: "/flag.sock"}
	path, err := connection.resolveSocketPath()
	if err != nil {
		t.Fatalf("resolveSocketPath: %v", err)
	}
	if path != "/flag.sock" {
		t.Errorf("path = %q, want /flag.sock", path)
	}
}

func TestResolveSocketPathEnvFallback(t *testing.T) {
	t.Setenv(SocketEnvVar, "/env.sock")

	var connection Connection
	path, err := connection.resolveSocketPath()
	if err != nil {
		t.Fatalf("resolveSocketPath: %v", err)
	}
	if path != "/env.sock" {
		t.Errorf("path = %q, want /env.sock", path)
	}
}

func TestResolveSocketPathConfigFallback(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "docket.yaml")
	content := "service:\n  socket_path: /from-config.sock\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv(SocketEnvVar, "")
	t.Setenv("DOCKET_CONFIG", configPath)

	var connection Connection
	path, err := connection.resolveSocketPath()
	if err != nil {
		t.Fatalf("resolveSocketPath: %v", err)
	}
	if path != "/from-config.sock" {
		t.Errorf("path = %q, want /from-config.sock", path)
	}
}

func TestResolveSocketPathNothingConfigured(t *testing.T) {
	t.Setenv(SocketEnvVar, "")
	t.Setenv("DOCKET_CONFIG", "")

	var connection Connection
	_, err := connection.resolveSocketPath()
	if err == nil {
		t.Fatal("resolveSocketPath succeeded with nothing configured")
	}
	if !strings.Contains(err.Error(), "--socket") {
		t.Errorf("error = %q, should mention --socket", err.Error())
	}
}
