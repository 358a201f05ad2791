// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/docket-works/docket/lib/config"
	"github.com/docket-works/docket/lib/service"
)

// SocketEnvVar names the environment variable that points at the
// docket-service socket. Checked after --socket and before the config
// file.
const SocketEnvVar = "DOCKET_SOCKET"

// Connection carries the daemon socket location for commands that
// talk to docket-service. Embed it in a params struct; [BindFlags]
// registers the --socket flag through the [FlagBinder] interface.
type Connection struct {
	SocketPath string
}

// AddFlags registers the connection flags.
func (c *Connection) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.SocketPath, "socket", "",
		"docket-service socket path (default: $DOCKET_SOCKET, then the config file)")
}

// Connect resolves the socket path and returns a client for it. No
// connection is made until the first call.
func (c *Connection) Connect() (*service.Client, error) {
	path, err := c.resolveSocketPath()
	if err != nil {
		return nil, err
	}
	return service.NewClient(path), nil
}

// resolveSocketPath resolves in order: the --socket flag, the
// DOCKET_SOCKET environment variable, the service section of the
// config file named by DOCKET_CONFIG.
func (c *Connection) resolveSocketPath() (string, error) {
	if c.SocketPath != "" {
		return c.SocketPath, nil
	}
	if env := os.Getenv(SocketEnvVar); env != "" {
		return env, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("locating docket-service socket: %w (or pass --socket)", err)
	}
	if cfg.Service.SocketPath == "" {
		return "", fmt.Errorf("config file does not name a service socket; pass --socket")
	}
	return cfg.Service.SocketPath, nil
}

// CallContext bounds a single service call derived from the provided
// parent. Advance calls block up to the daemon's poll timeout, so the
// bound sits well above it.
func CallContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, 30*time.Second)
}
