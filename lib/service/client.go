// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"fmt"
	"io"
	"maps"
	"net"
	"time"

	"github.com/docket-works/docket/lib/codec"
)

// dialTimeout caps the connect phase of a Call. Once connected, the
// read deadline below governs the rest of the exchange.
const dialTimeout = 5 * time.Second

// responseReadTimeout is how long the client waits for the server's
// response after writing the request. Sized to the server's read and
// write timeouts combined, so a slow handler is not cut off early.
const responseReadTimeout = 45 * time.Second

// maxResponseSize mirrors the server's request cap.
const maxResponseSize = 1024 * 1024

// Error is returned by Call when the server responds with ok=false.
// It carries the failing action and the server's message so callers
// can tell daemon-reported failures from transport problems.
type Error struct {
	Action  string
	Message string
}

func (e *Error) Error() string {
	return e.Action + ": " + e.Message
}

// Client sends CBOR requests to a docket service socket. Each Call
// opens a fresh connection, mirroring the server's one request per
// connection model.
type Client struct {
	socketPath string
}

// NewClient creates a client for the service socket at socketPath.
// Access control is the socket file's permissions.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// Call sends a request for the named action and decodes the response.
//
// fields carries the handler-specific request fields and may be nil
// for actions without parameters; the "action" key is reserved for
// the client. On ok=true, response data (if any) is decoded into
// result when result is non-nil. On ok=false, the returned error is
// a *Error. Transport and encoding failures come back as plain
// errors.
func (c *Client) Call(ctx context.Context, action string, fields map[string]any, result any) error {
	request := maps.Clone(fields)
	if request == nil {
		request = make(map[string]any, 1)
	}
	request["action"] = action

	response, err := c.exchange(ctx, request)
	if err != nil {
		return fmt.Errorf("calling %q on %s: %w", action, c.socketPath, err)
	}
	if !response.OK {
		return &Error{Action: action, Message: response.Error}
	}
	if result != nil && len(response.Data) > 0 {
		if err := codec.Unmarshal(response.Data, result); err != nil {
			return fmt.Errorf("decoding response data for %q: %w", action, err)
		}
	}
	return nil
}

// exchange performs one request-response cycle on a new connection.
func (c *Client) exchange(ctx context.Context, request map[string]any) (*Response, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("connecting: %w", err)
	}
	defer conn.Close()

	// A context deadline tighter than the default read timeout wins.
	readDeadline := time.Now().Add(responseReadTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(readDeadline) {
		readDeadline = ctxDeadline
	}

	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		return nil, fmt.Errorf("writing request: %w", err)
	}

	// Half-close the write side so the server's read sees EOF once the
	// request is consumed. CBOR is self-delimiting, so the response
	// still arrives on the read side of the same connection.
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}

	conn.SetReadDeadline(readDeadline)
	var response Response
	if err := codec.NewDecoder(io.LimitReader(conn, maxResponseSize)).Decode(&response); err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return &response, nil
}
