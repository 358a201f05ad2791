// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/docket-works/docket/lib/codec"
)

// ActionFunc handles requests for one registered action. It receives
// the complete CBOR request bytes, "action" field included, and
// decodes whatever fields it needs from them.
//
// A nil result with a nil error produces a bare {ok: true} response.
// A non-nil result is marshaled into the response's "data" field. An
// error becomes an {ok: false} response carrying the error text.
type ActionFunc func(ctx context.Context, raw []byte) (any, error)

// Response is the envelope every socket reply travels in. The server
// builds it from the handler's result and error; clients never see
// handler values outside this wrapper.
type Response struct {
	OK    bool             `cbor:"ok"`
	Error string           `cbor:"error,omitempty"`
	Data  codec.RawMessage `cbor:"data,omitempty"`
}

// Server answers CBOR requests on a Unix socket. The protocol is one
// exchange per connection: the client writes a single CBOR value, the
// server writes a single Response, and the connection closes. CBOR
// values delimit themselves, so there is no framing layer.
//
// Register actions with Handle before calling Serve; requests naming
// anything else get an error response.
type Server struct {
	socketPath string
	handlers   map[string]ActionFunc
	logger     *slog.Logger

	// activeConnections holds Serve open until every accepted
	// connection has finished its exchange.
	activeConnections sync.WaitGroup
}

// NewServer creates a server that will listen on socketPath. Register
// actions with Handle before calling Serve.
func NewServer(socketPath string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		socketPath: socketPath,
		handlers:   make(map[string]ActionFunc),
		logger:     logger,
	}
}

// Handle registers a handler for the given action name. Panics if the
// action is already registered: action names are a compile-time
// surface, and a duplicate is a programming error.
func (s *Server) Handle(action string, handler ActionFunc) {
	if _, exists := s.handlers[action]; exists {
		panic(fmt.Sprintf("service.Server: duplicate handler for action %q", action))
	}
	s.handlers[action] = handler
}

// Serve starts accepting connections on the Unix socket and dispatches
// requests to registered action handlers. Blocks until ctx is
// cancelled, then stops accepting new connections and waits for active
// handlers to complete.
//
// Any existing socket file at the configured path is removed before
// listening: a leftover file from an unclean shutdown would otherwise
// block the bind forever. The file is removed again on return.
func (s *Server) Serve(ctx context.Context) error {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", s.socketPath, err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.socketPath, err)
	}
	defer os.Remove(s.socketPath)
	defer listener.Close()

	// Closing the listener is the only way to unblock Accept.
	stopOnCancel := context.AfterFunc(ctx, func() {
		listener.Close()
	})
	defer stopOnCancel()

	s.logger.Info("socket server listening", "path", s.socketPath)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		s.activeConnections.Add(1)
		go func() {
			defer s.activeConnections.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.activeConnections.Wait()
	return nil
}

// readTimeout is how long we wait for the client to send its request.
// A well-behaved client sends the request immediately after connecting.
const readTimeout = 30 * time.Second

// writeTimeout is how long we wait for the response to be written.
const writeTimeout = 10 * time.Second

// maxRequestSize is the maximum size of a single CBOR request. 1 MB
// is generous: the largest request is a job creation carrying a full
// markdown task description.
const maxRequestSize = 1024 * 1024

// handleConnection runs one request-response cycle and closes the
// connection.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(readTimeout))

	raw, err := readRequest(conn)
	if err != nil {
		if errors.Is(err, io.EOF) {
			// Connected and hung up without sending anything. Common
			// for liveness probes; not worth a response or a log line.
			return
		}
		s.reply(conn, Response{Error: err.Error()})
		return
	}

	action, err := requestAction(raw)
	if err != nil {
		s.reply(conn, Response{Error: err.Error()})
		return
	}

	handler, known := s.handlers[action]
	if !known {
		s.reply(conn, Response{Error: fmt.Sprintf("unknown action %q", action)})
		return
	}

	result, err := handler(ctx, []byte(raw))
	if err != nil {
		s.logger.Debug("action failed",
			"action", action,
			"error", err,
		)
		s.reply(conn, Response{Error: err.Error()})
		return
	}

	response := Response{OK: true}
	if result != nil {
		data, err := codec.Marshal(result)
		if err != nil {
			s.reply(conn, Response{Error: fmt.Sprintf("internal: encoding result: %v", err)})
			return
		}
		response.Data = data
	}
	s.reply(conn, response)
}

// readRequest decodes one CBOR value from the connection. CBOR is
// self-delimiting, so no framing protocol is needed. The size cap
// keeps a misbehaving client from exhausting memory; when it trips,
// the decoder sees a truncated stream, so the cap is reported
// explicitly instead of as a confusing EOF.
//
// Returns io.EOF unwrapped when the client sent nothing at all.
func readRequest(conn net.Conn) (codec.RawMessage, error) {
	limited := &io.LimitedReader{R: conn, N: maxRequestSize}
	var raw codec.RawMessage
	err := codec.NewDecoder(limited).Decode(&raw)
	switch {
	case err == nil:
		return raw, nil
	case limited.N == 0:
		return nil, fmt.Errorf("request exceeds the %d byte limit", maxRequestSize)
	case errors.Is(err, io.EOF):
		return nil, io.EOF
	default:
		return nil, fmt.Errorf("invalid request: %v", err)
	}
}

// requestAction extracts the routing field from a raw request.
func requestAction(raw codec.RawMessage) (string, error) {
	var envelope struct {
		Action string `cbor:"action"`
	}
	if err := codec.Unmarshal(raw, &envelope); err != nil {
		return "", fmt.Errorf("invalid request: %v", err)
	}
	if envelope.Action == "" {
		return "", errors.New("missing required field: action")
	}
	return envelope.Action, nil
}

// reply encodes a response envelope onto the connection. Write
// failures are logged at debug level; the connection is closing
// regardless, and the client surfaces its own error.
func (s *Server) reply(conn net.Conn, response Response) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := codec.NewEncoder(conn).Encode(response); err != nil {
		s.logger.Debug("response write failed", "error", err)
	}
}
