package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/gizmotray/internal/logging"
	"github.com/1broseidon/gizmotray/internal/registry"
)

// handlerTimeout bounds how long the server lets the gizmo work on one call.
const handlerTimeout = 5 * time.Second

// Server answers coordinator calls on behalf of one gizmo.
type Server struct {
	name     registry.Endpoint
	contract registry.Contract
	gizmo    Gizmo
	listener net.Listener
	logger   *slog.Logger

	closed       chan struct{}
	closeOnce    sync.Once
	conns        sync.WaitGroup
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer wraps gizmo behind listener, which is normally obtained from
// registry.Dir.Register.
func NewServer(listener net.Listener, name registry.Endpoint, contract registry.Contract, gizmo Gizmo, logger *slog.Logger) *Server {
	return &Server{
		name:     name,
		contract: contract,
		gizmo:    gizmo,
		listener: listener,
		logger:   logging.OrDiscard(logger),
		closed:   make(chan struct{}),
	}
}

// Start begins accepting connections in the background.
func (s *Server) Start() {
	s.logger.Info("gizmo listening", "endpoint", s.name, "address", s.listener.Addr().String())
	go s.acceptLoop()
}

// Closed is closed once the gizmo has accepted a CLOSE command.
func (s *Server) Closed() <-chan struct{} {
	return s.closed
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			stopping := s.shuttingDown
			s.shutdownMu.Unlock()
			if stopping {
				return
			}
			s.logger.Warn("gizmo accept error", "error", err)
			continue
		}

		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handleConnection(conn)
		}()
	}
}

// handleConnection handles a single request/response exchange
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(handlerTimeout))

	reader := bufio.NewReader(conn)

	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("gizmo read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.writeResponse(conn, NewErrorResponse(fmt.Sprintf("Invalid request: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	s.writeResponse(conn, s.handleCommand(ctx, req))
}

// handleCommand dispatches a request to the gizmo
func (s *Server) handleCommand(ctx context.Context, req *Request) *Response {
	switch req.Command {
	case CommandPing:
		return s.handlePing()
	case CommandActivate:
		return s.simple(s.gizmo.Activate(ctx), "activate")
	case CommandClose:
		return s.handleClose(ctx)
	case CommandGetScreenRectangle:
		return s.handleGetScreenRectangle(ctx)
	case CommandMoveTo:
		return s.handleMoveTo(ctx, req.Payload)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handlePing() *Response {
	data := PingData{
		Name:     string(s.name),
		Contract: string(s.contract),
		PID:      os.Getpid(),
	}
	if t, ok := s.gizmo.(Titled); ok {
		data.Title = t.Title()
	}
	resp, _ := NewOKResponse(data)
	return resp
}

func (s *Server) handleClose(ctx context.Context) *Response {
	if err := s.gizmo.Close(ctx); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to close: %v", err))
	}
	s.closeOnce.Do(func() { close(s.closed) })
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleGetScreenRectangle(ctx context.Context) *Response {
	rect, err := s.gizmo.ScreenRectangle(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to get screen rectangle: %v", err))
	}
	resp, err := NewOKResponse(rect)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) handleMoveTo(ctx context.Context, payload json.RawMessage) *Response {
	var req MoveToPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid move payload: %v", err))
	}
	return s.simple(s.gizmo.MoveTo(ctx, req.Left, req.Top), "move")
}

func (s *Server) simple(err error, what string) *Response {
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to %s: %v", what, err))
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) writeResponse(conn net.Conn, resp *Response) {
	data, err := resp.Marshal()
	if err != nil {
		s.logger.Warn("failed to marshal response", "error", err)
		return
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		s.logger.Warn("failed to send response", "error", err)
	}
}

// Stop closes the listener, which also removes the registry socket, and
// waits for in-flight calls.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	s.listener.Close()
	s.conns.Wait()
}
