package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/wlframe/internal/platform"
	"github.com/1broseidon/wlframe/internal/window"
)

// DefaultTimeout bounds one request, including the wait for the session.
const DefaultTimeout = 5 * time.Second

// Inspector runs fn against the live session on its owning goroutine.
// dispatch.Loop implements it.
type Inspector interface {
	Call(ctx context.Context, fn func(*window.Session)) error
}

// ServerConfig holds configuration for a Server.
type ServerConfig struct {
	SocketPath string
	// Source names what the session is running, such as a trace path.
	Source  string
	Timeout time.Duration
	Logger  *slog.Logger
}

// Server answers inspection requests from clients
type Server struct {
	socketPath string
	source     string
	timeout    time.Duration
	listener   net.Listener
	inspector  Inspector
	logger     *slog.Logger

	wg           sync.WaitGroup
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server
func NewServer(insp Inspector, cfg ServerConfig) (*Server, error) {
	if cfg.SocketPath == "" {
		return nil, errors.New("socket path is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	// Remove a stale socket left by a previous run.
	if err := os.Remove(cfg.SocketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to remove stale socket: %w", err)
	}

	return &Server{
		socketPath: cfg.SocketPath,
		source:     cfg.Source,
		timeout:    cfg.Timeout,
		inspector:  insp,
		logger:     cfg.Logger,
	}, nil
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.stopping() {
				return
			}
			s.logger.Warn("IPC accept error", "error", err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

func (s *Server) stopping() bool {
	s.shutdownMu.Lock()
	defer s.shutdownMu.Unlock()
	return s.shuttingDown
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(s.timeout))

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.send(conn, NewErrorResponse(fmt.Sprintf("Invalid request: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	s.send(conn, s.handleCommand(ctx, req))
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(ctx context.Context, req *Request) *Response {
	s.logger.Debug("IPC request", "command", req.Command)
	switch req.Command {
	case CommandGetStatus:
		return s.handleGetStatus(ctx)
	case CommandGetWindows:
		return s.handleGetWindows(ctx)
	case CommandGetWindow:
		return s.handleGetWindow(ctx, req.Payload)
	case CommandGetOffers:
		return s.handleGetOffers(ctx)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

// query runs fn on the session goroutine and turns its result into a
// response.
func (s *Server) query(ctx context.Context, fn func(*window.Session) (any, error)) *Response {
	var data any
	var qerr error
	if err := s.inspector.Call(ctx, func(sess *window.Session) {
		data, qerr = fn(sess)
	}); err != nil {
		return NewErrorResponse(fmt.Sprintf("Session unavailable: %v", err))
	}
	if qerr != nil {
		return NewErrorResponse(qerr.Error())
	}
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) handleGetStatus(ctx context.Context) *Response {
	return s.query(ctx, func(sess *window.Session) (any, error) {
		return StatusData{Status: sess.Status(), Source: s.source}, nil
	})
}

func (s *Server) handleGetWindows(ctx context.Context) *Response {
	return s.query(ctx, func(sess *window.Session) (any, error) {
		infos := sess.WindowInfos()
		if infos == nil {
			infos = []window.Info{}
		}
		return WindowsData{Windows: infos}, nil
	})
}

func (s *Server) handleGetWindow(ctx context.Context, payload json.RawMessage) *Response {
	var req WindowPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid window payload: %v", err))
	}
	return s.query(ctx, func(sess *window.Session) (any, error) {
		w, ok := sess.Window(platform.WindowID(req.ID))
		if !ok {
			return nil, fmt.Errorf("unknown window %d", req.ID)
		}
		return w.Info(), nil
	})
}

func (s *Server) handleGetOffers(ctx context.Context) *Response {
	return s.query(ctx, func(sess *window.Session) (any, error) {
		infos := sess.OfferInfos()
		if infos == nil {
			infos = []window.OfferInfo{}
		}
		return OffersData{Offers: infos}, nil
	})
}

func (s *Server) send(conn net.Conn, resp *Response) {
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

// Stop closes the listener, waits for in-flight requests and removes the
// socket.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	os.Remove(s.socketPath)
}
