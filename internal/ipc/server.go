package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/intellidock/internal/geometry"
	"github.com/1broseidon/intellidock/internal/runtimepath"
)

// Handler executes IPC commands against the running daemon. Implementations
// are called from connection goroutines.
type Handler interface {
	Status() (StatusData, error)
	Monitors() ([]MonitorInfo, error)
	Recheck() (RecheckData, error)
	SetAutoHide(mode AutoHideMode) (bool, error)
	Reload() error
	ListGeometry() ([]geometry.Entry, error)
	ForgetGeometry(appID string) error
	ClearGeometry() (int, error)
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	handler      Handler
	logger       *slog.Logger
	startTime    time.Time
	wg           sync.WaitGroup
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a server on socketPath, or on the runtime socket when
// socketPath is empty.
func NewServer(socketPath string, handler Handler, logger *slog.Logger) (*Server, error) {
	if socketPath == "" {
		path, err := runtimepath.SocketPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
		}
		socketPath = path
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		socketPath: socketPath,
		handler:    handler,
		logger:     logger,
		startTime:  time.Now(),
	}, nil
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Uptime returns the time since the server was created.
func (s *Server) Uptime() time.Duration {
	return time.Since(s.startTime)
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	// Remove a stale socket left by a crashed daemon.
	os.Remove(s.socketPath)

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

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			stopping := s.shuttingDown
			s.shutdownMu.Unlock()
			if stopping || errors.Is(err, net.ErrClosed) {
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

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(30 * time.Second))

	reader := bufio.NewReader(conn)

	// One JSON request per line.
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Debug("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.send(conn, NewErrorResponse(fmt.Sprintf("Invalid request: %v", err)))
		return
	}

	s.send(conn, s.handleCommand(req))
}

func (s *Server) send(conn net.Conn, resp *Response) {
	data, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal IPC response", "error", err)
		return
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		s.logger.Debug("failed to send IPC response", "error", err)
	}
}

func (s *Server) handleCommand(req *Request) *Response {
	s.logger.Debug("IPC command", "command", req.Command)

	switch req.Command {
	case CommandReload:
		if err := s.handler.Reload(); err != nil {
			return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
		}
		return ok(nil)
	case CommandGetStatus:
		status, err := s.handler.Status()
		if err != nil {
			return NewErrorResponse(fmt.Sprintf("Failed to get status: %v", err))
		}
		status.UptimeSeconds = int64(s.Uptime().Seconds())
		status.DaemonRunning = true
		return ok(status)
	case CommandGetMonitors:
		monitors, err := s.handler.Monitors()
		if err != nil {
			return NewErrorResponse(fmt.Sprintf("Failed to get monitors: %v", err))
		}
		return ok(MonitorsData{Monitors: monitors})
	case CommandRecheck:
		data, err := s.handler.Recheck()
		if err != nil {
			return NewErrorResponse(fmt.Sprintf("Failed to recheck: %v", err))
		}
		return ok(data)
	case CommandSetAutoHide:
		var payload SetAutoHidePayload
		if err := decodePayload(req.Payload, &payload); err != nil {
			return NewErrorResponse(fmt.Sprintf("Invalid autohide payload: %v", err))
		}
		mode, err := ParseAutoHideMode(string(payload.Mode))
		if err != nil {
			return NewErrorResponse(err.Error())
		}
		on, err := s.handler.SetAutoHide(mode)
		if err != nil {
			return NewErrorResponse(fmt.Sprintf("Failed to set autohide: %v", err))
		}
		return ok(AutoHideData{AutoHide: on})
	case CommandListGeometry:
		entries, err := s.handler.ListGeometry()
		if err != nil {
			return NewErrorResponse(fmt.Sprintf("Failed to list geometry: %v", err))
		}
		if entries == nil {
			entries = []geometry.Entry{}
		}
		return ok(GeometryData{Entries: entries})
	case CommandForgetGeometry:
		var payload ForgetGeometryPayload
		if err := decodePayload(req.Payload, &payload); err != nil {
			return NewErrorResponse(fmt.Sprintf("Invalid forget payload: %v", err))
		}
		if payload.AppID == "" {
			return NewErrorResponse("app_id is required")
		}
		if err := s.handler.ForgetGeometry(payload.AppID); err != nil {
			if errors.Is(err, geometry.ErrNotFound) {
				return NewErrorResponse(fmt.Sprintf("No saved geometry for %s", payload.AppID))
			}
			return NewErrorResponse(fmt.Sprintf("Failed to forget geometry: %v", err))
		}
		return ok(nil)
	case CommandClearGeometry:
		n, err := s.handler.ClearGeometry()
		if err != nil {
			return NewErrorResponse(fmt.Sprintf("Failed to clear geometry: %v", err))
		}
		return ok(ClearGeometryData{Removed: n})
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func ok(data any) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func decodePayload(payload json.RawMessage, out any) error {
	if len(payload) == 0 {
		return nil
	}
	return json.Unmarshal(payload, out)
}

// Stop closes the listener, waits for in-flight requests and removes the socket.
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
