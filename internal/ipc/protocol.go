package ipc

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/1broseidon/intellidock/internal/autohide"
	"github.com/1broseidon/intellidock/internal/dock"
	"github.com/1broseidon/intellidock/internal/geometry"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload         CommandType = "RELOAD"
	CommandGetStatus      CommandType = "GET_STATUS"
	CommandGetMonitors    CommandType = "GET_MONITORS"
	CommandRecheck        CommandType = "RECHECK"
	CommandSetAutoHide    CommandType = "SET_AUTOHIDE"
	CommandListGeometry   CommandType = "LIST_GEOMETRY"
	CommandForgetGeometry CommandType = "FORGET_GEOMETRY"
	CommandClearGeometry  CommandType = "CLEAR_GEOMETRY"
)

const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// GeometryStatus summarizes the geometry manager.
type GeometryStatus struct {
	Enabled bool `json:"enabled"`
	Tracked int  `json:"tracked_windows"`
	Pending int  `json:"pending_saves"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	Dock          autohide.Status `json:"dock"`
	Geometry      GeometryStatus  `json:"geometry"`
	DockWindow    string          `json:"dock_window,omitempty"`
	ConfigFile    string          `json:"config_file,omitempty"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	DaemonRunning bool            `json:"daemon_running"`
}

// MonitorInfo represents information about a single monitor
type MonitorInfo struct {
	dock.Monitor
	Primary bool `json:"primary"`
	// Dock marks the monitor the dock is placed on.
	Dock bool `json:"dock"`
}

// MonitorsData represents the data returned by GET_MONITORS
type MonitorsData struct {
	Monitors []MonitorInfo `json:"monitors"`
}

// RecheckData is returned by RECHECK.
type RecheckData struct {
	Obstructed bool   `json:"obstructed"`
	Visibility string `json:"visibility"`
	Active     bool   `json:"active"`
}

// AutoHideMode is the requested change for SET_AUTOHIDE.
type AutoHideMode string

const (
	AutoHideOn     AutoHideMode = "on"
	AutoHideOff    AutoHideMode = "off"
	AutoHideToggle AutoHideMode = "toggle"
)

// ParseAutoHideMode accepts on/off/toggle and common boolean spellings.
func ParseAutoHideMode(s string) (AutoHideMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "enable", "1":
		return AutoHideOn, nil
	case "off", "false", "disable", "0":
		return AutoHideOff, nil
	case "toggle", "":
		return AutoHideToggle, nil
	default:
		return "", fmt.Errorf("invalid autohide mode %q (want on, off or toggle)", s)
	}
}

type SetAutoHidePayload struct {
	Mode AutoHideMode `json:"mode"`
}

type AutoHideData struct {
	AutoHide bool `json:"autohide"`
}

type GeometryData struct {
	Entries []geometry.Entry `json:"entries"`
}

type ForgetGeometryPayload struct {
	AppID string `json:"app_id"`
}

type ClearGeometryData struct {
	Removed int `json:"removed"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: StatusOK,
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: StatusError,
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	if req.Command == "" {
		return nil, fmt.Errorf("request has no command")
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
