// Package mcp exposes the running intellidock daemon to MCP clients over
// stdio. Every tool is a thin call through the IPC client.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/intellidock/internal/geometry"
	"github.com/1broseidon/intellidock/internal/ipc"
)

const (
	ServerName    = "intellidock"
	ServerVersion = "0.1.0"
)

// DaemonClient is the part of ipc.Client the tools use.
type DaemonClient interface {
	GetStatus() (*ipc.StatusData, error)
	GetMonitors() (*ipc.MonitorsData, error)
	Recheck() (*ipc.RecheckData, error)
	SetAutoHide(mode ipc.AutoHideMode) (bool, error)
	ListGeometry() ([]geometry.Entry, error)
	ForgetGeometry(appID string) error
	ClearGeometry() (int, error)
}

var _ DaemonClient = (*ipc.Client)(nil)

// Server is the MCP server for intellidock.
type Server struct {
	mcpServer *mcpsdk.Server
	client    DaemonClient
	logger    *slog.Logger
}

// NewServer creates a server that forwards tool calls to client.
func NewServer(client DaemonClient, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		client: client,
		logger: logger,
	}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "dock_status",
		Description: "Report the dock's auto-hide state: whether intellihide is active, whether a window currently obstructs the dock, the pointer hover state, the derived visibility, and geometry restore counters.",
	}, s.handleDockStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "dock_monitors",
		Description: "List the monitors known to the daemon and mark the one the dock is placed on.",
	}, s.handleDockMonitors)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "dock_recheck",
		Description: "Force an immediate obstruction check and return the result. Pending debounced checks are superseded.",
	}, s.handleDockRecheck)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "dock_set_autohide",
		Description: "Turn intellihide on or off, or toggle it. When off the dock stays visible. The change lasts until the daemon reloads its config.",
	}, s.handleSetAutoHide)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "geometry_list",
		Description: "List remembered window geometry per application (WM_CLASS), including entries not yet written to disk.",
	}, s.handleGeometryList)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "geometry_forget",
		Description: "Forget the remembered geometry of one application so its next window opens where the window manager places it.",
	}, s.handleGeometryForget)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "geometry_clear",
		Description: "Forget the remembered geometry of every application.",
	}, s.handleGeometryClear)
}

func (s *Server) handleDockStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ DockStatusInput) (*mcpsdk.CallToolResult, DockStatusOutput, error) {
	status, err := s.client.GetStatus()
	if err != nil {
		return nil, DockStatusOutput{}, err
	}
	return nil, statusOutput(status), nil
}

func (s *Server) handleDockMonitors(_ context.Context, _ *mcpsdk.CallToolRequest, _ DockMonitorsInput) (*mcpsdk.CallToolResult, DockMonitorsOutput, error) {
	data, err := s.client.GetMonitors()
	if err != nil {
		return nil, DockMonitorsOutput{}, err
	}
	monitors := make([]MonitorInfo, 0, len(data.Monitors))
	for _, m := range data.Monitors {
		monitors = append(monitors, monitorInfo(m))
	}
	return nil, DockMonitorsOutput{Monitors: monitors}, nil
}

func (s *Server) handleDockRecheck(_ context.Context, _ *mcpsdk.CallToolRequest, _ DockRecheckInput) (*mcpsdk.CallToolResult, DockRecheckOutput, error) {
	data, err := s.client.Recheck()
	if err != nil {
		return nil, DockRecheckOutput{}, err
	}
	s.logger.Debug("mcp: recheck", "obstructed", data.Obstructed, "visibility", data.Visibility)
	return nil, DockRecheckOutput{
		Obstructed: data.Obstructed,
		Visibility: data.Visibility,
		Active:     data.Active,
	}, nil
}

func (s *Server) handleSetAutoHide(_ context.Context, _ *mcpsdk.CallToolRequest, args SetAutoHideInput) (*mcpsdk.CallToolResult, SetAutoHideOutput, error) {
	mode, err := ipc.ParseAutoHideMode(args.Mode)
	if err != nil {
		return nil, SetAutoHideOutput{}, err
	}
	on, err := s.client.SetAutoHide(mode)
	if err != nil {
		return nil, SetAutoHideOutput{}, err
	}
	s.logger.Info("mcp: autohide changed", "mode", mode, "autohide", on)
	return nil, SetAutoHideOutput{AutoHide: on}, nil
}

func (s *Server) handleGeometryList(_ context.Context, _ *mcpsdk.CallToolRequest, args GeometryListInput) (*mcpsdk.CallToolResult, GeometryListOutput, error) {
	entries, err := s.client.ListGeometry()
	if err != nil {
		return nil, GeometryListOutput{}, err
	}
	out := make([]GeometryEntry, 0, len(entries))
	for _, e := range entries {
		if args.AppID != "" && !strings.EqualFold(e.AppID, args.AppID) {
			continue
		}
		out = append(out, geometryEntry(e))
	}
	return nil, GeometryListOutput{Entries: out}, nil
}

func (s *Server) handleGeometryForget(_ context.Context, _ *mcpsdk.CallToolRequest, args GeometryForgetInput) (*mcpsdk.CallToolResult, GeometryForgetOutput, error) {
	appID := strings.TrimSpace(args.AppID)
	if appID == "" {
		return nil, GeometryForgetOutput{}, fmt.Errorf("app_id is required")
	}
	if err := s.client.ForgetGeometry(appID); err != nil {
		return nil, GeometryForgetOutput{}, err
	}
	s.logger.Info("mcp: geometry forgotten", "app", appID)
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: fmt.Sprintf("Forgot saved geometry for %s", appID)},
		},
	}, GeometryForgetOutput{AppID: appID, Forgotten: true}, nil
}

func (s *Server) handleGeometryClear(_ context.Context, _ *mcpsdk.CallToolRequest, _ GeometryClearInput) (*mcpsdk.CallToolResult, GeometryClearOutput, error) {
	n, err := s.client.ClearGeometry()
	if err != nil {
		return nil, GeometryClearOutput{}, err
	}
	s.logger.Info("mcp: geometry cleared", "removed", n)
	return nil, GeometryClearOutput{Removed: n}, nil
}
