package mcp

import (
	"fmt"
	"time"

	"github.com/1broseidon/intellidock/internal/dock"
	"github.com/1broseidon/intellidock/internal/geometry"
	"github.com/1broseidon/intellidock/internal/ipc"
)

// DockStatusInput is the input for the dock_status tool.
type DockStatusInput struct{}

// DockStatusOutput is the output for the dock_status tool.
type DockStatusOutput struct {
	Enabled         bool      `json:"enabled"`
	AutoHide        bool      `json:"autohide"`
	Active          bool      `json:"active"`
	Overview        bool      `json:"overview"`
	Obstructed      bool      `json:"obstructed"`
	Hovering        bool      `json:"hovering"`
	Visibility      string    `json:"visibility"`
	Position        string    `json:"position"`
	Monitor         int       `json:"monitor"`
	Candidate       dock.Rect `json:"candidate"`
	TrackedWindows  int       `json:"tracked_windows"`
	Rechecks        int       `json:"rechecks"`
	LastReason      string    `json:"last_reason,omitempty"`
	LastRecheck     string    `json:"last_recheck,omitempty"`
	Obstructor      string    `json:"obstructor,omitempty"`
	DockWindow      string    `json:"dock_window,omitempty"`
	GeometryEnabled bool      `json:"geometry_enabled"`
	GeometryTracked int       `json:"geometry_tracked_windows"`
	GeometryPending int       `json:"geometry_pending_saves"`
	UptimeSeconds   int64     `json:"uptime_seconds"`
}

// DockMonitorsInput is the input for the dock_monitors tool.
type DockMonitorsInput struct{}

// MonitorInfo describes one monitor.
type MonitorInfo struct {
	Index   int    `json:"index"`
	Name    string `json:"name,omitempty"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Primary bool   `json:"primary"`
	Dock    bool   `json:"dock"`
}

// DockMonitorsOutput is the output for the dock_monitors tool.
type DockMonitorsOutput struct {
	Monitors []MonitorInfo `json:"monitors"`
}

// DockRecheckInput is the input for the dock_recheck tool.
type DockRecheckInput struct{}

// DockRecheckOutput is the output for the dock_recheck tool.
type DockRecheckOutput struct {
	Obstructed bool   `json:"obstructed"`
	Visibility string `json:"visibility"`
	Active     bool   `json:"active"`
}

// SetAutoHideInput is the input for the dock_set_autohide tool.
type SetAutoHideInput struct {
	Mode string `json:"mode,omitempty" jsonschema:"on, off or toggle (default: toggle)"`
}

// SetAutoHideOutput is the output for the dock_set_autohide tool.
type SetAutoHideOutput struct {
	AutoHide bool `json:"autohide"`
}

// GeometryListInput is the input for the geometry_list tool.
type GeometryListInput struct {
	AppID string `json:"app_id,omitempty" jsonschema:"Only return the entry for this WM_CLASS"`
}

// GeometryEntry is one remembered window frame.
type GeometryEntry struct {
	AppID     string `json:"app_id"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// GeometryListOutput is the output for the geometry_list tool.
type GeometryListOutput struct {
	Entries []GeometryEntry `json:"entries"`
}

// GeometryForgetInput is the input for the geometry_forget tool.
type GeometryForgetInput struct {
	AppID string `json:"app_id" jsonschema:"WM_CLASS of the application whose saved geometry is removed"`
}

// GeometryForgetOutput is the output for the geometry_forget tool.
type GeometryForgetOutput struct {
	AppID     string `json:"app_id"`
	Forgotten bool   `json:"forgotten"`
}

// GeometryClearInput is the input for the geometry_clear tool.
type GeometryClearInput struct{}

// GeometryClearOutput is the output for the geometry_clear tool.
type GeometryClearOutput struct {
	Removed int `json:"removed"`
}

func statusOutput(s *ipc.StatusData) DockStatusOutput {
	d := s.Dock
	out := DockStatusOutput{
		Enabled:         d.Enabled,
		AutoHide:        d.AutoHide,
		Active:          d.Active,
		Overview:        d.Overview,
		Obstructed:      d.Obstructed,
		Hovering:        d.Hovering,
		Visibility:      d.Visibility,
		Position:        d.Position,
		Monitor:         d.Monitor,
		Candidate:       d.Candidate,
		TrackedWindows:  d.TrackedWindows,
		Rechecks:        d.Rechecks,
		LastReason:      d.LastReason,
		LastRecheck:     formatTime(d.LastRecheck),
		DockWindow:      s.DockWindow,
		GeometryEnabled: s.Geometry.Enabled,
		GeometryTracked: s.Geometry.Tracked,
		GeometryPending: s.Geometry.Pending,
		UptimeSeconds:   s.UptimeSeconds,
	}
	if d.Obstructor != 0 {
		out.Obstructor = fmt.Sprintf("0x%x", d.Obstructor)
	}
	return out
}

func monitorInfo(m ipc.MonitorInfo) MonitorInfo {
	return MonitorInfo{
		Index:   m.Index,
		Name:    m.Name,
		X:       m.X,
		Y:       m.Y,
		Width:   m.Width,
		Height:  m.Height,
		Primary: m.Primary,
		Dock:    m.Dock,
	}
}

func geometryEntry(e geometry.Entry) GeometryEntry {
	return GeometryEntry{
		AppID:     e.AppID,
		X:         e.X,
		Y:         e.Y,
		Width:     e.Width,
		Height:    e.Height,
		UpdatedAt: formatTime(e.UpdatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
