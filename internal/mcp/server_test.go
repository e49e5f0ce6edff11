package mcp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/intellidock/internal/autohide"
	"github.com/1broseidon/intellidock/internal/dock"
	"github.com/1broseidon/intellidock/internal/geometry"
	"github.com/1broseidon/intellidock/internal/ipc"
)

type fakeClient struct {
	autohide bool
	entries  []geometry.Entry
	err      error
	forgot   []string
	modes    []ipc.AutoHideMode
}

func (c *fakeClient) GetStatus() (*ipc.StatusData, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &ipc.StatusData{
		Dock: autohide.Status{
			Active:      true,
			AutoHide:    c.autohide,
			Obstructed:  true,
			Visibility:  "hidden",
			Obstructor:  0x1e00007,
			LastRecheck: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		Geometry:      ipc.GeometryStatus{Enabled: true, Tracked: 4, Pending: 1},
		DockWindow:    "0x1c00003",
		UptimeSeconds: 42,
		DaemonRunning: true,
	}, nil
}

func (c *fakeClient) GetMonitors() (*ipc.MonitorsData, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &ipc.MonitorsData{Monitors: []ipc.MonitorInfo{
		{Monitor: dock.Monitor{Index: 0, Name: "DP-1", Width: 1920, Height: 1080}, Primary: true, Dock: true},
	}}, nil
}

func (c *fakeClient) Recheck() (*ipc.RecheckData, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &ipc.RecheckData{Obstructed: false, Visibility: "visible", Active: true}, nil
}

func (c *fakeClient) SetAutoHide(mode ipc.AutoHideMode) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	c.modes = append(c.modes, mode)
	switch mode {
	case ipc.AutoHideOn:
		c.autohide = true
	case ipc.AutoHideOff:
		c.autohide = false
	default:
		c.autohide = !c.autohide
	}
	return c.autohide, nil
}

func (c *fakeClient) ListGeometry() ([]geometry.Entry, error) {
	return c.entries, c.err
}

func (c *fakeClient) ForgetGeometry(appID string) error {
	if c.err != nil {
		return c.err
	}
	c.forgot = append(c.forgot, appID)
	return nil
}

func (c *fakeClient) ClearGeometry() (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n := len(c.entries)
	c.entries = nil
	return n, nil
}

func newTestServer(c DaemonClient) *Server {
	return NewServer(c, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestDockStatusTool(t *testing.T) {
	s := newTestServer(&fakeClient{autohide: true})
	_, out, err := s.handleDockStatus(context.Background(), nil, DockStatusInput{})
	if err != nil {
		t.Fatalf("dock_status: %v", err)
	}
	if !out.AutoHide || !out.Obstructed || out.Visibility != "hidden" || out.Obstructor != "0x1e00007" {
		t.Fatalf("unexpected dock status %+v", out)
	}
	if out.LastRecheck != "2026-03-01T12:00:00Z" {
		t.Fatalf("last recheck = %q", out.LastRecheck)
	}
	if out.GeometryTracked != 4 || out.DockWindow != "0x1c00003" || out.UptimeSeconds != 42 {
		t.Fatalf("unexpected status %+v", out)
	}
}

func TestToolsSurfaceDaemonErrors(t *testing.T) {
	c := &fakeClient{err: errors.New("failed to connect to daemon")}
	s := newTestServer(c)
	ctx := context.Background()

	if _, _, err := s.handleDockStatus(ctx, nil, DockStatusInput{}); err == nil {
		t.Error("dock_status: expected error")
	}
	if _, _, err := s.handleDockMonitors(ctx, nil, DockMonitorsInput{}); err == nil {
		t.Error("dock_monitors: expected error")
	}
	if _, _, err := s.handleDockRecheck(ctx, nil, DockRecheckInput{}); err == nil {
		t.Error("dock_recheck: expected error")
	}
	if _, _, err := s.handleGeometryClear(ctx, nil, GeometryClearInput{}); err == nil {
		t.Error("geometry_clear: expected error")
	}
}

func TestDockRecheckAndMonitors(t *testing.T) {
	s := newTestServer(&fakeClient{})
	ctx := context.Background()

	_, rc, err := s.handleDockRecheck(ctx, nil, DockRecheckInput{})
	if err != nil || rc.Obstructed || rc.Visibility != "visible" || !rc.Active {
		t.Fatalf("dock_recheck = %+v, %v", rc, err)
	}

	_, mons, err := s.handleDockMonitors(ctx, nil, DockMonitorsInput{})
	if err != nil || len(mons.Monitors) != 1 || !mons.Monitors[0].Dock || mons.Monitors[0].Name != "DP-1" {
		t.Fatalf("dock_monitors = %+v, %v", mons, err)
	}
}

func TestSetAutoHideTool(t *testing.T) {
	c := &fakeClient{}
	s := newTestServer(c)
	ctx := context.Background()

	tests := []struct {
		mode string
		want bool
	}{
		{"on", true},
		{"", false},
		{"toggle", true},
		{"OFF", false},
	}
	for _, tt := range tests {
		_, out, err := s.handleSetAutoHide(ctx, nil, SetAutoHideInput{Mode: tt.mode})
		if err != nil {
			t.Fatalf("mode %q: %v", tt.mode, err)
		}
		if out.AutoHide != tt.want {
			t.Fatalf("mode %q: autohide = %v, want %v", tt.mode, out.AutoHide, tt.want)
		}
	}

	if _, _, err := s.handleSetAutoHide(ctx, nil, SetAutoHideInput{Mode: "maybe"}); err == nil {
		t.Fatal("expected invalid mode error")
	}
	if len(c.modes) != 4 {
		t.Fatalf("invalid mode reached the daemon: %v", c.modes)
	}
}

func TestGeometryTools(t *testing.T) {
	c := &fakeClient{entries: []geometry.Entry{
		{AppID: "Firefox", Width: 1200, Height: 800},
		{AppID: "kitty", Width: 600, Height: 400},
	}}
	s := newTestServer(c)
	ctx := context.Background()

	_, all, err := s.handleGeometryList(ctx, nil, GeometryListInput{})
	if err != nil || len(all.Entries) != 2 {
		t.Fatalf("geometry_list = %+v, %v", all, err)
	}
	_, one, err := s.handleGeometryList(ctx, nil, GeometryListInput{AppID: "firefox"})
	if err != nil || len(one.Entries) != 1 || one.Entries[0].AppID != "Firefox" {
		t.Fatalf("filtered geometry_list = %+v, %v", one, err)
	}

	res, out, err := s.handleGeometryForget(ctx, nil, GeometryForgetInput{AppID: " kitty "})
	if err != nil || !out.Forgotten || out.AppID != "kitty" {
		t.Fatalf("geometry_forget = %+v, %v", out, err)
	}
	if res == nil || len(res.Content) != 1 {
		t.Fatalf("expected text content, got %+v", res)
	}
	if len(c.forgot) != 1 || c.forgot[0] != "kitty" {
		t.Fatalf("forget not forwarded: %v", c.forgot)
	}
	if _, _, err := s.handleGeometryForget(ctx, nil, GeometryForgetInput{AppID: "  "}); err == nil || !strings.Contains(err.Error(), "app_id") {
		t.Fatalf("expected app_id error, got %v", err)
	}

	_, cleared, err := s.handleGeometryClear(ctx, nil, GeometryClearInput{})
	if err != nil || cleared.Removed != 2 {
		t.Fatalf("geometry_clear = %+v, %v", cleared, err)
	}
}
