package ipc

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/1broseidon/intellidock/internal/autohide"
	"github.com/1broseidon/intellidock/internal/dock"
	"github.com/1broseidon/intellidock/internal/geometry"
)

type fakeHandler struct {
	mu        sync.Mutex
	autohide  bool
	reloads   int
	entries   []geometry.Entry
	reloadErr error
}

func (h *fakeHandler) Status() (StatusData, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return StatusData{
		Dock:     autohide.Status{Enabled: true, AutoHide: h.autohide, Visibility: "hidden", Obstructed: true},
		Geometry: GeometryStatus{Enabled: true, Tracked: 3},
	}, nil
}

func (h *fakeHandler) Monitors() ([]MonitorInfo, error) {
	return []MonitorInfo{
		{Monitor: dock.Monitor{Index: 0, Name: "DP-1", Width: 2560, Height: 1440}, Primary: true, Dock: true},
		{Monitor: dock.Monitor{Index: 1, Name: "HDMI-1", X: 2560, Width: 1920, Height: 1080}},
	}, nil
}

func (h *fakeHandler) Recheck() (RecheckData, error) {
	return RecheckData{Obstructed: true, Visibility: "hidden", Active: true}, nil
}

func (h *fakeHandler) SetAutoHide(mode AutoHideMode) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch mode {
	case AutoHideOn:
		h.autohide = true
	case AutoHideOff:
		h.autohide = false
	default:
		h.autohide = !h.autohide
	}
	return h.autohide, nil
}

func (h *fakeHandler) Reload() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reloads++
	return h.reloadErr
}

func (h *fakeHandler) ListGeometry() ([]geometry.Entry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]geometry.Entry(nil), h.entries...), nil
}

func (h *fakeHandler) ForgetGeometry(appID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, e := range h.entries {
		if e.AppID == appID {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			return nil
		}
	}
	return geometry.ErrNotFound
}

func (h *fakeHandler) ClearGeometry() (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := len(h.entries)
	h.entries = nil
	return n, nil
}

func startServer(t *testing.T, h Handler) (*Server, *Client) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "s.sock")
	srv, err := NewServer(path, h, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(srv.Stop)
	return srv, NewClientAt(path)
}

func TestStatusAndMonitors(t *testing.T) {
	_, c := startServer(t, &fakeHandler{autohide: true})

	status, err := c.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if !status.DaemonRunning || !status.Dock.AutoHide || status.Dock.Visibility != "hidden" || status.Geometry.Tracked != 3 {
		t.Fatalf("unexpected status %+v", status)
	}

	monitors, err := c.GetMonitors()
	if err != nil {
		t.Fatalf("GetMonitors: %v", err)
	}
	if len(monitors.Monitors) != 2 || monitors.Monitors[1].Name != "HDMI-1" || !monitors.Monitors[0].Dock {
		t.Fatalf("unexpected monitors %+v", monitors)
	}
}

func TestRecheckAndAutoHide(t *testing.T) {
	h := &fakeHandler{}
	_, c := startServer(t, h)

	data, err := c.Recheck()
	if err != nil || !data.Obstructed {
		t.Fatalf("Recheck = %+v, %v", data, err)
	}

	on, err := c.SetAutoHide(AutoHideToggle)
	if err != nil || !on {
		t.Fatalf("toggle = %v, %v", on, err)
	}
	on, err = c.SetAutoHide(AutoHideOff)
	if err != nil || on {
		t.Fatalf("off = %v, %v", on, err)
	}
	if _, err := c.SetAutoHide("sideways"); err == nil {
		t.Fatal("expected invalid mode error")
	}
}

func TestReloadErrorsSurface(t *testing.T) {
	h := &fakeHandler{reloadErr: errors.New("bad yaml")}
	_, c := startServer(t, h)

	err := c.Reload()
	if err == nil || !strings.Contains(err.Error(), "bad yaml") {
		t.Fatalf("expected reload error, got %v", err)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.reloads != 1 {
		t.Fatalf("expected one reload, got %d", h.reloads)
	}
}

func TestGeometryCommands(t *testing.T) {
	h := &fakeHandler{entries: []geometry.Entry{
		{AppID: "firefox", X: 10, Y: 20, Width: 800, Height: 600},
		{AppID: "kitty", Width: 400, Height: 300},
	}}
	_, c := startServer(t, h)

	entries, err := c.ListGeometry()
	if err != nil || len(entries) != 2 || entries[0].AppID != "firefox" {
		t.Fatalf("ListGeometry = %+v, %v", entries, err)
	}

	if err := c.ForgetGeometry("kitty"); err != nil {
		t.Fatalf("ForgetGeometry: %v", err)
	}
	err = c.ForgetGeometry("kitty")
	if err == nil || !strings.Contains(err.Error(), "No saved geometry") {
		t.Fatalf("expected not found error, got %v", err)
	}
	if err := c.ForgetGeometry(""); err == nil {
		t.Fatal("expected app_id required error")
	}

	n, err := c.ClearGeometry()
	if err != nil || n != 1 {
		t.Fatalf("ClearGeometry = %d, %v", n, err)
	}
	entries, err = c.ListGeometry()
	if err != nil || entries == nil || len(entries) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v, %v", entries, err)
	}
}

func TestUnknownAndMalformedRequests(t *testing.T) {
	srv, _ := startServer(t, &fakeHandler{})

	for _, line := range []string{`{"command":"DANCE"}`, `not json`} {
		conn, err := net.Dial("unix", srv.SocketPath())
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		if _, err := conn.Write([]byte(line + "\n")); err != nil {
			t.Fatalf("write: %v", err)
		}
		resp, err := bufio.NewReader(conn).ReadString('\n')
		conn.Close()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if !strings.Contains(resp, `"status":"ERROR"`) {
			t.Fatalf("expected error response for %q, got %s", line, resp)
		}
	}
}

func TestClientWithoutDaemon(t *testing.T) {
	c := NewClientAt(filepath.Join(t.TempDir(), "missing.sock"))
	err := c.Ping()
	if err == nil || !strings.Contains(err.Error(), "is the daemon running") {
		t.Fatalf("expected connection error, got %v", err)
	}
}

func TestParseAutoHideMode(t *testing.T) {
	tests := map[string]AutoHideMode{
		"on": AutoHideOn, "TRUE": AutoHideOn, "off": AutoHideOff, "0": AutoHideOff, "": AutoHideToggle,
	}
	for in, want := range tests {
		got, err := ParseAutoHideMode(in)
		if err != nil || got != want {
			t.Errorf("ParseAutoHideMode(%q) = %q, %v", in, got, err)
		}
	}
}
