package platform

import (
	"github.com/1broseidon/intellidock/internal/dock"
	"github.com/1broseidon/intellidock/internal/subscription"
)

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// Display describes a physical display.
type Display struct {
	dock.Monitor
	Primary bool
}

// Window contains metadata and geometry for a top-level client window.
type Window struct {
	ID      WindowID
	AppID   string
	Title   string
	Bounds  dock.Rect
	Desktop int
	// DesktopKnown is false when the window has no _NET_WM_DESKTOP.
	DesktopKnown bool
	Minimized    bool
	Maximized    bool
	Fullscreen   bool
	Attention    bool
	// Normal is false for docks, desktops, splash screens and notifications.
	Normal    bool
	IsDesktop bool
}

// Backend abstracts window-system reads and writes.
type Backend interface {
	Displays() ([]Display, error)
	CurrentDesktop() (int, error)
	Windows() ([]Window, error)
	Window(id WindowID) (Window, error)
	OverviewActive() bool
	MoveResize(id WindowID, bounds dock.Rect) error
}

// Events publishes window-system notifications. Listeners run on the
// goroutine supplied to the backend's Watch.
type Events interface {
	ConnectDisplay(fn func(dock.Event)) subscription.Handle
	ConnectWindow(id uint32, kind dock.EventKind, fn func(dock.Event)) subscription.Handle
}
