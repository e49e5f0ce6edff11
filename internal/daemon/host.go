package daemon

import (
	"fmt"

	"github.com/1broseidon/intellidock/internal/autohide"
	"github.com/1broseidon/intellidock/internal/config"
	"github.com/1broseidon/intellidock/internal/dock"
	"github.com/1broseidon/intellidock/internal/geometry"
	"github.com/1broseidon/intellidock/internal/platform"
	"github.com/1broseidon/intellidock/internal/subscription"
	"github.com/1broseidon/intellidock/internal/x11"
)

// Host presents the platform backend to the autohide controller and the
// geometry manager. It is not safe for concurrent use; the daemon only
// touches it from the event loop.
type Host struct {
	backend platform.Backend
	events  platform.Events

	monitor  int
	position dock.Position
	dockID   uint32
	dockHome dock.Rect
}

var (
	_ autohide.Host = (*Host)(nil)
	_ geometry.Host = (*Host)(nil)
)

// NewHost wraps backend. events usually is the same value as backend.
func NewHost(backend platform.Backend, events platform.Events) *Host {
	return &Host{
		backend: backend,
		events:  events,
		monitor: config.PrimaryMonitor,
	}
}

// SetPlacement selects the dock monitor and edge.
func (h *Host) SetPlacement(monitor int, pos dock.Position) {
	h.monitor = monitor
	h.position = pos
}

// SetDock records the dock window so it never counts as an obstruction,
// along with its shown geometry. A zero id clears it.
func (h *Host) SetDock(id uint32, home dock.Rect) {
	h.dockID = id
	h.dockHome = home
}

// Display returns the configured dock display.
func (h *Host) Display() (platform.Display, error) {
	displays, err := h.backend.Displays()
	if err != nil {
		return platform.Display{}, err
	}
	return SelectDisplay(displays, h.monitor)
}

// Monitor implements autohide.Host.
func (h *Host) Monitor() (dock.Monitor, error) {
	d, err := h.Display()
	if err != nil {
		return dock.Monitor{}, err
	}
	return d.Monitor, nil
}

// SelectDisplay returns the display with the given index. The primary display
// is used for config.PrimaryMonitor or when the index no longer exists, and
// the first display when there is no primary.
func SelectDisplay(displays []platform.Display, index int) (platform.Display, error) {
	if len(displays) == 0 {
		return platform.Display{}, fmt.Errorf("no displays found")
	}
	if index != config.PrimaryMonitor {
		for _, d := range displays {
			if d.Index == index {
				return d, nil
			}
		}
	}
	for _, d := range displays {
		if d.Primary {
			return d, nil
		}
	}
	return displays[0], nil
}

// Windows implements autohide.Host. Only normal client windows are returned;
// desktops, docks and the managed dock itself are left out.
func (h *Host) Windows() ([]dock.WindowSnapshot, error) {
	windows, err := h.backend.Windows()
	if err != nil {
		return nil, err
	}

	var monitors []dock.Monitor
	if displays, err := h.backend.Displays(); err == nil {
		monitors = make([]dock.Monitor, len(displays))
		for i, d := range displays {
			monitors[i] = d.Monitor
		}
	}
	current, desktopErr := h.backend.CurrentDesktop()

	out := make([]dock.WindowSnapshot, 0, len(windows))
	for _, w := range windows {
		if !w.Normal || w.IsDesktop || uint32(w.ID) == h.dockID {
			continue
		}
		onCurrent := true
		if desktopErr == nil {
			onCurrent = x11.OnDesktop(w.Desktop, current, w.DesktopKnown)
		}
		out = append(out, dock.WindowSnapshot{
			ID:                 uint32(w.ID),
			Rect:               w.Bounds,
			MonitorIndex:       dock.MonitorIndexFor(monitors, w.Bounds),
			Minimized:          w.Minimized,
			OnCurrentWorkspace: onCurrent,
		})
	}
	return out, nil
}

// OverviewActive implements autohide.Host.
func (h *Host) OverviewActive() bool {
	return h.backend.OverviewActive()
}

// DockLength implements autohide.Host using the dock window's home geometry.
func (h *Host) DockLength() int {
	if h.dockID == 0 || h.dockHome.Empty() {
		return 0
	}
	if h.position.Vertical() {
		return h.dockHome.Height
	}
	return h.dockHome.Width
}

// ClientWindows implements geometry.Host.
func (h *Host) ClientWindows() ([]geometry.Window, error) {
	windows, err := h.backend.Windows()
	if err != nil {
		return nil, err
	}
	out := make([]geometry.Window, 0, len(windows))
	for _, w := range windows {
		if !w.Normal || uint32(w.ID) == h.dockID {
			continue
		}
		out = append(out, geometryWindow(w))
	}
	return out, nil
}

// ClientWindow implements geometry.Host.
func (h *Host) ClientWindow(id uint32) (geometry.Window, error) {
	w, err := h.backend.Window(platform.WindowID(id))
	if err != nil {
		return geometry.Window{}, err
	}
	return geometryWindow(w), nil
}

func geometryWindow(w platform.Window) geometry.Window {
	return geometry.Window{
		ID:         uint32(w.ID),
		AppID:      w.AppID,
		Rect:       w.Bounds,
		Maximized:  w.Maximized,
		Fullscreen: w.Fullscreen,
		Desktop:    w.IsDesktop,
	}
}

// MoveResize implements geometry.Host.
func (h *Host) MoveResize(id uint32, r dock.Rect) error {
	return h.backend.MoveResize(platform.WindowID(id), r)
}

// ConnectDisplay implements autohide.Host and geometry.Host.
func (h *Host) ConnectDisplay(fn func(dock.Event)) subscription.Handle {
	return h.events.ConnectDisplay(fn)
}

// ConnectWindow implements autohide.Host and geometry.Host.
func (h *Host) ConnectWindow(id uint32, kind dock.EventKind, fn func(dock.Event)) subscription.Handle {
	return h.events.ConnectWindow(id, kind, fn)
}
