package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/1broseidon/intellidock/internal/dock"
)

// WindowState is the subset of _NET_WM_STATE intellidock cares about.
type WindowState struct {
	Hidden           bool
	MaximizedHorz    bool
	MaximizedVert    bool
	Fullscreen       bool
	DemandsAttention bool
}

// Maximized reports whether the window fills its monitor in either direction.
func (s WindowState) Maximized() bool {
	return s.MaximizedHorz || s.MaximizedVert
}

// ParseWindowState maps _NET_WM_STATE atom names onto a WindowState.
func ParseWindowState(states []string) WindowState {
	var s WindowState
	for _, state := range states {
		switch state {
		case "_NET_WM_STATE_HIDDEN":
			s.Hidden = true
		case "_NET_WM_STATE_MAXIMIZED_HORZ":
			s.MaximizedHorz = true
		case "_NET_WM_STATE_MAXIMIZED_VERT":
			s.MaximizedVert = true
		case "_NET_WM_STATE_FULLSCREEN":
			s.Fullscreen = true
		case "_NET_WM_STATE_DEMANDS_ATTENTION":
			s.DemandsAttention = true
		}
	}
	return s
}

// GetWindowState reads _NET_WM_STATE. Missing properties yield the zero state.
func (c *Connection) GetWindowState(windowID xproto.Window) WindowState {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return WindowState{}
	}
	return ParseWindowState(states)
}

// ClientList returns _NET_CLIENT_LIST.
func (c *Connection) ClientList() ([]xproto.Window, error) {
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return nil, fmt.Errorf("failed to get client list: %w", err)
	}
	return clients, nil
}

// FrameRect returns the on-screen rectangle of a window including its
// decorations (_NET_FRAME_EXTENTS).
func (c *Connection) FrameRect(windowID xproto.Window) (dock.Rect, error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	if err != nil {
		return dock.Rect{}, fmt.Errorf("get geometry of 0x%x: %w", windowID, err)
	}

	translate, err := xproto.TranslateCoordinates(
		c.XUtil.Conn(),
		windowID,
		c.Root,
		0, 0,
	).Reply()
	if err != nil {
		return dock.Rect{}, fmt.Errorf("translate coordinates of 0x%x: %w", windowID, err)
	}

	left, right, top, bottom, _ := c.GetFrameExtents(windowID)
	return dock.Rect{
		X:      int(translate.DstX) - left,
		Y:      int(translate.DstY) - top,
		Width:  int(geom.Width) + left + right,
		Height: int(geom.Height) + top + bottom,
	}, nil
}

// MoveResizeWindow moves and resizes a window to the specified geometry
func (c *Connection) MoveResizeWindow(windowID xproto.Window, r dock.Rect) error {
	// A maximized window ignores move requests in most window managers.
	c.unmaximizeWindow(windowID)

	err := ewmh.MoveresizeWindow(c.XUtil, windowID, r.X, r.Y, r.Width, r.Height)
	if err != nil {
		// Fallback to direct window manipulation
		xwindow.New(c.XUtil, windowID).MoveResize(r.X, r.Y, r.Width, r.Height)
	}
	return nil
}

func (c *Connection) unmaximizeWindow(windowID xproto.Window) {
	state := c.GetWindowState(windowID)
	if state.MaximizedHorz {
		ewmh.WmStateReq(c.XUtil, windowID, ewmh.StateRemove, "_NET_WM_STATE_MAXIMIZED_HORZ")
	}
	if state.MaximizedVert {
		ewmh.WmStateReq(c.XUtil, windowID, ewmh.StateRemove, "_NET_WM_STATE_MAXIMIZED_VERT")
	}
}

// GetFrameExtents returns the window decoration sizes (if available)
func (c *Connection) GetFrameExtents(windowID xproto.Window) (left, right, top, bottom int, err error) {
	extents, err := ewmh.FrameExtentsGet(c.XUtil, windowID)
	if err != nil {
		// No frame extents available, return zeros
		return 0, 0, 0, 0, nil
	}

	return int(extents.Left), int(extents.Right), int(extents.Top), int(extents.Bottom), nil
}

// IsNormalWindow checks if a window is a normal application window
func (c *Connection) IsNormalWindow(windowID xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		// If we can't determine type, assume it's normal
		return true
	}
	return IsNormalType(types)
}

// IsNormalType classifies a _NET_WM_WINDOW_TYPE list. Windows with no type
// are normal; desktop, dock, splash and notification windows are not.
func IsNormalType(types []string) bool {
	for _, t := range types {
		switch t {
		case "_NET_WM_WINDOW_TYPE_NORMAL", "_NET_WM_WINDOW_TYPE_DIALOG":
			return true
		case "_NET_WM_WINDOW_TYPE_DESKTOP",
			"_NET_WM_WINDOW_TYPE_DOCK",
			"_NET_WM_WINDOW_TYPE_SPLASH",
			"_NET_WM_WINDOW_TYPE_NOTIFICATION":
			return false
		}
	}
	return len(types) == 0
}

// IsDesktopWindow reports whether the window is the desktop background.
func (c *Connection) IsDesktopWindow(windowID xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		return false
	}
	for _, t := range types {
		if t == "_NET_WM_WINDOW_TYPE_DESKTOP" {
			return true
		}
	}
	return false
}

// AppID returns the WM_CLASS class of a window, or "" if unset.
func (c *Connection) AppID(windowID xproto.Window) string {
	wmClass, err := icccm.WmClassGet(c.XUtil, windowID)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(wmClass.Class)
}

// MatchesClass reports whether either WM_CLASS part equals class, ignoring case.
func MatchesClass(instance, class, want string) bool {
	want = strings.TrimSpace(want)
	if want == "" {
		return false
	}
	return strings.EqualFold(instance, want) || strings.EqualFold(class, want)
}
