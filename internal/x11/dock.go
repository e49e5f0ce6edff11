package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/1broseidon/intellidock/internal/dock"
)

// DockWindow is the external dock or panel intellidock fades and slides.
type DockWindow struct {
	conn *Connection
	ID   xproto.Window
	// Home is the shown position; offsets are applied relative to it.
	Home dock.Rect
}

// FindDockWindow locates the top-level window whose WM_CLASS matches class.
// It searches the client list first, then the root's children, since many
// docks are override-redirect and never appear in _NET_CLIENT_LIST.
func (c *Connection) FindDockWindow(class string) (*DockWindow, error) {
	if class == "" {
		return nil, fmt.Errorf("dock window class is empty")
	}

	var candidates []xproto.Window
	if clients, err := c.ClientList(); err == nil {
		candidates = append(candidates, clients...)
	}
	if tree, err := xproto.QueryTree(c.XUtil.Conn(), c.Root).Reply(); err == nil {
		candidates = append(candidates, tree.Children...)
	}

	for _, win := range candidates {
		wmClass, err := icccm.WmClassGet(c.XUtil, win)
		if err != nil {
			continue
		}
		if !MatchesClass(wmClass.Instance, wmClass.Class, class) {
			continue
		}
		rect, err := c.FrameRect(win)
		if err != nil || rect.Empty() {
			continue
		}
		return &DockWindow{conn: c, ID: win, Home: rect}, nil
	}
	return nil, fmt.Errorf("no window with WM_CLASS %q", class)
}

// Refresh re-reads the dock's shown geometry. Call it only while the dock
// sits at its home position.
func (d *DockWindow) Refresh() error {
	rect, err := d.conn.FrameRect(d.ID)
	if err != nil {
		return err
	}
	d.Home = rect
	return nil
}

// SetOpacity sets _NET_WM_WINDOW_OPACITY; compositors apply it.
func (d *DockWindow) SetOpacity(opacity float64) error {
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	return ewmh.WmWindowOpacitySet(d.conn.XUtil, d.ID, opacity)
}

// Offset moves the dock by (dx, dy) from its home position.
func (d *DockWindow) Offset(dx, dy int) {
	xwindow.New(d.conn.XUtil, d.ID).Move(d.Home.X+dx, d.Home.Y+dy)
}

// ListenPointer selects enter and leave events on the dock window.
func (d *DockWindow) ListenPointer() error {
	return xwindow.New(d.conn.XUtil, d.ID).Listen(
		xproto.EventMaskEnterWindow,
		xproto.EventMaskLeaveWindow,
	)
}
