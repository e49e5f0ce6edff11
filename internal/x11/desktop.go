package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// StickyDesktop is the _NET_WM_DESKTOP value of windows shown on every desktop.
const StickyDesktop = 0xFFFFFFFF

// GetCurrentDesktop returns the current virtual desktop number (0-indexed).
// Uses _NET_CURRENT_DESKTOP atom. Returns 0 with an error if detection fails.
func (c *Connection) GetCurrentDesktop() (int, error) {
	desktop, err := ewmh.CurrentDesktopGet(c.XUtil)
	if err != nil {
		return 0, fmt.Errorf("failed to get current desktop: %w", err)
	}
	return int(desktop), nil
}

// GetWindowDesktop returns the desktop number a window is on, or -1 for
// windows visible on all desktops.
func (c *Connection) GetWindowDesktop(windowID uint32) (int, error) {
	desktop, err := ewmh.WmDesktopGet(c.XUtil, xproto.Window(windowID))
	if err != nil {
		return 0, fmt.Errorf("failed to get window desktop: %w", err)
	}
	if desktop == StickyDesktop {
		return -1, nil
	}
	return int(desktop), nil
}

// OnDesktop reports whether a window with _NET_WM_DESKTOP value windowDesktop
// is visible on desktop current. Windows without the property count as visible.
func OnDesktop(windowDesktop, current int, known bool) bool {
	if !known || windowDesktop < 0 {
		return true
	}
	return windowDesktop == current
}

// ShowingDesktop reports whether the window manager is in "show desktop"
// mode (_NET_SHOWING_DESKTOP). intellidock treats it as the overview.
func (c *Connection) ShowingDesktop() bool {
	showing, err := ewmh.ShowingDesktopGet(c.XUtil)
	if err != nil {
		return false
	}
	return showing
}
