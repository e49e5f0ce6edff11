package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/intellidock/internal/dock"
)

// EdgeTrigger is an invisible input-only strip along the dock's screen edge.
// It reports pointer crossings while the dock itself is slid away.
type EdgeTrigger struct {
	req    windowRequests
	Window xproto.Window
	Rect   dock.Rect
	mapped bool
}

// windowRequests are the X requests an EdgeTrigger sends.
type windowRequests interface {
	Map(win xproto.Window)
	Unmap(win xproto.Window)
	Configure(win xproto.Window, mask uint16, values []uint32)
	Destroy(win xproto.Window)
}

type xRequests struct{ conn *xgb.Conn }

func (x xRequests) Map(win xproto.Window)   { xproto.MapWindow(x.conn, win) }
func (x xRequests) Unmap(win xproto.Window) { xproto.UnmapWindow(x.conn, win) }
func (x xRequests) Configure(win xproto.Window, mask uint16, values []uint32) {
	xproto.ConfigureWindow(x.conn, win, mask, values)
}
func (x xRequests) Destroy(win xproto.Window) { xproto.DestroyWindow(x.conn, win) }

// EdgeRect returns the strip of the given size on the dock's edge of m,
// spanning the same range as the dock rectangle r.
func EdgeRect(pos dock.Position, m dock.Monitor, r dock.Rect, size int) dock.Rect {
	if size < 1 {
		size = 1
	}
	switch pos {
	case dock.PositionTop:
		return dock.Rect{X: r.X, Y: m.Y, Width: r.Width, Height: size}
	case dock.PositionLeft:
		return dock.Rect{X: m.X, Y: r.Y, Width: size, Height: r.Height}
	case dock.PositionRight:
		return dock.Rect{X: m.X + m.Width - size, Y: r.Y, Width: size, Height: r.Height}
	default:
		return dock.Rect{X: r.X, Y: m.Y + m.Height - size, Width: r.Width, Height: size}
	}
}

// NewEdgeTrigger creates, but does not map, an override-redirect InputOnly window.
func (c *Connection) NewEdgeTrigger(r dock.Rect) (*EdgeTrigger, error) {
	conn := c.XUtil.Conn()

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return nil, fmt.Errorf("allocate edge window id: %w", err)
	}

	err = xproto.CreateWindowChecked(
		conn,
		0, // depth must be 0 for InputOnly
		wid,
		c.Root,
		int16(r.X), int16(r.Y),
		uint16(max(r.Width, 1)), uint16(max(r.Height, 1)),
		0,
		xproto.WindowClassInputOnly,
		0, // CopyFromParent visual
		xproto.CwOverrideRedirect|xproto.CwEventMask,
		// Value list order follows the bit positions of the mask.
		[]uint32{1, xproto.EventMaskEnterWindow | xproto.EventMaskLeaveWindow},
	).Check()
	if err != nil {
		return nil, fmt.Errorf("create edge window: %w", err)
	}

	return &EdgeTrigger{req: xRequests{conn}, Window: wid, Rect: r}, nil
}

// Place moves the strip and raises it above other windows.
func (e *EdgeTrigger) Place(r dock.Rect) {
	e.Rect = r
	e.req.Configure(e.Window,
		xproto.ConfigWindowX|xproto.ConfigWindowY|xproto.ConfigWindowWidth|xproto.ConfigWindowHeight|xproto.ConfigWindowStackMode,
		[]uint32{uint32(int32(r.X)), uint32(int32(r.Y)), uint32(max(r.Width, 1)), uint32(max(r.Height, 1)), xproto.StackModeAbove},
	)
}

// Show maps the strip and raises it above any window stacked on top since.
func (e *EdgeTrigger) Show() {
	if !e.mapped {
		e.req.Map(e.Window)
		e.mapped = true
	}
	e.req.Configure(e.Window, xproto.ConfigWindowStackMode, []uint32{xproto.StackModeAbove})
}

// Hide unmaps the strip.
func (e *EdgeTrigger) Hide() {
	if !e.mapped {
		return
	}
	e.req.Unmap(e.Window)
	e.mapped = false
}

// Destroy removes the window.
func (e *EdgeTrigger) Destroy() {
	e.req.Destroy(e.Window)
	e.mapped = false
}
