package daemon

import "github.com/1broseidon/intellidock/internal/animate"

// dockSurface is the part of x11.DockWindow the animation drives.
type dockSurface interface {
	SetOpacity(opacity float64) error
	Offset(dx, dy int)
}

// edgeSurface is the part of x11.EdgeTrigger the animation drives.
type edgeSurface interface {
	Show()
	Hide()
}

// dockTarget applies animation frames to the dock window and maps the edge
// trigger whenever the dock is away from its shown frame.
type dockTarget struct {
	dock dockSurface
	edge edgeSurface
}

func (t *dockTarget) Apply(fr animate.Frame) error {
	if t.edge != nil {
		if fr == animate.Shown {
			t.edge.Hide()
		} else {
			t.edge.Show()
		}
	}
	if t.dock == nil {
		return nil
	}
	t.dock.Offset(fr.OffsetX, fr.OffsetY)
	return t.dock.SetOpacity(fr.Opacity)
}

// nopTarget accepts frames while no dock window is attached.
var nopTarget = animate.TargetFunc(func(animate.Frame) error { return nil })
