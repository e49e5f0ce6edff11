package dock

// Placement describes where the dock sits on its monitor.
type Placement struct {
	Position Position
	// Thickness is the dock depth perpendicular to its edge.
	Thickness int
	// Margin pushes the dock inward from the screen edge.
	Margin int
	// Length is the measured dock size along its edge. Ignored in panel mode.
	Length int
	// PanelMode stretches the dock across the whole monitor edge.
	PanelMode bool
	// Fallback replaces a non-positive Thickness or Length.
	Fallback int
}

func (p Placement) thickness() int {
	if p.Thickness > 0 {
		return p.Thickness
	}
	return p.fallback()
}

func (p Placement) length(m Monitor) int {
	if p.PanelMode {
		if p.Position.Vertical() {
			return m.Height
		}
		return m.Width
	}
	if p.Length > 0 {
		return p.Length
	}
	return p.fallback()
}

func (p Placement) fallback() int {
	if p.Fallback > 0 {
		return p.Fallback
	}
	return Thickness(0, 0, 0)
}

// Rect returns the screen region the dock occupies on m when fully shown.
func (p Placement) Rect(m Monitor) Rect {
	thickness := p.thickness()
	length := p.length(m)

	var r Rect
	if p.Position.Vertical() {
		r.Width = thickness
		r.Height = length
		r.Y = m.Y + m.Height/2 - length/2
		if p.PanelMode {
			r.Y = m.Y
		}
		if p.Position == PositionLeft {
			r.X = m.X + p.Margin
		} else {
			r.X = m.X + m.Width - thickness - p.Margin
		}
		return r
	}

	r.Width = length
	r.Height = thickness
	r.X = m.X + m.Width/2 - length/2
	if p.PanelMode {
		r.X = m.X
	}
	if p.Position == PositionTop {
		r.Y = m.Y + p.Margin
	} else {
		r.Y = m.Y + m.Height - thickness - p.Margin
	}
	return r
}

// HiddenOffset returns how far the dock slides off-screen when hidden.
func (p Placement) HiddenOffset() (dx, dy int) {
	t := p.thickness()
	switch p.Position {
	case PositionTop:
		return 0, -t
	case PositionLeft:
		return -t, 0
	case PositionRight:
		return t, 0
	default:
		return 0, t
	}
}

// Obstructed reports whether any relevant window overlaps the dock region.
//
// Windows on another monitor, on another workspace, or minimized are ignored.
// While the overview is active nothing counts as obstructing.
func Obstructed(p Placement, m Monitor, windows []WindowSnapshot, overviewActive bool) bool {
	_, hit := FirstObstruction(p, m, windows, overviewActive)
	return hit
}

// FirstObstruction is Obstructed but also returns the first overlapping window.
func FirstObstruction(p Placement, m Monitor, windows []WindowSnapshot, overviewActive bool) (WindowSnapshot, bool) {
	if overviewActive {
		return WindowSnapshot{}, false
	}

	candidate := p.Rect(m)
	for _, w := range windows {
		if w.MonitorIndex != m.Index {
			continue
		}
		if !w.OnCurrentWorkspace || w.Minimized {
			continue
		}
		if candidate.Intersects(w.Rect) {
			return w, true
		}
	}
	return WindowSnapshot{}, false
}
