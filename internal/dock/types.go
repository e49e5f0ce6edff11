package dock

import (
	"fmt"
	"strings"
)

// Position is the screen edge the dock is attached to.
type Position int

const (
	PositionBottom Position = iota
	PositionLeft
	PositionRight
	PositionTop
)

// String returns the config spelling of the position.
func (p Position) String() string {
	switch p {
	case PositionBottom:
		return "bottom"
	case PositionLeft:
		return "left"
	case PositionRight:
		return "right"
	case PositionTop:
		return "top"
	default:
		return "unknown"
	}
}

// Vertical reports whether the dock runs along a vertical edge.
func (p Position) Vertical() bool {
	return p == PositionLeft || p == PositionRight
}

// ParsePosition parses a config value such as "bottom" or "Left".
func ParsePosition(s string) (Position, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bottom":
		return PositionBottom, nil
	case "left":
		return PositionLeft, nil
	case "right":
		return PositionRight, nil
	case "top":
		return PositionTop, nil
	default:
		return PositionBottom, fmt.Errorf("unknown dock position %q (want bottom, left, right or top)", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Position) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Position) UnmarshalText(text []byte) error {
	parsed, err := ParsePosition(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Intersects reports whether r and o share a region of positive area.
// Rectangles that only touch along an edge do not intersect.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.Width &&
		r.X+r.Width > o.X &&
		r.Y < o.Y+o.Height &&
		r.Y+r.Height > o.Y
}

// Contains reports whether the point lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Center returns the centre point of r.
func (r Rect) Center() (int, int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// Monitor is a physical output the dock can be placed on.
type Monitor struct {
	Index  int    `json:"index"`
	Name   string `json:"name,omitempty"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Bounds returns the monitor geometry as a Rect.
func (m Monitor) Bounds() Rect {
	return Rect{X: m.X, Y: m.Y, Width: m.Width, Height: m.Height}
}

// WindowSnapshot is a point-in-time read of a top-level window.
type WindowSnapshot struct {
	ID                 uint32
	Rect               Rect
	MonitorIndex       int
	Minimized          bool
	OnCurrentWorkspace bool
}

// MonitorIndexFor returns the index of the monitor containing the centre of r,
// or -1 when no monitor contains it.
func MonitorIndexFor(monitors []Monitor, r Rect) int {
	cx, cy := r.Center()
	for _, m := range monitors {
		if m.Bounds().Contains(cx, cy) {
			return m.Index
		}
	}
	return -1
}
