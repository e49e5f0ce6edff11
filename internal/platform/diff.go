package platform

import (
	"slices"

	"github.com/1broseidon/intellidock/internal/dock"
)

// DiffClients returns windows present only in next (added) and only in prev
// (removed), each sorted.
func DiffClients(prev, next []uint32) (added, removed []uint32) {
	before := make(map[uint32]struct{}, len(prev))
	for _, id := range prev {
		before[id] = struct{}{}
	}
	after := make(map[uint32]struct{}, len(next))
	for _, id := range next {
		after[id] = struct{}{}
		if _, ok := before[id]; !ok {
			added = append(added, id)
		}
	}
	for _, id := range prev {
		if _, ok := after[id]; !ok {
			removed = append(removed, id)
		}
	}
	slices.Sort(added)
	slices.Sort(removed)
	return added, removed
}

// Placement is the last observed frame of a client window.
type Placement struct {
	Rect    dock.Rect
	Monitor int
}

// GeometryEvents returns the per-window kinds implied by a frame change.
func GeometryEvents(prev, next Placement) []dock.EventKind {
	var kinds []dock.EventKind
	if prev.Rect.X != next.Rect.X || prev.Rect.Y != next.Rect.Y {
		kinds = append(kinds, dock.WindowMoved)
	}
	if prev.Rect.Width != next.Rect.Width || prev.Rect.Height != next.Rect.Height {
		kinds = append(kinds, dock.WindowResized)
	}
	if prev.Monitor != next.Monitor {
		kinds = append(kinds, dock.WindowMonitorChanged)
	}
	return kinds
}

// StateFlags is the part of _NET_WM_STATE that produces events.
type StateFlags struct {
	Minimized  bool
	Maximized  bool
	Fullscreen bool
	Attention  bool
}

// StateEvents returns the events implied by a state change of window id.
// Attention is reported only when it is newly raised.
func StateEvents(id uint32, prev, next StateFlags) []dock.Event {
	var events []dock.Event
	if prev.Minimized != next.Minimized {
		events = append(events, dock.Event{Kind: dock.WindowMinimized, Window: id, Active: next.Minimized})
	}
	if prev.Maximized != next.Maximized || prev.Fullscreen != next.Fullscreen {
		events = append(events, dock.Event{Kind: dock.WindowResized, Window: id})
	}
	if next.Attention && !prev.Attention {
		events = append(events, dock.Event{Kind: dock.Attention, Window: id})
	}
	return events
}

// RootPropertyEvent maps a root window property name onto a display event.
func RootPropertyEvent(name string) (dock.EventKind, bool) {
	switch name {
	case "_NET_CLIENT_LIST_STACKING":
		return dock.Restacked, true
	case "_NET_WORKAREA":
		return dock.WorkareaChanged, true
	case "_NET_CURRENT_DESKTOP", "_NET_NUMBER_OF_DESKTOPS":
		return dock.WorkspaceChanged, true
	case "_NET_SHOWING_DESKTOP":
		return dock.OverviewChanged, true
	}
	return 0, false
}
