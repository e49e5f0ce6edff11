package dock

// EventKind identifies a window-system notification relevant to intellihide.
type EventKind int

const (
	WindowCreated EventKind = iota
	WindowRemoved
	Attention
	WorkareaChanged
	Restacked
	WorkspaceChanged
	MonitorsChanged
	OverviewChanged

	// Per-window kinds.
	WindowMoved
	WindowResized
	WindowMinimized
	WindowMonitorChanged

	// Pointer crossing the dock or its edge trigger.
	PointerEntered
	PointerLeft
)

var eventKindNames = map[EventKind]string{
	WindowCreated:        "window-created",
	WindowRemoved:        "window-removed",
	Attention:            "attention",
	WorkareaChanged:      "workarea-changed",
	Restacked:            "restacked",
	WorkspaceChanged:     "workspace-changed",
	MonitorsChanged:      "monitors-changed",
	OverviewChanged:      "overview-changed",
	WindowMoved:          "window-moved",
	WindowResized:        "window-resized",
	WindowMinimized:      "window-minimized",
	WindowMonitorChanged: "window-monitor-changed",
	PointerEntered:       "pointer-entered",
	PointerLeft:          "pointer-left",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// PerWindow reports whether the kind is delivered to per-window listeners.
func (k EventKind) PerWindow() bool {
	switch k {
	case WindowMoved, WindowResized, WindowMinimized, WindowMonitorChanged:
		return true
	}
	return false
}

// WindowEventKinds lists the kinds every tracked window is subscribed to.
var WindowEventKinds = []EventKind{WindowMoved, WindowResized, WindowMinimized, WindowMonitorChanged}

// Event is a single notification. Window is zero for display-wide events.
// Active carries the new value for OverviewChanged and WindowMinimized.
type Event struct {
	Kind   EventKind
	Window uint32
	Active bool
}
