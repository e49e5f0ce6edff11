//go:build linux

package platform

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/1broseidon/intellidock/internal/dock"
	"github.com/1broseidon/intellidock/internal/subscription"
	"github.com/1broseidon/intellidock/internal/x11"
)

// LinuxBackend wraps an X11 connection behind the Backend and Events
// interfaces. X callbacks run on the xevent goroutine; listeners are invoked
// through the post function given to Watch.
type LinuxBackend struct {
	conn   *x11.Connection
	logger *slog.Logger
	post   func(func())

	display subscription.Emitter[dock.Event]

	mu         sync.Mutex
	windows    map[uint32]*subscription.Emitter[dock.Event]
	clients    []uint32
	placements map[uint32]Placement
	states     map[uint32]StateFlags
	monitors   []dock.Monitor
	pointer    map[xproto.Window]bool

	watches subscription.Keyed[uint32]
	watched bool
}

var (
	_ Backend = (*LinuxBackend)(nil)
	_ Events  = (*LinuxBackend)(nil)
)

// NewLinuxBackend creates a backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection, logger *slog.Logger) *LinuxBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &LinuxBackend{
		conn:       conn,
		logger:     logger,
		windows:    make(map[uint32]*subscription.Emitter[dock.Event]),
		placements: make(map[uint32]Placement),
		states:     make(map[uint32]StateFlags),
		pointer:    make(map[xproto.Window]bool),
	}
}

// Connection returns the underlying X11 connection.
func (b *LinuxBackend) Connection() *x11.Connection {
	return b.conn
}

// Displays returns all active displays.
func (b *LinuxBackend) Displays() ([]Display, error) {
	monitors, err := b.conn.GetMonitors()
	if err != nil {
		return nil, err
	}
	out := make([]Display, 0, len(monitors))
	for _, m := range monitors {
		out = append(out, Display{Monitor: m.Monitor, Primary: m.Primary})
	}
	return out, nil
}

// CurrentDesktop returns the active virtual desktop.
func (b *LinuxBackend) CurrentDesktop() (int, error) {
	return b.conn.GetCurrentDesktop()
}

// Windows returns every client in _NET_CLIENT_LIST that can still be read.
func (b *LinuxBackend) Windows() ([]Window, error) {
	clients, err := b.conn.ClientList()
	if err != nil {
		return nil, err
	}
	out := make([]Window, 0, len(clients))
	for _, win := range clients {
		w, err := b.Window(WindowID(win))
		if err != nil {
			// Windows can vanish between the list read and the geometry read.
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

// Window reads the metadata and frame geometry of a single client.
func (b *LinuxBackend) Window(id WindowID) (Window, error) {
	win := xproto.Window(id)
	bounds, err := b.conn.FrameRect(win)
	if err != nil {
		return Window{}, err
	}
	state := b.conn.GetWindowState(win)

	w := Window{
		ID:         id,
		AppID:      b.conn.AppID(win),
		Bounds:     bounds,
		Minimized:  state.Hidden,
		Maximized:  state.Maximized(),
		Fullscreen: state.Fullscreen,
		Attention:  state.DemandsAttention,
		Normal:     b.conn.IsNormalWindow(win),
		IsDesktop:  b.conn.IsDesktopWindow(win),
	}
	if name, err := ewmh.WmNameGet(b.conn.XUtil, win); err == nil {
		w.Title = name
	}
	if desktop, err := b.conn.GetWindowDesktop(uint32(win)); err == nil {
		w.Desktop = desktop
		w.DesktopKnown = true
	}
	return w, nil
}

// OverviewActive reports whether the window manager is showing the desktop.
func (b *LinuxBackend) OverviewActive() bool {
	return b.conn.ShowingDesktop()
}

// MoveResize requests a new frame rectangle for a client.
func (b *LinuxBackend) MoveResize(id WindowID, bounds dock.Rect) error {
	if bounds.Empty() {
		return fmt.Errorf("invalid bounds %s for window 0x%x", bounds, uint32(id))
	}
	return b.conn.MoveResizeWindow(xproto.Window(id), bounds)
}

// ConnectDisplay registers fn for display-wide events.
func (b *LinuxBackend) ConnectDisplay(fn func(dock.Event)) subscription.Handle {
	return b.display.Connect(fn)
}

// ConnectWindow registers fn for events of one kind on window id.
func (b *LinuxBackend) ConnectWindow(id uint32, kind dock.EventKind, fn func(dock.Event)) subscription.Handle {
	b.mu.Lock()
	em, ok := b.windows[id]
	if !ok {
		em = &subscription.Emitter[dock.Event]{}
		b.windows[id] = em
	}
	b.mu.Unlock()

	return em.Connect(func(ev dock.Event) {
		if ev.Kind == kind {
			fn(ev)
		}
	})
}

// Watch starts translating X events into dock events. post moves each
// delivery onto the caller's goroutine; nil delivers inline.
func (b *LinuxBackend) Watch(post func(func())) error {
	b.mu.Lock()
	if b.watched {
		b.mu.Unlock()
		return fmt.Errorf("backend is already watching")
	}
	b.watched = true
	b.post = post
	b.mu.Unlock()

	xu := b.conn.XUtil
	root := xwindow.New(xu, b.conn.Root)
	if err := root.Listen(xproto.EventMaskPropertyChange); err != nil {
		return fmt.Errorf("listen on root window: %w", err)
	}
	xevent.PropertyNotifyFun(b.rootProperty).Connect(xu, b.conn.Root)

	b.refreshMonitors()
	if err := b.conn.WatchScreenChanges(); err != nil {
		b.logger.Debug("screen change notifications unavailable", "error", err)
	} else {
		xevent.HookFun(b.screenHook).Connect(xu)
	}

	clients, err := b.conn.ClientList()
	if err != nil {
		return err
	}
	ids := make([]uint32, 0, len(clients))
	for _, win := range clients {
		ids = append(ids, uint32(win))
		b.watchClient(uint32(win))
	}
	b.mu.Lock()
	b.clients = ids
	b.mu.Unlock()
	return nil
}

// WatchPointer reports pointer crossings of the given windows as
// PointerEntered and PointerLeft display events until the handle is
// disconnected. X callbacks stay attached to the window afterwards but
// deliver nothing, so a window may be watched again later.
func (b *LinuxBackend) WatchPointer(windows ...xproto.Window) subscription.Handle {
	xu := b.conn.XUtil
	for _, win := range windows {
		b.mu.Lock()
		_, connected := b.pointer[win]
		b.pointer[win] = true
		b.mu.Unlock()
		if connected {
			continue
		}

		xevent.EnterNotifyFun(func(_ *xgbutil.XUtil, ev xevent.EnterNotifyEvent) {
			if ev.Detail == xproto.NotifyDetailInferior || !b.pointerActive(ev.Event) {
				return
			}
			b.emitDisplay(dock.Event{Kind: dock.PointerEntered, Window: uint32(ev.Event)})
		}).Connect(xu, win)
		xevent.LeaveNotifyFun(func(_ *xgbutil.XUtil, ev xevent.LeaveNotifyEvent) {
			// Crossing into a child of the dock is not leaving it.
			if ev.Detail == xproto.NotifyDetailInferior || !b.pointerActive(ev.Event) {
				return
			}
			b.emitDisplay(dock.Event{Kind: dock.PointerLeft, Window: uint32(ev.Event)})
		}).Connect(xu, win)
	}

	return subscription.Func(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for _, win := range windows {
			b.pointer[win] = false
		}
	})
}

func (b *LinuxBackend) pointerActive(win xproto.Window) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pointer[win]
}

// Close detaches every client callback.
func (b *LinuxBackend) Close() {
	b.watches.ReleaseAll()
	xevent.Detach(b.conn.XUtil, b.conn.Root)
}

func (b *LinuxBackend) rootProperty(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
	name, err := xprop.AtomName(xu, ev.Atom)
	if err != nil {
		return
	}
	if name == "_NET_CLIENT_LIST" {
		b.syncClients()
		return
	}
	kind, ok := RootPropertyEvent(name)
	if !ok {
		return
	}
	out := dock.Event{Kind: kind}
	if kind == dock.OverviewChanged {
		out.Active = b.conn.ShowingDesktop()
	}
	b.emitDisplay(out)
}

func (b *LinuxBackend) screenHook(_ *xgbutil.XUtil, event interface{}) bool {
	if _, ok := event.(randr.ScreenChangeNotifyEvent); !ok {
		return true
	}
	b.refreshMonitors()
	b.emitDisplay(dock.Event{Kind: dock.MonitorsChanged})
	return false
}

func (b *LinuxBackend) refreshMonitors() {
	monitors, err := b.conn.GetMonitors()
	if err != nil {
		b.logger.Warn("failed to read monitors", "error", err)
		return
	}
	b.mu.Lock()
	b.monitors = x11.DockMonitors(monitors)
	b.mu.Unlock()
}

func (b *LinuxBackend) syncClients() {
	clients, err := b.conn.ClientList()
	if err != nil {
		b.logger.Debug("failed to read client list", "error", err)
		return
	}
	next := make([]uint32, 0, len(clients))
	for _, win := range clients {
		next = append(next, uint32(win))
	}

	b.mu.Lock()
	added, removed := DiffClients(b.clients, next)
	b.clients = next
	b.mu.Unlock()

	for _, id := range removed {
		b.unwatchClient(id)
		b.emitDisplay(dock.Event{Kind: dock.WindowRemoved, Window: id})
	}
	for _, id := range added {
		b.watchClient(id)
		b.emitDisplay(dock.Event{Kind: dock.WindowCreated, Window: id})
	}
}

func (b *LinuxBackend) watchClient(id uint32) {
	if b.watches.Has(id) {
		return
	}
	xu := b.conn.XUtil
	win := xproto.Window(id)
	if err := xwindow.New(xu, win).Listen(xproto.EventMaskStructureNotify, xproto.EventMaskPropertyChange); err != nil {
		b.logger.Debug("failed to listen on client", "window", id, "error", err)
		return
	}

	rect, rectErr := b.conn.FrameRect(win)
	state := stateFlags(b.conn.GetWindowState(win))
	b.mu.Lock()
	if rectErr == nil {
		b.placements[id] = Placement{Rect: rect, Monitor: dock.MonitorIndexFor(b.monitors, rect)}
	}
	b.states[id] = state
	b.mu.Unlock()

	xevent.ConfigureNotifyFun(func(_ *xgbutil.XUtil, _ xevent.ConfigureNotifyEvent) {
		b.clientConfigured(id)
	}).Connect(xu, win)
	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		name, err := xprop.AtomName(xu, ev.Atom)
		if err != nil {
			return
		}
		switch name {
		case "_NET_WM_STATE":
			b.clientStateChanged(id)
		case "_NET_WM_DESKTOP":
			b.emitDisplay(dock.Event{Kind: dock.WorkspaceChanged, Window: id})
		}
	}).Connect(xu, win)

	b.watches.Add(id, subscription.Func(func() {
		xevent.Detach(xu, win)
	}))
}

func (b *LinuxBackend) unwatchClient(id uint32) {
	b.watches.Release(id)
	b.mu.Lock()
	delete(b.placements, id)
	delete(b.states, id)
	delete(b.windows, id)
	b.mu.Unlock()
}

func (b *LinuxBackend) clientConfigured(id uint32) {
	rect, err := b.conn.FrameRect(xproto.Window(id))
	if err != nil {
		return
	}
	b.mu.Lock()
	next := Placement{Rect: rect, Monitor: dock.MonitorIndexFor(b.monitors, rect)}
	prev, known := b.placements[id]
	b.placements[id] = next
	b.mu.Unlock()

	if !known {
		b.emitWindow(dock.Event{Kind: dock.WindowMoved, Window: id})
		return
	}
	for _, kind := range GeometryEvents(prev, next) {
		b.emitWindow(dock.Event{Kind: kind, Window: id})
	}
}

func (b *LinuxBackend) clientStateChanged(id uint32) {
	next := stateFlags(b.conn.GetWindowState(xproto.Window(id)))
	b.mu.Lock()
	prev := b.states[id]
	b.states[id] = next
	b.mu.Unlock()

	for _, ev := range StateEvents(id, prev, next) {
		if ev.Kind.PerWindow() {
			b.emitWindow(ev)
		} else {
			b.emitDisplay(ev)
		}
	}
}

func stateFlags(s x11.WindowState) StateFlags {
	return StateFlags{
		Minimized:  s.Hidden,
		Maximized:  s.Maximized(),
		Fullscreen: s.Fullscreen,
		Attention:  s.DemandsAttention,
	}
}

func (b *LinuxBackend) deliver(fn func()) {
	b.mu.Lock()
	post := b.post
	b.mu.Unlock()
	if post == nil {
		fn()
		return
	}
	post(fn)
}

func (b *LinuxBackend) emitDisplay(ev dock.Event) {
	b.deliver(func() { b.display.Emit(ev) })
}

func (b *LinuxBackend) emitWindow(ev dock.Event) {
	b.mu.Lock()
	em := b.windows[ev.Window]
	b.mu.Unlock()
	if em == nil {
		return
	}
	b.deliver(func() { em.Emit(ev) })
}
