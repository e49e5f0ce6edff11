package geometry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/1broseidon/intellidock/internal/dock"
	"github.com/1broseidon/intellidock/internal/eventloop"
	"github.com/1broseidon/intellidock/internal/subscription"
)

const (
	DefaultMinSize   = 50
	DefaultSaveDelay = 2 * time.Second
)

// Window is the subset of window state the manager needs.
type Window struct {
	ID         uint32
	AppID      string
	Rect       dock.Rect
	Maximized  bool
	Fullscreen bool
	Desktop    bool
}

// Host is the window system as seen by the geometry manager.
type Host interface {
	ClientWindows() ([]Window, error)
	ClientWindow(id uint32) (Window, error)
	MoveResize(id uint32, r dock.Rect) error
	ConnectDisplay(fn func(dock.Event)) subscription.Handle
	ConnectWindow(id uint32, kind dock.EventKind, fn func(dock.Event)) subscription.Handle
}

// Persister is the storage behind the in-memory cache.
type Persister interface {
	List(ctx context.Context) ([]Entry, error)
	PutAll(ctx context.Context, entries []Entry) error
	Delete(ctx context.Context, appID string) error
	Clear(ctx context.Context) (int, error)
}

// Observer is notified of saves and restores.
type Observer interface {
	GeometrySaved(n int, err error)
	GeometryRestored(appID string)
}

type nopObserver struct{}

func (nopObserver) GeometrySaved(int, error) {}
func (nopObserver) GeometryRestored(string)  {}

// Config tunes the manager.
type Config struct {
	MinSize   int
	SaveDelay time.Duration
	Logger    *slog.Logger
	Observer  Observer
}

// Manager tracks client windows, caches their last frame per application and
// writes the cache behind a reset-on-change delay. Methods must run on the
// event loop that owns the scheduler.
type Manager struct {
	host   Host
	store  Persister
	sched  eventloop.Scheduler
	cfg    Config
	logger *slog.Logger
	obs    Observer

	enabled bool
	cache   map[string]Entry
	dirty   map[string]struct{}
	pending eventloop.Cancel

	display subscription.Group
	windows subscription.Keyed[uint32]
}

// NewManager creates a disabled manager.
func NewManager(host Host, store Persister, sched eventloop.Scheduler, cfg Config) *Manager {
	m := &Manager{
		host:  host,
		store: store,
		sched: sched,
		cache: make(map[string]Entry),
		dirty: make(map[string]struct{}),
	}
	m.configure(cfg)
	return m
}

func (m *Manager) configure(cfg Config) {
	if cfg.MinSize <= 0 {
		cfg.MinSize = DefaultMinSize
	}
	if cfg.SaveDelay <= 0 {
		cfg.SaveDelay = DefaultSaveDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	m.cfg = cfg
	m.logger = cfg.Logger
	m.obs = cfg.Observer
}

// Reconfigure replaces the thresholds. A save already scheduled keeps its
// original delay.
func (m *Manager) Reconfigure(cfg Config) {
	m.configure(cfg)
}

// Enabled reports whether the manager is tracking windows.
func (m *Manager) Enabled() bool {
	return m.enabled
}

// Enable loads the cache and starts tracking windows. Windows that already
// exist are tracked but not moved.
func (m *Manager) Enable(ctx context.Context) error {
	if m.enabled {
		return nil
	}
	entries, err := m.store.List(ctx)
	if err != nil {
		return fmt.Errorf("geometry: load cache: %w", err)
	}
	m.cache = make(map[string]Entry, len(entries))
	for _, e := range entries {
		m.cache[e.AppID] = e
	}

	m.enabled = true
	m.display.Add(m.host.ConnectDisplay(m.handleDisplay))
	m.sync(false)
	m.logger.Debug("geometry: enabled", "entries", len(m.cache))
	return nil
}

// Disable stops tracking and drops any unsaved changes.
func (m *Manager) Disable() {
	if !m.enabled {
		return
	}
	m.enabled = false
	if m.pending != nil {
		m.pending()
		m.pending = nil
	}
	m.windows.ReleaseAll()
	m.display.Release()
	m.dirty = make(map[string]struct{})
	m.logger.Debug("geometry: disabled")
}

// Tracked returns the number of windows being watched.
func (m *Manager) Tracked() int {
	return m.windows.Len()
}

func (m *Manager) handleDisplay(ev dock.Event) {
	switch ev.Kind {
	case dock.WindowCreated, dock.WindowRemoved:
		m.sync(true)
	}
}

// Resync reconciles tracked windows with the host without restoring.
func (m *Manager) Resync() {
	if m.enabled {
		m.sync(false)
	}
}

func (m *Manager) sync(restore bool) {
	windows, err := m.host.ClientWindows()
	if err != nil {
		m.logger.Warn("geometry: list windows", "error", err)
		return
	}

	current := make(map[uint32]struct{}, len(windows))
	for _, w := range windows {
		if w.Desktop {
			continue
		}
		current[w.ID] = struct{}{}
		if m.windows.Has(w.ID) {
			continue
		}
		if restore {
			m.restore(w)
		}
		m.windows.Add(w.ID,
			m.host.ConnectWindow(w.ID, dock.WindowMoved, m.handleWindow),
			m.host.ConnectWindow(w.ID, dock.WindowResized, m.handleWindow),
		)
	}
	for _, id := range m.windows.Keys() {
		if _, ok := current[id]; !ok {
			m.windows.Release(id)
		}
	}
}

func (m *Manager) restore(w Window) {
	if w.AppID == "" {
		return
	}
	e, ok := m.cache[w.AppID]
	if !ok || e.Width <= m.cfg.MinSize || e.Height <= m.cfg.MinSize {
		return
	}
	r := dock.Rect{X: e.X, Y: e.Y, Width: e.Width, Height: e.Height}
	if r == w.Rect {
		return
	}
	if err := m.host.MoveResize(w.ID, r); err != nil {
		m.logger.Warn("geometry: restore failed", "app", w.AppID, "window", w.ID, "error", err)
		return
	}
	m.logger.Info("geometry: restored", "app", w.AppID, "rect", r.String())
	m.obs.GeometryRestored(w.AppID)
}

func (m *Manager) handleWindow(ev dock.Event) {
	if !m.enabled {
		return
	}
	w, err := m.host.ClientWindow(ev.Window)
	if err != nil {
		m.logger.Debug("geometry: read window", "window", ev.Window, "error", err)
		return
	}
	m.record(w)
}

func (m *Manager) record(w Window) {
	if w.Maximized || w.Fullscreen || w.AppID == "" {
		return
	}
	m.cache[w.AppID] = Entry{
		AppID:     w.AppID,
		X:         w.Rect.X,
		Y:         w.Rect.Y,
		Width:     w.Rect.Width,
		Height:    w.Rect.Height,
		UpdatedAt: m.sched.Now(),
	}
	m.dirty[w.AppID] = struct{}{}

	if m.pending != nil {
		m.pending()
	}
	m.pending = m.sched.AfterFunc(m.cfg.SaveDelay, func() {
		m.pending = nil
		if err := m.Flush(context.Background()); err != nil {
			m.logger.Warn("geometry: save failed", "error", err)
		}
	})
}

// Pending returns the number of entries waiting to be written.
func (m *Manager) Pending() int {
	return len(m.dirty)
}

// Flush writes every unsaved entry now.
func (m *Manager) Flush(ctx context.Context) error {
	if m.pending != nil {
		m.pending()
		m.pending = nil
	}
	if len(m.dirty) == 0 {
		return nil
	}

	entries := make([]Entry, 0, len(m.dirty))
	for id := range m.dirty {
		if e, ok := m.cache[id]; ok {
			entries = append(entries, e)
		}
	}
	err := m.store.PutAll(ctx, entries)
	m.obs.GeometrySaved(len(entries), err)
	if err != nil {
		return fmt.Errorf("geometry: save %d entries: %w", len(entries), err)
	}
	m.dirty = make(map[string]struct{})
	m.logger.Debug("geometry: saved", "entries", len(entries))
	return nil
}

// List returns cached entries ordered by application ID, including unsaved ones.
func (m *Manager) List(ctx context.Context) ([]Entry, error) {
	if !m.enabled {
		return m.store.List(ctx)
	}
	entries := make([]Entry, 0, len(m.cache))
	for _, e := range m.cache {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].AppID < entries[j].AppID })
	return entries, nil
}

// Forget removes the saved geometry for appID.
func (m *Manager) Forget(ctx context.Context, appID string) error {
	_, cached := m.cache[appID]
	delete(m.cache, appID)
	delete(m.dirty, appID)

	err := m.store.Delete(ctx, appID)
	if errors.Is(err, ErrNotFound) && cached {
		return nil
	}
	return err
}

// Clear removes every saved entry and returns how many were known.
func (m *Manager) Clear(ctx context.Context) (int, error) {
	known := len(m.cache)
	m.cache = make(map[string]Entry)
	m.dirty = make(map[string]struct{})
	if m.pending != nil {
		m.pending()
		m.pending = nil
	}

	n, err := m.store.Clear(ctx)
	if err != nil {
		return 0, err
	}
	if n > known {
		known = n
	}
	return known, nil
}
