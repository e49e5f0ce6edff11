// Package autohide decides when the dock should be shown or hidden.
//
// The controller keeps two inputs, whether any window obstructs the dock and
// whether the pointer hovers it, and emits a transition whenever the derived
// visibility changes. Every method must be called from the event loop that
// owns the controller's Scheduler.
package autohide

import (
	"log/slog"
	"time"

	"github.com/1broseidon/intellidock/internal/animate"
	"github.com/1broseidon/intellidock/internal/dock"
	"github.com/1broseidon/intellidock/internal/eventloop"
	"github.com/1broseidon/intellidock/internal/subscription"
)

const (
	DefaultDebounce     = 100 * time.Millisecond
	DefaultShowDuration = 200 * time.Millisecond
	DefaultHideDuration = 300 * time.Millisecond
	DefaultHideDelay    = 500 * time.Millisecond
)

// Host is the window system as seen by the controller.
type Host interface {
	Monitor() (dock.Monitor, error)
	Windows() ([]dock.WindowSnapshot, error)
	OverviewActive() bool
	// DockLength is the measured dock size along its edge, or 0 if unknown.
	DockLength() int
	ConnectDisplay(fn func(dock.Event)) subscription.Handle
	ConnectWindow(id uint32, kind dock.EventKind, fn func(dock.Event)) subscription.Handle
}

// Config tunes the controller.
type Config struct {
	Placement    dock.Placement
	Debounce     time.Duration
	ShowDuration time.Duration
	HideDuration time.Duration
	// HideDelay postpones hiding after the pointer leaves the dock.
	HideDelay time.Duration
	Logger    *slog.Logger
	Observer  Observer
}

// DefaultConfig returns the stock timings for a bottom dock.
func DefaultConfig() Config {
	return Config{
		Placement:    dock.Placement{Position: dock.PositionBottom, Thickness: dock.Thickness(48, 6, 0)},
		Debounce:     DefaultDebounce,
		ShowDuration: DefaultShowDuration,
		HideDuration: DefaultHideDuration,
		HideDelay:    DefaultHideDelay,
	}
}

type cause int

const (
	causeCheck cause = iota
	causePointerLeave
)

// Controller is the intellihide state machine.
type Controller struct {
	host   Host
	sched  eventloop.Scheduler
	anim   Animator
	cfg    Config
	logger *slog.Logger
	obs    Observer

	enabled  bool
	autohide bool
	active   bool
	overview bool

	state   State
	shown   Visibility
	pending eventloop.Cancel

	display subscription.Group
	windows subscription.Keyed[uint32]

	rechecks    int
	lastReason  string
	lastRecheck time.Time
	obstructor  uint32
}

// New creates an inactive controller. Call Enable and SetAutoHide to start it.
func New(host Host, sched eventloop.Scheduler, anim Animator, cfg Config) *Controller {
	c := &Controller{
		host:  host,
		sched: sched,
		anim:  anim,
	}
	c.configure(cfg)
	return c
}

func (c *Controller) configure(cfg Config) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	if cfg.Debounce < 0 {
		cfg.Debounce = 0
	}
	c.cfg = cfg
	c.logger = cfg.Logger
	c.obs = cfg.Observer
}

// Reconfigure replaces placement and timings, then schedules a recheck.
// A hidden dock jumps to the hidden frame of the new placement.
func (c *Controller) Reconfigure(cfg Config) {
	prev := c.hiddenFrame()
	c.configure(cfg)
	if c.active && c.shown == Hidden {
		if next := c.hiddenFrame(); next != prev {
			c.anim.Animate(animate.Transition{To: next, Immediate: true})
		}
	}
	c.Trigger("reconfigured")
}

// Enable turns the whole feature on or off.
func (c *Controller) Enable(on bool) {
	c.enabled = on
	c.apply()
}

// SetAutoHide turns intellihide on or off while the feature stays enabled.
func (c *Controller) SetAutoHide(on bool) {
	c.autohide = on
	c.apply()
}

// AutoHide reports the requested auto-hide setting.
func (c *Controller) AutoHide() bool {
	return c.autohide
}

// Active reports whether the controller is listening and may hide the dock.
func (c *Controller) Active() bool {
	return c.active
}

// Visibility returns the displayed state.
func (c *Controller) Visibility() Visibility {
	return c.shown
}

// State returns the current inputs.
func (c *Controller) State() State {
	return c.state
}

// ShouldHide reports whether the dock is currently meant to be hidden.
func (c *Controller) ShouldHide() bool {
	return c.active && !c.state.ShouldBeVisible()
}

func (c *Controller) apply() {
	want := c.enabled && c.autohide
	if want == c.active {
		return
	}
	if want {
		c.activate()
	} else {
		c.deactivate()
	}
}

func (c *Controller) activate() {
	c.active = true
	c.logger.Debug("autohide: activating")

	c.display.Add(c.host.ConnectDisplay(c.handleDisplay))
	c.resync()

	c.overview = c.host.OverviewActive()
	if c.overview {
		c.state.Obstructed = false
		c.update(causeCheck)
		return
	}
	c.Recheck()
}

func (c *Controller) deactivate() {
	c.active = false
	c.logger.Debug("autohide: deactivating")

	c.cancelPending()
	c.windows.ReleaseAll()
	c.display.Release()
	c.obs.TrackedWindows(0)

	c.state.Obstructed = false
	c.obstructor = 0
	if c.shown != Visible {
		c.obs.VisibilityChanged(true)
	}
	c.shown = Visible
	c.anim.Animate(animate.Transition{To: animate.Shown, Immediate: true})
}

func (c *Controller) cancelPending() {
	if c.pending != nil {
		c.pending()
		c.pending = nil
	}
}

// Trigger schedules a debounced recheck. Triggers arriving while one is
// already scheduled are dropped; the pending recheck reads live state.
func (c *Controller) Trigger(reason string) {
	if !c.active || c.overview {
		return
	}
	if c.pending != nil {
		c.obs.Triggered(reason, true)
		return
	}
	c.obs.Triggered(reason, false)
	c.lastReason = reason
	c.pending = c.sched.AfterFunc(c.cfg.Debounce, func() {
		c.pending = nil
		c.recheck()
	})
}

// Recheck recomputes obstruction immediately, superseding any pending trigger.
// It returns the new obstruction value.
func (c *Controller) Recheck() bool {
	c.cancelPending()
	c.recheck()
	return c.state.Obstructed
}

func (c *Controller) recheck() {
	if !c.active || c.overview {
		return
	}
	start := c.sched.Now()

	mon, err := c.host.Monitor()
	if err != nil {
		c.logger.Warn("autohide: read monitor", "error", err)
		return
	}
	windows, err := c.host.Windows()
	if err != nil {
		c.logger.Warn("autohide: list windows", "error", err)
		return
	}

	p := c.placement()
	hit, obstructed := dock.FirstObstruction(p, mon, windows, c.host.OverviewActive())

	c.rechecks++
	c.lastRecheck = start
	c.state.Obstructed = obstructed
	c.obstructor = 0
	if obstructed {
		c.obstructor = hit.ID
		c.logger.Debug("autohide: dock obstructed", "window", hit.ID, "rect", hit.Rect.String(), "candidate", p.Rect(mon).String())
	}
	c.obs.Rechecked(obstructed, c.sched.Now().Sub(start))
	c.update(causeCheck)
}

func (c *Controller) placement() dock.Placement {
	p := c.cfg.Placement
	if n := c.host.DockLength(); n > 0 {
		p.Length = n
	}
	return p
}

// PointerEnter marks the dock as hovered.
func (c *Controller) PointerEnter() {
	c.state.Hovering = true
	if c.active {
		c.update(causeCheck)
	}
}

// PointerLeave clears hover; a resulting hide waits for HideDelay.
func (c *Controller) PointerLeave() {
	c.state.Hovering = false
	if c.active {
		c.update(causePointerLeave)
	}
}

// SetOverview suspends obstruction checks while the overview is open.
func (c *Controller) SetOverview(on bool) {
	if c.overview == on {
		return
	}
	c.overview = on
	if !c.active {
		return
	}
	if on {
		c.cancelPending()
		c.state.Obstructed = false
		c.obstructor = 0
		c.update(causeCheck)
		return
	}
	c.Trigger("overview-ended")
}

func (c *Controller) update(why cause) {
	want := Visible
	if !c.state.ShouldBeVisible() {
		want = Hidden
	}
	if want == c.shown {
		return
	}
	c.shown = want
	c.logger.Debug("autohide: visibility changed", "visibility", want.String(), "obstructed", c.state.Obstructed, "hovering", c.state.Hovering)
	c.obs.VisibilityChanged(want == Visible)
	c.anim.Animate(c.transition(want, why))
}

func (c *Controller) transition(v Visibility, why cause) animate.Transition {
	if v == Visible {
		return animate.Transition{
			To:       animate.Shown,
			Duration: c.cfg.ShowDuration,
			Easing:   animate.EaseOutQuad,
		}
	}
	tr := animate.Transition{
		To:       c.hiddenFrame(),
		Duration: c.cfg.HideDuration,
		Easing:   animate.EaseInQuad,
	}
	if why == causePointerLeave {
		tr.Delay = c.cfg.HideDelay
	}
	return tr
}

func (c *Controller) hiddenFrame() animate.Frame {
	dx, dy := c.cfg.Placement.HiddenOffset()
	return animate.Frame{Opacity: 0, OffsetX: dx, OffsetY: dy}
}

func (c *Controller) handleDisplay(ev dock.Event) {
	switch ev.Kind {
	case dock.WindowCreated, dock.WindowRemoved:
		c.resync()
		c.Trigger(ev.Kind.String())
	case dock.OverviewChanged:
		c.SetOverview(ev.Active)
	case dock.PointerEntered:
		c.PointerEnter()
	case dock.PointerLeft:
		c.PointerLeave()
	default:
		c.Trigger(ev.Kind.String())
	}
}

func (c *Controller) handleWindow(ev dock.Event) {
	c.Trigger(ev.Kind.String())
}

// Resync reconciles per-window listeners with the host's window list.
func (c *Controller) Resync() {
	if c.active {
		c.resync()
	}
}

func (c *Controller) resync() {
	windows, err := c.host.Windows()
	if err != nil {
		c.logger.Warn("autohide: resync windows", "error", err)
		return
	}

	current := make(map[uint32]struct{}, len(windows))
	for _, w := range windows {
		current[w.ID] = struct{}{}
		if c.windows.Has(w.ID) {
			continue
		}
		for _, kind := range dock.WindowEventKinds {
			c.windows.Add(w.ID, c.host.ConnectWindow(w.ID, kind, c.handleWindow))
		}
	}
	for _, id := range c.windows.Keys() {
		if _, ok := current[id]; !ok {
			c.windows.Release(id)
		}
	}
	c.obs.TrackedWindows(c.windows.Len())
}

// Snapshot reports the controller state.
func (c *Controller) Snapshot() Status {
	st := Status{
		Enabled:        c.enabled,
		AutoHide:       c.autohide,
		Active:         c.active,
		Overview:       c.overview,
		Obstructed:     c.state.Obstructed,
		Hovering:       c.state.Hovering,
		Visibility:     c.shown.String(),
		Position:       c.cfg.Placement.Position.String(),
		Monitor:        -1,
		TrackedWindows: c.windows.Len(),
		PendingRecheck: c.pending != nil,
		Rechecks:       c.rechecks,
		LastReason:     c.lastReason,
		LastRecheck:    c.lastRecheck,
		Obstructor:     c.obstructor,
	}
	if mon, err := c.host.Monitor(); err == nil {
		st.Monitor = mon.Index
		st.Candidate = c.placement().Rect(mon)
	}
	return st
}
