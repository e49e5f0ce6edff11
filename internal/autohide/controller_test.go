package autohide

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/1broseidon/intellidock/internal/animate"
	"github.com/1broseidon/intellidock/internal/dock"
	"github.com/1broseidon/intellidock/internal/eventloop"
	"github.com/1broseidon/intellidock/internal/subscription"
)

var testMonitor = dock.Monitor{Index: 0, X: 0, Y: 0, Width: 1920, Height: 1080}

// covering overlaps the 200x68 bottom dock on testMonitor.
func covering(id uint32) dock.WindowSnapshot {
	return dock.WindowSnapshot{
		ID:                 id,
		Rect:               dock.Rect{X: 900, Y: 1000, Width: 100, Height: 200},
		OnCurrentWorkspace: true,
	}
}

func elsewhere(id uint32) dock.WindowSnapshot {
	return dock.WindowSnapshot{
		ID:                 id,
		Rect:               dock.Rect{X: 0, Y: 0, Width: 800, Height: 600},
		OnCurrentWorkspace: true,
	}
}

type fakeHost struct {
	monitor    dock.Monitor
	monitorErr error
	windows    []dock.WindowSnapshot
	overview   bool
	length     int

	windowReads int
	display     subscription.Emitter[dock.Event]
	perWindow   map[uint32]*subscription.Emitter[dock.Event]
}

func newFakeHost(windows ...dock.WindowSnapshot) *fakeHost {
	return &fakeHost{
		monitor:   testMonitor,
		windows:   windows,
		length:    200,
		perWindow: make(map[uint32]*subscription.Emitter[dock.Event]),
	}
}

func (h *fakeHost) Monitor() (dock.Monitor, error) { return h.monitor, h.monitorErr }

func (h *fakeHost) Windows() ([]dock.WindowSnapshot, error) {
	h.windowReads++
	return append([]dock.WindowSnapshot(nil), h.windows...), nil
}

func (h *fakeHost) OverviewActive() bool { return h.overview }
func (h *fakeHost) DockLength() int      { return h.length }

func (h *fakeHost) ConnectDisplay(fn func(dock.Event)) subscription.Handle {
	return h.display.Connect(fn)
}

func (h *fakeHost) ConnectWindow(id uint32, kind dock.EventKind, fn func(dock.Event)) subscription.Handle {
	e, ok := h.perWindow[id]
	if !ok {
		e = &subscription.Emitter[dock.Event]{}
		h.perWindow[id] = e
	}
	return e.Connect(func(ev dock.Event) {
		if ev.Kind == kind {
			fn(ev)
		}
	})
}

func (h *fakeHost) emit(kind dock.EventKind) {
	h.display.Emit(dock.Event{Kind: kind})
}

func (h *fakeHost) emitWindow(id uint32, kind dock.EventKind) {
	if e, ok := h.perWindow[id]; ok {
		e.Emit(dock.Event{Kind: kind, Window: id})
	}
}

func (h *fakeHost) windowListeners(id uint32) int {
	if e, ok := h.perWindow[id]; ok {
		return e.Listeners()
	}
	return 0
}

type recordingAnimator struct {
	transitions []animate.Transition
}

func (a *recordingAnimator) Animate(tr animate.Transition) {
	a.transitions = append(a.transitions, tr)
}

func (a *recordingAnimator) last() animate.Transition {
	return a.transitions[len(a.transitions)-1]
}

type countingObserver struct {
	triggers  int
	coalesced int
	rechecks  int
	tracked   int
	changes   []bool
}

func (o *countingObserver) Triggered(_ string, coalesced bool) {
	if coalesced {
		o.coalesced++
		return
	}
	o.triggers++
}
func (o *countingObserver) Rechecked(bool, time.Duration) { o.rechecks++ }
func (o *countingObserver) VisibilityChanged(v bool)      { o.changes = append(o.changes, v) }
func (o *countingObserver) TrackedWindows(n int)          { o.tracked = n }

type harness struct {
	host  *fakeHost
	sched *eventloop.Manual
	anim  *recordingAnimator
	obs   *countingObserver
	ctrl  *Controller
}

func newHarness(t *testing.T, windows ...dock.WindowSnapshot) *harness {
	t.Helper()
	h := &harness{
		host:  newFakeHost(windows...),
		sched: eventloop.NewManual(),
		anim:  &recordingAnimator{},
		obs:   &countingObserver{},
	}
	cfg := DefaultConfig()
	cfg.Placement.Thickness = 68
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg.Observer = h.obs
	h.ctrl = New(h.host, h.sched, h.anim, cfg)
	return h
}

func (h *harness) start() {
	h.ctrl.Enable(true)
	h.ctrl.SetAutoHide(true)
}

func TestShouldBeVisible(t *testing.T) {
	tests := []struct {
		state State
		want  bool
	}{
		{State{}, true},
		{State{Obstructed: true}, false},
		{State{Obstructed: true, Hovering: true}, true},
		{State{Hovering: true}, true},
	}
	for _, tt := range tests {
		if got := tt.state.ShouldBeVisible(); got != tt.want {
			t.Errorf("%+v.ShouldBeVisible() = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestInactiveUntilEnabledAndAutoHide(t *testing.T) {
	h := newHarness(t, covering(1))

	h.ctrl.SetAutoHide(true)
	if h.ctrl.Active() {
		t.Fatal("controller active without Enable")
	}
	if h.host.display.Listeners() != 0 {
		t.Fatal("display listeners connected while inactive")
	}

	h.ctrl.Enable(true)
	if !h.ctrl.Active() {
		t.Fatal("controller not active after Enable and SetAutoHide")
	}
	if !h.ctrl.ShouldHide() {
		t.Fatal("expected obstructed dock to hide on activation")
	}
}

func TestActivationHidesObstructedDock(t *testing.T) {
	h := newHarness(t, covering(1))
	h.start()

	if h.ctrl.Visibility() != Hidden {
		t.Fatalf("visibility = %v, want hidden", h.ctrl.Visibility())
	}
	if len(h.anim.transitions) != 1 {
		t.Fatalf("expected 1 transition, got %d", len(h.anim.transitions))
	}
	tr := h.anim.last()
	if tr.To.Opacity != 0 || tr.To.OffsetY != 68 || tr.To.OffsetX != 0 {
		t.Fatalf("unexpected hide target %+v", tr.To)
	}
	if tr.Delay != 0 || tr.Immediate {
		t.Fatalf("obstruction hide should animate without delay, got %+v", tr)
	}
	if tr.Duration != DefaultHideDuration {
		t.Fatalf("hide duration = %v", tr.Duration)
	}
}

func TestUnobstructedDockStaysVisibleWithoutTransition(t *testing.T) {
	h := newHarness(t, elsewhere(1))
	h.start()

	if h.ctrl.ShouldHide() {
		t.Fatal("dock should not hide")
	}
	if len(h.anim.transitions) != 0 {
		t.Fatalf("expected no transitions, got %d", len(h.anim.transitions))
	}
}

func TestTriggersCoalesceWithinDebounceWindow(t *testing.T) {
	h := newHarness(t, elsewhere(1))
	h.start()
	base := h.obs.rechecks

	for i := 0; i < 5; i++ {
		h.ctrl.Trigger("test")
		h.sched.Advance(10 * time.Millisecond)
	}
	if h.obs.rechecks != base {
		t.Fatalf("recheck ran before debounce expired")
	}

	h.sched.Advance(DefaultDebounce)
	if got := h.obs.rechecks - base; got != 1 {
		t.Fatalf("expected exactly 1 recheck, got %d", got)
	}
	if h.obs.triggers != 1 || h.obs.coalesced != 4 {
		t.Fatalf("triggers=%d coalesced=%d, want 1/4", h.obs.triggers, h.obs.coalesced)
	}
}

func TestPendingTimerIsNotReset(t *testing.T) {
	h := newHarness(t, elsewhere(1))
	h.start()
	base := h.obs.rechecks

	h.ctrl.Trigger("first")
	h.sched.Advance(90 * time.Millisecond)
	h.ctrl.Trigger("late")
	h.sched.Advance(10 * time.Millisecond)

	if got := h.obs.rechecks - base; got != 1 {
		t.Fatalf("recheck should fire 100ms after the first trigger, got %d rechecks", got)
	}

	h.ctrl.Trigger("next")
	if h.sched.PendingTimers() != 1 {
		t.Fatalf("expected a fresh timer after the recheck")
	}
}

func TestWindowMoveTriggersHide(t *testing.T) {
	h := newHarness(t, elsewhere(7))
	h.start()

	h.host.windows = []dock.WindowSnapshot{covering(7)}
	h.host.emitWindow(7, dock.WindowMoved)
	if h.ctrl.Visibility() != Visible {
		t.Fatal("visibility changed before debounce")
	}

	h.sched.Advance(DefaultDebounce)
	if h.ctrl.Visibility() != Hidden {
		t.Fatal("expected dock hidden after window moved over it")
	}
}

func TestEveryPerWindowKindTriggers(t *testing.T) {
	for _, kind := range dock.WindowEventKinds {
		t.Run(kind.String(), func(t *testing.T) {
			h := newHarness(t, elsewhere(3))
			h.start()
			h.host.emitWindow(3, kind)
			if h.sched.PendingTimers() != 1 {
				t.Fatalf("%s did not schedule a recheck", kind)
			}
		})
	}
}

func TestDisplayEventsTrigger(t *testing.T) {
	for _, kind := range []dock.EventKind{dock.Attention, dock.WorkareaChanged, dock.Restacked, dock.WorkspaceChanged, dock.MonitorsChanged} {
		t.Run(kind.String(), func(t *testing.T) {
			h := newHarness(t)
			h.start()
			h.host.emit(kind)
			if h.sched.PendingTimers() != 1 {
				t.Fatalf("%s did not schedule a recheck", kind)
			}
		})
	}
}

func TestHoverOverridesObstruction(t *testing.T) {
	h := newHarness(t, covering(1))
	h.start()

	h.host.emit(dock.PointerEntered)
	if h.ctrl.Visibility() != Visible {
		t.Fatal("hover should reveal an obstructed dock")
	}
	show := h.anim.last()
	if show.To != animate.Shown || show.Duration != DefaultShowDuration || show.Easing != animate.EaseOutQuad {
		t.Fatalf("unexpected show transition %+v", show)
	}

	h.host.emit(dock.PointerLeft)
	if h.ctrl.Visibility() != Hidden {
		t.Fatal("leaving while obstructed should hide")
	}
	hide := h.anim.last()
	if hide.Delay != DefaultHideDelay || hide.Easing != animate.EaseInQuad {
		t.Fatalf("pointer-leave hide should be delayed, got %+v", hide)
	}
}

func TestHoverWithoutObstructionIsSilent(t *testing.T) {
	h := newHarness(t)
	h.start()

	h.ctrl.PointerEnter()
	h.ctrl.PointerLeave()
	if len(h.anim.transitions) != 0 {
		t.Fatalf("expected no transitions, got %d", len(h.anim.transitions))
	}
}

func TestDisableCancelsAndForcesVisible(t *testing.T) {
	h := newHarness(t, covering(1), elsewhere(2))
	h.start()
	h.ctrl.Trigger("pending")

	if h.host.windowListeners(1) != len(dock.WindowEventKinds) {
		t.Fatalf("window 1 listeners = %d", h.host.windowListeners(1))
	}

	h.ctrl.SetAutoHide(false)

	if h.sched.PendingTimers() != 0 {
		t.Fatal("pending recheck survived disable")
	}
	for _, id := range []uint32{1, 2} {
		if n := h.host.windowListeners(id); n != 0 {
			t.Fatalf("window %d still has %d listeners", id, n)
		}
	}
	if h.host.display.Listeners() != 0 {
		t.Fatal("display listener survived disable")
	}
	if h.ctrl.Visibility() != Visible || h.ctrl.State().Obstructed {
		t.Fatal("disable should force visible and clear obstruction")
	}
	if tr := h.anim.last(); !tr.Immediate || tr.To != animate.Shown {
		t.Fatalf("disable should show immediately, got %+v", tr)
	}
	if h.obs.tracked != 0 {
		t.Fatalf("tracked gauge = %d", h.obs.tracked)
	}

	before := h.obs.rechecks
	h.sched.Advance(time.Second)
	if h.obs.rechecks != before {
		t.Fatal("recheck ran after disable")
	}
}

func TestHoverSurvivesAutoHideToggle(t *testing.T) {
	h := newHarness(t, covering(1))
	h.start()
	h.ctrl.PointerEnter()

	h.ctrl.SetAutoHide(false)
	if !h.ctrl.State().Hovering {
		t.Fatal("disabling auto-hide cleared hover")
	}

	h.ctrl.SetAutoHide(true)
	if h.ctrl.ShouldHide() || h.ctrl.Visibility() != Visible {
		t.Fatalf("dock hid under the pointer: state=%+v", h.ctrl.State())
	}
	if !h.ctrl.State().Obstructed {
		t.Fatal("expected the covering window to count after re-enabling")
	}

	h.ctrl.PointerLeave()
	h.sched.Advance(DefaultHideDelay)
	if h.ctrl.Visibility() != Hidden {
		t.Fatal("dock should hide once the pointer leaves")
	}
}

func TestFeatureDisableAlsoDeactivates(t *testing.T) {
	h := newHarness(t, covering(1))
	h.start()
	h.ctrl.Enable(false)
	if h.ctrl.Active() || h.ctrl.ShouldHide() {
		t.Fatal("controller still active after Enable(false)")
	}
	if !h.ctrl.AutoHide() {
		t.Fatal("auto-hide preference should survive disabling the feature")
	}
}

func TestResyncOnWindowCreatedAndRemoved(t *testing.T) {
	h := newHarness(t, elsewhere(1))
	h.start()
	if h.obs.tracked != 1 {
		t.Fatalf("tracked = %d, want 1", h.obs.tracked)
	}

	h.host.windows = append(h.host.windows, elsewhere(2))
	h.host.emit(dock.WindowCreated)
	if h.obs.tracked != 2 {
		t.Fatalf("tracked = %d after create, want 2", h.obs.tracked)
	}
	if h.host.windowListeners(2) != len(dock.WindowEventKinds) {
		t.Fatalf("new window listeners = %d", h.host.windowListeners(2))
	}
	if h.host.windowListeners(1) != len(dock.WindowEventKinds) {
		t.Fatal("existing window was subscribed twice")
	}

	h.host.windows = []dock.WindowSnapshot{elsewhere(2)}
	h.host.emit(dock.WindowRemoved)
	if h.obs.tracked != 1 {
		t.Fatalf("tracked = %d after remove, want 1", h.obs.tracked)
	}
	if h.host.windowListeners(1) != 0 {
		t.Fatal("removed window still has listeners")
	}
}

func TestOverviewSuspendsChecks(t *testing.T) {
	h := newHarness(t, covering(1))
	h.start()
	if h.ctrl.Visibility() != Hidden {
		t.Fatal("precondition: dock hidden")
	}

	h.ctrl.Trigger("pending")
	h.host.overview = true
	h.host.display.Emit(dock.Event{Kind: dock.OverviewChanged, Active: true})

	if h.ctrl.Visibility() != Visible || h.ctrl.State().Obstructed {
		t.Fatal("overview should force the dock visible")
	}
	if h.sched.PendingTimers() != 0 {
		t.Fatal("overview should cancel the pending recheck")
	}

	h.ctrl.Trigger("ignored")
	if h.sched.PendingTimers() != 0 {
		t.Fatal("triggers should be ignored during overview")
	}

	h.host.overview = false
	h.host.display.Emit(dock.Event{Kind: dock.OverviewChanged, Active: false})
	if h.sched.PendingTimers() != 1 {
		t.Fatal("leaving overview should schedule a recheck")
	}
	h.sched.Advance(DefaultDebounce)
	if h.ctrl.Visibility() != Hidden {
		t.Fatal("dock should hide again after overview ends")
	}
}

func TestActivationDuringOverviewStaysVisible(t *testing.T) {
	h := newHarness(t, covering(1))
	h.host.overview = true
	h.start()
	if h.ctrl.ShouldHide() {
		t.Fatal("dock hidden while overview active")
	}
}

func TestDockLengthFromHostShapesCandidate(t *testing.T) {
	edge := dock.WindowSnapshot{
		ID:                 9,
		Rect:               dock.Rect{X: 500, Y: 1050, Width: 100, Height: 30},
		OnCurrentWorkspace: true,
	}
	h := newHarness(t, edge)
	h.start()
	if h.ctrl.ShouldHide() {
		t.Fatal("short dock should not reach the window")
	}

	h.host.length = 1000
	if !h.ctrl.Recheck() {
		t.Fatal("longer dock should overlap the window")
	}
}

func TestMonitorErrorKeepsState(t *testing.T) {
	h := newHarness(t, covering(1))
	h.start()
	h.host.monitorErr = errors.New("randr unavailable")
	h.host.windows = nil

	h.ctrl.Recheck()
	if h.ctrl.Visibility() != Hidden {
		t.Fatal("failed recheck should not change visibility")
	}
}

func TestHideDirectionFollowsPosition(t *testing.T) {
	tests := []struct {
		pos    dock.Position
		dx, dy int
	}{
		{dock.PositionBottom, 0, 68},
		{dock.PositionTop, 0, -68},
		{dock.PositionLeft, -68, 0},
		{dock.PositionRight, 68, 0},
	}
	for _, tt := range tests {
		t.Run(tt.pos.String(), func(t *testing.T) {
			h := newHarness(t)
			cfg := h.ctrl.cfg
			cfg.Placement.Position = tt.pos
			cfg.Placement.PanelMode = true
			h.ctrl.Reconfigure(cfg)
			h.host.windows = []dock.WindowSnapshot{{ID: 1, Rect: dock.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}, OnCurrentWorkspace: true}}
			h.start()

			tr := h.anim.last()
			if tr.To.OffsetX != tt.dx || tr.To.OffsetY != tt.dy {
				t.Fatalf("offset = (%d,%d), want (%d,%d)", tr.To.OffsetX, tr.To.OffsetY, tt.dx, tt.dy)
			}
		})
	}
}

func TestReconfigureMovesHiddenDock(t *testing.T) {
	h := newHarness(t, covering(1))
	h.start()
	if h.ctrl.Visibility() != Hidden {
		t.Fatal("expected hidden dock")
	}
	n := len(h.anim.transitions)

	cfg := h.ctrl.cfg
	cfg.Placement.Position = dock.PositionLeft
	h.ctrl.Reconfigure(cfg)

	if len(h.anim.transitions) != n+1 {
		t.Fatalf("expected one new transition, got %d", len(h.anim.transitions)-n)
	}
	tr := h.anim.last()
	want := animate.Frame{Opacity: 0, OffsetX: -68}
	if !tr.Immediate || tr.To != want {
		t.Fatalf("transition = %+v, want immediate to %+v", tr, want)
	}

	// Same hidden frame: nothing to send.
	h.ctrl.Reconfigure(cfg)
	if len(h.anim.transitions) != n+1 {
		t.Fatal("unchanged placement sent a transition")
	}
}

func TestSnapshot(t *testing.T) {
	h := newHarness(t, covering(4))
	h.start()
	h.ctrl.Trigger("restacked")

	st := h.ctrl.Snapshot()
	if !st.Active || !st.Obstructed || st.Visibility != "hidden" {
		t.Fatalf("unexpected status %+v", st)
	}
	if st.Obstructor != 4 || st.TrackedWindows != 1 || !st.PendingRecheck {
		t.Fatalf("unexpected status %+v", st)
	}
	want := dock.Rect{X: 860, Y: 1012, Width: 200, Height: 68}
	if st.Candidate != want {
		t.Fatalf("candidate = %v, want %v", st.Candidate, want)
	}
	if st.LastReason != "restacked" || st.Position != "bottom" {
		t.Fatalf("unexpected status %+v", st)
	}
}
