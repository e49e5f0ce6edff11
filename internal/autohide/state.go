package autohide

import (
	"time"

	"github.com/1broseidon/intellidock/internal/animate"
	"github.com/1broseidon/intellidock/internal/dock"
)

// Visibility is the displayed state of the dock.
type Visibility int

const (
	Visible Visibility = iota
	Hidden
)

func (v Visibility) String() string {
	if v == Hidden {
		return "hidden"
	}
	return "visible"
}

// State holds the two inputs of the visibility rule.
type State struct {
	Obstructed bool
	Hovering   bool
}

// ShouldBeVisible is true unless a window covers the dock and the pointer is away.
func (s State) ShouldBeVisible() bool {
	return !s.Obstructed || s.Hovering
}

// Animator receives every visibility change as a transition to play.
type Animator interface {
	Animate(animate.Transition)
}

// AnimatorFunc adapts a function into an Animator.
type AnimatorFunc func(animate.Transition)

func (f AnimatorFunc) Animate(tr animate.Transition) { f(tr) }

// Observer is notified of controller activity. Implementations must not block.
type Observer interface {
	Triggered(reason string, coalesced bool)
	Rechecked(obstructed bool, took time.Duration)
	VisibilityChanged(visible bool)
	TrackedWindows(n int)
}

type nopObserver struct{}

func (nopObserver) Triggered(string, bool)        {}
func (nopObserver) Rechecked(bool, time.Duration) {}
func (nopObserver) VisibilityChanged(bool)        {}
func (nopObserver) TrackedWindows(int)            {}

// Status is a point-in-time view of the controller for status queries.
type Status struct {
	Enabled        bool      `json:"enabled"`
	AutoHide       bool      `json:"autohide"`
	Active         bool      `json:"active"`
	Overview       bool      `json:"overview"`
	Obstructed     bool      `json:"obstructed"`
	Hovering       bool      `json:"hovering"`
	Visibility     string    `json:"visibility"`
	Position       string    `json:"position"`
	Candidate      dock.Rect `json:"candidate"`
	Monitor        int       `json:"monitor"`
	TrackedWindows int       `json:"tracked_windows"`
	PendingRecheck bool      `json:"pending_recheck"`
	Rechecks       int       `json:"rechecks"`
	LastReason     string    `json:"last_reason,omitempty"`
	LastRecheck    time.Time `json:"last_recheck,omitempty"`
	Obstructor     uint32    `json:"obstructor,omitempty"`
}
