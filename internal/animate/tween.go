// Package animate drives dock fade and slide transitions frame by frame on
// the event loop.
package animate

import (
	"log/slog"
	"math"
	"time"

	"github.com/1broseidon/intellidock/internal/eventloop"
)

// FrameInterval is the default time between animation frames.
const FrameInterval = 16 * time.Millisecond

// Easing selects the interpolation curve.
type Easing int

const (
	Linear Easing = iota
	EaseOutQuad
	EaseInQuad
)

// At maps linear progress p in [0,1] onto the curve.
func (e Easing) At(p float64) float64 {
	p = math.Max(0, math.Min(1, p))
	switch e {
	case EaseOutQuad:
		return p * (2 - p)
	case EaseInQuad:
		return p * p
	default:
		return p
	}
}

// Frame is the visual state applied to the dock.
type Frame struct {
	Opacity float64
	OffsetX int
	OffsetY int
}

// Shown is the resting frame of a visible dock.
var Shown = Frame{Opacity: 1}

func lerp(from, to Frame, p float64) Frame {
	return Frame{
		Opacity: from.Opacity + (to.Opacity-from.Opacity)*p,
		OffsetX: from.OffsetX + int(math.Round(float64(to.OffsetX-from.OffsetX)*p)),
		OffsetY: from.OffsetY + int(math.Round(float64(to.OffsetY-from.OffsetY)*p)),
	}
}

// Transition describes a move towards a target frame.
type Transition struct {
	To        Frame
	Duration  time.Duration
	Delay     time.Duration
	Easing    Easing
	Immediate bool
}

// Target receives frames.
type Target interface {
	Apply(Frame) error
}

// TargetFunc adapts a function into a Target.
type TargetFunc func(Frame) error

func (f TargetFunc) Apply(fr Frame) error { return f(fr) }

// Tween animates a single target. A new transition replaces the one in
// flight, starting from whatever frame was last applied.
type Tween struct {
	sched    eventloop.Scheduler
	target   Target
	logger   *slog.Logger
	interval time.Duration

	current Frame
	cancel  eventloop.Cancel
	busy    bool
}

// NewTween creates a tween resting at the Shown frame.
func NewTween(sched eventloop.Scheduler, target Target, logger *slog.Logger) *Tween {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tween{
		sched:    sched,
		target:   target,
		logger:   logger,
		interval: FrameInterval,
		current:  Shown,
	}
}

// SetTarget swaps the target and immediately applies the current frame to it.
func (t *Tween) SetTarget(target Target) {
	t.target = target
	t.apply(t.current)
}

// Current returns the last applied frame.
func (t *Tween) Current() Frame {
	return t.current
}

// Busy reports whether a transition is delayed or running.
func (t *Tween) Busy() bool {
	return t.busy
}

// Stop abandons the transition in flight, leaving the current frame.
func (t *Tween) Stop() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.busy = false
}

// Animate starts tr, replacing any transition in flight.
func (t *Tween) Animate(tr Transition) {
	t.Stop()

	if tr.Immediate || (tr.Duration <= 0 && tr.Delay <= 0) {
		t.apply(tr.To)
		return
	}

	t.busy = true
	if tr.Delay > 0 {
		t.cancel = t.sched.AfterFunc(tr.Delay, func() { t.begin(tr) })
		return
	}
	t.begin(tr)
}

func (t *Tween) begin(tr Transition) {
	if tr.Duration <= 0 {
		t.apply(tr.To)
		t.busy = false
		t.cancel = nil
		return
	}

	from := t.current
	start := t.sched.Now()

	var step func()
	step = func() {
		p := float64(t.sched.Now().Sub(start)) / float64(tr.Duration)
		if p >= 1 {
			t.apply(tr.To)
			t.busy = false
			t.cancel = nil
			return
		}
		t.apply(lerp(from, tr.To, tr.Easing.At(p)))
		t.cancel = t.sched.AfterFunc(t.interval, step)
	}
	t.cancel = t.sched.AfterFunc(t.interval, step)
}

func (t *Tween) apply(fr Frame) {
	t.current = fr
	if t.target == nil {
		return
	}
	if err := t.target.Apply(fr); err != nil {
		t.logger.Debug("animate: apply frame failed", "error", err)
	}
}
