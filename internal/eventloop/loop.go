// Package eventloop runs all dock state changes on a single goroutine.
//
// Work reaches the loop via Post, timers via AfterFunc, and deferred
// low-priority callbacks via Idle. Other goroutines (IPC handlers, signal
// handlers) use Do to run a function on the loop and wait for it.
package eventloop

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrStopped is returned by Do once the loop has exited.
var ErrStopped = errors.New("event loop stopped")

// Cancel stops a pending timer or idle callback. It is safe to call more than once.
type Cancel func()

// Scheduler is the subset of the loop that controllers depend on.
type Scheduler interface {
	Post(fn func())
	AfterFunc(d time.Duration, fn func()) Cancel
	Idle(fn func()) Cancel
	Now() time.Time
}

// Loop is a cooperative single-goroutine executor.
type Loop struct {
	logger *slog.Logger

	mu      sync.Mutex
	queue   []func()
	idle    []*idleEntry
	wake    chan struct{}
	running bool
	stopped bool
	done    chan struct{}
}

type idleEntry struct {
	fn        func()
	cancelled bool
}

var _ Scheduler = (*Loop)(nil)

// New creates a loop. It does nothing until Run is called.
func New(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		logger: logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Now returns the wall clock time.
func (l *Loop) Now() time.Time {
	return time.Now()
}

// Post queues fn to run on the loop goroutine.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	l.signal()
}

// AfterFunc runs fn on the loop after d. Cancelling from the loop goroutine
// guarantees fn will not run.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Cancel {
	var (
		mu        sync.Mutex
		cancelled bool
	)
	timer := time.AfterFunc(d, func() {
		l.Post(func() {
			mu.Lock()
			skip := cancelled
			mu.Unlock()
			if !skip {
				fn()
			}
		})
	})
	return func() {
		mu.Lock()
		cancelled = true
		mu.Unlock()
		timer.Stop()
	}
}

// Idle runs fn once the posted queue has drained.
func (l *Loop) Idle(fn func()) Cancel {
	entry := &idleEntry{fn: fn}
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return func() {}
	}
	l.idle = append(l.idle, entry)
	l.mu.Unlock()
	l.signal()
	return func() {
		l.mu.Lock()
		entry.cancelled = true
		l.mu.Unlock()
	}
}

// Do runs fn on the loop and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	l.Post(func() {
		defer close(finished)
		fn()
	})

	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes work until ctx is cancelled. Blocks.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running || l.stopped {
		l.mu.Unlock()
		return errors.New("event loop already started")
	}
	l.running = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.stopped = true
		l.queue = nil
		l.idle = nil
		l.mu.Unlock()
		close(l.done)
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if fn, ok := l.next(); ok {
			l.runTask(fn)
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// next pops the next posted task, falling back to an idle callback.
func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.queue) > 0 {
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		return fn, true
	}

	for len(l.idle) > 0 {
		entry := l.idle[0]
		l.idle[0] = nil
		l.idle = l.idle[1:]
		if !entry.cancelled {
			return entry.fn, true
		}
	}
	return nil, false
}

func (l *Loop) runTask(fn func()) {
	defer func() {
		if err := recover(); err != nil {
			l.logger.Error("event loop task panic recovered", "error", err)
		}
	}()
	fn()
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}
