package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Task is one reconciliation step. Steps run on the event loop.
type Task struct {
	Name string
	Run  func() error
}

// Executor runs fn on the event loop and waits for it.
type Executor func(ctx context.Context, fn func()) error

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Reconciler periodically corrects drift between tracked state and the
// window system, covering events the X server never delivered.
type Reconciler struct {
	exec   Executor
	tasks  []Task
	logger *slog.Logger

	mu       sync.Mutex
	interval time.Duration
	reset    chan struct{}
}

// NewReconciler creates a reconciler that runs tasks through exec.
func NewReconciler(cfg ReconcilerConfig, exec Executor, tasks ...Task) *Reconciler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		exec:     exec,
		tasks:    tasks,
		logger:   logger,
		interval: normalizeInterval(cfg.Interval),
		reset:    make(chan struct{}, 1),
	}
}

func normalizeInterval(d time.Duration) time.Duration {
	if d <= 0 {
		return 30 * time.Second
	}
	return d
}

// Interval returns the current period.
func (r *Reconciler) Interval() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.interval
}

// SetInterval changes the period; the running timer restarts with it.
func (r *Reconciler) SetInterval(d time.Duration) {
	r.mu.Lock()
	changed := r.interval != normalizeInterval(d)
	r.interval = normalizeInterval(d)
	r.mu.Unlock()
	if !changed {
		return
	}
	select {
	case r.reset <- struct{}{}:
	default:
	}
}

// Run starts the reconciliation loop. Blocks until context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	timer := time.NewTimer(r.Interval())
	defer timer.Stop()

	r.logger.Info("reconciler started", "interval", r.Interval())

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-r.reset:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		case <-timer.C:
			r.ReconcileNow(ctx)
		}
		timer.Reset(r.Interval())
	}
}

// ReconcileNow runs every task immediately.
func (r *Reconciler) ReconcileNow(ctx context.Context) {
	err := r.exec(ctx, func() {
		for _, task := range r.tasks {
			r.runTask(task)
		}
	})
	if err != nil {
		r.logger.Debug("reconciler: pass skipped", "error", err)
	}
}

func (r *Reconciler) runTask(task Task) {
	// Recover from panics so one step cannot take down the daemon.
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "task", task.Name, "error", err)
		}
	}()
	if err := task.Run(); err != nil {
		r.logger.Warn("reconciler: task failed", "task", task.Name, "error", err)
	}
}
