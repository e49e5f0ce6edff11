package daemon

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func inline(_ context.Context, fn func()) error {
	fn()
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReconcileNowRunsEveryTask(t *testing.T) {
	var order []string
	r := NewReconciler(ReconcilerConfig{Logger: quietLogger()}, inline,
		Task{Name: "a", Run: func() error { order = append(order, "a"); return nil }},
		Task{Name: "b", Run: func() error { order = append(order, "b"); return errors.New("boom") }},
		Task{Name: "c", Run: func() error { panic("bad") }},
		Task{Name: "d", Run: func() error { order = append(order, "d"); return nil }},
	)

	r.ReconcileNow(context.Background())

	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "d" {
		t.Fatalf("unexpected order %v", order)
	}
}

func TestReconcilerSkipsWhenLoopStopped(t *testing.T) {
	var ran bool
	stopped := func(context.Context, func()) error { return errors.New("event loop stopped") }
	r := NewReconciler(ReconcilerConfig{Logger: quietLogger()}, stopped,
		Task{Name: "a", Run: func() error { ran = true; return nil }},
	)
	r.ReconcileNow(context.Background())
	if ran {
		t.Fatal("task ran although the executor refused it")
	}
}

func TestReconcilerInterval(t *testing.T) {
	r := NewReconciler(ReconcilerConfig{Logger: quietLogger()}, inline)
	if got := r.Interval(); got != 30*time.Second {
		t.Fatalf("default interval = %v", got)
	}
	r.SetInterval(5 * time.Second)
	if got := r.Interval(); got != 5*time.Second {
		t.Fatalf("interval = %v", got)
	}
	r.SetInterval(-1)
	if got := r.Interval(); got != 30*time.Second {
		t.Fatalf("non-positive interval = %v", got)
	}
}

func TestReconcilerRunTicks(t *testing.T) {
	var passes atomic.Int32
	r := NewReconciler(ReconcilerConfig{Interval: 5 * time.Millisecond, Logger: quietLogger()}, inline,
		Task{Name: "count", Run: func() error { passes.Add(1); return nil }},
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for passes.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("reconciler did not tick")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	<-done
}
