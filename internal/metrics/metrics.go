// Package metrics exposes intellidock activity as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "intellidock"

// Metrics holds all collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Triggers        *prometheus.CounterVec
	Coalesced       prometheus.Counter
	Rechecks        *prometheus.CounterVec
	RecheckDuration prometheus.Histogram
	Transitions     *prometheus.CounterVec
	Visible         prometheus.Gauge
	Tracked         prometheus.Gauge

	GeometrySaves    *prometheus.CounterVec
	GeometryEntries  prometheus.Counter
	GeometryRestores prometheus.Counter

	Uptime    prometheus.GaugeFunc
	startTime time.Time
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		Triggers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "triggers_total",
				Help:      "Recheck triggers that scheduled a debounced recheck, by reason",
			},
			[]string{"reason"},
		),
		Coalesced: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "triggers_coalesced_total",
				Help:      "Triggers dropped because a recheck was already pending",
			},
		),
		Rechecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rechecks_total",
				Help:      "Obstruction rechecks, by result",
			},
			[]string{"result"},
		),
		RecheckDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "recheck_duration_seconds",
				Help:      "Time spent computing obstruction",
				Buckets:   []float64{.0001, .0005, .001, .0025, .005, .01, .025, .05, .1},
			},
		),
		Transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "visibility_transitions_total",
				Help:      "Dock visibility changes, by target state",
			},
			[]string{"visibility"},
		),
		Visible: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "dock_visible",
				Help:      "1 when the dock is meant to be shown",
			},
		),
		Tracked: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "tracked_windows",
				Help:      "Windows with live intellihide listeners",
			},
		),
		GeometrySaves: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "geometry_saves_total",
				Help:      "Geometry write-behind flushes, by result",
			},
			[]string{"result"},
		),
		GeometryEntries: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "geometry_entries_saved_total",
				Help:      "Geometry entries written to the database",
			},
		),
		GeometryRestores: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "geometry_restored_total",
				Help:      "Windows moved to their remembered geometry",
			},
		),
	}
	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Seconds since the daemon started",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)
	m.Visible.Set(1)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Triggered(reason string, coalesced bool) {
	if coalesced {
		m.Coalesced.Inc()
		return
	}
	m.Triggers.WithLabelValues(reason).Inc()
}

func (m *Metrics) Rechecked(obstructed bool, took time.Duration) {
	result := "clear"
	if obstructed {
		result = "obstructed"
	}
	m.Rechecks.WithLabelValues(result).Inc()
	m.RecheckDuration.Observe(took.Seconds())
}

func (m *Metrics) VisibilityChanged(visible bool) {
	if visible {
		m.Visible.Set(1)
		m.Transitions.WithLabelValues("visible").Inc()
		return
	}
	m.Visible.Set(0)
	m.Transitions.WithLabelValues("hidden").Inc()
}

func (m *Metrics) TrackedWindows(n int) {
	m.Tracked.Set(float64(n))
}

func (m *Metrics) GeometrySaved(n int, err error) {
	if err != nil {
		m.GeometrySaves.WithLabelValues("error").Inc()
		return
	}
	m.GeometrySaves.WithLabelValues("ok").Inc()
	m.GeometryEntries.Add(float64(n))
}

func (m *Metrics) GeometryRestored(string) {
	m.GeometryRestores.Inc()
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics: listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics: serve: %w", err)
	}
	return nil
}
