// Package daemon wires the X11 backend, the intellihide controller, the
// geometry manager and the control surfaces into one long-running process.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/intellidock/internal/animate"
	"github.com/1broseidon/intellidock/internal/autohide"
	"github.com/1broseidon/intellidock/internal/config"
	"github.com/1broseidon/intellidock/internal/dock"
	"github.com/1broseidon/intellidock/internal/eventloop"
	"github.com/1broseidon/intellidock/internal/geometry"
	"github.com/1broseidon/intellidock/internal/hotkeys"
	"github.com/1broseidon/intellidock/internal/ipc"
	"github.com/1broseidon/intellidock/internal/metrics"
	"github.com/1broseidon/intellidock/internal/platform"
	"github.com/1broseidon/intellidock/internal/runtimepath"
	"github.com/1broseidon/intellidock/internal/subscription"
	"github.com/1broseidon/intellidock/internal/x11"
)

// requestTimeout bounds how long an IPC request waits for the event loop.
const requestTimeout = 5 * time.Second

// Options configure a daemon.
type Options struct {
	// ConfigPath is re-read on reload. Empty means the default location.
	ConfigPath string
	Logger     *slog.Logger
	// Level, when set, follows log_level across reloads.
	Level *slog.LevelVar
}

// Daemon owns every long-lived component. Fields below the loop are only
// touched from the event loop once Run has started.
type Daemon struct {
	opts   Options
	logger *slog.Logger
	ctx    context.Context

	loop    *eventloop.Loop
	conn    *x11.Connection
	backend *platform.LinuxBackend
	metrics *metrics.Metrics
	server  *ipc.Server
	keys    *hotkeys.Handler
	resync  *Reconciler

	cfg        *config.Config
	host       *Host
	tween      *animate.Tween
	controller *autohide.Controller
	store      *geometry.Store
	geometry   *geometry.Manager

	dockWin *x11.DockWindow
	edge    *x11.EdgeTrigger
	pointer subscription.Handle
	display subscription.Group
}

var _ ipc.Handler = (*Daemon)(nil)

// New creates a daemon for cfg. Nothing touches the display until Run.
func New(cfg *config.Config, opts Options) *Daemon {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Level != nil {
		opts.Level.Set(cfg.SlogLevel())
	}
	return &Daemon{
		opts:    opts,
		logger:  opts.Logger,
		cfg:     cfg,
		metrics: metrics.New(),
	}
}

// Run connects to the display and serves until ctx is cancelled. SIGHUP
// reloads the configuration.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	d.ctx = ctx

	conn, err := x11.NewConnection(d.cfg.Display)
	if err != nil {
		return err
	}
	defer conn.Close()
	d.conn = conn

	d.loop = eventloop.New(d.logger)
	d.backend = platform.NewLinuxBackend(conn, d.logger)
	if err := d.backend.Watch(d.loop.Post); err != nil {
		return fmt.Errorf("watch display: %w", err)
	}
	defer d.backend.Close()

	d.host = NewHost(d.backend, d.backend)
	d.host.SetPlacement(d.cfg.Dock.Monitor, d.cfg.Dock.Position)
	d.tween = animate.NewTween(d.loop, nopTarget, d.logger)
	d.controller = autohide.New(d.host, d.loop, d.tween, d.controllerConfig())

	if err := d.openGeometry(); err != nil {
		return err
	}
	defer d.closeGeometry()

	d.keys = hotkeys.NewHandler(conn, d.loop.Post, d.logger)

	d.server, err = ipc.NewServer("", d, d.logger)
	if err != nil {
		return err
	}
	if err := d.server.Start(); err != nil {
		return err
	}
	defer d.server.Stop()

	pidPath, err := writePIDFile()
	if err != nil {
		d.logger.Warn("failed to write pid file", "error", err)
	} else {
		defer os.Remove(pidPath)
	}

	if addr := d.cfg.Metrics.Listen; addr != "" {
		go func() {
			if err := d.metrics.Serve(ctx, addr, d.logger); err != nil {
				d.logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	d.resync = NewReconciler(ReconcilerConfig{
		Interval: d.cfg.Dock.ResyncInterval(),
		Logger:   d.logger,
	}, d.loop.Do, d.resyncTasks()...)
	go d.resync.Run(ctx)

	go d.handleSignals(ctx)

	go conn.EventLoop()
	defer conn.Quit()

	d.loop.Post(d.start)
	d.logger.Info("intellidock daemon started", "position", d.cfg.Dock.Position.String(), "autohide", d.cfg.Dock.AutoHide)

	err = d.loop.Run(ctx)
	d.shutdown()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func writePIDFile() (string, error) {
	path, err := runtimepath.PIDPath()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o600); err != nil {
		return "", err
	}
	return path, nil
}

func (d *Daemon) handleSignals(ctx context.Context) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sigCh:
			d.logger.Info("received SIGHUP, reloading config")
			if err := d.Reload(); err != nil {
				d.logger.Error("config reload failed", "error", err)
			}
		}
	}
}

func (d *Daemon) openGeometry() error {
	path, err := d.cfg.Geometry.DatabasePath()
	if err == nil {
		d.store, err = geometry.Open(path)
	}
	if err != nil {
		if d.cfg.Geometry.Enabled {
			return fmt.Errorf("open geometry database: %w", err)
		}
		d.logger.Warn("geometry database unavailable", "error", err)
		return nil
	}
	d.geometry = geometry.NewManager(d.host, d.store, d.loop, d.geometryConfig())
	return nil
}

func (d *Daemon) closeGeometry() {
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			d.logger.Warn("failed to close geometry database", "error", err)
		}
	}
}

// start runs on the loop once the X event goroutine is live.
func (d *Daemon) start() {
	d.display.Add(d.backend.ConnectDisplay(d.handleDisplay))
	d.attachDock()
	d.bindHotkeys()
	d.controller.Enable(d.cfg.Dock.Enabled)
	d.controller.SetAutoHide(d.cfg.Dock.AutoHide)
	d.applyGeometryEnabled()
}

// shutdown runs after the loop has stopped, so nothing else touches state.
func (d *Daemon) shutdown() {
	d.logger.Info("shutting down intellidock daemon")
	d.keys.UnregisterAll()
	d.display.Release()
	if d.geometry != nil && d.geometry.Enabled() {
		flushCtx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		if err := d.geometry.Flush(flushCtx); err != nil {
			d.logger.Warn("failed to flush geometry", "error", err)
		}
		cancel()
		d.geometry.Disable()
	}
	d.controller.Enable(false)
	d.detachDock()
}

func (d *Daemon) controllerConfig() autohide.Config {
	dc := d.cfg.Dock
	return autohide.Config{
		Placement:    dc.Placement(),
		Debounce:     dc.Debounce(),
		ShowDuration: dc.ShowDuration(),
		HideDuration: dc.HideDuration(),
		HideDelay:    dc.HideDelay(),
		Logger:       d.logger,
		Observer:     d.metrics,
	}
}

func (d *Daemon) geometryConfig() geometry.Config {
	return geometry.Config{
		MinSize:   d.cfg.Geometry.MinSize,
		SaveDelay: d.cfg.Geometry.SaveDelay(),
		Logger:    d.logger,
		Observer:  d.metrics,
	}
}

func (d *Daemon) resyncTasks() []Task {
	return []Task{
		{Name: "autohide", Run: func() error {
			d.controller.Resync()
			d.controller.Trigger("resync")
			return nil
		}},
		{Name: "geometry", Run: func() error {
			if d.geometry == nil || !d.geometry.Enabled() {
				return nil
			}
			d.geometry.Resync()
			return d.geometry.Flush(d.ctx)
		}},
	}
}

func (d *Daemon) handleDisplay(ev dock.Event) {
	switch ev.Kind {
	case dock.MonitorsChanged, dock.WorkareaChanged:
		d.placeDock()
	}
}

// attachDock finds the dock window and the edge trigger that reveals it.
// Without a dock window the controller still runs and reports state.
func (d *Daemon) attachDock() {
	d.detachDock()

	class := d.cfg.Dock.WindowClass
	if class == "" {
		return
	}
	win, err := d.conn.FindDockWindow(class)
	if err != nil {
		d.logger.Warn("dock window not found", "class", class, "error", err)
		return
	}
	if err := win.ListenPointer(); err != nil {
		d.logger.Warn("failed to listen for pointer on dock", "window", win.ID, "error", err)
	}
	d.dockWin = win
	d.host.SetDock(uint32(win.ID), win.Home)

	target := &dockTarget{dock: win}
	watch := []xproto.Window{win.ID}
	if mon, err := d.host.Monitor(); err == nil {
		r := x11.EdgeRect(d.cfg.Dock.Position, mon, win.Home, d.cfg.Dock.EdgeTriggerSize)
		edge, err := d.conn.NewEdgeTrigger(r)
		if err != nil {
			d.logger.Warn("failed to create edge trigger", "error", err)
		} else {
			d.edge = edge
			target.edge = edge
			watch = append(watch, edge.Window)
		}
	}
	d.pointer = d.backend.WatchPointer(watch...)

	d.tween.SetTarget(target)
	if err := target.Apply(d.tween.Current()); err != nil {
		d.logger.Debug("failed to apply dock frame", "error", err)
	}
	d.logger.Info("dock window attached", "window", fmt.Sprintf("0x%x", uint32(win.ID)), "rect", win.Home.String())
}

// detachDock leaves the dock fully shown and removes the edge trigger.
func (d *Daemon) detachDock() {
	d.tween.Stop()
	d.tween.SetTarget(nopTarget)
	if d.pointer != nil {
		d.pointer.Disconnect()
		d.pointer = nil
	}
	if d.dockWin != nil {
		_ = (&dockTarget{dock: d.dockWin}).Apply(animate.Shown)
		d.dockWin = nil
	}
	if d.edge != nil {
		d.edge.Destroy()
		d.edge = nil
	}
	d.host.SetDock(0, dock.Rect{})
}

// placeDock re-reads the dock's home geometry after a screen change. The
// read is skipped while the dock is displaced.
func (d *Daemon) placeDock() {
	if d.dockWin == nil {
		return
	}
	if d.tween.Current() == animate.Shown && !d.tween.Busy() {
		if err := d.dockWin.Refresh(); err != nil {
			d.logger.Debug("failed to refresh dock geometry", "error", err)
		}
		d.host.SetDock(uint32(d.dockWin.ID), d.dockWin.Home)
	}
	if d.edge == nil {
		return
	}
	mon, err := d.host.Monitor()
	if err != nil {
		return
	}
	d.edge.Place(x11.EdgeRect(d.cfg.Dock.Position, mon, d.dockWin.Home, d.cfg.Dock.EdgeTriggerSize))
}

func (d *Daemon) bindHotkeys() {
	d.keys.UnregisterAll()
	err := d.keys.RegisterToggle(d.cfg.ToggleHotkey, func() {
		on := !d.controller.AutoHide()
		d.controller.SetAutoHide(on)
		d.cfg.Dock.AutoHide = on
		d.logger.Info("autohide toggled", "autohide", on)
	})
	if err != nil {
		d.logger.Warn("failed to register toggle hotkey", "error", err)
	}
}

func (d *Daemon) applyGeometryEnabled() {
	if d.geometry == nil {
		return
	}
	if !d.cfg.Geometry.Enabled {
		if d.geometry.Enabled() {
			if err := d.geometry.Flush(d.ctx); err != nil {
				d.logger.Warn("failed to flush geometry", "error", err)
			}
			d.geometry.Disable()
		}
		return
	}
	if err := d.geometry.Enable(d.ctx); err != nil {
		d.logger.Error("failed to enable geometry restore", "error", err)
	}
}

// apply switches the running daemon to cfg. Runs on the loop.
func (d *Daemon) apply(cfg *config.Config) {
	prev := d.cfg
	d.cfg = cfg
	if d.opts.Level != nil {
		d.opts.Level.Set(cfg.SlogLevel())
	}

	d.host.SetPlacement(cfg.Dock.Monitor, cfg.Dock.Position)
	if prev.Dock.WindowClass != cfg.Dock.WindowClass || d.dockWin == nil ||
		prev.Dock.Position != cfg.Dock.Position || prev.Dock.Monitor != cfg.Dock.Monitor ||
		prev.Dock.EdgeTriggerSize != cfg.Dock.EdgeTriggerSize {
		d.attachDock()
	}
	if prev.ToggleHotkey != cfg.ToggleHotkey {
		d.bindHotkeys()
	}

	d.controller.Reconfigure(d.controllerConfig())
	d.controller.Enable(cfg.Dock.Enabled)
	d.controller.SetAutoHide(cfg.Dock.AutoHide)

	if d.geometry != nil {
		d.geometry.Reconfigure(d.geometryConfig())
	}
	d.applyGeometryEnabled()
	d.resync.SetInterval(cfg.Dock.ResyncInterval())

	if prev.Metrics.Listen != cfg.Metrics.Listen || prev.Geometry.Database != cfg.Geometry.Database || prev.Display != cfg.Display {
		d.logger.Warn("display, metrics.listen and geometry.database take effect after a restart")
	}
	d.logger.Info("config reloaded")
}

func (d *Daemon) configPath() (string, error) {
	if d.opts.ConfigPath != "" {
		return d.opts.ConfigPath, nil
	}
	return config.DefaultConfigPath()
}

// do runs fn on the loop on behalf of an IPC request.
func (d *Daemon) do(fn func()) error {
	ctx, cancel := context.WithTimeout(d.ctx, requestTimeout)
	defer cancel()
	return d.loop.Do(ctx, fn)
}

// Reload re-reads the configuration file and applies it. A file that fails
// to load or validate leaves the running configuration untouched.
func (d *Daemon) Reload() error {
	path, err := d.configPath()
	if err != nil {
		return err
	}
	res, err := config.LoadFromPath(path)
	if err != nil {
		return err
	}
	return d.do(func() { d.apply(res.Config) })
}

// Status implements ipc.Handler.
func (d *Daemon) Status() (ipc.StatusData, error) {
	var status ipc.StatusData
	err := d.do(func() {
		status.Dock = d.controller.Snapshot()
		if d.geometry != nil {
			status.Geometry = ipc.GeometryStatus{
				Enabled: d.geometry.Enabled(),
				Tracked: d.geometry.Tracked(),
				Pending: d.geometry.Pending(),
			}
		}
		if d.dockWin != nil {
			status.DockWindow = fmt.Sprintf("0x%x", uint32(d.dockWin.ID))
		}
	})
	if path, perr := d.configPath(); perr == nil {
		status.ConfigFile = path
	}
	return status, err
}

// Monitors implements ipc.Handler.
func (d *Daemon) Monitors() ([]ipc.MonitorInfo, error) {
	var (
		out  []ipc.MonitorInfo
		rerr error
	)
	err := d.do(func() {
		displays, err := d.backend.Displays()
		if err != nil {
			rerr = err
			return
		}
		selected, _ := SelectDisplay(displays, d.cfg.Dock.Monitor)
		out = make([]ipc.MonitorInfo, 0, len(displays))
		for _, disp := range displays {
			out = append(out, ipc.MonitorInfo{
				Monitor: disp.Monitor,
				Primary: disp.Primary,
				Dock:    disp.Index == selected.Index,
			})
		}
	})
	if err != nil {
		return nil, err
	}
	return out, rerr
}

// Recheck implements ipc.Handler.
func (d *Daemon) Recheck() (ipc.RecheckData, error) {
	var data ipc.RecheckData
	err := d.do(func() {
		data.Obstructed = d.controller.Recheck()
		data.Visibility = d.controller.Visibility().String()
		data.Active = d.controller.Active()
	})
	return data, err
}

// SetAutoHide implements ipc.Handler.
func (d *Daemon) SetAutoHide(mode ipc.AutoHideMode) (bool, error) {
	var on bool
	err := d.do(func() {
		switch mode {
		case ipc.AutoHideOn:
			on = true
		case ipc.AutoHideOff:
			on = false
		default:
			on = !d.controller.AutoHide()
		}
		d.controller.SetAutoHide(on)
		d.cfg.Dock.AutoHide = on
	})
	return on, err
}

// ListGeometry implements ipc.Handler.
func (d *Daemon) ListGeometry() ([]geometry.Entry, error) {
	var (
		entries []geometry.Entry
		lerr    error
	)
	err := d.withGeometry(func(m *geometry.Manager) {
		entries, lerr = m.List(d.ctx)
	})
	if err != nil {
		return nil, err
	}
	return entries, lerr
}

// ForgetGeometry implements ipc.Handler.
func (d *Daemon) ForgetGeometry(appID string) error {
	var ferr error
	err := d.withGeometry(func(m *geometry.Manager) {
		ferr = m.Forget(d.ctx, appID)
	})
	if err != nil {
		return err
	}
	return ferr
}

// ClearGeometry implements ipc.Handler.
func (d *Daemon) ClearGeometry() (int, error) {
	var (
		n    int
		cerr error
	)
	err := d.withGeometry(func(m *geometry.Manager) {
		n, cerr = m.Clear(d.ctx)
	})
	if err != nil {
		return 0, err
	}
	return n, cerr
}

var errNoGeometry = errors.New("geometry database unavailable")

func (d *Daemon) withGeometry(fn func(*geometry.Manager)) error {
	if d.geometry == nil {
		return errNoGeometry
	}
	return d.do(func() { fn(d.geometry) })
}
