package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/1broseidon/intellidock/internal/config"
	"github.com/1broseidon/intellidock/internal/daemon"
	"github.com/1broseidon/intellidock/internal/ipc"
	"github.com/1broseidon/intellidock/internal/runtimepath"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "recheck":
		os.Exit(runRecheck(os.Args[2:]))
	case "autohide":
		os.Exit(runAutoHide(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "monitors":
		os.Exit(runMonitors(os.Args[2:]))
	case "geometry":
		os.Exit(runGeometry(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: intellidock <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the intellidock daemon (foreground)")
	fmt.Fprintln(w, "  status              Show dock and daemon status")
	fmt.Fprintln(w, "  recheck             Force an obstruction check now")
	fmt.Fprintln(w, "  autohide            Turn intellihide on, off or toggle it")
	fmt.Fprintln(w, "  reload              Reload the daemon configuration")
	fmt.Fprintln(w, "  monitors            List monitors")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  geometry list       List remembered window geometry")
	fmt.Fprintln(w, "  geometry forget     Forget one application's geometry")
	fmt.Fprintln(w, "  geometry clear      Forget all remembered geometry")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'intellidock <command> --help' for command-specific options.")
}

// parseNoArgs parses a flag set for a command that takes no positional
// arguments. It returns -1 when the caller should continue.
func parseNoArgs(fs *flag.FlagSet, args []string) int {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "%s takes no arguments\n", fs.Name())
		fs.Usage()
		return 2
	}
	return -1
}

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("config", "", "Config file path (default: ~/.config/intellidock/config.yaml)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: intellidock daemon [--config PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Run the dock daemon in the foreground. SIGHUP reloads the config.")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if code := parseNoArgs(fs, args); code >= 0 {
		return code
	}

	res, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded",
		"files", len(res.Files),
		"autohide", res.Config.Dock.AutoHide,
		"position", res.Config.Dock.Position,
		"geometry", res.Config.Geometry.Enabled)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := daemon.New(res.Config, daemon.Options{
		ConfigPath: *path,
		Logger:     logger,
		Level:      level,
	})
	if err := d.Run(ctx); err != nil {
		logger.Error("daemon stopped", "err", err)
		return 1
	}
	logger.Info("daemon stopped")
	return 0
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "Print the raw status as JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: intellidock status [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show dock and daemon status via IPC.")
	}
	if code := parseNoArgs(fs, args); code >= 0 {
		return code
	}

	status, err := ipc.NewClient().GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		if pid, perr := runtimepath.ReadPID(); perr == nil && syscall.Kill(pid, 0) == nil {
			fmt.Fprintf(os.Stderr, "daemon pid %d is running but not answering\n", pid)
		} else {
			fmt.Fprintln(os.Stderr, "daemon is not running (start it with 'intellidock daemon')")
		}
		return 1
	}
	if *asJSON {
		return printJSON(status)
	}

	d := status.Dock
	rows := [][2]string{
		{"daemon_running", fmt.Sprint(status.DaemonRunning)},
		{"uptime_seconds", fmt.Sprint(status.UptimeSeconds)},
		{"config_file", status.ConfigFile},
		{"dock_window", status.DockWindow},
		{"enabled", fmt.Sprint(d.Enabled)},
		{"autohide", fmt.Sprint(d.AutoHide)},
		{"active", fmt.Sprint(d.Active)},
		{"overview", fmt.Sprint(d.Overview)},
		{"visibility", d.Visibility},
		{"obstructed", fmt.Sprint(d.Obstructed)},
		{"hovering", fmt.Sprint(d.Hovering)},
		{"position", d.Position},
		{"monitor", fmt.Sprint(d.Monitor)},
		{"candidate", fmt.Sprintf("%dx%d+%d+%d", d.Candidate.Width, d.Candidate.Height, d.Candidate.X, d.Candidate.Y)},
		{"tracked_windows", fmt.Sprint(d.TrackedWindows)},
		{"rechecks", fmt.Sprint(d.Rechecks)},
		{"last_reason", d.LastReason},
		{"geometry_enabled", fmt.Sprint(status.Geometry.Enabled)},
		{"geometry_tracked", fmt.Sprint(status.Geometry.Tracked)},
		{"geometry_pending", fmt.Sprint(status.Geometry.Pending)},
	}
	if d.Obstructor != 0 {
		rows = append(rows, [2]string{"obstructor", fmt.Sprintf("0x%x", d.Obstructor)})
	}
	if !d.LastRecheck.IsZero() {
		rows = append(rows, [2]string{"last_recheck", d.LastRecheck.Format(time.RFC3339)})
	}
	printRows(os.Stdout, rows)
	return 0
}

// printRows aligns key/value pairs for a terminal and prints plain
// "key: value" lines otherwise.
func printRows(w io.Writer, rows [][2]string) {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, r := range rows {
			fmt.Fprintf(tw, "%s:\t%s\n", r[0], r[1])
		}
		tw.Flush()
		return
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%s: %s\n", r[0], r[1])
	}
}

func printJSON(v any) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runRecheck(args []string) int {
	fs := flag.NewFlagSet("recheck", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: intellidock recheck")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Run an obstruction check immediately and print the result.")
	}
	if code := parseNoArgs(fs, args); code >= 0 {
		return code
	}

	res, err := ipc.NewClient().Recheck()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	printRows(os.Stdout, [][2]string{
		{"active", fmt.Sprint(res.Active)},
		{"obstructed", fmt.Sprint(res.Obstructed)},
		{"visibility", res.Visibility},
	})
	return 0
}

func runAutoHide(args []string) int {
	fs := flag.NewFlagSet("autohide", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: intellidock autohide [on|off|toggle]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Change intellihide until the next config reload. Defaults to toggle.")
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() > 1 {
		fmt.Fprintln(os.Stderr, "autohide takes at most one argument")
		fs.Usage()
		return 2
	}
	mode, err := ipc.ParseAutoHideMode(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return 2
	}

	on, err := ipc.NewClient().SetAutoHide(mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("autohide: %v\n", on)
	return 0
}

func runReload(args []string) int {
	fs := flag.NewFlagSet("reload", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: intellidock reload")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Ask the daemon to re-read its configuration file.")
	}
	if code := parseNoArgs(fs, args); code >= 0 {
		return code
	}
	if err := ipc.NewClient().Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("config reloaded")
	return 0
}

func runMonitors(args []string) int {
	fs := flag.NewFlagSet("monitors", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "Print monitors as JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: intellidock monitors [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List monitors. '*' marks the primary output, 'dock' the dock's monitor.")
	}
	if code := parseNoArgs(fs, args); code >= 0 {
		return code
	}

	data, err := ipc.NewClient().GetMonitors()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON {
		return printJSON(data)
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tNAME\tGEOMETRY\tFLAGS")
	for _, m := range data.Monitors {
		flags := ""
		if m.Primary {
			flags += "*"
		}
		if m.Dock {
			flags += " dock"
		}
		fmt.Fprintf(tw, "%d\t%s\t%dx%d+%d+%d\t%s\n", m.Index, m.Name, m.Width, m.Height, m.X, m.Y, flags)
	}
	tw.Flush()
	return 0
}

func loadConfig(path string) (*config.LoadResult, error) {
	if path == "" {
		return config.LoadWithSources()
	}
	return config.LoadFromPath(path)
}
