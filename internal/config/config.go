package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/intellidock/internal/dock"
)

// PrimaryMonitor selects the RandR primary output.
const PrimaryMonitor = -1

const (
	DefaultIconSize         = 48
	DefaultPadding          = 6
	DefaultEdgeTriggerSize  = 2
	DefaultDebounceMS       = 100
	DefaultShowDurationMS   = 200
	DefaultHideDurationMS   = 300
	DefaultHideDelayMS      = 500
	DefaultResyncIntervalMS = 30000
	DefaultSaveDelayMS      = 2000
	DefaultMinSize          = 50
)

// DockConfig controls the dock placement and the auto-hide behaviour.
type DockConfig struct {
	Enabled   bool          `yaml:"enabled"`
	AutoHide  bool          `yaml:"autohide"`
	Position  dock.Position `yaml:"position"`
	PanelMode bool          `yaml:"panel_mode"`
	// Monitor is a RandR monitor index, or -1 for the primary output.
	Monitor     int `yaml:"monitor"`
	IconSize    int `yaml:"icon_size"`
	Padding     int `yaml:"padding"`
	BorderWidth int `yaml:"border_width"`
	// Thickness overrides the size derived from icon_size, padding and border_width.
	Thickness int `yaml:"thickness,omitempty"`
	Margin    int `yaml:"margin"`
	// Length overrides the measured dock length. 0 measures the dock window.
	Length           int    `yaml:"length,omitempty"`
	WindowClass      string `yaml:"window_class,omitempty"`
	EdgeTriggerSize  int    `yaml:"edge_trigger_size"`
	DebounceMS       int    `yaml:"debounce_ms"`
	ShowDurationMS   int    `yaml:"show_duration_ms"`
	HideDurationMS   int    `yaml:"hide_duration_ms"`
	HideDelayMS      int    `yaml:"hide_delay_ms"`
	ResyncIntervalMS int    `yaml:"resync_interval_ms"`
}

// GeometryConfig controls per-application window geometry restore.
type GeometryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Database    string `yaml:"database,omitempty"`
	SaveDelayMS int    `yaml:"save_delay_ms"`
	MinSize     int    `yaml:"min_size"`
}

// MetricsConfig controls the Prometheus endpoint. An empty Listen disables it.
type MetricsConfig struct {
	Listen string `yaml:"listen,omitempty"`
}

// Config holds the application configuration.
type Config struct {
	LogLevel     string         `yaml:"log_level"`
	Display      string         `yaml:"display,omitempty"`
	ToggleHotkey string         `yaml:"toggle_hotkey,omitempty"`
	Dock         DockConfig     `yaml:"dock"`
	Geometry     GeometryConfig `yaml:"geometry"`
	Metrics      MetricsConfig  `yaml:"metrics"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel:     "info",
		ToggleHotkey: "Mod4-Mod1-h", // Super+Alt+H
		Dock: DockConfig{
			Enabled:          true,
			AutoHide:         true,
			Position:         dock.PositionBottom,
			Monitor:          PrimaryMonitor,
			IconSize:         DefaultIconSize,
			Padding:          DefaultPadding,
			EdgeTriggerSize:  DefaultEdgeTriggerSize,
			DebounceMS:       DefaultDebounceMS,
			ShowDurationMS:   DefaultShowDurationMS,
			HideDurationMS:   DefaultHideDurationMS,
			HideDelayMS:      DefaultHideDelayMS,
			ResyncIntervalMS: DefaultResyncIntervalMS,
		},
		Geometry: GeometryConfig{
			Enabled:     false,
			SaveDelayMS: DefaultSaveDelayMS,
			MinSize:     DefaultMinSize,
		},
	}
}

// Validate checks the effective configuration.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}

	d := c.Dock
	if d.Monitor < PrimaryMonitor {
		return &ValidationError{Path: "dock.monitor", Err: fmt.Errorf("monitor must be -1 (primary) or a monitor index")}
	}
	nonNegative := []struct {
		path  string
		value int
	}{
		{"dock.icon_size", d.IconSize},
		{"dock.padding", d.Padding},
		{"dock.border_width", d.BorderWidth},
		{"dock.thickness", d.Thickness},
		{"dock.margin", d.Margin},
		{"dock.length", d.Length},
		{"dock.debounce_ms", d.DebounceMS},
		{"dock.show_duration_ms", d.ShowDurationMS},
		{"dock.hide_duration_ms", d.HideDurationMS},
		{"dock.hide_delay_ms", d.HideDelayMS},
		{"dock.resync_interval_ms", d.ResyncIntervalMS},
		{"geometry.save_delay_ms", c.Geometry.SaveDelayMS},
		{"geometry.min_size", c.Geometry.MinSize},
	}
	for _, f := range nonNegative {
		if f.value < 0 {
			key := f.path[strings.LastIndex(f.path, ".")+1:]
			return &ValidationError{Path: f.path, Err: fmt.Errorf("%s must be >= 0", key)}
		}
	}
	if d.EdgeTriggerSize < 1 {
		return &ValidationError{Path: "dock.edge_trigger_size", Err: fmt.Errorf("edge_trigger_size must be >= 1")}
	}
	if d.AutoHide && d.Enabled && strings.TrimSpace(d.WindowClass) == "" {
		fmt.Fprintln(os.Stderr, "warning: dock.window_class is empty; intellidock will track obstruction without moving a dock window")
	}

	if c.Metrics.Listen != "" && !strings.Contains(c.Metrics.Listen, ":") {
		return &ValidationError{Path: "metrics.listen", Err: fmt.Errorf("listen must be host:port, got %q", c.Metrics.Listen)}
	}
	return nil
}

// SlogLevel maps log_level onto a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// DockThickness returns the configured thickness, deriving it from icon,
// padding and border sizes when not set explicitly.
func (d DockConfig) DockThickness() int {
	if d.Thickness > 0 {
		return d.Thickness
	}
	return dock.Thickness(d.IconSize, d.Padding, d.BorderWidth)
}

// Placement converts the dock settings into obstruction geometry.
func (d DockConfig) Placement() dock.Placement {
	thickness := d.DockThickness()
	return dock.Placement{
		Position:  d.Position,
		Thickness: thickness,
		Margin:    d.Margin,
		Length:    d.Length,
		PanelMode: d.PanelMode,
		Fallback:  thickness,
	}
}

func (d DockConfig) Debounce() time.Duration     { return ms(d.DebounceMS) }
func (d DockConfig) ShowDuration() time.Duration { return ms(d.ShowDurationMS) }
func (d DockConfig) HideDuration() time.Duration { return ms(d.HideDurationMS) }
func (d DockConfig) HideDelay() time.Duration    { return ms(d.HideDelayMS) }

// ResyncInterval is the period of the safety resync; 0 disables it.
func (d DockConfig) ResyncInterval() time.Duration { return ms(d.ResyncIntervalMS) }

func (g GeometryConfig) SaveDelay() time.Duration { return ms(g.SaveDelayMS) }

// DatabasePath returns the configured database or the default under
// ~/.local/share/intellidock.
func (g GeometryConfig) DatabasePath() (string, error) {
	if strings.TrimSpace(g.Database) != "" {
		return expandHome(g.Database)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "intellidock", "geometry.db"), nil
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}

// Save writes the configuration to the standard location.
//
// Note: this marshals the effective config and will not preserve comments or
// include structure from the original YAML.
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Marshal renders the effective configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}
