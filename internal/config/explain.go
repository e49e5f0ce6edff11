package config

import (
	"fmt"
	"sort"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths are the keys of the config file, for example:
//
//	log_level
//	toggle_hotkey
//	dock.position
//	dock.hide_delay_ms
//	geometry.database
//	metrics.listen
//
// dock.thickness reports the derived thickness when it is not set explicitly.
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

// Paths lists every path Explain accepts, sorted.
func Paths() []string {
	out := make([]string, 0, len(lookupTable))
	for path := range lookupTable {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

var lookupTable = map[string]func(*Config) any{
	"log_level":               func(c *Config) any { return c.LogLevel },
	"display":                 func(c *Config) any { return c.Display },
	"toggle_hotkey":           func(c *Config) any { return c.ToggleHotkey },
	"dock.enabled":            func(c *Config) any { return c.Dock.Enabled },
	"dock.autohide":           func(c *Config) any { return c.Dock.AutoHide },
	"dock.position":           func(c *Config) any { return c.Dock.Position.String() },
	"dock.panel_mode":         func(c *Config) any { return c.Dock.PanelMode },
	"dock.monitor":            func(c *Config) any { return c.Dock.Monitor },
	"dock.icon_size":          func(c *Config) any { return c.Dock.IconSize },
	"dock.padding":            func(c *Config) any { return c.Dock.Padding },
	"dock.border_width":       func(c *Config) any { return c.Dock.BorderWidth },
	"dock.thickness":          func(c *Config) any { return c.Dock.DockThickness() },
	"dock.margin":             func(c *Config) any { return c.Dock.Margin },
	"dock.length":             func(c *Config) any { return c.Dock.Length },
	"dock.window_class":       func(c *Config) any { return c.Dock.WindowClass },
	"dock.edge_trigger_size":  func(c *Config) any { return c.Dock.EdgeTriggerSize },
	"dock.debounce_ms":        func(c *Config) any { return c.Dock.DebounceMS },
	"dock.show_duration_ms":   func(c *Config) any { return c.Dock.ShowDurationMS },
	"dock.hide_duration_ms":   func(c *Config) any { return c.Dock.HideDurationMS },
	"dock.hide_delay_ms":      func(c *Config) any { return c.Dock.HideDelayMS },
	"dock.resync_interval_ms": func(c *Config) any { return c.Dock.ResyncIntervalMS },
	"geometry.enabled":        func(c *Config) any { return c.Geometry.Enabled },
	"geometry.database":       func(c *Config) any { return c.Geometry.Database },
	"geometry.save_delay_ms":  func(c *Config) any { return c.Geometry.SaveDelayMS },
	"geometry.min_size":       func(c *Config) any { return c.Geometry.MinSize },
	"metrics.listen":          func(c *Config) any { return c.Metrics.Listen },
}

func lookupValue(cfg *Config, path string) (any, error) {
	fn, ok := lookupTable[strings.TrimSpace(path)]
	if !ok {
		return nil, fmt.Errorf("unknown path: %s", path)
	}
	return fn(cfg), nil
}
