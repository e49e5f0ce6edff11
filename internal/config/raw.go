package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawDock struct {
	Enabled          *bool   `yaml:"enabled"`
	AutoHide         *bool   `yaml:"autohide"`
	Position         *string `yaml:"position"`
	PanelMode        *bool   `yaml:"panel_mode"`
	Monitor          *int    `yaml:"monitor"`
	IconSize         *int    `yaml:"icon_size"`
	Padding          *int    `yaml:"padding"`
	BorderWidth      *int    `yaml:"border_width"`
	Thickness        *int    `yaml:"thickness"`
	Margin           *int    `yaml:"margin"`
	Length           *int    `yaml:"length"`
	WindowClass      *string `yaml:"window_class"`
	EdgeTriggerSize  *int    `yaml:"edge_trigger_size"`
	DebounceMS       *int    `yaml:"debounce_ms"`
	ShowDurationMS   *int    `yaml:"show_duration_ms"`
	HideDurationMS   *int    `yaml:"hide_duration_ms"`
	HideDelayMS      *int    `yaml:"hide_delay_ms"`
	ResyncIntervalMS *int    `yaml:"resync_interval_ms"`
}

type RawGeometry struct {
	Enabled     *bool   `yaml:"enabled"`
	Database    *string `yaml:"database"`
	SaveDelayMS *int    `yaml:"save_delay_ms"`
	MinSize     *int    `yaml:"min_size"`
}

type RawMetrics struct {
	Listen *string `yaml:"listen"`
}

type RawConfig struct {
	Include      IncludeList  `yaml:"include"`
	LogLevel     *string      `yaml:"log_level"`
	Display      *string      `yaml:"display"`
	ToggleHotkey *string      `yaml:"toggle_hotkey"`
	Dock         *RawDock     `yaml:"dock"`
	Geometry     *RawGeometry `yaml:"geometry"`
	Metrics      *RawMetrics  `yaml:"metrics"`
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	if overlay.Display != nil {
		out.Display = overlay.Display
	}
	if overlay.ToggleHotkey != nil {
		out.ToggleHotkey = overlay.ToggleHotkey
	}
	if overlay.Dock != nil {
		base := RawDock{}
		if out.Dock != nil {
			base = *out.Dock
		}
		merged := mergeRawDock(base, *overlay.Dock)
		out.Dock = &merged
	}
	if overlay.Geometry != nil {
		base := RawGeometry{}
		if out.Geometry != nil {
			base = *out.Geometry
		}
		merged := mergeRawGeometry(base, *overlay.Geometry)
		out.Geometry = &merged
	}
	if overlay.Metrics != nil {
		base := RawMetrics{}
		if out.Metrics != nil {
			base = *out.Metrics
		}
		if overlay.Metrics.Listen != nil {
			base.Listen = overlay.Metrics.Listen
		}
		out.Metrics = &base
	}

	return out
}

func mergeRawDock(base, overlay RawDock) RawDock {
	out := base
	setBool(&out.Enabled, overlay.Enabled)
	setBool(&out.AutoHide, overlay.AutoHide)
	setString(&out.Position, overlay.Position)
	setBool(&out.PanelMode, overlay.PanelMode)
	setInt(&out.Monitor, overlay.Monitor)
	setInt(&out.IconSize, overlay.IconSize)
	setInt(&out.Padding, overlay.Padding)
	setInt(&out.BorderWidth, overlay.BorderWidth)
	setInt(&out.Thickness, overlay.Thickness)
	setInt(&out.Margin, overlay.Margin)
	setInt(&out.Length, overlay.Length)
	setString(&out.WindowClass, overlay.WindowClass)
	setInt(&out.EdgeTriggerSize, overlay.EdgeTriggerSize)
	setInt(&out.DebounceMS, overlay.DebounceMS)
	setInt(&out.ShowDurationMS, overlay.ShowDurationMS)
	setInt(&out.HideDurationMS, overlay.HideDurationMS)
	setInt(&out.HideDelayMS, overlay.HideDelayMS)
	setInt(&out.ResyncIntervalMS, overlay.ResyncIntervalMS)
	return out
}

func mergeRawGeometry(base, overlay RawGeometry) RawGeometry {
	out := base
	setBool(&out.Enabled, overlay.Enabled)
	setString(&out.Database, overlay.Database)
	setInt(&out.SaveDelayMS, overlay.SaveDelayMS)
	setInt(&out.MinSize, overlay.MinSize)
	return out
}

func setBool(dst **bool, v *bool) {
	if v != nil {
		*dst = v
	}
}

func setInt(dst **int, v *int) {
	if v != nil {
		*dst = v
	}
}

func setString(dst **string, v *string) {
	if v != nil {
		*dst = v
	}
}
