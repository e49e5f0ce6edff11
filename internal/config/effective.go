package config

import (
	"fmt"
	"strings"

	"github.com/1broseidon/intellidock/internal/dock"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// BuildEffectiveConfig applies raw onto DefaultConfig.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.LogLevel != nil {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(*raw.LogLevel))
	}
	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if raw.ToggleHotkey != nil {
		cfg.ToggleHotkey = strings.TrimSpace(*raw.ToggleHotkey)
	}

	if d := raw.Dock; d != nil {
		applyBool(&cfg.Dock.Enabled, d.Enabled)
		applyBool(&cfg.Dock.AutoHide, d.AutoHide)
		if d.Position != nil {
			pos, err := dock.ParsePosition(*d.Position)
			if err != nil {
				return nil, &ValidationError{Path: "dock.position", Err: err}
			}
			cfg.Dock.Position = pos
		}
		applyBool(&cfg.Dock.PanelMode, d.PanelMode)
		applyInt(&cfg.Dock.Monitor, d.Monitor)
		applyInt(&cfg.Dock.IconSize, d.IconSize)
		applyInt(&cfg.Dock.Padding, d.Padding)
		applyInt(&cfg.Dock.BorderWidth, d.BorderWidth)
		applyInt(&cfg.Dock.Thickness, d.Thickness)
		applyInt(&cfg.Dock.Margin, d.Margin)
		applyInt(&cfg.Dock.Length, d.Length)
		if d.WindowClass != nil {
			cfg.Dock.WindowClass = strings.TrimSpace(*d.WindowClass)
		}
		applyInt(&cfg.Dock.EdgeTriggerSize, d.EdgeTriggerSize)
		applyInt(&cfg.Dock.DebounceMS, d.DebounceMS)
		applyInt(&cfg.Dock.ShowDurationMS, d.ShowDurationMS)
		applyInt(&cfg.Dock.HideDurationMS, d.HideDurationMS)
		applyInt(&cfg.Dock.HideDelayMS, d.HideDelayMS)
		applyInt(&cfg.Dock.ResyncIntervalMS, d.ResyncIntervalMS)
	}

	if g := raw.Geometry; g != nil {
		applyBool(&cfg.Geometry.Enabled, g.Enabled)
		if g.Database != nil {
			cfg.Geometry.Database = strings.TrimSpace(*g.Database)
		}
		applyInt(&cfg.Geometry.SaveDelayMS, g.SaveDelayMS)
		applyInt(&cfg.Geometry.MinSize, g.MinSize)
	}

	if raw.Metrics != nil && raw.Metrics.Listen != nil {
		cfg.Metrics.Listen = strings.TrimSpace(*raw.Metrics.Listen)
	}

	return cfg, nil
}

func applyBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func applyInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
