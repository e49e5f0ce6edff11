package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/intellidock/internal/dock"
)

// PrimaryMonitor selects the RandR primary output in SelectMonitor.
const PrimaryMonitor = -1

// Monitor is a RandR CRTC with its output name and primary flag.
type Monitor struct {
	dock.Monitor
	Primary bool
}

// GetMonitors retrieves all active monitors using XRandR. Indices follow the
// CRTC order reported by the server.
func (c *Connection) GetMonitors() ([]Monitor, error) {
	if !c.randr {
		return c.rootMonitor()
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var primary randr.Output
	if reply, err := randr.GetOutputPrimary(c.XUtil.Conn(), c.Root).Reply(); err == nil {
		primary = reply.Output
	}

	var monitors []Monitor
	for _, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		index := len(monitors)
		name := fmt.Sprintf("Monitor%d", index)
		if outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply(); err == nil {
			name = string(outputInfo.Name)
		}

		isPrimary := false
		for _, out := range crtcInfo.Outputs {
			if primary != 0 && out == primary {
				isPrimary = true
			}
		}

		monitors = append(monitors, Monitor{
			Monitor: dock.Monitor{
				Index:  index,
				Name:   name,
				X:      int(crtcInfo.X),
				Y:      int(crtcInfo.Y),
				Width:  int(crtcInfo.Width),
				Height: int(crtcInfo.Height),
			},
			Primary: isPrimary,
		})
	}

	if len(monitors) == 0 {
		return c.rootMonitor()
	}
	return monitors, nil
}

func (c *Connection) rootMonitor() ([]Monitor, error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get root geometry: %w", err)
	}
	return []Monitor{{
		Monitor: dock.Monitor{Name: "root", Width: int(geom.Width), Height: int(geom.Height)},
		Primary: true,
	}}, nil
}

// SelectMonitor returns the monitor at index, or the primary one when index
// is PrimaryMonitor. Without a primary the first monitor is used.
func SelectMonitor(monitors []Monitor, index int) (Monitor, error) {
	if len(monitors) == 0 {
		return Monitor{}, fmt.Errorf("no monitors found")
	}
	if index == PrimaryMonitor {
		for _, m := range monitors {
			if m.Primary {
				return m, nil
			}
		}
		return monitors[0], nil
	}
	for _, m := range monitors {
		if m.Index == index {
			return m, nil
		}
	}
	return Monitor{}, fmt.Errorf("monitor %d not found (have %d)", index, len(monitors))
}

// DockMonitors strips the RandR details for geometry math.
func DockMonitors(monitors []Monitor) []dock.Monitor {
	out := make([]dock.Monitor, len(monitors))
	for i, m := range monitors {
		out[i] = m.Monitor
	}
	return out
}

// WatchScreenChanges asks RandR for screen change notifications on the root.
func (c *Connection) WatchScreenChanges() error {
	if !c.randr {
		return fmt.Errorf("randr not available")
	}
	return randr.SelectInput(c.XUtil.Conn(), c.Root, randr.NotifyMaskScreenChange).Check()
}
