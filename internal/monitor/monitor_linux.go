//go:build linux

// Package monitor enumerates the operating system's display outputs.
package monitor

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// DRMRoot is where the kernel exposes DRM connectors.
const DRMRoot = "/sys/class/drm"

// ListMonitors returns RandR outputs when an X server is reachable and DRM connectors otherwise.
func ListMonitors() ([]Monitor, error) {
	if os.Getenv("DISPLAY") != "" {
		list, err := listRandR()
		if err == nil {
			return list, nil
		}
		if _, statErr := os.Stat(DRMRoot); statErr != nil {
			return nil, err
		}
	}
	return listConnectors(DRMRoot)
}

// Connectors lists DRM connectors with their DDC bus and EDID.
func Connectors() ([]Connector, error) {
	return connectorsAt(DRMRoot)
}

// listRandR enumerates connected RandR outputs together with their EDID property.
func listRandR() ([]Monitor, error) {
	X, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("x11 connect: %w", err)
	}
	defer X.Conn().Close()
	conn := X.Conn()
	root := X.RootWin()

	if err := randr.Init(conn); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}
	resources, err := randr.GetScreenResources(conn, root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var edidAtom xproto.Atom
	if reply, err := xproto.InternAtom(conn, true, uint16(len("EDID")), "EDID").Reply(); err == nil {
		edidAtom = reply.Atom
	}
	var primary randr.Output
	if reply, err := randr.GetOutputPrimary(conn, root).Reply(); err == nil {
		primary = reply.Output
	}

	var monitors []Monitor
	for i, output := range resources.Outputs {
		info, err := randr.GetOutputInfo(conn, output, resources.ConfigTimestamp).Reply()
		if err != nil || info.Connection != randr.ConnectionConnected {
			continue
		}
		m := Monitor{
			Index:   i + 1,
			Name:    string(info.Name),
			Primary: output == primary,
		}
		if info.Crtc != 0 {
			if crtc, err := randr.GetCrtcInfo(conn, info.Crtc, resources.ConfigTimestamp).Reply(); err == nil {
				m.X = int(crtc.X)
				m.Y = int(crtc.Y)
				m.W = int(crtc.Width)
				m.H = int(crtc.Height)
			}
		}
		if edidAtom != 0 {
			prop, err := randr.GetOutputProperty(conn, output, edidAtom, xproto.GetPropertyTypeAny, 0, 128, false, false).Reply()
			if err == nil && len(prop.Data) > 0 {
				m.EDID = prop.Data
			}
		}
		monitors = append(monitors, m)
	}
	return monitors, nil
}

// listConnectors turns connected DRM connectors into outputs named like "HDMI-A-1".
func listConnectors(root string) ([]Monitor, error) {
	connectors, err := connectorsAt(root)
	if err != nil {
		return nil, err
	}
	var monitors []Monitor
	for _, c := range connectors {
		if !c.Connected {
			continue
		}
		monitors = append(monitors, Monitor{
			Index:     len(monitors) + 1,
			Name:      c.Output,
			Connector: c.Name,
			EDID:      c.EDID,
		})
	}
	return monitors, nil
}

// connectorsAt scans root for "cardN-<output>" connector directories.
func connectorsAt(root string) ([]Connector, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", root, err)
	}

	var out []Connector
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "card") || !strings.Contains(name, "-") {
			continue
		}
		dir := filepath.Join(root, name)
		c := Connector{
			Name:   name,
			Output: OutputName(name),
		}
		if status, err := os.ReadFile(filepath.Join(dir, "status")); err == nil {
			c.Connected = strings.TrimSpace(string(status)) == "connected"
		}
		if data, err := os.ReadFile(filepath.Join(dir, "edid")); err == nil {
			c.EDID = data
		}
		c.Bus = connectorBus(dir)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// connectorBus resolves the i2c adapter serving DDC for a connector.
// HDMI/DVI expose a "ddc" link; DisplayPort exposes its AUX channel as an i2c-N child.
func connectorBus(dir string) string {
	if target, err := os.Readlink(filepath.Join(dir, "ddc")); err == nil {
		return filepath.Base(target)
	}
	matches, err := filepath.Glob(filepath.Join(dir, "i2c-*"))
	if err != nil || len(matches) == 0 {
		return ""
	}
	sort.Strings(matches)
	return filepath.Base(matches[0])
}
