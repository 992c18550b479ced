// Package monitor enumerates the operating system's display outputs.
package monitor

import (
	"errors"
	"strings"
)

// ErrUnsupported indicates output enumeration is not available on this platform.
var ErrUnsupported = errors.New("monitor enumeration is not supported on this platform")

// Monitor describes an OS display output and its bounds.
type Monitor struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	W       int    `json:"w"`
	H       int    `json:"h"`
	Primary bool   `json:"primary"`

	// Handle is the native output handle (HMONITOR on Windows).
	Handle uintptr `json:"-"`
	// Connector is the DRM connector directory name, e.g. "card0-DP-1" (Linux).
	Connector string `json:"connector,omitempty"`
	// EDID is the raw EDID reported for the output, when available.
	EDID []byte `json:"-"`
}

// Connector is a DRM connector as exposed under /sys/class/drm.
type Connector struct {
	Name      string
	Output    string
	Connected bool
	Bus       string
	EDID      []byte
}

// OutputName strips the "cardN-" prefix from a DRM connector name.
func OutputName(connector string) string {
	if !strings.HasPrefix(connector, "card") {
		return connector
	}
	if i := strings.IndexByte(connector, '-'); i > 0 {
		return connector[i+1:]
	}
	return connector
}

// GetMonitorByName returns the monitor with the given OS name.
func GetMonitorByName(list []Monitor, name string) (Monitor, bool) {
	for _, m := range list {
		if m.Name == name {
			return m, true
		}
	}
	return Monitor{}, false
}
