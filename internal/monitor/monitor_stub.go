//go:build !windows && !linux

// Package monitor enumerates the operating system's display outputs.
package monitor

// ListMonitors returns ErrUnsupported on platforms without an output backend.
func ListMonitors() ([]Monitor, error) {
	return nil, ErrUnsupported
}

// Connectors returns ErrUnsupported on platforms without DRM sysfs.
func Connectors() ([]Connector, error) {
	return nil, ErrUnsupported
}
