//go:build !windows

package ddc

import "github.com/frudas24/ddc-spotlight/internal/vcp"

// winMonitor has no backing API outside Windows.
type winMonitor struct{}

func (m *winMonitor) capabilities() (string, error) {
	return "", ErrUnsupported
}

func (m *winMonitor) get(vcp.Code) (vcp.Value, error) {
	return vcp.Value{}, ErrUnsupported
}

func (m *winMonitor) set(vcp.Code, uint16) error {
	return ErrUnsupported
}

func (m *winMonitor) close() error {
	return nil
}
