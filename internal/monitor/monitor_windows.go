//go:build windows

// Package monitor enumerates the operating system's display outputs.
package monitor

import (
	"fmt"
	"syscall"
	"unsafe"

	"github.com/lxn/win"
)

const cchDeviceName = 32

// monitorInfoEx mirrors MONITORINFOEXW; GetMonitorInfo fills szDevice when cbSize covers it.
type monitorInfoEx struct {
	win.MONITORINFO
	SzDevice [cchDeviceName]uint16
}

// ListMonitors returns the display outputs known to GDI.
func ListMonitors() ([]Monitor, error) {
	state := &enumState{}
	callback := syscall.NewCallback(state.enumProc)

	if ok := win.EnumDisplayMonitors(0, nil, callback, 0); !ok {
		return nil, fmt.Errorf("EnumDisplayMonitors failed: %w", syscall.GetLastError())
	}
	if len(state.list) == 0 {
		return nil, fmt.Errorf("no monitors detected")
	}
	return state.list, nil
}

// Connectors is only meaningful on Linux.
func Connectors() ([]Connector, error) {
	return nil, ErrUnsupported
}

type enumState struct {
	list  []Monitor
	index int
}

// enumProc records every HMONITOR; outputs GDI cannot name are kept with an empty Name.
func (s *enumState) enumProc(hMonitor win.HMONITOR, hdc win.HDC, rect *win.RECT, lparam uintptr) uintptr {
	s.index++
	m := Monitor{
		Index:  s.index,
		Handle: uintptr(hMonitor),
	}

	var info monitorInfoEx
	info.CbSize = uint32(unsafe.Sizeof(info))
	if win.GetMonitorInfo(hMonitor, &info.MONITORINFO) {
		monitorRect := info.RcMonitor
		m.Name = syscall.UTF16ToString(info.SzDevice[:])
		m.X = int(monitorRect.Left)
		m.Y = int(monitorRect.Top)
		m.W = int(monitorRect.Right - monitorRect.Left)
		m.H = int(monitorRect.Bottom - monitorRect.Top)
		m.Primary = info.DwFlags&win.MONITORINFOF_PRIMARY != 0
	}
	s.list = append(s.list, m)
	return 1
}
