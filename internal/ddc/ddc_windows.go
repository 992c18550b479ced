//go:build windows

package ddc

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/rs/zerolog"
	"golang.org/x/sys/windows"

	"github.com/frudas24/ddc-spotlight/internal/monitor"
	"github.com/frudas24/ddc-spotlight/internal/vcp"
)

var (
	dxva2 = windows.NewLazySystemDLL("dxva2.dll")

	procGetNumberOfPhysicalMonitors = dxva2.NewProc("GetNumberOfPhysicalMonitorsFromHMONITOR")
	procGetPhysicalMonitors         = dxva2.NewProc("GetPhysicalMonitorsFromHMONITOR")
	procDestroyPhysicalMonitor      = dxva2.NewProc("DestroyPhysicalMonitor")
	procGetCapabilitiesStringLength = dxva2.NewProc("GetCapabilitiesStringLength")
	procCapabilitiesRequest         = dxva2.NewProc("CapabilitiesRequestAndCapabilitiesReply")
	procGetVCPFeature               = dxva2.NewProc("GetVCPFeatureAndVCPFeatureReply")
	procSetVCPFeature               = dxva2.NewProc("SetVCPFeature")
)

const physicalMonitorDescriptionSize = 128

// physicalMonitor mirrors PHYSICAL_MONITOR (packed, 8+256 bytes on amd64).
type physicalMonitor struct {
	Handle      windows.Handle
	Description [physicalMonitorDescriptionSize]uint16
}

// winMonitor is a dxva2 physical monitor handle.
type winMonitor struct {
	handle windows.Handle
}

// loadDXVA2 resolves every procedure used by this package.
func loadDXVA2() error {
	for _, proc := range []*windows.LazyProc{
		procGetNumberOfPhysicalMonitors,
		procGetPhysicalMonitors,
		procDestroyPhysicalMonitor,
		procGetCapabilitiesStringLength,
		procCapabilitiesRequest,
		procGetVCPFeature,
		procSetVCPFeature,
	} {
		if err := proc.Find(); err != nil {
			return err
		}
	}
	return nil
}

// Enumerate returns a display for every physical monitor behind every HMONITOR.
func Enumerate(pacer *Pacer, log zerolog.Logger) ([]*Display, error) {
	if err := loadDXVA2(); err != nil {
		return nil, fmt.Errorf("dxva2 unavailable: %w", err)
	}
	outputs, err := monitor.ListMonitors()
	if err != nil {
		return nil, err
	}

	var displays []*Display
	for _, out := range outputs {
		physical, err := physicalMonitors(out.Handle)
		if err != nil {
			log.Warn().Err(err).Str("output", out.Name).Msg("enumerate: physical monitors unavailable")
			continue
		}
		for i, pm := range physical {
			desc := windows.UTF16ToString(pm.Description[:])
			displays = append(displays, &Display{
				ID:          PhysicalID(out.Name, i),
				Description: desc,
				Kind:        KindWinAPI,
				pacer:       pacer,
				win:         &winMonitor{handle: pm.Handle},
			})
		}
	}
	return displays, nil
}

// AttachedIDs returns the identities of the physical monitors behind an OS output.
func AttachedIDs(out monitor.Monitor) ([]string, error) {
	physical, err := physicalMonitors(out.Handle)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(physical))
	for i, pm := range physical {
		ids = append(ids, PhysicalID(out.Name, i))
		_, _, _ = procDestroyPhysicalMonitor.Call(uintptr(pm.Handle))
	}
	return ids, nil
}

// physicalMonitors opens the physical monitors of an HMONITOR.
func physicalMonitors(hmonitor uintptr) ([]physicalMonitor, error) {
	var count uint32
	r, _, err := procGetNumberOfPhysicalMonitors.Call(hmonitor, uintptr(unsafe.Pointer(&count)))
	if r == 0 {
		return nil, fmt.Errorf("GetNumberOfPhysicalMonitorsFromHMONITOR: %w", err)
	}
	if count == 0 {
		return nil, nil
	}
	list := make([]physicalMonitor, count)
	r, _, err = procGetPhysicalMonitors.Call(hmonitor, uintptr(count), uintptr(unsafe.Pointer(&list[0])))
	if r == 0 {
		return nil, fmt.Errorf("GetPhysicalMonitorsFromHMONITOR: %w", err)
	}
	return list, nil
}

// capabilities runs the capabilities request through the monitor configuration API.
func (m *winMonitor) capabilities() (string, error) {
	var length uint32
	r, _, err := procGetCapabilitiesStringLength.Call(uintptr(m.handle), uintptr(unsafe.Pointer(&length)))
	if r == 0 {
		return "", fmt.Errorf("GetCapabilitiesStringLength: %w", err)
	}
	if length == 0 {
		return "", fmt.Errorf("GetCapabilitiesStringLength: %w", ErrUnsupported)
	}
	buf := make([]byte, length)
	r, _, err = procCapabilitiesRequest.Call(uintptr(m.handle), uintptr(unsafe.Pointer(&buf[0])), uintptr(length))
	if r == 0 {
		return "", fmt.Errorf("CapabilitiesRequestAndCapabilitiesReply: %w", err)
	}
	return strings.TrimRight(string(buf), "\x00"), nil
}

// get reads a VCP feature.
func (m *winMonitor) get(code vcp.Code) (vcp.Value, error) {
	var codeType, current, maximum uint32
	r, _, err := procGetVCPFeature.Call(
		uintptr(m.handle),
		uintptr(code),
		uintptr(unsafe.Pointer(&codeType)),
		uintptr(unsafe.Pointer(&current)),
		uintptr(unsafe.Pointer(&maximum)),
	)
	if r == 0 {
		return vcp.Value{}, fmt.Errorf("GetVCPFeatureAndVCPFeatureReply: %w", err)
	}
	return vcp.Value{Current: uint16(current), Max: uint16(maximum)}, nil
}

// set writes a VCP feature.
func (m *winMonitor) set(code vcp.Code, value uint16) error {
	r, _, err := procSetVCPFeature.Call(uintptr(m.handle), uintptr(code), uintptr(value))
	if r == 0 {
		return fmt.Errorf("SetVCPFeature: %w", err)
	}
	return nil
}

// close destroys the physical monitor handle.
func (m *winMonitor) close() error {
	r, _, err := procDestroyPhysicalMonitor.Call(uintptr(m.handle))
	if r == 0 {
		return fmt.Errorf("DestroyPhysicalMonitor: %w", err)
	}
	return nil
}
