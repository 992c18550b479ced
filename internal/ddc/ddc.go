// Package ddc enumerates DDC/CI capable displays and issues VCP commands to them.
package ddc

import (
	"errors"
	"fmt"
	"io"

	"github.com/frudas24/ddc-spotlight/internal/vcp"
)

// Kind identifies the transport behind a Display.
type Kind int

const (
	// KindWinAPI drives the display through the OS monitor configuration API (dxva2).
	KindWinAPI Kind = iota + 1
	// KindI2C speaks DDC/CI directly on the display's I2C bus.
	KindI2C
)

// String returns a short transport label.
func (k Kind) String() string {
	switch k {
	case KindWinAPI:
		return "winapi"
	case KindI2C:
		return "i2c"
	default:
		return "unknown"
	}
}

var (
	// ErrUnsupported is returned for operations the transport or display cannot perform.
	ErrUnsupported = errors.New("ddc: unsupported")
	// ErrNotProbed is returned when a feature is used before it appears in the capability database.
	ErrNotProbed = errors.New("ddc: feature not in capabilities")
	// ErrClosed is returned for commands on a released display.
	ErrClosed = errors.New("ddc: display closed")
)

// Bus is a raw I2C channel already addressed to the display's DDC/CI slave.
type Bus interface {
	io.ReadWriteCloser
}

// Display is one hardware-controllable monitor.
type Display struct {
	ID          string
	Description string
	Kind        Kind

	caps   vcp.Capabilities
	pacer  *Pacer
	bus    Bus
	win    *winMonitor
	closed bool
}

// PhysicalID names the index-th physical monitor behind an OS output. Panel
// descriptions repeat across identical models, so they cannot identify a display.
func PhysicalID(output string, index int) string {
	return fmt.Sprintf("%s#%d", output, index)
}

// NewI2CDisplay wraps an addressed I2C bus as a display.
func NewI2CDisplay(id, description string, bus Bus, pacer *Pacer) *Display {
	return &Display{
		ID:          id,
		Description: description,
		Kind:        KindI2C,
		pacer:       pacer,
		bus:         bus,
	}
}

// Probe queries the capability string and replaces the capability database.
// On failure the database is left empty.
func (d *Display) Probe() error {
	d.caps = nil
	var raw string
	err := d.pacer.Do(func() error {
		var err error
		raw, err = d.capabilityString()
		return err
	})
	if err != nil {
		return fmt.Errorf("capabilities %s: %w", d.ID, err)
	}
	caps, err := vcp.ParseCapabilities(raw)
	if err != nil {
		return fmt.Errorf("capabilities %s: %w", d.ID, err)
	}
	d.caps = caps
	return nil
}

// Capabilities returns the probed capability database.
func (d *Display) Capabilities() vcp.Capabilities {
	return d.caps
}

// Supports reports whether probing found the feature.
func (d *Display) Supports(code vcp.Code) bool {
	return d.caps.Supports(code)
}

// Get reads the current and maximum value of a feature.
func (d *Display) Get(code vcp.Code) (vcp.Value, error) {
	if !d.Supports(code) {
		return vcp.Value{}, fmt.Errorf("get %s on %s: %w", code, d.ID, ErrNotProbed)
	}
	var v vcp.Value
	err := d.pacer.Do(func() error {
		var err error
		v, err = d.getVCP(code)
		return err
	})
	if err != nil {
		return vcp.Value{}, fmt.Errorf("get %s on %s: %w", code, d.ID, err)
	}
	return v, nil
}

// Set writes a feature value.
func (d *Display) Set(code vcp.Code, value uint16) error {
	if !d.Supports(code) {
		return fmt.Errorf("set %s on %s: %w", code, d.ID, ErrNotProbed)
	}
	err := d.pacer.Do(func() error {
		return d.setVCP(code, value)
	})
	if err != nil {
		return fmt.Errorf("set %s on %s: %w", code, d.ID, err)
	}
	return nil
}

// Close releases the underlying handle.
func (d *Display) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	switch d.Kind {
	case KindWinAPI:
		return d.win.close()
	case KindI2C:
		return d.bus.Close()
	default:
		return nil
	}
}

func (d *Display) capabilityString() (string, error) {
	if d.closed {
		return "", ErrClosed
	}
	switch d.Kind {
	case KindWinAPI:
		return d.win.capabilities()
	case KindI2C:
		return readCapabilities(d.bus, d.pacer)
	default:
		return "", ErrUnsupported
	}
}

func (d *Display) getVCP(code vcp.Code) (vcp.Value, error) {
	if d.closed {
		return vcp.Value{}, ErrClosed
	}
	switch d.Kind {
	case KindWinAPI:
		return d.win.get(code)
	case KindI2C:
		return readVCP(d.bus, d.pacer, code)
	default:
		return vcp.Value{}, ErrUnsupported
	}
}

func (d *Display) setVCP(code vcp.Code, value uint16) error {
	if d.closed {
		return ErrClosed
	}
	switch d.Kind {
	case KindWinAPI:
		return d.win.set(code, value)
	case KindI2C:
		return writeVCP(d.bus, code, value)
	default:
		return ErrUnsupported
	}
}
