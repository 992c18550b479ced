// Package testutil provides fakes shared by package tests.
package testutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/frudas24/ddc-spotlight/internal/vcp"
)

// ErrInjected is returned by fakes configured to fail.
var ErrInjected = errors.New("injected failure")

// SetCall records a Set VCP Feature command received by a FakeMonitor.
type SetCall struct {
	Code  vcp.Code
	Value uint16
}

// FakeMonitor simulates the DDC/CI endpoint of a monitor on an I2C bus.
// It implements io.ReadWriteCloser like an addressed i2c-dev node.
type FakeMonitor struct {
	Caps     string
	Values   map[vcp.Code]vcp.Value
	FailCaps bool
	FailGet  map[vcp.Code]bool
	FailSet  map[vcp.Code]bool

	Sets   []SetCall
	Closed bool

	pending []byte
}

// NewFakeMonitor returns a monitor advertising luminance and contrast with the given values.
func NewFakeMonitor(luminance, contrast uint16) *FakeMonitor {
	return &FakeMonitor{
		Caps: "(prot(monitor)type(lcd)model(FAKE)cmds(01 02 03 0C E3 F3)vcp(02 04 10 12 60(0F 11))mccs_ver(2.1))",
		Values: map[vcp.Code]vcp.Value{
			vcp.Luminance: {Current: luminance, Max: 100},
			vcp.Contrast:  {Current: contrast, Max: 100},
		},
		FailGet: map[vcp.Code]bool{},
		FailSet: map[vcp.Code]bool{},
	}
}

// Current returns the current value of a feature.
func (f *FakeMonitor) Current(code vcp.Code) uint16 {
	return f.Values[code].Current
}

// Write accepts one framed host request.
func (f *FakeMonitor) Write(p []byte) (int, error) {
	if f.Closed {
		return 0, errors.New("fake monitor closed")
	}
	payload, err := decodeRequest(p)
	if err != nil {
		return 0, err
	}
	f.pending = nil

	switch payload[0] {
	case 0x01:
		code := vcp.Code(payload[1])
		if f.FailGet[code] {
			f.pending = encodeReply()
			break
		}
		v, ok := f.Values[code]
		rc := byte(0)
		if !ok {
			rc = 1
		}
		f.pending = encodeReply(0x02, rc, byte(code), 0x00,
			byte(v.Max>>8), byte(v.Max), byte(v.Current>>8), byte(v.Current))
	case 0x03:
		code := vcp.Code(payload[1])
		if f.FailSet[code] {
			return 0, ErrInjected
		}
		value := uint16(payload[2])<<8 | uint16(payload[3])
		v := f.Values[code]
		v.Current = value
		f.Values[code] = v
		f.Sets = append(f.Sets, SetCall{Code: code, Value: value})
	case 0xF3:
		if f.FailCaps {
			return 0, ErrInjected
		}
		offset := int(payload[1])<<8 | int(payload[2])
		end := min(offset+32, len(f.Caps))
		var chunk []byte
		if offset < end {
			chunk = []byte(f.Caps[offset:end])
		}
		f.pending = encodeReply(append([]byte{0xE3, payload[1], payload[2]}, chunk...)...)
	default:
		return 0, fmt.Errorf("fake monitor: unexpected opcode 0x%02X", payload[0])
	}
	return len(p), nil
}

// Read returns the reply to the last request, padded like an i2c-dev read.
func (f *FakeMonitor) Read(p []byte) (int, error) {
	if f.pending == nil {
		return 0, errors.New("fake monitor: no reply pending")
	}
	n := copy(p, f.pending)
	for i := n; i < len(p); i++ {
		p[i] = 0xFF
	}
	return len(p), nil
}

// Close marks the bus as released.
func (f *FakeMonitor) Close() error {
	f.Closed = true
	return nil
}

// decodeRequest validates a host frame and returns its payload.
func decodeRequest(p []byte) ([]byte, error) {
	if len(p) < 4 || p[0] != 0x51 {
		return nil, fmt.Errorf("fake monitor: bad frame % X", p)
	}
	n := int(p[1] & 0x7F)
	if len(p) != n+3 {
		return nil, fmt.Errorf("fake monitor: length %d, frame % X", n, p)
	}
	chk := byte(0x6E)
	for _, b := range p[:n+2] {
		chk ^= b
	}
	if chk != p[n+2] {
		return nil, fmt.Errorf("fake monitor: checksum % X", p)
	}
	return p[2 : n+2], nil
}

// encodeReply frames a display reply.
func encodeReply(payload ...byte) []byte {
	out := append([]byte{0x6E, 0x80 | byte(len(payload))}, payload...)
	chk := byte(0x50)
	for _, b := range out {
		chk ^= b
	}
	return append(out, chk)
}

// FakeClock is a manual clock whose Sleep advances time.
type FakeClock struct {
	T      time.Time
	Sleeps []time.Duration
}

// NewFakeClock returns a clock starting at a fixed instant.
func NewFakeClock() *FakeClock {
	return &FakeClock{T: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	return c.T
}

// Sleep records d and advances the clock.
func (c *FakeClock) Sleep(d time.Duration) {
	c.Sleeps = append(c.Sleeps, d)
	c.T = c.T.Add(d)
}

// Count returns how many sleeps of exactly d were recorded.
func (c *FakeClock) Count(d time.Duration) int {
	n := 0
	for _, s := range c.Sleeps {
		if s == d {
			n++
		}
	}
	return n
}
