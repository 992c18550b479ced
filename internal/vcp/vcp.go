// Package vcp describes MCCS Virtual Control Panel features and capability strings.
package vcp

import (
	"fmt"
	"strconv"
	"strings"
)

// Code identifies a VCP feature.
type Code uint8

const (
	// Luminance is the MCCS brightness feature.
	Luminance Code = 0x10
	// Contrast is the MCCS contrast feature.
	Contrast Code = 0x12
)

// Dimmable lists the features touched when dimming or restoring, in write order.
var Dimmable = [...]Code{Luminance, Contrast}

// String returns the feature name for known codes and the hex code otherwise.
func (c Code) String() string {
	switch c {
	case Luminance:
		return "luminance"
	case Contrast:
		return "contrast"
	default:
		return fmt.Sprintf("0x%02X", uint8(c))
	}
}

// MarshalText renders the code by name in JSON keys and lists.
func (c Code) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText accepts a feature name or a 0xNN hex code.
func (c *Code) UnmarshalText(text []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(text)))
	switch s {
	case "luminance":
		*c = Luminance
		return nil
	case "contrast":
		*c = Contrast
		return nil
	}
	hex, ok := strings.CutPrefix(s, "0x")
	if !ok {
		return fmt.Errorf("vcp: unknown feature %q", text)
	}
	n, err := strconv.ParseUint(hex, 16, 8)
	if err != nil {
		return fmt.Errorf("vcp: invalid feature code %q: %w", text, err)
	}
	*c = Code(n)
	return nil
}

// Value is a continuous feature reading.
type Value struct {
	Current uint16 `json:"current"`
	Max     uint16 `json:"max"`
}

// Feature describes one entry of a display's capability database.
type Feature struct {
	Code   Code    `json:"code"`
	Values []uint8 `json:"values,omitempty"`
}

// Capabilities maps supported feature codes to their descriptors.
type Capabilities map[Code]Feature

// Supports reports whether the feature code is listed.
func (c Capabilities) Supports(code Code) bool {
	_, ok := c[code]
	return ok
}
