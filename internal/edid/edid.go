// Package edid decodes the parts of an EDID base block used to name and match displays.
package edid

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// BlockSize is the length of an EDID base block.
const BlockSize = 128

var header = []byte{0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00}

// ErrInvalid is returned for data that is not an EDID base block.
var ErrInvalid = errors.New("invalid edid")

// Info holds identifying fields of a display.
type Info struct {
	Manufacturer string
	ProductCode  uint16
	Serial       uint32
	Name         string
	SerialText   string
}

// Parse decodes the identifying fields of an EDID base block.
func Parse(data []byte) (Info, error) {
	if len(data) < BlockSize {
		return Info{}, fmt.Errorf("%w: %d bytes", ErrInvalid, len(data))
	}
	if !bytes.Equal(data[:len(header)], header) {
		return Info{}, fmt.Errorf("%w: bad header", ErrInvalid)
	}

	// Manufacturer ID is three 5-bit letters, big endian.
	mfg := binary.BigEndian.Uint16(data[8:10])
	info := Info{
		Manufacturer: string([]byte{
			byte('A' - 1 + (mfg>>10)&0x1F),
			byte('A' - 1 + (mfg>>5)&0x1F),
			byte('A' - 1 + mfg&0x1F),
		}),
		ProductCode: binary.LittleEndian.Uint16(data[10:12]),
		Serial:      binary.LittleEndian.Uint32(data[12:16]),
	}

	for off := 54; off+18 <= 126; off += 18 {
		d := data[off : off+18]
		if d[0] != 0 || d[1] != 0 {
			continue
		}
		switch d[3] {
		case 0xFC:
			info.Name = descriptorText(d[5:])
		case 0xFF:
			info.SerialText = descriptorText(d[5:])
		}
	}
	return info, nil
}

// Description returns a human readable label such as "DEL DELL U2720Q".
func (i Info) Description() string {
	if i.Name != "" {
		return i.Manufacturer + " " + i.Name
	}
	return fmt.Sprintf("%s %04X", i.Manufacturer, i.ProductCode)
}

// Same reports whether two EDID blobs describe the same base block.
func Same(a, b []byte) bool {
	if len(a) < BlockSize || len(b) < BlockSize {
		return false
	}
	return bytes.Equal(a[:BlockSize], b[:BlockSize])
}

// descriptorText trims the padding of a display descriptor string.
func descriptorText(b []byte) string {
	if i := bytes.IndexByte(b, 0x0A); i >= 0 {
		b = b[:i]
	}
	return strings.TrimSpace(string(b))
}
