package ddc

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/frudas24/ddc-spotlight/internal/vcp"
)

const (
	// SlaveAddr is the 7-bit I2C address of the DDC/CI endpoint.
	SlaveAddr = 0x37

	hostAddr    = 0x51
	displayAddr = 0x6E
	replySeed   = 0x50

	opGetVCP      = 0x01
	opGetVCPReply = 0x02
	opSetVCP      = 0x03
	opCapsReply   = 0xE3
	opCapsRequest = 0xF3

	replyDelay    = 40 * time.Millisecond
	capsDelay     = 50 * time.Millisecond
	maxAttempts   = 3
	maxCapsLength = 8192
	capsFragment  = 32
)

var (
	// ErrNullReply is returned when the display answers with the DDC/CI null message.
	ErrNullReply = errors.New("ddc: null reply")
	// ErrChecksum is returned for replies whose checksum does not match.
	ErrChecksum = errors.New("ddc: checksum mismatch")
	// ErrMalformed is returned for replies that cannot be decoded.
	ErrMalformed = errors.New("ddc: malformed reply")
)

// EncodeRequest frames a host-to-display payload with length and checksum.
func EncodeRequest(payload ...byte) []byte {
	pkt := make([]byte, 0, len(payload)+3)
	pkt = append(pkt, hostAddr, 0x80|byte(len(payload)))
	pkt = append(pkt, payload...)
	chk := byte(displayAddr)
	for _, b := range pkt {
		chk ^= b
	}
	return append(pkt, chk)
}

// EncodeReply frames a display-to-host payload. It is the inverse of DecodeReply.
func EncodeReply(payload ...byte) []byte {
	pkt := make([]byte, 0, len(payload)+3)
	pkt = append(pkt, displayAddr, 0x80|byte(len(payload)))
	pkt = append(pkt, payload...)
	chk := byte(replySeed)
	for _, b := range pkt {
		chk ^= b
	}
	return append(pkt, chk)
}

// DecodeReply validates a display-to-host frame and returns its payload.
// Trailing bytes past the declared length are ignored.
func DecodeReply(buf []byte) ([]byte, error) {
	if len(buf) < 3 {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformed, len(buf))
	}
	if buf[0] != displayAddr || buf[1]&0x80 == 0 {
		return nil, fmt.Errorf("%w: header % X", ErrMalformed, buf[:2])
	}
	n := int(buf[1] & 0x7F)
	if len(buf) < n+3 {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrMalformed, n+3, len(buf))
	}
	chk := byte(replySeed)
	for _, b := range buf[:n+2] {
		chk ^= b
	}
	if chk != buf[n+2] {
		return nil, ErrChecksum
	}
	if n == 0 {
		return nil, ErrNullReply
	}
	return buf[2 : n+2], nil
}

// transact writes a request, waits, then reads and decodes a reply of up to size bytes.
func transact(bus io.ReadWriter, p *Pacer, req []byte, wait time.Duration, size int) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			p.Sleep(wait)
		}
		if _, err := bus.Write(req); err != nil {
			return nil, fmt.Errorf("write: %w", err)
		}
		p.Sleep(wait)
		buf := make([]byte, size)
		n, err := bus.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}
		payload, err := DecodeReply(buf[:n])
		if err == nil {
			return payload, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// readVCP issues a Get VCP Feature request.
func readVCP(bus io.ReadWriter, p *Pacer, code vcp.Code) (vcp.Value, error) {
	payload, err := transact(bus, p, EncodeRequest(opGetVCP, byte(code)), replyDelay, 11)
	if err != nil {
		return vcp.Value{}, err
	}
	if len(payload) != 8 || payload[0] != opGetVCPReply {
		return vcp.Value{}, fmt.Errorf("%w: get vcp payload % X", ErrMalformed, payload)
	}
	if payload[1] != 0 {
		return vcp.Value{}, fmt.Errorf("feature %s: %w (result %d)", code, ErrUnsupported, payload[1])
	}
	if payload[2] != byte(code) {
		return vcp.Value{}, fmt.Errorf("%w: asked for %s, got 0x%02X", ErrMalformed, code, payload[2])
	}
	return vcp.Value{
		Max:     uint16(payload[4])<<8 | uint16(payload[5]),
		Current: uint16(payload[6])<<8 | uint16(payload[7]),
	}, nil
}

// writeVCP issues a Set VCP Feature request. The display does not answer.
func writeVCP(bus io.Writer, code vcp.Code, value uint16) error {
	if _, err := bus.Write(EncodeRequest(opSetVCP, byte(code), byte(value>>8), byte(value))); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// readCapabilities fetches the capability string fragment by fragment.
func readCapabilities(bus io.ReadWriter, p *Pacer) (string, error) {
	var sb strings.Builder
	for offset := 0; ; {
		req := EncodeRequest(opCapsRequest, byte(offset>>8), byte(offset))
		payload, err := transact(bus, p, req, capsDelay, capsFragment+6)
		if err != nil {
			return "", fmt.Errorf("fragment at %d: %w", offset, err)
		}
		if len(payload) < 3 || payload[0] != opCapsReply {
			return "", fmt.Errorf("%w: capabilities payload % X", ErrMalformed, payload)
		}
		if got := int(payload[1])<<8 | int(payload[2]); got != offset {
			return "", fmt.Errorf("%w: fragment offset %d, want %d", ErrMalformed, got, offset)
		}
		data := payload[3:]
		if len(data) == 0 {
			break
		}
		sb.Write(data)
		offset += len(data)
		if offset > maxCapsLength {
			return "", fmt.Errorf("%w: capability string exceeds %d bytes", ErrMalformed, maxCapsLength)
		}
	}
	return strings.TrimRight(sb.String(), "\x00"), nil
}
