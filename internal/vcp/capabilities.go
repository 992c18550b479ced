package vcp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNoVCPSection is returned when a capability string has no vcp(...) group.
var ErrNoVCPSection = errors.New("capability string has no vcp section")

// ParseCapabilities extracts the feature database from an MCCS capability string such as
// "(prot(monitor)type(lcd)vcp(02 04 10 12 14(05 08 0B) 60(0F 11))mccs_ver(2.1))".
func ParseCapabilities(raw string) (Capabilities, error) {
	body, err := vcpSection(raw)
	if err != nil {
		return nil, err
	}

	caps := Capabilities{}
	var last *Feature
	for i := 0; i < len(body); {
		switch ch := body[i]; {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			i++
		case ch == '(':
			end := strings.IndexByte(body[i:], ')')
			if end < 0 {
				return nil, fmt.Errorf("unterminated value list at offset %d", i)
			}
			values, err := parseHexList(body[i+1 : i+end])
			if err != nil {
				return nil, err
			}
			if last != nil {
				last.Values = append(last.Values, values...)
				caps[last.Code] = *last
			}
			i += end + 1
		default:
			if i+2 > len(body) {
				return nil, fmt.Errorf("truncated feature code at offset %d", i)
			}
			n, err := strconv.ParseUint(body[i:i+2], 16, 8)
			if err != nil {
				return nil, fmt.Errorf("bad feature code %q: %w", body[i:i+2], err)
			}
			f := Feature{Code: Code(n)}
			caps[f.Code] = f
			last = &f
			i += 2
		}
	}
	return caps, nil
}

// vcpSection returns the text between "vcp(" and its matching parenthesis.
func vcpSection(raw string) (string, error) {
	lower := strings.ToLower(raw)
	start := -1
	for off := 0; ; {
		idx := strings.Index(lower[off:], "vcp(")
		if idx < 0 {
			break
		}
		idx += off
		// Skip names that merely end in "vcp", e.g. "vcpname(".
		if idx == 0 || !isIdent(lower[idx-1]) {
			start = idx + len("vcp(")
			break
		}
		off = idx + 1
	}
	if start < 0 {
		return "", ErrNoVCPSection
	}

	depth := 1
	for i := start; i < len(raw); i++ {
		switch raw[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return raw[start:i], nil
			}
		}
	}
	// Some monitors truncate the string; accept what is there.
	return raw[start:], nil
}

// parseHexList parses space separated hex bytes.
func parseHexList(s string) ([]uint8, error) {
	var out []uint8
	for _, tok := range strings.Fields(s) {
		n, err := strconv.ParseUint(tok, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("bad feature value %q: %w", tok, err)
		}
		out = append(out, uint8(n))
	}
	return out, nil
}

func isIdent(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}
