//go:build !windows && !linux

package ddc

import (
	"github.com/rs/zerolog"

	"github.com/frudas24/ddc-spotlight/internal/monitor"
)

// Enumerate reports that no DDC transport exists on this platform.
func Enumerate(*Pacer, zerolog.Logger) ([]*Display, error) {
	return nil, ErrUnsupported
}

// AttachedIDs reports that outputs cannot be resolved on this platform.
func AttachedIDs(monitor.Monitor) ([]string, error) {
	return nil, ErrUnsupported
}
