//go:build linux

package ddc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frudas24/ddc-spotlight/internal/monitor"
)

// edidBlock returns a 128 byte block whose first byte differs per seed.
func edidBlock(seed byte) []byte {
	b := make([]byte, 128)
	b[0] = seed
	return b
}

// TestMatchConnectors verifies outputs resolve by connector name first and by EDID otherwise.
func TestMatchConnectors(t *testing.T) {
	connectors := []monitor.Connector{
		{Name: "card0-DP-1", Connected: true, Bus: "i2c-5", EDID: edidBlock(1)},
		{Name: "card0-DP-2", Connected: true, Bus: "i2c-6", EDID: edidBlock(2)},
		{Name: "card0-DP-3", Connected: true, Bus: "i2c-7", EDID: edidBlock(2)},
		{Name: "card0-HDMI-A-1", Connected: false, Bus: "i2c-8", EDID: edidBlock(1)},
		{Name: "card0-eDP-1", Connected: true, EDID: edidBlock(3)},
	}

	assert.Equal(t, []string{"i2c-5"}, matchConnectors(monitor.Monitor{Connector: "card0-DP-1", EDID: edidBlock(2)}, connectors))
	assert.Equal(t, []string{"i2c-6", "i2c-7"}, matchConnectors(monitor.Monitor{Name: "DP-2", EDID: edidBlock(2)}, connectors))
	assert.Empty(t, matchConnectors(monitor.Monitor{Name: "eDP-1", EDID: edidBlock(3)}, connectors))
	assert.Empty(t, matchConnectors(monitor.Monitor{Name: "VIRTUAL-1"}, connectors))
}

// TestI2CNodes verifies missing and unreadable device lists surface as errors.
func TestI2CNodes(t *testing.T) {
	dir := t.TempDir()
	pattern := filepath.Join(dir, "i2c-*")

	_, err := i2cNodes(pattern)
	require.ErrorIs(t, err, ErrUnsupported)

	_, err = i2cNodes(filepath.Join(dir, "["))
	require.ErrorIs(t, err, filepath.ErrBadPattern)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "i2c-3"), nil, 0o600))
	nodes, err := i2cNodes(pattern)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "i2c-3")}, nodes)
}
