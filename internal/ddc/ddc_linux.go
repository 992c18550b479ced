//go:build linux

package ddc

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/frudas24/ddc-spotlight/internal/edid"
	"github.com/frudas24/ddc-spotlight/internal/monitor"
)

const (
	// i2cSlave is the I2C_SLAVE ioctl from linux/i2c-dev.h.
	i2cSlave   = 0x0703
	i2cDevGlob = "/dev/i2c-*"
)

// i2cNodes lists the i2c-dev character devices matching pattern.
func i2cNodes(pattern string) ([]string, error) {
	nodes, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", pattern, err)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("no %s nodes (is the i2c-dev module loaded?): %w", pattern, ErrUnsupported)
	}
	return nodes, nil
}

// Enumerate opens the DDC/CI bus of every connected DRM connector.
func Enumerate(pacer *Pacer, log zerolog.Logger) ([]*Display, error) {
	if _, err := i2cNodes(i2cDevGlob); err != nil {
		return nil, err
	}
	connectors, err := monitor.Connectors()
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var displays []*Display
	for _, c := range connectors {
		if !c.Connected || c.Bus == "" || seen[c.Bus] {
			continue
		}
		seen[c.Bus] = true

		bus, err := openBus(filepath.Join("/dev", c.Bus))
		if err != nil {
			log.Warn().Err(err).Str("connector", c.Name).Msg("enumerate: bus unavailable")
			continue
		}
		displays = append(displays, NewI2CDisplay(c.Bus, describe(c), bus, pacer))
	}
	return displays, nil
}

// AttachedIDs returns the bus identities of the connectors driving an OS output.
// Outputs are matched by connector name when known and by EDID otherwise.
func AttachedIDs(out monitor.Monitor) ([]string, error) {
	connectors, err := monitor.Connectors()
	if err != nil {
		return nil, err
	}
	return matchConnectors(out, connectors), nil
}

// matchConnectors selects the connectors backing out.
func matchConnectors(out monitor.Monitor, connectors []monitor.Connector) []string {
	var ids []string
	for _, c := range connectors {
		if !c.Connected || c.Bus == "" {
			continue
		}
		switch {
		case out.Connector != "":
			if c.Name != out.Connector {
				continue
			}
		case len(out.EDID) > 0:
			if !edid.Same(out.EDID, c.EDID) {
				continue
			}
		default:
			continue
		}
		ids = append(ids, c.Bus)
	}
	return ids
}

// openBus opens an i2c-dev node addressed to the DDC/CI slave.
func openBus(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	if err := unix.IoctlSetInt(int(f.Fd()), i2cSlave, SlaveAddr); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("I2C_SLAVE %s: %w", path, err)
	}
	return f, nil
}

// describe labels a connector by its EDID, falling back to the connector name.
func describe(c monitor.Connector) string {
	info, err := edid.Parse(c.EDID)
	if err != nil {
		return c.Output
	}
	return info.Description()
}
