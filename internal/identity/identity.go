// Package identity maps OS display output names to the DDC/CI displays behind them.
package identity

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/frudas24/ddc-spotlight/internal/ddc"
	"github.com/frudas24/ddc-spotlight/internal/monitor"
)

// Output is one OS display output as seen by the mapper.
type Output struct {
	// Name is the OS device name; empty when the platform could not name the output.
	Name string
	// Attached lists the hardware identities physically driven by the output.
	Attached func() ([]string, error)
}

// Source lists OS outputs. An error means outputs cannot be enumerated at all.
type Source func() ([]Output, error)

// Map resolves OS output names to hardware identities. It is immutable once built.
type Map struct {
	order   []string
	entries map[string][]string
}

// Build walks every output of src once and records its attached displays.
// Unnamed outputs are skipped silently; outputs whose attached displays cannot
// be listed are logged and skipped without contributing an entry.
func Build(src Source, log zerolog.Logger) (Map, error) {
	outputs, err := src()
	if err != nil {
		return Map{}, fmt.Errorf("list outputs: %w", err)
	}

	m := Map{entries: make(map[string][]string)}
	for _, out := range outputs {
		if out.Name == "" {
			continue
		}
		attached, err := out.Attached()
		if err != nil {
			log.Warn().Err(err).Str("output", out.Name).Msg("identity: attached displays unavailable")
			continue
		}
		if _, dup := m.entries[out.Name]; dup {
			log.Warn().Str("output", out.Name).Msg("identity: output name reported twice, keeping first")
			continue
		}
		log.Debug().Str("output", out.Name).Strs("displays", attached).Msg("identity: mapped")
		m.order = append(m.order, out.Name)
		m.entries[out.Name] = append([]string(nil), attached...)
	}
	return m, nil
}

// Lookup returns the identities attached to one OS output name.
func (m Map) Lookup(name string) ([]string, bool) {
	ids, ok := m.entries[name]
	if !ok {
		return nil, false
	}
	return append([]string(nil), ids...), true
}

// Resolve concatenates the identities of every known name. Unknown names contribute nothing.
func (m Map) Resolve(names []string) []string {
	var ids []string
	for _, name := range names {
		ids = append(ids, m.entries[name]...)
	}
	return ids
}

// Names returns the mapped OS names in discovery order.
func (m Map) Names() []string {
	return append([]string(nil), m.order...)
}

// Entries returns a copy of the mapping.
func (m Map) Entries() map[string][]string {
	out := make(map[string][]string, len(m.entries))
	for name, ids := range m.entries {
		out[name] = append([]string(nil), ids...)
	}
	return out
}

// Len returns the number of mapped OS names.
func (m Map) Len() int {
	return len(m.entries)
}

// SystemSource lists the platform's outputs and resolves attached displays through ddc.
func SystemSource() ([]Output, error) {
	monitors, err := monitor.ListMonitors()
	if err != nil {
		return nil, err
	}
	outputs := make([]Output, 0, len(monitors))
	for _, m := range monitors {
		outputs = append(outputs, Output{
			Name:     m.Name,
			Attached: func() ([]string, error) { return ddc.AttachedIDs(m) },
		})
	}
	return outputs, nil
}

// StaticSource returns a Source serving a fixed mapping in the given name order.
func StaticSource(names []string, entries map[string][]string) Source {
	return func() ([]Output, error) {
		outputs := make([]Output, 0, len(names))
		for _, name := range names {
			ids := entries[name]
			outputs = append(outputs, Output{
				Name:     name,
				Attached: func() ([]string, error) { return ids, nil },
			})
		}
		return outputs, nil
	}
}
