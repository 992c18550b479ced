// Package spotlight dims every display except the ones showing active content.
//
// Monitors owns all display handles, the OS-to-display identity map and the
// captured baselines. It performs no locking: one goroutine must drive it.
package spotlight

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/frudas24/ddc-spotlight/internal/baseline"
	"github.com/frudas24/ddc-spotlight/internal/ddc"
	"github.com/frudas24/ddc-spotlight/internal/identity"
	"github.com/frudas24/ddc-spotlight/internal/vcp"
)

// State is the last transition applied to a display.
type State string

const (
	// StateCaptured means the baseline was recorded and nothing was written yet.
	StateCaptured State = "captured"
	// StateDimmed means dim targets were written.
	StateDimmed State = "dimmed"
	// StateRestored means baseline targets were written.
	StateRestored State = "restored"
)

// Enumerator returns the hardware-controllable displays, all sharing pacer.
type Enumerator func(pacer *ddc.Pacer, log zerolog.Logger) ([]*ddc.Display, error)

// Monitors is the aggregate driving dim and restore transitions.
type Monitors struct {
	log       zerolog.Logger
	order     []string
	displays  map[string]*ddc.Display
	states    map[string]State
	baselines *baseline.Store
	ids       identity.Map
	closed    bool
}

type options struct {
	log       zerolog.Logger
	pacer     *ddc.Pacer
	enumerate Enumerator
	outputs   identity.Source
}

// Option configures New.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithPacer replaces the command pacer.
func WithPacer(p *ddc.Pacer) Option {
	return func(o *options) {
		o.pacer = p
	}
}

// WithEnumerator sets a custom display enumerator for testing.
func WithEnumerator(fn Enumerator) Option {
	return func(o *options) {
		o.enumerate = fn
	}
}

// WithOutputSource sets a custom OS output source for testing.
func WithOutputSource(src identity.Source) Option {
	return func(o *options) {
		o.outputs = src
	}
}

// New enumerates displays, probes them, captures baselines and builds the identity map.
// Only a failure to enumerate displays or outputs at all is returned as an error.
func New(opts ...Option) (*Monitors, error) {
	o := options{
		log:       zerolog.Nop(),
		enumerate: ddc.Enumerate,
		outputs:   identity.SystemSource,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.pacer == nil {
		o.pacer = ddc.NewPacer(ddc.CommandDelay)
	}

	found, err := o.enumerate(o.pacer, o.log)
	if err != nil {
		return nil, fmt.Errorf("enumerate displays: %w", err)
	}

	m := &Monitors{
		log:       o.log,
		displays:  make(map[string]*ddc.Display, len(found)),
		states:    make(map[string]State, len(found)),
		baselines: baseline.New(),
	}
	for _, d := range found {
		m.probe(d)
		if _, dup := m.displays[d.ID]; dup {
			m.log.Warn().Str("display", d.ID).Msg("enumerate: duplicate display id, keeping first handle")
			_ = d.Close()
			continue
		}
		m.order = append(m.order, d.ID)
		m.displays[d.ID] = d
		m.states[d.ID] = StateCaptured
	}

	ids, err := identity.Build(o.outputs, o.log)
	if err != nil {
		_ = m.release()
		return nil, fmt.Errorf("build identity map: %w", err)
	}
	m.ids = ids

	m.log.Info().
		Int("displays", len(m.order)).
		Int("baselines", m.baselines.Len()).
		Int("outputs", ids.Len()).
		Msg("monitors ready")
	return m, nil
}

// probe fills the capability database of d and captures its baselines.
func (m *Monitors) probe(d *ddc.Display) {
	if err := d.Probe(); err != nil {
		m.log.Warn().Err(err).Str("display", d.ID).Msg("probe: capabilities unavailable")
		return
	}
	for _, code := range vcp.Dimmable {
		if !d.Supports(code) {
			continue
		}
		v, err := d.Get(code)
		if err != nil {
			m.log.Warn().Err(err).Str("display", d.ID).Stringer("feature", code).Msg("probe: capabilities report support but read failed")
			continue
		}
		if !m.baselines.Capture(d.ID, code, v) {
			m.log.Warn().Str("display", d.ID).Stringer("feature", code).Msg("probe: display already has a saved baseline, ignoring")
			continue
		}
		m.log.Debug().Str("display", d.ID).Stringer("feature", code).Uint16("value", v.Current).Uint16("max", v.Max).Msg("probe: baseline captured")
	}
}

// Plan partitions the known displays for names into the ones to dim and the
// ones to keep. Both lists follow enumeration order and never overlap.
func (m *Monitors) Plan(names []string) (dim, keep []string) {
	kept := map[string]bool{}
	for _, id := range m.ids.Resolve(names) {
		if _, known := m.displays[id]; known {
			kept[id] = true
		}
	}
	for _, id := range m.order {
		if kept[id] {
			keep = append(keep, id)
		} else {
			dim = append(dim, id)
		}
	}
	return dim, keep
}

// Spotlight keeps the displays behind names at baseline and dims every other display.
// All dims are issued before any restore.
func (m *Monitors) Spotlight(names []string) {
	dim, keep := m.Plan(names)
	m.log.Info().Strs("names", names).Strs("dim", dim).Strs("keep", keep).Msg("spotlight")
	for _, id := range dim {
		m.Dim(id)
	}
	for _, id := range keep {
		m.Restore(id)
	}
}

// Dim writes 0 to every supported dimmable feature of id.
func (m *Monitors) Dim(id string) {
	d, ok := m.displays[id]
	if !ok {
		return
	}
	for _, code := range vcp.Dimmable {
		if !d.Supports(code) {
			continue
		}
		if err := d.Set(code, 0); err != nil {
			m.log.Warn().Err(err).Str("display", id).Stringer("feature", code).Msg("dim: capabilities report support but write failed")
		}
	}
	m.states[id] = StateDimmed
}

// Restore writes the captured baseline of every supported feature of id.
// Features without a baseline are left untouched.
func (m *Monitors) Restore(id string) {
	d, ok := m.displays[id]
	if !ok {
		return
	}
	for _, code := range vcp.Dimmable {
		v, ok := m.baselines.Lookup(id, code)
		if !ok || !d.Supports(code) {
			continue
		}
		m.log.Debug().Str("display", id).Stringer("feature", code).Uint16("value", v.Current).Msg("restore")
		if err := d.Set(code, v.Current); err != nil {
			m.log.Warn().Err(err).Str("display", id).Stringer("feature", code).Msg("restore: capabilities report support but write failed")
		}
	}
	m.states[id] = StateRestored
}

// DimAll dims every known display.
func (m *Monitors) DimAll() {
	for _, id := range m.order {
		m.Dim(id)
	}
}

// RestoreAll restores every known display to its baseline.
func (m *Monitors) RestoreAll() {
	for _, id := range m.order {
		m.Restore(id)
	}
}

// Close restores every display and releases the handles. Later calls do nothing.
func (m *Monitors) Close() error {
	if m.closed {
		return nil
	}
	m.RestoreAll()
	return m.release()
}

// release closes every handle without restoring.
func (m *Monitors) release() error {
	m.closed = true
	var errs []error
	for _, id := range m.order {
		if err := m.displays[id].Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// IDs returns every known display identity in enumeration order.
func (m *Monitors) IDs() []string {
	return append([]string(nil), m.order...)
}

// Identity returns the OS-to-display map.
func (m *Monitors) Identity() identity.Map {
	return m.ids
}

// DisplayInfo is a read-only summary of one display.
type DisplayInfo struct {
	ID           string                 `json:"id"`
	Description  string                 `json:"description"`
	Kind         string                 `json:"kind"`
	Capabilities []vcp.Code             `json:"capabilities"`
	Baselines    map[vcp.Code]vcp.Value `json:"baselines"`
	State        State                  `json:"state"`
}

// Describe returns a summary of every display in enumeration order.
func (m *Monitors) Describe() []DisplayInfo {
	out := make([]DisplayInfo, 0, len(m.order))
	for _, id := range m.order {
		d := m.displays[id]
		info := DisplayInfo{
			ID:          id,
			Description: d.Description,
			Kind:        d.Kind.String(),
			Baselines:   m.baselines.Features(id),
			State:       m.states[id],
		}
		for code := range d.Capabilities() {
			info.Capabilities = append(info.Capabilities, code)
		}
		slices.Sort(info.Capabilities)
		out = append(out, info)
	}
	return out
}

// ParseNames splits a host's comma separated display list. Tokens are kept
// literally, so empty tokens are passed on and simply match nothing.
func ParseNames(csv string) []string {
	return strings.Split(csv, ",")
}
