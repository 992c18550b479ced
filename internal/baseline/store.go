// Package baseline records the feature values displays had before they were dimmed.
package baseline

import (
	"sort"

	"github.com/frudas24/ddc-spotlight/internal/vcp"
)

type key struct {
	id      string
	feature vcp.Code
}

// Store holds at most one captured value per (display, feature). Captured values never change.
type Store struct {
	values map[key]vcp.Value
}

// New returns an empty store.
func New() *Store {
	return &Store{values: make(map[key]vcp.Value)}
}

// Capture stores value unless a baseline already exists; it reports whether it stored.
func (s *Store) Capture(id string, feature vcp.Code, value vcp.Value) bool {
	k := key{id: id, feature: feature}
	if _, exists := s.values[k]; exists {
		return false
	}
	s.values[k] = value
	return true
}

// Lookup returns the captured baseline for a feature.
func (s *Store) Lookup(id string, feature vcp.Code) (vcp.Value, bool) {
	v, ok := s.values[key{id: id, feature: feature}]
	return v, ok
}

// Features returns the captured baselines of one display keyed by feature.
func (s *Store) Features(id string) map[vcp.Code]vcp.Value {
	out := map[vcp.Code]vcp.Value{}
	for k, v := range s.values {
		if k.id == id {
			out[k.feature] = v
		}
	}
	return out
}

// IDs returns every display with at least one baseline, sorted.
func (s *Store) IDs() []string {
	seen := map[string]bool{}
	var ids []string
	for k := range s.values {
		if !seen[k.id] {
			seen[k.id] = true
			ids = append(ids, k.id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of captured values.
func (s *Store) Len() int {
	return len(s.values)
}
