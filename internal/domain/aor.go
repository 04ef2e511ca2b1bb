package domain

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownAOR is returned when an AOR identifier is not in the registry.
// Identifiers are expected to come from the registry's own key set, so this
// indicates a caller bug rather than bad data.
var ErrUnknownAOR = errors.New("unknown AOR")

// NoteLevel is the severity of a briefing note.
type NoteLevel string

const (
	NoteInfo    NoteLevel = "info"
	NoteWarning NoteLevel = "warning"
	NoteAlert   NoteLevel = "alert"
)

// BriefingNote is a standing callout shown in an AOR's briefing view.
type BriefingNote struct {
	Level NoteLevel `json:"level"`
	Text  string    `json:"text"`
}

// AORConfig is the static viewport and briefing data for one AOR.
type AORConfig struct {
	Name        string         `json:"name"`
	Lat         float64        `json:"lat"`
	Lon         float64        `json:"lon"`
	Zoom        int            `json:"zoom"`
	Description string         `json:"description"`
	Countries   []string       `json:"countries"`
	Notes       []BriefingNote `json:"notes,omitempty"`
}

// Registry maps AOR identifiers to their configuration. It is immutable once
// built and safe for concurrent use.
type Registry struct {
	entries map[string]AORConfig
	keys    []string
}

// NewRegistry builds a registry from the given entries, keyed by Name.
func NewRegistry(entries ...AORConfig) (*Registry, error) {
	r := &Registry{entries: make(map[string]AORConfig, len(entries))}
	for _, e := range entries {
		if e.Name == "" {
			return nil, errors.New("AOR entry has empty name")
		}
		if _, dup := r.entries[e.Name]; dup {
			return nil, fmt.Errorf("duplicate AOR entry %q", e.Name)
		}
		r.entries[e.Name] = e
		r.keys = append(r.keys, e.Name)
	}
	sort.Strings(r.keys)
	return r, nil
}

// Lookup returns the configuration for an AOR, or an error wrapping
// ErrUnknownAOR.
func (r *Registry) Lookup(name string) (AORConfig, error) {
	cfg, ok := r.entries[name]
	if !ok {
		return AORConfig{}, fmt.Errorf("%w: %q", ErrUnknownAOR, name)
	}
	cfg.Countries = append([]string(nil), cfg.Countries...)
	cfg.Notes = append([]BriefingNote(nil), cfg.Notes...)
	return cfg, nil
}

// Keys returns the registered AOR identifiers in sorted order.
func (r *Registry) Keys() []string {
	return append([]string(nil), r.keys...)
}

// All returns every entry in key order.
func (r *Registry) All() []AORConfig {
	out := make([]AORConfig, 0, len(r.keys))
	for _, k := range r.keys {
		cfg, _ := r.Lookup(k)
		out = append(out, cfg)
	}
	return out
}

// DefaultRegistry returns the built-in combatant command AORs.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(defaultAORs...)
	if err != nil {
		panic(err)
	}
	return r
}

var defaultAORs = []AORConfig{
	{
		Name:        "USEUCOM",
		Lat:         50.0,
		Lon:         15.0,
		Zoom:        3,
		Description: "Europe, Israel, and Russia focus.",
		Countries:   []string{"Poland", "Ukraine", "Estonia"},
		Notes: []BriefingNote{
			{Level: NoteWarning, Text: "Border Activity: Suwalki Gap"},
		},
	},
	{
		Name:        "USCENTCOM",
		Lat:         28.0,
		Lon:         53.0,
		Zoom:        4,
		Description: "Middle East and Central Asia focus.",
		Countries:   []string{"Jordan", "Iraq", "Saudi Arabia"},
	},
	{
		Name:        "USINDOPACOM",
		Lat:         10.0,
		Lon:         160.0,
		Zoom:        1,
		Description: "The 'Tyranny of Distance': 50% of the Earth's surface.",
		Countries:   []string{"Philippines", "Japan", "Taiwan"},
		Notes: []BriefingNote{
			{Level: NoteAlert, Text: "Conflict Flashpoint: South China Sea"},
			{Level: NoteInfo, Text: "Monitoring Freedom of Navigation (FONOP) routes."},
		},
	},
}
