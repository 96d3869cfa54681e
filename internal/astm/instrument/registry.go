package instrument

import (
	"encoding/json"
	"regexp"
)

// MetadataFunc enriches a wrapper's metadata dictionary once an
// instrument's mapping has been selected; it mirrors the original's
// per-module get_metadata(wrapper) hook.
type MetadataFunc func(w *Wrapper) map[string]any

// Entry is one instrument registration: a compiled header pattern, the
// mapping it contributes, and an optional metadata-enrichment function.
// Per spec §9's REDESIGN FLAGS, the registry is an explicit, ordered Go
// slice built once at start-up — never a package-scope init()-populated
// global map, and never discovered via reflection.
type Entry struct {
	Name     string
	HeaderRX *regexp.Regexp
	Mapping  Mapping
	Metadata MetadataFunc

	// MetadataSchema, when non-empty, is a JSON Schema document the
	// output of Metadata(w) must satisfy; a non-conforming result is
	// dropped rather than merged, the same fail-soft behavior the wrap
	// step applies to individual optional fields. Nil/empty means no
	// check is performed.
	MetadataSchema json.RawMessage
}

// Registry is a read-only, ordered list of instrument entries. Lookup is
// linear; the first matching entry wins.
type Registry struct {
	entries []Entry
}

// NewRegistry builds an immutable registry from an explicit list of
// entries, in the order they should be matched.
func NewRegistry(entries ...Entry) *Registry {
	r := &Registry{entries: make([]Entry, len(entries))}
	copy(r.entries, entries)
	return r
}

// Entries returns the registry's entries in match order. Callers must
// treat the returned slice as read-only.
func (r *Registry) Entries() []Entry {
	return r.entries
}

// Match returns the first entry whose HeaderRX matches header, or ok=false
// if none does.
func (r *Registry) Match(header string) (Entry, bool) {
	for _, e := range r.entries {
		if e.HeaderRX.MatchString(header) {
			return e, true
		}
	}
	return Entry{}, false
}

// DefaultRegistry wires the representative instrument catalogue committed
// to in SPEC_FULL.md's instrument catalogue section: Abbott Architect,
// Roche Cobas c311, Sysmex XN, DCA Vantage, and Horiba Yumizen H5xx, each
// grounded on the matching
// original_source/src/senaite/astm/instruments/*.py module. The generic
// DefaultMapping is not an entry; Wrap falls back to it when nothing
// matches. Adding a new instrument means appending one Entry here; the
// registry places no limit on count.
func DefaultRegistry() *Registry {
	return NewRegistry(
		AbbottArchitectEntry(),
		RocheCobasC311Entry(),
		SysmexXNEntry(),
		DCAVantageEntry(),
		HoribaYumizenH5xxEntry(),
	)
}
