// Package alias resolves vendor-side symbolic names (interface codes,
// network/host aliases, port groups) to human-readable display labels.
package alias

import (
	"sort"
	"sync/atomic"
)

type Category string

const (
	Interface Category = "interface"
	Network   Category = "network"
	Address   Category = "address"
	Port      Category = "port"
	Misc      Category = "misc-tag"
)

// AnySentinelKey is the Misc-category key under which the display label for
// a vendor's "any" sentinel value is registered.
const AnySentinelKey = "any-sentinel"

// DefaultAnyLabel is the label used for "any" when the operator configures
// nothing else.
const DefaultAnyLabel = "Any"

type key struct {
	cat Category
	raw string
}

// Table is an immutable alias lookup built once per run and shared read-only
// by every adapter. Resolve is a total function: unknown keys fall back to
// the raw key and bump a diagnostic counter instead of failing.
type Table struct {
	entries   map[key]string
	fallbacks map[Category]*atomic.Uint64
}

// Resolve returns the display label for (cat, raw). Unknown keys return raw
// unchanged and are counted as fallbacks under their category.
func (t *Table) Resolve(cat Category, raw string) string {
	if label, ok := t.entries[key{cat, raw}]; ok {
		return label
	}
	if counter, ok := t.fallbacks[cat]; ok {
		counter.Add(1)
	}
	return raw
}

// Lookup is Resolve without the fallback: it reports whether a mapping
// exists, and does not count a miss.
func (t *Table) Lookup(cat Category, raw string) (string, bool) {
	label, ok := t.entries[key{cat, raw}]
	return label, ok
}

// Fallbacks returns how many lookups fell back to the raw key, across all
// categories.
func (t *Table) Fallbacks() uint64 {
	var total uint64
	for _, counter := range t.fallbacks {
		total += counter.Load()
	}
	return total
}

// FallbacksByCategory returns the fallback count per category, for
// diagnostics.
func (t *Table) FallbacksByCategory() map[Category]uint64 {
	counts := make(map[Category]uint64, len(t.fallbacks))
	for cat, counter := range t.fallbacks {
		if n := counter.Load(); n > 0 {
			counts[cat] = n
		}
	}
	return counts
}

// Len returns the number of mapped entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// Keys returns the raw keys mapped under cat, sorted. Used by the rule-scan
// interface discovery tier and by diagnostics.
func (t *Table) Keys(cat Category) []string {
	var keys []string
	for k := range t.entries {
		if k.cat == cat {
			keys = append(keys, k.raw)
		}
	}
	sort.Strings(keys)
	return keys
}

// Builder accumulates alias mappings from API fetches and static
// configuration, then seals them into an immutable Table.
type Builder struct {
	fetched map[key]string
	static  map[key]string
}

func NewBuilder() *Builder {
	return &Builder{
		fetched: make(map[key]string),
		static:  make(map[key]string),
	}
}

// Add records an API-fetched mapping. Later adds for the same key win.
func (b *Builder) Add(cat Category, raw, label string) {
	if raw == "" || label == "" {
		return
	}
	b.fetched[key{cat, raw}] = label
}

// AddStatic records an operator-configured mapping. Static mappings always
// take precedence over fetched ones at Build time.
func (b *Builder) AddStatic(cat Category, raw, label string) {
	if raw == "" || label == "" {
		return
	}
	b.static[key{cat, raw}] = label
}

// Build merges fetched and static mappings (static wins) and seals the
// result. The "any" sentinel label is seeded if nothing supplied one.
func (b *Builder) Build() *Table {
	entries := make(map[key]string, len(b.fetched)+len(b.static)+1)
	for k, v := range b.fetched {
		entries[k] = v
	}
	for k, v := range b.static {
		entries[k] = v
	}
	anyKey := key{Misc, AnySentinelKey}
	if _, ok := entries[anyKey]; !ok {
		entries[anyKey] = DefaultAnyLabel
	}
	fallbacks := make(map[Category]*atomic.Uint64)
	for _, cat := range []Category{Interface, Network, Address, Port, Misc} {
		fallbacks[cat] = &atomic.Uint64{}
	}
	return &Table{entries: entries, fallbacks: fallbacks}
}
