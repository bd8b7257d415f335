// Package metrics is a minimal, dependency-free counter registry for the
// /metrics endpoint. No example in the retrieval pack imports a
// third-party metrics client (no prometheus/client_golang, no expvar
// wrapper beyond the standard library), so this stays on atomic
// counters rather than inventing a dependency the corpus never reaches
// for. See DESIGN.md for the full justification.
package metrics

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

// Registry holds named counters, each created on first use and safe for
// concurrent increment from multiple goroutines.
type Registry struct {
	mu       sync.Mutex
	counters map[string]*atomic.Int64
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{counters: make(map[string]*atomic.Int64)}
}

// Inc increments the named counter by one, creating it at zero first if
// this is its first use.
func (r *Registry) Inc(name string) {
	r.Add(name, 1)
}

// Add increments the named counter by delta, creating it at zero first
// if this is its first use.
func (r *Registry) Add(name string, delta int64) {
	r.mu.Lock()
	c, ok := r.counters[name]
	if !ok {
		c = &atomic.Int64{}
		r.counters[name] = c
	}
	r.mu.Unlock()
	c.Add(delta)
}

// Snapshot returns the current value of every counter as a map keyed by
// name; WriteText is the sorted rendering.
func (r *Registry) Snapshot() map[string]int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int64, len(r.counters))
	for name, c := range r.counters {
		out[name] = c.Load()
	}
	return out
}

// WriteText renders the registry in a flat "name value" per line format,
// sorted by name, suitable for an unauthenticated /metrics endpoint.
func (r *Registry) WriteText() []byte {
	snapshot := r.Snapshot()
	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf []byte
	for _, name := range names {
		buf = append(buf, fmt.Sprintf("%s %d\n", name, snapshot[name])...)
	}
	return buf
}
