// Package jobtype is the explicit, compile-time registry of concrete job
// types and their declarative concurrency metadata: a plain registration
// call at package init() time in place of reflection-based enumeration —
// auditable, and it removes the mystery-behavior class of bug where a
// type silently fails to enumerate.
package jobtype

import (
	"fmt"
	"sort"
	"sync"
)

// Descriptor is the attribute-driven metadata attached at registration:
// `{ disallowAny, group?, limit?, maxAllowed? }`.
type Descriptor struct {
	Name        string
	DisallowAny bool
	Group       string
	Limit       int
	HasLimit    bool
	MaxAllowed  int
}

var (
	mu    sync.RWMutex
	types = map[string]Descriptor{}
)

// Register adds a job type to the catalog's source material. Intended to
// be called from an init() function in the package that defines the job,
// mirroring a compile-time registry / inventory pattern.
func Register(d Descriptor) {
	if d.Name == "" {
		panic("jobtype: Register called with empty Name")
	}
	mu.Lock()
	defer mu.Unlock()
	if _, exists := types[d.Name]; exists {
		panic(fmt.Sprintf("jobtype: duplicate registration for %q", d.Name))
	}
	types[d.Name] = d
}

// Lookup resolves a job-type string to its registered descriptor.
func Lookup(name string) (Descriptor, bool) {
	mu.RLock()
	defer mu.RUnlock()
	d, ok := types[name]
	return d, ok
}

// All returns every registered descriptor, sorted by name for determinism.
func All() []Descriptor {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Descriptor, 0, len(types))
	for _, d := range types {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// reset clears the registry. It is unexported and nothing in the
// repository calls it.
func reset() {
	mu.Lock()
	defer mu.Unlock()
	types = map[string]Descriptor{}
}
