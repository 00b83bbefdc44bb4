// Package typeloader resolves job-type strings to their registered
// jobtype.Descriptor, the Go analogue of the base store's "load a runtime
// type by fully-qualified name" helper. Resolution failures trigger the
// ERROR state transition in the acquisition engine.
//
// The same handful of type strings get resolved on every acquisition
// round, so the result is cached in a small bounded LRU rather than an
// unbounded map.
package typeloader

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cronforge/jobstore/internal/jobtype"
)

// ErrUnresolvedType is returned when a job-type string has no registered
// descriptor; callers must treat this as a persistence exception local to
// the one trigger that referenced it.
type ErrUnresolvedType struct {
	TypeName string
}

func (e *ErrUnresolvedType) Error() string {
	return fmt.Sprintf("typeloader: unresolved job type %q", e.TypeName)
}

type Loader struct {
	cache *lru.Cache[string, jobtype.Descriptor]
}

func New(cacheSize int) *Loader {
	if cacheSize <= 0 {
		cacheSize = 256
	}
	c, _ := lru.New[string, jobtype.Descriptor](cacheSize)
	return &Loader{cache: c}
}

// Resolve returns the descriptor for a job-type string, consulting the LRU
// before falling back to the registry.
func (l *Loader) Resolve(typeName string) (jobtype.Descriptor, error) {
	if d, ok := l.cache.Get(typeName); ok {
		return d, nil
	}
	d, ok := jobtype.Lookup(typeName)
	if !ok {
		return jobtype.Descriptor{}, &ErrUnresolvedType{TypeName: typeName}
	}
	l.cache.Add(typeName, d)
	return d, nil
}

// Invalidate drops a cached entry so the next Resolve reads the jobtype
// registry again. Nothing in the repository calls it.
func (l *Loader) Invalidate(typeName string) {
	l.cache.Remove(typeName)
}
