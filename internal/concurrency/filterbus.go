package concurrency

import (
	"sync"
)

// Filter is implemented by each acquisition-filter collaborator: it
// reports the set of job types currently ineligible and must be cheap to
// poll, since every acquisition round calls TypesToExclude on every
// registered filter.
type Filter interface {
	Name() string
	TypesToExclude() map[string]struct{}
	// Subscribe registers a callback invoked whenever the filter's answer
	// changes. The filter may call it from any goroutine.
	Subscribe(onChange func())
}

// FilterBus holds the fixed list of filters the engine was constructed
// with and exposes the union of their exclusions. It also fans out a
// single wake signal whenever any one filter's state changes, so the
// dispatcher can re-check immediately with the sentinel past timestamp
// rather than waiting out its normal poll interval.
type FilterBus struct {
	mu      sync.RWMutex
	filters []Filter
	onWake  func()
}

func NewFilterBus() *FilterBus {
	return &FilterBus{}
}

// Register subscribes a filter at construction time.
func (b *FilterBus) Register(f Filter) {
	b.mu.Lock()
	b.filters = append(b.filters, f)
	b.mu.Unlock()
	f.Subscribe(func() { b.notifyWake() })
}

// OnWake installs the dispatcher's wake callback, invoked whenever any
// registered filter's answer changes.
func (b *FilterBus) OnWake(fn func()) {
	b.mu.Lock()
	b.onWake = fn
	b.mu.Unlock()
}

func (b *FilterBus) notifyWake() {
	b.mu.RLock()
	fn := b.onWake
	b.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// ExcludedTypes returns the union of every registered filter's current
// exclusion set. Each filter is polled synchronously, in registration
// order; their answers must be cheap per §4.2.
func (b *FilterBus) ExcludedTypes() map[string]struct{} {
	b.mu.RLock()
	filters := make([]Filter, len(b.filters))
	copy(filters, b.filters)
	b.mu.RUnlock()

	union := make(map[string]struct{})
	for _, f := range filters {
		for t := range f.TypesToExclude() {
			union[t] = struct{}{}
		}
	}
	return union
}

func (b *FilterBus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.filters)
}
