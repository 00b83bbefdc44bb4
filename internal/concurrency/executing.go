// Package concurrency implements the acquisition filter bus and the
// executing-jobs table.
package concurrency

import (
	"sort"
	"sync"

	"github.com/cronforge/jobstore/internal/model"
)

// ExecutingTable is a plain mutex-guarded map from job-key to
// (job-detail, start-time). All reads and writes happen under the single
// mutex; it is never held across a suspension point (no I/O inside
// Add/Remove/Snapshot/CountType/GroupHasExecuting).
type ExecutingTable struct {
	mu      sync.Mutex
	entries map[string]model.ExecutingEntry
}

func NewExecutingTable() *ExecutingTable {
	return &ExecutingTable{entries: make(map[string]model.ExecutingEntry)}
}

func (t *ExecutingTable) Add(entry model.ExecutingEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[entry.Key.String()] = entry
}

func (t *ExecutingTable) Remove(key model.JobKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, key.String())
}

// Snapshot returns a copy of the executing entries sorted by start time
// ascending.
func (t *ExecutingTable) Snapshot() []model.ExecutingEntry {
	t.mu.Lock()
	out := make([]model.ExecutingEntry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	t.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

// CountType returns how many entries currently executing have the given
// job type.
func (t *ExecutingTable) CountType(typeName string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, e := range t.entries {
		if e.Detail.JobType == typeName {
			n++
		}
	}
	return n
}

// GroupHasExecuting reports whether any currently-executing entry's job
// type is a member of the given group.
func (t *ExecutingTable) GroupHasExecuting(members map[string]struct{}) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.entries {
		if _, ok := members[e.Detail.JobType]; ok {
			return true
		}
	}
	return false
}

// TypeIsExecuting reports whether any currently-executing entry has this
// job type — used by the DisallowConcurrentExecution gate.
func (t *ExecutingTable) TypeIsExecuting(typeName string) bool {
	return t.CountType(typeName) > 0
}

func (t *ExecutingTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
