package concurrency

import (
	"github.com/cronforge/jobstore/internal/catalog"
)

// FilterSnapshot is the per-acquisition-round view computed in engine step
// 4.5.1: a set of wholly-excluded types plus a remaining-capacity map for
// types that still have room. It is immutable once built; the acquisition
// loop's local counters (batch-scoped) are tracked separately by the
// caller so a fresh snapshot is cheap to take every retry iteration.
type FilterSnapshot struct {
	Excluded map[string]struct{}
	Limits   map[string]int
}

// BuildFilterSnapshot unions the filter bus's exclusions with per-type and
// per-group caps derived from the catalog and the current executing
// table.
func BuildFilterSnapshot(bus *FilterBus, cat *catalog.Catalog, exec *ExecutingTable) FilterSnapshot {
	excluded := bus.ExcludedTypes()
	limits := make(map[string]int)

	seenGroups := make(map[string]bool)
	for _, d := range cat.AllRuleTypes() {
		rule, ok := cat.Rule(d)
		if !ok {
			continue
		}
		switch {
		case rule.Kind.IsDisallowAny():
			if exec.TypeIsExecuting(d) {
				excluded[d] = struct{}{}
			}
		case rule.Kind.IsDisallowGroup():
			if seenGroups[rule.Group] {
				continue
			}
			seenGroups[rule.Group] = true
			members := cat.GroupMembers(rule.Group)
			if groupHasExecuting(exec, members) {
				for _, m := range members {
					excluded[m] = struct{}{}
				}
			} else {
				for _, m := range members {
					limits[m] = 1
				}
			}
		case rule.LimitSet:
			remaining := rule.Limit - exec.CountType(d)
			if remaining <= 0 {
				excluded[d] = struct{}{}
			} else {
				limits[d] = remaining
			}
		}
	}
	return FilterSnapshot{Excluded: excluded, Limits: limits}
}

func groupHasExecuting(exec *ExecutingTable, members []string) bool {
	set := make(map[string]struct{}, len(members))
	for _, m := range members {
		set[m] = struct{}{}
	}
	return exec.GroupHasExecuting(set)
}
