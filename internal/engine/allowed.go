package engine

import (
	"github.com/cronforge/jobstore/internal/catalog"
	"github.com/cronforge/jobstore/internal/concurrency"
	"github.com/cronforge/jobstore/internal/jobtype"
)

// localCounts tracks how many candidates of a given type or group have
// already been admitted within the current acquisition batch — the
// "already-acquired-in-this-batch" half of JobAllowed's input.
type localCounts struct {
	byType  map[string]int
	byGroup map[string]struct{}
}

func newLocalCounts() *localCounts {
	return &localCounts{byType: map[string]int{}, byGroup: map[string]struct{}{}}
}

// JobAllowed gates a single acquisition candidate against the executing
// table plus the local batch counters, in first-match priority order:
// DisallowAny > DisallowGroup > Limit > no rule.
func JobAllowed(d jobtype.Descriptor, cat *catalog.Catalog, exec *concurrency.ExecutingTable, local *localCounts) bool {
	switch {
	case d.DisallowAny:
		if exec.TypeIsExecuting(d.Name) || local.byType[d.Name] >= 1 {
			return false
		}
		local.byType[d.Name]++
		return true

	case d.Group != "":
		members := cat.GroupMembers(d.Group)
		set := make(map[string]struct{}, len(members))
		for _, m := range members {
			set[m] = struct{}{}
		}
		if exec.GroupHasExecuting(set) {
			return false
		}
		if _, ok := local.byGroup[d.Group]; ok {
			return false
		}
		local.byGroup[d.Group] = struct{}{}
		return true

	case d.HasLimit:
		n := d.Limit
		if rule, ok := cat.Rule(d.Name); ok && rule.HasLimit() {
			n = rule.Limit
		}
		if n <= 0 {
			n = 1
		}
		if exec.CountType(d.Name)+local.byType[d.Name] >= n {
			return false
		}
		local.byType[d.Name]++
		return true

	default:
		// A type with no declared limit can still have one in the catalog
		// from a configuration override.
		if rule, ok := cat.Rule(d.Name); ok && rule.HasLimit() {
			n := rule.Limit
			if n <= 0 {
				n = 1
			}
			if exec.CountType(d.Name)+local.byType[d.Name] >= n {
				return false
			}
			local.byType[d.Name]++
			return true
		}
		return true
	}
}
