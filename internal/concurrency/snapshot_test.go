package concurrency

import (
	"testing"
	"time"

	"github.com/cronforge/jobstore/internal/catalog"
	"github.com/cronforge/jobstore/internal/jobtype"
	"github.com/cronforge/jobstore/internal/model"
)

func TestBuildFilterSnapshotLeavesDisallowAnyTypeOpenWhenNothingExecuting(t *testing.T) {
	jobtype.Register(jobtype.Descriptor{Name: "snapshot-test-disallow-any-idle", DisallowAny: true})
	cat := catalog.New(nil)

	exec := NewExecutingTable()
	snap := BuildFilterSnapshot(NewFilterBus(), cat, exec)

	if _, excluded := snap.Excluded["snapshot-test-disallow-any-idle"]; excluded {
		t.Fatalf("expected a DisallowAny type with nothing executing to stay acquirable")
	}
}

func TestBuildFilterSnapshotExcludesDisallowAnyTypeWhileExecuting(t *testing.T) {
	jobtype.Register(jobtype.Descriptor{Name: "snapshot-test-disallow-any-busy", DisallowAny: true})
	cat := catalog.New(nil)

	exec := NewExecutingTable()
	exec.Add(model.ExecutingEntry{
		Key:       model.JobKey{Group: "g", Name: "running"},
		Detail:    model.JobDetail{Group: "g", Name: "running", JobType: "snapshot-test-disallow-any-busy"},
		StartTime: time.Now(),
	})

	snap := BuildFilterSnapshot(NewFilterBus(), cat, exec)

	if _, excluded := snap.Excluded["snapshot-test-disallow-any-busy"]; !excluded {
		t.Fatalf("expected a DisallowAny type already executing to be excluded from the SQL candidate set")
	}
}
