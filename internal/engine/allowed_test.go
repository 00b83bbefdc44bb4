package engine

import (
	"testing"
	"time"

	"github.com/cronforge/jobstore/internal/catalog"
	"github.com/cronforge/jobstore/internal/concurrency"
	"github.com/cronforge/jobstore/internal/jobtype"
	"github.com/cronforge/jobstore/internal/model"
)

func exec(entries ...model.ExecutingEntry) *concurrency.ExecutingTable {
	tbl := concurrency.NewExecutingTable()
	for _, e := range entries {
		tbl.Add(e)
	}
	return tbl
}

func jobEntry(group, name, jobType string) model.ExecutingEntry {
	key := model.JobKey{Group: group, Name: name}
	return model.ExecutingEntry{Key: key, Detail: model.JobDetail{Group: group, Name: name, JobType: jobType}, StartTime: time.Now()}
}

func TestJobAllowedDisallowAnyBlocksWhileExecuting(t *testing.T) {
	jobtype.Register(jobtype.Descriptor{Name: "allowed-test-disallow-any", DisallowAny: true})
	cat := catalog.New(nil)
	e := exec(jobEntry("g", "running", "allowed-test-disallow-any"))
	desc, _ := jobtype.Lookup("allowed-test-disallow-any")

	if JobAllowed(desc, cat, e, newLocalCounts()) {
		t.Fatalf("expected disallow-any type to be blocked while one instance is executing")
	}
}

func TestJobAllowedDisallowAnyBlocksSecondInSameBatch(t *testing.T) {
	jobtype.Register(jobtype.Descriptor{Name: "allowed-test-disallow-any-batch", DisallowAny: true})
	cat := catalog.New(nil)
	e := exec()
	local := newLocalCounts()
	desc, _ := jobtype.Lookup("allowed-test-disallow-any-batch")

	if !JobAllowed(desc, cat, e, local) {
		t.Fatalf("expected first candidate of the batch to be allowed")
	}
	if JobAllowed(desc, cat, e, local) {
		t.Fatalf("expected second candidate of the same batch to be blocked")
	}
}

func TestJobAllowedDisallowGroupBlocksSiblingType(t *testing.T) {
	jobtype.Register(jobtype.Descriptor{Name: "allowed-test-group-a", Group: "payments"})
	jobtype.Register(jobtype.Descriptor{Name: "allowed-test-group-b", Group: "payments"})
	cat := catalog.New(nil)
	e := exec(jobEntry("g", "running", "allowed-test-group-a"))
	descB, _ := jobtype.Lookup("allowed-test-group-b")

	if JobAllowed(descB, cat, e, newLocalCounts()) {
		t.Fatalf("expected sibling group member to be blocked while another member executes")
	}
}

func TestJobAllowedLimitAdmitsUpToCapAcrossExecutingAndBatch(t *testing.T) {
	jobtype.Register(jobtype.Descriptor{Name: "allowed-test-limit", HasLimit: true, Limit: 2})
	cat := catalog.New(nil)
	e := exec(jobEntry("g", "running", "allowed-test-limit"))
	local := newLocalCounts()
	desc, _ := jobtype.Lookup("allowed-test-limit")

	if !JobAllowed(desc, cat, e, local) {
		t.Fatalf("expected one slot free under a limit of 2 with 1 already executing")
	}
	if JobAllowed(desc, cat, e, local) {
		t.Fatalf("expected limit of 2 to be exhausted after admitting the second candidate")
	}
}

func TestJobAllowedNoRuleAlwaysAllowed(t *testing.T) {
	jobtype.Register(jobtype.Descriptor{Name: "allowed-test-no-rule"})
	cat := catalog.New(nil)
	e := exec(jobEntry("g", "running", "allowed-test-no-rule"), jobEntry("g", "running2", "allowed-test-no-rule"))
	desc, _ := jobtype.Lookup("allowed-test-no-rule")

	if !JobAllowed(desc, cat, e, newLocalCounts()) {
		t.Fatalf("expected a type with no concurrency attribute to always be allowed")
	}
}

func TestJobAllowedPriorityDisallowAnyBeatsLimit(t *testing.T) {
	// A descriptor can in principle carry both DisallowAny and a Limit;
	// DisallowAny must win.
	jobtype.Register(jobtype.Descriptor{Name: "allowed-test-priority", DisallowAny: true, HasLimit: true, Limit: 5})
	cat := catalog.New(nil)
	e := exec(jobEntry("g", "running", "allowed-test-priority"))
	desc, _ := jobtype.Lookup("allowed-test-priority")

	if JobAllowed(desc, cat, e, newLocalCounts()) {
		t.Fatalf("expected DisallowAny to take priority over a Limit that would otherwise admit")
	}
}
