package engine

import (
	"context"
	"testing"
	"time"

	"github.com/cronforge/jobstore/internal/catalog"
	"github.com/cronforge/jobstore/internal/concurrency"
	"github.com/cronforge/jobstore/internal/jobtype"
	"github.com/cronforge/jobstore/internal/model"
	"github.com/cronforge/jobstore/internal/typeloader"
)

func TestAcquireAdmitsCandidateAndInsertsFiredTrigger(t *testing.T) {
	jobtype.Register(jobtype.Descriptor{Name: "acquire-test-plain"})
	key := model.JobKey{Group: "g", Name: "j1"}
	trig := model.Trigger{Group: "g", Name: "j1", JobGroup: "g", JobName: "j1", JobType: "acquire-test-plain", State: model.StateWaiting, NextFireTime: time.Now(), Version: 1}

	round := 0
	var casFireInstanceID string
	var insertedFire model.FiredTrigger
	d := &stubDelegate{
		selectTriggersToAcquire: func(ctx context.Context, noLaterThan time.Time, maxCount int, excluded map[string]struct{}, limits map[string]int) ([]model.Trigger, error) {
			round++
			if round == 1 {
				return []model.Trigger{trig}, nil
			}
			return nil, nil
		},
		selectTrigger: func(ctx context.Context, k model.JobKey) (*model.Trigger, error) {
			cp := trig
			return &cp, nil
		},
		acquireTrigger: func(ctx context.Context, k model.JobKey, fence time.Time, fireInstanceID string) (bool, error) {
			casFireInstanceID = fireInstanceID
			return true, nil
		},
		insertFiredTrigger: func(ctx context.Context, ft model.FiredTrigger) error {
			insertedFire = ft
			return nil
		},
	}

	e := &Engine{
		Delegate:          d,
		Catalog:           catalog.New(nil),
		Filters:           concurrency.NewFilterBus(),
		Exec:              concurrency.NewExecutingTable(),
		Types:             typeloader.New(8),
		SchedulerInstance: "node-1",
	}

	got, err := e.Acquire(context.Background(), time.Now(), 5, time.Second)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 acquired trigger, got %d", len(got))
	}
	if got[0].State != model.StateAcquired {
		t.Fatalf("expected acquired trigger state ACQUIRED, got %s", got[0].State)
	}
	if insertedFire.FireInstanceID == "" {
		t.Fatalf("expected a fired-trigger row to be inserted")
	}
	if insertedFire.SchedulerInst != "node-1" {
		t.Fatalf("expected fired trigger to carry the scheduler instance")
	}
	if casFireInstanceID == "" || casFireInstanceID != insertedFire.FireInstanceID {
		t.Fatalf("expected the CAS fire-instance-id (%q) to match the inserted fired-trigger row (%q)", casFireInstanceID, insertedFire.FireInstanceID)
	}
	if got[0].FireInstance != insertedFire.FireInstanceID {
		t.Fatalf("expected the acquired trigger's FireInstance (%q) to match the inserted fired-trigger row (%q)", got[0].FireInstance, insertedFire.FireInstanceID)
	}
	if key != got[0].Key() {
		t.Fatalf("unexpected key on acquired trigger: %v", got[0].Key())
	}
}

func TestAcquireSkipsCandidateBlockedByCatalog(t *testing.T) {
	jobtype.Register(jobtype.Descriptor{Name: "acquire-test-disallow-any", DisallowAny: true})
	trig := model.Trigger{Group: "g", Name: "j1", JobGroup: "g", JobName: "j1", JobType: "acquire-test-disallow-any", State: model.StateWaiting, NextFireTime: time.Now(), Version: 1}

	exec := concurrency.NewExecutingTable()
	exec.Add(model.ExecutingEntry{Key: model.JobKey{Group: "g", Name: "running"}, Detail: model.JobDetail{Group: "g", Name: "running", JobType: "acquire-test-disallow-any"}, StartTime: time.Now()})

	acquireCalled := false
	d := &stubDelegate{
		selectTriggersToAcquire: func(ctx context.Context, noLaterThan time.Time, maxCount int, excluded map[string]struct{}, limits map[string]int) ([]model.Trigger, error) {
			return []model.Trigger{trig}, nil
		},
		selectTrigger: func(ctx context.Context, k model.JobKey) (*model.Trigger, error) {
			cp := trig
			return &cp, nil
		},
		acquireTrigger: func(ctx context.Context, k model.JobKey, fence time.Time, fireInstanceID string) (bool, error) {
			acquireCalled = true
			return true, nil
		},
	}

	e := &Engine{
		Delegate:          d,
		Catalog:           catalog.New(nil),
		Filters:           concurrency.NewFilterBus(),
		Exec:              exec,
		Types:             typeloader.New(8),
		SchedulerInstance: "node-1",
	}

	got, err := e.Acquire(context.Background(), time.Now(), 5, time.Second)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected 0 acquired triggers, got %d", len(got))
	}
	if acquireCalled {
		t.Fatalf("expected the CAS never to be attempted for a catalog-blocked candidate")
	}
}

func TestAcquireMarksUnresolvedTypeAsError(t *testing.T) {
	trig := model.Trigger{Group: "g", Name: "j1", JobGroup: "g", JobName: "j1", JobType: "acquire-test-no-such-type", State: model.StateWaiting, NextFireTime: time.Now(), Version: 1}

	var storedState model.TriggerState
	d := &stubDelegate{
		selectTriggersToAcquire: func(ctx context.Context, noLaterThan time.Time, maxCount int, excluded map[string]struct{}, limits map[string]int) ([]model.Trigger, error) {
			return []model.Trigger{trig}, nil
		},
		selectTrigger: func(ctx context.Context, k model.JobKey) (*model.Trigger, error) {
			cp := trig
			return &cp, nil
		},
		storeTriggerState: func(ctx context.Context, k model.JobKey, state model.TriggerState, nextFireTime *time.Time, force bool, expectVersion int64) error {
			storedState = state
			return nil
		},
	}

	e := &Engine{
		Delegate:          d,
		Catalog:           catalog.New(nil),
		Filters:           concurrency.NewFilterBus(),
		Exec:              concurrency.NewExecutingTable(),
		Types:             typeloader.New(8),
		SchedulerInstance: "node-1",
	}

	got, err := e.Acquire(context.Background(), time.Now(), 5, time.Second)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected 0 acquired triggers for an unresolved job type, got %d", len(got))
	}
	if storedState != model.StateError {
		t.Fatalf("expected trigger to be moved to ERROR, got %s", storedState)
	}
}
