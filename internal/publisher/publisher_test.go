package publisher

import (
	"context"
	"testing"
	"time"

	"github.com/cronforge/jobstore/internal/catalog"
	"github.com/cronforge/jobstore/internal/concurrency"
	"github.com/cronforge/jobstore/internal/jobfactory"
	"github.com/cronforge/jobstore/internal/model"
)

type stubDelegate struct {
	waiting, blocked int64
	err              error
}

func (s *stubDelegate) SelectTriggersToAcquire(ctx context.Context, noLaterThan time.Time, maxCount int, excluded map[string]struct{}, limits map[string]int) ([]model.Trigger, error) {
	panic("not used by publisher tests")
}
func (s *stubDelegate) SelectTrigger(ctx context.Context, key model.JobKey) (*model.Trigger, error) {
	panic("not used by publisher tests")
}
func (s *stubDelegate) SelectJobDetail(ctx context.Context, key model.JobKey) (*model.JobDetail, error) {
	panic("not used by publisher tests")
}
func (s *stubDelegate) AcquireTrigger(ctx context.Context, key model.JobKey, fenceFireTime time.Time, fireInstanceID string) (bool, error) {
	panic("not used by publisher tests")
}
func (s *stubDelegate) InsertFiredTrigger(ctx context.Context, ft model.FiredTrigger) error {
	panic("not used by publisher tests")
}
func (s *stubDelegate) UpdateFiredTriggerState(ctx context.Context, fireInstanceID string, state model.TriggerState) error {
	panic("not used by publisher tests")
}
func (s *stubDelegate) DeleteFiredTrigger(ctx context.Context, fireInstanceID string) error {
	panic("not used by publisher tests")
}
func (s *stubDelegate) ActiveFiredTriggers(ctx context.Context, schedulerInstance string) ([]model.FiredTrigger, error) {
	panic("not used by publisher tests")
}
func (s *stubDelegate) StoreTriggerState(ctx context.Context, key model.JobKey, state model.TriggerState, nextFireTime *time.Time, force bool, expectVersion int64) error {
	panic("not used by publisher tests")
}
func (s *stubDelegate) SweepSiblings(ctx context.Context, jobKey model.JobKey, typeNames []string, transitions map[model.TriggerState]model.TriggerState) (int64, error) {
	panic("not used by publisher tests")
}
func (s *stubDelegate) SelectWaitingTriggerCount(ctx context.Context, excluded map[string]struct{}) (int64, error) {
	return s.waiting, s.err
}
func (s *stubDelegate) SelectBlockedTriggerCount(ctx context.Context, excluded map[string]struct{}) (int64, error) {
	return s.blocked, s.err
}
func (s *stubDelegate) SelectTotalWaitingTriggerCount(ctx context.Context, excluded map[string]struct{}) (int64, error) {
	panic("not used by publisher tests")
}
func (s *stubDelegate) SelectJobTypeCounts(ctx context.Context, excluded map[string]struct{}) (map[string]int64, error) {
	panic("not used by publisher tests")
}
func (s *stubDelegate) SelectJobs(ctx context.Context, keys []model.JobKey) ([]model.JobDetail, error) {
	panic("not used by publisher tests")
}

func newTestPublisher(d *stubDelegate, exec *concurrency.ExecutingTable) *Publisher {
	return &Publisher{
		Delegate:    d,
		Catalog:     catalog.New(nil),
		Exec:        exec,
		JobFactory:  jobfactory.New(),
		ThreadCount: 4,
	}
}

func TestPublishBuildsSnapshotAndFansOutToListeners(t *testing.T) {
	exec := concurrency.NewExecutingTable()
	t0 := time.Now()
	exec.Add(model.ExecutingEntry{Key: model.JobKey{Group: "g", Name: "second"}, Detail: model.JobDetail{Group: "g", Name: "second", JobType: "email"}, StartTime: t0.Add(time.Second)})
	exec.Add(model.ExecutingEntry{Key: model.JobKey{Group: "g", Name: "first"}, Detail: model.JobDetail{Group: "g", Name: "first", JobType: "email"}, StartTime: t0})

	d := &stubDelegate{waiting: 3, blocked: 1}
	p := newTestPublisher(d, exec)

	var got QueueStateContext
	calls := 0
	p.AddListener(func(ctx context.Context, snap QueueStateContext) {
		calls++
		got = snap
	})

	p.PublishExecuting(context.Background())

	if calls != 1 {
		t.Fatalf("expected exactly 1 listener call, got %d", calls)
	}
	if got.Kind != KindExecuting {
		t.Fatalf("expected kind %q, got %q", KindExecuting, got.Kind)
	}
	if got.WaitingTriggersCount != 3 || got.BlockedTriggersCount != 1 {
		t.Fatalf("expected waiting=3 blocked=1, got waiting=%d blocked=%d", got.WaitingTriggersCount, got.BlockedTriggersCount)
	}
	if got.TotalTriggersCount != 3+1+2 {
		t.Fatalf("expected total to include waiting+blocked+executing, got %d", got.TotalTriggersCount)
	}
	if len(got.CurrentlyExecuting) != 2 {
		t.Fatalf("expected 2 executing items, got %d", len(got.CurrentlyExecuting))
	}
	if got.CurrentlyExecuting[0].Key.Name != "first" || got.CurrentlyExecuting[1].Key.Name != "second" {
		t.Fatalf("expected executing items ordered by start time, got %v", got.CurrentlyExecuting)
	}
	if got.ThreadCount != 4 {
		t.Fatalf("expected thread count to be passed through, got %d", got.ThreadCount)
	}
}

func TestPublishSwallowsDelegateErrorWithoutCallingListeners(t *testing.T) {
	d := &stubDelegate{err: context.DeadlineExceeded}
	p := newTestPublisher(d, concurrency.NewExecutingTable())

	calls := 0
	p.AddListener(func(ctx context.Context, snap QueueStateContext) { calls++ })

	p.PublishAdded(context.Background())

	if calls != 0 {
		t.Fatalf("expected no listener calls when the snapshot build fails, got %d", calls)
	}
}
