package engine

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/cronforge/jobstore/internal/components/logging"
	"github.com/cronforge/jobstore/internal/model"
	"github.com/cronforge/jobstore/internal/signaler"
)

// blockTransitions is the sibling sweep applied when a firing trigger
// decides its post-fire state must be BLOCKED.
var blockTransitions = map[model.TriggerState]model.TriggerState{
	model.StateWaiting:  model.StateBlocked,
	model.StateAcquired: model.StateBlocked,
	model.StatePaused:   model.StatePausedBlocked,
}

// unblockTransitions is the reverse sweep run on completion.
var unblockTransitions = map[model.TriggerState]model.TriggerState{
	model.StateBlocked:       model.StateWaiting,
	model.StatePausedBlocked: model.StatePaused,
}

// TriggersFired is the batch entry point: fire each trigger, then confirm
// at least one ended up EXECUTING.
func (e *Engine) TriggersFired(ctx context.Context, batch []model.Trigger) ([]model.FiredTrigger, error) {
	var fired []model.FiredTrigger
	for _, t := range batch {
		bundle, err := e.TriggerFired(ctx, t)
		if err != nil {
			logging.Warn(ctx, "trigger fired failed, continuing batch")
			continue
		}
		if bundle != nil {
			fired = append(fired, *bundle)
		}
	}

	active, err := e.Delegate.ActiveFiredTriggers(ctx, e.SchedulerInstance)
	if err != nil {
		return fired, errors.Wrap(err, "triggers fired: validate")
	}
	sawExecuting := false
	for _, ft := range active {
		if ft.State == model.StateExecuting {
			sawExecuting = true
			break
		}
	}
	if len(fired) > 0 && !sawExecuting {
		return fired, errors.New("triggers fired: no fired-trigger row reached EXECUTING")
	}
	return fired, nil
}

// TriggerFired implements the single-trigger fire path.
func (e *Engine) TriggerFired(ctx context.Context, t model.Trigger) (*model.FiredTrigger, error) {
	ctx, span := tracer.Start(ctx, "engine.TriggerFired")
	defer span.End()

	current, err := e.Delegate.SelectTrigger(ctx, t.Key())
	if err != nil {
		return nil, errors.Wrap(err, "trigger fired: reload")
	}
	if current == nil || current.State != model.StateAcquired {
		return nil, nil // canceled or stolen
	}

	detail, err := e.Delegate.SelectJobDetail(ctx, current.JobKey())
	if err != nil {
		_ = e.Delegate.StoreTriggerState(ctx, current.Key(), model.StateError, nil, true, current.Version)
		return nil, errors.Wrap(err, "trigger fired: job detail")
	}
	if detail == nil {
		_ = e.Delegate.StoreTriggerState(ctx, current.Key(), model.StateError, nil, true, current.Version)
		return nil, errors.New("trigger fired: job detail missing")
	}

	if err := e.Delegate.UpdateFiredTriggerState(ctx, current.FireInstance, model.StateExecuting); err != nil {
		return nil, errors.Wrap(err, "trigger fired: update fired-trigger state")
	}

	nextFireTime := computeNextFireTime(current)
	targetState, storedNext := decidePostFireState(e, current.JobType, nextFireTime)

	force := targetState != model.StateBlocked
	if err := e.Delegate.StoreTriggerState(ctx, current.Key(), targetState, storedNext, force, current.Version); err != nil {
		return nil, errors.Wrap(err, "trigger fired: store post-fire state")
	}

	if targetState == model.StateBlocked {
		groupMembers := groupSiblingTypes(e, current.JobType)
		if _, err := e.Delegate.SweepSiblings(ctx, current.JobKey(), groupMembers, blockTransitions); err != nil {
			return nil, errors.Wrap(err, "trigger fired: sweep siblings to blocked")
		}
	}

	startTime := time.Now()
	e.Exec.Add(model.ExecutingEntry{Key: current.JobKey(), Detail: *detail, StartTime: startTime})

	if e.Publisher != nil {
		e.Publisher.PublishExecuting(ctx)
	}

	return &model.FiredTrigger{
		FireInstanceID: current.FireInstance,
		SchedulerInst:  e.SchedulerInstance,
		State:          model.StateExecuting,
		TriggerGroup:   current.Group,
		TriggerName:    current.Name,
		JobGroup:       current.JobGroup,
		JobName:        current.JobName,
		StartTime:      startTime,
	}, nil
}

// TriggeredJobComplete implements the completion path. base is a hook for
// the underlying non-managed transactional store's own completion logic
// (misfire policy, non-repeating trigger deletion), invoked before this
// override's concurrency bookkeeping.
func (e *Engine) TriggeredJobComplete(ctx context.Context, t model.Trigger, jobType string, base func(ctx context.Context) error, wake signaler.Signaler) error {
	ctx, span := tracer.Start(ctx, "engine.TriggeredJobComplete")
	defer span.End()

	if base != nil {
		if err := base(ctx); err != nil {
			return errors.Wrap(err, "triggered job complete: base")
		}
	}

	e.Exec.Remove(t.JobKey())

	if err := e.Delegate.DeleteFiredTrigger(ctx, t.FireInstance); err != nil {
		return errors.Wrap(err, "triggered job complete: delete fired trigger")
	}

	_, hasRule := e.Catalog.Rule(jobType)
	if hasRule {
		groupMembers := groupSiblingTypes(e, jobType)
		if _, err := e.Delegate.SweepSiblings(ctx, t.JobKey(), groupMembers, unblockTransitions); err != nil {
			return errors.Wrap(err, "triggered job complete: sweep siblings to waiting")
		}
	}

	if e.Publisher != nil {
		e.Publisher.PublishCompleted(ctx)
	}

	waiting, err := e.Delegate.SelectTotalWaitingTriggerCount(ctx, e.Filters.ExcludedTypes())
	if err != nil {
		logging.Warn(ctx, "triggered job complete: failed to check remaining work")
		return nil
	}
	if waiting > 0 {
		signaler.WakeNow(wake)
	}
	return nil
}

// decidePostFireState picks the trigger's state after a fire: COMPLETE if
// there is no next fire time, WAITING if the job type is still allowed to
// run again, BLOCKED otherwise. The source re-runs JobAllowed in a loop
// over the executing map, reusing the same fresh localCounts each
// iteration; that loop adds nothing once the map has already been
// inspected once, so this runs the check exactly once per fire.
func decidePostFireState(e *Engine, jobType string, nextFireTime *time.Time) (model.TriggerState, *time.Time) {
	if nextFireTime == nil {
		return model.StateComplete, nil
	}

	desc, resolveErr := e.Types.Resolve(jobType)
	stillAllowed := resolveErr == nil && JobAllowed(desc, e.Catalog, e.Exec, newLocalCounts())
	if stillAllowed {
		return model.StateWaiting, nextFireTime
	}
	return model.StateBlocked, nextFireTime
}

func groupSiblingTypes(e *Engine, jobType string) []string {
	group, ok := e.Catalog.Group(jobType)
	if !ok {
		return nil
	}
	return e.Catalog.GroupMembers(group)
}

// computeNextFireTime is the trigger's own triggered(calendar) computation
// in the base store; the core only needs its outcome. Callers supply the
// trigger's already-persisted schedule via NextFireTime as a placeholder
// until the base's calendar-aware recompute runs — collaborators outside
// this package own the actual cron/calendar math.
func computeNextFireTime(t *model.Trigger) *time.Time {
	if t.NextFireTime.IsZero() {
		return nil
	}
	next := t.NextFireTime
	return &next
}
