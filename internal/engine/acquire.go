// Package engine implements the overrides of the base job-store's
// "acquire next trigger" and "trigger fired / job complete" operations
// that apply the concurrency catalog, filter bus, and executing table to
// every candidate.
package engine

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/cronforge/jobstore/internal/catalog"
	"github.com/cronforge/jobstore/internal/components/logging"
	"github.com/cronforge/jobstore/internal/concurrency"
	"github.com/cronforge/jobstore/internal/model"
	"github.com/cronforge/jobstore/internal/store"
	"github.com/cronforge/jobstore/internal/typeloader"
)

const maxAcquireRetries = 3

var tracer = otel.Tracer("jobstore/engine")

// Engine bundles every collaborator the acquisition and fire/complete
// paths need: the filtered delegate, catalog, filter bus, executing
// table, and type-load helper.
type Engine struct {
	Delegate store.Delegate
	Catalog  *catalog.Catalog
	Filters  *concurrency.FilterBus
	Exec     *concurrency.ExecutingTable
	Types    *typeloader.Loader

	SchedulerInstance string
	Publisher         Publisher
}

// Publisher is the minimal surface the engine needs from the queue-state
// publisher, kept as an interface here so the engine package does not
// import publisher directly (publisher depends on engine's output types
// instead).
type Publisher interface {
	PublishAdded(ctx context.Context)
	PublishExecuting(ctx context.Context)
	PublishCompleted(ctx context.Context)
}

// Acquire implements the "acquire next trigger" override.
func (e *Engine) Acquire(ctx context.Context, noLaterThan time.Time, maxCount int, timeWindow time.Duration) ([]model.Trigger, error) {
	ctx, span := tracer.Start(ctx, "engine.Acquire")
	defer span.End()

	snapshot := concurrency.BuildFilterSnapshot(e.Filters, e.Catalog, e.Exec)

	var acquired []model.Trigger
	var batchEnd time.Time

	for attempt := 0; attempt < maxAcquireRetries && len(acquired) < maxCount; attempt++ {
		candidates, err := e.Delegate.SelectTriggersToAcquire(ctx, noLaterThan.Add(timeWindow), maxCount, snapshot.Excluded, snapshot.Limits)
		if err != nil {
			return acquired, errors.Wrap(err, "acquire: select candidates")
		}
		if len(candidates) == 0 {
			continue
		}

		local := newLocalCounts()
		for _, cand := range candidates {
			if len(acquired) >= maxCount {
				break
			}

			current, err := e.Delegate.SelectTrigger(ctx, cand.Key())
			if err != nil {
				return acquired, errors.Wrap(err, "acquire: re-retrieve candidate")
			}
			if current == nil || current.State != model.StateWaiting {
				continue // raced away
			}

			desc, err := e.Types.Resolve(current.JobType)
			if err != nil {
				if storeErr := e.Delegate.StoreTriggerState(ctx, current.Key(), model.StateError, nil, true, current.Version); storeErr != nil {
					return acquired, errors.Wrap(storeErr, "acquire: mark unresolved type as error")
				}
				logging.Warn(ctx, "acquire: unresolved job type, trigger moved to ERROR")
				continue
			}

			if !JobAllowed(desc, e.Catalog, e.Exec, local) {
				continue
			}

			if !batchEnd.IsZero() && current.NextFireTime.After(batchEnd) {
				break
			}

			fireInstanceID := uuid.NewString()
			ok, err := e.Delegate.AcquireTrigger(ctx, current.Key(), current.NextFireTime, fireInstanceID)
			if err != nil {
				return acquired, errors.Wrap(err, "acquire: cas")
			}
			if !ok {
				continue // raced away between re-retrieve and CAS
			}

			ft := model.FiredTrigger{
				FireInstanceID: fireInstanceID,
				SchedulerInst:  e.SchedulerInstance,
				State:          model.StateAcquired,
				TriggerGroup:   current.Group,
				TriggerName:    current.Name,
				JobGroup:       current.JobGroup,
				JobName:        current.JobName,
				StartTime:      time.Now(),
			}
			if err := e.Delegate.InsertFiredTrigger(ctx, ft); err != nil {
				return acquired, errors.Wrap(err, "acquire: insert fired trigger")
			}

			current.State = model.StateAcquired
			current.FireInstance = fireInstanceID
			acquired = append(acquired, *current)

			if len(acquired) == 1 {
				base := noLaterThan
				if current.NextFireTime.After(base) {
					base = current.NextFireTime
				}
				batchEnd = base.Add(timeWindow)
			}
		}

		if len(acquired) > 0 {
			break
		}
	}

	if e.Publisher != nil && len(acquired) > 0 {
		e.Publisher.PublishAdded(ctx)
	}
	return acquired, nil
}
