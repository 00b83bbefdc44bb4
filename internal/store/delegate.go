// Package store implements the filtered persistence delegate: the base
// job-store queries extended to accept an excluded-types set and a
// per-type remaining-limit map, so only dispatchable work is ever
// returned to the engine.
package store

import (
	"context"
	"time"

	"github.com/cronforge/jobstore/internal/model"
)

// Delegate is the extended persistence interface the acquisition and
// fire/complete engines depend on. Implementations must honor the
// trigger-access lock semantics described in the concurrency model: all
// methods here run inside the caller's already-held lock and must not
// attempt to acquire it again.
type Delegate interface {
	// SelectTriggersToAcquire returns WAITING triggers due no later than
	// noLaterThan, excluding types in excluded, ordered by next-fire-time
	// ascending. maxCount bounds the batch the caller acquires; an
	// implementation may return more candidates than that. Per-type limits
	// are not enforced here: the caller's JobAllowed gate enforces them.
	SelectTriggersToAcquire(ctx context.Context, noLaterThan time.Time, maxCount int, excluded map[string]struct{}, limits map[string]int) ([]model.Trigger, error)

	SelectTrigger(ctx context.Context, key model.JobKey) (*model.Trigger, error)
	SelectJobDetail(ctx context.Context, key model.JobKey) (*model.JobDetail, error)

	// AcquireTrigger performs the CAS from WAITING to ACQUIRED, fenced on
	// the trigger still being WAITING with next-fire-time equal to
	// fenceFireTime. Returns false if
	// the row was not in the expected state (raced away).
	AcquireTrigger(ctx context.Context, key model.JobKey, fenceFireTime time.Time, fireInstanceID string) (bool, error)

	InsertFiredTrigger(ctx context.Context, ft model.FiredTrigger) error
	UpdateFiredTriggerState(ctx context.Context, fireInstanceID string, state model.TriggerState) error
	DeleteFiredTrigger(ctx context.Context, fireInstanceID string) error
	ActiveFiredTriggers(ctx context.Context, schedulerInstance string) ([]model.FiredTrigger, error)

	// StoreTriggerState writes a trigger's state. If force is false, the
	// write is conditioned on the trigger's version matching expectVersion
	// (used by the post-fire BLOCKED write, which must not clobber a
	// trigger that moved on its own).
	StoreTriggerState(ctx context.Context, key model.JobKey, state model.TriggerState, nextFireTime *time.Time, force bool, expectVersion int64) error

	// SweepSiblings transitions every trigger of the given job (same
	// group/name, i.e. trigger siblings pointing at the same job) or
	// group (same concurrency group, via typeNames) from one of the "from"
	// states to the corresponding "to" state: WAITING->BLOCKED,
	// ACQUIRED->BLOCKED, PAUSED->PAUSED_BLOCKED (or the reverse on
	// completion).
	SweepSiblings(ctx context.Context, jobKey model.JobKey, typeNames []string, transitions map[model.TriggerState]model.TriggerState) (int64, error)

	SelectWaitingTriggerCount(ctx context.Context, excluded map[string]struct{}) (int64, error)
	SelectBlockedTriggerCount(ctx context.Context, excluded map[string]struct{}) (int64, error)
	SelectTotalWaitingTriggerCount(ctx context.Context, excluded map[string]struct{}) (int64, error)
	SelectJobTypeCounts(ctx context.Context, excluded map[string]struct{}) (map[string]int64, error)

	SelectJobs(ctx context.Context, keys []model.JobKey) ([]model.JobDetail, error)
}
