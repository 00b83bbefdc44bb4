package engine

import (
	"context"
	"time"

	"github.com/cronforge/jobstore/internal/model"
)

// stubDelegate is a hand-wired store.Delegate double. Each test supplies
// only the closures its path exercises; an unset closure panics if called,
// so an unexpected extra query fails the test loudly instead of silently
// returning a zero value.
type stubDelegate struct {
	selectTriggersToAcquire func(ctx context.Context, noLaterThan time.Time, maxCount int, excluded map[string]struct{}, limits map[string]int) ([]model.Trigger, error)
	selectTrigger           func(ctx context.Context, key model.JobKey) (*model.Trigger, error)
	selectJobDetail         func(ctx context.Context, key model.JobKey) (*model.JobDetail, error)
	acquireTrigger          func(ctx context.Context, key model.JobKey, fenceFireTime time.Time, fireInstanceID string) (bool, error)
	insertFiredTrigger      func(ctx context.Context, ft model.FiredTrigger) error
	updateFiredTriggerState func(ctx context.Context, fireInstanceID string, state model.TriggerState) error
	deleteFiredTrigger      func(ctx context.Context, fireInstanceID string) error
	activeFiredTriggers     func(ctx context.Context, schedulerInstance string) ([]model.FiredTrigger, error)
	storeTriggerState       func(ctx context.Context, key model.JobKey, state model.TriggerState, nextFireTime *time.Time, force bool, expectVersion int64) error
	sweepSiblings           func(ctx context.Context, jobKey model.JobKey, typeNames []string, transitions map[model.TriggerState]model.TriggerState) (int64, error)
	selectWaitingTriggerCount      func(ctx context.Context, excluded map[string]struct{}) (int64, error)
	selectBlockedTriggerCount      func(ctx context.Context, excluded map[string]struct{}) (int64, error)
	selectTotalWaitingTriggerCount func(ctx context.Context, excluded map[string]struct{}) (int64, error)
	selectJobTypeCounts            func(ctx context.Context, excluded map[string]struct{}) (map[string]int64, error)
	selectJobs                     func(ctx context.Context, keys []model.JobKey) ([]model.JobDetail, error)
}

func (s *stubDelegate) SelectTriggersToAcquire(ctx context.Context, noLaterThan time.Time, maxCount int, excluded map[string]struct{}, limits map[string]int) ([]model.Trigger, error) {
	return s.selectTriggersToAcquire(ctx, noLaterThan, maxCount, excluded, limits)
}

func (s *stubDelegate) SelectTrigger(ctx context.Context, key model.JobKey) (*model.Trigger, error) {
	return s.selectTrigger(ctx, key)
}

func (s *stubDelegate) SelectJobDetail(ctx context.Context, key model.JobKey) (*model.JobDetail, error) {
	return s.selectJobDetail(ctx, key)
}

func (s *stubDelegate) AcquireTrigger(ctx context.Context, key model.JobKey, fenceFireTime time.Time, fireInstanceID string) (bool, error) {
	return s.acquireTrigger(ctx, key, fenceFireTime, fireInstanceID)
}

func (s *stubDelegate) InsertFiredTrigger(ctx context.Context, ft model.FiredTrigger) error {
	return s.insertFiredTrigger(ctx, ft)
}

func (s *stubDelegate) UpdateFiredTriggerState(ctx context.Context, fireInstanceID string, state model.TriggerState) error {
	return s.updateFiredTriggerState(ctx, fireInstanceID, state)
}

func (s *stubDelegate) DeleteFiredTrigger(ctx context.Context, fireInstanceID string) error {
	return s.deleteFiredTrigger(ctx, fireInstanceID)
}

func (s *stubDelegate) ActiveFiredTriggers(ctx context.Context, schedulerInstance string) ([]model.FiredTrigger, error) {
	return s.activeFiredTriggers(ctx, schedulerInstance)
}

func (s *stubDelegate) StoreTriggerState(ctx context.Context, key model.JobKey, state model.TriggerState, nextFireTime *time.Time, force bool, expectVersion int64) error {
	return s.storeTriggerState(ctx, key, state, nextFireTime, force, expectVersion)
}

func (s *stubDelegate) SweepSiblings(ctx context.Context, jobKey model.JobKey, typeNames []string, transitions map[model.TriggerState]model.TriggerState) (int64, error) {
	return s.sweepSiblings(ctx, jobKey, typeNames, transitions)
}

func (s *stubDelegate) SelectWaitingTriggerCount(ctx context.Context, excluded map[string]struct{}) (int64, error) {
	return s.selectWaitingTriggerCount(ctx, excluded)
}

func (s *stubDelegate) SelectBlockedTriggerCount(ctx context.Context, excluded map[string]struct{}) (int64, error) {
	return s.selectBlockedTriggerCount(ctx, excluded)
}

func (s *stubDelegate) SelectTotalWaitingTriggerCount(ctx context.Context, excluded map[string]struct{}) (int64, error) {
	return s.selectTotalWaitingTriggerCount(ctx, excluded)
}

func (s *stubDelegate) SelectJobTypeCounts(ctx context.Context, excluded map[string]struct{}) (map[string]int64, error) {
	return s.selectJobTypeCounts(ctx, excluded)
}

func (s *stubDelegate) SelectJobs(ctx context.Context, keys []model.JobKey) ([]model.JobDetail, error) {
	return s.selectJobs(ctx, keys)
}
