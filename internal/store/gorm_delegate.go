package store

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cronforge/jobstore/internal/model"
	"github.com/cronforge/jobstore/internal/typeloader"
)

// GormDelegate is the Delegate implementation backing the default
// deployment, grounded on the optimistic-lock CAS pattern in task_dao.go
// (version-fenced UPDATE + RowsAffected check) and the conditional
// multi-state transitions in run_dao.go ("status IN (...)" guards).
type GormDelegate struct {
	db     *gorm.DB
	loader *typeloader.Loader
}

func NewGormDelegate(db *gorm.DB, loader *typeloader.Loader) *GormDelegate {
	return &GormDelegate{db: db, loader: loader}
}

func applyFilter(q *gorm.DB, excluded map[string]struct{}, limits map[string]int) *gorm.DB {
	if len(excluded) > 0 {
		types := make([]string, 0, len(excluded))
		for t := range excluded {
			types = append(types, t)
		}
		q = q.Where("job_type NOT IN ?", types)
	}
	return q
}

func (d *GormDelegate) SelectTriggersToAcquire(ctx context.Context, noLaterThan time.Time, maxCount int, excluded map[string]struct{}, limits map[string]int) ([]model.Trigger, error) {
	var rows []model.Trigger
	q := d.db.WithContext(ctx).
		Where("state = ?", model.StateWaiting).
		Where("next_fire_time <= ?", noLaterThan)
	q = applyFilter(q, excluded, limits)
	q = q.Order("next_fire_time ASC, trigger_group ASC, trigger_name ASC")
	if maxCount > 0 {
		// Over-fetch: per-type limits are enforced by the caller's
		// JobAllowed gate, not by SQL, since the DB does not track the
		// running local-batch count.
		q = q.Limit(maxCount * 4)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "select triggers to acquire")
	}
	return rows, nil
}

func (d *GormDelegate) SelectTrigger(ctx context.Context, key model.JobKey) (*model.Trigger, error) {
	var t model.Trigger
	err := d.db.WithContext(ctx).
		Where("trigger_group = ? AND trigger_name = ?", key.Group, key.Name).
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select trigger")
	}
	return &t, nil
}

func (d *GormDelegate) SelectJobDetail(ctx context.Context, key model.JobKey) (*model.JobDetail, error) {
	var j model.JobDetail
	err := d.db.WithContext(ctx).
		Where("job_group = ? AND job_name = ?", key.Group, key.Name).
		First(&j).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select job detail")
	}
	return &j, nil
}

// AcquireTrigger is the CAS at the heart of acquisition: WAITING ->
// ACQUIRED, fenced on the trigger's next-fire-time staying exactly what
// the caller last observed it to be. Mirrors task_dao.go's
// version-fenced UPDATE + RowsAffected==0 detection.
func (d *GormDelegate) AcquireTrigger(ctx context.Context, key model.JobKey, fenceFireTime time.Time, fireInstanceID string) (bool, error) {
	res := d.db.WithContext(ctx).Model(&model.Trigger{}).
		Where("trigger_group = ? AND trigger_name = ? AND state = ? AND next_fire_time = ?",
			key.Group, key.Name, model.StateWaiting, fenceFireTime).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Updates(map[string]interface{}{
			"state":            model.StateAcquired,
			"fire_instance_id": fireInstanceID,
			"version":          gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "acquire trigger cas")
	}
	return res.RowsAffected == 1, nil
}

func (d *GormDelegate) InsertFiredTrigger(ctx context.Context, ft model.FiredTrigger) error {
	return errors.Wrap(d.db.WithContext(ctx).Create(&ft).Error, "insert fired trigger")
}

func (d *GormDelegate) UpdateFiredTriggerState(ctx context.Context, fireInstanceID string, state model.TriggerState) error {
	return errors.Wrap(d.db.WithContext(ctx).Model(&model.FiredTrigger{}).
		Where("fire_instance_id = ?", fireInstanceID).
		Update("state", state).Error, "update fired trigger state")
}

func (d *GormDelegate) DeleteFiredTrigger(ctx context.Context, fireInstanceID string) error {
	return errors.Wrap(d.db.WithContext(ctx).
		Where("fire_instance_id = ?", fireInstanceID).
		Delete(&model.FiredTrigger{}).Error, "delete fired trigger")
}

func (d *GormDelegate) ActiveFiredTriggers(ctx context.Context, schedulerInstance string) ([]model.FiredTrigger, error) {
	var rows []model.FiredTrigger
	err := d.db.WithContext(ctx).
		Where("scheduler_instance = ?", schedulerInstance).
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "select active fired triggers")
	}
	return rows, nil
}

func (d *GormDelegate) StoreTriggerState(ctx context.Context, key model.JobKey, state model.TriggerState, nextFireTime *time.Time, force bool, expectVersion int64) error {
	updates := map[string]interface{}{
		"state":   state,
		"version": gorm.Expr("version + 1"),
	}
	if nextFireTime != nil {
		updates["next_fire_time"] = *nextFireTime
	}
	q := d.db.WithContext(ctx).Model(&model.Trigger{}).
		Where("trigger_group = ? AND trigger_name = ?", key.Group, key.Name)
	if !force {
		q = q.Where("version = ?", expectVersion)
	}
	res := q.Updates(updates)
	if res.Error != nil {
		return errors.Wrap(res.Error, "store trigger state")
	}
	if !force && res.RowsAffected == 0 {
		return fmt.Errorf("store trigger state: version conflict for %s", key)
	}
	return nil
}

// SweepSiblings transitions every trigger matching jobKey (when non-zero)
// or whose job type is in typeNames (when non-empty) through the given
// from->to state map, one state pair per query. Used both by the
// post-fire BLOCKED sweep and the post-complete WAITING/PAUSED sweep.
func (d *GormDelegate) SweepSiblings(ctx context.Context, jobKey model.JobKey, typeNames []string, transitions map[model.TriggerState]model.TriggerState) (int64, error) {
	var total int64
	for from, to := range transitions {
		q := d.db.WithContext(ctx).Model(&model.Trigger{}).Where("state = ?", from)
		q = scopeToSiblings(q, jobKey, typeNames)
		res := q.Updates(map[string]interface{}{
			"state":   to,
			"version": gorm.Expr("version + 1"),
		})
		if res.Error != nil {
			return total, errors.Wrap(res.Error, "sweep siblings")
		}
		total += res.RowsAffected
	}
	return total, nil
}

func scopeToSiblings(q *gorm.DB, jobKey model.JobKey, typeNames []string) *gorm.DB {
	hasKey := jobKey.Group != "" || jobKey.Name != ""
	switch {
	case hasKey && len(typeNames) > 0:
		return q.Where("((job_group = ? AND job_name = ?) OR job_type IN ?)", jobKey.Group, jobKey.Name, typeNames)
	case hasKey:
		return q.Where("job_group = ? AND job_name = ?", jobKey.Group, jobKey.Name)
	case len(typeNames) > 0:
		return q.Where("job_type IN ?", typeNames)
	default:
		return q
	}
}

func (d *GormDelegate) SelectWaitingTriggerCount(ctx context.Context, excluded map[string]struct{}) (int64, error) {
	return d.countByState(ctx, model.StateWaiting, excluded)
}

func (d *GormDelegate) SelectBlockedTriggerCount(ctx context.Context, excluded map[string]struct{}) (int64, error) {
	// Blocked counts are relative to each trigger's own type's current cap,
	// so resolve each distinct job type via the type-load helper before
	// deciding whether it still counts as excluded.
	var types []string
	if err := d.db.WithContext(ctx).Model(&model.Trigger{}).
		Where("state = ?", model.StateBlocked).
		Distinct().Pluck("job_type", &types).Error; err != nil {
		return 0, errors.Wrap(err, "select blocked job types")
	}

	countable := make([]string, 0, len(types))
	for _, t := range types {
		if _, err := d.loader.Resolve(t); err != nil {
			continue // unresolved type: caller's ERROR-state path handles it separately
		}
		if _, excludedType := excluded[t]; excludedType {
			continue
		}
		countable = append(countable, t)
	}
	if len(countable) == 0 {
		return 0, nil
	}
	var n int64
	err := d.db.WithContext(ctx).Model(&model.Trigger{}).
		Where("state = ? AND job_type IN ?", model.StateBlocked, countable).
		Count(&n).Error
	return n, errors.Wrap(err, "count blocked triggers")
}

func (d *GormDelegate) SelectTotalWaitingTriggerCount(ctx context.Context, excluded map[string]struct{}) (int64, error) {
	waiting, err := d.SelectWaitingTriggerCount(ctx, excluded)
	if err != nil {
		return 0, err
	}
	blocked, err := d.SelectBlockedTriggerCount(ctx, excluded)
	if err != nil {
		return 0, err
	}
	return waiting + blocked, nil
}

func (d *GormDelegate) countByState(ctx context.Context, state model.TriggerState, excluded map[string]struct{}) (int64, error) {
	q := d.db.WithContext(ctx).Model(&model.Trigger{}).Where("state = ?", state)
	q = applyFilter(q, excluded, nil)
	var n int64
	err := q.Count(&n).Error
	return n, errors.Wrap(err, "count triggers by state")
}

func (d *GormDelegate) SelectJobTypeCounts(ctx context.Context, excluded map[string]struct{}) (map[string]int64, error) {
	type row struct {
		JobType string
		Cnt     int64
	}
	var rows []row
	q := d.db.WithContext(ctx).Model(&model.Trigger{}).
		Select("job_type, COUNT(*) as cnt").
		Where("state IN ?", []model.TriggerState{model.StateWaiting, model.StateBlocked, model.StateExecuting})
	q = applyFilter(q, excluded, nil)
	if err := q.Group("job_type").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "select job type counts")
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.JobType] = r.Cnt
	}
	return out, nil
}

func (d *GormDelegate) SelectJobs(ctx context.Context, keys []model.JobKey) ([]model.JobDetail, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	groups := make([]string, len(keys))
	names := make([]string, len(keys))
	for i, k := range keys {
		groups[i] = k.Group
		names[i] = k.Name
	}
	var rows []model.JobDetail
	// job_group/job_name are independently IN-filtered (a superset of the
	// exact pair set); callers already hold the exact keys they asked for
	// and filter client-side when an exact pairing matters.
	err := d.db.WithContext(ctx).
		Where("job_group IN ? AND job_name IN ?", groups, names).
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "select jobs")
	}
	return rows, nil
}
