package model

import "time"

// Trigger is a durable record describing when and for which job a fire
// should occur. Identified by (group, name).
type Trigger struct {
	Group         string       `gorm:"column:trigger_group;primaryKey"`
	Name          string       `gorm:"column:trigger_name;primaryKey"`
	JobGroup      string       `gorm:"column:job_group"`
	JobName       string       `gorm:"column:job_name"`
	JobType       string       `gorm:"column:job_type"`
	NextFireTime  time.Time    `gorm:"column:next_fire_time"`
	PrevFireTime  *time.Time   `gorm:"column:prev_fire_time"`
	State         TriggerState `gorm:"column:state"`
	FireInstance  string       `gorm:"column:fire_instance_id"`
	CalendarName  string       `gorm:"column:calendar_name"`
	Version       int64        `gorm:"column:version"`
}

func (Trigger) TableName() string { return "triggers" }

// JobKey is the (group, name) identity shared by a job detail and any
// trigger pointing at it.
type JobKey struct {
	Group string
	Name  string
}

func (k JobKey) String() string { return k.Group + "." + k.Name }

func (t Trigger) Key() JobKey { return JobKey{Group: t.Group, Name: t.Name} }
func (t Trigger) JobKey() JobKey { return JobKey{Group: t.JobGroup, Name: t.JobName} }

// JobDetail is owned by the base store; the core only reads it to resolve
// the job type and to display it in queue-state snapshots.
type JobDetail struct {
	Group             string            `gorm:"column:job_group;primaryKey"`
	Name              string            `gorm:"column:job_name;primaryKey"`
	JobType           string            `gorm:"column:job_type"`
	Data              map[string]string `gorm:"-"`
	Durable           bool              `gorm:"column:durable"`
	RequestsRecovery  bool              `gorm:"column:requests_recovery"`
}

func (JobDetail) TableName() string { return "job_details" }

func (j JobDetail) Key() JobKey { return JobKey{Group: j.Group, Name: j.Name} }

// FiredTrigger represents an in-flight firing, created at acquisition and
// deleted at completion.
type FiredTrigger struct {
	FireInstanceID string       `gorm:"column:fire_instance_id;primaryKey"`
	SchedulerInst  string       `gorm:"column:scheduler_instance"`
	State          TriggerState `gorm:"column:state"`
	TriggerGroup   string       `gorm:"column:trigger_group"`
	TriggerName    string       `gorm:"column:trigger_name"`
	JobGroup       string       `gorm:"column:job_group"`
	JobName        string       `gorm:"column:job_name"`
	StartTime      time.Time    `gorm:"column:start_time"`
}

func (FiredTrigger) TableName() string { return "fired_triggers" }

// ExecutingEntry is the value held in the in-memory executing table: a
// snapshot of the job detail plus the time it started executing.
type ExecutingEntry struct {
	Key       JobKey
	Detail    JobDetail
	StartTime time.Time
}
