package models

import "time"

// JobLock is a persisted mutual-exclusion record, one row per scheduled job.
// There is no explicit release: a lock is free again once LockedAt is older
// than the job's TTL, which makes recovery automatic after a crashed run.
type JobLock struct {
	Name     string     `gorm:"primaryKey;type:varchar(120)"`
	LockedAt *time.Time `gorm:"type:timestamptz"`
}

func (JobLock) TableName() string {
	return "job_locks"
}

// Free reports whether the lock can be acquired at now given ttl.
func (l *JobLock) Free(ttl time.Duration, now time.Time) bool {
	if l == nil || l.LockedAt == nil {
		return true
	}
	return l.LockedAt.Before(now.Add(-ttl))
}
