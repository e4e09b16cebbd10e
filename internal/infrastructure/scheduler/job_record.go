package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JobStatus represents the status of a scheduled job run
type JobStatus string

const (
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// JobRecord is one persisted run of a scheduled sweep, kept for operator
// visibility into what ran and when
type JobRecord struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	JobName     string     `gorm:"column:job_name;size:50;not null;index"`
	Status      JobStatus  `gorm:"column:status;size:20;not null"`
	Error       string     `gorm:"column:error;type:text"`
	StartedAt   time.Time  `gorm:"column:started_at;not null"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
}

// TableName returns the table name for GORM
func (JobRecord) TableName() string {
	return "scheduler_jobs"
}

// JobRecordRepository handles persistence of scheduler job records
type JobRecordRepository struct {
	db *gorm.DB
}

// NewJobRecordRepository creates a new JobRecordRepository
func NewJobRecordRepository(db *gorm.DB) *JobRecordRepository {
	return &JobRecordRepository{db: db}
}

// RecordStart records the start of a job run
func (r *JobRecordRepository) RecordStart(ctx context.Context, jobName string) (uuid.UUID, error) {
	now := time.Now()
	record := &JobRecord{
		ID:        uuid.New(),
		JobName:   jobName,
		Status:    JobStatusRunning,
		StartedAt: now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return uuid.Nil, err
	}
	return record.ID, nil
}

// RecordComplete records the completion of a job run
func (r *JobRecordRepository) RecordComplete(ctx context.Context, id uuid.UUID, runErr error) error {
	now := time.Now()
	status := JobStatusSuccess
	errMsg := ""
	if runErr != nil {
		status = JobStatusFailed
		errMsg = runErr.Error()
	}
	return r.db.WithContext(ctx).
		Model(&JobRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       status,
			"error":        errMsg,
			"completed_at": now,
			"updated_at":   now,
		}).Error
}

// LastRun returns the most recent record for a job
func (r *JobRecordRepository) LastRun(ctx context.Context, jobName string) (*JobRecord, error) {
	var record JobRecord
	if err := r.db.WithContext(ctx).
		Where("job_name = ?", jobName).
		Order("started_at DESC").
		First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// DeleteOlderThan prunes records older than the cutoff
func (r *JobRecordRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("started_at < ?", before).
		Delete(&JobRecord{})
	return result.RowsAffected, result.Error
}
