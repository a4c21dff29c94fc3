package model

import "time"

type AnalysisJob struct {
	ID          uint64     `gorm:"column:id;primaryKey;autoIncrement"`
	JobID       string     `gorm:"column:job_id;type:text;not null;uniqueIndex"`
	JobType     string     `gorm:"column:job_type;type:text;not null"`
	Status      string     `gorm:"column:status;type:text;not null;default:pending;index"`
	Parameters  string     `gorm:"column:parameters;type:text;not null"`
	ResultPath  *string    `gorm:"column:result_path;type:text"`
	Error       *string    `gorm:"column:error;type:text"`
	CreatedAt   time.Time  `gorm:"column:created_at;not null"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
}

func (AnalysisJob) TableName() string {
	return "analysis_jobs"
}
