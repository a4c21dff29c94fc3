package ports

import (
	"context"
	"errors"
	"time"
)

var (
	ErrJobNotFound       = errors.New("analysis job not found")
	ErrDuplicateJobID    = errors.New("job id already exists")
	ErrJobStatusConflict = errors.New("job status changed concurrently")
)

type Job struct {
	ID          uint64
	JobID       string
	JobType     string
	Status      string
	Parameters  string
	ResultPath  *string
	Error       *string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

type JobCreate struct {
	JobID      string
	JobType    string
	Parameters string
}

type JobFilter struct {
	Status  string
	JobType string
	Limit   int
}

// JobRepository persists analysis jobs. The guarded Mark* methods enforce the
// status precondition in SQL so two workers cannot apply the same transition;
// a lost race surfaces as ErrJobStatusConflict.
type JobRepository interface {
	Create(ctx context.Context, input JobCreate) (Job, error)
	GetByJobID(ctx context.Context, jobID string) (Job, error)
	List(ctx context.Context, filter JobFilter) ([]Job, error)
	OldestPending(ctx context.Context) (Job, bool, error)
	MarkRunning(ctx context.Context, jobID string) error
	MarkCompleted(ctx context.Context, jobID string, resultPath string, completedAt time.Time) error
	MarkFailed(ctx context.Context, jobID string, reason string, completedAt time.Time) error
	CancelPending(ctx context.Context, jobID string, reason string, completedAt time.Time) error
}
