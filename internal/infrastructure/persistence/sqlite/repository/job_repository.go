package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"airwatch/internal/domain/aq"
	"airwatch/internal/errs"
	"airwatch/internal/infrastructure/persistence/sqlite/model"
	"airwatch/internal/ports"
)

type JobRepository struct {
	db *gorm.DB
}

var _ ports.JobRepository = (*JobRepository)(nil)

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Create(ctx context.Context, input ports.JobCreate) (ports.Job, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Job{}, err
	}

	row := model.AnalysisJob{
		JobID:      input.JobID,
		JobType:    input.JobType,
		Status:     aq.JobStatusPending,
		Parameters: input.Parameters,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return ports.Job{}, ports.ErrDuplicateJobID
		}
		return ports.Job{}, errs.Wrap(err, "insert analysis job")
	}
	return mapJob(row), nil
}

func (r *JobRepository) GetByJobID(ctx context.Context, jobID string) (ports.Job, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Job{}, err
	}

	var row model.AnalysisJob
	if err := db.Where("job_id = ?", jobID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Job{}, ports.ErrJobNotFound
		}
		return ports.Job{}, errs.Wrap(err, "query analysis job")
	}
	return mapJob(row), nil
}

func (r *JobRepository) List(ctx context.Context, filter ports.JobFilter) ([]ports.Job, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.AnalysisJob{}).Order("id desc")
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.JobType != "" {
		query = query.Where("job_type = ?", filter.JobType)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []model.AnalysisJob
	if err := query.Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query analysis jobs")
	}

	items := make([]ports.Job, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapJob(row))
	}
	return items, nil
}

func (r *JobRepository) OldestPending(ctx context.Context) (ports.Job, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Job{}, false, err
	}

	var row model.AnalysisJob
	if err := db.
		Where("status = ?", aq.JobStatusPending).
		Order("id asc").
		Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Job{}, false, nil
		}
		return ports.Job{}, false, errs.Wrap(err, "query oldest pending job")
	}
	return mapJob(row), true, nil
}

// MarkRunning applies pending→running with the precondition in the WHERE
// clause, so a concurrent claimer loses with ErrJobStatusConflict instead of
// double-claiming.
func (r *JobRepository) MarkRunning(ctx context.Context, jobID string) error {
	return r.guardedUpdate(ctx, jobID, aq.JobStatusPending, map[string]any{
		"status": aq.JobStatusRunning,
	})
}

func (r *JobRepository) MarkCompleted(ctx context.Context, jobID string, resultPath string, completedAt time.Time) error {
	return r.guardedUpdate(ctx, jobID, aq.JobStatusRunning, map[string]any{
		"status":       aq.JobStatusCompleted,
		"result_path":  resultPath,
		"completed_at": completedAt.UTC(),
	})
}

func (r *JobRepository) MarkFailed(ctx context.Context, jobID string, reason string, completedAt time.Time) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	// Both pending (submit-side failures) and running (execution failure)
	// may fail; cancellation goes through CancelPending instead.
	result := db.Model(&model.AnalysisJob{}).
		Where("job_id = ? AND status IN ?", jobID, []string{aq.JobStatusPending, aq.JobStatusRunning}).
		Updates(map[string]any{
			"status":       aq.JobStatusFailed,
			"error":        reason,
			"completed_at": completedAt.UTC(),
		})
	if result.Error != nil {
		return errs.Wrap(result.Error, "mark job failed")
	}
	if result.RowsAffected == 0 {
		return r.conflictOrNotFound(ctx, jobID)
	}
	return nil
}

// CancelPending fails a job only while it is still pending. A job claimed by
// a worker in the meantime keeps running and the caller sees a conflict.
func (r *JobRepository) CancelPending(ctx context.Context, jobID string, reason string, completedAt time.Time) error {
	return r.guardedUpdate(ctx, jobID, aq.JobStatusPending, map[string]any{
		"status":       aq.JobStatusFailed,
		"error":        reason,
		"completed_at": completedAt.UTC(),
	})
}

func (r *JobRepository) guardedUpdate(ctx context.Context, jobID string, fromStatus string, updates map[string]any) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	result := db.Model(&model.AnalysisJob{}).
		Where("job_id = ? AND status = ?", jobID, fromStatus).
		Updates(updates)
	if result.Error != nil {
		return errs.Wrap(result.Error, "update job status")
	}
	if result.RowsAffected == 0 {
		return r.conflictOrNotFound(ctx, jobID)
	}
	return nil
}

func (r *JobRepository) conflictOrNotFound(ctx context.Context, jobID string) error {
	if _, err := r.GetByJobID(ctx, jobID); err != nil {
		return err
	}
	return ports.ErrJobStatusConflict
}

func mapJob(row model.AnalysisJob) ports.Job {
	return ports.Job{
		ID:          row.ID,
		JobID:       row.JobID,
		JobType:     row.JobType,
		Status:      row.Status,
		Parameters:  row.Parameters,
		ResultPath:  row.ResultPath,
		Error:       row.Error,
		CreatedAt:   row.CreatedAt,
		CompletedAt: row.CompletedAt,
	}
}
