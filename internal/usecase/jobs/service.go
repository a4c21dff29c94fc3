package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"airwatch/internal/bootstrap/logging"
	"airwatch/internal/domain/aq"
	"airwatch/internal/errs"
	"airwatch/internal/infrastructure/events"
	"airwatch/internal/ports"
)

var ErrJobTypeDisabled = errors.New("job type is disabled")

// Service manages the analysis job lifecycle: submit, inspect, cancel,
// and claim for execution. The publisher is optional; nil disables events.
type Service struct {
	jobs      ports.JobRepository
	uow       ports.UnitOfWork
	defs      Definitions
	publisher ports.EventPublisher
}

func NewService(
	jobs ports.JobRepository,
	uow ports.UnitOfWork,
	defs Definitions,
	publisher ports.EventPublisher,
) *Service {
	return &Service{
		jobs:      jobs,
		uow:       uow,
		defs:      defs,
		publisher: publisher,
	}
}

type SubmitInput struct {
	JobType    string
	Parameters aq.JobParameters
}

// Submit validates the request, assigns a job id, and persists the job as
// pending. Disabled job types are rejected before they reach storage.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (ports.Job, error) {
	if ctx == nil {
		return ports.Job{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ports.Job{}, errs.Wrap(err, "check context")
	}

	jobType, err := aq.NormalizeJobType(input.JobType)
	if err != nil {
		return ports.Job{}, err
	}
	settings, ok := s.defs.Settings(jobType)
	if !ok || !settings.Enabled {
		return ports.Job{}, fmt.Errorf("%w: %s", ErrJobTypeDisabled, jobType)
	}

	encoded, err := input.Parameters.Encode()
	if err != nil {
		return ports.Job{}, err
	}
	if _, err := aq.ParseJobParameters(encoded); err != nil {
		return ports.Job{}, err
	}

	job, err := s.jobs.Create(ctx, ports.JobCreate{
		JobID:      uuid.NewString(),
		JobType:    jobType,
		Parameters: encoded,
	})
	if err != nil {
		return ports.Job{}, err
	}

	s.publishBestEffort(ctx, events.SubjectJobSubmitted, jobEvent(job))
	return job, nil
}

func (s *Service) Get(ctx context.Context, jobID string) (ports.Job, error) {
	if ctx == nil {
		return ports.Job{}, errors.New("context is required")
	}
	return s.jobs.GetByJobID(ctx, jobID)
}

func (s *Service) List(ctx context.Context, filter ports.JobFilter) ([]ports.Job, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if filter.Status != "" {
		status, err := aq.NormalizeJobStatus(filter.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = status
	}
	if filter.JobType != "" {
		jobType, err := aq.NormalizeJobType(filter.JobType)
		if err != nil {
			return nil, err
		}
		filter.JobType = jobType
	}
	return s.jobs.List(ctx, filter)
}

// Cancel fails a job that has not started yet. The pending precondition sits
// in the UPDATE's WHERE clause, so a job claimed between the caller's read
// and the cancel keeps running and the caller sees a conflict.
func (s *Service) Cancel(ctx context.Context, jobID string) (ports.Job, error) {
	if ctx == nil {
		return ports.Job{}, errors.New("context is required")
	}

	if err := s.jobs.CancelPending(ctx, jobID, "cancelled before execution", time.Now().UTC()); err != nil {
		return ports.Job{}, err
	}

	cancelled, err := s.jobs.GetByJobID(ctx, jobID)
	if err != nil {
		return ports.Job{}, err
	}
	s.publishBestEffort(ctx, events.SubjectJobFailed, jobEvent(cancelled))
	return cancelled, nil
}

// ClaimNext moves the oldest pending job to running inside one transaction.
// Two concurrent claimers racing for the same job resolve through the
// guarded update: the loser sees a conflict and reports no claim.
func (s *Service) ClaimNext(ctx context.Context) (ports.Job, bool, error) {
	if ctx == nil {
		return ports.Job{}, false, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ports.Job{}, false, errs.Wrap(err, "check context")
	}

	var claimed ports.Job
	var found bool
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		job, ok, err := s.jobs.OldestPending(txCtx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := s.jobs.MarkRunning(txCtx, job.JobID); err != nil {
			return err
		}
		job.Status = aq.JobStatusRunning
		claimed = job
		found = true
		return nil
	})
	if err != nil {
		if errors.Is(err, ports.ErrJobStatusConflict) {
			return ports.Job{}, false, nil
		}
		return ports.Job{}, false, err
	}
	if !found {
		return ports.Job{}, false, nil
	}

	s.publishBestEffort(ctx, events.SubjectJobRunning, jobEvent(claimed))
	return claimed, true, nil
}

func (s *Service) markCompleted(ctx context.Context, job ports.Job, resultPath string) error {
	if err := s.jobs.MarkCompleted(ctx, job.JobID, resultPath, time.Now().UTC()); err != nil {
		return err
	}
	job.Status = aq.JobStatusCompleted
	job.ResultPath = &resultPath
	s.publishBestEffort(ctx, events.SubjectJobCompleted, jobEvent(job))
	return nil
}

func (s *Service) markFailed(ctx context.Context, job ports.Job, reason string) error {
	if err := s.jobs.MarkFailed(ctx, job.JobID, reason, time.Now().UTC()); err != nil {
		return err
	}
	job.Status = aq.JobStatusFailed
	job.Error = &reason
	s.publishBestEffort(ctx, events.SubjectJobFailed, jobEvent(job))
	return nil
}

func (s *Service) publishBestEffort(ctx context.Context, subject string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, subject, payload); err != nil {
		logging.Warn(ctx, "publish job event failed",
			slog.String("subject", subject),
			slog.Any("err", errs.Loggable(err)),
		)
	}
}

func jobEvent(job ports.Job) map[string]any {
	event := map[string]any{
		"job_id":   job.JobID,
		"job_type": job.JobType,
		"status":   job.Status,
	}
	if job.ResultPath != nil {
		event["result_path"] = *job.ResultPath
	}
	if job.Error != nil {
		event["error"] = *job.Error
	}
	return event
}
