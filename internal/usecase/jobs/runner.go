package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"airwatch/internal/bootstrap/logging"
	"airwatch/internal/domain/aq"
	"airwatch/internal/errs"
	"airwatch/internal/ports"
)

// Runner polls for pending jobs and executes them. The object store is
// optional; when present, every result artifact is also uploaded.
type Runner struct {
	svc          *Service
	registry     *Registry
	resultsDir   string
	pollInterval time.Duration
	store        ports.ObjectStore
}

func NewRunner(
	svc *Service,
	registry *Registry,
	resultsDir string,
	pollInterval time.Duration,
	store ports.ObjectStore,
) *Runner {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &Runner{
		svc:          svc,
		registry:     registry,
		resultsDir:   resultsDir,
		pollInterval: pollInterval,
		store:        store,
	}
}

// Run drains pending jobs until the context is cancelled. An empty queue
// waits one poll interval; a failed job never stops the loop.
func (r *Runner) Run(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	logging.Info(ctx, "job runner started",
		slog.Duration("poll_interval", r.pollInterval),
		slog.String("results_dir", r.resultsDir),
	)

	for {
		if err := ctx.Err(); err != nil {
			logging.Info(ctx, "job runner stopped")
			return nil
		}

		job, found, err := r.svc.ClaimNext(ctx)
		if err != nil {
			logging.Error(ctx, "claim job failed", slog.Any("err", errs.Loggable(err)))
		} else if found {
			r.execute(ctx, job)
			continue
		}

		select {
		case <-ctx.Done():
			logging.Info(ctx, "job runner stopped")
			return nil
		case <-time.After(r.pollInterval):
		}
	}
}

// RunOnce claims and executes at most one pending job. Used by the CLI
// worker command and by tests.
func (r *Runner) RunOnce(ctx context.Context) (bool, error) {
	if ctx == nil {
		return false, errors.New("context is required")
	}

	job, found, err := r.svc.ClaimNext(ctx)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	r.execute(ctx, job)
	return true, nil
}

func (r *Runner) execute(ctx context.Context, job ports.Job) {
	jobCtx := logging.WithAttrs(ctx,
		slog.String("job_id", job.JobID),
		slog.String("job_type", job.JobType),
	)
	logging.Info(jobCtx, "job execution started")

	resultPath, err := r.runHandler(jobCtx, job)
	if err != nil {
		logging.Warn(jobCtx, "job execution failed", slog.Any("err", errs.Loggable(err)))
		if markErr := r.svc.markFailed(jobCtx, job, err.Error()); markErr != nil {
			logging.Error(jobCtx, "mark job failed failed", slog.Any("err", errs.Loggable(markErr)))
		}
		return
	}

	if err := r.svc.markCompleted(jobCtx, job, resultPath); err != nil {
		logging.Error(jobCtx, "mark job completed failed", slog.Any("err", errs.Loggable(err)))
		return
	}
	logging.Info(jobCtx, "job execution completed", slog.String("result_path", resultPath))
}

func (r *Runner) runHandler(ctx context.Context, job ports.Job) (string, error) {
	params, err := aq.ParseJobParameters(job.Parameters)
	if err != nil {
		return "", err
	}

	settings, ok := r.svc.defs.Settings(job.JobType)
	if !ok {
		return "", fmt.Errorf("no settings for job type %q", job.JobType)
	}
	handler, err := r.registry.Resolve(job.JobType)
	if err != nil {
		return "", err
	}

	runCtx, cancel := context.WithTimeout(ctx, settings.Timeout)
	defer cancel()

	result, err := handler.Handle(runCtx, params)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("handler timed out after %s", settings.Timeout)
		}
		return "", err
	}

	return r.writeResult(ctx, job, result, settings.ResultPrefix)
}

func (r *Runner) writeResult(ctx context.Context, job ports.Job, result any, keyPrefix string) (string, error) {
	raw, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", errs.Wrap(err, "encode job result")
	}

	if err := os.MkdirAll(r.resultsDir, 0o755); err != nil {
		return "", errs.Wrap(err, "create results dir")
	}
	resultPath := filepath.Join(r.resultsDir, job.JobID+".json")
	if err := os.WriteFile(resultPath, raw, 0o644); err != nil {
		return "", errs.Wrap(err, "write job result")
	}

	if r.store != nil {
		if keyPrefix == "" {
			keyPrefix = "results/"
		}
		key := keyPrefix + job.JobID + ".json"
		if err := r.store.Put(ctx, key, bytes.NewReader(raw), int64(len(raw)), "application/json"); err != nil {
			logging.Warn(ctx, "upload job result failed",
				slog.String("key", key),
				slog.Any("err", errs.Loggable(err)),
			)
		}
	}

	return resultPath, nil
}
