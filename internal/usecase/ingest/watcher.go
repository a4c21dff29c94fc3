package ingest

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"airwatch/internal/bootstrap/logging"
	"airwatch/internal/errs"
)

const (
	suffixDone = ".done"
	suffixErr  = ".err"

	// Writers are given a moment to finish before the file is consumed.
	settleDelay = 500 * time.Millisecond
)

// Watcher ingests readings files dropped into the uploads directory. A
// consumed file is renamed with a .done suffix, a rejected one with .err.
type Watcher struct {
	svc    *Service
	dir    string
	settle time.Duration
}

func NewWatcher(svc *Service, dir string) *Watcher {
	return &Watcher{
		svc:    svc,
		dir:    dir,
		settle: settleDelay,
	}
}

// Run watches the uploads directory until the context is canceled. Files
// already present at startup are ingested first.
func (w *Watcher) Run(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "ingest.watcher"),
		slog.String("dir", w.dir),
	)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errs.Wrap(err, "create fsnotify watcher")
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return errs.Wrapf(err, "watch uploads dir %q", w.dir)
	}

	w.sweepExisting(logCtx)
	logging.Info(logCtx, "upload watcher started")

	for {
		select {
		case <-ctx.Done():
			logging.Info(logCtx, "upload watcher stopping")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("fsnotify events channel closed")
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !isIngestable(event.Name) {
				continue
			}

			// Give the writer time to finish before consuming.
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(w.settle):
			}
			w.ingestOne(logCtx, event.Name)
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return errors.New("fsnotify errors channel closed")
			}
			logging.Warn(logCtx, "watcher error", slog.Any("err", errs.Loggable(watchErr)))
		}
	}
}

func (w *Watcher) sweepExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		logging.Warn(ctx, "sweep uploads dir failed", slog.Any("err", errs.Loggable(err)))
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		if isIngestable(path) {
			w.ingestOne(ctx, path)
		}
	}
}

func (w *Watcher) ingestOne(ctx context.Context, path string) {
	if _, err := os.Stat(path); err != nil {
		// Already consumed by an earlier event for the same file.
		return
	}

	logCtx := logging.WithAttrs(ctx, slog.String("file", filepath.Base(path)))

	count, err := w.svc.IngestFile(ctx, path)
	if err != nil {
		// A shutdown mid-ingest is not a bad file; leave it for the next run.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			logging.Info(logCtx, "upload deferred, shutting down")
			return
		}
		logging.Warn(logCtx, "upload rejected", slog.Any("err", errs.Loggable(err)))
		w.rename(logCtx, path, suffixErr)
		return
	}

	logging.Info(logCtx, "upload ingested", slog.Int("readings", count))
	w.rename(logCtx, path, suffixDone)
}

func (w *Watcher) rename(ctx context.Context, path string, suffix string) {
	if err := os.Rename(path, path+suffix); err != nil {
		logging.Warn(ctx, "rename consumed upload failed", slog.Any("err", errs.Loggable(err)))
	}
}

func isIngestable(path string) bool {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, suffixDone) || strings.HasSuffix(lower, suffixErr) {
		return false
	}
	ext := filepath.Ext(lower)
	return ext == ".json" || ext == ".csv"
}
