package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"airwatch/internal/domain/aq"
	"airwatch/internal/infrastructure/persistence/sqlite/repository"
	"airwatch/internal/ports"
)

func seedReadings(t *testing.T, readings *repository.ReadingRepository) {
	t.Helper()

	pm25a, pm25b, pm25c := 10.0, 30.0, 55.0
	base := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	batch := []aq.Reading{
		{SensorID: "pa-1", Latitude: 52.5, Longitude: 13.4, MeasuredAt: base, PM25: &pm25a, Source: aq.SourcePurpleAir},
		{SensorID: "pa-1", Latitude: 52.5, Longitude: 13.4, MeasuredAt: base.Add(time.Hour), PM25: &pm25b, Source: aq.SourcePurpleAir},
		{SensorID: "sc-2", Latitude: 48.1, Longitude: 11.6, MeasuredAt: base.Add(2 * time.Hour), PM25: &pm25c, Source: aq.SourceSensorCommunity},
	}
	if _, err := readings.InsertBatch(context.Background(), batch); err != nil {
		t.Fatalf("seed readings: %v", err)
	}
}

func TestRunOnceCompletesJobAndWritesResult(t *testing.T) {
	svc, db, publisher := setupService(t)
	readings := repository.NewReadingRepository(db)
	seedReadings(t, readings)

	ctx := context.Background()
	job, err := svc.Submit(ctx, SubmitInput{JobType: "hotspot", Parameters: sampleParameters()})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	resultsDir := filepath.Join(t.TempDir(), "results")
	runner := NewRunner(svc, DefaultRegistry(readings), resultsDir, time.Second, nil)

	processed, err := runner.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if !processed {
		t.Fatal("expected a job to be processed")
	}

	completed, err := svc.Get(ctx, job.JobID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if completed.Status != aq.JobStatusCompleted {
		t.Fatalf("status = %q, want completed (error: %v)", completed.Status, completed.Error)
	}
	if completed.ResultPath == nil {
		t.Fatal("expected a result path")
	}
	if completed.CompletedAt == nil {
		t.Fatal("expected completed_at to be set")
	}

	raw, err := os.ReadFile(*completed.ResultPath)
	if err != nil {
		t.Fatalf("read result: %v", err)
	}
	var report windowReport
	if err := json.Unmarshal(raw, &report); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if report.JobType != aq.JobTypeHotspot {
		t.Fatalf("report job type = %q, want hotspot", report.JobType)
	}
	if len(report.Sensors) != 2 {
		t.Fatalf("aggregated sensors = %d, want 2", len(report.Sensors))
	}

	subjects := publisher.subjects()
	if subjects[len(subjects)-1] != "airwatch.jobs.completed" {
		t.Fatalf("last subject = %q, want airwatch.jobs.completed", subjects[len(subjects)-1])
	}
}

func TestRunOnceMarksFailedOnHandlerError(t *testing.T) {
	svc, db, _ := setupService(t)
	readings := repository.NewReadingRepository(db)

	ctx := context.Background()
	job, err := svc.Submit(ctx, SubmitInput{JobType: "anomaly", Parameters: sampleParameters()})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	registry := DefaultRegistry(readings)
	registry.Register(aq.JobTypeAnomaly, HandlerFunc(func(context.Context, aq.JobParameters) (any, error) {
		return nil, errors.New("window too sparse")
	}))
	runner := NewRunner(svc, registry, t.TempDir(), time.Second, nil)

	if _, err := runner.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	failed, err := svc.Get(ctx, job.JobID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if failed.Status != aq.JobStatusFailed {
		t.Fatalf("status = %q, want failed", failed.Status)
	}
	if failed.Error == nil || *failed.Error != "window too sparse" {
		t.Fatalf("error = %v, want handler message", failed.Error)
	}
}

func TestRunOnceEmptyQueue(t *testing.T) {
	svc, db, _ := setupService(t)
	runner := NewRunner(svc, DefaultRegistry(repository.NewReadingRepository(db)), t.TempDir(), time.Second, nil)

	processed, err := runner.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if processed {
		t.Fatal("expected no work on empty queue")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	svc, db, _ := setupService(t)
	runner := NewRunner(svc, DefaultRegistry(repository.NewReadingRepository(db)), t.TempDir(), 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runner.Run(ctx)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop after cancel")
	}
}

func TestWindowAggregationHandlerRespectsSensorFilter(t *testing.T) {
	_, db, _ := setupService(t)
	readings := repository.NewReadingRepository(db)
	seedReadings(t, readings)

	handler := NewWindowAggregationHandler(aq.JobTypeTrend, readings)
	params := sampleParameters()
	params.SensorIDs = []string{"pa-1"}

	result, err := handler.Handle(context.Background(), params)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	report, ok := result.(windowReport)
	if !ok {
		t.Fatalf("result type = %T, want windowReport", result)
	}
	if len(report.Sensors) != 1 || report.Sensors[0].SensorID != "pa-1" {
		t.Fatalf("sensors = %+v, want only pa-1", report.Sensors)
	}
	if report.Sensors[0].Readings != 2 {
		t.Fatalf("readings = %d, want 2", report.Sensors[0].Readings)
	}
}

var _ ports.ObjectStore = (*fakeStore)(nil)

type fakeStore struct {
	keys []string
}

func (f *fakeStore) Put(_ context.Context, key string, _ io.Reader, _ int64, _ string) error {
	f.keys = append(f.keys, key)
	return nil
}

func (f *fakeStore) Get(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStore) List(context.Context, string) ([]string, error) {
	return nil, errors.New("not implemented")
}

func TestRunOnceUploadsResultWhenStoreConfigured(t *testing.T) {
	svc, db, _ := setupService(t)
	readings := repository.NewReadingRepository(db)
	seedReadings(t, readings)

	ctx := context.Background()
	job, err := svc.Submit(ctx, SubmitInput{JobType: "trend", Parameters: sampleParameters()})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	store := &fakeStore{}
	runner := NewRunner(svc, DefaultRegistry(readings), t.TempDir(), time.Second, store)
	if _, err := runner.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	want := "results/" + job.JobID + ".json"
	if len(store.keys) != 1 || store.keys[0] != want {
		t.Fatalf("uploaded keys = %v, want [%s]", store.keys, want)
	}
}
