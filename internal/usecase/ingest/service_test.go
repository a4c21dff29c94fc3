package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"airwatch/internal/domain/aq"
	"airwatch/internal/infrastructure/cache"
	"airwatch/internal/infrastructure/persistence/sqlite/model"
	"airwatch/internal/infrastructure/persistence/sqlite/repository"
	"airwatch/internal/ports"
)

type fakeMirror struct {
	mu       sync.Mutex
	mirrored int
	fail     bool
}

func (f *fakeMirror) Mirror(_ context.Context, readings []aq.Reading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("mirror down")
	}
	f.mirrored += len(readings)
	return nil
}

type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (f *fakePublisher) Publish(_ context.Context, subject string, _ any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subjects = append(f.subjects, subject)
	return nil
}

func (f *fakePublisher) Close() {}

func setupService(t *testing.T) (*Service, *fakeMirror, *fakePublisher) {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "ingest.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(&model.SensorReading{}, &model.SatelliteGranule{}, &model.CacheKV{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	mirror := &fakeMirror{}
	publisher := &fakePublisher{}
	svc := NewService(
		repository.NewReadingRepository(db),
		repository.NewGranuleRepository(db),
		cache.NewSQLiteCache(db),
		mirror,
		publisher,
	)
	return svc, mirror, publisher
}

func sampleReadings() []aq.Reading {
	pm25a, pm25b := 12.0, 35.0
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return []aq.Reading{
		{SensorID: "pa-1", Latitude: 52.5, Longitude: 13.4, MeasuredAt: base, PM25: &pm25a, Source: "PurpleAir"},
		{SensorID: "pa-1", Latitude: 52.5, Longitude: 13.4, MeasuredAt: base.Add(time.Hour), PM25: &pm25b, Source: aq.SourcePurpleAir},
	}
}

func TestAddReadingsPersistsMirrorsAndPublishes(t *testing.T) {
	svc, mirror, publisher := setupService(t)
	ctx := context.Background()

	count, err := svc.AddReadings(ctx, sampleReadings())
	if err != nil {
		t.Fatalf("AddReadings() error = %v", err)
	}
	if count != 2 {
		t.Fatalf("AddReadings() count = %d", count)
	}
	if mirror.mirrored != 2 {
		t.Fatalf("mirrored = %d, want 2", mirror.mirrored)
	}
	if len(publisher.subjects) != 1 {
		t.Fatalf("published subjects = %v", publisher.subjects)
	}

	items, err := svc.Query(ctx, ports.ReadingFilter{SensorIDs: []string{"pa-1"}})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Query() len = %d", len(items))
	}
	// Sources are normalized before persistence.
	for _, item := range items {
		if item.Source != aq.SourcePurpleAir {
			t.Fatalf("Query() source = %q", item.Source)
		}
	}
}

func TestAddReadingsRejectsWholeBatch(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	readings := sampleReadings()
	readings[1].Latitude = 95
	if _, err := svc.AddReadings(ctx, readings); !errors.Is(err, aq.ErrInvalidCoordinates) {
		t.Fatalf("AddReadings() error = %v, want ErrInvalidCoordinates", err)
	}

	items, err := svc.Query(ctx, ports.ReadingFilter{})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("Query() len = %d, want 0 after rejected batch", len(items))
	}
}

func TestAddReadingsSurvivesMirrorFailure(t *testing.T) {
	svc, mirror, _ := setupService(t)
	mirror.fail = true

	count, err := svc.AddReadings(context.Background(), sampleReadings())
	if err != nil {
		t.Fatalf("AddReadings() error = %v", err)
	}
	if count != 2 {
		t.Fatalf("AddReadings() count = %d", count)
	}
}

func TestLatestUsesWarmCache(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	if _, err := svc.AddReadings(ctx, sampleReadings()); err != nil {
		t.Fatalf("AddReadings() error = %v", err)
	}

	latest, err := svc.Latest(ctx, "pa-1")
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest.PM25 == nil || *latest.PM25 != 35 {
		t.Fatalf("Latest() pm25 = %v, want 35", latest.PM25)
	}

	if _, err := svc.Latest(ctx, "missing"); !errors.Is(err, ports.ErrReadingNotFound) {
		t.Fatalf("Latest(missing) error = %v", err)
	}
}

func TestLatestSurvivesBackfillBatch(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	if _, err := svc.AddReadings(ctx, sampleReadings()); err != nil {
		t.Fatalf("AddReadings() error = %v", err)
	}

	// Backfill older than the stored latest must not shadow it in the cache.
	pm25 := 5.0
	backfill := []aq.Reading{
		{SensorID: "pa-1", Latitude: 52.5, Longitude: 13.4, MeasuredAt: time.Date(2026, 2, 28, 9, 0, 0, 0, time.UTC), PM25: &pm25, Source: aq.SourcePurpleAir},
	}
	if _, err := svc.AddReadings(ctx, backfill); err != nil {
		t.Fatalf("AddReadings(backfill) error = %v", err)
	}

	latest, err := svc.Latest(ctx, "pa-1")
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest.PM25 == nil || *latest.PM25 != 35 {
		t.Fatalf("Latest() pm25 = %v, want 35", latest.PM25)
	}
	if latest.ID == 0 {
		t.Fatalf("Latest() id = 0, want stored row id")
	}
	if !latest.MeasuredAt.Equal(time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)) {
		t.Fatalf("Latest() measured_at = %v", latest.MeasuredAt)
	}
}

func TestRegisterGranuleAndProcessedFlow(t *testing.T) {
	svc, _, publisher := setupService(t)
	ctx := context.Background()

	granule := aq.Granule{
		ProductID:  "MOD04_L2",
		GranuleID:  "G-ingest",
		AcquiredAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Bounds:     aq.BoundingBox{MinLon: 10, MinLat: 50, MaxLon: 15, MaxLat: 55},
	}

	stored, err := svc.RegisterGranule(ctx, granule)
	if err != nil {
		t.Fatalf("RegisterGranule() error = %v", err)
	}
	if stored.Processed {
		t.Fatalf("RegisterGranule() processed = true")
	}
	if len(publisher.subjects) != 1 {
		t.Fatalf("published subjects = %v", publisher.subjects)
	}

	if _, err := svc.RegisterGranule(ctx, granule); !errors.Is(err, ports.ErrDuplicateGranule) {
		t.Fatalf("RegisterGranule(duplicate) error = %v", err)
	}

	if err := svc.MarkGranuleProcessed(ctx, "G-ingest"); err != nil {
		t.Fatalf("MarkGranuleProcessed() error = %v", err)
	}
	unprocessed := false
	remaining, err := svc.ListGranules(ctx, ports.GranuleFilter{Processed: &unprocessed})
	if err != nil {
		t.Fatalf("ListGranules() error = %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("ListGranules(unprocessed) len = %d", len(remaining))
	}
}

func TestIngestFileForcesUploadSource(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	dir := t.TempDir()
	path := filepath.Join(dir, "batch.json")
	payload := `[{"sensor_id":"up-1","latitude":52.5,"longitude":13.4,"measured_at":"2026-03-01T10:00:00Z","pm25":9.5,"source":"purpleair"}]`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	count, err := svc.IngestFile(ctx, path)
	if err != nil {
		t.Fatalf("IngestFile() error = %v", err)
	}
	if count != 1 {
		t.Fatalf("IngestFile() count = %d", count)
	}

	items, err := svc.Query(ctx, ports.ReadingFilter{Sources: []string{aq.SourceUpload}})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(items) != 1 || items[0].SensorID != "up-1" {
		t.Fatalf("Query(upload) = %+v", items)
	}
}
