package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"airwatch/internal/domain/aq"
	"airwatch/internal/ports"
)

func seedReadings(t *testing.T, repo *ReadingRepository) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	readings := []aq.Reading{
		{SensorID: "pa-1", Latitude: 52.50, Longitude: 13.40, MeasuredAt: base.Add(1 * time.Hour), PM25: ptr(10), PM10: ptr(20), Source: aq.SourcePurpleAir},
		{SensorID: "pa-1", Latitude: 52.50, Longitude: 13.40, MeasuredAt: base.Add(2 * time.Hour), PM25: ptr(30), Source: aq.SourcePurpleAir},
		{SensorID: "sc-7", Latitude: 48.13, Longitude: 11.58, MeasuredAt: base.Add(90 * time.Minute), PM25: ptr(8), PM10: ptr(16), Source: aq.SourceSensorCommunity},
	}
	if n, err := repo.InsertBatch(ctx, readings); err != nil || n != 3 {
		t.Fatalf("InsertBatch() = %d, %v", n, err)
	}
}

func TestReadingListFilters(t *testing.T) {
	repo := NewReadingRepository(setupDB(t))
	seedReadings(t, repo)
	ctx := context.Background()

	items, err := repo.List(ctx, ports.ReadingFilter{SensorIDs: []string{"pa-1"}})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("List() len = %d, want 2", len(items))
	}
	// Newest first.
	if items[0].MeasuredAt.Before(items[1].MeasuredAt) {
		t.Fatalf("List() not ordered newest first")
	}

	box := aq.BoundingBox{MinLon: 13, MinLat: 52, MaxLon: 14, MaxLat: 53}
	items, err = repo.List(ctx, ports.ReadingFilter{BBox: &box})
	if err != nil {
		t.Fatalf("List(bbox) error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("List(bbox) len = %d, want 2", len(items))
	}

	start := time.Date(2026, 3, 1, 1, 30, 0, 0, time.UTC)
	items, err = repo.List(ctx, ports.ReadingFilter{Start: &start})
	if err != nil {
		t.Fatalf("List(start) error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("List(start) len = %d, want 2", len(items))
	}
}

func TestReadingLatestBySensor(t *testing.T) {
	repo := NewReadingRepository(setupDB(t))
	seedReadings(t, repo)
	ctx := context.Background()

	latest, err := repo.LatestBySensor(ctx, "pa-1")
	if err != nil {
		t.Fatalf("LatestBySensor() error = %v", err)
	}
	if latest.PM25 == nil || *latest.PM25 != 30 {
		t.Fatalf("LatestBySensor() pm25 = %v, want 30", latest.PM25)
	}

	_, err = repo.LatestBySensor(ctx, "missing")
	if !errors.Is(err, ports.ErrReadingNotFound) {
		t.Fatalf("LatestBySensor(missing) error = %v, want ErrReadingNotFound", err)
	}
}

func TestReadingAggregateBySensor(t *testing.T) {
	repo := NewReadingRepository(setupDB(t))
	seedReadings(t, repo)
	ctx := context.Background()

	aggs, err := repo.AggregateBySensor(ctx, ports.ReadingFilter{SensorIDs: []string{"pa-1"}})
	if err != nil {
		t.Fatalf("AggregateBySensor() error = %v", err)
	}
	if len(aggs) != 1 {
		t.Fatalf("AggregateBySensor() len = %d, want 1", len(aggs))
	}

	agg := aggs[0]
	if agg.Readings != 2 {
		t.Fatalf("Readings = %d, want 2", agg.Readings)
	}
	if agg.PM25.Count != 2 || agg.PM25.Mean == nil || *agg.PM25.Mean != 20 {
		t.Fatalf("PM25 = %+v", agg.PM25)
	}
	// pm10 present only once; count(pm10) skips NULLs.
	if agg.PM10.Count != 1 || agg.PM10.Mean == nil || *agg.PM10.Mean != 20 {
		t.Fatalf("PM10 = %+v", agg.PM10)
	}
}
