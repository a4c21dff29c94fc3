package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"airwatch/internal/domain/aq"
	"airwatch/internal/infrastructure/persistence/sqlite/model"
	"airwatch/internal/ports"
)

func sampleGranule(id string) aq.Granule {
	return aq.Granule{
		ProductID:  "MOD04_L2",
		GranuleID:  id,
		AcquiredAt: time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC),
		Bounds:     aq.BoundingBox{MinLon: 10, MinLat: 50, MaxLon: 15, MaxLat: 55},
		FilePath:   "granules/" + id + ".hdf",
	}
}

func TestGranuleCreateAndGet(t *testing.T) {
	repo := NewGranuleRepository(setupDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, sampleGranule("G-1"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.Processed {
		t.Fatalf("Create() processed = true, want false")
	}

	got, err := repo.GetByGranuleID(ctx, "G-1")
	if err != nil {
		t.Fatalf("GetByGranuleID() error = %v", err)
	}
	if got.Bounds != created.Bounds {
		t.Fatalf("GetByGranuleID() bounds = %+v", got.Bounds)
	}
}

func TestGranuleDuplicateID(t *testing.T) {
	repo := NewGranuleRepository(setupDB(t))
	ctx := context.Background()

	if _, err := repo.Create(ctx, sampleGranule("G-dup")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	_, err := repo.Create(ctx, sampleGranule("G-dup"))
	if !errors.Is(err, ports.ErrDuplicateGranule) {
		t.Fatalf("Create() error = %v, want ErrDuplicateGranule", err)
	}
}

func TestGranuleProcessedDefaultAppliedByStorage(t *testing.T) {
	db := setupDB(t)

	if err := db.Exec(
		"INSERT INTO satellite_granules (product_id, granule_id, acquired_at, bounding_box, created_at) VALUES (?, ?, ?, ?, ?)",
		"MOD04_L2", "G-raw", time.Now().UTC(), "10,50,15,55", time.Now().UTC(),
	).Error; err != nil {
		t.Fatalf("raw insert: %v", err)
	}

	var row model.SatelliteGranule
	if err := db.Where("granule_id = ?", "G-raw").Take(&row).Error; err != nil {
		t.Fatalf("query: %v", err)
	}
	if row.Processed {
		t.Fatalf("processed default = true, want false")
	}
}

func TestGranuleMarkProcessedAndList(t *testing.T) {
	repo := NewGranuleRepository(setupDB(t))
	ctx := context.Background()

	for _, id := range []string{"G-a", "G-b"} {
		if _, err := repo.Create(ctx, sampleGranule(id)); err != nil {
			t.Fatalf("Create(%s) error = %v", id, err)
		}
	}

	if err := repo.MarkProcessed(ctx, "G-a"); err != nil {
		t.Fatalf("MarkProcessed() error = %v", err)
	}
	if err := repo.MarkProcessed(ctx, "G-missing"); !errors.Is(err, ports.ErrGranuleNotFound) {
		t.Fatalf("MarkProcessed(missing) error = %v, want ErrGranuleNotFound", err)
	}

	unprocessed := false
	items, err := repo.List(ctx, ports.GranuleFilter{Processed: &unprocessed})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(items) != 1 || items[0].GranuleID != "G-b" {
		t.Fatalf("List(unprocessed) = %+v", items)
	}
}
