package ports

import (
	"context"
	"errors"
	"time"

	"airwatch/internal/domain/aq"
)

var ErrReadingNotFound = errors.New("sensor reading not found")

// StoredReading is a persisted observation plus its storage identity.
type StoredReading struct {
	ID uint64
	aq.Reading
	CreatedAt time.Time
}

type ReadingFilter struct {
	SensorIDs []string
	Start     *time.Time
	End       *time.Time
	BBox      *aq.BoundingBox
	Sources   []string
	Limit     int
}

// FieldStats is a per-measurement aggregate over a window.
type FieldStats struct {
	Count int64    `json:"count"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
	Mean  *float64 `json:"mean,omitempty"`
}

// SensorAggregate summarizes one sensor's readings within a filter window.
type SensorAggregate struct {
	SensorID  string     `json:"sensor_id"`
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Readings  int64      `json:"readings"`
	PM25      FieldStats `json:"pm25"`
	PM10      FieldStats `json:"pm10"`
}

type ReadingRepository interface {
	Insert(ctx context.Context, reading aq.Reading) (StoredReading, error)
	InsertBatch(ctx context.Context, readings []aq.Reading) (int, error)
	List(ctx context.Context, filter ReadingFilter) ([]StoredReading, error)
	LatestBySensor(ctx context.Context, sensorID string) (StoredReading, error)
	AggregateBySensor(ctx context.Context, filter ReadingFilter) ([]SensorAggregate, error)
}
