package ports

import (
	"context"
	"errors"
	"time"

	"airwatch/internal/domain/aq"
)

var (
	ErrGranuleNotFound  = errors.New("satellite granule not found")
	ErrDuplicateGranule = errors.New("granule id already registered")
)

type StoredGranule struct {
	ID uint64
	aq.Granule
	Processed bool
	CreatedAt time.Time
}

type GranuleFilter struct {
	ProductID string
	Processed *bool
	Limit     int
}

type GranuleRepository interface {
	Create(ctx context.Context, granule aq.Granule) (StoredGranule, error)
	GetByGranuleID(ctx context.Context, granuleID string) (StoredGranule, error)
	List(ctx context.Context, filter GranuleFilter) ([]StoredGranule, error)
	MarkProcessed(ctx context.Context, granuleID string) error
}
