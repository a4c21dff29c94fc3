package ports

import (
	"context"
	"io"

	"airwatch/internal/domain/aq"
)

// EventPublisher pushes platform events to an external broker.
// Adapters must be safe for concurrent use.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload any) error
	Close()
}

// ObjectStore holds granule files and job result artifacts.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

// ReadingMirror forwards accepted readings to a secondary time-series store.
// Mirror failures must never fail the primary ingest path.
type ReadingMirror interface {
	Mirror(ctx context.Context, readings []aq.Reading) error
}
