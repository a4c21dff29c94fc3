package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"airwatch/internal/bootstrap/logging"
	"airwatch/internal/domain/aq"
	"airwatch/internal/errs"
	"airwatch/internal/infrastructure/events"
	"airwatch/internal/ports"
)

const latestCacheTTL = 10 * time.Minute

// Service is the ingestion surface for sensor readings and satellite
// granules. The mirror and publisher are optional; nil disables them.
type Service struct {
	readings  ports.ReadingRepository
	granules  ports.GranuleRepository
	cache     ports.Cache
	mirror    ports.ReadingMirror
	publisher ports.EventPublisher
}

func NewService(
	readings ports.ReadingRepository,
	granules ports.GranuleRepository,
	cache ports.Cache,
	mirror ports.ReadingMirror,
	publisher ports.EventPublisher,
) *Service {
	return &Service{
		readings:  readings,
		granules:  granules,
		cache:     cache,
		mirror:    mirror,
		publisher: publisher,
	}
}

// AddReadings validates and persists a batch. The whole batch is rejected on
// the first invalid reading so callers can fix and resubmit the file intact.
func (s *Service) AddReadings(ctx context.Context, readings []aq.Reading) (int, error) {
	if ctx == nil {
		return 0, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return 0, errs.Wrap(err, "check context")
	}
	if len(readings) == 0 {
		return 0, nil
	}

	normalized := make([]aq.Reading, 0, len(readings))
	for i, reading := range readings {
		source, err := aq.NormalizeSource(reading.Source)
		if err != nil {
			return 0, errs.Wrapf(err, "reading %d", i)
		}
		reading.Source = source
		if err := aq.ValidateReading(reading); err != nil {
			return 0, errs.Wrapf(err, "reading %d", i)
		}
		normalized = append(normalized, reading)
	}

	count, err := s.readings.InsertBatch(ctx, normalized)
	if err != nil {
		return 0, err
	}

	s.warmLatestCache(ctx, normalized)
	s.mirrorBestEffort(ctx, normalized)
	s.publishBestEffort(ctx, events.SubjectReadingsIngested, map[string]any{
		"count":       count,
		"ingested_at": time.Now().UTC(),
	})

	return count, nil
}

// Latest serves the most recent reading for a sensor, preferring the cache.
func (s *Service) Latest(ctx context.Context, sensorID string) (ports.StoredReading, error) {
	if ctx == nil {
		return ports.StoredReading{}, errors.New("context is required")
	}

	key := latestKey(sensorID)
	if s.cache != nil {
		if value, found, err := s.cache.Get(ctx, key); err == nil && found {
			var cached ports.StoredReading
			if err := json.Unmarshal([]byte(value), &cached); err == nil {
				return cached, nil
			}
			// Corrupt entry: drop and fall through to storage.
			_ = s.cache.Delete(ctx, key)
		}
	}

	latest, err := s.readings.LatestBySensor(ctx, sensorID)
	if err != nil {
		return ports.StoredReading{}, err
	}

	if s.cache != nil {
		if encoded, err := json.Marshal(latest); err == nil {
			_ = s.cache.Set(ctx, key, string(encoded), latestCacheTTL)
		}
	}
	return latest, nil
}

func (s *Service) Query(ctx context.Context, filter ports.ReadingFilter) ([]ports.StoredReading, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	return s.readings.List(ctx, filter)
}

func (s *Service) RegisterGranule(ctx context.Context, granule aq.Granule) (ports.StoredGranule, error) {
	if ctx == nil {
		return ports.StoredGranule{}, errors.New("context is required")
	}
	if err := aq.ValidateGranule(granule); err != nil {
		return ports.StoredGranule{}, err
	}

	stored, err := s.granules.Create(ctx, granule)
	if err != nil {
		return ports.StoredGranule{}, err
	}

	s.publishBestEffort(ctx, events.SubjectGranuleRegistered, map[string]any{
		"granule_id": stored.GranuleID,
		"product_id": stored.ProductID,
	})
	return stored, nil
}

func (s *Service) ListGranules(ctx context.Context, filter ports.GranuleFilter) ([]ports.StoredGranule, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	return s.granules.List(ctx, filter)
}

func (s *Service) MarkGranuleProcessed(ctx context.Context, granuleID string) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	return s.granules.MarkProcessed(ctx, granuleID)
}

// IngestFile reads a .json or .csv readings file and persists its batch with
// source forced to "upload".
func (s *Service) IngestFile(ctx context.Context, path string) (int, error) {
	if ctx == nil {
		return 0, errors.New("context is required")
	}

	readings, err := ParseReadingsFile(path)
	if err != nil {
		return 0, err
	}
	for i := range readings {
		readings[i].Source = aq.SourceUpload
	}
	return s.AddReadings(ctx, readings)
}

func (s *Service) warmLatestCache(ctx context.Context, readings []aq.Reading) {
	if s.cache == nil {
		return
	}

	sensors := make(map[string]struct{}, len(readings))
	for _, reading := range readings {
		sensors[reading.SensorID] = struct{}{}
	}

	// Warm from storage, not from the batch: a backfill batch may be older
	// than the stored latest, and only the stored row carries id/created_at.
	for sensorID := range sensors {
		latest, err := s.readings.LatestBySensor(ctx, sensorID)
		if err != nil {
			logging.Warn(ctx, "warm latest cache failed",
				slog.String("sensor_id", sensorID),
				slog.Any("err", errs.Loggable(err)),
			)
			continue
		}
		encoded, err := json.Marshal(latest)
		if err != nil {
			continue
		}
		if err := s.cache.Set(ctx, latestKey(sensorID), string(encoded), latestCacheTTL); err != nil {
			logging.Warn(ctx, "warm latest cache failed",
				slog.String("sensor_id", sensorID),
				slog.Any("err", errs.Loggable(err)),
			)
		}
	}
}

func (s *Service) mirrorBestEffort(ctx context.Context, readings []aq.Reading) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.Mirror(ctx, readings); err != nil {
		logging.Warn(ctx, "mirror readings failed", slog.Any("err", errs.Loggable(err)))
	}
}

func (s *Service) publishBestEffort(ctx context.Context, subject string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, subject, payload); err != nil {
		logging.Warn(ctx, "publish event failed",
			slog.String("subject", subject),
			slog.Any("err", errs.Loggable(err)),
		)
	}
}

func latestKey(sensorID string) string {
	return "latest:" + sensorID
}
