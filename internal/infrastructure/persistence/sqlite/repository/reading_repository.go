package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"airwatch/internal/domain/aq"
	"airwatch/internal/errs"
	"airwatch/internal/infrastructure/persistence/sqlite/model"
	"airwatch/internal/ports"
)

type ReadingRepository struct {
	db *gorm.DB
}

var _ ports.ReadingRepository = (*ReadingRepository)(nil)

func NewReadingRepository(db *gorm.DB) *ReadingRepository {
	return &ReadingRepository{db: db}
}

func (r *ReadingRepository) Insert(ctx context.Context, reading aq.Reading) (ports.StoredReading, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.StoredReading{}, err
	}

	row := readingToRow(reading)
	if err := db.Create(&row).Error; err != nil {
		return ports.StoredReading{}, errs.Wrap(err, "insert sensor reading")
	}
	return mapReading(row), nil
}

func (r *ReadingRepository) InsertBatch(ctx context.Context, readings []aq.Reading) (int, error) {
	if len(readings) == 0 {
		return 0, nil
	}

	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, err
	}

	rows := make([]model.SensorReading, 0, len(readings))
	for _, reading := range readings {
		rows = append(rows, readingToRow(reading))
	}

	if err := db.CreateInBatches(&rows, 200).Error; err != nil {
		return 0, errs.Wrap(err, "insert sensor readings batch")
	}
	return len(rows), nil
}

func (r *ReadingRepository) List(ctx context.Context, filter ports.ReadingFilter) ([]ports.StoredReading, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := applyReadingFilter(db.Model(&model.SensorReading{}), filter).Order("measured_at desc, id desc")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []model.SensorReading
	if err := query.Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query sensor readings")
	}

	items := make([]ports.StoredReading, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapReading(row))
	}
	return items, nil
}

func (r *ReadingRepository) LatestBySensor(ctx context.Context, sensorID string) (ports.StoredReading, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.StoredReading{}, err
	}

	var row model.SensorReading
	if err := db.
		Where("sensor_id = ?", sensorID).
		Order("measured_at desc, id desc").
		Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.StoredReading{}, ports.ErrReadingNotFound
		}
		return ports.StoredReading{}, errs.Wrap(err, "query latest reading")
	}
	return mapReading(row), nil
}

// sensorAggregateRow is the scan target for the grouped aggregate query.
type sensorAggregateRow struct {
	SensorID  string
	Latitude  float64
	Longitude float64
	Readings  int64
	PM25Count int64
	PM25Min   *float64
	PM25Max   *float64
	PM25Mean  *float64
	PM10Count int64
	PM10Min   *float64
	PM10Max   *float64
	PM10Mean  *float64
}

func (r *ReadingRepository) AggregateBySensor(ctx context.Context, filter ports.ReadingFilter) ([]ports.SensorAggregate, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := applyReadingFilter(db.Model(&model.SensorReading{}), filter).
		Select(`sensor_id,
			avg(latitude) as latitude,
			avg(longitude) as longitude,
			count(*) as readings,
			count(pm25) as pm25_count, min(pm25) as pm25_min, max(pm25) as pm25_max, avg(pm25) as pm25_mean,
			count(pm10) as pm10_count, min(pm10) as pm10_min, max(pm10) as pm10_max, avg(pm10) as pm10_mean`).
		Group("sensor_id").
		Order("sensor_id asc")

	var rows []sensorAggregateRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "aggregate sensor readings")
	}

	items := make([]ports.SensorAggregate, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.SensorAggregate{
			SensorID:  row.SensorID,
			Latitude:  row.Latitude,
			Longitude: row.Longitude,
			Readings:  row.Readings,
			PM25: ports.FieldStats{
				Count: row.PM25Count,
				Min:   row.PM25Min,
				Max:   row.PM25Max,
				Mean:  row.PM25Mean,
			},
			PM10: ports.FieldStats{
				Count: row.PM10Count,
				Min:   row.PM10Min,
				Max:   row.PM10Max,
				Mean:  row.PM10Mean,
			},
		})
	}
	return items, nil
}

func applyReadingFilter(query *gorm.DB, filter ports.ReadingFilter) *gorm.DB {
	if len(filter.SensorIDs) > 0 {
		query = query.Where("sensor_id IN ?", filter.SensorIDs)
	}
	if filter.Start != nil {
		query = query.Where("measured_at >= ?", *filter.Start)
	}
	if filter.End != nil {
		query = query.Where("measured_at < ?", *filter.End)
	}
	if len(filter.Sources) > 0 {
		query = query.Where("source IN ?", filter.Sources)
	}
	if filter.BBox != nil {
		query = query.
			Where("latitude BETWEEN ? AND ?", filter.BBox.MinLat, filter.BBox.MaxLat).
			Where("longitude BETWEEN ? AND ?", filter.BBox.MinLon, filter.BBox.MaxLon)
	}
	return query
}

func readingToRow(reading aq.Reading) model.SensorReading {
	return model.SensorReading{
		SensorID:    reading.SensorID,
		Latitude:    reading.Latitude,
		Longitude:   reading.Longitude,
		MeasuredAt:  reading.MeasuredAt.UTC(),
		PM25:        reading.PM25,
		PM10:        reading.PM10,
		Temperature: reading.Temperature,
		Humidity:    reading.Humidity,
		Pressure:    reading.Pressure,
		Source:      reading.Source,
		Metadata:    reading.Metadata,
		CreatedAt:   time.Now().UTC(),
	}
}

func mapReading(row model.SensorReading) ports.StoredReading {
	return ports.StoredReading{
		ID: row.ID,
		Reading: aq.Reading{
			SensorID:    row.SensorID,
			Latitude:    row.Latitude,
			Longitude:   row.Longitude,
			MeasuredAt:  row.MeasuredAt,
			PM25:        row.PM25,
			PM10:        row.PM10,
			Temperature: row.Temperature,
			Humidity:    row.Humidity,
			Pressure:    row.Pressure,
			Source:      row.Source,
			Metadata:    row.Metadata,
		},
		CreatedAt: row.CreatedAt,
	}
}
