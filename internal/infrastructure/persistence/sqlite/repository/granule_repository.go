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

type GranuleRepository struct {
	db *gorm.DB
}

var _ ports.GranuleRepository = (*GranuleRepository)(nil)

func NewGranuleRepository(db *gorm.DB) *GranuleRepository {
	return &GranuleRepository{db: db}
}

func (r *GranuleRepository) Create(ctx context.Context, granule aq.Granule) (ports.StoredGranule, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.StoredGranule{}, err
	}

	row := model.SatelliteGranule{
		ProductID:   granule.ProductID,
		GranuleID:   granule.GranuleID,
		AcquiredAt:  granule.AcquiredAt.UTC(),
		BoundingBox: granule.Bounds.String(),
		FilePath:    granule.FilePath,
		Metadata:    granule.Metadata,
		Processed:   false,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return ports.StoredGranule{}, ports.ErrDuplicateGranule
		}
		return ports.StoredGranule{}, errs.Wrap(err, "insert satellite granule")
	}

	return mapGranule(row)
}

func (r *GranuleRepository) GetByGranuleID(ctx context.Context, granuleID string) (ports.StoredGranule, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.StoredGranule{}, err
	}

	var row model.SatelliteGranule
	if err := db.Where("granule_id = ?", granuleID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.StoredGranule{}, ports.ErrGranuleNotFound
		}
		return ports.StoredGranule{}, errs.Wrap(err, "query granule")
	}
	return mapGranule(row)
}

func (r *GranuleRepository) List(ctx context.Context, filter ports.GranuleFilter) ([]ports.StoredGranule, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.SatelliteGranule{}).Order("id asc")
	if filter.ProductID != "" {
		query = query.Where("product_id = ?", filter.ProductID)
	}
	if filter.Processed != nil {
		query = query.Where("processed = ?", *filter.Processed)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []model.SatelliteGranule
	if err := query.Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query granules")
	}

	items := make([]ports.StoredGranule, 0, len(rows))
	for _, row := range rows {
		item, err := mapGranule(row)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *GranuleRepository) MarkProcessed(ctx context.Context, granuleID string) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	result := db.Model(&model.SatelliteGranule{}).
		Where("granule_id = ?", granuleID).
		Update("processed", true)
	if result.Error != nil {
		return errs.Wrap(result.Error, "mark granule processed")
	}
	if result.RowsAffected == 0 {
		return ports.ErrGranuleNotFound
	}
	return nil
}

func mapGranule(row model.SatelliteGranule) (ports.StoredGranule, error) {
	bounds, err := aq.ParseBoundingBox(row.BoundingBox)
	if err != nil {
		return ports.StoredGranule{}, errs.Wrapf(err, "granule %s has corrupt bounding box", row.GranuleID)
	}

	return ports.StoredGranule{
		ID: row.ID,
		Granule: aq.Granule{
			ProductID:  row.ProductID,
			GranuleID:  row.GranuleID,
			AcquiredAt: row.AcquiredAt,
			Bounds:     bounds,
			FilePath:   row.FilePath,
			Metadata:   row.Metadata,
		},
		Processed: row.Processed,
		CreatedAt: row.CreatedAt,
	}, nil
}
