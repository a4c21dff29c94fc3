package model

import "time"

type SatelliteGranule struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID  string    `gorm:"column:product_id;type:text;not null"`
	GranuleID  string    `gorm:"column:granule_id;type:text;not null;uniqueIndex"`
	AcquiredAt time.Time `gorm:"column:acquired_at;not null"`
	// Serialized "minLon,minLat,maxLon,maxLat".
	BoundingBox string    `gorm:"column:bounding_box;type:text;not null"`
	FilePath    string    `gorm:"column:file_path;type:text"`
	Metadata    string    `gorm:"column:metadata;type:text"`
	Processed   bool      `gorm:"column:processed;not null;default:0;index"`
	CreatedAt   time.Time `gorm:"column:created_at;not null"`
}

func (SatelliteGranule) TableName() string {
	return "satellite_granules"
}
