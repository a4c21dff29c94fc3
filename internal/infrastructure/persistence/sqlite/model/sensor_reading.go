package model

import "time"

type SensorReading struct {
	ID          uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	SensorID    string    `gorm:"column:sensor_id;type:text;not null;index"`
	Latitude    float64   `gorm:"column:latitude;not null"`
	Longitude   float64   `gorm:"column:longitude;not null"`
	MeasuredAt  time.Time `gorm:"column:measured_at;not null;index"`
	PM25        *float64  `gorm:"column:pm25"`
	PM10        *float64  `gorm:"column:pm10"`
	Temperature *float64  `gorm:"column:temperature"`
	Humidity    *float64  `gorm:"column:humidity"`
	Pressure    *float64  `gorm:"column:pressure"`
	Source      string    `gorm:"column:source;type:text;not null"`
	Metadata    string    `gorm:"column:metadata;type:text"`
	CreatedAt   time.Time `gorm:"column:created_at;not null"`
}

func (SensorReading) TableName() string {
	return "sensor_readings"
}
