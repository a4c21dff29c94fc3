package aq

import (
	"fmt"
	"strings"
	"time"
)

// Reading source tags. Stored as plain text; validation happens here, not in
// the schema.
const (
	SourcePurpleAir       = "purpleair"
	SourceSensorCommunity = "sensor_community"
	SourceUpload          = "upload"
)

var knownSources = map[string]struct{}{
	SourcePurpleAir:       {},
	SourceSensorCommunity: {},
	SourceUpload:          {},
}

// Reading is a single sensor observation. Measurement fields are pointers:
// sensors report partial field sets and absent is distinct from zero.
type Reading struct {
	SensorID    string
	Latitude    float64
	Longitude   float64
	MeasuredAt  time.Time
	PM25        *float64
	PM10        *float64
	Temperature *float64
	Humidity    *float64
	Pressure    *float64
	Source      string
	Metadata    string
}

// NormalizeSource lower-cases and validates a source tag.
func NormalizeSource(source string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(source))
	if _, ok := knownSources[normalized]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidSource, source)
	}
	return normalized, nil
}

func ValidateReading(r Reading) error {
	if strings.TrimSpace(r.SensorID) == "" {
		return ErrSensorIDRequired
	}
	if r.MeasuredAt.IsZero() {
		return ErrMeasuredAtRequired
	}
	if r.Latitude < -90 || r.Latitude > 90 || r.Longitude < -180 || r.Longitude > 180 {
		return fmt.Errorf("%w: lat=%v lon=%v", ErrInvalidCoordinates, r.Latitude, r.Longitude)
	}
	if _, err := NormalizeSource(r.Source); err != nil {
		return err
	}

	if r.PM25 != nil && *r.PM25 < 0 {
		return fmt.Errorf("%w: pm25=%v", ErrNegativeConcentration, *r.PM25)
	}
	if r.PM10 != nil && *r.PM10 < 0 {
		return fmt.Errorf("%w: pm10=%v", ErrNegativeConcentration, *r.PM10)
	}

	return nil
}
