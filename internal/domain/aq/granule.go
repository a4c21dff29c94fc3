package aq

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// BoundingBox is a rectangular geographic extent. The wire/storage form is
// the serialized string "minLon,minLat,maxLon,maxLat".
type BoundingBox struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
}

func (b BoundingBox) Validate() error {
	if b.MinLon < -180 || b.MaxLon > 180 || b.MinLat < -90 || b.MaxLat > 90 {
		return fmt.Errorf("%w: %s out of range", ErrInvalidBoundingBox, b.String())
	}
	if b.MinLon > b.MaxLon || b.MinLat > b.MaxLat {
		return fmt.Errorf("%w: %s min exceeds max", ErrInvalidBoundingBox, b.String())
	}
	return nil
}

func (b BoundingBox) Contains(lat float64, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// ParseBoundingBox parses the serialized "minLon,minLat,maxLon,maxLat" form.
func ParseBoundingBox(s string) (BoundingBox, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 4 {
		return BoundingBox{}, fmt.Errorf("%w: %q needs 4 comma-separated values", ErrInvalidBoundingBox, s)
	}

	values := make([]float64, 4)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return BoundingBox{}, fmt.Errorf("%w: %q", ErrInvalidBoundingBox, s)
		}
		values[i] = v
	}

	box := BoundingBox{MinLon: values[0], MinLat: values[1], MaxLon: values[2], MaxLat: values[3]}
	if err := box.Validate(); err != nil {
		return BoundingBox{}, err
	}
	return box, nil
}

// Granule is satellite product metadata for a single discrete data unit.
type Granule struct {
	ProductID  string
	GranuleID  string
	AcquiredAt time.Time
	Bounds     BoundingBox
	FilePath   string
	Metadata   string
}

func ValidateGranule(g Granule) error {
	if strings.TrimSpace(g.ProductID) == "" {
		return ErrProductIDRequired
	}
	if strings.TrimSpace(g.GranuleID) == "" {
		return ErrGranuleIDRequired
	}
	return g.Bounds.Validate()
}
