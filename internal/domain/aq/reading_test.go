package aq

import (
	"errors"
	"testing"
	"time"
)

func validReading() Reading {
	pm25 := 12.5
	return Reading{
		SensorID:   "pa-1042",
		Latitude:   52.52,
		Longitude:  13.405,
		MeasuredAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		PM25:       &pm25,
		Source:     SourcePurpleAir,
	}
}

func TestNormalizeSource(t *testing.T) {
	got, err := NormalizeSource("  PurpleAir ")
	if err != nil {
		t.Fatalf("NormalizeSource() error = %v", err)
	}
	if got != SourcePurpleAir {
		t.Fatalf("NormalizeSource() = %q", got)
	}

	_, err = NormalizeSource("openaq")
	if !errors.Is(err, ErrInvalidSource) {
		t.Fatalf("NormalizeSource() error = %v, want ErrInvalidSource", err)
	}
}

func TestValidateReading(t *testing.T) {
	if err := ValidateReading(validReading()); err != nil {
		t.Fatalf("ValidateReading() error = %v", err)
	}

	r := validReading()
	r.SensorID = "  "
	if err := ValidateReading(r); !errors.Is(err, ErrSensorIDRequired) {
		t.Fatalf("ValidateReading() error = %v, want ErrSensorIDRequired", err)
	}

	r = validReading()
	r.MeasuredAt = time.Time{}
	if err := ValidateReading(r); !errors.Is(err, ErrMeasuredAtRequired) {
		t.Fatalf("ValidateReading() error = %v, want ErrMeasuredAtRequired", err)
	}

	r = validReading()
	r.Latitude = 91
	if err := ValidateReading(r); !errors.Is(err, ErrInvalidCoordinates) {
		t.Fatalf("ValidateReading() error = %v, want ErrInvalidCoordinates", err)
	}

	r = validReading()
	negative := -0.1
	r.PM10 = &negative
	if err := ValidateReading(r); !errors.Is(err, ErrNegativeConcentration) {
		t.Fatalf("ValidateReading() error = %v, want ErrNegativeConcentration", err)
	}
}

func TestValidateReadingZeroConcentrationAllowed(t *testing.T) {
	r := validReading()
	zero := 0.0
	r.PM25 = &zero
	r.PM10 = &zero
	if err := ValidateReading(r); err != nil {
		t.Fatalf("ValidateReading() error = %v", err)
	}
}
