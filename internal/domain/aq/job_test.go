package aq

import (
	"errors"
	"testing"
	"time"
)

func TestNormalizeJobType(t *testing.T) {
	got, err := NormalizeJobType(" Hotspot ")
	if err != nil {
		t.Fatalf("NormalizeJobType() error = %v", err)
	}
	if got != JobTypeHotspot {
		t.Fatalf("NormalizeJobType() = %q", got)
	}

	_, err = NormalizeJobType("forecast")
	if !errors.Is(err, ErrInvalidJobType) {
		t.Fatalf("NormalizeJobType() error = %v, want ErrInvalidJobType", err)
	}
}

func TestCanTransition(t *testing.T) {
	allowed := [][2]string{
		{JobStatusPending, JobStatusRunning},
		{JobStatusPending, JobStatusFailed},
		{JobStatusRunning, JobStatusCompleted},
		{JobStatusRunning, JobStatusFailed},
	}
	for _, pair := range allowed {
		if !CanTransition(pair[0], pair[1]) {
			t.Fatalf("CanTransition(%s, %s) = false", pair[0], pair[1])
		}
	}

	denied := [][2]string{
		{JobStatusPending, JobStatusCompleted},
		{JobStatusRunning, JobStatusPending},
		{JobStatusCompleted, JobStatusRunning},
		{JobStatusFailed, JobStatusRunning},
		{JobStatusCompleted, JobStatusFailed},
	}
	for _, pair := range denied {
		if CanTransition(pair[0], pair[1]) {
			t.Fatalf("CanTransition(%s, %s) = true", pair[0], pair[1])
		}
		if err := CheckTransition(pair[0], pair[1]); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("CheckTransition(%s, %s) error = %v", pair[0], pair[1], err)
		}
	}
}

func TestParseJobParameters(t *testing.T) {
	raw := `{"start":"2026-03-01T00:00:00Z","end":"2026-03-02T00:00:00Z","bbox":"13.0,52.3,13.8,52.7","sensor_ids":["pa-1"]}`
	params, err := ParseJobParameters(raw)
	if err != nil {
		t.Fatalf("ParseJobParameters() error = %v", err)
	}
	if params.BBox == nil || params.BBox.MaxLat != 52.7 {
		t.Fatalf("ParseJobParameters() bbox = %+v", params.BBox)
	}
	if len(params.SensorIDs) != 1 || params.SensorIDs[0] != "pa-1" {
		t.Fatalf("ParseJobParameters() sensor_ids = %#v", params.SensorIDs)
	}
	if !params.End.Equal(params.Start.Add(24 * time.Hour)) {
		t.Fatalf("ParseJobParameters() window = %s .. %s", params.Start, params.End)
	}
}

func TestParseJobParametersRejectsBadWindow(t *testing.T) {
	_, err := ParseJobParameters(`{"start":"2026-03-02T00:00:00Z","end":"2026-03-01T00:00:00Z"}`)
	if !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("ParseJobParameters() error = %v, want ErrInvalidWindow", err)
	}

	_, err = ParseJobParameters(`{"end":"2026-03-01T00:00:00Z"}`)
	if !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("ParseJobParameters() error = %v, want ErrInvalidWindow", err)
	}
}

func TestJobParametersEncodeRoundTrip(t *testing.T) {
	box := BoundingBox{MinLon: 13, MinLat: 52.3, MaxLon: 13.8, MaxLat: 52.7}
	params := JobParameters{
		Start: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		BBox:  &box,
	}

	raw, err := params.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	decoded, err := ParseJobParameters(raw)
	if err != nil {
		t.Fatalf("ParseJobParameters() error = %v", err)
	}
	if decoded.BBox == nil || *decoded.BBox != box {
		t.Fatalf("round trip bbox = %+v", decoded.BBox)
	}
}
