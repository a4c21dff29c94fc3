package aq

import (
	"errors"
	"testing"
)

func TestParseBoundingBoxRoundTrip(t *testing.T) {
	box, err := ParseBoundingBox("13.0,52.3,13.8,52.7")
	if err != nil {
		t.Fatalf("ParseBoundingBox() error = %v", err)
	}
	if box.MinLon != 13.0 || box.MinLat != 52.3 || box.MaxLon != 13.8 || box.MaxLat != 52.7 {
		t.Fatalf("ParseBoundingBox() = %+v", box)
	}
	if box.String() != "13,52.3,13.8,52.7" {
		t.Fatalf("String() = %q", box.String())
	}
}

func TestParseBoundingBoxRejectsMalformed(t *testing.T) {
	for _, input := range []string{
		"",
		"1,2,3",
		"a,b,c,d",
		"13.8,52.3,13.0,52.7", // min exceeds max
		"-181,0,0,0",
	} {
		if _, err := ParseBoundingBox(input); !errors.Is(err, ErrInvalidBoundingBox) {
			t.Fatalf("ParseBoundingBox(%q) error = %v, want ErrInvalidBoundingBox", input, err)
		}
	}
}

func TestBoundingBoxContains(t *testing.T) {
	box := BoundingBox{MinLon: 13.0, MinLat: 52.3, MaxLon: 13.8, MaxLat: 52.7}
	if !box.Contains(52.52, 13.405) {
		t.Fatalf("Contains() expected true for interior point")
	}
	if box.Contains(52.52, 14.0) {
		t.Fatalf("Contains() expected false for exterior point")
	}
}

func TestValidateGranule(t *testing.T) {
	g := Granule{
		ProductID: "MOD04_L2",
		GranuleID: "MOD04_L2.A2026060.1230",
		Bounds:    BoundingBox{MinLon: 10, MinLat: 50, MaxLon: 15, MaxLat: 55},
	}
	if err := ValidateGranule(g); err != nil {
		t.Fatalf("ValidateGranule() error = %v", err)
	}

	g.GranuleID = ""
	if err := ValidateGranule(g); !errors.Is(err, ErrGranuleIDRequired) {
		t.Fatalf("ValidateGranule() error = %v, want ErrGranuleIDRequired", err)
	}
}
