package aq

import "errors"

var (
	ErrInvalidSource         = errors.New("unknown reading source")
	ErrInvalidCoordinates    = errors.New("coordinates out of range")
	ErrNegativeConcentration = errors.New("concentration must not be negative")
	ErrSensorIDRequired      = errors.New("sensor id is required")
	ErrMeasuredAtRequired    = errors.New("measured_at is required")

	ErrInvalidBoundingBox = errors.New("invalid bounding box")
	ErrGranuleIDRequired  = errors.New("granule id is required")
	ErrProductIDRequired  = errors.New("product id is required")

	ErrInvalidJobType    = errors.New("unknown job type")
	ErrInvalidJobStatus  = errors.New("unknown job status")
	ErrInvalidTransition = errors.New("job status transition not allowed")
	ErrInvalidWindow     = errors.New("job window is invalid")
)
