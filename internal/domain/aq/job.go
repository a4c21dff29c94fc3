package aq

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	JobTypeHotspot = "hotspot"
	JobTypeAnomaly = "anomaly"
	JobTypeTrend   = "trend"
)

const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

var knownJobTypes = map[string]struct{}{
	JobTypeHotspot: {},
	JobTypeAnomaly: {},
	JobTypeTrend:   {},
}

var knownJobStatuses = map[string]struct{}{
	JobStatusPending:   {},
	JobStatusRunning:   {},
	JobStatusCompleted: {},
	JobStatusFailed:    {},
}

// allowedTransitions is the job lifecycle. pending→failed covers cancel.
var allowedTransitions = map[string]map[string]struct{}{
	JobStatusPending: {
		JobStatusRunning: {},
		JobStatusFailed:  {},
	},
	JobStatusRunning: {
		JobStatusCompleted: {},
		JobStatusFailed:    {},
	},
}

func NormalizeJobType(jobType string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(jobType))
	if _, ok := knownJobTypes[normalized]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidJobType, jobType)
	}
	return normalized, nil
}

func NormalizeJobStatus(status string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(status))
	if _, ok := knownJobStatuses[normalized]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidJobStatus, status)
	}
	return normalized, nil
}

// CanTransition reports whether a job may move from one status to another.
func CanTransition(from string, to string) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}

// CheckTransition is CanTransition with a descriptive error.
func CheckTransition(from string, to string) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

func IsTerminalStatus(status string) bool {
	return status == JobStatusCompleted || status == JobStatusFailed
}

// JobParameters is the parsed form of the analysis_jobs.parameters blob.
// Every job type shares the same envelope: a time window, an optional
// bounding box, and an optional sensor filter.
type JobParameters struct {
	Start     time.Time    `json:"start"`
	End       time.Time    `json:"end"`
	BBox      *BoundingBox `json:"-"`
	BBoxRaw   string       `json:"bbox,omitempty"`
	SensorIDs []string     `json:"sensor_ids,omitempty"`
}

func ParseJobParameters(raw string) (JobParameters, error) {
	var params JobParameters
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return JobParameters{}, fmt.Errorf("parse job parameters: %w", err)
	}

	if params.Start.IsZero() || params.End.IsZero() {
		return JobParameters{}, fmt.Errorf("%w: start and end are required", ErrInvalidWindow)
	}
	if !params.End.After(params.Start) {
		return JobParameters{}, fmt.Errorf("%w: end %s not after start %s", ErrInvalidWindow, params.End, params.Start)
	}

	if strings.TrimSpace(params.BBoxRaw) != "" {
		box, err := ParseBoundingBox(params.BBoxRaw)
		if err != nil {
			return JobParameters{}, err
		}
		params.BBox = &box
	}

	return params, nil
}

func (p JobParameters) Encode() (string, error) {
	clone := p
	if p.BBox != nil {
		clone.BBoxRaw = p.BBox.String()
	}
	raw, err := json.Marshal(clone)
	if err != nil {
		return "", fmt.Errorf("encode job parameters: %w", err)
	}
	return string(raw), nil
}
