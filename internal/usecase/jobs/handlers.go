package jobs

import (
	"context"
	"fmt"
	"time"

	"airwatch/internal/domain/aq"
	"airwatch/internal/ports"
)

// Handler computes one job type's result from the shared parameter envelope.
// The returned value is serialized as the job's result artifact.
type Handler interface {
	Handle(ctx context.Context, params aq.JobParameters) (any, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, params aq.JobParameters) (any, error)

func (f HandlerFunc) Handle(ctx context.Context, params aq.JobParameters) (any, error) {
	return f(ctx, params)
}

// Registry maps job types to their handlers.
type Registry struct {
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

func (r *Registry) Register(jobType string, handler Handler) {
	r.handlers[jobType] = handler
}

func (r *Registry) Resolve(jobType string) (Handler, error) {
	handler, ok := r.handlers[jobType]
	if !ok {
		return nil, fmt.Errorf("no handler registered for job type %q", jobType)
	}
	return handler, nil
}

// windowReport is the artifact shared by all built-in job types: per-sensor
// aggregates over the requested window.
type windowReport struct {
	JobType     string                  `json:"job_type"`
	Window      windowSpec              `json:"window"`
	BBox        string                  `json:"bbox,omitempty"`
	SensorIDs   []string                `json:"sensor_ids,omitempty"`
	Sensors     []ports.SensorAggregate `json:"sensors"`
	GeneratedAt time.Time               `json:"generated_at"`
}

type windowSpec struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewWindowAggregationHandler builds the default handler: it aggregates the
// stored readings matching the job window and emits the per-sensor summary
// report tagged with the job type.
func NewWindowAggregationHandler(jobType string, readings ports.ReadingRepository) Handler {
	return HandlerFunc(func(ctx context.Context, params aq.JobParameters) (any, error) {
		filter := ports.ReadingFilter{
			SensorIDs: params.SensorIDs,
			Start:     &params.Start,
			End:       &params.End,
			BBox:      params.BBox,
		}

		aggregates, err := readings.AggregateBySensor(ctx, filter)
		if err != nil {
			return nil, err
		}

		report := windowReport{
			JobType:     jobType,
			Window:      windowSpec{Start: params.Start, End: params.End},
			SensorIDs:   params.SensorIDs,
			Sensors:     aggregates,
			GeneratedAt: time.Now().UTC(),
		}
		if params.BBox != nil {
			report.BBox = params.BBox.String()
		}
		return report, nil
	})
}

// DefaultRegistry wires the window-aggregation handler for every built-in
// job type.
func DefaultRegistry(readings ports.ReadingRepository) *Registry {
	registry := NewRegistry()
	for _, jobType := range []string{aq.JobTypeHotspot, aq.JobTypeAnomaly, aq.JobTypeTrend} {
		registry.Register(jobType, NewWindowAggregationHandler(jobType, readings))
	}
	return registry
}
