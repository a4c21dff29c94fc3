package events

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/nats-io/nats.go"
	"github.com/sony/gobreaker"

	"airwatch/internal/bootstrap/config"
	"airwatch/internal/errs"
	"airwatch/internal/ports"
)

// Subjects published by the platform.
const (
	SubjectReadingsIngested  = "airwatch.readings.ingested"
	SubjectGranuleRegistered = "airwatch.granules.registered"
	SubjectJobSubmitted      = "airwatch.jobs.submitted"
	SubjectJobRunning        = "airwatch.jobs.running"
	SubjectJobCompleted      = "airwatch.jobs.completed"
	SubjectJobFailed         = "airwatch.jobs.failed"
)

// NATSPublisher pushes platform events to NATS. Publishes go through a
// circuit breaker so a dead broker degrades to fast no-ops instead of
// stalling ingest and job paths.
type NATSPublisher struct {
	conn *nats.Conn
	cb   *gobreaker.CircuitBreaker
}

var _ ports.EventPublisher = (*NATSPublisher)(nil)

func NewNATSPublisher(cfg config.NATSConfig, cb *gobreaker.CircuitBreaker) (*NATSPublisher, error) {
	if cfg.URL == "" {
		return nil, errors.New("nats url is required")
	}

	conn, err := nats.Connect(cfg.URL, nats.Name("airwatch"))
	if err != nil {
		return nil, errs.Wrap(err, "connect nats")
	}

	return &NATSPublisher{conn: conn, cb: cb}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, payload any) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return errs.Wrapf(err, "encode event %q", subject)
	}

	_, err = p.cb.Execute(func() (any, error) {
		return nil, p.conn.Publish(subject, data)
	})
	if err != nil {
		return errs.Wrapf(err, "publish %q", subject)
	}
	return nil
}

func (p *NATSPublisher) Close() {
	p.conn.Close()
}

// Probe is used by bootstrap dependency checks.
func (p *NATSPublisher) Probe(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	_, err := p.cb.Execute(func() (any, error) {
		return nil, p.conn.FlushWithContext(ctx)
	})
	if err != nil {
		return errs.Wrap(err, "flush nats")
	}
	return nil
}
