package timeseries

import (
	"context"
	"errors"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/sony/gobreaker"

	"airwatch/internal/bootstrap/config"
	"airwatch/internal/domain/aq"
	"airwatch/internal/errs"
	"airwatch/internal/ports"
)

const measurementName = "air_quality"

// InfluxMirror forwards accepted readings to InfluxDB for dashboarding.
// It is strictly best-effort: callers drop its error after logging.
type InfluxMirror struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	cb       *gobreaker.CircuitBreaker
}

var _ ports.ReadingMirror = (*InfluxMirror)(nil)

func NewInfluxMirror(cfg config.InfluxConfig, cb *gobreaker.CircuitBreaker) *InfluxMirror {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &InfluxMirror{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		cb:       cb,
	}
}

func (m *InfluxMirror) Mirror(ctx context.Context, readings []aq.Reading) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if len(readings) == 0 {
		return nil
	}

	_, err := m.cb.Execute(func() (any, error) {
		for _, reading := range readings {
			point := influxdb2.NewPointWithMeasurement(measurementName).
				AddTag("sensor_id", reading.SensorID).
				AddTag("source", reading.Source).
				AddField("latitude", reading.Latitude).
				AddField("longitude", reading.Longitude).
				SetTime(reading.MeasuredAt)

			if reading.PM25 != nil {
				point.AddField("pm25", *reading.PM25)
			}
			if reading.PM10 != nil {
				point.AddField("pm10", *reading.PM10)
			}
			if reading.Temperature != nil {
				point.AddField("temperature", *reading.Temperature)
			}
			if reading.Humidity != nil {
				point.AddField("humidity", *reading.Humidity)
			}
			if reading.Pressure != nil {
				point.AddField("pressure", *reading.Pressure)
			}

			if err := m.writeAPI.WritePoint(ctx, point); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return errs.Wrap(err, "mirror readings to influx")
	}
	return nil
}

func (m *InfluxMirror) Close() {
	m.client.Close()
}

// Probe is used by bootstrap dependency checks.
func (m *InfluxMirror) Probe(ctx context.Context) error {
	_, err := m.cb.Execute(func() (any, error) {
		ok, err := m.client.Ping(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.New("influx ping returned not ready")
		}
		return nil, nil
	})
	if err != nil {
		return errs.Wrap(err, "ping influx")
	}
	return nil
}
