package ingest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"airwatch/internal/domain/aq"
	"airwatch/internal/errs"
)

// fileReading is the external representation accepted in upload files and in
// the HTTP ingest body.
type fileReading struct {
	SensorID    string   `json:"sensor_id"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	MeasuredAt  string   `json:"measured_at"`
	PM25        *float64 `json:"pm25,omitempty"`
	PM10        *float64 `json:"pm10,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
	Pressure    *float64 `json:"pressure,omitempty"`
	Source      string   `json:"source,omitempty"`
	Metadata    string   `json:"metadata,omitempty"`
}

func (f fileReading) toDomain() (aq.Reading, error) {
	measuredAt, err := time.Parse(time.RFC3339, strings.TrimSpace(f.MeasuredAt))
	if err != nil {
		return aq.Reading{}, errs.Wrapf(err, "parse measured_at %q", f.MeasuredAt)
	}

	return aq.Reading{
		SensorID:    f.SensorID,
		Latitude:    f.Latitude,
		Longitude:   f.Longitude,
		MeasuredAt:  measuredAt,
		PM25:        f.PM25,
		PM10:        f.PM10,
		Temperature: f.Temperature,
		Humidity:    f.Humidity,
		Pressure:    f.Pressure,
		Source:      f.Source,
		Metadata:    f.Metadata,
	}, nil
}

// ParseReadingsFile loads readings from a .json (array) or .csv file.
func ParseReadingsFile(path string) ([]aq.Reading, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrapf(err, "open readings file %q", path)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return parseJSONReadings(file)
	case ".csv":
		return parseCSVReadings(file)
	default:
		return nil, fmt.Errorf("unsupported readings file extension %q", filepath.Ext(path))
	}
}

func parseJSONReadings(r io.Reader) ([]aq.Reading, error) {
	var rows []fileReading
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, errs.Wrap(err, "decode readings json")
	}

	readings := make([]aq.Reading, 0, len(rows))
	for i, row := range rows {
		reading, err := row.toDomain()
		if err != nil {
			return nil, errs.Wrapf(err, "row %d", i)
		}
		readings = append(readings, reading)
	}
	return readings, nil
}

var csvColumns = []string{
	"sensor_id", "latitude", "longitude", "measured_at",
	"pm25", "pm10", "temperature", "humidity", "pressure",
}

func parseCSVReadings(r io.Reader) ([]aq.Reading, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errs.Wrap(err, "read csv header")
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"sensor_id", "latitude", "longitude", "measured_at"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("csv header missing column %q", required)
		}
	}

	readings := make([]aq.Reading, 0, 64)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errs.Wrapf(err, "read csv line %d", line)
		}

		reading, err := csvRecordToReading(record, index)
		if err != nil {
			return nil, errs.Wrapf(err, "csv line %d", line)
		}
		readings = append(readings, reading)
	}
	return readings, nil
}

func csvRecordToReading(record []string, index map[string]int) (aq.Reading, error) {
	field := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	latitude, err := strconv.ParseFloat(field("latitude"), 64)
	if err != nil {
		return aq.Reading{}, errs.Wrap(err, "parse latitude")
	}
	longitude, err := strconv.ParseFloat(field("longitude"), 64)
	if err != nil {
		return aq.Reading{}, errs.Wrap(err, "parse longitude")
	}
	measuredAt, err := time.Parse(time.RFC3339, field("measured_at"))
	if err != nil {
		return aq.Reading{}, errs.Wrap(err, "parse measured_at")
	}

	reading := aq.Reading{
		SensorID:   field("sensor_id"),
		Latitude:   latitude,
		Longitude:  longitude,
		MeasuredAt: measuredAt,
	}

	for name, target := range map[string]**float64{
		"pm25":        &reading.PM25,
		"pm10":        &reading.PM10,
		"temperature": &reading.Temperature,
		"humidity":    &reading.Humidity,
		"pressure":    &reading.Pressure,
	} {
		raw := field(name)
		if raw == "" {
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return aq.Reading{}, errs.Wrapf(err, "parse %s", name)
		}
		*target = &value
	}

	return reading, nil
}
