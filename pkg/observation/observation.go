/*
Copyright 2022 The Numaproj Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package observation defines the canonical sensor observation record and its newline-delimited JSON
// encoding as deposited by the producer.
package observation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/goccy/go-json"
)

// ErrMalformed is returned for records that cannot be turned into an Observation.
var ErrMalformed = errors.New("malformed observation")

// Observation is an immutable, normalized reading of one station.
type Observation struct {
	StationID    string
	TemperatureC float64
	HumidityPct  float64
	EventTime    time.Time
	// Latitude and Longitude are nil when the producer had no geometry.
	Latitude  *float64
	Longitude *float64
}

// HasCoordinates returns true if both latitude and longitude are present.
func (o Observation) HasCoordinates() bool {
	return o.Latitude != nil && o.Longitude != nil
}

func (o Observation) String() string {
	return fmt.Sprintf("%s@%s(t=%.2f,h=%.2f)", o.StationID, o.EventTime.Format(time.RFC3339), o.TemperatureC, o.HumidityPct)
}

// record is the wire shape.
type record struct {
	StationID   string   `json:"station_id"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	Timestamp   *string  `json:"timestamp"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// Decode parses a single NDJSON line.
func Decode(line []byte) (Observation, error) {
	var r record
	if err := json.Unmarshal(line, &r); err != nil {
		return Observation{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	stationID := strings.TrimSpace(r.StationID)
	switch {
	case stationID == "":
		return Observation{}, fmt.Errorf("%w: missing station_id", ErrMalformed)
	case r.Temperature == nil:
		return Observation{}, fmt.Errorf("%w: missing temperature", ErrMalformed)
	case r.Humidity == nil:
		return Observation{}, fmt.Errorf("%w: missing humidity", ErrMalformed)
	case r.Timestamp == nil || strings.TrimSpace(*r.Timestamp) == "":
		return Observation{}, fmt.Errorf("%w: missing timestamp", ErrMalformed)
	}
	eventTime, err := dateparse.ParseIn(strings.TrimSpace(*r.Timestamp), time.UTC)
	if err != nil {
		return Observation{}, fmt.Errorf("%w: timestamp %q: %v", ErrMalformed, *r.Timestamp, err)
	}
	return Observation{
		StationID:    stationID,
		TemperatureC: *r.Temperature,
		HumidityPct:  *r.Humidity,
		EventTime:    eventTime.UTC(),
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
	}, nil
}

// Encode renders the observation as one NDJSON line without the trailing newline.
func Encode(o Observation) ([]byte, error) {
	ts := o.EventTime.UTC().Format(time.RFC3339Nano)
	t, h := o.TemperatureC, o.HumidityPct
	return json.Marshal(record{
		StationID:   o.StationID,
		Temperature: &t,
		Humidity:    &h,
		Timestamp:   &ts,
		Latitude:    o.Latitude,
		Longitude:   o.Longitude,
	})
}

// Float returns a pointer to v, handy for optional coordinates.
func Float(v float64) *float64 {
	return &v
}
