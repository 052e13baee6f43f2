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

package query

import (
	"context"
	"time"

	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/observation"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/sinks"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/watermark"
)

// Severities of the alert feed.
const (
	SeverityExcessiveHeat = "Excessive Heat"
	SeverityHeatAdvisory  = "Heat Advisory"
	SeverityExtremeCold   = "Extreme Cold Warning"
	SeverityWindChill     = "Wind Chill Alert"

	ReasonHeat = "Heat advisory threshold (≥32°C)"
	ReasonCold = "Wind chill threshold (≤-12°C)"
)

// Classify returns the severity and alert reason of a temperature; false if the temperature raises no alert,
// which is the case for -12 < temperature < 32.
func Classify(temperature float64) (severity string, reason string, ok bool) {
	switch {
	case temperature >= 40:
		return SeverityExcessiveHeat, ReasonHeat, true
	case temperature >= 32:
		return SeverityHeatAdvisory, ReasonHeat, true
	case temperature <= -18:
		return SeverityExtremeCold, ReasonCold, true
	case temperature <= -12:
		return SeverityWindChill, ReasonCold, true
	default:
		return "", "", false
	}
}

// HeatIndex returns the apparent temperature in °C from the Rothfusz style regression. It is only defined for
// temperature >= 27 and humidity >= 40; false otherwise.
func HeatIndex(t, h float64) (float64, bool) {
	if t < 27 || h < 40 {
		return 0, false
	}
	return -8.784695 +
		1.61139411*t +
		2.338549*h -
		0.14611605*t*h -
		0.012308094*t*t -
		0.016424828*h*h +
		0.002211732*t*t*h +
		0.00072546*t*h*h -
		0.000003582*t*t*h*h, true
}

// Critical is the append-only alert feed. It is not windowed; every qualifying observation becomes exactly one
// row, emitted with the batch that carried it.
type Critical struct {
	lateness time.Duration
	tracker  *watermark.Tracker
	rows     []any
}

var _ Query = (*Critical)(nil)

// NewCritical returns the alert query.
func NewCritical(tracker *watermark.Tracker, allowedLateness time.Duration) *Critical {
	tracker.Register(CriticalID, allowedLateness)
	return &Critical{lateness: allowedLateness, tracker: tracker}
}

func (c *Critical) ID() string {
	return CriticalID
}

func (c *Critical) Mode() sinks.Mode {
	return sinks.Append
}

func (c *Critical) Prototype() any {
	return new(sinks.CriticalRow)
}

func (c *Critical) AllowedLateness() time.Duration {
	return c.lateness
}

// Merge classifies the batch; the rows replace those of the previous batch.
func (c *Critical) Merge(ctx context.Context, batch []observation.Observation) (MergeResult, error) {
	var result MergeResult
	rows := make([]any, 0)
	for _, o := range batch {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		c.tracker.Observe(CriticalID, o.EventTime)
		severity, reason, ok := Classify(o.TemperatureC)
		if !ok {
			result.Filtered++
			continue
		}
		row := sinks.CriticalRow{
			StationID:   o.StationID,
			Temperature: o.TemperatureC,
			Humidity:    o.HumidityPct,
			Timestamp:   unixMilli(o.EventTime),
			Latitude:    o.Latitude,
			Longitude:   o.Longitude,
			Severity:    severity,
			AlertReason: reason,
		}
		if hi, ok := HeatIndex(o.TemperatureC, o.HumidityPct); ok {
			row.HeatIndexC = &hi
		}
		rows = append(rows, row)
		alertCount.WithLabelValues(severity).Inc()
	}
	observationsFilteredCount.WithLabelValues(CriticalID).Add(float64(result.Filtered))
	result.Merged = len(rows)
	c.rows = rows
	return result, nil
}

// Finalize is a no-op, alerts are final when emitted.
func (c *Critical) Finalize(context.Context) int {
	return 0
}

func (c *Critical) Output() []any {
	return c.rows
}

func (c *Critical) Snapshot() State {
	return State{MaxEventTime: c.tracker.MaxEventTime(CriticalID)}
}

func (c *Critical) Restore(s State) error {
	c.tracker.Restore(CriticalID, s.MaxEventTime)
	c.rows = nil
	return nil
}

func (c *Critical) Reset() {
	_ = c.Restore(State{})
}
