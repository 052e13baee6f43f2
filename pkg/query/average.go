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
	"time"

	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/sinks"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/watermark"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/window/store"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/window/strategy/fixed"
)

// AverageWindow is the length of the rolling average windows.
const AverageWindow = time.Minute

// Average is the per station 1-minute tumbling average.
type Average struct {
	*windowed
}

var _ Query = (*Average)(nil)

// NewAverage returns the rolling average query. Finalized windows stay in the view until the watermark is
// retention past their end; zero retention keeps them forever.
func NewAverage(tracker *watermark.Tracker, allowedLateness, retention time.Duration, parallelism int) *Average {
	tracker.Register(AverageID, allowedLateness)
	return &Average{windowed: &windowed{
		id:          AverageID,
		lateness:    allowedLateness,
		retention:   retention,
		parallelism: parallelism,
		windower:    fixed.NewFixed(AverageWindow),
		tracker:     tracker,
		store:       store.NewStore(AverageID),
		prototype:   new(sinks.AverageRow),
		toRow: func(e store.Entry, final bool) any {
			return sinks.AverageRow{
				StationID:      e.Key.Group,
				Latitude:       e.Accumulator.Latitude(),
				Longitude:      e.Accumulator.Longitude(),
				AvgTemperature: e.Accumulator.AvgTemperature(),
				AvgHumidity:    e.Accumulator.AvgHumidity(),
				WindowStart:    unixMilli(e.Key.Window.Start),
				WindowEnd:      unixMilli(e.Key.Window.End),
				Readings:       e.Accumulator.Count,
				IsFinal:        final,
			}
		},
	}}
}
