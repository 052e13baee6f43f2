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

	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/observation"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/sinks"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/watermark"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/window/store"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/window/strategy/sliding"
)

const (
	// BaselineLength is the length of a baseline window.
	BaselineLength = 7 * 24 * time.Hour
	// BaselineSlide is the slide of the baseline windows.
	BaselineSlide = time.Hour
)

// Baseline is the per station 7-day sliding baseline. Its windows start no earlier than the origin, the slide
// boundary of the earliest observation of the first batch, so a reading updates one window per hour elapsed since
// the query started, up to 168.
type Baseline struct {
	*windowed
	sliding *sliding.Sliding
}

var _ Query = (*Baseline)(nil)

// NewBaseline returns the baseline query.
func NewBaseline(tracker *watermark.Tracker, allowedLateness, retention time.Duration, parallelism int) *Baseline {
	tracker.Register(BaselineID, allowedLateness)
	s := sliding.NewSliding(BaselineLength, BaselineSlide)
	b := &Baseline{sliding: s}
	b.windowed = &windowed{
		id:          BaselineID,
		lateness:    allowedLateness,
		retention:   retention,
		parallelism: parallelism,
		windower:    s,
		tracker:     tracker,
		store:       store.NewStore(BaselineID),
		beforeMerge: b.startAt,
		prototype:   new(sinks.BaselineRow),
		toRow: func(e store.Entry, final bool) any {
			return sinks.BaselineRow{
				StationID:        e.Key.Group,
				AvgTemperature7d: e.Accumulator.AvgTemperature(),
				AvgHumidity7d:    e.Accumulator.AvgHumidity(),
				WindowStart:      unixMilli(e.Key.Window.Start),
				WindowEnd:        unixMilli(e.Key.Window.End),
				Readings:         e.Accumulator.Count,
				IsFinal:          final,
			}
		},
	}
	return b
}

// startAt sets the origin from the first batch.
func (b *Baseline) startAt(batch []observation.Observation) {
	if !b.sliding.Origin().IsZero() {
		return
	}
	earliest := batch[0].EventTime
	for _, o := range batch[1:] {
		if o.EventTime.Before(earliest) {
			earliest = o.EventTime
		}
	}
	b.sliding.SetOrigin(earliest)
}

// Origin returns the earliest window start, zero before the first batch.
func (b *Baseline) Origin() time.Time {
	return b.sliding.Origin()
}

func (b *Baseline) Snapshot() State {
	s := b.windowed.Snapshot()
	s.Origin = b.sliding.Origin()
	return s
}

func (b *Baseline) Restore(s State) error {
	if err := b.windowed.Restore(s); err != nil {
		return err
	}
	b.sliding.SetOrigin(s.Origin)
	return nil
}

func (b *Baseline) Reset() {
	_ = b.Restore(State{})
}
