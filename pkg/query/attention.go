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

	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/shared/expr"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/sinks"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/watermark"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/window/store"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/window/strategy/global"
)

// DefaultAttentionExpression selects the readings outside the healthy humidity band.
const DefaultAttentionExpression = "humidity < 45 || humidity > 75"

// Attention is the unwindowed running count, per station, of the readings selected by a predicate. All readings
// go to the single global window, which never closes, so the view only ever grows.
type Attention struct {
	*windowed
	predicate *expr.Predicate
}

var _ Query = (*Attention)(nil)

// NewAttention returns the attention query selecting the observations matching predicate.
func NewAttention(tracker *watermark.Tracker, allowedLateness time.Duration, predicate *expr.Predicate) *Attention {
	tracker.Register(AttentionID, allowedLateness)
	return &Attention{
		predicate: predicate,
		windowed: &windowed{
			id:          AttentionID,
			lateness:    allowedLateness,
			parallelism: 1,
			windower:    global.NewGlobal(),
			tracker:     tracker,
			store:       store.NewStore(AttentionID),
			selects:     predicate.EvalBool,
			prototype:   new(sinks.AttentionRow),
			toRow: func(e store.Entry, _ bool) any {
				return sinks.AttentionRow{
					StationID:        e.Key.Group,
					CriticalReadings: e.Accumulator.Count,
					Latitude:         e.Accumulator.Latitude(),
					Longitude:        e.Accumulator.Longitude(),
				}
			},
		},
	}
}

// Expression returns the selecting predicate.
func (a *Attention) Expression() string {
	return a.predicate.String()
}
