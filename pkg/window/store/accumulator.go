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

package store

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/observation"
)

// FirstValue is a field value taken from the earliest observation carrying it.
type FirstValue struct {
	Value     float64   `json:"value"`
	EventTime time.Time `json:"eventTime"`
}

// earlier orders candidates by event time, then value, so that picking the smallest candidate does not depend
// on arrival order.
func (f FirstValue) earlier(o FirstValue) bool {
	if !f.EventTime.Equal(o.EventTime) {
		return f.EventTime.Before(o.EventTime)
	}
	return f.Value < o.Value
}

func (f *FirstValue) equal(o *FirstValue) bool {
	if f == nil || o == nil {
		return f == nil && o == nil
	}
	return f.Value == o.Value && f.EventTime.Equal(o.EventTime)
}

func firstOf(a, b *FirstValue) *FirstValue {
	if b == nil || (a != nil && !b.earlier(*a)) {
		return a
	}
	v := *b
	return &v
}

func firstValue(v *float64, at time.Time) *FirstValue {
	if v == nil {
		return nil
	}
	return &FirstValue{Value: *v, EventTime: at.UTC()}
}

// Accumulator is the partial aggregate of a window. Sums are kept in exact decimal arithmetic, so Add and
// Merge are associative and commutative: folding the same observations in any order yields an identical
// value. Accumulator is a value type; Add and Merge return new values.
//
// Latitude and longitude are tracked independently, each is the first non-null value of its own field.
type Accumulator struct {
	Count          int64           `json:"count"`
	SumTemperature decimal.Decimal `json:"sumTemperature"`
	SumHumidity    decimal.Decimal `json:"sumHumidity"`
	FirstLatitude  *FirstValue     `json:"firstLatitude,omitempty"`
	FirstLongitude *FirstValue     `json:"firstLongitude,omitempty"`
}

// Add folds one observation into the accumulator.
func (a Accumulator) Add(o observation.Observation) Accumulator {
	return a.Merge(Accumulator{
		Count:          1,
		SumTemperature: decimal.NewFromFloat(o.TemperatureC),
		SumHumidity:    decimal.NewFromFloat(o.HumidityPct),
		FirstLatitude:  firstValue(o.Latitude, o.EventTime),
		FirstLongitude: firstValue(o.Longitude, o.EventTime),
	})
}

// Merge combines two partial aggregates.
func (a Accumulator) Merge(b Accumulator) Accumulator {
	return Accumulator{
		Count:          a.Count + b.Count,
		SumTemperature: a.SumTemperature.Add(b.SumTemperature),
		SumHumidity:    a.SumHumidity.Add(b.SumHumidity),
		FirstLatitude:  firstOf(a.FirstLatitude, b.FirstLatitude),
		FirstLongitude: firstOf(a.FirstLongitude, b.FirstLongitude),
	}
}

// AvgTemperature returns the mean temperature, 0 for an empty accumulator.
func (a Accumulator) AvgTemperature() float64 {
	return mean(a.SumTemperature, a.Count)
}

// AvgHumidity returns the mean humidity, 0 for an empty accumulator.
func (a Accumulator) AvgHumidity() float64 {
	return mean(a.SumHumidity, a.Count)
}

// Latitude returns the first non-null latitude, nil if none was seen.
func (a Accumulator) Latitude() *float64 {
	return a.FirstLatitude.value()
}

// Longitude returns the first non-null longitude, nil if none was seen.
func (a Accumulator) Longitude() *float64 {
	return a.FirstLongitude.value()
}

func (f *FirstValue) value() *float64 {
	if f == nil {
		return nil
	}
	v := f.Value
	return &v
}

// Equal compares two accumulators by value.
func (a Accumulator) Equal(b Accumulator) bool {
	return a.Count == b.Count &&
		a.SumTemperature.Equal(b.SumTemperature) &&
		a.SumHumidity.Equal(b.SumHumidity) &&
		a.FirstLatitude.equal(b.FirstLatitude) &&
		a.FirstLongitude.equal(b.FirstLongitude)
}

func mean(sum decimal.Decimal, count int64) float64 {
	if count == 0 {
		return 0
	}
	f, _ := sum.Div(decimal.NewFromInt(count)).Float64()
	return f
}
