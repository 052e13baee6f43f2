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
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/observation"
)

var testBaseTime = time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)

func testObservations() []observation.Observation {
	return []observation.Observation{
		{StationID: "KCVG", TemperatureC: 20.1, HumidityPct: 50.3, EventTime: testBaseTime.Add(10 * time.Second)},
		{StationID: "KCVG", TemperatureC: 34.7, HumidityPct: 60.1, EventTime: testBaseTime.Add(20 * time.Second), Latitude: observation.Float(39.04), Longitude: observation.Float(-84.67)},
		{StationID: "KCVG", TemperatureC: -15.3, HumidityPct: 80.9, EventTime: testBaseTime.Add(30 * time.Second), Latitude: observation.Float(39.05), Longitude: observation.Float(-84.6)},
		{StationID: "KCVG", TemperatureC: 0.1, HumidityPct: 0.2, EventTime: testBaseTime.Add(20 * time.Second), Latitude: observation.Float(38.9), Longitude: observation.Float(-84.7)},
		{StationID: "KCVG", TemperatureC: 1e-7, HumidityPct: 99.99, EventTime: testBaseTime.Add(40 * time.Second)},
	}
}

func TestAccumulator_OrderIndependent(t *testing.T) {
	obs := testObservations()
	var want Accumulator
	for _, o := range obs {
		want = want.Add(o)
	}

	r := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		shuffled := append([]observation.Observation(nil), obs...)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		var got Accumulator
		for _, o := range shuffled {
			got = got.Add(o)
		}
		assert.True(t, want.Equal(got), "permutation %d: got %+v, want %+v", i, got, want)
	}
}

func TestAccumulator_MergeAssociative(t *testing.T) {
	obs := testObservations()
	var a, b, c Accumulator
	a = a.Add(obs[0]).Add(obs[1])
	b = b.Add(obs[2])
	c = c.Add(obs[3]).Add(obs[4])

	left := a.Merge(b).Merge(c)
	right := a.Merge(b.Merge(c))
	assert.True(t, left.Equal(right))
	assert.True(t, left.Equal(c.Merge(a).Merge(b)))
	assert.Equal(t, int64(5), left.Count)
}

func TestAccumulator_Averages(t *testing.T) {
	var acc Accumulator
	assert.Equal(t, 0.0, acc.AvgTemperature())
	assert.Nil(t, acc.Latitude())

	acc = acc.Add(observation.Observation{StationID: "KCVG", TemperatureC: 20, HumidityPct: 50, EventTime: testBaseTime})
	acc = acc.Add(observation.Observation{StationID: "KCVG", TemperatureC: 34, HumidityPct: 60, EventTime: testBaseTime.Add(time.Second)})
	acc = acc.Add(observation.Observation{StationID: "KCVG", TemperatureC: -15, HumidityPct: 80, EventTime: testBaseTime.Add(2 * time.Second)})
	assert.InDelta(t, 13.0, acc.AvgTemperature(), 1e-9)
	assert.InDelta(t, 63.333333333, acc.AvgHumidity(), 1e-6)
}

func TestAccumulator_FirstCoordinates(t *testing.T) {
	obs := testObservations()
	var acc Accumulator
	for _, o := range []observation.Observation{obs[2], obs[0], obs[1], obs[3]} {
		acc = acc.Add(o)
	}
	// obs[1] and obs[3] share the earliest event time carrying coordinates, the smaller value wins
	if assert.NotNil(t, acc.Latitude()) {
		assert.Equal(t, 38.9, *acc.Latitude())
		assert.Equal(t, -84.7, *acc.Longitude())
	}
}

func TestAccumulator_CoordinatesTrackedPerField(t *testing.T) {
	onlyLat := observation.Observation{StationID: "KCVG", EventTime: testBaseTime, Latitude: observation.Float(39.04)}
	onlyLon := observation.Observation{StationID: "KCVG", EventTime: testBaseTime.Add(time.Second), Longitude: observation.Float(-84.67)}
	both := observation.Observation{StationID: "KCVG", EventTime: testBaseTime.Add(2 * time.Second), Latitude: observation.Float(40.1), Longitude: observation.Float(-85.2)}

	var forward, backward Accumulator
	forward = forward.Add(onlyLat).Add(onlyLon).Add(both)
	backward = backward.Add(both).Add(onlyLon).Add(onlyLat)
	for _, acc := range []Accumulator{forward, backward} {
		if assert.NotNil(t, acc.Latitude()) && assert.NotNil(t, acc.Longitude()) {
			assert.Equal(t, 39.04, *acc.Latitude())
			assert.Equal(t, -84.67, *acc.Longitude())
		}
	}
	assert.True(t, forward.Equal(backward))

	var latOnly Accumulator
	latOnly = latOnly.Add(onlyLat)
	assert.NotNil(t, latOnly.Latitude())
	assert.Nil(t, latOnly.Longitude())
	assert.False(t, latOnly.Equal(forward))
}
