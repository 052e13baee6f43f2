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

package expr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/observation"
)

func obs(humidity float64) observation.Observation {
	return observation.Observation{
		StationID:    "KCVG",
		TemperatureC: 21.5,
		HumidityPct:  humidity,
		EventTime:    time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
	}
}

func Test_eval_string(t *testing.T) {
	t.Run("test string", func(t *testing.T) {
		assert.Equal(t, "a", _string("a"))
	})

	t.Run("test bytes", func(t *testing.T) {
		assert.Equal(t, "a", _string([]byte("a")))
	})

	t.Run("test default", func(t *testing.T) {
		assert.Equal(t, "444", _string(444))
	})
}

func Test_eval_int(t *testing.T) {
	t.Run("test string", func(t *testing.T) {
		assert.Equal(t, 1, _int("1"))
	})

	t.Run("test string panic", func(t *testing.T) {
		assert.Panics(t, func() { _int("") })
	})

	t.Run("test float", func(t *testing.T) {
		assert.Equal(t, 1, _int(float64(1.2)))
	})

	t.Run("test default panic", func(t *testing.T) {
		assert.Panics(t, func() { _int(time.Second) })
	})
}

func Test_eval_getFuncMap(t *testing.T) {
	m := getFuncMap(obs(50))
	assert.Equal(t, "KCVG", m["station_id"])
	assert.Equal(t, 50.0, m["humidity"])
	assert.Equal(t, false, m["has_coordinates"])
	assert.Contains(t, m, "sprig")
	assert.Contains(t, m, "int")
	assert.Contains(t, m, "string")
}

func TestPredicate_EvalBool(t *testing.T) {
	p, err := CompileBool("humidity < 45 || humidity > 75")
	require.NoError(t, err)
	assert.Equal(t, "humidity < 45 || humidity > 75", p.String())

	tests := []struct {
		humidity float64
		want     bool
	}{
		{humidity: 44.9, want: true},
		{humidity: 45, want: false},
		{humidity: 60, want: false},
		{humidity: 75, want: false},
		{humidity: 80, want: true},
	}
	for _, tt := range tests {
		got, err := p.EvalBool(obs(tt.humidity))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "humidity %v", tt.humidity)
	}

	t.Run("coordinates", func(t *testing.T) {
		p, err := CompileBool(`has_coordinates && latitude > 30`)
		require.NoError(t, err)
		o := obs(50)
		ok, err := p.EvalBool(o)
		require.NoError(t, err)
		assert.False(t, ok)
		o.Latitude, o.Longitude = observation.Float(39.04), observation.Float(-84.66)
		ok, err = p.EvalBool(o)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestCompileBool_Invalid(t *testing.T) {
	_, err := CompileBool(`humidity +`)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unable to compile expression")

	_, err = CompileBool(`humidity + 1`)
	assert.Error(t, err)
}
