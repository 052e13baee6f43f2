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

package sliding

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/window"
)

func TestSliding_AssignWindows(t *testing.T) {
	baseTime := time.Unix(600, 0).UTC()

	tests := []struct {
		name      string
		length    time.Duration
		slide     time.Duration
		eventTime time.Time
		expected  []window.Window
	}{
		{
			name:      "length divisible by slide",
			length:    time.Minute,
			slide:     20 * time.Second,
			eventTime: baseTime.Add(10 * time.Second),
			expected: []window.Window{
				window.NewWindow(time.Unix(560, 0), time.Unix(620, 0)),
				window.NewWindow(time.Unix(580, 0), time.Unix(640, 0)),
				window.NewWindow(time.Unix(600, 0), time.Unix(660, 0)),
			},
		},
		{
			name:      "length not divisible by slide",
			length:    time.Minute,
			slide:     40 * time.Second,
			eventTime: baseTime.Add(10 * time.Second),
			expected: []window.Window{
				window.NewWindow(time.Unix(560, 0), time.Unix(620, 0)),
				window.NewWindow(time.Unix(600, 0), time.Unix(660, 0)),
			},
		},
		{
			name:      "element eq end time",
			length:    time.Minute,
			slide:     20 * time.Second,
			eventTime: baseTime.Add(time.Minute),
			expected: []window.Window{
				window.NewWindow(time.Unix(620, 0), time.Unix(680, 0)),
				window.NewWindow(time.Unix(640, 0), time.Unix(700, 0)),
				window.NewWindow(time.Unix(660, 0), time.Unix(720, 0)),
			},
		},
		{
			name:      "element on left",
			length:    time.Minute,
			slide:     20 * time.Second,
			eventTime: baseTime.Add(-time.Nanosecond),
			expected: []window.Window{
				window.NewWindow(time.Unix(540, 0), time.Unix(600, 0)),
				window.NewWindow(time.Unix(560, 0), time.Unix(620, 0)),
				window.NewWindow(time.Unix(580, 0), time.Unix(640, 0)),
			},
		},
		{
			name:      "element on a window boundary",
			length:    time.Minute,
			slide:     20 * time.Second,
			eventTime: baseTime.Add(20 * time.Second),
			expected: []window.Window{
				window.NewWindow(time.Unix(580, 0), time.Unix(640, 0)),
				window.NewWindow(time.Unix(600, 0), time.Unix(660, 0)),
				window.NewWindow(time.Unix(620, 0), time.Unix(680, 0)),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSliding(tt.length, tt.slide)
			got := s.AssignWindows(tt.eventTime)
			assert.Equal(t, tt.expected, got)
			for _, w := range got {
				assert.True(t, w.Contains(tt.eventTime))
			}
		})
	}
}

func TestSliding_Origin(t *testing.T) {
	origin := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	s := NewSliding(7*24*time.Hour, time.Hour)
	s.SetOrigin(origin.Add(25 * time.Minute))
	assert.True(t, s.Origin().Equal(origin))
	assert.Equal(t, 168, s.MaxWindows())

	tests := []struct {
		name      string
		eventTime time.Time
		expected  int
	}{
		{name: "first hour", eventTime: origin.Add(10 * time.Minute), expected: 1},
		{name: "sixth hour", eventTime: origin.Add(5*time.Hour + 30*time.Minute), expected: 6},
		{name: "last hour of first week", eventTime: origin.Add(167*time.Hour + time.Minute), expected: 168},
		{name: "well past a week", eventTime: origin.Add(200 * time.Hour), expected: 168},
		{name: "before origin", eventTime: origin.Add(-time.Minute), expected: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.AssignWindows(tt.eventTime)
			assert.Len(t, got, tt.expected)
			for _, w := range got {
				assert.True(t, w.Contains(tt.eventTime))
				assert.False(t, w.Start.Before(origin))
			}
		})
	}

	s.SetOrigin(time.Time{})
	assert.Len(t, s.AssignWindows(origin.Add(10*time.Minute)), 168)
}
