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

// Package sliding implements Sliding windows. Sliding windows are defined by a static window size
// e.g. minutely windows or hourly windows and a fixed "slide". This is the duration by which the boundaries
// of the windows move once every <slide> duration.
// An optional origin bounds the windows from the left: no window starts before the origin, so a freshly
// started aggregation only grows one new window per slide until it reaches Length/Slide overlapping windows.
package sliding

import (
	"time"

	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/window"
)

// Sliding implements sliding windows
type Sliding struct {
	// Length is the duration of the window
	Length time.Duration
	// offset between successive windows.
	// successive windows are phased out by this duration.
	Slide time.Duration
	// origin is the earliest allowed window start, truncated to the slide. Zero means unbounded.
	origin time.Time
}

var _ window.Windower = (*Sliding)(nil)

// NewSliding returns a Sliding windower
func NewSliding(length time.Duration, slide time.Duration) *Sliding {
	return &Sliding{
		Length: length,
		Slide:  slide,
	}
}

func (s *Sliding) Strategy() window.Strategy {
	return window.Sliding
}

// SetOrigin bounds window starts to the slide boundary at or before origin.
func (s *Sliding) SetOrigin(origin time.Time) {
	if origin.IsZero() {
		s.origin = time.Time{}
		return
	}
	s.origin = s.alignedStart(origin)
}

// Origin returns the current origin, zero if unbounded.
func (s *Sliding) Origin() time.Time {
	return s.origin
}

// MaxWindows returns the number of windows a single element belongs to once the origin is far enough behind.
func (s *Sliding) MaxWindows() int {
	n := int(s.Length / s.Slide)
	if s.Length%s.Slide != 0 {
		n++
	}
	return n
}

// use the highest integer multiple of slide length which is less than the eventTime
// as the start time for the window. For example if the eventTime is 810 and slide
// length is 70, use 770 as the startTime of the window. In that way we can be guarantee
// consistency while assigning the messages to the windows.
func (s *Sliding) alignedStart(eventTime time.Time) time.Time {
	return time.UnixMilli((eventTime.UnixMilli() / s.Slide.Milliseconds()) * s.Slide.Milliseconds()).UTC()
}

// AssignWindows returns the set of windows that contain the element based on event time, ordered by start time.
func (s *Sliding) AssignWindows(eventTime time.Time) []window.Window {
	windows := make([]window.Window, 0, s.MaxWindows())

	startTime := s.alignedStart(eventTime)
	endTime := startTime.Add(s.Length)

	// startTime and endTime will be the largest timestamp window for the given eventTime,
	// using that we can create other windows by subtracting the slide length

	// since there is overlap at the boundaries
	// we attribute the element to the window to the right (higher)
	// of the boundary
	// left inclusive and right exclusive
	// so given windows 500-600 and 600-700 and the event time is 600
	// we will add the element to 600-700 window and not to the 500-600 window.
	for !startTime.After(eventTime) && endTime.After(eventTime) {
		if !s.origin.IsZero() && startTime.Before(s.origin) {
			break
		}
		windows = append(windows, window.NewWindow(startTime, endTime))
		startTime = startTime.Add(-s.Slide)
		endTime = endTime.Add(-s.Slide)
	}

	// earliest window first
	for i, j := 0, len(windows)-1; i < j; i, j = i+1, j-1 {
		windows[i], windows[j] = windows[j], windows[i]
	}
	return windows
}
