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

package window

import (
	"fmt"
	"math"
	"time"
)

// Window is a half-open event-time interval [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewWindow returns the window [start, end) in UTC.
func NewWindow(start, end time.Time) Window {
	return Window{Start: start.UTC(), End: end.UTC()}
}

// GlobalWindow is the single window of the Global strategy. It spans the whole representable timeline, so no
// watermark ever closes it.
var GlobalWindow = Window{Start: time.Unix(0, 0).UTC(), End: time.Unix(0, math.MaxInt64).UTC()}

func (w Window) StartTime() time.Time {
	return w.Start
}

func (w Window) EndTime() time.Time {
	return w.End
}

// Contains returns true if t falls in [Start, End).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// ID uniquely identifies the window by its boundaries.
func (w Window) ID() string {
	return fmt.Sprintf("%d-%d", w.Start.UnixMilli(), w.End.UnixMilli())
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}

// Windower assigns event times to windows.
type Windower interface {
	// Strategy returns the window strategy
	Strategy() Strategy
	// AssignWindows returns every window the event time belongs to.
	AssignWindows(eventTime time.Time) []Window
}

// Strategy represents the windowing strategy
type Strategy int

const (
	Fixed Strategy = iota
	Sliding
	Global
)

func (s Strategy) String() string {
	switch s {
	case Fixed:
		return "Fixed"
	case Sliding:
		return "Sliding"
	case Global:
		return "Global"
	default:
		return "Unknown"
	}
}
