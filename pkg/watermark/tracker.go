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

// Package watermark derives, per query, the point in event time before which no more data is expected.
// The watermark of a query is max(event time observed) - allowed lateness and never moves backwards, no matter
// how skewed the clocks of the stations are or in which order their observations arrive.
package watermark

import (
	"sync"
	"time"
)

type progress struct {
	allowedLateness time.Duration
	maxEventTime    time.Time
}

func (p *progress) watermark() Watermark {
	if p.maxEventTime.IsZero() {
		return InitialWatermark
	}
	return Watermark(p.maxEventTime.Add(-p.allowedLateness))
}

// Tracker tracks the watermark of every registered query.
type Tracker struct {
	lock    sync.RWMutex
	queries map[string]*progress
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		queries: make(map[string]*progress),
	}
}

// Register sets the allowed lateness of a query. Registering an already known query only updates its lateness.
func (t *Tracker) Register(queryID string, allowedLateness time.Duration) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if p, ok := t.queries[queryID]; ok {
		p.allowedLateness = allowedLateness
		return
	}
	t.queries[queryID] = &progress{allowedLateness: allowedLateness}
}

// Observe moves the maximum event time of the query forward.
func (t *Tracker) Observe(queryID string, eventTime time.Time) {
	t.lock.Lock()
	defer t.lock.Unlock()
	p, ok := t.queries[queryID]
	if !ok {
		p = &progress{}
		t.queries[queryID] = p
	}
	if eventTime.After(p.maxEventTime) {
		p.maxEventTime = eventTime.UTC()
		watermarkGauge.WithLabelValues(queryID).Set(float64(p.watermark().UnixMilli()))
	}
}

// CurrentWatermark returns max event time - allowed lateness, or InitialWatermark when nothing was observed.
func (t *Tracker) CurrentWatermark(queryID string) Watermark {
	t.lock.RLock()
	defer t.lock.RUnlock()
	if p, ok := t.queries[queryID]; ok {
		return p.watermark()
	}
	return InitialWatermark
}

// MaxEventTime returns the largest event time observed for the query.
func (t *Tracker) MaxEventTime(queryID string) time.Time {
	t.lock.RLock()
	defer t.lock.RUnlock()
	if p, ok := t.queries[queryID]; ok {
		return p.maxEventTime
	}
	return time.Time{}
}

// Restore resets the query to a checkpointed max event time. Unlike Observe it may move the watermark back,
// it is only meant for recovery.
func (t *Tracker) Restore(queryID string, maxEventTime time.Time) {
	t.lock.Lock()
	defer t.lock.Unlock()
	p, ok := t.queries[queryID]
	if !ok {
		p = &progress{}
		t.queries[queryID] = p
	}
	p.maxEventTime = maxEventTime.UTC()
	watermarkGauge.WithLabelValues(queryID).Set(float64(p.watermark().UnixMilli()))
}
