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
	"context"
	"fmt"
	"time"

	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/observation"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/sinks"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/watermark"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/window"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/window/store"
)

// windowed is a grouped window aggregation with a replace-mode view. The view is made of the finalized windows
// still within retention followed by the open windows.
type windowed struct {
	id        string
	lateness  time.Duration
	retention time.Duration
	// parallelism is the number of merge writers
	parallelism int
	windower    window.Windower
	tracker     *watermark.Tracker
	store       *store.Store
	finalized   []store.Entry
	// selects returns false for observations the query ignores, nil selects everything
	selects func(observation.Observation) (bool, error)
	// beforeMerge is called with every non empty batch before its assignments are computed
	beforeMerge func([]observation.Observation)
	toRow       func(e store.Entry, final bool) any
	prototype   any
}

func (w *windowed) ID() string {
	return w.id
}

func (w *windowed) Mode() sinks.Mode {
	return sinks.Replace
}

func (w *windowed) Prototype() any {
	return w.prototype
}

func (w *windowed) AllowedLateness() time.Duration {
	return w.lateness
}

func (w *windowed) Merge(ctx context.Context, batch []observation.Observation) (MergeResult, error) {
	var result MergeResult
	if len(batch) == 0 {
		return result, nil
	}
	if w.beforeMerge != nil {
		w.beforeMerge(batch)
	}
	assignments := make([]store.Assignment, 0, len(batch))
	for _, o := range batch {
		if w.selects != nil {
			ok, err := w.selects(o)
			if err != nil {
				return result, fmt.Errorf("failed to evaluate filter of query %s: %w", w.id, err)
			}
			if !ok {
				result.Filtered++
				continue
			}
		}
		for _, win := range w.windower.AssignWindows(o.EventTime) {
			assignments = append(assignments, store.Assignment{
				Key:         store.Key{Query: w.id, Group: o.StationID, Window: win},
				Observation: o,
			})
		}
	}
	late, err := w.store.MergeAll(ctx, assignments, w.parallelism)
	if err != nil {
		return result, err
	}
	for _, o := range batch {
		w.tracker.Observe(w.id, o.EventTime)
	}
	observationsFilteredCount.WithLabelValues(w.id).Add(float64(result.Filtered))
	result.Merged = len(assignments) - late
	result.Late = late
	return result, nil
}

func (w *windowed) Finalize(context.Context) int {
	wm := w.tracker.CurrentWatermark(w.id)
	if time.Time(wm).Equal(time.Time(watermark.InitialWatermark)) {
		return 0
	}
	closed := w.store.FinalizeDue(wm)
	// windows close in end time order and never reopen, appending keeps the view sorted
	w.finalized = append(w.finalized, closed...)
	if w.retention > 0 {
		horizon := time.Time(wm).Add(-w.retention)
		kept := w.finalized[:0]
		for _, e := range w.finalized {
			if e.Key.Window.End.After(horizon) {
				kept = append(kept, e)
			}
		}
		w.finalized = kept
	}
	windowsFinalizedCount.WithLabelValues(w.id).Add(float64(len(closed)))
	return len(closed)
}

func (w *windowed) Output() []any {
	open := w.store.Entries()
	rows := make([]any, 0, len(w.finalized)+len(open))
	for _, e := range w.finalized {
		rows = append(rows, w.toRow(e, true))
	}
	for _, e := range open {
		rows = append(rows, w.toRow(e, false))
	}
	return rows
}

func (w *windowed) Snapshot() State {
	finalized := make([]store.Entry, len(w.finalized))
	copy(finalized, w.finalized)
	return State{
		MaxEventTime: w.tracker.MaxEventTime(w.id),
		Store:        w.store.Snapshot(),
		Finalized:    finalized,
	}
}

func (w *windowed) Restore(s State) error {
	for _, e := range s.Store.Entries {
		if e.Key.Query != "" && e.Key.Query != w.id {
			return fmt.Errorf("snapshot entry %s does not belong to query %s", e.Key, w.id)
		}
	}
	w.tracker.Restore(w.id, s.MaxEventTime)
	w.store.Restore(s.Store)
	w.finalized = make([]store.Entry, len(s.Finalized))
	copy(w.finalized, s.Finalized)
	return nil
}

func (w *windowed) Reset() {
	_ = w.Restore(State{})
}
