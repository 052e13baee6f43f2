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

// Package query holds the continuous queries of the pipeline. Every query owns its state: a window store and a
// watermark for the windowed queries, nothing but the watermark for the alert feed. A query is driven one
// micro-batch at a time by the scheduler: Merge folds the batch in, Finalize closes the windows the watermark
// has passed, and Output renders the payload handed to the query's sink. Snapshot and Restore move the complete
// state in and out of a checkpoint.
package query

import (
	"context"
	"time"

	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/observation"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/sinks"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/window/store"
)

// Query ids, also used as output and checkpoint directory names.
const (
	CriticalID  = "critical"
	AverageID   = "avg"
	AttentionID = "humidity"
	BaselineID  = "baselines"
)

// Query is one independently stateful continuous query.
type Query interface {
	// ID returns the query id.
	ID() string
	// Mode returns the output mode of the query.
	Mode() sinks.Mode
	// Prototype returns a pointer to the row type of Output.
	Prototype() any
	// AllowedLateness returns the allowed lateness of the watermark.
	AllowedLateness() time.Duration
	// Merge folds the observations of one batch into the state.
	Merge(ctx context.Context, batch []observation.Observation) (MergeResult, error)
	// Finalize closes every window due for the current watermark and returns the number of closed windows.
	Finalize(ctx context.Context) int
	// Output returns the sink payload of the last merged batch: its alert rows for an append query, the
	// complete view for a replace query.
	Output() []any
	// Snapshot returns the complete state.
	Snapshot() State
	// Restore replaces the state with a snapshot.
	Restore(State) error
	// Reset drops all state, as after a cold start.
	Reset()
}

// MergeResult summarizes a merge.
type MergeResult struct {
	// Merged is the number of window assignments, or alert rows, produced by the batch.
	Merged int
	// Late is the number of assignments dropped because their window was already finalized.
	Late int
	// Filtered is the number of observations the query does not select.
	Filtered int
}

// State is the checkpointed state of a query.
type State struct {
	// MaxEventTime is the largest event time observed, the watermark derives from it.
	MaxEventTime time.Time `json:"maxEventTime"`
	// Store is the open windows.
	Store store.Snapshot `json:"store"`
	// Finalized is the finalized windows still part of a replace view.
	Finalized []store.Entry `json:"finalized,omitempty"`
	// Origin is the earliest window start of a sliding query, zero if not started.
	Origin time.Time `json:"origin"`
}

func unixMilli(t time.Time) int64 {
	return t.UTC().UnixMilli()
}
