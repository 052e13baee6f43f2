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

package engine

// State is the state of a query worker.
type State int32

const (
	// Recovering is the entry state: the worker restores the query from its checkpoint.
	Recovering State = iota
	// Idle waits for the next tick.
	Idle
	// Fetching reads the next batch from intake.
	Fetching
	// Merging folds the batch into the query state.
	Merging
	// Finalizing closes the windows passed by the watermark.
	Finalizing
	// Committing writes the sink output and then the checkpoint. A worker stays in Committing until both
	// succeeded.
	Committing
)

func (s State) String() string {
	switch s {
	case Recovering:
		return "Recovering"
	case Idle:
		return "Idle"
	case Fetching:
		return "Fetching"
	case Merging:
		return "Merging"
	case Finalizing:
		return "Finalizing"
	case Committing:
		return "Committing"
	default:
		return "Unknown"
	}
}
