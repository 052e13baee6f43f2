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

// Package sinks defines where the queries deliver their output. A sink is handed the complete payload of one
// committed micro-batch together with the batch sequence number; writing the same sequence number twice must
// leave the output as if it had been written once.
package sinks

import (
	"context"
)

// Mode is the output mode of a sink.
type Mode int

const (
	// Append adds the rows of every batch to the output; the union of all writes is the full history.
	Append Mode = iota
	// Replace overwrites the output with the complete current view on every write.
	Replace
)

func (m Mode) String() string {
	switch m {
	case Append:
		return "append"
	case Replace:
		return "replace"
	default:
		return "unknown"
	}
}

// Sinker interface defines what a Sink should implement.
type Sinker interface {
	// Name returns the name of the sink, used in logs and metrics.
	Name() string
	// Mode returns the output mode.
	Mode() Mode
	// Write delivers the rows of batch seq. Rows must be values of the row type the sink was built for.
	Write(ctx context.Context, seq int64, rows []any) error
}
