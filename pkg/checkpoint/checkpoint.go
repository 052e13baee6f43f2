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

// Package checkpoint persists, per query, the committed intake offset together with the serialized query state.
// It is the only source of truth for whether a batch has been processed by a query.
//
// Every query owns a directory holding two files:
//
//	checkpoint.json  the last committed batch: sequence number, offset and state
//	plan.json        the intake range of the batch being processed
//
// Both are replaced through a synced temp file and a rename, so a reader sees either the previous or the new
// content, never a partial write. A plan whose sequence number is past the checkpoint belongs to a batch that was
// interrupted before its commit; replaying exactly that range keeps batch boundaries identical across a restart.
package checkpoint

import (
	"errors"
	"fmt"
	"hash/crc32"
	"time"

	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/intake"
)

const (
	checkpointFile = "checkpoint.json"
	planFile       = "plan.json"
	corruptSuffix  = ".corrupt"

	// formatVersion is bumped on incompatible changes of the checkpoint layout.
	formatVersion = 1
)

var (
	// ErrCorrupted is returned when a checkpoint exists but cannot be trusted.
	ErrCorrupted = errors.New("checkpoint corrupted")
	// ErrNotFound is returned when a query has no checkpoint.
	ErrNotFound = errors.New("checkpoint not found")
)

// Record is the committed state of a query.
type Record struct {
	Version int    `json:"version"`
	QueryID string `json:"queryId"`
	// Seq is the sequence number of the last committed batch, 0 before the first commit.
	Seq int64 `json:"seq"`
	// Offset is the intake offset the batch was read through.
	Offset intake.Offset `json:"offset"`
	// State is the query state after the batch, opaque to the manager.
	State []byte `json:"state,omitempty"`
	// Checksum is the CRC-32 of State.
	Checksum    uint32    `json:"checksum"`
	RunID       string    `json:"runId,omitempty"`
	CommittedAt time.Time `json:"committedAt"`
}

// IsZero returns true for a cold start record.
func (r Record) IsZero() bool {
	return r.Seq == 0 && r.Offset.IsZero() && len(r.State) == 0
}

func (r Record) verify(queryID string) error {
	if r.Version != formatVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrCorrupted, r.Version)
	}
	if r.QueryID != queryID {
		return fmt.Errorf("%w: belongs to query %q", ErrCorrupted, r.QueryID)
	}
	if r.Seq < 0 || r.Offset.Seq < 0 {
		return fmt.Errorf("%w: negative sequence", ErrCorrupted)
	}
	if sum := calculateChecksum(r.State); sum != r.Checksum {
		return fmt.Errorf("%w: checksum mismatch, want %d got %d", ErrCorrupted, r.Checksum, sum)
	}
	return nil
}

// Plan is the intake range of a batch which has been started but not committed yet.
type Plan struct {
	QueryID string `json:"queryId"`
	// Seq is the sequence number of the planned batch.
	Seq int64 `json:"seq"`
	// After is the committed offset the batch starts from.
	After intake.Offset `json:"after"`
	// Through is the offset of the last file of the batch.
	Through   intake.Offset `json:"through"`
	PlannedAt time.Time     `json:"plannedAt"`
}

func calculateChecksum(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}
