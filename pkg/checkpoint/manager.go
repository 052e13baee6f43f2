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

package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/intake"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/shared/logging"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/shared/util"
)

// Manager reads and writes the checkpoints of every query under a root directory.
type Manager struct {
	root string
	// runID identifies the process which wrote a checkpoint
	runID          string
	backoff        wait.Backoff
	attemptTimeout time.Duration
	log            *zap.SugaredLogger
}

type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// WithRetry sets the backoff of checkpoint writes and the timeout of every attempt.
func WithRetry(backoff wait.Backoff, attemptTimeout time.Duration) Option {
	return func(m *Manager) {
		m.backoff = backoff
		m.attemptTimeout = attemptTimeout
	}
}

// WithRunID sets the run id recorded in every checkpoint.
func WithRunID(id string) Option {
	return func(m *Manager) {
		m.runID = id
	}
}

// NewManager returns a Manager keeping checkpoints under root.
func NewManager(root string, opts ...Option) (*Manager, error) {
	m := &Manager{
		root:           root,
		runID:          uuid.NewString(),
		backoff:        util.DefaultRetryBackoff,
		attemptTimeout: 10 * time.Second,
	}
	for _, o := range opts {
		o(m)
	}
	if m.log == nil {
		m.log = logging.NewLogger()
	}
	m.log = m.log.Named("checkpoint")
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory %q: %w", root, err)
	}
	return m, nil
}

func (m *Manager) queryDir(queryID string) string {
	return filepath.Join(m.root, queryID)
}

// Commit atomically records that the query processed batch seq through offset, leaving it in state. Transient
// write failures are retried; on error the previous checkpoint is left untouched.
func (m *Manager) Commit(ctx context.Context, queryID string, seq int64, offset intake.Offset, state []byte) error {
	rec := Record{
		Version:     formatVersion,
		QueryID:     queryID,
		Seq:         seq,
		Offset:      offset,
		State:       state,
		Checksum:    calculateChecksum(state),
		RunID:       m.runID,
		CommittedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint of query %s: %w", queryID, err)
	}
	path := filepath.Join(m.queryDir(queryID), checkpointFile)
	attempts, err := util.RetryWithBackoff(ctx, m.backoff, m.attemptTimeout, func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := util.AtomicWriteFile(path, data, 0644); err != nil {
			commitErrorCount.WithLabelValues(queryID).Inc()
			m.log.Warnw("Failed to write checkpoint, retrying", zap.String("query", queryID), zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to commit checkpoint of query %s batch %d after %d attempts: %w", queryID, seq, attempts, err)
	}
	commitCount.WithLabelValues(queryID).Inc()
	committedSeq.WithLabelValues(queryID).Set(float64(seq))
	checkpointSize.WithLabelValues(queryID).Set(float64(len(data)))
	return nil
}

// Recover returns the last committed record of the query, or a zero record carrying only the query id if the
// query never committed. A checkpoint that cannot be decoded or verified yields ErrCorrupted.
func (m *Manager) Recover(_ context.Context, queryID string) (Record, error) {
	rec, err := m.read(queryID)
	if errors.Is(err, ErrNotFound) {
		return Record{Version: formatVersion, QueryID: queryID}, nil
	}
	if err != nil {
		if errors.Is(err, ErrCorrupted) {
			corruptedCount.WithLabelValues(queryID).Inc()
		}
		return Record{}, err
	}
	committedSeq.WithLabelValues(queryID).Set(float64(rec.Seq))
	return rec, nil
}

func (m *Manager) read(queryID string) (Record, error) {
	path := filepath.Join(m.queryDir(queryID), checkpointFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to read checkpoint %q: %w", path, err)
	}
	var rec Record
	if err = json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("%w: %q: %v", ErrCorrupted, path, err)
	}
	if err = rec.verify(queryID); err != nil {
		return Record{}, fmt.Errorf("%q: %w", path, err)
	}
	return rec, nil
}

// Discard moves the checkpoint and the plan of a query aside, so the query restarts cold. The files are kept
// with a suffix for inspection.
func (m *Manager) Discard(queryID string) error {
	stamp := time.Now().UTC().Format("20060102T150405")
	for _, name := range []string{checkpointFile, planFile} {
		path := filepath.Join(m.queryDir(queryID), name)
		if err := os.Rename(path, path+corruptSuffix+"-"+stamp); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to discard %q: %w", path, err)
		}
	}
	m.log.Warnw("Discarded checkpoint, query restarts cold", zap.String("query", queryID))
	return nil
}

// Plan records the intake range of the batch about to be processed.
func (m *Manager) Plan(ctx context.Context, plan Plan) error {
	plan.PlannedAt = time.Now().UTC()
	data, err := json.Marshal(plan)
	if err != nil {
		return err
	}
	path := filepath.Join(m.queryDir(plan.QueryID), planFile)
	_, err = util.RetryWithBackoff(ctx, m.backoff, m.attemptTimeout, func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return util.AtomicWriteFile(path, data, 0644)
	})
	if err != nil {
		return fmt.Errorf("failed to write plan of query %s batch %d: %w", plan.QueryID, plan.Seq, err)
	}
	return nil
}

// PendingPlan returns the plan of the batch following committed if one was recorded and never committed, nil
// otherwise.
func (m *Manager) PendingPlan(queryID string, committed Record) (*Plan, error) {
	path := filepath.Join(m.queryDir(queryID), planFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var plan Plan
	if err = json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrCorrupted, path, err)
	}
	if plan.QueryID != queryID {
		return nil, fmt.Errorf("%w: %q belongs to query %q", ErrCorrupted, path, plan.QueryID)
	}
	if plan.Seq != committed.Seq+1 || plan.After != committed.Offset {
		// committed already, or left over from an older checkpoint
		return nil, nil
	}
	return &plan, nil
}

// Summary describes the checkpoint of one query.
type Summary struct {
	QueryID     string        `json:"queryId"`
	Seq         int64         `json:"seq"`
	Offset      intake.Offset `json:"offset"`
	CommittedAt time.Time     `json:"committedAt"`
	RunID       string        `json:"runId,omitempty"`
	StateBytes  int           `json:"stateBytes"`
	Pending     *Plan         `json:"pending,omitempty"`
	Err         string        `json:"error,omitempty"`
}

// List summarizes the checkpoints of every query found under the root, ordered by query id.
func (m *Manager) List() ([]Summary, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	summaries := make([]Summary, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() || util.IsHiddenOrTemp(e.Name()) {
			continue
		}
		s := Summary{QueryID: e.Name()}
		rec, err := m.read(e.Name())
		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			s.Err = err.Error()
		default:
			s.Seq, s.Offset, s.CommittedAt, s.RunID, s.StateBytes = rec.Seq, rec.Offset, rec.CommittedAt, rec.RunID, len(rec.State)
			if plan, err := m.PendingPlan(e.Name(), rec); err == nil {
				s.Pending = plan
			}
		}
		summaries = append(summaries, s)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].QueryID < summaries[j].QueryID
	})
	return summaries, nil
}
