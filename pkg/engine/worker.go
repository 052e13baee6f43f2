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

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/checkpoint"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/intake"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/observation"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/query"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/sinks"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/watermark"
)

// Source is the record intake feeding the queries.
type Source interface {
	// PollNewBatches returns up to limit batches after the offset for the named consumer.
	PollNewBatches(ctx context.Context, consumer string, after intake.Offset, limit int) ([]intake.Batch, error)
	// ReadRange returns the batches after the offset through the given one.
	ReadRange(ctx context.Context, after intake.Offset, through intake.Offset) ([]intake.Batch, error)
}

// pendingCommit is a processed batch whose output or checkpoint has not been written yet.
type pendingCommit struct {
	seq     int64
	through intake.Offset
	rows    []any
	state   []byte
	// written is set once the sink accepted the rows
	written bool
}

// worker drives a single query. Ticks of one worker never overlap.
type worker struct {
	query       query.Query
	sink        sinks.Sinker
	source      Source
	checkpoints *checkpoint.Manager
	tracker     *watermark.Tracker
	opts        *options
	log         *zap.SugaredLogger

	state       atomic.Int32
	busy        atomic.Bool
	recovered   atomic.Bool
	hasPending  atomic.Bool
	failures    atomic.Int64
	lastErr     atomic.String
	lateDropped atomic.Int64

	lock      sync.RWMutex
	committed checkpoint.Record

	// plan and pending are only used by the tick in progress
	plan    *checkpoint.Plan
	pending *pendingCommit
}

func newWorker(q query.Query, sink sinks.Sinker, source Source, checkpoints *checkpoint.Manager, tracker *watermark.Tracker, opts *options) *worker {
	w := &worker{
		query:       q,
		sink:        sink,
		source:      source,
		checkpoints: checkpoints,
		tracker:     tracker,
		opts:        opts,
		log:         opts.logger.With(zap.String("query", q.ID())),
	}
	w.setState(Recovering)
	return w
}

func (w *worker) setState(s State) {
	w.state.Store(int32(s))
	queryState.WithLabelValues(w.query.ID()).Set(float64(s))
}

func (w *worker) currentState() State {
	return State(w.state.Load())
}

func (w *worker) committedRecord() checkpoint.Record {
	w.lock.RLock()
	defer w.lock.RUnlock()
	return w.committed
}

func (w *worker) setCommitted(seq int64, offset intake.Offset) {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.committed.Seq = seq
	w.committed.Offset = offset
}

func (w *worker) fault(reason string, err error) {
	w.failures.Inc()
	w.lastErr.Store(err.Error())
	queryFaults.WithLabelValues(w.query.ID(), reason).Inc()
	w.log.Errorw("Query tick failed", zap.String("step", reason), zap.Int64("consecutiveFailures", w.failures.Load()), zap.Error(err))
}

func (w *worker) succeeded() {
	w.failures.Store(0)
	w.lastErr.Store("")
}

// tick runs one pass of the state machine: recover if needed, finish a pending commit, then fetch, merge,
// finalize and commit the next batch.
func (w *worker) tick(ctx context.Context) error {
	if w.currentState() == Recovering {
		if err := w.recover(ctx); err != nil {
			w.fault("recover", err)
			return err
		}
	}
	if w.pending != nil {
		// the state already contains the pending batch, it must be committed before anything else is read
		if err := w.commit(ctx); err != nil {
			return err
		}
	}

	start := time.Now()
	w.setState(Fetching)
	committed := w.committedRecord()
	batches, err := w.fetch(ctx, committed)
	if err != nil {
		w.setState(Idle)
		w.fault("fetch", err)
		return err
	}
	if len(batches) == 0 {
		w.setState(Idle)
		return nil
	}
	seq := committed.Seq + 1
	through := batches[len(batches)-1].Offset
	if w.plan == nil {
		if err = w.checkpoints.Plan(ctx, checkpoint.Plan{QueryID: w.query.ID(), Seq: seq, After: committed.Offset, Through: through}); err != nil {
			w.setState(Idle)
			w.fault("plan", err)
			return err
		}
	}

	w.setState(Merging)
	observations, skipped := flatten(batches)
	res, err := w.query.Merge(ctx, observations)
	if err != nil {
		// the state may hold part of the batch, start over from the checkpoint
		w.setState(Recovering)
		w.fault("merge", err)
		return err
	}
	recordsProcessed.WithLabelValues(w.query.ID()).Add(float64(len(observations)))
	w.lateDropped.Add(int64(res.Late))

	w.setState(Finalizing)
	closed := w.query.Finalize(ctx)

	w.setState(Committing)
	state, err := json.Marshal(w.query.Snapshot())
	if err != nil {
		w.setState(Recovering)
		w.fault("snapshot", err)
		return err
	}
	w.pending = &pendingCommit{seq: seq, through: through, rows: w.query.Output(), state: state}
	w.hasPending.Store(true)
	w.plan = nil
	if err = w.commit(ctx); err != nil {
		return err
	}
	tickDuration.WithLabelValues(w.query.ID()).Observe(float64(time.Since(start).Microseconds()))
	w.log.Infow("Committed batch",
		zap.Int64("seq", seq),
		zap.String("offset", through.String()),
		zap.Int("files", len(batches)),
		zap.Int("skipped", skipped),
		zap.Int("observations", len(observations)),
		zap.Int("late", res.Late),
		zap.Int("finalized", closed),
		zap.String("watermark", w.tracker.CurrentWatermark(w.query.ID()).String()))
	return nil
}

func (w *worker) fetch(ctx context.Context, committed checkpoint.Record) ([]intake.Batch, error) {
	if w.plan == nil {
		return w.source.PollNewBatches(ctx, w.query.ID(), committed.Offset, w.opts.maxFilesPerTrigger)
	}
	batches, err := w.source.ReadRange(ctx, committed.Offset, w.plan.Through)
	if err != nil {
		return nil, err
	}
	if len(batches) == 0 || batches[len(batches)-1].Offset != w.plan.Through {
		w.log.Warnw("Planned batch cannot be replayed exactly, input files are missing",
			zap.Int64("seq", w.plan.Seq), zap.String("through", w.plan.Through.String()), zap.Int("found", len(batches)))
		if len(batches) == 0 {
			w.plan = nil
			return w.source.PollNewBatches(ctx, w.query.ID(), committed.Offset, w.opts.maxFilesPerTrigger)
		}
	}
	w.log.Infow("Replaying planned batch", zap.Int64("seq", w.plan.Seq), zap.String("through", w.plan.Through.String()))
	return batches, nil
}

// commit writes the pending output, then the checkpoint. The checkpoint only advances after the output was
// accepted; a failure keeps the batch pending so the next tick retries the same payload.
func (w *worker) commit(ctx context.Context) error {
	p := w.pending
	w.setState(Committing)
	if !p.written {
		if err := sinks.WriteWithRetry(ctx, w.sink, p.seq, p.rows, w.opts.sinkBackoff, w.opts.sinkTimeout); err != nil {
			w.fault("sink", err)
			return err
		}
		p.written = true
	}
	if err := w.checkpoints.Commit(ctx, w.query.ID(), p.seq, p.through, p.state); err != nil {
		w.fault("checkpoint", err)
		return err
	}
	w.setCommitted(p.seq, p.through)
	w.pending = nil
	w.hasPending.Store(false)
	batchesCommitted.WithLabelValues(w.query.ID()).Inc()
	w.setState(Idle)
	w.succeeded()
	return nil
}

// recover restores the query from its checkpoint. A corrupted checkpoint restarts this query cold.
func (w *worker) recover(ctx context.Context) error {
	id := w.query.ID()
	rec, err := w.checkpoints.Recover(ctx, id)
	if err == nil && len(rec.State) > 0 {
		err = w.restore(rec.State)
	}
	if errors.Is(err, checkpoint.ErrCorrupted) {
		w.log.Errorw("Checkpoint cannot be used, restarting the query from the beginning of the input", zap.Error(err))
		if derr := w.checkpoints.Discard(id); derr != nil {
			return multierr.Append(err, derr)
		}
		coldRestarts.WithLabelValues(id).Inc()
		rec, err = checkpoint.Record{QueryID: id}, nil
	}
	if err != nil {
		return err
	}
	if len(rec.State) == 0 {
		w.query.Reset()
	}

	plan, err := w.checkpoints.PendingPlan(id, rec)
	if err != nil {
		w.log.Warnw("Ignoring unreadable batch plan", zap.Error(err))
		plan = nil
	}
	w.plan = plan
	w.pending = nil
	w.hasPending.Store(false)
	w.setCommitted(rec.Seq, rec.Offset)
	w.recovered.Store(true)
	w.setState(Idle)
	w.succeeded()
	w.log.Infow("Recovered query",
		zap.Int64("seq", rec.Seq),
		zap.String("offset", rec.Offset.String()),
		zap.Bool("replaying", plan != nil),
		zap.String("watermark", w.tracker.CurrentWatermark(id).String()))
	return nil
}

func (w *worker) restore(data []byte) error {
	var state query.State
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("%w: undecodable state: %v", checkpoint.ErrCorrupted, err)
	}
	if err := w.query.Restore(state); err != nil {
		return fmt.Errorf("%w: %v", checkpoint.ErrCorrupted, err)
	}
	return nil
}

func (w *worker) status() Status {
	committed := w.committedRecord()
	return Status{
		Query:               w.query.ID(),
		State:               w.currentState().String(),
		Seq:                 committed.Seq,
		Offset:              committed.Offset,
		Watermark:           w.tracker.CurrentWatermark(w.query.ID()).String(),
		PendingCommit:       w.hasPending.Load(),
		LastError:           w.lastErr.Load(),
		ConsecutiveFailures: w.failures.Load(),
		LateDropped:         w.lateDropped.Load(),
	}
}

func flatten(batches []intake.Batch) ([]observation.Observation, int) {
	n, skipped := 0, 0
	for _, b := range batches {
		n += len(b.Observations)
		if b.Skipped {
			skipped++
		}
	}
	observations := make([]observation.Observation, 0, n)
	for _, b := range batches {
		observations = append(observations, b.Observations...)
	}
	return observations, skipped
}
