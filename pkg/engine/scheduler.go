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

// Package engine implements the micro-batch scheduler. One scheduling loop drives every query; on each tick the
// loop hands every idle query worker its next pass, so a slow query delays nothing but itself, while the passes of
// one query stay strictly sequential.
//
// A worker moves through Idle -> Fetching -> Merging -> Finalizing -> Committing -> Idle, and enters through
// Recovering, which restores the query from its checkpoint. The checkpoint is the only record of progress that
// survives a restart: nothing is trusted from memory across one.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/checkpoint"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/intake"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/query"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/shared/logging"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/sinks"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/watermark"
)

// Pipeline is a query together with the sink receiving its output.
type Pipeline struct {
	Query query.Query
	Sink  sinks.Sinker
}

// Status is the externally visible state of a query.
type Status struct {
	Query               string        `json:"query"`
	State               string        `json:"state"`
	Seq                 int64         `json:"seq"`
	Offset              intake.Offset `json:"offset"`
	Watermark           string        `json:"watermark"`
	PendingCommit       bool          `json:"pendingCommit"`
	LastError           string        `json:"lastError,omitempty"`
	ConsecutiveFailures int64         `json:"consecutiveFailures"`
	LateDropped         int64         `json:"lateDropped"`
}

// Scheduler runs the queries.
type Scheduler struct {
	workers []*worker
	opts    *options
	log     *zap.SugaredLogger
	running sync.WaitGroup
}

// NewScheduler returns a Scheduler for the pipelines, reading from source and checkpointing with checkpoints.
func NewScheduler(source Source, checkpoints *checkpoint.Manager, tracker *watermark.Tracker, pipelines []Pipeline, opts ...Option) (*Scheduler, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logging.NewLogger()
	}
	o.logger = o.logger.Named("scheduler")
	if len(pipelines) == 0 {
		return nil, fmt.Errorf("no queries configured")
	}
	seen := make(map[string]struct{}, len(pipelines))
	workers := make([]*worker, 0, len(pipelines))
	for _, p := range pipelines {
		id := p.Query.ID()
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("query %q configured twice", id)
		}
		seen[id] = struct{}{}
		if p.Sink.Mode() != p.Query.Mode() {
			return nil, fmt.Errorf("query %q needs a %s sink, got %s", id, p.Query.Mode(), p.Sink.Mode())
		}
		workers = append(workers, newWorker(p.Query, p.Sink, source, checkpoints, tracker, o))
	}
	return &Scheduler{workers: workers, opts: o, log: o.logger}, nil
}

// Start runs the scheduling loop until ctx is done. On shutdown no new pass is started, and the passes in
// progress run to completion, including their commit, before Start returns.
func (s *Scheduler) Start(ctx context.Context) error {
	s.log.Infow("Starting scheduler", zap.Duration("tick", s.opts.tickInterval), zap.Int("queries", len(s.workers)),
		zap.Int("maxFilesPerTrigger", s.opts.maxFilesPerTrigger))
	ticker := time.NewTicker(s.opts.tickInterval)
	defer ticker.Stop()
	s.dispatch(ctx)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("Context done, waiting for the running passes to commit")
			s.running.Wait()
			s.log.Info("Scheduler stopped")
			return nil
		case <-ticker.C:
			s.dispatch(ctx)
		}
	}
}

// TickAll runs one pass of every idle worker and waits for all running passes.
func (s *Scheduler) TickAll(ctx context.Context) {
	s.dispatch(ctx)
	s.running.Wait()
}

// dispatch starts a pass on every worker that is not busy with the previous one. Passes do not inherit the
// cancellation of ctx so that a shutdown never interrupts a commit.
func (s *Scheduler) dispatch(ctx context.Context) {
	passCtx := logging.WithLogger(context.WithoutCancel(ctx), s.log)
	for _, w := range s.workers {
		if !w.busy.CompareAndSwap(false, true) {
			continue
		}
		s.running.Add(1)
		go func(w *worker) {
			defer s.running.Done()
			defer w.busy.Store(false)
			_ = w.tick(passCtx)
		}(w)
	}
}

// Statuses returns the status of every query in configuration order.
func (s *Scheduler) Statuses() []Status {
	statuses := make([]Status, 0, len(s.workers))
	for _, w := range s.workers {
		statuses = append(statuses, w.status())
	}
	return statuses
}

// Ready returns an error until every query finished its first recovery.
func (s *Scheduler) Ready() error {
	for _, w := range s.workers {
		if !w.recovered.Load() {
			return fmt.Errorf("query %s is recovering", w.query.ID())
		}
	}
	return nil
}
