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

// Package intake discovers the observation batches deposited by the producer and exposes them as a restartable,
// monotonically advancing sequence. Every input file is one batch; file names are only used as sort keys. An
// Offset names the last consumed file, so resuming from a saved Offset yields exactly the files that sort after
// it, as long as the producer has not deleted them.
//
// Individual undecodable records are dropped and counted. A file whose every record is undecodable is retried on
// the following polls of the same consumer and skipped as a poison batch once the retry limit is reached, so one
// bad file never blocks the pipeline. A file that cannot be read is an I/O failure: it is retried with backoff and
// then reported, and is never skipped.
package intake

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/observation"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/shared/logging"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/shared/util"
)

// ErrPoisonBatch marks a batch that was skipped after exhausting the retries.
var ErrPoisonBatch = errors.New("poison batch")

// Offset is the position in the input sequence.
type Offset struct {
	// Seq is the number of input files consumed so far.
	Seq int64 `json:"seq"`
	// File is the name of the last consumed file, empty before the first one.
	File string `json:"file"`
}

// IsZero returns true before any file was consumed.
func (o Offset) IsZero() bool {
	return o.Seq == 0 && o.File == ""
}

func (o Offset) String() string {
	return fmt.Sprintf("%d:%s", o.Seq, o.File)
}

// Batch is one input file.
type Batch struct {
	// File is the name of the input file.
	File string
	// Offset is the offset after consuming this batch.
	Offset Offset
	// Observations are the decoded records in file order.
	Observations []observation.Observation
	// Malformed is the number of records dropped because they could not be decoded.
	Malformed int
	// Skipped is set if the file is a poison batch; it carries no observations.
	Skipped bool
}

type attemptKey struct {
	consumer string
	file     string
}

type decodedFile struct {
	observations []observation.Observation
	malformed    int
	filtered     int
}

// Intake reads the input directory. It is safe for concurrent use by the query workers.
type Intake struct {
	dir   string
	opts  *options
	log   *zap.SugaredLogger
	cache *lru.Cache[string, *decodedFile]

	lock sync.Mutex
	// attempts and poisoned are kept per consumer, so every query retries a bad file on its own ticks
	attempts map[attemptKey]int
	poisoned map[attemptKey]struct{}
	// listing is the cached sorted directory content, refreshed when dirty or older than the poll interval
	listing    []string
	listedAt   time.Time
	dirty      bool
	watcher    *fsnotify.Watcher
	watcherWg  sync.WaitGroup
	watcherErr error
	readDir    func(string) ([]os.DirEntry, error)
}

// NewIntake returns an Intake reading dir.
func NewIntake(dir string, opts ...Option) (*Intake, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logging.NewLogger()
	}
	cache, err := lru.New[string, *decodedFile](o.cacheSize)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create input directory %q: %w", dir, err)
	}
	return &Intake{
		dir:      dir,
		opts:     o,
		log:      o.logger.Named("intake"),
		cache:    cache,
		attempts: make(map[attemptKey]int),
		poisoned: make(map[attemptKey]struct{}),
		dirty:    true,
		readDir:  os.ReadDir,
	}, nil
}

// Start watches the input directory for new files until ctx is done. Without a running watcher the directory is
// listed on every poll.
func (in *Intake) Start(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err = w.Add(in.dir); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to watch %q: %w", in.dir, err)
	}
	in.lock.Lock()
	in.watcher = w
	in.lock.Unlock()

	in.watcherWg.Add(1)
	go func() {
		defer in.watcherWg.Done()
		defer func() {
			_ = w.Close()
			in.lock.Lock()
			in.watcher = nil
			in.dirty = true
			in.lock.Unlock()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Create|fsnotify.Rename|fsnotify.Write|fsnotify.Remove) != 0 {
					in.markDirty()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				in.log.Warnw("Input directory watcher error, falling back to listing on every poll", zap.Error(err))
				in.lock.Lock()
				in.watcherErr = err
				in.dirty = true
				in.lock.Unlock()
			}
		}
	}()
	in.log.Infow("Watching input directory", zap.String("dir", in.dir))
	return nil
}

// Wait blocks until the watcher started by Start has stopped.
func (in *Intake) Wait() {
	in.watcherWg.Wait()
}

// PollNewBatches returns up to limit batches following the offset, in order. A file which failed stops the
// sequence until it either succeeds or is skipped as poison, so no file is ever silently passed over. consumer
// identifies the caller; the poison retry limit is counted per consumer and file.
func (in *Intake) PollNewBatches(ctx context.Context, consumer string, after Offset, limit int) ([]Batch, error) {
	files, err := in.list()
	if err != nil {
		return nil, err
	}
	candidates := make([]string, 0)
	for _, f := range files {
		if f > after.File {
			candidates = append(candidates, f)
		}
		if limit > 0 && len(candidates) == limit {
			break
		}
	}
	return in.read(ctx, consumer, after, candidates, false)
}

// ReadRange returns the batches after the offset up to and including through. It replays a planned batch with the
// exact same boundaries: a file of the range that cannot be read fails the whole call, and a file whose content
// is undecodable is skipped right away since it was already skipped when the range was planned.
func (in *Intake) ReadRange(ctx context.Context, after Offset, through Offset) ([]Batch, error) {
	files, err := in.listFresh()
	if err != nil {
		return nil, err
	}
	candidates := make([]string, 0)
	for _, f := range files {
		if f > after.File && f <= through.File {
			candidates = append(candidates, f)
		}
	}
	return in.read(ctx, "", after, candidates, true)
}

func (in *Intake) read(ctx context.Context, consumer string, after Offset, files []string, replay bool) ([]Batch, error) {
	batches := make([]Batch, 0, len(files))
	offset := after
	for _, name := range files {
		select {
		case <-ctx.Done():
			return batches, ctx.Err()
		default:
		}
		offset = Offset{Seq: offset.Seq + 1, File: name}
		key := attemptKey{consumer: consumer, file: name}
		if !replay && in.isPoisoned(key) {
			batches = append(batches, Batch{File: name, Offset: offset, Skipped: true})
			continue
		}
		decoded, err := in.decodeFile(ctx, name)
		if err == nil {
			batches = append(batches, Batch{
				File:         name,
				Offset:       offset,
				Observations: decoded.observations,
				Malformed:    decoded.malformed,
			})
			continue
		}
		readErrorCount.Inc()
		if errors.Is(err, ErrPoisonBatch) && (replay || in.recordFailure(key)) {
			poisonBatchCount.Inc()
			in.log.Errorw("Skipping poison batch", zap.String("consumer", consumer), zap.String("file", name), zap.Error(err))
			batches = append(batches, Batch{File: name, Offset: offset, Skipped: true})
			continue
		}
		in.log.Warnw("Failed to read batch, will retry", zap.String("consumer", consumer), zap.String("file", name), zap.Error(err))
		// stop here, the following files are delivered after this one
		if replay || len(batches) == 0 {
			return nil, fmt.Errorf("failed to read %q: %w", name, err)
		}
		return batches, nil
	}
	return batches, nil
}

func (in *Intake) decodeFile(ctx context.Context, name string) (*decodedFile, error) {
	if d, ok := in.cache.Get(name); ok {
		return d, nil
	}
	var raw []byte
	path := filepath.Join(in.dir, name)
	if _, err := util.RetryWithBackoff(ctx, in.opts.readBackoff, 0, func(context.Context) error {
		var rerr error
		raw, rerr = os.ReadFile(path)
		return rerr
	}); err != nil {
		return nil, err
	}
	filesReadCount.Inc()
	d := &decodedFile{observations: make([]observation.Observation, 0)}
	var lastErr error
	lines := 0
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		lines++
		o, err := observation.Decode(line)
		if err != nil {
			d.malformed++
			lastErr = err
			continue
		}
		if len(in.opts.stations) > 0 {
			if _, ok := in.opts.stations[o.StationID]; !ok {
				d.filtered++
				continue
			}
		}
		d.observations = append(d.observations, o)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if lines > 0 && d.malformed == lines {
		return nil, fmt.Errorf("%w: none of the %d records could be decoded, last error: %v", ErrPoisonBatch, lines, lastErr)
	}
	if d.malformed > 0 {
		in.log.Warnw("Dropped malformed records", zap.String("file", name), zap.Int("malformed", d.malformed), zap.Error(lastErr))
		recordsDroppedCount.WithLabelValues("malformed").Add(float64(d.malformed))
	}
	if d.filtered > 0 {
		recordsDroppedCount.WithLabelValues("station").Add(float64(d.filtered))
	}
	recordsReadCount.Add(float64(len(d.observations)))
	in.cache.Add(name, d)
	return d, nil
}

// recordFailure counts a failed decode of the file by the consumer and returns true once it has to be skipped.
func (in *Intake) recordFailure(key attemptKey) bool {
	in.lock.Lock()
	defer in.lock.Unlock()
	in.attempts[key]++
	if in.attempts[key] >= in.opts.decodeRetryLimit {
		in.poisoned[key] = struct{}{}
		delete(in.attempts, key)
		return true
	}
	return false
}

func (in *Intake) isPoisoned(key attemptKey) bool {
	in.lock.Lock()
	defer in.lock.Unlock()
	_, ok := in.poisoned[key]
	return ok
}

func (in *Intake) list() ([]string, error) {
	in.lock.Lock()
	fresh := !in.dirty && in.watcher != nil && in.watcherErr == nil && time.Since(in.listedAt) < in.opts.pollInterval
	listing := in.listing
	in.lock.Unlock()
	if fresh {
		return listing, nil
	}
	return in.listFresh()
}

func (in *Intake) listFresh() ([]string, error) {
	// cleared before reading the directory, a change arriving during the read marks the listing dirty again
	in.lock.Lock()
	in.dirty = false
	in.lock.Unlock()
	entries, err := in.readDir(in.dir)
	if err != nil {
		in.markDirty()
		return nil, fmt.Errorf("failed to list input directory %q: %w", in.dir, err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || util.IsHiddenOrTemp(e.Name()) {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	in.lock.Lock()
	in.listing = files
	in.listedAt = time.Now()
	in.lock.Unlock()
	return files, nil
}

func (in *Intake) markDirty() {
	in.lock.Lock()
	in.dirty = true
	in.lock.Unlock()
}
