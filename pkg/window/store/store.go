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

// Package store implements the window state store: keyed accumulator storage mapping (query, group, window) to a
// partial aggregate. Windows are tracked in a list ordered by end time so that the windows due for a watermark are
// found without scanning every key. A window, once finalized, is never reopened: late assignments to a window
// ending at or before the last finalization watermark are dropped and counted.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/spaolacci/murmur3"
	"golang.org/x/sync/errgroup"

	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/observation"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/watermark"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/window"
)

// ErrLateData is returned by Merge for an assignment to an already finalized window.
var ErrLateData = errors.New("window already finalized")

// Key identifies one accumulator.
type Key struct {
	Query  string        `json:"query"`
	Group  string        `json:"group"`
	Window window.Window `json:"window"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Query, k.Group, k.Window.ID())
}

// Assignment is one observation assigned to one key.
type Assignment struct {
	Key         Key
	Observation observation.Observation
}

// Entry is an accumulator together with its key.
type Entry struct {
	Key         Key         `json:"key"`
	Accumulator Accumulator `json:"accumulator"`
}

// Snapshot is the serializable state of a Store.
type Snapshot struct {
	Entries          []Entry   `json:"entries"`
	FinalizedThrough time.Time `json:"finalizedThrough"`
}

type entry struct {
	// mu serializes merges into the same key
	mu  sync.Mutex
	key Key
	acc Accumulator
}

// Store holds the accumulators of a single query. Only the owning query mutates it.
type Store struct {
	query string
	// lock guards entries, groups, windows and finalizedThrough; the accumulator of an entry is guarded by
	// the entry's own mutex.
	lock    sync.RWMutex
	entries map[string]*entry
	// groups maps a window id to the groups having an accumulator in it
	groups  map[string]map[string]struct{}
	windows *window.SortedWindowListByEndTime
	// finalizedThrough is the watermark of the last finalization pass
	finalizedThrough time.Time
}

// NewStore returns an empty store for the query.
func NewStore(query string) *Store {
	return &Store{
		query:   query,
		entries: make(map[string]*entry),
		groups:  make(map[string]map[string]struct{}),
		windows: window.NewSortedWindowListByEndTime(),
	}
}

// Merge folds the observation into the accumulator of key and returns the updated accumulator. Merge is safe to
// call concurrently, calls for the same key are serialized.
func (s *Store) Merge(key Key, o observation.Observation) (Accumulator, error) {
	e, err := s.getOrCreate(key)
	if err != nil {
		lateDroppedCount.WithLabelValues(s.query).Inc()
		return Accumulator{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.acc = e.acc.Add(o)
	return e.acc, nil
}

func (s *Store) getOrCreate(key Key) (*entry, error) {
	id := key.String()
	s.lock.RLock()
	e, ok := s.entries[id]
	late := !key.Window.End.After(s.finalizedThrough)
	s.lock.RUnlock()
	if ok {
		return e, nil
	}
	if late {
		return nil, fmt.Errorf("%w: %s", ErrLateData, id)
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	if e, ok = s.entries[id]; ok {
		return e, nil
	}
	if !key.Window.End.After(s.finalizedThrough) {
		return nil, fmt.Errorf("%w: %s", ErrLateData, id)
	}
	e = &entry{key: key}
	s.entries[id] = e
	wid := key.Window.ID()
	if _, ok := s.groups[wid]; !ok {
		s.groups[wid] = make(map[string]struct{})
		s.windows.InsertIfNotPresent(key.Window)
	}
	s.groups[wid][key.Group] = struct{}{}
	openWindowsGauge.WithLabelValues(s.query).Set(float64(len(s.entries)))
	return e, nil
}

// MergeAll merges the assignments using up to parallelism writers. Assignments are sharded by group, so every key
// has a single writer and the per group order of the assignments is preserved. Late assignments are counted and
// skipped; the number of dropped assignments is returned.
func (s *Store) MergeAll(ctx context.Context, assignments []Assignment, parallelism int) (int, error) {
	if parallelism < 1 {
		parallelism = 1
	}
	shards := make([][]Assignment, parallelism)
	for _, a := range assignments {
		i := murmur3.Sum32([]byte(a.Key.Group)) % uint32(parallelism)
		shards[i] = append(shards[i], a)
	}

	dropped := make([]int, parallelism)
	g, gCtx := errgroup.WithContext(ctx)
	for i := range shards {
		i := i
		if len(shards[i]) == 0 {
			continue
		}
		g.Go(func() error {
			for _, a := range shards[i] {
				select {
				case <-gCtx.Done():
					return gCtx.Err()
				default:
				}
				if _, err := s.Merge(a.Key, a.Observation); err != nil {
					if errors.Is(err, ErrLateData) {
						dropped[i]++
						continue
					}
					return err
				}
			}
			return nil
		})
	}
	err := g.Wait()
	total := 0
	for _, d := range dropped {
		total += d
	}
	return total, err
}

// WindowsDueFor returns every key whose window ends at or before the watermark and is not finalized yet.
func (s *Store) WindowsDueFor(wm watermark.Watermark) []Key {
	s.lock.RLock()
	defer s.lock.RUnlock()
	due := make([]Key, 0)
	for _, w := range s.windows.WindowsEndingBy(time.Time(wm)) {
		for group := range s.groups[w.ID()] {
			due = append(due, Key{Query: s.query, Group: group, Window: w})
		}
	}
	sortKeys(due)
	return due
}

// Finalize evicts the key and returns its final accumulator; false if the key is unknown.
func (s *Store) Finalize(key Key) (Accumulator, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.evictLocked(key)
}

func (s *Store) evictLocked(key Key) (Accumulator, bool) {
	id := key.String()
	e, ok := s.entries[id]
	if !ok {
		return Accumulator{}, false
	}
	delete(s.entries, id)
	wid := key.Window.ID()
	if groups, ok := s.groups[wid]; ok {
		delete(groups, key.Group)
		if len(groups) == 0 {
			delete(s.groups, wid)
			s.windows.Delete(key.Window)
		}
	}
	openWindowsGauge.WithLabelValues(s.query).Set(float64(len(s.entries)))
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.acc, true
}

// FinalizeDue finalizes every window due for the watermark and records the watermark, so later assignments to
// those windows are dropped as late.
func (s *Store) FinalizeDue(wm watermark.Watermark) []Entry {
	due := s.WindowsDueFor(wm)
	s.lock.Lock()
	defer s.lock.Unlock()
	finalized := make([]Entry, 0, len(due))
	for _, key := range due {
		if acc, ok := s.evictLocked(key); ok {
			finalized = append(finalized, Entry{Key: key, Accumulator: acc})
		}
	}
	if t := time.Time(wm); t.After(s.finalizedThrough) {
		s.finalizedThrough = t.UTC()
	}
	return finalized
}

// FinalizedThrough returns the watermark of the last finalization pass.
func (s *Store) FinalizedThrough() time.Time {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.finalizedThrough
}

// Get returns the current accumulator of key.
func (s *Store) Get(key Key) (Accumulator, bool) {
	s.lock.RLock()
	e, ok := s.entries[key.String()]
	s.lock.RUnlock()
	if !ok {
		return Accumulator{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.acc, true
}

// Len returns the number of open accumulators.
func (s *Store) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.entries)
}

// Entries returns all open accumulators ordered by window end, window start and group.
func (s *Store) Entries() []Entry {
	s.lock.RLock()
	defer s.lock.RUnlock()
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		e.mu.Lock()
		out = append(out, Entry{Key: e.key, Accumulator: e.acc})
		e.mu.Unlock()
	}
	sortEntries(out)
	return out
}

// Snapshot returns the serializable state of the store.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Entries:          s.Entries(),
		FinalizedThrough: s.FinalizedThrough(),
	}
}

// Restore replaces the content of the store with the snapshot.
func (s *Store) Restore(snapshot Snapshot) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.entries = make(map[string]*entry, len(snapshot.Entries))
	s.groups = make(map[string]map[string]struct{})
	s.windows = window.NewSortedWindowListByEndTime()
	s.finalizedThrough = snapshot.FinalizedThrough.UTC()
	for _, se := range snapshot.Entries {
		key := se.Key
		key.Query = s.query
		key.Window = window.NewWindow(key.Window.Start, key.Window.End)
		s.entries[key.String()] = &entry{key: key, acc: se.Accumulator}
		wid := key.Window.ID()
		if _, ok := s.groups[wid]; !ok {
			s.groups[wid] = make(map[string]struct{})
			s.windows.InsertIfNotPresent(key.Window)
		}
		s.groups[wid][key.Group] = struct{}{}
	}
	openWindowsGauge.WithLabelValues(s.query).Set(float64(len(s.entries)))
}

func sortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool {
		return lessKey(keys[i], keys[j])
	})
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return lessKey(entries[i].Key, entries[j].Key)
	})
}

func lessKey(a, b Key) bool {
	if !a.Window.End.Equal(b.Window.End) {
		return a.Window.End.Before(b.Window.End)
	}
	if !a.Window.Start.Equal(b.Window.Start) {
		return a.Window.Start.Before(b.Window.Start)
	}
	return a.Group < b.Group
}
