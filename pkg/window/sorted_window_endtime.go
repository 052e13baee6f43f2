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

package window

import (
	"sort"
	"sync"
	"time"
)

// SortedWindowListByEndTime is a thread safe list implementation, which is sorted by window end time
// from lowest to highest. Windows with the same end time are kept once.
type SortedWindowListByEndTime struct {
	windows []Window
	lock    *sync.RWMutex
}

// NewSortedWindowListByEndTime implements a window list ordered by the end time. The Front/Head of the list will always have the smallest
// element while the End/Tail will have the largest element (end time).
func NewSortedWindowListByEndTime() *SortedWindowListByEndTime {
	return &SortedWindowListByEndTime{
		windows: make([]Window, 0),
		lock:    &sync.RWMutex{},
	}
}

// InsertIfNotPresent inserts a window to the list of active windows if not present and returns true if it was already present.
func (s *SortedWindowListByEndTime) InsertIfNotPresent(window Window) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	// Find the index where the window should be inserted
	index := sort.Search(len(s.windows), func(i int) bool {
		return !s.windows[i].End.Before(window.End)
	})

	updatedIndex := len(s.windows)

	// Check if the window is already present in the list
	for i := index; i < len(s.windows); i++ {
		if s.windows[i].ID() == window.ID() {
			return true
		}
		// windows with the same end time are ordered by start time
		if s.windows[i].End.After(window.End) || s.windows[i].Start.After(window.Start) {
			updatedIndex = i
			break
		}
	}

	// Insert the window at the correct position
	s.windows = append(s.windows, window)
	copy(s.windows[updatedIndex+1:], s.windows[updatedIndex:])
	s.windows[updatedIndex] = window

	return false
}

// Delete deletes a window from the list.
func (s *SortedWindowListByEndTime) Delete(window Window) (deleted bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	index := sort.Search(len(s.windows), func(i int) bool {
		return !s.windows[i].End.Before(window.End)
	})

	for i := index; i < len(s.windows); i++ {
		if s.windows[i].ID() == window.ID() {
			s.windows = append(s.windows[:i], s.windows[i+1:]...)
			return true
		}
		if s.windows[i].End.After(window.End) {
			break
		}
	}
	return false
}

// WindowsEndingBy returns, without removing them, the windows whose end time is smaller than or equal to the given time.
func (s *SortedWindowListByEndTime) WindowsEndingBy(t time.Time) []Window {
	s.lock.RLock()
	defer s.lock.RUnlock()

	index := sort.Search(len(s.windows), func(i int) bool {
		return s.windows[i].End.After(t)
	})
	due := make([]Window, index)
	copy(due, s.windows[:index])
	return due
}

// RemoveWindows removes a set of windows smaller than or equal to the given time.
func (s *SortedWindowListByEndTime) RemoveWindows(t time.Time) []Window {
	s.lock.Lock()
	defer s.lock.Unlock()

	// Find the index of the first window that should not be removed
	index := sort.Search(len(s.windows), func(i int) bool {
		return s.windows[i].End.After(t)
	})

	removed := make([]Window, index)
	copy(removed, s.windows[:index])
	s.windows = s.windows[index:]

	return removed
}

// Len returns the length of the window.
func (s *SortedWindowListByEndTime) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.windows)
}

// Front returns the smallest element from the list.
func (s *SortedWindowListByEndTime) Front() (Window, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if len(s.windows) == 0 {
		return Window{}, false
	}
	return s.windows[0], true
}

// Items returns the entire window list.
func (s *SortedWindowListByEndTime) Items() []Window {
	s.lock.RLock()
	defer s.lock.RUnlock()

	items := make([]Window, len(s.windows))
	copy(items, s.windows)

	return items
}
