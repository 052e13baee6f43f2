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

// Package window implements windowing constructs. In the world of data processing on an unbounded stream, Windowing
// is a concept of grouping data using temporal boundaries. We use event-time to discover temporal boundaries on an
// unbounded, infinite stream and Watermark to ensure the datasets within the boundaries are complete. An aggregation
// can be applied on this group of data.
//
// Windows are of different types; the ones used here are Fixed (tumbling) windows, Sliding windows, and a Global
// window which never closes and is used for unwindowed running aggregates.
//
// Window boundaries are truncated to the nearest multiple of the window length (or slide), so one minute windows
// always start at the 0th second. Windows are half-open, [start, end): an element exactly on a boundary belongs to
// the window to the right of the boundary.
package window
