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

package sinks

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const labelSink = "sink"

// writeCount is the number of successful sink writes
var writeCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Subsystem: "sink",
	Name:      "write_total",
	Help:      "Total number of successful sink writes",
}, []string{labelSink})

// writeErrorCount is the number of failed sink write attempts
var writeErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Subsystem: "sink",
	Name:      "write_error_total",
	Help:      "Total number of failed sink write attempts",
}, []string{labelSink})

// rowsWrittenCount is the number of rows handed to the sinks
var rowsWrittenCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Subsystem: "sink",
	Name:      "rows_written_total",
	Help:      "Total number of rows written to the sinks",
}, []string{labelSink})

// writeDuration is the latency of a successful sink write
var writeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Subsystem: "sink",
	Name:      "write_time",
	Help:      "Processing times of sink writes (100 microseconds to 20 minutes)",
	Buckets:   prometheus.ExponentialBucketsRange(100, 60000000*20, 10),
}, []string{labelSink})
