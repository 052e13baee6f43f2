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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/metrics"
)

// tickDuration is the processing time of a query tick which consumed a batch
var tickDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Subsystem: "engine",
	Name:      "tick_processing_time",
	Help:      "Processing times of query ticks (100 microseconds to 20 minutes)",
	Buckets:   prometheus.ExponentialBucketsRange(100, 60000000*20, 10),
}, []string{metrics.LabelQuery})

// batchesCommitted is the number of committed batches
var batchesCommitted = promauto.NewCounterVec(prometheus.CounterOpts{
	Subsystem: "engine",
	Name:      "batches_committed_total",
	Help:      "Total number of committed batches",
}, []string{metrics.LabelQuery})

// recordsProcessed is the number of observations fed to a query
var recordsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Subsystem: "engine",
	Name:      "records_processed_total",
	Help:      "Total number of observations fed to the query",
}, []string{metrics.LabelQuery})

// queryFaults is the number of failed ticks by the step that failed
var queryFaults = promauto.NewCounterVec(prometheus.CounterOpts{
	Subsystem: "engine",
	Name:      "query_faults_total",
	Help:      "Total number of failed query ticks",
}, []string{metrics.LabelQuery, metrics.LabelReason})

// queryState is the current state of the query worker
var queryState = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Subsystem: "engine",
	Name:      "query_state",
	Help:      "Current state of the query worker (0 Recovering, 1 Idle, 2 Fetching, 3 Merging, 4 Finalizing, 5 Committing)",
}, []string{metrics.LabelQuery})

// coldRestarts is the number of times a query restarted from scratch because of a corrupted checkpoint
var coldRestarts = promauto.NewCounterVec(prometheus.CounterOpts{
	Subsystem: "engine",
	Name:      "cold_restarts_total",
	Help:      "Total number of cold restarts caused by corrupted checkpoints",
}, []string{metrics.LabelQuery})
