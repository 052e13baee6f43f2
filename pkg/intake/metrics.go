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

package intake

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/metrics"
)

// filesReadCount is the number of input files read and decoded from disk
var filesReadCount = promauto.NewCounter(prometheus.CounterOpts{
	Subsystem: "intake",
	Name:      "files_read_total",
	Help:      "Total number of input files read from disk",
})

// recordsReadCount is the number of decoded observations
var recordsReadCount = promauto.NewCounter(prometheus.CounterOpts{
	Subsystem: "intake",
	Name:      "records_read_total",
	Help:      "Total number of decoded observations",
})

// recordsDroppedCount is the number of records dropped at intake
var recordsDroppedCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Subsystem: "intake",
	Name:      "records_dropped_total",
	Help:      "Total number of records dropped at intake",
}, []string{metrics.LabelReason})

// poisonBatchCount is the number of batches skipped after exhausting the retries
var poisonBatchCount = promauto.NewCounter(prometheus.CounterOpts{
	Subsystem: "intake",
	Name:      "poison_batches_total",
	Help:      "Total number of input files skipped because none of their records could be decoded",
})

// readErrorCount is the number of failed attempts to read or decode an input file
var readErrorCount = promauto.NewCounter(prometheus.CounterOpts{
	Subsystem: "intake",
	Name:      "read_error_total",
	Help:      "Total number of failed attempts to read or decode an input file",
})
