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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/metrics"
)

// commitCount is the number of committed checkpoints
var commitCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Subsystem: "checkpoint",
	Name:      "commit_total",
	Help:      "Total number of committed checkpoints",
}, []string{metrics.LabelQuery})

// commitErrorCount is the number of failed checkpoint write attempts
var commitErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Subsystem: "checkpoint",
	Name:      "commit_error_total",
	Help:      "Total number of failed checkpoint write attempts",
}, []string{metrics.LabelQuery})

// corruptedCount is the number of checkpoints found corrupted on recovery
var corruptedCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Subsystem: "checkpoint",
	Name:      "corrupted_total",
	Help:      "Total number of checkpoints found corrupted on recovery",
}, []string{metrics.LabelQuery})

// committedSeq is the sequence number of the last committed batch
var committedSeq = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Subsystem: "checkpoint",
	Name:      "committed_seq",
	Help:      "Sequence number of the last committed batch",
}, []string{metrics.LabelQuery})

// checkpointSize is the size of the last committed checkpoint
var checkpointSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Subsystem: "checkpoint",
	Name:      "size_bytes",
	Help:      "Size of the last committed checkpoint in bytes",
}, []string{metrics.LabelQuery})
