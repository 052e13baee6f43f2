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

package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/metrics"
)

// lateDroppedCount is the number of window assignments dropped because the window was already finalized
var lateDroppedCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Subsystem: "window_store",
	Name:      "late_dropped_total",
	Help:      "Total number of window assignments dropped because the window was already finalized",
}, []string{metrics.LabelQuery})

// openWindowsGauge is the number of open accumulators
var openWindowsGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Subsystem: "window_store",
	Name:      "open_accumulators",
	Help:      "Number of open (not finalized) accumulators",
}, []string{metrics.LabelQuery})
