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

package query

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/metrics"
)

// alertCount is the number of alert rows produced by the critical query
var alertCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Subsystem: "query",
	Name:      "alerts_total",
	Help:      "Total number of alert rows produced",
}, []string{"severity"})

// windowsFinalizedCount is the number of windows finalized
var windowsFinalizedCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Subsystem: "query",
	Name:      "windows_finalized_total",
	Help:      "Total number of finalized windows",
}, []string{metrics.LabelQuery})

// observationsFilteredCount is the number of observations not selected by a query
var observationsFilteredCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Subsystem: "query",
	Name:      "observations_filtered_total",
	Help:      "Total number of observations not selected by the query",
}, []string{metrics.LabelQuery})
