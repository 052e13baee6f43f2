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

package generator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// generatedRowCount is the number of synthetic observations written
var generatedRowCount = promauto.NewCounter(prometheus.CounterOpts{
	Subsystem: "generator",
	Name:      "rows_total",
	Help:      "Total number of synthetic observations written",
})

// generatedFileCount is the number of batch files written
var generatedFileCount = promauto.NewCounter(prometheus.CounterOpts{
	Subsystem: "generator",
	Name:      "files_total",
	Help:      "Total number of synthetic batch files written",
})

// generateErrorCount is the number of failed batch writes
var generateErrorCount = promauto.NewCounter(prometheus.CounterOpts{
	Subsystem: "generator",
	Name:      "error_total",
	Help:      "Total number of batch files that could not be written",
})
