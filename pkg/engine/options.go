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
	"time"

	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/shared/util"
)

type options struct {
	// tickInterval is the micro-batch cadence
	tickInterval time.Duration
	// maxFilesPerTrigger is the largest number of input files in one batch
	maxFilesPerTrigger int
	// sinkBackoff is the retry backoff of a sink write
	sinkBackoff wait.Backoff
	// sinkTimeout bounds a single sink write attempt
	sinkTimeout time.Duration
	logger *zap.SugaredLogger
}

// Option to apply different options
type Option func(*options)

func defaultOptions() *options {
	return &options{
		tickInterval:       5 * time.Second,
		maxFilesPerTrigger: 4,
		sinkBackoff:        util.DefaultRetryBackoff,
		sinkTimeout:        30 * time.Second,
	}
}

// WithTickInterval sets the micro-batch tick.
func WithTickInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.tickInterval = d
		}
	}
}

// WithMaxFilesPerTrigger sets the largest number of input files of one batch.
func WithMaxFilesPerTrigger(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxFilesPerTrigger = n
		}
	}
}

// WithSinkRetry sets the backoff of sink writes and the timeout of each attempt.
func WithSinkRetry(backoff wait.Backoff, attemptTimeout time.Duration) Option {
	return func(o *options) {
		o.sinkBackoff = backoff
		o.sinkTimeout = attemptTimeout
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(o *options) {
		o.logger = l
	}
}
