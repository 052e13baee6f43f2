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
	"time"

	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/util/wait"
)

type options struct {
	// decodeRetryLimit is the number of polls by one consumer of a batch none of whose records decode
	// before it is skipped as a poison batch.
	decodeRetryLimit int
	// pollInterval is the longest time a directory listing is reused when a watcher is running.
	pollInterval time.Duration
	// cacheSize is the number of decoded files kept in memory.
	cacheSize int
	// stations is the allow-list of station ids, empty means every station.
	stations map[string]struct{}
	// readBackoff retries reading a file before the failure is returned to the caller.
	readBackoff wait.Backoff
	logger      *zap.SugaredLogger
}

// Option to apply different options
type Option func(*options)

func defaultOptions() *options {
	return &options{
		decodeRetryLimit: 3,
		pollInterval:     time.Minute,
		cacheSize:        64,
		stations:         map[string]struct{}{},
		readBackoff:      wait.Backoff{Steps: 3, Duration: 50 * time.Millisecond, Factor: 2, Jitter: 0.1},
	}
}

// WithReadBackoff sets the retries of a failed file read within one poll.
func WithReadBackoff(b wait.Backoff) Option {
	return func(o *options) {
		if b.Steps > 0 {
			o.readBackoff = b
		}
	}
}

// WithDecodeRetryLimit sets the number of polls of one consumer before an undecodable batch is skipped.
func WithDecodeRetryLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.decodeRetryLimit = n
		}
	}
}

// WithPollInterval sets the directory re-listing interval.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithCacheSize sets the number of decoded files kept in memory.
func WithCacheSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.cacheSize = n
		}
	}
}

// WithStations restricts intake to the given stations.
func WithStations(stations []string) Option {
	return func(o *options) {
		for _, s := range stations {
			o.stations[s] = struct{}{}
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(o *options) {
		o.logger = l
	}
}
