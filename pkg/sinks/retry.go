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
	"context"
	"time"

	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/shared/logging"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/shared/util"
)

// WriteWithRetry writes the batch, retrying transient failures with an exponential backoff. Every attempt is
// bounded by attemptTimeout so a stuck write surfaces as a retry instead of a hang. Since sink writes are
// idempotent per sequence number, retrying a partially completed write is safe.
func WriteWithRetry(ctx context.Context, sink Sinker, seq int64, rows []any, backoff wait.Backoff, attemptTimeout time.Duration) error {
	log := logging.FromContext(ctx).With(zap.String("sink", sink.Name()), zap.Int64("seq", seq))
	attempts, err := util.RetryWithBackoff(ctx, backoff, attemptTimeout, func(ctx context.Context) error {
		start := time.Now()
		if err := sink.Write(ctx, seq, rows); err != nil {
			writeErrorCount.WithLabelValues(sink.Name()).Inc()
			log.Warnw("Sink write failed, retrying", zap.Error(err))
			return err
		}
		writeCount.WithLabelValues(sink.Name()).Inc()
		rowsWrittenCount.WithLabelValues(sink.Name()).Add(float64(len(rows)))
		writeDuration.WithLabelValues(sink.Name()).Observe(float64(time.Since(start).Microseconds()))
		return nil
	})
	if err != nil {
		return &WriteErr{Sink: sink.Name(), Seq: seq, Attempts: attempts, Err: err}
	}
	return nil
}
