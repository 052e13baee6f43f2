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

package util

import (
	"context"
	"fmt"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
)

// DefaultRetryBackoff is used for sink writes and checkpoint commits.
// There is no Cap on the backoff because setting a Cap stops the backoff once the duration exceeds it.
var DefaultRetryBackoff = wait.Backoff{
	Steps:    5,
	Duration: 500 * time.Millisecond,
	Factor:   2.0,
	Jitter:   0.1,
}

// RetryWithBackoff invokes fn until it succeeds, the backoff steps are exhausted or ctx is done.
// Each attempt gets its own timeout when attemptTimeout is positive, so a stuck write surfaces as a
// retry instead of a hang. It returns the number of attempts made together with the last error.
func RetryWithBackoff(ctx context.Context, backoff wait.Backoff, attemptTimeout time.Duration, fn func(context.Context) error) (int, error) {
	var (
		attempts int
		lastErr  error
	)
	err := wait.ExponentialBackoff(backoff, func() (bool, error) {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		default:
		}
		attempts++
		attemptCtx, cancel := ctx, context.CancelFunc(func() {})
		if attemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, attemptTimeout)
		}
		defer cancel()
		if lastErr = fn(attemptCtx); lastErr != nil {
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		if lastErr != nil {
			return attempts, fmt.Errorf("gave up after %d attempts: %w", attempts, lastErr)
		}
		return attempts, err
	}
	return attempts, nil
}
