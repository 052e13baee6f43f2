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
	"errors"
	"fmt"
)

// WriteErr is returned once a sink write gave up retrying.
type WriteErr struct {
	Sink     string
	Seq      int64
	Attempts int
	Err      error
}

func (e *WriteErr) Error() string {
	return fmt.Sprintf("failed to write batch %d to sink %s after %d attempts: %v", e.Seq, e.Sink, e.Attempts, e.Err)
}

func (e *WriteErr) Unwrap() error {
	return e.Err
}

// IsWriteErr returns true if err is, or wraps, a WriteErr.
func IsWriteErr(err error) bool {
	var we *WriteErr
	return errors.As(err, &we)
}
