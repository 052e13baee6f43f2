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

package watermark

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTracker_CurrentWatermark(t *testing.T) {
	base := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
	tr := NewTracker()
	tr.Register("avg", 2*time.Minute)
	tr.Register("critical", 0)

	assert.Equal(t, InitialWatermark, tr.CurrentWatermark("avg"))
	assert.Equal(t, InitialWatermark, tr.CurrentWatermark("unknown"))

	tr.Observe("avg", base)
	tr.Observe("critical", base)
	assert.True(t, time.Time(tr.CurrentWatermark("avg")).Equal(base.Add(-2*time.Minute)))
	assert.True(t, time.Time(tr.CurrentWatermark("critical")).Equal(base))

	// queries are independent
	tr.Observe("critical", base.Add(time.Hour))
	assert.True(t, time.Time(tr.CurrentWatermark("avg")).Equal(base.Add(-2*time.Minute)))
}

func TestTracker_NeverRegresses(t *testing.T) {
	base := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
	tr := NewTracker()
	tr.Register("avg", time.Minute)

	previous := tr.CurrentWatermark("avg")
	// out of order arrival across stations with skewed clocks
	for _, offset := range []time.Duration{10 * time.Minute, -3 * time.Hour, 5 * time.Minute, 11 * time.Minute, 0} {
		tr.Observe("avg", base.Add(offset))
		current := tr.CurrentWatermark("avg")
		assert.False(t, current.BeforeWatermark(previous), "watermark regressed from %s to %s", previous, current)
		previous = current
	}
	assert.True(t, time.Time(previous).Equal(base.Add(10*time.Minute)))
	assert.True(t, tr.MaxEventTime("avg").Equal(base.Add(11*time.Minute)))
}

func TestTracker_Restore(t *testing.T) {
	base := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
	tr := NewTracker()
	tr.Register("baselines", 6*time.Hour)
	tr.Restore("baselines", base)
	assert.True(t, time.Time(tr.CurrentWatermark("baselines")).Equal(base.Add(-6*time.Hour)))

	tr.Restore("baselines", time.Time{})
	assert.Equal(t, InitialWatermark, tr.CurrentWatermark("baselines"))
	assert.True(t, tr.MaxEventTime("baselines").IsZero())
}

func TestWatermark_Passed(t *testing.T) {
	end := time.Unix(120, 0)
	assert.True(t, Watermark(end).Passed(end))
	assert.True(t, Watermark(end.Add(time.Millisecond)).Passed(end))
	assert.False(t, Watermark(end.Add(-time.Millisecond)).Passed(end))
	assert.False(t, InitialWatermark.Passed(time.Unix(0, 0)))
}
