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
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/observation"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/shared/expr"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/sinks"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/watermark"
)

var t0 = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func reading(station string, temperature, humidity float64, at time.Time) observation.Observation {
	return observation.Observation{
		StationID:    station,
		TemperatureC: temperature,
		HumidityPct:  humidity,
		EventTime:    at,
		Latitude:     observation.Float(39.04),
		Longitude:    observation.Float(-84.66),
	}
}

func kcvgBatch() []observation.Observation {
	return []observation.Observation{
		reading("KCVG", 20, 50, t0.Add(5*time.Second)),
		reading("KCVG", 34, 60, t0.Add(20*time.Second)),
		reading("KCVG", -15, 80, t0.Add(40*time.Second)),
	}
}

func attentionPredicate(t *testing.T) *expr.Predicate {
	p, err := expr.CompileBool(DefaultAttentionExpression)
	require.NoError(t, err)
	return p
}

func TestClassify(t *testing.T) {
	tests := []struct {
		temperature float64
		severity    string
		reason      string
		alert       bool
	}{
		{temperature: 45, severity: SeverityExcessiveHeat, reason: ReasonHeat, alert: true},
		{temperature: 40, severity: SeverityExcessiveHeat, reason: ReasonHeat, alert: true},
		{temperature: 39.9, severity: SeverityHeatAdvisory, reason: ReasonHeat, alert: true},
		{temperature: 32, severity: SeverityHeatAdvisory, reason: ReasonHeat, alert: true},
		{temperature: 31.9},
		{temperature: 0},
		{temperature: -11.9},
		{temperature: -12, severity: SeverityWindChill, reason: ReasonCold, alert: true},
		{temperature: -17.9, severity: SeverityWindChill, reason: ReasonCold, alert: true},
		{temperature: -18, severity: SeverityExtremeCold, reason: ReasonCold, alert: true},
		{temperature: -30, severity: SeverityExtremeCold, reason: ReasonCold, alert: true},
	}
	for _, tt := range tests {
		severity, reason, ok := Classify(tt.temperature)
		assert.Equal(t, tt.alert, ok, "temperature %v", tt.temperature)
		assert.Equal(t, tt.severity, severity, "temperature %v", tt.temperature)
		assert.Equal(t, tt.reason, reason, "temperature %v", tt.temperature)
	}
}

func TestHeatIndex(t *testing.T) {
	_, ok := HeatIndex(27, 39.9)
	assert.False(t, ok)
	_, ok = HeatIndex(26.9, 90)
	assert.False(t, ok)

	hi, ok := HeatIndex(27, 40)
	assert.True(t, ok)
	assert.InDelta(t, 27.0, hi, 1.5)

	hi, ok = HeatIndex(34, 60)
	assert.True(t, ok)
	assert.Greater(t, hi, 34.0)
}

func TestCritical_Merge(t *testing.T) {
	q := NewCritical(watermark.NewTracker(), 0)
	assert.Equal(t, sinks.Append, q.Mode())

	res, err := q.Merge(context.Background(), kcvgBatch())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Merged)
	assert.Equal(t, 1, res.Filtered)
	assert.Equal(t, 0, q.Finalize(context.Background()))

	rows := q.Output()
	require.Len(t, rows, 2)
	hot := rows[0].(sinks.CriticalRow)
	assert.Equal(t, 34.0, hot.Temperature)
	assert.Equal(t, SeverityHeatAdvisory, hot.Severity)
	assert.Equal(t, ReasonHeat, hot.AlertReason)
	assert.Equal(t, t0.Add(20*time.Second).UnixMilli(), hot.Timestamp)
	require.NotNil(t, hot.HeatIndexC)
	cold := rows[1].(sinks.CriticalRow)
	assert.Equal(t, -15.0, cold.Temperature)
	assert.Equal(t, SeverityWindChill, cold.Severity)
	assert.Equal(t, ReasonCold, cold.AlertReason)
	assert.Nil(t, cold.HeatIndexC)

	// the next batch replaces the pending rows
	res, err = q.Merge(context.Background(), []observation.Observation{reading("KCVG", 10, 50, t0.Add(time.Minute))})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Merged)
	assert.Empty(t, q.Output())
	assert.Equal(t, t0.Add(time.Minute), q.Snapshot().MaxEventTime)
}

func TestScenario_KCVG(t *testing.T) {
	tracker := watermark.NewTracker()
	ctx := context.Background()
	avg := NewAverage(tracker, 2*time.Minute, 0, 2)
	attention := NewAttention(tracker, 0, attentionPredicate(t))

	_, err := avg.Merge(ctx, kcvgBatch())
	require.NoError(t, err)
	avg.Finalize(ctx)
	rows := avg.Output()
	require.Len(t, rows, 1)
	row := rows[0].(sinks.AverageRow)
	assert.Equal(t, "KCVG", row.StationID)
	assert.InDelta(t, 13.0, row.AvgTemperature, 1e-9)
	assert.InDelta(t, 63.333333, row.AvgHumidity, 1e-5)
	assert.Equal(t, int64(3), row.Readings)
	assert.Equal(t, t0.UnixMilli(), row.WindowStart)
	assert.Equal(t, t0.Add(time.Minute).UnixMilli(), row.WindowEnd)
	assert.False(t, row.IsFinal)
	require.NotNil(t, row.Latitude)
	assert.Equal(t, 39.04, *row.Latitude)

	res, err := attention.Merge(ctx, kcvgBatch())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Filtered)
	rows = attention.Output()
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0].(sinks.AttentionRow).CriticalReadings)
	assert.Equal(t, "humidity < 45 || humidity > 75", attention.Expression())
}

func TestAverage_FinalizeAndLate(t *testing.T) {
	tracker := watermark.NewTracker()
	ctx := context.Background()
	q := NewAverage(tracker, 2*time.Minute, 0, 1)

	_, err := q.Merge(ctx, kcvgBatch())
	require.NoError(t, err)
	assert.Equal(t, 0, q.Finalize(ctx))

	// moves the watermark to 10:01:30, past the end of the 10:00 window
	_, err = q.Merge(ctx, []observation.Observation{reading("KCVG", 10, 50, t0.Add(3*time.Minute+30*time.Second))})
	require.NoError(t, err)
	assert.Equal(t, 1, q.Finalize(ctx))

	rows := q.Output()
	require.Len(t, rows, 2)
	assert.True(t, rows[0].(sinks.AverageRow).IsFinal)
	assert.InDelta(t, 13.0, rows[0].(sinks.AverageRow).AvgTemperature, 1e-9)
	assert.False(t, rows[1].(sinks.AverageRow).IsFinal)

	// the 10:00 window never reopens
	res, err := q.Merge(ctx, []observation.Observation{reading("KCVG", 50, 50, t0.Add(30*time.Second))})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Late)
	assert.Equal(t, 0, res.Merged)
	rows = q.Output()
	assert.InDelta(t, 13.0, rows[0].(sinks.AverageRow).AvgTemperature, 1e-9)
	assert.Equal(t, int64(3), rows[0].(sinks.AverageRow).Readings)
}

func TestAverage_Retention(t *testing.T) {
	tracker := watermark.NewTracker()
	ctx := context.Background()
	q := NewAverage(tracker, 0, 5*time.Minute, 1)

	_, err := q.Merge(ctx, []observation.Observation{
		reading("KCVG", 10, 50, t0),
		reading("KCVG", 11, 50, t0.Add(2*time.Minute)),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, q.Finalize(ctx))
	assert.Len(t, q.Output(), 2)

	_, err = q.Merge(ctx, []observation.Observation{reading("KCVG", 12, 50, t0.Add(10*time.Minute))})
	require.NoError(t, err)
	assert.Equal(t, 1, q.Finalize(ctx))
	rows := q.Output()
	// 10:00 and 10:02 are more than 5 minutes behind the watermark
	require.Len(t, rows, 1)
	assert.Equal(t, t0.Add(10*time.Minute).UnixMilli(), rows[0].(sinks.AverageRow).WindowStart)
}

func TestAverage_OrderIndependent(t *testing.T) {
	batch := make([]observation.Observation, 0, 300)
	for i := 0; i < 300; i++ {
		station := []string{"KCVG", "KLAX", "KJFK"}[i%3]
		batch = append(batch, reading(station, float64(i%40)-5.3, float64(i%60)+20.1, t0.Add(time.Duration(i)*time.Second)))
	}
	shuffled := make([]observation.Observation, len(batch))
	copy(shuffled, batch)
	r := rand.New(rand.NewSource(7))
	r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	run := func(b []observation.Observation, parallelism int) []any {
		q := NewAverage(watermark.NewTracker(), 2*time.Minute, 0, parallelism)
		_, err := q.Merge(context.Background(), b)
		require.NoError(t, err)
		q.Finalize(context.Background())
		return q.Output()
	}
	assert.Equal(t, run(batch, 1), run(shuffled, 4))
}

func TestBaseline_WindowCount(t *testing.T) {
	tracker := watermark.NewTracker()
	ctx := context.Background()
	q := NewBaseline(tracker, 6*time.Hour, 0, 4)
	start := time.Date(2024, 1, 1, 0, 30, 0, 0, time.UTC)

	res, err := q.Merge(ctx, []observation.Observation{reading("KCVG", 10, 50, start)})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), q.Origin())
	assert.Equal(t, 1, res.Merged)

	tests := []struct {
		at   time.Time
		want int
	}{
		{at: start.Add(5*time.Hour + 10*time.Minute), want: 6},
		{at: start.Add(167 * time.Hour), want: 168},
		{at: start.Add(10 * 24 * time.Hour), want: 168},
	}
	for _, tt := range tests {
		res, err := q.Merge(ctx, []observation.Observation{reading("KCVG", 10, 50, tt.at)})
		require.NoError(t, err)
		assert.Equal(t, tt.want, res.Merged+res.Late, "at %v", tt.at)
	}

	// before the query started
	res, err = q.Merge(ctx, []observation.Observation{reading("KLAX", 10, 50, start.Add(-2*time.Hour))})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Merged)
}

func TestBaseline_Finalize(t *testing.T) {
	tracker := watermark.NewTracker()
	ctx := context.Background()
	q := NewBaseline(tracker, 6*time.Hour, 0, 2)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := q.Merge(ctx, []observation.Observation{reading("KCVG", 10, 40, start)})
	require.NoError(t, err)
	assert.Equal(t, 0, q.Finalize(ctx))

	// watermark = start + 7d + 30m, the window [start, start+7d) is due
	_, err = q.Merge(ctx, []observation.Observation{reading("KCVG", 20, 60, start.Add(BaselineLength+6*time.Hour+30*time.Minute))})
	require.NoError(t, err)
	assert.Equal(t, 1, q.Finalize(ctx))

	rows := q.Output()
	first := rows[0].(sinks.BaselineRow)
	assert.True(t, first.IsFinal)
	assert.Equal(t, start.UnixMilli(), first.WindowStart)
	assert.Equal(t, start.Add(BaselineLength).UnixMilli(), first.WindowEnd)
	assert.Equal(t, 10.0, first.AvgTemperature7d)
	assert.Equal(t, int64(1), first.Readings)
	for _, r := range rows[1:] {
		assert.False(t, r.(sinks.BaselineRow).IsFinal)
	}
}

func TestQuery_SnapshotRestore(t *testing.T) {
	ctx := context.Background()
	tracker := watermark.NewTracker()
	q := NewBaseline(tracker, time.Hour, 0, 2)
	_, err := q.Merge(ctx, kcvgBatch())
	require.NoError(t, err)
	_, err = q.Merge(ctx, []observation.Observation{reading("KCVG", 12, 55, t0.Add(BaselineLength+2*time.Hour))})
	require.NoError(t, err)
	require.Greater(t, q.Finalize(ctx), 0)

	raw, err := json.Marshal(q.Snapshot())
	require.NoError(t, err)
	var state State
	require.NoError(t, json.Unmarshal(raw, &state))

	restoredTracker := watermark.NewTracker()
	restored := NewBaseline(restoredTracker, time.Hour, 0, 2)
	require.NoError(t, restored.Restore(state))
	assert.Equal(t, q.Origin(), restored.Origin())
	assert.Equal(t, tracker.CurrentWatermark(BaselineID), restoredTracker.CurrentWatermark(BaselineID))
	assert.Equal(t, q.Output(), restored.Output())

	// both continue identically
	next := []observation.Observation{reading("KCVG", 30, 70, t0.Add(BaselineLength+5*time.Hour))}
	_, err = q.Merge(ctx, next)
	require.NoError(t, err)
	_, err = restored.Merge(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, q.Finalize(ctx), restored.Finalize(ctx))
	assert.Equal(t, q.Output(), restored.Output())

	restored.Reset()
	assert.Empty(t, restored.Output())
	assert.True(t, restored.Origin().IsZero())
}

func TestWindowed_RestoreRejectsForeignEntries(t *testing.T) {
	ctx := context.Background()
	avg := NewAverage(watermark.NewTracker(), 0, 0, 1)
	_, err := avg.Merge(ctx, kcvgBatch())
	require.NoError(t, err)

	baseline := NewBaseline(watermark.NewTracker(), 0, 0, 1)
	assert.Error(t, baseline.Restore(avg.Snapshot()))
}
