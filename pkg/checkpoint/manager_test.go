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

package checkpoint

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/intake"
)

func newTestManager(t *testing.T, root string) *Manager {
	m, err := NewManager(root,
		WithLogger(zaptest.NewLogger(t).Sugar()),
		WithRetry(wait.Backoff{Steps: 2, Duration: time.Millisecond, Factor: 1}, time.Second),
		WithRunID("test-run"))
	require.NoError(t, err)
	return m
}

func TestManager_RecoverColdStart(t *testing.T) {
	m := newTestManager(t, t.TempDir())
	rec, err := m.Recover(context.Background(), "avg")
	require.NoError(t, err)
	assert.True(t, rec.IsZero())
	assert.Equal(t, "avg", rec.QueryID)
}

func TestManager_CommitRecover(t *testing.T) {
	root := t.TempDir()
	m := newTestManager(t, root)
	ctx := context.Background()
	offset := intake.Offset{Seq: 4, File: "obs-0004.json"}

	require.NoError(t, m.Commit(ctx, "avg", 1, intake.Offset{Seq: 2, File: "obs-0002.json"}, []byte(`{"a":1}`)))
	require.NoError(t, m.Commit(ctx, "avg", 2, offset, []byte(`{"a":2}`)))
	assert.Equal(t, float64(2), testutil.ToFloat64(commitCount.WithLabelValues("avg")))

	// a fresh manager, as after a restart
	rec, err := newTestManager(t, root).Recover(ctx, "avg")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.Seq)
	assert.Equal(t, offset, rec.Offset)
	assert.Equal(t, []byte(`{"a":2}`), rec.State)
	assert.Equal(t, "test-run", rec.RunID)
	assert.False(t, rec.IsZero())

	// other queries are unaffected
	other, err := m.Recover(ctx, "critical")
	require.NoError(t, err)
	assert.True(t, other.IsZero())

	// no temp files left behind
	files, err := os.ReadDir(filepath.Join(root, "avg"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, checkpointFile, files[0].Name())
}

func TestManager_Corrupted(t *testing.T) {
	root := t.TempDir()
	m := newTestManager(t, root)
	ctx := context.Background()
	require.NoError(t, m.Commit(ctx, "avg", 1, intake.Offset{Seq: 1, File: "a"}, []byte(`{"a":1}`)))
	require.NoError(t, m.Commit(ctx, "humidity", 1, intake.Offset{Seq: 1, File: "a"}, []byte(`{"b":1}`)))
	path := filepath.Join(root, "avg", checkpointFile)

	t.Run("truncated", func(t *testing.T) {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, data[:len(data)/2], 0644))
		_, err = m.Recover(ctx, "avg")
		assert.ErrorIs(t, err, ErrCorrupted)
	})

	t.Run("checksum", func(t *testing.T) {
		require.NoError(t, m.Commit(ctx, "avg", 1, intake.Offset{Seq: 1, File: "a"}, []byte(`{"a":1}`)))
		rec, err := m.read("avg")
		require.NoError(t, err)
		rec.State = []byte(`{"a":9}`)
		require.NoError(t, os.WriteFile(path, mustJSON(t, rec), 0644))
		_, err = m.Recover(ctx, "avg")
		assert.ErrorIs(t, err, ErrCorrupted)
	})

	t.Run("wrong query", func(t *testing.T) {
		other, err := os.ReadFile(filepath.Join(root, "humidity", checkpointFile))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, other, 0644))
		_, err = m.Recover(ctx, "avg")
		assert.ErrorIs(t, err, ErrCorrupted)
	})

	// the corruption stays with its query
	rec, err := m.Recover(ctx, "humidity")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Seq)

	require.NoError(t, m.Discard("avg"))
	rec, err = m.Recover(ctx, "avg")
	require.NoError(t, err)
	assert.True(t, rec.IsZero())
}

func TestManager_PendingPlan(t *testing.T) {
	m := newTestManager(t, t.TempDir())
	ctx := context.Background()

	cold, err := m.Recover(ctx, "critical")
	require.NoError(t, err)
	plan, err := m.PendingPlan("critical", cold)
	require.NoError(t, err)
	assert.Nil(t, plan)

	through := intake.Offset{Seq: 4, File: "d"}
	require.NoError(t, m.Plan(ctx, Plan{QueryID: "critical", Seq: 1, Through: through}))
	plan, err = m.PendingPlan("critical", cold)
	require.NoError(t, err)
	require.NotNil(t, plan)
	assert.Equal(t, int64(1), plan.Seq)
	assert.Equal(t, through, plan.Through)

	// committing the batch resolves the plan
	require.NoError(t, m.Commit(ctx, "critical", 1, through, nil))
	rec, err := m.Recover(ctx, "critical")
	require.NoError(t, err)
	plan, err = m.PendingPlan("critical", rec)
	require.NoError(t, err)
	assert.Nil(t, plan)
}

func TestManager_List(t *testing.T) {
	root := t.TempDir()
	m := newTestManager(t, root)
	ctx := context.Background()
	require.NoError(t, m.Commit(ctx, "critical", 3, intake.Offset{Seq: 9, File: "i"}, []byte(`{}`)))
	require.NoError(t, m.Commit(ctx, "avg", 1, intake.Offset{Seq: 1, File: "a"}, []byte(`{}`)))
	require.NoError(t, m.Plan(ctx, Plan{QueryID: "avg", Seq: 2, After: intake.Offset{Seq: 1, File: "a"}, Through: intake.Offset{Seq: 2, File: "b"}}))
	require.NoError(t, os.WriteFile(filepath.Join(root, "avg", checkpointFile+".tmp"), []byte("x"), 0644))

	summaries, err := m.List()
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "avg", summaries[0].QueryID)
	require.NotNil(t, summaries[0].Pending)
	assert.Equal(t, int64(2), summaries[0].Pending.Seq)
	assert.Equal(t, "critical", summaries[1].QueryID)
	assert.Equal(t, int64(3), summaries[1].Seq)
	assert.Nil(t, summaries[1].Pending)
	assert.Empty(t, summaries[1].Err)
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
