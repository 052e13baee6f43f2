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

package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/checkpoint"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/config"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/intake"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/query"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/sinks"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/watermark"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	b := bytes.NewBufferString("")
	rootCmd.SetOut(b)
	rootCmd.SetErr(b)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return b.String(), err
}

func Test_Commands(t *testing.T) {
	t.Setenv("NWS_CONFIG", "")

	t.Run("help", func(t *testing.T) {
		out, err := execute(t, "help")
		require.NoError(t, err)
		assert.Contains(t, out, "Available Commands")
		for _, name := range []string{"engine", "generate", "checkpoints", "version"} {
			assert.Contains(t, out, name)
		}
	})

	t.Run("generate flags", func(t *testing.T) {
		cmd := NewGenerateCommand()
		assert.True(t, cmd.HasLocalFlags())
		assert.Equal(t, "duration", cmd.Flag("interval").Value.Type())
		assert.Equal(t, "int", cmd.Flag("rows").Value.Type())
		assert.Equal(t, "int64", cmd.Flag("count").Value.Type())
		assert.Equal(t, "bool", cmd.Flag("numeric-stations").Value.Type())
	})

	t.Run("version", func(t *testing.T) {
		out, err := execute(t, "version", "--short")
		require.NoError(t, err)
		assert.NotEmpty(t, out)
	})

	t.Run("checkpoints", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("NWS_CHECKPOINT_DIR", dir)
		m, err := checkpoint.NewManager(dir, checkpoint.WithRunID("run-1"))
		require.NoError(t, err)
		require.NoError(t, m.Commit(context.Background(), query.AverageID, 3, intake.Offset{Seq: 7, File: "f7.json"}, []byte("{}")))

		out, err := execute(t, "checkpoints", "-o", "json")
		require.NoError(t, err)
		var summaries []checkpoint.Summary
		require.NoError(t, json.Unmarshal([]byte(out), &summaries))
		require.Len(t, summaries, 1)
		assert.Equal(t, query.AverageID, summaries[0].QueryID)
		assert.Equal(t, int64(3), summaries[0].Seq)
		assert.Equal(t, "f7.json", summaries[0].Offset.File)

		out, err = execute(t, "checkpoints", "-o", "table")
		require.NoError(t, err)
		assert.Contains(t, out, "QUERY")
		assert.Contains(t, out, "7:f7.json")

		_, err = execute(t, "checkpoints", "-o", "yaml")
		assert.Error(t, err)
	})
}

func TestPrintSummaries_Empty(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, printSummaries(&b, "json", nil))
	assert.Equal(t, "[]\n", b.String())
}

func TestBuildPipelines(t *testing.T) {
	t.Setenv("NWS_CONFIG", "")
	t.Setenv("NWS_OUTPUT_DIR", t.TempDir())
	conf, err := config.Load("")
	require.NoError(t, err)

	pipelines, err := buildPipelines(conf, watermark.NewTracker(), zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	require.Len(t, pipelines, 4)
	want := map[string]sinks.Mode{
		query.CriticalID:  sinks.Append,
		query.AverageID:   sinks.Replace,
		query.AttentionID: sinks.Replace,
		query.BaselineID:  sinks.Replace,
	}
	for _, p := range pipelines {
		assert.Equal(t, want[p.Query.ID()], p.Query.Mode())
		assert.Equal(t, p.Query.Mode(), p.Sink.Mode())
		assert.Equal(t, p.Query.ID(), p.Sink.Name())
		assert.DirExists(t, filepath.Join(conf.OutputDir, p.Query.ID()))
	}

	b := sinkBackoff(conf)
	assert.Equal(t, conf.SinkRetrySteps, b.Steps)
	assert.Equal(t, 500*time.Millisecond, b.Duration)
}
