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
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/util/wait"
	"sigs.k8s.io/controller-runtime/pkg/manager/signals"

	pipeline "github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/checkpoint"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/config"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/engine"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/intake"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/metrics"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/query"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/shared/expr"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/shared/logging"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/shared/util"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/sinks/parquet"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/watermark"
)

func NewEngineCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "engine",
		Short: "Start the streaming engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.Load(configFile)
			if err != nil {
				return err
			}
			log := logging.NewLogger().Named("engine")
			version := pipeline.GetVersion()
			log.Infow("Starting NWS observation pipeline", "version", version.Version)
			metrics.BuildInfo.WithLabelValues(version.Version, version.Platform).Set(1)
			ctx := logging.WithLogger(signals.SetupSignalHandler(), log)

			in, err := intake.NewIntake(conf.InputDir,
				intake.WithStations(conf.Stations),
				intake.WithPollInterval(conf.PollInterval),
				intake.WithDecodeRetryLimit(conf.DecodeRetryLimit),
				intake.WithLogger(log))
			if err != nil {
				return err
			}
			if err = in.Start(ctx); err != nil {
				log.Warnw("Input directory watcher unavailable, listing on every poll", zap.Error(err))
			}
			defer in.Wait()

			backoff := sinkBackoff(conf)
			checkpoints, err := checkpoint.NewManager(conf.CheckpointDir,
				checkpoint.WithLogger(log),
				checkpoint.WithRetry(backoff, conf.SinkTimeout))
			if err != nil {
				return err
			}
			tracker := watermark.NewTracker()
			pipelines, err := buildPipelines(conf, tracker, log)
			if err != nil {
				return err
			}
			scheduler, err := engine.NewScheduler(in, checkpoints, tracker, pipelines,
				engine.WithTickInterval(conf.TickInterval),
				engine.WithMaxFilesPerTrigger(conf.MaxFilesPerTrigger),
				engine.WithSinkRetry(backoff, conf.SinkTimeout),
				engine.WithLogger(log))
			if err != nil {
				return err
			}

			if conf.MetricsAddr != "" {
				ms := metrics.NewMetricsServer(conf.MetricsAddr,
					metrics.WithHealthCheckExecutor(scheduler.Ready),
					metrics.WithStatusFunc(func() any { return scheduler.Statuses() }))
				shutdown, err := ms.Start(ctx)
				if err != nil {
					return fmt.Errorf("failed to start metrics server: %w", err)
				}
				defer func() {
					sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
					defer cancel()
					if err := shutdown(sctx); err != nil {
						log.Errorw("Failed to shutdown metrics server", zap.Error(err))
					}
				}()
			}
			return scheduler.Start(ctx)
		},
	}
	return command
}

func sinkBackoff(conf *config.Config) wait.Backoff {
	b := util.DefaultRetryBackoff
	b.Steps = conf.SinkRetrySteps
	return b
}

// buildPipelines wires the four queries to their parquet sinks under the output directory.
func buildPipelines(conf *config.Config, tracker *watermark.Tracker, log *zap.SugaredLogger) ([]engine.Pipeline, error) {
	predicate, err := expr.CompileBool(conf.AttentionExpr)
	if err != nil {
		return nil, err
	}
	queries := []query.Query{
		query.NewCritical(tracker, conf.LatenessCritical),
		query.NewAverage(tracker, conf.LatenessAvg, conf.RetentionAvg, conf.MergeParallelism),
		query.NewAttention(tracker, conf.LatenessHumidity, predicate),
		query.NewBaseline(tracker, conf.LatenessBaselines, conf.RetentionBaselines, conf.MergeParallelism),
	}
	pipelines := make([]engine.Pipeline, 0, len(queries))
	for _, q := range queries {
		sink, err := parquet.NewToParquet(q.ID(), filepath.Join(conf.OutputDir, q.ID()), q.Mode(), q.Prototype(), parquet.WithLogger(log))
		if err != nil {
			return nil, fmt.Errorf("failed to create sink for %s: %w", q.ID(), err)
		}
		pipelines = append(pipelines, engine.Pipeline{Query: q, Sink: sink})
	}
	return pipelines, nil
}
