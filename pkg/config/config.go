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

// Package config loads the configuration of the pipeline from defaults, an optional YAML file and NWS_ prefixed
// environment variables, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/query"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/shared/expr"
)

const (
	// EnvPrefix is the prefix of every environment variable.
	EnvPrefix = "NWS"
	// EnvConfigFile names the optional configuration file.
	EnvConfigFile = "NWS_CONFIG"
)

// Config is the complete configuration.
type Config struct {
	// Stations is the allow-list of station ids, empty accepts every station.
	Stations []string `mapstructure:"stations" json:"stations"`
	// PollInterval is the longest time the input directory listing is reused.
	PollInterval time.Duration `mapstructure:"poll_interval" json:"pollInterval"`
	// TickInterval is the micro-batch cadence.
	TickInterval time.Duration `mapstructure:"tick_interval" json:"tickInterval"`
	// MaxFilesPerTrigger is the largest number of input files consumed by one batch.
	MaxFilesPerTrigger int `mapstructure:"max_files_per_trigger" json:"maxFilesPerTrigger"`

	InputDir      string `mapstructure:"input_dir" json:"inputDir"`
	OutputDir     string `mapstructure:"output_dir" json:"outputDir"`
	CheckpointDir string `mapstructure:"checkpoint_dir" json:"checkpointDir"`

	LatenessCritical  time.Duration `mapstructure:"lateness_critical" json:"latenessCritical"`
	LatenessAvg       time.Duration `mapstructure:"lateness_avg" json:"latenessAvg"`
	LatenessHumidity  time.Duration `mapstructure:"lateness_humidity" json:"latenessHumidity"`
	LatenessBaselines time.Duration `mapstructure:"lateness_baselines" json:"latenessBaselines"`

	// RetentionAvg is how long finalized windows stay in the average view, zero keeps them.
	RetentionAvg time.Duration `mapstructure:"retention_avg" json:"retentionAvg"`
	// RetentionBaselines is how long finalized windows stay in the baseline view, zero keeps them.
	RetentionBaselines time.Duration `mapstructure:"retention_baselines" json:"retentionBaselines"`

	// AttentionExpr selects the readings counted by the attention query.
	AttentionExpr string `mapstructure:"attention_expr" json:"attentionExpr"`
	// MergeParallelism is the number of concurrent writers merging a batch into a window store.
	MergeParallelism int `mapstructure:"merge_parallelism" json:"mergeParallelism"`

	SinkTimeout      time.Duration `mapstructure:"sink_timeout" json:"sinkTimeout"`
	SinkRetrySteps   int           `mapstructure:"sink_retry_steps" json:"sinkRetrySteps"`
	DecodeRetryLimit int           `mapstructure:"decode_retry_limit" json:"decodeRetryLimit"`

	// MetricsAddr is the listen address of the metrics and status server, empty disables it.
	MetricsAddr string `mapstructure:"metrics_addr" json:"metricsAddr"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("stations", []string{"KCVG"})
	v.SetDefault("poll_interval", 60*time.Second)
	v.SetDefault("tick_interval", 5*time.Second)
	v.SetDefault("max_files_per_trigger", 4)
	v.SetDefault("input_dir", "data/input/json_stream")
	v.SetDefault("output_dir", "data/output")
	v.SetDefault("checkpoint_dir", "data/checkpoints")
	v.SetDefault("lateness_critical", time.Duration(0))
	v.SetDefault("lateness_avg", 2*time.Minute)
	v.SetDefault("lateness_humidity", time.Duration(0))
	v.SetDefault("lateness_baselines", 6*time.Hour)
	v.SetDefault("retention_avg", 24*time.Hour)
	v.SetDefault("retention_baselines", time.Duration(0))
	v.SetDefault("attention_expr", query.DefaultAttentionExpression)
	v.SetDefault("merge_parallelism", 4)
	v.SetDefault("sink_timeout", 30*time.Second)
	v.SetDefault("sink_retry_steps", 5)
	v.SetDefault("decode_retry_limit", 3)
	v.SetDefault("metrics_addr", ":9090")
}

// Load reads the configuration. The file is taken from path, or from NWS_CONFIG when path is empty; no file at
// all is fine.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to load configuration file. %w", err)
		}
	}
	conf := &Config{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("failed unmarshal configuration. %w", err)
	}
	conf.Stations = normalizeStations(conf.Stations)
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// normalizeStations trims the ids and splits comma separated entries, which is how a list arrives from the
// environment.
func normalizeStations(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	positive := map[string]time.Duration{
		"poll_interval": c.PollInterval,
		"tick_interval": c.TickInterval,
		"sink_timeout":  c.SinkTimeout,
	}
	for name, d := range positive {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %v", name, d)
		}
	}
	nonNegative := map[string]time.Duration{
		"lateness_critical":   c.LatenessCritical,
		"lateness_avg":        c.LatenessAvg,
		"lateness_humidity":   c.LatenessHumidity,
		"lateness_baselines":  c.LatenessBaselines,
		"retention_avg":       c.RetentionAvg,
		"retention_baselines": c.RetentionBaselines,
	}
	for name, d := range nonNegative {
		if d < 0 {
			return fmt.Errorf("%s must not be negative, got %v", name, d)
		}
	}
	counts := map[string]int{
		"max_files_per_trigger": c.MaxFilesPerTrigger,
		"merge_parallelism":     c.MergeParallelism,
		"sink_retry_steps":      c.SinkRetrySteps,
		"decode_retry_limit":    c.DecodeRetryLimit,
	}
	for name, n := range counts {
		if n < 1 {
			return fmt.Errorf("%s must be at least 1, got %d", name, n)
		}
	}
	if c.InputDir == "" || c.OutputDir == "" || c.CheckpointDir == "" {
		return fmt.Errorf("input_dir, output_dir and checkpoint_dir are required")
	}
	if _, err := expr.CompileBool(c.AttentionExpr); err != nil {
		return fmt.Errorf("invalid attention_expr: %w", err)
	}
	return nil
}
