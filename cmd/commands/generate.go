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
	"time"

	"github.com/spf13/cobra"
	"sigs.k8s.io/controller-runtime/pkg/manager/signals"

	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/config"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/shared/logging"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/sources/generator"
)

func NewGenerateCommand() *cobra.Command {
	var (
		interval    time.Duration
		rowsPerTick int
		count       int64
		numeric     bool
	)

	command := &cobra.Command{
		Use:   "generate",
		Short: "Write mock observation batches into the input directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.Load(configFile)
			if err != nil {
				return err
			}
			log := logging.NewLogger().Named("generate")
			opts := []generator.Option{
				generator.WithInterval(interval),
				generator.WithRowsPerTick(rowsPerTick),
				generator.WithLimit(count),
				generator.WithLogger(log),
			}
			if !numeric {
				// numeric ids would be dropped by the station allow-list
				opts = append(opts, generator.WithStations(conf.Stations))
			}
			g, err := generator.NewGenerator(conf.InputDir, opts...)
			if err != nil {
				return err
			}
			return g.Start(logging.WithLogger(signals.SetupSignalHandler(), log))
		},
	}
	command.Flags().DurationVar(&interval, "interval", time.Second, "Time between two batch files")
	command.Flags().IntVar(&rowsPerTick, "rows", 5, "Readings per batch file")
	command.Flags().Int64Var(&count, "count", 0, "Number of batch files to write, 0 runs until interrupted")
	command.Flags().BoolVar(&numeric, "numeric-stations", false, "Use station ids 0..9 instead of the configured stations")
	return command
}
