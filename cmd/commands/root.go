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
	"os"

	"github.com/spf13/cobra"
)

const (
	CLIName = "nws-pipeline"
)

var (
	rootCmd = &cobra.Command{
		Use:   CLIName,
		Short: "NWS observation pipeline",
		Long:  "Continuous windowed aggregation of weather station observations into alert, average, attention and baseline views.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	// configFile is shared by every command that loads the configuration.
	configFile string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Configuration file, defaults to $NWS_CONFIG")
	rootCmd.AddCommand(NewEngineCommand())
	rootCmd.AddCommand(NewGenerateCommand())
	rootCmd.AddCommand(NewCheckpointsCommand())
	rootCmd.AddCommand(NewVersionCommand())
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
