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
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/checkpoint"
	"github.com/Maneesh3110/NationalWeatherService-Live-Observations-Pipeline/pkg/config"
)

func NewCheckpointsCommand() *cobra.Command {
	var output string

	command := &cobra.Command{
		Use:   "checkpoints",
		Short: "Print the committed batch and offset of every query",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.Load(configFile)
			if err != nil {
				return err
			}
			m, err := checkpoint.NewManager(conf.CheckpointDir)
			if err != nil {
				return err
			}
			summaries, err := m.List()
			if err != nil {
				return err
			}
			return printSummaries(cmd.OutOrStdout(), output, summaries)
		},
	}
	command.Flags().StringVarP(&output, "output", "o", "table", "Output format, table or json")
	return command
}

func printSummaries(w io.Writer, output string, summaries []checkpoint.Summary) error {
	switch output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if summaries == nil {
			summaries = []checkpoint.Summary{}
		}
		return enc.Encode(summaries)
	case "table":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "QUERY\tSEQ\tOFFSET\tCOMMITTED\tPENDING\tERROR")
		for _, s := range summaries {
			committed, pending := "-", "-"
			if !s.CommittedAt.IsZero() {
				committed = s.CommittedAt.UTC().Format(time.RFC3339)
			}
			if s.Pending != nil {
				pending = fmt.Sprintf("%d:%s", s.Pending.Seq, s.Pending.Through)
			}
			_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n", s.QueryID, s.Seq, s.Offset, committed, pending, s.Err)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unsupported output format %q", output)
	}
}
