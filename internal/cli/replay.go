// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"code.hybscloud.com/synconn/internal/scenario"
)

const (
	outputText = "text"
	outputYAML = "yaml"
)

func newReplayCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "replay <scenario.yaml>",
		Short: "Run a scenario file and print what each operation observed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != outputText && output != outputYAML {
				return fmt.Errorf("unknown output format %q", output)
			}
			sc, err := scenario.Load(args[0])
			if err != nil {
				return fmt.Errorf("load %s: %w", args[0], err)
			}
			rep, err := scenario.Run(cmd.Context(), sc)
			if err != nil {
				return fmt.Errorf("run %s: %w", args[0], err)
			}
			if output == outputYAML {
				data, err := rep.YAML()
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return writeText(cmd.OutOrStdout(), rep)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format (text, yaml)")
	return cmd
}

func writeText(w io.Writer, rep *scenario.Report) error {
	if rep.Name != "" {
		if _, err := fmt.Fprintf(w, "scenario %s\n", rep.Name); err != nil {
			return err
		}
	}
	for _, rec := range rep.Records {
		line := fmt.Sprintf("#%d %s", rec.Step, rec.Op)
		switch rec.Op {
		case scenario.OpRunOne, scenario.OpTurn, scenario.OpRun:
			line += " dispatched=" + strconv.Itoa(rec.Dispatched)
		default:
			if rec.Async {
				line += " (completion)"
			}
			line += " n=" + strconv.Itoa(rec.N)
			if rec.Data != "" {
				line += " data=" + strconv.Quote(rec.Data)
			}
			if rec.Err != "" {
				line += " error=" + rec.Err
			}
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "remaining=%d pending=%d read=%d written=%d\n",
		rep.Remaining, rep.Pending, rep.BytesRead, rep.BytesWritten)
	return err
}
