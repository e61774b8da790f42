// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package cli implements the synconn command.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"code.hybscloud.com/synconn/internal/log"
)

const logLevelEnv = "SYNCONN_LOG_LEVEL"

// Version is set at build time with -ldflags.
var Version = "dev"

// NewRootCommand builds the command tree. Each call returns a fresh tree so
// tests can run commands independently.
func NewRootCommand() *cobra.Command {
	var logLevelFlag string
	root := &cobra.Command{
		Use:           "synconn",
		Short:         "Replay scripted operations against a synthetic duplex stream",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := logLevelFlag
			if !cmd.Flags().Changed("log-level") {
				if env := os.Getenv(logLevelEnv); env != "" {
					level = env
				}
			}
			lvl, err := log.ParseLevel(level)
			if err != nil {
				return fmt.Errorf("log level: %w", err)
			}
			log.SetLevel(lvl)
			log.SetOutput(cmd.ErrOrStderr())
			return nil
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().StringVar(&logLevelFlag, "log-level", "warn",
		"Log level (trace, debug, info, warn, error); falls back to $"+logLevelEnv)

	root.AddCommand(newReplayCommand(), newVersionCommand())
	return root
}

// Execute runs the command line and exits non-zero on error.
func Execute() {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("synconn", Version)
		},
	}
}
