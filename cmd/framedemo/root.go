// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"github.com/spf13/cobra"

	"github.com/gogpu/frameflow"
	"github.com/gogpu/frameflow/internal/logging"
)

type flags struct {
	config    string
	logLevel  string
	logFormat string
	frames    int
	lanes     int
	tasks     int
}

func newRootCmd() *cobra.Command {
	var f flags

	root := &cobra.Command{
		Use:   "framedemo",
		Short: "Run frameflow tasks and frame submissions on the noop GPU backend",
		Args:  cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			frameflow.SetLogger(logging.New(cmd.ErrOrStderr(), logging.ParseLevel(f.logLevel), f.logFormat))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := frameflow.DefaultConfig()
			if f.config != "" {
				var err error
				if cfg, err = frameflow.LoadConfig(f.config); err != nil {
					return err
				}
			}
			return run(cmd.Context(), cmd.OutOrStdout(), cfg, f)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&f.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&f.logFormat, "log-format", "text", "Log format (text, json)")
	root.Flags().StringVar(&f.config, "config", "", "TOML engine configuration file")
	root.Flags().IntVar(&f.frames, "frames", 10, "Number of frames to submit")
	root.Flags().IntVar(&f.lanes, "lanes", 4, "Submission lanes per frame")
	root.Flags().IntVar(&f.tasks, "tasks", 32, "Number of synthetic background tasks")

	return root
}
