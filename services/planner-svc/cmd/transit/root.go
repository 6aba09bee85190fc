package main

import (
	"github.com/spf13/cobra"

	"transit/pkg/logger"
)

// Version information, overridden at build time via ldflags.
var (
	version = "dev"
	commit  = "none"
)

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:          "transit",
		Short:        "Transit plans passenger flow over station networks",
		Long:         `Transit loads a station network and answers planning queries: the maximum passenger flow between two stations, or the cheapest high-goodness subset of tracks connecting every station. It can also run the planner as an HTTP service.`,
		Version:      version + " (" + commit + ")",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.InitWithConfig(logger.Config{
				Level:  logLevel,
				Format: "text",
				Output: "stderr",
			})
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newPlanCmd())
	root.AddCommand(newServeCmd())

	return root
}
