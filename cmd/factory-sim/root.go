package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"factory-sim/internal/logging"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "factory-sim",
	Short: "Factory machine telemetry simulator",
	Long:  "factory-sim runs a discrete-event simulation of production machines and delivers their telemetry to collectors, files and dashboards.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := logLevel
		if !cmd.Flags().Changed("log-level") {
			if env := os.Getenv("LOG_LEVEL"); env != "" {
				level = env
			}
		}
		logger := logging.New(level)
		slog.SetDefault(logger)
		cmd.SetContext(logging.NewContext(cmd.Context(), logger))
		return nil
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(profilesCmd)
}
